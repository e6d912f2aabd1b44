// Command matcherctl is the operator-facing entry point for the
// matcher engine: validating a tree configuration, running it as a
// daemon, and load-testing it, grounded on the teacher's
// cmd/template-validator CLI split (main.go thin entry point, cmd/
// package holding cobra command wiring).
package main

import (
	"fmt"
	"os"

	"github.com/vitaliisemenov/alert-history/cmd/matcherctl/cmd"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	cmd.SetVersion(version, buildTime, gitCommit)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "matcherctl: %v\n", err)
		os.Exit(1)
	}
}
