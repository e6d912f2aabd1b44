package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version   string
	buildTime string
	gitCommit string
)

var rootCmd = &cobra.Command{
	Use:   "matcherctl",
	Short: "Operate a correlation/routing matcher tree",
	Long: `matcherctl validates, serves, and load-tests a matcher tree.

Examples:
  # Validate a tree configuration without running it
  matcherctl validate tree.yaml

  # Run the matcher daemon
  matcherctl serve --config matcher.yaml

  # Load-test a tree with a synthetic event generator
  matcherctl bench tree.yaml --rate 500 --duration 30s
`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion records build-time version information for the version
// subcommand.
func SetVersion(v, bt, gc string) {
	version = v
	buildTime = bt
	gitCommit = gc
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("matcherctl version %s\n", version)
		fmt.Printf("build time: %s\n", buildTime)
		fmt.Printf("git commit: %s\n", gitCommit)
	},
}
