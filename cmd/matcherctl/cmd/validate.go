package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vitaliisemenov/alert-history/internal/configschema"
	"github.com/vitaliisemenov/alert-history/internal/matcher"
)

var validateFormat string

var validateCmd = &cobra.Command{
	Use:   "validate <tree-file>",
	Short: "Validate a tree configuration without running it",
	Long: `validate decodes, schema-validates, and compiles a tree
configuration exactly as serve would on startup, then exits without
processing any events.

Exit codes:
  0: tree is valid
  1: decode, schema, or compile error
`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateFormat, "format", "", "tree file format: json, yaml (default: inferred from extension)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	format := validateFormat
	if format == "" {
		format = formatFromExtension(path)
	}

	doc, err := configschema.Parse(format, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "schema error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := doc.ToNodeConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "schema conversion error: %v\n", err)
		os.Exit(1)
	}

	builder := matcher.NewTreeBuilder(matcher.NewRegexCache(0))
	root, err := builder.Build(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s: valid (%d rule(s))\n", path, countRules(root))
	return nil
}

func countRules(n *matcher.Node) int {
	count := len(n.Rules)
	for _, child := range n.Children {
		count += countRules(child)
	}
	return count
}

func formatFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
