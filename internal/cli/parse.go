package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/searchql/internal/ast"
	"github.com/roach88/searchql/internal/parser"
)

// ParseResult is the JSON payload of the parse command.
type ParseResult struct {
	Formatted string         `json:"formatted"`
	Tree      map[string]any `json:"tree"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse a search query and print its syntax tree",
		Long: `Parse a search query without compiling it.

Text output is the query re-rendered with explicit operators and
parentheses, which shows how implicit OR and left association were applied.
JSON output also carries the full tree.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runParse(opts *RootOptions, query string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	tree, err := parser.ParseString(query)
	if err != nil {
		return outputQueryError(formatter, err)
	}
	formatter.VerboseLog("parsed query", "fields", ast.Fields(tree), "has_default", ast.HasDefault(tree))

	if formatter.Format == "json" {
		return formatter.Success(ParseResult{
			Formatted: ast.Format(tree),
			Tree:      ast.Describe(tree),
		})
	}

	fmt.Fprintln(formatter.Writer, ast.Format(tree))
	return nil
}
