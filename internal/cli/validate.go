package cli

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/roach88/searchql/internal/ast"
	"github.com/roach88/searchql/internal/job"
	"github.com/roach88/searchql/internal/parser"
)

// ValidationReport is the JSON payload of a successful validate command.
type ValidationReport struct {
	Valid  bool     `json:"valid"`
	Fields []string `json:"fields,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <job-file>",
		Short: "Validate a job file without compiling it",
		Long: `Validate a job file against the job schema, check that every default
field is whitelisted, and check that the query parses.

Use "-" to read the job from stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	var (
		j   *job.Job
		err error
	)
	if path == "-" {
		j, err = job.Read(cmd.InOrStdin())
	} else {
		j, err = job.Load(path)
	}
	if err != nil {
		return outputJobError(formatter, err)
	}

	if err := j.Check(); err != nil {
		return outputJobError(formatter, err)
	}

	tree, err := parser.ParseString(j.Query)
	if err != nil {
		return outputQueryError(formatter, err)
	}
	formatter.VerboseLog("job valid", "path", path)

	report := ValidationReport{Valid: true, Fields: ast.Fields(tree)}
	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	fmt.Fprintf(formatter.Writer, "✓ %s is valid\n", path)
	return nil
}

// jobErrorMessages flattens a multierror for display.
func jobErrorMessages(err error) []string {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return []string{err.Error()}
	}
	msgs := make([]string, len(merr.Errors))
	for i, e := range merr.Errors {
		msgs[i] = e.Error()
	}
	return msgs
}
