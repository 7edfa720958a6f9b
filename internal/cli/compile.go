package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/searchql/internal/job"
	"github.com/roach88/searchql/internal/parser"
	"github.com/roach88/searchql/internal/pipeline"
	"github.com/roach88/searchql/internal/sqlgen"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path

	Query         string
	Table         string
	DefaultFields []string
	AllowedFields []string
	Renames       map[string]string
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [job-file]",
		Short: "Compile a search query to parameterized SQL",
		Long: `Compile a search query to a parameterized SQL SELECT.

The job is read from a YAML or JSON file ("-" for stdin) describing the
query, table, default fields, allowed fields, renames and expression rules.
Without a job file, --query and --table are required. Flags override the
corresponding job fields.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "also write the JSON result to this file")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "search query")
	cmd.Flags().StringVarP(&opts.Table, "table", "t", "", "table to select from")
	cmd.Flags().StringArrayVarP(&opts.DefaultFields, "default-field", "d", nil, "field matched by bare values (repeatable, ordered)")
	cmd.Flags().StringArrayVarP(&opts.AllowedFields, "allow", "a", nil, "whitelisted field (repeatable)")
	cmd.Flags().StringToStringVar(&opts.Renames, "rename", nil, "field rename as from=to (repeatable)")

	return cmd
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	j, err := loadJob(opts, args, cmd)
	if err != nil {
		return outputJobError(formatter, err)
	}
	formatter.VerboseLog("loaded job", "table", j.Table, "default_fields", j.DefaultFields)

	result, err := pipeline.Compile(j, pipeline.WithLogger(formatter.Logger()))
	if err != nil {
		return outputQueryError(formatter, err)
	}

	if opts.Output != "" {
		if err := writeQueryToFile(result.Query, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
		}
		formatter.VerboseLog("wrote output", "path", opts.Output)
	}

	return outputCompileSuccess(formatter, result.Query)
}

// loadJob reads the job file if one was given and applies flag overrides.
func loadJob(opts *CompileOptions, args []string, cmd *cobra.Command) (*job.Job, error) {
	j := &job.Job{}
	if len(args) == 1 {
		var err error
		if args[0] == "-" {
			j, err = job.Read(cmd.InOrStdin())
		} else {
			j, err = job.Load(args[0])
		}
		if err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("query") {
		j.Query = opts.Query
	}
	if flags.Changed("table") {
		j.Table = opts.Table
	}
	if flags.Changed("default-field") {
		j.DefaultFields = opts.DefaultFields
	}
	if flags.Changed("allow") {
		allowed := opts.AllowedFields
		j.AllowedFields = &allowed
	}
	if flags.Changed("rename") {
		j.Renames = opts.Renames
	}

	if j.Query == "" && len(args) == 0 {
		return nil, &missingFlagError{flag: "query"}
	}
	if j.Table == "" {
		return nil, &missingFlagError{flag: "table"}
	}
	return j, nil
}

type missingFlagError struct {
	flag string
}

func (e *missingFlagError) Error() string {
	return fmt.Sprintf("--%s is required when no job file is given", e.flag)
}

// outputJobError reports a job that could not be loaded. These are command
// errors (exit code 2).
func outputJobError(formatter *OutputFormatter, err error) error {
	code, details := classifyJobError(err)
	_ = formatter.Error(code, err.Error(), details)
	return WrapExitError(ExitCommandError, code, err)
}

func classifyJobError(err error) (string, interface{}) {
	var missing *missingFlagError
	var decodeErr *job.DecodeError
	var validationErr *job.ValidationError

	switch {
	case errors.As(err, &missing):
		return ErrCodeMissingFlag, nil
	case errors.Is(err, os.ErrNotExist):
		return ErrCodeNotFound, nil
	case errors.As(err, &decodeErr):
		return ErrCodeJobDecode, nil
	case errors.As(err, &validationErr):
		return ErrCodeJobInvalid, jobErrorMessages(err)
	default:
		return ErrCodeGeneric, nil
	}
}

// outputQueryError reports a query the pipeline rejected (exit code 1).
func outputQueryError(formatter *OutputFormatter, err error) error {
	code, details := classifyQueryError(err)
	_ = formatter.Error(code, err.Error(), details)
	return WrapExitError(ExitFailure, code, err)
}

func classifyQueryError(err error) (string, interface{}) {
	var parseErr *parser.ParseError
	var fieldErr *sqlgen.FieldError

	switch {
	case errors.As(err, &parseErr):
		return ErrCodeParse, map[string]int{"offset": parseErr.Offset}
	case errors.As(err, &fieldErr):
		return ErrCodeFieldDenied, map[string][]string{"fields": fieldErr.Fields}
	case errors.Is(err, pipeline.ErrNoDefaultFields):
		return ErrCodeConfig, nil
	default:
		return ErrCodeGeneric, nil
	}
}

// outputCompileSuccess outputs the composed query.
func outputCompileSuccess(formatter *OutputFormatter, q *sqlgen.Query) error {
	if formatter.Format == "json" {
		return formatter.Success(q)
	}

	// Human-readable text output
	fmt.Fprintln(formatter.Writer, q.Body)
	for _, arg := range q.Args() {
		na := arg.(sql.NamedArg)
		fmt.Fprintf(formatter.Writer, "  :%s = %#v\n", na.Name, na.Value)
	}
	return nil
}

// writeQueryToFile writes the composed query as indented JSON.
func writeQueryToFile(q *sqlgen.Query, filename string) error {
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling query: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
