// Package pipeline runs one job through the whole compilation:
//
//	NFC normalize → parse → Deanonymize → Rename → ReplaceExpressions → ToSQL
//
// Each Compile call is independent and holds no shared state, so callers may
// run any number of them concurrently.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/searchql/internal/ast"
	"github.com/roach88/searchql/internal/job"
	"github.com/roach88/searchql/internal/parser"
	"github.com/roach88/searchql/internal/sqlgen"
)

// Stage names the step of the pipeline that failed.
type Stage string

const (
	StageParse   Stage = "parse"
	StageConfig  Stage = "config"
	StageCompose Stage = "compose"
)

// ErrNoDefaultFields is returned when the query has bare values but the job
// names no default fields to expand them against.
var ErrNoDefaultFields = errors.New("query contains bare values but no default fields are configured")

// Error wraps a failure with the stage it happened in.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is the outcome of a successful compilation.
type Result struct {
	// Query is the composed statement.
	Query *sqlgen.Query

	// Tree is the rewritten tree that was composed.
	Tree ast.Term
}

// Option configures Compile.
type Option func(*options)

type options struct {
	logger hclog.Logger
}

// WithLogger makes Compile log each stage at debug level.
func WithLogger(logger hclog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Compile turns j into a parameterized SQL statement.
//
// The query is NFC normalized before parsing, so ParseError offsets refer
// to the normalized text.
func Compile(j *job.Job, opts ...Option) (*Result, error) {
	o := options{logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger

	query := norm.NFC.String(j.Query)
	tree, err := parser.ParseString(query)
	if err != nil {
		return nil, &Error{Stage: StageParse, Err: err}
	}
	log.Debug("parsed query", "stage", StageParse, "tree", ast.Format(tree))

	if ast.HasDefault(tree) && len(j.DefaultFields) == 0 {
		return nil, &Error{Stage: StageConfig, Err: ErrNoDefaultFields}
	}

	tree = ast.Deanonymize(tree, j.DefaultFields)
	tree = ast.Rename(tree, j.Renames)
	tree = ast.ReplaceExpressions(tree, j.Ruleset())
	log.Debug("rewrote tree", "stage", "rewrite", "tree", ast.Format(tree))

	q, err := sqlgen.ToSQL(tree, j.Table, j.Whitelist())
	if err != nil {
		return nil, &Error{Stage: StageCompose, Err: err}
	}
	log.Debug("composed sql", "stage", StageCompose, "params", len(q.NamedParams))

	return &Result{Query: q, Tree: tree}, nil
}
