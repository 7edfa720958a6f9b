// Package job decodes and validates the job description that drives one
// query compilation: the query text, the target table and the rewrite
// configuration.
//
// Jobs are read as YAML, which also accepts JSON, and validated against the
// embedded CUE schema before being decoded into a Job.
package job

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/searchql/internal/ast"
	"github.com/roach88/searchql/internal/sqlgen"
)

// Job is one query compilation request.
type Job struct {
	Query string `yaml:"query" json:"query"`
	Table string `yaml:"table" json:"table"`

	// DefaultFields are the fields a bare value is matched against, in order.
	DefaultFields []string `yaml:"default_fields" json:"default_fields,omitempty"`

	// AllowedFields is the whitelist. Nil means every field is allowed; a
	// non-nil empty list allows none.
	AllowedFields *[]string `yaml:"allowed_fields" json:"allowed_fields,omitempty"`

	// Renames maps a field name as typed to the column it targets.
	Renames map[string]string `yaml:"renames" json:"renames,omitempty"`

	// Expressions maps a field to ordered literal substitution rules.
	Expressions map[string][]ExpressionRule `yaml:"expressions" json:"expressions,omitempty"`
}

// Whitelist returns the whitelist for the composer, nil when unrestricted.
func (j *Job) Whitelist() *sqlgen.Whitelist {
	if j.AllowedFields == nil {
		return nil
	}
	return sqlgen.NewWhitelist(*j.AllowedFields...)
}

// Ruleset converts Expressions into an ast.Ruleset.
func (j *Job) Ruleset() ast.Ruleset {
	if len(j.Expressions) == 0 {
		return nil
	}
	rs := make(ast.Ruleset, len(j.Expressions))
	for field, rules := range j.Expressions {
		out := make([]ast.Rule, len(rules))
		for i, r := range rules {
			out[i] = ast.Rule{Literal: r.Value.Value, SQL: r.SQL}
		}
		rs[field] = out
	}
	return rs
}

// ExpressionRule replaces field:Value with SQL.
//
// It decodes from either {value: <literal>, sql: <fragment>} or the pair
// form [<literal>, <fragment>].
type ExpressionRule struct {
	Value Literal `yaml:"value" json:"value"`
	SQL   string  `yaml:"sql" json:"sql"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *ExpressionRule) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: expression rule pair must have 2 elements, got %d", node.Line, len(node.Content))
		}
		if err := r.Value.UnmarshalYAML(node.Content[0]); err != nil {
			return err
		}
		return node.Content[1].Decode(&r.SQL)
	case yaml.MappingNode:
		type plain ExpressionRule
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*r = ExpressionRule(p)
		return nil
	default:
		return fmt.Errorf("line %d: expression rule must be a mapping or a pair", node.Line)
	}
}

// Literal is a scalar rule value typed by its YAML tag: a quoted "1" is
// text, a bare 1 is an integer.
type Literal struct {
	Value ast.Value
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Literal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expression literal must be a scalar", node.Line)
	}

	switch node.ShortTag() {
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		l.Value = ast.Boolean(b)
	case "!!int":
		var n int64
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		l.Value = ast.Integer(n)
	case "!!str":
		l.Value = ast.Text(node.Value)
	default:
		return fmt.Errorf("line %d: unsupported literal type %s", node.Line, node.ShortTag())
	}
	return nil
}
