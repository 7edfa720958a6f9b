package sqlgen

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/searchql/internal/ast"
)

// paramPrefix names generated parameters: v0, v1, ...
const paramPrefix = "v"

// Query is a composed statement and its bound parameters.
type Query struct {
	// Body is the SQL statement, terminated by ';'.
	Body string `json:"body"`

	// NamedParams maps a parameter name (v0, written :v0 in Body) to its
	// value: int64, bool or string.
	NamedParams map[string]any `json:"named_params"`
}

// Args returns the parameters as sql.NamedArg values in placeholder order,
// ready for database/sql.
func (q *Query) Args() []any {
	names := make([]string, 0, len(q.NamedParams))
	for name := range q.NamedParams {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return paramIndex(names[i]) < paramIndex(names[j])
	})

	args := make([]any, len(names))
	for i, name := range names {
		args[i] = sql.Named(name, q.NamedParams[name])
	}
	return args
}

func paramIndex(name string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(name, paramPrefix))
	if err != nil {
		return -1
	}
	return n
}

// ToSQL composes tree into a SELECT over table.
//
// The projection is * when allowed is nil, otherwise the whitelisted fields
// in order. The table name is trusted input from the operator.
func ToSQL(tree ast.Term, table string, allowed *Whitelist) (*Query, error) {
	if tree == nil {
		return nil, fmt.Errorf("cannot compose nil tree")
	}

	c := &composer{
		allowed: allowed,
		params:  make(map[string]any),
	}

	where, err := c.reduce(tree)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(projection(allowed))
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(table))
	b.WriteString(" WHERE ")
	b.WriteString(where)
	b.WriteByte(';')

	return &Query{Body: b.String(), NamedParams: c.params}, nil
}

func projection(allowed *Whitelist) string {
	if allowed == nil {
		return "*"
	}
	fields := allowed.Fields()
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quoteIdent(f)
	}
	return strings.Join(quoted, ", ")
}

// quoteIdent backtick-quotes an identifier, doubling embedded backticks.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// composer carries the parameter counter and collected values through one
// traversal.
type composer struct {
	allowed *Whitelist
	params  map[string]any
	next    int
}

// bind registers value under a fresh name and returns its placeholder.
func (c *composer) bind(value any) string {
	name := paramPrefix + strconv.Itoa(c.next)
	c.next++
	c.params[name] = value
	return ":" + name
}

func (c *composer) reduce(t ast.Term) (string, error) {
	switch t := t.(type) {
	case ast.Expression:
		return string(t), nil
	case ast.Combined:
		return c.reduceCombined(t)
	case ast.Named:
		if !c.allowed.Allows(t.Key) {
			return "", &FieldError{Fields: []string{t.Key}}
		}
		return c.condition(t.Key, t.Value), nil
	case ast.Negated:
		inner, err := c.reduce(t.Inner)
		if err != nil {
			return "", err
		}
		return "(NOT (" + inner + "))", nil
	default:
		panic(fmt.Sprintf("sqlgen: cannot render %T; every term must be named before composing", t))
	}
}

func (c *composer) reduceCombined(t ast.Combined) (string, error) {
	// Both sides are always visited so that every rejected field is reported.
	left, lerr := c.reduce(t.Left)
	right, rerr := c.reduce(t.Right)
	if err := mergeErrors(lerr, rerr); err != nil {
		return "", err
	}

	sql := left + " " + t.Operator.String() + " " + right
	if t.Grouping {
		sql = "(" + sql + ")"
	}
	return sql, nil
}

// condition renders the predicate for key compared against value.
func (c *composer) condition(key string, value ast.Value) string {
	field := quoteIdent(key)

	switch v := value.(type) {
	case ast.Integer:
		return field + " = " + c.bind(int64(v))
	case ast.Boolean:
		return field + " = " + c.bind(bool(v))
	case ast.Text:
		return field + " LIKE CONCAT('%', " + c.bind(string(v)) + ", '%')"
	case ast.Range:
		lower := ">="
		if v.Start.Kind == ast.Exclusive {
			lower = ">"
		}
		upper := "<="
		if v.End.Kind == ast.Exclusive {
			upper = "<"
		}
		start := c.bind(v.Start.Value)
		end := c.bind(v.End.Value)
		return "(" + field + " " + lower + " " + start + " AND " + field + " " + upper + " " + end + ")"
	default:
		panic(fmt.Sprintf("sqlgen: unsupported value type %T", value))
	}
}
