package pipeline

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/searchql/internal/job"
	"github.com/roach88/searchql/internal/parser"
	"github.com/roach88/searchql/internal/sqlgen"
)

// render formats a query as its body followed by one line per parameter.
func render(t *testing.T, q *sqlgen.Query) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString(q.Body)
	buf.WriteByte('\n')
	for _, arg := range q.Args() {
		na := arg.(sql.NamedArg)
		value, err := json.Marshal(na.Value)
		require.NoError(t, err)
		fmt.Fprintf(&buf, ":%s = %s\n", na.Name, value)
	}
	return buf.Bytes()
}

// To regenerate golden files, run:
//
//	go test ./internal/pipeline -update
func TestCompile_Golden(t *testing.T) {
	jobs := map[string]string{
		"example":             "example.yaml",
		"renames_expressions": "renames_expressions.yaml",
		"negation":            "negation.json",
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for name, file := range jobs {
		t.Run(name, func(t *testing.T) {
			j, err := job.Load(filepath.Join("testdata", "jobs", file))
			require.NoError(t, err)

			result, err := Compile(j)
			require.NoError(t, err)

			g.Assert(t, name, render(t, result.Query))
		})
	}
}

func TestCompile_ParseError(t *testing.T) {
	_, err := Compile(&job.Job{Query: `title:"open`, Table: "t"})
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StageParse, perr.Stage)

	var syntaxErr *parser.ParseError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 6, syntaxErr.Offset)
}

func TestCompile_NoDefaultFields(t *testing.T) {
	_, err := Compile(&job.Job{Query: "a:1 potato", Table: "t"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDefaultFields)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StageConfig, perr.Stage)

	_, err = Compile(&job.Job{Query: "a:1", Table: "t"})
	assert.NoError(t, err, "named-only queries need no default fields")
}

func TestCompile_FieldNotAllowed(t *testing.T) {
	allowed := []string{"title"}
	_, err := Compile(&job.Job{
		Query:         "secret:1 OR title:x OR other:2",
		Table:         "t",
		AllowedFields: &allowed,
	})
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StageCompose, perr.Stage)

	var ferr *sqlgen.FieldError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, []string{"secret", "other"}, ferr.Fields)
}

func TestCompile_RenameBeforeWhitelist(t *testing.T) {
	allowed := []string{"state"}
	result, err := Compile(&job.Job{
		Query:         "status:1",
		Table:         "t",
		AllowedFields: &allowed,
		Renames:       map[string]string{"status": "state"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT `state` FROM `t` WHERE `state` = :v0;", result.Query.Body)
}

func TestCompile_NormalizesQuery(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	result, err := Compile(&job.Job{
		Query: "name:\"cafe\u0301\"",
		Table: "t",
	})
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", result.Query.NamedParams["v0"])
}

func TestCompile_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "test",
		Output: &buf,
		Level:  hclog.Debug,
	})

	_, err := Compile(&job.Job{Query: "a:1", Table: "t"}, WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "parsed query")
	assert.Contains(t, out, "composed sql")
}

func TestCompile_Concurrent(t *testing.T) {
	j := &job.Job{
		Query:         `status:active AND (age:[18 TO 30] OR vip:true) "exact phrase"`,
		Table:         "users",
		DefaultFields: []string{"name", "bio"},
	}
	want, err := Compile(j)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Result, 32)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Compile(j)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want.Query, results[i].Query)
	}
}
