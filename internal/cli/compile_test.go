package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/searchql/internal/sqlgen"
)

// runCompileCmd executes the compile command and returns stdout and stderr.
func runCompileCmd(t *testing.T, opts *RootOptions, stdin string, args ...string) (string, string, error) {
	t.Helper()

	if opts.TraceIDs == nil {
		opts.TraceIDs = NewFixedGenerator("trace-fixed")
	}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewCompileCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeJob(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const exampleJob = `
query: 'status:active AND (age:[18 TO 30] OR vip:true)'
table: users
`

func TestCompileJobFileText(t *testing.T) {
	path := writeJob(t, exampleJob)

	out, _, err := runCompileCmd(t, &RootOptions{Format: "text"}, "", path)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM `users` WHERE `status` LIKE CONCAT('%', :v0, '%') AND ((`age` >= :v1 AND `age` <= :v2) OR `vip` = :v3);\n"+
			"  :v0 = \"active\"\n"+
			"  :v1 = 18\n"+
			"  :v2 = 30\n"+
			"  :v3 = true\n",
		out)
}

func TestCompileJobFileJSON(t *testing.T) {
	path := writeJob(t, exampleJob)

	out, _, err := runCompileCmd(t, &RootOptions{Format: "json"}, "", path)
	require.NoError(t, err)

	var resp struct {
		Status  string        `json:"status"`
		Data    *sqlgen.Query `json:"data"`
		TraceID string        `json:"trace_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "trace-fixed", resp.TraceID)
	require.NotNil(t, resp.Data)
	assert.True(t, strings.HasSuffix(resp.Data.Body, ";"))
	assert.Equal(t, map[string]any{
		"v0": "active",
		"v1": float64(18),
		"v2": float64(30),
		"v3": true,
	}, resp.Data.NamedParams)
}

func TestCompileFromStdin(t *testing.T) {
	out, _, err := runCompileCmd(t, &RootOptions{Format: "text"},
		`{"query": "potato", "table": "t", "default_fields": ["a", "b"]}`, "-")
	require.NoError(t, err)
	assert.Contains(t, out, "WHERE `a` LIKE CONCAT('%', :v0, '%') OR `b` LIKE CONCAT('%', :v1, '%');")
}

func TestCompileFromFlags(t *testing.T) {
	out, _, err := runCompileCmd(t, &RootOptions{Format: "text"}, "",
		"--query", "s:1 potato",
		"--table", "items",
		"-d", "title",
		"--allow", "title", "--allow", "state",
		"--rename", "s=state",
	)
	require.NoError(t, err)
	assert.Contains(t, out,
		"SELECT `title`, `state` FROM `items` WHERE `state` = :v0 OR `title` LIKE CONCAT('%', :v1, '%');")
}

func TestCompileFlagsOverrideJob(t *testing.T) {
	path := writeJob(t, exampleJob)

	out, _, err := runCompileCmd(t, &RootOptions{Format: "text"}, "", path, "--query", "vip:false", "--table", "members")
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT * FROM `members` WHERE `vip` = :v0;")
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "query.json")

	_, _, err := runCompileCmd(t, &RootOptions{Format: "text"}, "",
		"-q", "a:1", "-t", "t", "--output", outputFile)
	require.NoError(t, err)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var q sqlgen.Query
	require.NoError(t, json.Unmarshal(data, &q))
	assert.Equal(t, "SELECT * FROM `t` WHERE `a` = :v0;", q.Body)
}

func TestCompileVerboseGoesToStderr(t *testing.T) {
	out, errOut, err := runCompileCmd(t, &RootOptions{Format: "json", Verbose: true}, "", "-q", "a:1", "-t", "t")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "stdout must stay valid JSON")
	assert.Contains(t, errOut, "composed sql")
	assert.Contains(t, errOut, "trace_id=trace-fixed")
}

func TestCompileErrors(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		job      string
		code     string
		exitCode int
	}{
		{
			name:     "missing query flag",
			args:     []string{"--table", "t"},
			code:     ErrCodeMissingFlag,
			exitCode: ExitCommandError,
		},
		{
			name:     "missing table flag",
			args:     []string{"--query", "a"},
			code:     ErrCodeMissingFlag,
			exitCode: ExitCommandError,
		},
		{
			name:     "job not found",
			args:     []string{"/nonexistent/job.yaml"},
			code:     ErrCodeNotFound,
			exitCode: ExitCommandError,
		},
		{
			name:     "malformed job",
			job:      "query: [oops",
			code:     ErrCodeJobDecode,
			exitCode: ExitCommandError,
		},
		{
			name:     "schema violation",
			job:      "query: a\ntable: t\nextra: 1\n",
			code:     ErrCodeJobInvalid,
			exitCode: ExitCommandError,
		},
		{
			name:     "parse error",
			args:     []string{"-q", "a:[1 TO", "-t", "t"},
			code:     ErrCodeParse,
			exitCode: ExitFailure,
		},
		{
			name:     "field not allowed",
			args:     []string{"-q", "secret:1", "-t", "t", "-a", "open"},
			code:     ErrCodeFieldDenied,
			exitCode: ExitFailure,
		},
		{
			name:     "no default fields",
			args:     []string{"-q", "potato", "-t", "t"},
			code:     ErrCodeConfig,
			exitCode: ExitFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			args := tc.args
			if tc.job != "" {
				args = append([]string{writeJob(t, tc.job)}, args...)
			}

			out, _, err := runCompileCmd(t, &RootOptions{Format: "json"}, "", args...)
			require.Error(t, err)
			assert.Equal(t, tc.exitCode, GetExitCode(err))
			assert.Contains(t, err.Error(), tc.code)

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestCompileParseErrorDetails(t *testing.T) {
	out, _, err := runCompileCmd(t, &RootOptions{Format: "json"}, "", "-q", "a:1 )", "-t", "t")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, map[string]any{"offset": float64(4)}, resp.Error.Details)
}
