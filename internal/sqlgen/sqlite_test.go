package sqlgen

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/searchql/internal/ast"
)

// openUsers creates an in-memory users table for executing generated SQL.
func openUsers(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE users (
		id     INTEGER PRIMARY KEY,
		status TEXT NOT NULL,
		age    INTEGER NOT NULL,
		vip    BOOLEAN NOT NULL,
		name   TEXT NOT NULL
	)`)
	require.NoError(t, err)

	rows := []struct {
		id     int
		status string
		age    int
		vip    bool
		name   string
	}{
		{1, "active", 25, false, "alice"},
		{2, "active", 40, true, "bob"},
		{3, "inactive", 18, false, "carol"},
		{4, "active", 31, false, "dave"},
		{5, "banned", 30, false, "erin_o'brien"},
	}
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO users (id, status, age, vip, name) VALUES (?, ?, ?, ?, ?)`,
			r.id, r.status, r.age, r.vip, r.name)
		require.NoError(t, err)
	}

	return db
}

// selectIDs runs q and returns the id column of every row, ordered.
func selectIDs(t *testing.T, db *sql.DB, q *Query) []int64 {
	t.Helper()

	rows, err := db.Query(q.Body, q.Args()...)
	require.NoError(t, err, "sql: %s", q.Body)
	defer rows.Close()

	cols, err := rows.Columns()
	require.NoError(t, err)

	var ids []int64
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		require.NoError(t, rows.Scan(ptrs...))
		for i, c := range cols {
			if c == "id" {
				ids = append(ids, values[i].(int64))
			}
		}
	}
	require.NoError(t, rows.Err())
	return ids
}

func TestSQLite_ExecutesGeneratedSQL(t *testing.T) {
	db := openUsers(t)

	testCases := []struct {
		name    string
		tree    ast.Term
		allowed *Whitelist
		want    []int64
	}{
		{
			name: "substring match includes inactive",
			tree: named("status", ast.Text("active")),
			want: []int64{1, 2, 3, 4},
		},
		{
			name: "integer equality",
			tree: named("age", ast.Integer(31)),
			want: []int64{4},
		},
		{
			name: "boolean equality",
			tree: named("vip", ast.Boolean(true)),
			want: []int64{2},
		},
		{
			name: "inclusive range",
			tree: named("age", ast.Range{
				Start: ast.Boundary{Value: 18, Kind: ast.Inclusive},
				End:   ast.Boundary{Value: 30, Kind: ast.Inclusive},
			}),
			want: []int64{1, 3, 5},
		},
		{
			name: "exclusive range",
			tree: named("age", ast.Range{
				Start: ast.Boundary{Value: 18, Kind: ast.Exclusive},
				End:   ast.Boundary{Value: 30, Kind: ast.Exclusive},
			}),
			want: []int64{1},
		},
		{
			name: "reversed range matches nothing",
			tree: named("age", ast.Range{
				Start: ast.Boundary{Value: 30, Kind: ast.Inclusive},
				End:   ast.Boundary{Value: 18, Kind: ast.Inclusive},
			}),
			want: nil,
		},
		{
			name: "grouped combination",
			tree: ast.Combined{
				Left: named("status", ast.Text("active")),
				Right: ast.Combined{
					Left: named("age", ast.Range{
						Start: ast.Boundary{Value: 18, Kind: ast.Inclusive},
						End:   ast.Boundary{Value: 30, Kind: ast.Inclusive},
					}),
					Right:    named("vip", ast.Boolean(true)),
					Operator: ast.Or,
					Grouping: true,
				},
				Operator: ast.And,
			},
			want: []int64{1, 2, 3},
		},
		{
			name: "negation and expression",
			tree: ast.Combined{
				Left:     ast.Negated{Inner: named("status", ast.Text("active"))},
				Right:    ast.Expression("`age` >= 30"),
				Operator: ast.And,
			},
			want: []int64{5},
		},
		{
			name: "quote in value is bound",
			tree: named("name", ast.Text("o'brien")),
			want: []int64{5},
		},
		{
			name:    "whitelisted projection",
			tree:    named("name", ast.Text("a")),
			allowed: NewWhitelist("id", "name"),
			want:    []int64{1, 3, 4},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := ToSQL(tc.tree, "users", tc.allowed)
			require.NoError(t, err)

			ids := selectIDs(t, db, q)
			assert.ElementsMatch(t, tc.want, ids, "sql: %s", q.Body)
		})
	}
}
