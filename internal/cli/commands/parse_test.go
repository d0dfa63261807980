package commands

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querylint/internal/cli/config"
	"github.com/leapstack-labs/querylint/pkg/query"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		check func(t *testing.T, p ParseOutput)
	}{
		{
			name: "select with where",
			sql:  "SELECT * FROM isu WHERE jia_user_id = ? ORDER BY id DESC",
			check: func(t *testing.T, p ParseOutput) {
				assert.Equal(t, "SELECT", p.Statement)
				assert.Equal(t, []string{"isu"}, p.Tables)
				assert.True(t, p.Star)
				assert.False(t, p.Limit)
				require.Len(t, p.Where, 1)
				assert.Equal(t, "=", p.Where[0].Operator)
				assert.Contains(t, p.Where[0].Text, "jia_user_id")
				assert.Empty(t, p.Joins)
			},
		},
		{
			name: "join",
			sql:  "SELECT u.id FROM users u JOIN comments c ON c.user_id = u.id LIMIT 10",
			check: func(t *testing.T, p ParseOutput) {
				assert.Equal(t, []string{"users", "comments"}, p.Tables)
				assert.True(t, p.Limit)
				assert.False(t, p.Star)
				require.Len(t, p.Joins, 1)
				assert.ElementsMatch(t, []string{"comments.user_id", "users.id"}, p.Joins[0].Operands)
				assert.Equal(t, "c.user_id = u.id", p.Joins[0].Text)
			},
		},
		{
			name: "aggregate over a subquery",
			sql:  "SELECT COUNT(*) FROM (SELECT id FROM posts) AS p GROUP BY id",
			check: func(t *testing.T, p ParseOutput) {
				assert.True(t, p.Aggregate)
				assert.True(t, p.GroupBy)
				assert.Equal(t, 1, p.Subqueries)
				assert.Contains(t, p.AllTables, "posts")
			},
		},
		{
			name: "delete",
			sql:  "DELETE FROM sessions WHERE expires_at < ?",
			check: func(t *testing.T, p ParseOutput) {
				assert.Equal(t, "DELETE", p.Statement)
				assert.Equal(t, []string{"sessions"}, p.Tables)
				require.Len(t, p.Where, 1)
				assert.Equal(t, "<", p.Where[0].Operator)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := query.Parse(tt.sql, "0")
			require.NoError(t, err)
			tt.check(t, describe(m))
		})
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		args    []string
		stdin   string
		wantOut []string
		wantErr string
	}{
		{
			name:    "argument, text",
			mode:    "text",
			args:    []string{"SELECT * FROM isu WHERE id = ? LIMIT 1"},
			wantOut: []string{"SELECT", "Tables: isu", "SELECT *, LIMIT", "WHERE"},
		},
		{
			name:    "stdin, json",
			mode:    "json",
			stdin:   "UPDATE users SET name = ? WHERE id = ?",
			wantOut: []string{`"statement": "UPDATE"`, `"users"`},
		},
		{
			name:    "empty input",
			mode:    "text",
			stdin:   "  \n",
			wantErr: "no SQL given",
		},
		{
			name:    "syntax error",
			mode:    "text",
			args:    []string{"SELEC id FROM isu"},
			wantErr: "parse error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newCmd := func() *cobra.Command {
				cmd := NewParseCommand()
				cmd.SetIn(strings.NewReader(tt.stdin))
				return cmd
			}
			out, err := runWithConfig(t, newCmd, func(cfg *config.Config) { cfg.Output = tt.mode }, tt.args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
		})
	}
}
