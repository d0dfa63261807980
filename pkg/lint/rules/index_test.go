package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querylint/pkg/schema"
)

func TestWhereIndex(t *testing.T) {
	s := testSchema(t)

	tests := []struct {
		name        string
		sql         string
		wantBody    string // "" for no finding
		wantMessage []string
	}{
		{
			name:        "unindexed column",
			sql:         "SELECT * FROM isu WHERE jia_user_id = ?",
			wantBody:    "jia_user_id = ?",
			wantMessage: []string{"isu", "jia_user_id"},
		},
		{
			name: "primary key",
			sql:  "SELECT * FROM users WHERE id = ?",
		},
		{
			name: "leading index column",
			sql:  "SELECT * FROM courses WHERE teacher_id = ?",
		},
		{
			name:        "second index column only",
			sql:         "SELECT * FROM courses WHERE name = ?",
			wantBody:    "name = ?",
			wantMessage: []string{"courses", "name"},
		},
		{
			name:        "partial composite primary key",
			sql:         "SELECT * FROM registrations WHERE course_id = ?",
			wantBody:    "course_id = ?",
			wantMessage: []string{"registrations", "course_id"},
		},
		{
			name: "full composite primary key",
			sql:  "SELECT * FROM registrations WHERE course_id = ? AND user_id = ?",
		},
		{
			name: "one covered condition is enough",
			sql:  "SELECT * FROM isu WHERE jia_user_id = ? AND id = ?",
		},
		{
			name:        "first uncovered condition is reported",
			sql:         "SELECT * FROM isu WHERE name = ? AND jia_user_id = ?",
			wantBody:    "name = ?",
			wantMessage: []string{"isu.name"},
		},
		{
			name:        "qualified column",
			sql:         "SELECT i.id FROM isu i WHERE i.jia_user_id = ?",
			wantBody:    "i.jia_user_id = ?",
			wantMessage: []string{"isu.jia_user_id"},
		},
		{
			name:        "subquery",
			sql:         "SELECT t.id FROM (SELECT id FROM isu WHERE jia_user_id = ?) t",
			wantBody:    "jia_user_id = ?",
			wantMessage: []string{"isu.jia_user_id"},
		},
		{
			name: "no where clause",
			sql:  "SELECT * FROM isu",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "isu = db.xquery('" + tt.sql + "', id)\n"
			res := run(t, "PF02", text, literalSite(t, text, tt.sql), runOptions{schema: s})
			assert.Empty(t, res.Warnings)

			if tt.wantBody == "" {
				assert.Empty(t, res.Diagnostics)
				return
			}
			require.Len(t, res.Diagnostics, 1)
			d := res.Diagnostics[0]
			require.NotNil(t, d.Location)
			assert.Equal(t, tt.wantBody, d.Location.Body)
			assert.Equal(t, text[d.Location.Begin:d.Location.End], d.Location.Body)
			for _, part := range tt.wantMessage {
				assert.Contains(t, d.Message, part)
			}
		})
	}
}

func TestWhereIndex_SkippedWithoutSchema(t *testing.T) {
	text := "db.xquery('SELECT * FROM isu WHERE jia_user_id = ?', id)"
	sql := "SELECT * FROM isu WHERE jia_user_id = ?"

	res := run(t, "PF02", text, literalSite(t, text, sql), runOptions{})
	assert.Empty(t, res.Diagnostics)
	assert.Empty(t, res.Warnings)
}

func TestWhereIndex_UnknownTableWarns(t *testing.T) {
	text := "db.xquery('SELECT * FROM missing WHERE a = ?', id)"
	sql := "SELECT * FROM missing WHERE a = ?"

	res := run(t, "PF02", text, literalSite(t, text, sql), runOptions{schema: testSchema(t)})
	assert.Empty(t, res.Diagnostics)
	require.NotEmpty(t, res.Warnings)
	assert.True(t, schema.IsUnavailable(res.Warnings[0].Err))
}

func TestJoinIndex(t *testing.T) {
	s := testSchema(t)

	tests := []struct {
		name      string
		sql       string
		wantBodys []string
	}{
		{
			name:      "unindexed join column",
			sql:       "SELECT p.id, c.body FROM posts p JOIN comments c ON c.post_id = p.id",
			wantBodys: []string{"c.post_id"},
		},
		{
			name: "indexed join column",
			sql:  "SELECT u.id FROM users u JOIN courses c ON c.teacher_id = u.id",
		},
		{
			name:      "both sides unindexed",
			sql:       "SELECT p.id FROM posts p JOIN comments c ON c.post_id = p.user_id",
			wantBodys: []string{"c.post_id", "p.user_id"},
		},
		{
			name: "composite primary key fully joined",
			sql: "SELECT r.created_at FROM registrations r JOIN courses c ON r.course_id = c.id " +
				"JOIN users u ON r.user_id = u.id AND r.course_id = c.id",
		},
		{
			name: "subquery alias is skipped",
			sql:  "SELECT u.id FROM users u JOIN (SELECT post_id FROM comments) x ON x.post_id = u.id",
		},
		{
			name:      "unqualified table name",
			sql:       "SELECT posts.id FROM posts JOIN comments ON comments.post_id = posts.id",
			wantBodys: []string{"comments.post_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "rows = db.xquery('" + tt.sql + "')\n"
			res := run(t, "PF03", text, literalSite(t, text, tt.sql), runOptions{schema: s})

			var bodies []string
			for _, d := range res.Diagnostics {
				require.NotNil(t, d.Location)
				bodies = append(bodies, d.Location.Body)
				assert.Contains(t, d.Message, "no usable index")
			}
			assert.Equal(t, tt.wantBodys, bodies)
		})
	}
}

func TestJoinIndex_UnknownTableWarnsOnce(t *testing.T) {
	text := "db.xquery('SELECT * FROM users u JOIN missing m ON m.user_id = u.id AND m.other = u.id')"
	sql := "SELECT * FROM users u JOIN missing m ON m.user_id = u.id AND m.other = u.id"

	res := run(t, "PF03", text, literalSite(t, text, sql), runOptions{schema: testSchema(t)})
	assert.Empty(t, res.Diagnostics)
	assert.Len(t, res.Warnings, 1)
}
