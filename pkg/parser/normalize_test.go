package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "placeholder",
			sql:  "SELECT id FROM categories WHERE parent_id = ?",
			want: "SELECT id FROM categories WHERE parent_id = 0",
		},
		{
			name: "backticks become spaces",
			sql:  "SELECT `id` FROM `users`",
			want: "SELECT  id  FROM  users ",
		},
		{
			name: "question mark inside string literal is kept",
			sql:  "SELECT * FROM t WHERE a = 'why?' AND b = ?",
			want: "SELECT * FROM t WHERE a = 'why?' AND b = 0",
		},
		{
			name: "escaped quote inside string",
			sql:  `SELECT * FROM t WHERE a = 'it\'s ?' AND b = ?`,
			want: `SELECT * FROM t WHERE a = 'it\'s ?' AND b = 0`,
		},
		{
			name: "empty",
			sql:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.sql)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.sql))
		})
	}
}

func TestNormalizeWith_PreservesLength(t *testing.T) {
	inputs := []string{
		"INSERT INTO `isu` (`jia_isu_uuid`, `name`) VALUES (?, ?)",
		"SELECT * FROM `t` WHERE `a` IN (?, ?, ?)",
		"UPDATE x SET y = '`?`' WHERE z = ?",
		"??``??",
	}
	for _, in := range inputs {
		out, err := NormalizeWith(in, "9")
		require.NoError(t, err)
		assert.Len(t, out, len(in), in)
	}
}

func TestNormalizeWith_RejectsMultiBytePlaceholder(t *testing.T) {
	_, err := NormalizeWith("SELECT ?", "NULL")
	assert.Error(t, err)
}

func TestPlaceholderOffsets(t *testing.T) {
	got := PlaceholderOffsets("a = ? AND b = '?' AND c = ?")
	assert.Equal(t, map[int]bool{4: true, 26: true}, got)
}
