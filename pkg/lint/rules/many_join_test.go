package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querylint/pkg/lint"
)

const (
	fourTables = "SELECT * FROM a JOIN b ON b.a_id = a.id JOIN c ON c.b_id = b.id JOIN d ON d.c_id = c.id"
	fiveTables = fourTables + " JOIN e ON e.d_id = d.id"
)

func TestManyJoin(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		options  map[string]any
		wantHit  bool
		wantWarn bool
	}{
		{name: "default threshold exceeded", sql: fiveTables, wantHit: true},
		{name: "default threshold reached", sql: fourTables},
		{
			name:    "greater or equal",
			sql:     fourTables,
			options: map[string]any{"comparator": ">="},
			wantHit: true,
		},
		{
			name:    "lower threshold",
			sql:     "SELECT * FROM a, b",
			options: map[string]any{"threshold": 1},
			wantHit: true,
		},
		{
			name:    "threshold as string",
			sql:     fourTables,
			options: map[string]any{"threshold": "3"},
			wantHit: true,
		},
		{
			name:     "unknown comparator falls back",
			sql:      fiveTables,
			options:  map[string]any{"comparator": "=="},
			wantHit:  true,
			wantWarn: true,
		},
		{
			name:     "unknown comparator at threshold",
			sql:      fourTables,
			options:  map[string]any{"comparator": "<"},
			wantWarn: true,
		},
		{
			name: "subquery tables are not counted",
			sql:  "SELECT * FROM a JOIN b ON b.a_id = a.id JOIN (SELECT * FROM c JOIN d ON d.c_id = c.id JOIN e ON e.d_id = d.id) x ON x.id = a.id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg *lint.Config
			if tt.options != nil {
				cfg = lint.NewConfig().SetRuleOptions("PF04", tt.options)
			}
			text := "db.query(\"" + tt.sql + "\")"
			res := run(t, "PF04", text, literalSite(t, text, tt.sql), runOptions{config: cfg})

			if tt.wantWarn {
				require.Len(t, res.Warnings, 1)
				assert.Contains(t, res.Warnings[0].Err.Error(), "unknown comparator")
			} else {
				assert.Empty(t, res.Warnings)
			}
			if !tt.wantHit {
				assert.Empty(t, res.Diagnostics)
				return
			}
			require.Len(t, res.Diagnostics, 1)
			d := res.Diagnostics[0]
			require.NotNil(t, d.Location)
			assert.Equal(t, tt.sql, d.Location.Body)
			assert.NotContains(t, d.Message, "==")
		})
	}
}
