package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const isuconSchema = `
tables:
  users:
    columns: [id, name, type]
    primary_key: [id]
  isu:
    columns: [id, jia_isu_uuid, jia_user_id, name]
    primary_key: [id]
    indexes:
      - name: jia_isu_uuid
        columns: [jia_isu_uuid]
        unique: true
  registrations:
    columns: [course_id, user_id, created_at]
    primary_key: [course_id, user_id]
`

func TestParseStatic(t *testing.T) {
	ctx := context.Background()
	s, err := ParseStatic([]byte(isuconSchema))
	require.NoError(t, err)
	assert.True(t, s.Enabled())

	cols, err := s.ColumnNames(ctx, "isu")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "jia_isu_uuid", "jia_user_id", "name"}, cols)

	pk, err := s.PrimaryKeys(ctx, "Registrations")
	require.NoError(t, err)
	assert.Equal(t, []string{"course_id", "user_id"}, pk)

	idx, err := s.Indexes(ctx, "app.isu")
	require.NoError(t, err)
	require.Len(t, idx, 1)
	assert.True(t, idx[0].LeadsWith("JIA_ISU_UUID"))
	assert.True(t, idx[0].Unique)

	_, err = s.ColumnNames(ctx, "missing")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestParseStatic_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "invalid yaml", data: "tables: [:"},
		{name: "table without columns", data: "tables:\n  users:\n    primary_key: [id]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStatic([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestDisabled(t *testing.T) {
	ctx := context.Background()
	var in Introspector = Disabled{}
	assert.False(t, in.Enabled())

	_, err := in.ColumnNames(ctx, "users")
	assert.True(t, IsUnavailable(err))
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = in.PrimaryKeys(ctx, "users")
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = in.Indexes(ctx, "users")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestUnavailable(t *testing.T) {
	base := errors.New("boom")
	err := Unavailable("users", base)
	assert.EqualError(t, err, `schema unavailable for table "users": boom`)
	assert.ErrorIs(t, err, base)

	// already wrapped errors are kept as they are
	assert.Same(t, err, Unavailable("other", err))
	assert.False(t, IsUnavailable(base))
}

type countingIntrospector struct {
	Static
	calls int
}

func (c *countingIntrospector) ColumnNames(ctx context.Context, table string) ([]string, error) {
	c.calls++
	return c.Static.ColumnNames(ctx, table)
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	static, err := ParseStatic([]byte(isuconSchema))
	require.NoError(t, err)
	counter := &countingIntrospector{Static: *static}
	c := NewCache(counter)

	for range 3 {
		cols, err := c.ColumnNames(ctx, "users")
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "name", "type"}, cols)
	}
	_, err = c.ColumnNames(ctx, "USERS")
	require.NoError(t, err)
	assert.Equal(t, 1, counter.calls)

	for range 2 {
		_, err = c.ColumnNames(ctx, "missing")
		assert.True(t, IsUnavailable(err))
	}
	assert.Equal(t, 2, counter.calls, "errors are cached")
	assert.True(t, c.Enabled())
}

func TestDescribe(t *testing.T) {
	static, err := ParseStatic([]byte(isuconSchema))
	require.NoError(t, err)

	tbl, err := Describe(context.Background(), static, "isu")
	require.NoError(t, err)
	assert.Equal(t, "isu", tbl.Name)
	assert.Equal(t, []string{"id"}, tbl.PrimaryKey)
	assert.Len(t, tbl.Indexes, 1)

	_, err = Describe(context.Background(), Disabled{}, "isu")
	assert.True(t, IsUnavailable(err))
}
