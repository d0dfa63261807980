package schema

import (
	"context"
	"strings"
	"sync"
)

// Cache memoizes another Introspector for the duration of one run. Errors
// are cached too, so a missing table is looked up once.
type Cache struct {
	next Introspector

	mu      sync.Mutex
	columns map[string]entry[[]string]
	keys    map[string]entry[[]string]
	indexes map[string]entry[[]Index]
}

type entry[T any] struct {
	value T
	err   error
}

// NewCache wraps next.
func NewCache(next Introspector) *Cache {
	return &Cache{
		next:    next,
		columns: make(map[string]entry[[]string]),
		keys:    make(map[string]entry[[]string]),
		indexes: make(map[string]entry[[]Index]),
	}
}

// Enabled delegates to the wrapped introspector.
func (c *Cache) Enabled() bool { return c.next.Enabled() }

// ColumnNames returns cached column names.
func (c *Cache) ColumnNames(ctx context.Context, table string) ([]string, error) {
	return cached(c, c.columns, table, func() ([]string, error) { return c.next.ColumnNames(ctx, table) })
}

// PrimaryKeys returns cached primary keys.
func (c *Cache) PrimaryKeys(ctx context.Context, table string) ([]string, error) {
	return cached(c, c.keys, table, func() ([]string, error) { return c.next.PrimaryKeys(ctx, table) })
}

// Indexes returns cached indexes.
func (c *Cache) Indexes(ctx context.Context, table string) ([]Index, error) {
	return cached(c, c.indexes, table, func() ([]Index, error) { return c.next.Indexes(ctx, table) })
}

func cached[T any](c *Cache, m map[string]entry[T], table string, load func() (T, error)) (T, error) {
	key := strings.ToLower(table)
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := m[key]; ok {
		return e.value, e.err
	}
	v, err := load()
	m[key] = entry[T]{value: v, err: err}
	return v, err
}
