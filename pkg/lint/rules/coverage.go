package rules

import (
	"strings"

	"github.com/leapstack-labs/querylint/pkg/lint"
	"github.com/leapstack-labs/querylint/pkg/schema"
)

// keys holds the primary key and secondary indexes of one table.
type keys struct {
	primary []string
	indexes []schema.Index
}

// tableKeys looks up the keys of table. Lookup failures are recorded on the
// pass and reported as ok == false.
func tableKeys(p *lint.Pass, table string) (keys, bool) {
	pk, ok := p.PrimaryKeys(table)
	if !ok {
		return keys{}, false
	}
	idx, ok := p.Indexes(table)
	if !ok {
		return keys{}, false
	}
	return keys{primary: pk, indexes: idx}, true
}

// covers reports whether a lookup on column is served by an index whose
// first column is column, or by the primary key. A composite primary key only
// counts when every one of its columns is among present.
func (k keys) covers(column string, present []string) bool {
	for _, idx := range k.indexes {
		if idx.LeadsWith(column) {
			return true
		}
	}
	if !containsFold(k.primary, column) {
		return false
	}
	for _, pk := range k.primary {
		if !containsFold(present, pk) {
			return false
		}
	}
	return true
}

// isUniqueKey reports whether column alone identifies a row: it is the sole
// primary key column or the only column of a unique index.
func (k keys) isUniqueKey(column string) bool {
	if len(k.primary) == 1 && strings.EqualFold(k.primary[0], column) {
		return true
	}
	for _, idx := range k.indexes {
		if idx.Unique && len(idx.Columns) == 1 && strings.EqualFold(idx.Columns[0], column) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// bareName strips a schema qualifier from a table name.
func bareName(table string) string {
	if i := strings.LastIndexByte(table, '.'); i >= 0 {
		return table[i+1:]
	}
	return table
}
