package parser

import (
	"fmt"
	"strings"
)

// DefaultPlaceholder replaces each ? parameter marker. It has the same byte
// length as "?" so every offset in the normalized text is valid in the raw text.
const DefaultPlaceholder = "0"

// Normalize rewrites sql for parsing using DefaultPlaceholder.
func Normalize(sql string) string {
	out, _ := NormalizeWith(sql, DefaultPlaceholder)
	return out
}

// NormalizeWith replaces every backtick with a space and every ? marker with
// placeholder. Characters inside quoted string literals are left alone. The
// result always has the same length as sql.
func NormalizeWith(sql, placeholder string) (string, error) {
	if len(placeholder) != 1 {
		return "", fmt.Errorf("placeholder %q must be exactly one byte to preserve offsets", placeholder)
	}

	var b strings.Builder
	b.Grow(len(sql))

	var quote byte
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		if quote != 0 {
			b.WriteByte(ch)
			switch {
			case ch == '\\' && i+1 < len(sql):
				i++
				b.WriteByte(sql[i])
			case ch == quote:
				quote = 0
			}
			continue
		}

		switch ch {
		case '\'', '"':
			quote = ch
			b.WriteByte(ch)
		case '`':
			b.WriteByte(' ')
		case '?':
			b.WriteString(placeholder)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String(), nil
}

// PlaceholderOffsets returns the byte offsets of every ? marker in sql that
// NormalizeWith would replace.
func PlaceholderOffsets(sql string) map[int]bool {
	offsets := make(map[int]bool)
	var quote byte
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		if quote != 0 {
			switch {
			case ch == '\\':
				i++
			case ch == quote:
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case '?':
			offsets[i] = true
		}
	}
	return offsets
}
