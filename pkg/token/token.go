// Package token defines the token types for embedded SQL parsing.
//
// Only keywords that are structural in SELECT/INSERT/UPDATE/DELETE are
// reserved. Words like KEY, DUPLICATE, OFFSET or IGNORE lex as IDENT so that
// column names which lost their backtick quoting during normalization still
// parse.
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT    // identifier
	NUMBER   // 123, 45.67, 1e10
	STRING   // 'hello' or "hello"
	QUESTION // ? (only seen when lexing unnormalized SQL)

	// Operators
	PLUS      // +
	MINUS     // -
	STAR      // *
	SLASH     // /
	PERCENT   // %
	DPIPE     // ||
	EQ        // =
	NE        // != or <>
	LT        // <
	GT        // >
	LE        // <=
	GE        // >=
	NULLSAFE  // <=>
	DOT       // .
	COMMA     // ,
	LPAREN    // (
	RPAREN    // )
	SEMICOLON // ;

	// Keywords (alphabetical)
	ALL
	AND
	AS
	ASC
	BETWEEN
	BY
	CASE
	CROSS
	DELETE
	DESC
	DISTINCT
	ELSE
	END
	EXISTS
	FALSE
	FROM
	FULL
	GROUP
	HAVING
	IN
	INNER
	INSERT
	INTO
	IS
	JOIN
	LEFT
	LIKE
	LIMIT
	NOT
	NULL
	ON
	OR
	ORDER
	OUTER
	REPLACE
	RIGHT
	SELECT
	SET
	THEN
	TRUE
	UNION
	UPDATE
	USING
	VALUES
	WHEN
	WHERE
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

var tokenNames = map[TokenType]string{
	EOF:      "EOF",
	ILLEGAL:  "ILLEGAL",
	IDENT:    "IDENT",
	NUMBER:   "NUMBER",
	STRING:   "STRING",
	QUESTION: "?",

	PLUS:      "+",
	MINUS:     "-",
	STAR:      "*",
	SLASH:     "/",
	PERCENT:   "%",
	DPIPE:     "||",
	EQ:        "=",
	NE:        "!=",
	LT:        "<",
	GT:        ">",
	LE:        "<=",
	GE:        ">=",
	NULLSAFE:  "<=>",
	DOT:       ".",
	COMMA:     ",",
	LPAREN:    "(",
	RPAREN:    ")",
	SEMICOLON: ";",
}

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]TokenType{
	"all":      ALL,
	"and":      AND,
	"as":       AS,
	"asc":      ASC,
	"between":  BETWEEN,
	"by":       BY,
	"case":     CASE,
	"cross":    CROSS,
	"delete":   DELETE,
	"desc":     DESC,
	"distinct": DISTINCT,
	"else":     ELSE,
	"end":      END,
	"exists":   EXISTS,
	"false":    FALSE,
	"from":     FROM,
	"full":     FULL,
	"group":    GROUP,
	"having":   HAVING,
	"in":       IN,
	"inner":    INNER,
	"insert":   INSERT,
	"into":     INTO,
	"is":       IS,
	"join":     JOIN,
	"left":     LEFT,
	"like":     LIKE,
	"limit":    LIMIT,
	"not":      NOT,
	"null":     NULL,
	"on":       ON,
	"or":       OR,
	"order":    ORDER,
	"outer":    OUTER,
	"replace":  REPLACE,
	"right":    RIGHT,
	"select":   SELECT,
	"set":      SET,
	"then":     THEN,
	"true":     TRUE,
	"union":    UNION,
	"update":   UPDATE,
	"using":    USING,
	"values":   VALUES,
	"when":     WHEN,
	"where":    WHERE,
}

func init() {
	for word, t := range keywords {
		tokenNames[t] = upper(word)
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// LookupIdent returns the keyword token type for a lowercase identifier,
// or IDENT when the word is not reserved.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a keyword.
func IsKeyword(t TokenType) bool {
	return t >= ALL && t <= WHERE
}

// IsComparison returns true for the binary comparison operators.
func IsComparison(t TokenType) bool {
	switch t {
	case EQ, NE, LT, GT, LE, GE, NULLSAFE:
		return true
	}
	return false
}

// Token represents a lexical token with position information.
// Literal is the exact source text of the token, quotes included.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// End returns the position just past the token.
func (t Token) End() Position {
	return t.Pos.Advance(t.Literal)
}
