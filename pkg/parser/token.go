package parser

import "github.com/leapstack-labs/querylint/pkg/token"

// Type aliases so parser code reads without the package qualifier.
type (
	// Token is a lexical token.
	Token = token.Token
	// TokenType is a lexical token type.
	TokenType = token.TokenType
	// Position is a location in SQL text.
	Position = token.Position
	// Span is a half-open range in SQL text.
	Span = token.Span
)
