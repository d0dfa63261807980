package parser

import "fmt"

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken     = "unexpected token %s, expected %s"
	ErrUnterminatedLiteral = "unterminated literal %q"
	ErrIllegalCharacter    = "illegal character %q"
	ErrUnsupportedStmt     = "unsupported statement starting with %s"
	ErrTrailingInput       = "unexpected %s after end of statement"
	ErrExpectedExpression  = "expected expression, got %s"
)
