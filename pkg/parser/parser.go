// Package parser parses the restricted SQL subset found in application code.
//
// # Usage
//
//	stmt, normalized, err := parser.ParseSource("SELECT * FROM `users` WHERE id = ?", parser.DefaultPlaceholder)
//
// ParseSource normalizes before parsing. Normalization is length-preserving,
// so every node span is valid both in the normalized and in the raw text.
//
// # Grammar Overview
//
//	statement   → select | insert | update | delete [;]
//	select      → SELECT [DISTINCT] field_list [FROM from] [WHERE expr]
//	              [GROUP BY expr_list] [HAVING expr] [ORDER BY order_list]
//	              [LIMIT expr [(OFFSET|,) expr]] [FOR UPDATE]
//	insert      → (INSERT [IGNORE] | REPLACE) [INTO] table [(cols)]
//	              (VALUES rows | SET assignments | select)
//	              [ON DUPLICATE KEY UPDATE ...]   -- skipped
//	update      → UPDATE from SET assignments [WHERE expr] [ORDER BY] [LIMIT]
//	delete      → DELETE FROM from [WHERE expr] [ORDER BY] [LIMIT]
//
// See each file for the grammar of its section.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/querylint/pkg/token"
)

// Parser parses SQL into an AST.
type Parser struct {
	lexer  *Lexer
	input  string
	token  Token // current token
	peek   Token // lookahead token
	peek2  Token // second lookahead token
	prev   Token // last consumed token
	errors []error

	// placeholders holds offsets whose raw text was a ? marker.
	placeholders map[int]bool
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string) *Parser {
	p := &Parser{
		lexer: NewLexer(sql),
		input: sql,
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a single statement. sql may be raw or normalized; a raw ? is
// parsed as a placeholder literal.
func Parse(sql string) (Statement, error) {
	return NewParser(sql).ParseStatement()
}

// ParseSource normalizes raw with placeholder, parses the result and tags the
// literals that stood in for ? markers as placeholders. It returns the
// normalized text alongside the statement.
func ParseSource(raw, placeholder string) (Statement, string, error) {
	normalized, err := NormalizeWith(raw, placeholder)
	if err != nil {
		return nil, "", err
	}
	p := NewParser(normalized)
	p.placeholders = PlaceholderOffsets(raw)
	stmt, err := p.ParseStatement()
	if err != nil {
		return nil, normalized, err
	}
	return stmt, normalized, nil
}

// ParseStatement parses one statement and requires the input to end after it.
func (p *Parser) ParseStatement() (Statement, error) {
	var stmt Statement
	switch p.token.Type {
	case token.SELECT:
		stmt = p.parseSelect()
	case token.LPAREN:
		if p.checkPeek(token.SELECT) {
			p.nextToken()
			sel := p.parseSelect()
			p.expect(token.RPAREN)
			stmt = sel
		}
	case token.INSERT, token.REPLACE:
		stmt = p.parseInsert()
	case token.UPDATE:
		stmt = p.parseUpdate()
	case token.DELETE:
		stmt = p.parseDelete()
	}
	if stmt == nil && len(p.errors) == 0 {
		p.addError(fmt.Sprintf(ErrUnsupportedStmt, describe(p.token)))
	}

	p.match(token.SEMICOLON)
	if len(p.errors) == 0 && !p.check(token.EOF) {
		p.addError(fmt.Sprintf(ErrTrailingInput, describe(p.token)))
	}

	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return stmt, nil
}

// ---------- Token Helpers ----------

func (p *Parser) nextToken() {
	p.prev = p.token
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
	if p.peek2.Type == token.ILLEGAL {
		msg := fmt.Sprintf(ErrIllegalCharacter, p.peek2.Literal)
		if strings.ContainsAny(p.peek2.Literal[:1], "'\"`") {
			msg = fmt.Sprintf(ErrUnterminatedLiteral, p.peek2.Literal)
		}
		p.errors = append(p.errors, &ParseError{Pos: p.peek2.Pos, Message: msg})
		p.peek2.Type = token.EOF
	}
}

func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

func (p *Parser) checkPeek(t TokenType) bool {
	return p.peek.Type == t
}

// checkWord matches an unreserved word such as DUPLICATE or OFFSET.
func (p *Parser) checkWord(word string) bool {
	return p.token.Type == token.IDENT && strings.EqualFold(p.token.Literal, word)
}

func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

func (p *Parser) matchWord(word string) bool {
	if p.checkWord(word) {
		p.nextToken()
		return true
	}
	return false
}

func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), t))
	return false
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

// spanFrom returns the span from start to the end of the last consumed token.
func (p *Parser) spanFrom(start Position) Span {
	end := p.prev.End()
	if end.Offset < start.Offset {
		end = start
	}
	return Span{Start: start, End: end}
}

// ---------- Identifier Helpers ----------

// isIdentLike reports whether tok can name a table, column or alias.
func isIdentLike(tok Token) bool {
	return tok.Type == token.IDENT
}

// identName returns the unquoted identifier text of tok.
func identName(tok Token) string {
	return Unquote(tok.Literal)
}

// parseAlias parses [AS] alias. Reserved keywords never become aliases.
func (p *Parser) parseAlias() string {
	if p.match(token.AS) {
		if isIdentLike(p.token) || p.check(token.STRING) {
			name := identName(p.token)
			if p.check(token.STRING) {
				name = unquoteString(p.token.Literal)
			}
			p.nextToken()
			return name
		}
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "alias"))
		return ""
	}
	if isIdentLike(p.token) && !p.isClauseWord(p.token) && !p.atIndexHint() {
		name := identName(p.token)
		p.nextToken()
		return name
	}
	return ""
}

// isClauseWord reports unreserved words that still start a clause in context.
func (p *Parser) isClauseWord(tok Token) bool {
	if tok.Type != token.IDENT {
		return false
	}
	switch strings.ToUpper(tok.Literal) {
	case "OFFSET", "FOR", "LOCK", "STRAIGHT_JOIN", "NATURAL":
		return true
	}
	return false
}

func describe(tok Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.NUMBER, token.STRING:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	}
	return tok.Type.String()
}

func unquoteString(lit string) string {
	if len(lit) < 2 {
		return lit
	}
	quote := lit[0]
	body := lit[1 : len(lit)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case ch == '\\' && i+1 < len(body):
			i++
			b.WriteByte(body[i])
		case ch == quote && i+1 < len(body) && body[i+1] == quote:
			i++
			b.WriteByte(quote)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
