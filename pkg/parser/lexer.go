package parser

import (
	"strings"

	"github.com/leapstack-labs/querylint/pkg/token"
)

// Lexer tokenizes SQL input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) currentPos() Position {
	return Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// NextToken returns the next token. Literal always holds the exact source
// text of the token so that Token.End can be derived from it.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	if l.atEOF() {
		return Token{Type: token.EOF, Pos: pos}
	}

	start := l.pos
	typ := token.ILLEGAL

	switch l.ch {
	case '+':
		typ = token.PLUS
	case '-':
		typ = token.MINUS
	case '*':
		typ = token.STAR
	case '/':
		typ = token.SLASH
	case '%':
		typ = token.PERCENT
	case '=':
		typ = token.EQ
	case '?':
		typ = token.QUESTION
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumber(pos)
		}
		typ = token.DOT
	case ',':
		typ = token.COMMA
	case '(':
		typ = token.LPAREN
	case ')':
		typ = token.RPAREN
	case ';':
		typ = token.SEMICOLON
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			typ = token.LE
			if l.peekChar() == '>' {
				l.readChar()
				typ = token.NULLSAFE
			}
		case '>':
			l.readChar()
			typ = token.NE
		default:
			typ = token.LT
		}
	case '>':
		typ = token.GT
		if l.peekChar() == '=' {
			l.readChar()
			typ = token.GE
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			typ = token.NE
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			typ = token.DPIPE
		}
	case '\'', '"':
		return l.readString(pos)
	case '`':
		return l.readQuotedIdentifier(pos)
	default:
		switch {
		case isLetter(l.ch) || l.ch == '_':
			return l.readIdentifier(pos)
		case isDigit(l.ch):
			return l.readNumber(pos)
		}
	}

	l.readChar()
	return Token{Type: typ, Literal: l.input[start:l.pos], Pos: pos}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}

		switch {
		case l.ch == '-' && l.peekChar() == '-', l.ch == '#':
			for l.ch != '\n' && !l.atEOF() {
				l.readChar()
			}
			continue
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			for !l.atEOF() && (l.ch != '*' || l.peekChar() != '/') {
				l.readChar()
			}
			if !l.atEOF() {
				l.readChar()
				l.readChar()
			}
			continue
		}
		return
	}
}

// readString reads a single- or double-quoted string literal.
// Handles doubled quotes and backslash escapes.
func (l *Lexer) readString(pos Position) Token {
	quote := l.ch
	start := l.pos
	l.readChar()
	for {
		if l.atEOF() {
			return Token{Type: token.ILLEGAL, Literal: l.input[start:l.pos], Pos: pos}
		}
		switch l.ch {
		case '\\':
			l.readChar()
		case quote:
			if l.peekChar() != quote {
				l.readChar()
				return Token{Type: token.STRING, Literal: l.input[start:l.pos], Pos: pos}
			}
			l.readChar()
		}
		l.readChar()
	}
}

// readQuotedIdentifier reads a backtick-quoted identifier. Normalized SQL
// never contains backticks, but raw SQL handed to the lexer may.
func (l *Lexer) readQuotedIdentifier(pos Position) Token {
	start := l.pos
	l.readChar()
	for !l.atEOF() && l.ch != '`' {
		l.readChar()
	}
	if l.atEOF() {
		return Token{Type: token.ILLEGAL, Literal: l.input[start:l.pos], Pos: pos}
	}
	l.readChar()
	return Token{Type: token.IDENT, Literal: l.input[start:l.pos], Pos: pos}
}

func (l *Lexer) readIdentifier(pos Position) Token {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '$' {
		l.readChar()
	}
	lit := l.input[start:l.pos]
	return Token{Type: token.LookupIdent(strings.ToLower(lit)), Literal: lit, Pos: pos}
}

func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return Token{Type: token.NUMBER, Literal: l.input[start:l.pos], Pos: pos}
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Unquote strips identifier quoting (backticks or double quotes).
func Unquote(ident string) string {
	if len(ident) >= 2 {
		first, last := ident[0], ident[len(ident)-1]
		if (first == '`' && last == '`') || (first == '"' && last == '"') {
			return ident[1 : len(ident)-1]
		}
	}
	return ident
}
