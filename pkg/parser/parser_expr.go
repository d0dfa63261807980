package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/querylint/pkg/token"
)

// Expression grammar, lowest precedence first:
//
//	expr        → or_expr
//	or_expr     → and_expr {OR and_expr}
//	and_expr    → not_expr {AND not_expr}
//	not_expr    → NOT not_expr | comparison
//	comparison  → additive [cmp_op additive | IS [NOT] NULL
//	              | [NOT] IN '(' (select | expr_list) ')'
//	              | [NOT] BETWEEN additive AND additive | [NOT] LIKE additive]
//	additive    → multiplicative {(+|-|'||') multiplicative}
//	multiplicative → unary {(*|/|%) unary}
//	unary       → (-|+) unary | primary

func (p *Parser) parseExpr() Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() Expr {
	left := p.parseAnd()
	for left != nil && p.check(token.OR) {
		p.nextToken()
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		left = p.binary(left, token.OR, false, right)
	}
	return left
}

func (p *Parser) parseAnd() Expr {
	left := p.parseNot()
	for left != nil && p.check(token.AND) {
		p.nextToken()
		right := p.parseNot()
		if right == nil {
			return nil
		}
		left = p.binary(left, token.AND, false, right)
	}
	return left
}

func (p *Parser) parseNot() Expr {
	if p.check(token.NOT) {
		start := p.token.Pos
		p.nextToken()
		inner := p.parseNot()
		if inner == nil {
			return nil
		}
		return &UnaryExpr{NodeInfo: NodeInfo{Span: p.spanFrom(start)}, Op: token.NOT, Expr: inner}
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() Expr {
	left := p.parseAdditive()
	if left == nil {
		return nil
	}
	start := left.GetSpan().Start

	switch {
	case token.IsComparison(p.token.Type):
		op := p.token.Type
		p.nextToken()
		right := p.parseAdditive()
		if right == nil {
			return nil
		}
		return p.binary(left, op, false, right)

	case p.check(token.IS):
		p.nextToken()
		not := p.match(token.NOT)
		if !p.expect(token.NULL) {
			return nil
		}
		return &IsNullExpr{NodeInfo: NodeInfo{Span: p.spanFrom(start)}, Expr: left, Not: not}
	}

	not := false
	if p.check(token.NOT) {
		switch p.peek.Type {
		case token.IN, token.BETWEEN, token.LIKE:
			p.nextToken()
			not = true
		default:
			return left
		}
	}

	switch p.token.Type {
	case token.IN:
		p.nextToken()
		return p.parseInList(start, left, not)
	case token.BETWEEN:
		p.nextToken()
		low := p.parseAdditive()
		if low == nil || !p.expect(token.AND) {
			return nil
		}
		high := p.parseAdditive()
		if high == nil {
			return nil
		}
		return &BetweenExpr{NodeInfo: NodeInfo{Span: p.spanFrom(start)}, Expr: left, Not: not, Low: low, High: high}
	case token.LIKE:
		p.nextToken()
		right := p.parseAdditive()
		if right == nil {
			return nil
		}
		return p.binary(left, token.LIKE, not, right)
	}
	return left
}

func (p *Parser) parseInList(start Position, left Expr, not bool) Expr {
	if !p.expect(token.LPAREN) {
		return nil
	}
	in := &InExpr{Expr: left, Not: not}
	if p.check(token.SELECT) {
		in.Query = p.parseSelect()
		if in.Query == nil {
			return nil
		}
	} else {
		in.Values = p.parseExprList()
		if len(in.Values) == 0 {
			p.addError(fmt.Sprintf(ErrExpectedExpression, describe(p.token)))
			return nil
		}
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	in.Span = p.spanFrom(start)
	return in
}

func (p *Parser) parseAdditive() Expr {
	left := p.parseMultiplicative()
	for left != nil && (p.check(token.PLUS) || p.check(token.MINUS) || p.check(token.DPIPE)) {
		op := p.token.Type
		p.nextToken()
		right := p.parseMultiplicative()
		if right == nil {
			return nil
		}
		left = p.binary(left, op, false, right)
	}
	return left
}

func (p *Parser) parseMultiplicative() Expr {
	left := p.parseUnary()
	for left != nil && (p.check(token.STAR) || p.check(token.SLASH) || p.check(token.PERCENT)) {
		op := p.token.Type
		p.nextToken()
		right := p.parseUnary()
		if right == nil {
			return nil
		}
		left = p.binary(left, op, false, right)
	}
	return left
}

func (p *Parser) parseUnary() Expr {
	if p.check(token.MINUS) || p.check(token.PLUS) {
		start := p.token.Pos
		op := p.token.Type
		p.nextToken()
		inner := p.parseUnary()
		if inner == nil {
			return nil
		}
		return &UnaryExpr{NodeInfo: NodeInfo{Span: p.spanFrom(start)}, Op: op, Expr: inner}
	}
	return p.parsePrimary()
}

func (p *Parser) binary(left Expr, op TokenType, not bool, right Expr) *BinaryExpr {
	return &BinaryExpr{
		NodeInfo: NodeInfo{Span: Span{Start: left.GetSpan().Start, End: right.GetSpan().End}},
		Left:     left,
		Op:       op,
		Not:      not,
		Right:    right,
	}
}

// parsePrimary parses literals, column references, function calls,
// subqueries, parenthesized expressions, EXISTS and CASE.
func (p *Parser) parsePrimary() Expr {
	start := p.token.Pos
	tok := p.token

	switch tok.Type {
	case token.NUMBER:
		p.nextToken()
		kind := LiteralNumber
		if p.placeholders[tok.Pos.Offset] {
			kind = LiteralPlaceholder
		}
		return p.literal(start, kind, tok.Literal)
	case token.QUESTION:
		p.nextToken()
		return p.literal(start, LiteralPlaceholder, tok.Literal)
	case token.STRING:
		p.nextToken()
		return p.literal(start, LiteralString, tok.Literal)
	case token.TRUE, token.FALSE:
		p.nextToken()
		return p.literal(start, LiteralBool, tok.Literal)
	case token.NULL:
		p.nextToken()
		return p.literal(start, LiteralNull, tok.Literal)

	case token.LPAREN:
		p.nextToken()
		if p.check(token.SELECT) {
			q := p.parseSelect()
			if q == nil || !p.expect(token.RPAREN) {
				return nil
			}
			return &SubqueryExpr{NodeInfo: NodeInfo{Span: p.spanFrom(start)}, Query: q}
		}
		exprs := p.parseExprList()
		if len(exprs) == 0 {
			p.addError(fmt.Sprintf(ErrExpectedExpression, describe(p.token)))
			return nil
		}
		if !p.expect(token.RPAREN) {
			return nil
		}
		return &ParenExpr{NodeInfo: NodeInfo{Span: p.spanFrom(start)}, Exprs: exprs}

	case token.EXISTS:
		p.nextToken()
		if !p.expect(token.LPAREN) {
			return nil
		}
		q := p.parseSelect()
		if q == nil || !p.expect(token.RPAREN) {
			return nil
		}
		return &ExistsExpr{NodeInfo: NodeInfo{Span: p.spanFrom(start)}, Query: q}

	case token.CASE:
		return p.parseCase()

	case token.LEFT, token.RIGHT, token.REPLACE, token.INSERT:
		// String functions that share a keyword's spelling.
		if p.checkPeek(token.LPAREN) {
			return p.parseFuncCall()
		}

	case token.IDENT:
		switch {
		case p.checkPeek(token.LPAREN):
			return p.parseFuncCall()
		case strings.EqualFold(tok.Literal, "INTERVAL"):
			return p.parseInterval()
		case p.checkPeek(token.DOT):
			p.nextToken()
			p.nextToken()
			if p.check(token.STAR) {
				p.nextToken()
				return &StarExpr{NodeInfo: NodeInfo{Span: p.spanFrom(start)}, Table: identName(tok)}
			}
			if !isIdentLike(p.token) && !token.IsKeyword(p.token.Type) {
				p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "column name"))
				return nil
			}
			col := identName(p.token)
			p.nextToken()
			return &ColumnRef{NodeInfo: NodeInfo{Span: p.spanFrom(start)}, Table: identName(tok), Column: col}
		case p.placeholders[tok.Pos.Offset] && len(tok.Literal) == 1:
			p.nextToken()
			return p.literal(start, LiteralPlaceholder, tok.Literal)
		default:
			p.nextToken()
			return &ColumnRef{NodeInfo: NodeInfo{Span: p.spanFrom(start)}, Column: identName(tok)}
		}
	}

	p.addError(fmt.Sprintf(ErrExpectedExpression, describe(tok)))
	return nil
}

func (p *Parser) literal(start Position, kind LiteralKind, value string) *Literal {
	return &Literal{NodeInfo: NodeInfo{Span: p.spanFrom(start)}, Kind: kind, Value: value}
}

// parseFuncCall parses name '(' [DISTINCT] (* | args) ')'.
// CAST(x AS type) and CONVERT(x, type) keep only the value argument.
func (p *Parser) parseFuncCall() Expr {
	start := p.token.Pos
	fn := &FuncCall{Name: identName(p.token)}
	p.nextToken()
	p.expect(token.LPAREN)

	switch {
	case p.check(token.STAR):
		fn.Star = true
		p.nextToken()
	case p.check(token.RPAREN):
	default:
		if p.match(token.DISTINCT) {
			fn.Distinct = true
		}
		fn.Args = p.parseExprList()
		if p.match(token.AS) {
			p.skipBalanced()
		}
		if p.checkWord("SEPARATOR") {
			// GROUP_CONCAT(x SEPARATOR ',')
			p.nextToken()
			p.parsePrimary()
		}
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	fn.Span = p.spanFrom(start)
	return fn
}

// skipBalanced consumes tokens up to the ) closing the current group.
func (p *Parser) skipBalanced() {
	depth := 0
	for !p.check(token.EOF) {
		switch p.token.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			if depth == 0 {
				return
			}
			depth--
		}
		p.nextToken()
	}
}

// parseInterval parses INTERVAL expr unit as FuncCall{Name: "INTERVAL"}.
func (p *Parser) parseInterval() Expr {
	start := p.token.Pos
	p.nextToken()
	value := p.parseAdditive()
	if value == nil {
		return nil
	}
	if !isIdentLike(p.token) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "interval unit"))
		return nil
	}
	unit := p.literal(p.token.Pos, LiteralString, p.token.Literal)
	p.nextToken()
	unit.Span = p.spanFrom(unit.Span.Start)
	return &FuncCall{NodeInfo: NodeInfo{Span: p.spanFrom(start)}, Name: "INTERVAL", Args: []Expr{value, unit}}
}

// parseCase parses CASE [operand] WHEN cond THEN result {...} [ELSE result] END.
func (p *Parser) parseCase() Expr {
	start := p.token.Pos
	p.nextToken()

	c := &CaseExpr{}
	if !p.check(token.WHEN) {
		c.Operand = p.parseExpr()
	}
	for p.check(token.WHEN) {
		wstart := p.token.Pos
		p.nextToken()
		w := &WhenClause{Cond: p.parseExpr()}
		if w.Cond == nil || !p.expect(token.THEN) {
			return nil
		}
		w.Result = p.parseExpr()
		w.Span = p.spanFrom(wstart)
		c.Whens = append(c.Whens, w)
	}
	if len(c.Whens) == 0 {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "WHEN"))
		return nil
	}
	if p.match(token.ELSE) {
		c.Else = p.parseExpr()
	}
	if !p.expect(token.END) {
		return nil
	}
	c.Span = p.spanFrom(start)
	return c
}
