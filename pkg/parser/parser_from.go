package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/querylint/pkg/token"
)

// parseFromClause parses comma-separated targets followed by joins.
//
//	from        → target {, target} {join}
//	target      → table [[AS] alias] | '(' select ')' [AS] alias
//	join        → [INNER|CROSS|(LEFT|RIGHT|FULL) [OUTER]] JOIN target
//	              [ON expr | USING '(' cols ')']
func (p *Parser) parseFromClause() *FromClause {
	start := p.token.Pos
	from := &FromClause{}

	for {
		target := p.parseFromTarget()
		if target == nil {
			return nil
		}
		from.Targets = append(from.Targets, target)
		if !p.match(token.COMMA) {
			break
		}
	}

	for {
		join := p.parseJoin()
		if join == nil {
			break
		}
		from.Joins = append(from.Joins, join)
	}

	from.Span = p.spanFrom(start)
	if p.failed() {
		return nil
	}
	return from
}

func (p *Parser) parseFromTarget() *FromTarget {
	start := p.token.Pos
	target := &FromTarget{}

	switch {
	case p.check(token.LPAREN) && p.checkPeek(token.SELECT):
		p.nextToken()
		target.Subquery = p.parseSelect()
		if target.Subquery == nil {
			return nil
		}
		p.expect(token.RPAREN)
	case p.check(token.LPAREN):
		// Parenthesized single table: FROM (users)
		p.nextToken()
		target.Table = p.parseTableName()
		p.expect(token.RPAREN)
	default:
		target.Table = p.parseTableName()
	}
	if p.failed() {
		return nil
	}

	target.Alias = p.parseAlias()
	p.skipIndexHints()
	target.Span = p.spanFrom(start)
	return target
}

// parseTableName parses name or schema.name.
func (p *Parser) parseTableName() *TableName {
	if !isIdentLike(p.token) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "table name"))
		return nil
	}
	start := p.token.Pos
	t := &TableName{Name: identName(p.token)}
	p.nextToken()
	if p.check(token.DOT) && isIdentLike(p.peek) {
		p.nextToken()
		t.Schema = t.Name
		t.Name = identName(p.token)
		p.nextToken()
	}
	t.Span = p.spanFrom(start)
	return t
}

// skipIndexHints consumes MySQL USE/FORCE/IGNORE INDEX (...) hints.
func (p *Parser) skipIndexHints() {
	for p.atIndexHint() {
		p.nextToken()
		p.nextToken()
		if p.matchWord("FOR") {
			p.nextToken()
			p.match(token.BY)
		}
		p.expect(token.LPAREN)
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			p.nextToken()
		}
		p.expect(token.RPAREN)
	}
}

func (p *Parser) atIndexHint() bool {
	if !(p.checkWord("USE") || p.checkWord("FORCE") || p.checkWord("IGNORE")) {
		return false
	}
	return p.peek.Type == token.IDENT && (strings.EqualFold(p.peek.Literal, "INDEX") || strings.EqualFold(p.peek.Literal, "KEY"))
}

// parseJoin parses one join, or returns nil when no join keyword follows.
func (p *Parser) parseJoin() *Join {
	start := p.token.Pos
	var typ JoinType

	switch p.token.Type {
	case token.JOIN:
		typ = JoinPlain
	case token.INNER:
		typ = JoinInner
	case token.CROSS:
		typ = JoinCross
	case token.LEFT:
		typ = JoinLeft
	case token.RIGHT:
		typ = JoinRight
	case token.FULL:
		typ = JoinFull
	default:
		if !p.checkWord("STRAIGHT_JOIN") {
			return nil
		}
		typ = JoinInner
		p.nextToken()
		return p.finishJoin(start, typ)
	}

	p.nextToken()
	if typ != JoinPlain {
		p.match(token.OUTER)
		if !p.expect(token.JOIN) {
			return nil
		}
	}
	return p.finishJoin(start, typ)
}

func (p *Parser) finishJoin(start Position, typ JoinType) *Join {
	join := &Join{Type: typ}
	join.Target = p.parseFromTarget()
	if join.Target == nil {
		return nil
	}

	switch {
	case p.match(token.ON):
		join.On = p.parseExpr()
	case p.match(token.USING):
		p.expect(token.LPAREN)
		for isIdentLike(p.token) {
			join.Using = append(join.Using, identName(p.token))
			p.nextToken()
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
	}

	join.Span = p.spanFrom(start)
	if p.failed() {
		return nil
	}
	return join
}
