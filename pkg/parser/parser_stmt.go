package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/querylint/pkg/token"
)

// parseSelect parses a SELECT statement.
//
//	select → SELECT [ALL|DISTINCT] field_list [FROM from] [WHERE expr]
//	         [GROUP BY expr_list] [HAVING expr] [ORDER BY order_list]
//	         [LIMIT ...] [FOR UPDATE | LOCK IN SHARE MODE]
func (p *Parser) parseSelect() *SelectStmt {
	start := p.token.Pos
	stmt := &SelectStmt{}
	if !p.expect(token.SELECT) {
		return nil
	}

	if p.match(token.DISTINCT) {
		stmt.Distinct = true
	} else {
		p.match(token.ALL)
	}

	stmt.Fields = p.parseSelectFields()

	if p.match(token.FROM) {
		stmt.From = p.parseFromClause()
	}
	if p.match(token.WHERE) {
		stmt.Where = p.parseExpr()
	}
	if p.check(token.GROUP) {
		p.nextToken()
		p.expect(token.BY)
		stmt.GroupBy = p.parseExprList()
	}
	if p.match(token.HAVING) {
		stmt.Having = p.parseExpr()
	}
	stmt.OrderBy = p.parseOrderBy()
	stmt.Limit = p.parseLimit()
	stmt.ForUpdate = p.parseLockingClause()

	stmt.Span = p.spanFrom(start)
	if p.failed() {
		return nil
	}
	return stmt
}

func (p *Parser) parseSelectFields() []*SelectField {
	var fields []*SelectField
	for {
		start := p.token.Pos
		field := &SelectField{Expr: p.parseSelectExpr()}
		if field.Expr == nil {
			return fields
		}
		field.Alias = p.parseAlias()
		field.Span = p.spanFrom(start)
		fields = append(fields, field)
		if !p.match(token.COMMA) {
			return fields
		}
	}
}

// parseSelectExpr handles * and table.* before falling back to expressions.
func (p *Parser) parseSelectExpr() Expr {
	if p.check(token.STAR) {
		star := &StarExpr{NodeInfo: NodeInfo{Span: Span{Start: p.token.Pos, End: p.token.End()}}}
		p.nextToken()
		return star
	}
	if isIdentLike(p.token) && p.checkPeek(token.DOT) && p.peek2.Type == token.STAR {
		start := p.token.Pos
		table := identName(p.token)
		p.nextToken()
		p.nextToken()
		p.nextToken()
		return &StarExpr{NodeInfo: NodeInfo{Span: p.spanFrom(start)}, Table: table}
	}
	return p.parseExpr()
}

func (p *Parser) parseExprList() []Expr {
	var exprs []Expr
	for {
		e := p.parseExpr()
		if e == nil {
			return exprs
		}
		exprs = append(exprs, e)
		if !p.match(token.COMMA) {
			return exprs
		}
	}
}

func (p *Parser) parseOrderBy() []*OrderItem {
	if !p.check(token.ORDER) {
		return nil
	}
	p.nextToken()
	p.expect(token.BY)

	var items []*OrderItem
	for {
		start := p.token.Pos
		item := &OrderItem{Expr: p.parseExpr()}
		if item.Expr == nil {
			return items
		}
		if p.match(token.DESC) {
			item.Desc = true
		} else {
			p.match(token.ASC)
		}
		item.Span = p.spanFrom(start)
		items = append(items, item)
		if !p.match(token.COMMA) {
			return items
		}
	}
}

// parseLimit parses LIMIT count [OFFSET n] and the MySQL LIMIT offset, count form.
func (p *Parser) parseLimit() *LimitClause {
	if !p.check(token.LIMIT) {
		return nil
	}
	start := p.token.Pos
	p.nextToken()

	limit := &LimitClause{Count: p.parseExpr()}
	switch {
	case p.match(token.COMMA):
		limit.Offset = limit.Count
		limit.Count = p.parseExpr()
	case p.matchWord("OFFSET"):
		limit.Offset = p.parseExpr()
	}
	limit.Span = p.spanFrom(start)
	return limit
}

// parseLockingClause consumes FOR UPDATE / FOR SHARE / LOCK IN SHARE MODE.
func (p *Parser) parseLockingClause() bool {
	switch {
	case p.checkWord("FOR"):
		p.nextToken()
		if p.match(token.UPDATE) || p.matchWord("SHARE") {
			return true
		}
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "UPDATE"))
	case p.checkWord("LOCK"):
		p.nextToken()
		p.expect(token.IN)
		p.matchWord("SHARE")
		p.matchWord("MODE")
		return true
	}
	return false
}

// parseInsert parses INSERT/REPLACE.
//
//	insert → (INSERT [IGNORE] | REPLACE) [INTO] table ['(' cols ')']
//	         (VALUES row {, row} | SET assignments | select)
//	         [ON DUPLICATE KEY UPDATE ...]
//
// The ON DUPLICATE KEY UPDATE tail is skipped without being parsed.
func (p *Parser) parseInsert() *InsertStmt {
	start := p.token.Pos
	stmt := &InsertStmt{Replace: p.check(token.REPLACE)}
	p.nextToken()

	if p.matchWord("IGNORE") {
		stmt.Ignore = true
	}
	p.match(token.INTO)

	stmt.Table = p.parseTableName()
	if stmt.Table == nil {
		return nil
	}

	if p.check(token.LPAREN) && !p.checkPeek(token.SELECT) {
		p.nextToken()
		for {
			col := p.parseColumnName()
			if col == nil {
				return nil
			}
			stmt.Columns = append(stmt.Columns, col)
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
	}

	switch {
	case p.match(token.VALUES), p.matchWord("VALUE"):
		for {
			if !p.expect(token.LPAREN) {
				return nil
			}
			var row []Expr
			if !p.check(token.RPAREN) {
				row = p.parseExprList()
			}
			p.expect(token.RPAREN)
			stmt.Rows = append(stmt.Rows, row)
			if !p.match(token.COMMA) {
				break
			}
		}
	case p.match(token.SET):
		stmt.Set = p.parseAssignments()
	case p.check(token.SELECT):
		stmt.Select = p.parseSelect()
	case p.check(token.LPAREN) && p.checkPeek(token.SELECT):
		p.nextToken()
		stmt.Select = p.parseSelect()
		p.expect(token.RPAREN)
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "VALUES, SET or SELECT"))
		return nil
	}

	if p.check(token.ON) && p.peek.Type == token.IDENT && strings.EqualFold(p.peek.Literal, "DUPLICATE") {
		tail := p.skipToEnd()
		stmt.OnDuplicate = &tail
	}

	stmt.Span = p.spanFrom(start)
	return stmt
}

// skipToEnd consumes every token up to ; or end of input.
func (p *Parser) skipToEnd() Span {
	start := p.token.Pos
	for !p.check(token.EOF) && !p.check(token.SEMICOLON) {
		p.nextToken()
	}
	return p.spanFrom(start)
}

// parseUpdate parses UPDATE.
//
//	update → UPDATE [IGNORE] from SET assignments [WHERE expr] [ORDER BY ...] [LIMIT ...]
func (p *Parser) parseUpdate() *UpdateStmt {
	start := p.token.Pos
	p.nextToken()
	p.matchWord("IGNORE")

	stmt := &UpdateStmt{From: p.parseFromClause()}
	if stmt.From == nil {
		return nil
	}
	if !p.expect(token.SET) {
		return nil
	}
	stmt.Set = p.parseAssignments()
	if p.match(token.WHERE) {
		stmt.Where = p.parseExpr()
	}
	stmt.OrderBy = p.parseOrderBy()
	stmt.Limit = p.parseLimit()
	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseDelete parses DELETE.
//
//	delete → DELETE FROM from [WHERE expr] [ORDER BY ...] [LIMIT ...]
func (p *Parser) parseDelete() *DeleteStmt {
	start := p.token.Pos
	p.nextToken()
	if !p.expect(token.FROM) {
		return nil
	}

	stmt := &DeleteStmt{From: p.parseFromClause()}
	if stmt.From == nil {
		return nil
	}
	if p.match(token.WHERE) {
		stmt.Where = p.parseExpr()
	}
	stmt.OrderBy = p.parseOrderBy()
	stmt.Limit = p.parseLimit()
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseAssignments() []*Assignment {
	var list []*Assignment
	for {
		start := p.token.Pos
		col := p.parseColumnName()
		if col == nil {
			return list
		}
		p.expect(token.EQ)
		a := &Assignment{Column: col, Value: p.parseExpr()}
		a.Span = p.spanFrom(start)
		list = append(list, a)
		if !p.match(token.COMMA) {
			return list
		}
	}
}

// parseColumnName parses col or table.col in column lists and SET targets.
func (p *Parser) parseColumnName() *ColumnRef {
	if !isIdentLike(p.token) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "column name"))
		return nil
	}
	start := p.token.Pos
	col := &ColumnRef{Column: identName(p.token)}
	p.nextToken()
	if p.check(token.DOT) && isIdentLike(p.peek) {
		p.nextToken()
		col.Table = col.Column
		col.Column = identName(p.token)
		p.nextToken()
	}
	col.Span = p.spanFrom(start)
	return col
}
