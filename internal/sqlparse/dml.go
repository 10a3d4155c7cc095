package sqlparse

import (
	"github.com/sqlsift/sqlsift/internal/sqlast"
	"github.com/sqlsift/sqlsift/internal/sqlscan"
)

func (p *Parser) parseSelect() (sqlast.Stmt, bool) {
	stmt, ok := p.parseSelectStmt()
	if !ok {
		return nil, false
	}
	return stmt, true
}

// parseSelectBody parses a full SELECT (with CTEs, set operations, and a
// trailing ORDER BY/LIMIT/OFFSET) for a CREATE VIEW ... AS body. The other
// nested-query sites (INSERT ... SELECT, subqueries, IN/EXISTS bodies) call
// parseSelectStmt, which this wraps, directly.
func (p *Parser) parseSelectBody() (*sqlast.SelectStmt, bool) {
	return p.parseSelectStmt()
}

func (p *Parser) parseSelectStmt() (*sqlast.SelectStmt, bool) {
	start := p.current()
	var ctes []sqlast.CTE
	if p.consumeKeyword("WITH") {
		recursive := p.consumeKeyword("RECURSIVE")
		list, ok := p.parseCTEList(recursive)
		if !ok {
			return nil, false
		}
		ctes = list
	}

	chain, ok := p.parseSetOpChain()
	if !ok {
		return nil, false
	}
	chain.CTEs = ctes

	if p.consumeKeyword("ORDER") {
		if !p.consumeKeyword("BY") {
			return nil, false
		}
		items, ok := p.parseOrderByList()
		if !ok {
			return nil, false
		}
		chain.OrderBy = items
	}
	if p.consumeKeyword("LIMIT") {
		expr, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		chain.Limit = expr
	}
	if p.consumeKeyword("OFFSET") {
		expr, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		chain.Offset = expr
	}

	chain.Span = p.spanFrom(start)
	return chain, true
}

func (p *Parser) parseCTEList(recursive bool) ([]sqlast.CTE, bool) {
	var ctes []sqlast.CTE
	for {
		start := p.current()
		name, _, ok := p.identifier()
		if !ok {
			return nil, false
		}
		cte := sqlast.CTE{Name: name, Recursive: recursive}
		if p.matchSymbol("(") {
			cols, ok := p.parseColumnNameList()
			if !ok {
				return nil, false
			}
			cte.ColumnList = cols
		}
		if !p.consumeKeyword("AS") {
			return nil, false
		}
		if !p.consumeSymbol("(") {
			return nil, false
		}
		query, ok := p.parseSelectStmt()
		if !ok {
			return nil, false
		}
		if !p.consumeSymbol(")") {
			return nil, false
		}
		cte.Query = query
		cte.Span = p.spanFrom(start)
		ctes = append(ctes, cte)
		if p.consumeSymbol(",") {
			continue
		}
		break
	}
	return ctes, true
}

func (p *Parser) parseSetOpChain() (*sqlast.SelectStmt, bool) {
	head, ok := p.parseSelectCore()
	if !ok {
		return nil, false
	}
	cur := head
	for {
		op, matched := p.matchSetOpKeyword()
		if !matched {
			break
		}
		right, ok := p.parseSelectCore()
		if !ok {
			return nil, false
		}
		cur.SetOp = op
		cur.SetOpRight = right
		cur = right
	}
	return head, true
}

func (p *Parser) matchSetOpKeyword() (sqlast.SetOpKind, bool) {
	switch {
	case p.consumeKeyword("UNION"):
		if p.consumeKeyword("ALL") {
			return sqlast.SetOpUnionAll, true
		}
		return sqlast.SetOpUnion, true
	case p.consumeKeyword("INTERSECT"):
		return sqlast.SetOpIntersect, true
	case p.consumeKeyword("EXCEPT"):
		return sqlast.SetOpExcept, true
	default:
		return sqlast.SetOpNone, false
	}
}

func (p *Parser) parseSelectCore() (*sqlast.SelectStmt, bool) {
	if p.matchSymbol("(") {
		p.advance()
		inner, ok := p.parseSelectStmt()
		if !ok {
			return nil, false
		}
		if !p.consumeSymbol(")") {
			return nil, false
		}
		return inner, true
	}

	start := p.current()
	if !p.consumeKeyword("SELECT") {
		return nil, false
	}
	stmt := &sqlast.SelectStmt{}

	if p.consumeKeyword("DISTINCT") {
		stmt.Distinct = true
		if p.consumeKeyword("ON") {
			if !p.consumeSymbol("(") {
				return nil, false
			}
			exprs, ok := p.parseExprList()
			if !ok {
				return nil, false
			}
			if !p.consumeSymbol(")") {
				return nil, false
			}
			stmt.DistinctOn = exprs
		}
	} else {
		p.consumeKeyword("ALL")
	}

	items, ok := p.parseSelectItemList()
	if !ok {
		return nil, false
	}
	stmt.Projection = items

	if p.consumeKeyword("FROM") {
		from, ok := p.parseFromList()
		if !ok {
			return nil, false
		}
		stmt.From = from
	}
	if p.consumeKeyword("WHERE") {
		expr, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		stmt.Where = expr
	}
	if p.consumeKeyword("GROUP") {
		if !p.consumeKeyword("BY") {
			return nil, false
		}
		exprs, ok := p.parseExprList()
		if !ok {
			return nil, false
		}
		stmt.GroupBy = exprs
	}
	if p.consumeKeyword("HAVING") {
		expr, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		stmt.Having = expr
	}
	if p.consumeKeyword("WINDOW") {
		defs, ok := p.parseWindowDefList()
		if !ok {
			return nil, false
		}
		stmt.Window = defs
	}

	stmt.Span = p.spanFrom(start)
	return stmt, true
}

func (p *Parser) parseSelectItemList() ([]sqlast.SelectItem, bool) {
	var items []sqlast.SelectItem
	for {
		item, ok := p.parseSelectItem()
		if !ok {
			return nil, false
		}
		items = append(items, item)
		if p.consumeSymbol(",") {
			continue
		}
		break
	}
	return items, true
}

func (p *Parser) parseSelectItem() (sqlast.SelectItem, bool) {
	start := p.current()

	if p.matchSymbol("*") {
		p.advance()
		return sqlast.SelectItem{Star: true, Span: p.spanFrom(start)}, true
	}
	if p.current().Kind == sqlscan.KindIdentifier && p.peek(1).Kind == sqlscan.KindSymbol && p.peek(1).Text == "." &&
		p.peek(2).Kind == sqlscan.KindSymbol && p.peek(2).Text == "*" {
		qualifier, _, _ := p.identifier()
		p.advance() // .
		p.advance() // *
		return sqlast.SelectItem{Star: true, StarQualifier: qualifier, Span: p.spanFrom(start)}, true
	}
	// A clause keyword where a select item belongs (as in `SELECT FROM t`)
	// is a parse error, not a column of that name.
	if p.matchAnyKeyword("FROM", "WHERE", "GROUP", "HAVING", "ORDER", "LIMIT", "OFFSET", "WINDOW", "UNION", "INTERSECT", "EXCEPT") {
		return sqlast.SelectItem{}, false
	}

	expr, ok := p.parseExpr()
	if !ok {
		return sqlast.SelectItem{}, false
	}
	item := sqlast.SelectItem{Expr: expr}
	if p.consumeKeyword("AS") {
		name, _, ok := p.identifier()
		if !ok {
			return sqlast.SelectItem{}, false
		}
		item.Alias = name
	} else if p.current().Kind == sqlscan.KindIdentifier {
		name, _, ok := p.identifier()
		if ok {
			item.Alias = name
		}
	}
	item.Span = p.spanFrom(start)
	return item, true
}

func (p *Parser) parseOrderByList() ([]sqlast.OrderByItem, bool) {
	var items []sqlast.OrderByItem
	for {
		expr, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		item := sqlast.OrderByItem{Expr: expr}
		switch {
		case p.consumeKeyword("ASC"):
		case p.consumeKeyword("DESC"):
			item.Desc = true
		}
		if p.consumeKeyword("NULLS") {
			if !p.consumeKeyword("FIRST") {
				p.consumeKeyword("LAST")
			}
		}
		items = append(items, item)
		if p.consumeSymbol(",") {
			continue
		}
		break
	}
	return items, true
}

func (p *Parser) parseWindowDefList() ([]sqlast.WindowDef, bool) {
	var defs []sqlast.WindowDef
	for {
		start := p.current()
		name, _, ok := p.identifier()
		if !ok {
			return nil, false
		}
		if !p.consumeKeyword("AS") {
			return nil, false
		}
		if !p.consumeSymbol("(") {
			return nil, false
		}
		def := sqlast.WindowDef{Name: name}
		if p.consumeKeyword("PARTITION") {
			if !p.consumeKeyword("BY") {
				return nil, false
			}
			exprs, ok := p.parseExprList()
			if !ok {
				return nil, false
			}
			def.PartitionBy = exprs
		}
		if p.consumeKeyword("ORDER") {
			if !p.consumeKeyword("BY") {
				return nil, false
			}
			items, ok := p.parseOrderByList()
			if !ok {
				return nil, false
			}
			def.OrderBy = items
		}
		if !p.consumeSymbol(")") {
			return nil, false
		}
		def.Span = p.spanFrom(start)
		defs = append(defs, def)
		if p.consumeSymbol(",") {
			continue
		}
		break
	}
	return defs, true
}

// ---- FROM clause ----

func (p *Parser) parseFromList() ([]sqlast.FromItem, bool) {
	first, ok := p.parseFromItemPrimary()
	if !ok {
		return nil, false
	}
	items := []sqlast.FromItem{first}
	for {
		if p.consumeSymbol(",") {
			next, ok := p.parseFromItemPrimary()
			if !ok {
				return nil, false
			}
			items = append(items, next)
			continue
		}
		join, ok := p.tryParseJoin()
		if !ok {
			break
		}
		items = append(items, join)
	}
	return items, true
}

func (p *Parser) tryParseJoin() (sqlast.FromItem, bool) {
	start := p.current()
	kind := sqlast.JoinInner
	matched := false

	switch {
	case p.consumeKeyword("INNER"):
		if !p.consumeKeyword("JOIN") {
			return sqlast.FromItem{}, false
		}
		matched = true
		kind = sqlast.JoinInner
	case p.consumeKeyword("LEFT"):
		p.consumeKeyword("OUTER")
		if !p.consumeKeyword("JOIN") {
			return sqlast.FromItem{}, false
		}
		matched = true
		kind = sqlast.JoinLeft
	case p.consumeKeyword("RIGHT"):
		p.consumeKeyword("OUTER")
		if !p.consumeKeyword("JOIN") {
			return sqlast.FromItem{}, false
		}
		matched = true
		kind = sqlast.JoinRight
	case p.consumeKeyword("FULL"):
		p.consumeKeyword("OUTER")
		if !p.consumeKeyword("JOIN") {
			return sqlast.FromItem{}, false
		}
		matched = true
		kind = sqlast.JoinFull
	case p.consumeKeyword("CROSS"):
		if !p.consumeKeyword("JOIN") {
			return sqlast.FromItem{}, false
		}
		matched = true
		kind = sqlast.JoinCross
	case p.consumeKeyword("JOIN"):
		matched = true
		kind = sqlast.JoinInner
	}
	if !matched {
		return sqlast.FromItem{}, false
	}

	item, ok := p.parseFromItemPrimary()
	if !ok {
		return sqlast.FromItem{}, false
	}

	jc := &sqlast.JoinClause{Kind: kind}
	if kind != sqlast.JoinCross {
		if p.consumeKeyword("ON") {
			expr, ok := p.parseExpr()
			if !ok {
				return sqlast.FromItem{}, false
			}
			markJoinOnConjuncts(expr)
			jc.On = expr
		} else if p.consumeKeyword("USING") {
			cols, ok := p.parseColumnNameList()
			if !ok {
				return sqlast.FromItem{}, false
			}
			jc.Using = cols
		}
	}
	jc.Span = p.spanFrom(start)
	item.Join = jc
	item.Span = p.spanFrom(start)
	return item, true
}

func (p *Parser) parseFromItemPrimary() (sqlast.FromItem, bool) {
	start := p.current()
	lateral := p.consumeKeyword("LATERAL")

	if p.matchSymbol("(") {
		p.advance()
		switch {
		case p.matchKeyword("SELECT") || p.matchKeyword("WITH"):
			sub, ok := p.parseSelectStmt()
			if !ok {
				return sqlast.FromItem{}, false
			}
			if !p.consumeSymbol(")") {
				return sqlast.FromItem{}, false
			}
			item := sqlast.FromItem{Origin: sqlast.OriginDerived, Subquery: sub, IsLateral: lateral}
			if !p.parseFromItemAliasInto(&item) {
				return sqlast.FromItem{}, false
			}
			item.Span = p.spanFrom(start)
			return item, true
		case p.matchKeyword("VALUES"):
			p.advance()
			rows, ok := p.parseValuesRowList()
			if !ok {
				return sqlast.FromItem{}, false
			}
			if !p.consumeSymbol(")") {
				return sqlast.FromItem{}, false
			}
			item := sqlast.FromItem{Origin: sqlast.OriginValuesList, Values: &sqlast.ValuesStmt{Rows: rows}, IsLateral: lateral}
			if !p.parseFromItemAliasInto(&item) {
				return sqlast.FromItem{}, false
			}
			item.Span = p.spanFrom(start)
			return item, true
		default:
			return sqlast.FromItem{}, false
		}
	}

	name, _, ok := p.qualifiedName()
	if !ok {
		return sqlast.FromItem{}, false
	}
	item := sqlast.FromItem{Origin: sqlast.OriginTable, Name: name, IsLateral: lateral}
	if p.matchSymbol("(") {
		p.advance()
		args, ok := p.parseExprListOrEmpty()
		if !ok {
			return sqlast.FromItem{}, false
		}
		if !p.consumeSymbol(")") {
			return sqlast.FromItem{}, false
		}
		item.Origin = sqlast.OriginTableFn
		item.Args = args
	}
	if !p.parseFromItemAliasInto(&item) {
		return sqlast.FromItem{}, false
	}
	item.Span = p.spanFrom(start)
	return item, true
}

// parseFromItemAliasInto consumes an optional `[AS] alias [(col, ...)]`
// trailing a FROM item.
func (p *Parser) parseFromItemAliasInto(item *sqlast.FromItem) bool {
	switch {
	case p.consumeKeyword("AS"):
		name, _, ok := p.identifier()
		if !ok {
			return false
		}
		item.Alias = name
	case p.current().Kind == sqlscan.KindIdentifier:
		name, _, ok := p.identifier()
		if !ok {
			return false
		}
		item.Alias = name
	}
	if item.Alias != "" && p.matchSymbol("(") {
		cols, ok := p.parseColumnNameList()
		if !ok {
			return false
		}
		item.ColumnAliases = cols
	}
	return true
}

// ---- VALUES ----

func (p *Parser) parseValuesRowList() ([][]sqlast.Expr, bool) {
	var rows [][]sqlast.Expr
	for {
		if !p.consumeSymbol("(") {
			return nil, false
		}
		row, ok := p.parseExprListOrEmpty()
		if !ok {
			return nil, false
		}
		if !p.consumeSymbol(")") {
			return nil, false
		}
		rows = append(rows, row)
		if p.consumeSymbol(",") {
			continue
		}
		break
	}
	return rows, true
}

func (p *Parser) parseValuesStmt() (sqlast.Stmt, bool) {
	start := p.advance() // VALUES
	rows, ok := p.parseValuesRowList()
	if !ok {
		return nil, false
	}
	return &sqlast.ValuesStmt{Rows: rows, Span: p.spanFrom(start)}, true
}

func (p *Parser) parseReturningList() ([]sqlast.SelectItem, bool) {
	return p.parseSelectItemList()
}

// ---- INSERT / UPDATE / DELETE ----

func (p *Parser) parseInsert() (sqlast.Stmt, bool) {
	start := p.advance() // INSERT
	if !p.consumeKeyword("INTO") {
		return nil, false
	}
	table, _, ok := p.qualifiedName()
	if !ok {
		return nil, false
	}
	stmt := &sqlast.InsertStmt{Table: table}

	if p.matchSymbol("(") {
		cols, ok := p.parseColumnNameList()
		if !ok {
			return nil, false
		}
		stmt.Columns = cols
	}

	switch {
	case p.consumeKeyword("VALUES"):
		rows, ok := p.parseValuesRowList()
		if !ok {
			return nil, false
		}
		stmt.Values = &sqlast.ValuesStmt{Rows: rows}
	case p.matchKeyword("SELECT") || p.matchKeyword("WITH"):
		query, ok := p.parseSelectStmt()
		if !ok {
			return nil, false
		}
		stmt.Query = query
	case p.consumeKeyword("DEFAULT"):
		if !p.consumeKeyword("VALUES") {
			return nil, false
		}
	default:
		return nil, false
	}

	if p.consumeKeyword("RETURNING") {
		items, ok := p.parseReturningList()
		if !ok {
			return nil, false
		}
		stmt.Returning = items
	}

	stmt.Span = p.spanFrom(start)
	return stmt, true
}

func (p *Parser) parseAssignmentList() ([]sqlast.Assignment, bool) {
	var assigns []sqlast.Assignment
	for {
		start := p.current()
		col, _, ok := p.identifier()
		if !ok {
			return nil, false
		}
		if !p.consumeSymbol("=") {
			return nil, false
		}
		val, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		assigns = append(assigns, sqlast.Assignment{Column: col, Value: val, Span: p.spanFrom(start)})
		if p.consumeSymbol(",") {
			continue
		}
		break
	}
	return assigns, true
}

func (p *Parser) parseUpdate() (sqlast.Stmt, bool) {
	start := p.advance() // UPDATE
	table, _, ok := p.qualifiedName()
	if !ok {
		return nil, false
	}
	stmt := &sqlast.UpdateStmt{Table: table}

	switch {
	case p.consumeKeyword("AS"):
		alias, _, ok := p.identifier()
		if !ok {
			return nil, false
		}
		stmt.Alias = alias
	case p.current().Kind == sqlscan.KindIdentifier:
		alias, _, ok := p.identifier()
		if ok {
			stmt.Alias = alias
		}
	}

	if !p.consumeKeyword("SET") {
		return nil, false
	}
	assigns, ok := p.parseAssignmentList()
	if !ok {
		return nil, false
	}
	stmt.Assignments = assigns

	if p.consumeKeyword("FROM") {
		from, ok := p.parseFromList()
		if !ok {
			return nil, false
		}
		stmt.From = from
	}
	if p.consumeKeyword("WHERE") {
		expr, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		stmt.Where = expr
	}
	if p.consumeKeyword("RETURNING") {
		items, ok := p.parseReturningList()
		if !ok {
			return nil, false
		}
		stmt.Returning = items
	}

	stmt.Span = p.spanFrom(start)
	return stmt, true
}

func (p *Parser) parseDelete() (sqlast.Stmt, bool) {
	start := p.advance() // DELETE
	if !p.consumeKeyword("FROM") {
		return nil, false
	}
	table, _, ok := p.qualifiedName()
	if !ok {
		return nil, false
	}
	stmt := &sqlast.DeleteStmt{Table: table}

	switch {
	case p.consumeKeyword("AS"):
		alias, _, ok := p.identifier()
		if !ok {
			return nil, false
		}
		stmt.Alias = alias
	case p.current().Kind == sqlscan.KindIdentifier:
		alias, _, ok := p.identifier()
		if ok {
			stmt.Alias = alias
		}
	}

	if p.consumeKeyword("USING") {
		from, ok := p.parseFromList()
		if !ok {
			return nil, false
		}
		stmt.Using = from
	}
	if p.consumeKeyword("WHERE") {
		expr, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		stmt.Where = expr
	}
	if p.consumeKeyword("RETURNING") {
		items, ok := p.parseReturningList()
		if !ok {
			return nil, false
		}
		stmt.Returning = items
	}

	stmt.Span = p.spanFrom(start)
	return stmt, true
}
