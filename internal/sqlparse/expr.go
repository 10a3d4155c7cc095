package sqlparse

import (
	"strconv"
	"strings"

	"github.com/sqlsift/sqlsift/internal/sqlast"
	"github.com/sqlsift/sqlsift/internal/sqlscan"
)

// parseExpr parses a full boolean/scalar expression at OR precedence, the
// entry point used by every clause that accepts one expression.
func (p *Parser) parseExpr() (sqlast.Expr, bool) {
	return p.parseOr()
}

func (p *Parser) parseExprList() ([]sqlast.Expr, bool) {
	var exprs []sqlast.Expr
	for {
		e, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		exprs = append(exprs, e)
		if p.consumeSymbol(",") {
			continue
		}
		break
	}
	return exprs, true
}

// parseExprListOrEmpty accepts zero expressions, used for table-function
// argument lists, IN lists and empty VALUES rows such as `()`.
func (p *Parser) parseExprListOrEmpty() ([]sqlast.Expr, bool) {
	if p.matchSymbol(")") {
		return nil, true
	}
	return p.parseExprList()
}

func (p *Parser) parseOr() (sqlast.Expr, bool) {
	left, ok := p.parseAnd()
	if !ok {
		return nil, false
	}
	for p.matchKeyword("OR") {
		start := p.current()
		p.advance()
		right, ok := p.parseAnd()
		if !ok {
			return nil, false
		}
		left = &sqlast.BinaryExpr{Op: sqlast.OpOr, Left: left, Right: right, Span: p.spanFrom(start)}
	}
	return left, true
}

func (p *Parser) parseAnd() (sqlast.Expr, bool) {
	left, ok := p.parseNot()
	if !ok {
		return nil, false
	}
	for p.matchKeyword("AND") {
		start := p.current()
		p.advance()
		right, ok := p.parseNot()
		if !ok {
			return nil, false
		}
		left = &sqlast.BinaryExpr{Op: sqlast.OpAnd, Left: left, Right: right, Span: p.spanFrom(start)}
	}
	return left, true
}

func (p *Parser) parseNot() (sqlast.Expr, bool) {
	if p.matchKeyword("NOT") {
		start := p.advance()
		operand, ok := p.parseNot()
		if !ok {
			return nil, false
		}
		return &sqlast.UnaryExpr{Op: sqlast.OpNot, Operand: operand, Span: p.spanFrom(start)}, true
	}
	return p.parseComparison()
}

// parseComparison handles equality/ordering comparisons and the
// comparison-level postfix forms (IS [NOT] NULL, IS [NOT] DISTINCT FROM,
// [NOT] BETWEEN, [NOT] IN, [NOT] LIKE/ILIKE) which all bind at this level and
// do not themselves associate.
func (p *Parser) parseComparison() (sqlast.Expr, bool) {
	left, ok := p.parseConcat()
	if !ok {
		return nil, false
	}

	for {
		start := p.current()
		switch {
		case p.matchSymbol("=") || p.matchSymbol("=="):
			p.advance()
			right, ok := p.parseConcat()
			if !ok {
				return nil, false
			}
			left = &sqlast.BinaryExpr{Op: sqlast.OpEq, Left: left, Right: right, Span: p.spanFrom(start)}

		case p.matchSymbol("<>") || p.matchSymbol("!="):
			p.advance()
			right, ok := p.parseConcat()
			if !ok {
				return nil, false
			}
			left = &sqlast.BinaryExpr{Op: sqlast.OpNotEq, Left: left, Right: right, Span: p.spanFrom(start)}

		case p.matchSymbol("<="):
			p.advance()
			right, ok := p.parseConcat()
			if !ok {
				return nil, false
			}
			left = &sqlast.BinaryExpr{Op: sqlast.OpLessEq, Left: left, Right: right, Span: p.spanFrom(start)}

		case p.matchSymbol(">="):
			p.advance()
			right, ok := p.parseConcat()
			if !ok {
				return nil, false
			}
			left = &sqlast.BinaryExpr{Op: sqlast.OpGreaterEq, Left: left, Right: right, Span: p.spanFrom(start)}

		case p.matchSymbol("<"):
			p.advance()
			right, ok := p.parseConcat()
			if !ok {
				return nil, false
			}
			left = &sqlast.BinaryExpr{Op: sqlast.OpLess, Left: left, Right: right, Span: p.spanFrom(start)}

		case p.matchSymbol(">"):
			p.advance()
			right, ok := p.parseConcat()
			if !ok {
				return nil, false
			}
			left = &sqlast.BinaryExpr{Op: sqlast.OpGreater, Left: left, Right: right, Span: p.spanFrom(start)}

		case p.consumeKeyword("IS"):
			not := p.consumeKeyword("NOT")
			switch {
			case p.consumeKeyword("NULL"):
				op := sqlast.OpIsNull
				if not {
					op = sqlast.OpIsNotNull
				}
				left = &sqlast.UnaryExpr{Op: op, Operand: left, Span: p.spanFrom(start)}
			case p.consumeKeyword("DISTINCT"):
				if !p.consumeKeyword("FROM") {
					return nil, false
				}
				right, ok := p.parseConcat()
				if !ok {
					return nil, false
				}
				expr := &sqlast.BinaryExpr{Op: sqlast.OpIsDistinctFrom, Left: left, Right: right, Span: p.spanFrom(start)}
				if not {
					left = &sqlast.UnaryExpr{Op: sqlast.OpNot, Operand: expr, Span: p.spanFrom(start)}
				} else {
					left = expr
				}
			default:
				return nil, false
			}

		case p.matchKeyword("BETWEEN"):
			p.advance()
			low, ok := p.parseConcat()
			if !ok {
				return nil, false
			}
			if !p.consumeKeyword("AND") {
				return nil, false
			}
			high, ok := p.parseConcat()
			if !ok {
				return nil, false
			}
			left = &sqlast.BetweenExpr{Target: left, Low: low, High: high, Span: p.spanFrom(start)}

		case p.matchKeyword("NOT") && (p.peek(1).Kind == sqlscan.KindKeyword && (p.peek(1).Text == "BETWEEN" || p.peek(1).Text == "IN" || p.peek(1).Text == "LIKE" || p.peek(1).Text == "ILIKE")):
			p.advance() // NOT
			switch {
			case p.consumeKeyword("BETWEEN"):
				low, ok := p.parseConcat()
				if !ok {
					return nil, false
				}
				if !p.consumeKeyword("AND") {
					return nil, false
				}
				high, ok := p.parseConcat()
				if !ok {
					return nil, false
				}
				left = &sqlast.BetweenExpr{Target: left, Not: true, Low: low, High: high, Span: p.spanFrom(start)}
			case p.consumeKeyword("IN"):
				in, ok := p.parseInTail(left, true, start)
				if !ok {
					return nil, false
				}
				left = in
			case p.consumeKeyword("LIKE"):
				right, ok := p.parseConcat()
				if !ok {
					return nil, false
				}
				left = &sqlast.UnaryExpr{Op: sqlast.OpNot, Operand: &sqlast.BinaryExpr{Op: sqlast.OpLike, Left: left, Right: right, Span: p.spanFrom(start)}, Span: p.spanFrom(start)}
			case p.consumeKeyword("ILIKE"):
				right, ok := p.parseConcat()
				if !ok {
					return nil, false
				}
				left = &sqlast.UnaryExpr{Op: sqlast.OpNot, Operand: &sqlast.BinaryExpr{Op: sqlast.OpILike, Left: left, Right: right, Span: p.spanFrom(start)}, Span: p.spanFrom(start)}
			default:
				return nil, false
			}

		case p.consumeKeyword("IN"):
			in, ok := p.parseInTail(left, false, start)
			if !ok {
				return nil, false
			}
			left = in

		case p.consumeKeyword("LIKE"):
			right, ok := p.parseConcat()
			if !ok {
				return nil, false
			}
			left = &sqlast.BinaryExpr{Op: sqlast.OpLike, Left: left, Right: right, Span: p.spanFrom(start)}

		case p.consumeKeyword("ILIKE"):
			right, ok := p.parseConcat()
			if !ok {
				return nil, false
			}
			left = &sqlast.BinaryExpr{Op: sqlast.OpILike, Left: left, Right: right, Span: p.spanFrom(start)}

		default:
			return left, true
		}
	}
}

func (p *Parser) parseInTail(target sqlast.Expr, not bool, start sqlscan.Token) (sqlast.Expr, bool) {
	if !p.consumeSymbol("(") {
		return nil, false
	}
	if p.matchKeyword("SELECT") || p.matchKeyword("WITH") {
		sub, ok := p.parseSelectStmt()
		if !ok {
			return nil, false
		}
		if !p.consumeSymbol(")") {
			return nil, false
		}
		return &sqlast.InExpr{Target: target, Not: not, Subquery: sub, Span: p.spanFrom(start)}, true
	}
	list, ok := p.parseExprListOrEmpty()
	if !ok {
		return nil, false
	}
	if !p.consumeSymbol(")") {
		return nil, false
	}
	return &sqlast.InExpr{Target: target, Not: not, List: list, Span: p.spanFrom(start)}, true
}

func (p *Parser) parseConcat() (sqlast.Expr, bool) {
	left, ok := p.parseAdditive()
	if !ok {
		return nil, false
	}
	for p.matchSymbol("||") {
		start := p.current()
		p.advance()
		right, ok := p.parseAdditive()
		if !ok {
			return nil, false
		}
		left = &sqlast.BinaryExpr{Op: sqlast.OpConcat, Left: left, Right: right, Span: p.spanFrom(start)}
	}
	return left, true
}

func (p *Parser) parseAdditive() (sqlast.Expr, bool) {
	left, ok := p.parseMultiplicative()
	if !ok {
		return nil, false
	}
	for {
		start := p.current()
		switch {
		case p.matchSymbol("+"):
			p.advance()
			right, ok := p.parseMultiplicative()
			if !ok {
				return nil, false
			}
			left = &sqlast.BinaryExpr{Op: sqlast.OpAdd, Left: left, Right: right, Span: p.spanFrom(start)}
		case p.matchSymbol("-"):
			p.advance()
			right, ok := p.parseMultiplicative()
			if !ok {
				return nil, false
			}
			left = &sqlast.BinaryExpr{Op: sqlast.OpSub, Left: left, Right: right, Span: p.spanFrom(start)}
		default:
			return left, true
		}
	}
}

func (p *Parser) parseMultiplicative() (sqlast.Expr, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return nil, false
	}
	for {
		start := p.current()
		switch {
		case p.matchSymbol("*"):
			p.advance()
			right, ok := p.parseUnary()
			if !ok {
				return nil, false
			}
			left = &sqlast.BinaryExpr{Op: sqlast.OpMul, Left: left, Right: right, Span: p.spanFrom(start)}
		case p.matchSymbol("/"):
			p.advance()
			right, ok := p.parseUnary()
			if !ok {
				return nil, false
			}
			left = &sqlast.BinaryExpr{Op: sqlast.OpDiv, Left: left, Right: right, Span: p.spanFrom(start)}
		case p.matchSymbol("%"):
			p.advance()
			right, ok := p.parseUnary()
			if !ok {
				return nil, false
			}
			left = &sqlast.BinaryExpr{Op: sqlast.OpMod, Left: left, Right: right, Span: p.spanFrom(start)}
		default:
			return left, true
		}
	}
}

func (p *Parser) parseUnary() (sqlast.Expr, bool) {
	if p.matchSymbol("-") {
		start := p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &sqlast.UnaryExpr{Op: sqlast.OpNeg, Operand: operand, Span: p.spanFrom(start)}, true
	}
	if p.matchSymbol("+") {
		p.advance()
		return p.parseUnary()
	}
	return p.parsePostfix()
}

// parsePostfix handles the PostgreSQL `expr::type` cast shorthand chained
// after a primary expression.
func (p *Parser) parsePostfix() (sqlast.Expr, bool) {
	start := p.current()
	expr, ok := p.parsePrimary()
	if !ok {
		return nil, false
	}
	for p.matchSymbol("::") {
		p.advance()
		typeName, ok := p.parseTypeName()
		if !ok {
			return nil, false
		}
		expr = &sqlast.CastExpr{Target: expr, TypeName: typeName, Span: p.spanFrom(start)}
	}
	return expr, true
}

func (p *Parser) parsePrimary() (sqlast.Expr, bool) {
	start := p.current()
	tok := p.current()

	switch tok.Kind {
	case sqlscan.KindNumber:
		p.advance()
		kind := sqlast.LiteralInteger
		if strings.ContainsAny(tok.Text, ".eE") {
			if strings.ContainsAny(tok.Text, "eE") {
				kind = sqlast.LiteralFloat
			} else {
				kind = sqlast.LiteralDecimal
			}
		}
		return &sqlast.Literal{Kind: kind, Text: tok.Text, Span: p.spanFrom(start)}, true

	case sqlscan.KindString:
		p.advance()
		return &sqlast.Literal{Kind: sqlast.LiteralString, Text: tok.Text, Span: p.spanFrom(start)}, true

	case sqlscan.KindBlob:
		p.advance()
		return &sqlast.Literal{Kind: sqlast.LiteralBlob, Text: tok.Text, Span: p.spanFrom(start)}, true

	case sqlscan.KindParam:
		p.advance()
		ordinal, _ := strconv.Atoi(strings.TrimPrefix(tok.Text, "$"))
		return &sqlast.Param{Ordinal: ordinal, Span: p.spanFrom(start)}, true
	}

	switch {
	case p.matchSymbol("?"):
		p.advance()
		return &sqlast.Param{Span: p.spanFrom(start)}, true

	case p.matchKeyword("TRUE"):
		p.advance()
		return &sqlast.Literal{Kind: sqlast.LiteralBoolean, Text: "TRUE", Span: p.spanFrom(start)}, true

	case p.matchKeyword("FALSE"):
		p.advance()
		return &sqlast.Literal{Kind: sqlast.LiteralBoolean, Text: "FALSE", Span: p.spanFrom(start)}, true

	case p.matchKeyword("NULL"):
		p.advance()
		return &sqlast.Literal{Kind: sqlast.LiteralNull, Span: p.spanFrom(start)}, true

	case p.matchKeyword("EXISTS"):
		p.advance()
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
		return &sqlast.ExistsExpr{Query: query, Span: p.spanFrom(start)}, true

	case p.matchKeyword("NOT") && p.peek(1).Kind == sqlscan.KindKeyword && p.peek(1).Text == "EXISTS":
		p.advance()
		p.advance()
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
		return &sqlast.ExistsExpr{Not: true, Query: query, Span: p.spanFrom(start)}, true

	case p.matchKeyword("CAST"):
		p.advance()
		if !p.consumeSymbol("(") {
			return nil, false
		}
		target, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if !p.consumeKeyword("AS") {
			return nil, false
		}
		typeName, ok := p.parseTypeName()
		if !ok {
			return nil, false
		}
		if !p.consumeSymbol(")") {
			return nil, false
		}
		return &sqlast.CastExpr{Target: target, TypeName: typeName, Span: p.spanFrom(start)}, true

	case p.matchKeyword("CASE"):
		return p.parseCaseExpr()

	case p.matchSymbol("("):
		p.advance()
		if p.matchKeyword("SELECT") || p.matchKeyword("WITH") {
			sub, ok := p.parseSelectStmt()
			if !ok {
				return nil, false
			}
			if !p.consumeSymbol(")") {
				return nil, false
			}
			return &sqlast.SubqueryExpr{Query: sub, Span: p.spanFrom(start)}, true
		}
		expr, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if !p.consumeSymbol(")") {
			return nil, false
		}
		return expr, true

	case p.current().Kind == sqlscan.KindIdentifier || p.current().Kind == sqlscan.KindKeyword:
		return p.parseIdentOrCall()

	default:
		return nil, false
	}
}

// parseIdentOrCall disambiguates a bare/qualified identifier from a function
// call by looking for a following '('.
func (p *Parser) parseIdentOrCall() (sqlast.Expr, bool) {
	start := p.current()
	name, _, ok := p.identifier()
	if !ok {
		return nil, false
	}
	qualifier := ""
	for p.matchSymbol(".") {
		p.advance()
		next, _, ok := p.identifier()
		if !ok {
			return nil, false
		}
		qualifier = name
		name = next
	}
	if !p.matchSymbol("(") {
		return &sqlast.Ident{Qualifier: qualifier, Name: name, Span: p.spanFrom(start)}, true
	}
	p.advance()
	call := &sqlast.FuncCall{Name: name}
	if p.consumeKeyword("DISTINCT") {
		call.Distinct = true
	}
	if p.matchSymbol("*") {
		p.advance()
		call.Star = true
	} else if !p.matchSymbol(")") {
		args, ok := p.parseExprList()
		if !ok {
			return nil, false
		}
		call.Args = args
	}
	if !p.consumeSymbol(")") {
		return nil, false
	}
	if p.consumeKeyword("OVER") {
		over, ok := p.parseOverClause()
		if !ok {
			return nil, false
		}
		call.Over = over
	}
	call.Span = p.spanFrom(start)
	return call, true
}

func (p *Parser) parseOverClause() (*sqlast.OverClause, bool) {
	if !p.matchSymbol("(") {
		name, _, ok := p.identifier()
		if !ok {
			return nil, false
		}
		return &sqlast.OverClause{WindowName: name}, true
	}
	p.advance()
	over := &sqlast.OverClause{}
	if p.consumeKeyword("PARTITION") {
		if !p.consumeKeyword("BY") {
			return nil, false
		}
		exprs, ok := p.parseExprList()
		if !ok {
			return nil, false
		}
		over.PartitionBy = exprs
	}
	if p.consumeKeyword("ORDER") {
		if !p.consumeKeyword("BY") {
			return nil, false
		}
		items, ok := p.parseOrderByList()
		if !ok {
			return nil, false
		}
		over.OrderBy = items
	}
	if !p.consumeSymbol(")") {
		return nil, false
	}
	return over, true
}

func (p *Parser) parseCaseExpr() (sqlast.Expr, bool) {
	start := p.advance() // CASE
	expr := &sqlast.CaseExpr{}
	if !p.matchKeyword("WHEN") {
		operand, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		expr.Operand = operand
	}
	for p.consumeKeyword("WHEN") {
		when, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if !p.consumeKeyword("THEN") {
			return nil, false
		}
		then, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		expr.Whens = append(expr.Whens, sqlast.CaseWhen{When: when, Then: then})
	}
	if len(expr.Whens) == 0 {
		return nil, false
	}
	if p.consumeKeyword("ELSE") {
		elseExpr, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		expr.Else = elseExpr
	}
	if !p.consumeKeyword("END") {
		return nil, false
	}
	expr.Span = p.spanFrom(start)
	return expr, true
}

// markJoinOnConjuncts tags every top-level AND-conjunct of a JOIN ON clause
// so the resolver can tell a join-condition type mismatch (E0007) apart from
// a generic WHERE-clause one (E0003).
func markJoinOnConjuncts(expr sqlast.Expr) {
	be, ok := expr.(*sqlast.BinaryExpr)
	if !ok {
		return
	}
	if be.Op == sqlast.OpAnd {
		markJoinOnConjuncts(be.Left)
		markJoinOnConjuncts(be.Right)
		return
	}
	be.InJoinOn = true
}
