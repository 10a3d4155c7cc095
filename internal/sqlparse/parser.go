// Package sqlparse implements a resilient recursive-descent parser that
// turns a sqlscan token stream into the sqlast tree consumed by
// schemabuild and analyze.
package sqlparse

import (
	"fmt"

	"github.com/sqlsift/sqlsift/internal/diag"
	"github.com/sqlsift/sqlsift/internal/dialect"
	"github.com/sqlsift/sqlsift/internal/sqlast"
	"github.com/sqlsift/sqlsift/internal/sqlscan"
)

// Parser consumes a token stream and produces statements, accumulating a
// diagnostic per malformed statement rather than aborting the whole file.
type Parser struct {
	tokens []sqlscan.Token
	pos    int
	path   string
	dial   dialect.Dialect
	diags  []diag.Diagnostic
}

// Parse tokenizes nothing itself; it expects tokens already produced by
// sqlscan.Scan. It returns every statement it could recover plus one
// ParseError diagnostic per statement it could not.
func Parse(path string, d dialect.Dialect, tokens []sqlscan.Token) ([]sqlast.Stmt, []diag.Diagnostic) {
	p := &Parser{tokens: tokens, path: path, dial: d}
	if len(p.tokens) == 0 || p.tokens[len(p.tokens)-1].Kind != sqlscan.KindEOF {
		p.tokens = append(p.tokens, sqlscan.Token{Kind: sqlscan.KindEOF, File: path})
	}
	var stmts []sqlast.Stmt
	for !p.isEOF() {
		if p.matchSymbol(";") {
			p.advance()
			continue
		}
		if p.current().Kind == sqlscan.KindComment || p.current().Kind == sqlscan.KindDocComment {
			p.advance()
			continue
		}
		start := p.current()
		stmt, ok := p.parseStatement()
		if !ok {
			p.addParseError(start, "could not parse statement")
			p.syncToStatementEnd()
			continue
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, p.diags
}

func (p *Parser) parseStatement() (sqlast.Stmt, bool) {
	switch {
	case p.matchKeyword("CREATE"):
		return p.parseCreate()
	case p.matchKeyword("ALTER"):
		return p.parseAlter()
	case p.matchKeyword("DROP"):
		return p.parseDrop()
	case p.matchKeyword("WITH"), p.matchKeyword("SELECT"):
		return p.parseSelect()
	case p.matchKeyword("INSERT"):
		return p.parseInsert()
	case p.matchKeyword("UPDATE"):
		return p.parseUpdate()
	case p.matchKeyword("DELETE"):
		return p.parseDelete()
	case p.matchKeyword("VALUES"):
		return p.parseValuesStmt()
	default:
		return nil, false
	}
}

func (p *Parser) addParseError(tok sqlscan.Token, format string, args ...any) {
	p.diags = append(p.diags, diag.Diagnostic{
		Code:        diag.ParseError,
		Severity:    diag.SeverityError,
		PrimarySpan: sqlscan.NewSpan(tok),
		Message:     fmt.Sprintf(format, args...),
	})
}

// syncToStatementEnd discards tokens until the next top-level ';' or EOF so
// one malformed statement never blocks the rest of the file.
func (p *Parser) syncToStatementEnd() {
	depth := 0
	for !p.isEOF() {
		tok := p.current()
		if tok.Kind == sqlscan.KindSymbol {
			switch tok.Text {
			case "(":
				depth++
			case ")":
				if depth > 0 {
					depth--
				}
			case ";":
				if depth == 0 {
					p.advance()
					return
				}
			}
		}
		p.advance()
	}
}

// ---- token cursor helpers ----

func (p *Parser) current() sqlscan.Token {
	return p.tokens[p.pos]
}

func (p *Parser) previous() sqlscan.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() sqlscan.Token {
	tok := p.current()
	if tok.Kind != sqlscan.KindEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) isEOF() bool {
	return p.current().Kind == sqlscan.KindEOF
}

// peek looks offset tokens ahead of the cursor without consuming, clamped to
// the final (EOF) token.
func (p *Parser) peek(offset int) sqlscan.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) matchKeyword(text string) bool {
	tok := p.current()
	return tok.Kind == sqlscan.KindKeyword && tok.Text == text
}

func (p *Parser) matchAnyKeyword(texts ...string) bool {
	for _, t := range texts {
		if p.matchKeyword(t) {
			return true
		}
	}
	return false
}

func (p *Parser) matchSymbol(text string) bool {
	tok := p.current()
	return tok.Kind == sqlscan.KindSymbol && tok.Text == text
}

func (p *Parser) consumeKeyword(text string) bool {
	if p.matchKeyword(text) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consumeSymbol(text string) bool {
	if p.matchSymbol(text) {
		p.advance()
		return true
	}
	return false
}

// identifier accepts a bare identifier/keyword-as-identifier or a quoted
// identifier and returns its folded-for-storage display text.
func (p *Parser) identifier() (string, sqlscan.Token, bool) {
	tok := p.current()
	switch tok.Kind {
	case sqlscan.KindIdentifier:
		p.advance()
		return sqlscan.NormalizeIdentifier(tok.Text), tok, true
	case sqlscan.KindKeyword:
		// Many keywords double as identifiers in practice (e.g. column
		// named `type`); accept defensively rather than fail the parse.
		p.advance()
		return tok.Text, tok, true
	default:
		return "", tok, false
	}
}

// qualifiedName accepts `name` or `schema.name`, discarding the schema
// qualifier since the core never performs cross-schema resolution.
func (p *Parser) qualifiedName() (string, sqlscan.Token, bool) {
	name, tok, ok := p.identifier()
	if !ok {
		return "", tok, false
	}
	for p.matchSymbol(".") {
		p.advance()
		next, _, ok := p.identifier()
		if !ok {
			return "", tok, false
		}
		name = next
	}
	return name, tok, true
}

func (p *Parser) spanFrom(start sqlscan.Token) sqlast.Span {
	return sqlscan.SpanBetween(start, p.previous())
}
