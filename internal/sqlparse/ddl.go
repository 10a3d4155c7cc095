package sqlparse

import (
	"strings"

	"github.com/sqlsift/sqlsift/internal/sqlast"
	"github.com/sqlsift/sqlsift/internal/sqlscan"
)

func (p *Parser) parseCreate() (sqlast.Stmt, bool) {
	createTok := p.advance() // CREATE

	replace := false
	if p.matchKeyword("OR") {
		p.advance()
		if !p.consumeKeyword("REPLACE") {
			return nil, false
		}
		replace = true
	}
	p.consumeKeyword("TEMP")
	p.consumeKeyword("TEMPORARY")

	switch {
	case p.matchKeyword("TABLE"):
		p.advance()
		return p.parseCreateTable(createTok)
	case p.matchKeyword("VIEW"):
		p.advance()
		return p.parseCreateView(createTok, replace)
	case p.matchKeyword("TYPE"):
		p.advance()
		return p.parseCreateTypeEnum(createTok)
	default:
		return nil, false
	}
}

func (p *Parser) parseCreateTable(createTok sqlscan.Token) (sqlast.Stmt, bool) {
	ifNotExists := p.consumeIfNotExists()

	name, _, ok := p.qualifiedName()
	if !ok {
		return nil, false
	}

	if !p.consumeSymbol("(") {
		return nil, false
	}

	stmt := &sqlast.CreateTableStmt{Name: name, IfNotExists: ifNotExists}

	for {
		if p.matchSymbol(")") {
			break
		}
		if p.looksLikeTableConstraint() {
			constraint, ok := p.parseTableConstraint()
			if !ok {
				return nil, false
			}
			stmt.Constraints = append(stmt.Constraints, constraint)
		} else {
			col, ok := p.parseColumnDef()
			if !ok {
				return nil, false
			}
			stmt.Columns = append(stmt.Columns, col)
		}
		if p.consumeSymbol(",") {
			continue
		}
		break
	}
	if !p.consumeSymbol(")") {
		return nil, false
	}
	// Dialect table options (STRICT, WITHOUT ROWID, ENGINE=..., etc.) are
	// not meaningful to the analyzer; discard tokens through the statement
	// terminator.
	p.skipTrailingTableOptions()

	stmt.Span = p.spanFrom(createTok)
	return stmt, true
}

func (p *Parser) looksLikeTableConstraint() bool {
	return p.matchAnyKeyword("PRIMARY", "UNIQUE", "FOREIGN", "CHECK", "CONSTRAINT")
}

func (p *Parser) parseTableConstraint() (sqlast.Constraint, bool) {
	start := p.current()
	if p.consumeKeyword("CONSTRAINT") {
		if _, _, ok := p.identifier(); !ok {
			return sqlast.Constraint{}, false
		}
	}

	switch {
	case p.consumeKeyword("PRIMARY"):
		if !p.consumeKeyword("KEY") {
			return sqlast.Constraint{}, false
		}
		cols, ok := p.parseColumnNameList()
		if !ok {
			return sqlast.Constraint{}, false
		}
		p.skipConflictClause()
		return sqlast.Constraint{Kind: sqlast.ConstraintPrimaryKey, Columns: cols, Span: p.spanFrom(start)}, true

	case p.consumeKeyword("UNIQUE"):
		cols, ok := p.parseColumnNameList()
		if !ok {
			return sqlast.Constraint{}, false
		}
		p.skipConflictClause()
		return sqlast.Constraint{Kind: sqlast.ConstraintUnique, Columns: cols, Span: p.spanFrom(start)}, true

	case p.consumeKeyword("FOREIGN"):
		if !p.consumeKeyword("KEY") {
			return sqlast.Constraint{}, false
		}
		cols, ok := p.parseColumnNameList()
		if !ok {
			return sqlast.Constraint{}, false
		}
		ref, ok := p.parseForeignKeyRef()
		if !ok {
			return sqlast.Constraint{}, false
		}
		ref.Columns = cols
		ref.Span = p.spanFrom(start)
		return ref, true

	case p.consumeKeyword("CHECK"):
		if !p.consumeSymbol("(") {
			return sqlast.Constraint{}, false
		}
		expr, ok := p.parseExpr()
		if !ok {
			return sqlast.Constraint{}, false
		}
		if !p.consumeSymbol(")") {
			return sqlast.Constraint{}, false
		}
		return sqlast.Constraint{Kind: sqlast.ConstraintCheck, CheckExpr: expr, Span: p.spanFrom(start)}, true

	default:
		return sqlast.Constraint{}, false
	}
}

func (p *Parser) parseForeignKeyRef() (sqlast.Constraint, bool) {
	if !p.consumeKeyword("REFERENCES") {
		return sqlast.Constraint{}, false
	}
	table, _, ok := p.qualifiedName()
	if !ok {
		return sqlast.Constraint{}, false
	}
	refCols, ok := p.parseColumnNameList()
	if !ok {
		return sqlast.Constraint{}, false
	}
	c := sqlast.Constraint{Kind: sqlast.ConstraintForeignKey, RefTable: table, RefColumns: refCols}
	for p.matchKeyword("ON") {
		p.advance()
		switch {
		case p.consumeKeyword("DELETE"):
			action, ok := p.parseReferentialAction()
			if !ok {
				return sqlast.Constraint{}, false
			}
			c.OnDelete = action
		case p.consumeKeyword("UPDATE"):
			action, ok := p.parseReferentialAction()
			if !ok {
				return sqlast.Constraint{}, false
			}
			c.OnUpdate = action
		default:
			return sqlast.Constraint{}, false
		}
	}
	return c, true
}

func (p *Parser) parseReferentialAction() (string, bool) {
	switch {
	case p.consumeKeyword("CASCADE"):
		return "CASCADE", true
	case p.consumeKeyword("RESTRICT"):
		return "RESTRICT", true
	case p.consumeKeyword("NO"):
		if !p.consumeKeyword("ACTION") {
			return "", false
		}
		return "NO ACTION", true
	case p.consumeKeyword("SET"):
		switch {
		case p.consumeKeyword("NULL"):
			return "SET NULL", true
		case p.consumeKeyword("DEFAULT"):
			return "SET DEFAULT", true
		default:
			return "", false
		}
	default:
		return "", false
	}
}

func (p *Parser) parseColumnNameList() ([]string, bool) {
	if !p.consumeSymbol("(") {
		return nil, false
	}
	var cols []string
	for {
		name, _, ok := p.identifier()
		if !ok {
			return nil, false
		}
		cols = append(cols, name)
		// Optional column ordering (ASC/DESC) inside index/PK column lists.
		p.consumeKeyword("ASC")
		p.consumeKeyword("DESC")
		if p.consumeSymbol(",") {
			continue
		}
		break
	}
	if !p.consumeSymbol(")") {
		return nil, false
	}
	return cols, true
}

func (p *Parser) parseColumnDef() (sqlast.ColumnDef, bool) {
	start := p.current()
	name, _, ok := p.identifier()
	if !ok {
		return sqlast.ColumnDef{}, false
	}
	typeName, ok := p.parseTypeName()
	if !ok {
		return sqlast.ColumnDef{}, false
	}
	col := sqlast.ColumnDef{Name: name, TypeName: typeName, Nullable: true}

	for {
		switch {
		case p.consumeKeyword("NOT"):
			if !p.consumeKeyword("NULL") {
				return sqlast.ColumnDef{}, false
			}
			col.Nullable = false
		case p.consumeKeyword("NULL"):
			col.Nullable = true
		case p.matchKeyword("DEFAULT"):
			p.advance()
			if !p.skipDefaultExpr() {
				return sqlast.ColumnDef{}, false
			}
			col.HasDefault = true
		case p.consumeKeyword("PRIMARY"):
			if !p.consumeKeyword("KEY") {
				return sqlast.ColumnDef{}, false
			}
			col.Nullable = false
			p.consumeKeyword("AUTOINCREMENT")
			p.skipConflictClause()
		case p.consumeKeyword("UNIQUE"):
			p.skipConflictClause()
		case p.consumeKeyword("REFERENCES"):
			if _, _, ok := p.qualifiedName(); !ok {
				return sqlast.ColumnDef{}, false
			}
			if p.matchSymbol("(") {
				if _, ok := p.parseColumnNameList(); !ok {
					return sqlast.ColumnDef{}, false
				}
			}
		case p.matchKeyword("GENERATED"):
			p.advance()
			p.consumeKeyword("ALWAYS")
			p.consumeKeyword("BY")
			p.consumeKeyword("DEFAULT")
			if p.consumeKeyword("AS") {
				if p.matchKeyword("IDENTITY") {
					p.advance()
					if p.matchSymbol("(") {
						p.skipBalancedParens()
					}
				} else if p.matchSymbol("(") {
					p.skipBalancedParens()
				}
			}
			col.GeneratedIdentity = true
			col.Nullable = false
		case p.consumeKeyword("IDENTITY"):
			col.GeneratedIdentity = true
			col.Nullable = false
		case p.matchKeyword("CHECK"):
			p.advance()
			if !p.consumeSymbol("(") {
				return sqlast.ColumnDef{}, false
			}
			if !p.skipBalancedParensAlreadyOpen() {
				return sqlast.ColumnDef{}, false
			}
		case p.consumeKeyword("COLLATE"):
			if _, _, ok := p.identifier(); !ok {
				return sqlast.ColumnDef{}, false
			}
		default:
			col.Span = p.spanFrom(start)
			return col, true
		}
	}
}

// parseTypeName accepts a dialect type name, its optional (args), and an
// optional [] array suffix, returning the raw declaration text.
func (p *Parser) parseTypeName() (string, bool) {
	var sb strings.Builder
	name, _, ok := p.identifier()
	if !ok {
		return "", false
	}
	sb.WriteString(name)
	for p.matchKeyword("VARYING") || p.matchKeyword("PRECISION") {
		sb.WriteByte(' ')
		sb.WriteString(p.advance().Text)
	}
	if p.matchSymbol("(") {
		sb.WriteByte('(')
		p.advance()
		for !p.matchSymbol(")") {
			if p.isEOF() {
				return "", false
			}
			sb.WriteString(p.advance().Text)
		}
		p.advance()
		sb.WriteByte(')')
	}
	for p.matchSymbol("[") {
		p.advance()
		if !p.consumeSymbol("]") {
			return "", false
		}
		sb.WriteString("[]")
	}
	return sb.String(), true
}

func (p *Parser) skipDefaultExpr() bool {
	if p.matchSymbol("(") {
		return p.skipBalancedParens()
	}
	_, ok := p.parseAdditive()
	return ok
}

func (p *Parser) skipBalancedParens() bool {
	if !p.consumeSymbol("(") {
		return false
	}
	return p.skipBalancedParensAlreadyOpen()
}

func (p *Parser) skipBalancedParensAlreadyOpen() bool {
	depth := 1
	for depth > 0 {
		if p.isEOF() {
			return false
		}
		tok := p.advance()
		if tok.Kind == sqlscan.KindSymbol {
			switch tok.Text {
			case "(":
				depth++
			case ")":
				depth--
			}
		}
	}
	return true
}

func (p *Parser) skipConflictClause() {
	if p.consumeKeyword("ON") {
		p.consumeKeyword("CONFLICT")
		switch {
		case p.consumeKeyword("ROLLBACK"), p.consumeKeyword("ABORT"),
			p.consumeKeyword("FAIL"), p.consumeKeyword("IGNORE"), p.consumeKeyword("REPLACE"):
		}
	}
}

func (p *Parser) skipTrailingTableOptions() {
	for !p.isEOF() && !p.matchSymbol(";") {
		if p.matchKeyword("SELECT") || p.matchKeyword("CREATE") || p.matchKeyword("INSERT") ||
			p.matchKeyword("UPDATE") || p.matchKeyword("DELETE") || p.matchKeyword("ALTER") || p.matchKeyword("DROP") {
			return
		}
		p.advance()
	}
}

func (p *Parser) consumeIfNotExists() bool {
	if p.matchKeyword("IF") {
		p.advance()
		p.consumeKeyword("NOT")
		p.consumeKeyword("EXISTS")
		return true
	}
	return false
}

func (p *Parser) consumeIfExists() bool {
	if p.matchKeyword("IF") {
		p.advance()
		p.consumeKeyword("EXISTS")
		return true
	}
	return false
}

func (p *Parser) parseCreateView(createTok sqlscan.Token, replace bool) (sqlast.Stmt, bool) {
	name, _, ok := p.qualifiedName()
	if !ok {
		return nil, false
	}
	if p.matchSymbol("(") {
		if _, ok := p.parseColumnNameList(); !ok {
			return nil, false
		}
	}
	if !p.consumeKeyword("AS") {
		return nil, false
	}
	query, ok := p.parseSelectBody()
	if !ok {
		return nil, false
	}
	return &sqlast.CreateViewStmt{Name: name, Replace: replace, Query: query, Span: p.spanFrom(createTok)}, true
}

func (p *Parser) parseCreateTypeEnum(createTok sqlscan.Token) (sqlast.Stmt, bool) {
	name, _, ok := p.qualifiedName()
	if !ok {
		return nil, false
	}
	if !p.consumeKeyword("AS") || !p.consumeKeyword("ENUM") {
		return nil, false
	}
	if !p.consumeSymbol("(") {
		return nil, false
	}
	var labels []string
	for {
		tok := p.current()
		if tok.Kind != sqlscan.KindString {
			return nil, false
		}
		p.advance()
		labels = append(labels, tok.Text)
		if p.consumeSymbol(",") {
			continue
		}
		break
	}
	if !p.consumeSymbol(")") {
		return nil, false
	}
	return &sqlast.CreateTypeEnumStmt{Name: name, Labels: labels, Span: p.spanFrom(createTok)}, true
}

func (p *Parser) parseAlter() (sqlast.Stmt, bool) {
	alterTok := p.advance() // ALTER
	if !p.consumeKeyword("TABLE") {
		return nil, false
	}
	table, _, ok := p.qualifiedName()
	if !ok {
		return nil, false
	}

	switch {
	case p.consumeKeyword("ADD"):
		p.consumeKeyword("COLUMN")
		if p.looksLikeTableConstraint() {
			constraint, ok := p.parseTableConstraint()
			if !ok {
				return nil, false
			}
			return &sqlast.AlterTableStmt{Table: table, Action: sqlast.AlterAddConstraint, AddedConstraint: constraint, Span: p.spanFrom(alterTok)}, true
		}
		col, ok := p.parseColumnDef()
		if !ok {
			return nil, false
		}
		return &sqlast.AlterTableStmt{Table: table, Action: sqlast.AlterAddColumn, Column: col, Span: p.spanFrom(alterTok)}, true

	case p.consumeKeyword("DROP"):
		p.consumeKeyword("COLUMN")
		p.consumeIfExists()
		name, _, ok := p.identifier()
		if !ok {
			return nil, false
		}
		return &sqlast.AlterTableStmt{Table: table, Action: sqlast.AlterDropColumn, DropName: name, Span: p.spanFrom(alterTok)}, true

	case p.consumeKeyword("RENAME"):
		if p.consumeKeyword("COLUMN") {
			oldName, _, ok := p.identifier()
			if !ok {
				return nil, false
			}
			if !p.consumeKeyword("TO") {
				return nil, false
			}
			newName, _, ok := p.identifier()
			if !ok {
				return nil, false
			}
			return &sqlast.AlterTableStmt{Table: table, Action: sqlast.AlterRenameColumn, OldName: oldName, NewName: newName, Span: p.spanFrom(alterTok)}, true
		}
		if p.consumeKeyword("TO") {
			newName, _, ok := p.identifier()
			if !ok {
				return nil, false
			}
			return &sqlast.AlterTableStmt{Table: table, Action: sqlast.AlterRenameTo, NewName: newName, Span: p.spanFrom(alterTok)}, true
		}
		// Bare `RENAME old TO new` (SQLite accepts omitting COLUMN).
		oldName, _, ok := p.identifier()
		if !ok {
			return nil, false
		}
		if !p.consumeKeyword("TO") {
			return nil, false
		}
		newName, _, ok := p.identifier()
		if !ok {
			return nil, false
		}
		return &sqlast.AlterTableStmt{Table: table, Action: sqlast.AlterRenameColumn, OldName: oldName, NewName: newName, Span: p.spanFrom(alterTok)}, true

	default:
		if p.looksLikeTableConstraint() {
			constraint, ok := p.parseTableConstraint()
			if !ok {
				return nil, false
			}
			return &sqlast.AlterTableStmt{Table: table, Action: sqlast.AlterAddConstraint, AddedConstraint: constraint, Span: p.spanFrom(alterTok)}, true
		}
		return nil, false
	}
}

func (p *Parser) parseDrop() (sqlast.Stmt, bool) {
	dropTok := p.advance() // DROP
	var kind sqlast.DropKind
	switch {
	case p.consumeKeyword("TABLE"):
		kind = sqlast.DropTable
	case p.consumeKeyword("VIEW"):
		kind = sqlast.DropView
	case p.consumeKeyword("TYPE"):
		kind = sqlast.DropType
	default:
		return nil, false
	}
	ifExists := p.consumeIfExists()
	name, _, ok := p.qualifiedName()
	if !ok {
		return nil, false
	}
	return &sqlast.DropStmt{Kind: kind, Name: name, IfExists: ifExists, Span: p.spanFrom(dropTok)}, true
}
