// Package schemabuild folds a stream of parsed DDL statements into a
// Catalog, tolerating unsupported statement kinds and per-statement issues
// without aborting the rest of the schema.
package schemabuild

import (
	"fmt"

	"github.com/sqlsift/sqlsift/internal/catalog"
	"github.com/sqlsift/sqlsift/internal/diag"
	"github.com/sqlsift/sqlsift/internal/dialect"
	"github.com/sqlsift/sqlsift/internal/resolve"
	"github.com/sqlsift/sqlsift/internal/sqlast"
	"github.com/sqlsift/sqlsift/internal/sqltype"
)

// Builder accumulates a Catalog and its build diagnostics across a batch of
// DDL statements.
type Builder struct {
	cat   *catalog.Catalog
	dial  dialect.Dialect
	diags []diag.Diagnostic
}

// New returns an empty Builder for the given dialect.
func New(dial dialect.Dialect) *Builder {
	return &Builder{cat: catalog.New(), dial: dial}
}

// Build folds every statement in order and returns the resulting Catalog
// plus its build diagnostics. It is a thin convenience wrapper around
// repeated calls to Statement for callers that already have every DDL
// statement in hand.
func Build(dial dialect.Dialect, stmts []sqlast.Stmt) (*catalog.Catalog, []diag.Diagnostic) {
	b := New(dial)
	for _, s := range stmts {
		b.Statement(s)
	}
	return b.cat, b.diags
}

// Catalog returns the catalog built so far.
func (b *Builder) Catalog() *catalog.Catalog { return b.cat }

// Diagnostics returns every build diagnostic accumulated so far.
func (b *Builder) Diagnostics() []diag.Diagnostic { return b.diags }

func (b *Builder) report(d diag.Diagnostic) {
	b.diags = append(b.diags, d)
}

// Statement folds one DDL statement. Statement kinds outside the supported
// set (functions, triggers, domains, rules, grants, sequences — anything
// the parser doesn't produce a dedicated node for) are silently skipped, as
// are DML statements that end up here through a mixed input batch.
func (b *Builder) Statement(stmt sqlast.Stmt) {
	switch v := stmt.(type) {
	case *sqlast.CreateTableStmt:
		b.createTable(v)
	case *sqlast.CreateViewStmt:
		b.createView(v)
	case *sqlast.CreateTypeEnumStmt:
		b.createEnum(v)
	case *sqlast.AlterTableStmt:
		b.alterTable(v)
	case *sqlast.DropStmt:
		b.drop(v)
	default:
		// Unsupported or non-DDL statement kind: silently skipped.
	}
}

func (b *Builder) createTable(stmt *sqlast.CreateTableStmt) {
	if stmt.IfNotExists {
		if _, exists := b.cat.Lookup(stmt.Name); exists {
			return
		}
	}

	cols := make([]catalog.Column, 0, len(stmt.Columns))
	seen := map[string]int{}
	isIdentityPK := false
	for _, cd := range stmt.Columns {
		col := catalog.Column{
			Name:              cd.Name,
			Type:              sqltype.FromTypeName(b.dial, cd.TypeName),
			Nullable:          cd.Nullable,
			HasDefault:        cd.HasDefault,
			GeneratedIdentity: cd.GeneratedIdentity,
		}
		if cd.GeneratedIdentity {
			isIdentityPK = true
		}
		folded := catalog.Fold(cd.Name)
		if idx, dup := seen[folded]; dup {
			b.report(diag.Diagnostic{
				Code:        diag.ParseError,
				Severity:    diag.SeverityWarning,
				PrimarySpan: cd.Span,
				Message:     fmt.Sprintf("duplicate column %q in table %q, keeping the later definition", cd.Name, stmt.Name),
			})
			cols[idx] = col
			continue
		}
		seen[folded] = len(cols)
		cols = append(cols, col)
	}

	constraints := make([]catalog.Constraint, len(stmt.Constraints))
	for i, c := range stmt.Constraints {
		constraints[i] = convertConstraint(c)
	}

	table := catalog.NewTable(stmt.Name, cols, constraints, isIdentityPK)
	if replaced := b.cat.Define(table); replaced {
		b.report(diag.Diagnostic{
			Code:        diag.ParseError,
			Severity:    diag.SeverityWarning,
			PrimarySpan: stmt.Span,
			Message:     fmt.Sprintf("object %q already defined, keeping the first definition", stmt.Name),
		})
	}
}

func convertConstraint(c sqlast.Constraint) catalog.Constraint {
	kindMap := map[sqlast.ConstraintKind]catalog.ConstraintKind{
		sqlast.ConstraintPrimaryKey: catalog.ConstraintPrimaryKey,
		sqlast.ConstraintUnique:     catalog.ConstraintUnique,
		sqlast.ConstraintForeignKey: catalog.ConstraintForeignKey,
		sqlast.ConstraintCheck:      catalog.ConstraintCheck,
		sqlast.ConstraintNotNull:    catalog.ConstraintNotNull,
	}
	return catalog.Constraint{
		Kind:       kindMap[c.Kind],
		Columns:    c.Columns,
		RefTable:   c.RefTable,
		RefColumns: c.RefColumns,
		OnDelete:   c.OnDelete,
		OnUpdate:   c.OnUpdate,
		CheckExpr:  c.CheckExpr,
	}
}

// createView performs a nested resolve pass against the in-progress
// catalog to infer the view's column list from its projection, per the
// forward-declaration story: a view may reference tables and
// already-defined views, but a forward reference to a later view degrades
// its columns to Unknown rather than fail the build.
func (b *Builder) createView(stmt *sqlast.CreateViewStmt) {
	r := resolve.New(b.cat, b.dial, "")
	cols := r.SelectColumns(stmt.Query)
	b.diags = append(b.diags, r.Diagnostics()...)

	viewCols := make([]catalog.Column, len(cols))
	for i, c := range cols {
		viewCols[i] = catalog.Column{Name: c.Name, Type: c.Type, Nullable: true}
	}

	view := catalog.NewView(stmt.Name, viewCols)
	if stmt.Replace {
		b.cat.Delete(stmt.Name)
	}
	if replaced := b.cat.Define(view); replaced {
		b.report(diag.Diagnostic{
			Code:        diag.ParseError,
			Severity:    diag.SeverityWarning,
			PrimarySpan: stmt.Span,
			Message:     fmt.Sprintf("object %q already defined, keeping the first definition", stmt.Name),
		})
	}
}

func (b *Builder) createEnum(stmt *sqlast.CreateTypeEnumStmt) {
	enum := &catalog.Enum{Name: stmt.Name, Labels: stmt.Labels}
	if replaced := b.cat.Define(enum); replaced {
		b.report(diag.Diagnostic{
			Code:        diag.ParseError,
			Severity:    diag.SeverityWarning,
			PrimarySpan: stmt.Span,
			Message:     fmt.Sprintf("object %q already defined, keeping the first definition", stmt.Name),
		})
	}
}

func (b *Builder) alterTable(stmt *sqlast.AlterTableStmt) {
	tbl, ok := b.cat.Table(stmt.Table)
	if !ok {
		b.report(diag.Diagnostic{
			Code:        diag.TableNotFound,
			Severity:    diag.SeverityError,
			PrimarySpan: stmt.Span,
			Message:     fmt.Sprintf("ALTER TABLE target %q not found", stmt.Table),
		})
		return
	}

	switch stmt.Action {
	case sqlast.AlterAddColumn:
		cols := append(append([]catalog.Column{}, tbl.Columns...), catalog.Column{
			Name:              stmt.Column.Name,
			Type:              sqltype.FromTypeName(b.dial, stmt.Column.TypeName),
			Nullable:          stmt.Column.Nullable,
			HasDefault:        stmt.Column.HasDefault,
			GeneratedIdentity: stmt.Column.GeneratedIdentity,
		})
		b.replaceTable(stmt.Table, cols, tbl.Constraints, tbl.IsIdentityPK)

	case sqlast.AlterDropColumn:
		var cols []catalog.Column
		for _, c := range tbl.Columns {
			if catalog.Fold(c.Name) != catalog.Fold(stmt.DropName) {
				cols = append(cols, c)
			}
		}
		b.replaceTable(stmt.Table, cols, tbl.Constraints, tbl.IsIdentityPK)

	case sqlast.AlterRenameColumn:
		if _, collision := tbl.Column(stmt.NewName); collision {
			b.report(diag.Diagnostic{
				Code:        diag.ParseError,
				Severity:    diag.SeverityWarning,
				PrimarySpan: stmt.Span,
				Message:     fmt.Sprintf("RENAME COLUMN target %q collides with an existing column, skipping", stmt.NewName),
			})
			return
		}
		cols := append([]catalog.Column{}, tbl.Columns...)
		for i, c := range cols {
			if catalog.Fold(c.Name) == catalog.Fold(stmt.OldName) {
				cols[i].Name = stmt.NewName
			}
		}
		b.replaceTable(stmt.Table, cols, tbl.Constraints, tbl.IsIdentityPK)

	case sqlast.AlterAddConstraint:
		constraints := append(append([]catalog.Constraint{}, tbl.Constraints...), convertConstraint(stmt.AddedConstraint))
		b.replaceTable(stmt.Table, tbl.Columns, constraints, tbl.IsIdentityPK)

	case sqlast.AlterRenameTo:
		b.cat.Delete(stmt.Table)
		b.cat.Define(catalog.NewTable(stmt.NewName, tbl.Columns, tbl.Constraints, tbl.IsIdentityPK))
	}
}

// replaceTable overwrites an existing table object in place, used by ALTER
// handling. Views defined against the old shape are not re-inferred, per
// the snapshot-at-definition-time decision for view column lists.
func (b *Builder) replaceTable(name string, cols []catalog.Column, constraints []catalog.Constraint, isIdentityPK bool) {
	b.cat.Delete(name)
	b.cat.Define(catalog.NewTable(name, cols, constraints, isIdentityPK))
}

func (b *Builder) drop(stmt *sqlast.DropStmt) {
	_, exists := b.cat.Lookup(stmt.Name)
	if !exists {
		if !stmt.IfExists {
			b.report(diag.Diagnostic{
				Code:        diag.TableNotFound,
				Severity:    diag.SeverityWarning,
				PrimarySpan: stmt.Span,
				Message:     fmt.Sprintf("DROP target %q not found", stmt.Name),
			})
		}
		return
	}
	b.cat.Delete(stmt.Name)
}
