// Package resolve walks a query AST against a Catalog and a scope.Stack,
// resolving every identifier and inferring expression types, emitting
// E0001/E0002/E0003/E0005/E0006/E0007 as it goes. It is the NameResolver
// and TypeResolver working in lockstep: every expression's type is needed
// to resolve the next, so one traversal does both rather than two passes
// over the same tree.
package resolve

import (
	"fmt"

	"github.com/sqlsift/sqlsift/internal/catalog"
	"github.com/sqlsift/sqlsift/internal/diag"
	"github.com/sqlsift/sqlsift/internal/dialect"
	"github.com/sqlsift/sqlsift/internal/scope"
	"github.com/sqlsift/sqlsift/internal/sqlast"
	"github.com/sqlsift/sqlsift/internal/sqltype"
	"github.com/sqlsift/sqlsift/internal/typecheck"
)

// Resolver accumulates diagnostics while walking one file's statements
// against a shared, read-only Catalog.
type Resolver struct {
	cat   *catalog.Catalog
	dial  dialect.Dialect
	diags []diag.Diagnostic
	path  string
}

// New returns a Resolver bound to cat and dial for the given file path
// (used only to decorate diagnostics that the parser itself never saw,
// none currently, but kept for symmetry with sqlparse.Parse).
func New(cat *catalog.Catalog, dial dialect.Dialect, path string) *Resolver {
	return &Resolver{cat: cat, dial: dial, path: path}
}

// Diagnostics returns every diagnostic accumulated so far.
func (r *Resolver) Diagnostics() []diag.Diagnostic {
	return r.diags
}

func (r *Resolver) report(d diag.Diagnostic) {
	r.diags = append(r.diags, d)
}

// SelectColumns resolves a standalone SELECT (e.g. a CREATE VIEW body) and
// returns its projected columns, for callers that need the shape of a
// query's result set without a full Statement dispatch — schemabuild's
// view column inference.
func (r *Resolver) SelectColumns(stmt *sqlast.SelectStmt) []scope.RelColumn {
	return r.selectStmt(stmt, scope.New())
}

// Statement dispatches on the concrete statement type and resolves it
// against a fresh scope stack.
func (r *Resolver) Statement(stmt sqlast.Stmt) {
	stack := scope.New()
	switch s := stmt.(type) {
	case *sqlast.SelectStmt:
		r.selectStmt(s, stack)
	case *sqlast.InsertStmt:
		r.insertStmt(s, stack)
	case *sqlast.UpdateStmt:
		r.updateStmt(s, stack)
	case *sqlast.DeleteStmt:
		r.deleteStmt(s, stack)
	case *sqlast.ValuesStmt:
		r.valuesRows(s.Rows, stack)
	}
}

// ---- SELECT ----

func (r *Resolver) selectStmt(stmt *sqlast.SelectStmt, stack *scope.Stack) []scope.RelColumn {
	frame := stack.Push(false)
	for i := range stmt.CTEs {
		r.cte(&stmt.CTEs[i], stack)
	}

	firstCols := r.selectArm(stmt, stack, frame, stmt.SetOpRight == nil)
	finalCols := firstCols
	cur := stmt
	for cur.SetOpRight != nil {
		right := cur.SetOpRight
		rightFrame := stack.Push(false)
		rightCols := r.selectArm(right, stack, rightFrame, right.SetOpRight == nil)
		stack.Pop()
		finalCols = r.unifyColumns(stmt, finalCols, rightCols)
		cur = right
	}

	for _, c := range finalCols {
		stack.DefineAlias(c.Name, c.Type)
	}
	if stmt.SetOpRight == nil {
		r.orderByLimitOffset(stmt, stack)
	} else {
		// Output frame for a set-op chain's trailing ORDER BY: the unified
		// result columns sit above the left arm's frame and win on a bare
		// lookup; any other name still resolves outward into the left
		// arm's relations, which stay on the stack.
		outFrame := stack.Push(false)
		outFrame.Relations = []scope.Relation{{BindingName: "", Columns: finalCols}}
		for _, c := range finalCols {
			stack.DefineAlias(c.Name, c.Type)
		}
		r.orderByLimitOffset(stmt, stack)
		stack.Pop()
	}

	stack.Pop()
	return finalCols
}

// selectArm resolves one arm's FROM/WHERE/GROUP BY/HAVING/WINDOW/projection
// into frame, returning its projected columns. ownFrame is true when this
// arm owns the frame used for a trailing ORDER BY (i.e. it's the only arm).
func (r *Resolver) selectArm(stmt *sqlast.SelectStmt, stack *scope.Stack, frame *scope.Frame, ownFrame bool) []scope.RelColumn {
	r.fromList(stmt.From, stack, frame)
	if stmt.Where != nil {
		r.expr(stmt.Where, stack)
	}
	for _, g := range stmt.GroupBy {
		r.expr(g, stack)
	}
	if stmt.Having != nil {
		r.expr(stmt.Having, stack)
	}
	for i := range stmt.Window {
		for _, p := range stmt.Window[i].PartitionBy {
			r.expr(p, stack)
		}
		for _, o := range stmt.Window[i].OrderBy {
			r.expr(o.Expr, stack)
		}
	}
	return r.projection(stmt.Projection, stack, frame)
}

func (r *Resolver) orderByLimitOffset(stmt *sqlast.SelectStmt, stack *scope.Stack) {
	for _, o := range stmt.OrderBy {
		r.expr(o.Expr, stack)
	}
	if stmt.Limit != nil {
		r.expr(stmt.Limit, stack)
	}
	if stmt.Offset != nil {
		r.expr(stmt.Offset, stack)
	}
}

func (r *Resolver) unifyColumns(stmt *sqlast.SelectStmt, left, right []scope.RelColumn) []scope.RelColumn {
	if len(left) != len(right) {
		r.report(diag.Diagnostic{
			Code:        diag.ParseError,
			Severity:    diag.SeverityError,
			PrimarySpan: stmt.Span,
			Message:     fmt.Sprintf("set operation column count mismatch: %d vs %d", len(left), len(right)),
		})
		if len(left) >= len(right) {
			return left
		}
		return right
	}
	out := make([]scope.RelColumn, len(left))
	for i := range left {
		out[i] = scope.RelColumn{Name: left[i].Name, Type: sqltype.Meet(left[i].Type, right[i].Type)}
	}
	return out
}

// cte resolves one WITH-list entry and registers it in the current top
// frame so later items (and, for a RECURSIVE list, the entry itself) can
// reference it.
func (r *Resolver) cte(c *sqlast.CTE, stack *scope.Stack) {
	rel := &scope.Relation{BindingName: c.Name, Origin: scope.OriginCTE}
	if c.Recursive {
		placeholder := make([]scope.RelColumn, len(c.ColumnList))
		for i, n := range c.ColumnList {
			placeholder[i] = scope.RelColumn{Name: n, Type: sqltype.NewUnknown()}
		}
		rel.Columns = placeholder
		stack.DefineCTE(c.Name, rel)
	}
	cols := r.selectStmt(c.Query, stack)
	if c.Recursive && c.Query.SetOpRight != nil {
		// A recursive CTE's visible column types come from its first
		// (non-recursive) set-op branch only. That branch is resolved again
		// on its own by a scratch resolver, so the diagnostics the full
		// pass above already reported are not repeated.
		first := *c.Query
		first.SetOpRight = nil
		scratch := &Resolver{cat: r.cat, dial: r.dial, path: r.path}
		cols = scratch.selectStmt(&first, stack)
	}
	if len(c.ColumnList) > 0 {
		named := make([]scope.RelColumn, len(c.ColumnList))
		for i, n := range c.ColumnList {
			t := sqltype.NewUnknown()
			if i < len(cols) {
				t = cols[i].Type
			}
			named[i] = scope.RelColumn{Name: n, Type: t}
		}
		cols = named
	}
	rel.Columns = cols
	stack.DefineCTE(c.Name, rel)
}

// ---- FROM ----

func (r *Resolver) fromList(items []sqlast.FromItem, stack *scope.Stack, frame *scope.Frame) {
	for i := range items {
		item := &items[i]
		rel := r.fromItem(item, stack, frame)

		if item.Join != nil && item.Join.Using != nil {
			r.checkUsing(item.Join, frame, rel)
		}

		frame.Relations = append(frame.Relations, rel)

		if item.Join != nil && item.Join.On != nil {
			r.expr(item.Join.On, stack)
		}
	}
}

func (r *Resolver) checkUsing(jc *sqlast.JoinClause, frame *scope.Frame, newRel scope.Relation) {
	for _, col := range jc.Using {
		foundLeft := false
		for _, prior := range frame.Relations {
			if _, ok := prior.Column(col); ok {
				foundLeft = true
				break
			}
		}
		if !foundLeft {
			r.report(diag.Diagnostic{
				Code:        diag.ColumnNotFound,
				Severity:    diag.SeverityError,
				PrimarySpan: jc.Span,
				Message:     fmt.Sprintf("USING column %q not found on left side of join", col),
			})
		}
		if _, ok := newRel.Column(col); !ok {
			r.report(diag.Diagnostic{
				Code:        diag.ColumnNotFound,
				Severity:    diag.SeverityError,
				PrimarySpan: jc.Span,
				Message:     fmt.Sprintf("USING column %q not found on right side of join", col),
			})
		}
	}
}

func (r *Resolver) fromItem(item *sqlast.FromItem, stack *scope.Stack, frame *scope.Frame) scope.Relation {
	switch item.Origin {
	case sqlast.OriginTable:
		return r.fromTableOrView(item, stack)
	case sqlast.OriginTableFn:
		return r.fromTableFn(item, stack)
	case sqlast.OriginValuesList:
		return r.fromValuesList(item, stack)
	case sqlast.OriginDerived:
		return r.fromDerived(item, stack, frame)
	default:
		return scope.Relation{BindingName: item.Alias, Origin: scope.OriginDerived}
	}
}

func (r *Resolver) bindingName(item *sqlast.FromItem) string {
	if item.Alias != "" {
		return item.Alias
	}
	return item.Name
}

func (r *Resolver) fromTableOrView(item *sqlast.FromItem, stack *scope.Stack) scope.Relation {
	rel := scope.Relation{BindingName: r.bindingName(item)}
	if cteRel, ok := stack.LookupCTE(item.Name); ok {
		rel.Origin = scope.OriginCTE
		rel.Columns = applyColumnAliases(cteRel.Columns, item.ColumnAliases)
		return rel
	}
	entry, ok := r.cat.Lookup(item.Name)
	if !ok {
		r.report(diag.Diagnostic{
			Code:        diag.TableNotFound,
			Severity:    diag.SeverityError,
			PrimarySpan: item.Span,
			Message:     fmt.Sprintf("table %q not found", item.Name),
			Suggestions: suggest(item.Name, r.cat.TableNames()),
		})
		rel.Origin = scope.OriginTable
		return rel
	}
	switch obj := entry.(type) {
	case *catalog.Table:
		rel.Origin = scope.OriginTable
		rel.Columns = relColumnsFromCatalog(obj.Columns)
	case *catalog.View:
		rel.Origin = scope.OriginView
		rel.Columns = relColumnsFromCatalog(obj.Columns)
	default:
		rel.Origin = scope.OriginTable
	}
	rel.Columns = applyColumnAliases(rel.Columns, item.ColumnAliases)
	return rel
}

func relColumnsFromCatalog(cols []catalog.Column) []scope.RelColumn {
	out := make([]scope.RelColumn, len(cols))
	for i, c := range cols {
		out[i] = scope.RelColumn{Name: c.Name, Type: c.Type}
	}
	return out
}

func applyColumnAliases(cols []scope.RelColumn, aliases []string) []scope.RelColumn {
	if len(aliases) == 0 {
		return cols
	}
	out := make([]scope.RelColumn, len(cols))
	copy(out, cols)
	for i, a := range aliases {
		if i < len(out) {
			out[i].Name = a
		}
	}
	return out
}

func (r *Resolver) fromTableFn(item *sqlast.FromItem, stack *scope.Stack) scope.Relation {
	for _, a := range item.Args {
		r.expr(a, stack)
	}
	rel := scope.Relation{BindingName: r.bindingName(item), Origin: scope.OriginTableFn}
	if names, ok := r.dial.TableValuedFunction(item.Name); ok {
		t := sqltype.NewUnknown()
		if catalog.Fold(item.Name) == "generate_series" {
			t = sqltype.NewInteger(sqltype.Width32)
		}
		cols := make([]scope.RelColumn, len(names))
		for i, n := range names {
			cols[i] = scope.RelColumn{Name: n, Type: t}
		}
		rel.Columns = applyColumnAliases(cols, item.ColumnAliases)
		return rel
	}
	rel.Columns = []scope.RelColumn{{Name: r.bindingName(item), Type: sqltype.NewUnknown()}}
	rel.Columns = applyColumnAliases(rel.Columns, item.ColumnAliases)
	return rel
}

func (r *Resolver) fromValuesList(item *sqlast.FromItem, stack *scope.Stack) scope.Relation {
	rowTypes := r.valuesRows(item.Values.Rows, stack)
	rel := scope.Relation{BindingName: r.bindingName(item), Origin: scope.OriginValuesList}
	width := 0
	for _, row := range rowTypes {
		if len(row) > width {
			width = len(row)
		}
	}
	cols := make([]scope.RelColumn, width)
	for i := 0; i < width; i++ {
		t := sqltype.NewUnknown()
		for _, row := range rowTypes {
			if i < len(row) {
				t = sqltype.Meet(t, row[i])
			}
		}
		cols[i] = scope.RelColumn{Name: fmt.Sprintf("column%d", i+1), Type: t}
	}
	rel.Columns = applyColumnAliases(cols, item.ColumnAliases)
	return rel
}

func (r *Resolver) valuesRows(rows [][]sqlast.Expr, stack *scope.Stack) [][]sqltype.Type {
	out := make([][]sqltype.Type, len(rows))
	for i, row := range rows {
		types := make([]sqltype.Type, len(row))
		for j, e := range row {
			types[j] = r.expr(e, stack)
		}
		out[i] = types
	}
	return out
}

// fromDerived resolves a subquery FROM item, hiding the current frame's
// sibling relations unless the item is LATERAL.
func (r *Resolver) fromDerived(item *sqlast.FromItem, stack *scope.Stack, frame *scope.Frame) scope.Relation {
	var hidden []scope.Relation
	if !item.IsLateral {
		hidden = frame.Relations
		frame.Relations = nil
		frame.HiddenRelations = hidden
	}
	cols := r.selectStmt(item.Subquery, stack)
	if !item.IsLateral {
		frame.Relations = hidden
		frame.HiddenRelations = nil
	}
	rel := scope.Relation{BindingName: r.bindingName(item), Origin: scope.OriginDerived, Columns: cols}
	rel.Columns = applyColumnAliases(rel.Columns, item.ColumnAliases)
	return rel
}

// ---- SELECT projection ----

func (r *Resolver) projection(items []sqlast.SelectItem, stack *scope.Stack, frame *scope.Frame) []scope.RelColumn {
	var out []scope.RelColumn
	for _, item := range items {
		switch {
		case item.Star && item.StarQualifier != "":
			rel, ok := stack.LookupRelation(item.StarQualifier)
			if !ok {
				r.report(diag.Diagnostic{
					Code:        diag.TableNotFound,
					Severity:    diag.SeverityError,
					PrimarySpan: item.Span,
					Message:     fmt.Sprintf("relation %q not found", item.StarQualifier),
				})
				continue
			}
			out = append(out, rel.Columns...)
		case item.Star:
			out = append(out, starColumns(frame)...)
		default:
			t := r.expr(item.Expr, stack)
			name := item.Alias
			if name == "" {
				if id, ok := item.Expr.(*sqlast.Ident); ok {
					name = id.Name
				}
			}
			out = append(out, scope.RelColumn{Name: name, Type: t})
			if item.Alias != "" {
				stack.DefineAlias(item.Alias, t)
			}
		}
	}
	return out
}

// starColumns expands a bare `*` to the union of visible relations' columns
// in declared order, dropping duplicate names (first wins).
func starColumns(frame *scope.Frame) []scope.RelColumn {
	var out []scope.RelColumn
	seen := map[string]struct{}{}
	for _, rel := range frame.Relations {
		for _, c := range rel.Columns {
			folded := catalog.Fold(c.Name)
			if _, ok := seen[folded]; ok {
				continue
			}
			seen[folded] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// ---- INSERT / UPDATE / DELETE ----

func (r *Resolver) insertStmt(stmt *sqlast.InsertStmt, stack *scope.Stack) {
	tbl, ok := r.cat.Table(stmt.Table)
	if !ok {
		r.report(diag.Diagnostic{
			Code:        diag.TableNotFound,
			Severity:    diag.SeverityError,
			PrimarySpan: stmt.Span,
			Message:     fmt.Sprintf("table %q not found", stmt.Table),
			Suggestions: suggest(stmt.Table, r.cat.TableNames()),
		})
		if stmt.Query != nil {
			r.selectStmt(stmt.Query, stack)
		}
		return
	}

	targetCols := stmt.Columns
	if len(targetCols) == 0 {
		targetCols = tbl.ColumnNames()
	} else {
		for _, name := range stmt.Columns {
			if _, ok := tbl.Column(name); !ok {
				r.report(diag.Diagnostic{
					Code:        diag.ColumnNotFound,
					Severity:    diag.SeverityError,
					PrimarySpan: stmt.Span,
					Message:     fmt.Sprintf("column %q not found on table %q", name, stmt.Table),
					Suggestions: suggest(name, tbl.ColumnNames()),
				})
			}
		}
	}

	if stmt.Values != nil {
		const maxArityDiags = 20
		reported := 0
		for _, row := range stmt.Values.Rows {
			if len(row) != len(targetCols) {
				if reported < maxArityDiags {
					r.report(diag.Diagnostic{
						Code:        diag.InsertArityMismatch,
						Severity:    diag.SeverityError,
						PrimarySpan: stmt.Span,
						Message:     fmt.Sprintf("expected %d values, got %d", len(targetCols), len(row)),
					})
					reported++
				}
			}
			for i, valExpr := range row {
				valType := r.expr(valExpr, stack)
				if i >= len(targetCols) {
					continue
				}
				col, ok := tbl.Column(targetCols[i])
				if !ok {
					continue
				}
				if !valType.IsUnknown() && !col.Type.IsUnknown() && !sqltype.Compatible(valType, col.Type) {
					r.report(diag.Diagnostic{
						Code:        diag.TypeMismatch,
						Severity:    diag.SeverityError,
						PrimarySpan: valExpr.ExprSpan(),
						Message:     fmt.Sprintf("cannot assign %s to column %q of type %s", valType, targetCols[i], col.Type),
					})
				}
			}
		}
	}

	if stmt.Query != nil {
		r.selectStmt(stmt.Query, stack)
	}

	if len(stmt.Returning) > 0 {
		frame := stack.Push(false)
		frame.Relations = []scope.Relation{{BindingName: stmt.Table, Columns: relColumnsFromCatalog(tbl.Columns)}}
		r.projection(stmt.Returning, stack, frame)
		stack.Pop()
	}
}

func (r *Resolver) updateStmt(stmt *sqlast.UpdateStmt, stack *scope.Stack) {
	frame := stack.Push(false)
	defer stack.Pop()

	tbl, ok := r.cat.Table(stmt.Table)
	if !ok {
		r.report(diag.Diagnostic{
			Code:        diag.TableNotFound,
			Severity:    diag.SeverityError,
			PrimarySpan: stmt.Span,
			Message:     fmt.Sprintf("table %q not found", stmt.Table),
			Suggestions: suggest(stmt.Table, r.cat.TableNames()),
		})
		return
	}
	binding := stmt.Table
	if stmt.Alias != "" {
		binding = stmt.Alias
	}
	frame.Relations = append(frame.Relations, scope.Relation{
		BindingName: binding, Origin: scope.OriginTable, Columns: relColumnsFromCatalog(tbl.Columns),
	})
	r.fromList(stmt.From, stack, frame)

	for _, a := range stmt.Assignments {
		col, ok := tbl.Column(a.Column)
		if !ok {
			r.report(diag.Diagnostic{
				Code:        diag.ColumnNotFound,
				Severity:    diag.SeverityError,
				PrimarySpan: a.Span,
				Message:     fmt.Sprintf("column %q not found on table %q", a.Column, stmt.Table),
				Suggestions: suggest(a.Column, tbl.ColumnNames()),
			})
		}
		valType := r.expr(a.Value, stack)
		if ok && !valType.IsUnknown() && !col.Type.IsUnknown() && !sqltype.Compatible(valType, col.Type) {
			r.report(diag.Diagnostic{
				Code:        diag.TypeMismatch,
				Severity:    diag.SeverityError,
				PrimarySpan: a.Span,
				Message:     fmt.Sprintf("cannot assign %s to column %q of type %s", valType, a.Column, col.Type),
			})
		}
	}

	if stmt.Where != nil {
		r.expr(stmt.Where, stack)
	}
	if len(stmt.Returning) > 0 {
		r.projection(stmt.Returning, stack, frame)
	}
}

func (r *Resolver) deleteStmt(stmt *sqlast.DeleteStmt, stack *scope.Stack) {
	frame := stack.Push(false)
	defer stack.Pop()

	tbl, ok := r.cat.Table(stmt.Table)
	if !ok {
		r.report(diag.Diagnostic{
			Code:        diag.TableNotFound,
			Severity:    diag.SeverityError,
			PrimarySpan: stmt.Span,
			Message:     fmt.Sprintf("table %q not found", stmt.Table),
			Suggestions: suggest(stmt.Table, r.cat.TableNames()),
		})
		return
	}
	binding := stmt.Table
	if stmt.Alias != "" {
		binding = stmt.Alias
	}
	frame.Relations = append(frame.Relations, scope.Relation{
		BindingName: binding, Origin: scope.OriginTable, Columns: relColumnsFromCatalog(tbl.Columns),
	})
	r.fromList(stmt.Using, stack, frame)

	if stmt.Where != nil {
		r.expr(stmt.Where, stack)
	}
	if len(stmt.Returning) > 0 {
		r.projection(stmt.Returning, stack, frame)
	}
}

// ---- expressions (NameResolver + TypeResolver combined) ----

func (r *Resolver) expr(e sqlast.Expr, stack *scope.Stack) sqltype.Type {
	switch v := e.(type) {
	case *sqlast.Literal:
		return typecheck.InferLiteral(v)

	case *sqlast.Param:
		return sqltype.NewUnknown()

	case *sqlast.Ident:
		return r.ident(v, stack)

	case *sqlast.BinaryExpr:
		return r.binaryExpr(v, stack)

	case *sqlast.UnaryExpr:
		t := r.expr(v.Operand, stack)
		switch v.Op {
		case sqlast.OpNot:
			res := typecheck.CheckLogical(t)
			if !res.Compatible {
				r.report(diag.Diagnostic{Code: diag.TypeMismatch, Severity: diag.SeverityError, PrimarySpan: v.Span,
					Message: fmt.Sprintf("NOT operand has non-boolean type %s", t)})
			}
			return sqltype.NewBoolean()
		case sqlast.OpNeg:
			return t
		case sqlast.OpIsNull, sqlast.OpIsNotNull:
			return sqltype.NewBoolean()
		}
		return sqltype.NewUnknown()

	case *sqlast.InExpr:
		target := r.expr(v.Target, stack)
		var elemTypes []sqltype.Type
		for _, el := range v.List {
			elemTypes = append(elemTypes, r.expr(el, stack))
		}
		if v.Subquery != nil {
			cols := r.selectStmt(v.Subquery, stack)
			if len(cols) > 0 {
				elemTypes = append(elemTypes, cols[0].Type)
			}
		}
		if idx := typecheck.CheckInList(target, elemTypes); idx >= 0 && !target.IsUnknown() {
			r.report(diag.Diagnostic{Code: diag.TypeMismatch, Severity: diag.SeverityError, PrimarySpan: v.Span,
				Message: fmt.Sprintf("IN list element has type incompatible with %s", target)})
		}
		return sqltype.NewBoolean()

	case *sqlast.BetweenExpr:
		t := r.expr(v.Target, stack)
		lo := r.expr(v.Low, stack)
		hi := r.expr(v.High, stack)
		if !t.IsUnknown() && !lo.IsUnknown() && !sqltype.Compatible(t, lo) {
			r.report(diag.Diagnostic{Code: diag.TypeMismatch, Severity: diag.SeverityError, PrimarySpan: v.Span,
				Message: fmt.Sprintf("BETWEEN lower bound has type incompatible with %s", t)})
		}
		if !t.IsUnknown() && !hi.IsUnknown() && !sqltype.Compatible(t, hi) {
			r.report(diag.Diagnostic{Code: diag.TypeMismatch, Severity: diag.SeverityError, PrimarySpan: v.Span,
				Message: fmt.Sprintf("BETWEEN upper bound has type incompatible with %s", t)})
		}
		return sqltype.NewBoolean()

	case *sqlast.CastExpr:
		r.expr(v.Target, stack)
		return sqltype.FromTypeName(r.dial, v.TypeName)

	case *sqlast.CaseExpr:
		var branches []sqltype.Type
		if v.Operand != nil {
			r.expr(v.Operand, stack)
		}
		for _, w := range v.Whens {
			if v.Operand == nil {
				r.expr(w.When, stack)
			} else {
				r.expr(w.When, stack)
			}
			branches = append(branches, r.expr(w.Then, stack))
		}
		if v.Else != nil {
			branches = append(branches, r.expr(v.Else, stack))
		}
		return typecheck.InferCase(branches)

	case *sqlast.FuncCall:
		return r.funcCall(v, stack)

	case *sqlast.SubqueryExpr:
		cols := r.selectStmt(v.Query, stack)
		if len(cols) == 0 {
			return sqltype.NewUnknown()
		}
		return cols[0].Type

	case *sqlast.ExistsExpr:
		r.selectStmt(v.Query, stack)
		return sqltype.NewBoolean()

	default:
		return sqltype.NewUnknown()
	}
}

func (r *Resolver) ident(id *sqlast.Ident, stack *scope.Stack) sqltype.Type {
	if id.Qualifier != "" {
		rel, col, ok := stack.ResolveQualifiedColumn(id.Qualifier, id.Name)
		if !ok {
			if _, relOK := stack.LookupRelation(id.Qualifier); !relOK {
				if hiddenRel, hiddenOK := stack.LookupHiddenRelation(id.Qualifier); hiddenOK {
					r.report(diag.Diagnostic{Code: diag.ColumnNotFound, Severity: diag.SeverityError, PrimarySpan: id.Span,
						Message:     fmt.Sprintf("column %q not found: %q is not visible to a non-LATERAL sibling", id.Name, id.Qualifier),
						Suggestions: suggest(id.Name, columnNamesOf(hiddenRel))})
					return sqltype.NewUnknown()
				}
				r.report(diag.Diagnostic{Code: diag.TableNotFound, Severity: diag.SeverityError, PrimarySpan: id.Span,
					Message: fmt.Sprintf("relation %q not found", id.Qualifier)})
				return sqltype.NewUnknown()
			}
			r.report(diag.Diagnostic{Code: diag.ColumnNotFound, Severity: diag.SeverityError, PrimarySpan: id.Span,
				Message:     fmt.Sprintf("column %q not found on %q", id.Name, id.Qualifier),
				Suggestions: suggest(id.Name, columnNamesOf(rel))})
			return sqltype.NewUnknown()
		}
		return col.Type
	}

	matches, ok := stack.ResolveBareColumn(id.Name)
	if !ok {
		r.report(diag.Diagnostic{Code: diag.ColumnNotFound, Severity: diag.SeverityError, PrimarySpan: id.Span,
			Message:     fmt.Sprintf("column %q not found", id.Name),
			Suggestions: suggest(id.Name, stack.AllVisibleColumnNames())})
		return sqltype.NewUnknown()
	}
	if len(matches) > 1 {
		var related []diag.Related
		for _, m := range matches[1:] {
			related = append(related, diag.Related{Span: id.Span, Message: fmt.Sprintf("also visible via %q", m.Relation.BindingName)})
		}
		r.report(diag.Diagnostic{Code: diag.AmbiguousColumn, Severity: diag.SeverityError, PrimarySpan: id.Span,
			Message: fmt.Sprintf("column %q is ambiguous", id.Name), Related: related})
		return sqltype.NewUnknown()
	}
	return matches[0].Column.Type
}

func columnNamesOf(rel scope.Relation) []string {
	names := make([]string, len(rel.Columns))
	for i, c := range rel.Columns {
		names[i] = c.Name
	}
	return names
}

func (r *Resolver) binaryExpr(be *sqlast.BinaryExpr, stack *scope.Stack) sqltype.Type {
	left := r.expr(be.Left, stack)
	right := r.expr(be.Right, stack)

	switch be.Op {
	case sqlast.OpEq, sqlast.OpNotEq, sqlast.OpLess, sqlast.OpLessEq, sqlast.OpGreater, sqlast.OpGreaterEq, sqlast.OpIsDistinctFrom:
		res := typecheck.CheckComparison(left, right)
		if !res.Compatible {
			code := diag.TypeMismatch
			if be.InJoinOn {
				code = diag.JoinTypeMismatch
			}
			r.report(diag.Diagnostic{Code: code, Severity: diag.SeverityError, PrimarySpan: be.Span,
				Message: fmt.Sprintf("incompatible types in comparison: %s vs %s", left, right)})
		}
		return res.ResultType

	case sqlast.OpAdd, sqlast.OpSub, sqlast.OpMul, sqlast.OpDiv, sqlast.OpMod:
		res := typecheck.CheckArithmetic(left, right)
		if !res.Compatible {
			r.report(diag.Diagnostic{Code: diag.TypeMismatch, Severity: diag.SeverityError, PrimarySpan: be.Span,
				Message: fmt.Sprintf("non-numeric operand in arithmetic: %s, %s", left, right)})
		}
		return res.ResultType

	case sqlast.OpConcat:
		res := typecheck.CheckConcat(left, right)
		if !res.Compatible {
			r.report(diag.Diagnostic{Code: diag.TypeMismatch, Severity: diag.SeverityError, PrimarySpan: be.Span,
				Message: fmt.Sprintf("non-text operand in concatenation: %s, %s", left, right)})
		}
		return res.ResultType

	case sqlast.OpAnd, sqlast.OpOr:
		res := typecheck.CheckLogical(left, right)
		if !res.Compatible {
			r.report(diag.Diagnostic{Code: diag.TypeMismatch, Severity: diag.SeverityError, PrimarySpan: be.Span,
				Message: fmt.Sprintf("non-boolean operand in logical expression: %s, %s", left, right)})
		}
		return res.ResultType

	case sqlast.OpLike, sqlast.OpILike:
		if !left.IsUnknown() && !right.IsUnknown() && !sqltype.Compatible(left, right) {
			r.report(diag.Diagnostic{Code: diag.TypeMismatch, Severity: diag.SeverityError, PrimarySpan: be.Span,
				Message: fmt.Sprintf("non-text operand in LIKE: %s, %s", left, right)})
		}
		return sqltype.NewBoolean()

	default:
		return sqltype.NewUnknown()
	}
}

func (r *Resolver) funcCall(fc *sqlast.FuncCall, stack *scope.Stack) sqltype.Type {
	var argType sqltype.Type = sqltype.NewUnknown()
	for i, a := range fc.Args {
		t := r.expr(a, stack)
		if i == 0 {
			argType = t
		}
	}
	if fc.Over != nil {
		for _, p := range fc.Over.PartitionBy {
			r.expr(p, stack)
		}
		for _, o := range fc.Over.OrderBy {
			r.expr(o.Expr, stack)
		}
	}
	if fc.Star {
		argType = sqltype.NewInteger(sqltype.Width64)
	}
	if !typecheck.IsAggregateOrWindowFunc(fc.Name) {
		return sqltype.NewUnknown()
	}
	return typecheck.InferAggregate(fc.Name, argType)
}
