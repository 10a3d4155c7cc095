// Package catalog holds the immutable-after-build relational model that
// SchemaBuilder produces from DDL and that resolve/typecheck consult during
// query analysis.
package catalog

import (
	"golang.org/x/text/cases"

	"github.com/sqlsift/sqlsift/internal/sqlast"
	"github.com/sqlsift/sqlsift/internal/sqltype"
)

// foldCaser implements Unicode caseless matching rather than a plain
// strings.ToLower, so identifiers using non-ASCII letters still fold
// correctly for comparison.
var foldCaser = cases.Fold()

// Fold normalizes an identifier for case-insensitive lookup. Quoted
// identifiers retain their original casing for display but are folded the
// same way for comparison, matching the builder's identifier-folding rule.
func Fold(name string) string {
	return foldCaser.String(name)
}

// ObjectKind identifies which catalog object variant an entry is.
type ObjectKind int

const (
	KindTable ObjectKind = iota
	KindView
	KindEnum
)

// ObjectEntry is implemented by Table, View, and Enum.
type ObjectEntry interface {
	ObjectName() string
	ObjectKind() ObjectKind
}

// Column is one table or view column.
type Column struct {
	Name              string
	Type              sqltype.Type
	Nullable          bool
	HasDefault        bool
	GeneratedIdentity bool
}

// ConstraintKind mirrors sqlast.ConstraintKind but at the catalog layer,
// after names have been resolved against Fold.
type ConstraintKind int

const (
	ConstraintPrimaryKey ConstraintKind = iota
	ConstraintUnique
	ConstraintForeignKey
	ConstraintCheck
	ConstraintNotNull
)

// Constraint is one table-level constraint, recorded but not verified:
// the catalog never checks that a foreign key's target exists.
type Constraint struct {
	Kind ConstraintKind

	Columns []string

	RefTable   string
	RefColumns []string
	OnDelete   string
	OnUpdate   string

	CheckExpr sqlast.Expr
}

// Table is a CREATE TABLE object.
type Table struct {
	Name         string
	Columns      []Column
	Constraints  []Constraint
	IsIdentityPK bool

	columnIndex map[string]int
}

// NewTable builds a Table with its column index populated; duplicate
// column names keep the last definition, matching SchemaBuilder's
// resilient-parsing posture.
func NewTable(name string, columns []Column, constraints []Constraint, isIdentityPK bool) *Table {
	t := &Table{
		Name:         name,
		Columns:      columns,
		Constraints:  constraints,
		IsIdentityPK: isIdentityPK,
		columnIndex:  make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		t.columnIndex[Fold(col.Name)] = i
	}
	return t
}

func (t *Table) ObjectName() string      { return t.Name }
func (t *Table) ObjectKind() ObjectKind  { return KindTable }

// Column looks up a column by name, case-insensitively.
func (t *Table) Column(name string) (Column, bool) {
	idx, ok := t.columnIndex[Fold(name)]
	if !ok {
		return Column{}, false
	}
	return t.Columns[idx], true
}

// ColumnNames returns the table's columns in declared order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// View is a CREATE VIEW object; its columns were inferred from the view's
// projection at definition time and are not re-derived on later ALTERs.
type View struct {
	Name    string
	Columns []Column

	columnIndex map[string]int
}

// NewView builds a View with its column index populated.
func NewView(name string, columns []Column) *View {
	v := &View{
		Name:        name,
		Columns:     columns,
		columnIndex: make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		v.columnIndex[Fold(col.Name)] = i
	}
	return v
}

func (v *View) ObjectName() string     { return v.Name }
func (v *View) ObjectKind() ObjectKind { return KindView }

// Column looks up a view column by name, case-insensitively.
func (v *View) Column(name string) (Column, bool) {
	idx, ok := v.columnIndex[Fold(name)]
	if !ok {
		return Column{}, false
	}
	return v.Columns[idx], true
}

// ColumnNames returns the view's columns in declared order.
func (v *View) ColumnNames() []string {
	names := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		names[i] = c.Name
	}
	return names
}

// Enum is a CREATE TYPE ... AS ENUM object.
type Enum struct {
	Name   string
	Labels []string
}

func (e *Enum) ObjectName() string     { return e.Name }
func (e *Enum) ObjectKind() ObjectKind { return KindEnum }

// Catalog is the case-folded, insertion-ordered store of tables, views, and
// enums built by SchemaBuilder. It is read-only once construction
// completes.
type Catalog struct {
	order   []string
	objects map[string]ObjectEntry
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{objects: make(map[string]ObjectEntry)}
}

// Define registers an object under its case-folded name. If an object with
// that name already exists, Define reports the collision and leaves the
// existing object in place (first definition kept, per the catalog's
// no-duplicate-names invariant).
func (c *Catalog) Define(entry ObjectEntry) (replaced bool) {
	folded := Fold(entry.ObjectName())
	if _, exists := c.objects[folded]; exists {
		return true
	}
	c.objects[folded] = entry
	c.order = append(c.order, folded)
	return false
}

// Lookup resolves an object by name, case-insensitively.
func (c *Catalog) Lookup(name string) (ObjectEntry, bool) {
	entry, ok := c.objects[Fold(name)]
	return entry, ok
}

// Table resolves a table by name, returning false if the object is absent
// or is not a table.
func (c *Catalog) Table(name string) (*Table, bool) {
	entry, ok := c.Lookup(name)
	if !ok {
		return nil, false
	}
	t, ok := entry.(*Table)
	return t, ok
}

// View resolves a view by name, returning false if the object is absent or
// is not a view.
func (c *Catalog) View(name string) (*View, bool) {
	entry, ok := c.Lookup(name)
	if !ok {
		return nil, false
	}
	v, ok := entry.(*View)
	return v, ok
}

// Enum resolves an enum by name, returning false if the object is absent or
// is not an enum.
func (c *Catalog) Enum(name string) (*Enum, bool) {
	entry, ok := c.Lookup(name)
	if !ok {
		return nil, false
	}
	e, ok := entry.(*Enum)
	return e, ok
}

// Delete removes an object, used by DROP handling. It is a no-op if the
// object does not exist.
func (c *Catalog) Delete(name string) {
	folded := Fold(name)
	if _, ok := c.objects[folded]; !ok {
		return
	}
	delete(c.objects, folded)
	for i, n := range c.order {
		if n == folded {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Objects returns every object in insertion order.
func (c *Catalog) Objects() []ObjectEntry {
	out := make([]ObjectEntry, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.objects[name])
	}
	return out
}

// TableNames returns the names of every table and view as declared (not
// case-folded), in insertion order, used by the resolver's "did you mean"
// suggestion search.
func (c *Catalog) TableNames() []string {
	names := make([]string, 0, len(c.order))
	for _, name := range c.order {
		if entry := c.objects[name]; entry.ObjectKind() == KindTable || entry.ObjectKind() == KindView {
			names = append(names, entry.ObjectName())
		}
	}
	return names
}
