package scope

import (
	"testing"

	"github.com/sqlsift/sqlsift/internal/sqltype"
)

func relation(binding string, cols ...string) Relation {
	rel := Relation{BindingName: binding, Origin: OriginTable}
	for _, c := range cols {
		rel.Columns = append(rel.Columns, RelColumn{Name: c, Type: sqltype.NewText(false)})
	}
	return rel
}

func TestLookupRelationInnermostFirst(t *testing.T) {
	s := New()
	outer := s.Push(false)
	outer.Relations = append(outer.Relations, relation("o"))
	inner := s.Push(false)
	inner.Relations = append(inner.Relations, relation("i"))

	if _, ok := s.LookupRelation("i"); !ok {
		t.Fatalf("expected to find inner binding")
	}
	if _, ok := s.LookupRelation("o"); !ok {
		t.Fatalf("expected outer binding to stay visible from inner frame")
	}
	if _, ok := s.LookupRelation("missing"); ok {
		t.Fatalf("expected missing binding to fail")
	}
}

func TestLookupRelationCaseInsensitive(t *testing.T) {
	s := New()
	f := s.Push(false)
	f.Relations = append(f.Relations, relation("Users"))

	if _, ok := s.LookupRelation("USERS"); !ok {
		t.Fatalf("expected case-insensitive binding match")
	}
}

func TestLookupCTEInnerShadowsOuter(t *testing.T) {
	s := New()
	s.Push(false)
	outerRel := &Relation{BindingName: "recent"}
	s.DefineCTE("recent", outerRel)

	s.Push(false)
	innerRel := &Relation{BindingName: "recent"}
	s.DefineCTE("recent", innerRel)

	got, ok := s.LookupCTE("recent")
	if !ok {
		t.Fatalf("expected to find CTE")
	}
	if got != innerRel {
		t.Fatalf("expected inner CTE to shadow outer")
	}

	s.Pop()
	got, ok = s.LookupCTE("recent")
	if !ok || got != outerRel {
		t.Fatalf("expected outer CTE visible after inner frame closes")
	}
}

func TestResolveBareColumnUniqueMatch(t *testing.T) {
	s := New()
	f := s.Push(false)
	f.Relations = append(f.Relations, relation("u", "id", "name"))

	matches, ok := s.ResolveBareColumn("name")
	if !ok || len(matches) != 1 {
		t.Fatalf("ResolveBareColumn(name) = %v, %v, want one match", matches, ok)
	}
	if matches[0].Relation.BindingName != "u" {
		t.Fatalf("match binding = %q, want %q", matches[0].Relation.BindingName, "u")
	}
}

func TestResolveBareColumnAmbiguous(t *testing.T) {
	s := New()
	f := s.Push(false)
	f.Relations = append(f.Relations,
		relation("a", "id"),
		relation("b", "id"),
	)

	matches, ok := s.ResolveBareColumn("id")
	if !ok {
		t.Fatalf("expected ResolveBareColumn to find matches")
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2 (ambiguous)", len(matches))
	}
}

func TestResolveBareColumnStopsAtInnermostFrameWithAnyMatch(t *testing.T) {
	s := New()
	outer := s.Push(false)
	outer.Relations = append(outer.Relations, relation("o", "id"))
	inner := s.Push(false)
	inner.Relations = append(inner.Relations, relation("i", "name"))

	// "id" only exists on the outer relation; inner frame has no match at
	// all, so the search should fall through to the outer frame.
	matches, ok := s.ResolveBareColumn("id")
	if !ok || len(matches) != 1 {
		t.Fatalf("ResolveBareColumn(id) = %v, %v, want one match from outer frame", matches, ok)
	}
}

func TestResolveBareColumnPrefersAlias(t *testing.T) {
	s := New()
	f := s.Push(false)
	f.Relations = append(f.Relations, relation("u", "total"))
	f.Aliases["total"] = sqltype.NewInteger(sqltype.Width32)

	matches, ok := s.ResolveBareColumn("total")
	if !ok || len(matches) != 1 {
		t.Fatalf("ResolveBareColumn(total) = %v, %v, want one alias match", matches, ok)
	}
	if matches[0].Column.Type.Category != sqltype.Integer {
		t.Fatalf("alias match type = %v, want Integer", matches[0].Column.Type)
	}
}

func TestResolveQualifiedColumn(t *testing.T) {
	s := New()
	f := s.Push(false)
	f.Relations = append(f.Relations, relation("u", "id", "name"))

	_, col, ok := s.ResolveQualifiedColumn("u", "name")
	if !ok {
		t.Fatalf("expected qualified column to resolve")
	}
	if col.Name != "name" {
		t.Fatalf("col.Name = %q, want %q", col.Name, "name")
	}

	if _, _, ok := s.ResolveQualifiedColumn("missing", "name"); ok {
		t.Fatalf("expected lookup against unknown qualifier to fail")
	}
}

func TestAllVisibleColumnNamesDedupesTopFrameOnly(t *testing.T) {
	s := New()
	outer := s.Push(false)
	outer.Relations = append(outer.Relations, relation("o", "shouldnotappear"))
	top := s.Push(false)
	top.Relations = append(top.Relations,
		relation("a", "id", "name"),
		relation("b", "id"),
	)

	names := s.AllVisibleColumnNames()
	if len(names) != 2 {
		t.Fatalf("AllVisibleColumnNames = %v, want 2 deduped names", names)
	}
}

func TestPushPopDepth(t *testing.T) {
	s := New()
	if s.Depth() != 0 {
		t.Fatalf("Depth = %d, want 0", s.Depth())
	}
	s.Push(false)
	s.Push(true)
	if s.Depth() != 2 {
		t.Fatalf("Depth = %d, want 2", s.Depth())
	}
	s.Pop()
	if s.Depth() != 1 {
		t.Fatalf("Depth = %d, want 1", s.Depth())
	}
}
