package typecheck

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sqlsift/sqlsift/internal/sqlast"
	"github.com/sqlsift/sqlsift/internal/sqltype"
)

func TestInferLiteral(t *testing.T) {
	cases := []struct {
		name string
		lit  *sqlast.Literal
		want sqltype.Type
	}{
		{"small int", &sqlast.Literal{Kind: sqlast.LiteralInteger, Text: "5"}, sqltype.NewInteger(sqltype.Width8)},
		{"wide int", &sqlast.Literal{Kind: sqlast.LiteralInteger, Text: "40000"}, sqltype.NewInteger(sqltype.Width32)},
		{"huge int", &sqlast.Literal{Kind: sqlast.LiteralInteger, Text: "99999999999999999999"}, sqltype.NewInteger(sqltype.Width64)},
		{"decimal", &sqlast.Literal{Kind: sqlast.LiteralDecimal, Text: "12.50"}, sqltype.NewDecimal(4, 2)},
		{"decimal no fraction", &sqlast.Literal{Kind: sqlast.LiteralDecimal, Text: "7"}, sqltype.NewDecimal(1, 0)},
		{"string", &sqlast.Literal{Kind: sqlast.LiteralString, Text: "hi"}, sqltype.NewText(false)},
		{"uuid string", &sqlast.Literal{Kind: sqlast.LiteralString, Text: "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"}, sqltype.NewUuid()},
		{"bool", &sqlast.Literal{Kind: sqlast.LiteralBoolean, Text: "true"}, sqltype.NewBoolean()},
		{"null", &sqlast.Literal{Kind: sqlast.LiteralNull, Text: "null"}, sqltype.NewUnknown()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := InferLiteral(c.lit)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Fatalf("InferLiteral(%q) mismatch (-want +got):\n%s", c.lit.Text, diff)
			}
		})
	}
}

func TestInferLiteralMalformedDecimalDegradesToUnspecified(t *testing.T) {
	got := InferLiteral(&sqlast.Literal{Kind: sqlast.LiteralDecimal, Text: "not-a-number"})
	want := sqltype.NewDecimal(sqltype.UnspecifiedPrecision, sqltype.UnspecifiedPrecision)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("InferLiteral(malformed decimal) mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckComparisonAlwaysBoolean(t *testing.T) {
	r := CheckComparison(sqltype.NewInteger(sqltype.Width32), sqltype.NewText(false))
	if r.ResultType.Category != sqltype.Boolean {
		t.Fatalf("ResultType = %v, want Boolean", r.ResultType)
	}
	if r.Compatible {
		t.Fatalf("Compatible = true, want false for integer vs text")
	}
}

func TestCheckArithmeticWidens(t *testing.T) {
	r := CheckArithmetic(sqltype.NewInteger(sqltype.Width32), sqltype.NewFloat(sqltype.FloatWidth64))
	if !r.Compatible {
		t.Fatalf("Compatible = false, want true")
	}
	if r.ResultType.Category != sqltype.Float {
		t.Fatalf("ResultType = %v, want Float", r.ResultType)
	}
}

func TestCheckArithmeticRejectsText(t *testing.T) {
	r := CheckArithmetic(sqltype.NewText(false), sqltype.NewInteger(sqltype.Width8))
	if r.Compatible {
		t.Fatalf("Compatible = true, want false")
	}
}

func TestCheckConcatAcceptsEnumAndText(t *testing.T) {
	r := CheckConcat(sqltype.NewEnum("color"), sqltype.NewText(false))
	if !r.Compatible {
		t.Fatalf("Compatible = false, want true")
	}
	if r.ResultType.Category != sqltype.Text {
		t.Fatalf("ResultType = %v, want Text", r.ResultType)
	}
}

func TestCheckLogicalRejectsNonBoolean(t *testing.T) {
	r := CheckLogical(sqltype.NewBoolean(), sqltype.NewInteger(sqltype.Width8))
	if r.Compatible {
		t.Fatalf("Compatible = true, want false")
	}
}

func TestCheckInListFindsFirstMismatch(t *testing.T) {
	idx := CheckInList(sqltype.NewInteger(sqltype.Width32), []sqltype.Type{
		sqltype.NewInteger(sqltype.Width8),
		sqltype.NewText(false),
		sqltype.NewInteger(sqltype.Width16),
	})
	if idx != 1 {
		t.Fatalf("CheckInList index = %d, want 1", idx)
	}
}

func TestCheckInListAllCompatible(t *testing.T) {
	idx := CheckInList(sqltype.NewInteger(sqltype.Width32), []sqltype.Type{
		sqltype.NewInteger(sqltype.Width8),
		sqltype.NewInteger(sqltype.Width16),
	})
	if idx != -1 {
		t.Fatalf("CheckInList index = %d, want -1", idx)
	}
}

func TestInferCaseMeetsBranches(t *testing.T) {
	got := InferCase([]sqltype.Type{
		sqltype.NewInteger(sqltype.Width8),
		sqltype.NewInteger(sqltype.Width32),
	})
	if got.Category != sqltype.Integer || got.IntWidth != sqltype.Width32 {
		t.Fatalf("InferCase = %v, want integer(32)", got)
	}
}

func TestInferCaseIncompatibleDegradesToUnknown(t *testing.T) {
	got := InferCase([]sqltype.Type{
		sqltype.NewInteger(sqltype.Width8),
		sqltype.NewText(false),
	})
	if !got.IsUnknown() {
		t.Fatalf("InferCase = %v, want Unknown", got)
	}
}

func TestInferAggregate(t *testing.T) {
	cases := []struct {
		name string
		arg  sqltype.Type
		want sqltype.Category
	}{
		{"count", sqltype.NewText(false), sqltype.Integer},
		{"sum", sqltype.NewInteger(sqltype.Width32), sqltype.Decimal},
		{"avg", sqltype.NewInteger(sqltype.Width32), sqltype.Decimal},
		{"min", sqltype.NewText(false), sqltype.Text},
		{"max", sqltype.NewText(false), sqltype.Text},
		{"string_agg", sqltype.NewText(false), sqltype.Text},
		{"COUNT", sqltype.NewText(false), sqltype.Integer},
	}
	for _, c := range cases {
		got := InferAggregate(c.name, c.arg)
		if got.Category != c.want {
			t.Fatalf("InferAggregate(%q) = %v, want category %v", c.name, got, c.want)
		}
	}
}

func TestInferAggregateUnrecognizedIsUnknown(t *testing.T) {
	got := InferAggregate("not_a_func", sqltype.NewText(false))
	if !got.IsUnknown() {
		t.Fatalf("InferAggregate(unrecognized) = %v, want Unknown", got)
	}
}

func TestIsAggregateOrWindowFunc(t *testing.T) {
	if !IsAggregateOrWindowFunc("Sum") {
		t.Fatalf("IsAggregateOrWindowFunc(Sum) = false, want true")
	}
	if IsAggregateOrWindowFunc("row_number") {
		t.Fatalf("IsAggregateOrWindowFunc(row_number) = true, want false")
	}
}
