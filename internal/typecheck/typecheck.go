// Package typecheck implements the pure, scope-independent half of type
// inference: given already-resolved operand types, it decides the result
// type of a literal, operator, cast, CASE, or aggregate, and reports
// whether the operands were compatible. It never walks the AST or touches
// the catalog — resolve.Resolver drives the traversal and supplies operand
// types.
package typecheck

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sqlsift/sqlsift/internal/sqlast"
	"github.com/sqlsift/sqlsift/internal/sqltype"
)

// InferLiteral types a literal AST node per the integer-width /
// decimal/float/text/boolean/null rules.
func InferLiteral(lit *sqlast.Literal) sqltype.Type {
	switch lit.Kind {
	case sqlast.LiteralInteger:
		return sqltype.NewInteger(integerWidthFor(lit.Text))
	case sqlast.LiteralDecimal:
		return decimalLiteralType(lit.Text)
	case sqlast.LiteralFloat:
		return sqltype.NewFloat(sqltype.FloatWidth64)
	case sqlast.LiteralString:
		return stringLiteralType(lit.Text)
	case sqlast.LiteralBoolean:
		return sqltype.NewBoolean()
	case sqlast.LiteralBlob:
		return sqltype.NewBytea()
	case sqlast.LiteralNull:
		return sqltype.NewUnknown()
	default:
		return sqltype.NewUnknown()
	}
}

// decimalLiteralType derives the exact precision and scale a decimal
// literal carries in its written form, e.g. "12.50" is decimal(4,2).
// Malformed text (which the scanner should never produce) degrades to the
// unspecified shape rather than panicking.
func decimalLiteralType(text string) sqltype.Type {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return sqltype.NewDecimal(sqltype.UnspecifiedPrecision, sqltype.UnspecifiedPrecision)
	}
	scale := 0
	if exp := d.Exponent(); exp < 0 {
		scale = int(-exp)
	}
	coeff := d.Coefficient()
	coeff.Abs(coeff)
	digits := len(strings.TrimLeft(coeff.String(), "0"))
	if digits == 0 {
		digits = 1
	}
	if digits < scale {
		digits = scale
	}
	return sqltype.NewDecimal(digits, scale)
}

// stringLiteralType recognizes a string literal shaped like a UUID so that
// a literal such as 'a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11' infers as a Uuid
// rather than Text, matching it against uuid-typed columns without a false
// type-mismatch diagnostic.
func stringLiteralType(text string) sqltype.Type {
	if _, err := uuid.Parse(text); err == nil {
		return sqltype.NewUuid()
	}
	return sqltype.NewText(false)
}

// integerWidthFor picks the smallest signed width that fits the literal's
// textual value, defaulting to 64 on parse failure (e.g. a huge literal)
// rather than panicking.
func integerWidthFor(text string) sqltype.IntWidth {
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return sqltype.Width64
	}
	switch {
	case n >= -128 && n <= 127:
		return sqltype.Width8
	case n >= -32768 && n <= 32767:
		return sqltype.Width16
	case n >= -2147483648 && n <= 2147483647:
		return sqltype.Width32
	default:
		return sqltype.Width64
	}
}

// ComparisonResult is the outcome of checking one comparison's operands.
type ComparisonResult struct {
	ResultType sqltype.Type
	Compatible bool
}

// CheckComparison implements the =, !=, <, <=, >, >=, IS DISTINCT FROM
// rule: always boolean-typed, incompatible known operands are flagged.
func CheckComparison(a, b sqltype.Type) ComparisonResult {
	return ComparisonResult{
		ResultType: sqltype.NewBoolean(),
		Compatible: sqltype.Compatible(a, b),
	}
}

// ArithmeticResult is the outcome of checking one arithmetic operator's
// operands.
type ArithmeticResult struct {
	ResultType sqltype.Type
	Compatible bool
}

// CheckArithmetic implements the +, -, *, /, % rule: both operands numeric
// or Unknown; result widens to the broader numeric type.
func CheckArithmetic(a, b sqltype.Type) ArithmeticResult {
	if a.IsUnknown() || b.IsUnknown() {
		return ArithmeticResult{ResultType: sqltype.Widen(a, b), Compatible: true}
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return ArithmeticResult{ResultType: sqltype.NewUnknown(), Compatible: false}
	}
	return ArithmeticResult{ResultType: sqltype.Widen(a, b), Compatible: true}
}

// CheckConcat implements the || rule: text-compatible operands, result
// Text.
func CheckConcat(a, b sqltype.Type) ArithmeticResult {
	if a.IsUnknown() || b.IsUnknown() {
		return ArithmeticResult{ResultType: sqltype.NewText(false), Compatible: true}
	}
	textLike := func(t sqltype.Type) bool {
		return t.Category == sqltype.Text || t.Category == sqltype.Enum
	}
	if !textLike(a) || !textLike(b) {
		return ArithmeticResult{ResultType: sqltype.NewUnknown(), Compatible: false}
	}
	return ArithmeticResult{ResultType: sqltype.NewText(false), Compatible: true}
}

// CheckLogical implements AND/OR/NOT: boolean-typed operands.
func CheckLogical(operands ...sqltype.Type) ArithmeticResult {
	for _, t := range operands {
		if t.IsUnknown() {
			continue
		}
		if t.Category != sqltype.Boolean {
			return ArithmeticResult{ResultType: sqltype.NewUnknown(), Compatible: false}
		}
	}
	return ArithmeticResult{ResultType: sqltype.NewBoolean(), Compatible: true}
}

// CheckInList checks a tested expression's type against each element of an
// IN list, returning the index of the first incompatible element, or -1 if
// all are compatible.
func CheckInList(target sqltype.Type, elems []sqltype.Type) int {
	for i, e := range elems {
		if !sqltype.Compatible(target, e) {
			return i
		}
	}
	return -1
}

// InferCase returns the lattice meet across every THEN/ELSE branch type.
// A single incompatible pair degrades to Unknown without reporting, per
// the documented CASE limitation.
func InferCase(branches []sqltype.Type) sqltype.Type {
	result := sqltype.NewUnknown()
	for _, b := range branches {
		if !sqltype.Compatible(result, b) {
			return sqltype.NewUnknown()
		}
		result = sqltype.Meet(result, b)
	}
	return result
}

// aggregateResultFns maps a case-insensitive aggregate name to the function
// computing its result type from the argument's inferred type.
var aggregateResultFns = map[string]func(arg sqltype.Type) sqltype.Type{
	"count": func(sqltype.Type) sqltype.Type { return sqltype.NewInteger(sqltype.Width64) },
	"sum": func(arg sqltype.Type) sqltype.Type {
		if arg.Category == sqltype.Integer {
			return sqltype.NewDecimal(sqltype.UnspecifiedPrecision, sqltype.UnspecifiedPrecision)
		}
		return arg
	},
	"avg": func(sqltype.Type) sqltype.Type {
		return sqltype.NewDecimal(sqltype.UnspecifiedPrecision, sqltype.UnspecifiedPrecision)
	},
	"min": func(arg sqltype.Type) sqltype.Type { return arg },
	"max": func(arg sqltype.Type) sqltype.Type { return arg },
	"string_agg": func(sqltype.Type) sqltype.Type { return sqltype.NewText(false) },
	"group_concat": func(sqltype.Type) sqltype.Type { return sqltype.NewText(false) },
}

// InferAggregate implements the COUNT/SUM/AVG/MIN/MAX/STRING_AGG/
// GROUP_CONCAT result-type table; unrecognized names degrade to Unknown.
func InferAggregate(name string, argType sqltype.Type) sqltype.Type {
	fn, ok := aggregateResultFns[strings.ToLower(name)]
	if !ok {
		return sqltype.NewUnknown()
	}
	return fn(argType)
}

// IsAggregateOrWindowFunc reports whether name is one of the recognized
// aggregate names, used by resolve to decide whether a FuncCall's Over
// clause should reuse the aggregate's result type.
func IsAggregateOrWindowFunc(name string) bool {
	_, ok := aggregateResultFns[strings.ToLower(name)]
	return ok
}
