// Package sqltype implements sqlsift's internal type lattice: a narrow,
// dialect-agnostic sum type used by the TypeResolver to detect
// incompatible comparisons, arithmetic, and assignments without ever
// executing a query.
package sqltype

import "fmt"

// Category identifies which branch of the lattice a Type occupies.
type Category int

const (
	// Unknown is the lattice's top element: the literal-NULL / unresolved
	// sentinel. It is compatible with everything so that a single
	// unresolved subtree never cascades into further diagnostics.
	Unknown Category = iota
	Integer
	Decimal
	Float
	Boolean
	Text
	Bytea
	Date
	Time
	Timestamp
	Interval
	Uuid
	Json
	Array
	Enum
)

// IntWidth enumerates the supported integer bit widths.
type IntWidth int

const (
	Width8 IntWidth = 8
	Width16 IntWidth = 16
	Width32 IntWidth = 32
	Width64 IntWidth = 64
)

// FloatWidth enumerates the supported floating point bit widths.
type FloatWidth int

const (
	FloatWidth32 FloatWidth = 32
	FloatWidth64 FloatWidth = 64
)

// Type is a value in the lattice. Only the fields relevant to Category are
// meaningful; the zero Type is Unknown.
type Type struct {
	Category Category

	IntWidth   IntWidth   // Integer
	FloatWidth FloatWidth // Float

	// Decimal: Precision == 0 means "unspecified precision/scale", the
	// shape produced for SUM/AVG results and for any decimal literal whose
	// text didn't parse.
	Precision int
	Scale     int

	Bounded bool // Text: true if the source type carried a length bound

	WithTZ bool // Timestamp: WITH TIME ZONE

	Binary bool // Json: true for JSONB-style binary JSON

	Of *Type // Array: element type

	Name string // Enum: the catalog-registered enum name
}

// Unspecified decimal precision/scale, used for DECIMAL/NUMERIC declared
// without arguments, for decimal literals whose text does not parse, and for
// aggregate results whose precise scale cannot be known statically.
const UnspecifiedPrecision = 0

func (t Type) String() string {
	switch t.Category {
	case Unknown:
		return "unknown"
	case Integer:
		return fmt.Sprintf("integer(%d)", t.IntWidth)
	case Decimal:
		if t.Precision == UnspecifiedPrecision {
			return "decimal"
		}
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	case Float:
		return fmt.Sprintf("float(%d)", t.FloatWidth)
	case Boolean:
		return "boolean"
	case Text:
		return "text"
	case Bytea:
		return "bytea"
	case Date:
		return "date"
	case Time:
		return "time"
	case Timestamp:
		if t.WithTZ {
			return "timestamptz"
		}
		return "timestamp"
	case Interval:
		return "interval"
	case Uuid:
		return "uuid"
	case Json:
		if t.Binary {
			return "jsonb"
		}
		return "json"
	case Array:
		if t.Of == nil {
			return "array(unknown)"
		}
		return fmt.Sprintf("array(%s)", t.Of.String())
	case Enum:
		return fmt.Sprintf("enum(%s)", t.Name)
	default:
		return "unknown"
	}
}

// Constructors for the common shapes. Kept small and obvious rather than
// one generic builder: named constructors read better than configuration
// structs for small value types.

func NewUnknown() Type { return Type{Category: Unknown} }

func NewInteger(width IntWidth) Type { return Type{Category: Integer, IntWidth: width} }

func NewDecimal(precision, scale int) Type {
	return Type{Category: Decimal, Precision: precision, Scale: scale}
}

func NewFloat(width FloatWidth) Type { return Type{Category: Float, FloatWidth: width} }

func NewBoolean() Type { return Type{Category: Boolean} }

func NewText(bounded bool) Type { return Type{Category: Text, Bounded: bounded} }

func NewBytea() Type { return Type{Category: Bytea} }

func NewDate() Type { return Type{Category: Date} }

func NewTime() Type { return Type{Category: Time} }

func NewTimestamp(withTZ bool) Type { return Type{Category: Timestamp, WithTZ: withTZ} }

func NewInterval() Type { return Type{Category: Interval} }

func NewUuid() Type { return Type{Category: Uuid} }

func NewJSON(binary bool) Type { return Type{Category: Json, Binary: binary} }

func NewArray(of Type) Type { return Type{Category: Array, Of: &of} }

func NewEnum(name string) Type { return Type{Category: Enum, Name: name} }

// IsUnknown reports whether t is the Unknown sentinel.
func (t Type) IsUnknown() bool { return t.Category == Unknown }

// IsNumeric reports whether t is Integer, Decimal, or Float.
func (t Type) IsNumeric() bool {
	switch t.Category {
	case Integer, Decimal, Float:
		return true
	default:
		return false
	}
}

// numericRank orders numeric categories from narrowest to widest for the
// "widen to the broader numeric" rule used by arithmetic inference.
func numericRank(t Type) int {
	switch t.Category {
	case Integer:
		return 1
	case Decimal:
		return 2
	case Float:
		return 3
	default:
		return 0
	}
}

// Widen returns the wider of two numeric types per the arithmetic-result
// rule (integer < decimal < float; within Integer or Float the larger width
// wins); non-numeric inputs degrade to Unknown.
func Widen(a, b Type) Type {
	if a.IsUnknown() {
		return b
	}
	if b.IsUnknown() {
		return a
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return NewUnknown()
	}
	ra, rb := numericRank(a), numericRank(b)
	if ra == rb {
		if (a.Category == Integer && b.IntWidth > a.IntWidth) || (a.Category == Float && b.FloatWidth > a.FloatWidth) {
			return b
		}
		return a
	}
	if ra > rb {
		return a
	}
	return b
}

// Compatible implements the lattice's compatibility relation. It is
// symmetric and reflexive by construction.
func Compatible(a, b Type) bool {
	if a.IsUnknown() || b.IsUnknown() {
		return true
	}
	if a.Category == b.Category {
		switch a.Category {
		case Array:
			return compatibleArray(a, b)
		case Enum:
			return a.Name == b.Name
		default:
			return true
		}
	}
	// Cross-category compatibility rules, checked symmetrically.
	if numericPair(a, b) {
		return true
	}
	if textPair(a, b) {
		return true
	}
	return false
}

func compatibleArray(a, b Type) bool {
	if a.Of == nil || b.Of == nil {
		return true // degrade to compatible rather than cascade on a malformed array type
	}
	return Compatible(*a.Of, *b.Of)
}

func numericPair(a, b Type) bool {
	return a.IsNumeric() && b.IsNumeric()
}

func textPair(a, b Type) bool {
	aText := a.Category == Text
	bText := b.Category == Text
	aEnum := a.Category == Enum
	bEnum := b.Category == Enum
	aUuid := a.Category == Uuid
	bUuid := b.Category == Uuid
	// Enum(x) and Uuid are compatible with Text in both directions: both are
	// always written as string literals, so a literal-inferred Enum/Uuid
	// type must not cascade into a false TypeMismatch against a Text column.
	return (aText && bEnum) || (aEnum && bText) || (aText && bUuid) || (aUuid && bText)
}

// Meet returns the lattice meet (narrowest common supertype) of a and b,
// falling back to Unknown when no such type exists. Used for set-operation
// column unification and CASE branch unification.
func Meet(a, b Type) Type {
	if a.IsUnknown() {
		return b
	}
	if b.IsUnknown() {
		return a
	}
	if !Compatible(a, b) {
		return NewUnknown()
	}
	if a.Category == b.Category {
		if a.Category == Integer || a.Category == Float {
			return Widen(a, b)
		}
		return a
	}
	if numericPair(a, b) {
		return Widen(a, b)
	}
	if textPair(a, b) {
		return NewText(false)
	}
	return NewUnknown()
}
