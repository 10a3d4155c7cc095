// Package diag defines the diagnostic shape shared by SchemaBuilder and
// Analyzer, and the stable wire identifiers for each finding kind.
package diag

import (
	"cmp"
	"slices"

	"github.com/sqlsift/sqlsift/internal/sqlast"
)

// Severity indicates how seriously a diagnostic should be treated.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityHint:
		return "hint"
	default:
		return "error"
	}
}

// Code is a stable wire identifier for a diagnostic kind.
type Code string

const (
	TableNotFound       Code = "E0001"
	ColumnNotFound       Code = "E0002"
	TypeMismatch         Code = "E0003"
	InsertArityMismatch  Code = "E0005"
	AmbiguousColumn      Code = "E0006"
	JoinTypeMismatch     Code = "E0007"
	ParseError           Code = "E1000"
)

// Related is a secondary span attached to a Diagnostic for additional
// context, e.g. the other operand of an ambiguous column reference.
type Related struct {
	Span    sqlast.Span
	Message string
}

// Diagnostic is one finding, either from SchemaBuilder (build diagnostics)
// or Analyzer (analysis diagnostics).
type Diagnostic struct {
	Code        Code
	Severity    Severity
	PrimarySpan sqlast.Span
	Message     string
	Related     []Related
	Suggestions []string
}

// Sort stable-sorts diagnostics by (file, line, column, code), the order
// guarantee the Analyzer promises callers.
func Sort(diags []Diagnostic) {
	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		if c := cmp.Compare(a.PrimarySpan.File, b.PrimarySpan.File); c != 0 {
			return c
		}
		if c := cmp.Compare(a.PrimarySpan.StartLine, b.PrimarySpan.StartLine); c != 0 {
			return c
		}
		if c := cmp.Compare(a.PrimarySpan.StartColumn, b.PrimarySpan.StartColumn); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
}

// Truncate caps diags to the first max entries, the max_errors option's
// truncation semantics. max <= 0 means unlimited.
func Truncate(diags []Diagnostic, max int) []Diagnostic {
	if max <= 0 || len(diags) <= max {
		return diags
	}
	return diags[:max]
}
