package suppress

import (
	"testing"

	"github.com/sqlsift/sqlsift/internal/diag"
	"github.com/sqlsift/sqlsift/internal/sqlscan"
)

func scan(t *testing.T, src string) []sqlscan.Token {
	t.Helper()
	tokens, err := sqlscan.Scan("test.sql", []byte(src), true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return tokens
}

func TestSuppressedBareDirectiveDisablesAllCodes(t *testing.T) {
	src := "-- sqlsift:disable\nSELECT 1;\n"
	m := Build(scan(t, src))

	if !m.Suppressed(2, diag.ColumnNotFound) {
		t.Fatalf("expected line 2 to be suppressed for any code")
	}
	if m.Suppressed(5, diag.ColumnNotFound) {
		t.Fatalf("expected line 5 to be unaffected by a directive targeting line 2")
	}
}

func TestSuppressedSpecificCodes(t *testing.T) {
	src := "-- sqlsift:disable E0002,E0003\nSELECT missing FROM t;\n"
	m := Build(scan(t, src))

	if !m.Suppressed(2, diag.ColumnNotFound) {
		t.Fatalf("expected E0002 to be suppressed")
	}
	if m.Suppressed(2, diag.TableNotFound) {
		t.Fatalf("expected E0001 to remain unsuppressed")
	}
}

func TestSuppressedConsecutiveCommentsMerge(t *testing.T) {
	src := "-- sqlsift:disable E0001\n-- sqlsift:disable E0002\nSELECT 1;\n"
	m := Build(scan(t, src))

	if !m.Suppressed(3, diag.TableNotFound) {
		t.Fatalf("expected merged block to suppress E0001 on the statement line")
	}
	if !m.Suppressed(3, diag.ColumnNotFound) {
		t.Fatalf("expected merged block to suppress E0002 on the statement line")
	}
}

func TestSuppressedOpenToEndOfFile(t *testing.T) {
	src := "-- sqlsift:disable\n"
	m := Build(scan(t, src))

	if !m.Suppressed(1000, diag.TableNotFound) {
		t.Fatalf("expected a standalone directive with no following statement to stay open to end of file")
	}
}

func TestSuppressedTrailingDirectiveOnlyGovernsItsOwnLine(t *testing.T) {
	src := "SELECT missing FROM t; -- sqlsift:disable E0002\nSELECT missing2 FROM t2;\n"
	m := Build(scan(t, src))

	if !m.Suppressed(1, diag.ColumnNotFound) {
		t.Fatalf("expected the trailing directive's own line to be suppressed")
	}
	if m.Suppressed(2, diag.ColumnNotFound) {
		t.Fatalf("expected a trailing directive not to extend to the following line")
	}
}

func TestNotADirectiveCommentIsIgnored(t *testing.T) {
	src := "-- just a regular comment\nSELECT 1;\n"
	m := Build(scan(t, src))

	if m.Suppressed(1, diag.TableNotFound) {
		t.Fatalf("expected a non-directive comment to suppress nothing")
	}
}

func TestFilterRemovesSuppressedDiagnostics(t *testing.T) {
	src := "-- sqlsift:disable E0002\nSELECT missing FROM t;\n"
	m := Build(scan(t, src))

	diags := []diag.Diagnostic{
		{Code: diag.ColumnNotFound, PrimarySpan: sqlscan.Span{StartLine: 2}},
		{Code: diag.TableNotFound, PrimarySpan: sqlscan.Span{StartLine: 2}},
	}
	filtered := m.Filter(diags)
	if len(filtered) != 1 || filtered[0].Code != diag.TableNotFound {
		t.Fatalf("Filter = %v, want only the TableNotFound diagnostic", filtered)
	}
}

func TestFilterNilMapIsNoop(t *testing.T) {
	var m *Map
	diags := []diag.Diagnostic{{Code: diag.ColumnNotFound}}
	if got := m.Filter(diags); len(got) != 1 {
		t.Fatalf("Filter on nil map = %v, want unchanged", got)
	}
}
