package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sqlsift/sqlsift/internal/diag"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile %q: %v", path, err)
	}
	return path
}

func TestBatchRunBuildsCatalogAndFindsErrors(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "schema.sql", "CREATE TABLE orders (id integer, total decimal);\n")
	writeTestFile(t, dir, "q1.sql", "SELECT id, total FROM orders;\n")
	writeTestFile(t, dir, "q2.sql", "SELECT id, missing_col FROM orders;\n")
	configPath := writeTestFile(t, dir, "sqlsift.toml", `
dialect = "postgresql"
schemas = ["schema.sql"]
queries = ["q1.sql", "q2.sql"]
`)

	b := Batch{}
	summary, err := b.Run(context.Background(), RunOptions{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.SchemaFiles != 1 {
		t.Fatalf("SchemaFiles = %d, want 1", summary.SchemaFiles)
	}
	if summary.QueryFiles != 2 {
		t.Fatalf("QueryFiles = %d, want 2", summary.QueryFiles)
	}
	if _, ok := summary.Catalog.Table("orders"); !ok {
		t.Fatalf("expected catalog to contain table orders")
	}

	var found bool
	for _, d := range summary.Diagnostics {
		if d.Code == diag.ColumnNotFound {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a ColumnNotFound diagnostic, got %v", summary.Diagnostics)
	}
}

func TestBatchRunRespectsDisabledRules(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "schema.sql", "CREATE TABLE orders (id integer);\n")
	writeTestFile(t, dir, "q1.sql", "SELECT missing_col FROM orders;\n")
	configPath := writeTestFile(t, dir, "sqlsift.toml", `
dialect = "postgresql"
schemas = ["schema.sql"]
queries = ["q1.sql"]
disabled_rules = ["E0002"]
`)

	b := Batch{}
	summary, err := b.Run(context.Background(), RunOptions{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for _, d := range summary.Diagnostics {
		if d.Code == diag.ColumnNotFound {
			t.Fatalf("expected E0002 to be disabled, got %v", summary.Diagnostics)
		}
	}
}

func TestBatchRunMaxErrorsTruncatesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "schema.sql", "CREATE TABLE orders (id integer);\n")
	writeTestFile(t, dir, "q1.sql", "SELECT missing_one FROM orders;\n")
	writeTestFile(t, dir, "q2.sql", "SELECT missing_two FROM orders;\n")
	configPath := writeTestFile(t, dir, "sqlsift.toml", `
dialect = "postgresql"
schemas = ["schema.sql"]
queries = ["q1.sql", "q2.sql"]
max_errors = 1
`)

	b := Batch{}
	summary, err := b.Run(context.Background(), RunOptions{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(summary.Diagnostics) != 1 {
		t.Fatalf("Diagnostics = %v, want exactly 1 after truncation", summary.Diagnostics)
	}
}

func TestBatchRunMissingConfigFails(t *testing.T) {
	b := Batch{}
	_, err := b.Run(context.Background(), RunOptions{ConfigPath: filepath.Join(t.TempDir(), "missing.toml")})
	if err == nil {
		t.Fatalf("expected error for missing config")
	}
}
