package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/sqlsift/sqlsift/internal/dialect"
	"github.com/sqlsift/sqlsift/internal/fileset"
)

func TestLoadSuccess(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeFixtures(t, tempDir)

	configPath := writeConfig(t, tempDir, `
dialect = "postgresql"
schemas = ["schemas/*.sql"]
queries = ["queries/*.sql"]
`)

	result, err := Load(configPath, LoadOptions{})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", result.Warnings)
	}

	if result.Plan.Dialect != dialect.PostgreSQL {
		t.Fatalf("unexpected dialect: %q", result.Plan.Dialect)
	}

	expectedSchemas := []string{
		filepath.Join(tempDir, "schemas", "books.sql"),
		filepath.Join(tempDir, "schemas", "users.sql"),
	}
	if !slices.Equal(result.Plan.Schemas, expectedSchemas) {
		t.Fatalf("unexpected schema files: %v", result.Plan.Schemas)
	}

	expectedQueries := []string{
		filepath.Join(tempDir, "queries", "find_user.sql"),
		filepath.Join(tempDir, "queries", "list_users.sql"),
	}
	if !slices.Equal(result.Plan.Queries, expectedQueries) {
		t.Fatalf("unexpected query files: %v", result.Plan.Queries)
	}

	if len(result.Plan.DisabledRules) != 0 {
		t.Fatalf("expected no disabled rules, got %v", result.Plan.DisabledRules)
	}
}

func TestLoadDefaultsDialectToPostgreSQL(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeFixtures(t, tempDir)

	configPath := writeConfig(t, tempDir, `
schemas = ["schemas/*.sql"]
queries = ["queries/*.sql"]
`)

	result, err := Load(configPath, LoadOptions{})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if result.Plan.Dialect != dialect.PostgreSQL {
		t.Fatalf("expected default dialect postgresql, got %q", result.Plan.Dialect)
	}
}

func TestLoadDisabledRules(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeFixtures(t, tempDir)

	configPath := writeConfig(t, tempDir, `
dialect = "mysql"
schemas = ["schemas/*.sql"]
queries = ["queries/*.sql"]
disabled_rules = ["e0006", "E0007"]
max_errors = 50
`)

	result, err := Load(configPath, LoadOptions{})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if result.Plan.Dialect != dialect.MySQL {
		t.Fatalf("expected mysql dialect, got %q", result.Plan.Dialect)
	}
	if !result.Plan.Disabled("E0006") || !result.Plan.Disabled("E0007") {
		t.Fatalf("expected E0006 and E0007 disabled, got %v", result.Plan.DisabledRules)
	}
	if result.Plan.Disabled("E0001") {
		t.Fatalf("did not expect E0001 disabled")
	}
	if result.Plan.MaxErrors != 50 {
		t.Fatalf("expected max_errors 50, got %d", result.Plan.MaxErrors)
	}
}

func TestLoadYAMLFormat(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeFixtures(t, tempDir)

	configPath := filepath.Join(tempDir, "sqlsift.yaml")
	contents := "dialect: sqlite\nschemas:\n  - schemas/*.sql\nqueries:\n  - queries/*.sql\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o600); err != nil {
		t.Fatalf("write yaml config: %v", err)
	}

	result, err := Load(configPath, LoadOptions{})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if result.Plan.Dialect != dialect.SQLite {
		t.Fatalf("expected sqlite dialect, got %q", result.Plan.Dialect)
	}
}

func TestLoadInvalidDialect(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeFixtures(t, tempDir)

	configPath := writeConfig(t, tempDir, `
dialect = "oracle"
schemas = ["schemas/*.sql"]
queries = ["queries/*.sql"]
`)

	_, err := Load(configPath, LoadOptions{})
	if err == nil {
		t.Fatal("expected error for unsupported dialect")
	}
	if !strings.Contains(err.Error(), "unsupported dialect") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadNegativeMaxErrors(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeFixtures(t, tempDir)

	configPath := writeConfig(t, tempDir, `
schemas = ["schemas/*.sql"]
queries = ["queries/*.sql"]
max_errors = -1
`)

	_, err := Load(configPath, LoadOptions{})
	if err == nil {
		t.Fatal("expected error for negative max_errors")
	}
	if !strings.Contains(err.Error(), "max_errors must not be negative") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadMissingSchemaPattern(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()

	configPath := writeConfig(t, tempDir, `
schemas = ["schemas/*.missing"]
queries = ["queries/*.sql"]
`)

	resolver := fileset.NewResolver(fstest.MapFS{
		"queries/find_user.sql":  &fstest.MapFile{},
		"queries/list_users.sql": &fstest.MapFile{},
	})

	_, err := Load(configPath, LoadOptions{Resolver: &resolver})
	if err == nil {
		t.Fatal("expected error for missing schema glob matches")
	}
	if !strings.Contains(err.Error(), "schemas patterns matched no files") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "schemas/*.missing") {
		t.Fatalf("error should mention missing pattern, got: %v", err)
	}
}

func TestLoadStrictUnknownKeys(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeFixtures(t, tempDir)

	configPath := writeConfig(t, tempDir, `
schemas = ["schemas/*.sql"]
queries = ["queries/*.sql"]
extra = "value"
`)

	_, err := Load(configPath, LoadOptions{Strict: true})
	if err == nil {
		t.Fatal("expected strict mode to reject unknown keys")
	}
	if !strings.Contains(err.Error(), "unknown configuration keys") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "extra") {
		t.Fatalf("error should mention offending key, got: %v", err)
	}
}

func TestLoadNonStrictUnknownKeysWarning(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeFixtures(t, tempDir)

	configPath := writeConfig(t, tempDir, `
schemas = ["schemas/*.sql"]
queries = ["queries/*.sql"]
extra = "value"
`)

	result, err := Load(configPath, LoadOptions{})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if len(result.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", result.Warnings)
	}
	warning := result.Warnings[0]
	if !strings.Contains(warning, "unknown configuration keys") {
		t.Fatalf("warning missing unknown keys message: %q", warning)
	}
	if !strings.Contains(warning, "extra") {
		t.Fatalf("warning should mention offending key, got: %q", warning)
	}
}

func writeFixtures(tb testing.TB, dir string) {
	tb.Helper()

	schemasDir := filepath.Join(dir, "schemas")
	queriesDir := filepath.Join(dir, "queries")
	if err := os.MkdirAll(schemasDir, 0o750); err != nil {
		tb.Fatalf("create schemas dir: %v", err)
	}
	if err := os.MkdirAll(queriesDir, 0o750); err != nil {
		tb.Fatalf("create queries dir: %v", err)
	}

	files := map[string]string{
		filepath.Join(schemasDir, "books.sql"):      "CREATE TABLE books (id INTEGER PRIMARY KEY);\n",
		filepath.Join(schemasDir, "users.sql"):      "CREATE TABLE users (id INTEGER PRIMARY KEY);\n",
		filepath.Join(queriesDir, "find_user.sql"):  "SELECT id FROM users WHERE id = 1;\n",
		filepath.Join(queriesDir, "list_users.sql"): "SELECT id FROM users;\n",
	}
	for path, contents := range files {
		if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
			tb.Fatalf("write fixture %s: %v", path, err)
		}
	}
}

func writeConfig(tb testing.TB, dir, contents string) string {
	tb.Helper()

	path := filepath.Join(dir, "sqlsift.toml")
	clean := strings.TrimSpace(contents) + "\n"
	if err := os.WriteFile(path, []byte(clean), 0o600); err != nil {
		tb.Fatalf("write config: %v", err)
	}
	return path
}
