// Package dialect enumerates the SQL dialects sqlsift understands and the
// syntactic predicates that vary between them.
package dialect

import "strings"

// Dialect identifies a supported SQL dialect.
type Dialect string

const (
	// PostgreSQL is the default dialect.
	PostgreSQL Dialect = "postgresql"
	// MySQL selects MySQL/MariaDB syntax.
	MySQL Dialect = "mysql"
	// SQLite selects SQLite syntax.
	SQLite Dialect = "sqlite"
)

// Parse resolves a dialect tag, accepting the common aliases the original
// sqlsift implementation accepted ("postgres"/"pg", "mysql8", "sqlite3").
func Parse(s string) (Dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgresql", "postgres", "pg":
		return PostgreSQL, true
	case "mysql", "mysql8":
		return MySQL, true
	case "sqlite", "sqlite3":
		return SQLite, true
	default:
		return "", false
	}
}

// String returns the canonical wire tag for the dialect.
func (d Dialect) String() string {
	switch d {
	case PostgreSQL, MySQL, SQLite:
		return string(d)
	default:
		return string(d)
	}
}

// DefaultSchema returns the dialect's implicit schema name, used only for
// diagnostic message decoration; sqlsift never performs cross-schema
// resolution.
func (d Dialect) DefaultSchema() string {
	if d == PostgreSQL {
		return "public"
	}
	return ""
}

// AllowsDistinctOn reports whether `SELECT DISTINCT ON (...)` is accepted.
func (d Dialect) AllowsDistinctOn() bool {
	return d == PostgreSQL
}

// SupportsReturning reports whether INSERT/UPDATE/DELETE ... RETURNING is
// accepted.
func (d Dialect) SupportsReturning() bool {
	return d == PostgreSQL || d == SQLite
}

// SupportsLateral reports whether LATERAL derived tables are accepted.
func (d Dialect) SupportsLateral() bool {
	return d == PostgreSQL || d == MySQL
}

// IdentifierQuote returns the dialect's preferred quoting character for
// delimited identifiers, used only for message formatting.
func (d Dialect) IdentifierQuote() byte {
	switch d {
	case MySQL:
		return '`'
	default:
		return '"'
	}
}

// AcceptsQuote reports whether the dialect's tokenizer should treat the
// given quote character as a delimited identifier rather than a string.
func (d Dialect) AcceptsQuote(quote byte) bool {
	switch quote {
	case '"':
		return d != MySQL // MySQL treats "..." as a string by default
	case '`':
		return d == MySQL || d == SQLite
	case '[', ']':
		return d == SQLite
	default:
		return false
	}
}

// CreateTypeEnumSupported reports whether `CREATE TYPE ... AS ENUM` is a
// recognized DDL form; MySQL instead declares enums inline on the column
// (`col ENUM('a','b')`), which SchemaBuilder handles separately.
func (d Dialect) CreateTypeEnumSupported() bool {
	return d == PostgreSQL
}

// TableValuedFunction reports whether name is a recognized table-valued
// function for this dialect and, if so, its synthesized output columns.
func (d Dialect) TableValuedFunction(name string) ([]string, bool) {
	if d != PostgreSQL {
		return nil, false
	}
	if strings.EqualFold(name, "generate_series") {
		return []string{"value"}, true
	}
	return nil, false
}
