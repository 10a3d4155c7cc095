package sqltype

import (
	"strconv"
	"strings"

	"github.com/sqlsift/sqlsift/internal/dialect"
)

// FromTypeName maps a raw SQL type-name declaration (as written in DDL,
// e.g. "VARCHAR(255)", "NUMERIC(10,2)", "INT[]") to a lattice Type for the
// given dialect. Unrecognized names degrade to Unknown rather than fail the
// build, matching the resilient-parsing posture of SchemaBuilder.
func FromTypeName(d dialect.Dialect, raw string) Type {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if base, ok := strings.CutSuffix(upper, "[]"); ok {
		elem := FromTypeName(d, base)
		return NewArray(elem)
	}

	base, args := splitArgs(upper)

	switch base {
	case "SMALLINT", "INT2":
		return NewInteger(Width16)
	case "INT", "INTEGER", "INT4", "MEDIUMINT":
		if d == dialect.SQLite {
			return NewInteger(Width64) // SQLite's INTEGER column is a 64-bit rowid-capable type
		}
		return NewInteger(Width32)
	case "TINYINT":
		if d == dialect.MySQL {
			return NewInteger(Width8)
		}
		return NewInteger(Width16)
	case "BIGINT", "INT8":
		return NewInteger(Width64)
	case "SERIAL", "SERIAL4":
		return NewInteger(Width32)
	case "BIGSERIAL", "SERIAL8":
		return NewInteger(Width64)
	case "SMALLSERIAL", "SERIAL2":
		return NewInteger(Width16)

	case "REAL", "FLOAT4":
		return NewFloat(FloatWidth32)
	case "FLOAT", "FLOAT8", "DOUBLE", "DOUBLE PRECISION":
		return NewFloat(FloatWidth64)

	case "NUMERIC", "DECIMAL", "DEC":
		p, s := decimalArgs(args)
		return NewDecimal(p, s)

	case "TEXT", "CLOB", "LONGTEXT", "MEDIUMTEXT", "TINYTEXT":
		return NewText(false)
	case "VARCHAR", "CHARACTER VARYING", "CHAR", "CHARACTER", "NVARCHAR", "NCHAR":
		return NewText(len(args) > 0)

	case "BLOB", "BYTEA", "VARBINARY", "BINARY":
		return NewBytea()

	case "BOOLEAN", "BOOL":
		return NewBoolean()

	case "DATE":
		return NewDate()
	case "TIME":
		return NewTime()
	case "TIMESTAMP", "DATETIME":
		return NewTimestamp(false)
	case "TIMESTAMPTZ":
		return NewTimestamp(true)
	case "INTERVAL":
		return NewInterval()

	case "UUID":
		return NewUuid()
	case "JSON":
		return NewJSON(false)
	case "JSONB":
		return NewJSON(true)

	default:
		return NewUnknown()
	}
}

func splitArgs(upper string) (base string, args string) {
	idx := strings.IndexByte(upper, '(')
	if idx < 0 {
		return strings.TrimSpace(upper), ""
	}
	end := strings.IndexByte(upper[idx:], ')')
	if end < 0 {
		return strings.TrimSpace(upper[:idx]), ""
	}
	return strings.TrimSpace(upper[:idx]), upper[idx+1 : idx+end]
}

func decimalArgs(args string) (precision, scale int) {
	if args == "" {
		return UnspecifiedPrecision, 0
	}
	parts := strings.Split(args, ",")
	if len(parts) >= 1 {
		precision, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	}
	if len(parts) >= 2 {
		scale, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	return precision, scale
}
