package backend

import (
	"fmt"
	"strings"
)

// Dialect selects the SQL flavour a backend speaks.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// Table names.
const (
	refdbTable = "git2_refdb"
	odbTable   = "git2_odb"
)

// ParseDialect parses a dialect name, case-insensitively.
func ParseDialect(name string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(name))) {
	case MySQL:
		return MySQL, nil
	case SQLite, "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported dialect: %q", name)
	}
}

func (d Dialect) String() string {
	return string(d)
}

// driverName is the database/sql driver registered for the dialect.
func (d Dialect) driverName() string {
	return string(d)
}

// upsertRefQuery inserts or replaces a reference row.
func (d Dialect) upsertRefQuery() string {
	if d == SQLite {
		return "INSERT INTO " + refdbTable + " (refname, ref) VALUES (?, ?) ON CONFLICT(refname) DO UPDATE SET ref = excluded.ref"
	}
	return "INSERT INTO " + refdbTable + " (refname, ref) VALUES (?, ?) ON DUPLICATE KEY UPDATE ref = VALUES(ref)"
}

// insertObjectQuery inserts an object and leaves an existing row alone.
func (d Dialect) insertObjectQuery() string {
	if d == SQLite {
		return "INSERT OR IGNORE INTO " + odbTable + " (oid, type, size, data) VALUES (?, ?, ?, ?)"
	}
	return "INSERT IGNORE INTO " + odbTable + " (oid, type, size, data) VALUES (?, ?, ?, ?)"
}
