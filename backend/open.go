package backend

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite" // SQLite driver
)

// Open connects to a database and verifies the connection.
//
// For MySQL, dsn is a go-sql-driver data source name (see Options.DSN). For
// SQLite it is a file path or ":memory:".
func Open(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	var db *sql.DB

	switch dialect {
	case MySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to parse MySQL DSN: %w", err)
		}
		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create MySQL connector: %w", err)
		}
		db = sql.OpenDB(connector)

	case SQLite:
		var err error
		db, err = sql.Open(dialect.driverName(), dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w", dsn, err)
		}
		// A single connection avoids "database is locked" and keeps
		// :memory: databases alive across queries.
		db.SetMaxOpenConns(1)

	default:
		return nil, fmt.Errorf("unsupported dialect: %q", dialect)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect, err)
	}
	return db, nil
}
