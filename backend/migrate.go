package backend

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// LatestVersion migrates to the newest schema.
const LatestVersion = -1

// MigrateResult describes what a migration did.
type MigrateResult struct {
	From    uint
	To      uint
	Changed bool
}

func (r MigrateResult) String() string {
	if !r.Changed {
		return fmt.Sprintf("schema already at version %d", r.To)
	}
	return fmt.Sprintf("migrated schema from version %d to version %d", r.From, r.To)
}

// Migrate brings the git2_refdb and git2_odb schema to targetVersion.
//   - If targetVersion < 0, it migrates to the latest version.
//   - If targetVersion == 0, it rolls back all migrations.
//   - If targetVersion > 0, it migrates to that version.
//
// The database handle is left open and no connection stays reserved.
func Migrate(db *sql.DB, dialect Dialect, targetVersion int) (MigrateResult, error) {
	var result MigrateResult

	var driver database.Driver
	var err error
	switch dialect {
	case MySQL:
		// The MySQL driver pins a connection for its advisory lock. Hand it
		// one of our own and release it to the pool afterwards; closing the
		// driver would close db as well.
		var conn *sql.Conn
		conn, err = db.Conn(context.Background())
		if err != nil {
			return result, fmt.Errorf("failed to reserve a MySQL connection: %w", err)
		}
		defer func() { _ = conn.Close() }()

		driver, err = mysql.WithConnection(context.Background(), conn, &mysql.Config{})
		if err != nil {
			return result, fmt.Errorf("failed to create MySQL migrate driver: %w", err)
		}
	case SQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			return result, fmt.Errorf("failed to create SQLite migrate driver: %w", err)
		}
	default:
		return result, fmt.Errorf("unsupported dialect: %q", dialect)
	}

	migrationFS, err := fs.Sub(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return result, fmt.Errorf("failed to access migrations directory: %w", err)
	}
	sourceDriver, err := iofs.New(migrationFS, ".")
	if err != nil {
		return result, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, string(dialect), driver)
	if err != nil {
		return result, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return result, fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return result, fmt.Errorf("database is in a dirty state at version %d, fix manually or force the version", current)
	}
	result.From = current

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return result, fmt.Errorf("failed to migrate to version %d: %w", targetVersion, err)
	}
	result.Changed = err == nil

	to, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return result, fmt.Errorf("failed to read migrated version: %w", err)
	}
	result.To = to
	return result, nil
}
