package backend

import (
	"context"
	"database/sql"
	"fmt"
)

// Backend pairs a RefDB and an ODB on one database handle.
type Backend struct {
	db      *sql.DB
	dialect Dialect
	refdb   *RefDB
	odb     *ODB
}

// New connects to MySQL with opts, migrates the schema to the latest
// version and returns the backend.
func New(ctx context.Context, opts Options) (*Backend, error) {
	dsn, err := opts.DSN()
	if err != nil {
		return nil, err
	}
	return OpenDSN(ctx, MySQL, dsn)
}

// OpenDSN is New for an explicit dialect and data source name.
func OpenDSN(ctx context.Context, dialect Dialect, dsn string) (*Backend, error) {
	db, err := Open(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := Migrate(db, dialect, LatestVersion); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate %s schema: %w", dialect, err)
	}
	return NewWithDB(db, dialect), nil
}

// NewWithDB wraps an open, migrated database. Close closes db.
func NewWithDB(db *sql.DB, dialect Dialect) *Backend {
	return &Backend{
		db:      db,
		dialect: dialect,
		refdb:   NewRefDB(db, dialect),
		odb:     NewODB(db, dialect),
	}
}

// RefDB returns the reference database.
func (b *Backend) RefDB() *RefDB {
	return b.refdb
}

// ODB returns the object database.
func (b *Backend) ODB() *ODB {
	return b.odb
}

// Dialect returns the SQL dialect in use.
func (b *Backend) Dialect() Dialect {
	return b.dialect
}

// Close releases the database handle.
func (b *Backend) Close() error {
	return b.db.Close()
}
