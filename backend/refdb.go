package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// lockSuffix marks lock files of the filesystem backend. Such names are
// never listed.
const lockSuffix = ".lock"

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RefDB stores references in the git2_refdb table.
type RefDB struct {
	db      *sql.DB
	dialect Dialect
}

// NewRefDB returns a reference database on an already migrated db.
func NewRefDB(db *sql.DB, dialect Dialect) *RefDB {
	return &RefDB{db: db, dialect: dialect}
}

// Exists reports whether a reference named name is stored.
func (r *RefDB) Exists(ctx context.Context, name string) (bool, error) {
	return refExists(ctx, r.db, name)
}

// Lookup returns the reference named name, ErrNotFound when there is none
// and ErrCorrupted when its stored value cannot be parsed.
func (r *RefDB) Lookup(ctx context.Context, name string) (*Reference, error) {
	return lookupRef(ctx, r.db, name)
}

// Iterator returns an iterator over the references matching the fnmatch
// pattern, or over all references when pattern is empty. Names ending in ".lock" are skipped.
//
// The matching names are read up front; references deleted afterwards are
// skipped during iteration.
func (r *RefDB) Iterator(ctx context.Context, pattern string) (*RefIterator, error) {
	var matcher *glob
	if pattern != "" {
		var err error
		if matcher, err = compileGlob(pattern); err != nil {
			return nil, fmt.Errorf("invalid reference glob %q: %w", pattern, err)
		}
	}

	rows, err := r.db.QueryContext(ctx, "SELECT refname FROM "+refdbTable+" ORDER BY refname")
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan reference name: %w", err)
		}
		if strings.HasSuffix(name, lockSuffix) {
			continue
		}
		if matcher != nil && !matcher.Match(name) {
			continue
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}

	return &RefIterator{refdb: r, names: names}, nil
}

// List returns every reference matching pattern. References that fail to load
// are left out.
func (r *RefDB) List(ctx context.Context, pattern string) ([]*Reference, error) {
	it, err := r.Iterator(ctx, pattern)
	if err != nil {
		return nil, err
	}

	var refs []*Reference
	for {
		ref, err := it.Next(ctx)
		if errors.Is(err, ErrIterOver) {
			return refs, nil
		}
		if err != nil {
			return refs, err
		}
		refs = append(refs, ref)
	}
}

// Write stores ref. Without force an existing reference of the same name
// makes Write fail with ErrExists; with force it is replaced.
func (r *RefDB) Write(ctx context.Context, ref *Reference, force bool) error {
	value, err := ref.encode()
	if err != nil {
		return err
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		if !force {
			exists, err := refExists(ctx, tx, ref.Name)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("failed to write reference %q: %w", ref.Name, ErrExists)
			}
		}

		if _, err := tx.ExecContext(ctx, r.dialect.upsertRefQuery(), ref.Name, value); err != nil {
			return fmt.Errorf("failed to write reference %q: %w", ref.Name, err)
		}
		return nil
	})
}

// Delete removes the reference named name, ErrNotFound if it does not exist.
func (r *RefDB) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+refdbTable+" WHERE refname = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete reference %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("reference %q: %w", name, ErrNotFound)
	}
	return nil
}

// Rename moves oldName to newName and returns the renamed reference.
//
// Without force an existing newName makes Rename fail with ErrExists. That
// check comes before oldName is looked up, so renaming a reference onto
// itself without force is ErrExists too.
func (r *RefDB) Rename(ctx context.Context, oldName, newName string, force bool) (*Reference, error) {
	var renamed *Reference

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if !force {
			exists, err := refExists(ctx, tx, newName)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("failed to rename reference %q to %q: %w", oldName, newName, ErrExists)
			}
		}

		ref, err := lookupRef(ctx, tx, oldName)
		if err != nil {
			return err
		}
		if oldName == newName {
			renamed = ref
			return nil
		}

		ref.Name = newName
		value, err := ref.encode()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+refdbTable+" WHERE refname = ?", oldName); err != nil {
			return fmt.Errorf("failed to delete reference %q: %w", oldName, err)
		}
		if _, err := tx.ExecContext(ctx, r.dialect.upsertRefQuery(), newName, value); err != nil {
			return fmt.Errorf("failed to write reference %q: %w", newName, err)
		}
		renamed = ref
		return nil
	})
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// Compress is a no-op; rows need no packing.
func (r *RefDB) Compress(context.Context) error {
	return nil
}

// HasLog always reports false. Reflogs are not stored.
func (r *RefDB) HasLog(context.Context, string) (bool, error) {
	return false, nil
}

// EnsureLog is a no-op.
func (r *RefDB) EnsureLog(context.Context, string) error {
	return nil
}

// Reflog is the log of a reference. It is always empty.
type Reflog struct {
	Name    string
	Entries []string
}

// ReflogRead returns an empty reflog for name.
func (r *RefDB) ReflogRead(_ context.Context, name string) (*Reflog, error) {
	return &Reflog{Name: name}, nil
}

// ReflogWrite is a no-op.
func (r *RefDB) ReflogWrite(context.Context, *Reflog) error {
	return nil
}

// ReflogRename is a no-op.
func (r *RefDB) ReflogRename(context.Context, string, string) error {
	return nil
}

// ReflogDelete is a no-op.
func (r *RefDB) ReflogDelete(context.Context, string) error {
	return nil
}

func (r *RefDB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func refExists(ctx context.Context, q querier, name string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+refdbTable+" WHERE refname = ?", name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up reference %q: %w", name, err)
	}
	return true, nil
}

func lookupRef(ctx context.Context, q querier, name string) (*Reference, error) {
	var raw string
	err := q.QueryRowContext(ctx, "SELECT ref FROM "+refdbTable+" WHERE refname = ?", name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reference %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up reference %q: %w", name, err)
	}
	return decodeReference(name, raw)
}

// RefIterator walks references selected by RefDB.Iterator.
type RefIterator struct {
	refdb *RefDB
	names []string
	pos   int
}

// Next returns the next reference, or ErrIterOver at the end. References
// that can no longer be loaded are skipped.
func (it *RefIterator) Next(ctx context.Context) (*Reference, error) {
	for it.pos < len(it.names) {
		name := it.names[it.pos]
		it.pos++

		ref, err := it.refdb.Lookup(ctx, name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			continue
		}
		return ref, nil
	}
	return nil, ErrIterOver
}

// NextName is Next returning only the reference name.
func (it *RefIterator) NextName(ctx context.Context) (string, error) {
	ref, err := it.Next(ctx)
	if err != nil {
		return "", err
	}
	return ref.Name, nil
}

// Len is the number of names selected when the iterator was created.
func (it *RefIterator) Len() int {
	return len(it.names)
}
