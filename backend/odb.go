package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ObjectType is the git object type, numbered as libgit2 does.
type ObjectType int8

const (
	ObjectInvalid ObjectType = 0
	ObjectCommit  ObjectType = 1
	ObjectTree    ObjectType = 2
	ObjectBlob    ObjectType = 3
	ObjectTag     ObjectType = 4
)

var objectTypeNames = map[ObjectType]string{
	ObjectCommit: "commit",
	ObjectTree:   "tree",
	ObjectBlob:   "blob",
	ObjectTag:    "tag",
}

func (t ObjectType) String() string {
	if name, ok := objectTypeNames[t]; ok {
		return name
	}
	return "invalid"
}

// ParseObjectType parses "commit", "tree", "blob" or "tag".
func ParseObjectType(name string) (ObjectType, error) {
	for t, n := range objectTypeNames {
		if strings.EqualFold(n, name) {
			return t, nil
		}
	}
	return ObjectInvalid, fmt.Errorf("invalid object type: %q", name)
}

// Object is a stored git object.
type Object struct {
	ID   OID
	Type ObjectType
	Data []byte
}

// Size is the length of the object data.
func (o *Object) Size() int64 {
	return int64(len(o.Data))
}

// ODB stores objects in the git2_odb table, keyed by hex object id.
type ODB struct {
	db      *sql.DB
	dialect Dialect
}

// NewODB returns an object database on an already migrated db.
func NewODB(db *sql.DB, dialect Dialect) *ODB {
	return &ODB{db: db, dialect: dialect}
}

// Write stores data as an object of type t and returns its id. Writing an
// object that is already stored is not an error.
func (o *ODB) Write(ctx context.Context, t ObjectType, data []byte) (OID, error) {
	if _, ok := objectTypeNames[t]; !ok {
		return OID{}, fmt.Errorf("invalid object type: %d", t)
	}
	if data == nil {
		data = []byte{}
	}

	oid := HashObject(t, data)
	if _, err := o.db.ExecContext(ctx, o.dialect.insertObjectQuery(), oid.String(), int(t), len(data), data); err != nil {
		return OID{}, fmt.Errorf("failed to write object %s: %w", oid, err)
	}
	return oid, nil
}

// Read returns the object with the given id.
func (o *ODB) Read(ctx context.Context, oid OID) (*Object, error) {
	obj := &Object{ID: oid}
	var t int
	err := o.db.QueryRowContext(ctx, "SELECT type, data FROM "+odbTable+" WHERE oid = ?", oid.String()).Scan(&t, &obj.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("object %s: %w", oid, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", oid, err)
	}
	obj.Type = ObjectType(t)
	return obj, nil
}

// ReadHeader returns the type and size of an object without its data.
func (o *ODB) ReadHeader(ctx context.Context, oid OID) (ObjectType, int64, error) {
	var t int
	var size int64
	err := o.db.QueryRowContext(ctx, "SELECT type, size FROM "+odbTable+" WHERE oid = ?", oid.String()).Scan(&t, &size)
	if errors.Is(err, sql.ErrNoRows) {
		return ObjectInvalid, 0, fmt.Errorf("object %s: %w", oid, ErrNotFound)
	}
	if err != nil {
		return ObjectInvalid, 0, fmt.Errorf("failed to read object header %s: %w", oid, err)
	}
	return ObjectType(t), size, nil
}

// ReadPrefix returns the single object whose id starts with prefix. The
// prefix must be at least MinPrefixLen hex characters; ErrAmbiguous is
// returned when more than one object matches.
func (o *ODB) ReadPrefix(ctx context.Context, prefix string) (*Object, error) {
	prefix, err := normalizePrefix(prefix)
	if err != nil {
		return nil, err
	}
	if len(prefix) == OIDHexSize {
		oid, err := ParseOID(prefix)
		if err != nil {
			return nil, err
		}
		return o.Read(ctx, oid)
	}

	rows, err := o.db.QueryContext(ctx, "SELECT oid FROM "+odbTable+" WHERE oid LIKE ? ORDER BY oid LIMIT 2", prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to look up prefix %s: %w", prefix, err)
	}

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan object id: %w", err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to look up prefix %s: %w", prefix, err)
	}
	_ = rows.Close()

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("object prefix %s: %w", prefix, ErrNotFound)
	case 1:
		oid, err := ParseOID(matches[0])
		if err != nil {
			return nil, err
		}
		return o.Read(ctx, oid)
	default:
		return nil, fmt.Errorf("object prefix %s: %w", prefix, ErrAmbiguous)
	}
}

// Exists reports whether the object is stored.
func (o *ODB) Exists(ctx context.Context, oid OID) (bool, error) {
	var one int
	err := o.db.QueryRowContext(ctx, "SELECT 1 FROM "+odbTable+" WHERE oid = ?", oid.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up object %s: %w", oid, err)
	}
	return true, nil
}

// ForEach calls fn with every stored object id, in id order. It stops at the
// first error fn returns.
func (o *ODB) ForEach(ctx context.Context, fn func(OID) error) error {
	rows, err := o.db.QueryContext(ctx, "SELECT oid FROM "+odbTable+" ORDER BY oid")
	if err != nil {
		return fmt.Errorf("failed to list objects: %w", err)
	}

	var ids []OID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan object id: %w", err)
		}
		oid, err := ParseOID(id)
		if err != nil {
			_ = rows.Close()
			return err
		}
		ids = append(ids, oid)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("failed to list objects: %w", err)
	}
	_ = rows.Close()

	for _, oid := range ids {
		if err := fn(oid); err != nil {
			return err
		}
	}
	return nil
}
