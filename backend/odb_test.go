package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ids as computed by `git hash-object`.
const (
	emptyBlobOID = "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"
	helloBlobOID = "ce013625030ba8dba906f756967f9e9ca394464a" // "hello\n"
)

func TestHashObject(t *testing.T) {
	assert.Equal(t, emptyBlobOID, HashObject(ObjectBlob, nil).String())
	assert.Equal(t, helloBlobOID, HashObject(ObjectBlob, []byte("hello\n")).String())
}

func TestODB_WriteRead(t *testing.T) {
	ctx := context.Background()
	odb := newTestBackend(t).ODB()

	oid, err := odb.Write(ctx, ObjectBlob, []byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, helloBlobOID, oid.String())

	// Writing the same object twice is fine
	again, err := odb.Write(ctx, ObjectBlob, []byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, oid, again)

	obj, err := odb.Read(ctx, oid)
	require.NoError(t, err)
	assert.Equal(t, ObjectBlob, obj.Type)
	assert.Equal(t, []byte("hello\n"), obj.Data)
	assert.Equal(t, int64(6), obj.Size())

	typ, size, err := odb.ReadHeader(ctx, oid)
	require.NoError(t, err)
	assert.Equal(t, ObjectBlob, typ)
	assert.Equal(t, int64(6), size)

	exists, err := odb.Exists(ctx, oid)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestODB_Missing(t *testing.T) {
	ctx := context.Background()
	odb := newTestBackend(t).ODB()
	oid := mustOID(t, mainOID)

	_, err := odb.Read(ctx, oid)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = odb.ReadHeader(ctx, oid)
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := odb.Exists(ctx, oid)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestODB_WriteInvalidType(t *testing.T) {
	_, err := newTestBackend(t).ODB().Write(context.Background(), ObjectInvalid, []byte("x"))
	assert.Error(t, err)
}

func TestODB_ReadPrefix(t *testing.T) {
	ctx := context.Background()
	odb := newTestBackend(t).ODB()

	hello, err := odb.Write(ctx, ObjectBlob, []byte("hello\n"))
	require.NoError(t, err)
	_, err = odb.Write(ctx, ObjectBlob, nil)
	require.NoError(t, err)

	obj, err := odb.ReadPrefix(ctx, "ce01")
	require.NoError(t, err)
	assert.Equal(t, hello, obj.ID)

	obj, err = odb.ReadPrefix(ctx, "CE013625")
	require.NoError(t, err)
	assert.Equal(t, hello, obj.ID)

	obj, err = odb.ReadPrefix(ctx, helloBlobOID)
	require.NoError(t, err)
	assert.Equal(t, hello, obj.ID)

	_, err = odb.ReadPrefix(ctx, "ce0")
	assert.ErrorIs(t, err, ErrInvalidOID)

	_, err = odb.ReadPrefix(ctx, "zzzz")
	assert.ErrorIs(t, err, ErrInvalidOID)

	_, err = odb.ReadPrefix(ctx, "0000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestODB_ReadPrefixAmbiguous(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	for _, id := range []string{
		"abcd000000000000000000000000000000000001",
		"abcd000000000000000000000000000000000002",
	} {
		_, err := b.db.ExecContext(ctx, "INSERT INTO git2_odb (oid, type, size, data) VALUES (?, ?, ?, ?)", id, int(ObjectBlob), 0, []byte{})
		require.NoError(t, err)
	}

	_, err := b.ODB().ReadPrefix(ctx, "abcd")
	assert.ErrorIs(t, err, ErrAmbiguous)

	obj, err := b.ODB().ReadPrefix(ctx, "abcd0000000000000000000000000000000000")
	assert.ErrorIs(t, err, ErrAmbiguous)
	assert.Nil(t, obj)
}

func TestODB_ForEach(t *testing.T) {
	ctx := context.Background()
	odb := newTestBackend(t).ODB()

	for _, data := range []string{"hello\n", "", "tree contents"} {
		_, err := odb.Write(ctx, ObjectBlob, []byte(data))
		require.NoError(t, err)
	}

	var seen []string
	require.NoError(t, odb.ForEach(ctx, func(oid OID) error {
		seen = append(seen, oid.String())
		return nil
	}))
	assert.Len(t, seen, 3)
	assert.IsNonDecreasing(t, seen)

	stop := errors.New("stop")
	calls := 0
	err := odb.ForEach(ctx, func(OID) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestParseObjectType(t *testing.T) {
	for _, typ := range []ObjectType{ObjectCommit, ObjectTree, ObjectBlob, ObjectTag} {
		parsed, err := ParseObjectType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}

	_, err := ParseObjectType("ofs-delta")
	assert.Error(t, err)
	assert.Equal(t, "invalid", ObjectInvalid.String())
}

func TestParseOID(t *testing.T) {
	oid, err := ParseOID(mainOID)
	require.NoError(t, err)
	assert.Equal(t, mainOID, oid.String())
	assert.False(t, oid.IsZero())

	for _, bad := range []string{"", "8496071c", mainOID + "0", "zz96071c1b46c854b31185ea97743be6a8774479"} {
		_, err := ParseOID(bad)
		assert.ErrorIs(t, err, ErrInvalidOID, bad)
	}

	assert.True(t, OID{}.IsZero())
}
