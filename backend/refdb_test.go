package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefDB_WriteLookup(t *testing.T) {
	ctx := context.Background()
	refdb := newTestBackend(t).RefDB()

	require.NoError(t, refdb.Write(ctx, NewOIDReference("refs/heads/main", mustOID(t, mainOID)), false))
	require.NoError(t, refdb.Write(ctx, NewSymbolicReference("HEAD", "refs/heads/main"), false))

	ref, err := refdb.Lookup(ctx, "refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, ReferenceOID, ref.Type)
	assert.Equal(t, mainOID, ref.Target.String())

	head, err := refdb.Lookup(ctx, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, ReferenceSymbolic, head.Type)
	assert.Equal(t, "refs/heads/main", head.SymbolicTarget)
	assert.Equal(t, "HEAD -> refs/heads/main", head.String())

	exists, err := refdb.Exists(ctx, "HEAD")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = refdb.Exists(ctx, "refs/heads/missing")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = refdb.Lookup(ctx, "refs/heads/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefDB_WriteForce(t *testing.T) {
	ctx := context.Background()
	refdb := newTestBackend(t).RefDB()

	require.NoError(t, refdb.Write(ctx, NewOIDReference("refs/heads/main", mustOID(t, mainOID)), false))

	err := refdb.Write(ctx, NewOIDReference("refs/heads/main", mustOID(t, featureOID)), false)
	require.ErrorIs(t, err, ErrExists)

	ref, err := refdb.Lookup(ctx, "refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, mainOID, ref.Target.String(), "failed write must not change the reference")

	require.NoError(t, refdb.Write(ctx, NewOIDReference("refs/heads/main", mustOID(t, featureOID)), true))

	ref, err = refdb.Lookup(ctx, "refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, featureOID, ref.Target.String())
}

func TestRefDB_WriteInvalidReference(t *testing.T) {
	refdb := newTestBackend(t).RefDB()

	err := refdb.Write(context.Background(), &Reference{Name: "refs/heads/bad"}, false)
	assert.Error(t, err)

	err = refdb.Write(context.Background(), NewSymbolicReference("HEAD", ""), false)
	assert.Error(t, err)
}

func TestRefDB_CorruptedValues(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	rows := map[string]string{
		"refs/heads/short":    "8496071c",
		"refs/heads/trailing": mainOID + "x",
		"refs/heads/nothex":   "zz96071c1b46c854b31185ea97743be6a8774479",
		"refs/heads/spaced":   mainOID + "\n",
	}
	for name, value := range rows {
		_, err := b.db.ExecContext(ctx, "INSERT INTO git2_refdb (refname, ref) VALUES (?, ?)", name, value)
		require.NoError(t, err)
	}

	for _, name := range []string{"refs/heads/short", "refs/heads/trailing", "refs/heads/nothex"} {
		_, err := b.RefDB().Lookup(ctx, name)
		assert.ErrorIs(t, err, ErrCorrupted, name)
	}

	ref, err := b.RefDB().Lookup(ctx, "refs/heads/spaced")
	require.NoError(t, err)
	assert.Equal(t, mainOID, ref.Target.String())

	// Corrupted rows are skipped during iteration
	refs, err := b.RefDB().List(ctx, "")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "refs/heads/spaced", refs[0].Name)
}

func TestRefDB_Iterator(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	refdb := b.RefDB()

	for _, name := range []string{"refs/heads/main", "refs/heads/feature/one", "refs/tags/v1.0"} {
		require.NoError(t, refdb.Write(ctx, NewOIDReference(name, mustOID(t, mainOID)), false))
	}
	_, err := b.db.ExecContext(ctx, "INSERT INTO git2_refdb (refname, ref) VALUES (?, ?)", "refs/heads/main.lock", mainOID)
	require.NoError(t, err)

	tests := []struct {
		name string
		glob string
		want []string
	}{
		{"all", "", []string{"refs/heads/feature/one", "refs/heads/main", "refs/tags/v1.0"}},
		{"star crosses slashes", "refs/heads/*", []string{"refs/heads/feature/one", "refs/heads/main"}},
		{"question mark", "refs/tags/v?.0", []string{"refs/tags/v1.0"}},
		{"bracket", "refs/[t]ags/*", []string{"refs/tags/v1.0"}},
		{"no match", "refs/remotes/*", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := refdb.Iterator(ctx, tt.glob)
			require.NoError(t, err)

			var got []string
			for {
				name, err := it.NextName(ctx)
				if errors.Is(err, ErrIterOver) {
					break
				}
				require.NoError(t, err)
				got = append(got, name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRefDB_IteratorSkipsDeleted(t *testing.T) {
	ctx := context.Background()
	refdb := newTestBackend(t).RefDB()

	require.NoError(t, refdb.Write(ctx, NewOIDReference("refs/heads/a", mustOID(t, mainOID)), false))
	require.NoError(t, refdb.Write(ctx, NewOIDReference("refs/heads/b", mustOID(t, mainOID)), false))

	it, err := refdb.Iterator(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, it.Len())

	require.NoError(t, refdb.Delete(ctx, "refs/heads/a"))

	ref, err := it.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/b", ref.Name)

	_, err = it.Next(ctx)
	assert.ErrorIs(t, err, ErrIterOver)
}

func TestRefDB_Delete(t *testing.T) {
	ctx := context.Background()
	refdb := newTestBackend(t).RefDB()

	require.NoError(t, refdb.Write(ctx, NewOIDReference("refs/heads/main", mustOID(t, mainOID)), false))
	require.NoError(t, refdb.Delete(ctx, "refs/heads/main"))

	_, err := refdb.Lookup(ctx, "refs/heads/main")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, refdb.Delete(ctx, "refs/heads/main"), ErrNotFound)
}

func TestRefDB_Rename(t *testing.T) {
	ctx := context.Background()
	refdb := newTestBackend(t).RefDB()

	require.NoError(t, refdb.Write(ctx, NewOIDReference("refs/heads/old", mustOID(t, mainOID)), false))
	require.NoError(t, refdb.Write(ctx, NewOIDReference("refs/heads/taken", mustOID(t, featureOID)), false))

	_, err := refdb.Rename(ctx, "refs/heads/old", "refs/heads/taken", false)
	require.ErrorIs(t, err, ErrExists)

	renamed, err := refdb.Rename(ctx, "refs/heads/old", "refs/heads/new", false)
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/new", renamed.Name)
	assert.Equal(t, mainOID, renamed.Target.String())

	exists, err := refdb.Exists(ctx, "refs/heads/old")
	require.NoError(t, err)
	assert.False(t, exists)

	renamed, err = refdb.Rename(ctx, "refs/heads/new", "refs/heads/taken", true)
	require.NoError(t, err)

	ref, err := refdb.Lookup(ctx, "refs/heads/taken")
	require.NoError(t, err)
	assert.Equal(t, renamed.Target, ref.Target)
	assert.Equal(t, mainOID, ref.Target.String())

	_, err = refdb.Rename(ctx, "refs/heads/missing", "refs/heads/other", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefDB_RenameChecksTargetFirst(t *testing.T) {
	ctx := context.Background()
	refdb := newTestBackend(t).RefDB()

	require.NoError(t, refdb.Write(ctx, NewOIDReference("refs/heads/main", mustOID(t, mainOID)), false))

	_, err := refdb.Rename(ctx, "refs/heads/main", "refs/heads/main", false)
	assert.ErrorIs(t, err, ErrExists, "renaming onto itself without force")

	renamed, err := refdb.Rename(ctx, "refs/heads/main", "refs/heads/main", true)
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/main", renamed.Name)

	_, err = refdb.Rename(ctx, "refs/heads/missing", "refs/heads/main", false)
	assert.ErrorIs(t, err, ErrExists, "an occupied target is reported before a missing source")

	_, err = refdb.Rename(ctx, "refs/heads/missing", "refs/heads/main", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefDB_NonASCIIGlob(t *testing.T) {
	ctx := context.Background()
	refdb := newTestBackend(t).RefDB()

	require.NoError(t, refdb.Write(ctx, NewOIDReference("refs/heads/café", mustOID(t, mainOID)), false))
	require.NoError(t, refdb.Write(ctx, NewOIDReference("refs/heads/cafe", mustOID(t, featureOID)), false))

	refs, err := refdb.List(ctx, "refs/heads/café")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "refs/heads/café", refs[0].Name)

	// é is two bytes, so one '?' matches only the plain e.
	refs, err = refdb.List(ctx, "refs/heads/caf?")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "refs/heads/cafe", refs[0].Name)

	refs, err = refdb.List(ctx, "refs/heads/caf??")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "refs/heads/café", refs[0].Name)
}

func TestRefDB_NoOps(t *testing.T) {
	ctx := context.Background()
	refdb := newTestBackend(t).RefDB()

	assert.NoError(t, refdb.Compress(ctx))
	assert.NoError(t, refdb.EnsureLog(ctx, "refs/heads/main"))

	hasLog, err := refdb.HasLog(ctx, "refs/heads/main")
	require.NoError(t, err)
	assert.False(t, hasLog)

	reflog, err := refdb.ReflogRead(ctx, "refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/main", reflog.Name)
	assert.Empty(t, reflog.Entries)

	assert.NoError(t, refdb.ReflogWrite(ctx, reflog))
	assert.NoError(t, refdb.ReflogRename(ctx, "refs/heads/main", "refs/heads/other"))
	assert.NoError(t, refdb.ReflogDelete(ctx, "refs/heads/main"))
}

func TestCompileGlob(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"refs/heads/*", "refs/heads/main", true},
		{"refs/heads/*", "refs/heads/a/b", true},
		{"refs/heads/*", "refs/tags/v1", false},
		{"refs/tags/v?", "refs/tags/v1", true},
		{"refs/tags/v?", "refs/tags/v10", false},
		{"refs/tags/v[0-9]", "refs/tags/v7", true},
		{"refs/tags/v[!0-9]", "refs/tags/v7", false},
		{"refs/tags/v[^0-9]", "refs/tags/vx", true},
		{"refs/heads/a.b", "refs/heads/axb", false},
		{`refs/heads/\*`, "refs/heads/*", true},
		{`refs/heads/\*`, "refs/heads/main", false},
		{"refs/heads/[main", "refs/heads/[main", true},
		{"refs/[]]x", "refs/]x", true},
		{"refs/heads/café", "refs/heads/café", true},
		{"refs/heads/caf*", "refs/heads/café", true},
		{"refs/heads/caf?", "refs/heads/café", false},
		{"refs/heads/caf??", "refs/heads/café", true},
		{`refs/heads/caf\é`, "refs/heads/café", true},
		{"refs/heads/caf[é]", "refs/heads/cafe", false},
		{"refs/heads/?", "refs/heads/\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.name, func(t *testing.T) {
			g, err := compileGlob(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.Match(tt.name))
		})
	}
}
