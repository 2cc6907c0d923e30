// Package backend stores git references and objects in a SQL database.
//
// It is the storage half of rugged-mysql: a reference database (RefDB)
// backed by the git2_refdb table and an object database (ODB) backed by
// git2_odb. MySQL is the production dialect; SQLite is supported for local
// use and tests.
//
// # Reference Encoding
//
// Each row of git2_refdb holds a reference name and its value. A direct
// reference is stored as the 40 character hex object id, a symbolic one as
// "ref: " followed by the target name. Any other value is reported as
// ErrCorrupted.
//
// # Usage
//
//	b, err := backend.New(ctx, backend.Options{Database: "git"})
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//
//	ref, err := b.RefDB().Lookup(ctx, "refs/heads/main")
package backend
