package ruggedmysql

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Program names searched in PATH.
const (
	gmakeProgram     = "gmake"
	makeProgram      = "make"
	cmakeProgram     = "cmake"
	rubyProgram      = "ruby"
	pkgConfigProgram = "pkg-config"
)

// mysqlIncludeDir is where distributions install the MySQL client headers.
const mysqlIncludeDir = "/usr/include/mysql"

// Variant describes one flavour of the storage-backend extension.
//
// The MySQL and Redis extensions share the whole configure pass and differ
// only in how their native headers are found and in the artifact they emit.
type Variant struct {
	// Name identifies the variant on the command line ("mysql", "redis").
	Name string

	// Target is the create_makefile target, e.g. "rugged/redis/rugged-mysql".
	// Its last path element names the shared library.
	Target string

	// IncludeDirs are fixed header directories searched before rugged's.
	IncludeDirs []string

	// PkgConfig names a library whose cflags are looked up through
	// pkg-config. The lookup is optional: a missing pkg-config or package
	// adds nothing.
	PkgConfig string

	// OptionalTools are secondary tools that are looked up but never
	// required. cmake is the only one in use.
	OptionalTools []string
}

// MySQLVariant returns the MySQL backend extension.
//
// The target keeps the redis path segment the extension has always been
// built under.
func MySQLVariant() *Variant {
	return &Variant{
		Name:        "mysql",
		Target:      "rugged/redis/rugged-mysql",
		IncludeDirs: []string{mysqlIncludeDir},
	}
}

// RedisVariant returns the Redis backend extension.
func RedisVariant() *Variant {
	return &Variant{
		Name:          "redis",
		Target:        "rugged/redis/rugged_redis",
		PkgConfig:     "hiredis",
		OptionalTools: []string{cmakeProgram},
	}
}

var variants = map[string]func() *Variant{
	"mysql": MySQLVariant,
	"redis": RedisVariant,
}

// LookupVariant returns the variant registered under name.
func LookupVariant(name string) (*Variant, error) {
	ctor, ok := variants[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown extension variant %q (known: %s)", name, strings.Join(VariantNames(), ", "))
	}
	return ctor(), nil
}

// VariantNames lists the registered variant names in sorted order.
func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RuggedIncludeDirs returns the rugged and vendored libgit2 header
// directories inside an installed rugged gem.
func RuggedIncludeDirs(ruggedDir string) []string {
	return []string{
		filepath.Join(ruggedDir, "ext", "rugged"),
		filepath.Join(ruggedDir, "vendor", "libgit2", "include"),
		filepath.Join(ruggedDir, "vendor", "libgit2", "src"),
	}
}

// HeaderDirs returns every include directory for this variant, fixed
// directories first, then rugged's, then those reported by pkg-config.
func (v *Variant) HeaderDirs(ctx context.Context, ruggedDir string) []string {
	dirs := append([]string{}, v.IncludeDirs...)
	if ruggedDir != "" {
		dirs = append(dirs, RuggedIncludeDirs(ruggedDir)...)
	}
	if v.PkgConfig != "" {
		dirs = append(dirs, pkgConfigIncludeDirs(ctx, v.PkgConfig)...)
	}
	return uniqueStrings(dirs)
}

// pkgConfigIncludeDirs asks pkg-config for a package's -I directories.
func pkgConfigIncludeDirs(ctx context.Context, pkg string) []string {
	path, err := execLookPath(pkgConfigProgram)
	if err != nil {
		return nil
	}

	output, err := execCommandContext(ctx, path, "--cflags-only-I", pkg).Output()
	if err != nil {
		return nil
	}

	var dirs []string
	for _, field := range strings.Fields(string(output)) {
		if dir, ok := strings.CutPrefix(field, "-I"); ok && dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

