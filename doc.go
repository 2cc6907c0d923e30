// Package ruggedmysql configures and builds the rugged storage-backend extensions
// (MySQL and Redis) without running extconf.rb.
//
// It is the Go equivalent of the extension's build-configuration script: it assembles
// the compiler flags, locates the build tools and emits the native Makefile that
// compiles the extension against rugged's vendored libgit2 headers.
//
// # Configure
//
// A configure run is a single linear pass:
//
//	cfg, err := ruggedmysql.NewConfigurator().Configure(ctx, ruggedmysql.ConfigureOptions{
//	    Variant:        ruggedmysql.MySQLVariant(),
//	    ExtensionDir:   "ext/rugged/mysql",
//	    CFlagsOverride: os.Getenv("CFLAGS"),
//	})
//
//  1. Locate the installed rugged gem
//  2. Assemble CFLAGS (override, include paths, -g, -O3, warnings)
//  3. Find gmake or make, abort if neither exists
//  4. Optionally find cmake
//  5. Emit the Makefile through a MakefileGenerator
//
// # Building
//
// The BuilderFactory wires the configure step into a
// configure/build/find pipeline:
//
//	BuilderFactory
//	├── ExtConfBuilder (extconf.rb directories: configure + make + install)
//	└── CmakeBuilder (CMakeLists.txt, vendored libgit2)
//
// # Backend
//
// The backend subpackage implements the reference and object databases the
// extension exposes, stored in MySQL (or SQLite for local use).
package ruggedmysql
