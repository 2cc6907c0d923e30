package ruggedmysql

import (
	"regexp"
	"strings"
)

// Fixed flags appended after the include paths.
const (
	debugFlag        = "-g"
	optimizationFlag = "-O3"
)

var warningFlags = []string{"-Wall", "-Wno-comment", "-Wno-sizeof-pointer-memaccess"}

// optimizationPattern matches an explicit optimization level such as -O2.
// -Os, -Og and a bare -O do not count.
var optimizationPattern = regexp.MustCompile(`-O\d`)

// CFlags is an ordered sequence of compiler flags.
//
// Order is significant only because the Makefile generator consumes the
// sequence verbatim. Flags are never validated here; malformed flags surface
// when the compiler runs.
type CFlags []string

// String joins the flags with single spaces.
func (f CFlags) String() string {
	return strings.Join(f, " ")
}

// HasOptimization reports whether any flag already sets an optimization level.
func (f CFlags) HasOptimization() bool {
	for _, flag := range f {
		if optimizationPattern.MatchString(flag) {
			return true
		}
	}
	return false
}

// AssembleCFlags builds the compiler flags for an extension build.
//
// The sequence is:
//  1. override, verbatim and unsplit (skipped when blank)
//  2. -I<dir> for each include directory, in order
//  3. -g
//  4. -O3, only when no earlier flag matches -O<digit>
//  5. -Wall -Wno-comment -Wno-sizeof-pointer-memaccess
//
// # Example
//
//	flags := AssembleCFlags("-O0 -DDEBUG", []string{"/usr/include/mysql"})
//	// [-O0 -DDEBUG -I/usr/include/mysql -g -Wall -Wno-comment -Wno-sizeof-pointer-memaccess]
func AssembleCFlags(override string, includeDirs []string) CFlags {
	var flags CFlags

	if strings.TrimSpace(override) != "" {
		flags = append(flags, override)
	}

	for _, dir := range includeDirs {
		if dir == "" {
			continue
		}
		flags = append(flags, "-I"+dir)
	}

	flags = append(flags, debugFlag)
	if !flags.HasOptimization() {
		flags = append(flags, optimizationFlag)
	}

	return append(flags, warningFlags...)
}
