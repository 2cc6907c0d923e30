package ruggedmysql

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchesPattern checks if a filename matches any of the given regex patterns.
//
// Invalid patterns are skipped.
//
// # Example
//
//	if MatchesPattern(filename, `extconf\.rb$`) {
//	    // Handle extconf.rb
//	}
func MatchesPattern(filename string, patterns ...string) bool {
	for _, pattern := range patterns {
		if matched, _ := regexp.MatchString(pattern, filename); matched {
			return true
		}
	}
	return false
}

// MatchesExtension checks, case-insensitively, if a filename has any of the
// given extensions (with or without leading dot).
func MatchesExtension(filename string, extensions ...string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(strings.ToLower(filename), strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// BuildError creates a standardized build error with output context.
// The underlying error stays reachable through errors.Is and errors.As.
//
// # Format
//
// With error and output:
//
//	Make build failed: exit status 2
//
//	Build output:
//	cc -fPIC -I/usr/include/mysql -c rugged_mysql.c
//	rugged_mysql.c:1:10: fatal error: git2.h: No such file or directory
//
// With error but no output:
//
//	Make build failed: exit status 2
//
// With output but no error:
//
//	Make build failed
//
//	Build output:
//	... output lines ...
func BuildError(builder string, output []string, err error) error {
	outputStr := strings.TrimRight(strings.Join(output, "\n"), "\n")

	switch {
	case err != nil && outputStr != "":
		return fmt.Errorf("%s build failed: %w\n\nBuild output:\n%s", builder, err, outputStr)
	case err != nil:
		return fmt.Errorf("%s build failed: %w", builder, err)
	case outputStr != "":
		return fmt.Errorf("%s build failed\n\nBuild output:\n%s", builder, outputStr)
	default:
		return fmt.Errorf("%s build failed", builder)
	}
}
