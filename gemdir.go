package ruggedmysql

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrGemNotFound is returned when an installed gem cannot be located.
var ErrGemNotFound = errors.New("gem not found")

// RuggedGem is the gem whose headers the extensions compile against.
const RuggedGem = "rugged"

// execCommandContext is swapped out in tests.
var execCommandContext = exec.CommandContext

// GemLocator finds the installation directory of an installed gem.
//
// Lookup order:
//  1. Overrides[name], when set
//  2. gems/<name>-<version> under each of GemPaths (highest version wins)
//  3. ruby -e 'print Gem::Specification.find_by_name(name).gem_dir'
type GemLocator struct {
	// Overrides maps gem names to fixed directories.
	Overrides map[string]string

	// GemPaths are gem installation roots. When empty, GEM_HOME and GEM_PATH
	// from the environment are used.
	GemPaths []string

	// RubyPath is the Ruby interpreter used as the last resort. Empty means
	// "ruby" from PATH; "-" disables the fallback.
	RubyPath string
}

// Find returns the installation directory of the named gem.
func (l *GemLocator) Find(ctx context.Context, name string) (string, error) {
	if dir := l.Overrides[name]; dir != "" {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return "", fmt.Errorf("%w: %s override %s is not a directory", ErrGemNotFound, name, dir)
		}
		return dir, nil
	}

	if dir := l.scanGemPaths(name); dir != "" {
		return dir, nil
	}

	if l.RubyPath == "-" {
		return "", fmt.Errorf("%w: %s", ErrGemNotFound, name)
	}
	return l.askRuby(ctx, name)
}

func (l *GemLocator) gemPaths() []string {
	if len(l.GemPaths) > 0 {
		return l.GemPaths
	}

	var paths []string
	if home := os.Getenv("GEM_HOME"); home != "" {
		paths = append(paths, home)
	}
	paths = append(paths, filepath.SplitList(os.Getenv("GEM_PATH"))...)
	return uniqueStrings(paths)
}

func (l *GemLocator) scanGemPaths(name string) string {
	var best, bestVersion string

	for _, root := range l.gemPaths() {
		matches, err := filepath.Glob(filepath.Join(root, "gems", name+"-*"))
		if err != nil {
			continue
		}

		for _, match := range matches {
			version := strings.TrimPrefix(filepath.Base(match), name+"-")
			if !isGemVersion(version) {
				continue
			}
			if info, err := os.Stat(match); err != nil || !info.IsDir() {
				continue
			}
			if best == "" || compareGemVersions(version, bestVersion) > 0 {
				best, bestVersion = match, version
			}
		}
	}

	return best
}

func (l *GemLocator) askRuby(ctx context.Context, name string) (string, error) {
	rubyPath := l.RubyPath
	if rubyPath == "" {
		rubyPath = rubyProgram
	}

	script := `print Gem::Specification.find_by_name(ARGV[0]).gem_dir`
	cmd := execCommandContext(ctx, rubyPath, "-e", script, name)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrGemNotFound, name, err)
	}

	dir := strings.TrimSpace(string(output))
	if dir == "" {
		return "", fmt.Errorf("%w: %s", ErrGemNotFound, name)
	}
	return dir, nil
}

// isGemVersion rejects names like rugged-mysql-0.1.0 when looking for rugged.
func isGemVersion(version string) bool {
	return version != "" && version[0] >= '0' && version[0] <= '9'
}

// compareGemVersions orders gem versions. Versions that are valid semver
// (after a "v" prefix) compare by semver; anything else, such as
// 1.0.0.beta1 or platform suffixes, falls back to segment comparison.
func compareGemVersions(a, b string) int {
	va, vb := "v"+a, "v"+b
	if semver.IsValid(va) && semver.IsValid(vb) {
		return semver.Compare(va, vb)
	}

	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}

	// A trailing non-numeric segment marks a prerelease: 1.0.0.beta1 < 1.0.0.
	switch {
	case len(as) > len(bs):
		if _, ok := parseDigits(as[len(bs)]); ok {
			return 1
		}
		return -1
	case len(as) < len(bs):
		if _, ok := parseDigits(bs[len(as)]); ok {
			return -1
		}
		return 1
	}
	return 0
}

func compareSegment(a, b string) int {
	ai, aOK := parseDigits(a)
	bi, bOK := parseDigits(b)
	if aOK && bOK {
		return ai - bi
	}
	return strings.Compare(a, b)
}

func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
