package ruggedmysql

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// finalizeNativeExtensions installs the compiled libraries of one extension
// and returns their paths relative to the gem root.
//
// Libraries land in DestPath, LibDir, or <gem>/lib when neither is set,
// under the extension's create_makefile target (rugged/redis/rugged-mysql.so).
// For Ruby 3.4 and later the versioned lib/<major.minor> directory is the
// primary copy and the unversioned directory gets a second one.
//
// Build outputs that are not native libraries are reported in place.
func finalizeNativeExtensions(config *BuildConfig, extensionFile, extensionDir string, built []string) ([]string, error) {
	var libraries []string
	for _, rel := range built {
		if isNativeLibrary(rel) {
			libraries = append(libraries, rel)
		}
	}
	if len(libraries) == 0 {
		return gemRelative(extensionFile, built), nil
	}

	destinations := installDestinations(config)
	if len(destinations) == 0 {
		return gemRelative(extensionFile, built), nil
	}

	var installed []string
	for _, rel := range libraries {
		src := filepath.Join(extensionDir, rel)
		if info, err := os.Stat(src); err != nil || !info.Mode().IsRegular() {
			continue
		}

		relDest := installPath(config, extensionFile, rel)
		for _, dest := range destinations {
			if err := copyFile(src, filepath.Join(dest, relDest)); err != nil {
				return nil, fmt.Errorf("install %s: %w", rel, err)
			}
		}

		primary := filepath.Join(destinations[0], relDest)
		if relPath, err := filepath.Rel(config.GemDir, primary); err == nil && config.GemDir != "" {
			primary = relPath
		}
		installed = append(installed, filepath.ToSlash(primary))
	}

	return installed, nil
}

// gemRelative reports build outputs relative to the gem root.
func gemRelative(extensionFile string, built []string) []string {
	baseDir := filepath.Dir(extensionFile)
	paths := make([]string, 0, len(built))
	for _, rel := range built {
		paths = append(paths, filepath.ToSlash(filepath.Clean(filepath.Join(baseDir, rel))))
	}
	return paths
}

func isNativeLibrary(path string) bool {
	return MatchesExtension(path, ".so", ".bundle", ".dll", ".dylib")
}

// installDestinations returns the directories every library is copied to,
// primary first.
func installDestinations(config *BuildConfig) []string {
	var bases []string
	for _, dir := range []string{config.DestPath, config.LibDir} {
		if dir == "" {
			continue
		}
		if !filepath.IsAbs(dir) && config.GemDir != "" {
			dir = filepath.Join(config.GemDir, dir)
		}
		bases = append(bases, filepath.Clean(dir))
	}
	if len(bases) == 0 && config.GemDir != "" {
		bases = append(bases, filepath.Join(config.GemDir, "lib"))
	}
	bases = uniqueStrings(bases)

	versionDir, versioned := rubyVersionDirectory(config.RubyVersion)
	if !versioned {
		return bases
	}

	var dests []string
	for _, base := range bases {
		dests = append(dests, filepath.Join(base, versionDir))
	}
	return uniqueStrings(append(dests, bases...))
}

// rubyVersionDirectory returns "3.4" for Ruby 3.4.x and later. Older rubies
// do not load from versioned lib directories.
func rubyVersionDirectory(version string) (string, bool) {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return "", false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", false
	}

	if major > 3 || (major == 3 && minor >= 4) {
		return fmt.Sprintf("%d.%d", major, minor), true
	}
	return "", false
}

// installPath is the path of a built library below a lib directory.
func installPath(config *BuildConfig, extensionFile, builtRel string) string {
	suffix := filepath.Ext(builtRel)

	if target := targetFor(config, extensionFile); target != "" {
		return safeRelativePath(filepath.FromSlash(target) + suffix)
	}

	// Non-extconf builds install under their directory below ext/.
	relDir := strings.TrimPrefix(filepath.ToSlash(filepath.Dir(extensionFile)), "ext/")
	if relDir == "." || relDir == "ext" {
		relDir = ""
	}
	return safeRelativePath(filepath.Join(filepath.FromSlash(relDir), filepath.Base(builtRel)))
}

// targetFor returns the create_makefile target an extconf.rb build installs
// under. Other build files have no target.
func targetFor(config *BuildConfig, extensionFile string) string {
	if !isExtConf(extensionFile) {
		return ""
	}
	if config.Target != "" {
		return config.Target
	}
	return config.variant().Target
}

func copyFile(srcPath, destPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

// safeRelativePath keeps installs inside the destination directory.
func safeRelativePath(path string) string {
	clean := filepath.Clean(path)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return filepath.Base(path)
	}
	return clean
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{})
	var result []string

	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result
}
