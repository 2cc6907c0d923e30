package ruggedmysql

import "context"

// BuildResult contains the output and status of a build operation.
//
// After a build completes, this structure provides:
//   - Success status indicating if the build completed without errors
//   - Output lines captured from the build process (stdout/stderr)
//   - Extensions list of compiled extension files (.so/.bundle/.dll)
//   - Configuration produced by the configure step, when one ran
//   - Error information if the build failed
type BuildResult struct {
	Success       bool           // True if build completed successfully
	Output        []string       // Lines of output from the build process
	Extensions    []string       // Paths to built extension files
	Configuration *Configuration // Configure outcome, nil for builders without one
	Error         error          // Error if build failed, nil otherwise
}

// BuildConfig contains configuration for the build process.
//
// Source paths:
//   - GemDir: Root directory of the rugged-mysql gem
//   - DestPath: Destination directory for compiled extensions
//   - LibDir: Optional lib directory for extension installation
//   - RuggedDir: Installed rugged gem providing headers (located when empty)
//
// Extension selection:
//   - Variant: mysql or redis (defaults to mysql)
//   - Target: overrides the variant's create_makefile target
//   - Generator: Makefile generator (picked automatically when nil)
//
// Compiler input:
//   - CFlags: externally supplied flag override, placed first verbatim
//   - LDFlags, Libs: passed to the link step
//
// Build behavior:
//   - Verbose: Enable detailed build output
//   - CleanFirst: Run clean target before building
//   - Parallel: Number of parallel jobs for make -j (0 = default)
//   - StopOnFailure: Stop after first failed extension
type BuildConfig struct {
	// Source paths
	GemDir    string // Root directory of the gem being built
	DestPath  string // Destination for compiled extensions
	LibDir    string // Optional lib directory for extension installation
	RuggedDir string // Installed rugged gem, located when empty

	// Extension selection
	Variant   *Variant          // Extension flavour, MySQLVariant when nil
	Target    string            // Overrides Variant.Target
	Generator MakefileGenerator // Makefile generator, automatic when nil

	// Compiler input
	CFlags  string // Flag override, usually $CFLAGS
	LDFlags string
	Libs    string

	// Build arguments
	BuildArgs []string          // Additional build arguments
	Env       map[string]string // Environment variables for build

	// Ruby configuration
	RubyVersion string // Ruby version (3.4.0, etc.)
	RubyPath    string // Path to Ruby executable

	// Build options
	Verbose      bool // Enable verbose output
	CleanFirst   bool // Run clean before build
	Parallel     int  // Number of parallel jobs (for make -j)
	RequireCMake bool // Fail when cmake is absent

	// Failure handling
	StopOnFailure bool // Stop after the first failed extension build
}

// variant returns the configured variant, defaulting to MySQL.
func (c *BuildConfig) variant() *Variant {
	if c.Variant != nil {
		return c.Variant
	}
	return MySQLVariant()
}

// CommonBuildSteps defines the 3-step build pattern shared by the builders.
//
//  1. Configure: Generate build files (Makefile, CMake cache)
//  2. Build: Compile the extension
//  3. Find: Locate the compiled extension files
//
// Example usage in a builder:
//
//	return runCommonBuild(ctx, config, extensionFile, CommonBuildSteps{
//	    ConfigureFunc: b.configure,
//	    BuildFunc:     b.runMake,
//	    FindFunc:      b.locateExtensions,
//	})
type CommonBuildSteps struct {
	// ConfigureFunc prepares the build environment
	ConfigureFunc func(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error

	// BuildFunc compiles the extension
	BuildFunc func(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error

	// FindFunc locates the compiled extension files after build completes
	FindFunc func(extensionDir string) ([]string, error)
}
