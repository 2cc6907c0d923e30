package ruggedmysql

import "context"

// Builder defines the interface that all extension builders implement.
//
// # Builder Lifecycle
//
//  1. CanBuild() - Factory calls this to find the right builder for an extension file
//  2. Build() - Factory calls this to compile the extension
//  3. Clean() - Optional cleanup of build artifacts
//
// # Thread Safety
//
// Builder implementations are stateless. The same builder instance may be
// used to build several extensions concurrently.
type Builder interface {
	// Name returns the human-readable name of this builder.
	//
	// Examples: "ExtConf", "CMake"
	Name() string

	// CanBuild checks if this builder can handle the given extension file.
	//
	// The extensionFile parameter is typically just the filename (e.g., "extconf.rb")
	// or a relative path (e.g., "ext/rugged/mysql/extconf.rb").
	CanBuild(extensionFile string) bool

	// Build compiles the extension and returns the result.
	//
	// The extensionFile path is relative to config.GemDir.
	//
	// Returns:
	//   - BuildResult with Success=true and Extensions list on success
	//   - BuildResult with Success=false and Error on failure
	Build(ctx context.Context, config *BuildConfig, extensionFile string) (*BuildResult, error)

	// Clean removes build artifacts.
	//
	// Returns nil if there is nothing to clean.
	Clean(ctx context.Context, config *BuildConfig, extensionFile string) error
}
