package ruggedmysql

import (
	"context"
	"fmt"
	"path/filepath"
)

// BuilderFactory manages the registration and selection of extension builders.
//
// # Usage
//
//	factory := ruggedmysql.NewBuilderFactory()
//	results, err := factory.BuildAllExtensions(ctx, config, []string{
//	    "vendor/libgit2/CMakeLists.txt",
//	    "ext/rugged/mysql/extconf.rb",
//	})
//
// # Builder Selection
//
// The first registered builder whose CanBuild() accepts the base filename
// is used. An error is returned when none does.
//
// # Thread Safety
//
// Registration is not thread-safe. Register all builders before concurrent use.
type BuilderFactory struct {
	builders []Builder
}

// NewBuilderFactory creates a factory with the standard builders registered:
//  1. ExtConfBuilder - extconf.rb directories
//  2. CmakeBuilder - CMakeLists.txt (vendored libgit2)
func NewBuilderFactory() *BuilderFactory {
	return NewBuilderFactoryWith(NewConfigurator())
}

// NewBuilderFactoryWith is NewBuilderFactory with a custom Configurator for
// the extconf builds.
func NewBuilderFactoryWith(configurator *Configurator) *BuilderFactory {
	factory := &BuilderFactory{}
	factory.Register(&ExtConfBuilder{Configurator: configurator})
	factory.Register(&CmakeBuilder{})
	return factory
}

// Register adds a new builder to the factory.
//
// Builders are checked in the order they are registered.
func (f *BuilderFactory) Register(builder Builder) {
	f.builders = append(f.builders, builder)
}

// BuilderFor returns the appropriate builder for the given extension file.
//
// Only the base filename is used for matching.
func (f *BuilderFactory) BuilderFor(extensionFile string) (Builder, error) {
	filename := filepath.Base(extensionFile)

	for _, builder := range f.builders {
		if builder.CanBuild(filename) {
			return builder, nil
		}
	}

	return nil, fmt.Errorf("no builder found for extension file: %s", filename)
}

// ListBuilders returns a copy of all registered builders.
func (f *BuilderFactory) ListBuilders() []Builder {
	return append([]Builder{}, f.builders...)
}

// BuildAllExtensions builds all extensions in sequence.
//
// # Return Values
//
// One BuildResult per processed extension, and the first error encountered.
// Partial results are returned alongside an error.
//
// # Error Handling
//
// With config.StopOnFailure, processing stops after the first failure.
// Without it every extension is attempted and the first error is returned.
//
// # Context Cancellation
//
// A canceled context stops processing; a failed BuildResult carrying the
// context error is appended and that error is returned.
func (f *BuilderFactory) BuildAllExtensions(ctx context.Context, config *BuildConfig, extensions []string) ([]*BuildResult, error) {
	if len(extensions) == 0 {
		return nil, nil
	}

	var results []*BuildResult
	var firstError error

	record := func(err error) {
		if firstError == nil {
			firstError = err
		}
	}

	for _, extension := range extensions {
		if ctxErr := ctx.Err(); ctxErr != nil {
			record(ctxErr)
			results = append(results, &BuildResult{Success: false, Error: ctxErr})
			break
		}

		builder, err := f.BuilderFor(extension)
		if err != nil {
			record(err)
			results = append(results, &BuildResult{Success: false, Error: err})
			if config.StopOnFailure {
				break
			}
			continue
		}

		if checker, ok := builder.(ToolChecker); ok {
			if err := checker.CheckTools(); err != nil {
				err = fmt.Errorf("%s: %w", builder.Name(), err)
				record(err)
				results = append(results, &BuildResult{Success: false, Error: err})
				if config.StopOnFailure {
					break
				}
				continue
			}
		}

		result, err := builder.Build(ctx, config, extension)
		if err != nil {
			record(err)
			if result == nil {
				result = &BuildResult{Success: false, Error: err}
			}
		}

		results = append(results, result)

		if !result.Success && config.StopOnFailure {
			break
		}
	}

	return results, firstError
}
