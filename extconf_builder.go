package ruggedmysql

import (
	"context"
	"path/filepath"
	"strings"
)

// ExtConfBuilder builds an extension directory that ships an extconf.rb.
//
// Instead of running extconf.rb it performs the configure pass natively
// (see Configurator), then runs make and installs the library.
type ExtConfBuilder struct {
	// Configurator runs the configure step. Nil uses NewConfigurator().
	Configurator *Configurator
}

// Name returns the builder name
func (b *ExtConfBuilder) Name() string {
	return "ExtConf"
}

// RequiredTools returns the tools needed for extension builds
func (b *ExtConfBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:         "cc",
			Alternatives: []string{"gcc", "clang"},
			Purpose:      "C compiler for native extensions",
		},
		{
			Name:         gmakeProgram,
			Alternatives: []string{makeProgram},
			Purpose:      "GNU make",
		},
		{
			Name:     cmakeProgram,
			Optional: true,
			Purpose:  "rebuilding vendored libgit2",
		},
	}
}

// CheckTools verifies that a compiler and make are available.
// A missing make is reported with MissingMakeMessage.
func (b *ExtConfBuilder) CheckTools() error {
	if _, err := FindMake(); err != nil {
		return err
	}
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the extension file
func (b *ExtConfBuilder) CanBuild(extensionFile string) bool {
	return MatchesPattern(extensionFile, `extconf\.rb$`)
}

// Build configures, compiles and installs the extension
func (b *ExtConfBuilder) Build(ctx context.Context, config *BuildConfig, extensionFile string) (*BuildResult, error) {
	result, err := runCommonBuild(ctx, config, extensionFile, CommonBuildSteps{
		ConfigureFunc: b.configure,
		BuildFunc:     runMake,
		FindFunc:      b.findBuiltExtensions,
	})
	if err != nil {
		return result, err
	}

	extensionDir := filepath.Dir(filepath.Join(config.GemDir, extensionFile))
	installed, err := finalizeNativeExtensions(config, extensionFile, extensionDir, result.Extensions)
	if err != nil {
		result.Success = false
		result.Error = err
		return result, err
	}
	result.Extensions = installed
	return result, nil
}

// Clean removes build artifacts
func (b *ExtConfBuilder) Clean(ctx context.Context, config *BuildConfig, extensionFile string) error {
	extensionDir := filepath.Dir(filepath.Join(config.GemDir, extensionFile))
	return runMakeClean(ctx, extensionDir)
}

func (b *ExtConfBuilder) configurator() *Configurator {
	if b.Configurator != nil {
		return b.Configurator
	}
	return NewConfigurator()
}

// configuratorFor applies the per-build generator and Ruby interpreter to
// the builder's Configurator. Settings already on the Configurator win over
// config.RubyPath.
func (b *ExtConfBuilder) configuratorFor(config *BuildConfig) (*Configurator, error) {
	clone := *b.configurator()

	if config.RubyPath != "" {
		locator := GemLocator{}
		if clone.Locator != nil {
			locator = *clone.Locator
		}
		if locator.RubyPath == "" {
			locator.RubyPath = config.RubyPath
		}
		clone.Locator = &locator
	}

	switch {
	case config.Generator != nil:
		clone.Generator = config.Generator
	case clone.Generator == nil:
		generator, err := LookupGenerator("", config.RubyPath)
		if err != nil {
			return nil, err
		}
		clone.Generator = generator
	}
	return &clone, nil
}

// configure runs the native configure pass in place of ruby extconf.rb
func (b *ExtConfBuilder) configure(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
	configurator, err := b.configuratorFor(config)
	if err != nil {
		return err
	}

	configuration, err := configurator.Configure(ctx, ConfigureOptions{
		Variant:        config.variant(),
		ExtensionDir:   extensionDir,
		RuggedDir:      config.RuggedDir,
		CFlagsOverride: config.CFlags,
		LDFlags:        config.LDFlags,
		Libs:           config.Libs,
		Target:         config.Target,
		RequireCMake:   config.RequireCMake,
		Env:            config.Env,
	})
	if err != nil {
		return err
	}

	result.Configuration = configuration
	if config.Verbose {
		result.Output = append(result.Output,
			"Using rugged headers from "+configuration.RuggedDir,
			"CFLAGS: "+configuration.CFlags.String(),
			"Makefile: "+configuration.MakefilePath)
	}
	return nil
}

// findBuiltExtensions locates the compiled extension files
func (b *ExtConfBuilder) findBuiltExtensions(extensionDir string) ([]string, error) {
	return findLibraries(extensionDir, []string{"."}, []string{
		"*.so",     // Linux/Unix shared libraries
		"*.bundle", // macOS bundles
		"*.dll",    // Windows dynamic libraries
	})
}

// isExtConf reports whether extensionFile points at an extconf.rb.
func isExtConf(extensionFile string) bool {
	return strings.HasSuffix(filepath.ToSlash(extensionFile), "extconf.rb")
}
