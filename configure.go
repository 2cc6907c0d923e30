package ruggedmysql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/phuslu/log"
)

var discardLogger = log.Logger{
	Level:  log.PanicLevel,
	Writer: &log.IOWriter{Writer: io.Discard},
}

// ConfigureOptions controls a single configure pass.
type ConfigureOptions struct {
	// Variant selects the extension flavour. Required.
	Variant *Variant

	// ExtensionDir is the directory the Makefile is written to. Required.
	ExtensionDir string

	// RuggedDir is the installed rugged gem. When empty it is located with
	// the Configurator's GemLocator.
	RuggedDir string

	// CFlagsOverride is the externally supplied flag string (usually the
	// CFLAGS environment variable). It is placed first, verbatim.
	CFlagsOverride string

	// LDFlags and Libs are handed to the generator unchanged.
	LDFlags string
	Libs    string

	// Target overrides Variant.Target.
	Target string

	// RequireCMake turns the optional cmake lookup into a hard requirement.
	RequireCMake bool

	// Env is added to the generator's environment.
	Env map[string]string
}

// Configuration is the outcome of a successful configure pass.
type Configuration struct {
	Variant      string
	Target       string
	RuggedDir    string
	CFlags       CFlags
	Make         string
	CMake        string // empty when cmake is absent
	Generator    string
	MakefilePath string
}

// Configurator runs the configure pass: the Go replacement for the
// extension's extconf.rb.
//
// A Configurator holds no per-run state and may be reused.
type Configurator struct {
	// Locator finds the rugged gem when ConfigureOptions.RuggedDir is empty.
	Locator *GemLocator

	// Generator emits the Makefile. Nil selects one with LookupGenerator.
	Generator MakefileGenerator

	// Logger receives progress messages. Nil discards them.
	Logger *log.Logger
}

// NewConfigurator returns a Configurator that locates gems from the
// environment and picks its generator automatically.
func NewConfigurator() *Configurator {
	return &Configurator{Locator: &GemLocator{}}
}

func (c *Configurator) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return &discardLogger
}

// Configure assembles the flags, checks the build tools and emits the
// Makefile, in that order and exactly once.
//
// The only error classified here is a missing make program, returned as
// *MissingToolError carrying MissingMakeMessage. Generator failures are
// returned unchanged.
func (c *Configurator) Configure(ctx context.Context, opts ConfigureOptions) (*Configuration, error) {
	if opts.Variant == nil {
		return nil, errors.New("configure: no extension variant")
	}
	if opts.ExtensionDir == "" {
		return nil, errors.New("configure: no extension directory")
	}

	logger := c.logger()
	target := opts.Variant.Target
	if opts.Target != "" {
		target = opts.Target
	}

	ruggedDir := opts.RuggedDir
	if ruggedDir == "" {
		locator := c.Locator
		if locator == nil {
			locator = &GemLocator{}
		}
		dir, err := locator.Find(ctx, RuggedGem)
		if err != nil {
			return nil, fmt.Errorf("configure: %w", err)
		}
		ruggedDir = dir
	}
	logger.Info().Str("dir", ruggedDir).Msg("Using rugged headers")

	flags := AssembleCFlags(opts.CFlagsOverride, opts.Variant.HeaderDirs(ctx, ruggedDir))
	logger.Debug().Strs("cflags", flags).Msg("assembled compiler flags")

	makePath, err := FindMake()
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("make", makePath).Msg("found make")

	cmakePath := FindOptional(cmakeProgram)
	if opts.RequireCMake && cmakePath == "" {
		return nil, &MissingToolError{Tools: []string{cmakeProgram}, Message: "ERROR: CMake is required to build Rugged."}
	}
	for _, tool := range opts.Variant.OptionalTools {
		if tool == cmakeProgram {
			continue
		}
		if FindOptional(tool) == "" {
			logger.Warn().Str("tool", tool).Msg("optional tool not found")
		}
	}
	if cmakePath == "" {
		logger.Debug().Msg("cmake not found, vendored libgit2 will not be rebuilt")
	}

	generator := c.Generator
	if generator == nil {
		generator, err = LookupGenerator("", "")
		if err != nil {
			return nil, err
		}
	}

	extensionDir, err := filepath.Abs(opts.ExtensionDir)
	if err != nil {
		return nil, fmt.Errorf("configure: %w", err)
	}
	if info, err := os.Stat(extensionDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("configure: extension directory %s does not exist", extensionDir)
	}

	makefilePath, err := generator.Generate(ctx, &MakefileSpec{
		Dir:     extensionDir,
		Target:  target,
		CFlags:  flags,
		LDFlags: opts.LDFlags,
		Libs:    opts.Libs,
		Env:     opts.Env,
	})
	if err != nil {
		return nil, err
	}
	logger.Info().Str("makefile", makefilePath).Str("generator", generator.Name()).Msg("creating Makefile")

	return &Configuration{
		Variant:      opts.Variant.Name,
		Target:       target,
		RuggedDir:    ruggedDir,
		CFlags:       flags,
		Make:         makePath,
		CMake:        cmakePath,
		Generator:    generator.Name(),
		MakefilePath: makefilePath,
	}, nil
}
