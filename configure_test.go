package ruggedmysql

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phuslu/log"
)

// recordingGenerator captures every MakefileSpec it is asked to render.
type recordingGenerator struct {
	specs []*MakefileSpec
	err   error
}

func (g *recordingGenerator) Name() string { return "recording" }

func (g *recordingGenerator) Generate(_ context.Context, spec *MakefileSpec) (string, error) {
	g.specs = append(g.specs, spec)
	if g.err != nil {
		return "", g.err
	}
	return filepath.Join(spec.Dir, makefileName), nil
}

func TestConfigure(t *testing.T) {
	stubPath(t, "make", "cmake")
	t.Setenv("MAKE", "")

	generator := &recordingGenerator{}
	configurator := &Configurator{Generator: generator}
	extDir := t.TempDir()

	configuration, err := configurator.Configure(context.Background(), ConfigureOptions{
		Variant:        MySQLVariant(),
		ExtensionDir:   extDir,
		RuggedDir:      "/gems/rugged",
		CFlagsOverride: "-O1",
		Libs:           "-lmysqlclient",
	})
	if err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}

	if len(generator.specs) != 1 {
		t.Fatalf("expected exactly one Generate call, got %d", len(generator.specs))
	}
	spec := generator.specs[0]
	if spec.Target != "rugged/redis/rugged-mysql" {
		t.Errorf("Target = %q", spec.Target)
	}
	if spec.CFlags[0] != "-O1" || spec.CFlags[1] != "-I/usr/include/mysql" {
		t.Errorf("unexpected flag order: %v", spec.CFlags)
	}
	if strings.Contains(spec.CFlags.String(), "-O3") {
		t.Errorf("-O3 must not follow an explicit level: %v", spec.CFlags)
	}
	if spec.Libs != "-lmysqlclient" {
		t.Errorf("Libs = %q", spec.Libs)
	}

	if configuration.Make != "/usr/bin/make" {
		t.Errorf("Make = %q", configuration.Make)
	}
	if configuration.CMake != "/usr/bin/cmake" {
		t.Errorf("CMake = %q", configuration.CMake)
	}
	if configuration.Generator != "recording" {
		t.Errorf("Generator = %q", configuration.Generator)
	}
	if configuration.MakefilePath != filepath.Join(extDir, makefileName) {
		t.Errorf("MakefilePath = %q", configuration.MakefilePath)
	}
}

func TestConfigureMissingMake(t *testing.T) {
	stubPath(t, "cmake", "ruby")
	t.Setenv("MAKE", "")

	generator := &recordingGenerator{}
	_, err := (&Configurator{Generator: generator}).Configure(context.Background(), ConfigureOptions{
		Variant:      MySQLVariant(),
		ExtensionDir: t.TempDir(),
		RuggedDir:    "/gems/rugged",
	})

	var missing *MissingToolError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingToolError, got %v", err)
	}
	if err.Error() != MissingMakeMessage {
		t.Errorf("error = %q, expected %q", err.Error(), MissingMakeMessage)
	}
	if len(generator.specs) != 0 {
		t.Error("no Makefile may be generated without make")
	}
}

func TestConfigureOptionalCMake(t *testing.T) {
	stubPath(t, "gmake")
	t.Setenv("MAKE", "")

	opts := ConfigureOptions{
		Variant:      RedisVariant(),
		ExtensionDir: t.TempDir(),
		RuggedDir:    "/gems/rugged",
	}

	configuration, err := (&Configurator{Generator: &recordingGenerator{}}).Configure(context.Background(), opts)
	if err != nil {
		t.Fatalf("cmake must be optional: %v", err)
	}
	if configuration.CMake != "" {
		t.Errorf("CMake = %q, expected empty", configuration.CMake)
	}
	if configuration.Make != "/usr/bin/gmake" {
		t.Errorf("Make = %q", configuration.Make)
	}

	opts.RequireCMake = true
	_, err = (&Configurator{Generator: &recordingGenerator{}}).Configure(context.Background(), opts)
	if err == nil || !strings.Contains(err.Error(), "CMake is required") {
		t.Errorf("expected CMake error, got %v", err)
	}
}

func TestConfigureLocatesRugged(t *testing.T) {
	stubPath(t, "make")
	t.Setenv("MAKE", "")

	gemRoot := t.TempDir()
	makeGemDirs(t, gemRoot, "rugged-1.9.0")

	var logs bytes.Buffer
	generator := &recordingGenerator{}
	configurator := &Configurator{
		Locator:   &GemLocator{GemPaths: []string{gemRoot}, RubyPath: "-"},
		Generator: generator,
		Logger:    &log.Logger{Level: log.InfoLevel, Writer: &log.IOWriter{Writer: &logs}},
	}

	configuration, err := configurator.Configure(context.Background(), ConfigureOptions{
		Variant:      MySQLVariant(),
		ExtensionDir: t.TempDir(),
		Target:       "rugged_mysql",
	})
	if err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}

	ruggedDir := filepath.Join(gemRoot, "gems", "rugged-1.9.0")
	if configuration.RuggedDir != ruggedDir {
		t.Errorf("RuggedDir = %q, expected %q", configuration.RuggedDir, ruggedDir)
	}
	if configuration.Target != "rugged_mysql" || generator.specs[0].Target != "rugged_mysql" {
		t.Errorf("target override not applied: %q", configuration.Target)
	}
	if !strings.Contains(configuration.CFlags.String(), "-I"+filepath.Join(ruggedDir, "vendor", "libgit2", "include")) {
		t.Errorf("rugged headers missing from %v", configuration.CFlags)
	}
	if !strings.Contains(logs.String(), "Using rugged headers") {
		t.Errorf("expected progress log, got %q", logs.String())
	}
}

func TestConfigureErrors(t *testing.T) {
	stubPath(t, "make")
	t.Setenv("MAKE", "")

	generatorErr := errors.New("mkmf exploded")
	testCases := []struct {
		name      string
		opts      ConfigureOptions
		generator *recordingGenerator
		check     func(error) bool
	}{
		{
			name:      "no variant",
			opts:      ConfigureOptions{ExtensionDir: t.TempDir(), RuggedDir: "/r"},
			generator: &recordingGenerator{},
			check:     func(err error) bool { return err != nil && strings.Contains(err.Error(), "no extension variant") },
		},
		{
			name:      "no directory",
			opts:      ConfigureOptions{Variant: MySQLVariant(), RuggedDir: "/r"},
			generator: &recordingGenerator{},
			check:     func(err error) bool { return err != nil && strings.Contains(err.Error(), "no extension directory") },
		},
		{
			name:      "missing directory",
			opts:      ConfigureOptions{Variant: MySQLVariant(), ExtensionDir: filepath.Join(t.TempDir(), "nope"), RuggedDir: "/r"},
			generator: &recordingGenerator{},
			check:     func(err error) bool { return err != nil && strings.Contains(err.Error(), "does not exist") },
		},
		{
			name:      "generator error returned unchanged",
			opts:      ConfigureOptions{Variant: MySQLVariant(), ExtensionDir: t.TempDir(), RuggedDir: "/r"},
			generator: &recordingGenerator{err: generatorErr},
			check:     func(err error) bool { return err == generatorErr },
		},
		{
			name:      "rugged not installed",
			opts:      ConfigureOptions{Variant: MySQLVariant(), ExtensionDir: t.TempDir()},
			generator: &recordingGenerator{},
			check:     func(err error) bool { return errors.Is(err, ErrGemNotFound) },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			configurator := &Configurator{
				Locator:   &GemLocator{GemPaths: []string{t.TempDir()}, RubyPath: "-"},
				Generator: tc.generator,
			}
			_, err := configurator.Configure(context.Background(), tc.opts)
			if !tc.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
