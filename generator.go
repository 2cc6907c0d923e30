package ruggedmysql

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"text/template"
)

const makefileName = "Makefile"

// MakefileSpec is everything a generator needs to emit the native Makefile.
type MakefileSpec struct {
	// Dir is the extension directory; the Makefile is written there.
	Dir string

	// Target is the create_makefile target ("rugged/redis/rugged-mysql").
	Target string

	// CFlags are consumed verbatim.
	CFlags CFlags

	// LDFlags and Libs are passed to the link step.
	LDFlags string
	Libs    string

	// Env is added to the generator's environment.
	Env map[string]string
}

// MakefileGenerator writes the native build script for an extension.
//
// Success or failure belongs entirely to the generator; Configure returns
// its error unchanged and never retries.
type MakefileGenerator interface {
	// Name identifies the generator in logs ("mkmf", "native").
	Name() string

	// Generate writes the Makefile and returns its path.
	Generate(ctx context.Context, spec *MakefileSpec) (string, error)
}

// LookupGenerator returns the generator registered under name.
// An empty name selects mkmf when Ruby is available, native otherwise.
func LookupGenerator(name, rubyPath string) (MakefileGenerator, error) {
	switch strings.ToLower(name) {
	case "mkmf":
		return &MkmfGenerator{RubyPath: rubyPath}, nil
	case "native":
		return &TemplateGenerator{}, nil
	case "":
		if rubyPath == "" {
			rubyPath = rubyProgram
		}
		if CheckToolAvailable(rubyPath) == nil {
			return &MkmfGenerator{RubyPath: rubyPath}, nil
		}
		return &TemplateGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown makefile generator %q (known: mkmf, native)", name)
	}
}

// MkmfGenerator delegates to Ruby's mkmf, exactly as extconf.rb would.
//
// The assembled flags are appended to mkmf's own $CFLAGS, so Ruby's
// RbConfig settings stay in effect.
type MkmfGenerator struct {
	// RubyPath is the interpreter to run. Empty means "ruby".
	RubyPath string
}

// Name returns the generator name
func (g *MkmfGenerator) Name() string {
	return "mkmf"
}

const mkmfScript = `require 'mkmf'
$CFLAGS << " " << ENV.fetch('RUGGED_EXT_CFLAGS', '')
create_makefile(ARGV[0])
`

// Generate runs ruby -e <mkmf script> <target> in the extension directory.
func (g *MkmfGenerator) Generate(ctx context.Context, spec *MakefileSpec) (string, error) {
	rubyPath := g.RubyPath
	if rubyPath == "" {
		rubyPath = rubyProgram
	}

	cmd := execCommandContext(ctx, rubyPath, "-e", mkmfScript, spec.Target)
	cmd.Dir = spec.Dir

	cmd.Env = cmd.Environ()
	for key, value := range spec.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}
	cmd.Env = append(cmd.Env, fmt.Sprintf("RUGGED_EXT_CFLAGS=%s", spec.CFlags.String()))
	if spec.LDFlags != "" {
		cmd.Env = append(cmd.Env, fmt.Sprintf("LDFLAGS=%s", spec.LDFlags))
	}
	if spec.Libs != "" {
		cmd.Env = append(cmd.Env, fmt.Sprintf("LIBS=%s", spec.Libs))
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", BuildError("mkmf", strings.Split(string(output), "\n"), err)
	}

	makefilePath := filepath.Join(spec.Dir, makefileName)
	if _, err := os.Stat(makefilePath); err != nil {
		return "", BuildError("mkmf", strings.Split(string(output), "\n"), fmt.Errorf("makefile not generated"))
	}
	return makefilePath, nil
}

// TemplateGenerator writes an mkmf-shaped Makefile without Ruby.
//
// The Makefile compiles every *.c file in the extension directory into
// a shared library named after the target and understands the all,
// install and clean targets, including DESTDIR.
type TemplateGenerator struct {
	// CC is the C compiler. Empty means $CC, then "cc".
	CC string
}

// Name returns the generator name
func (g *TemplateGenerator) Name() string {
	return "native"
}

var makefileTemplate = template.Must(template.New(makefileName).Parse(`# Generated by rugged-mysql configure. Do not edit.
SHELL = /bin/sh

srcdir = .
CC = {{.CC}}
CFLAGS = -fPIC {{.CFlags}}
LDFLAGS = {{.LDFlags}}
LIBS = {{.Libs}}
DLDFLAGS = {{.DLDFlags}}

TARGET = {{.Library}}
DLEXT = {{.DLExt}}
TARGET_SO = $(TARGET).$(DLEXT)
target_prefix = {{.Prefix}}
sitearchdir = {{.SiteArchDir}}

SRCS = {{.Sources}}
OBJS = $(SRCS:.c=.o)

all: $(TARGET_SO)

$(TARGET_SO): $(OBJS)
	$(CC) $(DLDFLAGS) -o $@ $(OBJS) $(LDFLAGS) $(LIBS)

.c.o:
	$(CC) $(CFLAGS) -c $< -o $@

install: $(TARGET_SO)
	mkdir -p $(DESTDIR)$(sitearchdir)$(target_prefix)
	cp $(TARGET_SO) $(DESTDIR)$(sitearchdir)$(target_prefix)/$(TARGET_SO)

clean:
	rm -f $(OBJS) $(TARGET_SO)

.PHONY: all install clean
`))

type makefileData struct {
	CC          string
	CFlags      string
	LDFlags     string
	Libs        string
	DLDFlags    string
	Library     string
	DLExt       string
	Prefix      string
	SiteArchDir string
	Sources     string
}

// Generate renders the Makefile into spec.Dir.
func (g *TemplateGenerator) Generate(_ context.Context, spec *MakefileSpec) (string, error) {
	sources, err := filepath.Glob(filepath.Join(spec.Dir, "*.c"))
	if err != nil {
		return "", fmt.Errorf("failed to list sources in %s: %w", spec.Dir, err)
	}
	if len(sources) == 0 {
		return "", fmt.Errorf("no C sources found in %s", spec.Dir)
	}
	for i, source := range sources {
		sources[i] = filepath.Base(source)
	}
	sort.Strings(sources)

	target := filepath.ToSlash(spec.Target)
	prefix := ""
	if dir := filepath.ToSlash(filepath.Dir(filepath.FromSlash(target))); dir != "." {
		prefix = "/" + dir
	}

	data := makefileData{
		CC:          g.compiler(),
		CFlags:      spec.CFlags.String(),
		LDFlags:     spec.LDFlags,
		Libs:        spec.Libs,
		DLDFlags:    sharedLinkFlags(),
		Library:     filepath.Base(filepath.FromSlash(target)),
		DLExt:       sharedLibraryExtension(),
		Prefix:      prefix,
		SiteArchDir: "/lib",
		Sources:     strings.Join(sources, " "),
	}

	var buf bytes.Buffer
	if err := makefileTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render makefile: %w", err)
	}

	makefilePath := filepath.Join(spec.Dir, makefileName)
	if err := os.WriteFile(makefilePath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", makefilePath, err)
	}
	return makefilePath, nil
}

func (g *TemplateGenerator) compiler() string {
	if g.CC != "" {
		return g.CC
	}
	if cc := os.Getenv("CC"); cc != "" {
		return cc
	}
	return "cc"
}

// sharedLibraryExtension returns the DLEXT Ruby uses on this platform.
func sharedLibraryExtension() string {
	switch runtime.GOOS {
	case "darwin":
		return "bundle"
	case platformWindows:
		return "dll"
	default:
		return "so"
	}
}

func sharedLinkFlags() string {
	if runtime.GOOS == "darwin" {
		return "-bundle -undefined dynamic_lookup"
	}
	return "-shared"
}
