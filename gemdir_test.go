package ruggedmysql

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestHelperProcess stands in for ruby and pkg-config when
// execCommandContext is stubbed. It prints HELPER_OUTPUT and exits with
// HELPER_EXIT.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Print(os.Getenv("HELPER_OUTPUT"))
	if os.Getenv("HELPER_EXIT") != "" {
		os.Exit(1)
	}
	os.Exit(0)
}

// stubCommand makes execCommandContext run TestHelperProcess and records
// the requested command lines.
func stubCommand(t *testing.T, output string, fail bool) *[]string {
	t.Helper()
	var calls []string

	original := execCommandContext
	execCommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, strings.Join(append([]string{filepath.Base(name)}, args...), " "))
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_OUTPUT="+output)
		if fail {
			cmd.Env = append(cmd.Env, "HELPER_EXIT=1")
		}
		return cmd
	}
	t.Cleanup(func() { execCommandContext = original })
	return &calls
}

func makeGemDirs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(root, "gems", name), 0o755); err != nil {
			t.Fatalf("failed to create gem dir: %v", err)
		}
	}
}

func TestGemLocatorOverride(t *testing.T) {
	dir := t.TempDir()
	locator := &GemLocator{Overrides: map[string]string{RuggedGem: dir}, RubyPath: "-"}

	got, err := locator.Find(context.Background(), RuggedGem)
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if got != dir {
		t.Errorf("Find = %q, expected %q", got, dir)
	}

	locator.Overrides[RuggedGem] = filepath.Join(dir, "missing")
	if _, err := locator.Find(context.Background(), RuggedGem); !errors.Is(err, ErrGemNotFound) {
		t.Errorf("expected ErrGemNotFound for missing override, got %v", err)
	}
}

func TestGemLocatorScanPicksHighestVersion(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	makeGemDirs(t, first, "rugged-1.9.0", "rugged-mysql-0.1.0", "rugged-1.10.0.beta1")
	makeGemDirs(t, second, "rugged-1.10.0", "rugged-1.2.0")

	locator := &GemLocator{GemPaths: []string{first, second}, RubyPath: "-"}
	got, err := locator.Find(context.Background(), RuggedGem)
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}

	expected := filepath.Join(second, "gems", "rugged-1.10.0")
	if got != expected {
		t.Errorf("Find = %q, expected %q", got, expected)
	}
}

func TestGemLocatorUsesGemEnvironment(t *testing.T) {
	home := t.TempDir()
	makeGemDirs(t, home, "rugged-1.7.2")
	t.Setenv("GEM_HOME", home)
	t.Setenv("GEM_PATH", "")

	got, err := (&GemLocator{RubyPath: "-"}).Find(context.Background(), RuggedGem)
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if got != filepath.Join(home, "gems", "rugged-1.7.2") {
		t.Errorf("Find = %q", got)
	}
}

func TestGemLocatorNotFound(t *testing.T) {
	locator := &GemLocator{GemPaths: []string{t.TempDir()}, RubyPath: "-"}
	_, err := locator.Find(context.Background(), RuggedGem)
	if !errors.Is(err, ErrGemNotFound) {
		t.Errorf("expected ErrGemNotFound, got %v", err)
	}
}

func TestGemLocatorAsksRuby(t *testing.T) {
	calls := stubCommand(t, "/var/lib/gems/3.3.0/gems/rugged-1.9.0\n", false)

	locator := &GemLocator{GemPaths: []string{t.TempDir()}}
	got, err := locator.Find(context.Background(), RuggedGem)
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if got != "/var/lib/gems/3.3.0/gems/rugged-1.9.0" {
		t.Errorf("Find = %q", got)
	}

	if len(*calls) != 1 || !strings.HasPrefix((*calls)[0], "ruby -e ") || !strings.HasSuffix((*calls)[0], " rugged") {
		t.Errorf("unexpected ruby invocation: %v", *calls)
	}
}

func TestGemLocatorRubyFailure(t *testing.T) {
	stubCommand(t, "", true)

	locator := &GemLocator{GemPaths: []string{t.TempDir()}}
	if _, err := locator.Find(context.Background(), RuggedGem); !errors.Is(err, ErrGemNotFound) {
		t.Errorf("expected ErrGemNotFound, got %v", err)
	}
}

func TestCompareGemVersions(t *testing.T) {
	testCases := []struct {
		a, b     string
		expected int
	}{
		{"1.9.0", "1.10.0", -1},
		{"1.10.0", "1.9.0", 1},
		{"1.9.0", "1.9.0", 0},
		{"1.2", "1.2.0", 0},
		{"1.0.0.beta1", "1.0.0", -1},
		{"1.0.0", "1.0.0.beta1", 1},
		{"1.0.0.1", "1.0.0", 1},
		{"0.28.5.1", "0.28.10", -1},
	}

	for _, tc := range testCases {
		t.Run(tc.a+"_vs_"+tc.b, func(t *testing.T) {
			got := compareGemVersions(tc.a, tc.b)
			if sign(got) != tc.expected {
				t.Errorf("compareGemVersions(%q, %q) = %d, expected sign %d", tc.a, tc.b, got, tc.expected)
			}
		})
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
