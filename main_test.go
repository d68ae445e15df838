package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pyfold/internal/fold"
	"pyfold/internal/golden"
)

const sampleSource = `import os


def egg(a,
        b):
    """Docstring."""
    x = 4

    def inner():
        pass


class Spam:
    """Multi
    line.
    """
    y = 1
`

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, envPrefix) {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func writeSource(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func runForTest(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunPlainListing(t *testing.T) {
	isolateConfig(t)
	path := writeSource(t, t.TempDir(), "egg.py", sampleSource)

	out, _, err := runForTest(t, "--no-color", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	wantLevels := []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 0, 0, 0, 0, 1}
	if len(lines) != len(wantLevels) {
		t.Fatalf("got %d listing lines, want %d:\n%s", len(lines), len(wantLevels), out)
	}
	src := strings.Split(strings.TrimSuffix(sampleSource, "\n"), "\n")
	for i, level := range wantLevels {
		if want := plainListingLine(i, level, src[i]); lines[i] != want {
			t.Errorf("line %d = %q, want %q", i, lines[i], want)
		}
	}
}

func TestRunWriteThenCheck(t *testing.T) {
	isolateConfig(t)
	root := t.TempDir()
	a := writeSource(t, root, "pkg/a.py", sampleSource)
	b := writeSource(t, root, "pkg/sub/b.py", "def f():\n    return 1\n")

	out, _, err := runForTest(t, "--write", a, b)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(out, "wrote "+golden.PathFor(a)) {
		t.Fatalf("unexpected write output:\n%s", out)
	}

	out, _, err = runForTest(t, "--root", root, "--check", "**/*.testdata")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "2 checked, 0 failed") {
		t.Fatalf("unexpected check output:\n%s", out)
	}

	if err := golden.Write(golden.PathFor(b), []int{0, 0, 3}); err != nil {
		t.Fatalf("corrupt golden: %v", err)
	}
	out, _, err = runForTest(t, "--root", root, "--workers", "3", "--check", "pkg/**/*.py")
	if !errors.Is(err, errCheckFailed) {
		t.Fatalf("expected check failure, got %v\n%s", err, out)
	}
	for _, want := range []string{
		"FAIL " + b,
		"line count: computed 2, expected 3",
		"line 1: computed 1, expected 0",
		"2 checked, 1 failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("check output missing %q:\n%s", want, out)
		}
	}
}

func TestRunRejectsInvalidShiftWidth(t *testing.T) {
	isolateConfig(t)
	path := writeSource(t, t.TempDir(), "a.py", "x = 1\n")

	_, _, err := runForTest(t, "--shift-width", "0", path)
	if !errors.Is(err, fold.ErrInvalidShiftWidth) {
		t.Fatalf("err = %v, want ErrInvalidShiftWidth", err)
	}
}

func TestRunHelpUsesLongFlags(t *testing.T) {
	isolateConfig(t)
	_, stderr, err := runForTest(t, "--help")
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("err = %v, want flag.ErrHelp", err)
	}
	if !strings.Contains(stderr, "Usage of pyfold") || !strings.Contains(stderr, "  --shift-width int") {
		t.Fatalf("help output missing long-form flags:\n%s", stderr)
	}
}

func TestRunOutline(t *testing.T) {
	isolateConfig(t)
	path := writeSource(t, t.TempDir(), "egg.py", sampleSource)

	out, _, err := runForTest(t, "--outline", path)
	if err != nil {
		t.Fatalf("outline: %v\n%s", err, out)
	}
	for _, want := range []string{
		"   3  0  0  def egg (3-9)",
		"   8  1  2    def inner (8-9)",
		"  12  0  0  class Spam (12-16)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("outline missing %q:\n%s", want, out)
		}
	}
}

func TestRunThemesAndUnknownTheme(t *testing.T) {
	isolateConfig(t)
	out, _, err := runForTest(t, "--themes")
	if err != nil || !strings.Contains(out, "dracula\n") {
		t.Fatalf("themes: err=%v out=%q", err, out)
	}

	path := writeSource(t, t.TempDir(), "a.py", "x = 1\n")
	if _, _, err := runForTest(t, "--theme", "no-such-theme", path); err == nil || !strings.Contains(err.Error(), "invalid --theme") {
		t.Fatalf("err = %v, want invalid theme", err)
	}
}

func TestRunDiskCacheReusesFoldCache(t *testing.T) {
	isolateConfig(t)
	withFoldCacheDir(t, t.TempDir())
	path := writeSource(t, t.TempDir(), "egg.py", sampleSource)

	if _, _, err := runForTest(t, "--no-color", "--cache", path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	cache, ok, err := LoadFoldCache(path, fold.DefaultShiftWidth)
	if err != nil || !ok {
		t.Fatalf("expected cache on disk, ok=%v err=%v", ok, err)
	}
	if cache.Stats().Recomputes != 1 {
		t.Fatalf("stats = %+v", cache.Stats())
	}
}
