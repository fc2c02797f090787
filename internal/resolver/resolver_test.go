package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/bbcore/internal/bberrors"
	"github.com/standardbeagle/bbcore/internal/metrics"
	"github.com/standardbeagle/bbcore/internal/mtimecache"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestResolveFindsFileOnSearchPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.bbclass", "")

	r := New(mtimecache.New(), nil)
	got, err := r.Resolve("base.bbclass", []string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != filepath.Join(dir, "base.bbclass") {
		t.Fatalf("got %q", got)
	}
}

func TestResolveAbsolutePathSkipsSearch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "recipe.bb", "")

	r := New(mtimecache.New(), nil)
	got, err := r.Resolve(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != path {
		t.Fatalf("got %q want %q", got, path)
	}
}

func TestResolveNotFoundReturnsTypedError(t *testing.T) {
	dir := t.TempDir()
	r := New(mtimecache.New(), nil)
	_, err := r.Resolve("missing.bbclass", []string{dir})
	if err == nil {
		t.Fatalf("expected error")
	}
	if bberrors.KindOf(err) != bberrors.KindNotFound {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}

func TestResolveSuggestsNearMiss(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "autotools.bbclass", "")

	r := New(mtimecache.New(), nil)
	_, err := r.Resolve("autotool.bbclass", []string{dir})
	nf, ok := err.(*bberrors.NotFoundError)
	if !ok {
		t.Fatalf("expected NotFoundError, got %T", err)
	}
	found := false
	for _, s := range nf.Suggestions {
		if s == "autotools.bbclass" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected autotools.bbclass among suggestions, got %v", nf.Suggestions)
	}
}

func TestResolveCachesRepeatedLookups(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.bbclass", "")
	m := metrics.New()
	r := New(mtimecache.New(), m)

	if _, err := r.Resolve("base.bbclass", []string{dir}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Resolve("base.bbclass", []string{dir}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := m.Snapshot()
	rf := snap["resolve_file"]
	if rf == nil {
		t.Fatalf("expected resolve_file section in metrics")
	}
}

func TestMarkAndCheckDependency(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "layer.conf", "X = 1\n")

	r := New(mtimecache.New(), nil)
	r.MarkDependency(path)
	if !r.CheckDependency(path) {
		t.Fatalf("expected dependency to be marked")
	}
	deps := r.Dependencies()
	if len(deps) != 1 || deps[0].Path != path {
		t.Fatalf("unexpected deps: %+v", deps)
	}
}

func TestMarkDependencyDedupesByValue(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "layer.conf", "X = 1\n")

	r := New(mtimecache.New(), nil)
	r.MarkDependency(path)
	r.MarkDependency(path)
	if len(r.Dependencies()) != 1 {
		t.Fatalf("expected duplicate mark to be deduped")
	}
}
