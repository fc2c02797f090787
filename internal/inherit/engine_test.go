package inherit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/bbcore/internal/bbindex"
	"github.com/standardbeagle/bbcore/internal/datastore"
	"github.com/standardbeagle/bbcore/internal/mtimecache"
	"github.com/standardbeagle/bbcore/internal/resolver"
)

func setup(t *testing.T) (string, *Engine) {
	t.Helper()
	root := t.TempDir()
	classesDir := filepath.Join(root, "classes")
	if err := os.MkdirAll(classesDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(classesDir, "autotools.bbclass"), []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	idx := bbindex.NewClassIndex(nil)
	r := resolver.New(mtimecache.New(), nil)
	return root, New(idx, r, nil)
}

func TestApplyHandlesClassOnce(t *testing.T) {
	root, e := setup(t)
	var handled []string
	e.Handle = func(path string) error {
		handled = append(handled, path)
		return nil
	}
	ds := datastore.NewMemDataStore()

	if err := e.Apply(ds, "recipe", root, "autotools", "recipe.bb", 10, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.Apply(ds, "recipe", root, "autotools", "recipe.bb", 11, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(handled) != 1 {
		t.Fatalf("expected class handled exactly once, got %d: %v", len(handled), handled)
	}
}

func TestApplyMissingClassIsParseError(t *testing.T) {
	root, e := setup(t)
	ds := datastore.NewMemDataStore()
	err := e.Apply(ds, "recipe", root, "doesnotexist", "recipe.bb", 5, false)
	if err == nil {
		t.Fatalf("expected error for missing class")
	}
}

func TestApplyDefersClassNamedInBBDeferBBClasses(t *testing.T) {
	root, e := setup(t)
	ds := datastore.NewMemDataStore()
	ds.SetVar("BB_DEFER_BBCLASSES", "autotools")

	var handled bool
	e.Handle = func(path string) error { handled = true; return nil }

	if err := e.Apply(ds, "recipe", root, "autotools", "recipe.bb", 1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handled {
		t.Fatalf("expected class to be deferred, not handled immediately")
	}
	deferred := e.Deferred()
	if len(deferred) != 1 || deferred[0].Expr != "autotools" {
		t.Fatalf("unexpected deferred list: %+v", deferred)
	}
}

func TestApplyDisableMemoStillResolves(t *testing.T) {
	root, e := setup(t)
	e.DisableMemo = true
	ds := datastore.NewMemDataStore()
	var calls int
	e.Handle = func(path string) error { calls++; return nil }

	if err := e.Apply(ds, "recipe", root, "autotools", "recipe.bb", 1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected class handled once, got %d", calls)
	}
	if e.memo.Len() != 0 {
		t.Fatalf("expected nothing memoized while DisableMemo is set")
	}
}

func TestInheritDeferredQueuesWithoutResolving(t *testing.T) {
	root, e := setup(t)
	ds := datastore.NewMemDataStore()
	var handled bool
	e.Handle = func(path string) error { handled = true; return nil }

	if err := e.Apply(ds, "recipe", root, "autotools notaclass", "recipe.bb", 1, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handled {
		t.Fatalf("expected inherit_defer not to resolve or handle immediately")
	}
	deferred := e.Deferred()
	if len(deferred) != 1 || deferred[0].Expr != "autotools notaclass" {
		t.Fatalf("expected the whole unsplit expression queued, got %+v", deferred)
	}
}
