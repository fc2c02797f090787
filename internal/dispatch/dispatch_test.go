package dispatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/bbcore/internal/bbindex"
	"github.com/standardbeagle/bbcore/internal/datastore"
	"github.com/standardbeagle/bbcore/internal/inherit"
	"github.com/standardbeagle/bbcore/internal/mtimecache"
	"github.com/standardbeagle/bbcore/internal/resolver"
	"github.com/standardbeagle/bbcore/internal/statementcache"
)

func newDispatcher(ds datastore.Datastore) *Dispatcher {
	r := resolver.New(mtimecache.New(), nil)
	inc := bbindex.NewIncludeIndex(nil)
	cls := bbindex.NewClassIndex(nil)
	inh := inherit.New(cls, r, nil)
	sc := statementcache.New()
	d := New(r, inc, cls, inh, sc, nil)
	inh.Handle = func(path string) error {
		return d.Handle(path, ds, true)
	}
	return d
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestSupportsKnownExtensions(t *testing.T) {
	d := newDispatcher(datastore.NewMemDataStore())
	for _, name := range []string{"a.bb", "a.bbclass", "a.inc", "a.conf"} {
		if !d.Supports(name) {
			t.Errorf("expected %q supported", name)
		}
	}
	if d.Supports("a.txt") {
		t.Errorf("expected .txt unsupported")
	}
}

func TestHandleConfRunsConfFilters(t *testing.T) {
	root := t.TempDir()
	confPath := filepath.Join(root, "local.conf")
	writeFile(t, confPath, `MACHINE = "qemux86-64"`+"\n")

	ds := datastore.NewMemDataStore()
	d := newDispatcher(ds)
	var filtered string
	d.RegisterConfFilter(func(filename string, ds datastore.Datastore) {
		filtered = filename
	})

	if err := d.Handle(confPath, ds, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := ds.GetVar("MACHINE"); v != "qemux86-64" {
		t.Fatalf("got MACHINE=%q", v)
	}
	if filtered != confPath {
		t.Fatalf("expected confFilter invoked with %q, got %q", confPath, filtered)
	}
}

func TestHandleRecipeCollectsTasks(t *testing.T) {
	root := t.TempDir()
	recipePath := filepath.Join(root, "example.bb")
	writeFile(t, recipePath, "SUMMARY = \"x\"\naddtask mytask after do_compile\n")

	ds := datastore.NewMemDataStore()
	d := newDispatcher(ds)
	if err := d.Handle(recipePath, ds, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Tasks) != 1 || d.Tasks[0].Name != "mytask" {
		t.Fatalf("unexpected tasks: %+v", d.Tasks)
	}
}

func TestHandleUnsupportedExtensionIsParseError(t *testing.T) {
	ds := datastore.NewMemDataStore()
	d := newDispatcher(ds)
	err := d.Handle("weird.txt", ds, false)
	if err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}

func TestDisableStatementsSkipsCache(t *testing.T) {
	root := t.TempDir()
	classPath := filepath.Join(root, "base.bbclass")
	writeFile(t, classPath, `X = "1"`+"\n")

	ds := datastore.NewMemDataStore()
	d := newDispatcher(ds)
	d.DisableStatements = true

	if _, err := d.ParseFile(classPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Statements.Len() != 0 {
		t.Fatalf("expected nothing cached while DisableStatements is set")
	}
}

func TestHandleIncludeSelfIsNoOp(t *testing.T) {
	root := t.TempDir()
	confPath := filepath.Join(root, "self.conf")
	writeFile(t, confPath, `include self.conf`+"\n"+`X = "1"`+"\n")

	ds := datastore.NewMemDataStore()
	d := newDispatcher(ds)
	ds.SetVar("BBPATH", root)

	if err := d.Handle(confPath, ds, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := ds.GetVar("X"); !ok || v != "1" {
		t.Fatalf("expected X=1 set despite self-include, got %q ok=%v", v, ok)
	}
}

func TestHandleIncludeCycleIsParseError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.conf"), `include b.conf`+"\n")
	writeFile(t, filepath.Join(root, "b.conf"), `include a.conf`+"\n")

	ds := datastore.NewMemDataStore()
	d := newDispatcher(ds)
	ds.SetVar("BBPATH", root)

	err := d.Handle(filepath.Join(root, "a.conf"), ds, false)
	if err == nil {
		t.Fatalf("expected include cycle to be detected")
	}
}

func TestHandleDrainsDeferredInheritAfterTopLevelStatements(t *testing.T) {
	root := t.TempDir()
	classesDir := filepath.Join(root, "classes")
	writeFile(t, filepath.Join(classesDir, "deferred.bbclass"), `DEFERRED_INHERITED = "1"`+"\n")
	recipePath := filepath.Join(root, "example.bb")
	writeFile(t, recipePath, "inherit_defer deferred\nSUMMARY = \"x\"\n")

	ds := datastore.NewMemDataStore()
	d := newDispatcher(ds)
	ds.SetVar("BBPATH", root)

	if err := d.Handle(recipePath, ds, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := ds.GetVar("DEFERRED_INHERITED"); !ok || v != "1" {
		t.Fatalf("expected deferred.bbclass to be drained and evaluated, got %q ok=%v", v, ok)
	}
	if len(d.Inherit.Deferred()) != 0 {
		t.Fatalf("expected deferred queue cleared after drain")
	}
}

func TestHandleIncludeDoesNotDrainDeferredInherit(t *testing.T) {
	root := t.TempDir()
	classesDir := filepath.Join(root, "classes")
	writeFile(t, filepath.Join(classesDir, "deferred.bbclass"), `DEFERRED_INHERITED = "1"`+"\n")
	incPath := filepath.Join(root, "example.inc")
	writeFile(t, incPath, "inherit_defer deferred\n")

	ds := datastore.NewMemDataStore()
	d := newDispatcher(ds)
	ds.SetVar("BBPATH", root)

	if err := d.Handle(incPath, ds, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ds.GetVar("DEFERRED_INHERITED"); ok {
		t.Fatalf("expected deferred inherit not to run on an include-level Handle")
	}
	if len(d.Inherit.Deferred()) != 1 {
		t.Fatalf("expected deferred inherit to remain queued for the top-level caller")
	}
}

func TestHandleInheritsClass(t *testing.T) {
	root := t.TempDir()
	classesDir := filepath.Join(root, "classes")
	writeFile(t, filepath.Join(classesDir, "base.bbclass"), `BASE_INHERITED = "1"`+"\n")
	recipePath := filepath.Join(root, "example.bb")
	writeFile(t, recipePath, "inherit base\n")

	ds := datastore.NewMemDataStore()
	d := newDispatcher(ds)
	ds.SetVar("BBPATH", root)

	if err := d.Handle(recipePath, ds, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := ds.GetVar("BASE_INHERITED"); !ok || v != "1" {
		t.Fatalf("expected base.bbclass to be evaluated, got %q ok=%v", v, ok)
	}
}
