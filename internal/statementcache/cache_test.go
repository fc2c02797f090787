package statementcache

import (
	"testing"

	"github.com/standardbeagle/bbcore/internal/ast"
)

func TestCacheableExtensions(t *testing.T) {
	cases := map[string]bool{
		"base.bbclass":  true,
		"common.inc":    true,
		"recipe.bb":     false,
		"recipe.bbappend": false,
	}
	for name, want := range cases {
		if got := Cacheable(name); got != want {
			t.Errorf("Cacheable(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	c := New()
	key := Key{AbsPath: "/meta/classes/base.bbclass"}
	group := &ast.StatementGroup{}
	c.Put(key, group)

	got, ok := c.Get(key)
	if !ok || got != group {
		t.Fatalf("expected cached group returned, got %v ok=%v", got, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("expected len 1, got %d", c.Len())
	}
}

func TestGetMissReturnsFalse(t *testing.T) {
	c := New()
	_, ok := c.Get(Key{AbsPath: "/nope.bbclass"})
	if ok {
		t.Fatalf("expected miss")
	}
}

func TestClearEmptiesCache(t *testing.T) {
	c := New()
	c.Put(Key{AbsPath: "a.bbclass"}, &ast.StatementGroup{})
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after Clear")
	}
}
