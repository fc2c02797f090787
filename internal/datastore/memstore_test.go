package datastore

import "testing"

func TestSetGetVar(t *testing.T) {
	d := NewMemDataStore()
	d.SetVar("PN", "example")
	v, ok := d.GetVar("PN")
	if !ok || v != "example" {
		t.Fatalf("got %q ok=%v, want \"example\" true", v, ok)
	}
}

func TestExpandSubstitutesKnownVars(t *testing.T) {
	d := NewMemDataStore()
	d.SetVar("PN", "example")
	d.SetVar("PV", "1.0")
	out, err := d.Expand("${PN}-${PV}.tar.gz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "example-1.0.tar.gz" {
		t.Fatalf("got %q", out)
	}
}

func TestExpandLeavesUnknownVarsUntouched(t *testing.T) {
	d := NewMemDataStore()
	out, _ := d.Expand("${UNKNOWN_VAR}")
	if out != "${UNKNOWN_VAR}" {
		t.Fatalf("expected unresolved reference preserved, got %q", out)
	}
}

func TestExpandIsNotRecursive(t *testing.T) {
	d := NewMemDataStore()
	d.SetVar("A", "${B}")
	d.SetVar("B", "value")
	out, _ := d.Expand("${A}")
	if out != "${B}" {
		t.Fatalf("expected one-pass expansion to stop at %q, got %q", "${B}", out)
	}
}

func TestIncludeHistoryPushPop(t *testing.T) {
	d := NewMemDataStore()
	d.PushInclude("a.conf")
	d.PushInclude("b.conf")
	if got := d.IncludeHistory(); len(got) != 2 || got[1] != "b.conf" {
		t.Fatalf("unexpected include history: %v", got)
	}
	d.PopInclude()
	if got := d.IncludeHistory(); len(got) != 1 || got[0] != "a.conf" {
		t.Fatalf("unexpected include history after pop: %v", got)
	}
}

func TestMarkInheritedIsPerClasstype(t *testing.T) {
	d := NewMemDataStore()
	d.MarkInherited("bbclass", "autotools")
	got := d.InheritedClasses()
	if !got["bbclass:autotools"] {
		t.Fatalf("expected autotools marked inherited, got %v", got)
	}
}
