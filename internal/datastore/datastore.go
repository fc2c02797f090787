// Package datastore defines the narrow interface the parse layer needs from
// a bitbake-style data store (spec §1's "Datastore" external collaborator)
// plus a minimal in-memory implementation used by tests and the CLI demo
// commands. Full lazy ${VAR} expansion with override resolution is a
// Non-goal; MemDataStore does one non-lazy substitution pass, enough to
// exercise operator semantics in internal/ast without pretending to be a
// real bitbake datastore.
package datastore

// Datastore is the subset of bb.data.init()'s behavior the parser needs:
// variable get/set, flag get/set, expansion, and the bookkeeping bitbake
// keeps on the side (include history, inherited classes, dependency marks).
type Datastore interface {
	GetVar(name string) (string, bool)
	SetVar(name, value string)
	DelVar(name string)

	GetVarFlag(name, flag string) (string, bool)
	SetVarFlag(name, flag, value string)
	DelVarFlag(name, flag string)

	// Expand performs variable substitution on expr. A real bitbake
	// datastore defers this until first read; ours does it eagerly.
	Expand(expr string) (string, error)

	// IncludeHistory returns the file include stack this datastore has
	// walked so far, innermost last, mirroring __BBPATH_ATTEMPTS/
	// __depends bookkeeping from the reference implementation.
	IncludeHistory() []string
	PushInclude(path string)
	PopInclude()

	// InheritedClasses reports every classtype:name already inherited, so
	// the inherit engine can skip repeats (spec §4.H).
	InheritedClasses() map[string]bool
	MarkInherited(classtype, name string)
}
