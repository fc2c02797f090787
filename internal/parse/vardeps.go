package parse

import (
	"strings"
	"sync"
)

// depRegistry is the Go-idiomatic stand-in for Python's vardeps/
// vardepsexclude decorators: bb.parse.vardeps/vardepsexclude attach a
// bb_vardeps/bb_vardepsexclude set attribute directly onto a function
// object. Go functions carry no attributes, so the association is kept
// here keyed by the function's declared name (the shell/python function
// name a recipe defines, e.g. "do_compile"), the same name addtask and
// EXPORT_FUNCTIONS already key off of.
type depRegistry struct {
	mu       sync.Mutex
	deps     map[string]map[string]bool
	excludes map[string]map[string]bool
}

var registry = &depRegistry{
	deps:     make(map[string]map[string]bool),
	excludes: make(map[string]map[string]bool),
}

func addNames(m map[string]map[string]bool, fn string, names []string) {
	set, ok := m[fn]
	if !ok {
		set = make(map[string]bool)
		m[fn] = set
	}
	for _, n := range names {
		set[n] = true
	}
}

// VarDeps declares that fn's signature additionally depends on varnames,
// the analogue of @bb.parse.vardeps(*varnames) applied to a task function.
func VarDeps(fn string, varnames ...string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	addNames(registry.deps, fn, varnames)
}

// VarDepsExclude declares that fn's signature must ignore varnames even if
// they would otherwise be picked up by shell/python variable scanning, the
// analogue of @bb.parse.vardepsexclude(*varnames).
func VarDepsExclude(fn string, varnames ...string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	addNames(registry.excludes, fn, varnames)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// GetVarDeps returns the extra variable names registered for fn via
// VarDeps, sorted, empty if none were registered.
func GetVarDeps(fn string) []string {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return sortedKeys(registry.deps[fn])
}

// GetVarDepsExclude returns the variable names registered for fn via
// VarDepsExclude, sorted, empty if none were registered.
func GetVarDepsExclude(fn string) []string {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return sortedKeys(registry.excludes[fn])
}

var (
	pkgsplitMu    sync.Mutex
	pkgsplitCache = make(map[string][3]string)
)

// VarsFromFile splits a recipe's basename into (pn, pv, pr) the way
// vars_from_file does: "name_version_revision.bb" with "_"-separated
// fields, at most three parts, and memoizes the result per basename in
// __pkgsplit_cache__'s manner (recipe basenames repeat heavily across a
// single parse run, read a handful of times each).
func VarsFromFile(filename string) (pn, pv, pr string) {
	if filename == "" {
		return "", "", ""
	}

	base := filename
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndexByte(base, '.'); idx >= 0 {
		base = base[:idx]
	}

	pkgsplitMu.Lock()
	if cached, ok := pkgsplitCache[base]; ok {
		pkgsplitMu.Unlock()
		return cached[0], cached[1], cached[2]
	}
	pkgsplitMu.Unlock()

	parts := strings.SplitN(base, "_", 3)
	switch len(parts) {
	case 1:
		pn = parts[0]
	case 2:
		pn, pv = parts[0], parts[1]
	case 3:
		pn, pv, pr = parts[0], parts[1], parts[2]
	}

	pkgsplitMu.Lock()
	pkgsplitCache[base] = [3]string{pn, pv, pr}
	pkgsplitMu.Unlock()
	return pn, pv, pr
}
