// Package inherit implements InheritEngine (spec §4.H): resolving and
// applying `inherit`/`inherit_defer` directives, grounded on BBHandler.py's
// _resolve_inherit_file/inherit/inherit_defer. Deferred inherits (classes
// named in BB_DEFER_BBCLASSES, or explicit inherit_defer) are collected on
// the Engine itself rather than stuffed into a reserved datastore variable
// as __BBDEFINHERITS does, since Datastore here models get/set/expand, not
// arbitrary structured bookkeeping — see DESIGN.md.
package inherit

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/bbcore/internal/bbindex"
	"github.com/standardbeagle/bbcore/internal/bberrors"
	"github.com/standardbeagle/bbcore/internal/datastore"
	"github.com/standardbeagle/bbcore/internal/lru"
	"github.com/standardbeagle/bbcore/internal/metrics"
	"github.com/standardbeagle/bbcore/internal/resolver"
)

const inheritMemoMax = 8192

type memoKey struct {
	origfile  string
	classtype string
	bbpath    string
}

type memoValue struct {
	resolved string
	attempts []string
}

// DeferredInherit records an inherit that could not run immediately,
// either because its class was named in BB_DEFER_BBCLASSES or because it
// arrived via `inherit_defer`.
type DeferredInherit struct {
	Expr string
	File string
	Line int
}

// Engine resolves class names to .bbclass paths and drives applying them,
// calling back into Handle to actually parse and evaluate a resolved file.
type Engine struct {
	classIndex *bbindex.ClassIndex
	resolver   *resolver.FileResolver
	memo       *lru.Cache[memoKey, memoValue]
	metrics    *metrics.Sink

	deferred []DeferredInherit

	// Handle parses and evaluates path into the current datastore. Set by
	// the dispatcher; nil Handle makes Apply a no-op resolution-only path,
	// useful for tests that only care about resolution.
	Handle func(path string) error

	// DisableMemo mirrors BB_OPT_DISABLE_INHERIT_MEMO: every resolveOne call
	// re-walks the class index/BBPATH instead of consulting the memo.
	DisableMemo bool
}

// New returns an Engine backed by idx for class lookups and r for
// dependency marking. m may be nil.
func New(idx *bbindex.ClassIndex, r *resolver.FileResolver, m *metrics.Sink) *Engine {
	e := &Engine{
		classIndex: idx,
		resolver:   r,
		memo:       lru.New[memoKey, memoValue](inheritMemoMax),
		metrics:    m,
	}
	e.memo.OnEvict = func(memoKey, memoValue) {
		if e.metrics != nil {
			e.metrics.Evict("inherit")
		}
	}
	return e
}

// resolveOne resolves a single class name/path to an absolute .bbclass
// file, mirroring _resolve_inherit_file's three branches: indexed lookup for
// a bare class name, BBPATH-walk for a "subdir/name" reference, and a plain
// existence check for an absolute path or one that already ends in
// .bbclass.
func (e *Engine) resolveOne(origfile, classtype, bbpath string) (string, []string) {
	if filepath.IsAbs(origfile) || strings.HasSuffix(origfile, ".bbclass") {
		if _, err := os.Stat(origfile); err == nil {
			return origfile, nil
		}
		return "", nil
	}

	key := memoKey{origfile: origfile, classtype: classtype, bbpath: bbpath}
	if !e.DisableMemo {
		if v, ok := e.memo.Get(key); ok {
			if e.metrics != nil {
				e.metrics.Hit("inherit")
			}
			return v.resolved, v.attempts
		}
	}

	var resolved string
	var attempts []string

	if strings.Contains(origfile, "/") {
		for _, p := range strings.Split(bbpath, ":") {
			if p == "" {
				continue
			}
			for _, t := range []string{"classes-" + classtype, "classes"} {
				cand := filepath.Join(p, t, origfile+".bbclass")
				attempts = append(attempts, cand)
				if resolved == "" {
					if fi, err := os.Stat(cand); err == nil && !fi.IsDir() {
						resolved = cand
					}
				}
			}
		}
	} else {
		resolved, attempts = e.classIndex.Resolve(bbpath, classtype, origfile)
	}

	if e.metrics != nil {
		e.metrics.Miss("inherit")
	}
	if !e.DisableMemo {
		e.memo.Set(key, memoValue{resolved: resolved, attempts: attempts})
	}
	return resolved, attempts
}

// Apply processes an `inherit <expr>` or `inherit_defer <expr>` directive
// already expanded. classtype and bbpath come from the current datastore/
// context; file and line are only used for error reporting.
//
// deferred is true only for an explicit `inherit_defer`: unlike plain
// `inherit`, it does not split expr or check BB_DEFER_BBCLASSES at all —
// the whole raw expression is queued for the later deferred-evaluation
// phase, mirroring inherit_defer()'s unconditional append to
// __BBDEFINHERITS.
func (e *Engine) Apply(ds datastore.Datastore, classtype, bbpath, expr, file string, line int, deferred bool) error {
	if deferred {
		e.deferred = append(e.deferred, DeferredInherit{Expr: expr, File: file, Line: line})
		return nil
	}

	deferSet := make(map[string]bool)
	if v, ok := ds.GetVar("BB_DEFER_BBCLASSES"); ok {
		for _, name := range strings.Fields(v) {
			deferSet[name] = true
		}
	}

	for _, name := range strings.Fields(expr) {
		if deferSet[name] {
			e.deferred = append(e.deferred, DeferredInherit{Expr: name, File: file, Line: line})
			continue
		}

		resolved, attempts := e.resolveOne(name, classtype, bbpath)
		for _, a := range attempts {
			if a != resolved {
				e.resolver.MarkDependency(a)
			}
		}

		if resolved == "" {
			return bberrors.NewParseError(file, line, "could not inherit file "+name)
		}

		if ds.InheritedClasses()[classtype+":"+resolved] {
			continue
		}
		ds.MarkInherited(classtype, resolved)

		if e.Handle != nil {
			if err := e.Handle(resolved); err != nil {
				return bberrors.NewParseError(file, line, "could not inherit file "+name).WithUnderlying(err)
			}
		}
	}
	return nil
}

// Deferred returns every inherit collected because its class was deferred,
// in the order encountered, for the two-phase evaluation driven by
// internal/dispatch (spec §4.H's __BBDEFINHERITS phase).
func (e *Engine) Deferred() []DeferredInherit {
	out := make([]DeferredInherit, len(e.deferred))
	copy(out, e.deferred)
	return out
}

// ClearDeferred empties the deferred list, called after the second phase
// has processed it.
func (e *Engine) ClearDeferred() {
	e.deferred = nil
}
