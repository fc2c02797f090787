// Package dispatch implements HandlerDispatcher (spec §4.I): the top-level
// "which grammar understands this file, and what happens when we run it"
// layer, grounded on bb.parse's handlers list, _get_handler/supports/handle
// and ConfHandler.py's confFilters. It wires internal/ast's EvalContext
// hooks to internal/resolver, internal/bbindex, internal/inherit and
// internal/statementcache so that include/require/include_all/inherit/
// inherit_defer resolve and actually run against a shared datastore.
package dispatch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/bbcore/internal/ast"
	"github.com/standardbeagle/bbcore/internal/bberrors"
	"github.com/standardbeagle/bbcore/internal/bbindex"
	"github.com/standardbeagle/bbcore/internal/datastore"
	"github.com/standardbeagle/bbcore/internal/grammar/bbgrammar"
	"github.com/standardbeagle/bbcore/internal/grammar/confgrammar"
	"github.com/standardbeagle/bbcore/internal/inherit"
	"github.com/standardbeagle/bbcore/internal/metrics"
	"github.com/standardbeagle/bbcore/internal/resolver"
	"github.com/standardbeagle/bbcore/internal/statementcache"
)

// maxIncludeDepth bounds include/require recursion (spec §5 SHOULD): past
// this many nested includes an include cycle is assumed rather than letting
// the call stack exhaust.
const maxIncludeDepth = 1024

// ConfFilter is run after a .conf file has been fully evaluated, the
// analogue of ConfHandler.py's confFilters list.
type ConfFilter func(filename string, ds datastore.Datastore)

// TaskInfo records one addtask/deltask/addhandler/exportfuncs observation
// collected while evaluating a recipe or class, since running tasks is out
// of scope but reporting what was declared is a natural "what would this
// recipe do" surface.
type TaskInfo struct {
	Name   string
	Before []string
	After  []string
}

// Dispatcher ties the grammar, index, resolver and inherit layers together
// behind bb.parse's public handle/resolve_file/supports surface.
type Dispatcher struct {
	Resolver     *resolver.FileResolver
	IncludeIndex *bbindex.IncludeIndex
	ClassIndex   *bbindex.ClassIndex
	Inherit      *inherit.Engine
	Statements   *statementcache.Cache
	Metrics      *metrics.Sink

	confFilters []ConfFilter

	supportsCache        map[string]bool
	DisableSupportsCache bool

	// DisableStatements mirrors BB_OPT_DISABLE_CONF_AST_CACHE: every
	// .bbclass/.inc parse is redone from disk instead of consulting
	// internal/statementcache.
	DisableStatements bool

	// Bookkeeping accumulated across every file handled through this
	// Dispatcher, including included and inherited files. Nothing here
	// resets it between top-level Handle calls.
	Tasks        []TaskInfo
	DeletedTasks []string
	Handlers     []string
	ExportFuncs  map[string][]string
	PyLibs       map[string]string

	includeDepth int
}

// New returns a Dispatcher wired from the given components. Any component
// may be nil for tests that only exercise part of the pipeline.
func New(r *resolver.FileResolver, inc *bbindex.IncludeIndex, cls *bbindex.ClassIndex, inh *inherit.Engine, sc *statementcache.Cache, m *metrics.Sink) *Dispatcher {
	return &Dispatcher{
		Resolver:     r,
		IncludeIndex: inc,
		ClassIndex:   cls,
		Inherit:      inh,
		Statements:   sc,
		Metrics:      m,
		supportsCache: make(map[string]bool),
		ExportFuncs:  make(map[string][]string),
		PyLibs:       make(map[string]string),
	}
}

// RegisterConfFilter appends f to the list run after every .conf handle
// (spec's supplemented feature #4).
func (d *Dispatcher) RegisterConfFilter(f ConfFilter) {
	d.confFilters = append(d.confFilters, f)
}

// Supports reports whether fn has an extension this dispatcher understands,
// memoized per extension like _get_handler's _supports_cache.
func (d *Dispatcher) Supports(fn string) bool {
	ext := filepath.Ext(fn)
	if !d.DisableSupportsCache {
		if v, ok := d.supportsCache[ext]; ok {
			if d.Metrics != nil {
				d.Metrics.Hit("supports")
			}
			return v
		}
	}
	v := ext == ".conf" || ext == ".bb" || ext == ".bbclass" || ext == ".inc" || ext == ".bbappend"
	if !d.DisableSupportsCache {
		d.supportsCache[ext] = v
	}
	if d.Metrics != nil {
		d.Metrics.Miss("supports")
	}
	return v
}

// Handle parses and evaluates fn against ds, the analogue of bb.parse's
// top-level handle(). include is true when fn is being pulled in by
// another file's include/require/inherit rather than being the top-level
// target.
func (d *Dispatcher) Handle(fn string, ds datastore.Datastore, include bool) error {
	if !d.Supports(fn) {
		return bberrors.NewParseError(fn, 0, "not a BitBake file")
	}

	ds.PushInclude(fn)
	defer ds.PopInclude()

	var oldFile string
	if include {
		oldFile, _ = ds.GetVar("FILE")
	}

	group, err := d.parseFile(fn)
	if err != nil {
		return err
	}

	ds.SetVar("FILE", fn)
	ctx := d.newEvalContext(ds, fn)
	if err := group.Eval(ctx); err != nil {
		return err
	}
	if include && oldFile != "" {
		ds.SetVar("FILE", oldFile)
	}

	if !include {
		if err := d.drainDeferredInherits(ds, fn); err != nil {
			return err
		}
	}

	if strings.HasSuffix(fn, ".conf") {
		for _, f := range d.confFilters {
			f(fn, ds)
		}
	}
	return nil
}

// drainDeferredInherits runs the second phase of the two-phase inherit
// model (spec §4.H): after a top-level file's own statements have all
// evaluated, every inherit_defer/BB_DEFER_BBCLASSES class queued during
// that evaluation is applied, in the order it was deferred, then the queue
// is cleared so a later top-level Handle on the same Engine starts empty.
func (d *Dispatcher) drainDeferredInherits(ds datastore.Datastore, fn string) error {
	if d.Inherit == nil {
		return nil
	}
	deferred := d.Inherit.Deferred()
	if len(deferred) == 0 {
		return nil
	}
	classtype, _ := ds.GetVar("__bbclasstype")
	bbpath, _ := ds.GetVar("BBPATH")
	// Apply re-queues any name listed in BB_DEFER_BBCLASSES, so blank it for
	// this phase and restore it afterwards.
	if deferClasses, ok := ds.GetVar("BB_DEFER_BBCLASSES"); ok {
		ds.SetVar("BB_DEFER_BBCLASSES", "")
		defer ds.SetVar("BB_DEFER_BBCLASSES", deferClasses)
	}
	for _, def := range deferred {
		if err := d.Inherit.Apply(ds, classtype, bbpath, def.Expr, def.File, def.Line, false); err != nil {
			d.Inherit.ClearDeferred()
			return err
		}
	}
	d.Inherit.ClearDeferred()
	return nil
}

// ParseFile parses fn into a StatementGroup without evaluating it,
// consulting and populating the statement cache for .bbclass/.inc files
// the same way Handle does internally.
func (d *Dispatcher) ParseFile(fn string) (*ast.StatementGroup, error) {
	return d.parseFile(fn)
}

func (d *Dispatcher) parseFile(fn string) (*ast.StatementGroup, error) {
	key := statementcache.Key{AbsPath: fn}
	if !d.DisableStatements && d.Statements != nil && statementcache.Cacheable(fn) {
		if g, ok := d.Statements.Get(key); ok {
			return g, nil
		}
	}

	f, err := os.Open(fn)
	if err != nil {
		return nil, bberrors.NewNotFoundError(fn, nil)
	}
	defer f.Close()

	var group *ast.StatementGroup
	if strings.HasSuffix(fn, ".conf") {
		feeder := confgrammar.NewLineFeeder(f, fn)
		group, err = confgrammar.ParseStatements(feeder)
	} else {
		group, err = bbgrammar.ParseReader(f, fn)
	}
	if err != nil {
		return nil, err
	}

	if !d.DisableStatements && d.Statements != nil && statementcache.Cacheable(fn) {
		d.Statements.Put(key, group)
	}
	return group, nil
}

func (d *Dispatcher) newEvalContext(ds datastore.Datastore, fn string) *ast.EvalContext {
	bbpath, _ := ds.GetVar("BBPATH")
	searchPath := strings.Split(bbpath, ":")

	return &ast.EvalContext{
		DS:         ds,
		SearchPath: searchPath,

		Include: func(ctx *ast.EvalContext, path string, required bool) error {
			return d.handleInclude(ctx, fn, path, required)
		},
		IncludeAll: func(ctx *ast.EvalContext, pattern string) error {
			return d.handleIncludeAll(ctx, fn, pattern)
		},
		Inherit: func(ctx *ast.EvalContext, classExpr string, deferred bool) error {
			classtype, _ := ds.GetVar("__bbclasstype")
			return d.Inherit.Apply(ds, classtype, bbpath, classExpr, fn, 0, deferred)
		},
		AddTask: func(name string, before, after []string) error {
			d.Tasks = append(d.Tasks, TaskInfo{Name: name, Before: before, After: after})
			return nil
		},
		DelTask: func(name string) {
			d.DeletedTasks = append(d.DeletedTasks, name)
		},
		AddHandler: func(names []string) {
			d.Handlers = append(d.Handlers, names...)
		},
		ExportFuncs: func(classname string, funcs []string) {
			d.ExportFuncs[classname] = append(d.ExportFuncs[classname], funcs...)
		},
		AddPyLib: func(path, namespace string) {
			d.PyLibs[namespace] = path
		},
		AddFragments: func(pattern, varname string) {},
	}
}

func (d *Dispatcher) handleInclude(ctx *ast.EvalContext, parentFn, path string, required bool) error {
	dname := filepath.Dir(parentFn)
	bbpath := strings.Join(ctx.SearchPath, ":")

	var resolved string
	var attempts []string
	if d.IncludeIndex != nil {
		resolved, attempts = d.IncludeIndex.Resolve(dname, bbpath, path)
	} else {
		resolved, attempts = "", nil
	}

	// A file never includes itself: prevent infinite recursion the same
	// way include_single_file does, as a silent no-op that marks no
	// dependency rather than an error.
	if resolved != "" && filepath.Clean(resolved) == filepath.Clean(parentFn) {
		return nil
	}

	for _, a := range attempts {
		if a != resolved {
			d.Resolver.MarkDependency(a)
		}
	}

	if resolved == "" {
		if required {
			return bberrors.NewParseError(parentFn, 0, "could not require file "+path)
		}
		return nil
	}

	if d.includeDepth >= maxIncludeDepth {
		return bberrors.NewParseError(parentFn, 0, "include cycle suspected")
	}
	d.includeDepth++
	defer func() { d.includeDepth-- }()

	return d.Handle(resolved, ctx.DS, true)
}

// handleIncludeAll expands pattern as a doublestar glob (so `**` can reach
// into nested BBPATH subdirectories) across every search directory,
// including every match in directory order.
func (d *Dispatcher) handleIncludeAll(ctx *ast.EvalContext, parentFn, pattern string) error {
	for _, dir := range ctx.SearchPath {
		if dir == "" {
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(dir), pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			if err := d.Handle(filepath.Join(dir, m), ctx.DS, true); err != nil {
				return err
			}
		}
	}
	return nil
}
