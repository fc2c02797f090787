package bbindex

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/bbcore/internal/lru"
	"github.com/standardbeagle/bbcore/internal/metrics"
)

const includeIndexMax = 256

type includeKey struct {
	dname  string
	bbpath string
}

type includeEntry struct {
	fp      uint64
	mapping map[string]string
}

// IncludeIndex caches, per (including-directory, BBPATH) pair, a basename
// to absolute-path mapping across every include search directory, so
// `include`/`require` directives resolve without rescanning BBPATH on every
// call. Entries are invalidated when any search directory's fingerprint
// changes.
type IncludeIndex struct {
	mu      sync.Mutex
	cache   *lru.Cache[includeKey, includeEntry]
	metrics *metrics.Sink

	// DisableCache mirrors BB_OPT_DISABLE_INCLUDE_INDEX: every Resolve call
	// rebuilds the mapping from scratch instead of consulting the fingerprinted
	// cache.
	DisableCache bool
}

// NewIncludeIndex returns an empty IncludeIndex. m may be nil.
func NewIncludeIndex(m *metrics.Sink) *IncludeIndex {
	idx := &IncludeIndex{
		cache:   lru.New[includeKey, includeEntry](includeIndexMax),
		metrics: m,
	}
	idx.cache.OnEvict = func(includeKey, includeEntry) {
		if idx.metrics != nil {
			idx.metrics.Evict("include_index")
		}
	}
	return idx
}

// searchDirs returns the directories include/require scan for dname (the
// directory of the including file) and bbpath (colon-separated BBPATH),
// mirroring ConfHandler.py's _include_search_dirs: the including file's own
// directory first, then every BBPATH entry.
func searchDirs(dname, bbpath string) []string {
	var dirs []string
	if dname != "" {
		dirs = append(dirs, dname)
	}
	for _, p := range strings.Split(bbpath, ":") {
		if p != "" {
			dirs = append(dirs, p)
		}
	}
	return dirs
}

func buildIncludeMapping(dirs []string) map[string]string {
	type result struct {
		dir     string
		entries map[string]string
	}
	results := make([]result, len(dirs))
	var g errgroup.Group
	for i, d := range dirs {
		i, d := i, d
		g.Go(func() error {
			entries := make(map[string]string)
			des, err := os.ReadDir(d)
			if err != nil {
				results[i] = result{dir: d}
				return nil
			}
			for _, de := range des {
				if de.Type().IsRegular() || de.Type()&os.ModeSymlink != 0 {
					entries[de.Name()] = filepath.Join(d, de.Name())
				}
			}
			results[i] = result{dir: d, entries: entries}
			return nil
		})
	}
	_ = g.Wait()

	mapping := make(map[string]string)
	for _, r := range results {
		for name, path := range r.entries {
			if _, exists := mapping[name]; !exists {
				mapping[name] = path
			}
		}
	}
	return mapping
}

// Resolve looks up filename across the include search directories for
// (dname, bbpath), rebuilding the cached mapping if any directory's
// fingerprint has changed since the last build. Returns the resolved
// absolute path (empty if not found) and the full ordered attempt list for
// dependency marking.
func (idx *IncludeIndex) Resolve(dname, bbpath, filename string) (resolved string, attempts []string) {
	dirs := searchDirs(dname, bbpath)
	for _, d := range dirs {
		attempts = append(attempts, filepath.Join(d, filename))
	}

	key := includeKey{dname: dname, bbpath: bbpath}
	fp := fingerprint(dirs)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.DisableCache {
		if cached, ok := idx.cache.Get(key); ok && cached.fp == fp {
			if idx.metrics != nil {
				idx.metrics.Hit("include_index")
			}
			return cached.mapping[filename], attempts
		}
	}

	mapping := buildIncludeMapping(dirs)
	if !idx.DisableCache {
		idx.cache.Set(key, includeEntry{fp: fp, mapping: mapping})
	}
	if idx.metrics != nil {
		idx.metrics.Miss("include_index")
	}
	return mapping[filename], attempts
}

// Invalidate drops every cached entry, used after a filesystem-watch event.
func (idx *IncludeIndex) Invalidate() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.cache.Clear()
}
