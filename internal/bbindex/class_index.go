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

const classIndexMax = 128

type classKey struct {
	classtype string
	bbpath    string
}

type classEntry struct {
	fp      uint64
	mapping map[string]string
}

// ClassIndex caches, per (classtype, BBPATH) pair, a class-basename to
// absolute .bbclass path mapping, searched two levels deep per BBPATH
// entry: "classes-<classtype>" first, then the plain "classes" directory,
// mirroring BBHandler.py's _bbpath_dirs_for_classes.
type ClassIndex struct {
	mu      sync.Mutex
	cache   *lru.Cache[classKey, classEntry]
	metrics *metrics.Sink

	// DisableCache mirrors BB_OPT_DISABLE_CLASS_INDEX.
	DisableCache bool
}

// NewClassIndex returns an empty ClassIndex. m may be nil.
func NewClassIndex(m *metrics.Sink) *ClassIndex {
	idx := &ClassIndex{
		cache:   lru.New[classKey, classEntry](classIndexMax),
		metrics: m,
	}
	idx.cache.OnEvict = func(classKey, classEntry) {
		if idx.metrics != nil {
			idx.metrics.Evict("class_index")
		}
	}
	return idx
}

// classDirs returns every existing "classes-<classtype>" then "classes"
// directory across bbpath, in search order.
func classDirs(bbpath, classtype string) []string {
	var dirs []string
	for _, p := range strings.Split(bbpath, ":") {
		if p == "" {
			continue
		}
		for _, t := range []string{"classes-" + classtype, "classes"} {
			d := filepath.Join(p, t)
			if fi, err := os.Stat(d); err == nil && fi.IsDir() {
				dirs = append(dirs, d)
			}
		}
	}
	return dirs
}

func buildClassMapping(dirs []string) map[string]string {
	type result struct {
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
				results[i] = result{}
				return nil
			}
			for _, de := range des {
				if de.IsDir() || !strings.HasSuffix(de.Name(), ".bbclass") {
					continue
				}
				cls := strings.TrimSuffix(de.Name(), ".bbclass")
				entries[cls] = filepath.Join(d, de.Name())
			}
			results[i] = result{entries: entries}
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

// Resolve looks up classname under classtype across bbpath, returning the
// resolved .bbclass path (empty if not found) and the ordered attempt list
// bitbake would have generated by hand for dependency marking.
func (idx *ClassIndex) Resolve(bbpath, classtype, classname string) (resolved string, attempts []string) {
	for _, p := range strings.Split(bbpath, ":") {
		if p == "" {
			continue
		}
		for _, t := range []string{"classes-" + classtype, "classes"} {
			attempts = append(attempts, filepath.Join(p, t, classname+".bbclass"))
		}
	}

	dirs := classDirs(bbpath, classtype)
	key := classKey{classtype: classtype, bbpath: bbpath}
	fp := fingerprint(dirs)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.DisableCache {
		if cached, ok := idx.cache.Get(key); ok && cached.fp == fp {
			if idx.metrics != nil {
				idx.metrics.Hit("class_index")
			}
			return cached.mapping[classname], attempts
		}
	}

	mapping := buildClassMapping(dirs)
	if !idx.DisableCache {
		idx.cache.Set(key, classEntry{fp: fp, mapping: mapping})
	}
	if idx.metrics != nil {
		idx.metrics.Miss("class_index")
	}
	return mapping[classname], attempts
}

// Invalidate drops every cached entry.
func (idx *ClassIndex) Invalidate() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.cache.Clear()
}
