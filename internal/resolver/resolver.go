// Package resolver implements FileResolver (spec §4.C): resolution of a
// bare or absolute filename against a BBPATH-style search path, with an
// LRU memoization of prior resolutions and dependency tracking, grounded on
// bb.parse.resolve_file / bb.utils.which and mark_dependency /
// check_dependency.
package resolver

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/bbcore/internal/bberrors"
	"github.com/standardbeagle/bbcore/internal/bbtypes"
	"github.com/standardbeagle/bbcore/internal/lru"
	"github.com/standardbeagle/bbcore/internal/metrics"
	"github.com/standardbeagle/bbcore/internal/mtimecache"
)

// resolveCacheMax mirrors _RESOLVE_CACHE_MAX in the reference implementation.
const resolveCacheMax = 8192

// suggestionLimit caps how many near-miss candidates NotFoundError carries.
const suggestionLimit = 3

type cacheKey struct {
	name       string
	isAbsolute bool
	searchPath string
}

type cacheValue struct {
	resolved string
	attempts []string
}

// FileResolver resolves names against a search path, memoizing results and
// recording every path it touched (hit or miss) as a dependency.
type FileResolver struct {
	mtimes  *mtimecache.Cache
	metrics *metrics.Sink
	cache   *lru.Cache[cacheKey, cacheValue]

	mu   sync.Mutex
	deps []bbtypes.Dependency

	// DisableCache mirrors BB_OPT_DISABLE_RESOLVE_CACHE.
	DisableCache bool
}

// New returns a FileResolver backed by mtimes for dependency stamping and m
// for metrics. m may be nil.
func New(mtimes *mtimecache.Cache, m *metrics.Sink) *FileResolver {
	r := &FileResolver{
		mtimes:  mtimes,
		metrics: m,
		cache:   lru.New[cacheKey, cacheValue](resolveCacheMax),
	}
	r.cache.OnEvict = func(cacheKey, cacheValue) { r.evict("resolve_file") }
	return r
}

func (r *FileResolver) hit(section string) {
	if r.metrics != nil {
		r.metrics.Hit(section)
	}
}

func (r *FileResolver) miss(section string) {
	if r.metrics != nil {
		r.metrics.Miss(section)
	}
}

func (r *FileResolver) evict(section string) {
	if r.metrics != nil {
		r.metrics.Evict(section)
	}
}

// MarkDependency records path (and its current mtime stamp) as having been
// consulted during resolution, deduplicated by value like
// bbtypes.AppendDependency.
func (r *FileResolver) MarkDependency(path string) {
	if strings.HasPrefix(path, "./") {
		if wd, err := os.Getwd(); err == nil {
			path = filepath.Join(wd, path[2:])
		}
	}
	stamp := r.mtimes.StampOrZero(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps = bbtypes.AppendDependency(r.deps, bbtypes.Dependency{Path: path, Stamp: stamp})
}

// CheckDependency reports whether path was already marked with its current
// stamp, the analogue of check_dependency.
func (r *FileResolver) CheckDependency(path string) bool {
	stamp := r.mtimes.StampOrZero(path)
	want := bbtypes.Dependency{Path: path, Stamp: stamp}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.deps {
		if d == want {
			return true
		}
	}
	return false
}

// Dependencies returns a copy of every dependency marked so far.
func (r *FileResolver) Dependencies() []bbtypes.Dependency {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bbtypes.Dependency, len(r.deps))
	copy(out, r.deps)
	return out
}

// which walks searchPath directories in order looking for name, returning
// the first match and every directory attempted (for dependency marking),
// mirroring bb.utils.which(history=True).
func which(searchPath []string, name string) (resolved string, attempts []string) {
	for _, dir := range searchPath {
		candidate := filepath.Join(dir, name)
		attempts = append(attempts, candidate)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, attempts
		}
	}
	return "", attempts
}

// Resolve resolves name against searchPath. If name is already absolute, it
// is used as-is (after marking it as a dependency) with no cache lookup, per
// resolve_file's early branch.
func (r *FileResolver) Resolve(name string, searchPath []string) (string, error) {
	if r.metrics != nil {
		tok := r.metrics.TimeStart("resolve_file")
		defer r.metrics.TimeEnd(tok)
	}

	if filepath.IsAbs(name) {
		r.MarkDependency(name)
		return r.finish(name)
	}

	joined := strings.Join(searchPath, ":")
	key := cacheKey{name: name, isAbsolute: false, searchPath: joined}

	var resolved string
	var attempts []string
	if !r.DisableCache {
		if v, ok := r.cache.Get(key); ok {
			r.hit("resolve_file")
			resolved, attempts = v.resolved, v.attempts
		}
	}
	if attempts == nil {
		resolved, attempts = which(searchPath, name)
		if !r.DisableCache {
			r.cache.Set(key, cacheValue{resolved: resolved, attempts: attempts})
		}
		r.miss("resolve_file")
	}

	for _, a := range attempts {
		r.MarkDependency(a)
	}

	if resolved == "" {
		return "", r.notFound(name, searchPath)
	}
	return r.finish(resolved)
}

func (r *FileResolver) finish(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", bberrors.NewNotFoundError(path, nil)
	}
	if fi.IsDir() {
		return "", bberrors.NewNotAFileError(path)
	}
	return path, nil
}

func (r *FileResolver) notFound(name string, searchPath []string) error {
	err := bberrors.NewNotFoundError(name, searchPath)
	candidates := r.listCandidateNames(searchPath)
	if len(candidates) == 0 {
		return err
	}
	suggestions := suggest(name, candidates)
	if len(suggestions) > 0 {
		err = err.WithSuggestions(suggestions)
	}
	return err
}

// listCandidateNames lists file basenames across searchPath directories, a
// bounded best-effort scan used only to generate suggestions on a miss.
func (r *FileResolver) listCandidateNames(searchPath []string) []string {
	var names []string
	for _, dir := range searchPath {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	return names
}

const suggestionThreshold = 0.6

// suggest ranks candidates by Jaro-Winkler similarity to target using
// go-edlib and returns the closest few above suggestionThreshold,
// mirroring the "did you mean" experience bitbake itself lacks but which
// this reimplementation adds (spec §4.C).
func suggest(target string, candidates []string) []string {
	type scored struct {
		name  string
		score float32
	}
	var ranked []scored
	for _, c := range candidates {
		score, err := edlib.StringsSimilarity(target, c, edlib.JaroWinkler)
		if err != nil || score < suggestionThreshold {
			continue
		}
		ranked = append(ranked, scored{name: c, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > suggestionLimit {
		ranked = ranked[:suggestionLimit]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.name
	}
	return out
}
