// Package statementcache holds parsed StatementGroups for .bbclass and .inc
// files, grounded on BBHandler.py's get_statements/cached_statements: a
// plain unbounded memoization (no mtime invalidation, no eviction) valid
// for the lifetime of one parse session, since bitbake itself never
// revisits a .bbclass mid-run. Recipes (.bb/.bbappend) are never cached
// here, matching get_statements' filename-suffix check.
package statementcache

import (
	"strings"
	"sync"

	"github.com/standardbeagle/bbcore/internal/ast"
)

// Key identifies one cached parse: the absolute path plus any flags that
// change how the file would be parsed, kept as a free-form string. The
// dispatcher keys on AbsPath alone and leaves Flags empty.
type Key struct {
	AbsPath string
	Flags   string
}

// Cache is safe for concurrent use.
type Cache struct {
	mu sync.RWMutex
	m  map[Key]*ast.StatementGroup
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{m: make(map[Key]*ast.StatementGroup)}
}

// Cacheable reports whether filename's extension makes it eligible for
// caching: only .bbclass and .inc files are, recipes never are.
func Cacheable(filename string) bool {
	return strings.HasSuffix(filename, ".bbclass") || strings.HasSuffix(filename, ".inc")
}

// Get returns the cached StatementGroup for key, if any.
func (c *Cache) Get(key Key) (*ast.StatementGroup, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.m[key]
	return g, ok
}

// Put stores group under key unconditionally; callers should have already
// checked Cacheable(key.AbsPath).
func (c *Cache) Put(key Key, group *ast.StatementGroup) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = group
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = make(map[Key]*ast.StatementGroup)
}

// Len reports how many entries are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
