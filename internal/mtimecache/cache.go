// Package mtimecache implements MtimeCache (spec §4.A): a process-wide table
// mapping a path to the (mtime_ns, size, inode) triple last observed for it.
// A failed stat is not fatal anywhere in this package — callers that cannot
// tolerate a missing file ask for it explicitly via Stamp.
package mtimecache

import (
	"os"
	"sync"

	"github.com/standardbeagle/bbcore/internal/bbtypes"
)

// Cache is safe for concurrent use; a single instance is meant to live for
// the duration of a parse session, per spec §4.A ("no eviction policy").
type Cache struct {
	mu sync.RWMutex
	m  map[string]bbtypes.MtimeStamp
}

// New returns an empty MtimeCache.
func New() *Cache {
	return &Cache{m: make(map[string]bbtypes.MtimeStamp)}
}

func stampOf(fi os.FileInfo) bbtypes.MtimeStamp {
	st := statInode(fi)
	return bbtypes.MtimeStamp{
		MtimeNs: fi.ModTime().UnixNano(),
		Size:    fi.Size(),
		Inode:   st,
	}
}

// Stamp always stats path and stores the result, returning an error if the
// stat failed.
func (c *Cache) Stamp(path string) (bbtypes.MtimeStamp, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return bbtypes.MtimeStamp{}, err
	}
	s := stampOf(fi)
	c.mu.Lock()
	c.m[path] = s
	c.mu.Unlock()
	return s, nil
}

// StampOrZero returns the zero stamp on a failed stat without caching the
// failure, mirroring cached_mtime_noerror.
func (c *Cache) StampOrZero(path string) bbtypes.MtimeStamp {
	c.mu.RLock()
	s, ok := c.m[path]
	c.mu.RUnlock()
	if ok {
		return s
	}
	fi, err := os.Stat(path)
	if err != nil {
		return bbtypes.MtimeStamp{}
	}
	s = stampOf(fi)
	c.mu.Lock()
	c.m[path] = s
	c.mu.Unlock()
	return s
}

// Check re-stats path and reports whether the current stamp equals expected.
func (c *Cache) Check(path string, expected bbtypes.MtimeStamp) bool {
	fi, err := os.Stat(path)
	var current bbtypes.MtimeStamp
	if err == nil {
		current = stampOf(fi)
	}
	c.mu.Lock()
	c.m[path] = current
	c.mu.Unlock()
	return current == expected
}

// UpdateIfPresent refreshes the stamp for path only if an entry already
// exists, mirroring update_cache's "only if we've seen it before" check.
func (c *Cache) UpdateIfPresent(path string) {
	c.mu.RLock()
	_, ok := c.m[path]
	c.mu.RUnlock()
	if !ok {
		return
	}
	fi, err := os.Stat(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		delete(c.m, path)
		return
	}
	c.m[path] = stampOf(fi)
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.m = make(map[string]bbtypes.MtimeStamp)
	c.mu.Unlock()
}
