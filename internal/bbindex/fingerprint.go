// Package bbindex implements IncludeIndex and ClassIndex (spec §4.D):
// directory-listing caches that let include/inherit resolution jump
// straight to a basename instead of re-scanning every BBPATH directory on
// every lookup. Grounded on ConfHandler.py's _build_include_index/
// _get_include_index and BBHandler.py's _build_class_index/
// _get_class_index, both of which invalidate on a directory fingerprint
// rather than a TTL.
package bbindex

import (
	"encoding/binary"
	"os"

	"github.com/cespare/xxhash/v2"
)

// dirStamp captures enough about one search directory to notice it changed:
// an entry added, removed or replaced invalidates the listing.
type dirStamp struct {
	path    string
	mtimeNs int64
	inode   uint64
}

// fingerprint folds a set of directory stamps into a single comparable
// value using xxhash, the analogue of _dirs_fingerprint's stat tuple list
// but collapsed to one uint64 so index cache values stay cheap to compare.
func fingerprint(dirs []string) uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, d := range dirs {
		st := statDir(d)
		h.WriteString(st.path)
		binary.LittleEndian.PutUint64(buf[:], uint64(st.mtimeNs))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], st.inode)
		h.Write(buf[:])
	}
	return h.Sum64()
}

func statDir(d string) dirStamp {
	fi, err := os.Stat(d)
	if err != nil {
		return dirStamp{path: d}
	}
	return dirStamp{path: d, mtimeNs: fi.ModTime().UnixNano(), inode: statInode(fi)}
}
