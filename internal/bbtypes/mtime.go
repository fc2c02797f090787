// Package bbtypes holds small value types shared across the parsing core:
// modification-time stamps and the dependency records built from them.
package bbtypes

// MtimeStamp is the triple bitbake itself stats a path into: nanosecond
// modification time, size, and inode. Two stamps are equal only if all three
// fields match. The zero value is the sentinel stamp recorded for a path
// that does not exist.
type MtimeStamp struct {
	MtimeNs int64
	Size    int64
	Inode   uint64
}

// Zero reports whether s is the not-found sentinel.
func (s MtimeStamp) Zero() bool {
	return s == MtimeStamp{}
}

// Dependency is one entry of a dependency record: a path that was consulted
// during resolution, and the stamp observed for it at that time.
type Dependency struct {
	Path  string
	Stamp MtimeStamp
}

// AppendDependency appends d to deps unless an equal entry is already
// present, preserving the "suppress duplicates by value equality" invariant
// from the dependency record.
func AppendDependency(deps []Dependency, d Dependency) []Dependency {
	for _, existing := range deps {
		if existing == d {
			return deps
		}
	}
	return append(deps, d)
}
