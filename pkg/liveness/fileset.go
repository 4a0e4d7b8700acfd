package liveness

import "github.com/nouveau-go/nakcore/pkg/ir"

// FileSet is a small bitset over ir.RegFile, used to scope a liveness pass
// to the one file being spilled (spill_values.rs builds a single-file
// RegFileSet per call).
type FileSet uint8

// NewFileSet builds a FileSet containing the given files.
func NewFileSet(files ...ir.RegFile) FileSet {
	var s FileSet
	for _, f := range files {
		s |= 1 << uint(f)
	}
	return s
}

// Contains reports whether f is a member of s.
func (s FileSet) Contains(f ir.RegFile) bool { return s&(1<<uint(f)) != 0 }
