package ir

// RegRef is a contiguous range [Start,End) of physical slots within one
// register file, produced by register allocation. Pre-RA instructions
// reference SSAValue instead; post-RA instructions reference RegRef.
type RegRef struct {
	File  RegFile
	Start uint32
	End   uint32
}

// NewRegRef builds a single-slot register reference.
func NewRegRef(file RegFile, slot uint32) RegRef {
	return RegRef{File: file, Start: slot, End: slot + 1}
}

// Len returns the number of physical slots this reference spans.
func (r RegRef) Len() uint32 { return r.End - r.Start }
