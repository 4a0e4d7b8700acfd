package ir

// SSAValue is a virtual, single-definition register identity: a unique
// index paired with the register file it lives in. Two SSA values are
// equal iff their indices match (the file never differs for a matching
// index because SSAValueAllocator mints indices monotonically across all
// files).
type SSAValue struct {
	idx  uint32
	file RegFile
}

// Idx returns the value's allocation-order index, used as a stable sort and
// tie-break key throughout the passes (§5 of the spec requires this).
func (v SSAValue) Idx() uint32 { return v.idx }

// File returns the register file this value belongs to for its entire
// lifetime.
func (v SSAValue) File() RegFile { return v.file }

// IsUniform reports whether this value lives in a uniform-datapath file.
func (v SSAValue) IsUniform() bool { return v.file.IsUniform() }

// SSAValueAllocator mints fresh, never-reused SSA value indices for one
// function.
type SSAValueAllocator struct {
	next uint32
}

// Alloc mints a new SSA value in the given file.
func (a *SSAValueAllocator) Alloc(file RegFile) SSAValue {
	v := SSAValue{idx: a.next, file: file}
	a.next++
	return v
}

// Count returns the number of values minted so far.
func (a *SSAValueAllocator) Count() uint32 { return a.next }

// PhiAllocator mints unique phi indices for one function. Dropped phis
// (eliminated as trivial) do not reclaim their index.
type PhiAllocator struct {
	next uint32
}

// Alloc mints a new phi index.
func (a *PhiAllocator) Alloc() uint32 {
	idx := a.next
	a.next++
	return idx
}
