package ir

// BasicBlock is an ordered list of instructions. By construction it may
// contain at most one OpPhiDsts pseudo-instruction at index 0 and one
// OpPhiSrcs pseudo-instruction immediately before the terminator (spec.md
// §3). Uniform is true iff every predecessor reaching this block executes
// in lock-step across the warp; uniform registers may only be defined in a
// uniform block.
type BasicBlock struct {
	Instrs  []*Instruction
	Uniform bool
}

// PhiDstsIP returns the index of the phi-destinations pseudo-instruction,
// if present.
func (b *BasicBlock) PhiDstsIP() (int, bool) {
	if len(b.Instrs) > 0 && b.Instrs[0].Op == OpPhiDsts {
		return 0, true
	}
	return 0, false
}

// PhiSrcsIP returns the index of the phi-sources pseudo-instruction, if
// present.
func (b *BasicBlock) PhiSrcsIP() (int, bool) {
	for ip, instr := range b.Instrs {
		if instr.Op == OpPhiSrcs {
			return ip, true
		}
	}
	return 0, false
}

// BranchIP returns the index of the block's terminator, if it ends in one.
func (b *BasicBlock) BranchIP() (int, bool) {
	if n := len(b.Instrs); n > 0 && b.Instrs[n-1].IsBranch() {
		return n - 1, true
	}
	return 0, false
}

// PhiDsts returns the phi-destinations instruction, if present.
func (b *BasicBlock) PhiDsts() *Instruction {
	if ip, ok := b.PhiDstsIP(); ok {
		return b.Instrs[ip]
	}
	return nil
}

// PhiSrcs returns the phi-sources instruction, if present.
func (b *BasicBlock) PhiSrcs() *Instruction {
	if ip, ok := b.PhiSrcsIP(); ok {
		return b.Instrs[ip]
	}
	return nil
}

// InsertPhiDsts inserts a fresh, empty phi-destinations instruction at the
// top of the block and returns it.
func (b *BasicBlock) InsertPhiDsts() *Instruction {
	phi := &Instruction{Op: OpPhiDsts}
	b.Instrs = append([]*Instruction{phi}, b.Instrs...)
	return phi
}

// InsertPhiSrcs inserts a fresh, empty phi-sources instruction just before
// the terminator (or at the end, if there is none) and returns it.
func (b *BasicBlock) InsertPhiSrcs() *Instruction {
	phi := &Instruction{Op: OpPhiSrcs}
	if ip, ok := b.BranchIP(); ok {
		b.Instrs = append(b.Instrs, nil)
		copy(b.Instrs[ip+1:], b.Instrs[ip:])
		b.Instrs[ip] = phi
	} else {
		b.Instrs = append(b.Instrs, phi)
	}
	return phi
}
