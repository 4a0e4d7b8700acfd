package ir

// Function is one shader function: its control-flow graph plus the
// allocators that hand out fresh SSA values and phi indices within it.
type Function struct {
	Name    string
	CFG     *CFG
	Values  SSAValueAllocator
	Phis    PhiAllocator
}

// NewFunction builds an empty function over the given CFG.
func NewFunction(name string, cfg *CFG) *Function {
	return &Function{Name: name, CFG: cfg}
}

// ForEachInstr calls f with every (blockIdx, ip, instr) triple in block
// index order, matching the deterministic traversal calcdeps and postsched
// depend on.
func (fn *Function) ForEachInstr(f func(blockIdx, ip int, instr *Instruction)) {
	for bi, b := range fn.CFG.Blocks {
		for ip, instr := range b.Instrs {
			f(bi, ip, instr)
		}
	}
}

// NumInstrs returns the total instruction count across all blocks.
func (fn *Function) NumInstrs() int {
	n := 0
	for _, b := range fn.CFG.Blocks {
		n += len(b.Instrs)
	}
	return n
}

// MapInstrs rewrites every instruction in the function by calling f on it;
// f returns the replacement sequence (zero, one, or many instructions),
// which may splice in synthetic instructions like trailing Nops. Used by
// calcdeps' delay-splitting pass.
func (fn *Function) MapInstrs(f func(instr *Instruction) []*Instruction) {
	for _, b := range fn.CFG.Blocks {
		out := make([]*Instruction, 0, len(b.Instrs))
		for _, instr := range b.Instrs {
			out = append(out, f(instr)...)
		}
		b.Instrs = out
	}
}
