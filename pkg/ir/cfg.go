package ir

// CFG is a function's control-flow graph: an index-ordered slice of basic
// blocks plus the predecessor/successor/dominator-parent indices computed
// over that order. A block at index i is a loop header iff some predecessor
// has an index >= i (spec.md §3) — back edges are detected structurally
// from the index order, no separate dominance computation is required for
// that classification.
type CFG struct {
	Blocks     []*BasicBlock
	preds      [][]int
	succs      [][]int
	domParent  []int // -1 for the entry block
	loopHeader []bool
}

// NewCFG wraps blocks (already laid out in reverse-postorder-ish index
// order) together with the given successor edges, and derives predecessors,
// dominator parents, and loop-header flags.
func NewCFG(blocks []*BasicBlock, succs [][]int) *CFG {
	n := len(blocks)
	if len(succs) != n {
		panic("ir: CFG successor list length mismatch")
	}
	preds := make([][]int, n)
	for i, ss := range succs {
		for _, s := range ss {
			preds[s] = append(preds[s], i)
		}
	}
	loopHeader := make([]bool, n)
	for i := 0; i < n; i++ {
		for _, p := range preds[i] {
			if p >= i {
				loopHeader[i] = true
				break
			}
		}
	}
	domParent := computeIDoms(n, preds)
	return &CFG{
		Blocks:     blocks,
		preds:      preds,
		succs:      succs,
		domParent:  domParent,
		loopHeader: loopHeader,
	}
}

// computeIDoms computes each block's immediate dominator by iterating the
// standard Cooper-Harvey-Kennedy dataflow fixpoint to convergence over the
// index order, which is assumed reverse-postorder so the entry block (index
// 0) dominates everything and a single forward pass very nearly suffices.
func computeIDoms(n int, preds [][]int) []int {
	idom := make([]int, n)
	for i := range idom {
		idom[i] = -1
	}
	if n == 0 {
		return idom
	}
	idom[0] = 0
	changed := true
	for changed {
		changed = false
		for i := 1; i < n; i++ {
			newIdom := -1
			for _, p := range preds[i] {
				if idom[p] == -1 && p != 0 {
					continue
				}
				if newIdom == -1 {
					newIdom = p
					continue
				}
				newIdom = intersect(idom, newIdom, p)
			}
			if newIdom != -1 && idom[i] != newIdom {
				idom[i] = newIdom
				changed = true
			}
		}
	}
	idom[0] = -1
	return idom
}

func intersect(idom []int, a, b int) int {
	for a != b {
		for a > b {
			a = idom[a]
		}
		for b > a {
			b = idom[b]
		}
	}
	return a
}

// NumBlocks returns the number of blocks in the graph.
func (c *CFG) NumBlocks() int { return len(c.Blocks) }

// PredIndices returns the indices of blocks with an edge into block i.
func (c *CFG) PredIndices(i int) []int { return c.preds[i] }

// SuccIndices returns the indices of blocks block i has an edge to.
func (c *CFG) SuccIndices(i int) []int { return c.succs[i] }

// DomParentIndex returns block i's immediate dominator index, or -1 for the
// entry block.
func (c *CFG) DomParentIndex(i int) int { return c.domParent[i] }

// IsLoopHeader reports whether block i is targeted by a back edge.
func (c *CFG) IsLoopHeader(i int) bool { return c.loopHeader[i] }

// HasLoop reports whether the function contains any loop header at all.
func (c *CFG) HasLoop() bool {
	for _, h := range c.loopHeader {
		if h {
			return true
		}
	}
	return false
}

// Block returns the block at index i.
func (c *CFG) Block(i int) *BasicBlock { return c.Blocks[i] }

// LoopHeaderIndex returns the index of the innermost loop header whose body
// contains block i (i itself, if i is a header), found by walking the
// dominator-parent chain upward for the first loop header it passes through.
// Used by the spiller to propagate register pressure for values carried
// across a whole loop body rather than just one block.
func (c *CFG) LoopHeaderIndex(i int) (int, bool) {
	for b := i; b != -1; b = c.domParent[b] {
		if c.loopHeader[b] {
			return b, true
		}
	}
	return 0, false
}
