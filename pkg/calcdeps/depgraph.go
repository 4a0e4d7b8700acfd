package calcdeps

import "sort"

// instrKey addresses one instruction by (block index, instruction pointer),
// ordered the same way program order is: lower block first, then lower ip.
type instrKey struct {
	Block, IP int
}

// before reports whether k precedes other in program order.
func (k instrKey) before(other instrKey) bool {
	if k.Block != other.Block {
		return k.Block < other.Block
	}
	return k.IP < other.IP
}

type depNode struct {
	readDep    int
	hasReadDep bool
	firstWait  instrKey
	hasWait    bool
}

// depGraph records, for every scoreboard-needing instruction, a read
// dependency token and a write dependency token (the write token implicitly
// depends on the read token, mirroring a RAW-then-WAW chain), plus the first
// instruction that ever waits on each token. Grounded on calc_instr_deps.rs's
// DepGraph.
type depGraph struct {
	nodes      []depNode
	instrDeps  map[instrKey][2]int
	instrWaits map[instrKey][]int
	active     map[int]bool
}

func newDepGraph() *depGraph {
	return &depGraph{
		instrDeps:  make(map[instrKey][2]int),
		instrWaits: make(map[instrKey][]int),
		active:     make(map[int]bool),
	}
}

func (g *depGraph) addNewDep(readDep int, hasReadDep bool) int {
	idx := len(g.nodes)
	g.nodes = append(g.nodes, depNode{readDep: readDep, hasReadDep: hasReadDep})
	return idx
}

// addInstr allocates a fresh (read, write) dependency pair for the
// scoreboard-needing instruction at key and returns it.
func (g *depGraph) addInstr(key instrKey) (rd, wr int) {
	rd = g.addNewDep(0, false)
	wr = g.addNewDep(rd, true)
	g.instrDeps[key] = [2]int{rd, wr}
	return rd, wr
}

func (g *depGraph) addSignal(dep int) { g.active[dep] = true }

// addWaits records, for the instruction at key, which of the candidate deps
// it actually becomes the first waiter for — a dep already waited on by an
// earlier instruction, or one that was never signalled, is dropped. The
// surviving list is sorted so every instruction waits on its oldest
// dependencies first, matching the original's HashSet-order-independence
// fix-up.
func (g *depGraph) addWaits(key instrKey, waits []int) {
	for _, dep := range waits {
		if n := g.nodes[dep]; n.hasReadDep {
			delete(g.active, n.readDep)
		}
	}

	filtered := make([]int, 0, len(waits))
	for _, dep := range waits {
		n := &g.nodes[dep]
		switch {
		case n.hasWait:
			// Someone has already waited on this dep.
		case !g.active[dep]:
			// Deactivated without ever being waited on.
		default:
			n.firstWait = key
			n.hasWait = true
			delete(g.active, dep)
			filtered = append(filtered, dep)
		}
	}
	sort.Ints(filtered)
	g.instrWaits[key] = filtered
}

// addBarrier forces every currently active dep to be waited on at key —
// used at a branch, which must retire every outstanding scoreboard before
// control leaves the block.
func (g *depGraph) addBarrier(key instrKey) {
	waits := make([]int, 0, len(g.active))
	for dep := range g.active {
		waits = append(waits, dep)
	}
	g.addWaits(key, waits)
}

// depIsWaitedAfter reports whether dep's first waiter comes strictly after
// key in program order.
func (g *depGraph) depIsWaitedAfter(dep int, key instrKey) bool {
	n := g.nodes[dep]
	if !n.hasWait {
		return false
	}
	return key.before(n.firstWait)
}

func (g *depGraph) getInstrDeps(key instrKey) (rd, wr int) {
	pair, ok := g.instrDeps[key]
	if !ok {
		panic("calcdeps: no dep pair recorded for instruction")
	}
	return pair[0], pair[1]
}

func (g *depGraph) getInstrWaits(key instrKey) []int {
	return g.instrWaits[key]
}
