package postsched

// nodeLabel carries the per-instruction scheduling state the list
// scheduler's two priority queues are keyed on. Grounded on
// opt_instr_sched_common.rs's NodeLabel.
type nodeLabel struct {
	// cyclesToEnd is the number of cycles from the start of this
	// instruction's execution to the end of the block, computed once by
	// calcStatistics before the edges are reversed.
	cyclesToEnd uint32
	// numUses is the node's out-degree; it decrements as dependents are
	// scheduled, and the node becomes ready once it hits zero.
	numUses uint32
	// readyCycle is the earliest cycle, counted back from the end of the
	// block, at which this instruction may be placed once every later
	// instruction that depends on it has been scheduled.
	readyCycle uint32
	// execLatency is the fixed number of cycles this instruction occupies
	// the issue slot once it starts.
	execLatency uint32
}

type edgeLabel struct {
	latency uint32
}

type edge struct {
	label   edgeLabel
	headIdx int
}

type node struct {
	label         nodeLabel
	outgoingEdges []edge
}

// depGraph is the per-block instruction dependency DAG: one node per
// instruction, edges carrying the minimum cycle gap the scheduler must
// respect between an instruction and the instruction at the edge's head.
// Grounded on opt_instr_sched_common.rs's graph::Graph.
type depGraph struct {
	nodes []node
}

func newDepGraph(n int) *depGraph {
	return &depGraph{nodes: make([]node, n)}
}

func (g *depGraph) addEdge(tailIdx, headIdx int, label edgeLabel) {
	if headIdx >= len(g.nodes) {
		panic("postsched: edge head index out of range")
	}
	g.nodes[tailIdx].outgoingEdges = append(g.nodes[tailIdx].outgoingEdges, edge{label: label, headIdx: headIdx})
}

// reverse flips every edge in place, turning the graph built during
// dependency generation (edges point from an instruction to the later
// instruction it constrains) into the graph the scheduler walks from the
// end of the block backwards (edges point from an instruction to the
// earlier instructions it depends on).
func (g *depGraph) reverse() {
	oldEdges := make([][]edge, len(g.nodes))
	for i := range g.nodes {
		oldEdges[i] = g.nodes[i].outgoingEdges
		g.nodes[i].outgoingEdges = nil
	}
	for tailIdx, edges := range oldEdges {
		for _, e := range edges {
			g.addEdge(e.headIdx, tailIdx, e.label)
		}
	}
}

// calcStatistics computes cyclesToEnd and numUses for every node by walking
// indices from high to low — valid only because every edge at this point
// points to a strictly higher index — and returns the indices of every
// sink node (no outgoing edges), the scheduler's initial ready set.
func calcStatistics(g *depGraph) []int {
	var initialReady []int
	for i := len(g.nodes) - 1; i >= 0; i-- {
		n := &g.nodes[i]
		var maxDelay uint32
		for _, e := range n.outgoingEdges {
			if e.headIdx <= i {
				panic("postsched: dependency graph edge must point to a later instruction")
			}
			if d := g.nodes[e.headIdx].label.cyclesToEnd + e.label.latency; d > maxDelay {
				maxDelay = d
			}
		}
		n.label.cyclesToEnd = maxDelay
		n.label.numUses = uint32(len(n.outgoingEdges))
		if n.label.numUses == 0 {
			initialReady = append(initialReady, i)
		}
	}
	return initialReady
}
