package postsched

import "container/heap"

// readyItem orders ready-to-issue instructions by cyclesToEnd descending,
// tie-broken by index descending — scheduling the instruction furthest
// from the end of the block first, falling back to the original, often
// already-decent, program order on ties. Grounded on
// opt_instr_sched_common.rs's ReadyInstr, whose derived Ord is consumed by
// a Rust BinaryHeap (a max-heap); container/heap is a min-heap, so Less is
// inverted to reproduce the same pop order.
type readyItem struct {
	cyclesToEnd uint32
	index       int
}

func newReadyItem(g *depGraph, i int) readyItem {
	l := g.nodes[i].label
	return readyItem{cyclesToEnd: l.cyclesToEnd + l.execLatency, index: i}
}

type readyHeap []readyItem

func (h readyHeap) Len() int { return len(h) }
func (h readyHeap) Less(i, j int) bool {
	if h[i].cyclesToEnd != h[j].cyclesToEnd {
		return h[i].cyclesToEnd > h[j].cyclesToEnd
	}
	return h[i].index > h[j].index
}
func (h readyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *readyHeap) Push(x any)   { *h = append(*h, x.(readyItem)) }
func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// futureItem orders not-yet-ready instructions by readyCycle ascending
// (soonest-ready first), tie-broken by index descending. Grounded on
// FutureReadyInstr, whose Reverse(ready_cycle) field makes the smallest
// ready_cycle sort highest for the same max-heap BinaryHeap.
type futureItem struct {
	readyCycle uint32
	index      int
}

func newFutureItem(g *depGraph, i int) futureItem {
	l := g.nodes[i].label
	rc := l.readyCycle
	if rc < l.execLatency {
		rc = 0
	} else {
		rc -= l.execLatency
	}
	return futureItem{readyCycle: rc, index: i}
}

type futureHeap []futureItem

func (h futureHeap) Len() int { return len(h) }
func (h futureHeap) Less(i, j int) bool {
	if h[i].readyCycle != h[j].readyCycle {
		return h[i].readyCycle < h[j].readyCycle
	}
	return h[i].index > h[j].index
}
func (h futureHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *futureHeap) Push(x any)   { *h = append(*h, x.(futureItem)) }
func (h *futureHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*readyHeap)(nil)
var _ heap.Interface = (*futureHeap)(nil)
