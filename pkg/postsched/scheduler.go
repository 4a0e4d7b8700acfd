package postsched

import (
	"container/heap"

	"github.com/nouveau-go/nakcore/pkg/ir"
	"github.com/nouveau-go/nakcore/pkg/regtracker"
)

// generateDepGraph builds the per-block dependency DAG: zero-latency edges
// threading every barrier and memory op to the nearest prior one of its
// kind, plus latency-weighted edges for every register/predicate hazard,
// mirroring calcdeps' own hazard taxonomy but expressed as scheduling
// constraints rather than scoreboard assignments. Grounded on
// opt_instr_sched_postpass.rs's generate_dep_graph.
func generateDepGraph(sm ir.ShaderModel, instrs []*ir.Instruction) *depGraph {
	g := newDepGraph(len(instrs))
	uses := regtracker.New(func() regUse { return regUse{} })

	lastMemoryIP, hasLastMemoryIP := 0, false
	lastBarrierIP, hasLastBarrierIP := 0, false

	for ip := len(instrs) - 1; ip >= 0; ip-- {
		instr := instrs[ip]

		if hasLastBarrierIP {
			g.addEdge(ip, lastBarrierIP, edgeLabel{latency: 0})
		}

		switch sideEffectType(instr.Op) {
		case SideEffectNone:
		case SideEffectBarrier:
			lastIP := len(instrs)
			if hasLastBarrierIP {
				lastIP = lastBarrierIP
			}
			for otherIP := ip + 1; otherIP < lastIP; otherIP++ {
				g.addEdge(ip, otherIP, edgeLabel{latency: 0})
			}
			lastBarrierIP, hasLastBarrierIP = ip, true
		case SideEffectMemory:
			if hasLastMemoryIP {
				g.addEdge(ip, lastMemoryIP, edgeLabel{latency: 0})
			}
			lastMemoryIP, hasLastMemoryIP = ip, true
		}

		scoreboarded := sm.OpNeedsScoreboard(instr.Op)

		uses.ForEachInstrDst(instr, func(i int, u *regUse) {
			if u.hasWrite {
				latency := sm.WawLatency(instr.Op)
				if scoreboarded && latency < 2 {
					latency = 2
				}
				g.addEdge(ip, u.write.IP, edgeLabel{latency: latency})
			}
			for _, r := range u.reads {
				var latency uint32
				if r.SrcIdx == predSrcIdx {
					latency = sm.PawLatency(instr.Op)
				} else {
					latency = sm.RawLatency(instr.Op)
				}
				if scoreboarded {
					if vl := estimateVariableLatency(sm.SM(), instr.Op); vl > latency {
						latency = vl
					}
				}
				g.addEdge(ip, r.IP, edgeLabel{latency: latency})
			}
		})
		uses.ForEachInstrSrc(instr, func(i int, u *regUse) {
			if u.hasWrite {
				latency := sm.WarLatency(instr.Op)
				if scoreboarded && latency < 2 {
					latency = 2
				}
				g.addEdge(ip, u.write.IP, edgeLabel{latency: latency})
			}
		})

		// We're iterating in reverse, so writes are logically first.
		uses.ForEachInstrDst(instr, func(i int, u *regUse) {
			u.setWrite(useKey{IP: ip, SrcIdx: i})
		})
		uses.ForEachInstrPred(instr, func(u *regUse) {
			u.addRead(useKey{IP: ip, SrcIdx: predSrcIdx})
		})
		uses.ForEachInstrSrc(instr, func(i int, u *regUse) {
			u.addRead(useKey{IP: ip, SrcIdx: i})
		})

		var readyCycle uint32
		if len(instr.Dsts) > 0 {
			readyCycle = sm.WorstLatency(instr.Op)
		}
		if scoreboarded {
			varLatency := estimateVariableLatency(sm.SM(), instr.Op) + sm.ExecLatency(instrs[len(instrs)-1].Op)
			if varLatency > readyCycle {
				readyCycle = varLatency
			}
		}
		g.nodes[ip].label.execLatency = sm.ExecLatency(instr.Op)
		g.nodes[ip].label.readyCycle = readyCycle
	}

	return g
}

// generateOrder runs the two-priority-queue list scheduling loop over g
// (already reversed, so edges point from an instruction to the earlier
// instructions it depends on) and returns the chosen schedule as indices
// into the original instrs slice, last instruction first (schedBlock flips
// it into block order), together with the predicted static cycle count. Grounded on generate_order.
func generateOrder(g *depGraph, initReadyList []int) ([]int, uint32) {
	ready := &readyHeap{}
	future := &futureHeap{}
	for _, i := range initReadyList {
		*future = append(*future, newFutureItem(g, i))
	}
	heap.Init(future)

	currentCycle := uint32(0)
	order := make([]int, 0, len(g.nodes))

	for {
		for future.Len() > 0 {
			top := (*future)[0]
			if currentCycle < top.readyCycle {
				break
			}
			heap.Pop(future)
			heap.Push(ready, newReadyItem(g, top.index))
		}

		var nextIdx int
		if ready.Len() == 0 {
			if future.Len() == 0 {
				break
			}
			top := (*future)[0]
			if top.readyCycle <= currentCycle {
				panic("postsched: future-ready instruction did not advance the clock")
			}
			currentCycle = top.readyCycle
			continue
		}
		nextIdx = heap.Pop(ready).(readyItem).index

		order = append(order, nextIdx)
		currentCycle += g.nodes[nextIdx].label.execLatency

		edges := g.nodes[nextIdx].outgoingEdges
		g.nodes[nextIdx].outgoingEdges = nil
		for _, e := range edges {
			dep := &g.nodes[e.headIdx].label
			if newReady := currentCycle + e.label.latency; newReady > dep.readyCycle {
				dep.readyCycle = newReady
			}
			dep.numUses--
			if dep.numUses == 0 {
				heap.Push(future, newFutureItem(g, e.headIdx))
			}
		}
	}

	return order, currentCycle
}

// schedBlock reorders instrs in place order and returns the new slice plus
// the predicted static cycle count for the block.
func schedBlock(sm ir.ShaderModel, instrs []*ir.Instruction) ([]*ir.Instruction, uint32) {
	g := generateDepGraph(sm, instrs)
	initReady := calcStatistics(g)
	g.reverse()
	order, cycleCount := generateOrder(g, initReady)

	out := make([]*ir.Instruction, len(instrs))
	for pos, srcIdx := range order {
		out[len(order)-1-pos] = instrs[srcIdx]
	}
	return out, cycleCount
}

// SchedFunction runs the post-RA list scheduler over every block of fn and
// returns the total predicted static cycle count.
func SchedFunction(fn *ir.Function, sm ir.ShaderModel) uint32 {
	var total uint32
	for _, b := range fn.CFG.Blocks {
		origCount := len(b.Instrs)
		newInstrs, cycleCount := schedBlock(sm, b.Instrs)
		b.Instrs = newInstrs
		total += cycleCount
		if len(b.Instrs) != origCount {
			panic("postsched: scheduling changed the instruction count")
		}
	}
	return total
}

// SchedShader runs SchedFunction over every function of shader and records
// the summed static cycle count on shader.Info.
func SchedShader(shader *ir.Shader) {
	shader.Info.NumStaticCycles = 0
	for _, fn := range shader.Functions {
		shader.Info.NumStaticCycles += uint64(SchedFunction(fn, shader.Model))
	}
}
