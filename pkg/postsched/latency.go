package postsched

import "github.com/nouveau-go/nakcore/pkg/ir"

// estimateVariableLatency guesses how many cycles a decoupled op takes to
// produce its result, for scheduling purposes only (calcdeps' own
// scoreboard-wait model is authoritative for correctness). Numbers are
// carried over from the original's citation of "Dissecting the NVIDIA
// Turing T4 GPU via Microbenchmarking" (arXiv:1903.07486) and L1
// data-cache latencies for memory ops; sm is unused by the subset of ops
// this model reaches but kept for parity with ops a fuller ISA would add.
func estimateVariableLatency(sm uint8, op ir.Op) uint32 {
	switch op {
	case ir.OpMuFu, ir.OpRro:
		return 15
	case ir.OpDFma, ir.OpDSetP:
		return 54
	case ir.OpDAdd, ir.OpDMnMx, ir.OpDMul:
		return 48
	case ir.OpShfl:
		return 15
	case ir.OpLdc:
		return 4
	case ir.OpLd, ir.OpSt, ir.OpAtom, ir.OpAL2P, ir.OpALd, ir.OpASt,
		ir.OpIpa, ir.OpCCtl, ir.OpLdTram, ir.OpMemBar:
		return 32
	case ir.OpTex, ir.OpTld, ir.OpTld4, ir.OpTmml, ir.OpTxd, ir.OpTxq:
		return 32
	case ir.OpSuLd, ir.OpSuSt, ir.OpSuAtom:
		return 32
	case ir.OpS2R, ir.OpIsberd:
		return 16
	default:
		panic("postsched: no variable-latency estimate for op: " + op.String())
	}
}
