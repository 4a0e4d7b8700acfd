package postsched

// useKey names the instruction (within the block being scheduled) and
// operand slot that last touched a register slot. SrcIdx is predSrcIdx for
// a predicate read.
type useKey struct {
	IP     int
	SrcIdx int
}

const predSrcIdx = -1

// regUse tracks, per physical register slot, the most recent write and
// every read since. Unlike calcdeps' regUse (which holds either the last
// write or the reads since it, never both), it keeps the write alongside
// the reads that follow it. Grounded on
// opt_instr_sched_postpass.rs's RegUse<T>.
type regUse struct {
	reads    []useKey
	write    useKey
	hasWrite bool
}

func (u *regUse) addRead(dep useKey) { u.reads = append(u.reads, dep) }

func (u *regUse) setWrite(dep useKey) {
	u.write = dep
	u.hasWrite = true
	u.reads = nil
}
