package ir

// ShaderModel is the capability interface C3 implements (one value per
// streaming-multiprocessor generation: sm70, sm75, sm80, sm89, ...). It is
// declared here, not in pkg/smcap, so that ir stays the single leaf package
// every other pass depends on without depending back on a concrete model.
type ShaderModel interface {
	// SM returns the numeric shader-model version, e.g. 70, 75, 80.
	SM() uint8

	// NumRegs returns the number of addressable slots in file.
	NumRegs(file RegFile) uint32

	// HWReservedGPRs returns the count of GPRs the hardware reserves at the
	// top of the GPR file and that the allocator must never hand out.
	HWReservedGPRs() uint32

	// ExecLatency returns the fixed number of cycles op occupies the issue
	// slot once it starts; it is queried for every op, coupled or not.
	ExecLatency(op Op) uint32

	// OpNeedsScoreboard reports whether op is "decoupled": its result is
	// only available once a scoreboard the caller must allocate clears.
	OpNeedsScoreboard(op Op) bool

	// RawLatency returns the wait time a consumer must observe after a
	// producer of op writes a value it then reads (read-after-write).
	RawLatency(op Op) uint32

	// WarLatency returns the wait time before an op may overwrite a register
	// last read by a prior op (write-after-read).
	WarLatency(op Op) uint32

	// WawLatency returns the wait time between two writes to the same
	// register by ops of these kinds (write-after-write).
	WawLatency(op Op) uint32

	// PawLatency returns the wait time between op writing a value and a
	// later instruction reading that value as its execution predicate
	// (predicate-after-write).
	PawLatency(op Op) uint32

	// WorstLatency returns the conservative fallback delay assumed for a
	// destination whose consumer is not yet known (e.g. it may be read by a
	// successor block calcdeps has not seen).
	WorstLatency(op Op) uint32

	// OpCanBeUniform reports whether op may legally execute in the uniform
	// datapath and write UGPR/UPred destinations.
	OpCanBeUniform(op Op) bool
}

// ShaderInfo accumulates the compile-time statistics spec.md §2/§6 requires
// the spiller and debug dump to report.
type ShaderInfo struct {
	NumSpillsToReg   uint32
	NumSpillsToMem   uint32
	NumFillsFromReg  uint32
	NumFillsFromMem  uint32
	NumStaticCycles  uint64
}

// Shader is the top-level compilation unit: every function plus the model
// it targets and its accumulated stats.
type Shader struct {
	Model     ShaderModel
	Functions []*Function
	Info      ShaderInfo
}

// NewShader builds an empty shader targeting model.
func NewShader(model ShaderModel) *Shader {
	return &Shader{Model: model}
}
