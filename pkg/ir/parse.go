package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// opByName is built once from opNames (DumpFunction's mnemonic table) so
// ParseFunction accepts exactly the op spellings DumpFunction produces.
var opByName map[string]Op

func init() {
	opByName = make(map[string]Op, len(opNames))
	for op, name := range opNames {
		opByName[name] = op
	}
}

// ParseFunction parses the minimal textual IR cmd/nakc's subcommands read:
//
//	func NAME
//	block0 succs=1 uniform
//	  %0.GPR = iadd3 0x1, 0x2
//	  @%1.Pred bra
//	block1
//	  exit
//
// This is the inverse of DumpFunction's instruction syntax (op mnemonic,
// "%idx.FILE" SSA operands, "0xN" immediates, "FILE[N]" register refs), with
// block headers additionally naming their successor indices and uniform
// flag, and instructions optionally carrying an "@" predicate prefix —
// information DumpFunction doesn't print but a CFG needs to exist at all. It does not parse phi instructions: the driver exists to exercise
// calcdeps/postsched/ssarepair/spill over ordinary straight-line and
// branching code, not to hand-author phi-bearing test input.
func ParseFunction(text string) (*Function, error) {
	var name string
	var blocks []*BasicBlock
	var succs [][]int
	var maxIdx uint32
	sawMax := false

	lines := strings.Split(text, "\n")
	curBlock := -1

	for lineNo, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "func "):
			name = strings.TrimSpace(strings.TrimPrefix(line, "func "))

		case strings.HasPrefix(line, "block"):
			bIdx, bSuccs, uniform, err := parseBlockHeader(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			if bIdx != len(blocks) {
				return nil, fmt.Errorf("line %d: block%d declared out of order, expected block%d", lineNo+1, bIdx, len(blocks))
			}
			blocks = append(blocks, &BasicBlock{Uniform: uniform})
			succs = append(succs, bSuccs)
			curBlock = bIdx

		default:
			if curBlock < 0 {
				return nil, fmt.Errorf("line %d: instruction %q appears before any block header", lineNo+1, line)
			}
			instr, used, err := parseInstrLine(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			blocks[curBlock].Instrs = append(blocks[curBlock].Instrs, instr)
			for _, idx := range used {
				if !sawMax || idx > maxIdx {
					maxIdx, sawMax = idx, true
				}
			}
		}
	}

	if name == "" {
		return nil, fmt.Errorf("missing \"func NAME\" header")
	}

	fn := &Function{Name: name, CFG: NewCFG(blocks, succs)}
	if sawMax {
		fn.Values.next = maxIdx + 1
	}
	return fn, nil
}

// parseBlockHeader parses "blockN [succs=a,b,...] [uniform]".
func parseBlockHeader(line string) (idx int, succs []int, uniform bool, err error) {
	fields := strings.Fields(line)
	head := strings.TrimSuffix(fields[0], ":")
	numStr := strings.TrimPrefix(head, "block")
	idx64, err := strconv.Atoi(numStr)
	if err != nil {
		return 0, nil, false, fmt.Errorf("bad block header %q: %w", head, err)
	}
	idx = idx64

	for _, tok := range fields[1:] {
		switch {
		case tok == "uniform":
			uniform = true
		case strings.HasPrefix(tok, "succs="):
			for _, s := range strings.Split(strings.TrimPrefix(tok, "succs="), ",") {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				n, err := strconv.Atoi(s)
				if err != nil {
					return 0, nil, false, fmt.Errorf("bad successor index %q: %w", s, err)
				}
				succs = append(succs, n)
			}
		default:
			return 0, nil, false, fmt.Errorf("unrecognised block header token %q", tok)
		}
	}
	return idx, succs, uniform, nil
}

// parseInstrLine parses one instruction line, returning the instruction and
// the allocation indices of every SSA value it mentions (for the caller to
// fold into the function's high-water mark).
func parseInstrLine(line string) (*Instruction, []uint32, error) {
	instr := &Instruction{}
	var used []uint32

	if strings.HasPrefix(line, "@") {
		end := strings.IndexByte(line, ' ')
		if end < 0 {
			return nil, nil, fmt.Errorf("predicate with no instruction body")
		}
		predTok := line[1:end]
		line = strings.TrimSpace(line[end+1:])
		negate := strings.HasPrefix(predTok, "!")
		predTok = strings.TrimPrefix(predTok, "!")
		ssa, err := parseSSA(predTok)
		if err != nil {
			return nil, nil, fmt.Errorf("bad predicate %q: %w", predTok, err)
		}
		instr.Pred = PredRef{Kind: PredSSA, SSA: ssa, Negate: negate}
		used = append(used, ssa.Idx())
	}

	lhs, rhs, hasDsts := strings.Cut(line, "=")
	if !hasDsts {
		rhs = lhs
	} else {
		for _, tok := range strings.Split(lhs, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			dst, idx, hasIdx, err := parseDst(tok)
			if err != nil {
				return nil, nil, err
			}
			instr.Dsts = append(instr.Dsts, dst)
			if hasIdx {
				used = append(used, idx)
			}
		}
	}

	rhs = strings.TrimSpace(rhs)
	opName, rest, _ := strings.Cut(rhs, " ")
	opName = strings.TrimSpace(opName)
	op, ok := opByName[opName]
	if !ok {
		return nil, nil, fmt.Errorf("unknown opcode %q", opName)
	}
	instr.Op = op

	rest = strings.TrimSpace(rest)
	if rest != "" {
		for _, tok := range strings.Split(rest, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			src, idx, hasIdx, err := parseSrc(tok)
			if err != nil {
				return nil, nil, err
			}
			instr.Srcs = append(instr.Srcs, src)
			if hasIdx {
				used = append(used, idx)
			}
		}
	}

	return instr, used, nil
}

func parseSSA(tok string) (SSAValue, error) {
	tok = strings.TrimPrefix(tok, "%")
	idxStr, fileStr, ok := strings.Cut(tok, ".")
	if !ok {
		return SSAValue{}, fmt.Errorf("malformed SSA operand %q, want %%idx.FILE", tok)
	}
	idx, err := strconv.ParseUint(idxStr, 10, 32)
	if err != nil {
		return SSAValue{}, fmt.Errorf("malformed SSA index %q: %w", idxStr, err)
	}
	file, err := fileFromString(fileStr)
	if err != nil {
		return SSAValue{}, err
	}
	return SSAValue{idx: uint32(idx), file: file}, nil
}

func fileFromString(s string) (RegFile, error) {
	switch strings.ToUpper(s) {
	case "GPR":
		return GPR, nil
	case "UGPR":
		return UGPR, nil
	case "PRED":
		return Pred, nil
	case "UPRED":
		return UPred, nil
	case "CARRY":
		return Carry, nil
	case "BAR":
		return Bar, nil
	case "MEM":
		return Mem, nil
	default:
		return 0, fmt.Errorf("unknown register file %q", s)
	}
}

// parseRegRef parses "FILE[N]".
func parseRegRef(tok string) (RegRef, error) {
	fileStr, rest, ok := strings.Cut(tok, "[")
	if !ok || !strings.HasSuffix(rest, "]") {
		return RegRef{}, fmt.Errorf("malformed register operand %q, want FILE[N]", tok)
	}
	file, err := fileFromString(fileStr)
	if err != nil {
		return RegRef{}, err
	}
	n, err := strconv.ParseUint(strings.TrimSuffix(rest, "]"), 10, 32)
	if err != nil {
		return RegRef{}, fmt.Errorf("malformed register slot %q: %w", rest, err)
	}
	return NewRegRef(file, uint32(n)), nil
}

func parseDst(tok string) (dst Dst, idx uint32, hasIdx bool, err error) {
	switch {
	case strings.HasPrefix(tok, "%"):
		ssa, err := parseSSA(tok)
		if err != nil {
			return Dst{}, 0, false, err
		}
		return NewSSADst(ssa), ssa.Idx(), true, nil
	case strings.Contains(tok, "["):
		reg, err := parseRegRef(tok)
		if err != nil {
			return Dst{}, 0, false, err
		}
		return NewRegDst(reg), 0, false, nil
	default:
		return Dst{}, 0, false, fmt.Errorf("unrecognised destination operand %q", tok)
	}
}

func parseSrc(tok string) (src Src, idx uint32, hasIdx bool, err error) {
	switch {
	case tok == "zero":
		return NewZeroSrc(), 0, false, nil
	case tok == "true":
		return Src{Kind: SrcTrue}, 0, false, nil
	case tok == "false":
		return Src{Kind: SrcFalse}, 0, false, nil
	case tok == "undef":
		return Src{Kind: SrcUndef}, 0, false, nil
	case tok == "cbuf":
		return Src{Kind: SrcCBuf, CBuf: CBufRef{Kind: CBufBinding}}, 0, false, nil
	case strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X"):
		v, err := strconv.ParseUint(tok[2:], 16, 32)
		if err != nil {
			return Src{}, 0, false, fmt.Errorf("malformed immediate %q: %w", tok, err)
		}
		return NewImmSrc(uint32(v)), 0, false, nil
	case strings.HasPrefix(tok, "%"):
		ssa, err := parseSSA(tok)
		if err != nil {
			return Src{}, 0, false, err
		}
		return NewSSASrc(ssa), ssa.Idx(), true, nil
	case strings.Contains(tok, "["):
		reg, err := parseRegRef(tok)
		if err != nil {
			return Src{}, 0, false, err
		}
		return NewRegSrc(reg), 0, false, nil
	default:
		return Src{}, 0, false, fmt.Errorf("unrecognised source operand %q", tok)
	}
}
