package codegen

import (
	"bugc/internal/analysis"
	"bugc/internal/diagnostics"
	"bugc/internal/ir"
	"bugc/internal/types"
)

// generateFunction emits one function's body in blockOrder, returning the
// generator (so its patches/diagnostics can be folded into module assembly)
// and the raw bytes.
func generateFunction(mod *ir.Module, fn *ir.Function, plans map[string]*funcPlan, diags *diagnostics.Bag) (*gen, []byte) {
	order := analysis.BlockOrder(fn)
	g := &gen{
		mod:       mod,
		fn:        fn,
		order:     order,
		plans:     plans,
		self:      plans[fn.Name],
		diags:     diags,
		blockOff:  make(map[ir.Label]int),
		dynOffset: make(map[int]int),
	}

	for i, lbl := range order {
		g.stack = nil
		blk := fn.Blocks[lbl]
		g.curBlock = blk
		g.suppressTerm = false
		g.blockOff[lbl] = len(g.code)

		// Every block gets a JUMPDEST except main's or create's entry block
		// when it has no real predecessors — nothing ever jumps there, so
		// the marker would be dead weight (spec §4.6). A user function's
		// entry block is the target of every call site's jump, so it
		// always gets one.
		if i != 0 || len(blk.Predecessors) > 0 || g.self.trampoline {
			g.emit(JUMPDEST)
		}

		if cr, ok := g.pendingCallReturn[lbl]; ok {
			if !cr.void {
				g.pushInt(cr.slot)
				g.pop(1)
				g.emit(MLOAD)
				g.pushResult(cr.dest)
			}
		}

		for _, instr := range blk.Instrs {
			g.lowerInstr(instr)
		}

		var next ir.Label
		if i+1 < len(order) {
			next = order[i+1]
		}
		if !g.suppressTerm {
			g.lowerTerm(blk, next)
		}
	}

	return g, g.code
}

// materializePhisInto writes, for every phi owned by target, the value
// fromLabel contributes. Called unconditionally by every predecessor right
// before its terminator transfers control (lowerTerm), so the write lands
// regardless of whether fromLabel happens to be adjacent to target in
// layout — the general case from spec §4.7 ("where multiple dynamic
// predecessors exist, each incoming edge must materialize the phi's source
// value into the destination slot before jumping").
func (g *gen) materializePhisInto(target ir.Label, fromLabel ir.Label) {
	blk := g.fn.Blocks[target]
	if blk == nil {
		return
	}
	for _, phi := range blk.Phis {
		src, ok := phi.Sources[fromLabel]
		if !ok {
			g.errorf(diagnostics.CodeEVMUnresolvedPhi, "phi %s has no source from %s", phi.Dest, fromLabel)
			continue
		}
		off, ok := g.offsetOf(phi.Dest)
		if !ok {
			g.errorf(diagnostics.CodeEVMUnallocatedValue, "phi %s was not assigned a memory slot", phi.Dest)
			continue
		}
		g.load(src)
		g.pushInt(off)
		g.pop(2)
		g.emit(MSTORE)
	}
}

func (g *gen) lowerInstr(instr ir.Instr) {
	switch it := instr.(type) {
	case *ir.ConstI:
		g.load(it.Value)
		g.pop(1)
		g.pushResult(it.Dest)

	case *ir.BinaryI:
		g.lowerBinary(it)

	case *ir.UnaryI:
		g.lowerUnary(it)

	case *ir.LoadLocalI:
		g.load(it.Local)
		g.pop(1)
		g.pushResult(it.Dest)

	case *ir.StoreLocalI:
		off, ok := g.offsetOf(it.Local)
		if !ok {
			g.errorf(diagnostics.CodeEVMUnallocatedValue, "local %s has no memory slot", it.Local)
			return
		}
		g.load(it.Value)
		g.pushInt(off)
		g.pop(2)
		g.emit(MSTORE)

	case *ir.LoadStorageI:
		g.load(it.Slot)
		g.pop(1)
		g.emit(SLOAD)
		g.pushResult(it.Dest)

	case *ir.StoreStorageI:
		g.load(it.Value)
		g.load(it.Slot)
		g.pop(2)
		g.emit(SSTORE)

	case *ir.ComputeSlotI:
		g.load(it.Key)
		g.pushInt(0x00)
		g.pop(2)
		g.emit(MSTORE)
		g.load(it.Base)
		g.pushInt(0x20)
		g.pop(2)
		g.emit(MSTORE)
		g.pushInt(0x40)
		g.pushInt(0x00)
		g.pop(2)
		g.emit(SHA3)
		g.pushResult(it.Dest)

	case *ir.ComputeArraySlotI:
		g.load(it.Base)
		g.pushInt(0x00)
		g.pop(2)
		g.emit(MSTORE)
		g.pushInt(0x20)
		g.pushInt(0x00)
		g.pop(2)
		g.emit(SHA3)
		g.pushResult(it.Dest)

	case *ir.ComputeFieldOffsetI:
		g.load(it.Base)
		g.pushInt(it.FieldIndex)
		g.pop(2)
		g.emit(ADD)
		g.pushResult(it.Dest)

	case *ir.LoadFieldI:
		off, ok := g.offsetOf(it.Base)
		if !ok {
			g.errorf(diagnostics.CodeEVMUnallocatedValue, "local %s has no memory slot", it.Base)
			return
		}
		g.pushInt(off + it.FieldIndex*32)
		g.pop(1)
		g.emit(MLOAD)
		g.pushResult(it.Dest)

	case *ir.StoreFieldI:
		off, ok := g.offsetOf(it.Base)
		if !ok {
			g.errorf(diagnostics.CodeEVMUnallocatedValue, "local %s has no memory slot", it.Base)
			return
		}
		g.load(it.Value)
		g.pushInt(off + it.FieldIndex*32)
		g.pop(2)
		g.emit(MSTORE)

	case *ir.LoadIndexI:
		off, ok := g.offsetOf(it.Base)
		if !ok {
			g.errorf(diagnostics.CodeEVMUnallocatedValue, "local %s has no memory slot", it.Base)
			return
		}
		g.localElemAddr(off, it.Index)
		g.pop(1)
		g.emit(MLOAD)
		g.pushResult(it.Dest)

	case *ir.StoreIndexI:
		off, ok := g.offsetOf(it.Base)
		if !ok {
			g.errorf(diagnostics.CodeEVMUnallocatedValue, "local %s has no memory slot", it.Base)
			return
		}
		g.load(it.Value)
		g.localElemAddr(off, it.Index)
		g.pop(2)
		g.emit(MSTORE)

	case *ir.CastI:
		// No runtime representation change across this language's scalar
		// encodings: a cast is the identity on the underlying word.
		g.load(it.Operand)
		g.pop(1)
		g.pushResult(it.Dest)

	case *ir.HashI:
		g.lowerHash(it)

	case *ir.LengthI:
		g.lowerLength(it)

	case *ir.SliceI:
		g.lowerSlice(it)

	case *ir.EnvI:
		g.lowerEnv(it)

	case *ir.CallI:
		g.lowerCall(it)

	case *ir.PhiI:
		// Every phi destination is written by each predecessor's terminator
		// (materializePhisInto); the pseudo-instruction itself emits
		// nothing at its own position in the block.

	default:
		g.warnf(diagnostics.CodeEVMUnsupportedInstr, "unmatched IR instruction %T", instr)
	}
}

// binOpcode maps an IR binary operator to its EVM opcode, plus whether a
// trailing NOT completes the lowering (spec §4.7: ne = EQ,NOT; ge = LT,NOT;
// le = GT,NOT). signed selects the two's-complement variant of div/mod/lt/gt
// (SDIV/SMOD/SLT/SGT) for intN operands — add/sub/mul/eq are bit-identical
// between signed and unsigned two's-complement, so only the ordered/division
// ops need a second opcode.
func binOpcode(op ir.BinOp, signed bool) (Opcode, bool, bool) {
	switch op {
	case ir.OpAdd:
		return ADD, false, true
	case ir.OpSub:
		return SUB, false, true
	case ir.OpMul:
		return MUL, false, true
	case ir.OpDiv:
		if signed {
			return SDIV, false, true
		}
		return DIV, false, true
	case ir.OpMod:
		if signed {
			return SMOD, false, true
		}
		return MOD, false, true
	case ir.OpEq:
		return EQ, false, true
	case ir.OpNe:
		return EQ, true, true
	case ir.OpLt:
		if signed {
			return SLT, false, true
		}
		return LT, false, true
	case ir.OpGe:
		if signed {
			return SLT, true, true
		}
		return LT, true, true
	case ir.OpGt:
		if signed {
			return SGT, false, true
		}
		return GT, false, true
	case ir.OpLe:
		if signed {
			return SGT, true, true
		}
		return GT, true, true
	case ir.OpAnd:
		return 0x16, false, true // AND
	case ir.OpOr:
		return 0x17, false, true // OR
	}
	return 0, false, false
}

func (g *gen) lowerBinary(it *ir.BinaryI) {
	_, signed := it.Left.Type().(types.Int)
	op, trailingNot, ok := binOpcode(it.Op, signed)
	if !ok {
		g.errorf(diagnostics.CodeEVMUnsupportedInstr, "unsupported binary operator %v", it.Op)
		return
	}
	// EVM binary opcodes compute (top OP second): SUB/DIV/MOD/LT/GT give
	// top-second, so Left must end up on top for the result to be
	// Left OP Right. Load Right first, then Left.
	g.load(it.Right)
	g.load(it.Left)
	g.pop(2)
	g.emit(op)
	if trailingNot {
		g.emit(NOT)
	}
	g.pushResult(it.Dest)
}

func (g *gen) lowerUnary(it *ir.UnaryI) {
	switch it.Op {
	case ir.OpNot:
		g.load(it.Operand)
		g.pop(1)
		g.emit(NOT)
		g.pushResult(it.Dest)
	case ir.OpNeg:
		// 0 - operand: operand must be SUB's second operand (SUB pops
		// a=top, b=second, result a-b), so operand is pushed first and 0
		// goes on top.
		g.load(it.Operand)
		g.pushInt(0)
		g.pop(2)
		g.emit(SUB)
		g.pushResult(it.Dest)
	default:
		g.errorf(diagnostics.CodeEVMUnsupportedInstr, "unsupported unary operator %v", it.Op)
	}
}

func (g *gen) lowerEnv(it *ir.EnvI) {
	switch it.Op {
	case ir.EnvMsgSender:
		g.emit(CALLER)
	case ir.EnvMsgValue:
		g.emit(CALLVALUE)
	case ir.EnvBlockTimestamp:
		g.emit(TIMESTAMP)
	case ir.EnvBlockNumber:
		g.emit(NUMBER)
	case ir.EnvMsgData:
		// A bare reference to msg.data as a scalar value: load its leading
		// word. .length and slicing go through LengthI/SliceI instead,
		// which use CALLDATASIZE/CALLDATACOPY directly (open question,
		// resolved in DESIGN.md).
		g.pushInt(0)
		g.pop(1)
		g.emit(CALLDATALOAD)
	default:
		g.errorf(diagnostics.CodeEVMUnsupportedInstr, "unsupported env op %v", it.Op)
		return
	}
	g.pushResult(it.Dest)
}

func (g *gen) lowerLength(it *ir.LengthI) {
	switch {
	case it.IsCalldata:
		g.emit(CALLDATASIZE)
		g.pushResult(it.Dest)
	case it.IsStorageSlot:
		g.load(it.Operand)
		g.pop(1)
		g.emit(SLOAD)
		g.pushResult(it.Dest)
	default:
		// Fixed-size array/bytesN: the length is a compile-time constant
		// baked into the type, never touching Operand.
		g.pushInt(fixedLength(it.Ty))
		g.pop(1)
		g.pushResult(it.Dest)
	}
}

func fixedLength(t types.Type) int {
	switch t := t.(type) {
	case types.Array:
		if t.Size == nil {
			return 0
		}
		return *t.Size
	case types.BytesN:
		return t.N
	default:
		return 0
	}
}

// lowerHash computes keccak256 of its operand. A dynamic-length operand
// (tracked via dynOffset — see lowerSlice) hashes its (offset+32, length)
// region; anything else is a single word staged through scratch memory at
// 0x00/0x20, matching compute_slot's own hashing pattern.
func (g *gen) lowerHash(it *ir.HashI) {
	if t, ok := it.Operand.(ir.Temp); ok {
		if off, ok := g.dynOffset[t.ID]; ok {
			g.pushInt(off)
			g.emit(MLOAD) // the stashed length, becomes SHA3's size operand
			g.pushInt(off + 32)
			g.pop(2)
			g.emit(SHA3)
			g.pushResult(it.Dest)
			return
		}
	}
	g.load(it.Operand)
	g.pushInt(0x00)
	g.pop(2)
	g.emit(MSTORE)
	g.pushInt(0x20)
	g.pushInt(0x00)
	g.pop(2)
	g.emit(SHA3)
	g.pushResult(it.Dest)
}

// lowerSlice copies a byte range out of msg.data into scratch memory, using
// the conventional ABI-dynamic encoding: a length word at base, raw bytes
// at base+32. Later consumers (lowerHash) look up dynOffset instead of
// treating the Temp as a plain 32-byte value — the exact slicing/length
// boundary semantics are an Open Question the spec leaves to implementers
// (documented in DESIGN.md).
func (g *gen) lowerSlice(it *ir.SliceI) {
	base := g.self.plan.FreePointer
	g.self.plan.FreePointer += 64

	loadLow := func() {
		if it.Low != nil {
			g.load(it.Low)
		} else {
			g.pushInt(0)
		}
	}
	loadHigh := func() {
		if it.High != nil {
			g.load(it.High)
		} else {
			g.emit(CALLDATASIZE)
			g.stack = append(g.stack, stackEntry{})
		}
	}

	// length = high - low, stashed at base.
	loadLow()
	loadHigh()
	g.pop(2)
	g.emit(SUB)
	g.stack = append(g.stack, stackEntry{}) // untracked length result
	g.pushInt(base)
	g.pop(2)
	g.emit(MSTORE)

	// CALLDATACOPY(destOffset=base+32, offset=low, size=length).
	g.pushInt(base)
	g.emit(MLOAD)
	loadLow()
	g.pushInt(base + 32)
	g.pop(3)
	g.emit(CALLDATACOPY)

	g.dynOffset[it.Dest.ID] = base
	g.stack = append(g.stack, entryFor(it.Dest))
}
