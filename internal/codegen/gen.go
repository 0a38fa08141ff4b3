// Package codegen is the EVM code generator (C10, spec §4.7): it walks a
// phi-promoted, liveness-planned ir.Function in block-layout order and
// emits raw EVM bytecode, tracking a symbolic stack so that values already
// sitting on the real stack get DUP'd instead of reloaded from memory.
package codegen

import (
	"github.com/holiman/uint256"

	"bugc/internal/analysis"
	"bugc/internal/diagnostics"
	"bugc/internal/ir"
)

// stackEntry mirrors one word of the real EVM stack. Only Temp/Local
// entries are "findable" for a later DUP — Consts are always rematerialized
// by a fresh PUSH (spec §4.7's load strategy), so they carry no identity.
type stackEntry struct {
	isValue bool
	local   bool
	id      int
}

func entryFor(v ir.Value) stackEntry {
	switch v := v.(type) {
	case ir.Temp:
		return stackEntry{isValue: true, id: v.ID}
	case ir.Local:
		return stackEntry{isValue: true, local: true, id: v.ID}
	default:
		return stackEntry{}
	}
}

// patch is a deferred fixup: the two bytes at pos (the immediates of a
// PUSH2) get overwritten with the big-endian resolved offset of target once
// every function's base offset and every block's local offset are known.
type patch struct {
	pos    int
	fn     string // "" => same function this patch was recorded in
	target ir.Label
}

// funcPlan bundles a function's own value-memory layout with the two
// reserved slots the internal calling convention needs: one word to stash
// the caller's return address, one to stash the callee's return value.
// Neither slot is reentrant — calls to the same function cannot overlap,
// which is why this scheme has no support for recursion.
type funcPlan struct {
	plan        *analysis.Plan
	retAddrSlot int
	retValSlot  int
	trampoline  bool // true for user-defined functions; false for main/create
}

// gen is one function's code generation pass.
type gen struct {
	mod   *ir.Module
	fn    *ir.Function
	order []ir.Label
	plans map[string]*funcPlan
	self  *funcPlan
	diags *diagnostics.Bag

	code      []byte
	stack     []stackEntry
	blockOff  map[ir.Label]int
	patches   []patch
	dynOffset map[int]int // Temp id -> memory offset of a dynamic-length (bytes) value
	fatal     bool

	curBlock          *ir.Block
	suppressTerm      bool                    // set by lowerCall: the block's Jump was already spent on the call
	pendingCallReturn map[ir.Label]callReturn // continuation label -> what to recover from $retval
}

func (g *gen) emit(op Opcode) int {
	pos := len(g.code)
	g.code = append(g.code, byte(op))
	return pos
}

func (g *gen) emitImm(b ...byte) { g.code = append(g.code, b...) }

// pushWord emits PUSHn for a full 256-bit word, minimally trimmed.
func (g *gen) pushWord(n *uint256.Int) {
	var word [32]byte
	if n != nil {
		word = n.Bytes32()
	}
	g.pushBytes(word[:])
}

func (g *gen) pushBytes(word []byte) {
	var buf [32]byte
	copy(buf[32-len(word):], word)
	if len(word) > 32 {
		// longer constants (raw bytes/string literals) are pushed in
		// 32-byte words by the caller; pushBytes only ever sees <=32.
		buf = [32]byte{}
		copy(buf[:], word[len(word)-32:])
	}
	trimmed := minimalBytes(buf)
	g.emit(pushOp(len(trimmed)))
	g.emitImm(trimmed...)
}

// pushInt emits PUSH for a small known-at-generation-time literal (an
// offset, a slot, a field index) and tracks it on the symbolic stack as an
// anonymous, never-findable entry — exactly like a Const, it is always
// rematerialized rather than hunted for with DUP.
func (g *gen) pushInt(n int) {
	g.pushWord(new(uint256.Int).SetUint64(uint64(n)))
	g.stack = append(g.stack, stackEntry{})
}

// reservePlaceholder emits PUSH2 0x0000 and records a patch against it,
// returning nothing — callers follow immediately with JUMP/JUMPI/MSTORE.
func (g *gen) reservePlaceholder(fn string, target ir.Label) {
	g.emit(Opcode(int(PUSH1) + 1)) // PUSH2
	pos := len(g.code)
	g.emitImm(0, 0)
	g.patches = append(g.patches, patch{pos: pos, fn: fn, target: target})
}

func (g *gen) errorf(code, format string, args ...any) {
	g.diags.Errorf(nil, code, format, args...)
	g.fatal = true
}

func (g *gen) warnf(code, format string, args ...any) {
	g.diags.Warnf(nil, code, format, args...)
}

// find locates v within the top 16 stack entries, returning its DUP
// position (1 == already on top) if present.
func (g *gen) find(v ir.Value) (int, bool) {
	e := entryFor(v)
	if !e.isValue {
		return 0, false
	}
	limit := len(g.stack) - 16
	if limit < 0 {
		limit = 0
	}
	for i := len(g.stack) - 1; i >= limit; i-- {
		if g.stack[i] == e {
			return len(g.stack) - i, true
		}
	}
	return 0, false
}

// load puts v's value on top of the real and symbolic stack, per the load
// strategy in spec §4.7: dup a live stack copy, else MLOAD its planner
// offset, else fail.
func (g *gen) load(v ir.Value) {
	switch v := v.(type) {
	case ir.Const:
		if v.Number != nil {
			g.pushWord(v.Number)
		} else {
			g.pushBytes(v.Bytes)
		}
		g.stack = append(g.stack, stackEntry{})
		return
	}

	if pos, ok := g.find(v); ok {
		g.emit(dupOp(pos))
		g.stack = append(g.stack, entryFor(v))
		return
	}

	off, ok := g.offsetOf(v)
	if !ok {
		g.errorf(diagnostics.CodeEVMUnallocatedValue, "value %s has no stack copy and no memory offset", v)
		g.stack = append(g.stack, entryFor(v))
		return
	}
	g.pushInt(off)
	g.emit(MLOAD)
	g.stack[len(g.stack)-1] = entryFor(v)
}

func (g *gen) offsetOf(v ir.Value) (int, bool) {
	return g.self.plan.OffsetOf(v)
}

// storeTop MSTOREs the current top-of-stack value to off without consuming
// it (DUP, PUSH offset, MSTORE): the original stays on the real stack,
// tracked unchanged in g.stack.
func (g *gen) storeTop(off int) {
	top := g.stack[len(g.stack)-1]
	g.emit(dupOp(1))
	g.stack = append(g.stack, top)
	g.pushInt(off)
	g.emit(MSTORE)
	g.stack = g.stack[:len(g.stack)-2]
}

// localElemAddr pushes the memory address of a local array element
// (base + index*32) as a single anonymous stack entry, folding a constant
// index at generation time to skip the multiply.
func (g *gen) localElemAddr(base int, index ir.Value) {
	if c, ok := index.(ir.Const); ok && c.Number != nil {
		g.pushInt(base + int(c.Number.Uint64())*32)
		return
	}
	g.load(index)
	g.pushInt(32)
	g.pop(2)
	g.emit(MUL)
	g.stack = append(g.stack, stackEntry{})
	g.pushInt(base)
	g.pop(2)
	g.emit(ADD)
	g.stack = append(g.stack, stackEntry{})
}

// pop drops n entries from the symbolic stack (the real stack already
// shrank by n via whichever opcode just ran).
func (g *gen) pop(n int) { g.stack = g.stack[:len(g.stack)-n] }

// pushResult appends a fresh symbolic entry for a computed value and, if
// the planner gave it a home, persists a copy to memory.
func (g *gen) pushResult(v ir.Value) {
	g.stack = append(g.stack, entryFor(v))
	if off, ok := g.offsetOf(v); ok {
		g.storeTop(off)
	}
}
