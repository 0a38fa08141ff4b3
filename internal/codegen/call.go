package codegen

import (
	"bugc/internal/diagnostics"
	"bugc/internal/ir"
	"bugc/internal/types"
)

// callReturn records that a block is the continuation after a CallI: its
// first order of business, once reached, is to recover the callee's
// staged return value.
type callReturn struct {
	dest ir.Temp
	void bool
	slot int
}

// lowerCall implements the internal calling convention sketched in the IR
// builder (bugc/internal/ir/builder.go's lowerCall): the caller stages
// arguments into the callee's own parameter slots, stashes its
// continuation address in the callee's $retaddr slot, and performs a
// static jump into the callee's entry block. The callee's Return
// terminator (lowered in term.go as a trampoline) stages its result in
// $retval and jumps back dynamically. Non-reentrant: a function mid-call
// cannot be called again before it returns, so there is no recursion.
func (g *gen) lowerCall(it *ir.CallI) {
	calleeFn := g.mod.Funcs[it.Callee]
	calleePlan := g.plans[it.Callee]
	if calleeFn == nil || calleePlan == nil {
		g.errorf(diagnostics.CodeEVMUnsupportedInstr, "call to unknown function %q", it.Callee)
		return
	}

	for i, arg := range it.Args {
		if i >= len(calleeFn.Params) {
			break
		}
		switch arg.Type().(type) {
		case types.Struct, types.Array, types.Mapping:
			// The internal convention below stages one word per parameter
			// slot; a composite argument needs one word per field/element,
			// which this generator does not stage, so such a call is
			// reported instead of lowered.
			g.errorf(diagnostics.CodeEVMUnsupportedInstr, "passing a composite-typed argument to %s is not supported", it.Callee)
			continue
		}
		off, ok := calleePlan.plan.OffsetOf(calleeFn.Params[i])
		if !ok {
			g.errorf(diagnostics.CodeEVMUnallocatedValue, "parameter %d of %s has no memory slot", i, it.Callee)
			continue
		}
		g.load(arg)
		g.pushInt(off)
		g.pop(2)
		g.emit(MSTORE)
	}

	cont, ok := g.curBlock.Term.(ir.Jump)
	if !ok {
		g.errorf(diagnostics.CodeEVMMissingJumpTarget, "call in block %s is not followed by a continuation jump", g.curBlock.Label)
		return
	}

	// Stash this call site's return address, patched once this function's
	// own block offsets are known. reservePlaceholder's PUSH2 isn't
	// auto-tracked (unlike term.go's uses, nothing pre-pops to compensate),
	// so track it here to keep the symbolic stack matching the real one for
	// the pop(2) below.
	g.reservePlaceholder("", cont.Target)
	g.stack = append(g.stack, stackEntry{})
	g.pushInt(calleePlan.retAddrSlot)
	g.pop(2)
	g.emit(MSTORE)

	// Jump into the callee — a cross-function patch, resolved once every
	// function's base offset in the assembled blob is known.
	g.reservePlaceholder(it.Callee, calleeFn.Entry)
	g.emit(JUMP)

	if g.pendingCallReturn == nil {
		g.pendingCallReturn = make(map[ir.Label]callReturn)
	}
	g.pendingCallReturn[cont.Target] = callReturn{dest: it.Dest, void: it.Void, slot: calleePlan.retValSlot}

	g.suppressTerm = true
}
