package codegen

import (
	"bugc/internal/diagnostics"
	"bugc/internal/ir"
)

// lowerTerm emits blk's terminator. Fallthrough is elided whenever a
// target coincides with the block immediately following in layout — the
// only way to hit spec scenario 5's exact "one JUMPI, one JUMP, two
// JUMPDEST" count, since a literal placeholder-jump per edge would double
// the unconditional-JUMP count whenever a then-branch falls straight into
// its merge block.
func (g *gen) lowerTerm(blk *ir.Block, next ir.Label) {
	switch t := blk.Term.(type) {
	case ir.Jump:
		g.materializePhisInto(t.Target, blk.Label)
		g.jumpTo("", t.Target, next)

	case ir.Branch:
		g.materializePhisInto(t.TrueDst, blk.Label)
		g.materializePhisInto(t.FalseDst, blk.Label)
		g.load(t.Cond)
		g.pop(1)
		g.reservePlaceholder("", t.TrueDst)
		g.emit(JUMPI)
		g.jumpTo("", t.FalseDst, next)

	case ir.Return:
		g.lowerReturn(t, blk)

	case nil:
		g.errorf(diagnostics.CodeEVMMissingJumpTarget, "block %s has no terminator", blk.Label)

	default:
		g.errorf(diagnostics.CodeEVMMissingJumpTarget, "unrecognized terminator on block %s", blk.Label)
	}
}

// jumpTo emits an unconditional jump to target, or nothing at all when
// target is exactly the next block laid out (pure fallthrough).
func (g *gen) jumpTo(fn string, target ir.Label, next ir.Label) {
	if fn == "" && target == next {
		return
	}
	g.reservePlaceholder(fn, target)
	g.emit(JUMP)
}

func (g *gen) lowerReturn(t ir.Return, blk *ir.Block) {
	if !g.self.trampoline {
		g.lowerOuterReturn(t, blk)
		return
	}

	// Internal function: stash the result (if any) and jump back to
	// whichever call site populated our $retaddr slot. Non-reentrant by
	// construction — no recursion support (DESIGN.md).
	if t.Value != nil {
		g.load(t.Value)
		g.pushInt(g.self.retValSlot)
		g.pop(2)
		g.emit(MSTORE)
	}
	g.pushInt(g.self.retAddrSlot)
	g.pop(1)
	g.emit(MLOAD)
	g.emit(JUMP)
}

func (g *gen) lowerOuterReturn(t ir.Return, blk *ir.Block) {
	if t.Value == nil {
		if !g.isLastBlock(blk.Label) {
			g.emit(STOP)
		}
		return
	}

	if off, ok := g.offsetOf(t.Value); ok {
		g.pushInt(32)
		g.pushInt(off)
		g.pop(2)
		g.emit(RETURN)
		return
	}

	g.load(t.Value)
	g.pushInt(g.self.plan.FreePointer)
	g.pop(2)
	g.emit(MSTORE)
	g.pushInt(32)
	g.pushInt(g.self.plan.FreePointer)
	g.pop(2)
	g.emit(RETURN)
}

func (g *gen) isLastBlock(lbl ir.Label) bool {
	return len(g.order) > 0 && g.order[len(g.order)-1] == lbl
}
