package analysis

import "bugc/internal/ir"

// rewriteUses substitutes every Value-typed operand of instr through
// resolve, in place. Instr implementations are mutable pointer receivers
// (spec §9's tagged-union preference), so this type switch is the one
// place that needs to know every instruction kind's operand shape.
func rewriteUses(instr ir.Instr, resolve func(ir.Value) ir.Value) {
	switch it := instr.(type) {
	case *ir.BinaryI:
		it.Left = resolve(it.Left)
		it.Right = resolve(it.Right)
	case *ir.UnaryI:
		it.Operand = resolve(it.Operand)
	case *ir.LoadStorageI:
		it.Slot = resolve(it.Slot)
	case *ir.StoreStorageI:
		it.Slot = resolve(it.Slot)
		it.Value = resolve(it.Value)
	case *ir.ComputeSlotI:
		it.Base = resolve(it.Base)
		it.Key = resolve(it.Key)
	case *ir.ComputeArraySlotI:
		it.Base = resolve(it.Base)
	case *ir.ComputeFieldOffsetI:
		it.Base = resolve(it.Base)
	case *ir.LoadFieldI:
		it.Base = resolve(it.Base)
	case *ir.StoreFieldI:
		it.Base = resolve(it.Base)
		it.Value = resolve(it.Value)
	case *ir.LoadIndexI:
		it.Base = resolve(it.Base)
		it.Index = resolve(it.Index)
	case *ir.StoreIndexI:
		it.Base = resolve(it.Base)
		it.Index = resolve(it.Index)
		it.Value = resolve(it.Value)
	case *ir.CastI:
		it.Operand = resolve(it.Operand)
	case *ir.HashI:
		it.Operand = resolve(it.Operand)
	case *ir.LengthI:
		if it.Operand != nil {
			it.Operand = resolve(it.Operand)
		}
	case *ir.SliceI:
		it.Operand = resolve(it.Operand)
		if it.Low != nil {
			it.Low = resolve(it.Low)
		}
		if it.High != nil {
			it.High = resolve(it.High)
		}
	case *ir.CallI:
		for i, a := range it.Args {
			it.Args[i] = resolve(a)
		}
	}
}

// rewriteTerm substitutes blk.Term's Value operands through resolve.
// Terminators are plain (non-pointer) values behind the interface, so the
// rewritten copy is written back to blk.Term rather than mutated through
// the interface.
func rewriteTerm(blk *ir.Block, resolve func(ir.Value) ir.Value) {
	switch t := blk.Term.(type) {
	case ir.Branch:
		t.Cond = resolve(t.Cond)
		blk.Term = t
	case ir.Return:
		if t.Value != nil {
			t.Value = resolve(t.Value)
			blk.Term = t
		}
	}
}
