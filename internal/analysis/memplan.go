package analysis

import (
	"bugc/internal/ir"
	"bugc/internal/types"
)

// wordsFor reports how many consecutive 32-byte words a value of ty
// occupies in memory: one word per struct field (spec §3.3's "one slot per
// field" layout carried over verbatim into memory) or one word per
// fixed-array element; everything else is a single word.
func wordsFor(ty types.Type) int {
	switch t := ty.(type) {
	case types.Struct:
		if len(t.Fields) == 0 {
			return 1
		}
		return len(t.Fields)
	case types.Array:
		if t.Size == nil || *t.Size == 0 {
			return 1
		}
		return *t.Size
	default:
		return 1
	}
}

// Plan is one function's memory layout (spec §4.5): byte offsets for every
// value that needs one, plus the free pointer codegen uses for scratch
// space (return-value staging, hashing input buffers).
type Plan struct {
	Offsets     map[valueKey]int
	FreePointer int
}

// offsetForLocal and offsetForTemp give codegen a typed way to query a
// Plan without reaching into the unexported key type.
func (p *Plan) offsetForLocal(id int) (int, bool) {
	off, ok := p.Offsets[valueKey{isLocal: true, id: id}]
	return off, ok
}

func (p *Plan) offsetForTemp(id int) (int, bool) {
	off, ok := p.Offsets[valueKey{id: id}]
	return off, ok
}

// OffsetOf resolves v's memory offset, if the planner gave it one.
func (p *Plan) OffsetOf(v ir.Value) (int, bool) {
	switch v := v.(type) {
	case ir.Local:
		return p.offsetForLocal(v.ID)
	case ir.Temp:
		return p.offsetForTemp(v.ID)
	default:
		return 0, false
	}
}

// PlanMemory assigns offsets to every value whose lifetime crosses a block
// boundary or a stack-disturbing point within a block (spec §4.5). All
// locals (meaning, post-promotion, surviving parameter values) are
// unconditionally memory-resident.
func PlanMemory(fn *ir.Function, live *Liveness) *Plan {
	offsets := make(map[valueKey]int)
	next := 0x80
	assign := func(k valueKey) {
		if _, ok := offsets[k]; !ok {
			offsets[k] = next
			next += 32
		}
	}

	for _, p := range fn.Params {
		k := valueKey{isLocal: true, id: p.ID}
		if _, ok := offsets[k]; !ok {
			offsets[k] = next
			next += wordsFor(p.Ty) * 32
		}
	}

	rpo := reversePostOrder(fn)
	for _, lbl := range rpo {
		blk := fn.Blocks[lbl]

		defined := make(map[valueKey]int, len(blk.Instrs))
		for i, instr := range blk.Instrs {
			if t, ok := ir.Defines(instr); ok {
				k, _ := keyOf(t)
				defined[k] = i
				if live.LiveOut[lbl][k] {
					assign(k)
				}
			}
		}

		var disturbAt []int
		for i, instr := range blk.Instrs {
			switch instr.(type) {
			case *ir.CallI, *ir.HashI:
				disturbAt = append(disturbAt, i)
			}
		}
		if len(disturbAt) > 0 {
			checkUses := func(atIdx int, vs []ir.Value) {
				for _, uv := range vs {
					k, ok := keyOf(uv)
					if !ok {
						continue
					}
					defIdx, ok := defined[k]
					if !ok {
						continue // defined elsewhere; already forced if cross-block-live
					}
					for _, di := range disturbAt {
						if defIdx < di && di <= atIdx {
							assign(k)
						}
					}
				}
			}
			for i, instr := range blk.Instrs {
				checkUses(i, ir.Uses(instr))
			}
			if blk.Term != nil {
				switch t := blk.Term.(type) {
				case ir.Branch:
					checkUses(len(blk.Instrs), []ir.Value{t.Cond})
				case ir.Return:
					if t.Value != nil {
						checkUses(len(blk.Instrs), []ir.Value{t.Value})
					}
				}
			}
		}

		for _, phi := range blk.Phis {
			if k, ok := keyOf(phi.Dest); ok {
				assign(k)
			}
		}
	}

	return &Plan{Offsets: offsets, FreePointer: next}
}
