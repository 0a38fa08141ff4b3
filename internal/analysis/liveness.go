package analysis

import "bugc/internal/ir"

// valueKey identifies a Temp or Local for liveness/allocation purposes.
// Consts need no tracking — they never need a home, they're re-pushed
// from their literal encoding wherever used.
type valueKey struct {
	isLocal bool
	id      int
}

func keyOf(v ir.Value) (valueKey, bool) {
	switch v := v.(type) {
	case ir.Temp:
		return valueKey{id: v.ID}, true
	case ir.Local:
		return valueKey{isLocal: true, id: v.ID}, true
	default:
		return valueKey{}, false
	}
}

// Liveness is one function's live-in/live-out sets, keyed by block label.
type Liveness struct {
	LiveIn  map[ir.Label]map[valueKey]bool
	LiveOut map[ir.Label]map[valueKey]bool
}

// ComputeLiveness runs the backward fixed-point dataflow of spec §4.4 over
// an already phi-promoted function.
func ComputeLiveness(fn *ir.Function) *Liveness {
	rpo := reversePostOrder(fn)

	use := make(map[ir.Label]map[valueKey]bool)
	def := make(map[ir.Label]map[valueKey]bool)

	for _, lbl := range rpo {
		blk := fn.Blocks[lbl]
		u := make(map[valueKey]bool)
		d := make(map[valueKey]bool)
		locallyDefined := make(map[valueKey]bool)

		if lbl == fn.Entry {
			for _, p := range fn.Params {
				k := valueKey{isLocal: true, id: p.ID}
				locallyDefined[k] = true
				d[k] = true
			}
		}
		for _, phi := range blk.Phis {
			if k, ok := keyOf(phi.Dest); ok {
				locallyDefined[k] = true
				d[k] = true
			}
		}

		noteUse := func(v ir.Value) {
			k, ok := keyOf(v)
			if !ok || locallyDefined[k] {
				return
			}
			u[k] = true
		}
		noteDef := func(v ir.Value) {
			if k, ok := keyOf(v); ok {
				locallyDefined[k] = true
				d[k] = true
			}
		}

		for _, instr := range blk.Instrs {
			for _, uv := range ir.Uses(instr) {
				noteUse(uv)
			}
			if t, ok := ir.Defines(instr); ok {
				noteDef(t)
			}
		}
		if blk.Term != nil {
			switch t := blk.Term.(type) {
			case ir.Branch:
				noteUse(t.Cond)
			case ir.Return:
				if t.Value != nil {
					noteUse(t.Value)
				}
			}
		}
		use[lbl] = u
		def[lbl] = d
	}

	liveIn := make(map[ir.Label]map[valueKey]bool)
	liveOut := make(map[ir.Label]map[valueKey]bool)
	for _, lbl := range rpo {
		liveIn[lbl] = make(map[valueKey]bool)
		liveOut[lbl] = make(map[valueKey]bool)
	}

	changed := true
	for changed {
		changed = false
		for i := len(rpo) - 1; i >= 0; i-- {
			lbl := rpo[i]
			blk := fn.Blocks[lbl]
			out := make(map[valueKey]bool)
			if blk.Term != nil {
				for _, s := range blk.Term.Targets() {
					for k := range liveIn[s] {
						out[k] = true
					}
					// A phi use in a successor is only "live" along the
					// edge from this specific predecessor.
					if succ := fn.Blocks[s]; succ != nil {
						for _, phi := range succ.Phis {
							if v, ok := phi.Sources[lbl]; ok {
								if k, ok := keyOf(v); ok {
									out[k] = true
								}
							}
						}
					}
				}
			}
			in := make(map[valueKey]bool, len(use[lbl]))
			for k := range use[lbl] {
				in[k] = true
			}
			for k := range out {
				if !def[lbl][k] {
					in[k] = true
				}
			}
			if !equalKeySets(in, liveIn[lbl]) || !equalKeySets(out, liveOut[lbl]) {
				liveIn[lbl] = in
				liveOut[lbl] = out
				changed = true
			}
		}
	}

	return &Liveness{LiveIn: liveIn, LiveOut: liveOut}
}

func equalKeySets(a, b map[valueKey]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
