package analysis

import "bugc/internal/ir"

// Promote runs C6 (spec §4.3) over every function in mod: locals are
// converted to SSA form by inserting phi nodes at dominance-frontier
// blocks and rewriting load_local/store_local into direct value
// references. Parameters, which are never reassigned, are left as bare
// Local values at their use sites rather than eliminated — codegen reads
// a Local operand the same way it would a load_local, and a never-stored
// local can never go stale.
func Promote(mod *ir.Module) {
	for _, fn := range mod.Funcs {
		promoteFunc(fn)
	}
	if mod.Create != nil {
		promoteFunc(mod.Create)
	}
	promoteFunc(mod.Main)
}

type phiSite struct {
	instr *ir.PhiI
	local int
}

func promoteFunc(fn *ir.Function) {
	dom := computeDominance(fn)

	defSites := make(map[int]map[ir.Label]bool) // local id -> blocks with a store
	for _, l := range fn.Locals {
		defSites[l.ID] = make(map[ir.Label]bool)
	}
	for _, lbl := range dom.rpo {
		blk := fn.Blocks[lbl]
		for _, instr := range blk.Instrs {
			if s, ok := instr.(*ir.StoreLocalI); ok {
				defSites[s.Local.ID][lbl] = true
			}
		}
	}

	// Only locals with at least one store get SSA-promoted; parameters
	// (no stores) are left as direct Local references.
	phisAt := make(map[ir.Label]map[int]*phiSite) // block -> local id -> phi
	for _, l := range fn.Locals {
		sites := defSites[l.ID]
		if len(sites) == 0 {
			continue
		}
		liveIn := localLiveness(fn, dom.rpo, l.ID)
		worklist := make([]ir.Label, 0, len(sites))
		for b := range sites {
			worklist = append(worklist, b)
		}
		hasPhi := make(map[ir.Label]bool)
		for len(worklist) > 0 {
			b := worklist[0]
			worklist = worklist[1:]
			for d := range dom.frontier[b] {
				if hasPhi[d] || !liveIn[d] {
					continue
				}
				hasPhi[d] = true
				phi := &ir.PhiI{Dest: fn.NewTemp(l.Ty), Sources: make(map[ir.Label]ir.Value)}
				blk := fn.Blocks[d]
				blk.Phis = append(blk.Phis, phi)
				if phisAt[d] == nil {
					phisAt[d] = make(map[int]*phiSite)
				}
				phisAt[d][l.ID] = &phiSite{instr: phi, local: l.ID}
				worklist = append(worklist, d)
			}
		}
	}

	stacks := make(map[int][]ir.Value)
	push := func(id int, v ir.Value) { stacks[id] = append(stacks[id], v) }
	top := func(id int) ir.Value {
		s := stacks[id]
		if len(s) == 0 {
			return nil
		}
		return s[len(s)-1]
	}

	for _, p := range fn.Params {
		push(p.ID, p)
	}

	subst := make(map[int]ir.Value) // temp id -> replacement, for eliminated load_locals

	var resolve func(v ir.Value) ir.Value
	resolve = func(v ir.Value) ir.Value {
		if t, ok := v.(ir.Temp); ok {
			if r, ok := subst[t.ID]; ok {
				return r
			}
		}
		return v
	}

	exitVersion := make(map[ir.Label]map[int]ir.Value)

	var visit func(lbl ir.Label)
	visit = func(lbl ir.Label) {
		blk := fn.Blocks[lbl]
		depth := make(map[int]int)
		for _, l := range fn.Locals {
			if phis, ok := phisAt[lbl]; ok {
				if ps, ok := phis[l.ID]; ok {
					push(l.ID, ps.instr.Dest)
				}
			}
			depth[l.ID] = len(stacks[l.ID])
		}

		out := blk.Instrs[:0:0]
		for _, instr := range blk.Instrs {
			switch it := instr.(type) {
			case *ir.LoadLocalI:
				subst[it.Dest.ID] = top(it.Local.ID)
			case *ir.StoreLocalI:
				push(it.Local.ID, resolve(it.Value))
			default:
				rewriteUses(instr, resolve)
				out = append(out, instr)
			}
		}
		blk.Instrs = out

		rewriteTerm(blk, resolve)

		snap := make(map[int]ir.Value, len(fn.Locals))
		for _, l := range fn.Locals {
			snap[l.ID] = top(l.ID)
		}
		exitVersion[lbl] = snap

		for _, child := range dom.children[lbl] {
			visit(child)
		}

		for _, l := range fn.Locals {
			stacks[l.ID] = stacks[l.ID][:depth[l.ID]]
		}
	}
	visit(fn.Entry)

	// Fill phi sources now that every predecessor's exit version is known.
	for _, lbl := range dom.rpo {
		blk := fn.Blocks[lbl]
		for _, phi := range blk.Phis {
			var local int
			if phis, ok := phisAt[lbl]; ok {
				for id, ps := range phis {
					if ps.instr == phi {
						local = id
					}
				}
			}
			for _, pred := range blk.Predecessors {
				if ev, ok := exitVersion[pred]; ok {
					if v, ok := ev[local]; ok && v != nil {
						phi.Sources[pred] = v
					}
				}
			}
		}
	}
}

// localLiveness computes, for one local, which blocks it is live-in at —
// a raw use/def dataflow restricted to a single variable, used to decide
// whether an otherwise-valid phi placement is actually needed (semi-pruned
// SSA, spec §4.3 step 3).
func localLiveness(fn *ir.Function, rpo []ir.Label, localID int) map[ir.Label]bool {
	use := make(map[ir.Label]bool)
	def := make(map[ir.Label]bool)
	for _, lbl := range rpo {
		blk := fn.Blocks[lbl]
		defined := false
		for _, instr := range blk.Instrs {
			switch it := instr.(type) {
			case *ir.LoadLocalI:
				if it.Local.ID == localID && !defined {
					use[lbl] = true
				}
			case *ir.StoreLocalI:
				if it.Local.ID == localID {
					defined = true
				}
			}
		}
		def[lbl] = defined
	}

	liveIn := make(map[ir.Label]bool)
	liveOut := make(map[ir.Label]bool)
	changed := true
	for changed {
		changed = false
		for i := len(rpo) - 1; i >= 0; i-- {
			lbl := rpo[i]
			blk := fn.Blocks[lbl]
			out := false
			if blk.Term != nil {
				for _, s := range blk.Term.Targets() {
					if liveIn[s] {
						out = true
					}
				}
			}
			in := use[lbl] || (out && !def[lbl])
			if out != liveOut[lbl] || in != liveIn[lbl] {
				liveOut[lbl] = out
				liveIn[lbl] = in
				changed = true
			}
		}
	}
	return liveIn
}
