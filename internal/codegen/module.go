package codegen

import (
	"bugc/internal/analysis"
	"bugc/internal/diagnostics"
	"bugc/internal/ir"
)

// Result is the output of compiling a whole module: the two blobs an EVM
// chain actually wants (spec §6.2). Diagnostics go to the Bag passed to
// Generate, not into Result.
type Result struct {
	Runtime    []byte
	Deployment []byte
}

// builtPlans assigns every function in mod a funcPlan: a memory layout from
// liveness+memplan, and — for user functions only — the two reserved slots
// the internal calling convention stashes its return address and value in.
func builtPlans(mod *ir.Module) map[string]*funcPlan {
	plans := make(map[string]*funcPlan)

	build := func(name string, fn *ir.Function, trampoline bool) {
		if fn == nil {
			return
		}
		live := analysis.ComputeLiveness(fn)
		plan := analysis.PlanMemory(fn, live)
		fp := &funcPlan{plan: plan, trampoline: trampoline}
		if trampoline {
			fp.retAddrSlot = plan.FreePointer
			fp.retValSlot = plan.FreePointer + 32
			plan.FreePointer += 64
		}
		plans[name] = fp
	}

	build("main", mod.Main, false)
	build("create", mod.Create, false)
	for _, name := range mod.FuncOrder {
		build(name, mod.Funcs[name], true)
	}
	return plans
}

// Generate assembles a whole module into runtime and deployment bytecode
// (spec §4.7's "module assembly"). main and every user function are
// concatenated into one runtime blob; create (if present) becomes the body
// of the deployment blob, followed by the standard CODECOPY+RETURN
// epilogue that copies the runtime blob out of init code and returns it.
func Generate(mod *ir.Module, diags *diagnostics.Bag) Result {
	plans := builtPlans(mod)

	type piece struct {
		name string
		g    *gen
		code []byte
		base int
	}

	var runtime []byte
	var pieces []*piece

	place := func(name string, fn *ir.Function) *piece {
		if fn == nil {
			return nil
		}
		g, code := generateFunction(mod, fn, plans, diags)
		p := &piece{name: name, g: g, code: code, base: len(runtime)}
		runtime = append(runtime, code...)
		pieces = append(pieces, p)
		return p
	}

	place("main", mod.Main)
	for _, name := range mod.FuncOrder {
		place(name, mod.Funcs[name])
	}

	byName := make(map[string]*piece, len(pieces))
	for _, p := range pieces {
		byName[p.name] = p
	}

	resolve := func(p *piece) {
		for _, pt := range p.g.patches {
			target := p
			if pt.fn != "" {
				var ok bool
				target, ok = byName[pt.fn]
				if !ok {
					diags.Errorf(nil, diagnostics.CodeEVMMissingJumpTarget, "call target function %q was never generated", pt.fn)
					continue
				}
			}
			off, ok := target.g.blockOff[pt.target]
			if !ok {
				diags.Errorf(nil, diagnostics.CodeEVMMissingJumpTarget, "block %s has no recorded offset in %s", pt.target, target.name)
				continue
			}
			abs := target.base + off
			runtime[pt.pos] = byte(abs >> 8)
			runtime[pt.pos+1] = byte(abs)
		}
	}
	for _, p := range pieces {
		resolve(p)
	}

	deployment := buildDeployment(mod, plans, diags, runtime)

	return Result{Runtime: runtime, Deployment: deployment}
}

// buildDeployment lowers the constructor (if any) and appends the deployer
// epilogue: copy the runtime blob out of this init code's own tail and
// return it, the conventional EVM constructor pattern.
func buildDeployment(mod *ir.Module, plans map[string]*funcPlan, diags *diagnostics.Bag, runtime []byte) []byte {
	var createCode []byte
	if mod.Create != nil {
		cg, code := generateFunction(mod, mod.Create, plans, diags)
		for _, pt := range cg.patches {
			if pt.fn != "" {
				diags.Errorf(nil, diagnostics.CodeEVMMissingJumpTarget, "constructor code may not call into function %q", pt.fn)
				continue
			}
			off, ok := cg.blockOff[pt.target]
			if !ok {
				diags.Errorf(nil, diagnostics.CodeEVMMissingJumpTarget, "block %s has no recorded offset in create", pt.target)
				continue
			}
			code[pt.pos] = byte(off >> 8)
			code[pt.pos+1] = byte(off)
		}
		createCode = code
	}

	d := &gen{diags: diags}
	d.code = append(d.code, createCode...)

	// RETURN's own arguments (size, then offset 0) go on the stack first,
	// then CODECOPY(destOffset=0, offset=<runtime's position in this init
	// code>, size=len(runtime)) runs and leaves them for RETURN(0, size),
	// so the epilogue ends in CODECOPY, RETURN — the standard deployer
	// epilogue. Every immediate here is fixed-width so the epilogue's own
	// length is known before the one value that depends on it (the
	// runtime's offset) is computed.
	push2 := func(n int) { d.emit(Opcode(int(PUSH1) + 1)); d.emitImm(byte(n>>8), byte(n)) }
	push1 := func(n int) { d.emit(PUSH1); d.emitImm(byte(n)) }

	const epilogueLen = 3 + 2 + 3 + 3 + 2 + 1 + 1 // PUSH2 size, PUSH1 0, PUSH2 size, PUSH2 offset, PUSH1 0, CODECOPY, RETURN
	runtimeOffset := len(createCode) + epilogueLen

	push2(len(runtime))
	push1(0)
	push2(len(runtime))
	push2(runtimeOffset)
	push1(0)
	d.emit(CODECOPY)
	d.emit(RETURN)

	return append(d.code, runtime...)
}
