// Package check is the type checker (C3): three passes over a Program that
// validate every construct, publish a symbol table and a per-node type
// map, and report diagnostics without ever aborting early — a Failure
// type stands in for anything that fails to check so later expressions
// built on it don't cascade into a wall of follow-on errors.
package check

import (
	"bugc/internal/ast"
	"bugc/internal/diagnostics"
	"bugc/internal/symbols"
	"bugc/internal/types"
)

// Result is everything the checker publishes downstream (spec §4.1: "the
// checker publishes two outputs: a symbol table ... and a node->type map").
type Result struct {
	Symbols *symbols.Table
	Types   map[ast.NodeID]types.Type
	Diags   *diagnostics.Bag
}

type funcCtx struct {
	expectedReturn types.Type // nil => the enclosing body is void (create/code block)
	inLoop         bool
}

// Checker holds the mutable state threaded through the three passes.
type Checker struct {
	bag     *diagnostics.Bag
	nodeTy  map[ast.NodeID]types.Type
	table   *symbols.Table
	structs map[string]types.Struct
	funcs   map[string]types.Function

	// per-function unused-variable tracking, reset at each function/body.
	declared []*symbols.Symbol
	used     map[*symbols.Symbol]bool
}

// Check runs all three passes over prog and returns the published results.
func Check(prog *ast.Program) Result {
	c := &Checker{
		bag:     &diagnostics.Bag{},
		nodeTy:  make(map[ast.NodeID]types.Type),
		table:   symbols.NewTable(),
		structs: make(map[string]types.Struct),
		funcs:   make(map[string]types.Function),
	}
	c.passCollectDecls(prog)
	c.passStorage(prog)
	c.passBodies(prog)
	return Result{Symbols: c.table, Types: c.nodeTy, Diags: c.bag}
}

func (c *Checker) record(n ast.Node, t types.Type) types.Type {
	c.nodeTy[n.ID()] = t
	return t
}

func (c *Checker) fail(pos ast.Position, code, format string, args ...any) types.Type {
	c.bag.Errorf(&pos, code, format, args...)
	return types.Failure{Reason: format}
}

// ---- Pass 1: struct and function declarations ----

func (c *Checker) passCollectDecls(prog *ast.Program) {
	var structDecls []*ast.StructDecl
	for _, d := range prog.Decls {
		if sd, ok := d.(*ast.StructDecl); ok {
			if _, exists := c.structs[sd.Name]; exists {
				c.bag.Errorf(&sd.Position, diagnostics.CodeDuplicateDecl, "struct %q declared more than once", sd.Name)
				continue
			}
			c.structs[sd.Name] = types.Struct{Name: sd.Name}
			structDecls = append(structDecls, sd)
		}
	}
	// Resolve fields in a second pass so forward references between
	// structs (A has a field of type B, B declared after A) work.
	for _, sd := range structDecls {
		fields := make([]types.Field, 0, len(sd.Fields))
		seen := make(map[string]bool, len(sd.Fields))
		for _, f := range sd.Fields {
			if seen[f.Name] {
				c.bag.Errorf(&f.Position, diagnostics.CodeDuplicateDecl, "field %q declared more than once in struct %q", f.Name, sd.Name)
				continue
			}
			seen[f.Name] = true
			fields = append(fields, types.Field{Name: f.Name, Type: c.resolveType(f.Type)})
		}
		st := types.Struct{Name: sd.Name, Fields: fields}
		c.structs[sd.Name] = st
		c.table.Define(&symbols.Symbol{Name: sd.Name, Kind: symbols.KindStruct, Type: st, Pos: sd.Position})
	}

	for _, d := range prog.Decls {
		fd, ok := d.(*ast.FunctionDecl)
		if !ok {
			continue
		}
		if _, exists := c.funcs[fd.Name]; exists {
			c.bag.Errorf(&fd.Position, diagnostics.CodeDuplicateDecl, "function %q declared more than once", fd.Name)
			continue
		}
		params := make([]types.Type, 0, len(fd.Params))
		for _, p := range fd.Params {
			params = append(params, c.resolveType(p.Type))
		}
		var ret types.Type
		if fd.ReturnType != nil {
			ret = c.resolveType(fd.ReturnType)
		}
		fn := types.Function{Name: fd.Name, Params: params, ReturnType: ret}
		c.funcs[fd.Name] = fn
		c.table.Define(&symbols.Symbol{
			Name: fd.Name, Kind: symbols.KindFunction, Type: fn, Pos: fd.Position,
			Params: params, Return: ret,
		})
	}
}

// ---- Pass 2: storage declarations ----

func (c *Checker) passStorage(prog *ast.Program) {
	for _, d := range prog.Decls {
		sd, ok := d.(*ast.StorageDecl)
		if !ok {
			continue
		}
		if _, exists := c.table.LookupLocal(sd.Name); exists {
			c.bag.Errorf(&sd.Position, diagnostics.CodeDuplicateDecl, "%q declared more than once", sd.Name)
			continue
		}
		t := c.resolveType(sd.Type)
		c.table.Define(&symbols.Symbol{Name: sd.Name, Kind: symbols.KindStorage, Type: t, Pos: sd.Position, Slot: sd.Slot})
	}
}

// ---- Pass 3: bodies ----

func (c *Checker) passBodies(prog *ast.Program) {
	for _, d := range prog.Decls {
		fd, ok := d.(*ast.FunctionDecl)
		if !ok {
			continue
		}
		c.checkFunctionBody(fd)
	}
	if prog.Create != nil {
		c.checkTopLevelBlock(prog.Create)
	}
	c.checkTopLevelBlock(prog.Body)
}

func (c *Checker) checkFunctionBody(fd *ast.FunctionDecl) {
	scope := c.table.Push()
	c.declared = nil
	c.used = make(map[*symbols.Symbol]bool)
	for _, p := range fd.Params {
		sym := &symbols.Symbol{Name: p.Name, Kind: symbols.KindParameter, Type: c.resolveType(p.Type), Pos: p.Position}
		scope.Define(sym)
		c.declared = append(c.declared, sym)
	}
	var ret types.Type
	if fd.ReturnType != nil {
		ret = c.resolveType(fd.ReturnType)
	}
	c.checkBlock(fd.Body, scope, &funcCtx{expectedReturn: ret})
	c.reportUnused()
}

func (c *Checker) checkTopLevelBlock(b *ast.Block) {
	if b == nil {
		return
	}
	scope := c.table.Push()
	c.declared = nil
	c.used = make(map[*symbols.Symbol]bool)
	c.checkBlock(b, scope, &funcCtx{})
	c.reportUnused()
}

func (c *Checker) reportUnused() {
	for _, sym := range c.declared {
		if !c.used[sym] {
			c.bag.Warnf(&sym.Pos, diagnostics.CodeUnusedVariable, "%q is never used", sym.Name)
		}
	}
}

// resolveType turns surface syntax into a semantic Type, reporting
// TYPE_UNDEFINED_TYPE for a name that is neither elementary nor a known
// struct.
func (c *Checker) resolveType(te *ast.TypeExpr) types.Type {
	if te == nil {
		return types.Failure{Reason: "missing type"}
	}
	switch {
	case te.IsMapping():
		return types.Mapping{Key: c.resolveType(te.Key), Value: c.resolveType(te.Value)}
	case te.IsArray():
		return types.Array{Elem: c.resolveType(te.Elem), Size: te.Size}
	default:
		if t, ok := types.ParseElementaryType(te.Name); ok {
			return t
		}
		if st, ok := c.structs[te.Name]; ok {
			return st
		}
		c.bag.Errorf(&te.Position, diagnostics.CodeUndefinedType, "undefined type %q", te.Name)
		return types.Failure{Reason: "undefined type " + te.Name}
	}
}
