package ir

import (
	"golang.org/x/crypto/sha3"

	"github.com/holiman/uint256"

	"bugc/internal/ast"
	"bugc/internal/diagnostics"
	"bugc/internal/symbols"
	"bugc/internal/types"
)

// scope is the builder's name->Local environment, a simple parent-linked
// chain mirroring the checker's symbols.Table but resolving straight to IR
// locals instead of semantic symbols.
type scope struct {
	parent *scope
	vars   map[string]Local
}

func newScope(parent *scope) *scope { return &scope{parent: parent, vars: make(map[string]Local)} }

func (s *scope) define(name string, l Local) { s.vars[name] = l }

func (s *scope) lookup(name string) (Local, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if l, ok := cur.vars[name]; ok {
			return l, true
		}
	}
	return Local{}, false
}

type loopFrame struct{ exit Label }

// Builder is the C5 generator's mutable state (spec §4.2): current
// function/block, the scope stack, the fresh-id counters embedded in
// Function, and the growing Module.
type Builder struct {
	mod       *Module
	fn        *Function
	cur       *Block
	scope     *scope
	symTable  *symbols.Table
	nodeTypes map[ast.NodeID]types.Type
	bag       *diagnostics.Bag
	loops     []loopFrame
}

// Build lowers a checked Program into an IR Module.
func Build(prog *ast.Program, symTable *symbols.Table, nodeTypes map[ast.NodeID]types.Type) (*Module, *diagnostics.Bag) {
	b := &Builder{
		bag:       &diagnostics.Bag{},
		symTable:  symTable,
		nodeTypes: nodeTypes,
	}
	mod := &Module{Name: prog.Name, Funcs: make(map[string]*Function)}
	b.mod = mod

	for _, d := range prog.Decls {
		if sd, ok := d.(*ast.StorageDecl); ok {
			sym, _ := symTable.LookupLocal(sd.Name)
			ty := types.Type(types.Failure{Reason: "unresolved storage type"})
			if sym != nil {
				ty = sym.Type
			}
			mod.Storage = append(mod.Storage, StorageSlot{Name: sd.Name, Slot: sd.Slot, Ty: ty})
		}
	}
	for _, d := range prog.Decls {
		if fd, ok := d.(*ast.FunctionDecl); ok {
			fn := b.buildFunction(fd)
			mod.Funcs[fd.Name] = fn
			mod.FuncOrder = append(mod.FuncOrder, fd.Name)
		}
	}
	if prog.Create != nil {
		mod.Create = b.buildTopLevel("create", prog.Create)
	}
	mod.Main = b.buildTopLevel("main", prog.Body)
	return mod, b.bag
}

func (b *Builder) typeOf(n ast.Node) types.Type {
	if t, ok := b.nodeTypes[n.ID()]; ok {
		return t
	}
	return types.Failure{Reason: "untyped node"}
}

func (b *Builder) freshLocal(name string, ty types.Type) Local {
	id := len(b.fn.Locals) + 1
	l := Local{ID: id, Name: name, Ty: ty}
	b.fn.Locals = append(b.fn.Locals, l)
	return l
}

func (b *Builder) emit(i Instr) { b.cur.Instrs = append(b.cur.Instrs, i) }

func (b *Builder) dummyValue(ty types.Type) Value {
	return Const{Ty: ty, Number: uint256.NewInt(0)}
}

// ---- top-level / function building ----

func (b *Builder) buildFunction(fd *ast.FunctionDecl) *Function {
	fn := NewFunction(fd.Name)
	b.fn = fn
	b.scope = newScope(nil)
	b.loops = nil

	entry := fn.NewBlock("entry")
	fn.Entry = entry.Label
	b.cur = entry

	sym, _ := b.symTable.LookupLocal(fd.Name)
	for i, p := range fd.Params {
		pty := types.Type(types.Failure{Reason: "unresolved parameter type"})
		if sym != nil && i < len(sym.Params) {
			pty = sym.Params[i]
		}
		l := b.freshLocal(p.Name, pty)
		fn.Params = append(fn.Params, l)
		b.scope.define(p.Name, l)
	}

	b.lowerBlockStmts(fd.Body)
	if b.cur.Term == nil {
		b.cur.Term = Return{}
	}
	return fn
}

func (b *Builder) buildTopLevel(name string, blk *ast.Block) *Function {
	fn := NewFunction(name)
	b.fn = fn
	b.scope = newScope(nil)
	b.loops = nil

	entry := fn.NewBlock("entry")
	fn.Entry = entry.Label
	b.cur = entry

	b.lowerBlockStmts(blk)
	if b.cur.Term == nil {
		b.cur.Term = Return{}
	}
	return fn
}

func (b *Builder) pushScope() { b.scope = newScope(b.scope) }
func (b *Builder) popScope()  { b.scope = b.scope.parent }

func (b *Builder) lowerBlockStmts(blk *ast.Block) {
	if blk == nil {
		return
	}
	b.pushScope()
	for _, s := range blk.Stmts {
		b.lowerStmt(s)
	}
	b.popScope()
}

// ---- statements ----

func (b *Builder) lowerStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.LetStmt:
		b.lowerLet(s)
	case *ast.AssignStmt:
		val := b.lowerExpr(s.Value)
		b.lowerAssign(s.Target, val)
	case *ast.IfStmt:
		b.lowerIf(s)
	case *ast.ForStmt:
		b.lowerFor(s)
	case *ast.ReturnStmt:
		b.lowerReturn(s)
	case *ast.BreakStmt:
		b.lowerBreak()
	case *ast.ExprStmt:
		b.lowerExpr(s.Expr)
	}
}

func (b *Builder) lowerLet(s *ast.LetStmt) {
	val := b.lowerExpr(s.Init)
	l := b.freshLocal(s.Name, val.Type())
	b.scope.define(s.Name, l)
	b.emit(&StoreLocalI{Local: l, Value: val})
}

func (b *Builder) lowerAssign(target ast.Expr, value Value) {
	switch t := target.(type) {
	case *ast.IdentExpr:
		if l, ok := b.scope.lookup(t.Name); ok {
			b.emit(&StoreLocalI{Local: l, Value: value})
			return
		}
		if sym, ok := b.symTable.LookupLocal(t.Name); ok && sym.Kind == symbols.KindStorage {
			slot := Const{Ty: types.Uint{Bits: 256}, Number: uint256.NewInt(uint64(sym.Slot))}
			b.emit(&StoreStorageI{Slot: slot, Value: value})
			return
		}
		b.bag.Errorf(&t.Position, diagnostics.CodeIRUnknownIdentifier, "unknown identifier %q", t.Name)
	case *ast.MemberExpr, *ast.IndexExpr:
		base, steps := b.unwind(t)
		if base == nil {
			pos := target.Pos()
			b.bag.Errorf(&pos, diagnostics.CodeIRUnsupportedStorage, "unsupported assignment target")
			return
		}
		if sym, ok := b.symTable.LookupLocal(base.Name); ok && sym.Kind == symbols.KindStorage {
			slot, _, lenInfo := b.walkStorageChain(sym, steps)
			if lenInfo != nil {
				b.bag.Errorf(&base.Position, diagnostics.CodeIRUnsupportedStorage, "cannot assign to .length")
				return
			}
			b.emit(&StoreStorageI{Slot: slot, Value: value})
			return
		}
		if l, ok := b.scope.lookup(base.Name); ok {
			b.lowerLocalAssign(l, steps, value, target)
			return
		}
		b.bag.Errorf(&base.Position, diagnostics.CodeIRUnknownIdentifier, "unknown identifier %q", base.Name)
	default:
		pos := target.Pos()
		b.bag.Errorf(&pos, diagnostics.CodeIRUnsupportedStorage, "unsupported assignment target")
	}
}

func (b *Builder) lowerIf(s *ast.IfStmt) {
	cond := b.lowerExpr(s.Cond)
	thenBlk := b.fn.NewBlock("if_then")
	contBlk := b.fn.NewBlock("if_cont")

	entry := b.cur
	entry.Term = Branch{Cond: cond, TrueDst: thenBlk.Label, FalseDst: contBlk.Label}
	thenBlk.Predecessors = append(thenBlk.Predecessors, entry.Label)
	contBlk.Predecessors = append(contBlk.Predecessors, entry.Label)

	b.cur = thenBlk
	b.lowerBlockStmts(s.Then)
	if b.cur.Term == nil {
		b.cur.Term = Jump{Target: contBlk.Label}
		contBlk.Predecessors = append(contBlk.Predecessors, b.cur.Label)
	}

	b.cur = contBlk
	if s.Else != nil {
		b.lowerBlockStmts(s.Else)
	}
}

func (b *Builder) lowerFor(s *ast.ForStmt) {
	b.pushScope()
	if s.Init != nil {
		b.lowerLet(s.Init)
	}

	header := b.fn.NewBlock("for_header")
	body := b.fn.NewBlock("for_body")
	latch := b.fn.NewBlock("for_latch")
	exit := b.fn.NewBlock("for_exit")

	entry := b.cur
	entry.Term = Jump{Target: header.Label}
	header.Predecessors = append(header.Predecessors, entry.Label)

	b.cur = header
	cond := Value(Const{Ty: types.Bool{}, Number: uint256.NewInt(1)})
	if s.Cond != nil {
		cond = b.lowerExpr(s.Cond)
	}
	header.Term = Branch{Cond: cond, TrueDst: body.Label, FalseDst: exit.Label}
	body.Predecessors = append(body.Predecessors, header.Label)
	exit.Predecessors = append(exit.Predecessors, header.Label)

	b.loops = append(b.loops, loopFrame{exit: exit.Label})
	b.cur = body
	b.lowerBlockStmts(s.Body)
	if b.cur.Term == nil {
		b.cur.Term = Jump{Target: latch.Label}
		latch.Predecessors = append(latch.Predecessors, b.cur.Label)
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.cur = latch
	if s.Update != nil {
		b.lowerStmt(s.Update)
	}
	latch.Term = Jump{Target: header.Label}
	header.Predecessors = append(header.Predecessors, latch.Label)

	b.cur = exit
	b.popScope()
}

func (b *Builder) lowerReturn(s *ast.ReturnStmt) {
	var val Value
	if s.Value != nil {
		val = b.lowerExpr(s.Value)
	}
	b.cur.Term = Return{Value: val}
	b.cur = b.fn.NewBlock("dead")
}

func (b *Builder) lowerBreak() {
	if len(b.loops) == 0 {
		return
	}
	exit := b.loops[len(b.loops)-1].exit
	b.cur.Term = Jump{Target: exit}
	if blk, ok := b.fn.Blocks[exit]; ok {
		blk.Predecessors = append(blk.Predecessors, b.cur.Label)
	}
	b.cur = b.fn.NewBlock("dead")
}

// ---- expressions ----

func binOpFor(op ast.BinaryOp) BinOp {
	switch op {
	case ast.BinAdd:
		return OpAdd
	case ast.BinSub:
		return OpSub
	case ast.BinMul:
		return OpMul
	case ast.BinDiv:
		return OpDiv
	case ast.BinMod:
		return OpMod
	case ast.BinEq:
		return OpEq
	case ast.BinNe:
		return OpNe
	case ast.BinLt:
		return OpLt
	case ast.BinLe:
		return OpLe
	case ast.BinGt:
		return OpGt
	case ast.BinGe:
		return OpGe
	case ast.BinAnd:
		return OpAnd
	default:
		return OpOr
	}
}

func (b *Builder) lowerExpr(e ast.Expr) Value {
	switch e := e.(type) {
	case *ast.IdentExpr:
		return b.lowerIdent(e)
	case *ast.LiteralExpr:
		return b.lowerLiteral(e)
	case *ast.UnaryExpr:
		operand := b.lowerExpr(e.Operand)
		dest := b.fn.NewTemp(b.typeOf(e))
		op := OpNot
		if e.Op == ast.UnaryNeg {
			op = OpNeg
		}
		b.emit(&UnaryI{Dest: dest, Op: op, Operand: operand})
		return dest
	case *ast.BinaryExpr:
		l := b.lowerExpr(e.Left)
		r := b.lowerExpr(e.Right)
		dest := b.fn.NewTemp(b.typeOf(e))
		b.emit(&BinaryI{Dest: dest, Op: binOpFor(e.Op), Left: l, Right: r})
		return dest
	case *ast.MemberExpr:
		return b.lowerAccess(e)
	case *ast.IndexExpr:
		return b.lowerAccess(e)
	case *ast.SliceExpr:
		return b.lowerSlice(e)
	case *ast.CallExpr:
		return b.lowerCall(e)
	case *ast.CastExpr:
		operand := b.lowerExpr(e.Operand)
		to := b.typeOf(e)
		dest := b.fn.NewTemp(to)
		b.emit(&CastI{Dest: dest, To: to, Operand: operand})
		return dest
	case *ast.SpecialExpr:
		return b.lowerSpecial(e)
	default:
		return b.dummyValue(types.Failure{Reason: "unsupported expression"})
	}
}

// isComposite reports whether ty spans more than one storage/memory word, so
// no single load/store instruction can represent its whole value (spec
// §3.3/§6.5: a struct spans its field count, an array/mapping's elements
// live elsewhere via keccak256).
func isComposite(ty types.Type) bool {
	switch ty.(type) {
	case types.Struct, types.Array, types.Mapping:
		return true
	default:
		return false
	}
}

func (b *Builder) lowerIdent(e *ast.IdentExpr) Value {
	if l, ok := b.scope.lookup(e.Name); ok {
		if isComposite(l.Ty) {
			b.bag.Errorf(&e.Position, diagnostics.CodeIRUnsupportedStorage, "%q is a %s; access its fields or elements instead of its whole value", e.Name, l.Ty)
			return b.dummyValue(l.Ty)
		}
		dest := b.fn.NewTemp(l.Ty)
		b.emit(&LoadLocalI{Dest: dest, Local: l})
		return dest
	}
	if sym, ok := b.symTable.LookupLocal(e.Name); ok && sym.Kind == symbols.KindStorage {
		if isComposite(sym.Type) {
			b.bag.Errorf(&e.Position, diagnostics.CodeIRUnsupportedStorage, "%q is a %s; no single slot holds its whole value — access its fields, elements, or keys instead", e.Name, sym.Type)
			return b.dummyValue(sym.Type)
		}
		slot := Const{Ty: types.Uint{Bits: 256}, Number: uint256.NewInt(uint64(sym.Slot))}
		dest := b.fn.NewTemp(sym.Type)
		b.emit(&LoadStorageI{Dest: dest, Slot: slot, Ty: sym.Type})
		return dest
	}
	b.bag.Errorf(&e.Position, diagnostics.CodeIRUnknownIdentifier, "unknown identifier %q", e.Name)
	return b.dummyValue(types.Failure{Reason: "unknown identifier"})
}

func hexDigitsToBytes(digits string) []byte {
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		hi := hexNibble(digits[2*i])
		lo := hexNibble(digits[2*i+1])
		out[i] = hi<<4 | lo
	}
	return out
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

func (b *Builder) lowerLiteral(lit *ast.LiteralExpr) Value {
	ty := b.typeOf(lit)
	switch lit.Kind {
	case ast.LitNumber:
		n, _, _ := types.ParseUintLiteral(lit.Raw, 256)
		if n == nil {
			n = uint256.NewInt(0)
		}
		return Const{Ty: ty, Number: n}
	case ast.LitBool:
		n := uint256.NewInt(0)
		if lit.Raw == "true" {
			n = uint256.NewInt(1)
		}
		return Const{Ty: ty, Number: n}
	case ast.LitString:
		return Const{Ty: ty, Bytes: []byte(lit.Raw)}
	case ast.LitHex, ast.LitAddress:
		if lit.Kind == ast.LitAddress || len(lit.Raw) <= 64 {
			if n, err := types.ParseHexLiteral(lit.Raw); err == nil {
				return Const{Ty: ty, Number: n}
			}
		}
		return Const{Ty: ty, Bytes: hexDigitsToBytes(lit.Raw)}
	default:
		return b.dummyValue(ty)
	}
}

func (b *Builder) lowerSpecial(e *ast.SpecialExpr) Value {
	var op EnvOp
	switch e.Kind {
	case ast.SpecialMsgSender:
		op = EnvMsgSender
	case ast.SpecialMsgValue:
		op = EnvMsgValue
	case ast.SpecialMsgData:
		op = EnvMsgData
	case ast.SpecialBlockTimestamp:
		op = EnvBlockTimestamp
	case ast.SpecialBlockNumber:
		op = EnvBlockNumber
	}
	dest := b.fn.NewTemp(b.typeOf(e))
	b.emit(&EnvI{Dest: dest, Op: op})
	return dest
}

func constBytesFor(c Const) []byte {
	if c.Bytes != nil {
		return c.Bytes
	}
	if c.Number != nil {
		buf := c.Number.Bytes32()
		return buf[:]
	}
	return nil
}

func (b *Builder) lowerCall(e *ast.CallExpr) Value {
	if e.Callee == "keccak256" {
		arg := b.lowerExpr(e.Args[0])
		if c, ok := arg.(Const); ok {
			h := sha3.NewLegacyKeccak256()
			h.Write(constBytesFor(c))
			sum := h.Sum(nil)
			return Const{Ty: types.BytesN{N: 32}, Bytes: sum}
		}
		dest := b.fn.NewTemp(types.BytesN{N: 32})
		b.emit(&HashI{Dest: dest, Operand: arg})
		return dest
	}

	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		args[i] = b.lowerExpr(a)
	}
	sym, _ := b.symTable.LookupLocal(e.Callee)
	void := sym == nil || sym.Return == nil
	dest := b.fn.NewTemp(b.typeOf(e))
	b.emit(&CallI{Dest: dest, Void: void, Callee: e.Callee, Args: args})

	// A call transfers control to the callee and back (codegen §4.7/DESIGN.md
	// "internal calls resolved analogously to block patches"); ending the
	// block here lets the callee's dynamic return jump land on a real,
	// addressable continuation.
	cont := b.fn.NewBlock("call_cont")
	b.cur.Term = Jump{Target: cont.Label}
	cont.Predecessors = append(cont.Predecessors, b.cur.Label)
	b.cur = cont
	return dest
}

func (b *Builder) lowerSlice(e *ast.SliceExpr) Value {
	recv := b.lowerRecvValue(e.Recv)
	var lo, hi Value
	if e.Low != nil {
		lo = b.lowerExpr(e.Low)
	}
	if e.High != nil {
		hi = b.lowerExpr(e.High)
	}
	dest := b.fn.NewTemp(types.Bytes{})
	b.emit(&SliceI{Dest: dest, Operand: recv, Low: lo, High: hi})
	return dest
}

func (b *Builder) lowerRecvValue(e ast.Expr) Value {
	switch e.(type) {
	case *ast.MemberExpr, *ast.IndexExpr:
		return b.lowerAccess(e)
	default:
		return b.lowerExpr(e)
	}
}

// ---- storage / local access chains ----

type step struct {
	isIndex bool
	name    string
	index   ast.Expr
}

// unwind walks a Member/Index chain back to its root identifier, in
// base-to-outermost order (spec §4.2: "walking the full access chain
// right-to-left").
func (b *Builder) unwind(e ast.Expr) (*ast.IdentExpr, []step) {
	switch e := e.(type) {
	case *ast.IdentExpr:
		return e, nil
	case *ast.MemberExpr:
		base, steps := b.unwind(e.Recv)
		return base, append(steps, step{name: e.Name})
	case *ast.IndexExpr:
		base, steps := b.unwind(e.Recv)
		return base, append(steps, step{isIndex: true, index: e.Index})
	default:
		return nil, nil
	}
}

type lengthInfo struct {
	slot Value
	ty   types.Type
}

// walkStorageChain emits compute_slot/compute_array_slot/compute_field_offset
// for a storage-rooted access chain, returning the final slot and type, or a
// non-nil lengthInfo if the chain terminates in `.length`.
func (b *Builder) walkStorageChain(sym *symbols.Symbol, steps []step) (Value, types.Type, *lengthInfo) {
	slot := Value(Const{Ty: types.Uint{Bits: 256}, Number: uint256.NewInt(uint64(sym.Slot))})
	ty := sym.Type
	for i, st := range steps {
		last := i == len(steps)-1
		if !st.isIndex && st.name == "length" && last {
			return slot, ty, &lengthInfo{slot: slot, ty: ty}
		}
		switch cur := ty.(type) {
		case types.Struct:
			if st.isIndex {
				b.bag.Errorf(nil, diagnostics.CodeIRUnsupportedStorage, "cannot index a struct")
				return slot, types.Failure{Reason: "bad chain"}, nil
			}
			idx := cur.FieldIndex(st.name)
			if idx < 0 {
				b.bag.Errorf(nil, diagnostics.CodeUndefinedField, "%s has no field %q", cur, st.name)
				return slot, types.Failure{Reason: "bad field"}, nil
			}
			dest := b.fn.NewTemp(types.Uint{Bits: 256})
			b.emit(&ComputeFieldOffsetI{Dest: dest, Base: slot, FieldIndex: idx})
			slot = dest
			ty = cur.Fields[idx].Type
		case types.Array:
			if !st.isIndex {
				b.bag.Errorf(nil, diagnostics.CodeIRUnsupportedStorage, "cannot access field %q of an array", st.name)
				return slot, types.Failure{Reason: "bad chain"}, nil
			}
			idxVal := b.lowerExpr(st.index)
			if cur.Size != nil {
				slot = b.addSlot(slot, idxVal)
			} else {
				arrBase := b.fn.NewTemp(types.Uint{Bits: 256})
				b.emit(&ComputeArraySlotI{Dest: arrBase, Base: slot})
				slot = b.addSlot(arrBase, idxVal)
			}
			ty = cur.Elem
		case types.Mapping:
			if !st.isIndex {
				b.bag.Errorf(nil, diagnostics.CodeIRUnsupportedStorage, "cannot access field %q of a mapping", st.name)
				return slot, types.Failure{Reason: "bad chain"}, nil
			}
			keyVal := b.lowerExpr(st.index)
			dest := b.fn.NewTemp(types.Uint{Bits: 256})
			b.emit(&ComputeSlotI{Dest: dest, Base: slot, Key: keyVal, KeyType: cur.Key})
			slot = dest
			ty = cur.Value
		default:
			b.bag.Errorf(nil, diagnostics.CodeIRUnsupportedStorage, "cannot access into %s", ty)
			return slot, types.Failure{Reason: "bad chain"}, nil
		}
	}
	return slot, ty, nil
}

// addSlot folds constant + constant additions at build time (array index
// arithmetic on a fixed-size array, scenario §8.3) and falls back to a real
// binary instruction otherwise.
func (b *Builder) addSlot(base, idx Value) Value {
	if bc, ok := base.(Const); ok && bc.Number != nil {
		if ic, ok := idx.(Const); ok && ic.Number != nil {
			sum := new(uint256.Int).Add(bc.Number, ic.Number)
			return Const{Ty: types.Uint{Bits: 256}, Number: sum}
		}
	}
	dest := b.fn.NewTemp(types.Uint{Bits: 256})
	b.emit(&BinaryI{Dest: dest, Op: OpAdd, Left: base, Right: idx})
	return dest
}

// lowerLocalAccess handles a single member/index step rooted at a local
// (spec §4.2: "when the base is a local, in-memory load_index/load_field is
// emitted"). A local can only be composite-typed by being a function
// parameter — nothing in this builder ever binds a `let` to a whole
// composite value (lowerIdent rejects that) — so a chain deeper than one
// step can never legitimately arise.
func (b *Builder) lowerLocalAccess(l Local, steps []step, e ast.Expr) Value {
	if len(steps) != 1 {
		pos := e.Pos()
		b.bag.Errorf(&pos, diagnostics.CodeIRUnsupportedStorage, "nested field/index access through a local value is not supported")
		return b.dummyValue(b.typeOf(e))
	}
	st := steps[0]
	switch cur := l.Ty.(type) {
	case types.Struct:
		if st.isIndex {
			pos := e.Pos()
			b.bag.Errorf(&pos, diagnostics.CodeIRUnsupportedStorage, "cannot index a local struct value")
			return b.dummyValue(b.typeOf(e))
		}
		idx := cur.FieldIndex(st.name)
		if idx < 0 {
			pos := e.Pos()
			b.bag.Errorf(&pos, diagnostics.CodeUndefinedField, "%s has no field %q", cur, st.name)
			return b.dummyValue(b.typeOf(e))
		}
		dest := b.fn.NewTemp(cur.Fields[idx].Type)
		b.emit(&LoadFieldI{Dest: dest, Base: l, FieldIndex: idx, Ty: cur.Fields[idx].Type})
		return dest
	case types.Array:
		if !st.isIndex {
			pos := e.Pos()
			b.bag.Errorf(&pos, diagnostics.CodeIRUnsupportedStorage, "cannot access field %q of a local array value", st.name)
			return b.dummyValue(b.typeOf(e))
		}
		if cur.Size == nil {
			pos := e.Pos()
			b.bag.Errorf(&pos, diagnostics.CodeIRUnsupportedStorage, "dynamic-size local arrays are not supported")
			return b.dummyValue(b.typeOf(e))
		}
		idxVal := b.lowerExpr(st.index)
		dest := b.fn.NewTemp(cur.Elem)
		b.emit(&LoadIndexI{Dest: dest, Base: l, Index: idxVal, Ty: cur.Elem})
		return dest
	default:
		pos := e.Pos()
		b.bag.Errorf(&pos, diagnostics.CodeIRUnsupportedStorage, "field/index access through a local value is not supported")
		return b.dummyValue(b.typeOf(e))
	}
}

// lowerLocalAssign is lowerLocalAccess's write-side counterpart (spec §4.2:
// "for struct/array targets in memory, emit store_field/store_index").
func (b *Builder) lowerLocalAssign(l Local, steps []step, value Value, target ast.Expr) {
	if len(steps) != 1 {
		pos := target.Pos()
		b.bag.Errorf(&pos, diagnostics.CodeIRUnsupportedStorage, "nested field/index assignment through a local value is not supported")
		return
	}
	st := steps[0]
	switch cur := l.Ty.(type) {
	case types.Struct:
		if st.isIndex {
			pos := target.Pos()
			b.bag.Errorf(&pos, diagnostics.CodeIRUnsupportedStorage, "cannot index a local struct value")
			return
		}
		idx := cur.FieldIndex(st.name)
		if idx < 0 {
			pos := target.Pos()
			b.bag.Errorf(&pos, diagnostics.CodeUndefinedField, "%s has no field %q", cur, st.name)
			return
		}
		b.emit(&StoreFieldI{Base: l, FieldIndex: idx, Value: value})
	case types.Array:
		if !st.isIndex {
			pos := target.Pos()
			b.bag.Errorf(&pos, diagnostics.CodeIRUnsupportedStorage, "cannot access field %q of a local array value", st.name)
			return
		}
		if cur.Size == nil {
			pos := target.Pos()
			b.bag.Errorf(&pos, diagnostics.CodeIRUnsupportedStorage, "dynamic-size local arrays are not supported")
			return
		}
		idxVal := b.lowerExpr(st.index)
		b.emit(&StoreIndexI{Base: l, Index: idxVal, Value: value})
	default:
		pos := target.Pos()
		b.bag.Errorf(&pos, diagnostics.CodeIRUnsupportedStorage, "cannot write through a local value")
	}
}

// lowerAccess handles a MemberExpr or IndexExpr read. A storage-rooted
// chain walks compute_slot/compute_array_slot/compute_field_offset down to
// one load_storage (spec §4.2); a local-rooted chain emits one in-memory
// load_field/load_index instead (lowerLocalAccess).
func (b *Builder) lowerAccess(e ast.Expr) Value {
	if me, ok := e.(*ast.MemberExpr); ok {
		if sp, ok := me.Recv.(*ast.SpecialExpr); ok && sp.Kind == ast.SpecialMsgData && me.Name == "length" {
			dest := b.fn.NewTemp(types.Uint{Bits: 256})
			b.emit(&LengthI{Dest: dest, Ty: types.Bytes{}, IsCalldata: true})
			return dest
		}
	}
	base, steps := b.unwind(e)
	if base == nil {
		pos := e.Pos()
		b.bag.Errorf(&pos, diagnostics.CodeIRUnsupportedStorage, "unsupported access expression")
		return b.dummyValue(b.typeOf(e))
	}
	if sym, ok := b.symTable.LookupLocal(base.Name); ok && sym.Kind == symbols.KindStorage {
		slot, ty, lenInfo := b.walkStorageChain(sym, steps)
		if lenInfo != nil {
			dest := b.fn.NewTemp(types.Uint{Bits: 256})
			arr, isArr := lenInfo.ty.(types.Array)
			fixed := isArr && arr.Size != nil
			b.emit(&LengthI{Dest: dest, Operand: lenInfo.slot, Ty: lenInfo.ty, IsStorageSlot: !fixed})
			return dest
		}
		dest := b.fn.NewTemp(ty)
		b.emit(&LoadStorageI{Dest: dest, Slot: slot, Ty: ty})
		return dest
	}
	if l, ok := b.scope.lookup(base.Name); ok {
		return b.lowerLocalAccess(l, steps, e)
	}
	b.bag.Errorf(&base.Position, diagnostics.CodeIRUnknownIdentifier, "unknown identifier %q", base.Name)
	return b.dummyValue(b.typeOf(e))
}
