package check

import (
	"bugc/internal/ast"
	"bugc/internal/diagnostics"
	"bugc/internal/symbols"
	"bugc/internal/types"
)

// checkExpr type-checks e in scope, recording its type in the node->type
// map and returning it. Every case that fails emits a diagnostic and
// returns Failure (spec §4.1) rather than aborting.
func (c *Checker) checkExpr(e ast.Expr, scope *symbols.Table) types.Type {
	switch e := e.(type) {
	case *ast.IdentExpr:
		return c.checkIdent(e, scope)
	case *ast.LiteralExpr:
		return c.checkLiteral(e)
	case *ast.UnaryExpr:
		return c.checkUnary(e, scope)
	case *ast.BinaryExpr:
		return c.checkBinary(e, scope)
	case *ast.MemberExpr:
		return c.checkMember(e, scope)
	case *ast.IndexExpr:
		return c.checkIndex(e, scope)
	case *ast.SliceExpr:
		return c.checkSlice(e, scope)
	case *ast.CallExpr:
		return c.checkCall(e, scope)
	case *ast.CastExpr:
		return c.checkCast(e, scope)
	case *ast.SpecialExpr:
		return c.checkSpecial(e)
	default:
		return c.fail(e.Pos(), diagnostics.CodeTypeMismatch, "unsupported expression")
	}
}

func (c *Checker) checkIdent(e *ast.IdentExpr, scope *symbols.Table) types.Type {
	sym, ok := scope.Lookup(e.Name)
	if !ok {
		return c.record(e, c.fail(e.Position, diagnostics.CodeUndefinedVariable, "undefined variable %q", e.Name))
	}
	if sym.Kind == symbols.KindLocal || sym.Kind == symbols.KindParameter {
		c.used[sym] = true
	}
	return c.record(e, sym.Type)
}

func (c *Checker) checkLiteral(e *ast.LiteralExpr) types.Type {
	switch e.Kind {
	case ast.LitNumber:
		if _, fits, err := types.ParseUintLiteral(e.Raw, 256); err != nil || !fits {
			return c.record(e, c.fail(e.Position, diagnostics.CodeTypeMismatch, "invalid numeric literal %q", e.Raw))
		}
		return c.record(e, types.Uint{Bits: 256})
	case ast.LitBool:
		return c.record(e, types.Bool{})
	case ast.LitString:
		return c.record(e, types.String{})
	case ast.LitHex:
		nibbles := len(e.Raw)
		n := (nibbles + 1) / 2
		if n <= 32 {
			return c.record(e, types.BytesN{N: n})
		}
		return c.record(e, types.Bytes{})
	case ast.LitAddress:
		return c.record(e, types.Address{})
	default:
		return c.record(e, c.fail(e.Position, diagnostics.CodeTypeMismatch, "unknown literal kind"))
	}
}

func (c *Checker) checkUnary(e *ast.UnaryExpr, scope *symbols.Table) types.Type {
	operand := c.checkExpr(e.Operand, scope)
	switch e.Op {
	case ast.UnaryNot:
		if !types.IsFailure(operand) {
			if _, ok := operand.(types.Bool); !ok {
				return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidOperands, "operator ! requires bool, got %s", operand))
			}
		}
		return c.record(e, types.Bool{})
	case ast.UnaryNeg:
		if !types.IsFailure(operand) && !types.IsNumeric(operand) {
			return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidOperands, "unary - requires a numeric operand, got %s", operand))
		}
		return c.record(e, operand)
	default:
		return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidOperands, "unknown unary operator"))
	}
}

func (c *Checker) checkBinary(e *ast.BinaryExpr, scope *symbols.Table) types.Type {
	l := c.checkExpr(e.Left, scope)
	r := c.checkExpr(e.Right, scope)
	switch e.Op {
	case ast.BinAdd, ast.BinSub, ast.BinMul, ast.BinDiv, ast.BinMod:
		common, ok := types.CommonType(l, r)
		if !ok {
			return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidOperands, "arithmetic requires matching-signedness numeric operands, got %s and %s", l, r))
		}
		return c.record(e, common)
	case ast.BinLt, ast.BinLe, ast.BinGt, ast.BinGe:
		if !types.IsFailure(l) && !types.IsFailure(r) && (!types.IsNumeric(l) || !types.IsNumeric(r)) {
			return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidOperands, "relational operator requires numeric operands, got %s and %s", l, r))
		}
		return c.record(e, types.Bool{})
	case ast.BinEq, ast.BinNe:
		if !types.Compatible(l, r) && !types.Compatible(r, l) {
			return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidOperands, "%s and %s are not comparable", l, r))
		}
		return c.record(e, types.Bool{})
	case ast.BinAnd, ast.BinOr:
		_, lok := l.(types.Bool)
		_, rok := r.(types.Bool)
		if !types.IsFailure(l) && !lok || !types.IsFailure(r) && !rok {
			return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidOperands, "logical operator requires bool operands, got %s and %s", l, r))
		}
		return c.record(e, types.Bool{})
	default:
		return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidOperands, "unknown binary operator"))
	}
}

func (c *Checker) checkMember(e *ast.MemberExpr, scope *symbols.Table) types.Type {
	recv := c.checkExpr(e.Recv, scope)
	if types.IsFailure(recv) {
		return c.record(e, recv)
	}
	if e.Name == "length" {
		switch recv.(type) {
		case types.Array, types.Bytes, types.String:
			return c.record(e, types.Uint{Bits: 256})
		default:
			return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidOperands, ".length is not valid on %s", recv))
		}
	}
	st, ok := recv.(types.Struct)
	if !ok {
		return c.record(e, c.fail(e.Position, diagnostics.CodeUndefinedField, "%s has no field %q", recv, e.Name))
	}
	idx := st.FieldIndex(e.Name)
	if idx < 0 {
		return c.record(e, c.fail(e.Position, diagnostics.CodeUndefinedField, "%s has no field %q", recv, e.Name))
	}
	return c.record(e, st.Fields[idx].Type)
}

func (c *Checker) checkIndex(e *ast.IndexExpr, scope *symbols.Table) types.Type {
	recv := c.checkExpr(e.Recv, scope)
	idx := c.checkExpr(e.Index, scope)
	if types.IsFailure(recv) {
		return c.record(e, recv)
	}
	switch recv := recv.(type) {
	case types.Array:
		if !types.IsFailure(idx) && !types.IsNumeric(idx) {
			return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidIndex, "array index must be numeric, got %s", idx))
		}
		return c.record(e, recv.Elem)
	case types.Mapping:
		if !types.Compatible(idx, recv.Key) {
			return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidIndex, "mapping key must be assignable to %s, got %s", recv.Key, idx))
		}
		return c.record(e, recv.Value)
	case types.BytesN, types.Bytes:
		if !types.IsFailure(idx) && !types.IsNumeric(idx) {
			return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidIndex, "bytes index must be numeric, got %s", idx))
		}
		return c.record(e, types.Uint{Bits: 8})
	default:
		return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidIndex, "%s is not indexable", recv))
	}
}

func (c *Checker) checkSlice(e *ast.SliceExpr, scope *symbols.Table) types.Type {
	recv := c.checkExpr(e.Recv, scope)
	if e.Low != nil {
		if lo := c.checkExpr(e.Low, scope); !types.IsFailure(lo) && !types.IsNumeric(lo) {
			pos := e.Low.Pos()
			c.bag.Errorf(&pos, diagnostics.CodeInvalidSlice, "slice bound must be numeric, got %s", lo)
		}
	}
	if e.High != nil {
		if hi := c.checkExpr(e.High, scope); !types.IsFailure(hi) && !types.IsNumeric(hi) {
			pos := e.High.Pos()
			c.bag.Errorf(&pos, diagnostics.CodeInvalidSlice, "slice bound must be numeric, got %s", hi)
		}
	}
	if types.IsFailure(recv) {
		return c.record(e, recv)
	}
	switch recv.(type) {
	case types.BytesN, types.Bytes:
		return c.record(e, types.Bytes{})
	default:
		return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidSlice, "slicing is only valid on bytes, got %s", recv))
	}
}

func (c *Checker) checkCast(e *ast.CastExpr, scope *symbols.Table) types.Type {
	operand := c.checkExpr(e.Operand, scope)
	dst := c.resolveType(e.Type)
	if types.IsFailure(operand) || types.IsFailure(dst) {
		return c.record(e, dst)
	}
	if !castAllowed(operand, dst) {
		return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidCast, "cannot cast %s to %s", operand, dst))
	}
	return c.record(e, dst)
}

func isBytesLike(t types.Type) bool {
	switch t.(type) {
	case types.BytesN, types.Bytes:
		return true
	default:
		return false
	}
}

func isAddr(t types.Type) bool {
	_, ok := t.(types.Address)
	return ok
}

func isStr(t types.Type) bool {
	_, ok := t.(types.String)
	return ok
}

// castAllowed implements spec §4.1's cast table: numeric<->numeric,
// uint<->address, bytes<->bytes, string<->bytes, and one-directional
// bytes->numeric/address.
func castAllowed(src, dst types.Type) bool {
	switch {
	case types.IsNumeric(src) && types.IsNumeric(dst):
		return true
	case types.IsNumeric(src) && !types.IsSigned(src) && isAddr(dst),
		isAddr(src) && types.IsNumeric(dst) && !types.IsSigned(dst):
		return true
	case isBytesLike(src) && isBytesLike(dst):
		return true
	case isStr(src) && isBytesLike(dst), isBytesLike(src) && isStr(dst):
		return true
	case isBytesLike(src) && (types.IsNumeric(dst) || isAddr(dst)):
		return true
	default:
		return false
	}
}

func (c *Checker) checkCall(e *ast.CallExpr, scope *symbols.Table) types.Type {
	args := make([]types.Type, len(e.Args))
	for i, a := range e.Args {
		args[i] = c.checkExpr(a, scope)
	}
	if e.Callee == "keccak256" {
		if len(args) != 1 {
			return c.record(e, c.fail(e.Position, diagnostics.CodeArityMismatch, "keccak256 takes exactly one argument"))
		}
		if !types.IsFailure(args[0]) && !isBytesLike(args[0]) && !isStr(args[0]) {
			return c.record(e, c.fail(e.Position, diagnostics.CodeInvalidOperands, "keccak256 requires bytes or string, got %s", args[0]))
		}
		return c.record(e, types.BytesN{N: 32})
	}
	fn, ok := c.funcs[e.Callee]
	if !ok {
		return c.record(e, c.fail(e.Position, diagnostics.CodeUndefinedFunction, "undefined function %q", e.Callee))
	}
	if len(args) != len(fn.Params) {
		return c.record(e, c.fail(e.Position, diagnostics.CodeArityMismatch, "%q expects %d argument(s), got %d", e.Callee, len(fn.Params), len(args)))
	}
	for i, p := range fn.Params {
		if !types.Compatible(args[i], p) {
			pos := e.Args[i].Pos()
			c.bag.Errorf(&pos, diagnostics.CodeTypeMismatch, "argument %d of %q: expected %s, got %s", i+1, e.Callee, p, args[i])
		}
	}
	if fn.ReturnType == nil {
		return c.record(e, types.Failure{Reason: "void"})
	}
	return c.record(e, fn.ReturnType)
}

func (c *Checker) checkSpecial(e *ast.SpecialExpr) types.Type {
	switch e.Kind {
	case ast.SpecialMsgSender:
		return c.record(e, types.Address{})
	case ast.SpecialMsgValue:
		return c.record(e, types.Uint{Bits: 256})
	case ast.SpecialMsgData:
		return c.record(e, types.Bytes{})
	case ast.SpecialBlockTimestamp:
		return c.record(e, types.Uint{Bits: 256})
	case ast.SpecialBlockNumber:
		return c.record(e, types.Uint{Bits: 256})
	default:
		return c.record(e, c.fail(e.Position, diagnostics.CodeTypeMismatch, "unknown special expression"))
	}
}
