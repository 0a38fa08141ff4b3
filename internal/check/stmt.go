package check

import (
	"bugc/internal/ast"
	"bugc/internal/diagnostics"
	"bugc/internal/symbols"
	"bugc/internal/types"
)

// checkBlock type-checks every statement in b in a fresh child scope.
// Once a Return or Break is seen, each remaining statement in the same
// block gets an "unreachable statement" warning and is still type-checked.
func (c *Checker) checkBlock(b *ast.Block, parent *symbols.Table, ctx *funcCtx) {
	if b == nil {
		return
	}
	scope := parent.Push()
	terminated := false
	for _, s := range b.Stmts {
		if terminated {
			pos := s.Pos()
			c.bag.Warnf(&pos, diagnostics.CodeUnreachableCodeType, "unreachable statement")
		}
		if c.checkStmt(s, scope, ctx) {
			terminated = true
		}
	}
}

// checkStmt type-checks s and reports whether it unconditionally
// terminates the block (return or break).
func (c *Checker) checkStmt(s ast.Stmt, scope *symbols.Table, ctx *funcCtx) bool {
	switch s := s.(type) {
	case *ast.LetStmt:
		c.checkLet(s, scope)
		return false
	case *ast.AssignStmt:
		c.checkAssign(s, scope)
		return false
	case *ast.IfStmt:
		c.checkIf(s, scope, ctx)
		return false
	case *ast.ForStmt:
		c.checkFor(s, scope, ctx)
		return false
	case *ast.ReturnStmt:
		c.checkReturn(s, scope, ctx)
		return true
	case *ast.BreakStmt:
		if !ctx.inLoop {
			c.bag.Errorf(&s.Position, diagnostics.CodeBreakOutsideLoop, "break outside of a loop")
		}
		return true
	case *ast.ExprStmt:
		c.checkExpr(s.Expr, scope)
		return false
	default:
		return false
	}
}

func (c *Checker) checkLet(s *ast.LetStmt, scope *symbols.Table) {
	initTy := c.checkExpr(s.Init, scope)
	declTy := initTy
	if s.Type != nil {
		declTy = c.resolveType(s.Type)
		if !types.Compatible(initTy, declTy) {
			c.bag.Errorf(&s.Position, diagnostics.CodeTypeMismatch, "cannot initialize %s with %s", declTy, initTy)
		}
	}
	if _, exists := scope.LookupLocal(s.Name); exists {
		c.bag.Errorf(&s.Position, diagnostics.CodeDuplicateDecl, "%q declared more than once in this scope", s.Name)
	}
	sym := &symbols.Symbol{Name: s.Name, Kind: symbols.KindLocal, Type: declTy, Pos: s.Position}
	scope.Define(sym)
	c.declared = append(c.declared, sym)
}

// assignable reports whether e is one of the target forms spec §4.1 allows:
// identifier, member, index, or slice.
func assignable(e ast.Expr) bool {
	switch e.(type) {
	case *ast.IdentExpr, *ast.MemberExpr, *ast.IndexExpr, *ast.SliceExpr:
		return true
	default:
		return false
	}
}

func (c *Checker) checkAssign(s *ast.AssignStmt, scope *symbols.Table) {
	targetTy := c.checkExpr(s.Target, scope)
	valueTy := c.checkExpr(s.Value, scope)
	if !assignable(s.Target) {
		c.bag.Errorf(&s.Position, diagnostics.CodeNotAssignable, "expression is not assignable")
		return
	}
	if !types.Compatible(valueTy, targetTy) {
		c.bag.Errorf(&s.Position, diagnostics.CodeNotAssignable, "cannot assign %s to %s", valueTy, targetTy)
	}
}

func (c *Checker) checkIf(s *ast.IfStmt, scope *symbols.Table, ctx *funcCtx) {
	cond := c.checkExpr(s.Cond, scope)
	if !types.IsFailure(cond) {
		if _, ok := cond.(types.Bool); !ok {
			c.bag.Errorf(&s.Position, diagnostics.CodeInvalidCondition, "if condition must be bool, got %s", cond)
		}
	}
	c.checkBlock(s.Then, scope, ctx)
	c.checkBlock(s.Else, scope, ctx)
}

func (c *Checker) checkFor(s *ast.ForStmt, scope *symbols.Table, ctx *funcCtx) {
	forScope := scope.Push()
	if s.Init != nil {
		c.checkLet(s.Init, forScope)
	}
	if s.Cond != nil {
		cond := c.checkExpr(s.Cond, forScope)
		if !types.IsFailure(cond) {
			if _, ok := cond.(types.Bool); !ok {
				c.bag.Errorf(&s.Position, diagnostics.CodeInvalidCondition, "for condition must be bool, got %s", cond)
			}
		}
	}
	if s.Update != nil {
		c.checkStmt(s.Update, forScope, &funcCtx{expectedReturn: ctx.expectedReturn, inLoop: true})
	}
	loopCtx := &funcCtx{expectedReturn: ctx.expectedReturn, inLoop: true}
	c.checkBlock(s.Body, forScope, loopCtx)
}

func (c *Checker) checkReturn(s *ast.ReturnStmt, scope *symbols.Table, ctx *funcCtx) {
	if s.Value == nil {
		if ctx.expectedReturn != nil {
			c.bag.Errorf(&s.Position, diagnostics.CodeInvalidReturnType, "missing return value, expected %s", ctx.expectedReturn)
		}
		return
	}
	got := c.checkExpr(s.Value, scope)
	if ctx.expectedReturn == nil {
		c.bag.Errorf(&s.Position, diagnostics.CodeInvalidReturnType, "this body does not return a value")
		return
	}
	if !types.Compatible(got, ctx.expectedReturn) {
		c.bag.Errorf(&s.Position, diagnostics.CodeInvalidReturnType, "expected return type %s, got %s", ctx.expectedReturn, got)
	}
}
