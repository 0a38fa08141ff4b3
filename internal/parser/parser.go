// Package parser turns BUG source text into an internal/ast.Program. It is
// one of the components spec.md treats as an external collaborator (only
// its output contract is specified); this implementation consolidates the
// teacher's two parallel, partly-unwired parsers (grammar/ and
// internal/parser/) into a single participle-based grammar, following
// grammar/parser.go's build-and-invoke shape and
// internal/parser/parser_pratt.go's precedence table.
package parser

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"bugc/internal/ast"
	"bugc/internal/diagnostics"
	"bugc/internal/types"
)

var bugParser = participle.MustBuild[gProgram](
	participle.Lexer(bugLexer),
	participle.Elide("Whitespace", "Comment", "DocComment"),
	participle.UseLookahead(2),
)

// ParseSource parses a single BUG source file into an AST. Syntax errors
// are reported through the returned bag under diagnostics.CodeParseSyntax;
// a non-nil error return is reserved for failures the bag can't represent.
func ParseSource(filename, source string) (*ast.Program, *diagnostics.Bag, error) {
	bag := &diagnostics.Bag{}
	g, err := bugParser.ParseString(filename, source)
	if err != nil {
		pe, ok := err.(participle.Error)
		if !ok {
			return nil, bag, err
		}
		pos := pe.Position()
		bag.Errorf(&ast.Position{
			Filename: pos.Filename,
			Offset:   pos.Offset,
			Line:     pos.Line,
			Column:   pos.Column,
		}, diagnostics.CodeParseSyntax, "%s", pe.Message())
		return nil, bag, nil
	}

	c := &converter{ids: &ast.IDGen{}, filename: filename, bag: bag}
	return c.convProgram(g), bag, nil
}

// converter walks the participle parse tree (gProgram and friends) into
// internal/ast nodes, assigning NodeIDs and resolving the few ambiguities
// the grammar leaves to context: cast-vs-call and msg./block. specials.
type converter struct {
	ids      *ast.IDGen
	filename string
	bag      *diagnostics.Bag
}

func (c *converter) base(pos lexer.Position) ast.Base {
	return ast.Base{
		NodeID: c.ids.Next(),
		Position: ast.Position{
			Filename: c.filename,
			Offset:   pos.Offset,
			Line:     pos.Line,
			Column:   pos.Column,
		},
	}
}

func (c *converter) convProgram(g *gProgram) *ast.Program {
	prog := &ast.Program{Base: c.base(g.Pos), Name: g.Name}
	for _, d := range g.Decls {
		prog.Decls = append(prog.Decls, c.convTopDecl(d))
	}
	if g.Create != nil {
		prog.Create = c.convBlock(g.Create.Body)
	}
	prog.Body = c.convBlock(g.Code.Body)
	return prog
}

func (c *converter) convTopDecl(d *gTopDecl) ast.Decl {
	switch {
	case d.Struct != nil:
		return c.convStruct(d.Struct)
	case d.Func != nil:
		return c.convFunc(d.Func)
	case d.Storage != nil:
		return c.convStorage(d.Storage)
	default:
		panic("parser: top-level declaration with no alternative set")
	}
}

func (c *converter) convStruct(s *gStructDecl) *ast.StructDecl {
	sd := &ast.StructDecl{Base: c.base(s.Pos), Name: s.Name}
	for _, f := range s.Fields {
		sd.Fields = append(sd.Fields, &ast.FieldDecl{
			Base: c.base(f.Pos),
			Name: f.Name,
			Type: c.convType(f.Type),
		})
	}
	return sd
}

func (c *converter) convStorage(s *gStorageDecl) *ast.StorageDecl {
	slot, err := strconv.Atoi(s.Slot)
	if err != nil {
		c.bag.Errorf(&ast.Position{Filename: c.filename, Line: s.Pos.Line, Column: s.Pos.Column},
			diagnostics.CodeParseSyntax, "invalid slot number %q", s.Slot)
	}
	return &ast.StorageDecl{Base: c.base(s.Pos), Name: s.Name, Type: c.convType(s.Type), Slot: slot}
}

func (c *converter) convFunc(f *gFunctionDecl) *ast.FunctionDecl {
	fd := &ast.FunctionDecl{Base: c.base(f.Pos), Name: f.Name, ReturnType: c.convType(f.Return)}
	for _, p := range f.Params {
		fd.Params = append(fd.Params, &ast.ParamDecl{
			Base: c.base(p.Pos),
			Name: p.Name,
			Type: c.convType(p.Type),
		})
	}
	fd.Body = c.convBlock(f.Body)
	return fd
}

func (c *converter) convType(g *gType) *ast.TypeExpr {
	if g == nil {
		return nil
	}
	te := &ast.TypeExpr{Base: c.base(g.Pos)}
	switch {
	case g.Mapping != nil:
		te.Key = c.convType(g.Mapping.Key)
		te.Value = c.convType(g.Mapping.Value)
	case g.Array != nil:
		te.Elem = c.convType(g.Array.Elem)
		if g.Array.Size != nil {
			n, _ := strconv.Atoi(*g.Array.Size)
			te.Size = &n
		}
	default:
		te.Name = g.Name
	}
	return te
}

func (c *converter) convBlock(b *gBlock) *ast.Block {
	if b == nil {
		return nil
	}
	blk := &ast.Block{Base: c.base(b.Pos)}
	for _, s := range b.Stmts {
		blk.Stmts = append(blk.Stmts, c.convStmt(s))
	}
	return blk
}

func (c *converter) convStmt(s *gStmt) ast.Stmt {
	switch {
	case s.Let != nil:
		return c.convLet(s.Let)
	case s.Return != nil:
		return &ast.ReturnStmt{Base: c.base(s.Return.Pos), Value: c.convExprOpt(s.Return.Value)}
	case s.Break != nil:
		return &ast.BreakStmt{Base: c.base(s.Break.Pos)}
	case s.If != nil:
		return c.convIf(s.If)
	case s.For != nil:
		return c.convFor(s.For)
	case s.Simple != nil:
		return c.convAssign(s.Simple.Inner)
	default:
		panic("parser: statement with no alternative set")
	}
}

func (c *converter) convLet(l *gLetStmt) *ast.LetStmt {
	return &ast.LetStmt{Base: c.base(l.Pos), Name: l.Name, Type: c.convType(l.Type), Init: c.convExpr(l.Init)}
}

func (c *converter) convIf(i *gIfStmt) *ast.IfStmt {
	return &ast.IfStmt{
		Base: c.base(i.Pos),
		Cond: c.convExpr(i.Cond),
		Then: c.convBlock(i.Then),
		Else: c.convBlock(i.Else),
	}
}

func (c *converter) convFor(f *gForStmt) *ast.ForStmt {
	fs := &ast.ForStmt{Base: c.base(f.Pos)}
	if f.Init != nil {
		fs.Init = &ast.LetStmt{
			Base: c.base(f.Init.Pos),
			Name: f.Init.Name,
			Type: c.convType(f.Init.Type),
			Init: c.convExpr(f.Init.Init),
		}
	}
	fs.Cond = c.convExprOpt(f.Cond)
	if f.Update != nil {
		fs.Update = c.convAssign(f.Update)
	}
	fs.Body = c.convBlock(f.Body)
	return fs
}

func (c *converter) convAssign(a *gAssignExpr) ast.Stmt {
	target := c.convExpr(a.Target)
	if a.Value != nil {
		return &ast.AssignStmt{Base: c.base(a.Pos), Target: target, Value: c.convExpr(a.Value)}
	}
	return &ast.ExprStmt{Base: c.base(a.Pos), Expr: target}
}

func (c *converter) convExprOpt(g *gExpr) ast.Expr {
	if g == nil {
		return nil
	}
	return c.convExpr(g)
}

// opEntry is one (operator, right-operand) pair in a flattened binary
// chain, as participle produces it (gExpr.Ops).
type opEntry struct {
	op    string
	pos   lexer.Position
	right ast.Expr
}

func (c *converter) convExpr(g *gExpr) ast.Expr {
	left := c.convUnary(g.Left)
	if len(g.Ops) == 0 {
		return left
	}
	ops := make([]opEntry, len(g.Ops))
	for i, o := range g.Ops {
		ops[i] = opEntry{op: o.Operator, pos: o.Pos, right: c.convUnary(o.Right)}
	}
	return c.foldBinary(left, ops)
}

// precedence mirrors the table the teacher's hand-written Pratt parser
// uses (internal/parser/parser_pratt.go): || < && < equality < relational
// < additive < multiplicative.
func precedence(op string) int {
	switch op {
	case "||":
		return 1
	case "&&":
		return 2
	case "==", "!=":
		return 3
	case "<", "<=", ">", ">=":
		return 4
	case "+", "-":
		return 5
	case "*", "/", "%":
		return 6
	default:
		return 0
	}
}

func binaryOpFor(op string) ast.BinaryOp {
	switch op {
	case "+":
		return ast.BinAdd
	case "-":
		return ast.BinSub
	case "*":
		return ast.BinMul
	case "/":
		return ast.BinDiv
	case "%":
		return ast.BinMod
	case "==":
		return ast.BinEq
	case "!=":
		return ast.BinNe
	case "<":
		return ast.BinLt
	case "<=":
		return ast.BinLe
	case ">":
		return ast.BinGt
	case ">=":
		return ast.BinGe
	case "&&":
		return ast.BinAnd
	case "||":
		return ast.BinOr
	default:
		panic("parser: unknown binary operator " + op)
	}
}

// foldBinary re-associates a flat left/(op,right)* chain into a tree by
// precedence, using a two-stack shunting-yard reduction. All of BUG's
// binary operators are left-associative, so this produces the same tree
// the teacher's recursive Pratt climb would.
func (c *converter) foldBinary(left ast.Expr, ops []opEntry) ast.Expr {
	operands := []ast.Expr{left}
	var operators []opEntry

	reduce := func() {
		n := len(operators)
		top := operators[n-1]
		operators = operators[:n-1]
		m := len(operands)
		r, l := operands[m-1], operands[m-2]
		operands = operands[:m-2]
		operands = append(operands, &ast.BinaryExpr{
			Base:  c.base(top.pos),
			Op:    binaryOpFor(top.op),
			Left:  l,
			Right: r,
		})
	}

	for _, o := range ops {
		for len(operators) > 0 && precedence(operators[len(operators)-1].op) >= precedence(o.op) {
			reduce()
		}
		operators = append(operators, o)
		operands = append(operands, o.right)
	}
	for len(operators) > 0 {
		reduce()
	}
	return operands[0]
}

func (c *converter) convUnary(g *gUnaryExpr) ast.Expr {
	operand := c.convPostfix(g.Operand)
	if g.Op == nil {
		return operand
	}
	op := ast.UnaryNot
	if *g.Op == "-" {
		op = ast.UnaryNeg
	}
	return &ast.UnaryExpr{Base: c.base(g.Pos), Op: op, Operand: operand}
}

func (c *converter) convPostfix(g *gPostfixExpr) ast.Expr {
	expr := c.convPrimary(g.Primary)
	for _, suf := range g.Suffixes {
		switch {
		case suf.Member != nil:
			expr = c.applyMember(expr, *suf.Member, suf.Pos)
		case suf.Index != nil:
			expr = c.applyIndex(expr, suf.Index, suf.Pos)
		}
	}
	return expr
}

// applyMember rewrites `msg.sender`, `msg.value`, `msg.data`,
// `block.timestamp`, and `block.number` into SpecialExpr nodes; every
// other `.name` access becomes a MemberExpr resolved later by the checker.
func (c *converter) applyMember(recv ast.Expr, name string, pos lexer.Position) ast.Expr {
	if ident, ok := recv.(*ast.IdentExpr); ok {
		if kind, ok := specialKind(ident.Name, name); ok {
			return &ast.SpecialExpr{Base: ident.Base, Kind: kind}
		}
	}
	return &ast.MemberExpr{Base: c.base(pos), Recv: recv, Name: name}
}

func specialKind(base, field string) (ast.SpecialKind, bool) {
	switch base {
	case "msg":
		switch field {
		case "sender":
			return ast.SpecialMsgSender, true
		case "value":
			return ast.SpecialMsgValue, true
		case "data":
			return ast.SpecialMsgData, true
		}
	case "block":
		switch field {
		case "timestamp":
			return ast.SpecialBlockTimestamp, true
		case "number":
			return ast.SpecialBlockNumber, true
		}
	}
	return 0, false
}

func (c *converter) applyIndex(recv ast.Expr, idx *gIndexSuffix, pos lexer.Position) ast.Expr {
	base := c.base(pos)
	if idx.IsSlice {
		return &ast.SliceExpr{Base: base, Recv: recv, Low: c.convExprOpt(idx.First), High: c.convExprOpt(idx.Second)}
	}
	if idx.First == nil {
		c.bag.Errorf(&base.Position, diagnostics.CodeParseSyntax, "index expression missing an index")
		return &ast.IndexExpr{Base: base, Recv: recv, Index: &ast.LiteralExpr{Base: base, Kind: ast.LitNumber, Raw: "0"}}
	}
	return &ast.IndexExpr{Base: base, Recv: recv, Index: c.convExpr(idx.First)}
}

func (c *converter) convPrimary(g *gPrimaryExpr) ast.Expr {
	switch {
	case g.Literal != nil:
		return c.convLiteral(g.Literal)
	case g.Call != nil:
		return c.convCall(g.Call)
	case g.Ident != nil:
		return &ast.IdentExpr{Base: c.base(g.Pos), Name: *g.Ident}
	case g.Paren != nil:
		return c.convExpr(g.Paren)
	default:
		panic("parser: primary expression with no alternative set")
	}
}

func (c *converter) convLiteral(g *gLiteral) ast.Expr {
	switch {
	case g.Bool != nil:
		return &ast.LiteralExpr{Base: c.base(g.Pos), Kind: ast.LitBool, Raw: *g.Bool}
	case g.Str != nil:
		return &ast.LiteralExpr{Base: c.base(g.Pos), Kind: ast.LitString, Raw: unquote(*g.Str)}
	case g.Hex != nil:
		digits := strings.TrimPrefix(strings.TrimPrefix(*g.Hex, "0x"), "0X")
		kind := ast.LitHex
		if len(digits) == 40 {
			kind = ast.LitAddress
		}
		return &ast.LiteralExpr{Base: c.base(g.Pos), Kind: kind, Raw: digits}
	case g.Number != nil:
		return &ast.LiteralExpr{Base: c.base(g.Pos), Kind: ast.LitNumber, Raw: *g.Number}
	default:
		panic("parser: literal with no alternative set")
	}
}

// convCall builds a CastExpr instead of a CallExpr when the callee names an
// elementary type and exactly one argument is given: `uint256(x)` and
// `transfer(x)` are indistinguishable in the grammar, so the call/cast
// split happens here rather than as a grammar ambiguity.
func (c *converter) convCall(g *gCall) ast.Expr {
	args := make([]ast.Expr, 0, len(g.Args))
	for _, a := range g.Args {
		args = append(args, c.convExpr(a))
	}
	if len(args) == 1 && types.ElementaryTypeName(g.Callee) {
		return &ast.CastExpr{
			Base:    c.base(g.Pos),
			Type:    &ast.TypeExpr{Base: c.base(g.Pos), Name: g.Callee},
			Operand: args[0],
		}
	}
	return &ast.CallExpr{Base: c.base(g.Pos), Callee: g.Callee, Args: args}
}

func unquote(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	body := raw[1 : len(raw)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte(body[i])
			}
			continue
		}
		b.WriteByte(body[i])
	}
	return b.String()
}
