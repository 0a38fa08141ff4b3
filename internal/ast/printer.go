package ast

import (
	"fmt"
	"strings"
)

// String renders a Program back to BUG source syntax. It is a debugging aid,
// not a canonical formatter: whitespace is not preserved from the original
// source.
func (p *Program) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "name %s;\n", p.Name)
	for _, d := range p.Decls {
		b.WriteString(fmt.Sprint(d))
		b.WriteByte('\n')
	}
	if p.Create != nil {
		b.WriteString("create ")
		b.WriteString(p.Create.String())
		b.WriteByte('\n')
	}
	if p.Body != nil {
		b.WriteString("code ")
		b.WriteString(p.Body.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (s *StructDecl) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "struct %s {\n", s.Name)
	for _, f := range s.Fields {
		fmt.Fprintf(&b, "  %s: %s,\n", f.Name, f.Type)
	}
	b.WriteString("}")
	return b.String()
}

func (s *StorageDecl) String() string {
	return fmt.Sprintf("%s: %s @slot(%d);", s.Name, s.Type, s.Slot)
}

func (f *FunctionDecl) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s: %s", p.Name, p.Type)
	}
	ret := ""
	if f.ReturnType != nil {
		ret = ": " + f.ReturnType.String()
	}
	return fmt.Sprintf("fn %s(%s)%s %s", f.Name, strings.Join(params, ", "), ret, f.Body)
}

func (t *TypeExpr) String() string {
	switch {
	case t == nil:
		return "<void>"
	case t.IsMapping():
		return fmt.Sprintf("mapping<%s,%s>", t.Key, t.Value)
	case t.IsArray() && t.Size != nil:
		return fmt.Sprintf("array<%s,%d>", t.Elem, *t.Size)
	case t.IsArray():
		return fmt.Sprintf("array<%s>", t.Elem)
	default:
		return t.Name
	}
}

func (b *Block) String() string {
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, s := range b.Stmts {
		sb.WriteString("  " + strings.ReplaceAll(fmt.Sprint(s), "\n", "\n  ") + "\n")
	}
	sb.WriteString("}")
	return sb.String()
}

func (s *LetStmt) String() string {
	return fmt.Sprintf("let %s = %s;", s.Name, s.Init)
}

func (s *AssignStmt) String() string {
	return fmt.Sprintf("%s = %s;", s.Target, s.Value)
}

func (s *IfStmt) String() string {
	if s.Else != nil {
		return fmt.Sprintf("if (%s) %s else %s", s.Cond, s.Then, s.Else)
	}
	return fmt.Sprintf("if (%s) %s", s.Cond, s.Then)
}

func (s *ForStmt) String() string {
	init := ""
	if s.Init != nil {
		init = strings.TrimSuffix(s.Init.String(), ";")
	}
	return fmt.Sprintf("for (%s; %s; %s) %s", init, s.Cond, s.Update, s.Body)
}

func (s *ReturnStmt) String() string {
	if s.Value == nil {
		return "return;"
	}
	return fmt.Sprintf("return %s;", s.Value)
}

func (s *BreakStmt) String() string { return "break;" }

func (s *ExprStmt) String() string { return fmt.Sprintf("%s;", s.Expr) }

func (e *IdentExpr) String() string { return e.Name }

func (e *LiteralExpr) String() string {
	switch e.Kind {
	case LitString:
		return fmt.Sprintf("%q", e.Raw)
	case LitHex, LitAddress:
		return "0x" + e.Raw
	default:
		return e.Raw
	}
}

var unaryOpSyms = map[UnaryOp]string{UnaryNot: "!", UnaryNeg: "-"}

func (e *UnaryExpr) String() string {
	return fmt.Sprintf("%s%s", unaryOpSyms[e.Op], e.Operand)
}

var binaryOpSyms = map[BinaryOp]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinMod: "%",
	BinEq: "==", BinNe: "!=", BinLt: "<", BinLe: "<=", BinGt: ">", BinGe: ">=",
	BinAnd: "&&", BinOr: "||",
}

func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, binaryOpSyms[e.Op], e.Right)
}

func (e *MemberExpr) String() string { return fmt.Sprintf("%s.%s", e.Recv, e.Name) }

func (e *IndexExpr) String() string { return fmt.Sprintf("%s[%s]", e.Recv, e.Index) }

func (e *SliceExpr) String() string {
	return fmt.Sprintf("%s[%s:%s]", e.Recv, e.Low, e.High)
}

func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = fmt.Sprint(a)
	}
	return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(args, ", "))
}

func (e *CastExpr) String() string { return fmt.Sprintf("%s(%s)", e.Type, e.Operand) }

var specialNames = map[SpecialKind]string{
	SpecialMsgSender:      "msg.sender",
	SpecialMsgValue:       "msg.value",
	SpecialMsgData:        "msg.data",
	SpecialBlockTimestamp: "block.timestamp",
	SpecialBlockNumber:    "block.number",
}

func (e *SpecialExpr) String() string { return specialNames[e.Kind] }
