package ast

// Expr is implemented by every expression kind (spec §3.1).
type Expr interface {
	Node
	exprNode()
}

// IdentExpr references a name: a local, a parameter, or a storage variable.
type IdentExpr struct {
	Base
	Name string
}

func (*IdentExpr) exprNode() {}

// LiteralKind distinguishes the literal forms the parser can produce.
type LiteralKind int

const (
	LitNumber LiteralKind = iota
	LitBool
	LitString
	LitHex     // 0x-prefixed byte string, e.g. 0xCAFE
	LitAddress // 0x-prefixed, exactly 40 hex digits
)

// LiteralExpr is a constant literal. Raw holds the original source text
// (digits for numbers, the unescaped string body, hex digits without the
// 0x prefix); the checker interprets Raw according to Kind.
type LiteralExpr struct {
	Base
	Kind LiteralKind
	Raw  string
}

func (*LiteralExpr) exprNode() {}

// UnaryOp enumerates the unary operators.
type UnaryOp int

const (
	UnaryNot UnaryOp = iota // !
	UnaryNeg                // -
)

type UnaryExpr struct {
	Base
	Op      UnaryOp
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// BinaryOp enumerates the binary operators.
type BinaryOp int

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd // &&
	BinOr  // ||
)

type BinaryExpr struct {
	Base
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// MemberExpr is `.` access: struct field access, or `.length`.
type MemberExpr struct {
	Base
	Recv Expr
	Name string
}

func (*MemberExpr) exprNode() {}

// IndexExpr is `[]` access: array element, mapping lookup, or bytes byte
// access. Which one it denotes is resolved by the checker from Recv's type.
type IndexExpr struct {
	Base
	Recv  Expr
	Index Expr
}

func (*IndexExpr) exprNode() {}

// SliceExpr is `[Low:High]` access, valid only on bytes.
type SliceExpr struct {
	Base
	Recv Expr
	Low  Expr // nil => 0
	High Expr // nil => length
}

func (*SliceExpr) exprNode() {}

// CallExpr is a call to the built-in keccak256 or to a user function.
type CallExpr struct {
	Base
	Callee string
	Args   []Expr
}

func (*CallExpr) exprNode() {}

// CastExpr is an explicit `Type(Value)` conversion.
type CastExpr struct {
	Base
	Type    *TypeExpr
	Operand Expr
}

func (*CastExpr) exprNode() {}

// SpecialKind enumerates the fixed-type special expressions (spec §3.1).
type SpecialKind int

const (
	SpecialMsgSender SpecialKind = iota
	SpecialMsgValue
	SpecialMsgData
	SpecialBlockTimestamp
	SpecialBlockNumber
)

type SpecialExpr struct {
	Base
	Kind SpecialKind
}

func (*SpecialExpr) exprNode() {}
