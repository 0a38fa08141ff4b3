// Package ast defines the input contract consumed by the compiler: the
// parser (internal/parser) builds these nodes, and every later stage
// (internal/check, internal/ir) walks them read-only.
package ast

import "fmt"

// Position tracks a source location for diagnostics.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// NodeID is a stable identity for an AST node, usable as a map key by
// downstream stages (the type checker's node->type map, the IR generator's
// node->value cache). IDs are assigned once, at parse time, and never
// reused or renumbered.
type NodeID uint32

// IDGen hands out NodeIDs while building a single Program. One IDGen is
// scoped to a single parse; it is never shared across compilations.
type IDGen struct{ next NodeID }

// Next returns a fresh, never-before-issued NodeID.
func (g *IDGen) Next() NodeID {
	g.next++
	return g.next
}

// Node is implemented by every AST node.
type Node interface {
	ID() NodeID
	Pos() Position
}

// Base is embedded by every node to supply its identity and location. The
// parser is responsible for populating it when it builds a node.
type Base struct {
	NodeID   NodeID
	Position Position
}

func (b Base) ID() NodeID    { return b.NodeID }
func (b Base) Pos() Position { return b.Position }

// Program is the root of the AST: a name, an ordered list of declarations,
// an optional constructor ("create") block, and a "body" (runtime) block.
type Program struct {
	Base
	Name   string
	Decls  []Decl
	Create *Block // optional constructor body
	Body   *Block // runtime entry body
}

// Decl is a top-level declaration: a struct, a function, or a storage slot.
type Decl interface {
	Node
	declNode()
}

// StructDecl declares a struct type with ordered, named fields.
type StructDecl struct {
	Base
	Name   string
	Fields []*FieldDecl
}

func (*StructDecl) declNode() {}

type FieldDecl struct {
	Base
	Name string
	Type *TypeExpr
}

// StorageDecl declares a top-level persistent storage variable at an
// explicit slot number (spec §3.3).
type StorageDecl struct {
	Base
	Name string
	Type *TypeExpr
	Slot int
}

func (*StorageDecl) declNode() {}

// FunctionDecl declares a user function.
type FunctionDecl struct {
	Base
	Name       string
	Params     []*ParamDecl
	ReturnType *TypeExpr // nil => void
	Body       *Block
}

func (*FunctionDecl) declNode() {}

type ParamDecl struct {
	Base
	Name string
	Type *TypeExpr
}

// Block is an ordered sequence of statements.
type Block struct {
	Base
	Stmts []Stmt
}
