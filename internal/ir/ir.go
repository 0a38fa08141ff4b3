// Package ir is the typed SSA instruction set (C4): basic blocks,
// terminators, functions, and modules, built by internal/ir's own
// generator (C5) from a checked AST and consumed by internal/analysis and
// internal/codegen. Graphs are represented by label/id indirection into
// maps rather than pointers (blocks own instructions, functions own
// blocks, modules own functions), so there are no ownership cycles to
// manage.
package ir

import (
	"fmt"

	"github.com/holiman/uint256"

	"bugc/internal/types"
)

// Value is anything an instruction can read: a literal constant, an SSA
// temporary, or a mutable local.
type Value interface {
	fmt.Stringer
	Type() types.Type
	valueNode()
}

// Const is a compile-time-known value. Number carries the numeric
// representation for bool/uint/int/address (bool as 0 or 1, address as its
// 160-bit integer), Bytes carries the raw byte representation for
// bytes/bytesN/string.
type Const struct {
	Ty     types.Type
	Number *uint256.Int // nil for byte-backed consts
	Bytes  []byte       // nil for number-backed consts
}

func (c Const) Type() types.Type { return c.Ty }
func (Const) valueNode()         {}
func (c Const) String() string {
	if c.Number != nil {
		return fmt.Sprintf("const<%s>(%s)", c.Ty, c.Number.String())
	}
	return fmt.Sprintf("const<%s>(%d bytes)", c.Ty, len(c.Bytes))
}

// Temp is an SSA temporary: defined exactly once, usable anywhere
// dominated by its definition.
type Temp struct {
	ID int
	Ty types.Type
}

func (t Temp) Type() types.Type { return t.Ty }
func (Temp) valueNode()         {}
func (t Temp) String() string   { return fmt.Sprintf("%%t%d", t.ID) }

// Local is a mutable, addressable binding — a declared variable or
// parameter — always memory-resident per the planner (spec §4.5).
type Local struct {
	ID   int
	Name string
	Ty   types.Type
}

func (l Local) Type() types.Type { return l.Ty }
func (Local) valueNode()         {}
func (l Local) String() string   { return fmt.Sprintf("%%%s.%d", l.Name, l.ID) }

// Label names a basic block within a function.
type Label string

// BinOp enumerates IR binary operators.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

// UnOp enumerates IR unary operators.
type UnOp int

const (
	OpNot UnOp = iota
	OpNeg
)

// EnvOp enumerates the fixed-type environment reads.
type EnvOp int

const (
	EnvMsgSender EnvOp = iota
	EnvMsgValue
	EnvMsgData
	EnvBlockTimestamp
	EnvBlockNumber
)

// Instr is implemented by every instruction kind. The set is closed; every
// consumer (liveness, memory planning, codegen) type-switches
// exhaustively rather than adding behavior dynamically (spec §9's
// tagged-union preference).
type Instr interface {
	fmt.Stringer
	instrNode()
}

// Uses/Defs helpers let analyses stay generic over instruction kind.

// Defines returns the Temp this instruction defines, if any.
func Defines(i Instr) (Temp, bool) {
	switch i := i.(type) {
	case *ConstI:
		return i.Dest, true
	case *BinaryI:
		return i.Dest, true
	case *UnaryI:
		return i.Dest, true
	case *LoadLocalI:
		return i.Dest, true
	case *LoadStorageI:
		return i.Dest, true
	case *ComputeSlotI:
		return i.Dest, true
	case *ComputeArraySlotI:
		return i.Dest, true
	case *ComputeFieldOffsetI:
		return i.Dest, true
	case *LoadFieldI:
		return i.Dest, true
	case *LoadIndexI:
		return i.Dest, true
	case *CastI:
		return i.Dest, true
	case *HashI:
		return i.Dest, true
	case *LengthI:
		return i.Dest, true
	case *SliceI:
		return i.Dest, true
	case *EnvI:
		return i.Dest, true
	case *CallI:
		return i.Dest, true
	case *PhiI:
		return i.Dest, true
	}
	return Temp{}, false
}

// Uses returns every Value this instruction reads (not including Local
// writes — StoreLocal's target Local is a def-site for liveness purposes,
// tracked separately by the caller).
func Uses(i Instr) []Value {
	switch i := i.(type) {
	case *BinaryI:
		return []Value{i.Left, i.Right}
	case *UnaryI:
		return []Value{i.Operand}
	case *LoadLocalI:
		return nil
	case *StoreLocalI:
		return []Value{i.Value}
	case *LoadStorageI:
		return []Value{i.Slot}
	case *StoreStorageI:
		return []Value{i.Slot, i.Value}
	case *ComputeSlotI:
		return []Value{i.Base, i.Key}
	case *ComputeArraySlotI:
		return []Value{i.Base}
	case *ComputeFieldOffsetI:
		return []Value{i.Base}
	case *LoadFieldI:
		return nil // Base is a Local, always memory-resident regardless of liveness
	case *StoreFieldI:
		return []Value{i.Value}
	case *LoadIndexI:
		return []Value{i.Index}
	case *StoreIndexI:
		return []Value{i.Index, i.Value}
	case *CastI:
		return []Value{i.Operand}
	case *HashI:
		return []Value{i.Operand}
	case *LengthI:
		if i.Operand == nil {
			return nil
		}
		return []Value{i.Operand}
	case *SliceI:
		vs := []Value{i.Operand}
		if i.Low != nil {
			vs = append(vs, i.Low)
		}
		if i.High != nil {
			vs = append(vs, i.High)
		}
		return vs
	case *CallI:
		return append([]Value(nil), i.Args...)
	case *PhiI:
		vs := make([]Value, 0, len(i.Sources))
		for _, v := range i.Sources {
			vs = append(vs, v)
		}
		return vs
	}
	return nil
}

type ConstI struct {
	Dest  Temp
	Value Const
}

func (*ConstI) instrNode() {}
func (c *ConstI) String() string { return fmt.Sprintf("%s = const %s", c.Dest, c.Value) }

type BinaryI struct {
	Dest        Temp
	Op          BinOp
	Left, Right Value
}

func (*BinaryI) instrNode() {}
func (b *BinaryI) String() string {
	return fmt.Sprintf("%s = binary %v %s, %s", b.Dest, b.Op, b.Left, b.Right)
}

type UnaryI struct {
	Dest    Temp
	Op      UnOp
	Operand Value
}

func (*UnaryI) instrNode() {}
func (u *UnaryI) String() string { return fmt.Sprintf("%s = unary %v %s", u.Dest, u.Op, u.Operand) }

type LoadLocalI struct {
	Dest  Temp
	Local Local
}

func (*LoadLocalI) instrNode() {}
func (l *LoadLocalI) String() string { return fmt.Sprintf("%s = load_local %s", l.Dest, l.Local) }

type StoreLocalI struct {
	Local Local
	Value Value
}

func (*StoreLocalI) instrNode() {}
func (s *StoreLocalI) String() string { return fmt.Sprintf("store_local %s, %s", s.Local, s.Value) }

type LoadStorageI struct {
	Dest Temp
	Slot Value
	Ty   types.Type
}

func (*LoadStorageI) instrNode() {}
func (l *LoadStorageI) String() string { return fmt.Sprintf("%s = load_storage %s", l.Dest, l.Slot) }

type StoreStorageI struct {
	Slot  Value
	Value Value
}

func (*StoreStorageI) instrNode() {}
func (s *StoreStorageI) String() string {
	return fmt.Sprintf("store_storage %s, %s", s.Slot, s.Value)
}

// ComputeSlotI computes keccak256(pad32(Key) || pad32(Base)) — a mapping
// value's slot (spec §3.3).
type ComputeSlotI struct {
	Dest           Temp
	Base, Key      Value
	KeyType        types.Type
}

func (*ComputeSlotI) instrNode() {}
func (c *ComputeSlotI) String() string {
	return fmt.Sprintf("%s = compute_slot %s, %s", c.Dest, c.Base, c.Key)
}

// ComputeArraySlotI computes keccak256(pad32(Base)) — a dynamic array's
// element-zero slot (spec §3.3).
type ComputeArraySlotI struct {
	Dest Temp
	Base Value
}

func (*ComputeArraySlotI) instrNode() {}
func (c *ComputeArraySlotI) String() string {
	return fmt.Sprintf("%s = compute_array_slot %s", c.Dest, c.Base)
}

// ComputeFieldOffsetI computes Base + FieldIndex — a struct field's slot.
type ComputeFieldOffsetI struct {
	Dest       Temp
	Base       Value
	FieldIndex int
}

func (*ComputeFieldOffsetI) instrNode() {}
func (c *ComputeFieldOffsetI) String() string {
	return fmt.Sprintf("%s = compute_field_offset %s, %d", c.Dest, c.Base, c.FieldIndex)
}

// LoadFieldI reads one field straight out of a local struct's in-memory
// representation (spec §4.2: "when the base is a local, in-memory
// load_index/load_field is emitted"). Base always names a Local — locals
// never alias another composite's storage, so no further chaining is
// needed to resolve an address.
type LoadFieldI struct {
	Dest       Temp
	Base       Value
	FieldIndex int
	Ty         types.Type
}

func (*LoadFieldI) instrNode() {}
func (l *LoadFieldI) String() string {
	return fmt.Sprintf("%s = load_field %s, %d", l.Dest, l.Base, l.FieldIndex)
}

// StoreFieldI writes one field of a local struct in place.
type StoreFieldI struct {
	Base       Value
	FieldIndex int
	Value      Value
}

func (*StoreFieldI) instrNode() {}
func (s *StoreFieldI) String() string {
	return fmt.Sprintf("store_field %s, %d, %s", s.Base, s.FieldIndex, s.Value)
}

// LoadIndexI reads one element straight out of a local fixed-size array's
// in-memory representation (spec §4.2).
type LoadIndexI struct {
	Dest  Temp
	Base  Value
	Index Value
	Ty    types.Type
}

func (*LoadIndexI) instrNode() {}
func (l *LoadIndexI) String() string {
	return fmt.Sprintf("%s = load_index %s, %s", l.Dest, l.Base, l.Index)
}

// StoreIndexI writes one element of a local fixed-size array in place.
type StoreIndexI struct {
	Base  Value
	Index Value
	Value Value
}

func (*StoreIndexI) instrNode() {}
func (s *StoreIndexI) String() string {
	return fmt.Sprintf("store_index %s, %s, %s", s.Base, s.Index, s.Value)
}

type CastI struct {
	Dest    Temp
	To      types.Type
	Operand Value
}

func (*CastI) instrNode() {}
func (c *CastI) String() string { return fmt.Sprintf("%s = cast<%s> %s", c.Dest, c.To, c.Operand) }

// HashI is keccak256(Operand); the generator folds this to a Const when
// Operand is itself a compile-time constant.
type HashI struct {
	Dest    Temp
	Operand Value
}

func (*HashI) instrNode() {}
func (h *HashI) String() string { return fmt.Sprintf("%s = hash %s", h.Dest, h.Operand) }

// LengthI measures a fixed array/bytesN (a compile-time constant, codegen
// never touches Operand), a storage-resident dynamic array/bytes (Operand
// is the base slot, IsStorageSlot true — codegen emits SLOAD), or
// msg.data's length (IsCalldata true — codegen emits CALLDATASIZE).
type LengthI struct {
	Dest          Temp
	Operand       Value // nil when IsCalldata
	Ty            types.Type
	IsStorageSlot bool
	IsCalldata    bool
}

func (*LengthI) instrNode() {}
func (l *LengthI) String() string { return fmt.Sprintf("%s = length<%s> %s", l.Dest, l.Ty, l.Operand) }

type SliceI struct {
	Dest           Temp
	Operand        Value
	Low, High      Value // nil => 0 / full length
}

func (*SliceI) instrNode() {}
func (s *SliceI) String() string { return fmt.Sprintf("%s = slice %s", s.Dest, s.Operand) }

type EnvI struct {
	Dest Temp
	Op   EnvOp
}

func (*EnvI) instrNode() {}
func (e *EnvI) String() string { return fmt.Sprintf("%s = env %v", e.Dest, e.Op) }

// CallI calls a user function. Callee == "" is never valid; built-in
// keccak256 calls always become HashI instead.
type CallI struct {
	Dest   Temp
	Void   bool // true when the callee has no return type; Dest is unused
	Callee string
	Args   []Value
}

func (*CallI) instrNode() {}
func (c *CallI) String() string { return fmt.Sprintf("%s = call %s(...)", c.Dest, c.Callee) }

// PhiI selects a value based on which predecessor control arrived from.
type PhiI struct {
	Dest    Temp
	Sources map[Label]Value
}

func (*PhiI) instrNode() {}
func (p *PhiI) String() string { return fmt.Sprintf("%s = phi(%d sources)", p.Dest, len(p.Sources)) }

// Terminator is implemented by Jump, Branch, and Return.
type Terminator interface {
	fmt.Stringer
	termNode()
	Targets() []Label
}

type Jump struct{ Target Label }

func (Jump) termNode()            {}
func (j Jump) Targets() []Label   { return []Label{j.Target} }
func (j Jump) String() string     { return fmt.Sprintf("jump %s", j.Target) }

type Branch struct {
	Cond               Value
	TrueDst, FalseDst  Label
}

func (Branch) termNode()          {}
func (b Branch) Targets() []Label { return []Label{b.TrueDst, b.FalseDst} }
func (b Branch) String() string {
	return fmt.Sprintf("branch %s, %s, %s", b.Cond, b.TrueDst, b.FalseDst)
}

type Return struct{ Value Value } // nil Value => bare return

func (Return) termNode()          {}
func (Return) Targets() []Label   { return nil }
func (r Return) String() string {
	if r.Value == nil {
		return "return"
	}
	return fmt.Sprintf("return %s", r.Value)
}

// Block is a maximal straight-line instruction sequence ending in exactly
// one terminator.
type Block struct {
	Label        Label
	Phis         []*PhiI
	Instrs       []Instr
	Term         Terminator
	Predecessors []Label
}

// Function owns its blocks by label, plus ordered metadata that
// determinism (spec §5) depends on: parameters and locals keep their
// declaration order, blocks are visited by insertion order unless an
// analysis says otherwise.
type Function struct {
	Name    string
	Entry   Label
	Params  []Local
	Locals  []Local
	Blocks  map[Label]*Block
	Order   []Label // block insertion order
	NextTemp int
	NextBlk  int
}

func NewFunction(name string) *Function {
	return &Function{Name: name, Blocks: make(map[Label]*Block)}
}

func (f *Function) NewBlock(hint string) *Block {
	f.NextBlk++
	lbl := Label(fmt.Sprintf("%s%d", hint, f.NextBlk))
	b := &Block{Label: lbl}
	f.Blocks[lbl] = b
	f.Order = append(f.Order, lbl)
	return b
}

func (f *Function) NewTemp(ty types.Type) Temp {
	f.NextTemp++
	return Temp{ID: f.NextTemp, Ty: ty}
}

// Module is the compilation unit: storage layout plus every function.
type Module struct {
	Name    string
	Storage []StorageSlot
	Create  *Function // nil if the program has no create block
	Main    *Function
	Funcs   map[string]*Function
	FuncOrder []string
}

// StorageSlot describes one top-level storage declaration.
type StorageSlot struct {
	Name string
	Slot int
	Ty   types.Type
}
