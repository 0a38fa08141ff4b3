package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bugc/internal/check"
	"bugc/internal/diagnostics"
	"bugc/internal/parser"
)

// buildModule runs the front end (parse, check) and then the IR builder
// over src, failing the test on any diagnostic earlier stages report.
func buildModule(t *testing.T, src string) *Module {
	t.Helper()
	prog, parseBag, err := parser.ParseSource("ir.bug", src)
	require.NoError(t, err)
	require.Empty(t, parseBag.BySeverity(diagnostics.Error), "parse errors: %+v", parseBag.All())

	checked := check.Check(prog)
	require.Empty(t, checked.Diags.BySeverity(diagnostics.Error), "check errors: %+v", checked.Diags.All())

	mod, bag := Build(prog, checked.Symbols, checked.Types)
	require.Empty(t, bag.BySeverity(diagnostics.Error), "build errors: %+v", bag.All())
	return mod
}

func TestBuild_StorageSlotsCarryDeclaredOrder(t *testing.T) {
	mod := buildModule(t, `name Storage;
a: uint256 @slot(0);
b: address @slot(1);
code {
}
`)
	require.Len(t, mod.Storage, 2)
	assert.Equal(t, "a", mod.Storage[0].Name)
	assert.Equal(t, 0, mod.Storage[0].Slot)
	assert.Equal(t, "b", mod.Storage[1].Name)
	assert.Equal(t, 1, mod.Storage[1].Slot)
}

func TestBuild_EmptyBodyGetsImplicitReturn(t *testing.T) {
	mod := buildModule(t, `name Empty;
code {
}
`)
	require.NotNil(t, mod.Main)
	entry := mod.Main.Blocks[mod.Main.Entry]
	require.NotNil(t, entry)
	ret, ok := entry.Term.(Return)
	require.True(t, ok, "expected an implicit Return terminator, got %T", entry.Term)
	assert.Nil(t, ret.Value)
}

func TestBuild_UserFunctionRegisteredByName(t *testing.T) {
	mod := buildModule(t, `name Funcs;

fn double(x: uint256): uint256 {
	return x + x;
}

code {
}
`)
	require.Contains(t, mod.Funcs, "double")
	assert.Equal(t, []string{"double"}, mod.FuncOrder)
	assert.Len(t, mod.Funcs["double"].Params, 1)
}

func TestBuild_FixedArrayIndexFoldsToConstantSlot(t *testing.T) {
	mod := buildModule(t, `name Arr;
items: array<uint256, 3> @slot(5);
create {
	items[1] = 7;
}
code {
}
`)
	require.NotNil(t, mod.Create)
	var store *StoreStorageI
	for _, lbl := range mod.Create.Order {
		for _, instr := range mod.Create.Blocks[lbl].Instrs {
			if s, ok := instr.(*StoreStorageI); ok {
				store = s
			}
		}
	}
	require.NotNil(t, store, "expected a StoreStorageI in the create body")

	slot, ok := store.Slot.(Const)
	require.True(t, ok, "a fixed-size array index on a literal should fold to a Const slot, got %T", store.Slot)
	assert.Equal(t, uint64(6), slot.Number.Uint64(), "slot 5 + index 1")
}

func TestBuild_IfStmtProducesBranchTerminator(t *testing.T) {
	mod := buildModule(t, `name Cond;
x: uint256 @slot(0);
code {
	if (x > 0) {
		x = 1;
	} else {
		x = 2;
	}
}
`)
	entry := mod.Main.Blocks[mod.Main.Entry]
	_, ok := entry.Term.(Branch)
	assert.True(t, ok, "expected the if's entry block to end in a Branch, got %T", entry.Term)
}

func TestBuild_FieldAccessThroughLocalStructParamUsesLoadField(t *testing.T) {
	mod := buildModule(t, `name Point;
struct P {
	x: uint256,
	y: uint256,
}
fn getY(p: P): uint256 {
	return p.y;
}
code {
}
`)
	fn, ok := mod.Funcs["getY"]
	require.True(t, ok)
	var load *LoadFieldI
	for _, lbl := range fn.Order {
		for _, instr := range fn.Blocks[lbl].Instrs {
			if l, ok := instr.(*LoadFieldI); ok {
				load = l
			}
		}
	}
	require.NotNil(t, load, "expected a LoadFieldI reading p.y")
	assert.Equal(t, 1, load.FieldIndex)
	base, ok := load.Base.(Local)
	require.True(t, ok)
	assert.Equal(t, "p", base.Name)
}

func TestBuild_IndexAccessThroughLocalArrayParamUsesLoadIndex(t *testing.T) {
	mod := buildModule(t, `name Triple;
fn first(a: array<uint256, 3>): uint256 {
	return a[0];
}
code {
}
`)
	fn, ok := mod.Funcs["first"]
	require.True(t, ok)
	var load *LoadIndexI
	for _, lbl := range fn.Order {
		for _, instr := range fn.Blocks[lbl].Instrs {
			if l, ok := instr.(*LoadIndexI); ok {
				load = l
			}
		}
	}
	require.NotNil(t, load, "expected a LoadIndexI reading a[0]")
	base, ok := load.Base.(Local)
	require.True(t, ok)
	assert.Equal(t, "a", base.Name)
}

func TestBuild_WholeStorageStructReadIsRejected(t *testing.T) {
	prog, parseBag, err := parser.ParseSource("ir.bug", `name Whole;
struct P {
	x: uint256,
	y: uint256,
}
p: P @slot(0);
code {
	return p;
}
`)
	require.NoError(t, err)
	require.Empty(t, parseBag.BySeverity(diagnostics.Error))

	checked := check.Check(prog)
	require.Empty(t, checked.Diags.BySeverity(diagnostics.Error), "check errors: %+v", checked.Diags.All())

	_, bag := Build(prog, checked.Symbols, checked.Types)
	errs := bag.BySeverity(diagnostics.Error)
	require.NotEmpty(t, errs, "reading a whole composite storage variable should be an IR error")
	assert.Equal(t, diagnostics.CodeIRUnsupportedStorage, errs[0].Code)
}

func TestBuild_ForLoopProducesBackEdge(t *testing.T) {
	mod := buildModule(t, `name Loop;
total: uint256 @slot(0);
code {
	for (let i: uint256 = 0; i < 3; i = i + 1) {
		total = total + i;
	}
}
`)
	// The loop header is entered both from above and from the latch, so it
	// should have more than one predecessor even though the latch doesn't
	// jump directly back to itself.
	multiPred := false
	for _, lbl := range mod.Main.Order {
		if len(mod.Main.Blocks[lbl].Predecessors) > 1 {
			multiPred = true
		}
	}
	assert.True(t, multiPred, "expected the loop header to have more than one predecessor")
}
