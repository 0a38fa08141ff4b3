package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bugc/internal/types"
)

func TestTable_DefineAndLookup(t *testing.T) {
	root := NewTable()
	root.Define(&Symbol{Name: "total", Kind: KindStorage, Type: types.Uint{Bits: 256}, Slot: 0})

	sym, ok := root.Lookup("total")
	require.True(t, ok)
	assert.Equal(t, KindStorage, sym.Kind)
	assert.Equal(t, 0, sym.Slot)

	_, ok = root.Lookup("missing")
	assert.False(t, ok)
}

func TestTable_ChildScopeShadowsParent(t *testing.T) {
	root := NewTable()
	root.Define(&Symbol{Name: "x", Kind: KindStorage, Type: types.Uint{Bits: 256}})

	child := root.Push()
	child.Define(&Symbol{Name: "x", Kind: KindLocal, Type: types.Bool{}})

	sym, ok := child.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, KindLocal, sym.Kind, "the child's binding should shadow the parent's")

	_, ok = child.LookupLocal("x")
	assert.True(t, ok)

	back := child.Pop()
	sym, ok = back.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, KindStorage, sym.Kind, "popping back to root should see root's own binding again")
}

func TestTable_NamesPreservesInsertionOrder(t *testing.T) {
	root := NewTable()
	root.Define(&Symbol{Name: "c", Kind: KindLocal, Type: types.Bool{}})
	root.Define(&Symbol{Name: "a", Kind: KindLocal, Type: types.Bool{}})
	root.Define(&Symbol{Name: "b", Kind: KindLocal, Type: types.Bool{}})

	assert.Equal(t, []string{"c", "a", "b"}, root.Names())
}

func TestTable_RedefineDoesNotDuplicateOrder(t *testing.T) {
	root := NewTable()
	root.Define(&Symbol{Name: "x", Kind: KindLocal, Type: types.Uint{Bits: 8}})
	root.Define(&Symbol{Name: "x", Kind: KindLocal, Type: types.Uint{Bits: 256}})

	assert.Equal(t, []string{"x"}, root.Names())
	sym, _ := root.Lookup("x")
	assert.Equal(t, types.Uint{Bits: 256}, sym.Type)
}
