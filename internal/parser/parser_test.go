package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bugc/internal/ast"
	"bugc/internal/diagnostics"
)

func TestParseSource_StorageAndFunction(t *testing.T) {
	src := `name Token;
balances: mapping<address, uint256> @slot(0);
total: uint256 @slot(1);

fn add(a: uint256, b: uint256): uint256 {
	return a + b;
}

create {
	total = 0;
}

code {
	return total;
}
`
	prog, bag, err := ParseSource("token.bug", src)
	require.NoError(t, err)
	require.Empty(t, bag.BySeverity(diagnostics.Error))
	require.NotNil(t, prog)

	assert.Equal(t, "Token", prog.Name)
	require.NotNil(t, prog.Create)
	require.NotNil(t, prog.Body)

	var storages []*ast.StorageDecl
	var funcs []*ast.FunctionDecl
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.StorageDecl:
			storages = append(storages, d)
		case *ast.FunctionDecl:
			funcs = append(funcs, d)
		}
	}
	require.Len(t, storages, 2)
	assert.Equal(t, "balances", storages[0].Name)
	assert.Equal(t, 0, storages[0].Slot)
	assert.Equal(t, "total", storages[1].Name)
	assert.Equal(t, 1, storages[1].Slot)

	require.Len(t, funcs, 1)
	assert.Equal(t, "add", funcs[0].Name)
	assert.Len(t, funcs[0].Params, 2)
}

func TestParseSource_SyntaxErrorReportsDiagnostic(t *testing.T) {
	src := `name Broken;
code {
	let x: = 1;
}
`
	_, bag, err := ParseSource("broken.bug", src)
	require.NoError(t, err)
	errs := bag.BySeverity(diagnostics.Error)
	require.NotEmpty(t, errs)
	assert.Equal(t, diagnostics.CodeParseSyntax, errs[0].Code)
}

func TestParseSource_MsgAndBlockSpecials(t *testing.T) {
	src := `name Specials;
code {
	let sender: address = msg.sender;
	let value: uint256 = msg.value;
	let ts: uint256 = block.timestamp;
	let num: uint256 = block.number;
}
`
	prog, bag, err := ParseSource("specials.bug", src)
	require.NoError(t, err)
	require.Empty(t, bag.BySeverity(diagnostics.Error))
	require.NotNil(t, prog.Body)
	require.Len(t, prog.Body.Stmts, 4)

	for _, stmt := range prog.Body.Stmts {
		let, ok := stmt.(*ast.LetStmt)
		require.True(t, ok)
		_, ok = let.Init.(*ast.SpecialExpr)
		assert.True(t, ok, "expected %s to parse as a SpecialExpr", let.Name)
	}
}

func TestParseSource_ArrayAndMappingTypes(t *testing.T) {
	src := `name Types;
items: array<uint256, 4> @slot(0);
balances: mapping<address, uint256> @slot(1);
code {
}
`
	prog, bag, err := ParseSource("types.bug", src)
	require.NoError(t, err)
	require.Empty(t, bag.BySeverity(diagnostics.Error))

	storages := make(map[string]*ast.StorageDecl)
	for _, d := range prog.Decls {
		if sd, ok := d.(*ast.StorageDecl); ok {
			storages[sd.Name] = sd
		}
	}
	require.Contains(t, storages, "items")
	require.Contains(t, storages, "balances")
}
