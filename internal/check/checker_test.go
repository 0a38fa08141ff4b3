package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bugc/internal/diagnostics"
	"bugc/internal/parser"
	"bugc/internal/types"
)

func TestCheck_WellTypedProgram(t *testing.T) {
	src := `name Ok;
total: uint256 @slot(0);

fn double(x: uint256): uint256 {
	return x + x;
}

code {
	let y: uint256 = double(total);
}
`
	prog, bag, err := parser.ParseSource("ok.bug", src)
	require.NoError(t, err)
	require.Empty(t, bag.BySeverity(diagnostics.Error))

	res := Check(prog)
	assert.Empty(t, res.Diags.BySeverity(diagnostics.Error))
	require.NotNil(t, res.Symbols)
	require.NotNil(t, res.Types)
}

func TestCheck_UndefinedVariable(t *testing.T) {
	src := `name Bad;
code {
	return missingValue;
}
`
	prog, bag, err := parser.ParseSource("bad.bug", src)
	require.NoError(t, err)
	require.Empty(t, bag.BySeverity(diagnostics.Error))

	res := Check(prog)
	errs := res.Diags.BySeverity(diagnostics.Error)
	require.NotEmpty(t, errs)
	assert.Equal(t, diagnostics.CodeUndefinedVariable, errs[0].Code)
}

func TestCheck_TypeMismatchOnAssignment(t *testing.T) {
	src := `name Mismatch;
flag: bool @slot(0);
code {
	flag = 1;
}
`
	prog, bag, err := parser.ParseSource("mismatch.bug", src)
	require.NoError(t, err)
	require.Empty(t, bag.BySeverity(diagnostics.Error))

	res := Check(prog)
	errs := res.Diags.BySeverity(diagnostics.Error)
	require.NotEmpty(t, errs)
}

func TestCheck_UnusedLocalWarns(t *testing.T) {
	src := `name Unused;
code {
	let x: uint256 = 1;
}
`
	prog, bag, err := parser.ParseSource("unused.bug", src)
	require.NoError(t, err)
	require.Empty(t, bag.BySeverity(diagnostics.Error))

	res := Check(prog)
	warnings := res.Diags.BySeverity(diagnostics.Warning)
	require.NotEmpty(t, warnings)
	assert.Equal(t, diagnostics.CodeUnusedVariable, warnings[0].Code)
}

func TestCheck_StorageDeclTypes(t *testing.T) {
	src := `name Storage;
total: uint256 @slot(0);
owner: address @slot(1);
code {
}
`
	prog, bag, err := parser.ParseSource("storage.bug", src)
	require.NoError(t, err)
	require.Empty(t, bag.BySeverity(diagnostics.Error))

	res := Check(prog)
	require.Empty(t, res.Diags.BySeverity(diagnostics.Error))

	total, ok := res.Symbols.Lookup("total")
	require.True(t, ok)
	assert.Equal(t, types.Uint{Bits: 256}, total.Type)

	owner, ok := res.Symbols.Lookup("owner")
	require.True(t, ok)
	assert.Equal(t, types.Address{}, owner.Type)
}
