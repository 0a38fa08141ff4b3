package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bugc/internal/codegen"
)

// decode walks raw EVM bytecode into its opcode sequence, skipping PUSH
// immediates (PUSH0 has none; PUSH1..PUSH32 carry n = opcode-PUSH1+1 bytes).
// It does not attempt to be a general disassembler — just enough to let
// these tests talk about "does this code contain a SHA3" without hardcoding
// byte offsets.
func decode(t *testing.T, code []byte) []codegen.Opcode {
	t.Helper()
	var ops []codegen.Opcode
	for i := 0; i < len(code); {
		op := codegen.Opcode(code[i])
		ops = append(ops, op)
		i++
		if op >= codegen.PUSH1 && op <= codegen.Opcode(int(codegen.PUSH1)+31) {
			n := int(op) - int(codegen.PUSH1) + 1
			i += n
		}
	}
	return ops
}

func count(ops []codegen.Opcode, want codegen.Opcode) int {
	n := 0
	for _, op := range ops {
		if op == want {
			n++
		}
	}
	return n
}

func contains(ops []codegen.Opcode, want codegen.Opcode) bool {
	return count(ops, want) > 0
}

// everyJumpLandsOnDest is the universal invariant: every JUMP/JUMPI whose
// target the generator patched (pushed by the PUSH2 immediately before it,
// read as a big-endian offset) must point at a JUMPDEST. A jump whose
// target is loaded at run time (an internal function's return through its
// stashed return address) has no static target and is not checked here.
func everyJumpLandsOnDest(t *testing.T, code []byte) bool {
	t.Helper()
	var prev codegen.Opcode
	for i := 0; i < len(code); {
		op := codegen.Opcode(code[i])
		if (op == codegen.JUMP || op == codegen.JUMPI) && prev == codegen.Opcode(int(codegen.PUSH1)+1) && i >= 3 {
			target := int(code[i-2])<<8 | int(code[i-1])
			if target < 0 || target >= len(code) || codegen.Opcode(code[target]) != codegen.JUMPDEST {
				return false
			}
		}
		prev = op
		i++
		if op >= codegen.PUSH1 && op <= codegen.Opcode(int(codegen.PUSH1)+31) {
			i += int(op) - int(codegen.PUSH1) + 1
		}
	}
	return true
}

func mustCompile(t *testing.T, src string) Result {
	t.Helper()
	res := Compile("scenario.bug", src)
	require.False(t, res.HasErrors(), "unexpected diagnostics: %+v", res.Diagnostics)
	return res
}

// Scenario 1 (spec §8): an empty body compiles to zero runtime bytes and a
// deployment blob that still ends in the CODECOPY/RETURN epilogue.
func TestScenario1_EmptyProgram(t *testing.T) {
	src := "name Empty;\ncode {\n}\n"
	res := mustCompile(t, src)

	assert.Empty(t, res.Runtime)
	require.NotEmpty(t, res.Deployment)

	ops := decode(t, res.Deployment)
	require.GreaterOrEqual(t, len(ops), 2)
	assert.Equal(t, codegen.CODECOPY, ops[len(ops)-2])
	assert.Equal(t, codegen.RETURN, ops[len(ops)-1])
}

// Scenario 2 (spec §8): storing a constant into storage slot 0 emits one
// SSTORE and no SHA3 (a plain scalar slot needs no hashing). The spec's own
// §4.7 instruction-lowering rule calls for PUSH0 on a zero operand, which is
// what slot 0's address lowers to here — so this asserts SSTORE/absence of
// SHA3 rather than a literal "PUSH1 0x00" byte sequence.
func TestScenario2_ConstantStore(t *testing.T) {
	src := `name Store;
x: uint256 @slot(0);
create {
	x = 42;
}
code {
}
`
	res := mustCompile(t, src)
	ops := decode(t, res.Deployment)

	assert.Equal(t, 1, count(ops, codegen.SSTORE))
	assert.False(t, contains(ops, codegen.SHA3))
}

// Scenario 3 (spec §8): writing into a fixed-size array at a constant index
// folds the slot arithmetic at build time (ir/builder.go's addSlot), so no
// KECCAK256/SHA3 is emitted for any of the three writes.
func TestScenario3_FixedArrayWrite(t *testing.T) {
	src := `name Arr;
items: array<uint256, 3> @slot(0);
create {
	items[0] = 10;
	items[1] = 20;
	items[2] = 30;
}
code {
}
`
	res := mustCompile(t, src)
	ops := decode(t, res.Deployment)

	assert.Equal(t, 3, count(ops, codegen.SSTORE))
	assert.False(t, contains(ops, codegen.SHA3))
}

// Scenario 4 (spec §8): reading a mapping keyed on msg.sender hashes the
// (key, base-slot) pair via the compute_slot pattern: CALLER supplies the
// key, the two words are staged through scratch memory, SHA3 derives the
// slot, SLOAD reads it, and the result is returned as a single 32-byte word.
func TestScenario4_MappingRead(t *testing.T) {
	src := `name Bal;
balances: mapping<address, uint256> @slot(1);
code {
	return balances[msg.sender];
}
`
	res := mustCompile(t, src)
	ops := decode(t, res.Runtime)

	require.True(t, contains(ops, codegen.CALLER))
	require.True(t, contains(ops, codegen.SHA3))
	require.True(t, contains(ops, codegen.SLOAD))
	require.True(t, contains(ops, codegen.RETURN))

	callerIdx, sha3Idx, sloadIdx, returnIdx := -1, -1, -1, -1
	for i, op := range ops {
		switch op {
		case codegen.CALLER:
			if callerIdx < 0 {
				callerIdx = i
			}
		case codegen.SHA3:
			if sha3Idx < 0 {
				sha3Idx = i
			}
		case codegen.SLOAD:
			if sloadIdx < 0 {
				sloadIdx = i
			}
		case codegen.RETURN:
			returnIdx = i
		}
	}
	assert.Less(t, callerIdx, sha3Idx, "the key must be staged before hashing")
	assert.Less(t, sha3Idx, sloadIdx, "the slot must be computed before it is loaded")
	assert.Less(t, sloadIdx, returnIdx, "the loaded value must precede returning it")
}

// Scenario 5 (spec §8): an if/else whose then-branch merges straight into
// the else block's successor produces exactly one JUMPI, one JUMP, and two
// JUMPDESTs — fallthrough elision (term.go's jumpTo) is what keeps this from
// doubling the JUMP count.
func TestScenario5_Conditional(t *testing.T) {
	src := `name Cond;
x: uint256 @slot(0);
code {
	let c: uint256 = 0;
	if (msg.value > c) {
		x = 1;
	} else {
		x = 2;
	}
}
`
	res := mustCompile(t, src)
	ops := decode(t, res.Runtime)

	assert.Equal(t, 1, count(ops, codegen.JUMPI))
	assert.Equal(t, 1, count(ops, codegen.JUMP))
	assert.Equal(t, 2, count(ops, codegen.JUMPDEST))
	assert.True(t, everyJumpLandsOnDest(t, res.Runtime))
}

// Scenario 6 (spec §8): a counting loop's induction variable is a phi
// sourced from the loop entry (the initial value) and the loop latch (the
// incremented value) — this is exercised indirectly here by checking the
// loop still produces a well-formed, fully-patched jump graph.
func TestScenario6_Loop(t *testing.T) {
	src := `name Loop;
total: uint256 @slot(0);
code {
	let i: uint256 = 0;
	for (let j: uint256 = 0; j < 10; j = j + 1) {
		total = total + j;
	}
	i = i + 1;
}
`
	res := mustCompile(t, src)
	require.NotEmpty(t, res.Runtime)

	ops := decode(t, res.Runtime)
	assert.True(t, contains(ops, codegen.JUMPI))
	assert.True(t, contains(ops, codegen.JUMP))
	assert.True(t, everyJumpLandsOnDest(t, res.Runtime))
}

// Universal invariant (spec §8): serialized bytecode length equals the sum
// of every instruction's 1 opcode byte plus its immediate bytes — decode
// walking off the end of the slice (rather than landing exactly on it)
// would indicate a miscounted PUSH.
func TestInvariant_LengthIsSumOfInstructions(t *testing.T) {
	src := `name Sum;
total: uint256 @slot(0);
code {
	total = total + 1;
}
`
	res := mustCompile(t, src)
	var consumed int
	for consumed < len(res.Runtime) {
		op := codegen.Opcode(res.Runtime[consumed])
		consumed++
		if op >= codegen.PUSH1 && op <= codegen.Opcode(int(codegen.PUSH1)+31) {
			consumed += int(op) - int(codegen.PUSH1) + 1
		}
	}
	assert.Equal(t, len(res.Runtime), consumed)
}

// Universal invariant (spec §8): compiling the same source twice is
// deterministic — no map-iteration-order leakage into the emitted bytes.
func TestInvariant_Deterministic(t *testing.T) {
	src := `name Det;
balances: mapping<address, uint256> @slot(1);
items: array<uint256, 3> @slot(2);
code {
	balances[msg.sender] = items[0];
}
`
	a := mustCompile(t, src)
	b := mustCompile(t, src)
	assert.Equal(t, a.Runtime, b.Runtime)
	assert.Equal(t, a.Deployment, b.Deployment)
}

// Signed int256 division/comparison must use the two's-complement opcodes
// (SDIV/SLT), not the unsigned ones, else `-10 / 3` and `-10 < 3` read the
// bit pattern as a huge unsigned value and get the wrong answer.
func TestBinary_SignedOperandsUseSignedOpcodes(t *testing.T) {
	src := `name Signed;
fn divide(a: int256, b: int256): int256 {
	return a / b;
}
fn less(a: int256, b: int256): bool {
	return a < b;
}
code {
}
`
	res := mustCompile(t, src)
	ops := decode(t, res.Deployment)

	assert.True(t, contains(ops, codegen.SDIV), "expected SDIV for int256 division")
	assert.True(t, contains(ops, codegen.SLT), "expected SLT for int256 comparison")
	assert.False(t, contains(ops, codegen.DIV), "unsigned DIV should not appear for an all-signed program")
	assert.False(t, contains(ops, codegen.LT), "unsigned LT should not appear for an all-signed program")
}

// A call to a user-defined function as the very first instruction of a
// block exercises the narrowest possible symbolic stack at the return-
// address stash in lowerCall; a stack-tracking miscount there would
// underflow g.stack rather than just mis-size it.
func TestCall_UserFunctionAsFirstBlockInstruction(t *testing.T) {
	src := `name Call;
result: uint256 @slot(0);
fn double(x: uint256): uint256 {
	return x + x;
}
code {
	result = double(21);
}
`
	res := mustCompile(t, src)
	ops := decode(t, res.Deployment)

	assert.True(t, contains(ops, codegen.JUMP), "expected the call-site jump into the callee")
	assert.True(t, contains(ops, codegen.SSTORE))
	assert.True(t, everyJumpLandsOnDest(t, res.Runtime))
}

func TestCompile_ParseErrorKeepsNoPartialResults(t *testing.T) {
	res := Compile("bad.bug", "not a valid program at all {{{")
	assert.True(t, res.HasErrors())
	assert.Nil(t, res.Symbols)
	assert.Nil(t, res.IR)
	assert.Empty(t, res.Runtime)
}

func TestCompile_CheckErrorKeepsSymbolsNotIR(t *testing.T) {
	src := `name Bad;
code {
	return undeclared_name;
}
`
	res := Compile("bad.bug", src)
	assert.True(t, res.HasErrors())
	assert.NotNil(t, res.Symbols)
	assert.Nil(t, res.IR)
}
