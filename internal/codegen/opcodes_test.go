package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushOp_ZeroIsPush0(t *testing.T) {
	assert.Equal(t, PUSH0, pushOp(0))
	assert.Equal(t, PUSH1, pushOp(1))
	assert.Equal(t, Opcode(0x7f), pushOp(32)) // PUSH32
}

func TestMinimalBytes_TrimsLeadingZeros(t *testing.T) {
	var word [32]byte
	assert.Equal(t, []byte{}, minimalBytes(word))

	word[31] = 0x2a
	assert.Equal(t, []byte{0x2a}, minimalBytes(word))

	word[30] = 0x01
	assert.Equal(t, []byte{0x01, 0x2a}, minimalBytes(word))
}

func TestDupAndSwapOp(t *testing.T) {
	assert.Equal(t, DUP1, dupOp(1))
	assert.Equal(t, Opcode(int(DUP1)+3), dupOp(4))
	assert.Equal(t, SWAP1, swapOp(1))
	assert.Equal(t, Opcode(int(SWAP1)+2), swapOp(3))
}
