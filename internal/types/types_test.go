package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseElementaryType(t *testing.T) {
	cases := []struct {
		name string
		want Type
	}{
		{"bool", Bool{}},
		{"address", Address{}},
		{"bytes", Bytes{}},
		{"string", String{}},
		{"uint256", Uint{Bits: 256}},
		{"int8", Int{Bits: 8}},
		{"bytes32", BytesN{N: 32}},
	}
	for _, c := range cases {
		got, ok := ParseElementaryType(c.name)
		assert.True(t, ok, "expected %q to parse", c.name)
		assert.Equal(t, c.want, got)
	}
}

func TestParseElementaryType_RejectsInvalidWidthsAndNames(t *testing.T) {
	for _, name := range []string{"uint7", "int257", "bytes33", "bytes0", "Token", "u256"} {
		_, ok := ParseElementaryType(name)
		assert.False(t, ok, "expected %q to be rejected", name)
	}
}

func TestValidBitWidth(t *testing.T) {
	for _, bits := range []int{8, 16, 32, 64, 128, 256} {
		assert.True(t, ValidBitWidth(bits))
	}
	for _, bits := range []int{0, 7, 24, 255, 257} {
		assert.False(t, ValidBitWidth(bits))
	}
}

func TestCommonType_WidensToLargerSameSignedness(t *testing.T) {
	got, ok := CommonType(Uint{Bits: 8}, Uint{Bits: 256})
	assert.True(t, ok)
	assert.Equal(t, Uint{Bits: 256}, got)

	_, ok = CommonType(Uint{Bits: 8}, Int{Bits: 8})
	assert.False(t, ok, "mismatched signedness should not unify")

	_, ok = CommonType(Uint{Bits: 8}, Bool{})
	assert.False(t, ok, "a non-numeric operand should not unify")
}

func TestParseUintLiteral_RejectsOverflow(t *testing.T) {
	_, fits, err := ParseUintLiteral("256", 8)
	assert.NoError(t, err)
	assert.False(t, fits)

	v, fits, err := ParseUintLiteral("255", 8)
	assert.NoError(t, err)
	assert.True(t, fits)
	assert.Equal(t, uint64(255), v.Uint64())
}
