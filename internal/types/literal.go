package types

import (
	"fmt"

	"github.com/holiman/uint256"
)

// ParseUintLiteral parses a decimal numeric literal into a uint256, the
// same fixed-width integer type the EVM (and the code generator, and
// _examples/Fantom-foundation-Tosca's reference interpreter) use natively,
// and reports whether it fits in the given bit width.
func ParseUintLiteral(raw string, bits int) (*uint256.Int, bool, error) {
	v, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, false, fmt.Errorf("invalid numeric literal %q: %w", raw, err)
	}
	if bits >= 256 {
		return v, true, nil
	}
	limit := uint256.NewInt(1)
	limit.Lsh(limit, uint(bits))
	fits := v.Lt(limit)
	return v, fits, nil
}

// ParseHexLiteral parses hex digits (without the leading "0x") into a
// uint256, used when a hex literal is folded into a numeric or address
// context.
func ParseHexLiteral(hexDigits string) (*uint256.Int, error) {
	v, err := uint256.FromHex("0x" + hexDigits)
	if err != nil {
		return nil, fmt.Errorf("invalid hex literal %q: %w", hexDigits, err)
	}
	return v, nil
}
