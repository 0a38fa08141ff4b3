package types

import (
	"strconv"
	"strings"
)

// ParseElementaryType resolves one of the built-in scalar type names (bool,
// address, bytes, string, uintN, intN, bytesN) to its Type value. ok is
// false for anything else (a struct name, or garbage).
func ParseElementaryType(name string) (Type, bool) {
	switch name {
	case "bool":
		return Bool{}, true
	case "address":
		return Address{}, true
	case "bytes":
		return Bytes{}, true
	case "string":
		return String{}, true
	}
	if rest, ok := strings.CutPrefix(name, "uint"); ok {
		if bits, ok := bitWidth(rest); ok {
			return Uint{Bits: bits}, true
		}
		return nil, false
	}
	if rest, ok := strings.CutPrefix(name, "int"); ok {
		if bits, ok := bitWidth(rest); ok {
			return Int{Bits: bits}, true
		}
		return nil, false
	}
	if rest, ok := strings.CutPrefix(name, "bytes"); ok {
		n, err := strconv.Atoi(rest)
		if err == nil && n >= 1 && n <= 32 {
			return BytesN{N: n}, true
		}
		return nil, false
	}
	return nil, false
}

// ElementaryTypeName reports whether name denotes a built-in scalar type
// rather than a user struct or function. The parser uses this to tell a
// cast `uint256(x)` apart from a call `transfer(x)` — both have identical
// syntax (Ident "(" Expr ")") and only the name distinguishes them.
func ElementaryTypeName(name string) bool {
	_, ok := ParseElementaryType(name)
	return ok
}

func bitWidth(rest string) (int, bool) {
	n, err := strconv.Atoi(rest)
	if err != nil || !ValidBitWidth(n) {
		return 0, false
	}
	return n, true
}
