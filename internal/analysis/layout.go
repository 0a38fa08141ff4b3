package analysis

import "bugc/internal/ir"

// BlockOrder returns fn's blocks in the order codegen should emit them
// (spec §4.6): reverse postorder from the entry, skipping anything
// unreachable.
func BlockOrder(fn *ir.Function) []ir.Label {
	return reversePostOrder(fn)
}
