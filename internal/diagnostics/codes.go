package diagnostics

// Code namespaces (spec §6.4):
//   PARSE_*  — lexing/parsing failures (§6.1)
//   TYPE_*   — type checker diagnostics (C3)
//   IRGEN_*  — IR generator diagnostics (C5)
//   EVM_*    — EVM code generator diagnostics (C10), EVM001-EVM999
const (
	// Parser
	CodeParseSyntax = "PARSE_SYNTAX"

	// Type checker (C3)
	CodeUndefinedVariable   = "TYPE_UNDEFINED_VARIABLE"
	CodeUndefinedFunction   = "TYPE_UNDEFINED_FUNCTION"
	CodeUndefinedType       = "TYPE_UNDEFINED_TYPE"
	CodeUndefinedField      = "TYPE_NO_SUCH_FIELD"
	CodeTypeMismatch        = "TYPE_MISMATCH"
	CodeInvalidCast         = "TYPE_INVALID_CAST"
	CodeInvalidCondition    = "TYPE_INVALID_CONDITION"
	CodeInvalidOperands     = "TYPE_INVALID_OPERANDS"
	CodeArityMismatch       = "TYPE_ARITY_MISMATCH"
	CodeNotAssignable       = "TYPE_NOT_ASSIGNABLE"
	CodeInvalidReturnType   = "TYPE_INVALID_RETURN"
	CodeDuplicateDecl       = "TYPE_DUPLICATE_DECLARATION"
	CodeInvalidSlice        = "TYPE_INVALID_SLICE"
	CodeInvalidIndex        = "TYPE_INVALID_INDEX"
	CodeBreakOutsideLoop    = "TYPE_BREAK_OUTSIDE_LOOP"
	CodeUnusedVariable      = "TYPE_UNUSED_VARIABLE" // warning
	CodeUnreachableCodeType = "TYPE_UNREACHABLE_CODE" // warning

	// IR generator (C5)
	CodeIRUnknownIdentifier   = "IRGEN_UNKNOWN_IDENTIFIER"
	CodeIRUnsupportedStorage  = "IRGEN_UNSUPPORTED_STORAGE_PATTERN"
	CodeIRUnreachableBlock    = "IRGEN_UNREACHABLE_BLOCK" // warning

	// EVM code generator (C10): EVM001-EVM999
	CodeEVMStackUnderflow     = "EVM001"
	CodeEVMBadDupSwap         = "EVM002"
	CodeEVMUnallocatedValue   = "EVM003"
	CodeEVMUnresolvedPhi      = "EVM004"
	CodeEVMMissingJumpTarget  = "EVM005"
	CodeEVMUnsupportedInstr   = "EVM006" // warning for an unrecognised IR instruction kind; an error for other unsupported constructs
)
