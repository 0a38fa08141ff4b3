package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"bugc/internal/diagnostics"
)

// convertDiagnostics maps this compiler's diagnostics onto LSP's wire
// format. A nil Pos (codegen-stage diagnostics have no single source
// location) is pinned to the document's first character rather than
// dropped — editors still need somewhere to render it.
func convertDiagnostics(diags []diagnostics.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		line, col := 0, 0
		if d.Pos != nil {
			line = d.Pos.Line - 1
			col = d.Pos.Column - 1
		}
		if line < 0 {
			line = 0
		}
		if col < 0 {
			col = 0
		}
		length := d.Length
		if length <= 0 {
			length = 1
		}

		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(line), Character: uint32(col)},
				End:   protocol.Position{Line: uint32(line), Character: uint32(col + length)},
			},
			Severity: ptrSeverity(convertSeverity(d.Severity)),
			Source:   ptrString("bugc"),
			Message:  d.Code + ": " + d.Message,
		})
	}
	return out
}

func convertSeverity(s diagnostics.Severity) protocol.DiagnosticSeverity {
	switch s {
	case diagnostics.Error:
		return protocol.DiagnosticSeverityError
	case diagnostics.Warning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity { return &s }
func ptrString(s string) *string                                           { return &s }
