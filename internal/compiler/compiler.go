// Package compiler wires the whole pipeline together: parse, check, build
// IR, promote to SSA, plan memory, and emit EVM bytecode. It is the single
// entrypoint cmd/bugc and internal/lsp both call through.
package compiler

import (
	"bugc/internal/analysis"
	"bugc/internal/check"
	"bugc/internal/codegen"
	"bugc/internal/diagnostics"
	"bugc/internal/ir"
	"bugc/internal/parser"
	"bugc/internal/symbols"
)

// Result is everything a compile produces. A fatal Error at any stage
// aborts the stages after it, but whatever earlier stages already
// published — the symbol table, the IR module — stays attached so tooling
// (the LSP, the REPL) can still inspect how far the pipeline got.
type Result struct {
	Runtime     []byte
	Deployment  []byte
	Diagnostics []diagnostics.Diagnostic
	Symbols     *symbols.Table // nil on a parse failure
	IR          *ir.Module     // nil on a parse or check failure
}

// HasErrors reports whether any diagnostic in the result is an Error.
func (r Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == diagnostics.Error {
			return true
		}
	}
	return false
}

// Compile runs the full pipeline over one BUG source file. Each stage's
// diagnostics are folded into the single returned list in pipeline order;
// a stage with a fatal Error still lets earlier diagnostics (and, where
// produced, earlier partial results) through rather than discarding them.
func Compile(filename, source string) Result {
	var all []diagnostics.Diagnostic

	prog, parseBag, err := parser.ParseSource(filename, source)
	all = append(all, parseBag.All()...)
	if err != nil {
		all = append(all, diagnostics.Diagnostic{
			Severity: diagnostics.Error,
			Code:     diagnostics.CodeParseSyntax,
			Message:  err.Error(),
		})
		return Result{Diagnostics: all}
	}
	if hasError(parseBag) {
		return Result{Diagnostics: all}
	}

	checked := check.Check(prog)
	all = append(all, checked.Diags.All()...)
	if hasError(checked.Diags) {
		return Result{Diagnostics: all, Symbols: checked.Symbols}
	}

	mod, irBag := ir.Build(prog, checked.Symbols, checked.Types)
	all = append(all, irBag.All()...)
	if hasError(irBag) {
		return Result{Diagnostics: all, Symbols: checked.Symbols, IR: mod}
	}

	analysis.Promote(mod)

	genBag := &diagnostics.Bag{}
	out := codegen.Generate(mod, genBag)
	all = append(all, genBag.All()...)

	res := Result{Diagnostics: all, Symbols: checked.Symbols, IR: mod}
	if !hasError(genBag) {
		res.Runtime = out.Runtime
		res.Deployment = out.Deployment
	}
	return res
}

func hasError(bag *diagnostics.Bag) bool {
	return len(bag.BySeverity(diagnostics.Error)) > 0
}
