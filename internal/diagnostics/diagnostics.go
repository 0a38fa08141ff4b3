// Package diagnostics is the compiler's error model (C11): every stage
// reports through here instead of returning a bare error, so a fatal
// problem at one stage never prevents inspection of what earlier stages
// produced (spec §2, §7).
package diagnostics

import (
	"fmt"

	"bugc/internal/ast"
)

// Severity classifies a Diagnostic. Error aborts subsequent stages;
// Warning and Info never do (spec §7).
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "info"
	}
}

// Diagnostic is a single structured compiler message (spec §6.4).
type Diagnostic struct {
	Severity Severity
	Code     string // short code from a fixed namespace, e.g. "TYPE_MISMATCH"
	Message  string
	Pos      *ast.Position // nil when the diagnostic has no single source location
	Length   int           // width of the offending span, in columns; 0 => 1

	Expected string // optional: expected type string
	Actual   string // optional: actual type string

	Notes       []string
	Suggestions []string
}

func (d Diagnostic) String() string {
	if d.Pos != nil {
		return fmt.Sprintf("%s: [%s] %s (%s)", d.Severity, d.Code, d.Message, d.Pos)
	}
	return fmt.Sprintf("%s: [%s] %s", d.Severity, d.Code, d.Message)
}

// Bag accumulates diagnostics across the whole pipeline and groups them by
// severity on demand, matching the teacher's accumulate-then-format flow.
type Bag struct {
	diags []Diagnostic
}

func (b *Bag) Add(d Diagnostic) { b.diags = append(b.diags, d) }

func (b *Bag) Errorf(pos *ast.Position, code, format string, args ...any) {
	b.Add(Diagnostic{Severity: Error, Code: code, Message: fmt.Sprintf(format, args...), Pos: pos, Length: 1})
}

func (b *Bag) Warnf(pos *ast.Position, code, format string, args ...any) {
	b.Add(Diagnostic{Severity: Warning, Code: code, Message: fmt.Sprintf(format, args...), Pos: pos, Length: 1})
}

func (b *Bag) Infof(pos *ast.Position, code, format string, args ...any) {
	b.Add(Diagnostic{Severity: Info, Code: code, Message: fmt.Sprintf(format, args...), Pos: pos, Length: 1})
}

// All returns every diagnostic in insertion order (spec §5: deterministic
// ordering, insertion order for ordered sequences).
func (b *Bag) All() []Diagnostic { return b.diags }

// BySeverity returns the diagnostics matching sev, preserving insertion
// order.
func (b *Bag) BySeverity(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range b.diags {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any Error-severity diagnostic was recorded.
// Per spec §2/§7, a true result means subsequent stages must not run.
func (b *Bag) HasErrors() bool {
	for _, d := range b.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Merge appends another bag's diagnostics onto this one, preserving order.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.diags = append(b.diags, other.diags...)
}
