package diagnostics

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Reporter renders Diagnostics with Rust-like caret styling, adapted from
// the teacher's ErrorReporter (errors/reporter.go): a "-->" location line,
// the offending source line with a caret underline, then notes/help text.
type Reporter struct {
	filename string
	lines    []string
}

func NewReporter(filename, source string) *Reporter {
	return &Reporter{filename: filename, lines: strings.Split(source, "\n")}
}

// Format renders a single diagnostic as a multi-line, colorized string.
func (r *Reporter) Format(d Diagnostic) string {
	var b strings.Builder
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	sevColor := r.severityColor(d.Severity)

	fmt.Fprintf(&b, "%s[%s]: %s\n", sevColor(d.Severity.String()), d.Code, d.Message)

	if d.Pos == nil {
		b.WriteString("\n")
		return b.String()
	}

	width := lineNumberWidth(d.Pos.Line)
	indent := strings.Repeat(" ", width)
	fmt.Fprintf(&b, "%s %s %s\n", indent, dim("-->"), d.Pos)
	fmt.Fprintf(&b, "%s %s\n", indent, dim("│"))

	if d.Pos.Line > 0 && d.Pos.Line <= len(r.lines) {
		fmt.Fprintf(&b, "%s %s %s\n", bold(pad(d.Pos.Line, width)), dim("│"), r.lines[d.Pos.Line-1])
		length := d.Length
		if length <= 0 {
			length = 1
		}
		marker := strings.Repeat(" ", max0(d.Pos.Column-1)) + strings.Repeat("^", length)
		fmt.Fprintf(&b, "%s %s %s\n", indent, dim("│"), sevColor(marker))
	}

	for _, n := range d.Notes {
		fmt.Fprintf(&b, "%s %s %s %s\n", indent, dim("│"), color.New(color.FgBlue).Sprint("note:"), n)
	}
	for i, s := range d.Suggestions {
		label := "help"
		if i > 0 {
			label = "    "
		}
		fmt.Fprintf(&b, "%s %s %s: %s\n", indent, color.New(color.FgCyan).Sprint(label), color.New(color.FgCyan).Sprint("try"), s)
	}

	b.WriteString("\n")
	return b.String()
}

// FormatAll renders every diagnostic in the bag, in order.
func (r *Reporter) FormatAll(b *Bag) string {
	var sb strings.Builder
	for _, d := range b.All() {
		sb.WriteString(r.Format(d))
	}
	return sb.String()
}

func (r *Reporter) severityColor(sev Severity) func(a ...any) string {
	switch sev {
	case Error:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	default:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	}
}

func lineNumberWidth(line int) int {
	w := len(fmt.Sprintf("%d", line))
	if w < 3 {
		return 3
	}
	return w
}

func pad(n, width int) string { return fmt.Sprintf("%*d", width, n) }

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
