// Package repl is an interactive front end for internal/compiler: it
// accumulates source lines until a blank line, compiles the buffered
// program, and prints diagnostics plus (on a clean compile) the resulting
// bytecode — the teacher's repl.go wired two packages that no longer
// exist (kanso-lang/lexer, kanso-lang/parser) under this module's own
// name, so this version replaces that body with the real pipeline while
// keeping the same line-scanning loop shape.
package repl

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"bugc/internal/compiler"
	"bugc/internal/diagnostics"
)

const PROMPT = ">> "

// Start reads from in until EOF, compiling each blank-line-delimited
// chunk of source as one program.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	var buf strings.Builder

	flush := func() {
		src := buf.String()
		buf.Reset()
		if strings.TrimSpace(src) == "" {
			return
		}
		res := compiler.Compile("<repl>", src)
		reporter := diagnostics.NewReporter("<repl>", src)
		for _, d := range res.Diagnostics {
			fmt.Fprint(out, reporter.Format(d))
		}
		if !res.HasErrors() && len(res.Runtime) > 0 {
			fmt.Fprintf(out, "runtime: 0x%s\n", hex.EncodeToString(res.Runtime))
		}
	}

	fmt.Fprint(out, PROMPT)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			fmt.Fprint(out, PROMPT)
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	flush()
}
