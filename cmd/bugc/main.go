package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/fatih/color"

	"bugc/internal/compiler"
	"bugc/internal/diagnostics"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: bugc <file.bug>")
		os.Exit(1)
	}

	path := os.Args[1]
	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read %s: %s", path, err)
		os.Exit(1)
	}

	res := compiler.Compile(path, string(source))

	reporter := diagnostics.NewReporter(path, string(source))
	for _, d := range res.Diagnostics {
		fmt.Print(reporter.Format(d))
	}

	if res.HasErrors() {
		os.Exit(1)
	}

	if len(res.Deployment) > 0 {
		color.Cyan("deployment: 0x%s", hex.EncodeToString(res.Deployment))
	}
	if len(res.Runtime) > 0 {
		color.Cyan("runtime:    0x%s", hex.EncodeToString(res.Runtime))
	}
	color.Green("✅ compiled %s", path)
}
