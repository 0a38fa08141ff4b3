package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bugc/internal/ast"
)

func TestBag_BySeverityPreservesOrder(t *testing.T) {
	bag := &Bag{}
	bag.Warnf(nil, "W1", "first warning")
	bag.Errorf(nil, "E1", "first error")
	bag.Warnf(nil, "W2", "second warning")

	warnings := bag.BySeverity(Warning)
	require.Len(t, warnings, 2)
	assert.Equal(t, "W1", warnings[0].Code)
	assert.Equal(t, "W2", warnings[1].Code)

	assert.True(t, bag.HasErrors())
	assert.Len(t, bag.All(), 3)
}

func TestBag_MergeAppendsInOrder(t *testing.T) {
	a := &Bag{}
	a.Errorf(nil, "E1", "from a")
	b := &Bag{}
	b.Errorf(nil, "E2", "from b")

	a.Merge(b)
	require.Len(t, a.All(), 2)
	assert.Equal(t, "E1", a.All()[0].Code)
	assert.Equal(t, "E2", a.All()[1].Code)
}

func TestBag_MergeNilIsNoop(t *testing.T) {
	a := &Bag{}
	a.Errorf(nil, "E1", "solo")
	a.Merge(nil)
	assert.Len(t, a.All(), 1)
}

func TestReporter_FormatIncludesLocationAndCaret(t *testing.T) {
	source := "name X;\ncode {\n\tlet y = bogus;\n}\n"
	reporter := NewReporter("x.bug", source)

	d := Diagnostic{
		Severity: Error,
		Code:     "TYPE_UNDEFINED_VARIABLE",
		Message:  `undefined variable "bogus"`,
		Pos:      &ast.Position{Filename: "x.bug", Line: 3, Column: 10},
		Length:   5,
	}
	out := reporter.Format(d)

	assert.Contains(t, out, "TYPE_UNDEFINED_VARIABLE")
	assert.Contains(t, out, "bogus")
	assert.Contains(t, out, "3:10")
	assert.Contains(t, out, "^")
}

func TestReporter_FormatWithoutPositionSkipsSourceSnippet(t *testing.T) {
	reporter := NewReporter("x.bug", "name X;\ncode {}\n")
	out := reporter.Format(Diagnostic{Severity: Error, Code: "E", Message: "no location"})
	assert.Contains(t, out, "no location")
	assert.NotContains(t, out, "-->")
}
