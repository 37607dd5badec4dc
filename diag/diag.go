// Package diag implements leveled diagnostics with source excerpts, shared
// by package parse and package check (spec.md §7).
package diag

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
)

type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a single leveled message anchored at a source position,
// optionally with the source line it refers to for a highlighted excerpt.
type Diagnostic struct {
	File     string
	Line, Col int
	Severity Severity
	Wrapped  error
	Source   string // the offending source line, if known; "" to omit
}

func New(file string, line, col int, sev Severity, err error) *Diagnostic {
	return &Diagnostic{File: file, Line: line, Col: col, Severity: sev, Wrapped: err}
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Col, d.Severity, d.Wrapped)
}

func (d *Diagnostic) Unwrap() error { return d.Wrapped }

// Format renders the diagnostic plus, when Source is set, a caret-highlighted
// excerpt underneath it -- the "L:C: error: <message>" plus source excerpt
// spec.md §7 calls for.
func (d *Diagnostic) Format() string {
	b := &strings.Builder{}
	b.WriteString(d.Error())
	if d.Source != "" {
		b.WriteByte('\n')
		b.WriteString(d.Source)
		b.WriteByte('\n')
		col := d.Col - 1
		if col < 0 {
			col = 0
		}
		b.WriteString(strings.Repeat(" ", col))
		b.WriteByte('^')
	}
	return b.String()
}

// Bag accumulates diagnostics across a pass that keeps going after the first
// error (spec.md §7: "accumulate ... checking continues in sibling
// subtrees").
type Bag struct {
	diags []*Diagnostic
}

func (b *Bag) Add(d *Diagnostic) { b.diags = append(b.diags, d) }

func (b *Bag) Errorf(file string, line, col int, format string, a ...interface{}) {
	b.Add(New(file, line, col, Error, fmt.Errorf(format, a...)))
}

func (b *Bag) HasErrors() bool {
	for _, d := range b.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

func (b *Bag) All() []*Diagnostic { return b.diags }

// Mismatch renders a structural "expected vs. got" note using go-cmp, for
// the few diagnostics that need to show two incompatible shapes rather than
// a single %v (e.g. a struct's declared signature vs. an inferred one).
func Mismatch(expected, got interface{}) string {
	return cmp.Diff(expected, got)
}
