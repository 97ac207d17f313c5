/*
 * wut86 - Stage diagnostics
 *
 * Copyright 2026, wut86 authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package diag collects per-stage diagnostics (Lexical Analysis, Parsing,
// Code Generation, Assembly) for the compiler/assembler pipeline: ordered,
// append-only, and inspectable as data rather than only printed.
package diag

import "fmt"

// Severity of a single diagnostic.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Diagnostic is one message attached to a source line within a stage.
type Diagnostic struct {
	Line     int
	Message  string
	Severity Severity
}

// Bag is the ordered diagnostic list for a single pipeline stage.
type Bag struct {
	Stage string
	items []Diagnostic
}

func NewBag(stage string) *Bag {
	return &Bag{Stage: stage}
}

func (b *Bag) Warnf(line int, format string, a ...any) {
	b.add(line, Warning, format, a...)
}

func (b *Bag) Errorf(line int, format string, a ...any) {
	b.add(line, Error, format, a...)
}

func (b *Bag) add(line int, sev Severity, format string, a ...any) {
	b.items = append(b.items, Diagnostic{
		Line:     line,
		Message:  fmt.Sprintf(format, a...),
		Severity: sev,
	})
}

// Items returns the diagnostics recorded so far, in emission order.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// HasErrors reports whether any diagnostic in the bag is Error severity.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}
