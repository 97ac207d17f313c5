/*
 * wut86 - Trace consumers
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

// Package trace holds pure functions over a finished TraceEntry stream:
// the pedagogical analyzers (cycle accounting, branch prediction, cache
// simulation, data-hazard counting) that consume a run's trace without
// being part of the stepper itself. None of these types mutate or even
// see a *stepper.Session; they only ever read an ordered
// []stepper.TraceEntry.
package trace

import (
	"strings"

	"github.com/wut86/wut86/vm/stepper"
)

// FormatOutput renders a program's accumulated output events per the
// debugger's format: numeric outputs as decimal digits followed by a
// newline, character outputs accumulating into the current line, with
// a character of value 10 terminating the current line.
func FormatOutput(events []stepper.OutputEvent) string {
	var b strings.Builder
	for _, e := range events {
		switch e.Kind {
		case stepper.OutputNumber:
			b.WriteString(itoa(int(e.Value)))
			b.WriteByte('\n')
		case stepper.OutputChar:
			if e.Value == 10 {
				b.WriteByte('\n')
			} else {
				b.WriteByte(byte(e.Value))
			}
		}
	}
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

// Stats is the aggregate instruction-level summary an analytics panel
// would display: total instructions, total cycles, and a per-opcode
// histogram, computed as a single pass over the trace.
type Stats struct {
	Instructions int
	TotalCycles  int
	ByOpcode     map[string]int
}

// Analyze computes Stats from a completed trace.
func Analyze(entries []stepper.TraceEntry) Stats {
	st := Stats{ByOpcode: map[string]int{}}
	for _, e := range entries {
		st.Instructions++
		st.TotalCycles += e.Cycles
		st.ByOpcode[opcodeOf(e)]++
	}
	return st
}

func opcodeOf(e stepper.TraceEntry) string {
	text := e.InstructionText
	if idx := strings.IndexByte(text, ' '); idx >= 0 {
		return text[:idx]
	}
	return text
}

func operandsOf(e stepper.TraceEntry) []string {
	text := e.InstructionText
	idx := strings.IndexByte(text, ' ')
	if idx < 0 {
		return nil
	}
	parts := strings.Split(text[idx+1:], ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

var conditionalJumps = map[string]bool{
	"JE": true, "JZ": true, "JNE": true, "JNZ": true,
	"JL": true, "JNGE": true, "JG": true, "JNLE": true,
	"JLE": true, "JNG": true, "JGE": true, "JNL": true,
	"JC": true, "JB": true, "JNAE": true, "JNC": true, "JAE": true, "JNB": true,
	"JS": true, "JNS": true, "JO": true, "JNO": true,
}

// IsConditionalBranch reports whether e executed a Jcc instruction.
func IsConditionalBranch(e stepper.TraceEntry) bool {
	return conditionalJumps[opcodeOf(e)]
}

// BranchTaken reports whether a conditional branch entry actually
// redirected control flow, inferred from IPBefore/IPAfter rather than
// re-evaluating flags: a fall-through advances IP by exactly one.
func BranchTaken(e stepper.TraceEntry) bool {
	return e.IPAfter != e.IPBefore+1
}
