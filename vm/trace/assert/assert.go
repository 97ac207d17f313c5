/*
 * wut86 - Assertion scripts
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

// Package assert implements the small line-oriented assertion language
// used to check a finished run without hand-writing Go: one statement
// per line, checked against the final CPU state and the accumulated
// output of a batch run.
//
//	REG AX = 42
//	MEM [0x0100] = 0x10
//	OUT 7
//	HALTED true
//
// "#" and ";" start a comment that runs to end of line; blank lines are
// ignored. Literal forms match the source language's own numeric
// literals: decimal, 0x.. / ..h hex, and 0b.. binary.
package assert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wut86/wut86/vm/cpu"
	"github.com/wut86/wut86/vm/stepper"
)

// Kind distinguishes the four statement forms.
type Kind int

const (
	KindReg Kind = iota
	KindMem
	KindOut
	KindHalted
)

// Statement is one parsed assertion line.
type Statement struct {
	Kind    Kind
	Line    int
	Name    string // register name, for KindReg
	Address int    // for KindMem
	Want    uint16 // expected value, for KindReg/KindMem/KindOut
	Flag    bool   // expected value, for KindHalted
}

// Failure describes one statement that did not hold.
type Failure struct {
	Line int
	Want string
	Got  string
}

func (f Failure) String() string {
	return fmt.Sprintf("line %d: want %s, got %s", f.Line, f.Want, f.Got)
}

// Parse reads an assertion script into an ordered statement list.
func Parse(src string) ([]Statement, error) {
	var stmts []Statement
	for lineNo, raw := range strings.Split(src, "\n") {
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		verb := strings.ToUpper(fields[0])
		switch verb {
		case "REG":
			if len(fields) != 4 || fields[2] != "=" {
				return nil, fmt.Errorf("line %d: expected REG <name> = <value>", lineNo+1)
			}
			name := strings.ToUpper(fields[1])
			if !cpu.IsRegister(name) && name != "IP" && name != "FLAGS" {
				return nil, fmt.Errorf("line %d: unknown register %q", lineNo+1, fields[1])
			}
			v, err := cpu.ParseImmediate(fields[3])
			if err != nil {
				return nil, fmt.Errorf("line %d: %v", lineNo+1, err)
			}
			stmts = append(stmts, Statement{Kind: KindReg, Line: lineNo + 1, Name: name, Want: v})
		case "MEM":
			if len(fields) != 4 || fields[2] != "=" {
				return nil, fmt.Errorf("line %d: expected MEM [addr] = <value>", lineNo+1)
			}
			addrText := strings.TrimSpace(fields[1])
			if !strings.HasPrefix(addrText, "[") || !strings.HasSuffix(addrText, "]") {
				return nil, fmt.Errorf("line %d: expected MEM [addr] = <value>", lineNo+1)
			}
			addr, err := cpu.ParseImmediate(addrText[1 : len(addrText)-1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %v", lineNo+1, err)
			}
			v, err := cpu.ParseImmediate(fields[3])
			if err != nil {
				return nil, fmt.Errorf("line %d: %v", lineNo+1, err)
			}
			stmts = append(stmts, Statement{Kind: KindMem, Line: lineNo + 1, Address: int(addr), Want: v})
		case "OUT":
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: expected OUT <value>", lineNo+1)
			}
			v, err := cpu.ParseImmediate(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %v", lineNo+1, err)
			}
			stmts = append(stmts, Statement{Kind: KindOut, Line: lineNo + 1, Want: v})
		case "HALTED":
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: expected HALTED <true|false>", lineNo+1)
			}
			b, err := strconv.ParseBool(strings.ToLower(fields[1]))
			if err != nil {
				return nil, fmt.Errorf("line %d: expected true or false, got %q", lineNo+1, fields[1])
			}
			stmts = append(stmts, Statement{Kind: KindHalted, Line: lineNo + 1, Flag: b})
		default:
			return nil, fmt.Errorf("line %d: unknown statement %q", lineNo+1, fields[0])
		}
	}
	return stmts, nil
}

func containsWord(xs []uint16, want uint16) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}

func stripComment(s string) string {
	for i, c := range s {
		if c == '#' || c == ';' {
			return s[:i]
		}
	}
	return s
}

// Check evaluates stmts against the final CPU state and the program's
// full accumulated output, returning every statement that did not hold.
func Check(stmts []Statement, final cpu.CPUState, outputs []stepper.OutputEvent) []Failure {
	var numericOutputs []uint16
	for _, e := range outputs {
		if e.Kind == stepper.OutputNumber {
			numericOutputs = append(numericOutputs, e.Value)
		}
	}

	var failures []Failure
	for _, st := range stmts {
		switch st.Kind {
		case KindReg:
			got, _ := final.Registers.Get(st.Name)
			if got != st.Want {
				failures = append(failures, Failure{
					Line: st.Line,
					Want: fmt.Sprintf("%s = %d", st.Name, st.Want),
					Got:  fmt.Sprintf("%s = %d", st.Name, got),
				})
			}
		case KindMem:
			got, ok := final.Memory.ReadWord(st.Address)
			if !ok {
				failures = append(failures, Failure{
					Line: st.Line,
					Want: fmt.Sprintf("MEM[%d] = %d", st.Address, st.Want),
					Got:  "out of bounds",
				})
				continue
			}
			if got != st.Want {
				failures = append(failures, Failure{
					Line: st.Line,
					Want: fmt.Sprintf("MEM[%d] = %d", st.Address, st.Want),
					Got:  fmt.Sprintf("MEM[%d] = %d", st.Address, got),
				})
			}
		case KindOut:
			if !containsWord(numericOutputs, st.Want) {
				failures = append(failures, Failure{
					Line: st.Line,
					Want: fmt.Sprintf("OUT contains %d", st.Want),
					Got:  fmt.Sprintf("output sequence %v", numericOutputs),
				})
			}
		case KindHalted:
			if final.Halted != st.Flag {
				failures = append(failures, Failure{
					Line: st.Line,
					Want: fmt.Sprintf("HALTED %t", st.Flag),
					Got:  fmt.Sprintf("HALTED %t", final.Halted),
				})
			}
		}
	}
	return failures
}

// CheckSession evaluates stmts against a session that has already run
// to completion, concatenating the output of every recorded step in
// timeline order before checking any OUT statements.
func CheckSession(stmts []Statement, sess *stepper.Session) []Failure {
	var outputs []stepper.OutputEvent
	for i := 1; i < sess.TimelineLength(); i++ {
		if tr := sess.Trace(i); tr != nil {
			outputs = append(outputs, tr.Output...)
		}
	}
	return Check(stmts, sess.State(), outputs)
}
