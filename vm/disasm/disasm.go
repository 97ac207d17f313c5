/*
 * wut86 - Disassembly / program text rendering
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

// Package disasm renders an assembled cpu.Program back to text, for the
// debugger's "list" command and trace displays.
package disasm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wut86/wut86/vm/cpu"
)

// Line renders one instruction as "ADDR: OPCODE op1, op2", prefixed
// with any label that targets this address.
func Line(prog cpu.Program, addr int) string {
	instr := prog.Instructions[addr]
	var b strings.Builder
	for _, label := range labelsAt(prog, addr) {
		b.WriteString(label)
		b.WriteString(":\n")
	}
	fmt.Fprintf(&b, "%04d: %s", addr, instr.Opcode)
	if len(instr.Operands) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(instr.Operands, ", "))
	}
	return b.String()
}

// Program renders the whole instruction sequence.
func Program(prog cpu.Program) string {
	var b strings.Builder
	for i := range prog.Instructions {
		b.WriteString(Line(prog, i))
		b.WriteString("\n")
	}
	return b.String()
}

func labelsAt(prog cpu.Program, addr int) []string {
	var names []string
	for name, idx := range prog.Labels {
		if idx == addr {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
