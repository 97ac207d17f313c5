/*
 * wut86 - Two-pass assembler
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

// Package asm assembles generated assembly text into a linear cpu.Program:
// an instruction array, a label→index map, and diagnostics. Two passes,
// the first collecting labels and the second decoding operands, mirror
// the shape of a classic hand-rolled assembler.
package asm

import (
	"strings"

	"github.com/wut86/wut86/internal/diag"
	"github.com/wut86/wut86/vm/cpu"
)

// Assemble runs both passes over src and returns the resulting program
// together with its diagnostics. Unknown opcodes and operand mismatches
// still contribute an instruction slot so that pass-1 label offsets
// remain valid.
func Assemble(src string) (cpu.Program, *diag.Bag) {
	diags := diag.NewBag("Assembly")
	rawLines := splitLines(src)

	labels, stripped := pass1(rawLines, diags)
	instrs := pass2(stripped, labels, diags)

	if len(instrs) == 0 || strings.ToUpper(instrs[len(instrs)-1].Opcode) != "HLT" {
		instrs = append(instrs, cpu.Instruction{Opcode: "HLT", SourceAddress: uint16(len(instrs))})
	}

	return cpu.Program{Instructions: instrs, Labels: labels}, diags
}

type sourceLine struct {
	line int
	text string // comment stripped, label stripped
}

// splitLines breaks src into lines; element i is source line i+1.
func splitLines(src string) []string {
	return strings.Split(src, "\n")
}

// pass1 collects label → instruction-index mappings. A label is
// IDENT: at the start of a (possibly indented) line; anything after it
// on the same line is that label's first instruction.
func pass1(rawLines []string, diags *diag.Bag) (map[string]int, []sourceLine) {
	labels := map[string]int{}
	var stripped []sourceLine
	index := 0

	for i, raw := range rawLines {
		lineNo := i + 1
		text := stripComment(raw)
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if name, rest, ok := splitLabel(text); ok {
			upper := strings.ToUpper(name)
			if _, exists := labels[upper]; exists {
				diags.Errorf(lineNo, "duplicate label %q", name)
			} else {
				labels[upper] = index
			}
			text = strings.TrimSpace(rest)
			if text == "" {
				continue
			}
		}

		stripped = append(stripped, sourceLine{line: lineNo, text: text})
		index++
	}
	return labels, stripped
}

// pass2 decodes each remaining line into an Instruction, validating
// operand shape against the per-opcode table.
func pass2(lines []sourceLine, labels map[string]int, diags *diag.Bag) []cpu.Instruction {
	instrs := make([]cpu.Instruction, 0, len(lines))
	for i, sl := range lines {
		opcode, operandText := splitOpcodeOperands(sl.text)
		operands := splitOperands(operandText)

		rule, known := opcodeTable[strings.ToUpper(opcode)]
		if !known {
			diags.Errorf(sl.line, "unknown opcode %q", opcode)
		} else if msg := rule.validate(operands); msg != "" {
			diags.Errorf(sl.line, "%s: %s", opcode, msg)
		}

		instrs = append(instrs, cpu.Instruction{
			Opcode:        opcode,
			Operands:      operands,
			SourceAddress: uint16(i),
			RawText:       sl.text,
			SourceLine:    sl.line,
		})
	}
	return instrs
}

func stripComment(line string) string {
	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		return line[:idx]
	}
	return line
}

// splitLabel recognizes "IDENT:" at the start of text (after leading
// whitespace, already trimmed by the caller).
func splitLabel(text string) (name, rest string, ok bool) {
	idx := strings.IndexByte(text, ':')
	if idx < 0 {
		return "", text, false
	}
	candidate := text[:idx]
	if !isLabelName(candidate) {
		return "", text, false
	}
	return candidate, text[idx+1:], true
}

func isLabelName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isAlpha := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isAlpha {
			return false
		}
		if i > 0 && !isAlpha && !isDigit {
			return false
		}
	}
	return true
}

func splitOpcodeOperands(text string) (string, string) {
	idx := strings.IndexAny(text, " \t")
	if idx < 0 {
		return text, ""
	}
	return text[:idx], strings.TrimSpace(text[idx+1:])
}

func splitOperands(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
