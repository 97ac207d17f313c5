/*
 * wut86 - Operand resolution
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

package cpu

import (
	"fmt"
	"strconv"
	"strings"
)

var registerNames = map[string]bool{
	"AX": true, "BX": true, "CX": true, "DX": true,
	"SI": true, "DI": true, "SP": true, "BP": true,
}

// IsRegister reports whether s names one of the eight general/pointer
// registers (case-insensitive).
func IsRegister(s string) bool {
	return registerNames[strings.ToUpper(s)]
}

// ParseImmediate parses s as a signed decimal, 0x../..h hex, or 0b..
// binary immediate, returning the 16-bit masked value.
func ParseImmediate(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	lower := strings.ToLower(s)
	var n int64
	var err error
	switch {
	case strings.HasPrefix(lower, "0x"):
		n, err = strconv.ParseInt(lower[2:], 16, 64)
	case strings.HasPrefix(lower, "0b"):
		n, err = strconv.ParseInt(lower[2:], 2, 64)
	case strings.HasSuffix(lower, "h"):
		n, err = strconv.ParseInt(lower[:len(lower)-1], 16, 64)
	default:
		n, err = strconv.ParseInt(lower, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid immediate %q", s)
	}
	if neg {
		n = -n
	}
	return uint16(n), nil
}

// effectiveAddress computes the memory address named by a "[inner]"
// operand: inner is REG, REG+imm, REG-imm, or a bare immediate.
func effectiveAddress(inner string, regs Registers) (int, error) {
	inner = strings.ReplaceAll(inner, " ", "")
	if inner == "" {
		return 0, fmt.Errorf("empty memory operand")
	}
	signIdx := -1
	for i := 1; i < len(inner); i++ {
		if inner[i] == '+' || inner[i] == '-' {
			signIdx = i
			break
		}
	}
	if signIdx < 0 {
		if IsRegister(inner) {
			v, _ := regs.Get(strings.ToUpper(inner))
			return int(v) & 0xFFFF, nil
		}
		imm, err := ParseImmediate(inner)
		if err != nil {
			return 0, err
		}
		return int(imm), nil
	}
	base := inner[:signIdx]
	offsetStr := inner[signIdx:]
	if !IsRegister(base) {
		return 0, fmt.Errorf("invalid memory operand %q", inner)
	}
	baseVal, _ := regs.Get(strings.ToUpper(base))
	offset, err := ParseImmediate(offsetStr)
	if err != nil {
		return 0, err
	}
	return (int(baseVal) + int(int16(offset))) & 0xFFFF, nil
}

// resolve reads the value named by operand: a register, a "[...]"
// memory reference, an immediate, or (last resort) a label's address,
// in that precedence order. The label fallback lets MOV reg, LABEL load
// a handler address the way Scenario E's interrupt vector setup needs.
func resolve(operand string, s CPUState, labels map[string]int) (uint16, error) {
	operand = strings.TrimSpace(operand)
	if IsRegister(operand) {
		v, _ := s.Registers.Get(strings.ToUpper(operand))
		return v, nil
	}
	if strings.HasPrefix(operand, "[") && strings.HasSuffix(operand, "]") {
		addr, err := effectiveAddress(operand[1:len(operand)-1], s.Registers)
		if err != nil {
			return 0, err
		}
		v, ok := s.Memory.ReadWord(addr)
		if !ok {
			return 0, fmt.Errorf("memory read out of bounds at %d", addr)
		}
		return v, nil
	}
	if v, err := ParseImmediate(operand); err == nil {
		return v, nil
	}
	if idx, ok := labels[strings.ToUpper(operand)]; ok {
		return uint16(idx), nil
	}
	return 0, fmt.Errorf("invalid operand %q", operand)
}

// store writes v to the destination named by operand, which must be a
// register or a "[...]" memory reference.
func store(operand string, v uint16, s CPUState) (CPUState, error) {
	operand = strings.TrimSpace(operand)
	if IsRegister(operand) {
		regs, _ := s.Registers.Set(strings.ToUpper(operand), v)
		s.Registers = regs
		return s, nil
	}
	if strings.HasPrefix(operand, "[") && strings.HasSuffix(operand, "]") {
		addr, err := effectiveAddress(operand[1:len(operand)-1], s.Registers)
		if err != nil {
			return s, err
		}
		mem, ok := s.Memory.WriteWord(addr, v)
		if !ok {
			return s, fmt.Errorf("memory write out of bounds at %d", addr)
		}
		s.Memory = mem
		return s, nil
	}
	return s, fmt.Errorf("invalid destination operand %q", operand)
}

// MemoryOperandAddress reports the effective address of operand if it
// is a "[...]" reference, for use by the stepper's static read/write
// set computation.
func MemoryOperandAddress(operand string, regs Registers) (int, bool) {
	operand = strings.TrimSpace(operand)
	if strings.HasPrefix(operand, "[") && strings.HasSuffix(operand, "]") {
		addr, err := effectiveAddress(operand[1:len(operand)-1], regs)
		if err == nil {
			return addr, true
		}
	}
	return 0, false
}
