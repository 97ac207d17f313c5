/*
 * wut86 - CPU data model
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

// Package cpu implements the pure 16-bit instruction-set simulator: a
// flat 4 KiB memory, ten named word registers, and a per-instruction
// state transition function with no shared mutable state.
package cpu

const (
	MemorySize = 4096
	ResetSP    = 4094
)

// Flag bit positions within FLAGS, compatible with 8086 encoding.
const (
	CF = 0x0001
	PF = 0x0004
	AF = 0x0010
	ZF = 0x0040
	SF = 0x0080
	OF = 0x0800
)

// Registers holds the ten named 16-bit slots. IP indexes into the
// instruction sequence; it is not a byte address.
type Registers struct {
	AX, BX, CX, DX uint16
	SI, DI         uint16
	SP, BP         uint16
	IP             uint16
	FLAGS          uint16
}

// Get returns the named register's value. The empty ok result reports
// whether name is a known register.
func (r Registers) Get(name string) (uint16, bool) {
	switch name {
	case "AX":
		return r.AX, true
	case "BX":
		return r.BX, true
	case "CX":
		return r.CX, true
	case "DX":
		return r.DX, true
	case "SI":
		return r.SI, true
	case "DI":
		return r.DI, true
	case "SP":
		return r.SP, true
	case "BP":
		return r.BP, true
	case "IP":
		return r.IP, true
	case "FLAGS":
		return r.FLAGS, true
	}
	return 0, false
}

// Set returns a copy of r with the named register updated, and whether
// name was recognized.
func (r Registers) Set(name string, v uint16) (Registers, bool) {
	switch name {
	case "AX":
		r.AX = v
	case "BX":
		r.BX = v
	case "CX":
		r.CX = v
	case "DX":
		r.DX = v
	case "SI":
		r.SI = v
	case "DI":
		r.DI = v
	case "SP":
		r.SP = v
	case "BP":
		r.BP = v
	case "IP":
		r.IP = v
	case "FLAGS":
		r.FLAGS = v
	default:
		return r, false
	}
	return r, true
}

// Names is the fixed iteration order used for diffing and display.
var Names = []string{"AX", "BX", "CX", "DX", "SI", "DI", "SP", "BP", "IP", "FLAGS"}

// FlagNames is the fixed iteration order of the six logical flags.
var FlagNames = []string{"CF", "PF", "AF", "ZF", "SF", "OF"}

var flagBits = map[string]uint16{"CF": CF, "PF": PF, "AF": AF, "ZF": ZF, "SF": SF, "OF": OF}

// FlagBit returns the bit mask for a named flag.
func FlagBit(name string) uint16 { return flagBits[name] }

// Memory is a flat 4096-byte address space, copied by value on clone.
type Memory [MemorySize]byte

// ReadWord reads the little-endian word at addr, reporting ok=false
// (and a zero word) when addr or addr+1 is out of range.
func (m *Memory) ReadWord(addr int) (uint16, bool) {
	if addr < 0 || addr+1 >= MemorySize {
		return 0, false
	}
	return uint16(m[addr]) | uint16(m[addr+1])<<8, true
}

// WriteWord writes v little-endian at addr, returning a new Memory (the
// CPU state is immutable, so every write is copy-on-write at the state
// level, not here) and whether addr was in range.
func (m Memory) WriteWord(addr int, v uint16) (Memory, bool) {
	if addr < 0 || addr+1 >= MemorySize {
		return m, false
	}
	m[addr] = byte(v)
	m[addr+1] = byte(v >> 8)
	return m, true
}

// CPUState is the complete machine state. It is always passed and
// returned by value; Execute never mutates its argument.
type CPUState struct {
	Registers Registers
	Memory    Memory
	Halted    bool
	Error     string
}

// Reset returns the initial machine state: all registers zero except
// SP, which starts at the top of the stack area.
func Reset() CPUState {
	var s CPUState
	s.Registers.SP = ResetSP
	return s
}

// Instruction is one decoded line of assembly.
type Instruction struct {
	Opcode        string
	Operands      []string
	SourceAddress uint16
	RawText       string
	SourceLine    int
}

// Program is the assembler's output: a linear instruction sequence and a
// label table. The assembler returns its diagnostics separately.
type Program struct {
	Instructions []Instruction
	Labels       map[string]int
}
