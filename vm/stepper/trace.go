/*
 * wut86 - Trace entries and per-step diffing
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

// Package stepper drives the CPU core one instruction at a time, builds
// an immutable TraceEntry per step, and maintains an append-only,
// seekable snapshot timeline with breakpoints and watchpoints.
package stepper

import (
	"sort"
	"strings"

	"github.com/wut86/wut86/vm/cpu"
)

// OutputKind distinguishes numeric from character output.
type OutputKind int

const (
	OutputNumber OutputKind = iota
	OutputChar
)

type OutputEvent struct {
	Kind  OutputKind
	Value uint16
}

// TraceEntry is immutable after creation: one executed instruction's
// complete observable effect.
type TraceEntry struct {
	Step               int
	InstructionAddress int
	InstructionText    string
	IPBefore           uint16
	IPAfter            uint16
	ChangedRegisters   []string
	ChangedFlags       []string
	ChangedMemoryWords []int
	MemoryReads        []int
	MemoryWrites       []int
	Output             []OutputEvent
	Cycles             int
	TimestampMs        int64
}

// cycleTable is exhaustive for the ISA; unlisted opcodes cost 3.
var cycleTable = map[string]int{
	"MOV": 2,
	"ADD": 3, "ADC": 3, "SUB": 3, "SBB": 3, "CMP": 3,
	"MUL": 12, "DIV": 18, "MOD": 10,
	"NEG": 3, "INC": 2, "DEC": 2,
	"AND": 2, "OR": 2, "XOR": 2, "NOT": 2,
	"SHL": 4, "SAL": 4, "SHR": 4, "SAR": 4,
	"PUSH": 4, "POP": 5,
	"CALL": 7, "RET": 8, "INT": 14, "IRET": 16,
	"IN": 8, "OUTP": 8,
	"JMP": 4,
	"CLC": 2, "STC": 2, "CMC": 2,
	"OUT": 5, "OUTC": 5,
	"NOP": 1, "HLT": 1,
}

func init() {
	for _, j := range []string{
		"JE", "JZ", "JNE", "JNZ", "JL", "JNGE", "JG", "JNLE", "JLE", "JNG",
		"JGE", "JNL", "JC", "JB", "JNAE", "JNC", "JAE", "JNB", "JS", "JNS", "JO", "JNO",
	} {
		cycleTable[j] = 4
	}
}

func cyclesFor(opcode string) int {
	if c, ok := cycleTable[strings.ToUpper(opcode)]; ok {
		return c
	}
	return 3
}

// buildTrace computes a TraceEntry purely from pre/post state and the
// instruction, per the static addressing rules in the CPU core design.
func buildTrace(step int, instr cpu.Instruction, before, after cpu.CPUState, output []OutputEvent, timestampMs int64, diffCap int) TraceEntry {
	reads, writes := memoryAccessSet(instr, before.Registers)

	var changedRegs []string
	for _, name := range cpu.Names {
		bv, _ := before.Registers.Get(name)
		av, _ := after.Registers.Get(name)
		if bv != av {
			changedRegs = append(changedRegs, name)
		}
	}

	var changedFlags []string
	for _, name := range cpu.FlagNames {
		bit := cpu.FlagBit(name)
		if (before.Registers.FLAGS & bit) != (after.Registers.FLAGS & bit) {
			changedFlags = append(changedFlags, name)
		}
	}

	changedMem := diffMemory(before.Memory, after.Memory, diffCap)

	return TraceEntry{
		Step:               step,
		InstructionAddress: int(before.Registers.IP),
		InstructionText:    instructionText(instr),
		IPBefore:           before.Registers.IP,
		IPAfter:            after.Registers.IP,
		ChangedRegisters:   changedRegs,
		ChangedFlags:       changedFlags,
		ChangedMemoryWords: changedMem,
		MemoryReads:        reads,
		MemoryWrites:       writes,
		Output:             output,
		Cycles:             cyclesFor(instr.Opcode),
		TimestampMs:        timestampMs,
	}
}

func instructionText(instr cpu.Instruction) string {
	if len(instr.Operands) == 0 {
		return instr.Opcode
	}
	return instr.Opcode + " " + strings.Join(instr.Operands, ", ")
}

// diffMemory returns the sorted, deduplicated, even-aligned word
// addresses where before and after differ, capped at diffCap.
func diffMemory(before, after cpu.Memory, diffCap int) []int {
	seen := map[int]bool{}
	var words []int
	for i := 0; i < cpu.MemorySize; i++ {
		if before[i] == after[i] {
			continue
		}
		word := i &^ 1
		if !seen[word] {
			seen[word] = true
			words = append(words, word)
		}
	}
	sort.Ints(words)
	if len(words) > diffCap {
		words = words[:diffCap]
	}
	return words
}

// memoryAccessSet computes the static memory_reads/memory_writes
// address sets for instr, including the implicit stack slots for
// PUSH/POP/CALL/RET/INT/IRET and the port-mapped address for IN/OUTP.
func memoryAccessSet(instr cpu.Instruction, regs cpu.Registers) (reads, writes []int) {
	opcode := strings.ToUpper(instr.Opcode)
	ops := instr.Operands

	addOperandAccess := func(op string, isWrite bool) {
		if addr, ok := cpu.MemoryOperandAddress(op, regs); ok {
			if isWrite {
				writes = append(writes, addr)
			} else {
				reads = append(reads, addr)
			}
		}
	}

	switch opcode {
	case "MOV":
		if len(ops) == 2 {
			addOperandAccess(ops[0], true)
			addOperandAccess(ops[1], false)
		}
	case "ADD", "ADC", "SUB", "SBB", "AND", "OR", "XOR":
		if len(ops) == 2 {
			addOperandAccess(ops[0], true)
			addOperandAccess(ops[0], false)
			addOperandAccess(ops[1], false)
		}
	case "CMP":
		if len(ops) == 2 {
			addOperandAccess(ops[0], false)
			addOperandAccess(ops[1], false)
		}
	case "MUL", "DIV", "MOD", "NEG", "NOT", "INC", "DEC":
		if len(ops) == 1 {
			addOperandAccess(ops[0], false)
			if opcode != "MUL" && opcode != "DIV" && opcode != "MOD" {
				addOperandAccess(ops[0], true)
			}
		}
	case "SHL", "SAL", "SHR", "SAR":
		if len(ops) >= 1 {
			addOperandAccess(ops[0], false)
			addOperandAccess(ops[0], true)
		}
	case "PUSH":
		writes = append(writes, int(regs.SP)-2)
		if len(ops) == 1 {
			addOperandAccess(ops[0], false)
		}
	case "POP":
		reads = append(reads, int(regs.SP))
		if len(ops) == 1 {
			addOperandAccess(ops[0], true)
		}
	case "CALL":
		writes = append(writes, int(regs.SP)-2)
	case "RET":
		reads = append(reads, int(regs.SP))
	case "INT":
		writes = append(writes, int(regs.SP)-2, int(regs.SP)-4)
	case "IRET":
		reads = append(reads, int(regs.SP), int(regs.SP)+2)
	case "IN":
		if len(ops) == 2 {
			if port, err := cpu.ParseImmediate(ops[1]); err == nil {
				reads = append(reads, 0x0300+int(port)*2)
			}
		}
	case "OUTP":
		if len(ops) == 2 {
			if port, err := cpu.ParseImmediate(ops[0]); err == nil {
				writes = append(writes, 0x0300+int(port)*2)
			}
		}
	}

	reads = dedupSorted(reads)
	writes = dedupSorted(writes)
	return reads, writes
}

func dedupSorted(addrs []int) []int {
	if len(addrs) == 0 {
		return nil
	}
	sort.Ints(addrs)
	out := addrs[:1]
	for _, a := range addrs[1:] {
		if a != out[len(out)-1] {
			out = append(out, a)
		}
	}
	return out
}
