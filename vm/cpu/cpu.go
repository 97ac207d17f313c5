/*
 * wut86 - Pure per-instruction state transition
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
	"strings"
)

const portBase = 0x0300

// jccConditions maps every Jcc mnemonic to a function of FLAGS.
var jccConditions = map[string]func(flags uint16) bool{
	"JE": func(f uint16) bool { return f&ZF != 0 },
	"JZ": func(f uint16) bool { return f&ZF != 0 },

	"JNE": func(f uint16) bool { return f&ZF == 0 },
	"JNZ": func(f uint16) bool { return f&ZF == 0 },

	"JL":   func(f uint16) bool { return (f&SF != 0) != (f&OF != 0) },
	"JNGE": func(f uint16) bool { return (f&SF != 0) != (f&OF != 0) },

	"JG":   func(f uint16) bool { return f&ZF == 0 && (f&SF != 0) == (f&OF != 0) },
	"JNLE": func(f uint16) bool { return f&ZF == 0 && (f&SF != 0) == (f&OF != 0) },

	"JLE": func(f uint16) bool { return f&ZF != 0 || (f&SF != 0) != (f&OF != 0) },
	"JNG": func(f uint16) bool { return f&ZF != 0 || (f&SF != 0) != (f&OF != 0) },

	"JGE": func(f uint16) bool { return (f&SF != 0) == (f&OF != 0) },
	"JNL": func(f uint16) bool { return (f&SF != 0) == (f&OF != 0) },

	"JC":   func(f uint16) bool { return f&CF != 0 },
	"JB":   func(f uint16) bool { return f&CF != 0 },
	"JNAE": func(f uint16) bool { return f&CF != 0 },

	"JNC": func(f uint16) bool { return f&CF == 0 },
	"JAE": func(f uint16) bool { return f&CF == 0 },
	"JNB": func(f uint16) bool { return f&CF == 0 },

	"JS":  func(f uint16) bool { return f&SF != 0 },
	"JNS": func(f uint16) bool { return f&SF == 0 },

	"JO":  func(f uint16) bool { return f&OF != 0 },
	"JNO": func(f uint16) bool { return f&OF == 0 },
}

// Execute is the pure state-transition function: it never mutates its
// arguments and returns a complete new state. On failure the returned
// state is halted with Error set and its registers/memory are exactly
// the input state's (IP does not advance past the failing instruction).
func Execute(state CPUState, instr Instruction, labels map[string]int) CPUState {
	if state.Halted {
		return state
	}

	ns := state
	opcode := strings.ToUpper(strings.TrimSpace(instr.Opcode))
	ops := instr.Operands
	ipSet := false
	var err error

	switch {
	case opcode == "MOV":
		err = requireOperands(ops, 2)
		if err == nil {
			var v uint16
			v, err = resolve(ops[1], ns, labels)
			if err == nil {
				ns, err = store(ops[0], v, ns)
			}
		}

	case opcode == "ADD" || opcode == "SUB" || opcode == "ADC" || opcode == "SBB" ||
		opcode == "AND" || opcode == "OR" || opcode == "XOR" || opcode == "CMP":
		err = requireOperands(ops, 2)
		if err == nil {
			ns, err = execBinaryArith(opcode, ops, ns, labels)
		}

	case opcode == "MUL" || opcode == "DIV" || opcode == "MOD":
		err = requireOperands(ops, 1)
		if err == nil {
			ns, err = execMulDivMod(opcode, ops[0], ns, labels)
		}

	case opcode == "NEG":
		err = requireOperands(ops, 1)
		if err == nil {
			ns, err = execUnary(opcode, ops[0], ns, labels)
		}
	case opcode == "NOT":
		err = requireOperands(ops, 1)
		if err == nil {
			ns, err = execUnary(opcode, ops[0], ns, labels)
		}
	case opcode == "INC" || opcode == "DEC":
		err = requireOperands(ops, 1)
		if err == nil {
			ns, err = execIncDec(opcode, ops[0], ns, labels)
		}

	case opcode == "SHL" || opcode == "SAL" || opcode == "SHR" || opcode == "SAR":
		if len(ops) < 1 || len(ops) > 2 {
			err = fmt.Errorf("%s requires 1 or 2 operands", opcode)
		} else {
			ns, err = execShift(opcode, ops, ns, labels)
		}

	case opcode == "PUSH":
		err = requireOperands(ops, 1)
		if err == nil {
			ns, err = execPush(ops[0], ns, labels)
		}
	case opcode == "POP":
		err = requireOperands(ops, 1)
		if err == nil {
			ns, err = execPop(ops[0], ns)
		}

	case opcode == "JMP":
		err = requireOperands(ops, 1)
		if err == nil {
			var target uint16
			target, err = resolveBranchFallback(ops[0], labels)
			if err == nil {
				ns.Registers.IP = target
				ipSet = true
			}
		}

	case jccConditions[opcode] != nil:
		err = requireOperands(ops, 1)
		if err == nil {
			var target uint16
			target, err = resolveBranchRequired(ops[0], labels)
			if err == nil {
				if jccConditions[opcode](ns.Registers.FLAGS) {
					ns.Registers.IP = target
				} else {
					ns.Registers.IP = state.Registers.IP + 1
				}
				ipSet = true
			}
		}

	case opcode == "CALL":
		err = requireOperands(ops, 1)
		if err == nil {
			var target uint16
			target, err = resolveBranchRequired(ops[0], labels)
			if err == nil {
				ns, err = pushWord(ns, state.Registers.IP+1)
				if err == nil {
					ns.Registers.IP = target
					ipSet = true
				}
			}
		}
	case opcode == "RET":
		var v uint16
		v, ns, err = popWord(ns)
		if err == nil {
			ns.Registers.IP = v
			ipSet = true
		}

	case opcode == "INT":
		err = requireOperands(ops, 1)
		if err == nil {
			ns, err = execInterrupt(ops[0], ns, state.Registers.IP)
			if err == nil {
				ipSet = true
			}
		}
	case opcode == "IRET":
		var ip, flags uint16
		ip, ns, err = popWord(ns)
		if err == nil {
			flags, ns, err = popWord(ns)
		}
		if err == nil {
			ns.Registers.IP = ip
			ns.Registers.FLAGS = flags
			ipSet = true
		}

	case opcode == "HLT":
		ns.Halted = true
		ipSet = true

	case opcode == "NOP":
		// advances IP by the default increment below.

	case opcode == "CLC":
		ns.Registers.FLAGS &^= CF
	case opcode == "STC":
		ns.Registers.FLAGS |= CF
	case opcode == "CMC":
		ns.Registers.FLAGS ^= CF

	case opcode == "OUT" || opcode == "OUTC":
		err = requireOperands(ops, 1)
		// Side-effect-free in the state transition; the stepper captures
		// emission before calling Execute.

	case opcode == "IN":
		err = requireOperands(ops, 2)
		if err == nil {
			ns, err = execIn(ops, ns, labels)
		}
	case opcode == "OUTP":
		err = requireOperands(ops, 2)
		if err == nil {
			ns, err = execOutp(ops, ns, labels)
		}

	default:
		err = fmt.Errorf("unknown opcode %q", instr.Opcode)
	}

	if err != nil {
		return CPUState{Registers: state.Registers, Memory: state.Memory, Halted: true, Error: err.Error()}
	}
	if !ipSet {
		ns.Registers.IP++
	}
	return ns
}

func requireOperands(ops []string, n int) error {
	if len(ops) != n {
		return fmt.Errorf("expected %d operand(s), got %d", n, len(ops))
	}
	return nil
}

func execBinaryArith(opcode string, ops []string, s CPUState, labels map[string]int) (CPUState, error) {
	a, err := resolve(ops[0], s, labels)
	if err != nil {
		return s, err
	}
	b, err := resolve(ops[1], s, labels)
	if err != nil {
		return s, err
	}
	var r, flags uint16
	switch opcode {
	case "ADD":
		r, flags = addFlags(a, b, s.Registers.FLAGS)
	case "SUB", "CMP":
		r, flags = subFlags(a, b, s.Registers.FLAGS)
	case "ADC":
		r, flags = adcOperand(a, b, s.Registers.FLAGS)
	case "SBB":
		r, flags = sbbOperand(a, b, s.Registers.FLAGS)
	case "AND":
		r = a & b
		flags = logicalFlags(r, s.Registers.FLAGS)
	case "OR":
		r = a | b
		flags = logicalFlags(r, s.Registers.FLAGS)
	case "XOR":
		r = a ^ b
		flags = logicalFlags(r, s.Registers.FLAGS)
	}
	s.Registers.FLAGS = flags
	if opcode == "CMP" {
		return s, nil
	}
	return store(ops[0], r, s)
}

func execUnary(opcode string, op string, s CPUState, labels map[string]int) (CPUState, error) {
	a, err := resolve(op, s, labels)
	if err != nil {
		return s, err
	}
	var r, flags uint16
	switch opcode {
	case "NEG":
		r, flags = subFlags(0, a, s.Registers.FLAGS)
	case "NOT":
		r = ^a
		flags = logicalFlags(r, s.Registers.FLAGS)
	}
	s.Registers.FLAGS = flags
	return store(op, r, s)
}

func execIncDec(opcode, op string, s CPUState, labels map[string]int) (CPUState, error) {
	a, err := resolve(op, s, labels)
	if err != nil {
		return s, err
	}
	var r, flags uint16
	if opcode == "INC" {
		r, flags = incFlags(a, s.Registers.FLAGS)
	} else {
		r, flags = decFlags(a, s.Registers.FLAGS)
	}
	s.Registers.FLAGS = flags
	return store(op, r, s)
}

func execMulDivMod(opcode, op string, s CPUState, labels map[string]int) (CPUState, error) {
	src, err := resolve(op, s, labels)
	if err != nil {
		return s, err
	}
	switch opcode {
	case "MUL":
		product := uint32(s.Registers.AX) * uint32(src)
		s.Registers.AX = uint16(product)
		s.Registers.DX = uint16(product >> 16)
		if s.Registers.DX != 0 {
			s.Registers.FLAGS |= CF | OF
		} else {
			s.Registers.FLAGS &^= CF | OF
		}
		return s, nil
	case "DIV":
		if src == 0 {
			return s, fmt.Errorf("division by zero")
		}
		dividend := uint32(s.Registers.DX)<<16 | uint32(s.Registers.AX)
		q := dividend / uint32(src)
		r := dividend % uint32(src)
		if q > 0xFFFF {
			return s, fmt.Errorf("division overflow")
		}
		s.Registers.AX = uint16(q)
		s.Registers.DX = uint16(r)
		return s, nil
	case "MOD":
		if src == 0 {
			return s, fmt.Errorf("division by zero")
		}
		s.Registers.AX = s.Registers.AX % src
		return s, nil
	}
	return s, fmt.Errorf("unreachable")
}

func execShift(opcode string, ops []string, s CPUState, labels map[string]int) (CPUState, error) {
	v, err := resolve(ops[0], s, labels)
	if err != nil {
		return s, err
	}
	var count uint16 = 1
	if len(ops) == 2 {
		count, err = resolve(ops[1], s, labels)
		if err != nil {
			return s, err
		}
	}
	count &= 0x1F
	if count == 0 {
		return s, nil
	}
	r, flags := shift(opcode, v, count, s.Registers.FLAGS)
	s.Registers.FLAGS = flags
	return store(ops[0], r, s)
}

func execPush(op string, s CPUState, labels map[string]int) (CPUState, error) {
	v, err := resolve(op, s, labels)
	if err != nil {
		return s, err
	}
	return pushWord(s, v)
}

func execPop(op string, s CPUState) (CPUState, error) {
	v, ns, err := popWord(s)
	if err != nil {
		return s, err
	}
	return store(op, v, ns)
}

func pushWord(s CPUState, v uint16) (CPUState, error) {
	newSP := s.Registers.SP - 2
	mem, ok := s.Memory.WriteWord(int(newSP), v)
	if !ok {
		return s, fmt.Errorf("stack overflow at SP=%d", newSP)
	}
	s.Memory = mem
	s.Registers.SP = newSP
	return s, nil
}

func popWord(s CPUState) (uint16, CPUState, error) {
	v, ok := s.Memory.ReadWord(int(s.Registers.SP))
	if !ok {
		return 0, s, fmt.Errorf("stack underflow at SP=%d", s.Registers.SP)
	}
	s.Registers.SP += 2
	return v, s, nil
}

func execInterrupt(op string, s CPUState, currentIP uint16) (CPUState, error) {
	vector, err := ParseImmediate(op)
	if err != nil {
		return s, fmt.Errorf("invalid interrupt vector %q", op)
	}
	s, err = pushWord(s, s.Registers.FLAGS)
	if err != nil {
		return s, err
	}
	s, err = pushWord(s, currentIP+1)
	if err != nil {
		return s, err
	}
	handler, ok := s.Memory.ReadWord(int(vector) * 2)
	if !ok {
		return s, fmt.Errorf("interrupt vector %d out of range", vector)
	}
	s.Registers.IP = handler
	return s, nil
}

func execIn(ops []string, s CPUState, labels map[string]int) (CPUState, error) {
	port, err := resolve(ops[1], s, labels)
	if err != nil {
		return s, err
	}
	v, ok := s.Memory.ReadWord(portBase + int(port)*2)
	if !ok {
		return s, fmt.Errorf("port %d out of range", port)
	}
	return store(ops[0], v, s)
}

func execOutp(ops []string, s CPUState, labels map[string]int) (CPUState, error) {
	port, err := resolve(ops[0], s, labels)
	if err != nil {
		return s, err
	}
	v, err := resolve(ops[1], s, labels)
	if err != nil {
		return s, err
	}
	mem, ok := s.Memory.WriteWord(portBase+int(port)*2, v)
	if !ok {
		return s, fmt.Errorf("port %d out of range", port)
	}
	s.Memory = mem
	return s, nil
}

func resolveBranchRequired(operand string, labels map[string]int) (uint16, error) {
	upper := strings.ToUpper(strings.TrimSpace(operand))
	if idx, ok := labels[upper]; ok {
		return uint16(idx), nil
	}
	return 0, fmt.Errorf("unknown label %q", operand)
}

// resolveBranchFallback is JMP's variant: an unresolved label spelling
// is tried as an immediate before failing.
func resolveBranchFallback(operand string, labels map[string]int) (uint16, error) {
	upper := strings.ToUpper(strings.TrimSpace(operand))
	if idx, ok := labels[upper]; ok {
		return uint16(idx), nil
	}
	v, err := ParseImmediate(operand)
	if err != nil {
		return 0, fmt.Errorf("unknown label %q", operand)
	}
	return v, nil
}
