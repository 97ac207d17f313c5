/*
 * wut86 - Per-opcode operand validation table
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

package asm

import (
	"fmt"
	"strings"

	"github.com/wut86/wut86/vm/cpu"
)

func isRegisterOperand(op string) bool { return cpu.IsRegister(strings.TrimSpace(op)) }

func isMemoryOperand(op string) bool {
	op = strings.TrimSpace(op)
	return strings.HasPrefix(op, "[") && strings.HasSuffix(op, "]")
}

func isImmediateOperand(op string) bool {
	_, err := cpu.ParseImmediate(strings.TrimSpace(op))
	return err == nil
}

// isLabelOperand accepts any bareword: an identifier that is not a
// register, memory reference, or immediate. Resolution happens at
// execution time.
func isLabelOperand(op string) bool {
	op = strings.TrimSpace(op)
	if op == "" || isRegisterOperand(op) || isMemoryOperand(op) || isImmediateOperand(op) {
		return false
	}
	for i, r := range op {
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

type opRule struct {
	minOps, maxOps int
	check          func(ops []string) string
}

func (r opRule) validate(ops []string) string {
	if len(ops) < r.minOps || len(ops) > r.maxOps {
		if r.minOps == r.maxOps {
			return fmt.Sprintf("expected %d operand(s), got %d", r.minOps, len(ops))
		}
		return fmt.Sprintf("expected %d-%d operand(s), got %d", r.minOps, r.maxOps, len(ops))
	}
	if r.check != nil {
		return r.check(ops)
	}
	return ""
}

func regOrMem(op string) bool { return isRegisterOperand(op) || isMemoryOperand(op) }
func regMemImm(op string) bool {
	return isRegisterOperand(op) || isMemoryOperand(op) || isImmediateOperand(op)
}
func labelOrImmediate(op string) bool { return isLabelOperand(op) || isImmediateOperand(op) }

var opcodeTable map[string]opRule

func init() {
	opcodeTable = map[string]opRule{
		"MOV": {2, 2, func(ops []string) string {
			if !regOrMem(ops[0]) {
				return "destination must be a register or memory reference"
			}
			if !regMemImm(ops[1]) && !isLabelOperand(ops[1]) {
				return "source must be a register, memory reference, immediate, or label"
			}
			if isMemoryOperand(ops[0]) && isMemoryOperand(ops[1]) {
				return "both operands cannot be memory references"
			}
			return ""
		}},
		"NEG": regOp(), "NOT": regOp(), "INC": regOp(), "DEC": regOp(),
		"OUT": regOp(), "OUTC": regOp(),
		"PUSH": {1, 1, func(ops []string) string {
			if !regOrMem(ops[0]) {
				return "operand must be a register or memory reference"
			}
			return ""
		}},
		"POP": {1, 1, func(ops []string) string {
			if !regOrMem(ops[0]) {
				return "operand must be a register or memory reference"
			}
			return ""
		}},
		"MUL": regMemImmOp(), "DIV": regMemImmOp(), "MOD": regMemImmOp(),
		"SHL": shiftOp(), "SAL": shiftOp(), "SHR": shiftOp(), "SAR": shiftOp(),
		"JMP": branchOp(), "CALL": branchOp(),
		"RET": zeroOp(), "IRET": zeroOp(), "HLT": zeroOp(), "NOP": zeroOp(),
		"CLC": zeroOp(), "STC": zeroOp(), "CMC": zeroOp(),
		"INT": {1, 1, func(ops []string) string {
			if !isImmediateOperand(ops[0]) && !isLabelOperand(ops[0]) {
				return "operand must be an immediate or bareword"
			}
			return ""
		}},
		"IN": {2, 2, func(ops []string) string {
			if !isRegisterOperand(ops[0]) {
				return "destination must be a register"
			}
			if !isImmediateOperand(ops[1]) {
				return "port must be an immediate"
			}
			return ""
		}},
		"OUTP": {2, 2, func(ops []string) string {
			if !isImmediateOperand(ops[0]) {
				return "port must be an immediate"
			}
			if !isRegisterOperand(ops[1]) {
				return "source must be a register"
			}
			return ""
		}},
	}
	for _, mnemonic := range []string{
		"ADD", "ADC", "SUB", "SBB", "CMP", "AND", "OR", "XOR",
	} {
		opcodeTable[mnemonic] = dstRegSrcRMI()
	}
	for _, mnemonic := range []string{
		"JE", "JZ", "JNE", "JNZ", "JL", "JNGE", "JG", "JNLE", "JLE", "JNG",
		"JGE", "JNL", "JC", "JB", "JNAE", "JNC", "JAE", "JNB", "JS", "JNS", "JO", "JNO",
	} {
		opcodeTable[mnemonic] = branchOp()
	}
}

func regOp() opRule {
	return opRule{1, 1, func(ops []string) string {
		if !isRegisterOperand(ops[0]) {
			return "operand must be a register"
		}
		return ""
	}}
}

func regMemImmOp() opRule {
	return opRule{1, 1, func(ops []string) string {
		if !regMemImm(ops[0]) {
			return "operand must be a register, memory reference, or immediate"
		}
		return ""
	}}
}

func shiftOp() opRule {
	return opRule{1, 2, func(ops []string) string {
		if !isRegisterOperand(ops[0]) {
			return "destination must be a register"
		}
		if len(ops) == 2 && !(isRegisterOperand(ops[1]) || isImmediateOperand(ops[1])) {
			return "count must be a register or immediate"
		}
		return ""
	}}
}

func branchOp() opRule {
	return opRule{1, 1, func(ops []string) string {
		if !labelOrImmediate(ops[0]) {
			return "operand must be a label or immediate"
		}
		return ""
	}}
}

func zeroOp() opRule {
	return opRule{0, 0, nil}
}

func dstRegSrcRMI() opRule {
	return opRule{2, 2, func(ops []string) string {
		if !isRegisterOperand(ops[0]) {
			return "destination must be a register"
		}
		if !regMemImm(ops[1]) {
			return "source must be a register, memory reference, or immediate"
		}
		return ""
	}}
}
