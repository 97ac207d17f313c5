/*
 * wut86 - Data-hazard trace consumer
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

package trace

import (
	"strings"

	"github.com/wut86/wut86/vm/cpu"
	"github.com/wut86/wut86/vm/stepper"
)

// hazardWindow is how many instructions downstream a register write
// still forces a stall in the modeled pipeline (no forwarding).
const hazardWindow = 2

// HazardStats counts the read-after-write dependencies a pipeline
// display would flag. LoadUse is the subset where the writer read
// memory and the consumer follows immediately.
type HazardStats struct {
	RAW     int
	LoadUse int
}

// CountHazards scans adjacent trace entries for register dependencies:
// a register changed by step i and read as an operand by any of the
// next hazardWindow steps counts one RAW hazard. IP and FLAGS change on
// nearly every instruction and are excluded.
func CountHazards(entries []stepper.TraceEntry) HazardStats {
	var st HazardStats
	for i, writer := range entries {
		written := dataRegisters(writer.ChangedRegisters)
		if len(written) == 0 {
			continue
		}
		for dist := 1; dist <= hazardWindow && i+dist < len(entries); dist++ {
			reader := entries[i+dist]
			if !readsAny(reader, written) {
				continue
			}
			st.RAW++
			if dist == 1 && len(writer.MemoryReads) > 0 {
				st.LoadUse++
			}
			break
		}
	}
	return st
}

func dataRegisters(changed []string) map[string]bool {
	var out map[string]bool
	for _, name := range changed {
		if name == "IP" || name == "FLAGS" {
			continue
		}
		if out == nil {
			out = map[string]bool{}
		}
		out[name] = true
	}
	return out
}

// readsAny reports whether e names any register in regs as an operand,
// either directly or as the base of a memory reference.
func readsAny(e stepper.TraceEntry, regs map[string]bool) bool {
	for _, op := range operandsOf(e) {
		if cpu.IsRegister(op) && regs[strings.ToUpper(op)] {
			return true
		}
		if base, ok := memoryBaseRegister(op); ok && regs[base] {
			return true
		}
	}
	return false
}

// memoryBaseRegister extracts the base register of a "[REG]" or
// "[REG±imm]" operand, upper-cased.
func memoryBaseRegister(op string) (string, bool) {
	op = strings.TrimSpace(op)
	if !strings.HasPrefix(op, "[") || !strings.HasSuffix(op, "]") {
		return "", false
	}
	inner := strings.ReplaceAll(op[1:len(op)-1], " ", "")
	for i := 1; i < len(inner); i++ {
		if inner[i] == '+' || inner[i] == '-' {
			inner = inner[:i]
			break
		}
	}
	if cpu.IsRegister(inner) {
		return strings.ToUpper(inner), true
	}
	return "", false
}
