/*
 * wut86 - Replay session export/import
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

// Package replay implements the session export/import codec: a plain
// textual payload capturing everything needed to reconstruct a running
// stepper.Session, including its recorded timeline.
package replay

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/wut86/wut86/asm"
	"github.com/wut86/wut86/lang/codegen"
	"github.com/wut86/wut86/lang/lexer"
	"github.com/wut86/wut86/lang/parser"
	"github.com/wut86/wut86/vm/cpu"
	"github.com/wut86/wut86/vm/stepper"
)

// FormatVersion is written on export. Unknown versions are still
// accepted on import with a best-effort decode.
const FormatVersion = "1.0.0"

// Session is the decoded header of a replay payload. Import fills
// Version, CreatedAtMs, SourceCode, AsmCode and Breakpoints; it does not
// populate SavedSnapshots or Entries.
type Session struct {
	Version        string
	CreatedAtMs    int64
	SourceCode     string
	AsmCode        string
	Breakpoints    []int
	SavedSnapshots []int
	Entries        []Entry
}

// Entry is one line of the recorded timeline: the state at this step
// plus the trace that produced it (Trace is nil for step 0).
type Entry struct {
	State cpu.CPUState
	Trace *stepper.TraceEntry
}

// Export renders sess as the textual payload described by the replay
// format: one "key = value" header block, then a trace/snapshot
// section keyed by step index.
func Export(sess *stepper.Session, sourceCode, asmCode string, createdAtMs int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "version = %s\n", FormatVersion)
	fmt.Fprintf(&b, "created_at_ms = %d\n", createdAtMs)

	bps := sess.Breakpoints()
	sort.Ints(bps)
	fmt.Fprintf(&b, "breakpoints = %s\n", joinInts(bps))

	b.WriteString("source_code_begin\n")
	b.WriteString(sourceCode)
	if !strings.HasSuffix(sourceCode, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("source_code_end\n")

	b.WriteString("asm_code_begin\n")
	b.WriteString(asmCode)
	if !strings.HasSuffix(asmCode, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("asm_code_end\n")

	for i := 0; i < sess.TimelineLength(); i++ {
		writeSnapshotLine(&b, i, sess)
	}

	return b.String()
}

func writeSnapshotLine(b *strings.Builder, step int, sess *stepper.Session) {
	saved := sess.Step()
	defer sess.Seek(saved)
	if err := sess.Seek(step); err != nil {
		return
	}
	state := sess.State()
	fmt.Fprintf(b, "snapshot %d registers", step)
	for _, name := range cpu.Names {
		v, _ := state.Registers.Get(name)
		fmt.Fprintf(b, " %s=%d", name, v)
	}
	fmt.Fprintf(b, " halted=%t", state.Halted)
	if state.Error != "" {
		fmt.Fprintf(b, " error=%s", encodeField(state.Error))
	}
	b.WriteString(" memory=")
	b.WriteString(encodeMemory(state.Memory))
	b.WriteString("\n")

	if tr := sess.Trace(step); tr != nil {
		fmt.Fprintf(b, "trace %d addr=%d ip_before=%d ip_after=%d cycles=%d timestamp_ms=%d",
			step, tr.InstructionAddress, tr.IPBefore, tr.IPAfter, tr.Cycles, tr.TimestampMs)
		fmt.Fprintf(b, " changed_registers=%s", strings.Join(tr.ChangedRegisters, ","))
		fmt.Fprintf(b, " changed_flags=%s", strings.Join(tr.ChangedFlags, ","))
		fmt.Fprintf(b, " changed_memory=%s", joinInts(tr.ChangedMemoryWords))
		fmt.Fprintf(b, " memory_reads=%s", joinInts(tr.MemoryReads))
		fmt.Fprintf(b, " memory_writes=%s", joinInts(tr.MemoryWrites))
		fmt.Fprintf(b, " output=%s", encodeOutput(tr.Output))
		b.WriteString("\n")
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}

func encodeOutput(events []stepper.OutputEvent) string {
	parts := make([]string, len(events))
	for i, e := range events {
		kind := "n"
		if e.Kind == stepper.OutputChar {
			kind = "c"
		}
		parts[i] = fmt.Sprintf("%s:%d", kind, e.Value)
	}
	return strings.Join(parts, ",")
}

func encodeMemory(m cpu.Memory) string {
	var b strings.Builder
	for i := 0; i < cpu.MemorySize; i++ {
		if m[i] != 0 {
			fmt.Fprintf(&b, "%d:%d;", i, m[i])
		}
	}
	return b.String()
}

func encodeField(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\\", "\\\\"), " ", "\\_")
}

func decodeField(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\\_", " "), "\\\\", "\\")
}

// Import parses a replay payload produced by Export (or any tolerant
// variant carrying the same header lines) and reconstructs a fresh
// *stepper.Session by re-assembling the program and re-running it for
// the recorded number of steps. Because CPU execution is a pure,
// deterministic function of program and step count, replaying the same
// number of steps reproduces the original timeline byte-for-byte except
// possibly TimestampMs. Import fails only when the payload isn't a
// recognized session, trace/snapshots/breakpoints are absent or not a
// sequence, the snapshot count is not the trace count plus one, or the
// embedded program does not reassemble.
func Import(payload string) (*stepper.Session, *Session, error) {
	var version string
	var createdAtMs int64
	var breakpoints []int
	haveBreakpoints := false
	var source, asmText strings.Builder
	inSource, inAsm := false, false
	numSnapshots, numTrace := 0, 0

	for _, line := range strings.Split(payload, "\n") {
		switch {
		case strings.HasPrefix(line, "version ="):
			version = strings.TrimSpace(strings.TrimPrefix(line, "version ="))
		case strings.HasPrefix(line, "created_at_ms ="):
			createdAtMs, _ = strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "created_at_ms =")), 10, 64)
		case strings.HasPrefix(line, "breakpoints ="):
			haveBreakpoints = true
			breakpoints = parseIntList(strings.TrimSpace(strings.TrimPrefix(line, "breakpoints =")))
		case line == "source_code_begin":
			inSource = true
		case line == "source_code_end":
			inSource = false
		case line == "asm_code_begin":
			inAsm = true
		case line == "asm_code_end":
			inAsm = false
		case inSource:
			source.WriteString(line)
			source.WriteString("\n")
		case inAsm:
			asmText.WriteString(line)
			asmText.WriteString("\n")
		case strings.HasPrefix(line, "snapshot "):
			numSnapshots++
		case strings.HasPrefix(line, "trace "):
			numTrace++
		}
	}

	if version == "" {
		return nil, nil, fmt.Errorf("payload is not a recognized replay session (no version field)")
	}
	if !haveBreakpoints {
		return nil, nil, fmt.Errorf("payload is missing the breakpoints sequence")
	}
	if numSnapshots == 0 {
		return nil, nil, fmt.Errorf("payload is missing the snapshots sequence")
	}
	if numSnapshots != numTrace+1 {
		return nil, nil, fmt.Errorf("snapshots/trace length mismatch: %d snapshots, %d trace entries", numSnapshots, numTrace)
	}

	sourceCode := source.String()
	asmCode := asmText.String()

	program, err := reassemble(sourceCode, asmCode)
	if err != nil {
		return nil, nil, fmt.Errorf("embedded source does not reassemble: %w", err)
	}

	for i := range breakpoints {
		breakpoints[i] &= 0xFFFF
	}

	sess := stepper.NewSession(program)
	for _, bp := range breakpoints {
		sess.AddBreakpoint(bp)
	}

	for i := 0; i < numTrace; i++ {
		if sess.State().Halted {
			break
		}
		if _, err := sess.StepInto(); err != nil {
			break
		}
	}

	meta := &Session{
		Version:     version,
		CreatedAtMs: createdAtMs,
		SourceCode:  sourceCode,
		AsmCode:     asmCode,
		Breakpoints: breakpoints,
	}
	return sess, meta, nil
}

// reassemble rebuilds a cpu.Program preferring asmCode; if assembling it
// yields any error diagnostic (or it is empty), it recompiles from
// sourceCode through the full lexer/parser/codegen/assembler pipeline.
func reassemble(sourceCode, asmCode string) (cpu.Program, error) {
	if strings.TrimSpace(asmCode) != "" {
		if prog, diags := asm.Assemble(asmCode); !diags.HasErrors() {
			return prog, nil
		}
	}
	if strings.TrimSpace(sourceCode) == "" {
		return cpu.Program{}, fmt.Errorf("no usable asm_code or source_code in payload")
	}
	toks, lexDiags := lexer.Lex(sourceCode)
	if lexDiags.HasErrors() {
		return cpu.Program{}, fmt.Errorf("source_code failed lexical analysis")
	}
	astProg, parseDiags := parser.Parse(toks)
	if parseDiags.HasErrors() {
		return cpu.Program{}, fmt.Errorf("source_code failed to parse")
	}
	generated, genDiags := codegen.Generate(astProg)
	if genDiags.HasErrors() {
		return cpu.Program{}, fmt.Errorf("source_code failed code generation")
	}
	prog, asmDiags := asm.Assemble(generated)
	if asmDiags.HasErrors() {
		return cpu.Program{}, fmt.Errorf("recompiled source_code failed to assemble")
	}
	return prog, nil
}

// parseIntList parses a comma-separated list of decimal integers,
// tolerating an empty string (yielding an empty, non-nil sequence).
func parseIntList(s string) []int {
	if strings.TrimSpace(s) == "" {
		return []int{}
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if v, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			out = append(out, v)
		}
	}
	return out
}
