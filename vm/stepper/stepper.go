/*
 * wut86 - Step-by-step execution driver with time-travel history
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

package stepper

import (
	"fmt"
	"math"
	"strings"

	"github.com/wut86/wut86/internal/coreconfig"
	"github.com/wut86/wut86/vm/cpu"
)

// Snapshot pairs a machine state with the trace entry that produced it
// (nil for the initial snapshot at Step 0).
type Snapshot struct {
	State cpu.CPUState
	Trace *TraceEntry
}

// WatchKind selects what condition trips a watchpoint.
type WatchKind int

const (
	WatchRead WatchKind = iota
	WatchWrite
	WatchChange
)

// Watchpoint fires when any word in [Address, Address+Size) is touched
// per Kind during a step.
type Watchpoint struct {
	ID      int
	Address int
	Size    int
	Kind    WatchKind
}

// StopReason explains why Step/Run returned control to the caller.
type StopReason int

const (
	StopNone StopReason = iota
	StopHalted
	StopBreakpoint
	StopWatchpoint
	StopError
	StopStepCap
)

func (r StopReason) String() string {
	switch r {
	case StopHalted:
		return "halted"
	case StopBreakpoint:
		return "breakpoint"
	case StopWatchpoint:
		return "watchpoint"
	case StopError:
		return "error"
	case StopStepCap:
		return "step-cap"
	}
	return "none"
}

// Session drives a cpu.Program through time, keeping a seekable
// timeline of snapshots. It is not safe for concurrent use.
type Session struct {
	Program     cpu.Program
	timeline    []Snapshot
	cursor      int
	breakpoints map[int]bool
	watchpoints map[int]Watchpoint
	nextWatchID int
	clockMs     int64
	maxSteps    int
	memDiffCap  int

	loadEMA           float64
	lastCyclePressure float64
	lastChurnPressure float64
}

// NewSession creates a session reset to the start of prog, using
// coreconfig.Default's tunables.
func NewSession(prog cpu.Program) *Session {
	return NewSessionWithConfig(prog, coreconfig.Default())
}

// NewSessionWithConfig creates a session using cfg's MaxStepsPerContinue
// and MemoryDiffCap in place of the defaults.
func NewSessionWithConfig(prog cpu.Program, cfg coreconfig.Config) *Session {
	return &Session{
		Program:     prog,
		timeline:    []Snapshot{{State: cpu.Reset()}},
		cursor:      0,
		breakpoints: map[int]bool{},
		watchpoints: map[int]Watchpoint{},
		maxSteps:    cfg.MaxStepsPerContinue,
		memDiffCap:  cfg.MemoryDiffCap,
	}
}

// State returns the machine state at the current cursor position.
func (s *Session) State() cpu.CPUState { return s.timeline[s.cursor].State }

// MaxSteps reports the per-call step cap currently in force.
func (s *Session) MaxSteps() int { return s.maxSteps }

// SetMaxSteps adjusts the per-call step cap for future Run/StepOver calls.
func (s *Session) SetMaxSteps(n int) {
	if n > 0 {
		s.maxSteps = n
	}
}

// MemoryDiffCap reports the changed-memory display cap.
func (s *Session) MemoryDiffCap() int { return s.memDiffCap }

// SetMemoryDiffCap adjusts the changed-memory display cap for future steps.
func (s *Session) SetMemoryDiffCap(n int) {
	if n > 0 {
		s.memDiffCap = n
	}
}

// Step count so far (0 at the initial snapshot).
func (s *Session) Step() int { return s.cursor }

// AtTip reports whether the cursor is at the most recently executed step.
func (s *Session) AtTip() bool { return s.cursor == len(s.timeline)-1 }

// Trace returns the TraceEntry that produced the snapshot at position
// i (i must be >= 1); the entry for the initial snapshot is nil.
func (s *Session) Trace(i int) *TraceEntry {
	if i < 0 || i >= len(s.timeline) {
		return nil
	}
	return s.timeline[i].Trace
}

// TimelineLength is the number of snapshots currently retained.
func (s *Session) TimelineLength() int { return len(s.timeline) }

// AddBreakpoint arms a breakpoint at an instruction address.
func (s *Session) AddBreakpoint(addr int) { s.breakpoints[addr] = true }

// RemoveBreakpoint disarms a breakpoint.
func (s *Session) RemoveBreakpoint(addr int) { delete(s.breakpoints, addr) }

// Breakpoints lists currently armed breakpoint addresses.
func (s *Session) Breakpoints() []int {
	out := make([]int, 0, len(s.breakpoints))
	for a := range s.breakpoints {
		out = append(out, a)
	}
	return out
}

// AddWatchpoint arms a watchpoint over [addr, addr+size) and returns its
// assigned ID.
func (s *Session) AddWatchpoint(addr, size int, kind WatchKind) int {
	if size < 1 {
		size = 1
	}
	id := s.nextWatchID
	s.nextWatchID++
	s.watchpoints[id] = Watchpoint{ID: id, Address: addr, Size: size, Kind: kind}
	return id
}

// RemoveWatchpoint disarms a watchpoint by ID.
func (s *Session) RemoveWatchpoint(id int) { delete(s.watchpoints, id) }

// Watchpoints lists all currently armed watchpoints.
func (s *Session) Watchpoints() []Watchpoint {
	out := make([]Watchpoint, 0, len(s.watchpoints))
	for _, w := range s.watchpoints {
		out = append(out, w)
	}
	return out
}

// StepInto executes exactly one instruction, descending into CALLs.
// If the cursor is not at the tip, stepping truncates the timeline
// beyond the cursor before executing — a new future is recorded.
func (s *Session) StepInto() (StopReason, error) {
	if !s.AtTip() {
		s.timeline = s.timeline[:s.cursor+1]
	}
	before := s.State()
	if before.Halted {
		return StopHalted, nil
	}

	addr := int(before.Registers.IP)
	if addr < 0 || addr >= len(s.Program.Instructions) {
		return StopError, fmt.Errorf("instruction pointer %d out of range", addr)
	}
	instr := s.Program.Instructions[addr]

	output := captureOutput(instr, before)
	after := cpu.Execute(before, instr, s.Program.Labels)
	s.clockMs++
	entry := buildTrace(s.cursor+1, instr, before, after, output, s.clockMs, s.memDiffCap)
	s.updateLoad(entry)

	s.timeline = append(s.timeline, Snapshot{State: after, Trace: &entry})
	s.cursor++

	if after.Error != "" {
		return StopError, fmt.Errorf("%s", after.Error)
	}
	if after.Halted {
		return StopHalted, nil
	}
	if reason := s.checkWatchpoints(entry); reason != StopNone {
		return reason, nil
	}
	if s.breakpoints[int(after.Registers.IP)] {
		return StopBreakpoint, nil
	}
	return StopNone, nil
}

// StepOver behaves like StepInto, except a CALL runs to completion
// first: execution continues until IP reaches the instruction after the
// call site with the local call-depth counter back at zero, treating
// the whole call as one logical step.
func (s *Session) StepOver() (StopReason, error) {
	before := s.State()
	if before.Halted {
		return StopHalted, nil
	}
	addr := int(before.Registers.IP)
	if addr < 0 || addr >= len(s.Program.Instructions) {
		return StopError, fmt.Errorf("instruction pointer %d out of range", addr)
	}
	if !strings.EqualFold(s.Program.Instructions[addr].Opcode, "CALL") {
		return s.StepInto()
	}

	returnIP := uint16(addr) + 1
	depth := 0
	for taken := 0; ; taken++ {
		if taken >= s.maxSteps {
			return s.capExceeded()
		}
		cur := int(s.State().Registers.IP)
		if cur >= 0 && cur < len(s.Program.Instructions) {
			switch strings.ToUpper(s.Program.Instructions[cur].Opcode) {
			case "CALL":
				depth++
			case "RET":
				if depth > 0 {
					depth--
				}
			}
		}
		reason, err := s.StepInto()
		if err != nil || reason != StopNone {
			return reason, err
		}
		if depth == 0 && s.State().Registers.IP == returnIP {
			return StopNone, nil
		}
	}
}

// StepBack moves the cursor one position earlier in the timeline
// without discarding any recorded future; it is a pure seek.
func (s *Session) StepBack() error {
	if s.cursor == 0 {
		return fmt.Errorf("already at the start of the timeline")
	}
	s.cursor--
	return nil
}

// Seek moves the cursor to an arbitrary recorded step index.
func (s *Session) Seek(step int) error {
	if step < 0 || step >= len(s.timeline) {
		return fmt.Errorf("step %d is outside the recorded timeline (0-%d)", step, len(s.timeline)-1)
	}
	s.cursor = step
	return nil
}

// Run steps forward until a halt, breakpoint, watchpoint, error, or
// the step cap is reached. The cap bounds this single call, not the
// session's lifetime total.
func (s *Session) Run() (StopReason, error) {
	for taken := 0; ; taken++ {
		if taken >= s.maxSteps {
			return s.capExceeded()
		}
		reason, err := s.StepInto()
		if reason != StopNone || err != nil {
			return reason, err
		}
	}
}

const stepCapMessage = "Maximum steps exceeded (infinite loop?)"

// capExceeded freezes the tip state the way a runtime failure does, so
// a runaway program is observably halted rather than silently paused.
func (s *Session) capExceeded() (StopReason, error) {
	tip := &s.timeline[len(s.timeline)-1]
	tip.State.Halted = true
	tip.State.Error = stepCapMessage
	return StopStepCap, fmt.Errorf("%s", stepCapMessage)
}

func (s *Session) checkWatchpoints(entry TraceEntry) StopReason {
	for _, w := range s.watchpoints {
		switch w.Kind {
		case WatchRead:
			if overlapsAny(entry.MemoryReads, w.Address, w.Size) {
				return StopWatchpoint
			}
		case WatchWrite:
			if overlapsAny(entry.MemoryWrites, w.Address, w.Size) {
				return StopWatchpoint
			}
		case WatchChange:
			if overlapsAny(entry.ChangedMemoryWords, w.Address, w.Size) {
				return StopWatchpoint
			}
		}
	}
	return StopNone
}

// overlapsAny reports whether any address in xs (each a single byte or
// word address touched by the step) falls within [base, base+size).
func overlapsAny(xs []int, base, size int) bool {
	for _, x := range xs {
		if x >= base && x < base+size {
			return true
		}
	}
	return false
}

func captureOutput(instr cpu.Instruction, before cpu.CPUState) []OutputEvent {
	switch instr.Opcode {
	case "OUT":
		if len(instr.Operands) == 1 {
			if v, err := resolveForOutput(instr.Operands[0], before); err == nil {
				return []OutputEvent{{Kind: OutputNumber, Value: v}}
			}
		}
	case "OUTC":
		if len(instr.Operands) == 1 {
			if v, err := resolveForOutput(instr.Operands[0], before); err == nil {
				return []OutputEvent{{Kind: OutputChar, Value: v & 0x00FF}}
			}
		}
	}
	return nil
}

// resolveForOutput reads an operand's value without mutating state,
// mirroring the CPU core's own operand resolution for display purposes.
func resolveForOutput(operand string, s cpu.CPUState) (uint16, error) {
	if cpu.IsRegister(operand) {
		v, _ := s.Registers.Get(upperRegister(operand))
		return v, nil
	}
	if addr, ok := cpu.MemoryOperandAddress(operand, s.Registers); ok {
		v, ok := s.Memory.ReadWord(addr)
		if !ok {
			return 0, fmt.Errorf("memory read out of bounds at %d", addr)
		}
		return v, nil
	}
	return cpu.ParseImmediate(operand)
}

func upperRegister(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// LoadMetrics is the simulated-load performance indicator reported
// alongside each step: an EMA blend of instruction cost and register/
// flag/memory churn, scaled to a 0-100 range.
type LoadMetrics struct {
	CyclePressure float64
	ChurnPressure float64
	Load          float64
}

const emaCoefficient = 0.35

func clampPct(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}

// updateLoad recomputes the EMA per step from the cycle cost and the
// count of changed registers/flags/memory words this step produced.
func (s *Session) updateLoad(entry TraceEntry) {
	cyclePressure := clampPct(math.Round(float64(entry.Cycles) / 18.0 * 100))
	changedSignals := len(entry.ChangedRegisters) + len(entry.ChangedFlags) + len(entry.ChangedMemoryWords)
	churnPressure := clampPct(float64(changedSignals) * 12)
	blended := clampPct(math.Round(0.7*cyclePressure + 0.3*churnPressure))

	s.loadEMA = emaCoefficient*blended + (1-emaCoefficient)*s.loadEMA
	s.lastCyclePressure = cyclePressure
	s.lastChurnPressure = churnPressure
}

// Load reports the current simulated-load metric.
func (s *Session) Load() LoadMetrics {
	return LoadMetrics{
		CyclePressure: s.lastCyclePressure,
		ChurnPressure: s.lastChurnPressure,
		Load:          s.loadEMA,
	}
}
