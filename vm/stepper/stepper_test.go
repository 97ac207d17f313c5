package stepper

import (
	"testing"

	"github.com/wut86/wut86/asm"
)

func mustAssemble(t *testing.T, src string) *Session {
	t.Helper()
	prog, diags := asm.Assemble(src)
	if diags.HasErrors() {
		t.Fatalf("unexpected assembly errors: %v", diags.Items())
	}
	return NewSession(prog)
}

func TestStepIntoAdvancesIPAndRecordsTrace(t *testing.T) {
	s := mustAssemble(t, "MOV AX, 5\nADD AX, 3\nHLT\n")
	reason, err := s.StepInto()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reason != StopNone {
		t.Fatalf("expected StopNone, got %v", reason)
	}
	if s.State().Registers.AX != 5 {
		t.Fatalf("AX = %d, want 5", s.State().Registers.AX)
	}
	tr := s.Trace(1)
	if tr == nil {
		t.Fatal("expected a trace entry for step 1")
	}
	found := false
	for _, r := range tr.ChangedRegisters {
		if r == "AX" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected AX in changed registers, got %v", tr.ChangedRegisters)
	}
}

func TestRunHaltsAtHLT(t *testing.T) {
	s := mustAssemble(t, "MOV AX, 1\nMOV BX, 2\nHLT\n")
	reason, err := s.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reason != StopHalted {
		t.Fatalf("expected StopHalted, got %v", reason)
	}
	if !s.State().Halted {
		t.Fatal("expected state to be halted")
	}
}

func TestBreakpointStopsRun(t *testing.T) {
	s := mustAssemble(t, "MOV AX, 1\nMOV BX, 2\nMOV CX, 3\nHLT\n")
	s.AddBreakpoint(1)
	reason, err := s.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reason != StopBreakpoint {
		t.Fatalf("expected StopBreakpoint, got %v", reason)
	}
	if s.State().Registers.IP != 1 {
		t.Fatalf("IP = %d, want 1", s.State().Registers.IP)
	}
}

func TestWatchpointOnWriteStopsRun(t *testing.T) {
	s := mustAssemble(t, "MOV AX, 1\nMOV [0x0200], AX\nMOV BX, 2\nHLT\n")
	s.AddWatchpoint(0x0200, 2, WatchWrite)
	reason, err := s.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reason != StopWatchpoint {
		t.Fatalf("expected StopWatchpoint, got %v", reason)
	}
}

func TestStepBackAndSeek(t *testing.T) {
	s := mustAssemble(t, "MOV AX, 1\nMOV AX, 2\nMOV AX, 3\nHLT\n")
	for i := 0; i < 3; i++ {
		if _, err := s.StepInto(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if s.State().Registers.AX != 3 {
		t.Fatalf("AX = %d, want 3", s.State().Registers.AX)
	}
	if err := s.StepBack(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.State().Registers.AX != 2 {
		t.Fatalf("after StepBack, AX = %d, want 2", s.State().Registers.AX)
	}
	if err := s.Seek(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.State().Registers.AX != 0 {
		t.Fatalf("after Seek(0), AX = %d, want 0", s.State().Registers.AX)
	}
}

func TestSteppingFromMiddleTruncatesTimeline(t *testing.T) {
	s := mustAssemble(t, "MOV AX, 1\nMOV BX, 2\nMOV CX, 3\nHLT\n")
	for i := 0; i < 3; i++ {
		s.StepInto()
	}
	if err := s.Seek(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.StepInto(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TimelineLength() != 3 {
		t.Fatalf("timeline length = %d, want 3 after branching from step 1", s.TimelineLength())
	}
}

func TestStepOverSkipsCallBody(t *testing.T) {
	src := "JMP main\nsub:\nMOV CX, 99\nRET\nmain:\nCALL sub\nMOV AX, 1\nHLT\n"
	s := mustAssemble(t, src)
	for !s.State().Halted {
		addr := int(s.State().Registers.IP)
		if addr < len(s.Program.Instructions) && s.Program.Instructions[addr].Opcode == "CALL" {
			reason, err := s.StepOver()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reason != StopNone && reason != StopHalted {
				t.Fatalf("unexpected stop reason: %v", reason)
			}
			continue
		}
		if _, err := s.StepInto(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if s.State().Registers.CX != 99 {
		t.Fatalf("CX = %d, want 99 (subroutine should still have run)", s.State().Registers.CX)
	}
}

func TestOutputCapturedForOUTAndOUTC(t *testing.T) {
	s := mustAssemble(t, "MOV AX, 65\nOUTC AX\nMOV BX, 7\nOUT BX\nHLT\n")
	s.StepInto()
	s.StepInto()
	tr := s.Trace(2)
	if len(tr.Output) != 1 || tr.Output[0].Kind != OutputChar || tr.Output[0].Value != 65 {
		t.Fatalf("expected OUTC output of 65, got %+v", tr.Output)
	}
	s.StepInto()
	s.StepInto()
	tr = s.Trace(4)
	if len(tr.Output) != 1 || tr.Output[0].Kind != OutputNumber || tr.Output[0].Value != 7 {
		t.Fatalf("expected OUT output of 7, got %+v", tr.Output)
	}
}

func TestLoadMetricsStayWithinRange(t *testing.T) {
	s := mustAssemble(t, "MOV AX, 1\nMUL BX\nHLT\n")
	s.StepInto()
	s.StepInto()
	load := s.Load()
	if load.Load < 0 || load.Load > 100 {
		t.Fatalf("load out of range: %+v", load)
	}
}

func TestStepCapMarksStateHalted(t *testing.T) {
	s := mustAssemble(t, "LOOP:\nJMP LOOP\n")
	s.SetMaxSteps(50)
	reason, err := s.Run()
	if reason != StopStepCap {
		t.Fatalf("expected StopStepCap, got %v (err=%v)", reason, err)
	}
	state := s.State()
	if !state.Halted {
		t.Fatal("expected the capped state to be halted")
	}
	if state.Error != "Maximum steps exceeded (infinite loop?)" {
		t.Fatalf("unexpected error message %q", state.Error)
	}
	if _, err := s.StepInto(); err != nil {
		t.Fatalf("stepping a halted state must be a no-op, got %v", err)
	}
	if s.TimelineLength() != 51 {
		t.Fatalf("timeline length = %d, want 51 (50 steps + reset)", s.TimelineLength())
	}
}

func TestStepOverNestedCalls(t *testing.T) {
	src := `JMP main
inner:
MOV DX, 5
RET
outer:
CALL inner
MOV CX, 9
RET
main:
CALL outer
MOV AX, 1
HLT
`
	s := mustAssemble(t, src)
	if _, err := s.StepInto(); err != nil { // JMP main
		t.Fatalf("unexpected error: %v", err)
	}
	reason, err := s.StepOver() // CALL outer, through both levels
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reason != StopNone {
		t.Fatalf("unexpected stop reason: %v", reason)
	}
	state := s.State()
	if state.Registers.DX != 5 || state.Registers.CX != 9 {
		t.Fatalf("nested calls should have run: DX=%d CX=%d", state.Registers.DX, state.Registers.CX)
	}
	callSite := 0
	for i, instr := range s.Program.Instructions {
		if instr.Opcode == "CALL" && instr.Operands[0] == "outer" {
			callSite = i
		}
	}
	if int(state.Registers.IP) != callSite+1 {
		t.Fatalf("IP = %d, want %d (instruction after the call site)", state.Registers.IP, callSite+1)
	}
}
