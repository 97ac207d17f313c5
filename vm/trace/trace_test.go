package trace

import (
	"testing"

	"github.com/wut86/wut86/asm"
	"github.com/wut86/wut86/vm/stepper"
)

func runAll(t *testing.T, src string) *stepper.Session {
	t.Helper()
	prog, diags := asm.Assemble(src)
	if diags.HasErrors() {
		t.Fatalf("unexpected assembly errors: %v", diags.Items())
	}
	s := stepper.NewSession(prog)
	if _, err := s.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	return s
}

func allTrace(s *stepper.Session) []stepper.TraceEntry {
	var out []stepper.TraceEntry
	for i := 1; i < s.TimelineLength(); i++ {
		if tr := s.Trace(i); tr != nil {
			out = append(out, *tr)
		}
	}
	return out
}

func TestFormatOutputMixesNumbersAndChars(t *testing.T) {
	events := []stepper.OutputEvent{
		{Kind: stepper.OutputNumber, Value: 42},
		{Kind: stepper.OutputChar, Value: 'h'},
		{Kind: stepper.OutputChar, Value: 'i'},
		{Kind: stepper.OutputChar, Value: 10},
	}
	got := FormatOutput(events)
	want := "42\nhi\n"
	if got != want {
		t.Fatalf("FormatOutput = %q, want %q", got, want)
	}
}

func TestAnalyzeCountsInstructionsAndCycles(t *testing.T) {
	s := runAll(t, "MOV AX, 1\nADD AX, 2\nHLT\n")
	st := Analyze(allTrace(s))
	if st.Instructions != 3 {
		t.Fatalf("Instructions = %d, want 3", st.Instructions)
	}
	if st.ByOpcode["MOV"] != 1 || st.ByOpcode["ADD"] != 1 || st.ByOpcode["HLT"] != 1 {
		t.Fatalf("unexpected opcode histogram: %+v", st.ByOpcode)
	}
	if st.TotalCycles <= 0 {
		t.Fatalf("expected positive total cycles, got %d", st.TotalCycles)
	}
}

func TestBranchTakenDetection(t *testing.T) {
	src := "MOV AX, 1\nCMP AX, 1\nJE skip\nMOV BX, 99\nskip:\nMOV CX, 1\nHLT\n"
	s := runAll(t, src)
	var sawJump bool
	for _, e := range allTrace(s) {
		if IsConditionalBranch(e) {
			sawJump = true
			if !BranchTaken(e) {
				t.Errorf("expected JE to be taken for equal operands")
			}
		}
	}
	if !sawJump {
		t.Fatal("expected at least one conditional branch in trace")
	}
}
