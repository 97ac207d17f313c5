package assert

import (
	"testing"

	"github.com/wut86/wut86/asm"
	"github.com/wut86/wut86/vm/stepper"
)

func runToHalt(t *testing.T, src string) *stepper.Session {
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

func TestParseAllStatementKinds(t *testing.T) {
	script := "# a comment\nREG AX = 5\nMEM [0x0100] = 10h\nOUT 7\nHALTED true\n; trailing comment\n"
	stmts, err := Parse(script)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(stmts) != 4 {
		t.Fatalf("got %d statements, want 4", len(stmts))
	}
	if stmts[0].Kind != KindReg || stmts[0].Name != "AX" || stmts[0].Want != 5 {
		t.Errorf("unexpected REG statement: %+v", stmts[0])
	}
	if stmts[1].Kind != KindMem || stmts[1].Address != 0x0100 || stmts[1].Want != 0x10 {
		t.Errorf("unexpected MEM statement: %+v", stmts[1])
	}
	if stmts[2].Kind != KindOut || stmts[2].Want != 7 {
		t.Errorf("unexpected OUT statement: %+v", stmts[2])
	}
	if stmts[3].Kind != KindHalted || !stmts[3].Flag {
		t.Errorf("unexpected HALTED statement: %+v", stmts[3])
	}
}

func TestParseRejectsUnknownStatement(t *testing.T) {
	if _, err := Parse("FROB 1\n"); err == nil {
		t.Fatal("expected an error for an unknown statement verb")
	}
}

func TestCheckSessionPassesOnMatchingProgram(t *testing.T) {
	s := runToHalt(t, "MOV AX, 5\nADD AX, 3\nOUT AX\nHLT\n")
	stmts, err := Parse("REG AX = 8\nOUT 8\nHALTED true\n")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	failures := CheckSession(stmts, s)
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %v", failures)
	}
}

func TestCheckSessionReportsMismatch(t *testing.T) {
	s := runToHalt(t, "MOV AX, 5\nHLT\n")
	stmts, err := Parse("REG AX = 99\n")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	failures := CheckSession(stmts, s)
	if len(failures) != 1 {
		t.Fatalf("expected one failure, got %v", failures)
	}
	if failures[0].Line != 1 {
		t.Errorf("failure line = %d, want 1", failures[0].Line)
	}
}
