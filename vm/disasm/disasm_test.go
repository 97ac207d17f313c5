package disasm

import (
	"strings"
	"testing"

	"github.com/wut86/wut86/asm"
)

func TestProgramRendersLabelsAndOperands(t *testing.T) {
	prog, diags := asm.Assemble("loop:\nMOV AX, 1\nJMP loop\nHLT\n")
	if diags.HasErrors() {
		t.Fatalf("unexpected assembly errors: %v", diags.Items())
	}
	text := Program(prog)
	if !strings.Contains(text, "LOOP:") {
		t.Errorf("expected LOOP: label, got:\n%s", text)
	}
	if !strings.Contains(text, "MOV AX, 1") {
		t.Errorf("expected MOV AX, 1, got:\n%s", text)
	}
	if !strings.Contains(text, "JMP loop") {
		t.Errorf("expected JMP loop, got:\n%s", text)
	}
}
