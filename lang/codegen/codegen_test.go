package codegen

import (
	"strings"
	"testing"

	"github.com/wut86/wut86/lang/lexer"
	"github.com/wut86/wut86/lang/parser"
)

func generate(t *testing.T, src string) (string, int) {
	t.Helper()
	toks, lexDiags := lexer.Lex(src)
	if lexDiags.HasErrors() {
		t.Fatalf("lexer errors: %v", lexDiags.Items())
	}
	prog, parseDiags := parser.Parse(toks)
	if parseDiags.HasErrors() {
		t.Fatalf("parser errors: %v", parseDiags.Items())
	}
	asm, diags := Generate(prog)
	return asm, len(diags.Items())
}

func TestGenerateEndsWithHalt(t *testing.T) {
	asm, nerr := generate(t, "var x = 1\n")
	if nerr != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	lines := strings.Split(strings.TrimSpace(asm), "\n")
	if lines[len(lines)-1] != "HLT" {
		t.Fatalf("last line = %q, want HLT", lines[len(lines)-1])
	}
}

func TestGenerateAssignmentUsesVariableSlot(t *testing.T) {
	asm, nerr := generate(t, "var x = 5\nx = x + 1\n")
	if nerr != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	if !strings.Contains(asm, "MOV [256], AX") {
		t.Fatalf("expected store to variable slot at 256 (0x100), got:\n%s", asm)
	}
}

func TestGeneratePrintString(t *testing.T) {
	asm, nerr := generate(t, `print "hi"`+"\n")
	if nerr != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	if !strings.Contains(asm, "OUTC AX") {
		t.Fatalf("expected OUTC AX per character, got:\n%s", asm)
	}
	if strings.Count(asm, "OUTC AX") != 2 {
		t.Fatalf("expected 2 OUTC AX for 2 characters, got:\n%s", asm)
	}
}

func TestGeneratePrintExpr(t *testing.T) {
	asm, nerr := generate(t, "print 1 + 2\n")
	if nerr != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	if !strings.Contains(asm, "OUT AX") {
		t.Fatalf("expected OUT AX, got:\n%s", asm)
	}
}

func TestGenerateIfElseLabels(t *testing.T) {
	asm, nerr := generate(t, "if 1 > 0 then\nprint 1\nelse\nprint 0\nend\n")
	if nerr != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	for _, want := range []string{"_else_1:", "_endif_1:"} {
		if !strings.Contains(asm, want) {
			t.Errorf("expected %q in:\n%s", want, asm)
		}
	}
}

func TestGenerateWhileLabels(t *testing.T) {
	asm, nerr := generate(t, "var i = 0\nwhile i < 3 do\ni = i + 1\nend\n")
	if nerr != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	for _, want := range []string{"_while_1:", "_endwhile_1:"} {
		if !strings.Contains(asm, want) {
			t.Errorf("expected %q in:\n%s", want, asm)
		}
	}
}

func TestGenerateForDescendingUsesJL(t *testing.T) {
	asm, nerr := generate(t, "for i = 3 to 1 step -1\nprint i\nend\n")
	if nerr != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	if !strings.Contains(asm, "JL _endfor_1") {
		t.Fatalf("expected descending for to branch JL, got:\n%s", asm)
	}
}

func TestGenerateForAscendingUsesJG(t *testing.T) {
	asm, nerr := generate(t, "for i = 1 to 3\nprint i\nend\n")
	if nerr != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	if !strings.Contains(asm, "JG _endfor_1") {
		t.Fatalf("expected ascending for to branch JG, got:\n%s", asm)
	}
}

func TestGenerateSourceMapLabels(t *testing.T) {
	asm, nerr := generate(t, "var x = 1\nvar y = 2\n")
	if nerr != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	if !strings.Contains(asm, "_SRC_1:") || !strings.Contains(asm, "_SRC_2:") {
		t.Fatalf("expected per-line source map labels, got:\n%s", asm)
	}
}
