package parser

import (
	"testing"

	"github.com/wut86/wut86/lang/lexer"
)

func parse(t *testing.T, src string) (*Program, int) {
	t.Helper()
	toks, lexDiags := lexer.Lex(src)
	if lexDiags.HasErrors() {
		t.Fatalf("lexer errors: %v", lexDiags.Items())
	}
	prog, diags := Parse(toks)
	return prog, len(diags.Items())
}

func TestParseVarDeclAndAssign(t *testing.T) {
	prog, nerr := parse(t, "var x = 1\nx = x + 1\n")
	if nerr != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	if len(prog.Statements) != 2 {
		t.Fatalf("got %d statements, want 2", len(prog.Statements))
	}
	vd, ok := prog.Statements[0].(*VarDeclStmt)
	if !ok || vd.Name != "x" {
		t.Fatalf("got %+v", prog.Statements[0])
	}
	as, ok := prog.Statements[1].(*AssignStmt)
	if !ok || as.Name != "x" {
		t.Fatalf("got %+v", prog.Statements[1])
	}
}

func TestParseIfElse(t *testing.T) {
	prog, nerr := parse(t, "if x > 0 then\nprint x\nelse\nprint 0\nend\n")
	if nerr != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	ifs, ok := prog.Statements[0].(*IfStmt)
	if !ok {
		t.Fatalf("got %+v", prog.Statements[0])
	}
	if len(ifs.Then) != 1 || len(ifs.Else) != 1 {
		t.Fatalf("then=%d else=%d", len(ifs.Then), len(ifs.Else))
	}
}

func TestParseWhile(t *testing.T) {
	prog, nerr := parse(t, "while i < 10 do\ni = i + 1\nend\n")
	if nerr != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	ws, ok := prog.Statements[0].(*WhileStmt)
	if !ok || len(ws.Body) != 1 {
		t.Fatalf("got %+v", prog.Statements[0])
	}
}

func TestParseForWithStep(t *testing.T) {
	prog, nerr := parse(t, "for i = 10 to 1 step -1\nprint i\nend\n")
	if nerr != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	fs, ok := prog.Statements[0].(*ForStmt)
	if !ok {
		t.Fatalf("got %+v", prog.Statements[0])
	}
	if fs.Step == nil {
		t.Fatalf("expected a step expression")
	}
}

func TestParseUnclosedIfProducesDiagnosticButWellFormedAST(t *testing.T) {
	prog, nerr := parse(t, "if x > 0 then\nprint x\n")
	if nerr == 0 {
		t.Fatalf("expected a diagnostic for unclosed if")
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("expected the if statement to still be present")
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	prog, nerr := parse(t, "x = 1 + 2 * 3\n")
	if nerr != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	as := prog.Statements[0].(*AssignStmt)
	bin, ok := as.Expr.(*BinaryExpr)
	if !ok || bin.Op != "+" {
		t.Fatalf("got %+v", as.Expr)
	}
	rhs, ok := bin.Right.(*BinaryExpr)
	if !ok || rhs.Op != "*" {
		t.Fatalf("expected right side to be the multiplication, got %+v", bin.Right)
	}
}

func TestParseErrorRecoverySkipsToNextLine(t *testing.T) {
	prog, nerr := parse(t, "x = \nprint 1\n")
	if nerr == 0 {
		t.Fatalf("expected a diagnostic for the malformed assignment")
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("expected recovery to still parse the print statement, got %d statements", len(prog.Statements))
	}
	if _, ok := prog.Statements[0].(*PrintStmt); !ok {
		t.Fatalf("got %+v", prog.Statements[0])
	}
}
