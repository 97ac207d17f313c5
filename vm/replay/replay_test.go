package replay

import (
	"reflect"
	"testing"

	"github.com/wut86/wut86/asm"
	"github.com/wut86/wut86/lang/codegen"
	"github.com/wut86/wut86/lang/lexer"
	"github.com/wut86/wut86/lang/parser"
	"github.com/wut86/wut86/vm/stepper"
)

func mustGenerate(t *testing.T, src string) string {
	t.Helper()
	toks, lexDiags := lexer.Lex(src)
	if lexDiags.HasErrors() {
		t.Fatalf("unexpected lexical errors: %v", lexDiags.Items())
	}
	astProg, parseDiags := parser.Parse(toks)
	if parseDiags.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", parseDiags.Items())
	}
	generated, genDiags := codegen.Generate(astProg)
	if genDiags.HasErrors() {
		t.Fatalf("unexpected codegen errors: %v", genDiags.Items())
	}
	return generated
}

func TestExportImportRoundTrip(t *testing.T) {
	asmCode := "MOV AX, 5\nADD AX, 3\nOUTC AX\nMOV BX, 2\nHLT\n"
	prog, diags := asm.Assemble(asmCode)
	if diags.HasErrors() {
		t.Fatalf("unexpected assembly errors: %v", diags.Items())
	}

	sess := stepper.NewSession(prog)
	sess.AddBreakpoint(2)
	if _, err := sess.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	payload := Export(sess, "", asmCode, 1000)

	restored, meta, err := Import(payload)
	if err != nil {
		t.Fatalf("unexpected import error: %v", err)
	}

	if meta.Version != FormatVersion {
		t.Errorf("version = %q, want %q", meta.Version, FormatVersion)
	}
	if len(meta.Breakpoints) != 1 || meta.Breakpoints[0] != 2 {
		t.Errorf("breakpoints = %v, want [2]", meta.Breakpoints)
	}

	if restored.TimelineLength() != sess.TimelineLength() {
		t.Fatalf("timeline length = %d, want %d", restored.TimelineLength(), sess.TimelineLength())
	}

	for i := 0; i < sess.TimelineLength(); i++ {
		if err := sess.Seek(i); err != nil {
			t.Fatalf("seek original to %d: %v", i, err)
		}
		if err := restored.Seek(i); err != nil {
			t.Fatalf("seek restored to %d: %v", i, err)
		}
		if !reflect.DeepEqual(sess.State(), restored.State()) {
			t.Fatalf("state mismatch at step %d:\n  original=%+v\n  restored=%+v", i, sess.State(), restored.State())
		}

		origTrace := sess.Trace(i)
		restTrace := restored.Trace(i)
		if (origTrace == nil) != (restTrace == nil) {
			t.Fatalf("trace presence mismatch at step %d", i)
		}
		if origTrace != nil {
			o, r := *origTrace, *restTrace
			o.TimestampMs, r.TimestampMs = 0, 0
			if !reflect.DeepEqual(o, r) {
				t.Fatalf("trace mismatch at step %d:\n  original=%+v\n  restored=%+v", i, o, r)
			}
		}
	}
}

func TestImportRejectsMalformedPayload(t *testing.T) {
	if _, _, err := Import("not a replay session\n"); err == nil {
		t.Fatal("expected an error for a payload missing the version header")
	}
}

func TestImportFallsBackToSourceCodeWhenAsmMissing(t *testing.T) {
	src := "var x = 1\nprint x\n"
	prog, diags := asm.Assemble(mustGenerate(t, src))
	if diags.HasErrors() {
		t.Fatalf("unexpected assembly errors: %v", diags.Items())
	}
	sess := stepper.NewSession(prog)
	if _, err := sess.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	payload := Export(sess, src, "", 42)
	restored, _, err := Import(payload)
	if err != nil {
		t.Fatalf("unexpected import error: %v", err)
	}
	if restored.State().Halted != sess.State().Halted {
		t.Fatalf("restored halted = %v, want %v", restored.State().Halted, sess.State().Halted)
	}
}
