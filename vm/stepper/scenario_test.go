package stepper

import (
	"testing"

	"github.com/wut86/wut86/asm"
	"github.com/wut86/wut86/lang/codegen"
	"github.com/wut86/wut86/lang/lexer"
	"github.com/wut86/wut86/lang/parser"
	"github.com/wut86/wut86/vm/cpu"
)

// compileSource runs src through the full lexer/parser/codegen pipeline
// and assembles the result.
func compileSource(t *testing.T, src string) *Session {
	t.Helper()
	toks, lexDiags := lexer.Lex(src)
	if lexDiags.HasErrors() {
		t.Fatalf("lexer errors: %v", lexDiags.Items())
	}
	astProg, parseDiags := parser.Parse(toks)
	if parseDiags.HasErrors() {
		t.Fatalf("parser errors: %v", parseDiags.Items())
	}
	generated, genDiags := codegen.Generate(astProg)
	if genDiags.HasErrors() {
		t.Fatalf("codegen errors: %v", genDiags.Items())
	}
	prog, asmDiags := asm.Assemble(generated)
	if asmDiags.HasErrors() {
		t.Fatalf("assembly errors: %v", asmDiags.Items())
	}
	return NewSession(prog)
}

func numericOutputs(s *Session) []uint16 {
	var out []uint16
	for i := 1; i < s.TimelineLength(); i++ {
		if tr := s.Trace(i); tr != nil {
			for _, e := range tr.Output {
				if e.Kind == OutputNumber {
					out = append(out, e.Value)
				}
			}
		}
	}
	return out
}

const countdownSource = `x = 10
while x > 0
  print x
  x = x - 1
end
print 0
`

func TestScenarioCountdownPrint(t *testing.T) {
	s := compileSource(t, countdownSource)
	if _, err := s.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	want := []uint16{10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0}
	got := numericOutputs(s)
	if len(got) != len(want) {
		t.Fatalf("output = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("output[%d] = %d, want %d (full: %v)", i, got[i], want[i], got)
		}
	}
	state := s.State()
	if !state.Halted || state.Error != "" {
		t.Fatalf("expected clean halt, got halted=%v error=%q", state.Halted, state.Error)
	}
}

func TestScenarioSumLoop(t *testing.T) {
	src := `    MOV AX, 10
    MOV BX, 0
LOOP:
    ADD BX, AX
    DEC AX
    JNZ LOOP
    OUT BX
    HLT
`
	s := mustAssemble(t, src)
	if _, err := s.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	found := false
	for _, v := range numericOutputs(s) {
		if v == 55 {
			found = true
		}
	}
	if !found {
		t.Fatalf("output %v should contain 55", numericOutputs(s))
	}
	state := s.State()
	if state.Registers.AX != 0 || state.Registers.BX != 55 {
		t.Fatalf("AX=%d BX=%d, want 0 and 55", state.Registers.AX, state.Registers.BX)
	}
	if state.Registers.FLAGS&cpu.ZF == 0 {
		t.Fatal("expected ZF set after the final DEC to zero")
	}
}

func TestScenarioMemorySwap(t *testing.T) {
	src := `    MOV AX, 3
    MOV [0x0100], AX
    MOV AX, 9
    MOV [0x0102], AX
    MOV AX, [0x0100]
    MOV BX, [0x0102]
    MOV [0x0100], BX
    MOV [0x0102], AX
    HLT
`
	s := mustAssemble(t, src)
	if _, err := s.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	mem := s.State().Memory
	if v, _ := mem.ReadWord(0x0100); v != 9 {
		t.Fatalf("word at 0x0100 = %d, want 9", v)
	}
	if v, _ := mem.ReadWord(0x0102); v != 3 {
		t.Fatalf("word at 0x0102 = %d, want 3", v)
	}
}

func TestScenarioDivisionWithRemainder(t *testing.T) {
	src := `    MOV DX, 0
    MOV AX, 100
    MOV BX, 7
    DIV BX
    OUT AX
    OUT DX
    HLT
`
	s := mustAssemble(t, src)
	if _, err := s.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	got := numericOutputs(s)
	if len(got) != 2 || got[0] != 14 || got[1] != 2 {
		t.Fatalf("output = %v, want [14 2]", got)
	}
}

func TestScenarioInterruptRoundtrip(t *testing.T) {
	src := `    MOV AX, ISR
    MOV [0x0002], AX
    INT 1
    OUT AX
    HLT
ISR:
    MOV AX, 123
    IRET
`
	s := mustAssemble(t, src)

	// Step to just before INT to capture the state it must restore.
	for int(s.State().Registers.IP) != 2 {
		if _, err := s.StepInto(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	flagsBefore := s.State().Registers.FLAGS
	intAddr := s.State().Registers.IP

	if _, err := s.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	found := false
	for _, v := range numericOutputs(s) {
		if v == 123 {
			found = true
		}
	}
	if !found {
		t.Fatalf("output %v should contain 123", numericOutputs(s))
	}

	// Walk the timeline to the step where IRET executed and check the
	// restored IP and FLAGS.
	for i := 1; i < s.TimelineLength(); i++ {
		tr := s.Trace(i)
		if tr == nil || tr.InstructionText != "IRET" {
			continue
		}
		if tr.IPAfter != intAddr+1 {
			t.Fatalf("IRET returned to %d, want %d", tr.IPAfter, intAddr+1)
		}
		if err := s.Seek(i); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := s.State().Registers.FLAGS; got != flagsBefore {
			t.Fatalf("FLAGS after IRET = %04x, want %04x", got, flagsBefore)
		}
		return
	}
	t.Fatal("no IRET found in trace")
}

func TestScenarioTimeTravelConsistency(t *testing.T) {
	straight := compileSource(t, countdownSource)
	for i := 0; i < 7; i++ {
		if _, err := straight.StepInto(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	travel := compileSource(t, countdownSource)
	for i := 0; i < 7; i++ {
		if _, err := travel.StepInto(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := travel.Seek(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 4; i++ {
		if _, err := travel.StepInto(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if travel.State() != straight.State() {
		t.Fatalf("time-travel state diverged:\n  travel=%+v\n  straight=%+v", travel.State(), straight.State())
	}
}

func TestSourceMapCoversCompiledLines(t *testing.T) {
	s := compileSource(t, "x = 1\ny = 2\nprint x\n")
	spans := BuildSourceMap(s.Program)
	if len(spans) != 3 {
		t.Fatalf("got %d spans, want 3: %+v", len(spans), spans)
	}
	for i, sp := range spans {
		if sp.Line != i+1 {
			t.Errorf("span %d covers line %d, want %d", i, sp.Line, i+1)
		}
		if sp.Start >= sp.End {
			t.Errorf("span %d is empty: %+v", i, sp)
		}
	}
	if got := SourceLineAt(spans, spans[1].Start); got != 2 {
		t.Errorf("SourceLineAt = %d, want 2", got)
	}
	if got := SourceLineAt(spans, -1); got != 0 {
		t.Errorf("SourceLineAt out of range = %d, want 0", got)
	}
}
