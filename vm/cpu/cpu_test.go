package cpu

import "testing"

func run(s CPUState, opcode string, operands []string, labels map[string]int) CPUState {
	return Execute(s, Instruction{Opcode: opcode, Operands: operands}, labels)
}

func TestMovRegisterToRegister(t *testing.T) {
	s := Reset()
	s.Registers.BX = 42
	s2 := run(s, "MOV", []string{"AX", "BX"}, nil)
	if s2.Registers.AX != 42 {
		t.Errorf("AX = %d, want 42", s2.Registers.AX)
	}
	if s2.Registers.IP != 1 {
		t.Errorf("IP = %d, want 1", s2.Registers.IP)
	}
}

func TestAddSetsCarryAndZero(t *testing.T) {
	s := Reset()
	s.Registers.AX = 0xFFFF
	s.Registers.BX = 1
	s2 := run(s, "ADD", []string{"AX", "BX"}, nil)
	if s2.Registers.AX != 0 {
		t.Errorf("AX = %d, want 0", s2.Registers.AX)
	}
	if s2.Registers.FLAGS&ZF == 0 {
		t.Errorf("expected ZF set")
	}
	if s2.Registers.FLAGS&CF == 0 {
		t.Errorf("expected CF set")
	}
}

func TestSubOverflowFlag(t *testing.T) {
	s := Reset()
	s.Registers.AX = 0x8000
	s.Registers.BX = 1
	s2 := run(s, "SUB", []string{"AX", "BX"}, nil)
	if s2.Registers.FLAGS&OF == 0 {
		t.Errorf("expected OF set for 0x8000 - 1")
	}
}

func TestIncPreservesCarry(t *testing.T) {
	s := Reset()
	s.Registers.FLAGS |= CF
	s.Registers.AX = 5
	s2 := run(s, "INC", []string{"AX"}, nil)
	if s2.Registers.FLAGS&CF == 0 {
		t.Errorf("expected INC to preserve CF")
	}
	if s2.Registers.AX != 6 {
		t.Errorf("AX = %d, want 6", s2.Registers.AX)
	}
}

func TestMulSetsCarryOverflowOnHighWord(t *testing.T) {
	s := Reset()
	s.Registers.AX = 0xFFFF
	s.Registers.BX = 2
	s2 := run(s, "MUL", []string{"BX"}, nil)
	if s2.Registers.DX == 0 {
		t.Errorf("expected DX != 0")
	}
	if s2.Registers.FLAGS&CF == 0 || s2.Registers.FLAGS&OF == 0 {
		t.Errorf("expected CF and OF set when DX != 0")
	}
}

func TestDivByZeroHalts(t *testing.T) {
	s := Reset()
	s.Registers.AX = 10
	s.Registers.BX = 0
	s2 := run(s, "DIV", []string{"BX"}, nil)
	if !s2.Halted || s2.Error == "" {
		t.Errorf("expected halt with error, got %+v", s2)
	}
	if s2.Registers.IP != s.Registers.IP {
		t.Errorf("IP should be unchanged on failure")
	}
}

func TestModOperator(t *testing.T) {
	s := Reset()
	s.Registers.AX = 7
	s.Registers.BX = 3
	s2 := run(s, "MOD", []string{"BX"}, nil)
	if s2.Registers.AX != 1 {
		t.Errorf("AX = %d, want 1", s2.Registers.AX)
	}
}

func TestShiftCountZeroLeavesFlagsUntouched(t *testing.T) {
	s := Reset()
	s.Registers.AX = 0x1234
	s.Registers.FLAGS = OF | CF
	s2 := run(s, "SHL", []string{"AX", "0"}, nil)
	if s2.Registers.FLAGS != s.Registers.FLAGS {
		t.Errorf("flags changed on count==0 shift: got %x want %x", s2.Registers.FLAGS, s.Registers.FLAGS)
	}
	if s2.Registers.AX != 0x1234 {
		t.Errorf("AX changed on count==0 shift")
	}
}

func TestShiftOfOnlyDefinedAtCountOne(t *testing.T) {
	s := Reset()
	s.Registers.AX = 0x4000
	s.Registers.FLAGS = 0
	s2 := run(s, "SHL", []string{"AX", "1"}, nil)
	if s2.Registers.FLAGS&OF == 0 {
		t.Errorf("expected OF set: 0x4000 << 1 changes the MSB from 0 to 1")
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	s := Reset()
	s.Registers.AX = 0xBEEF
	s2 := run(s, "PUSH", []string{"AX"}, nil)
	if s2.Registers.SP != s.Registers.SP-2 {
		t.Errorf("SP = %d, want %d", s2.Registers.SP, s.Registers.SP-2)
	}
	s3 := run(s2, "POP", []string{"BX"}, nil)
	if s3.Registers.BX != 0xBEEF {
		t.Errorf("BX = %x, want BEEF", s3.Registers.BX)
	}
	if s3.Registers.SP != s.Registers.SP {
		t.Errorf("SP = %d, want %d after round trip", s3.Registers.SP, s.Registers.SP)
	}
}

func TestJmpToLabel(t *testing.T) {
	s := Reset()
	labels := map[string]int{"LOOP": 5}
	s2 := run(s, "JMP", []string{"loop"}, labels)
	if s2.Registers.IP != 5 {
		t.Errorf("IP = %d, want 5", s2.Registers.IP)
	}
}

func TestJmpUnknownLabelFallsBackToImmediate(t *testing.T) {
	s := Reset()
	s2 := run(s, "JMP", []string{"42"}, map[string]int{})
	if s2.Registers.IP != 42 {
		t.Errorf("IP = %d, want 42", s2.Registers.IP)
	}
}

func TestJccRequiresKnownLabel(t *testing.T) {
	s := Reset()
	s.Registers.FLAGS |= ZF
	s2 := run(s, "JE", []string{"42"}, map[string]int{})
	if !s2.Halted {
		t.Errorf("expected Jcc to a non-label operand to fail")
	}
}

func TestCallAndRet(t *testing.T) {
	s := Reset()
	labels := map[string]int{"SUB": 10}
	s.Registers.IP = 3
	s2 := run(s, "CALL", []string{"sub"}, labels)
	if s2.Registers.IP != 10 {
		t.Errorf("IP = %d, want 10", s2.Registers.IP)
	}
	s3 := run(s2, "RET", nil, nil)
	if s3.Registers.IP != 4 {
		t.Errorf("IP = %d, want 4 (return address)", s3.Registers.IP)
	}
}

func TestHaltFreezesState(t *testing.T) {
	s := Reset()
	s2 := run(s, "HLT", nil, nil)
	if !s2.Halted {
		t.Fatalf("expected halted")
	}
	s3 := Execute(s2, Instruction{Opcode: "NOP"}, nil)
	if s3 != s2 {
		t.Errorf("expected no-op after halt")
	}
}

func TestMemoryWriteAndRead(t *testing.T) {
	s := Reset()
	s.Registers.AX = 0x1234
	s2 := run(s, "MOV", []string{"[100]", "AX"}, nil)
	s3 := run(s2, "MOV", []string{"BX", "[100]"}, nil)
	if s3.Registers.BX != 0x1234 {
		t.Errorf("BX = %x, want 1234", s3.Registers.BX)
	}
}

func TestAdcFoldsCarryIntoOperand(t *testing.T) {
	s := Reset()
	s.Registers.FLAGS |= CF
	s.Registers.AX = 1
	s.Registers.BX = 1
	s2 := run(s, "ADC", []string{"AX", "BX"}, nil)
	if s2.Registers.AX != 3 {
		t.Errorf("AX = %d, want 3 (1 + 1 + carry)", s2.Registers.AX)
	}
}

func TestInterruptPushesFlagsAndReturnAddress(t *testing.T) {
	s := Reset()
	s.Registers.IP = 7
	// Vector 1's handler address lives at byte offset 2.
	mem, _ := s.Memory.WriteWord(2, 0x0200)
	s.Memory = mem
	s2 := run(s, "INT", []string{"1"}, nil)
	if s2.Registers.IP != 0x0200 {
		t.Errorf("IP = %x, want 0200 (handler)", s2.Registers.IP)
	}
	s3 := run(s2, "IRET", nil, nil)
	if s3.Registers.IP != 8 {
		t.Errorf("IP = %d, want 8 after IRET", s3.Registers.IP)
	}
}
