package trace

import (
	"testing"

	"github.com/wut86/wut86/vm/stepper"
)

func TestPredictBranchesLearnsLoopBranch(t *testing.T) {
	// The JNZ at the loop bottom is taken 9 times, then falls through
	// once. A two-bit counter warms up within two iterations, so almost
	// every taken occurrence predicts correctly.
	src := "MOV AX, 10\nLOOP:\nDEC AX\nJNZ LOOP\nHLT\n"
	s := runAll(t, src)
	st := PredictBranches(allTrace(s))
	if st.Branches != 10 {
		t.Fatalf("Branches = %d, want 10", st.Branches)
	}
	if st.Taken != 9 {
		t.Fatalf("Taken = %d, want 9", st.Taken)
	}
	if st.Predicted+st.Mispredicts != st.Branches {
		t.Fatalf("Predicted %d + Mispredicts %d != Branches %d", st.Predicted, st.Mispredicts, st.Branches)
	}
	if st.Accuracy() < 0.7 {
		t.Fatalf("Accuracy = %f, want >= 0.7 on a tight loop", st.Accuracy())
	}
}

func TestPredictBranchesEmptyTrace(t *testing.T) {
	st := PredictBranches(nil)
	if st.Branches != 0 || st.Accuracy() != 0 {
		t.Fatalf("expected zero stats for empty trace, got %+v", st)
	}
}

func TestSimulateCacheRepeatedAccessHits(t *testing.T) {
	src := "MOV AX, 5\nMOV [0x0100], AX\nMOV BX, [0x0100]\nMOV CX, [0x0100]\nHLT\n"
	s := runAll(t, src)
	st := SimulateCache(allTrace(s), DefaultCacheConfig())
	if st.Accesses != 3 {
		t.Fatalf("Accesses = %d, want 3", st.Accesses)
	}
	if st.Misses != 1 {
		t.Fatalf("Misses = %d, want 1 (first touch only)", st.Misses)
	}
	if st.Hits != 2 {
		t.Fatalf("Hits = %d, want 2", st.Hits)
	}
}

func TestSimulateCacheConflictMisses(t *testing.T) {
	// 0x0100 and 0x0180 are 128 bytes apart: with 16 lines of 8 bytes
	// they map to the same slot, so alternating between them never hits.
	src := "MOV AX, [0x0100]\nMOV BX, [0x0180]\nMOV CX, [0x0100]\nMOV DX, [0x0180]\nHLT\n"
	s := runAll(t, src)
	st := SimulateCache(allTrace(s), DefaultCacheConfig())
	if st.Accesses != 4 || st.Misses != 4 {
		t.Fatalf("expected 4 conflict misses, got %+v", st)
	}
}

func TestCountHazardsFindsAdjacentRAW(t *testing.T) {
	src := "MOV AX, 1\nADD BX, AX\nMOV CX, 2\nHLT\n"
	s := runAll(t, src)
	st := CountHazards(allTrace(s))
	if st.RAW < 1 {
		t.Fatalf("expected at least one RAW hazard (AX written then read), got %+v", st)
	}
}

func TestCountHazardsLoadUse(t *testing.T) {
	src := "MOV AX, 7\nMOV [0x0100], AX\nMOV BX, [0x0100]\nADD CX, BX\nHLT\n"
	s := runAll(t, src)
	st := CountHazards(allTrace(s))
	if st.LoadUse < 1 {
		t.Fatalf("expected a load-use hazard (BX loaded then consumed), got %+v", st)
	}
}

func TestCountHazardsIgnoresFlagsAndIP(t *testing.T) {
	// CMP only changes FLAGS and IP; the following register move reads
	// nothing CMP produced.
	entries := []stepper.TraceEntry{
		{InstructionText: "CMP AX, BX", ChangedRegisters: []string{"IP", "FLAGS"}},
		{InstructionText: "MOV CX, 1", ChangedRegisters: []string{"IP", "CX"}},
	}
	st := CountHazards(entries)
	if st.RAW != 0 {
		t.Fatalf("expected no hazards, got %+v", st)
	}
}
