/*
 * wut86 - Branch-prediction trace consumer
 *
 * Copyright 2026, wut86 authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package trace

import "github.com/wut86/wut86/vm/stepper"

// BranchStats summarizes a branch-prediction simulation: how many
// conditional branches executed, how many were taken, and how many the
// predictor got right.
type BranchStats struct {
	Branches    int
	Taken       int
	Predicted   int
	Mispredicts int
}

// Accuracy is the fraction of branches predicted correctly, 0 when the
// trace held no conditional branches.
func (b BranchStats) Accuracy() float64 {
	if b.Branches == 0 {
		return 0
	}
	return float64(b.Predicted) / float64(b.Branches)
}

// PredictBranches replays every conditional branch in the trace through
// a per-site two-bit saturating counter predictor. Each branch address
// gets its own counter, starting weakly not-taken; states 2 and 3
// predict taken. The actual direction comes from BranchTaken, so the
// predictor never re-evaluates flags.
func PredictBranches(entries []stepper.TraceEntry) BranchStats {
	var st BranchStats
	counters := map[int]int{}
	for _, e := range entries {
		if !IsConditionalBranch(e) {
			continue
		}
		st.Branches++
		taken := BranchTaken(e)
		if taken {
			st.Taken++
		}

		site := e.InstructionAddress
		c, seen := counters[site]
		if !seen {
			c = 1
		}
		if (c >= 2) == taken {
			st.Predicted++
		} else {
			st.Mispredicts++
		}
		if taken {
			if c < 3 {
				c++
			}
		} else if c > 0 {
			c--
		}
		counters[site] = c
	}
	return st
}
