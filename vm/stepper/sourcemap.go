/*
 * wut86 - Source map extraction
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

package stepper

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/wut86/wut86/vm/cpu"
)

// SourceSpan maps one source line to the half-open instruction index
// range the compiler generated for it.
type SourceSpan struct {
	Line  int
	Start int
	End   int
}

var srcLabel = regexp.MustCompile(`^_SRC_(\d+)(?:_\d+)?$`)

// BuildSourceMap extracts the compiler's _SRC_<line> labels from prog's
// label table, ordered by instruction index. Each span runs through the
// instruction just before the next span's start, the last one through
// the end of the program.
func BuildSourceMap(prog cpu.Program) []SourceSpan {
	type mark struct{ line, index int }
	var marks []mark
	for name, idx := range prog.Labels {
		if m := srcLabel.FindStringSubmatch(name); m != nil {
			line, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			marks = append(marks, mark{line: line, index: idx})
		}
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].index < marks[j].index })

	spans := make([]SourceSpan, 0, len(marks))
	for i, mk := range marks {
		end := len(prog.Instructions)
		if i+1 < len(marks) {
			end = marks[i+1].index
		}
		spans = append(spans, SourceSpan{Line: mk.line, Start: mk.index, End: end})
	}
	return spans
}

// SourceLineAt returns the source line whose span covers instruction
// index addr, or 0 when no span does.
func SourceLineAt(spans []SourceSpan, addr int) int {
	for _, sp := range spans {
		if addr >= sp.Start && addr < sp.End {
			return sp.Line
		}
	}
	return 0
}
