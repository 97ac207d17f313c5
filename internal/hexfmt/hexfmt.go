/*
 * wut86 - Convert words to hex strings
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

package hexfmt

import "strings"

var hexMap = "0123456789ABCDEF"

// Word formats a single 16-bit word as four hex digits, no prefix.
func Word(w uint16) string {
	var b strings.Builder
	shift := 12
	for range 4 {
		b.WriteByte(hexMap[(w>>shift)&0xf])
		shift -= 4
	}
	return b.String()
}

// Byte formats a single byte as two hex digits, no prefix.
func Byte(v uint8) string {
	var b strings.Builder
	b.WriteByte(hexMap[(v>>4)&0xf])
	b.WriteByte(hexMap[v&0xf])
	return b.String()
}

// Words formats a run of words space-separated, for a memory dump line.
func Words(words []uint16) string {
	var b strings.Builder
	for i, w := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(Word(w))
	}
	return b.String()
}

// Dump renders the words in mem, the first of which lives at addr, as
// "ADDR: w0 w1 w2 ..." debugger lines, one line per 8 words.
func Dump(addr int, mem []uint16) []string {
	var lines []string
	for i := 0; i < len(mem); i += 8 {
		end := min(i+8, len(mem))
		lines = append(lines, Word(uint16(addr+i))+": "+Words(mem[i:end]))
	}
	return lines
}
