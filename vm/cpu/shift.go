/*
 * wut86 - Shift instructions
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

package cpu

// shift applies one of SHL/SAL/SHR/SAR to v by count (already masked to
// 5 bits) and returns the result and updated flags. The caller skips
// this function entirely when count==0: a zero-count shift updates no
// flags.
func shift(op string, v, count, flags uint16) (uint16, uint16) {
	original := v
	var lastOut bool
	r := v
	for i := uint16(0); i < count; i++ {
		switch op {
		case "SHL", "SAL":
			lastOut = r&0x8000 != 0
			r <<= 1
		case "SHR":
			lastOut = r&0x0001 != 0
			r >>= 1
		case "SAR":
			lastOut = r&0x0001 != 0
			r = uint16(int16(r) >> 1)
		}
	}

	flags = baseFlags(flags, r)
	if lastOut {
		flags |= CF
	} else {
		flags &^= CF
	}

	if count == 1 {
		var of bool
		switch op {
		case "SHL", "SAL":
			of = signOf(original) != signOf(r)
		case "SHR":
			of = signOf(original)
		case "SAR":
			of = false
		}
		if of {
			flags |= OF
		} else {
			flags &^= OF
		}
	}
	// count > 1: OF is preserved, i.e. left untouched in flags.

	return r, flags
}
