/*
 * wut86 - Flag arithmetic
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

import "math/bits"

func signOf(v uint16) bool { return v&0x8000 != 0 }

// baseFlags recomputes ZF/SF/PF from r, leaving every other bit of
// flags untouched.
func baseFlags(flags, r uint16) uint16 {
	flags &^= (ZF | SF | PF)
	if r == 0 {
		flags |= ZF
	}
	if signOf(r) {
		flags |= SF
	}
	if bits.OnesCount8(byte(r))%2 == 0 {
		flags |= PF
	}
	return flags
}

// addFlags computes a+b and the resulting flags per the add flag law.
func addFlags(a, b, flags uint16) (uint16, uint16) {
	raw := uint32(a) + uint32(b)
	r := uint16(raw)
	flags = baseFlags(flags, r)
	if raw > 0xFFFF {
		flags |= CF
	} else {
		flags &^= CF
	}
	if ((a ^ b ^ r) & 0x10) != 0 {
		flags |= AF
	} else {
		flags &^= AF
	}
	if signOf(a) == signOf(b) && signOf(r) != signOf(a) {
		flags |= OF
	} else {
		flags &^= OF
	}
	return r, flags
}

// subFlags computes a-b and the resulting flags per the sub flag law.
func subFlags(a, b, flags uint16) (uint16, uint16) {
	r := a - b
	flags = baseFlags(flags, r)
	if a < b {
		flags |= CF
	} else {
		flags &^= CF
	}
	if ((a ^ b ^ r) & 0x10) != 0 {
		flags |= AF
	} else {
		flags &^= AF
	}
	if signOf(a) != signOf(b) && signOf(r) != signOf(a) {
		flags |= OF
	} else {
		flags &^= OF
	}
	return r, flags
}

// logicalFlags updates ZF/SF/PF from r and clears CF/AF/OF, the
// AND/OR/XOR/NOT flag law.
func logicalFlags(r, flags uint16) uint16 {
	flags = baseFlags(flags, r)
	flags &^= (CF | OF | AF)
	return flags
}

// incFlags and decFlags behave like addFlags(a,1,...)/subFlags(a,1,...)
// but preserve the incoming CF; INC and DEC never touch the carry.
func incFlags(a, flags uint16) (uint16, uint16) {
	r, newFlags := addFlags(a, 1, flags)
	newFlags = (newFlags &^ CF) | (flags & CF)
	return r, newFlags
}

func decFlags(a, flags uint16) (uint16, uint16) {
	r, newFlags := subFlags(a, 1, flags)
	newFlags = (newFlags &^ CF) | (flags & CF)
	return r, newFlags
}

// adcOperand and sbbOperand implement the carry-fold deviation this
// simulator takes from real ADC/SBB: the carry is folded into the
// second operand before the add/sub flag law runs, rather than the
// 8086's three-term carry chain. See the toolchain's assembler/runtime
// design notes on ADC/SBB.
func adcOperand(a, b, flags uint16) (uint16, uint16) {
	bPrime := b
	if flags&CF != 0 {
		bPrime++
	}
	return addFlags(a, bPrime, flags)
}

func sbbOperand(a, b, flags uint16) (uint16, uint16) {
	bPrime := b
	if flags&CF != 0 {
		bPrime++
	}
	return subFlags(a, bPrime, flags)
}
