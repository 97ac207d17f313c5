/*
 * wut86 - Cache-simulation trace consumer
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

// CacheConfig sizes the simulated direct-mapped, write-allocate data
// cache. LineSize must be a power of two.
type CacheConfig struct {
	Lines    int
	LineSize int
}

// DefaultCacheConfig is a 128-byte cache: 16 lines of 8 bytes, small
// enough that the 4 KiB address space produces visible conflict misses.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{Lines: 16, LineSize: 8}
}

// CacheStats reports one simulation's access counts.
type CacheStats struct {
	Accesses int
	Hits     int
	Misses   int
}

// HitRate is the fraction of accesses served from the cache, 0 when the
// trace performed no data accesses.
func (c CacheStats) HitRate() float64 {
	if c.Accesses == 0 {
		return 0
	}
	return float64(c.Hits) / float64(c.Accesses)
}

// SimulateCache replays every data address the trace touched (reads
// first, then writes, in each entry's recorded order) through a
// direct-mapped cache and counts hits and misses. Both reads and writes
// allocate their line on a miss.
func SimulateCache(entries []stepper.TraceEntry, cfg CacheConfig) CacheStats {
	if cfg.Lines <= 0 || cfg.LineSize <= 0 {
		cfg = DefaultCacheConfig()
	}
	var st CacheStats
	tags := make([]int, cfg.Lines)
	for i := range tags {
		tags[i] = -1
	}
	touch := func(addr int) {
		st.Accesses++
		line := addr / cfg.LineSize
		slot := line % cfg.Lines
		if tags[slot] == line {
			st.Hits++
			return
		}
		st.Misses++
		tags[slot] = line
	}
	for _, e := range entries {
		for _, a := range e.MemoryReads {
			touch(a)
		}
		for _, a := range e.MemoryWrites {
			touch(a)
		}
	}
	return st
}
