/*
 * wut86 - Core configuration
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

// Package coreconfig holds the CPU/stepper tunables in a single record
// rather than scattering them across flags: memory size, stack top,
// variable/port base addresses, the step cap, and the memory-diff display
// cap. It loads overrides from a small hand-rolled key/value text format.
package coreconfig

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Config is the single record of VM tunables.
type Config struct {
	MemorySizeBytes     int
	StackTop            int
	VarBase             int
	PortBase            int
	MaxStepsPerContinue int
	MemoryDiffCap       int
}

// Default returns the stock tunables: a 4 KiB machine with SP starting
// at 4094, variables at 0x0100, ports at 0x0300.
func Default() Config {
	return Config{
		MemorySizeBytes:     4096,
		StackTop:            4094,
		VarBase:             0x0100,
		PortBase:            0x0300,
		MaxStepsPerContinue: 10000,
		MemoryDiffCap:       24,
	}
}

/* File format:
 *
 * '#' indicates comment, rest of line is ignored.
 * <line> := <key> <whitespace> '=' <whitespace> <number>
 * <key>  := memory_size_bytes | stack_top | var_base | port_base |
 *           max_steps_per_continue | memory_diff_cap, case-insensitive.
 */

// Load reads KEY = VALUE lines from r, applying overrides on top of base.
// Unknown keys and malformed lines produce an error naming the line number;
// a blank or comment line is ignored.
func Load(r io.Reader, base Config) (Config, error) {
	cfg := base
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return cfg, fmt.Errorf("line %d: expected KEY = VALUE", lineNumber)
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		n, err := strconv.Atoi(value)
		if err != nil {
			return cfg, fmt.Errorf("line %d: %s is not a number", lineNumber, value)
		}
		switch key {
		case "MEMORY_SIZE_BYTES":
			cfg.MemorySizeBytes = n
		case "STACK_TOP":
			cfg.StackTop = n
		case "VAR_BASE":
			cfg.VarBase = n
		case "PORT_BASE":
			cfg.PortBase = n
		case "MAX_STEPS_PER_CONTINUE":
			cfg.MaxStepsPerContinue = n
		case "MEMORY_DIFF_CAP":
			cfg.MemoryDiffCap = n
		default:
			return cfg, fmt.Errorf("line %d: unknown config key %q", lineNumber, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
