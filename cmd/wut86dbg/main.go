/*
 * wut86 - Interactive time-travel debugger
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

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	getopt "github.com/pborman/getopt/v2"
	"github.com/peterh/liner"

	"github.com/wut86/wut86/asm"
	"github.com/wut86/wut86/internal/coreconfig"
	"github.com/wut86/wut86/internal/hexfmt"
	"github.com/wut86/wut86/lang/codegen"
	"github.com/wut86/wut86/lang/lexer"
	"github.com/wut86/wut86/lang/parser"
	"github.com/wut86/wut86/vm/cpu"
	"github.com/wut86/wut86/vm/disasm"
	"github.com/wut86/wut86/vm/replay"
	"github.com/wut86/wut86/vm/stepper"
	"github.com/wut86/wut86/vm/trace"
)

func main() {
	optSource := getopt.StringLong("source", 's', "", "Source file (.w86) to compile and debug")
	optAsm := getopt.StringLong("asm", 'a', "", "Assembly file (.asm) to debug directly")
	optLoad := getopt.StringLong("load", 'r', "", "Resume a saved replay session instead of compiling")
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file overriding the default tunables")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	cfg := coreconfig.Default()
	if *optConfig != "" {
		f, err := os.Open(*optConfig)
		if err != nil {
			slog.Error("cannot open config file", "path", *optConfig, "error", err)
			os.Exit(1)
		}
		loaded, err := coreconfig.Load(f, cfg)
		f.Close()
		if err != nil {
			slog.Error("cannot parse config file", "path", *optConfig, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	dbg, err := newDebugger(*optSource, *optAsm, *optLoad, cfg)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	dbg.bindSourceMap()

	dbg.repl()
}

// debugger holds the one live session a REPL command can act on, plus
// the source material needed to re-save it as a replay payload.
type debugger struct {
	sess       *stepper.Session
	sourceCode string
	asmCode    string
	cfg        coreconfig.Config
	spans      []stepper.SourceSpan
	srcLines   []string
}

// bindSourceMap resolves the compiler's source-map labels so the state
// display can show the originating source line. A no-op for sessions
// assembled from hand-written assembly.
func (d *debugger) bindSourceMap() {
	d.spans, d.srcLines = nil, nil
	if d.sourceCode == "" {
		return
	}
	d.spans = stepper.BuildSourceMap(d.sess.Program)
	d.srcLines = strings.Split(d.sourceCode, "\n")
}

func newDebugger(sourcePath, asmPath, loadPath string, cfg coreconfig.Config) (*debugger, error) {
	if loadPath != "" {
		b, err := os.ReadFile(loadPath)
		if err != nil {
			return nil, fmt.Errorf("cannot read replay session %q: %w", loadPath, err)
		}
		sess, meta, err := replay.Import(string(b))
		if err != nil {
			return nil, fmt.Errorf("cannot import replay session: %w", err)
		}
		sess.SetMaxSteps(cfg.MaxStepsPerContinue)
		sess.SetMemoryDiffCap(cfg.MemoryDiffCap)
		return &debugger{sess: sess, sourceCode: meta.SourceCode, asmCode: meta.AsmCode, cfg: cfg}, nil
	}

	var sourceCode, asmCode string
	var err error
	if asmPath != "" {
		b, rerr := os.ReadFile(asmPath)
		if rerr != nil {
			return nil, fmt.Errorf("cannot read assembly file %q: %w", asmPath, rerr)
		}
		asmCode = string(b)
	} else if sourcePath != "" {
		b, rerr := os.ReadFile(sourcePath)
		if rerr != nil {
			return nil, fmt.Errorf("cannot read source file %q: %w", sourcePath, rerr)
		}
		sourceCode = string(b)
		asmCode, err = compile(sourceCode)
		if err != nil {
			return nil, err
		}
	} else {
		return nil, errors.New("one of --source, --asm, or --load is required")
	}

	prog, diags := asm.Assemble(asmCode)
	if diags.HasErrors() {
		for _, d := range diags.Items() {
			fmt.Fprintf(os.Stderr, "assembly error, line %d: %s\n", d.Line, d.Message)
		}
		return nil, errors.New("assembly failed")
	}

	return &debugger{sess: stepper.NewSessionWithConfig(prog, cfg), sourceCode: sourceCode, asmCode: asmCode, cfg: cfg}, nil
}

func compile(sourceCode string) (string, error) {
	toks, lexDiags := lexer.Lex(sourceCode)
	if lexDiags.HasErrors() {
		return "", errors.New("lexical analysis failed")
	}
	astProg, parseDiags := parser.Parse(toks)
	if parseDiags.HasErrors() {
		return "", errors.New("parsing failed")
	}
	generated, genDiags := codegen.Generate(astProg)
	if genDiags.HasErrors() {
		return "", errors.New("code generation failed")
	}
	return generated, nil
}

// verb is one dispatchable REPL command: a name, its minimum unique
// abbreviation length, and the handler it dispatches to.
type verb struct {
	name    string
	min     int
	process func(d *debugger, args []string) error
}

var verbList = []verb{
	{name: "step", min: 1, process: cmdStep},
	{name: "next", min: 1, process: cmdNext},
	{name: "continue", min: 1, process: cmdContinue},
	{name: "back", min: 1, process: cmdBack},
	{name: "seek", min: 2, process: cmdSeek},
	{name: "break", min: 2, process: cmdBreak},
	{name: "watch", min: 2, process: cmdWatch},
	{name: "regs", min: 1, process: cmdRegs},
	{name: "mem", min: 1, process: cmdMem},
	{name: "trace", min: 1, process: cmdTrace},
	{name: "list", min: 2, process: cmdList},
	{name: "load", min: 2, process: cmdLoad},
	{name: "save", min: 2, process: cmdSave},
	{name: "set", min: 3, process: cmdSet},
	{name: "show", min: 2, process: cmdShow},
	{name: "quit", min: 1, process: cmdQuit},
}

var errQuit = errors.New("quit")

func (d *debugger) repl() {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		return completeVerb(partial)
	})

	for {
		input, err := line.Prompt("wut86> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			slog.Error("error reading line", "error", err)
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if err := d.dispatch(input); err != nil {
			if errors.Is(err, errQuit) {
				return
			}
			fmt.Println("error: " + err.Error())
		}
	}
}

func completeVerb(prefix string) []string {
	var out []string
	for _, v := range verbList {
		if strings.HasPrefix(v.name, prefix) {
			out = append(out, v.name)
		}
	}
	return out
}

func (d *debugger) dispatch(input string) error {
	fields := strings.Fields(input)
	name := strings.ToLower(fields[0])
	args := fields[1:]

	for _, v := range verbList {
		if matchesVerb(name, v.name, v.min) {
			return v.process(d, args)
		}
	}
	return fmt.Errorf("unknown command %q", name)
}

func matchesVerb(typed, full string, min int) bool {
	if len(typed) < min || len(typed) > len(full) {
		return false
	}
	return full[:len(typed)] == typed
}

func cmdStep(d *debugger, _ []string) error {
	reason, err := d.sess.StepInto()
	if err != nil {
		return err
	}
	printStop(d, reason)
	return nil
}

func cmdNext(d *debugger, _ []string) error {
	reason, err := d.sess.StepOver()
	if err != nil {
		return err
	}
	printStop(d, reason)
	return nil
}

func cmdContinue(d *debugger, _ []string) error {
	reason, err := d.sess.Run()
	if err != nil {
		return err
	}
	printStop(d, reason)
	return nil
}

func cmdBack(d *debugger, _ []string) error {
	if err := d.sess.StepBack(); err != nil {
		return err
	}
	printState(d)
	return nil
}

func cmdSeek(d *debugger, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: seek <step>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid step number %q", args[0])
	}
	if err := d.sess.Seek(n); err != nil {
		return err
	}
	printState(d)
	return nil
}

func cmdBreak(d *debugger, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: break <address>")
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	d.sess.AddBreakpoint(addr)
	fmt.Printf("breakpoint set at %d\n", addr)
	return nil
}

func cmdWatch(d *debugger, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.New("usage: watch <address> <read|write|change> [size]")
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	var kind stepper.WatchKind
	switch strings.ToLower(args[1]) {
	case "read":
		kind = stepper.WatchRead
	case "write":
		kind = stepper.WatchWrite
	case "change":
		kind = stepper.WatchChange
	default:
		return fmt.Errorf("unknown watch kind %q", args[1])
	}
	size := 2
	if len(args) == 3 {
		size, err = strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid size %q", args[2])
		}
	}
	id := d.sess.AddWatchpoint(addr, size, kind)
	fmt.Printf("watchpoint #%d set at %d\n", id, addr)
	return nil
}

func cmdRegs(d *debugger, _ []string) error {
	printState(d)
	return nil
}

func cmdMem(d *debugger, args []string) error {
	if len(args) != 1 && len(args) != 2 {
		return errors.New("usage: mem <address> [count]")
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	count := 1
	if len(args) == 2 {
		count, err = strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid count %q", args[1])
		}
	}
	mem := d.sess.State().Memory
	for i := 0; i < count; i++ {
		wordAddr := addr + i*2
		v, ok := mem.ReadWord(wordAddr)
		if !ok {
			return fmt.Errorf("address %d out of range", wordAddr)
		}
		fmt.Printf("%4d: 0x%s\n", wordAddr, hexfmt.Word(v))
	}
	return nil
}

func cmdTrace(d *debugger, _ []string) error {
	step := d.sess.Step()
	tr := d.sess.Trace(step)
	if tr == nil {
		fmt.Println("(no trace at step 0)")
		return nil
	}
	fmt.Printf("step %d: %s  cycles=%d\n", step, tr.InstructionText, tr.Cycles)
	fmt.Printf("  changed registers: %s\n", strings.Join(tr.ChangedRegisters, ", "))
	fmt.Printf("  changed flags: %s\n", strings.Join(tr.ChangedFlags, ", "))
	if len(tr.Output) > 0 {
		fmt.Printf("  output: %q\n", trace.FormatOutput(tr.Output))
	}
	load := d.sess.Load()
	fmt.Printf("  load: %.0f%% (cycle=%.0f%% churn=%.0f%%)\n", load.Load, load.CyclePressure, load.ChurnPressure)
	return nil
}

func cmdLoad(d *debugger, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: load <path>")
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	sess, meta, err := replay.Import(string(b))
	if err != nil {
		return err
	}
	d.sess = sess
	d.sourceCode = meta.SourceCode
	d.asmCode = meta.AsmCode
	d.bindSourceMap()
	fmt.Printf("loaded replay session, %d steps\n", sess.TimelineLength()-1)
	return nil
}

func cmdSave(d *debugger, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: save <path>")
	}
	payload := replay.Export(d.sess, d.sourceCode, d.asmCode, time.Now().UnixMilli())
	if err := os.WriteFile(args[0], []byte(payload), 0o644); err != nil {
		return err
	}
	fmt.Printf("saved replay session to %s\n", args[0])
	return nil
}

func cmdList(d *debugger, _ []string) error {
	fmt.Print(disasm.Program(d.sess.Program))
	return nil
}

func cmdSet(d *debugger, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: set <max_steps_per_continue|memory_diff_cap> <value>")
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid value %q", args[1])
	}
	switch strings.ToLower(args[0]) {
	case "max_steps_per_continue":
		d.sess.SetMaxSteps(n)
		d.cfg.MaxStepsPerContinue = n
	case "memory_diff_cap":
		d.sess.SetMemoryDiffCap(n)
		d.cfg.MemoryDiffCap = n
	default:
		return fmt.Errorf("unknown tunable %q", args[0])
	}
	return nil
}

func cmdShow(d *debugger, _ []string) error {
	fmt.Printf("memory_size_bytes = %d\n", d.cfg.MemorySizeBytes)
	fmt.Printf("stack_top = %d\n", d.cfg.StackTop)
	fmt.Printf("var_base = %d\n", d.cfg.VarBase)
	fmt.Printf("port_base = %d\n", d.cfg.PortBase)
	fmt.Printf("max_steps_per_continue = %d\n", d.sess.MaxSteps())
	fmt.Printf("memory_diff_cap = %d\n", d.sess.MemoryDiffCap())
	return nil
}

func cmdQuit(_ *debugger, _ []string) error {
	return errQuit
}

func parseAddress(s string) (int, error) {
	v, err := cpu.ParseImmediate(s)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return int(v), nil
}

func printStop(d *debugger, reason stepper.StopReason) {
	if reason != stepper.StopNone {
		fmt.Printf("stopped: %s\n", reason.String())
	}
	printState(d)
}

func printState(d *debugger) {
	state := d.sess.State()
	fmt.Printf("step %d/%d  ", d.sess.Step(), d.sess.TimelineLength()-1)
	for _, name := range cpu.Names {
		v, _ := state.Registers.Get(name)
		fmt.Printf("%s=%d ", name, v)
	}
	fmt.Println()
	if state.Halted {
		fmt.Println("(halted)")
	}
	if ip := int(state.Registers.IP); ip < len(d.sess.Program.Instructions) {
		fmt.Println(disasm.Line(d.sess.Program, ip))
		if line := stepper.SourceLineAt(d.spans, ip); line > 0 && line <= len(d.srcLines) {
			fmt.Printf("  line %d: %s\n", line, strings.TrimSpace(d.srcLines[line-1]))
		}
	}
}
