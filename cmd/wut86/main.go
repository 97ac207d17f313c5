/*
 * wut86 - Batch compile/assemble/run driver
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
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	getopt "github.com/pborman/getopt/v2"

	"github.com/wut86/wut86/asm"
	"github.com/wut86/wut86/internal/coreconfig"
	"github.com/wut86/wut86/internal/diag"
	"github.com/wut86/wut86/internal/wlog"
	"github.com/wut86/wut86/lang/codegen"
	"github.com/wut86/wut86/lang/lexer"
	"github.com/wut86/wut86/lang/parser"
	"github.com/wut86/wut86/vm/replay"
	"github.com/wut86/wut86/vm/stepper"
	"github.com/wut86/wut86/vm/trace"
	"github.com/wut86/wut86/vm/trace/assert"
)

var Logger *slog.Logger

func main() {
	optSource := getopt.StringLong("source", 's', "", "Source file (.w86) to compile and run")
	optAsm := getopt.StringLong("asm", 'a', "", "Assembly file (.asm) to assemble and run, skipping compilation")
	optEmitAsm := getopt.StringLong("emit-asm", 'e', "", "Write the generated assembly to this path and exit")
	optAssert := getopt.StringLong("assert", 't', "", "Assertion script to check against the finished run")
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file overriding the default tunables")
	optReplay := getopt.StringLong("replay", 'r', "", "Run a saved replay session instead of compiling")
	optReplayOut := getopt.StringLong("save", 'o', "", "Write a replay session to this path after running")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Mirror every log record to stderr")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	Logger = slog.New(wlog.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, *optDebug))
	slog.SetDefault(Logger)

	if *optSource == "" && *optAsm == "" && *optReplay == "" {
		Logger.Error("one of --source, --asm, or --replay is required")
		getopt.Usage()
		os.Exit(1)
	}

	cfg := coreconfig.Default()
	if *optConfig != "" {
		f, err := os.Open(*optConfig)
		if err != nil {
			Logger.Error("cannot open config file", "path", *optConfig, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		loaded, err := coreconfig.Load(f, cfg)
		if err != nil {
			Logger.Error("cannot parse config file", "path", *optConfig, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	var sess *stepper.Session
	var sourceCode, asmCode string
	var reason stepper.StopReason
	if *optReplay != "" {
		b, err := os.ReadFile(*optReplay)
		if err != nil {
			Logger.Error("cannot read replay session", "path", *optReplay, "error", err)
			os.Exit(1)
		}
		restored, meta, err := replay.Import(string(b))
		if err != nil {
			Logger.Error("cannot import replay session", "path", *optReplay, "error", err)
			os.Exit(1)
		}
		sess = restored
		sourceCode, asmCode = meta.SourceCode, meta.AsmCode
		sess.SetMaxSteps(cfg.MaxStepsPerContinue)
		sess.SetMemoryDiffCap(cfg.MemoryDiffCap)
		reason = stepper.StopHalted
		if !sess.State().Halted {
			reason, err = sess.Run()
			if err != nil {
				Logger.Error("run aborted", "error", err)
				os.Exit(1)
			}
		}
	} else {
		var err error
		asmCode, err = resolveAsm(*optSource, *optAsm, &sourceCode)
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}

		if *optEmitAsm != "" {
			if err := os.WriteFile(*optEmitAsm, []byte(asmCode), 0o644); err != nil {
				Logger.Error("cannot write generated assembly", "path", *optEmitAsm, "error", err)
				os.Exit(1)
			}
			Logger.Info("wrote generated assembly", "path", *optEmitAsm)
			os.Exit(0)
		}

		prog, diags := asm.Assemble(asmCode)
		if reportDiagnostics(diags) {
			os.Exit(1)
		}

		sess = stepper.NewSessionWithConfig(prog, cfg)
		var runErr error
		reason, runErr = sess.Run()
		if runErr != nil {
			Logger.Error("run aborted", "error", runErr)
			os.Exit(1)
		}
	}

	printOutput(sess)
	Logger.Info("run finished", "stop_reason", reason.String(), "steps", sess.TimelineLength()-1)

	exitCode := 0
	if *optAssert != "" {
		exitCode = runAssertions(*optAssert, sess)
	}

	if *optReplayOut != "" {
		payload := replay.Export(sess, sourceCode, asmCode, time.Now().UnixMilli())
		if err := os.WriteFile(*optReplayOut, []byte(payload), 0o644); err != nil {
			Logger.Error("cannot write replay session", "path", *optReplayOut, "error", err)
			os.Exit(1)
		}
		Logger.Info("wrote replay session", "path", *optReplayOut)
	}

	os.Exit(exitCode)
}

// resolveAsm returns the assembly text to run: optAsm's contents if set,
// otherwise the result of compiling optSource through the full pipeline.
// *sourceCode is populated with the original source when one was used, so
// the caller can embed it in a saved replay session.
func resolveAsm(sourcePath, asmPath string, sourceCode *string) (string, error) {
	if asmPath != "" {
		b, err := os.ReadFile(asmPath)
		if err != nil {
			return "", fmt.Errorf("cannot read assembly file %q: %w", asmPath, err)
		}
		return string(b), nil
	}

	b, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("cannot read source file %q: %w", sourcePath, err)
	}
	*sourceCode = string(b)

	toks, lexDiags := lexer.Lex(*sourceCode)
	if reportDiagnostics(lexDiags) {
		return "", fmt.Errorf("lexical analysis failed")
	}
	astProg, parseDiags := parser.Parse(toks)
	if reportDiagnostics(parseDiags) {
		return "", fmt.Errorf("parsing failed")
	}
	generated, genDiags := codegen.Generate(astProg)
	if reportDiagnostics(genDiags) {
		return "", fmt.Errorf("code generation failed")
	}
	return generated, nil
}

// reportDiagnostics logs every diagnostic in bag and reports whether any
// of them was an error.
func reportDiagnostics(bag *diag.Bag) bool {
	for _, d := range bag.Items() {
		if d.Severity == diag.Error {
			Logger.Error(fmt.Sprintf("%s: %s", bag.Stage, d.Message), "line", d.Line)
		} else {
			Logger.Warn(fmt.Sprintf("%s: %s", bag.Stage, d.Message), "line", d.Line)
		}
	}
	return bag.HasErrors()
}

func printOutput(sess *stepper.Session) {
	var out strings.Builder
	for i := 1; i < sess.TimelineLength(); i++ {
		if tr := sess.Trace(i); tr != nil {
			out.WriteString(trace.FormatOutput(tr.Output))
		}
	}
	if out.Len() > 0 {
		fmt.Print(out.String())
	}
}

func runAssertions(path string, sess *stepper.Session) int {
	b, err := os.ReadFile(path)
	if err != nil {
		Logger.Error("cannot read assertion script", "path", path, "error", err)
		return 1
	}
	stmts, err := assert.Parse(string(b))
	if err != nil {
		Logger.Error("cannot parse assertion script", "path", path, "error", err)
		return 1
	}
	failures := assert.CheckSession(stmts, sess)
	if len(failures) == 0 {
		Logger.Info("all assertions passed", "count", len(stmts))
		return 0
	}
	for _, f := range failures {
		Logger.Error("assertion failed", "line", f.Line, "want", f.Want, "got", f.Got)
	}
	return 1
}
