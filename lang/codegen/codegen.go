/*
 * wut86 - Code generator
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

// Package codegen translates a program AST into assembly text for the
// two-pass assembler. Every source line that emits instructions gets a
// generated _SRC_<line> label so later stages can map execution back to
// source.
package codegen

import (
	"fmt"

	"github.com/wut86/wut86/internal/diag"
	"github.com/wut86/wut86/lang/parser"
)

const (
	varBase     = 0x0100
	memoryLimit = 4095
)

type generator struct {
	diags      *diag.Bag
	lines      []string
	varAddr    map[string]int
	varOrder   []string
	counter    int
	sourceSeen map[int]int
	memoryFull bool
}

// Generate turns prog into assembly source text.
func Generate(prog *parser.Program) (string, *diag.Bag) {
	g := &generator{
		diags:      diag.NewBag("Code Generation"),
		varAddr:    map[string]int{},
		sourceSeen: map[int]int{},
	}
	g.genStmts(prog.Statements)
	g.lines = append(g.lines, "HLT")
	text := ""
	for _, l := range g.lines {
		text += l + "\n"
	}
	return text, g.diags
}

func (g *generator) emit(s string) {
	g.lines = append(g.lines, s)
}

// withSourceMap generates body() and, if it emitted at least one line,
// prefixes the first of those lines with a _SRC_<line> label.
func (g *generator) withSourceMap(line int, body func()) {
	before := len(g.lines)
	body()
	if len(g.lines) == before {
		return
	}
	dup := g.sourceSeen[line]
	g.sourceSeen[line] = dup + 1
	label := fmt.Sprintf("_SRC_%d", line)
	if dup > 0 {
		label = fmt.Sprintf("%s_%d", label, dup)
	}
	g.lines = append(g.lines, "")
	copy(g.lines[before+1:], g.lines[before:])
	g.lines[before] = label + ":"
}

func (g *generator) allocVar(name string) int {
	if addr, ok := g.varAddr[name]; ok {
		return addr
	}
	addr := varBase + len(g.varOrder)*2
	if addr >= memoryLimit {
		if !g.memoryFull {
			g.diags.Errorf(0, "out of variable memory: cannot allocate %q", name)
			g.memoryFull = true
		}
	}
	g.varAddr[name] = addr
	g.varOrder = append(g.varOrder, name)
	return addr
}

func (g *generator) genStmts(stmts []parser.Stmt) {
	for _, s := range stmts {
		g.genStmt(s)
	}
}

func (g *generator) genStmt(s parser.Stmt) {
	switch st := s.(type) {
	case *parser.VarDeclStmt:
		g.withSourceMap(st.Line, func() {
			addr := g.allocVar(st.Name)
			if st.Expr != nil {
				g.genExpr(st.Expr)
				g.emit(fmt.Sprintf("MOV [%d], AX", addr))
			}
		})
	case *parser.AssignStmt:
		g.withSourceMap(st.Line, func() {
			g.genExpr(st.Expr)
			addr := g.allocVar(st.Name)
			g.emit(fmt.Sprintf("MOV [%d], AX", addr))
		})
	case *parser.IfStmt:
		g.genIfBody(st)
	case *parser.WhileStmt:
		g.genWhile(st)
	case *parser.ForStmt:
		g.genFor(st)
	case *parser.PrintStmt:
		g.genPrint(st)
	case *parser.InputStmt:
		g.withSourceMap(st.Line, func() {
			addr := g.allocVar(st.Name)
			g.emit("IN AX, 0")
			g.emit(fmt.Sprintf("MOV [%d], AX", addr))
		})
	}
}

// genIfBody implements the labeling scheme described for if/while/for:
// a single claimed id produces the paired labels for that construct.
func (g *generator) genIfBody(st *parser.IfStmt) {
	g.counter++
	id := g.counter
	elseLabel := fmt.Sprintf("_else_%d", id)
	endLabel := fmt.Sprintf("_endif_%d", id)

	g.withSourceMap(st.Line, func() {
		if len(st.Else) > 0 {
			g.genCondJumpFalse(st.Cond, elseLabel)
		} else {
			g.genCondJumpFalse(st.Cond, endLabel)
		}
	})
	g.genStmts(st.Then)
	if len(st.Else) > 0 {
		g.emit(fmt.Sprintf("JMP %s", endLabel))
		g.emit(elseLabel + ":")
		g.emit("NOP")
		g.genStmts(st.Else)
	}
	g.emit(endLabel + ":")
	g.emit("NOP")
}

func (g *generator) genWhile(st *parser.WhileStmt) {
	g.counter++
	id := g.counter
	headLabel := fmt.Sprintf("_while_%d", id)
	endLabel := fmt.Sprintf("_endwhile_%d", id)

	g.emit(headLabel + ":")
	g.emit("NOP")
	g.withSourceMap(st.Line, func() {
		g.genCondJumpFalse(st.Cond, endLabel)
	})
	g.genStmts(st.Body)
	g.emit(fmt.Sprintf("JMP %s", headLabel))
	g.emit(endLabel + ":")
	g.emit("NOP")
}

func (g *generator) genFor(st *parser.ForStmt) {
	g.counter++
	id := g.counter
	headLabel := fmt.Sprintf("_for_%d", id)
	endLabel := fmt.Sprintf("_endfor_%d", id)

	addr := g.allocVar(st.Var)
	g.withSourceMap(st.Line, func() {
		g.genExpr(st.From)
		g.emit(fmt.Sprintf("MOV [%d], AX", addr))
	})

	g.emit(headLabel + ":")
	g.emit("NOP")
	g.genExpr(st.To)
	g.emit(fmt.Sprintf("MOV BX, [%d]", addr))
	// loop variable in BX, bound in AX: CMP BX, AX.
	g.emit("CMP BX, AX")
	if stepIsNonNegativeLiteral(st.Step) {
		g.emit(fmt.Sprintf("JG %s", endLabel))
	} else {
		g.emit(fmt.Sprintf("JL %s", endLabel))
	}

	g.genStmts(st.Body)

	if st.Step != nil {
		g.genExpr(st.Step)
	} else {
		g.emit("MOV AX, 1")
	}
	g.emit("MOV BX, AX")
	g.emit(fmt.Sprintf("MOV AX, [%d]", addr))
	g.emit("ADD AX, BX")
	g.emit(fmt.Sprintf("MOV [%d], AX", addr))
	g.emit(fmt.Sprintf("JMP %s", headLabel))
	g.emit(endLabel + ":")
	g.emit("NOP")
}

func stepIsNonNegativeLiteral(step parser.Expr) bool {
	if step == nil {
		return true
	}
	switch e := step.(type) {
	case *parser.NumberLit:
		return e.Value >= 0
	case *parser.UnaryExpr:
		if e.Op == "-" {
			if _, ok := e.X.(*parser.NumberLit); ok {
				return false
			}
		}
	}
	return false
}

func (g *generator) genPrint(st *parser.PrintStmt) {
	g.withSourceMap(st.Line, func() {
		if st.IsString {
			for _, r := range st.StringLit {
				g.emit(fmt.Sprintf("MOV AX, %d", r))
				g.emit("OUTC AX")
			}
			return
		}
		g.genExpr(st.Expr)
		g.emit("OUT AX")
	})
}
