/*
 * wut86 - Code generator: expressions and conditions
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

package codegen

import (
	"fmt"

	"github.com/wut86/wut86/lang/parser"
)

var cmpJump = map[string]string{
	"<": "JL", ">": "JG", "<=": "JLE", ">=": "JGE", "==": "JE", "!=": "JNE",
}

var cmpNegate = map[string]string{
	"<": ">=", ">": "<=", "<=": ">", ">=": "<", "==": "!=", "!=": "==",
}

// genExpr evaluates e and leaves the result in AX. Used in plain
// expression context, where and/or compile to bitwise operators and
// comparisons compile to the CMP/Jcc/MOV 0-or-1 idiom.
func (g *generator) genExpr(e parser.Expr) {
	switch ex := e.(type) {
	case *parser.NumberLit:
		g.emit(fmt.Sprintf("MOV AX, %d", ex.Value))
	case *parser.BoolLit:
		if ex.Value {
			g.emit("MOV AX, 1")
		} else {
			g.emit("MOV AX, 0")
		}
	case *parser.StringLit:
		g.diags.Errorf(ex.Line, "string literal is not valid in this expression context")
		g.emit("MOV AX, 0")
	case *parser.Ident:
		addr := g.allocVar(ex.Name)
		g.emit(fmt.Sprintf("MOV AX, [%d]", addr))
	case *parser.UnaryExpr:
		g.genUnary(ex)
	case *parser.BinaryExpr:
		g.genBinary(ex)
	}
}

func (g *generator) genUnary(ex *parser.UnaryExpr) {
	if ex.Op == "-" {
		g.genExpr(ex.X)
		g.emit("NEG AX")
		return
	}
	// "not": 0 becomes 1, anything else becomes 0.
	g.genExpr(ex.X)
	g.emit("CMP AX, 0")
	g.emitBoolFromJump("JE")
}

func (g *generator) genBinary(ex *parser.BinaryExpr) {
	switch ex.Op {
	case "and":
		g.genLeftRightToAXBX(ex)
		g.emit("AND AX, BX")
	case "or":
		g.genLeftRightToAXBX(ex)
		g.emit("OR AX, BX")
	case "+":
		g.genLeftRightToAXBX(ex)
		g.emit("ADD AX, BX")
	case "-":
		g.genLeftRightToAXBX(ex)
		g.emit("SUB AX, BX")
	case "*":
		g.genLeftRightToAXBX(ex)
		g.emit("MUL BX")
	case "/":
		g.genLeftRightToAXBX(ex)
		g.emit("MOV DX, 0")
		g.emit("DIV BX")
	case "%":
		g.genLeftRightToAXBX(ex)
		g.emit("MOV DX, 0")
		g.emit("MOD BX")
	default:
		if jcc, ok := cmpJump[ex.Op]; ok {
			g.genLeftRightToAXBX(ex)
			g.emit("CMP AX, BX")
			g.emitBoolFromJump(jcc)
		}
	}
}

// genLeftRightToAXBX implements the standard evaluation order: left into
// AX, push, right into AX, move to BX, pop AX. Leaves left in AX, right
// in BX.
func (g *generator) genLeftRightToAXBX(ex *parser.BinaryExpr) {
	g.genExpr(ex.Left)
	g.emit("PUSH AX")
	g.genExpr(ex.Right)
	g.emit("MOV BX, AX")
	g.emit("POP AX")
}

// emitBoolFromJump assumes flags are already set and materializes AX as
// 1 if jcc's condition holds, 0 otherwise.
func (g *generator) emitBoolFromJump(jcc string) {
	g.counter++
	id := g.counter
	trueLabel := fmt.Sprintf("_true_%d", id)
	endLabel := fmt.Sprintf("_boolend_%d", id)
	g.emit(fmt.Sprintf("%s %s", jcc, trueLabel))
	g.emit("MOV AX, 0")
	g.emit(fmt.Sprintf("JMP %s", endLabel))
	g.emit(trueLabel + ":")
	g.emit("MOV AX, 1")
	g.emit(endLabel + ":")
	g.emit("NOP")
}

// genCondJumpFalse emits code that jumps to falseLabel iff e evaluates
// false, short-circuiting and/or/not without ever materializing a 0/1
// value in AX. Only if/while/for guards compile through here; and/or in
// plain expression context stay bitwise.
func (g *generator) genCondJumpFalse(e parser.Expr, falseLabel string) {
	switch ex := e.(type) {
	case *parser.BinaryExpr:
		switch ex.Op {
		case "and":
			g.genCondJumpFalse(ex.Left, falseLabel)
			g.genCondJumpFalse(ex.Right, falseLabel)
			return
		case "or":
			g.counter++
			trueLabel := fmt.Sprintf("_or_true_%d", g.counter)
			g.genCondJumpTrue(ex.Left, trueLabel)
			g.genCondJumpFalse(ex.Right, falseLabel)
			g.emit(trueLabel + ":")
			g.emit("NOP")
			return
		}
		if _, ok := cmpJump[ex.Op]; ok {
			g.genLeftRightToAXBX(ex)
			g.emit("CMP AX, BX")
			g.emit(fmt.Sprintf("%s %s", cmpJump[cmpNegate[ex.Op]], falseLabel))
			return
		}
	case *parser.UnaryExpr:
		if ex.Op == "not" {
			g.genCondJumpTrue(ex.X, falseLabel)
			return
		}
	}
	g.genExpr(e)
	g.emit("CMP AX, 0")
	g.emit(fmt.Sprintf("JE %s", falseLabel))
}

// genCondJumpTrue is genCondJumpFalse's mirror image: it jumps to
// trueLabel iff e evaluates true.
func (g *generator) genCondJumpTrue(e parser.Expr, trueLabel string) {
	switch ex := e.(type) {
	case *parser.BinaryExpr:
		switch ex.Op {
		case "or":
			g.genCondJumpTrue(ex.Left, trueLabel)
			g.genCondJumpTrue(ex.Right, trueLabel)
			return
		case "and":
			g.counter++
			falseLabel := fmt.Sprintf("_and_false_%d", g.counter)
			g.genCondJumpFalse(ex.Left, falseLabel)
			g.genCondJumpTrue(ex.Right, trueLabel)
			g.emit(falseLabel + ":")
			g.emit("NOP")
			return
		}
		if jcc, ok := cmpJump[ex.Op]; ok {
			g.genLeftRightToAXBX(ex)
			g.emit("CMP AX, BX")
			g.emit(fmt.Sprintf("%s %s", jcc, trueLabel))
			return
		}
	case *parser.UnaryExpr:
		if ex.Op == "not" {
			g.genCondJumpFalse(ex.X, trueLabel)
			return
		}
	}
	g.genExpr(e)
	g.emit("CMP AX, 0")
	g.emit(fmt.Sprintf("JNE %s", trueLabel))
}
