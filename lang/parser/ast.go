/*
 * wut86 - Parser AST definitions
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

package parser

// Program is the root AST node.
type Program struct {
	Name       string
	Statements []Stmt
}

// Stmt is any statement node.
type Stmt interface {
	stmtNode()
}

type AssignStmt struct {
	Name string
	Expr Expr
	Line int
}

type VarDeclStmt struct {
	Name string
	Expr Expr // nil if no initializer
	Line int
}

type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
	Line int
}

type WhileStmt struct {
	Cond Expr
	Body []Stmt
	Line int
}

type ForStmt struct {
	Var  string
	From Expr
	To   Expr
	Step Expr // nil if omitted; defaults to 1 at codegen time
	Body []Stmt
	Line int
}

type PrintStmt struct {
	StringLit string // non-empty when printing a literal string
	IsString  bool
	Expr      Expr // valid when !IsString
	Line      int
}

type InputStmt struct {
	Name string
	Line int
}

func (*AssignStmt) stmtNode()  {}
func (*VarDeclStmt) stmtNode() {}
func (*IfStmt) stmtNode()      {}
func (*WhileStmt) stmtNode()   {}
func (*ForStmt) stmtNode()     {}
func (*PrintStmt) stmtNode()   {}
func (*InputStmt) stmtNode()   {}

// Expr is any expression node.
type Expr interface {
	exprNode()
}

type NumberLit struct {
	Value int
	Line  int
}

type StringLit struct {
	Value string
	Line  int
}

type BoolLit struct {
	Value bool
	Line  int
}

type Ident struct {
	Name string
	Line int
}

type UnaryExpr struct {
	Op   string // "-" or "not"
	X    Expr
	Line int
}

type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Line  int
}

func (*NumberLit) exprNode()  {}
func (*StringLit) exprNode()  {}
func (*BoolLit) exprNode()    {}
func (*Ident) exprNode()      {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
