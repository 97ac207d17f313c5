/*
 * wut86 - Recursive-descent parser
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

// Package parser builds a program AST from the lexer's token stream.
package parser

import (
	"strconv"
	"strings"

	"github.com/wut86/wut86/internal/diag"
	"github.com/wut86/wut86/lang/lexer"
)

type parser struct {
	toks  []lexer.Token
	pos   int
	diags *diag.Bag
}

// Parse consumes the whole token stream and returns the program AST. The
// AST is always well-formed, even in the presence of errors recorded in
// the returned diagnostic bag.
func Parse(toks []lexer.Token) (*Program, *diag.Bag) {
	p := &parser{toks: toks, diags: diag.NewBag("Parsing")}
	prog := &Program{}

	p.skipNewlines()
	if p.check(lexer.KEYWORD, "program") {
		p.advance()
		if p.check(lexer.IDENTIFIER, "") {
			prog.Name = p.cur().Value
			p.advance()
		}
		p.skipNewlines()
	}

	prog.Statements = p.parseStatements(func() bool { return p.atEOF() })
	return prog, p.diags
}

// parseStatements parses statements until stop() is true, recovering from
// per-statement errors by skipping to the next NEWLINE.
func (p *parser) parseStatements(stop func() bool) []Stmt {
	var stmts []Stmt
	for {
		p.skipNewlines()
		if stop() || p.atEOF() {
			break
		}
		stmt, ok := p.parseStatement()
		if ok && stmt != nil {
			stmts = append(stmts, stmt)
		}
		if !ok {
			p.skipToNewline()
		}
		p.skipNewlines()
	}
	return stmts
}

func (p *parser) parseStatement() (Stmt, bool) {
	tok := p.cur()
	switch {
	case tok.Kind == lexer.KEYWORD && tok.Value == "var":
		return p.parseVarDecl()
	case tok.Kind == lexer.KEYWORD && tok.Value == "if":
		return p.parseIf()
	case tok.Kind == lexer.KEYWORD && tok.Value == "while":
		return p.parseWhile()
	case tok.Kind == lexer.KEYWORD && tok.Value == "for":
		return p.parseFor()
	case tok.Kind == lexer.KEYWORD && tok.Value == "print":
		return p.parsePrint()
	case tok.Kind == lexer.KEYWORD && tok.Value == "input":
		return p.parseInput()
	case tok.Kind == lexer.IDENTIFIER:
		return p.parseAssign()
	default:
		p.errorf("unexpected token %q", tok.Value)
		return nil, false
	}
}

func (p *parser) parseAssign() (Stmt, bool) {
	line := p.cur().Line
	name := p.cur().Value
	p.advance()
	if !p.expectOp("=") {
		return nil, false
	}
	expr, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	return &AssignStmt{Name: name, Expr: expr, Line: line}, true
}

func (p *parser) parseVarDecl() (Stmt, bool) {
	line := p.cur().Line
	p.advance() // "var"
	if !p.check(lexer.IDENTIFIER, "") {
		p.errorf("expected identifier after var")
		return nil, false
	}
	name := p.cur().Value
	p.advance()
	var expr Expr
	if p.checkOp("=") {
		p.advance()
		e, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		expr = e
	}
	return &VarDeclStmt{Name: name, Expr: expr, Line: line}, true
}

func (p *parser) parseIf() (Stmt, bool) {
	line := p.cur().Line
	p.advance() // "if"
	cond, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if p.check(lexer.KEYWORD, "then") {
		p.advance()
	}
	thenBody := p.parseStatements(func() bool {
		return p.check(lexer.KEYWORD, "else") || p.check(lexer.KEYWORD, "end")
	})
	var elseBody []Stmt
	if p.check(lexer.KEYWORD, "else") {
		p.advance()
		elseBody = p.parseStatements(func() bool { return p.check(lexer.KEYWORD, "end") })
	}
	if p.check(lexer.KEYWORD, "end") {
		p.advance()
	} else {
		p.errorf("unclosed if starting at line %d", line)
	}
	return &IfStmt{Cond: cond, Then: thenBody, Else: elseBody, Line: line}, true
}

func (p *parser) parseWhile() (Stmt, bool) {
	line := p.cur().Line
	p.advance() // "while"
	cond, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if p.check(lexer.KEYWORD, "do") {
		p.advance()
	}
	body := p.parseStatements(func() bool { return p.check(lexer.KEYWORD, "end") })
	if p.check(lexer.KEYWORD, "end") {
		p.advance()
	} else {
		p.errorf("unclosed while starting at line %d", line)
	}
	return &WhileStmt{Cond: cond, Body: body, Line: line}, true
}

func (p *parser) parseFor() (Stmt, bool) {
	line := p.cur().Line
	p.advance() // "for"
	if !p.check(lexer.IDENTIFIER, "") {
		p.errorf("expected identifier after for")
		return nil, false
	}
	name := p.cur().Value
	p.advance()
	if !p.expectOp("=") {
		return nil, false
	}
	from, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if !p.check(lexer.KEYWORD, "to") {
		p.errorf("expected 'to' in for statement")
		return nil, false
	}
	p.advance()
	to, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	var step Expr
	if p.check(lexer.KEYWORD, "step") {
		p.advance()
		s, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		step = s
	}
	body := p.parseStatements(func() bool { return p.check(lexer.KEYWORD, "end") })
	if p.check(lexer.KEYWORD, "end") {
		p.advance()
	} else {
		p.errorf("unclosed for starting at line %d", line)
	}
	return &ForStmt{Var: name, From: from, To: to, Step: step, Body: body, Line: line}, true
}

func (p *parser) parsePrint() (Stmt, bool) {
	line := p.cur().Line
	p.advance() // "print"
	if p.cur().Kind == lexer.STRING {
		v := p.cur().Value
		p.advance()
		return &PrintStmt{StringLit: v, IsString: true, Line: line}, true
	}
	expr, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	return &PrintStmt{Expr: expr, Line: line}, true
}

func (p *parser) parseInput() (Stmt, bool) {
	line := p.cur().Line
	p.advance() // "input"
	if !p.check(lexer.IDENTIFIER, "") {
		p.errorf("expected identifier after input")
		return nil, false
	}
	name := p.cur().Value
	p.advance()
	return &InputStmt{Name: name, Line: line}, true
}

// Expression grammar, lowest to highest precedence.

func (p *parser) parseExpr() (Expr, bool) { return p.parseOr() }

func (p *parser) parseOr() (Expr, bool) {
	left, ok := p.parseAnd()
	if !ok {
		return nil, false
	}
	for p.check(lexer.KEYWORD, "or") {
		line := p.cur().Line
		p.advance()
		right, ok := p.parseAnd()
		if !ok {
			return nil, false
		}
		left = &BinaryExpr{Op: "or", Left: left, Right: right, Line: line}
	}
	return left, true
}

func (p *parser) parseAnd() (Expr, bool) {
	left, ok := p.parseCmp()
	if !ok {
		return nil, false
	}
	for p.check(lexer.KEYWORD, "and") {
		line := p.cur().Line
		p.advance()
		right, ok := p.parseCmp()
		if !ok {
			return nil, false
		}
		left = &BinaryExpr{Op: "and", Left: left, Right: right, Line: line}
	}
	return left, true
}

var cmpOps = map[string]bool{"<": true, ">": true, "<=": true, ">=": true, "==": true, "!=": true}

func (p *parser) parseCmp() (Expr, bool) {
	left, ok := p.parseAdd()
	if !ok {
		return nil, false
	}
	for p.cur().Kind == lexer.OPERATOR && cmpOps[p.cur().Value] {
		op := p.cur().Value
		line := p.cur().Line
		p.advance()
		right, ok := p.parseAdd()
		if !ok {
			return nil, false
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right, Line: line}
	}
	return left, true
}

func (p *parser) parseAdd() (Expr, bool) {
	left, ok := p.parseMul()
	if !ok {
		return nil, false
	}
	for p.cur().Kind == lexer.OPERATOR && (p.cur().Value == "+" || p.cur().Value == "-") {
		op := p.cur().Value
		line := p.cur().Line
		p.advance()
		right, ok := p.parseMul()
		if !ok {
			return nil, false
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right, Line: line}
	}
	return left, true
}

func (p *parser) parseMul() (Expr, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return nil, false
	}
	for p.cur().Kind == lexer.OPERATOR && (p.cur().Value == "*" || p.cur().Value == "/" || p.cur().Value == "%") {
		op := p.cur().Value
		line := p.cur().Line
		p.advance()
		right, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right, Line: line}
	}
	return left, true
}

func (p *parser) parseUnary() (Expr, bool) {
	tok := p.cur()
	if (tok.Kind == lexer.OPERATOR && tok.Value == "-") || (tok.Kind == lexer.KEYWORD && tok.Value == "not") {
		p.advance()
		x, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &UnaryExpr{Op: tok.Value, X: x, Line: tok.Line}, true
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, bool) {
	tok := p.cur()
	switch {
	case tok.Kind == lexer.NUMBER:
		p.advance()
		n, err := parseNumber(tok.Value)
		if err != nil {
			p.errorfAt(tok.Line, "invalid number literal %q", tok.Value)
			return nil, false
		}
		return &NumberLit{Value: n, Line: tok.Line}, true
	case tok.Kind == lexer.STRING:
		p.advance()
		return &StringLit{Value: tok.Value, Line: tok.Line}, true
	case tok.Kind == lexer.KEYWORD && tok.Value == "true":
		p.advance()
		return &BoolLit{Value: true, Line: tok.Line}, true
	case tok.Kind == lexer.KEYWORD && tok.Value == "false":
		p.advance()
		return &BoolLit{Value: false, Line: tok.Line}, true
	case tok.Kind == lexer.IDENTIFIER:
		p.advance()
		return &Ident{Name: tok.Value, Line: tok.Line}, true
	case tok.Kind == lexer.OPERATOR && tok.Value == "(":
		p.advance()
		expr, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if !p.checkOp(")") {
			p.errorf("expected closing ')'")
			return nil, false
		}
		p.advance()
		return expr, true
	default:
		p.errorf("expected an expression, found %q", tok.Value)
		return nil, false
	}
}

// parseNumber parses any of the token's four literal forms into a value.
func parseNumber(s string) (int, error) {
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "0x"):
		n, err := strconv.ParseInt(lower[2:], 16, 64)
		return int(n), err
	case strings.HasPrefix(lower, "0b"):
		n, err := strconv.ParseInt(lower[2:], 2, 64)
		return int(n), err
	case strings.HasSuffix(lower, "h"):
		n, err := strconv.ParseInt(lower[:len(lower)-1], 16, 64)
		return int(n), err
	default:
		n, err := strconv.ParseInt(lower, 10, 64)
		return int(n), err
	}
}

// --- token stream helpers ---

func (p *parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *parser) advance() {
	if p.pos < len(p.toks) {
		p.pos++
	}
}

func (p *parser) atEOF() bool { return p.cur().Kind == lexer.EOF }

func (p *parser) check(k lexer.Kind, value string) bool {
	t := p.cur()
	if t.Kind != k {
		return false
	}
	return value == "" || t.Value == value
}

func (p *parser) checkOp(value string) bool {
	return p.check(lexer.OPERATOR, value)
}

func (p *parser) expectOp(value string) bool {
	if !p.checkOp(value) {
		p.errorf("expected %q, found %q", value, p.cur().Value)
		return false
	}
	p.advance()
	return true
}

func (p *parser) skipNewlines() {
	for p.cur().Kind == lexer.NEWLINE {
		p.advance()
	}
}

func (p *parser) skipToNewline() {
	for !p.atEOF() && p.cur().Kind != lexer.NEWLINE {
		p.advance()
	}
}

func (p *parser) errorf(format string, a ...any) {
	p.errorfAt(p.cur().Line, format, a...)
}

func (p *parser) errorfAt(line int, format string, a ...any) {
	p.diags.Errorf(line, format, a...)
}
