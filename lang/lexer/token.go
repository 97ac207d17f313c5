/*
 * wut86 - Lexer token definitions
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

package lexer

// Kind classifies a token.
type Kind int

const (
	KEYWORD Kind = iota
	IDENTIFIER
	NUMBER
	OPERATOR
	STRING
	NEWLINE
	EOF
)

func (k Kind) String() string {
	switch k {
	case KEYWORD:
		return "KEYWORD"
	case IDENTIFIER:
		return "IDENTIFIER"
	case NUMBER:
		return "NUMBER"
	case OPERATOR:
		return "OPERATOR"
	case STRING:
		return "STRING"
	case NEWLINE:
		return "NEWLINE"
	case EOF:
		return "EOF"
	}
	return "?"
}

// Token is one lexical unit with its source position.
type Token struct {
	Kind   Kind
	Value  string
	Line   int
	Column int
}

// Keywords are case-insensitive in the source, normalized to lower case.
var Keywords = map[string]bool{
	"program": true,
	"end":     true,
	"if":      true,
	"else":    true,
	"while":   true,
	"for":     true,
	"print":   true,
	"input":   true,
	"var":     true,
	"then":    true,
	"do":      true,
	"to":      true,
	"step":    true,
	"and":     true,
	"or":      true,
	"not":     true,
	"true":    true,
	"false":   true,
}

// operators, longest first so multi-character forms win over their prefix.
var operators = []string{
	"==", "!=", "<=", ">=",
	"<", ">", "=", "+", "-", "*", "/", "%", "(", ")", ",",
}
