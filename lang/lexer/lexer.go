/*
 * wut86 - Lexer
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

// Package lexer turns source text into a token stream for the parser.
package lexer

import (
	"strings"
	"unicode"

	"github.com/wut86/wut86/internal/diag"
)

type Lexer struct {
	src    []rune
	pos    int
	line   int
	col    int
	tokens []Token
	Diags  *diag.Bag
}

// Lex scans the whole of src and returns the token stream terminated by EOF.
func Lex(src string) ([]Token, *diag.Bag) {
	l := &Lexer{
		src:   []rune(src),
		line:  1,
		col:   1,
		Diags: diag.NewBag("Lexical Analysis"),
	}
	l.run()
	return l.tokens, l.Diags
}

func (l *Lexer) run() {
	for {
		l.skipSpacesAndComments()
		if l.atEnd() {
			l.emit(EOF, "")
			return
		}
		c := l.peek()
		switch {
		case c == '\n':
			l.advance()
			l.emit(NEWLINE, "\n")
			l.line++
			l.col = 1
		case unicode.IsDigit(c):
			l.lexNumber()
		case c == '"' || c == '\'':
			l.lexString()
		case isIdentStart(c):
			l.lexIdentOrKeyword()
		default:
			if !l.lexOperator() {
				l.Diags.Errorf(l.line, "unexpected character %q", c)
				l.advance()
			}
		}
	}
}

// skipSpacesAndComments skips horizontal whitespace and, at a comment
// introducer (; # //), the rest of the line. It never consumes the
// terminating newline itself.
func (l *Lexer) skipSpacesAndComments() {
	for !l.atEnd() {
		c := l.peek()
		if c == ' ' || c == '\t' || c == '\r' {
			l.advance()
			continue
		}
		if c == ';' || c == '#' {
			l.skipToEOL()
			continue
		}
		if c == '/' && l.peekAt(1) == '/' {
			l.skipToEOL()
			continue
		}
		break
	}
}

func (l *Lexer) skipToEOL() {
	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) lexNumber() {
	start := l.pos
	startCol := l.col
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.advance()
		l.advance()
		for !l.atEnd() && isHexDigit(l.peek()) {
			l.advance()
		}
	} else if l.peek() == '0' && (l.peekAt(1) == 'b' || l.peekAt(1) == 'B') {
		l.advance()
		l.advance()
		for !l.atEnd() && (l.peek() == '0' || l.peek() == '1') {
			l.advance()
		}
	} else {
		for !l.atEnd() && unicode.IsDigit(l.peek()) {
			l.advance()
		}
		// Trailing 'h' hex-suffix form, e.g. 1Ah.
		if !l.atEnd() && isHexSuffixRun(l.src[start:l.pos]) {
			save := l.pos
			for !l.atEnd() && isHexDigit(l.peek()) {
				l.advance()
			}
			if !l.atEnd() && (l.peek() == 'h' || l.peek() == 'H') {
				l.advance()
			} else {
				l.pos = save
			}
		}
	}
	value := string(l.src[start:l.pos])
	l.tokens = append(l.tokens, Token{Kind: NUMBER, Value: value, Line: l.line, Column: startCol})
}

// isHexSuffixRun is a loose guard: the digits scanned so far are themselves
// a valid prefix of a hex run, so it's worth trying to extend with hex
// digits and checking for a trailing h/H.
func isHexSuffixRun(digits []rune) bool {
	return len(digits) > 0
}

func (l *Lexer) lexString() {
	quote := l.peek()
	startCol := l.col
	startLine := l.line
	l.advance()
	var b strings.Builder
	terminated := false
	for !l.atEnd() {
		c := l.peek()
		if c == quote {
			l.advance()
			terminated = true
			break
		}
		if c == '\n' {
			break
		}
		if c == '\\' {
			l.advance()
			if l.atEnd() {
				break
			}
			esc := l.peek()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case '\'':
				b.WriteByte('\'')
			default:
				b.WriteRune(esc)
			}
			l.advance()
			continue
		}
		b.WriteRune(c)
		l.advance()
	}
	if !terminated {
		l.Diags.Errorf(startLine, "unterminated string literal")
	}
	l.tokens = append(l.tokens, Token{Kind: STRING, Value: b.String(), Line: startLine, Column: startCol})
}

func (l *Lexer) lexIdentOrKeyword() {
	start := l.pos
	startCol := l.col
	for !l.atEnd() && isIdentPart(l.peek()) {
		l.advance()
	}
	raw := string(l.src[start:l.pos])
	lower := strings.ToLower(raw)
	if Keywords[lower] {
		l.tokens = append(l.tokens, Token{Kind: KEYWORD, Value: lower, Line: l.line, Column: startCol})
	} else {
		l.tokens = append(l.tokens, Token{Kind: IDENTIFIER, Value: raw, Line: l.line, Column: startCol})
	}
}

func (l *Lexer) lexOperator() bool {
	startCol := l.col
	rest := string(l.src[l.pos:])
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			for range op {
				l.advance()
			}
			l.tokens = append(l.tokens, Token{Kind: OPERATOR, Value: op, Line: l.line, Column: startCol})
			return true
		}
	}
	return false
}

func (l *Lexer) emit(k Kind, v string) {
	l.tokens = append(l.tokens, Token{Kind: k, Value: v, Line: l.line, Column: l.col})
}

func (l *Lexer) atEnd() bool { return l.pos >= len(l.src) }

func (l *Lexer) peek() rune {
	if l.atEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(n int) rune {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) advance() {
	l.pos++
	l.col++
}

func isIdentStart(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isIdentPart(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

func isHexDigit(c rune) bool {
	return unicode.IsDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
