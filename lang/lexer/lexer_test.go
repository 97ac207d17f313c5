package lexer

import "testing"

func kinds(toks []Token) []Kind {
	ks := make([]Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestLexKeywordsAndIdentifiers(t *testing.T) {
	toks, diags := Lex("var Count = 10\n")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Items())
	}
	want := []Kind{KEYWORD, IDENTIFIER, OPERATOR, NUMBER, NEWLINE, EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
	if toks[1].Value != "Count" {
		t.Errorf("identifier value = %q, want Count", toks[1].Value)
	}
}

func TestLexNumberForms(t *testing.T) {
	cases := []string{"123", "0x1F", "1Ah", "0b1010"}
	for _, src := range cases {
		toks, diags := Lex(src)
		if diags.HasErrors() {
			t.Fatalf("%s: unexpected errors: %v", src, diags.Items())
		}
		if toks[0].Kind != NUMBER || toks[0].Value != src {
			t.Errorf("%s: got token %+v", src, toks[0])
		}
	}
}

func TestLexString(t *testing.T) {
	toks, diags := Lex(`print "hi\nthere"`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Items())
	}
	if toks[1].Kind != STRING || toks[1].Value != "hi\nthere" {
		t.Errorf("got %+v", toks[1])
	}
}

func TestLexUnterminatedString(t *testing.T) {
	_, diags := Lex(`print "oops`)
	if !diags.HasErrors() {
		t.Fatalf("expected an error for unterminated string")
	}
}

func TestLexComments(t *testing.T) {
	toks, diags := Lex("var a = 1 ; trailing comment\nvar b = 2 # another\nvar c = 3 // and another\n")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Items())
	}
	count := 0
	for _, tok := range toks {
		if tok.Kind == NEWLINE {
			count++
		}
	}
	if count != 3 {
		t.Errorf("got %d newlines, want 3", count)
	}
}

func TestLexOperatorsLongestMatch(t *testing.T) {
	toks, diags := Lex("a <= b")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Items())
	}
	if toks[1].Kind != OPERATOR || toks[1].Value != "<=" {
		t.Errorf("got %+v, want <=", toks[1])
	}
}

func TestLexUnknownCharacter(t *testing.T) {
	_, diags := Lex("a = 1 @ 2")
	if !diags.HasErrors() {
		t.Fatalf("expected an error for unknown character")
	}
}
