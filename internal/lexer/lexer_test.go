package lexer

import (
	"testing"

	"fable/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `var five = 5
let pi = 3.14
x := five + 2
if x >= 7 and x != 9 {
	print("ok")
}
# a comment
// another comment
s = "a\nb"
`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.VAR, "var"},
		{token.IDENT, "five"},
		{token.ASSIGN, "="},
		{token.INT, "5"},
		{token.LET, "let"},
		{token.IDENT, "pi"},
		{token.ASSIGN, "="},
		{token.FLOAT, "3.14"},
		{token.IDENT, "x"},
		{token.DECLARE, ":="},
		{token.IDENT, "five"},
		{token.PLUS, "+"},
		{token.INT, "2"},
		{token.IF, "if"},
		{token.IDENT, "x"},
		{token.GT_EQ, ">="},
		{token.INT, "7"},
		{token.AND, "and"},
		{token.IDENT, "x"},
		{token.NOT_EQ, "!="},
		{token.INT, "9"},
		{token.LBRACE, "{"},
		{token.IDENT, "print"},
		{token.LPAREN, "("},
		{token.STRING, "ok"},
		{token.RPAREN, ")"},
		{token.RBRACE, "}"},
		{token.IDENT, "s"},
		{token.ASSIGN, "="},
		{token.STRING, "a\nb"},
		{token.EOF, ""},
	}

	toks, err := Lex(input)
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}
	if len(toks) != len(tests) {
		t.Fatalf("token count wrong. expected=%d, got=%d", len(tests), len(toks))
	}

	for i, tt := range tests {
		tok := toks[i]
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestKeywordOperators(t *testing.T) {
	toks, err := Lex("a div b mod c and d or e xor not f")
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}
	want := []token.TokenType{
		token.IDENT, token.DIV, token.IDENT, token.MOD, token.IDENT,
		token.AND, token.IDENT, token.OR, token.IDENT, token.XOR,
		token.NOT, token.IDENT, token.EOF,
	}
	for i, typ := range want {
		if toks[i].Type != typ {
			t.Fatalf("token %d: expected %q, got %q", i, typ, toks[i].Type)
		}
	}
}

func TestPositions(t *testing.T) {
	toks, err := Lex("var a = 1\n  b = 2")
	if err != nil {
		t.Fatalf("Lex returned error: %v", err)
	}

	// b sits on line 2, column 3
	var found bool
	for _, tok := range toks {
		if tok.Type == token.IDENT && tok.Literal == "b" {
			found = true
			if tok.Line != 2 || tok.Column != 3 {
				t.Fatalf("expected b at 2:3, got %d:%d", tok.Line, tok.Column)
			}
		}
	}
	if !found {
		t.Fatal("identifier b not lexed")
	}
}

func TestFloatVsInteger(t *testing.T) {
	tests := []struct {
		input string
		typ   token.TokenType
	}{
		{"42", token.INT},
		{"4.2", token.FLOAT},
		{"1e9", token.FLOAT},
		{"2.5e-3", token.FLOAT},
	}
	for _, tt := range tests {
		toks, err := Lex(tt.input)
		if err != nil {
			t.Fatalf("Lex(%q) returned error: %v", tt.input, err)
		}
		if toks[0].Type != tt.typ {
			t.Errorf("Lex(%q): expected %q, got %q", tt.input, tt.typ, toks[0].Type)
		}
		if toks[0].Literal != tt.input {
			t.Errorf("Lex(%q): literal %q", tt.input, toks[0].Literal)
		}
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		input string
		line  int
	}{
		{`"unterminated`, 1},
		{"a = 1\n\"oops\nb = 2", 2},
		{"a ! b", 1},
		{"x = 1e+", 1},
	}
	for _, tt := range tests {
		_, err := Lex(tt.input)
		if err == nil {
			t.Fatalf("Lex(%q): expected error", tt.input)
		}
		lexErr, ok := err.(*LexError)
		if !ok {
			t.Fatalf("Lex(%q): expected *LexError, got %T", tt.input, err)
		}
		if lexErr.Line != tt.line {
			t.Errorf("Lex(%q): expected error on line %d, got %d", tt.input, tt.line, lexErr.Line)
		}
	}
}
