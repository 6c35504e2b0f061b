package parser

import (
	"strings"
	"testing"

	"fable/internal/ast"
	"fable/internal/lexer"
	"fable/internal/token"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	toks, err := lexer.Lex(input)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	program, err := New(toks).ParseProgram()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return program
}

func TestDeclStatements(t *testing.T) {
	tests := []struct {
		input string
		kind  token.TokenType
		name  string
	}{
		{"var x = 5", token.VAR, "x"},
		{"let y = true", token.LET, "y"},
		{"const LIMIT = 100", token.CONST, "LIMIT"},
	}

	for _, tt := range tests {
		program := parse(t, tt.input)
		if len(program.Statements) != 1 {
			t.Fatalf("%q: expected 1 statement, got %d", tt.input, len(program.Statements))
		}
		decl, ok := program.Statements[0].(*ast.DeclStatement)
		if !ok {
			t.Fatalf("%q: expected *ast.DeclStatement, got %T", tt.input, program.Statements[0])
		}
		if decl.Kind() != tt.kind {
			t.Errorf("%q: kind %q, want %q", tt.input, decl.Kind(), tt.kind)
		}
		if decl.Name.Value != tt.name {
			t.Errorf("%q: name %q, want %q", tt.input, decl.Name.Value, tt.name)
		}
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"a + b div c", "(a + (b div c))"},
		{"a mod b == 0", "((a mod b) == 0)"},
		{"-7 div 2", "((-7) div 2)"},
		{"not a and b", "((not a) and b)"},
		{"a and b or c", "((a and b) or c)"},
		{"a or b xor c", "((a or b) xor c)"},
		{"a < b == b < c", "((a < b) == (b < c))"},
		{"x + f(y) * 2", "(x + (f(y) * 2))"},
		{"s[0] + s[1]", "((s[0]) + (s[1]))"},
		{"p.x * p.y", "((p.x) * (p.y))"},
	}

	for _, tt := range tests {
		program := parse(t, tt.input)
		got := program.String()
		if got != tt.expected {
			t.Errorf("%q: got %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestProcStatement(t *testing.T) {
	program := parse(t, "proc add(a, b) { return a + b }")

	proc, ok := program.Statements[0].(*ast.ProcStatement)
	if !ok {
		t.Fatalf("expected *ast.ProcStatement, got %T", program.Statements[0])
	}
	if proc.Name.Value != "add" {
		t.Errorf("name %q, want add", proc.Name.Value)
	}
	if len(proc.Parameters) != 2 || proc.Parameters[0].Value != "a" || proc.Parameters[1].Value != "b" {
		t.Fatalf("parameters wrong: %v", proc.Parameters)
	}
	if len(proc.Body.Statements) != 1 {
		t.Fatalf("body statements: %d", len(proc.Body.Statements))
	}
	if _, ok := proc.Body.Statements[0].(*ast.ReturnStatement); !ok {
		t.Fatalf("expected return statement, got %T", proc.Body.Statements[0])
	}
}

func TestObjectStatement(t *testing.T) {
	program := parse(t, "object Point { x, y }")

	obj, ok := program.Statements[0].(*ast.ObjectStatement)
	if !ok {
		t.Fatalf("expected *ast.ObjectStatement, got %T", program.Statements[0])
	}
	if obj.Name.Value != "Point" {
		t.Errorf("name %q", obj.Name.Value)
	}
	if len(obj.Fields) != 2 || obj.Fields[0].Value != "x" || obj.Fields[1].Value != "y" {
		t.Fatalf("fields wrong: %v", obj.Fields)
	}
}

func TestElifChain(t *testing.T) {
	program := parse(t, `
if a { x = 1 }
elif b { x = 2 }
elif c { x = 3 }
else { x = 4 }
`)

	first, ok := program.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected *ast.IfStatement, got %T", program.Statements[0])
	}
	second, ok := first.Else.(*ast.IfStatement)
	if !ok {
		t.Fatalf("first elif should nest as IfStatement, got %T", first.Else)
	}
	third, ok := second.Else.(*ast.IfStatement)
	if !ok {
		t.Fatalf("second elif should nest as IfStatement, got %T", second.Else)
	}
	if _, ok := third.Else.(*ast.BlockStatement); !ok {
		t.Fatalf("final else should be a block, got %T", third.Else)
	}
}

func TestForStatements(t *testing.T) {
	program := parse(t, "for i in 1 to 10 { total = total + i }")
	fr, ok := program.Statements[0].(*ast.ForRangeStatement)
	if !ok {
		t.Fatalf("expected *ast.ForRangeStatement, got %T", program.Statements[0])
	}
	if fr.Var.Value != "i" {
		t.Errorf("loop var %q", fr.Var.Value)
	}

	program = parse(t, "for item in items { print(item) }")
	fe, ok := program.Statements[0].(*ast.ForEachStatement)
	if !ok {
		t.Fatalf("expected *ast.ForEachStatement, got %T", program.Statements[0])
	}
	if fe.Var.Value != "item" {
		t.Errorf("loop var %q", fe.Var.Value)
	}
}

func TestAssignTargets(t *testing.T) {
	tests := []struct {
		input   string
		declare bool
		target  string
	}{
		{"x = 1", false, "*ast.Identifier"},
		{"x := 1", true, "*ast.Identifier"},
		{"xs[0] = 1", false, "*ast.IndexExpression"},
		{"p.x = 1", false, "*ast.FieldExpression"},
	}

	for _, tt := range tests {
		program := parse(t, tt.input)
		assign, ok := program.Statements[0].(*ast.AssignStatement)
		if !ok {
			t.Fatalf("%q: expected *ast.AssignStatement, got %T", tt.input, program.Statements[0])
		}
		if assign.Declare != tt.declare {
			t.Errorf("%q: declare=%v", tt.input, assign.Declare)
		}
		var name string
		switch assign.Target.(type) {
		case *ast.Identifier:
			name = "*ast.Identifier"
		case *ast.IndexExpression:
			name = "*ast.IndexExpression"
		case *ast.FieldExpression:
			name = "*ast.FieldExpression"
		}
		if name != tt.target {
			t.Errorf("%q: target %s, want %s", tt.input, name, tt.target)
		}
	}
}

func TestMappingLiteral(t *testing.T) {
	program := parse(t, `m = {"a": 1, b: 2}`)
	assign := program.Statements[0].(*ast.AssignStatement)
	mapping, ok := assign.Value.(*ast.MappingLiteral)
	if !ok {
		t.Fatalf("expected *ast.MappingLiteral, got %T", assign.Value)
	}
	if len(mapping.Keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(mapping.Keys))
	}
	// bare identifier keys are string shorthand
	for i, want := range []string{"a", "b"} {
		key, ok := mapping.Keys[i].(*ast.StringLiteral)
		if !ok {
			t.Fatalf("key %d: expected *ast.StringLiteral, got %T", i, mapping.Keys[i])
		}
		if key.Value != want {
			t.Errorf("key %d: %q, want %q", i, key.Value, want)
		}
	}
}

func TestBlockBodies(t *testing.T) {
	program := parse(t, `
proc step(n) {
	var local = n * 2
	if local > 10 {
		return local
	}
	while local < 10 {
		local = local + 1
	}
	return local
}
`)

	proc := program.Statements[0].(*ast.ProcStatement)
	if len(proc.Body.Statements) != 4 {
		t.Fatalf("proc body statements: %d, want 4", len(proc.Body.Statements))
	}

	ifStmt := proc.Body.Statements[1].(*ast.IfStatement)
	if len(ifStmt.Then.Statements) != 1 {
		t.Fatalf("if body statements: %d, want 1", len(ifStmt.Then.Statements))
	}
	whileStmt := proc.Body.Statements[2].(*ast.WhileStatement)
	if len(whileStmt.Body.Statements) != 1 {
		t.Fatalf("while body statements: %d, want 1", len(whileStmt.Body.Statements))
	}
}

func TestEmptyBlock(t *testing.T) {
	program := parse(t, "proc noop() {}")
	proc := program.Statements[0].(*ast.ProcStatement)
	if len(proc.Body.Statements) != 0 {
		t.Fatalf("empty body has %d statements", len(proc.Body.Statements))
	}
}

func TestUnterminatedBlock(t *testing.T) {
	inputs := []string{
		"proc f() {\nreturn 1",
		"while true {\nx = 1",
		"if a {\nif b {\n}\n",
	}
	for _, input := range inputs {
		toks, err := lexer.Lex(input)
		if err != nil {
			t.Fatalf("lex error for %q: %v", input, err)
		}
		_, err = New(toks).ParseProgram()
		parseErr, ok := err.(*ParseError)
		if !ok {
			t.Fatalf("%q: expected *ParseError, got %T (%v)", input, err, err)
		}
		if !strings.Contains(parseErr.Message, "unterminated block") {
			t.Errorf("%q: message %q", input, parseErr.Message)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		line  int
	}{
		{"var = 5", 1},
		{"proc () {}", 1},
		{"if x {\n} else )", 2},
		{"xs[0] := 1", 1},
		{"1 + 2 = 3", 1},
	}

	for _, tt := range tests {
		toks, err := lexer.Lex(tt.input)
		if err != nil {
			t.Fatalf("lex error for %q: %v", tt.input, err)
		}
		program, err := New(toks).ParseProgram()
		if err == nil {
			t.Fatalf("%q: expected parse error, got program %v", tt.input, program)
		}
		parseErr, ok := err.(*ParseError)
		if !ok {
			t.Fatalf("%q: expected *ParseError, got %T", tt.input, err)
		}
		if parseErr.Line != tt.line {
			t.Errorf("%q: error line %d, want %d", tt.input, parseErr.Line, tt.line)
		}
	}
}
