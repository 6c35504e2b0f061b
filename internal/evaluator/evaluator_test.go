package evaluator

import (
	"bytes"
	"testing"

	"fable/internal/lexer"
	"fable/internal/native"
	"fable/internal/object"
	"fable/internal/parser"
)

func testEval(t *testing.T, input string) object.Object {
	t.Helper()
	obj, _ := testEvalOutput(t, input)
	return obj
}

func testEvalOutput(t *testing.T, input string) (object.Object, string) {
	t.Helper()
	toks, err := lexer.Lex(input)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	program, err := parser.New(toks).ParseProgram()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	var out bytes.Buffer
	reg := native.NewRegistry()
	reg.SetOutput(&out)
	env := object.NewEnvironment()
	if err := reg.Install(env); err != nil {
		t.Fatalf("install natives: %v", err)
	}

	return New().Eval(program, env), out.String()
}

func wantInt(t *testing.T, obj object.Object, want int64) {
	t.Helper()
	result, ok := obj.(*object.Integer)
	if !ok {
		t.Fatalf("expected Integer, got %T (%s)", obj, obj.Inspect())
	}
	if result.Value != want {
		t.Fatalf("got %d, want %d", result.Value, want)
	}
}

func wantFloat(t *testing.T, obj object.Object, want float64) {
	t.Helper()
	result, ok := obj.(*object.Float)
	if !ok {
		t.Fatalf("expected Float, got %T (%s)", obj, obj.Inspect())
	}
	if result.Value != want {
		t.Fatalf("got %g, want %g", result.Value, want)
	}
}

func wantBool(t *testing.T, obj object.Object, want bool) {
	t.Helper()
	result, ok := obj.(*object.Boolean)
	if !ok {
		t.Fatalf("expected Boolean, got %T (%s)", obj, obj.Inspect())
	}
	if result.Value != want {
		t.Fatalf("got %v, want %v", result.Value, want)
	}
}

func wantFault(t *testing.T, obj object.Object, kind object.FaultKind) *object.Fault {
	t.Helper()
	fault, ok := obj.(*object.Fault)
	if !ok {
		t.Fatalf("expected Fault, got %T (%s)", obj, obj.Inspect())
	}
	if fault.Kind != kind {
		t.Fatalf("fault kind %s, want %s (%s)", fault.Kind, kind, fault.Message)
	}
	return fault
}

func TestIntegerArithmetic(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"5", 5},
		{"-5", -5},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"7 div 2", 3},
		{"-7 div 2", -3},
		{"7 mod 2", 1},
		{"-7 mod 2", -1},
		{"7 mod -2", 1},
		{"10 div 3 * 3 + 10 mod 3", 10},
	}
	for _, tt := range tests {
		wantInt(t, testEval(t, tt.input), tt.want)
	}
}

func TestSlashAlwaysFloat(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"7 / 2", 3.5},
		{"8 / 2", 4.0},
		{"1 / 4", 0.25},
		{"7.0 / 2", 3.5},
		{"1.5 + 1", 2.5},
		{"2 * 1.5", 3.0},
	}
	for _, tt := range tests {
		wantFloat(t, testEval(t, tt.input), tt.want)
	}
}

func TestDivisionFaults(t *testing.T) {
	tests := []string{
		"1 / 0",
		"1.5 / 0.0",
		"1 div 0",
		"1 mod 0",
	}
	for _, input := range tests {
		wantFault(t, testEval(t, input), object.DivisionByZero)
	}

	// div and mod reject float operands
	wantFault(t, testEval(t, "7.5 div 2"), object.TypeMismatch)
	wantFault(t, testEval(t, "7 mod 2.5"), object.TypeMismatch)
}

func TestBooleanOperators(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"true and true", true},
		{"true and false", false},
		{"false or true", true},
		{"nil or false", false},
		{"1 and 2", true}, // truthiness, result is boolean
		{"nil and true", false},
		{"true xor false", true},
		{"true xor true", false},
		{"not nil", true},
		{"not 0", false}, // zero is truthy
		{"1 == 1.0", true},
		{"1 == true", false},
		{"[1, 2] == [1, 2]", true},
		{"[1, 2] == [2, 1]", false},
		{`"abc" < "abd"`, true},
		{`"a" + "b" == "ab"`, true},
	}
	for _, tt := range tests {
		wantBool(t, testEval(t, tt.input), tt.want)
	}
}

func TestShortCircuit(t *testing.T) {
	// the right side would fault if evaluated
	wantBool(t, testEval(t, "false and (1 div 0 == 0)"), false)
	wantBool(t, testEval(t, "true or (1 div 0 == 0)"), true)
	// xor always evaluates both sides
	wantFault(t, testEval(t, "true xor (1 div 0 == 0)"), object.DivisionByZero)
}

func TestDeclarationsAndAssignment(t *testing.T) {
	wantInt(t, testEval(t, "var x = 5\nx = x + 1\nx"), 6)
	wantInt(t, testEval(t, "x := 40\nx = x + 2\nx"), 42)
	wantInt(t, testEval(t, "y = 9\ny"), 9) // first use binds

	wantFault(t, testEval(t, "let x = 1\nx = 2"), object.TypeMismatch)
	wantFault(t, testEval(t, "const K = 1\nK = 2"), object.TypeMismatch)
	wantFault(t, testEval(t, "var x = 1\nvar x = 2"), object.TypeMismatch)
	wantFault(t, testEval(t, "zzz + 1"), object.UndefinedName)
}

func TestIfElifElse(t *testing.T) {
	input := `
proc grade(score) {
	if score >= 90 { return "A" }
	elif score >= 80 { return "B" }
	elif score >= 70 { return "C" }
	else { return "F" }
}
grade(85)
`
	result := testEval(t, input)
	s, ok := result.(*object.String)
	if !ok {
		t.Fatalf("expected String, got %T", result)
	}
	if s.Value != "B" {
		t.Fatalf("grade(85) = %q, want B", s.Value)
	}
}

func TestWhileLoop(t *testing.T) {
	input := `
var i = 0
var total = 0
while i < 10 {
	i = i + 1
	if i mod 2 == 0 { continue }
	total = total + i
}
total
`
	wantInt(t, testEval(t, input), 25)
}

func TestBreak(t *testing.T) {
	input := `
var n = 0
while true {
	n = n + 1
	if n == 3 { break }
}
n
`
	wantInt(t, testEval(t, input), 3)
}

func TestForRange(t *testing.T) {
	wantInt(t, testEval(t, "var s = 0\nfor i in 1 to 5 { s = s + i }\ns"), 15)
	// inclusive bounds; empty when from > to
	wantInt(t, testEval(t, "var s = 0\nfor i in 3 to 3 { s = s + i }\ns"), 3)
	wantInt(t, testEval(t, "var s = 0\nfor i in 5 to 1 { s = s + i }\ns"), 0)
}

func TestForEach(t *testing.T) {
	wantInt(t, testEval(t, "var s = 0\nfor v in [2, 4, 8] { s = s + v }\ns"), 14)
}

func TestLoopControlOutsideLoop(t *testing.T) {
	wantFault(t, testEval(t, "break"), object.LoopControl)
	wantFault(t, testEval(t, "continue"), object.LoopControl)
	wantFault(t, testEval(t, "proc f() { break }\nf()"), object.LoopControl)
}

func TestProcCalls(t *testing.T) {
	wantInt(t, testEval(t, "proc add(a, b) { return a + b }\nadd(2, 3)"), 5)
	wantInt(t, testEval(t, "proc ten() { return 10 }\nten()"), 10)

	// implicit nil return
	result := testEval(t, "proc noop() {}\nnoop()")
	if result != object.NIL {
		t.Fatalf("expected nil, got %s", result.Inspect())
	}

	wantFault(t, testEval(t, "proc f(a) { return a }\nf(1, 2)"), object.ArityMismatch)
	wantFault(t, testEval(t, "let x = 5\nx(1)"), object.NotCallable)
}

func TestRecursion(t *testing.T) {
	input := `
proc fib(n) {
	if n < 2 { return n }
	return fib(n - 1) + fib(n - 2)
}
fib(10)
`
	wantInt(t, testEval(t, input), 55)
}

func TestClosureCapturesByReference(t *testing.T) {
	input := `
proc counter() {
	var n = 0
	proc bump() {
		n = n + 1
		return n
	}
	return bump
}
let c = counter()
c()
c()
c()
`
	wantInt(t, testEval(t, input), 3)
}

func TestClosureSeesLaterMutation(t *testing.T) {
	input := `
var base = 10
proc addBase(x) {
	return x + base
}
base = 100
addBase(1)
`
	wantInt(t, testEval(t, input), 101)
}

func TestClosuresShareOneFrame(t *testing.T) {
	input := `
proc pair() {
	var n = 0
	proc inc() { n = n + 1 return n }
	proc get() { return n }
	return [inc, get]
}
let fns = pair()
let inc = fns[0]
let get = fns[1]
inc()
inc()
get()
`
	wantInt(t, testEval(t, input), 2)
}

func TestFaultCarriesLine(t *testing.T) {
	input := `proc f() {
	return missing
}
f()`
	fault := wantFault(t, testEval(t, input), object.UndefinedName)
	if fault.Line != 2 {
		t.Fatalf("fault line %d, want 2", fault.Line)
	}
}

func TestSequences(t *testing.T) {
	wantInt(t, testEval(t, "[1, 2, 3][1]"), 2)
	wantInt(t, testEval(t, "let xs = [1, 2, 3]\nxs[0] = 9\nxs[0]"), 9)
	wantFault(t, testEval(t, "[1, 2][5]"), object.IndexOutOfRange)
	wantFault(t, testEval(t, "[1, 2][-1]"), object.IndexOutOfRange)
	wantFault(t, testEval(t, `[1, 2]["x"]`), object.TypeMismatch)

	// reference semantics: both bindings see the write
	input := `
let a = [1, 2]
let b = a
b[0] = 7
a[0]
`
	wantInt(t, testEval(t, input), 7)

	wantBool(t, testEval(t, "[1] + [2, 3] == [1, 2, 3]"), true)
}

func TestMappings(t *testing.T) {
	wantInt(t, testEval(t, `let m = {"a": 1}`+"\n"+`m["a"]`), 1)

	// missing key reads as nil
	result := testEval(t, `let m = {"a": 1}`+"\n"+`m["nope"]`)
	if result != object.NIL {
		t.Fatalf("missing key read = %s, want nil", result.Inspect())
	}

	wantInt(t, testEval(t, `let m = {a: 1}`+"\n"+`m["b"] = 5`+"\n"+`m["b"]`), 5)
	wantFault(t, testEval(t, `let m = {a: 1}`+"\n"+`m[1] = 2`), object.TypeMismatch)
}

func TestObjectsAndFields(t *testing.T) {
	input := `
object Point { x, y }
let p = Point(3, 4)
p.x * p.x + p.y * p.y
`
	wantInt(t, testEval(t, input), 25)

	wantFault(t, testEval(t, "object P { x }\nlet p = P(1)\np.nope"), object.UndefinedName)
	wantFault(t, testEval(t, "object P { x }\nP(1, 2)"), object.ArityMismatch)

	input = `
object P { x }
let a = P(1)
let b = a
b.x = 9
a.x
`
	wantInt(t, testEval(t, input), 9)

	wantBool(t, testEval(t, "object P { x }\nP(1) == P(1)"), true)
	wantBool(t, testEval(t, "object P { x }\nP(1) == P(2)"), false)
}

func TestStringIndexing(t *testing.T) {
	result := testEval(t, `"héllo"[1]`)
	s, ok := result.(*object.String)
	if !ok {
		t.Fatalf("expected String, got %T", result)
	}
	if s.Value != "é" {
		t.Fatalf("got %q, want é", s.Value)
	}
	wantFault(t, testEval(t, `"ab"[2]`), object.IndexOutOfRange)
}

func TestCoreNatives(t *testing.T) {
	wantInt(t, testEval(t, `len("abc")`), 3)
	wantInt(t, testEval(t, "len([1, 2, 3, 4])"), 4)
	wantInt(t, testEval(t, "let xs = [1]\npush(xs, 2)\nlen(xs)"), 2)
	wantInt(t, testEval(t, "pop([1, 2, 3])"), 3)
	wantInt(t, testEval(t, "abs(-5)"), 5)
	wantFloat(t, testEval(t, "abs(-1.5)"), 1.5)
	wantInt(t, testEval(t, "min(3, 7)"), 3)
	wantInt(t, testEval(t, "max(3, 7)"), 7)
	wantInt(t, testEval(t, "floor(3.9)"), 3)

	result := testEval(t, `str(3.5)`)
	if s := result.(*object.String).Value; s != "3.5" {
		t.Fatalf("str(3.5) = %q", s)
	}

	wantBool(t, testEval(t, `let m = {a: 1, b: 2}`+"\n"+`keys(m) == ["a", "b"]`), true)
	wantInt(t, testEval(t, `let m = {a: 1}`+"\n"+`fetch(m, "a")`), 1)
	wantFault(t, testEval(t, `let m = {a: 1}`+"\n"+`fetch(m, "b")`), object.KeyError)
	wantBool(t, testEval(t, `let m = {a: 1}`+"\n"+`remove(m, "a")`), true)
	wantFault(t, testEval(t, "len(1)"), object.TypeMismatch)
	wantFault(t, testEval(t, "len(1, 2)"), object.ArityMismatch)
}

func TestPrint(t *testing.T) {
	_, out := testEvalOutput(t, `print("score", 42, [1, 2])`)
	want := "score 42 [1, 2]\n"
	if out != want {
		t.Fatalf("print output %q, want %q", out, want)
	}
}

func TestRngNatives(t *testing.T) {
	// equal seeds, identical sequences
	input := `
let a = initRng(42)
let b = initRng(42)
draw(a, 0, 99) == draw(b, 0, 99) and draw(a, 0, 99) == draw(b, 0, 99)
`
	wantBool(t, testEval(t, input), true)

	// known first draw: ((42*1664525+1013904223) mod 2^32) mod 6 = 1
	wantInt(t, testEval(t, "draw(initRng(42), 5)"), 1)

	// two-argument and three-argument forms see the same raw step
	wantBool(t, testEval(t, "draw(initRng(7), 9) == draw(initRng(7), 0, 9)"), true)

	// handles are independent
	input = `
let a = initRng(1)
let b = initRng(1)
draw(a, 0, 1000)
draw(a, 0, 1000)
let fresh = initRng(1)
draw(b, 0, 1000) == draw(fresh, 0, 1000)
`
	wantBool(t, testEval(t, input), true)

	wantFault(t, testEval(t, "draw(initRng(1), 5, 2)"), object.TypeMismatch)
	wantFault(t, testEval(t, "draw(1, 5)"), object.TypeMismatch)
}

func TestShuffleNative(t *testing.T) {
	// same seed shuffles identically
	input := `
let xs = [1, 2, 3, 4, 5]
let ys = [1, 2, 3, 4, 5]
shuffle(initRng(9), xs)
shuffle(initRng(9), ys)
xs == ys
`
	wantBool(t, testEval(t, input), true)

	// shuffle preserves the multiset
	input = `
let xs = [1, 2, 3, 4, 5]
shuffle(initRng(3), xs)
len(xs) == 5
`
	wantBool(t, testEval(t, input), true)
}

func TestDefaultHandleIsSeparate(t *testing.T) {
	// rand uses the process-default handle; explicit handles don't disturb it
	input := `
randSeed(7)
let h = initRng(7)
draw(h, 0, 1000)
draw(h, 0, 1000)
rand(9)
`
	// first default draw: ((7*1664525+1013904223) mod 2^32) mod 10 = 8
	wantInt(t, testEval(t, input), 8)
}

func TestRandSeedResets(t *testing.T) {
	input := `
randSeed(7)
let first = rand(9)
randSeed(7)
first == rand(9)
`
	wantBool(t, testEval(t, input), true)
}

func TestBlockScoping(t *testing.T) {
	// a first-use binding inside a block does not leak out
	input := `
var x = 1
if true {
	inner = 99
	x = 2
}
x
`
	wantInt(t, testEval(t, input), 2)
	wantFault(t, testEval(t, input+"\ninner"), object.UndefinedName)
}

func TestRunReturnsFault(t *testing.T) {
	toks, err := lexer.Lex("1 div 0")
	if err != nil {
		t.Fatal(err)
	}
	program, err := parser.New(toks).ParseProgram()
	if err != nil {
		t.Fatal(err)
	}
	fault := New().Run(program, object.NewEnvironment())
	if fault == nil {
		t.Fatal("expected fault")
	}
	if fault.Kind != object.DivisionByZero {
		t.Fatalf("kind %s", fault.Kind)
	}
}
