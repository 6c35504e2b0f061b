package engine

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"fable/internal/native"
	"fable/internal/object"
	"fable/internal/parser"
)

func newRegistry(out *bytes.Buffer) *native.Registry {
	reg := native.NewRegistry()
	reg.SetOutput(out)
	return reg
}

func TestParseError(t *testing.T) {
	_, err := Parse("var = 5")
	if err == nil {
		t.Fatal("expected parse error")
	}
	var parseErr *parser.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *parser.ParseError, got %T", err)
	}
}

func TestRunFault(t *testing.T) {
	program, err := Parse("var x = 1 div 0")
	if err != nil {
		t.Fatal(err)
	}
	env, err := NewEnv(newRegistry(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	err = Run(program, env)
	var fault *object.Fault
	if !errors.As(err, &fault) {
		t.Fatalf("expected *object.Fault, got %T (%v)", err, err)
	}
	if fault.Kind != object.DivisionByZero {
		t.Errorf("fault kind %s", fault.Kind)
	}
}

func TestRunClean(t *testing.T) {
	program, err := Parse(`print("hello")`)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	env, err := NewEnv(newRegistry(&out))
	if err != nil {
		t.Fatal(err)
	}
	if err := Run(program, env); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "hello\n" {
		t.Errorf("output %q", got)
	}
}

func TestGenerate(t *testing.T) {
	program, err := Parse("var x = 1")
	if err != nil {
		t.Fatal(err)
	}
	out, err := Generate(program, "js")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "let x = 1;") {
		t.Errorf("js output missing declaration: %q", out)
	}
	if _, err := Generate(program, "nope"); err == nil {
		t.Error("expected error for unknown target")
	}
}

const tickScript = `
var n = 0

proc tick() {
	n = n + 1
}
`

func TestInstancePhases(t *testing.T) {
	inst, err := NewInstance(tickScript, newRegistry(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := inst.RunInit(); err != nil {
		t.Fatal(err)
	}
	if err := inst.RunTick(); err != nil {
		t.Fatal(err)
	}
	if err := inst.RunTick(); err != nil {
		t.Fatal(err)
	}

	val, ok := inst.Env().Get("n")
	if !ok {
		t.Fatal("n not bound")
	}
	if val.(*object.Integer).Value != 2 {
		t.Errorf("n = %s after two ticks, want 2", val.Inspect())
	}
}

func TestInstanceWithoutTick(t *testing.T) {
	inst, err := NewInstance("var n = 1", newRegistry(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := inst.RunInit(); err != nil {
		t.Fatal(err)
	}
	if err := inst.RunTick(); err != nil {
		t.Errorf("tickless script should no-op, got %v", err)
	}
}

func TestInstanceIsolation(t *testing.T) {
	reg := newRegistry(&bytes.Buffer{})
	a, err := NewInstance(tickScript, reg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewInstance(tickScript, reg)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.RunInit(); err != nil {
		t.Fatal(err)
	}
	if err := b.RunInit(); err != nil {
		t.Fatal(err)
	}
	if err := a.RunTick(); err != nil {
		t.Fatal(err)
	}

	val, _ := b.Env().Get("n")
	if val.(*object.Integer).Value != 0 {
		t.Errorf("instance b saw n = %s, want 0", val.Inspect())
	}
}

func TestInstanceTickFault(t *testing.T) {
	inst, err := NewInstance("proc tick() { return 1 div 0 }", newRegistry(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := inst.RunInit(); err != nil {
		t.Fatal(err)
	}
	err = inst.RunTick()
	var fault *object.Fault
	if !errors.As(err, &fault) {
		t.Fatalf("expected *object.Fault, got %T (%v)", err, err)
	}
}

func TestHostBindingBeforeInit(t *testing.T) {
	inst, err := NewInstance("var doubled = level * 2", newRegistry(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := inst.Env().Define("level", &object.Integer{Value: 21}, false); err != nil {
		t.Fatal(err)
	}
	if err := inst.RunInit(); err != nil {
		t.Fatal(err)
	}
	val, _ := inst.Env().Get("doubled")
	if val.(*object.Integer).Value != 42 {
		t.Errorf("doubled = %s", val.Inspect())
	}
}
