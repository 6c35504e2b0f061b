package native

import (
	"bytes"
	"testing"

	"fable/internal/object"
	"fable/internal/rng"
)

func TestInstallBindsCoreNatives(t *testing.T) {
	reg := NewRegistry()
	env := object.NewEnvironment()
	if err := reg.Install(env); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{
		"print", "len", "push", "pop", "keys", "fetch", "remove",
		"str", "abs", "min", "max", "floor", "typeOf",
		"initRng", "draw", "shuffle", "rand", "randSeed",
	} {
		val, ok := env.Get(name)
		if !ok {
			t.Errorf("native %s not bound", name)
			continue
		}
		if _, ok := val.(*object.Native); !ok {
			t.Errorf("binding %s is %T, want *object.Native", name, val)
		}
	}
}

func TestInstallBindingsImmutable(t *testing.T) {
	reg := NewRegistry()
	env := object.NewEnvironment()
	if err := reg.Install(env); err != nil {
		t.Fatal(err)
	}
	found, err := env.Assign("print", object.NIL)
	if !found {
		t.Fatal("print should be bound")
	}
	if err == nil {
		t.Fatal("native bindings should refuse assignment")
	}
}

func TestInstallDefaultHandle(t *testing.T) {
	reg := NewRegistry()
	reg.SetDefaultSeed(7)
	env := object.NewEnvironment()
	if err := reg.Install(env); err != nil {
		t.Fatal(err)
	}

	val, ok := env.Get(defaultRngName)
	if !ok {
		t.Fatal("default generator handle not bound")
	}
	handle, ok := val.(*object.Rng)
	if !ok {
		t.Fatalf("default handle is %T", val)
	}
	if got, want := handle.Src.Next(), rng.New(7).Next(); got != want {
		t.Fatalf("default handle first step %d, want %d", got, want)
	}
}

func TestInstallSeparateEnvironmentsSeparateHandles(t *testing.T) {
	reg := NewRegistry()
	a := object.NewEnvironment()
	b := object.NewEnvironment()
	if err := reg.Install(a); err != nil {
		t.Fatal(err)
	}
	if err := reg.Install(b); err != nil {
		t.Fatal(err)
	}

	ha, _ := a.Get(defaultRngName)
	hb, _ := b.Get(defaultRngName)
	if ha.(*object.Rng) == hb.(*object.Rng) {
		t.Fatal("environments share a default generator handle")
	}

	first := ha.(*object.Rng).Src.Next()
	if hb.(*object.Rng).Src.Next() != first {
		t.Fatal("same seed should yield the same first step")
	}
	// advancing a must not move b
	ha.(*object.Rng).Src.Next()
	second := rng.New(0)
	second.Next()
	if hb.(*object.Rng).Src.Next() != second.Next() {
		t.Fatal("handles are not independent")
	}
}

func TestStorageNativesOptIn(t *testing.T) {
	reg := NewRegistry()
	env := object.NewEnvironment()
	if err := reg.Install(env); err != nil {
		t.Fatal(err)
	}
	if _, ok := env.Get("storeOpen"); ok {
		t.Fatal("storage natives should not be bound by default")
	}

	reg = NewRegistry()
	reg.EnableStorage()
	env = object.NewEnvironment()
	if err := reg.Install(env); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"storeOpen", "storeExec", "storeQuery", "storeClose"} {
		if _, ok := env.Get(name); !ok {
			t.Errorf("storage native %s not bound after EnableStorage", name)
		}
	}
}

func TestRegisterHostNative(t *testing.T) {
	reg := NewRegistry()
	reg.SetOutput(&bytes.Buffer{})
	reg.Register(&object.Native{
		Name:  "answer",
		Arity: 0,
		Fn: func(ctx object.CallContext, args ...object.Object) object.Object {
			return &object.Integer{Value: 42}
		},
	})

	env := object.NewEnvironment()
	if err := reg.Install(env); err != nil {
		t.Fatal(err)
	}
	val, ok := env.Get("answer")
	if !ok {
		t.Fatal("custom native not bound")
	}
	native := val.(*object.Native)
	if got := native.Fn(nil); got.(*object.Integer).Value != 42 {
		t.Fatalf("custom native returned %s", got.Inspect())
	}
}
