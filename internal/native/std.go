package native

import (
	"fmt"
	"math"
	"strings"

	"fable/internal/object"
)

func (r *Registry) registerCore() {
	r.Register(&object.Native{Name: "print", Arity: -1, Fn: r.fnPrint})
	r.Register(&object.Native{Name: "len", Arity: 1, Fn: fnLen})
	r.Register(&object.Native{Name: "push", Arity: 2, Fn: fnPush})
	r.Register(&object.Native{Name: "pop", Arity: 1, Fn: fnPop})
	r.Register(&object.Native{Name: "keys", Arity: 1, Fn: fnKeys})
	r.Register(&object.Native{Name: "fetch", Arity: 2, Fn: fnFetch})
	r.Register(&object.Native{Name: "remove", Arity: 2, Fn: fnRemove})
	r.Register(&object.Native{Name: "str", Arity: 1, Fn: fnStr})
	r.Register(&object.Native{Name: "abs", Arity: 1, Fn: fnAbs})
	r.Register(&object.Native{Name: "min", Arity: 2, Fn: fnMin})
	r.Register(&object.Native{Name: "max", Arity: 2, Fn: fnMax})
	r.Register(&object.Native{Name: "floor", Arity: 1, Fn: fnFloor})
	r.Register(&object.Native{Name: "typeOf", Arity: 1, Fn: fnTypeOf})
}

func (r *Registry) fnPrint(ctx object.CallContext, args ...object.Object) object.Object {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, a.Inspect())
	}
	fmt.Fprintln(r.out, strings.Join(parts, " "))
	return object.NIL
}

func fnLen(ctx object.CallContext, args ...object.Object) object.Object {
	switch v := args[0].(type) {
	case *object.String:
		return &object.Integer{Value: int64(len([]rune(v.Value)))}
	case *object.Sequence:
		return &object.Integer{Value: int64(len(v.Elements))}
	case *object.Mapping:
		return &object.Integer{Value: int64(v.Len())}
	}
	return ctx.Fault(object.TypeMismatch, "len does not support %s", args[0].Type())
}

func fnPush(ctx object.CallContext, args ...object.Object) object.Object {
	seq, ok := args[0].(*object.Sequence)
	if !ok {
		return ctx.Fault(object.TypeMismatch, "push expects a sequence, got %s", args[0].Type())
	}
	// in-place: every binding sharing the sequence sees the new element
	seq.Elements = append(seq.Elements, args[1])
	return seq
}

func fnPop(ctx object.CallContext, args ...object.Object) object.Object {
	seq, ok := args[0].(*object.Sequence)
	if !ok {
		return ctx.Fault(object.TypeMismatch, "pop expects a sequence, got %s", args[0].Type())
	}
	if len(seq.Elements) == 0 {
		return ctx.Fault(object.IndexOutOfRange, "pop on empty sequence")
	}
	last := seq.Elements[len(seq.Elements)-1]
	seq.Elements = seq.Elements[:len(seq.Elements)-1]
	return last
}

func fnKeys(ctx object.CallContext, args ...object.Object) object.Object {
	m, ok := args[0].(*object.Mapping)
	if !ok {
		return ctx.Fault(object.TypeMismatch, "keys expects a mapping, got %s", args[0].Type())
	}
	elements := make([]object.Object, 0, m.Len())
	for _, k := range m.Keys() {
		elements = append(elements, &object.String{Value: k})
	}
	return &object.Sequence{Elements: elements}
}

// fnFetch is the strict mapping read: unlike index syntax, which yields nil
// on a missing key, fetch faults.
func fnFetch(ctx object.CallContext, args ...object.Object) object.Object {
	m, ok := args[0].(*object.Mapping)
	if !ok {
		return ctx.Fault(object.TypeMismatch, "fetch expects a mapping, got %s", args[0].Type())
	}
	key, ok := args[1].(*object.String)
	if !ok {
		return ctx.Fault(object.TypeMismatch, "fetch key must be a string, got %s", args[1].Type())
	}
	val, found := m.Get(key.Value)
	if !found {
		return ctx.Fault(object.KeyError, "no such key: %q", key.Value)
	}
	return val
}

func fnRemove(ctx object.CallContext, args ...object.Object) object.Object {
	m, ok := args[0].(*object.Mapping)
	if !ok {
		return ctx.Fault(object.TypeMismatch, "remove expects a mapping, got %s", args[0].Type())
	}
	key, ok := args[1].(*object.String)
	if !ok {
		return ctx.Fault(object.TypeMismatch, "remove key must be a string, got %s", args[1].Type())
	}
	return object.NativeBoolToBoolean(m.Delete(key.Value))
}

func fnStr(ctx object.CallContext, args ...object.Object) object.Object {
	return &object.String{Value: args[0].Inspect()}
}

func fnAbs(ctx object.CallContext, args ...object.Object) object.Object {
	switch v := args[0].(type) {
	case *object.Integer:
		if v.Value < 0 {
			return &object.Integer{Value: -v.Value}
		}
		return v
	case *object.Float:
		return &object.Float{Value: math.Abs(v.Value)}
	}
	return ctx.Fault(object.TypeMismatch, "abs expects a number, got %s", args[0].Type())
}

func fnMin(ctx object.CallContext, args ...object.Object) object.Object {
	return pickNumeric(ctx, "min", args[0], args[1], func(a, b float64) bool { return a <= b })
}

func fnMax(ctx object.CallContext, args ...object.Object) object.Object {
	return pickNumeric(ctx, "max", args[0], args[1], func(a, b float64) bool { return a >= b })
}

// pickNumeric returns whichever original operand wins the comparison, so an
// integer argument stays an integer.
func pickNumeric(ctx object.CallContext, name string, a, b object.Object, wins func(a, b float64) bool) object.Object {
	av, aok := floatValue(a)
	bv, bok := floatValue(b)
	if !aok || !bok {
		return ctx.Fault(object.TypeMismatch, "%s expects numbers, got %s and %s", name, a.Type(), b.Type())
	}
	if wins(av, bv) {
		return a
	}
	return b
}

func fnFloor(ctx object.CallContext, args ...object.Object) object.Object {
	switch v := args[0].(type) {
	case *object.Integer:
		return v
	case *object.Float:
		return &object.Integer{Value: int64(math.Floor(v.Value))}
	}
	return ctx.Fault(object.TypeMismatch, "floor expects a number, got %s", args[0].Type())
}

func fnTypeOf(ctx object.CallContext, args ...object.Object) object.Object {
	return &object.String{Value: string(args[0].Type())}
}

func floatValue(o object.Object) (float64, bool) {
	switch v := o.(type) {
	case *object.Integer:
		return float64(v.Value), true
	case *object.Float:
		return v.Value, true
	}
	return 0, false
}
