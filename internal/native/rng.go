package native

import (
	"fable/internal/object"
	"fable/internal/rng"
)

func (r *Registry) registerRng() {
	r.Register(&object.Native{Name: "initRng", Arity: 1, Fn: fnInitRng})
	r.Register(&object.Native{Name: "draw", Arity: -1, Fn: fnDraw})
	r.Register(&object.Native{Name: "shuffle", Arity: 2, Fn: fnShuffle})
	r.Register(&object.Native{Name: "rand", Arity: -1, Fn: fnRand})
	r.Register(&object.Native{Name: "randSeed", Arity: 1, Fn: fnRandSeed})
}

func fnInitRng(ctx object.CallContext, args ...object.Object) object.Object {
	seed, ok := args[0].(*object.Integer)
	if !ok {
		return ctx.Fault(object.TypeMismatch, "initRng expects an integer seed, got %s", args[0].Type())
	}
	return &object.Rng{Src: rng.New(seed.Value)}
}

// fnDraw handles both call forms. Each consumes exactly one raw step; the
// two-argument form is not layered on the three-argument form or vice versa,
// both call straight into rng.Draw.
func fnDraw(ctx object.CallContext, args ...object.Object) object.Object {
	return drawFrom(ctx, "draw", args)
}

func drawFrom(ctx object.CallContext, name string, args []object.Object) object.Object {
	if len(args) < 2 || len(args) > 3 {
		return ctx.Fault(object.ArityMismatch, "%s expects 2 or 3 arguments, got %d", name, len(args))
	}
	handle, ok := args[0].(*object.Rng)
	if !ok {
		return ctx.Fault(object.TypeMismatch, "%s expects an rng handle, got %s", name, args[0].Type())
	}

	bounds := make([]int64, 0, 2)
	for _, a := range args[1:] {
		n, ok := a.(*object.Integer)
		if !ok {
			return ctx.Fault(object.TypeMismatch, "%s bounds must be integers, got %s", name, a.Type())
		}
		bounds = append(bounds, n.Value)
	}

	var lo, hi int64
	if len(bounds) == 1 {
		lo, hi = 0, bounds[0]
	} else {
		lo, hi = bounds[0], bounds[1]
	}
	if hi < lo {
		return ctx.Fault(object.TypeMismatch, "%s range is empty: [%d, %d]", name, lo, hi)
	}
	return &object.Integer{Value: rng.Draw(handle.Src, lo, hi)}
}

func fnShuffle(ctx object.CallContext, args ...object.Object) object.Object {
	handle, ok := args[0].(*object.Rng)
	if !ok {
		return ctx.Fault(object.TypeMismatch, "shuffle expects an rng handle, got %s", args[0].Type())
	}
	seq, ok := args[1].(*object.Sequence)
	if !ok {
		return ctx.Fault(object.TypeMismatch, "shuffle expects a sequence, got %s", args[1].Type())
	}
	rng.Shuffle(handle.Src, len(seq.Elements), func(i, j int) {
		seq.Elements[i], seq.Elements[j] = seq.Elements[j], seq.Elements[i]
	})
	return seq
}

// fnRand is the legacy form operating on the process-default handle. It
// shares the single-raw-step contract with draw; the historical variant that
// delegated rand(lo, hi) to rand(n) consumed an extra step and is deliberately
// not reproduced.
func fnRand(ctx object.CallContext, args ...object.Object) object.Object {
	handle, fault := defaultHandle(ctx)
	if fault != nil {
		return fault
	}
	withHandle := append([]object.Object{handle}, args...)
	return drawFrom(ctx, "rand", withHandle)
}

func fnRandSeed(ctx object.CallContext, args ...object.Object) object.Object {
	seed, ok := args[0].(*object.Integer)
	if !ok {
		return ctx.Fault(object.TypeMismatch, "randSeed expects an integer, got %s", args[0].Type())
	}
	handle, fault := defaultHandle(ctx)
	if fault != nil {
		return fault
	}
	handle.Src = rng.New(seed.Value)
	return object.NIL
}

func defaultHandle(ctx object.CallContext) (*object.Rng, *object.Fault) {
	val, ok := ctx.Env().Get(defaultRngName)
	if !ok {
		return nil, ctx.Fault(object.NativeFailure, "default rng handle not installed")
	}
	handle, ok := val.(*object.Rng)
	if !ok {
		return nil, ctx.Fault(object.NativeFailure, "default rng binding is not a handle")
	}
	return handle, nil
}
