package object

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"fable/internal/ast"
	"fable/internal/rng"
)

const (
	NIL_OBJ     = "NIL"
	INTEGER_OBJ = "INTEGER"
	FLOAT_OBJ   = "FLOAT"
	BOOLEAN_OBJ = "BOOLEAN"
	STRING_OBJ  = "STRING"

	SEQUENCE_OBJ = "SEQUENCE"
	MAPPING_OBJ  = "MAPPING"
	SCHEMA_OBJ   = "SCHEMA"
	INSTANCE_OBJ = "INSTANCE"

	FUNCTION_OBJ = "FUNCTION"
	NATIVE_OBJ   = "NATIVE"
	RNG_OBJ      = "RNG"

	RETURN_VALUE_OBJ = "RETURN_VALUE"
	BREAK_OBJ        = "BREAK"
	CONTINUE_OBJ     = "CONTINUE"
	FAULT_OBJ        = "FAULT"
)

var (
	NIL      = &Nil{}
	TRUE     = &Boolean{Value: true}
	FALSE    = &Boolean{Value: false}
	BREAK    = &Break{}
	CONTINUE = &Continue{}
)

type ObjectType string

type Object interface {
	Type() ObjectType
	Inspect() string
}

// CallContext is the bridge handed to native functions. It exposes the
// calling environment and a fault constructor carrying the call site.
type CallContext interface {
	Env() *Environment
	Fault(kind FaultKind, format string, a ...interface{}) *Fault
}

// NativeFunction is a host-supplied callable bound into the global scope
// before execution.
type NativeFunction func(ctx CallContext, args ...Object) Object

type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }

type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string  { return strconv.FormatFloat(f.Value, 'g', -1, 64) }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return fmt.Sprintf("%t", b.Value) }

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

type Nil struct{}

func (n *Nil) Type() ObjectType { return NIL_OBJ }
func (n *Nil) Inspect() string  { return "nil" }

// Sequence is the ordered, resizable collection type. Bindings share the
// backing slice: mutation through one binding is visible through all.
type Sequence struct {
	Elements []Object
}

func (s *Sequence) Type() ObjectType { return SEQUENCE_OBJ }
func (s *Sequence) Inspect() string {
	var out bytes.Buffer
	elements := []string{}
	for _, e := range s.Elements {
		elements = append(elements, e.Inspect())
	}
	out.WriteString("[")
	out.WriteString(strings.Join(elements, ", "))
	out.WriteString("]")
	return out.String()
}

// Mapping is string-keyed and insertion-ordered: Keys records first-set
// order, and updates to an existing key keep its position.
type Mapping struct {
	keys  []string
	pairs map[string]Object
}

func NewMapping() *Mapping {
	return &Mapping{pairs: make(map[string]Object)}
}

func (m *Mapping) Type() ObjectType { return MAPPING_OBJ }
func (m *Mapping) Inspect() string {
	var out bytes.Buffer
	pairs := []string{}
	for _, k := range m.keys {
		pairs = append(pairs, fmt.Sprintf("%q: %s", k, m.pairs[k].Inspect()))
	}
	out.WriteString("{")
	out.WriteString(strings.Join(pairs, ", "))
	out.WriteString("}")
	return out.String()
}

func (m *Mapping) Set(key string, val Object) {
	if _, ok := m.pairs[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.pairs[key] = val
}

func (m *Mapping) Get(key string) (Object, bool) {
	v, ok := m.pairs[key]
	return v, ok
}

func (m *Mapping) Delete(key string) bool {
	if _, ok := m.pairs[key]; !ok {
		return false
	}
	delete(m.pairs, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

func (m *Mapping) Keys() []string { return m.keys }
func (m *Mapping) Len() int       { return len(m.keys) }

// Schema is a declared object type: a name tag plus ordered field names.
type Schema struct {
	Name   string
	Fields []string
}

func (s *Schema) Type() ObjectType { return SCHEMA_OBJ }
func (s *Schema) Inspect() string {
	return "object " + s.Name + " { " + strings.Join(s.Fields, ", ") + " }"
}

// Instance is a value of a declared object type. Field order comes from the
// schema; the map holds current values.
type Instance struct {
	Schema *Schema
	Fields map[string]Object
}

func (in *Instance) Type() ObjectType { return INSTANCE_OBJ }
func (in *Instance) Inspect() string {
	parts := []string{}
	for _, f := range in.Schema.Fields {
		parts = append(parts, f+": "+in.Fields[f].Inspect())
	}
	return in.Schema.Name + " { " + strings.Join(parts, ", ") + " }"
}

// Function is a closure: the procedure body plus the environment live at its
// definition point. The environment is shared, never snapshotted, so later
// mutation of captured variables is visible inside the closure.
type Function struct {
	Name       string
	Parameters []*ast.Identifier
	Body       *ast.BlockStatement
	Env        *Environment
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	params := []string{}
	for _, p := range f.Parameters {
		params = append(params, p.String())
	}
	return "proc " + f.Name + "(" + strings.Join(params, ", ") + ") { ... }"
}

// Native wraps a host Go function. Arity -1 means variadic.
type Native struct {
	Name  string
	Arity int
	Fn    NativeFunction
}

func (n *Native) Type() ObjectType { return NATIVE_OBJ }
func (n *Native) Inspect() string  { return "native " + n.Name + " { <host fn> }" }

// Rng wraps a deterministic generator handle. The source mutates in place on
// every draw; two handles never share state.
type Rng struct {
	Src rng.Source
}

func (r *Rng) Type() ObjectType { return RNG_OBJ }
func (r *Rng) Inspect() string  { return "<rng>" }

type ReturnValue struct {
	Value Object
}

func (rv *ReturnValue) Type() ObjectType { return RETURN_VALUE_OBJ }
func (rv *ReturnValue) Inspect() string  { return rv.Value.Inspect() }

// Break and Continue are loop control signals. They travel the same return
// path as values but are consumed by the nearest enclosing loop; they are
// not faults and must never ride the fault path.
type Break struct{}

func (b *Break) Type() ObjectType { return BREAK_OBJ }
func (b *Break) Inspect() string  { return "break" }

type Continue struct{}

func (c *Continue) Type() ObjectType { return CONTINUE_OBJ }
func (c *Continue) Inspect() string  { return "continue" }

// Equals implements the language's equality: primitives by value with
// int/float promotion, compounds structurally, closures and natives by
// identity.
func Equals(a, b Object) bool {
	// numeric comparison promotes int to float
	if an, aok := numericValue(a); aok {
		bn, bok := numericValue(b)
		if bok {
			if a.Type() == INTEGER_OBJ && b.Type() == INTEGER_OBJ {
				return a.(*Integer).Value == b.(*Integer).Value
			}
			return an == bn
		}
		return false
	}

	if a.Type() != b.Type() {
		return false
	}

	switch av := a.(type) {
	case *Boolean:
		return av.Value == b.(*Boolean).Value
	case *String:
		return av.Value == b.(*String).Value
	case *Nil:
		return true
	case *Sequence:
		bv := b.(*Sequence)
		if len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equals(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *Mapping:
		bv := b.(*Mapping)
		if av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.keys {
			bval, ok := bv.Get(k)
			if !ok || !Equals(av.pairs[k], bval) {
				return false
			}
		}
		return true
	case *Instance:
		bv := b.(*Instance)
		if av.Schema.Name != bv.Schema.Name {
			return false
		}
		for _, f := range av.Schema.Fields {
			if !Equals(av.Fields[f], bv.Fields[f]) {
				return false
			}
		}
		return true
	default:
		// functions, natives, rng handles: identity only
		return a == b
	}
}

func numericValue(o Object) (float64, bool) {
	switch v := o.(type) {
	case *Integer:
		return float64(v.Value), true
	case *Float:
		return v.Value, true
	}
	return 0, false
}

func NativeBoolToBoolean(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

// Truthy reports language truthiness: nil and false are falsy, everything
// else is truthy.
func Truthy(o Object) bool {
	switch o {
	case NIL, FALSE:
		return false
	case TRUE:
		return true
	}
	return o.Type() != NIL_OBJ
}
