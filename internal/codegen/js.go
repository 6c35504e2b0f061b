package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"fable/internal/ast"
	"fable/internal/token"
)

// jsBackend emits ES2015+ source. Sequences become arrays, mappings become
// Map (insertion ordered), instances become tagged plain objects. let/const
// block scoping lines up with the language's frame-per-block rule, so
// first-use assignment is emitted as a let declaration in place.
type jsBackend struct {
	out    strings.Builder
	indent int
	scopes scopeStack
	err    error
}

var jsNatives = map[string]string{
	"print":    "__print",
	"len":      "__len",
	"push":     "__push",
	"pop":      "__pop",
	"keys":     "__keys",
	"fetch":    "__fetch",
	"remove":   "__remove",
	"str":      "__str",
	"abs":      "__abs",
	"min":      "__min",
	"max":      "__max",
	"floor":    "__floor",
	"typeOf":   "__typeOf",
	"initRng":  "__rngNew",
	"draw":     "__draw",
	"shuffle":  "__shuffle",
	"rand":     "__rand",
	"randSeed": "__randSeed",
}

var jsReserved = map[string]bool{
	"await": true, "case": true, "catch": true, "class": true, "const": true,
	"default": true, "delete": true, "do": true, "enum": true, "export": true,
	"extends": true, "finally": true, "function": true, "import": true,
	"in": true, "instanceof": true, "new": true, "switch": true, "this": true,
	"throw": true, "try": true, "typeof": true, "void": true, "with": true,
	"yield": true, "var": true, "let": true,
}

func (b *jsBackend) Name() string { return "js" }

func (b *jsBackend) Generate(program *ast.Program) (string, error) {
	b.out.WriteString(jsPrelude)
	b.out.WriteString("\n")
	b.scopes.push()
	for _, stmt := range program.Statements {
		b.stmt(stmt)
	}
	b.scopes.pop()
	if b.err != nil {
		return "", b.err
	}
	return b.out.String(), nil
}

func (b *jsBackend) unsupported(node ast.Node, construct string) {
	if b.err == nil {
		line, col := node.Pos()
		b.err = &UnsupportedError{Target: "js", Construct: construct, Line: line, Col: col}
	}
}

func (b *jsBackend) line(format string, a ...interface{}) {
	b.out.WriteString(strings.Repeat("  ", b.indent))
	fmt.Fprintf(&b.out, format, a...)
	b.out.WriteString("\n")
}

func (b *jsBackend) ident(name string) string {
	if jsReserved[name] {
		return name + "_"
	}
	return name
}

func (b *jsBackend) stmt(node ast.Statement) {
	switch node := node.(type) {
	case *ast.DeclStatement:
		kw := "const"
		if node.Kind() == token.VAR {
			kw = "let"
		}
		b.scopes.declare(node.Name.Value)
		b.line("%s %s = %s;", kw, b.ident(node.Name.Value), b.expr(node.Value))

	case *ast.ProcStatement:
		b.scopes.declare(node.Name.Value)
		params := make([]string, 0, len(node.Parameters))
		for _, p := range node.Parameters {
			params = append(params, b.ident(p.Value))
		}
		b.line("function %s(%s) {", b.ident(node.Name.Value), strings.Join(params, ", "))
		b.scopes.pushFn()
		for _, p := range node.Parameters {
			b.scopes.declare(p.Value)
		}
		b.indent++
		b.blockBody(node.Body)
		b.indent--
		b.scopes.pop()
		b.line("}")

	case *ast.ObjectStatement:
		b.scopes.declare(node.Name.Value)
		fields := make([]string, 0, len(node.Fields))
		for _, f := range node.Fields {
			fields = append(fields, b.ident(f.Value))
		}
		args := strings.Join(fields, ", ")
		pairs := make([]string, 0, len(fields)+1)
		pairs = append(pairs, fmt.Sprintf("__schema: %q", node.Name.Value))
		for _, f := range fields {
			pairs = append(pairs, f+": "+f)
		}
		b.line("function %s(%s) { return { %s }; }", b.ident(node.Name.Value), args, strings.Join(pairs, ", "))

	case *ast.ReturnStatement:
		if node.Value == nil {
			b.line("return null;")
		} else {
			b.line("return %s;", b.expr(node.Value))
		}

	case *ast.BreakStatement:
		b.line("break;")

	case *ast.ContinueStatement:
		b.line("continue;")

	case *ast.AssignStatement:
		b.assign(node)

	case *ast.IfStatement:
		b.ifChain(node, "if")

	case *ast.WhileStatement:
		b.line("while (__truthy(%s)) {", b.expr(node.Condition))
		b.block(node.Body)
		b.line("}")

	case *ast.ForRangeStatement:
		v := b.ident(node.Var.Value)
		// brace wrapper keeps the bound const out of the surrounding scope
		b.line("{")
		b.indent++
		b.line("const __to = %s;", b.expr(node.To))
		b.line("for (let %s = %s; %s <= __to; %s++) {", v, b.expr(node.From), v, v)
		b.scopes.push()
		b.scopes.declare(node.Var.Value)
		b.block(node.Body)
		b.scopes.pop()
		b.line("}")
		b.indent--
		b.line("}")

	case *ast.ForEachStatement:
		b.line("for (let %s of %s) {", b.ident(node.Var.Value), b.expr(node.Seq))
		b.scopes.push()
		b.scopes.declare(node.Var.Value)
		b.block(node.Body)
		b.scopes.pop()
		b.line("}")

	case *ast.ExpressionStatement:
		b.line("%s;", b.expr(node.Expression))

	case *ast.BlockStatement:
		b.line("{")
		b.block(node)
		b.line("}")
	}
}

// block emits a block body with its own scope frame, indented one level.
func (b *jsBackend) block(block *ast.BlockStatement) {
	b.scopes.push()
	b.indent++
	for _, stmt := range block.Statements {
		b.stmt(stmt)
	}
	b.indent--
	b.scopes.pop()
}

// blockBody emits statements without opening a frame; used for procedure
// bodies whose frame already holds the parameters.
func (b *jsBackend) blockBody(block *ast.BlockStatement) {
	for _, stmt := range block.Statements {
		b.stmt(stmt)
	}
}

func (b *jsBackend) assign(node *ast.AssignStatement) {
	switch target := node.Target.(type) {
	case *ast.Identifier:
		if node.Declare || !b.scopes.declared(target.Value) {
			b.scopes.declare(target.Value)
			b.line("let %s = %s;", b.ident(target.Value), b.expr(node.Value))
			return
		}
		b.line("%s = %s;", b.ident(target.Value), b.expr(node.Value))
	case *ast.IndexExpression:
		b.line("__setindex(%s, %s, %s);", b.expr(target.Left), b.expr(target.Index), b.expr(node.Value))
	case *ast.FieldExpression:
		b.line("%s.%s = %s;", b.expr(target.Left), b.ident(target.Field.Value), b.expr(node.Value))
	}
}

func (b *jsBackend) ifChain(node *ast.IfStatement, kw string) {
	b.line("%s (__truthy(%s)) {", kw, b.expr(node.Condition))
	b.block(node.Then)
	switch alt := node.Else.(type) {
	case nil:
		b.line("}")
	case *ast.IfStatement:
		b.out.WriteString(strings.Repeat("  ", b.indent))
		b.out.WriteString("} else ")
		b.ifChainBare(alt)
	case *ast.BlockStatement:
		b.line("} else {")
		b.block(alt)
		b.line("}")
	}
}

// ifChainBare continues an else-if chain on the current line.
func (b *jsBackend) ifChainBare(node *ast.IfStatement) {
	fmt.Fprintf(&b.out, "if (__truthy(%s)) {\n", b.expr(node.Condition))
	b.block(node.Then)
	switch alt := node.Else.(type) {
	case nil:
		b.line("}")
	case *ast.IfStatement:
		b.out.WriteString(strings.Repeat("  ", b.indent))
		b.out.WriteString("} else ")
		b.ifChainBare(alt)
	case *ast.BlockStatement:
		b.line("} else {")
		b.block(alt)
		b.line("}")
	}
}

func (b *jsBackend) expr(node ast.Expression) string {
	switch node := node.(type) {
	case *ast.IntegerLiteral:
		return strconv.FormatInt(node.Value, 10)
	case *ast.FloatLiteral:
		return strconv.FormatFloat(node.Value, 'g', -1, 64)
	case *ast.StringLiteral:
		return strconv.Quote(node.Value)
	case *ast.BooleanLiteral:
		if node.Value {
			return "true"
		}
		return "false"
	case *ast.NilLiteral:
		return "null"
	case *ast.Identifier:
		if mapped, ok := jsNatives[node.Value]; ok && !b.scopes.declared(node.Value) {
			return mapped
		}
		if storageNatives[node.Value] && !b.scopes.declared(node.Value) {
			b.unsupported(node, "storage natives")
			return node.Value
		}
		return b.ident(node.Value)
	case *ast.PrefixExpression:
		if node.Operator == "not" {
			return "(!__truthy(" + b.expr(node.Right) + "))"
		}
		return "(-" + b.expr(node.Right) + ")"
	case *ast.InfixExpression:
		return b.infix(node)
	case *ast.CallExpression:
		args := make([]string, 0, len(node.Arguments))
		for _, a := range node.Arguments {
			args = append(args, b.expr(a))
		}
		return b.expr(node.Function) + "(" + strings.Join(args, ", ") + ")"
	case *ast.IndexExpression:
		return "__index(" + b.expr(node.Left) + ", " + b.expr(node.Index) + ")"
	case *ast.FieldExpression:
		return b.expr(node.Left) + "." + b.ident(node.Field.Value)
	case *ast.SequenceLiteral:
		elements := make([]string, 0, len(node.Elements))
		for _, el := range node.Elements {
			elements = append(elements, b.expr(el))
		}
		return "[" + strings.Join(elements, ", ") + "]"
	case *ast.MappingLiteral:
		pairs := make([]string, 0, len(node.Keys))
		for i := range node.Keys {
			pairs = append(pairs, "["+b.expr(node.Keys[i])+", "+b.expr(node.Values[i])+"]")
		}
		return "new Map([" + strings.Join(pairs, ", ") + "])"
	}
	return "null"
}

func (b *jsBackend) infix(node *ast.InfixExpression) string {
	left := b.expr(node.Left)
	right := b.expr(node.Right)
	switch node.Operator {
	case "and":
		return "(__truthy(" + left + ") && __truthy(" + right + "))"
	case "or":
		return "(__truthy(" + left + ") || __truthy(" + right + "))"
	case "xor":
		return "(__truthy(" + left + ") !== __truthy(" + right + "))"
	case "==":
		return "__eq(" + left + ", " + right + ")"
	case "!=":
		return "(!__eq(" + left + ", " + right + "))"
	case "+":
		return "__add(" + left + ", " + right + ")"
	case "/":
		return "__fdiv(" + left + ", " + right + ")"
	case "div":
		return "__idiv(" + left + ", " + right + ")"
	case "mod":
		return "__imod(" + left + ", " + right + ")"
	default:
		return "(" + left + " " + node.Operator + " " + right + ")"
	}
}

const jsPrelude = `"use strict";
// fable runtime prelude (js)
function __fault(msg) { throw new Error(msg); }
function __truthy(v) { return v !== null && v !== undefined && v !== false; }
function __add(a, b) {
  if (Array.isArray(a) && Array.isArray(b)) return a.concat(b);
  return a + b;
}
function __fdiv(a, b) {
  if (b === 0) __fault("division by zero");
  return a / b;
}
function __intcheck(op, a, b) {
  if (!Number.isInteger(a) || !Number.isInteger(b)) __fault(op + " requires integer operands");
}
function __idiv(a, b) {
  __intcheck("div", a, b);
  if (b === 0) __fault("integer division by zero");
  return Math.trunc(a / b);
}
function __imod(a, b) {
  __intcheck("mod", a, b);
  if (b === 0) __fault("modulo by zero");
  return a % b;
}
function __eq(a, b) {
  if (a === null || b === null) return a === b;
  if (Array.isArray(a) && Array.isArray(b)) {
    if (a.length !== b.length) return false;
    for (let i = 0; i < a.length; i++) if (!__eq(a[i], b[i])) return false;
    return true;
  }
  if (a instanceof Map && b instanceof Map) {
    if (a.size !== b.size) return false;
    for (const [k, v] of a) {
      if (!b.has(k) || !__eq(v, b.get(k))) return false;
    }
    return true;
  }
  if (typeof a === "object" && typeof b === "object" && a.__schema && b.__schema) {
    if (a.__schema !== b.__schema) return false;
    for (const k of Object.keys(a)) if (!__eq(a[k], b[k])) return false;
    return true;
  }
  return a === b;
}
function __index(c, i) {
  if (Array.isArray(c)) {
    if (i < 0 || i >= c.length) __fault("index " + i + " out of range");
    return c[i];
  }
  if (c instanceof Map) return c.has(i) ? c.get(i) : null;
  if (typeof c === "string") {
    const runes = Array.from(c);
    if (i < 0 || i >= runes.length) __fault("index " + i + " out of range");
    return runes[i];
  }
  __fault("cannot index value");
}
function __setindex(c, i, v) {
  if (Array.isArray(c)) {
    if (i < 0 || i >= c.length) __fault("index " + i + " out of range");
    c[i] = v;
    return;
  }
  if (c instanceof Map) { c.set(i, v); return; }
  __fault("cannot index-assign value");
}
function __len(v) {
  if (typeof v === "string") return Array.from(v).length;
  if (Array.isArray(v)) return v.length;
  if (v instanceof Map) return v.size;
  __fault("len does not support value");
}
function __push(seq, v) { seq.push(v); return seq; }
function __pop(seq) {
  if (seq.length === 0) __fault("pop on empty sequence");
  return seq.pop();
}
function __keys(m) { return [...m.keys()]; }
function __fetch(m, k) {
  if (!m.has(k)) __fault("no such key: " + JSON.stringify(k));
  return m.get(k);
}
function __remove(m, k) { return m.delete(k); }
function __abs(v) { return Math.abs(v); }
function __min(a, b) { return a <= b ? a : b; }
function __max(a, b) { return a >= b ? a : b; }
function __floor(v) { return Math.floor(v); }
function __typeOf(v) {
  if (v === null || v === undefined) return "NIL";
  if (typeof v === "number") return Number.isInteger(v) ? "INTEGER" : "FLOAT";
  if (typeof v === "string") return "STRING";
  if (typeof v === "boolean") return "BOOLEAN";
  if (Array.isArray(v)) return "SEQUENCE";
  if (v instanceof Map) return "MAPPING";
  if (typeof v === "function") return "FUNCTION";
  if (v.__schema) return "INSTANCE";
  return "NIL";
}
function __str(v) {
  if (v === null || v === undefined) return "nil";
  if (Array.isArray(v)) return "[" + v.map(__str).join(", ") + "]";
  if (v instanceof Map) {
    const parts = [];
    for (const [k, val] of v) parts.push(JSON.stringify(k) + ": " + __str(val));
    return "{" + parts.join(", ") + "}";
  }
  if (typeof v === "object" && v.__schema) {
    const parts = [];
    for (const k of Object.keys(v)) {
      if (k !== "__schema") parts.push(k + ": " + __str(v[k]));
    }
    return v.__schema + " { " + parts.join(", ") + " }";
  }
  return String(v);
}
function __print(...args) { console.log(args.map(__str).join(" ")); }
// deterministic generator: 32-bit LCG, state*1664525+1013904223 mod 2^32
function __rngNew(seed) { return { s: seed >>> 0 }; }
function __rngNext(r) {
  r.s = (Math.imul(r.s, 1664525) + 1013904223) >>> 0;
  return r.s;
}
function __draw(r, lo, hi) {
  if (hi === undefined) { hi = lo; lo = 0; }
  const span = hi - lo + 1;
  if (span <= 0) __fault("draw range is empty");
  return lo + (__rngNext(r) % span);
}
function __shuffle(r, seq) {
  for (let i = seq.length - 1; i >= 1; i--) {
    const j = __draw(r, 0, i);
    const t = seq[i]; seq[i] = seq[j]; seq[j] = t;
  }
  return seq;
}
const __rngDefault = __rngNew(0);
function __rand(lo, hi) { return __draw(__rngDefault, lo, hi); }
function __randSeed(s) { __rngDefault.s = s >>> 0; }
`
