package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"fable/internal/ast"
)

// pyBackend emits Python 3. Sequences become lists, mappings dicts (insertion
// ordered), schemas small classes. Python's assignment rules make every
// assigned name function-local, so each emitted def is prefixed with the
// nonlocal and global declarations needed to keep capture-by-reference
// mutation working like the interpreter. Python also has no block scope, so
// a binding that shadows an outer one inside a block is emitted under a
// fresh name; aliases tracks those renames per scope frame.
type pyBackend struct {
	out     strings.Builder
	indent  int
	scopes  scopeStack
	aliases []map[string]string
	renamed int
	err     error
}

var pyNatives = map[string]string{
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

var pyReserved = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "class": true,
	"def": true, "del": true, "elif": true, "else": true, "except": true,
	"finally": true, "from": true, "global": true, "import": true,
	"in": true, "is": true, "lambda": true, "nonlocal": true, "not": true,
	"or": true, "pass": true, "raise": true, "try": true, "with": true,
	"yield": true, "if": true, "while": true, "for": true, "return": true,
	"break": true, "continue": true,
}

func (b *pyBackend) Name() string { return "py" }

func (b *pyBackend) Generate(program *ast.Program) (string, error) {
	b.out.WriteString(pyPrelude)
	b.out.WriteString("\n")
	b.pushScope()
	for _, stmt := range program.Statements {
		b.stmt(stmt)
	}
	b.popScope()
	if b.err != nil {
		return "", b.err
	}
	return b.out.String(), nil
}

func (b *pyBackend) pushScope() {
	b.scopes.push()
	b.aliases = append(b.aliases, map[string]string{})
}

func (b *pyBackend) pushFnScope() {
	b.scopes.pushFn()
	b.aliases = append(b.aliases, map[string]string{})
}

func (b *pyBackend) popScope() {
	b.scopes.pop()
	b.aliases = b.aliases[:len(b.aliases)-1]
}

// bind declares name in the current frame and returns the identifier to emit
// for it. A name already visible from an outer frame gets a fresh alias, since
// plain reassignment would clobber the outer binding.
func (b *pyBackend) bind(name string) string {
	shadowing := b.scopes.declared(name)
	b.scopes.declare(name)
	if !shadowing {
		return b.ident(name)
	}
	b.renamed++
	alias := fmt.Sprintf("%s__%d", name, b.renamed)
	b.aliases[len(b.aliases)-1][name] = alias
	return alias
}

// resolveName returns the emitted identifier for a declared name, honoring
// any alias of the innermost frame that declares it.
func (b *pyBackend) resolveName(name string) (string, bool) {
	for i := len(b.scopes.frames) - 1; i >= 0; i-- {
		if !b.scopes.frames[i].names[name] {
			continue
		}
		if alias, ok := b.aliases[i][name]; ok {
			return alias, true
		}
		return b.ident(name), true
	}
	return "", false
}

func (b *pyBackend) unsupported(node ast.Node, construct string) {
	if b.err == nil {
		line, col := node.Pos()
		b.err = &UnsupportedError{Target: "py", Construct: construct, Line: line, Col: col}
	}
}

func (b *pyBackend) line(format string, a ...interface{}) {
	b.out.WriteString(strings.Repeat("    ", b.indent))
	fmt.Fprintf(&b.out, format, a...)
	b.out.WriteString("\n")
}

func (b *pyBackend) ident(name string) string {
	if pyReserved[name] {
		return name + "_"
	}
	return name
}

func (b *pyBackend) stmt(node ast.Statement) {
	switch node := node.(type) {
	case *ast.DeclStatement:
		val := b.expr(node.Value)
		b.line("%s = %s", b.bind(node.Name.Value), val)

	case *ast.ProcStatement:
		b.proc(node)

	case *ast.ObjectStatement:
		name := b.bind(node.Name.Value)
		fields := make([]string, 0, len(node.Fields))
		for _, f := range node.Fields {
			fields = append(fields, b.ident(f.Value))
		}
		b.line("class %s:", name)
		b.indent++
		b.line("def __init__(self, %s):", strings.Join(fields, ", "))
		b.indent++
		for _, f := range fields {
			b.line("self.%s = %s", f, f)
		}
		b.indent--
		b.indent--

	case *ast.ReturnStatement:
		if node.Value == nil {
			b.line("return None")
		} else {
			b.line("return %s", b.expr(node.Value))
		}

	case *ast.BreakStatement:
		b.line("break")

	case *ast.ContinueStatement:
		b.line("continue")

	case *ast.AssignStatement:
		b.assign(node)

	case *ast.IfStatement:
		b.ifChain(node, "if")

	case *ast.WhileStatement:
		b.line("while __truthy(%s):", b.expr(node.Condition))
		b.block(node.Body)

	case *ast.ForRangeStatement:
		from, to := b.expr(node.From), b.expr(node.To)
		b.pushScope()
		b.line("for %s in range(%s, (%s) + 1):", b.bind(node.Var.Value), from, to)
		b.block(node.Body)
		b.popScope()

	case *ast.ForEachStatement:
		seq := b.expr(node.Seq)
		b.pushScope()
		b.line("for %s in %s:", b.bind(node.Var.Value), seq)
		b.block(node.Body)
		b.popScope()

	case *ast.ExpressionStatement:
		b.line("%s", b.expr(node.Expression))

	case *ast.BlockStatement:
		// Python has no bare blocks; if True keeps the statement structure
		b.line("if True:")
		b.block(node)
	}
}

func (b *pyBackend) proc(node *ast.ProcStatement) {
	name := b.bind(node.Name.Value)
	params := make([]string, 0, len(node.Parameters))
	for _, p := range node.Parameters {
		params = append(params, b.ident(p.Value))
	}
	b.line("def %s(%s):", name, strings.Join(params, ", "))

	b.pushFnScope()
	for _, p := range node.Parameters {
		b.scopes.declare(p.Value)
	}
	nonlocals, globals := b.analyzeCaptures(node)

	b.indent++
	for _, captured := range nonlocals {
		b.line("nonlocal %s", b.emitName(captured))
	}
	for _, captured := range globals {
		b.line("global %s", b.emitName(captured))
	}
	if len(node.Body.Statements) == 0 && len(nonlocals) == 0 && len(globals) == 0 {
		b.line("pass")
	}
	for _, stmt := range node.Body.Statements {
		b.stmt(stmt)
	}
	b.indent--
	b.popScope()
}

// emitName is resolveName with a plain-identifier fallback for names that
// were never declared (natives shadow handling lives in expr).
func (b *pyBackend) emitName(name string) string {
	if resolved, ok := b.resolveName(name); ok {
		return resolved
	}
	return b.ident(name)
}

// analyzeCaptures finds names the body assigns that belong to an enclosing
// scope. Python would otherwise shadow them with fresh locals, silently
// breaking capture-by-reference mutation.
func (b *pyBackend) analyzeCaptures(node *ast.ProcStatement) (nonlocals, globals []string) {
	local := make(map[string]bool, len(node.Parameters))
	for _, p := range node.Parameters {
		local[p.Value] = true
	}
	seenNonlocal := map[string]bool{}
	seenGlobal := map[string]bool{}

	var walk func(statements []ast.Statement)
	walk = func(statements []ast.Statement) {
		for _, stmt := range statements {
			switch s := stmt.(type) {
			case *ast.DeclStatement:
				local[s.Name.Value] = true
			case *ast.ProcStatement:
				local[s.Name.Value] = true // nested body resolves on its own
			case *ast.ObjectStatement:
				local[s.Name.Value] = true
			case *ast.AssignStatement:
				ident, ok := s.Target.(*ast.Identifier)
				if !ok {
					continue
				}
				if s.Declare || local[ident.Value] {
					local[ident.Value] = true
					continue
				}
				switch b.scopes.resolve(ident.Value) {
				case scopeEnclosingFn:
					if !seenNonlocal[ident.Value] {
						seenNonlocal[ident.Value] = true
						nonlocals = append(nonlocals, ident.Value)
					}
				case scopeModule:
					if !seenGlobal[ident.Value] {
						seenGlobal[ident.Value] = true
						globals = append(globals, ident.Value)
					}
				default:
					local[ident.Value] = true
				}
			case *ast.IfStatement:
				walk(s.Then.Statements)
				switch alt := s.Else.(type) {
				case *ast.IfStatement:
					walk([]ast.Statement{alt})
				case *ast.BlockStatement:
					walk(alt.Statements)
				}
			case *ast.WhileStatement:
				walk(s.Body.Statements)
			case *ast.ForRangeStatement:
				local[s.Var.Value] = true
				walk(s.Body.Statements)
			case *ast.ForEachStatement:
				local[s.Var.Value] = true
				walk(s.Body.Statements)
			case *ast.BlockStatement:
				walk(s.Statements)
			}
		}
	}
	walk(node.Body.Statements)
	return nonlocals, globals
}

func (b *pyBackend) block(block *ast.BlockStatement) {
	b.pushScope()
	b.indent++
	if len(block.Statements) == 0 {
		b.line("pass")
	}
	for _, stmt := range block.Statements {
		b.stmt(stmt)
	}
	b.indent--
	b.popScope()
}

func (b *pyBackend) assign(node *ast.AssignStatement) {
	switch target := node.Target.(type) {
	case *ast.Identifier:
		// value first: a shadowing binding may reference the outer name
		val := b.expr(node.Value)
		if node.Declare || !b.scopes.declared(target.Value) {
			b.line("%s = %s", b.bind(target.Value), val)
			return
		}
		b.line("%s = %s", b.emitName(target.Value), val)
	case *ast.IndexExpression:
		b.line("__setindex(%s, %s, %s)", b.expr(target.Left), b.expr(target.Index), b.expr(node.Value))
	case *ast.FieldExpression:
		b.line("%s.%s = %s", b.expr(target.Left), b.ident(target.Field.Value), b.expr(node.Value))
	}
}

func (b *pyBackend) ifChain(node *ast.IfStatement, kw string) {
	b.line("%s __truthy(%s):", kw, b.expr(node.Condition))
	b.block(node.Then)
	switch alt := node.Else.(type) {
	case *ast.IfStatement:
		b.ifChain(alt, "elif")
	case *ast.BlockStatement:
		b.line("else:")
		b.block(alt)
	}
}

func (b *pyBackend) expr(node ast.Expression) string {
	switch node := node.(type) {
	case *ast.IntegerLiteral:
		return strconv.FormatInt(node.Value, 10)
	case *ast.FloatLiteral:
		return strconv.FormatFloat(node.Value, 'g', -1, 64)
	case *ast.StringLiteral:
		return strconv.Quote(node.Value)
	case *ast.BooleanLiteral:
		if node.Value {
			return "True"
		}
		return "False"
	case *ast.NilLiteral:
		return "None"
	case *ast.Identifier:
		if name, ok := b.resolveName(node.Value); ok {
			return name
		}
		if mapped, ok := pyNatives[node.Value]; ok {
			return mapped
		}
		if storageNatives[node.Value] {
			b.unsupported(node, "storage natives")
			return node.Value
		}
		return b.ident(node.Value)
	case *ast.PrefixExpression:
		if node.Operator == "not" {
			return "(not __truthy(" + b.expr(node.Right) + "))"
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
			pairs = append(pairs, b.expr(node.Keys[i])+": "+b.expr(node.Values[i]))
		}
		return "{" + strings.Join(pairs, ", ") + "}"
	}
	return "None"
}

func (b *pyBackend) infix(node *ast.InfixExpression) string {
	left := b.expr(node.Left)
	right := b.expr(node.Right)
	switch node.Operator {
	case "and":
		return "(__truthy(" + left + ") and __truthy(" + right + "))"
	case "or":
		return "(__truthy(" + left + ") or __truthy(" + right + "))"
	case "xor":
		return "(__truthy(" + left + ") != __truthy(" + right + "))"
	case "==":
		return "__eq(" + left + ", " + right + ")"
	case "!=":
		return "(not __eq(" + left + ", " + right + "))"
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

const pyPrelude = `# fable runtime prelude (python 3)


def __fault(msg):
    raise RuntimeError(msg)


def __truthy(v):
    return v is not None and v is not False


def __fdiv(a, b):
    if b == 0:
        __fault("division by zero")
    return a / b


def __intcheck(op, a, b):
    if isinstance(a, float) or isinstance(b, float):
        __fault(op + " requires integer operands")


def __idiv(a, b):
    __intcheck("div", a, b)
    if b == 0:
        __fault("integer division by zero")
    q = a // b
    if a % b != 0 and (a < 0) != (b < 0):
        q += 1
    return q


def __imod(a, b):
    __intcheck("mod", a, b)
    if b == 0:
        __fault("modulo by zero")
    return a - __idiv(a, b) * b


def __eq(a, b):
    if isinstance(a, bool) != isinstance(b, bool):
        return False
    if isinstance(a, list) and isinstance(b, list):
        return len(a) == len(b) and all(__eq(x, y) for x, y in zip(a, b))
    if isinstance(a, dict) and isinstance(b, dict):
        if len(a) != len(b):
            return False
        return all(k in b and __eq(v, b[k]) for k, v in a.items())
    if hasattr(a, "__dict__") and hasattr(b, "__dict__"):
        if type(a) is not type(b):
            return False
        return all(__eq(v, getattr(b, k)) for k, v in vars(a).items())
    return a == b


def __index(c, i):
    if isinstance(c, list) or isinstance(c, str):
        if i < 0 or i >= len(c):
            __fault("index %d out of range" % i)
        return c[i]
    if isinstance(c, dict):
        return c.get(i)
    __fault("cannot index value")


def __setindex(c, i, v):
    if isinstance(c, list):
        if i < 0 or i >= len(c):
            __fault("index %d out of range" % i)
        c[i] = v
        return
    if isinstance(c, dict):
        c[i] = v
        return
    __fault("cannot index-assign value")


def __len(v):
    return len(v)


def __push(seq, v):
    seq.append(v)
    return seq


def __pop(seq):
    if not seq:
        __fault("pop on empty sequence")
    return seq.pop()


def __keys(m):
    return list(m.keys())


def __fetch(m, k):
    if k not in m:
        __fault("no such key: %r" % k)
    return m[k]


def __remove(m, k):
    if k not in m:
        return False
    del m[k]
    return True


def __abs(v):
    return abs(v)


def __min(a, b):
    return a if a <= b else b


def __max(a, b):
    return a if a >= b else b


def __floor(v):
    import math
    return math.floor(v)


def __typeOf(v):
    if v is None:
        return "NIL"
    if isinstance(v, bool):
        return "BOOLEAN"
    if isinstance(v, int):
        return "INTEGER"
    if isinstance(v, float):
        return "FLOAT"
    if isinstance(v, str):
        return "STRING"
    if isinstance(v, list):
        return "SEQUENCE"
    if isinstance(v, dict):
        return "MAPPING"
    if callable(v):
        return "FUNCTION"
    return "INSTANCE"


def __str(v):
    if v is None:
        return "nil"
    if isinstance(v, bool):
        return "true" if v else "false"
    if isinstance(v, float):
        return "%g" % v
    if isinstance(v, list):
        return "[" + ", ".join(__str(x) for x in v) + "]"
    if isinstance(v, dict):
        return "{" + ", ".join('"%s": %s' % (k, __str(val)) for k, val in v.items()) + "}"
    if hasattr(v, "__dict__") and not callable(v):
        parts = ", ".join("%s: %s" % (k, __str(val)) for k, val in vars(v).items())
        return "%s { %s }" % (type(v).__name__, parts)
    return str(v)


def __print(*args):
    print(" ".join(__str(a) for a in args))


# deterministic generator: 32-bit LCG, state*1664525+1013904223 mod 2^32
def __rngNew(seed):
    return {"s": seed & 0xFFFFFFFF}


def __rngNext(r):
    r["s"] = (r["s"] * 1664525 + 1013904223) & 0xFFFFFFFF
    return r["s"]


def __draw(r, lo, hi=None):
    if hi is None:
        lo, hi = 0, lo
    span = hi - lo + 1
    if span <= 0:
        __fault("draw range is empty")
    return lo + (__rngNext(r) % span)


def __shuffle(r, seq):
    for i in range(len(seq) - 1, 0, -1):
        j = __draw(r, 0, i)
        seq[i], seq[j] = seq[j], seq[i]
    return seq


__rngDefault = __rngNew(0)


def __rand(lo, hi=None):
    return __draw(__rngDefault, lo, hi)


def __randSeed(s):
    __rngDefault["s"] = s & 0xFFFFFFFF
`
