package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"fable/internal/ast"
)

// luaBackend emits Lua 5.1. Sequences are 1-based arrays behind 0-based
// accessor helpers; mappings are insertion-ordered key/value tables; the nil
// value is the sentinel table __nil so sequences never develop holes. Lua 5.1
// has no continue statement, so that construct is refused rather than
// approximated.
type luaBackend struct {
	out    strings.Builder
	indent int
	scopes scopeStack
	err    error
}

var luaNatives = map[string]string{
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

var luaReserved = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "if": true,
	"in": true, "local": true, "nil": true, "not": true, "or": true,
	"repeat": true, "return": true, "then": true, "true": true,
	"until": true, "while": true,
}

func (b *luaBackend) Name() string { return "lua" }

func (b *luaBackend) Generate(program *ast.Program) (string, error) {
	b.out.WriteString(luaPrelude)
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

func (b *luaBackend) unsupported(node ast.Node, construct string) {
	if b.err == nil {
		line, col := node.Pos()
		b.err = &UnsupportedError{Target: "lua", Construct: construct, Line: line, Col: col}
	}
}

func (b *luaBackend) line(format string, a ...interface{}) {
	b.out.WriteString(strings.Repeat("  ", b.indent))
	fmt.Fprintf(&b.out, format, a...)
	b.out.WriteString("\n")
}

func (b *luaBackend) ident(name string) string {
	if luaReserved[name] {
		return name + "_"
	}
	return name
}

func (b *luaBackend) stmt(node ast.Statement) {
	switch node := node.(type) {
	case *ast.DeclStatement:
		b.scopes.declare(node.Name.Value)
		b.line("local %s = %s", b.ident(node.Name.Value), b.expr(node.Value))

	case *ast.ProcStatement:
		b.scopes.declare(node.Name.Value)
		params := make([]string, 0, len(node.Parameters))
		for _, p := range node.Parameters {
			params = append(params, b.ident(p.Value))
		}
		b.line("local function %s(%s)", b.ident(node.Name.Value), strings.Join(params, ", "))
		b.scopes.pushFn()
		for _, p := range node.Parameters {
			b.scopes.declare(p.Value)
		}
		b.indent++
		for _, stmt := range node.Body.Statements {
			b.stmt(stmt)
		}
		b.indent--
		b.scopes.pop()
		b.line("end")

	case *ast.ObjectStatement:
		b.scopes.declare(node.Name.Value)
		fields := make([]string, 0, len(node.Fields))
		for _, f := range node.Fields {
			fields = append(fields, b.ident(f.Value))
		}
		pairs := make([]string, 0, len(fields)+1)
		pairs = append(pairs, fmt.Sprintf("__schema = %q", node.Name.Value))
		for _, f := range fields {
			pairs = append(pairs, f+" = "+f)
		}
		b.line("local function %s(%s) return { %s } end",
			b.ident(node.Name.Value), strings.Join(fields, ", "), strings.Join(pairs, ", "))

	case *ast.ReturnStatement:
		if node.Value == nil {
			b.line("return __nil")
		} else {
			b.line("return %s", b.expr(node.Value))
		}

	case *ast.BreakStatement:
		b.line("break")

	case *ast.ContinueStatement:
		b.unsupported(node, "continue (no equivalent in Lua 5.1)")

	case *ast.AssignStatement:
		b.assign(node)

	case *ast.IfStatement:
		b.ifChain(node)

	case *ast.WhileStatement:
		b.line("while __truthy(%s) do", b.expr(node.Condition))
		b.block(node.Body)
		b.line("end")

	case *ast.ForRangeStatement:
		// numeric for evaluates both bounds once, like the interpreter
		b.line("for %s = %s, %s do", b.ident(node.Var.Value), b.expr(node.From), b.expr(node.To))
		b.scopes.push()
		b.scopes.declare(node.Var.Value)
		b.block(node.Body)
		b.scopes.pop()
		b.line("end")

	case *ast.ForEachStatement:
		b.line("for _, %s in ipairs(%s) do", b.ident(node.Var.Value), b.expr(node.Seq))
		b.scopes.push()
		b.scopes.declare(node.Var.Value)
		b.block(node.Body)
		b.scopes.pop()
		b.line("end")

	case *ast.ExpressionStatement:
		// Lua has no expression statements; route through a discard local
		b.line("local _ = %s", b.expr(node.Expression))

	case *ast.BlockStatement:
		b.line("do")
		b.block(node)
		b.line("end")
	}
}

func (b *luaBackend) block(block *ast.BlockStatement) {
	b.scopes.push()
	b.indent++
	for _, stmt := range block.Statements {
		b.stmt(stmt)
	}
	b.indent--
	b.scopes.pop()
}

func (b *luaBackend) assign(node *ast.AssignStatement) {
	switch target := node.Target.(type) {
	case *ast.Identifier:
		if node.Declare || !b.scopes.declared(target.Value) {
			b.scopes.declare(target.Value)
			b.line("local %s = %s", b.ident(target.Value), b.expr(node.Value))
			return
		}
		b.line("%s = %s", b.ident(target.Value), b.expr(node.Value))
	case *ast.IndexExpression:
		b.line("__setindex(%s, %s, %s)", b.expr(target.Left), b.expr(target.Index), b.expr(node.Value))
	case *ast.FieldExpression:
		b.line("%s.%s = %s", b.expr(target.Left), b.ident(target.Field.Value), b.expr(node.Value))
	}
}

func (b *luaBackend) ifChain(node *ast.IfStatement) {
	b.line("if __truthy(%s) then", b.expr(node.Condition))
	b.block(node.Then)
	alt := node.Else
	for alt != nil {
		switch a := alt.(type) {
		case *ast.IfStatement:
			b.line("elseif __truthy(%s) then", b.expr(a.Condition))
			b.block(a.Then)
			alt = a.Else
		case *ast.BlockStatement:
			b.line("else")
			b.block(a)
			alt = nil
		default:
			alt = nil
		}
	}
	b.line("end")
}

func (b *luaBackend) expr(node ast.Expression) string {
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
		return "__nil"
	case *ast.Identifier:
		if mapped, ok := luaNatives[node.Value]; ok && !b.scopes.declared(node.Value) {
			return mapped
		}
		if storageNatives[node.Value] && !b.scopes.declared(node.Value) {
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
		return "{" + strings.Join(elements, ", ") + "}"
	case *ast.MappingLiteral:
		pairs := make([]string, 0, len(node.Keys))
		for i := range node.Keys {
			pairs = append(pairs, "{"+b.expr(node.Keys[i])+", "+b.expr(node.Values[i])+"}")
		}
		return "__mnew({" + strings.Join(pairs, ", ") + "})"
	}
	return "__nil"
}

func (b *luaBackend) infix(node *ast.InfixExpression) string {
	left := b.expr(node.Left)
	right := b.expr(node.Right)
	switch node.Operator {
	case "and":
		return "(__truthy(" + left + ") and __truthy(" + right + "))"
	case "or":
		return "(__truthy(" + left + ") or __truthy(" + right + "))"
	case "xor":
		return "(__truthy(" + left + ") ~= __truthy(" + right + "))"
	case "==":
		return "__eq(" + left + ", " + right + ")"
	case "!=":
		return "(not __eq(" + left + ", " + right + "))"
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

const luaPrelude = `-- fable runtime prelude (lua 5.1)
local __nil = setmetatable({}, { __tostring = function() return "nil" end })
local function __fault(msg) error(msg, 0) end
local function __truthy(v)
  return v ~= nil and v ~= false and v ~= __nil
end
local function __ismap(v) return type(v) == "table" and v.__map == true end
local function __isseq(v) return type(v) == "table" and v.__map == nil and v.__schema == nil and v ~= __nil end
local function __add(a, b)
  if type(a) == "string" then return a .. b end
  if __isseq(a) and __isseq(b) then
    local out = {}
    for i = 1, #a do out[#out + 1] = a[i] end
    for i = 1, #b do out[#out + 1] = b[i] end
    return out
  end
  return a + b
end
local function __fdiv(a, b)
  if b == 0 then __fault("division by zero") end
  return a / b
end
local function __intcheck(op, a, b)
  if a ~= math.floor(a) or b ~= math.floor(b) then
    __fault(op .. " requires integer operands")
  end
end
local function __idiv(a, b)
  __intcheck("div", a, b)
  if b == 0 then __fault("integer division by zero") end
  local q = a / b
  if q >= 0 then return math.floor(q) end
  return math.ceil(q)
end
local function __imod(a, b)
  __intcheck("mod", a, b)
  if b == 0 then __fault("modulo by zero") end
  return a - __idiv(a, b) * b
end
local __eq
__eq = function(a, b)
  if a == __nil or b == __nil then return a == b end
  if __isseq(a) and __isseq(b) then
    if #a ~= #b then return false end
    for i = 1, #a do
      if not __eq(a[i], b[i]) then return false end
    end
    return true
  end
  if __ismap(a) and __ismap(b) then
    if #a.keys ~= #b.keys then return false end
    for _, k in ipairs(a.keys) do
      if b.vals[k] == nil or not __eq(a.vals[k], b.vals[k]) then return false end
    end
    return true
  end
  if type(a) == "table" and type(b) == "table" and a.__schema and b.__schema then
    if a.__schema ~= b.__schema then return false end
    for k, v in pairs(a) do
      if k ~= "__schema" and not __eq(v, b[k]) then return false end
    end
    return true
  end
  return a == b
end
local function __mnew(pairs_)
  local m = { __map = true, keys = {}, vals = {} }
  for _, p in ipairs(pairs_) do
    if m.vals[p[1]] == nil then m.keys[#m.keys + 1] = p[1] end
    m.vals[p[1]] = p[2]
  end
  return m
end
-- strings index by rune, not byte, to match the other runtimes
local function __strlen(s)
  local n = 0
  for pos = 1, #s do
    local b = string.byte(s, pos)
    if b < 128 or b >= 192 then n = n + 1 end
  end
  return n
end
local function __strindex(s, i)
  if i >= 0 then
    local idx = 0
    local pos = 1
    while pos <= #s do
      local b = string.byte(s, pos)
      local len = 1
      if b >= 240 then len = 4
      elseif b >= 224 then len = 3
      elseif b >= 192 then len = 2 end
      if idx == i then return string.sub(s, pos, pos + len - 1) end
      idx = idx + 1
      pos = pos + len
    end
  end
  __fault("index " .. i .. " out of range")
end
local function __index(c, i)
  if __ismap(c) then
    local v = c.vals[i]
    if v == nil then return __nil end
    return v
  end
  if type(c) == "string" then
    return __strindex(c, i)
  end
  if i < 0 or i >= #c then __fault("index " .. i .. " out of range") end
  return c[i + 1]
end
local function __setindex(c, i, v)
  if __ismap(c) then
    if c.vals[i] == nil then c.keys[#c.keys + 1] = i end
    c.vals[i] = v
    return
  end
  if i < 0 or i >= #c then __fault("index " .. i .. " out of range") end
  c[i + 1] = v
end
local function __len(v)
  if type(v) == "string" then return __strlen(v) end
  if __ismap(v) then return #v.keys end
  return #v
end
local function __push(seq, v)
  seq[#seq + 1] = v
  return seq
end
local function __pop(seq)
  if #seq == 0 then __fault("pop on empty sequence") end
  local last = seq[#seq]
  seq[#seq] = nil
  return last
end
local function __keys(m)
  local out = {}
  for i, k in ipairs(m.keys) do out[i] = k end
  return out
end
local function __fetch(m, k)
  local v = m.vals[k]
  if v == nil then __fault("no such key: " .. string.format("%q", k)) end
  return v
end
local function __remove(m, k)
  if m.vals[k] == nil then return false end
  m.vals[k] = nil
  for i, key in ipairs(m.keys) do
    if key == k then
      table.remove(m.keys, i)
      break
    end
  end
  return true
end
local function __abs(v) return math.abs(v) end
local function __min(a, b) if a <= b then return a end return b end
local function __max(a, b) if a >= b then return a end return b end
local function __floor(v) return math.floor(v) end
local function __typeOf(v)
  if v == __nil or v == nil then return "NIL" end
  local t = type(v)
  if t == "number" then
    if v == math.floor(v) then return "INTEGER" end
    return "FLOAT"
  end
  if t == "string" then return "STRING" end
  if t == "boolean" then return "BOOLEAN" end
  if t == "function" then return "FUNCTION" end
  if __ismap(v) then return "MAPPING" end
  if v.__schema then return "INSTANCE" end
  return "SEQUENCE"
end
local __str
__str = function(v)
  if v == __nil or v == nil then return "nil" end
  if __ismap(v) then
    local parts = {}
    for _, k in ipairs(v.keys) do
      parts[#parts + 1] = string.format("%q", k) .. ": " .. __str(v.vals[k])
    end
    return "{" .. table.concat(parts, ", ") .. "}"
  end
  if __isseq(v) then
    local parts = {}
    for i = 1, #v do parts[i] = __str(v[i]) end
    return "[" .. table.concat(parts, ", ") .. "]"
  end
  if type(v) == "table" and v.__schema then
    local parts = {}
    for k, val in pairs(v) do
      if k ~= "__schema" then parts[#parts + 1] = k .. ": " .. __str(val) end
    end
    return v.__schema .. " { " .. table.concat(parts, ", ") .. " }"
  end
  return tostring(v)
end
local function __print(...)
  local parts = {}
  for i = 1, select("#", ...) do
    parts[i] = __str(select(i, ...))
  end
  print(table.concat(parts, " "))
end
-- deterministic generator: 32-bit LCG, state*1664525+1013904223 mod 2^32.
-- the product stays below 2^53 so plain doubles are exact.
local function __rngNew(seed) return { s = seed % 4294967296 } end
local function __rngNext(r)
  r.s = (r.s * 1664525 + 1013904223) % 4294967296
  return r.s
end
local function __draw(r, lo, hi)
  if hi == nil then
    hi = lo
    lo = 0
  end
  local span = hi - lo + 1
  if span <= 0 then __fault("draw range is empty") end
  return lo + (__rngNext(r) % span)
end
local function __shuffle(r, seq)
  for i = #seq - 1, 1, -1 do
    local j = __draw(r, 0, i)
    seq[i + 1], seq[j + 1] = seq[j + 1], seq[i + 1]
  end
  return seq
end
local __rngDefault = __rngNew(0)
local function __rand(lo, hi) return __draw(__rngDefault, lo, hi) end
local function __randSeed(s) __rngDefault.s = s % 4294967296 end
`
