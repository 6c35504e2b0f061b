// Package ast defines the syntax tree produced by the parser. Nodes are
// immutable once built; the same tree may be interpreted and handed to any
// number of codegen backends concurrently.
package ast

import (
	"bytes"
	"strings"

	"fable/internal/token"
)

type Node interface {
	TokenLiteral() string
	String() string
	Pos() (line, col int)
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
	}
	return out.String()
}

func (p *Program) Pos() (int, int) {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return 1, 1
}

// DeclStatement covers var (mutable), let (immutable) and const declarations;
// Kind is the declaring keyword's token type.
type DeclStatement struct {
	Token token.Token // var | let | const
	Name  *Identifier
	Value Expression
}

func (ds *DeclStatement) statementNode()       {}
func (ds *DeclStatement) TokenLiteral() string { return ds.Token.Literal }
func (ds *DeclStatement) Pos() (int, int)      { return ds.Token.Line, ds.Token.Column }
func (ds *DeclStatement) Kind() token.TokenType {
	return ds.Token.Type
}
func (ds *DeclStatement) String() string {
	var out bytes.Buffer
	out.WriteString(ds.Token.Literal + " " + ds.Name.String() + " = ")
	if ds.Value != nil {
		out.WriteString(ds.Value.String())
	}
	out.WriteString(";")
	return out.String()
}

// ProcStatement declares a named procedure. Procedures may be declared inside
// other procedures; a nested procedure closes over its enclosing scope.
type ProcStatement struct {
	Token      token.Token // proc
	Name       *Identifier
	Parameters []*Identifier
	Body       *BlockStatement
}

func (ps *ProcStatement) statementNode()       {}
func (ps *ProcStatement) TokenLiteral() string { return ps.Token.Literal }
func (ps *ProcStatement) Pos() (int, int)      { return ps.Token.Line, ps.Token.Column }
func (ps *ProcStatement) String() string {
	params := []string{}
	for _, p := range ps.Parameters {
		params = append(params, p.String())
	}
	return "proc " + ps.Name.String() + "(" + strings.Join(params, ", ") + ") " + ps.Body.String()
}

// ObjectStatement declares an object type with named, ordered fields.
type ObjectStatement struct {
	Token  token.Token // object
	Name   *Identifier
	Fields []*Identifier
}

func (os *ObjectStatement) statementNode()       {}
func (os *ObjectStatement) TokenLiteral() string { return os.Token.Literal }
func (os *ObjectStatement) Pos() (int, int)      { return os.Token.Line, os.Token.Column }
func (os *ObjectStatement) String() string {
	fields := []string{}
	for _, f := range os.Fields {
		fields = append(fields, f.String())
	}
	return "object " + os.Name.String() + " { " + strings.Join(fields, ", ") + " }"
}

type ReturnStatement struct {
	Token token.Token
	Value Expression // nil when no value is supplied
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) Pos() (int, int)      { return rs.Token.Line, rs.Token.Column }
func (rs *ReturnStatement) String() string {
	if rs.Value == nil {
		return "return;"
	}
	return "return " + rs.Value.String() + ";"
}

type BreakStatement struct {
	Token token.Token
}

func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) Pos() (int, int)      { return bs.Token.Line, bs.Token.Column }
func (bs *BreakStatement) String() string       { return "break;" }

type ContinueStatement struct {
	Token token.Token
}

func (cs *ContinueStatement) statementNode()       {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ContinueStatement) Pos() (int, int)      { return cs.Token.Line, cs.Token.Column }
func (cs *ContinueStatement) String() string       { return "continue;" }

// AssignStatement writes to an identifier, an index or a field. Assignment to
// a name with no visible binding creates one in the current frame.
type AssignStatement struct {
	Token  token.Token // = or :=
	Target Expression  // *Identifier, *IndexExpression or *FieldExpression
	Value  Expression
	// Declare is true for := which always binds in the current frame.
	Declare bool
}

func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AssignStatement) Pos() (int, int)      { return as.Token.Line, as.Token.Column }
func (as *AssignStatement) String() string {
	op := " = "
	if as.Declare {
		op = " := "
	}
	return as.Target.String() + op + as.Value.String() + ";"
}

type IfStatement struct {
	Token     token.Token
	Condition Expression
	Then      *BlockStatement
	// Else is either *BlockStatement or another *IfStatement (elif chain).
	Else Statement
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) Pos() (int, int)      { return is.Token.Line, is.Token.Column }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if " + is.Condition.String() + " " + is.Then.String())
	if is.Else != nil {
		out.WriteString(" else " + is.Else.String())
	}
	return out.String()
}

type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStatement
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) Pos() (int, int)      { return ws.Token.Line, ws.Token.Column }
func (ws *WhileStatement) String() string {
	return "while " + ws.Condition.String() + " " + ws.Body.String()
}

// ForRangeStatement iterates an inclusive integer range: for i in a to b { }.
type ForRangeStatement struct {
	Token token.Token
	Var   *Identifier
	From  Expression
	To    Expression
	Body  *BlockStatement
}

func (fr *ForRangeStatement) statementNode()       {}
func (fr *ForRangeStatement) TokenLiteral() string { return fr.Token.Literal }
func (fr *ForRangeStatement) Pos() (int, int)      { return fr.Token.Line, fr.Token.Column }
func (fr *ForRangeStatement) String() string {
	return "for " + fr.Var.String() + " in " + fr.From.String() + " to " + fr.To.String() + " " + fr.Body.String()
}

// ForEachStatement iterates the elements of a sequence in order.
type ForEachStatement struct {
	Token token.Token
	Var   *Identifier
	Seq   Expression
	Body  *BlockStatement
}

func (fe *ForEachStatement) statementNode()       {}
func (fe *ForEachStatement) TokenLiteral() string { return fe.Token.Literal }
func (fe *ForEachStatement) Pos() (int, int)      { return fe.Token.Line, fe.Token.Column }
func (fe *ForEachStatement) String() string {
	return "for " + fe.Var.String() + " in " + fe.Seq.String() + " " + fe.Body.String()
}

type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) Pos() (int, int)      { return es.Token.Line, es.Token.Column }
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String()
	}
	return ""
}

type BlockStatement struct {
	Token      token.Token // {
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) Pos() (int, int)      { return bs.Token.Line, bs.Token.Column }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range bs.Statements {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Pos() (int, int)      { return i.Token.Line, i.Token.Column }
func (i *Identifier) String() string       { return i.Value }

type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) Pos() (int, int)      { return il.Token.Line, il.Token.Column }
func (il *IntegerLiteral) String() string       { return il.Token.Literal }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()      {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FloatLiteral) Pos() (int, int)      { return fl.Token.Line, fl.Token.Column }
func (fl *FloatLiteral) String() string       { return fl.Token.Literal }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) Pos() (int, int)      { return sl.Token.Line, sl.Token.Column }
func (sl *StringLiteral) String() string       { return "\"" + sl.Value + "\"" }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()      {}
func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BooleanLiteral) Pos() (int, int)      { return bl.Token.Line, bl.Token.Column }
func (bl *BooleanLiteral) String() string       { return bl.Token.Literal }

type NilLiteral struct {
	Token token.Token
}

func (nl *NilLiteral) expressionNode()      {}
func (nl *NilLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NilLiteral) Pos() (int, int)      { return nl.Token.Line, nl.Token.Column }
func (nl *NilLiteral) String() string       { return "nil" }

type PrefixExpression struct {
	Token    token.Token
	Operator string // "-" or "not"
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) Pos() (int, int)      { return pe.Token.Line, pe.Token.Column }
func (pe *PrefixExpression) String() string {
	if pe.Operator == "not" {
		return "(not " + pe.Right.String() + ")"
	}
	return "(" + pe.Operator + pe.Right.String() + ")"
}

type InfixExpression struct {
	Token    token.Token
	Left     Expression
	Operator string // +, -, *, /, div, mod, ==, !=, <, <=, >, >=, and, or, xor
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) Pos() (int, int)      { return ie.Token.Line, ie.Token.Column }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

type CallExpression struct {
	Token     token.Token // (
	Function  Expression
	Arguments []Expression
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) Pos() (int, int)      { return ce.Token.Line, ce.Token.Column }
func (ce *CallExpression) String() string {
	args := []string{}
	for _, a := range ce.Arguments {
		args = append(args, a.String())
	}
	return ce.Function.String() + "(" + strings.Join(args, ", ") + ")"
}

type IndexExpression struct {
	Token token.Token // [
	Left  Expression
	Index Expression
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) Pos() (int, int)      { return ie.Token.Line, ie.Token.Column }
func (ie *IndexExpression) String() string {
	return "(" + ie.Left.String() + "[" + ie.Index.String() + "])"
}

type FieldExpression struct {
	Token token.Token // .
	Left  Expression
	Field *Identifier
}

func (fe *FieldExpression) expressionNode()      {}
func (fe *FieldExpression) TokenLiteral() string { return fe.Token.Literal }
func (fe *FieldExpression) Pos() (int, int)      { return fe.Token.Line, fe.Token.Column }
func (fe *FieldExpression) String() string {
	return "(" + fe.Left.String() + "." + fe.Field.String() + ")"
}

type SequenceLiteral struct {
	Token    token.Token // [
	Elements []Expression
}

func (sl *SequenceLiteral) expressionNode()      {}
func (sl *SequenceLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *SequenceLiteral) Pos() (int, int)      { return sl.Token.Line, sl.Token.Column }
func (sl *SequenceLiteral) String() string {
	elements := []string{}
	for _, e := range sl.Elements {
		elements = append(elements, e.String())
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

// MappingLiteral keeps keys and values in parallel slices so that source
// order survives into the runtime mapping and into generated code.
type MappingLiteral struct {
	Token  token.Token // {
	Keys   []Expression
	Values []Expression
}

func (ml *MappingLiteral) expressionNode()      {}
func (ml *MappingLiteral) TokenLiteral() string { return ml.Token.Literal }
func (ml *MappingLiteral) Pos() (int, int)      { return ml.Token.Line, ml.Token.Column }
func (ml *MappingLiteral) String() string {
	pairs := []string{}
	for i := range ml.Keys {
		pairs = append(pairs, ml.Keys[i].String()+": "+ml.Values[i].String())
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}
