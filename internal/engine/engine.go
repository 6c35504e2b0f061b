// Package engine is the embedding facade: parse a script, run it against an
// environment with natives installed, or transpile it to a target language.
package engine

import (
	"log/slog"

	"fable/internal/ast"
	"fable/internal/codegen"
	"fable/internal/evaluator"
	"fable/internal/lexer"
	"fable/internal/native"
	"fable/internal/object"
	"fable/internal/parser"
)

// Parse turns source into a program. The error is a lexer.LexError or
// parser.ParseError carrying line and column.
func Parse(src string) (*ast.Program, error) {
	tokens, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	return parser.New(tokens).ParseProgram()
}

// NewEnv builds a global environment with the registry's natives installed.
func NewEnv(reg *native.Registry) (*object.Environment, error) {
	env := object.NewEnvironment()
	if err := reg.Install(env); err != nil {
		return nil, err
	}
	return env, nil
}

// Run executes program against env. A runtime fault is returned as the
// error; it is always a *object.Fault.
func Run(program *ast.Program, env *object.Environment) error {
	if fault := evaluator.New().Run(program, env); fault != nil {
		return fault
	}
	return nil
}

// Generate transpiles program for target. Behavioral equivalence with Run is
// the contract; codegen.UnsupportedError reports anything the target cannot
// express equivalently.
func Generate(program *ast.Program, target string) (string, error) {
	return codegen.Generate(program, target)
}

// tickProc is the global procedure the phase driver invokes once per tick,
// when the script declares it.
const tickProc = "tick"

// Instance is one loaded script plus its persistent state, driven by the
// host in phases: RunInit once, then RunTick as often as the host wants.
type Instance struct {
	program *ast.Program
	env     *object.Environment
	eval    *evaluator.Evaluator
	ticks   int
}

// NewInstance parses src and prepares an isolated environment. Two instances
// of the same source never share state.
func NewInstance(src string, reg *native.Registry) (*Instance, error) {
	program, err := Parse(src)
	if err != nil {
		return nil, err
	}
	env, err := NewEnv(reg)
	if err != nil {
		return nil, err
	}
	return &Instance{
		program: program,
		env:     env,
		eval:    evaluator.New(),
	}, nil
}

// Env exposes the instance's global environment, mainly so hosts can bind
// extra values before RunInit.
func (in *Instance) Env() *object.Environment { return in.env }

// RunInit executes the top-level statements: declarations, procedure and
// schema definitions, initial state.
func (in *Instance) RunInit() error {
	if fault := in.eval.Run(in.program, in.env); fault != nil {
		return fault
	}
	return nil
}

// RunTick invokes the script's global tick procedure, if declared. A script
// without one is valid; RunTick is then a no-op.
func (in *Instance) RunTick() error {
	val, ok := in.env.Get(tickProc)
	if !ok {
		return nil
	}
	fn, ok := val.(*object.Function)
	if !ok {
		return nil
	}

	in.ticks++
	slog.Debug("tick", slog.Int("n", in.ticks))

	result := in.eval.Call(fn)
	if fault, isFault := result.(*object.Fault); isFault {
		return fault
	}
	return nil
}
