// Package codegen turns a parsed program into equivalent source for a target
// language. Equivalence is behavioral: every backend's runtime prelude
// reproduces the interpreter's numeric rules and the exact generator
// sequence, constant for constant.
package codegen

import (
	"fmt"
	"log/slog"
	"sort"

	"fable/internal/ast"
)

// Backend generates complete, standalone source for one target. Backends
// never mutate the program, so concurrent Generate calls may share one.
type Backend interface {
	Name() string
	Generate(program *ast.Program) (string, error)
}

// UnsupportedError reports a construct the target cannot express with
// equivalent behavior. Partial output is never returned alongside it.
type UnsupportedError struct {
	Target    string
	Construct string
	Line      int
	Col       int
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("codegen: %s backend cannot express %s at %d:%d",
		e.Target, e.Construct, e.Line, e.Col)
}

var backends = map[string]func() Backend{
	"js":  func() Backend { return &jsBackend{} },
	"lua": func() Backend { return &luaBackend{} },
	"py":  func() Backend { return &pyBackend{} },
}

// Register adds a backend factory under name, replacing any previous one.
func Register(name string, factory func() Backend) {
	backends[name] = factory
}

// Targets lists registered backend names, sorted.
func Targets() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate emits target source for program, or an error naming the unknown
// target or the unsupported construct.
func Generate(program *ast.Program, target string) (string, error) {
	factory, ok := backends[target]
	if !ok {
		return "", fmt.Errorf("codegen: unknown target %q (have %v)", target, Targets())
	}
	slog.Debug("codegen", slog.String("target", target))
	return factory().Generate(program)
}

// storageNatives cannot be expressed portably; every backend refuses them.
var storageNatives = map[string]bool{
	"storeOpen":  true,
	"storeExec":  true,
	"storeQuery": true,
	"storeClose": true,
}
