// Package native holds the host functions bound into a script's global scope
// before execution. The core set is always installed; optional groups such as
// storage are opt-in from the embedding host.
package native

import (
	"io"
	"log/slog"
	"os"

	"fable/internal/object"
	"fable/internal/rng"
)

// defaultRngName is the hidden global binding holding the process-default
// generator used by the legacy rand/randSeed call forms. It is never the
// same object as any handle returned by initRng.
const defaultRngName = "__rng"

// Registry collects natives prior to installing them into an environment.
type Registry struct {
	natives     map[string]*object.Native
	out         io.Writer
	defaultSeed int64
}

func NewRegistry() *Registry {
	r := &Registry{
		natives: make(map[string]*object.Native),
		out:     os.Stdout,
	}
	r.registerCore()
	r.registerRng()
	return r
}

// SetOutput redirects print output, mainly for tests and for hosts that
// render script output themselves.
func (r *Registry) SetOutput(w io.Writer) { r.out = w }

// SetDefaultSeed sets the seed the default generator handle is installed
// with. It does not touch environments already installed.
func (r *Registry) SetDefaultSeed(seed int64) { r.defaultSeed = seed }

func (r *Registry) Register(n *object.Native) {
	r.natives[n.Name] = n
}

// EnableStorage adds the database natives. The core never calls this; the
// embedding host opts in.
func (r *Registry) EnableStorage() {
	r.registerStorage()
}

// Install binds every registered native, plus the default generator handle,
// into env. Bindings are immutable from the script's point of view.
func (r *Registry) Install(env *object.Environment) error {
	for name, n := range r.natives {
		if err := env.Define(name, n, false); err != nil {
			return err
		}
	}
	if err := env.Define(defaultRngName, &object.Rng{Src: rng.New(r.defaultSeed)}, false); err != nil {
		return err
	}
	slog.Debug("natives installed", slog.Int("count", len(r.natives)))
	return nil
}
