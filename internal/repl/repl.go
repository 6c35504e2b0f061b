package repl

import (
	"bufio"
	"fmt"
	"io"

	"fable/internal/engine"
	"fable/internal/evaluator"
	"fable/internal/native"
	"fable/internal/object"
)

const PROMPT = ">> "

// Start runs a line-at-a-time loop against one persistent environment, so
// bindings and generator state carry across inputs.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)

	reg := native.NewRegistry()
	reg.SetOutput(out)
	env, err := engine.NewEnv(reg)
	if err != nil {
		fmt.Fprintf(out, "failed to set up environment: %v\n", err)
		return
	}
	eval := evaluator.New()

	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			return
		}

		line := scanner.Text()
		if line == "" {
			continue
		}

		program, err := engine.Parse(line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}

		result := eval.Eval(program, env)
		if result == nil || result == object.NIL {
			continue
		}
		io.WriteString(out, result.Inspect())
		io.WriteString(out, "\n")
	}
}
