package codegen

// scopeStack tracks declared names during emission so backends can tell a
// first-use assignment (which introduces a binding) from a mutation of an
// existing one, and locate which kind of scope the existing binding lives in.
type scopeStack struct {
	frames []scopeFrame
}

type scopeFrame struct {
	names map[string]bool
	fn    bool
}

const (
	scopeNone = iota
	scopeLocal
	scopeEnclosingFn
	scopeModule
)

func (s *scopeStack) push() {
	s.frames = append(s.frames, scopeFrame{names: make(map[string]bool)})
}

// pushFn opens a function body frame; resolve uses it as the boundary
// between local and captured names.
func (s *scopeStack) pushFn() {
	s.frames = append(s.frames, scopeFrame{names: make(map[string]bool), fn: true})
}

func (s *scopeStack) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *scopeStack) declare(name string) {
	s.frames[len(s.frames)-1].names[name] = true
}

func (s *scopeStack) declared(name string) bool {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].names[name] {
			return true
		}
	}
	return false
}

// resolve reports where name is declared relative to the innermost function.
func (s *scopeStack) resolve(name string) int {
	innerFn := 0
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].fn {
			innerFn = i
			break
		}
	}
	for i := len(s.frames) - 1; i >= 0; i-- {
		if !s.frames[i].names[name] {
			continue
		}
		switch {
		case i >= innerFn:
			return scopeLocal
		case s.enclosedByFn(i):
			return scopeEnclosingFn
		default:
			return scopeModule
		}
	}
	return scopeNone
}

// enclosedByFn reports whether frame i sits at or inside any function frame.
func (s *scopeStack) enclosedByFn(i int) bool {
	for j := i; j >= 0; j-- {
		if s.frames[j].fn {
			return true
		}
	}
	return false
}
