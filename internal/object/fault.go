package object

import "fmt"

// FaultKind classifies runtime faults. Faults propagate to the embedding
// host untouched; nothing inside the core catches them.
type FaultKind string

const (
	UndefinedName   FaultKind = "UndefinedName"
	NotCallable     FaultKind = "NotCallable"
	ArityMismatch   FaultKind = "ArityMismatch"
	TypeMismatch    FaultKind = "TypeMismatch"
	IndexOutOfRange FaultKind = "IndexOutOfRange"
	DivisionByZero  FaultKind = "DivisionByZero"
	KeyError        FaultKind = "KeyError"
	LoopControl     FaultKind = "LoopControl"
	NativeFailure   FaultKind = "NativeFailure"
)

// Fault is both a runtime value (so it can travel the evaluator's result
// path) and a Go error (so the engine can hand it to the host directly).
// Mutations performed before the fault are not rolled back.
type Fault struct {
	Kind    FaultKind
	Message string
	Line    int
	Col     int
}

func (f *Fault) Type() ObjectType { return FAULT_OBJ }
func (f *Fault) Inspect() string  { return f.Error() }
func (f *Fault) Error() string {
	return fmt.Sprintf("%s at %d:%d: %s", f.Kind, f.Line, f.Col, f.Message)
}

func NewFault(kind FaultKind, line, col int, format string, a ...interface{}) *Fault {
	return &Fault{
		Kind:    kind,
		Message: fmt.Sprintf(format, a...),
		Line:    line,
		Col:     col,
	}
}
