package evaluator

import (
	"log/slog"

	"fable/internal/ast"
	"fable/internal/object"
	"fable/internal/token"
)

// Evaluator walks the AST directly. It holds no state of its own: all
// mutable state lives in the Environment passed to Eval, so independent
// program instances only need independent environment roots.
type Evaluator struct{}

func New() *Evaluator {
	return &Evaluator{}
}

// Run executes a parsed program against env and returns the fault that
// stopped it, or nil on normal completion. Side effects performed before a
// fault persist; nothing is rolled back.
func (e *Evaluator) Run(program *ast.Program, env *object.Environment) *object.Fault {
	result := e.Eval(program, env)
	if fault, ok := result.(*object.Fault); ok {
		return fault
	}
	return nil
}

// Call invokes fn directly from the host, outside any call expression in the
// script. Positions on resulting faults point at the procedure body.
func (e *Evaluator) Call(fn *object.Function, args ...object.Object) object.Object {
	if len(args) != len(fn.Parameters) {
		line, col := fn.Body.Pos()
		return object.NewFault(object.ArityMismatch, line, col,
			"%s expects %d argument(s), got %d", fn.Name, len(fn.Parameters), len(args))
	}

	callEnv := object.NewEnclosedEnvironment(fn.Env)
	for i, param := range fn.Parameters {
		if err := callEnv.Define(param.Value, args[i], true); err != nil {
			line, col := fn.Body.Pos()
			return object.NewFault(object.TypeMismatch, line, col, "%s", err.Error())
		}
	}

	result := e.evalProcBody(fn.Body, callEnv)
	switch r := result.(type) {
	case *object.ReturnValue:
		return r.Value
	case *object.Break, *object.Continue:
		line, col := fn.Body.Pos()
		return object.NewFault(object.LoopControl, line, col,
			"%s outside of a loop in %s", r.Inspect(), fn.Name)
	}
	return result
}

func (e *Evaluator) Eval(node ast.Node, env *object.Environment) object.Object {
	switch node := node.(type) {

	// Statements
	case *ast.Program:
		return e.evalProgram(node, env)

	case *ast.BlockStatement:
		return e.evalBlockStatement(node, env)

	case *ast.ExpressionStatement:
		return e.Eval(node.Expression, env)

	case *ast.DeclStatement:
		return e.evalDeclStatement(node, env)

	case *ast.ProcStatement:
		fn := &object.Function{
			Name:       node.Name.Value,
			Parameters: node.Parameters,
			Body:       node.Body,
			Env:        env, // shared, not copied: closures capture by reference
		}
		if err := env.Define(node.Name.Value, fn, false); err != nil {
			return e.faultAt(node, object.TypeMismatch, "%s", err.Error())
		}
		return object.NIL

	case *ast.ObjectStatement:
		return e.evalObjectStatement(node, env)

	case *ast.ReturnStatement:
		var val object.Object = object.NIL
		if node.Value != nil {
			val = e.Eval(node.Value, env)
			if isFault(val) {
				return val
			}
		}
		return &object.ReturnValue{Value: val}

	case *ast.BreakStatement:
		return object.BREAK

	case *ast.ContinueStatement:
		return object.CONTINUE

	case *ast.AssignStatement:
		return e.evalAssignStatement(node, env)

	case *ast.IfStatement:
		return e.evalIfStatement(node, env)

	case *ast.WhileStatement:
		return e.evalWhileStatement(node, env)

	case *ast.ForRangeStatement:
		return e.evalForRangeStatement(node, env)

	case *ast.ForEachStatement:
		return e.evalForEachStatement(node, env)

	// Expressions
	case *ast.IntegerLiteral:
		return &object.Integer{Value: node.Value}

	case *ast.FloatLiteral:
		return &object.Float{Value: node.Value}

	case *ast.StringLiteral:
		return &object.String{Value: node.Value}

	case *ast.BooleanLiteral:
		return object.NativeBoolToBoolean(node.Value)

	case *ast.NilLiteral:
		return object.NIL

	case *ast.Identifier:
		return e.evalIdentifier(node, env)

	case *ast.PrefixExpression:
		return e.evalPrefixExpression(node, env)

	case *ast.InfixExpression:
		return e.evalInfixExpression(node, env)

	case *ast.CallExpression:
		return e.evalCallExpression(node, env)

	case *ast.IndexExpression:
		return e.evalIndexExpression(node, env)

	case *ast.FieldExpression:
		return e.evalFieldExpression(node, env)

	case *ast.SequenceLiteral:
		elements, fault := e.evalExpressions(node.Elements, env)
		if fault != nil {
			return fault
		}
		return &object.Sequence{Elements: elements}

	case *ast.MappingLiteral:
		return e.evalMappingLiteral(node, env)
	}

	return object.NIL
}

func (e *Evaluator) evalProgram(program *ast.Program, env *object.Environment) object.Object {
	var result object.Object = object.NIL

	for _, statement := range program.Statements {
		result = e.Eval(statement, env)

		switch result := result.(type) {
		case *object.ReturnValue:
			return result.Value
		case *object.Fault:
			return result
		case *object.Break, *object.Continue:
			line, col := statement.Pos()
			return object.NewFault(object.LoopControl, line, col,
				"%s outside of a loop", result.Inspect())
		}
	}

	return result
}

func (e *Evaluator) evalBlockStatement(block *ast.BlockStatement, env *object.Environment) object.Object {
	blockEnv := object.NewEnclosedEnvironment(env)

	var result object.Object = object.NIL
	for _, statement := range block.Statements {
		result = e.Eval(statement, blockEnv)

		if result != nil {
			switch result.Type() {
			case object.RETURN_VALUE_OBJ, object.FAULT_OBJ, object.BREAK_OBJ, object.CONTINUE_OBJ:
				return result
			}
		}
	}

	return result
}

func (e *Evaluator) evalDeclStatement(node *ast.DeclStatement, env *object.Environment) object.Object {
	val := e.Eval(node.Value, env)
	if isFault(val) {
		return val
	}

	mutable := node.Kind() == token.VAR
	if err := env.Define(node.Name.Value, val, mutable); err != nil {
		return e.faultAt(node, object.TypeMismatch, "%s", err.Error())
	}
	return object.NIL
}

func (e *Evaluator) evalObjectStatement(node *ast.ObjectStatement, env *object.Environment) object.Object {
	fields := make([]string, 0, len(node.Fields))
	for _, f := range node.Fields {
		fields = append(fields, f.Value)
	}
	schema := &object.Schema{Name: node.Name.Value, Fields: fields}
	if err := env.Define(node.Name.Value, schema, false); err != nil {
		return e.faultAt(node, object.TypeMismatch, "%s", err.Error())
	}
	return object.NIL
}

func (e *Evaluator) evalAssignStatement(node *ast.AssignStatement, env *object.Environment) object.Object {
	val := e.Eval(node.Value, env)
	if isFault(val) {
		return val
	}

	switch target := node.Target.(type) {
	case *ast.Identifier:
		if node.Declare {
			if err := env.Define(target.Value, val, true); err != nil {
				return e.faultAt(node, object.TypeMismatch, "%s", err.Error())
			}
			return object.NIL
		}
		found, err := env.Assign(target.Value, val)
		if err != nil {
			return e.faultAt(node, object.TypeMismatch, "%s", err.Error())
		}
		if !found {
			// first use in this block binds in the current frame
			if err := env.Define(target.Value, val, true); err != nil {
				return e.faultAt(node, object.TypeMismatch, "%s", err.Error())
			}
		}
		return object.NIL

	case *ast.IndexExpression:
		return e.evalIndexAssign(target, val, env)

	case *ast.FieldExpression:
		return e.evalFieldAssign(target, val, env)
	}

	return e.faultAt(node, object.TypeMismatch, "invalid assignment target")
}

func (e *Evaluator) evalIndexAssign(target *ast.IndexExpression, val object.Object, env *object.Environment) object.Object {
	left := e.Eval(target.Left, env)
	if isFault(left) {
		return left
	}
	index := e.Eval(target.Index, env)
	if isFault(index) {
		return index
	}

	switch container := left.(type) {
	case *object.Sequence:
		idx, ok := index.(*object.Integer)
		if !ok {
			return e.faultAt(target, object.TypeMismatch,
				"sequence index must be an integer, got %s", index.Type())
		}
		if idx.Value < 0 || idx.Value >= int64(len(container.Elements)) {
			return e.faultAt(target, object.IndexOutOfRange,
				"index %d out of range for sequence of length %d", idx.Value, len(container.Elements))
		}
		container.Elements[idx.Value] = val
		return object.NIL

	case *object.Mapping:
		key, ok := index.(*object.String)
		if !ok {
			return e.faultAt(target, object.TypeMismatch,
				"mapping key must be a string, got %s", index.Type())
		}
		container.Set(key.Value, val)
		return object.NIL
	}

	return e.faultAt(target, object.TypeMismatch, "cannot index-assign into %s", left.Type())
}

func (e *Evaluator) evalFieldAssign(target *ast.FieldExpression, val object.Object, env *object.Environment) object.Object {
	left := e.Eval(target.Left, env)
	if isFault(left) {
		return left
	}

	inst, ok := left.(*object.Instance)
	if !ok {
		return e.faultAt(target, object.TypeMismatch, "cannot assign field on %s", left.Type())
	}
	if _, exists := inst.Fields[target.Field.Value]; !exists {
		return e.faultAt(target, object.UndefinedName,
			"%s has no field '%s'", inst.Schema.Name, target.Field.Value)
	}
	inst.Fields[target.Field.Value] = val
	return object.NIL
}

func (e *Evaluator) evalIfStatement(node *ast.IfStatement, env *object.Environment) object.Object {
	condition := e.Eval(node.Condition, env)
	if isFault(condition) {
		return condition
	}

	if object.Truthy(condition) {
		return e.Eval(node.Then, env)
	}
	if node.Else != nil {
		return e.Eval(node.Else, env)
	}
	return object.NIL
}

func (e *Evaluator) evalWhileStatement(node *ast.WhileStatement, env *object.Environment) object.Object {
	for {
		condition := e.Eval(node.Condition, env)
		if isFault(condition) {
			return condition
		}
		if !object.Truthy(condition) {
			return object.NIL
		}

		result := e.Eval(node.Body, env)
		switch result.Type() {
		case object.BREAK_OBJ:
			return object.NIL
		case object.CONTINUE_OBJ:
			continue
		case object.RETURN_VALUE_OBJ, object.FAULT_OBJ:
			return result
		}
	}
}

func (e *Evaluator) evalForRangeStatement(node *ast.ForRangeStatement, env *object.Environment) object.Object {
	from := e.Eval(node.From, env)
	if isFault(from) {
		return from
	}
	to := e.Eval(node.To, env)
	if isFault(to) {
		return to
	}

	fromInt, ok := from.(*object.Integer)
	if !ok {
		return e.faultAt(node, object.TypeMismatch, "for range start must be an integer, got %s", from.Type())
	}
	toInt, ok := to.(*object.Integer)
	if !ok {
		return e.faultAt(node, object.TypeMismatch, "for range end must be an integer, got %s", to.Type())
	}

	for i := fromInt.Value; i <= toInt.Value; i++ {
		loopEnv := object.NewEnclosedEnvironment(env)
		if err := loopEnv.Define(node.Var.Value, &object.Integer{Value: i}, true); err != nil {
			return e.faultAt(node, object.TypeMismatch, "%s", err.Error())
		}

		result := e.Eval(node.Body, loopEnv)
		switch result.Type() {
		case object.BREAK_OBJ:
			return object.NIL
		case object.CONTINUE_OBJ:
			continue
		case object.RETURN_VALUE_OBJ, object.FAULT_OBJ:
			return result
		}
	}
	return object.NIL
}

func (e *Evaluator) evalForEachStatement(node *ast.ForEachStatement, env *object.Environment) object.Object {
	seqVal := e.Eval(node.Seq, env)
	if isFault(seqVal) {
		return seqVal
	}

	seq, ok := seqVal.(*object.Sequence)
	if !ok {
		return e.faultAt(node, object.TypeMismatch, "for..in expects a sequence, got %s", seqVal.Type())
	}

	for i := 0; i < len(seq.Elements); i++ {
		loopEnv := object.NewEnclosedEnvironment(env)
		if err := loopEnv.Define(node.Var.Value, seq.Elements[i], true); err != nil {
			return e.faultAt(node, object.TypeMismatch, "%s", err.Error())
		}

		result := e.Eval(node.Body, loopEnv)
		switch result.Type() {
		case object.BREAK_OBJ:
			return object.NIL
		case object.CONTINUE_OBJ:
			continue
		case object.RETURN_VALUE_OBJ, object.FAULT_OBJ:
			return result
		}
	}
	return object.NIL
}

func (e *Evaluator) evalIdentifier(node *ast.Identifier, env *object.Environment) object.Object {
	if val, ok := env.Get(node.Value); ok {
		return val
	}
	return e.faultAt(node, object.UndefinedName, "identifier not found: %s", node.Value)
}

func (e *Evaluator) evalPrefixExpression(node *ast.PrefixExpression, env *object.Environment) object.Object {
	right := e.Eval(node.Right, env)
	if isFault(right) {
		return right
	}

	switch node.Operator {
	case "not":
		return object.NativeBoolToBoolean(!object.Truthy(right))
	case "-":
		switch v := right.(type) {
		case *object.Integer:
			return &object.Integer{Value: -v.Value}
		case *object.Float:
			return &object.Float{Value: -v.Value}
		}
		return e.faultAt(node, object.TypeMismatch, "unknown operator: -%s", right.Type())
	}
	return e.faultAt(node, object.TypeMismatch, "unknown operator: %s%s", node.Operator, right.Type())
}

func (e *Evaluator) evalInfixExpression(node *ast.InfixExpression, env *object.Environment) object.Object {
	// and/or short-circuit on truthiness and yield booleans
	if node.Operator == "and" || node.Operator == "or" {
		left := e.Eval(node.Left, env)
		if isFault(left) {
			return left
		}
		lt := object.Truthy(left)
		if node.Operator == "and" && !lt {
			return object.FALSE
		}
		if node.Operator == "or" && lt {
			return object.TRUE
		}
		right := e.Eval(node.Right, env)
		if isFault(right) {
			return right
		}
		return object.NativeBoolToBoolean(object.Truthy(right))
	}

	left := e.Eval(node.Left, env)
	if isFault(left) {
		return left
	}
	right := e.Eval(node.Right, env)
	if isFault(right) {
		return right
	}

	switch node.Operator {
	case "xor":
		return object.NativeBoolToBoolean(object.Truthy(left) != object.Truthy(right))
	case "==":
		return object.NativeBoolToBoolean(object.Equals(left, right))
	case "!=":
		return object.NativeBoolToBoolean(!object.Equals(left, right))
	}

	switch {
	case left.Type() == object.INTEGER_OBJ && right.Type() == object.INTEGER_OBJ:
		return e.evalIntegerInfix(node, left.(*object.Integer), right.(*object.Integer))
	case isNumeric(left) && isNumeric(right):
		return e.evalFloatInfix(node, left, right)
	case left.Type() == object.STRING_OBJ && right.Type() == object.STRING_OBJ:
		return e.evalStringInfix(node, left.(*object.String), right.(*object.String))
	case left.Type() == object.SEQUENCE_OBJ && right.Type() == object.SEQUENCE_OBJ && node.Operator == "+":
		l := left.(*object.Sequence)
		r := right.(*object.Sequence)
		elements := make([]object.Object, 0, len(l.Elements)+len(r.Elements))
		elements = append(elements, l.Elements...)
		elements = append(elements, r.Elements...)
		return &object.Sequence{Elements: elements}
	case left.Type() != right.Type():
		return e.faultAt(node, object.TypeMismatch, "type mismatch: %s %s %s",
			left.Type(), node.Operator, right.Type())
	}
	return e.faultAt(node, object.TypeMismatch, "unknown operator: %s %s %s",
		left.Type(), node.Operator, right.Type())
}

// evalIntegerInfix keeps Int+Int arithmetic in the integer domain with one
// exception: `/` always promotes to Float, for parity with every backend.
func (e *Evaluator) evalIntegerInfix(node *ast.InfixExpression, left, right *object.Integer) object.Object {
	switch node.Operator {
	case "+":
		return &object.Integer{Value: left.Value + right.Value}
	case "-":
		return &object.Integer{Value: left.Value - right.Value}
	case "*":
		return &object.Integer{Value: left.Value * right.Value}
	case "/":
		if right.Value == 0 {
			return e.faultAt(node, object.DivisionByZero, "division by zero")
		}
		return &object.Float{Value: float64(left.Value) / float64(right.Value)}
	case "div":
		if right.Value == 0 {
			return e.faultAt(node, object.DivisionByZero, "integer division by zero")
		}
		// Go's integer division truncates toward zero, which is the
		// language rule; mod below carries the dividend's sign.
		return &object.Integer{Value: left.Value / right.Value}
	case "mod":
		if right.Value == 0 {
			return e.faultAt(node, object.DivisionByZero, "modulo by zero")
		}
		return &object.Integer{Value: left.Value % right.Value}
	case "<":
		return object.NativeBoolToBoolean(left.Value < right.Value)
	case "<=":
		return object.NativeBoolToBoolean(left.Value <= right.Value)
	case ">":
		return object.NativeBoolToBoolean(left.Value > right.Value)
	case ">=":
		return object.NativeBoolToBoolean(left.Value >= right.Value)
	}
	return e.faultAt(node, object.TypeMismatch, "unknown operator: INTEGER %s INTEGER", node.Operator)
}

func (e *Evaluator) evalFloatInfix(node *ast.InfixExpression, left, right object.Object) object.Object {
	lv := asFloat(left)
	rv := asFloat(right)

	switch node.Operator {
	case "+":
		return &object.Float{Value: lv + rv}
	case "-":
		return &object.Float{Value: lv - rv}
	case "*":
		return &object.Float{Value: lv * rv}
	case "/":
		if rv == 0 {
			return e.faultAt(node, object.DivisionByZero, "division by zero")
		}
		return &object.Float{Value: lv / rv}
	case "div", "mod":
		return e.faultAt(node, object.TypeMismatch,
			"%s requires integer operands, got %s and %s", node.Operator, left.Type(), right.Type())
	case "<":
		return object.NativeBoolToBoolean(lv < rv)
	case "<=":
		return object.NativeBoolToBoolean(lv <= rv)
	case ">":
		return object.NativeBoolToBoolean(lv > rv)
	case ">=":
		return object.NativeBoolToBoolean(lv >= rv)
	}
	return e.faultAt(node, object.TypeMismatch, "unknown operator: %s %s %s",
		left.Type(), node.Operator, right.Type())
}

func (e *Evaluator) evalStringInfix(node *ast.InfixExpression, left, right *object.String) object.Object {
	switch node.Operator {
	case "+":
		return &object.String{Value: left.Value + right.Value}
	case "<":
		return object.NativeBoolToBoolean(left.Value < right.Value)
	case "<=":
		return object.NativeBoolToBoolean(left.Value <= right.Value)
	case ">":
		return object.NativeBoolToBoolean(left.Value > right.Value)
	case ">=":
		return object.NativeBoolToBoolean(left.Value >= right.Value)
	}
	return e.faultAt(node, object.TypeMismatch, "unknown operator: STRING %s STRING", node.Operator)
}

func (e *Evaluator) evalCallExpression(node *ast.CallExpression, env *object.Environment) object.Object {
	function := e.Eval(node.Function, env)
	if isFault(function) {
		return function
	}

	args, fault := e.evalExpressions(node.Arguments, env)
	if fault != nil {
		return fault
	}

	return e.applyFunction(node, function, args, env)
}

func (e *Evaluator) applyFunction(node *ast.CallExpression, fnObj object.Object, args []object.Object, env *object.Environment) object.Object {
	switch fn := fnObj.(type) {
	case *object.Function:
		if len(args) != len(fn.Parameters) {
			return e.faultAt(node, object.ArityMismatch,
				"%s expects %d argument(s), got %d", fn.Name, len(fn.Parameters), len(args))
		}

		callEnv := object.NewEnclosedEnvironment(fn.Env)
		for i, param := range fn.Parameters {
			if err := callEnv.Define(param.Value, args[i], true); err != nil {
				return e.faultAt(node, object.TypeMismatch, "%s", err.Error())
			}
		}

		slog.Debug("apply function",
			slog.String("name", fn.Name),
			slog.Int("args", len(args)))

		result := e.evalProcBody(fn.Body, callEnv)
		switch r := result.(type) {
		case *object.ReturnValue:
			return r.Value
		case *object.Break, *object.Continue:
			line, col := node.Pos()
			return object.NewFault(object.LoopControl, line, col,
				"%s outside of a loop in %s", r.Inspect(), fn.Name)
		}
		return result

	case *object.Native:
		if fn.Arity >= 0 && len(args) != fn.Arity {
			return e.faultAt(node, object.ArityMismatch,
				"%s expects %d argument(s), got %d", fn.Name, fn.Arity, len(args))
		}
		line, col := node.Pos()
		ctx := &nativeCtx{env: env, line: line, col: col}
		return fn.Fn(ctx, args...)

	case *object.Schema:
		if len(args) != len(fn.Fields) {
			return e.faultAt(node, object.ArityMismatch,
				"%s expects %d field value(s), got %d", fn.Name, len(fn.Fields), len(args))
		}
		fields := make(map[string]object.Object, len(fn.Fields))
		for i, name := range fn.Fields {
			fields[name] = args[i]
		}
		return &object.Instance{Schema: fn, Fields: fields}
	}

	return e.faultAt(node, object.NotCallable, "not callable: %s", fnObj.Type())
}

// evalProcBody runs a procedure body in its call frame without opening the
// extra block frame evalBlockStatement would create; parameters live in the
// same frame as the body's top-level bindings.
func (e *Evaluator) evalProcBody(body *ast.BlockStatement, env *object.Environment) object.Object {
	var result object.Object = object.NIL
	for _, statement := range body.Statements {
		result = e.Eval(statement, env)
		if result != nil {
			switch result.Type() {
			case object.RETURN_VALUE_OBJ, object.FAULT_OBJ, object.BREAK_OBJ, object.CONTINUE_OBJ:
				return result
			}
		}
	}
	return result
}

func (e *Evaluator) evalIndexExpression(node *ast.IndexExpression, env *object.Environment) object.Object {
	left := e.Eval(node.Left, env)
	if isFault(left) {
		return left
	}
	index := e.Eval(node.Index, env)
	if isFault(index) {
		return index
	}

	switch container := left.(type) {
	case *object.Sequence:
		idx, ok := index.(*object.Integer)
		if !ok {
			return e.faultAt(node, object.TypeMismatch,
				"sequence index must be an integer, got %s", index.Type())
		}
		if idx.Value < 0 || idx.Value >= int64(len(container.Elements)) {
			return e.faultAt(node, object.IndexOutOfRange,
				"index %d out of range for sequence of length %d", idx.Value, len(container.Elements))
		}
		return container.Elements[idx.Value]

	case *object.Mapping:
		key, ok := index.(*object.String)
		if !ok {
			return e.faultAt(node, object.TypeMismatch,
				"mapping key must be a string, got %s", index.Type())
		}
		if val, ok := container.Get(key.Value); ok {
			return val
		}
		return object.NIL

	case *object.String:
		idx, ok := index.(*object.Integer)
		if !ok {
			return e.faultAt(node, object.TypeMismatch,
				"string index must be an integer, got %s", index.Type())
		}
		runes := []rune(container.Value)
		if idx.Value < 0 || idx.Value >= int64(len(runes)) {
			return e.faultAt(node, object.IndexOutOfRange,
				"index %d out of range for string of length %d", idx.Value, len(runes))
		}
		return &object.String{Value: string(runes[idx.Value])}
	}

	return e.faultAt(node, object.TypeMismatch, "cannot index %s", left.Type())
}

func (e *Evaluator) evalFieldExpression(node *ast.FieldExpression, env *object.Environment) object.Object {
	left := e.Eval(node.Left, env)
	if isFault(left) {
		return left
	}

	inst, ok := left.(*object.Instance)
	if !ok {
		return e.faultAt(node, object.TypeMismatch, "cannot access field on %s", left.Type())
	}
	val, exists := inst.Fields[node.Field.Value]
	if !exists {
		return e.faultAt(node, object.UndefinedName,
			"%s has no field '%s'", inst.Schema.Name, node.Field.Value)
	}
	return val
}

func (e *Evaluator) evalMappingLiteral(node *ast.MappingLiteral, env *object.Environment) object.Object {
	mapping := object.NewMapping()

	for i := range node.Keys {
		key := e.Eval(node.Keys[i], env)
		if isFault(key) {
			return key
		}
		str, ok := key.(*object.String)
		if !ok {
			return e.faultAt(node, object.TypeMismatch, "mapping key must be a string, got %s", key.Type())
		}

		value := e.Eval(node.Values[i], env)
		if isFault(value) {
			return value
		}
		mapping.Set(str.Value, value)
	}

	return mapping
}

func (e *Evaluator) evalExpressions(exps []ast.Expression, env *object.Environment) ([]object.Object, *object.Fault) {
	var result []object.Object

	for _, exp := range exps {
		evaluated := e.Eval(exp, env)
		if fault, ok := evaluated.(*object.Fault); ok {
			return nil, fault
		}
		result = append(result, evaluated)
	}

	return result, nil
}

func (e *Evaluator) faultAt(node ast.Node, kind object.FaultKind, format string, a ...interface{}) *object.Fault {
	line, col := node.Pos()
	return object.NewFault(kind, line, col, format, a...)
}

func isFault(obj object.Object) bool {
	if obj == nil {
		return false
	}
	return obj.Type() == object.FAULT_OBJ
}

func isNumeric(obj object.Object) bool {
	return obj.Type() == object.INTEGER_OBJ || obj.Type() == object.FLOAT_OBJ
}

func asFloat(obj object.Object) float64 {
	switch v := obj.(type) {
	case *object.Integer:
		return float64(v.Value)
	case *object.Float:
		return v.Value
	}
	return 0
}

// nativeCtx implements object.CallContext for one native invocation.
type nativeCtx struct {
	env  *object.Environment
	line int
	col  int
}

func (c *nativeCtx) Env() *object.Environment { return c.env }

func (c *nativeCtx) Fault(kind object.FaultKind, format string, a ...interface{}) *object.Fault {
	return object.NewFault(kind, c.line, c.col, format, a...)
}
