package typecheck

import (
	"github.com/cube2222/partiplan/catalog"
	"github.com/cube2222/partiplan/diagnostics"
	"github.com/cube2222/partiplan/partiplan"
	"github.com/cube2222/partiplan/physical"
)

// TypecheckExpression attaches static types to the expression and its subexpressions.
// Implicit conversions become explicit casts. Each rejected operand combination is reported once.
func TypecheckExpression(expr physical.Expression, env Environment) physical.Expression {
	switch expr.ExpressionType {
	case physical.ExpressionTypeVariable:
		t, ok := env.VariableContext.Lookup(expr.Variable.Name)
		if !ok {
			env.report(expr.Location, diagnostics.ErrUnknownVariable, "", nil, expr.Variable.Name)
			t = partiplan.Dynamic
		}
		return physical.NewVariable(expr.Variable.Name, t).WithLocation(expr.Location)

	case physical.ExpressionTypeGlobal:
		var table catalog.Table
		var ok bool
		if expr.Global.TableID != "" {
			table, ok = env.resolveByID(expr.Global.TableID)
		} else {
			table, ok = env.resolve(expr.Global.Name)
		}
		if !ok {
			env.report(expr.Location, diagnostics.ErrUnknownTable, "", nil, expr.Global.Name)
			return physical.NewGlobal(expr.Global.TableID, expr.Global.Name, partiplan.Dynamic).WithLocation(expr.Location)
		}
		return physical.NewGlobal(table.ID, table.Name, table.Type).WithLocation(expr.Location)

	case physical.ExpressionTypeConstant:
		return physical.NewConstant(expr.Constant.Value).WithLocation(expr.Location)

	case physical.ExpressionTypePath:
		root := TypecheckExpression(expr.Path.Root, env)
		t := root.Type
		for _, step := range expr.Path.Steps {
			fieldType, ok := stepType(t, step)
			if !ok {
				env.report(expr.Location, diagnostics.ErrUnknownField, "", []partiplan.Type{t}, t, step.Name)
				fieldType = partiplan.Dynamic
			}
			t = fieldType
		}
		out := physical.NewPath(root, expr.Path.Steps...).WithLocation(expr.Location)
		out.Type = t
		return out

	case physical.ExpressionTypeFunctionCall:
		return typecheckFunctionCall(expr, env)

	case physical.ExpressionTypeAnd:
		args := typecheckBooleanArguments("and", expr.And.Arguments, env)
		return physical.NewAnd(args...).WithLocation(expr.Location)

	case physical.ExpressionTypeOr:
		args := typecheckBooleanArguments("or", expr.Or.Arguments, env)
		return physical.NewOr(args...).WithLocation(expr.Location)

	case physical.ExpressionTypeCast:
		inner := TypecheckExpression(expr.Cast.Expression, env)
		nullable := expr.Cast.Nullable
		// Whether a dynamic value converts is only known at runtime.
		if partiplan.Flatten(inner.Type).TypeID == partiplan.TypeIDDynamic {
			return physical.NewCast(inner, expr.Cast.TargetType, true).WithLocation(expr.Location)
		}
		descriptor, ok := partiplan.Coerce(inner.Type, expr.Cast.TargetType)
		if !ok {
			env.report(expr.Location, diagnostics.ErrInvalidCast, "cast", []partiplan.Type{inner.Type, expr.Cast.TargetType}, inner.Type, expr.Cast.TargetType)
		} else {
			nullable = nullable || descriptor.Nullable
		}
		return physical.NewCast(inner, expr.Cast.TargetType, nullable).WithLocation(expr.Location)
	}

	panic("unexhaustive expression type match")
}

// stepType returns the type of a field. For unions, the field may come from any alternative having it.
func stepType(t partiplan.Type, step physical.PathStep) (partiplan.Type, bool) {
	t = partiplan.Flatten(t)
	if t.TypeID != partiplan.TypeIDUnion {
		return t.FieldType(step.Name, step.CaseSensitive)
	}
	var out *partiplan.Type
	for _, alternative := range t.Union.Alternatives {
		fieldType, ok := alternative.FieldType(step.Name, step.CaseSensitive)
		if !ok {
			continue
		}
		if out == nil {
			out = &fieldType
		} else {
			sum := partiplan.TypeSum(*out, fieldType)
			out = &sum
		}
	}
	if out == nil {
		return partiplan.Type{}, false
	}
	return *out, true
}

func typecheckArguments(args []physical.Expression, env Environment) []physical.Expression {
	if args == nil {
		return nil
	}
	out := make([]physical.Expression, len(args))
	for i := range args {
		out[i] = TypecheckExpression(args[i], env)
	}
	return out
}

func typecheckBooleanArguments(operator string, args []physical.Expression, env Environment) []physical.Expression {
	out := typecheckArguments(args, env)
	for _, arg := range out {
		checkBoolean(operator, arg, env)
	}
	return out
}

func checkBoolean(operator string, expr physical.Expression, env Environment) {
	if expr.Type.AssignableTo(partiplan.Bool) == partiplan.TypeRelationIsnt {
		env.report(expr.Location, diagnostics.ErrNonBooleanPredicate, operator, []partiplan.Type{expr.Type}, operator, expr.Type)
	}
}

func typecheckFunctionCall(expr physical.Expression, env Environment) physical.Expression {
	name := expr.FunctionCall.Name
	args := typecheckArguments(expr.FunctionCall.Arguments, env)
	location := expr.Location

	switch {
	case physical.IsComparisonOperator(name) && len(args) == 2:
		left, right := unifyComparison(name, args[0], args[1], location, env)
		return physical.NewFunctionCall(name, []physical.Expression{left, right}, partiplan.Bool).WithLocation(location)

	case isArithmetic(name, args):
		op, _ := physical.ArithmeticOperator(name)
		left, right := args[0], args[1]
		result, ok := partiplan.Derive(op, left.Type, right.Type)
		if !ok {
			env.report(location, diagnostics.ErrIncompatibleArithmetic, name, []partiplan.Type{left.Type, right.Type}, op, left.Type, right.Type)
			return physical.NewFunctionCall(name, args, partiplan.Dynamic).WithLocation(location)
		}
		if promotesOperands(left.Type, right.Type, result) {
			left, right = promote(left, result), promote(right, result)
		}
		return physical.NewFunctionCall(name, []physical.Expression{left, right}, result).WithLocation(location)

	case (name == physical.OperatorSubtract || name == physical.OperatorAdd) && len(args) == 1:
		op := partiplan.Negate
		if name == physical.OperatorAdd {
			op = partiplan.Pos
		}
		result, ok := partiplan.DeriveUnary(op, args[0].Type)
		if !ok {
			env.report(location, diagnostics.ErrIncompatibleUnary, name, []partiplan.Type{args[0].Type}, op, args[0].Type)
			result = partiplan.Dynamic
		}
		return physical.NewFunctionCall(name, args, result).WithLocation(location)

	case name == physical.OperatorConcat:
		for _, arg := range args {
			t := partiplan.Flatten(arg.Type)
			if !t.IsText() && t.TypeID != partiplan.TypeIDDynamic {
				env.report(arg.Location, diagnostics.ErrInvalidOperand, name, []partiplan.Type{arg.Type}, name, arg.Type)
			}
		}
		return physical.NewFunctionCall(name, args, partiplan.String).WithLocation(location)

	case name == physical.OperatorNot && len(args) == 1:
		checkBoolean(name, args[0], env)
		return physical.NewFunctionCall(name, args, partiplan.Bool).WithLocation(location)
	}

	// Other functions keep the result type they were built with.
	return physical.NewFunctionCall(name, args, expr.Type).WithLocation(location)
}

func isArithmetic(name string, args []physical.Expression) bool {
	_, ok := physical.ArithmeticOperator(name)
	return ok && len(args) == 2
}

// Two fixed decimals derive a new precision and scale, they aren't converted to it.
func promotesOperands(left, right, result partiplan.Type) bool {
	if result.TypeID == partiplan.TypeIDDynamic {
		return false
	}
	left, right = partiplan.Flatten(left), partiplan.Flatten(right)
	return !(left.TypeID == partiplan.TypeIDDecimal && right.TypeID == partiplan.TypeIDDecimal)
}

func promote(expr physical.Expression, target partiplan.Type) physical.Expression {
	if expr.Type.Equal(target) {
		return expr
	}
	descriptor, ok := partiplan.Coerce(expr.Type, target)
	if !ok {
		return expr
	}
	return physical.NewCast(expr, descriptor.To, descriptor.Nullable)
}

// unifyComparison casts the operand with the lower precedence to the type of the other one.
func unifyComparison(operator string, left, right physical.Expression, location diagnostics.Location, env Environment) (physical.Expression, physical.Expression) {
	lt, rt := partiplan.Flatten(left.Type), partiplan.Flatten(right.Type)
	if lt.TypeID == partiplan.TypeIDDynamic || rt.TypeID == partiplan.TypeIDDynamic || lt.Equal(rt) {
		return left, right
	}

	castLeft := partiplan.Precedence(lt) < partiplan.Precedence(rt)
	from, to := right, lt
	if castLeft {
		from, to = left, rt
	}
	descriptor, ok := partiplan.Coerce(from.Type, to)
	if !ok {
		env.report(location, diagnostics.ErrIncompatibleComparison, operator, []partiplan.Type{left.Type, right.Type}, operator, left.Type, right.Type)
		return left, right
	}
	cast := physical.NewCast(from, descriptor.To, descriptor.Nullable)
	if castLeft {
		return cast, right
	}
	return left, cast
}
