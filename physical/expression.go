package physical

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cube2222/partiplan/diagnostics"
	"github.com/cube2222/partiplan/partiplan"
)

type Expression struct {
	Type     partiplan.Type
	Location diagnostics.Location

	ExpressionType ExpressionType
	// Only one of the below may be non-null.
	Variable     *Variable
	Global       *Global
	Constant     *Constant
	Path         *Path
	FunctionCall *FunctionCall
	And          *And
	Or           *Or
	Cast         *Cast
}

type ExpressionType int

const (
	ExpressionTypeVariable ExpressionType = iota
	ExpressionTypeGlobal
	ExpressionTypeConstant
	ExpressionTypePath
	ExpressionTypeFunctionCall
	ExpressionTypeAnd
	ExpressionTypeOr
	ExpressionTypeCast
)

func (t ExpressionType) String() string {
	switch t {
	case ExpressionTypeVariable:
		return "variable"
	case ExpressionTypeGlobal:
		return "global"
	case ExpressionTypeConstant:
		return "constant"
	case ExpressionTypePath:
		return "path"
	case ExpressionTypeFunctionCall:
		return "function_call"
	case ExpressionTypeAnd:
		return "and"
	case ExpressionTypeOr:
		return "or"
	case ExpressionTypeCast:
		return "cast"
	}
	return "unknown"
}

// Variable references a binding introduced by a scan, like the f in FROM orders AS f.
type Variable struct {
	Name string
}

// Global references a catalog table by its unique id.
type Global struct {
	TableID string
	Name    string
}

type Constant struct {
	Value partiplan.Value
}

// Path navigates into a struct or row, like f.id.
type Path struct {
	Root  Expression
	Steps []PathStep
}

type PathStep struct {
	Name string
	// CaseSensitive is set for quoted identifiers.
	CaseSensitive bool
}

func (step PathStep) String() string {
	if step.CaseSensitive {
		return fmt.Sprintf(".%q", step.Name)
	}
	return "." + step.Name
}

// Matches reports whether the step selects the given field name.
func (step PathStep) Matches(name string) bool {
	if step.CaseSensitive {
		return step.Name == name
	}
	return strings.EqualFold(step.Name, name)
}

// FunctionCall is used for operators too, they're named by their symbol, like "=" or "+".
type FunctionCall struct {
	Name      string
	Arguments []Expression
}

type And struct {
	Arguments []Expression
}

type Or struct {
	Arguments []Expression
}

type Cast struct {
	Expression Expression
	TargetType partiplan.Type
	// Nullable casts produce null instead of failing on values that don't convert.
	Nullable bool
}

// Operator names used in function calls.
const (
	OperatorEqual        = "="
	OperatorNotEqual     = "<>"
	OperatorLess         = "<"
	OperatorLessEqual    = "<="
	OperatorGreater      = ">"
	OperatorGreaterEqual = ">="
	OperatorAdd          = "+"
	OperatorSubtract     = "-"
	OperatorMultiply     = "*"
	OperatorDivide       = "/"
	OperatorModulo       = "%"
	OperatorConcat       = "||"
	OperatorNot          = "not"
)

var comparisonOperators = map[string]bool{
	OperatorEqual:        true,
	OperatorNotEqual:     true,
	OperatorLess:         true,
	OperatorLessEqual:    true,
	OperatorGreater:      true,
	OperatorGreaterEqual: true,
}

var arithmeticOperators = map[string]partiplan.ArithmeticOperator{
	OperatorAdd:      partiplan.Add,
	OperatorSubtract: partiplan.Subtract,
	OperatorMultiply: partiplan.Multiply,
	OperatorDivide:   partiplan.Divide,
	OperatorModulo:   partiplan.Modulo,
}

func IsComparisonOperator(name string) bool {
	return comparisonOperators[name]
}

// ArithmeticOperator returns the arithmetic operator a binary function call name stands for.
func ArithmeticOperator(name string) (partiplan.ArithmeticOperator, bool) {
	op, ok := arithmeticOperators[name]
	return op, ok
}

func NewVariable(name string, t partiplan.Type) Expression {
	return Expression{
		Type:           t,
		ExpressionType: ExpressionTypeVariable,
		Variable: &Variable{
			Name: name,
		},
	}
}

func NewGlobal(tableID, name string, t partiplan.Type) Expression {
	return Expression{
		Type:           t,
		ExpressionType: ExpressionTypeGlobal,
		Global: &Global{
			TableID: tableID,
			Name:    name,
		},
	}
}

func NewConstant(value partiplan.Value) Expression {
	return Expression{
		Type:           value.Type,
		ExpressionType: ExpressionTypeConstant,
		Constant: &Constant{
			Value: value,
		},
	}
}

// NewPath creates a path expression. Its type stays dynamic until the typechecker resolves it.
func NewPath(root Expression, steps ...PathStep) Expression {
	return Expression{
		Type:           partiplan.Dynamic,
		ExpressionType: ExpressionTypePath,
		Path: &Path{
			Root:  root,
			Steps: steps,
		},
	}
}

// Step is a case-insensitive path step.
func Step(name string) PathStep {
	return PathStep{Name: name}
}

// QuotedStep is a case-sensitive path step.
func QuotedStep(name string) PathStep {
	return PathStep{Name: name, CaseSensitive: true}
}

func NewFunctionCall(name string, arguments []Expression, t partiplan.Type) Expression {
	return Expression{
		Type:           t,
		ExpressionType: ExpressionTypeFunctionCall,
		FunctionCall: &FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}
}

func NewEq(left, right Expression) Expression {
	return NewFunctionCall(OperatorEqual, []Expression{left, right}, partiplan.Bool)
}

func NewAnd(arguments ...Expression) Expression {
	return Expression{
		Type:           partiplan.Bool,
		ExpressionType: ExpressionTypeAnd,
		And: &And{
			Arguments: arguments,
		},
	}
}

func NewOr(arguments ...Expression) Expression {
	return Expression{
		Type:           partiplan.Bool,
		ExpressionType: ExpressionTypeOr,
		Or: &Or{
			Arguments: arguments,
		},
	}
}

func NewCast(expr Expression, target partiplan.Type, nullable bool) Expression {
	return Expression{
		Type:           target,
		Location:       expr.Location,
		ExpressionType: ExpressionTypeCast,
		Cast: &Cast{
			Expression: expr,
			TargetType: target,
			Nullable:   nullable,
		},
	}
}

// WithLocation returns a copy of the expression positioned at the given location.
func (expr Expression) WithLocation(location diagnostics.Location) Expression {
	expr.Location = location
	return expr
}

// SplitByAnd flattens nested conjunctions into the list of their conjuncts.
// Any other expression is returned as the only conjunct.
func (expr Expression) SplitByAnd() []Expression {
	if expr.ExpressionType != ExpressionTypeAnd {
		return []Expression{expr}
	}
	var parts []Expression
	for _, arg := range expr.And.Arguments {
		parts = append(parts, arg.SplitByAnd()...)
	}
	return parts
}

// JoinByAnd is the inverse of SplitByAnd. A single conjunct is returned as is, no conjuncts mean true.
func JoinByAnd(conjuncts []Expression) Expression {
	switch len(conjuncts) {
	case 0:
		return NewConstant(partiplan.NewBool(true))
	case 1:
		return conjuncts[0]
	}
	return NewAnd(conjuncts...)
}

// IsTrueConstant reports whether the expression is the literal true.
func (expr Expression) IsTrueConstant() bool {
	if expr.ExpressionType != ExpressionTypeConstant {
		return false
	}
	value := expr.Constant.Value
	return !value.Null && value.Type.TypeID == partiplan.TypeIDBool && value.Boolean
}

// ReferencesVariable reports whether the variable appears anywhere in the expression.
func (expr Expression) ReferencesVariable(name string) bool {
	for _, used := range expr.VariablesUsed() {
		if used == name {
			return true
		}
	}
	return false
}

// VariablesUsed returns the sorted, deduplicated names of all variables in the expression.
func (expr Expression) VariablesUsed() []string {
	seen := make(map[string]bool)
	expr.collectVariables(seen)
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (expr Expression) collectVariables(seen map[string]bool) {
	switch expr.ExpressionType {
	case ExpressionTypeVariable:
		seen[expr.Variable.Name] = true
	case ExpressionTypeGlobal, ExpressionTypeConstant:
	case ExpressionTypePath:
		expr.Path.Root.collectVariables(seen)
	case ExpressionTypeFunctionCall:
		for _, arg := range expr.FunctionCall.Arguments {
			arg.collectVariables(seen)
		}
	case ExpressionTypeAnd:
		for _, arg := range expr.And.Arguments {
			arg.collectVariables(seen)
		}
	case ExpressionTypeOr:
		for _, arg := range expr.Or.Arguments {
			arg.collectVariables(seen)
		}
	case ExpressionTypeCast:
		expr.Cast.Expression.collectVariables(seen)
	default:
		panic("unexhaustive expression type match")
	}
}

func (expr Expression) String() string {
	switch expr.ExpressionType {
	case ExpressionTypeVariable:
		return expr.Variable.Name
	case ExpressionTypeGlobal:
		return expr.Global.Name
	case ExpressionTypeConstant:
		return expr.Constant.Value.String()
	case ExpressionTypePath:
		var sb strings.Builder
		sb.WriteString(expr.Path.Root.String())
		for _, step := range expr.Path.Steps {
			sb.WriteString(step.String())
		}
		return sb.String()
	case ExpressionTypeFunctionCall:
		args := expr.FunctionCall.Arguments
		name := expr.FunctionCall.Name
		if len(args) == 2 && (IsComparisonOperator(name) || name == OperatorConcat) {
			return fmt.Sprintf("(%s %s %s)", args[0], name, args[1])
		}
		if _, ok := ArithmeticOperator(name); ok && len(args) == 2 {
			return fmt.Sprintf("(%s %s %s)", args[0], name, args[1])
		}
		if (name == OperatorSubtract || name == OperatorAdd) && len(args) == 1 {
			return fmt.Sprintf("%s%s", name, args[0])
		}
		return fmt.Sprintf("%s(%s)", name, joinExpressions(args, ", "))
	case ExpressionTypeAnd:
		return "(" + joinExpressions(expr.And.Arguments, " AND ") + ")"
	case ExpressionTypeOr:
		return "(" + joinExpressions(expr.Or.Arguments, " OR ") + ")"
	case ExpressionTypeCast:
		return fmt.Sprintf("CAST(%s AS %s)", expr.Cast.Expression, expr.Cast.TargetType)
	}
	panic("unexhaustive expression type match")
}

func joinExpressions(exprs []Expression, sep string) string {
	parts := make([]string, len(exprs))
	for i := range exprs {
		parts[i] = exprs[i].String()
	}
	return strings.Join(parts, sep)
}
