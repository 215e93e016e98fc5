package optimizer

import (
	"strings"

	"github.com/cube2222/partiplan/catalog"
	"github.com/cube2222/partiplan/diagnostics"
	"github.com/cube2222/partiplan/optimizer/matcher"
	"github.com/cube2222/partiplan/partiplan"
	. "github.com/cube2222/partiplan/physical"
)

// TableResolver maps a table id back to the table, so that primary keys are read when the pass applies.
type TableResolver func(tableID string) (catalog.Table, bool)

// ResolveByID adapts a catalog resolver.
func ResolveByID(resolver catalog.Resolver) TableResolver {
	return resolver.ResolveByID
}

// KeyValueConstructor builds the key values handed to the key lookup,
// given the record type and the matched values ordered like the primary key.
type KeyValueConstructor func(recordType partiplan.Type, keys []Expression) []Expression

// TupleKeys passes one value per key field.
func TupleKeys(recordType partiplan.Type, keys []Expression) []Expression {
	return keys
}

// ConcatenatedKeys encodes the key as a single string, joining the values cast to strings with the separator.
func ConcatenatedKeys(separator string) KeyValueConstructor {
	return func(recordType partiplan.Type, keys []Expression) []Expression {
		var out Expression
		for i, key := range keys {
			part := key
			if key.Type.TypeID != partiplan.TypeIDString {
				part = NewCast(key, partiplan.String, true)
			}
			if i == 0 {
				out = part
				continue
			}
			out = NewFunctionCall(OperatorConcat, []Expression{
				NewFunctionCall(OperatorConcat, []Expression{out, NewConstant(partiplan.NewString(separator))}, partiplan.String),
				part,
			}, partiplan.String)
		}
		return []Expression{out}
	}
}

// NewKeyLookupPass creates a pass replacing filters over a table scan with a key lookup,
// when the filter's conjuncts constrain every primary key field by equality.
// Remaining conjuncts are kept in a filter over the key lookup.
func NewKeyLookupPass(resolveTable TableResolver, constructKeys KeyValueConstructor) Pass {
	return Pass{
		Name:        "key_lookup",
		Description: "Replaces filters constraining the whole primary key of a scanned table with a key lookup.",
		Pattern: &matcher.FilterMatcher{
			Name: "filter",
			Predicate: &matcher.AnyExpressionMatcher{
				Name: "predicate",
			},
			Source: &matcher.ScanMatcher{
				Name: "scan",
				Source: &matcher.GlobalMatcher{
					TableID: &matcher.AnyStringMatcher{
						Name: "table_id",
					},
				},
				As: &matcher.AnyStringMatcher{
					Name: "as",
				},
			},
		},
		Apply: func(match *matcher.Match, sink diagnostics.Sink) Node {
			filter := match.Node("filter")
			as := match.String("as")

			// The lookup can't bind the element position.
			if match.Node("scan").Scan.At != "" {
				return filter
			}

			table, ok := resolveTable(match.String("table_id"))
			if !ok || len(table.PrimaryKey) == 0 {
				return filter
			}

			keys := make([]Expression, len(table.PrimaryKey))
			found := make([]bool, len(table.PrimaryKey))
			var residual []Expression
		conjunctLoop:
			for _, conjunct := range match.Expression("predicate").SplitByAnd() {
				field, value, ok := keyEquality(conjunct, as)
				if ok {
					for i, key := range table.PrimaryKey {
						if !found[i] && strings.EqualFold(field, key) {
							keys[i] = value
							found[i] = true
							continue conjunctLoop
						}
					}
				}
				residual = append(residual, conjunct)
			}
			for i := range found {
				if !found[i] {
					return filter
				}
			}

			out := NewKeyLookup(table.ID, table.Name, as, constructKeys(table.RecordType(), keys))
			if len(residual) == 0 {
				return out
			}
			return NewFilter(out, JoinByAnd(residual))
		},
	}
}

// keyEquality checks if the expression is an equality between a field of the scanned record
// and a value not depending on the record, returning the field name and the value.
// A cast typechecking put on the field is moved to the value instead.
func keyEquality(expr Expression, variable string) (string, Expression, bool) {
	if expr.ExpressionType != ExpressionTypeFunctionCall ||
		expr.FunctionCall.Name != OperatorEqual ||
		len(expr.FunctionCall.Arguments) != 2 {
		return "", Expression{}, false
	}
	args := expr.FunctionCall.Arguments
	for _, sides := range [][2]Expression{{args[0], args[1]}, {args[1], args[0]}} {
		fieldExpr, value := sides[0], sides[1]
		if value.ReferencesVariable(variable) {
			continue
		}
		if fieldExpr.ExpressionType == ExpressionTypeCast {
			if !isWidening(fieldExpr.Cast.Expression.Type, fieldExpr.Cast.TargetType) {
				continue
			}
			fieldExpr = fieldExpr.Cast.Expression
			converted, ok := convertKey(value, fieldExpr.Type)
			if !ok {
				continue
			}
			value = converted
		}
		field, ok := recordField(fieldExpr, variable)
		if !ok {
			continue
		}
		return field, value, true
	}
	return "", Expression{}, false
}

// convertKey casts the value to the type of the key field it's compared with.
func convertKey(value Expression, fieldType partiplan.Type) (Expression, bool) {
	if value.Type.Equal(fieldType) {
		return value, true
	}
	descriptor, ok := partiplan.Coerce(value.Type, fieldType)
	if !ok {
		return Expression{}, false
	}
	return NewCast(value, descriptor.To, descriptor.Nullable), true
}

// isWidening checks if the cast keeps values of the same family, converting them to a type of equal or higher precedence.
func isWidening(from, to partiplan.Type) bool {
	from, to = partiplan.Flatten(from), partiplan.Flatten(to)
	sameFamily := (from.IsNumeric() && to.IsNumeric()) || (from.IsText() && to.IsText())
	return sameFamily && partiplan.Precedence(from) <= partiplan.Precedence(to)
}

// recordField matches a case-insensitive single step path on the given variable.
func recordField(expr Expression, variable string) (string, bool) {
	if expr.ExpressionType != ExpressionTypePath || len(expr.Path.Steps) != 1 {
		return "", false
	}
	root := expr.Path.Root
	if root.ExpressionType != ExpressionTypeVariable || root.Variable.Name != variable {
		return "", false
	}
	step := expr.Path.Steps[0]
	if step.CaseSensitive {
		return "", false
	}
	return step.Name, true
}
