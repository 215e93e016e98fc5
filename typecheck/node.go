package typecheck

import (
	"github.com/cube2222/partiplan/catalog"
	"github.com/cube2222/partiplan/diagnostics"
	"github.com/cube2222/partiplan/partiplan"
	"github.com/cube2222/partiplan/physical"
)

// Check typechecks a whole plan in an empty scope.
// It returns the typed plan along with everything it reported.
func Check(plan physical.Node, tables catalog.Resolver) (physical.Node, *diagnostics.Collector) {
	collector := &diagnostics.Collector{}
	typed, _ := TypecheckNode(plan, Environment{
		Tables: tables,
		Sink:   collector,
	})
	return typed, collector
}

// TypecheckNode types all expressions of the node and its sources.
// It returns the typed node along with the variables its rows bind.
func TypecheckNode(node physical.Node, env Environment) (physical.Node, []Binding) {
	out := physical.Node{
		Metadata: node.Metadata,
		NodeType: node.NodeType,
	}

	switch node.NodeType {
	case physical.NodeTypeScan:
		source := TypecheckExpression(node.Scan.Source, env)
		variables := []Binding{{Name: node.Scan.As, Type: scannedType(source.Type)}}
		if node.Scan.At != "" {
			variables = append(variables, Binding{Name: node.Scan.At, Type: partiplan.BigInt})
		}
		out.Scan = &physical.Scan{
			Source: source,
			As:     node.Scan.As,
			At:     node.Scan.At,
		}
		return out, variables

	case physical.NodeTypeFilter:
		source, variables := TypecheckNode(node.Filter.Source, env)
		predicate := TypecheckExpression(node.Filter.Predicate, env.WithVariables(variables))
		checkBoolean("filter", predicate, env)
		out.Filter = &physical.Filter{
			Source:    source,
			Predicate: predicate,
		}
		return out, variables

	case physical.NodeTypeProject:
		source, sourceVariables := TypecheckNode(node.Project.Source, env)
		expressions := typecheckArguments(node.Project.Expressions, env.WithVariables(sourceVariables))
		variables := make([]Binding, len(expressions))
		for i := range expressions {
			variables[i] = Binding{Name: node.Project.Aliases[i], Type: expressions[i].Type}
		}
		out.Project = &physical.Project{
			Source:      source,
			Expressions: expressions,
			Aliases:     node.Project.Aliases,
		}
		return out, variables

	case physical.NodeTypeSort:
		source, variables := TypecheckNode(node.Sort.Source, env)
		out.Sort = &physical.Sort{
			Source: source,
			Keys:   typecheckSortKeys(node.Sort.Keys, env.WithVariables(variables)),
		}
		return out, variables

	case physical.NodeTypeLimit:
		source, variables := TypecheckNode(node.Limit.Source, env)
		count := TypecheckExpression(node.Limit.Count, env)
		if countType := partiplan.Flatten(count.Type); !countType.IsNumeric() && countType.TypeID != partiplan.TypeIDDynamic {
			env.report(count.Location, diagnostics.ErrInvalidOperand, "limit", []partiplan.Type{count.Type}, "limit", count.Type)
		}
		out.Limit = &physical.Limit{
			Source: source,
			Count:  count,
		}
		return out, variables

	case physical.NodeTypeJoin:
		left, leftVariables := TypecheckNode(node.Join.Left, env)
		right, rightVariables := TypecheckNode(node.Join.Right, env)
		variables := append(append([]Binding{}, leftVariables...), rightVariables...)
		condition := TypecheckExpression(node.Join.Condition, env.WithVariables(variables))
		checkBoolean("join", condition, env)
		out.Join = &physical.Join{
			Kind:      node.Join.Kind,
			Left:      left,
			Right:     right,
			Condition: condition,
		}
		return out, variables

	case physical.NodeTypeSetOp:
		// Both sides bind their own variables, the output is visible under those of the left one.
		left, variables := TypecheckNode(node.SetOp.Left, env)
		right, _ := TypecheckNode(node.SetOp.Right, env)
		out.SetOp = &physical.SetOp{
			Kind:  node.SetOp.Kind,
			All:   node.SetOp.All,
			Left:  left,
			Right: right,
		}
		return out, variables

	case physical.NodeTypeAggregate:
		source, sourceVariables := TypecheckNode(node.Aggregate.Source, env)
		innerEnv := env.WithVariables(sourceVariables)
		var calls []physical.AggregateCall
		variables := append([]Binding{}, sourceVariables...)
		for _, call := range node.Aggregate.Calls {
			calls = append(calls, physical.AggregateCall{
				Name:      call.Name,
				Arguments: typecheckArguments(call.Arguments, innerEnv),
				Distinct:  call.Distinct,
				Slot:      call.Slot,
			})
			variables = append(variables, Binding{Name: SlotVariable(call.Slot), Type: partiplan.Dynamic})
		}
		out.Aggregate = &physical.Aggregate{
			Source: source,
			Keys:   typecheckArguments(node.Aggregate.Keys, innerEnv),
			Calls:  calls,
		}
		return out, variables

	case physical.NodeTypeWindow:
		source, sourceVariables := TypecheckNode(node.Window.Source, env)
		innerEnv := env.WithVariables(sourceVariables)
		var calls []physical.WindowCall
		variables := append([]Binding{}, sourceVariables...)
		for _, call := range node.Window.Calls {
			calls = append(calls, physical.WindowCall{
				Name:      call.Name,
				Arguments: typecheckArguments(call.Arguments, innerEnv),
				Slot:      call.Slot,
			})
			variables = append(variables, Binding{Name: SlotVariable(call.Slot), Type: partiplan.Dynamic})
		}
		out.Window = &physical.Window{
			Source: source,
			Specification: physical.WindowSpecification{
				PartitionBy: typecheckArguments(node.Window.Specification.PartitionBy, innerEnv),
				OrderBy:     typecheckSortKeys(node.Window.Specification.OrderBy, innerEnv),
			},
			Calls: calls,
		}
		return out, variables

	case physical.NodeTypeKeyLookup:
		recordType := partiplan.Dynamic
		table, ok := env.resolveByID(node.KeyLookup.TableID)
		if ok {
			recordType = table.RecordType()
		} else {
			env.report(diagnostics.Location{}, diagnostics.ErrUnknownTable, "", nil, node.KeyLookup.Name)
		}
		out.KeyLookup = &physical.KeyLookup{
			TableID: node.KeyLookup.TableID,
			Name:    node.KeyLookup.Name,
			As:      node.KeyLookup.As,
			Keys:    typecheckArguments(node.KeyLookup.Keys, env),
		}
		return out, []Binding{{Name: node.KeyLookup.As, Type: recordType}}
	}

	panic("unexhaustive node type match")
}

// scannedType is the type of the values a scan binds. Scanning a non-collection binds the value itself.
func scannedType(t partiplan.Type) partiplan.Type {
	flat := partiplan.Flatten(t)
	if element, ok := flat.Element(); ok {
		return element
	}
	return t
}

func typecheckSortKeys(keys []physical.SortKey, env Environment) []physical.SortKey {
	if keys == nil {
		return nil
	}
	out := make([]physical.SortKey, len(keys))
	for i := range keys {
		out[i] = physical.SortKey{
			Expression: TypecheckExpression(keys[i].Expression, env),
			Descending: keys[i].Descending,
			NullsFirst: keys[i].NullsFirst,
		}
	}
	return out
}
