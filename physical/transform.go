package physical

// Transformers rebuild a plan bottom-up. Children are transformed before their parents,
// and the transformers receive freshly built nodes, never the originals.
type Transformers struct {
	NodeTransformer       func(node Node) Node
	ExpressionTransformer func(expr Expression) Expression
}

func (t *Transformers) TransformNode(node Node) Node {
	var out Node
	switch node.NodeType {
	case NodeTypeScan:
		out = Node{
			Metadata: node.Metadata,
			NodeType: node.NodeType,
			Scan: &Scan{
				Source: t.TransformExpr(node.Scan.Source),
				As:     node.Scan.As,
				At:     node.Scan.At,
			},
		}
	case NodeTypeFilter:
		out = Node{
			Metadata: node.Metadata,
			NodeType: node.NodeType,
			Filter: &Filter{
				Source:    t.TransformNode(node.Filter.Source),
				Predicate: t.TransformExpr(node.Filter.Predicate),
			},
		}
	case NodeTypeProject:
		var aliases []string
		if node.Project.Aliases != nil {
			aliases = make([]string, len(node.Project.Aliases))
			copy(aliases, node.Project.Aliases)
		}

		out = Node{
			Metadata: node.Metadata,
			NodeType: node.NodeType,
			Project: &Project{
				Source:      t.TransformNode(node.Project.Source),
				Expressions: t.transformExprs(node.Project.Expressions),
				Aliases:     aliases,
			},
		}
	case NodeTypeSort:
		out = Node{
			Metadata: node.Metadata,
			NodeType: node.NodeType,
			Sort: &Sort{
				Source: t.TransformNode(node.Sort.Source),
				Keys:   t.transformSortKeys(node.Sort.Keys),
			},
		}
	case NodeTypeLimit:
		out = Node{
			Metadata: node.Metadata,
			NodeType: node.NodeType,
			Limit: &Limit{
				Source: t.TransformNode(node.Limit.Source),
				Count:  t.TransformExpr(node.Limit.Count),
			},
		}
	case NodeTypeJoin:
		out = Node{
			Metadata: node.Metadata,
			NodeType: node.NodeType,
			Join: &Join{
				Kind:      node.Join.Kind,
				Left:      t.TransformNode(node.Join.Left),
				Right:     t.TransformNode(node.Join.Right),
				Condition: t.TransformExpr(node.Join.Condition),
			},
		}
	case NodeTypeSetOp:
		out = Node{
			Metadata: node.Metadata,
			NodeType: node.NodeType,
			SetOp: &SetOp{
				Kind:  node.SetOp.Kind,
				All:   node.SetOp.All,
				Left:  t.TransformNode(node.SetOp.Left),
				Right: t.TransformNode(node.SetOp.Right),
			},
		}
	case NodeTypeAggregate:
		var calls []AggregateCall
		if node.Aggregate.Calls != nil {
			calls = make([]AggregateCall, len(node.Aggregate.Calls))
		}
		for i, call := range node.Aggregate.Calls {
			calls[i] = AggregateCall{
				Name:      call.Name,
				Arguments: t.transformExprs(call.Arguments),
				Distinct:  call.Distinct,
				Slot:      call.Slot,
			}
		}

		out = Node{
			Metadata: node.Metadata,
			NodeType: node.NodeType,
			Aggregate: &Aggregate{
				Source: t.TransformNode(node.Aggregate.Source),
				Keys:   t.transformExprs(node.Aggregate.Keys),
				Calls:  calls,
			},
		}
	case NodeTypeWindow:
		var calls []WindowCall
		if node.Window.Calls != nil {
			calls = make([]WindowCall, len(node.Window.Calls))
		}
		for i, call := range node.Window.Calls {
			calls[i] = WindowCall{
				Name:      call.Name,
				Arguments: t.transformExprs(call.Arguments),
				Slot:      call.Slot,
			}
		}

		out = Node{
			Metadata: node.Metadata,
			NodeType: node.NodeType,
			Window: &Window{
				Source: t.TransformNode(node.Window.Source),
				Specification: WindowSpecification{
					PartitionBy: t.transformExprs(node.Window.Specification.PartitionBy),
					OrderBy:     t.transformSortKeys(node.Window.Specification.OrderBy),
				},
				Calls: calls,
			},
		}
	case NodeTypeKeyLookup:
		out = Node{
			Metadata: node.Metadata,
			NodeType: node.NodeType,
			KeyLookup: &KeyLookup{
				TableID: node.KeyLookup.TableID,
				Name:    node.KeyLookup.Name,
				As:      node.KeyLookup.As,
				Keys:    t.transformExprs(node.KeyLookup.Keys),
			},
		}
	default:
		panic("unexhaustive node type match")
	}

	if t.NodeTransformer != nil {
		out = t.NodeTransformer(out)
	}

	return out
}

func (t *Transformers) TransformExpr(expr Expression) Expression {
	var out Expression
	switch expr.ExpressionType {
	case ExpressionTypeVariable:
		out = Expression{
			Type:           expr.Type,
			Location:       expr.Location,
			ExpressionType: expr.ExpressionType,
			Variable: &Variable{
				Name: expr.Variable.Name,
			},
		}
	case ExpressionTypeGlobal:
		out = Expression{
			Type:           expr.Type,
			Location:       expr.Location,
			ExpressionType: expr.ExpressionType,
			Global: &Global{
				TableID: expr.Global.TableID,
				Name:    expr.Global.Name,
			},
		}
	case ExpressionTypeConstant:
		out = Expression{
			Type:           expr.Type,
			Location:       expr.Location,
			ExpressionType: expr.ExpressionType,
			Constant: &Constant{
				Value: expr.Constant.Value,
			},
		}
	case ExpressionTypePath:
		var steps []PathStep
		if expr.Path.Steps != nil {
			steps = make([]PathStep, len(expr.Path.Steps))
			copy(steps, expr.Path.Steps)
		}

		out = Expression{
			Type:           expr.Type,
			Location:       expr.Location,
			ExpressionType: expr.ExpressionType,
			Path: &Path{
				Root:  t.TransformExpr(expr.Path.Root),
				Steps: steps,
			},
		}
	case ExpressionTypeFunctionCall:
		out = Expression{
			Type:           expr.Type,
			Location:       expr.Location,
			ExpressionType: expr.ExpressionType,
			FunctionCall: &FunctionCall{
				Name:      expr.FunctionCall.Name,
				Arguments: t.transformExprs(expr.FunctionCall.Arguments),
			},
		}
	case ExpressionTypeAnd:
		out = Expression{
			Type:           expr.Type,
			Location:       expr.Location,
			ExpressionType: expr.ExpressionType,
			And: &And{
				Arguments: t.transformExprs(expr.And.Arguments),
			},
		}
	case ExpressionTypeOr:
		out = Expression{
			Type:           expr.Type,
			Location:       expr.Location,
			ExpressionType: expr.ExpressionType,
			Or: &Or{
				Arguments: t.transformExprs(expr.Or.Arguments),
			},
		}
	case ExpressionTypeCast:
		out = Expression{
			Type:           expr.Type,
			Location:       expr.Location,
			ExpressionType: expr.ExpressionType,
			Cast: &Cast{
				Expression: t.TransformExpr(expr.Cast.Expression),
				TargetType: expr.Cast.TargetType,
				Nullable:   expr.Cast.Nullable,
			},
		}
	default:
		panic("unexhaustive expression type match")
	}

	if t.ExpressionTransformer != nil {
		out = t.ExpressionTransformer(out)
	}

	return out
}

func (t *Transformers) transformExprs(exprs []Expression) []Expression {
	if exprs == nil {
		return nil
	}
	out := make([]Expression, len(exprs))
	for i := range exprs {
		out[i] = t.TransformExpr(exprs[i])
	}
	return out
}

func (t *Transformers) transformSortKeys(keys []SortKey) []SortKey {
	if keys == nil {
		return nil
	}
	out := make([]SortKey, len(keys))
	for i, key := range keys {
		out[i] = SortKey{
			Expression: t.TransformExpr(key.Expression),
			Descending: key.Descending,
			NullsFirst: key.NullsFirst,
		}
	}
	return out
}
