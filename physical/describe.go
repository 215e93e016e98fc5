package physical

import (
	"fmt"
	"strings"

	"github.com/mitchellh/hashstructure"

	"github.com/cube2222/partiplan/graph"
)

func (node Node) Visualize() *graph.Node {
	var out *graph.Node
	switch node.NodeType {
	case NodeTypeScan:
		out = graph.NewNode("scan")
		out.AddField("source", node.Scan.Source.String())
		out.AddField("as", node.Scan.As)
		if node.Scan.At != "" {
			out.AddField("at", node.Scan.At)
		}

	case NodeTypeFilter:
		out = graph.NewNode("filter")
		out.AddField("predicate", node.Filter.Predicate.String())
		out.AddChild("source", node.Filter.Source.Visualize())

	case NodeTypeProject:
		out = graph.NewNode("project")
		for i := range node.Project.Expressions {
			out.AddField(node.Project.Aliases[i], node.Project.Expressions[i].String())
		}
		out.AddChild("source", node.Project.Source.Visualize())

	case NodeTypeSort:
		out = graph.NewNode("sort")
		out.AddField("keys", describeSortKeys(node.Sort.Keys))
		out.AddChild("source", node.Sort.Source.Visualize())

	case NodeTypeLimit:
		out = graph.NewNode("limit")
		out.AddField("count", node.Limit.Count.String())
		out.AddChild("source", node.Limit.Source.Visualize())

	case NodeTypeJoin:
		out = graph.NewNode(fmt.Sprintf("%s join", node.Join.Kind))
		out.AddField("condition", node.Join.Condition.String())
		out.AddChild("left", node.Join.Left.Visualize())
		out.AddChild("right", node.Join.Right.Visualize())

	case NodeTypeSetOp:
		name := node.SetOp.Kind.String()
		if node.SetOp.All {
			name += " all"
		}
		out = graph.NewNode(name)
		out.AddChild("left", node.SetOp.Left.Visualize())
		out.AddChild("right", node.SetOp.Right.Visualize())

	case NodeTypeAggregate:
		out = graph.NewNode("aggregate")
		out.AddField("keys", joinExpressions(node.Aggregate.Keys, ", "))
		for _, call := range node.Aggregate.Calls {
			distinct := ""
			if call.Distinct {
				distinct = "distinct "
			}
			out.AddField(fmt.Sprintf("$%d", call.Slot), fmt.Sprintf("%s(%s%s)", call.Name, distinct, joinExpressions(call.Arguments, ", ")))
		}
		out.AddChild("source", node.Aggregate.Source.Visualize())

	case NodeTypeWindow:
		out = graph.NewNode("window")
		out.AddField("partition by", joinExpressions(node.Window.Specification.PartitionBy, ", "))
		out.AddField("order by", describeSortKeys(node.Window.Specification.OrderBy))
		for _, call := range node.Window.Calls {
			out.AddField(fmt.Sprintf("$%d", call.Slot), fmt.Sprintf("%s(%s)", call.Name, joinExpressions(call.Arguments, ", ")))
		}
		out.AddChild("source", node.Window.Source.Visualize())

	case NodeTypeKeyLookup:
		out = graph.NewNode("key lookup")
		out.AddField("table", fmt.Sprintf("%s (%s)", node.KeyLookup.Name, node.KeyLookup.TableID))
		out.AddField("as", node.KeyLookup.As)
		out.AddField("keys", "["+joinExpressions(node.KeyLookup.Keys, ", ")+"]")

	default:
		panic("unexhaustive node type match")
	}

	if node.Metadata.Implementation != ImplementationDefault {
		out.AddField("implementation", node.Metadata.Implementation)
	}

	return out
}

func describeSortKeys(keys []SortKey) string {
	parts := make([]string, len(keys))
	for i, key := range keys {
		var sb strings.Builder
		sb.WriteString(key.Expression.String())
		if key.Descending {
			sb.WriteString(" DESC")
		} else {
			sb.WriteString(" ASC")
		}
		if key.NullsFirst {
			sb.WriteString(" NULLS FIRST")
		}
		parts[i] = sb.String()
	}
	return strings.Join(parts, ", ")
}

// Describe returns the plan as indented text.
func Describe(node Node) string {
	return graph.Text(node.Visualize())
}

// planFingerprint is what gets hashed. Descriptions leave out expression types, so they're listed on their own.
type planFingerprint struct {
	Description string
	Types       []string
}

// Fingerprint returns a hash of the plan's description and its expression types.
// Plans that describe identically and are typed the same way have equal fingerprints.
func Fingerprint(node Node) uint64 {
	fingerprint := planFingerprint{Description: Describe(node)}
	collectTypes := &Transformers{
		ExpressionTransformer: func(expr Expression) Expression {
			fingerprint.Types = append(fingerprint.Types, expr.Type.String())
			return expr
		},
	}
	collectTypes.TransformNode(node)

	hash, err := hashstructure.Hash(fingerprint, nil)
	if err != nil {
		panic(fmt.Sprintf("couldn't hash plan: %s", err))
	}
	return hash
}
