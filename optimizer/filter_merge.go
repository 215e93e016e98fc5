package optimizer

import (
	"github.com/cube2222/partiplan/diagnostics"
	"github.com/cube2222/partiplan/optimizer/matcher"
	"github.com/cube2222/partiplan/partiplan"
	. "github.com/cube2222/partiplan/physical"
)

var MergeFilters = Pass{
	Name:        "merge_filters",
	Description: "Merges directly nested filters into a single filter.",
	Pattern: &matcher.FilterMatcher{
		Name: "parent",
		Source: &matcher.FilterMatcher{
			Name: "child",
			Source: &matcher.AnyNodeMatcher{
				Name: "source",
			},
		},
	},
	Apply: func(match *matcher.Match, sink diagnostics.Sink) Node {
		parent := match.Node("parent")
		child := match.Node("child")

		return Node{
			Metadata: parent.Metadata,
			NodeType: NodeTypeFilter,
			Filter: &Filter{
				Predicate: Expression{
					Type:           partiplan.TypeSum(parent.Filter.Predicate.Type, child.Filter.Predicate.Type),
					ExpressionType: ExpressionTypeAnd,
					And: &And{
						Arguments: append(parent.Filter.Predicate.SplitByAnd(), child.Filter.Predicate.SplitByAnd()...),
					},
				},
				Source: match.Node("source"),
			},
		}
	},
}
