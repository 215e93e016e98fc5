package optimizer

import (
	"github.com/cube2222/partiplan/diagnostics"
	"github.com/cube2222/partiplan/optimizer/matcher"
	"github.com/cube2222/partiplan/physical"
)

// Pass is a single pattern-matched rewrite rule.
// Apply is only called with matches produced by Pattern. When it decides not to rewrite
// the matched node, it must return it unchanged.
type Pass struct {
	Name        string
	Description string
	Pattern     matcher.NodeMatcher
	Apply       func(match *matcher.Match, sink diagnostics.Sink) physical.Node
}

// Run rewrites the plan bottom-up. At each node the passes are tried in order
// and the first one whose pattern matches replaces the node.
func Run(plan physical.Node, passes []Pass, sink diagnostics.Sink) physical.Node {
	if sink == nil {
		sink = diagnostics.Discard
	}
	t := physical.Transformers{
		NodeTransformer: func(node physical.Node) physical.Node {
			for _, pass := range passes {
				match := matcher.NewMatch()
				if pass.Pattern.Match(match, node) {
					return pass.Apply(match, sink)
				}
			}
			return node
		},
	}
	return t.TransformNode(plan)
}
