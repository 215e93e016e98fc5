package optimizer

import (
	"github.com/cube2222/partiplan/diagnostics"
	"github.com/cube2222/partiplan/optimizer/matcher"
	. "github.com/cube2222/partiplan/physical"
)

var FuseWindows = Pass{
	Name:        "fuse_windows",
	Description: "Fuses directly nested windows with equal specifications into one, inner calls first.",
	Pattern: &matcher.WindowMatcher{
		Name: "outer",
		Source: &matcher.WindowMatcher{
			Name: "inner",
		},
	},
	Apply: func(match *matcher.Match, sink diagnostics.Sink) Node {
		outer := match.Node("outer")
		spec := outer.Window.Specification

		calls := outer.Window.Calls
		source := match.Node("inner")
		fused := false
		for source.NodeType == NodeTypeWindow && windowSpecificationsEqual(source.Window.Specification, spec) {
			calls = append(append([]WindowCall{}, source.Window.Calls...), calls...)
			source = source.Window.Source
			fused = true
		}
		if !fused {
			return outer
		}

		return Node{
			Metadata: outer.Metadata,
			NodeType: NodeTypeWindow,
			Window: &Window{
				Source:        source,
				Specification: spec,
				Calls:         calls,
			},
		}
	},
}

// Source locations are irrelevant, two windows written separately may share a specification.
func windowSpecificationsEqual(a, b WindowSpecification) bool {
	if len(a.PartitionBy) != len(b.PartitionBy) || len(a.OrderBy) != len(b.OrderBy) {
		return false
	}
	for i := range a.PartitionBy {
		if !expressionsEqual(a.PartitionBy[i], b.PartitionBy[i]) {
			return false
		}
	}
	for i := range a.OrderBy {
		if a.OrderBy[i].Descending != b.OrderBy[i].Descending ||
			a.OrderBy[i].NullsFirst != b.OrderBy[i].NullsFirst ||
			!expressionsEqual(a.OrderBy[i].Expression, b.OrderBy[i].Expression) {
			return false
		}
	}
	return true
}

func expressionsEqual(a, b Expression) bool {
	return a.String() == b.String() && a.Type.Equal(b.Type)
}
