package optimizer

import (
	"github.com/cube2222/partiplan/diagnostics"
	"github.com/cube2222/partiplan/optimizer/matcher"
	. "github.com/cube2222/partiplan/physical"
)

var RemoveUselessFilters = Pass{
	Name:        "remove_useless_filters",
	Description: "Drops literally true conjuncts, and filters left with nothing else.",
	Pattern: &matcher.FilterMatcher{
		Name: "filter",
	},
	Apply: func(match *matcher.Match, sink diagnostics.Sink) Node {
		filter := match.Node("filter")

		conjuncts := filter.Filter.Predicate.SplitByAnd()
		var remaining []Expression
		for _, conjunct := range conjuncts {
			if !conjunct.IsTrueConstant() {
				remaining = append(remaining, conjunct)
			}
		}

		switch {
		case len(remaining) == 0:
			return filter.Filter.Source
		case len(remaining) == len(conjuncts):
			return filter
		}
		return NewFilter(filter.Filter.Source, JoinByAnd(remaining))
	},
}
