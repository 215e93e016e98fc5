package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cube2222/partiplan/partiplan"
	"github.com/cube2222/partiplan/physical"
)

func TestFilterOverGlobalScan(t *testing.T) {
	pattern := &FilterMatcher{
		Name:      "filter",
		Predicate: &AnyExpressionMatcher{Name: "predicate"},
		Source: &ScanMatcher{
			Name:   "scan",
			Source: &GlobalMatcher{TableID: &AnyStringMatcher{Name: "table"}},
			As:     &AnyStringMatcher{Name: "as"},
		},
	}

	predicate := physical.NewConstant(partiplan.NewBool(true))
	scan := physical.NewScan(physical.NewGlobal("01ORDERS", "orders", partiplan.Dynamic), "f")
	filter := physical.NewFilter(scan, predicate)

	match := NewMatch()
	assert.True(t, pattern.Match(match, filter))
	assert.Equal(t, filter, match.Node("filter"))
	assert.Equal(t, scan, match.Node("scan"))
	assert.Equal(t, predicate, match.Expression("predicate"))
	assert.Equal(t, "01ORDERS", match.String("table"))
	assert.Equal(t, "f", match.String("as"))

	variableScan := physical.NewScan(physical.NewVariable("xs", partiplan.Dynamic), "x")
	assert.False(t, pattern.Match(NewMatch(), physical.NewFilter(variableScan, predicate)))
	assert.False(t, pattern.Match(NewMatch(), scan))
}

func TestWindowOverWindow(t *testing.T) {
	pattern := &WindowMatcher{
		Name:   "outer",
		Source: &WindowMatcher{Name: "inner"},
	}
	state := &physical.State{}
	scan := physical.NewScan(physical.NewVariable("xs", partiplan.Dynamic), "x")
	inner := physical.NewWindow(scan, physical.WindowSpecification{}, state.NewWindowCall("row_number"))
	outer := physical.NewWindow(inner, physical.WindowSpecification{}, state.NewWindowCall("rank"))

	match := NewMatch()
	assert.True(t, pattern.Match(match, outer))
	assert.Equal(t, inner, match.Node("inner"))
	assert.False(t, pattern.Match(NewMatch(), inner))
}

func TestNodeTypeMatcher(t *testing.T) {
	scan := physical.NewScan(physical.NewVariable("xs", partiplan.Dynamic), "x")
	m := &NodeTypeMatcher{Name: "node", NodeType: physical.NodeTypeScan}
	assert.True(t, m.Match(NewMatch(), scan))
	assert.False(t, m.Match(NewMatch(), physical.NewFilter(scan, physical.NewConstant(partiplan.NewBool(true)))))
}

func TestMissingCapturePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewMatch().Node("source")
	})
}
