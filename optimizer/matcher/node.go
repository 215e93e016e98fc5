package matcher

import (
	"github.com/cube2222/partiplan/physical"
)

// NodeMatcher is used to match nodes on various predicates.
type NodeMatcher interface {
	// Match tries to match a node filling the match. Returns true on success.
	Match(match *Match, node physical.Node) bool
}

// Nil child matchers accept anything without capturing it.
func matchNode(m NodeMatcher, match *Match, node physical.Node) bool {
	if m == nil {
		return true
	}
	return m.Match(match, node)
}

func capture(match *Match, name string, node physical.Node) {
	if len(name) > 0 {
		match.Nodes[name] = node
	}
}

// AnyNodeMatcher matches any node.
type AnyNodeMatcher struct {
	Name string
}

func (m *AnyNodeMatcher) Match(match *Match, node physical.Node) bool {
	capture(match, m.Name, node)
	return true
}

// NodeTypeMatcher matches any node of the given type.
type NodeTypeMatcher struct {
	Name     string
	NodeType physical.NodeType
}

func (m *NodeTypeMatcher) Match(match *Match, node physical.Node) bool {
	if node.NodeType != m.NodeType {
		return false
	}
	capture(match, m.Name, node)
	return true
}

// FilterMatcher matches a filter node.
type FilterMatcher struct {
	Name      string
	Predicate ExpressionMatcher
	Source    NodeMatcher
}

func (m *FilterMatcher) Match(match *Match, node physical.Node) bool {
	if node.NodeType != physical.NodeTypeFilter {
		return false
	}
	if !matchExpression(m.Predicate, match, node.Filter.Predicate) {
		return false
	}
	if !matchNode(m.Source, match, node.Filter.Source) {
		return false
	}
	capture(match, m.Name, node)
	return true
}

// ScanMatcher matches a scan node.
type ScanMatcher struct {
	Name   string
	Source ExpressionMatcher
	As     StringMatcher
}

func (m *ScanMatcher) Match(match *Match, node physical.Node) bool {
	if node.NodeType != physical.NodeTypeScan {
		return false
	}
	if !matchExpression(m.Source, match, node.Scan.Source) {
		return false
	}
	if m.As != nil && !m.As.Match(match, node.Scan.As) {
		return false
	}
	capture(match, m.Name, node)
	return true
}

// WindowMatcher matches a window node.
type WindowMatcher struct {
	Name   string
	Source NodeMatcher
}

func (m *WindowMatcher) Match(match *Match, node physical.Node) bool {
	if node.NodeType != physical.NodeTypeWindow {
		return false
	}
	if !matchNode(m.Source, match, node.Window.Source) {
		return false
	}
	capture(match, m.Name, node)
	return true
}
