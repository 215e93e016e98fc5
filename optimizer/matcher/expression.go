package matcher

import "github.com/cube2222/partiplan/physical"

// ExpressionMatcher is used to match expressions on various predicates.
type ExpressionMatcher interface {
	// Match tries to match an expression filling the match. Returns true on success.
	Match(match *Match, expr physical.Expression) bool
}

func matchExpression(m ExpressionMatcher, match *Match, expr physical.Expression) bool {
	if m == nil {
		return true
	}
	return m.Match(match, expr)
}

// AnyExpressionMatcher matches any expression.
type AnyExpressionMatcher struct {
	Name string
}

func (m *AnyExpressionMatcher) Match(match *Match, expr physical.Expression) bool {
	if len(m.Name) > 0 {
		match.Expressions[m.Name] = expr
	}
	return true
}

// GlobalMatcher matches a reference to a catalog table.
type GlobalMatcher struct {
	Name    string
	TableID StringMatcher
}

func (m *GlobalMatcher) Match(match *Match, expr physical.Expression) bool {
	if expr.ExpressionType != physical.ExpressionTypeGlobal {
		return false
	}
	if m.TableID != nil && !m.TableID.Match(match, expr.Global.TableID) {
		return false
	}
	if len(m.Name) > 0 {
		match.Expressions[m.Name] = expr
	}
	return true
}
