package matcher

import (
	"log"

	"github.com/cube2222/partiplan/physical"
)

// Match holds the named parts of a plan captured by matchers.
type Match struct {
	Nodes       map[string]physical.Node
	Expressions map[string]physical.Expression
	Strings     map[string]string
}

func NewMatch() *Match {
	return &Match{
		Nodes:       make(map[string]physical.Node),
		Expressions: make(map[string]physical.Expression),
		Strings:     make(map[string]string),
	}
}

// Node returns the node captured under the given name.
// A missing capture means the pass was applied to a plan it didn't match, so it panics.
func (match *Match) Node(name string) physical.Node {
	node, ok := match.Nodes[name]
	if !ok {
		log.Panicf("Expected to find node named %v after match, found %+v", name, match.Nodes)
	}
	return node
}

func (match *Match) Expression(name string) physical.Expression {
	expr, ok := match.Expressions[name]
	if !ok {
		log.Panicf("Expected to find expression named %v after match, found %+v", name, match.Expressions)
	}
	return expr
}

func (match *Match) String(name string) string {
	text, ok := match.Strings[name]
	if !ok {
		log.Panicf("Expected to find string named %v after match, found %+v", name, match.Strings)
	}
	return text
}
