package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree() *Node {
	root := NewNode("filter")
	root.AddField("predicate", "(f.id = 42)")

	scan := NewNode("scan")
	scan.AddField("source", "orders")
	scan.AddField("as", "f")
	root.AddChild("source", scan)
	return root
}

func TestText(t *testing.T) {
	expected := `filter
  predicate: (f.id = 42)
  source:
    scan
      source: orders
      as: f
`
	assert.Equal(t, expected, Text(testTree()))
}

func TestShow(t *testing.T) {
	root := testTree()
	root.AddField("type", "struct{a: int}")
	root.AddChild("other source", NewNode("scan"))

	g, err := Show(root)
	require.NoError(t, err)

	out := g.String()
	assert.True(t, strings.Contains(out, "filter_0"))
	assert.True(t, strings.Contains(out, "scan_0"))
	assert.True(t, strings.Contains(out, "scan_1"))
	assert.True(t, strings.Contains(out, `struct\{a: int\}`))
	assert.True(t, strings.Contains(out, "other_source"))
}
