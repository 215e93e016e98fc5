package physical

import (
	"fmt"
)

type Node struct {
	Metadata Metadata

	NodeType NodeType
	// Only one of the below may be non-null.
	Scan      *Scan
	Filter    *Filter
	Project   *Project
	Sort      *Sort
	Limit     *Limit
	Join      *Join
	SetOp     *SetOp
	Aggregate *Aggregate
	Window    *Window
	KeyLookup *KeyLookup
}

// Metadata labels implementation choices made by passes.
type Metadata struct {
	Implementation string
}

const (
	ImplementationDefault  = ""
	ImplementationGetByKey = "get_by_key"
)

type NodeType int

const (
	NodeTypeScan NodeType = iota
	NodeTypeFilter
	NodeTypeProject
	NodeTypeSort
	NodeTypeLimit
	NodeTypeJoin
	NodeTypeSetOp
	NodeTypeAggregate
	NodeTypeWindow
	NodeTypeKeyLookup
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeScan:
		return "scan"
	case NodeTypeFilter:
		return "filter"
	case NodeTypeProject:
		return "project"
	case NodeTypeSort:
		return "sort"
	case NodeTypeLimit:
		return "limit"
	case NodeTypeJoin:
		return "join"
	case NodeTypeSetOp:
		return "set_op"
	case NodeTypeAggregate:
		return "aggregate"
	case NodeTypeWindow:
		return "window"
	case NodeTypeKeyLookup:
		return "key_lookup"
	}
	return "unknown"
}

// Scan iterates over the elements of its source, binding each to As and its position to At.
type Scan struct {
	Source Expression
	As     string
	At     string
}

type Filter struct {
	Source    Node
	Predicate Expression
}

type Project struct {
	Source      Node
	Expressions []Expression
	Aliases     []string
}

type SortKey struct {
	Expression Expression
	Descending bool
	NullsFirst bool
}

type Sort struct {
	Source Node
	Keys   []SortKey
}

type Limit struct {
	Source Node
	Count  Expression
}

type JoinKind int

const (
	JoinKindInner JoinKind = iota
	JoinKindLeft
	JoinKindRight
	JoinKindFull
)

func (k JoinKind) String() string {
	switch k {
	case JoinKindInner:
		return "inner"
	case JoinKindLeft:
		return "left"
	case JoinKindRight:
		return "right"
	case JoinKindFull:
		return "full"
	}
	return "unknown"
}

type Join struct {
	Kind      JoinKind
	Left      Node
	Right     Node
	Condition Expression
}

type SetOpKind int

const (
	SetOpKindUnion SetOpKind = iota
	SetOpKindIntersect
	SetOpKindExcept
)

func (k SetOpKind) String() string {
	switch k {
	case SetOpKindUnion:
		return "union"
	case SetOpKindIntersect:
		return "intersect"
	case SetOpKindExcept:
		return "except"
	}
	return "unknown"
}

// SetOp combines the rows of two sources. Without All, duplicates are removed.
type SetOp struct {
	Kind  SetOpKind
	All   bool
	Left  Node
	Right Node
}

// AggregateCall binds an aggregate function to the output slot holding its result.
type AggregateCall struct {
	Name      string
	Arguments []Expression
	Distinct  bool
	Slot      int
}

type Aggregate struct {
	Source Node
	Keys   []Expression
	Calls  []AggregateCall
}

// WindowSpecification describes the partitioned and ordered view window functions are computed over.
type WindowSpecification struct {
	PartitionBy []Expression
	OrderBy     []SortKey
}

// WindowCall binds a window function to the output slot holding its result.
type WindowCall struct {
	Name      string
	Arguments []Expression
	Slot      int
}

type Window struct {
	Source        Node
	Specification WindowSpecification
	Calls         []WindowCall
}

// KeyLookup fetches the records of a table with the given primary key values.
// Keys are ordered like the table's primary key fields.
type KeyLookup struct {
	TableID string
	Name    string
	As      string
	Keys    []Expression
}

func NewScan(source Expression, as string) Node {
	return Node{
		NodeType: NodeTypeScan,
		Scan: &Scan{
			Source: source,
			As:     as,
		},
	}
}

func NewFilter(source Node, predicate Expression) Node {
	return Node{
		NodeType: NodeTypeFilter,
		Filter: &Filter{
			Source:    source,
			Predicate: predicate,
		},
	}
}

func NewProject(source Node, expressions []Expression, aliases []string) Node {
	if len(expressions) != len(aliases) {
		panic(fmt.Sprintf("project has %d expressions but %d aliases", len(expressions), len(aliases)))
	}
	return Node{
		NodeType: NodeTypeProject,
		Project: &Project{
			Source:      source,
			Expressions: expressions,
			Aliases:     aliases,
		},
	}
}

func NewSort(source Node, keys ...SortKey) Node {
	return Node{
		NodeType: NodeTypeSort,
		Sort: &Sort{
			Source: source,
			Keys:   keys,
		},
	}
}

func NewLimit(source Node, count Expression) Node {
	return Node{
		NodeType: NodeTypeLimit,
		Limit: &Limit{
			Source: source,
			Count:  count,
		},
	}
}

func NewJoin(kind JoinKind, left, right Node, condition Expression) Node {
	return Node{
		NodeType: NodeTypeJoin,
		Join: &Join{
			Kind:      kind,
			Left:      left,
			Right:     right,
			Condition: condition,
		},
	}
}

func NewSetOp(kind SetOpKind, all bool, left, right Node) Node {
	return Node{
		NodeType: NodeTypeSetOp,
		SetOp: &SetOp{
			Kind:  kind,
			All:   all,
			Left:  left,
			Right: right,
		},
	}
}

func NewAggregate(source Node, keys []Expression, calls ...AggregateCall) Node {
	return Node{
		NodeType: NodeTypeAggregate,
		Aggregate: &Aggregate{
			Source: source,
			Keys:   keys,
			Calls:  calls,
		},
	}
}

func NewWindow(source Node, spec WindowSpecification, calls ...WindowCall) Node {
	return Node{
		NodeType: NodeTypeWindow,
		Window: &Window{
			Source:        source,
			Specification: spec,
			Calls:         calls,
		},
	}
}

func NewKeyLookup(tableID, name, as string, keys []Expression) Node {
	return Node{
		Metadata: Metadata{
			Implementation: ImplementationGetByKey,
		},
		NodeType: NodeTypeKeyLookup,
		KeyLookup: &KeyLookup{
			TableID: tableID,
			Name:    name,
			As:      as,
			Keys:    keys,
		},
	}
}

// Children returns the direct sub-plans of the node, in evaluation order.
func (node Node) Children() []Node {
	switch node.NodeType {
	case NodeTypeScan, NodeTypeKeyLookup:
		return nil
	case NodeTypeFilter:
		return []Node{node.Filter.Source}
	case NodeTypeProject:
		return []Node{node.Project.Source}
	case NodeTypeSort:
		return []Node{node.Sort.Source}
	case NodeTypeLimit:
		return []Node{node.Limit.Source}
	case NodeTypeJoin:
		return []Node{node.Join.Left, node.Join.Right}
	case NodeTypeSetOp:
		return []Node{node.SetOp.Left, node.SetOp.Right}
	case NodeTypeAggregate:
		return []Node{node.Aggregate.Source}
	case NodeTypeWindow:
		return []Node{node.Window.Source}
	}
	panic("unexhaustive node type match")
}

// State allocates result slots for aggregate and window calls.
// A single State should be used for a whole plan, so that slots are unique across it.
type State struct {
	slotCounter int
}

func (state *State) NextSlot() int {
	out := state.slotCounter
	state.slotCounter++
	return out
}

func (state *State) NewAggregateCall(name string, distinct bool, arguments ...Expression) AggregateCall {
	return AggregateCall{
		Name:      name,
		Arguments: arguments,
		Distinct:  distinct,
		Slot:      state.NextSlot(),
	}
}

func (state *State) NewWindowCall(name string, arguments ...Expression) WindowCall {
	return WindowCall{
		Name:      name,
		Arguments: arguments,
		Slot:      state.NextSlot(),
	}
}

// Validate checks that call result slots are unique in the whole plan and increase
// in declaration order within each operator.
func Validate(node Node) error {
	return validate(node, make(map[int]NodeType))
}

func validate(node Node, seen map[int]NodeType) error {
	var slots []int
	switch node.NodeType {
	case NodeTypeAggregate:
		for _, call := range node.Aggregate.Calls {
			slots = append(slots, call.Slot)
		}
	case NodeTypeWindow:
		for _, call := range node.Window.Calls {
			slots = append(slots, call.Slot)
		}
	}
	for i, slot := range slots {
		if other, ok := seen[slot]; ok {
			return fmt.Errorf("slot %d of %s is already used by a %s", slot, node.NodeType, other)
		}
		seen[slot] = node.NodeType
		if i > 0 && slots[i-1] >= slot {
			return fmt.Errorf("slot %d of %s isn't greater than preceding slot %d", slot, node.NodeType, slots[i-1])
		}
	}

	for i, child := range node.Children() {
		if err := validate(child, seen); err != nil {
			return fmt.Errorf("invalid %s child %d: %w", node.NodeType, i, err)
		}
	}
	return nil
}
