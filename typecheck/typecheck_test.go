package typecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/partiplan/catalog"
	"github.com/cube2222/partiplan/diagnostics"
	"github.com/cube2222/partiplan/partiplan"
	. "github.com/cube2222/partiplan/physical"
)

var peopleRecord = partiplan.NewStruct([]partiplan.StructField{
	{Name: "id", Type: partiplan.BigInt},
	{Name: "name", Type: partiplan.String},
	{Name: "age", Type: partiplan.Int},
	{Name: "score", Type: partiplan.NewDecimal(5, 2)},
}, partiplan.Closed())

func testCatalog(t *testing.T) (*catalog.Catalog, catalog.Table) {
	c := catalog.New()
	table, err := c.Add(catalog.Table{
		ID:         "tbl_people",
		Name:       "people",
		Type:       partiplan.NewBag(peopleRecord),
		PrimaryKey: []string{"id"},
	})
	require.NoError(t, err)
	return c, table
}

func testEnvironment(t *testing.T, variables ...Binding) (Environment, *diagnostics.Collector) {
	c, _ := testCatalog(t)
	collector := &diagnostics.Collector{}
	env := Environment{
		Tables: c,
		Sink:   collector,
	}
	return env.WithVariables(variables), collector
}

func kinds(collector *diagnostics.Collector) []string {
	var out []string
	for _, d := range collector.Diagnostics() {
		out = append(out, d.Err.Error())
	}
	return out
}

func TestVariableContext(t *testing.T) {
	var root *VariableContext
	outer := root.WithVariables([]Binding{{Name: "a", Type: partiplan.Int}, {Name: "b", Type: partiplan.Bool}})
	inner := outer.WithVariables([]Binding{{Name: "a", Type: partiplan.String}})

	got, ok := inner.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, partiplan.String, got)

	got, ok = inner.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, partiplan.Bool, got)

	got, ok = outer.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, partiplan.Int, got)

	_, ok = inner.Lookup("c")
	assert.False(t, ok)
	_, ok = root.Lookup("a")
	assert.False(t, ok)
}

func TestTypecheckExpression(t *testing.T) {
	p := NewVariable("p", partiplan.Dynamic)
	loc := diagnostics.Location{Line: 1, Column: 8}

	tests := []struct {
		name       string
		expr       Expression
		wantType   partiplan.Type
		wantString string
		wantErrors []string
	}{
		{
			name:       "path into record",
			expr:       NewPath(p, Step("NAME")),
			wantType:   partiplan.String,
			wantString: "p.NAME",
		},
		{
			name:       "case-sensitive path step doesn't match different case",
			expr:       NewPath(p, QuotedStep("NAME")),
			wantType:   partiplan.Dynamic,
			wantString: `p."NAME"`,
			wantErrors: []string{`type closed struct{id: bigint, name: string, age: int, score: decimal(5,2)} has no field "NAME"`},
		},
		{
			name:       "comparison casts the lower precedence operand",
			expr:       NewEq(NewPath(p, Step("id")), NewConstant(partiplan.NewInt(42))),
			wantType:   partiplan.Bool,
			wantString: "(p.id = CAST(42 AS bigint))",
		},
		{
			name:       "comparison of equal types stays as is",
			expr:       NewEq(NewPath(p, Step("age")), NewConstant(partiplan.NewInt(42))),
			wantType:   partiplan.Bool,
			wantString: "(p.age = 42)",
		},
		{
			name: "incompatible comparison",
			expr: NewFunctionCall(OperatorLess, []Expression{
				NewPath(p, Step("age")),
				NewConstant(partiplan.NewBool(true)),
			}, partiplan.Bool).WithLocation(loc),
			wantType:   partiplan.Bool,
			wantString: "(p.age < true)",
			wantErrors: []string{"operator < can't compare int with bool"},
		},
		{
			name: "arithmetic promotes the narrower operand",
			expr: NewFunctionCall(OperatorAdd, []Expression{
				NewPath(p, Step("age")),
				NewPath(p, Step("id")),
			}, partiplan.Dynamic),
			wantType:   partiplan.BigInt,
			wantString: "(CAST(p.age AS bigint) + p.id)",
		},
		{
			name: "decimal arithmetic derives precision and scale",
			expr: NewFunctionCall(OperatorAdd, []Expression{
				NewPath(p, Step("score")),
				NewPath(p, Step("score")),
			}, partiplan.Dynamic),
			wantType:   partiplan.NewDecimal(6, 2),
			wantString: "(p.score + p.score)",
		},
		{
			name: "arithmetic on text",
			expr: NewFunctionCall(OperatorMultiply, []Expression{
				NewPath(p, Step("name")),
				NewConstant(partiplan.NewInt(2)),
			}, partiplan.Dynamic),
			wantType:   partiplan.Dynamic,
			wantString: "(p.name * 2)",
			wantErrors: []string{"operator * can't be applied to string and int"},
		},
		{
			name:       "unary minus",
			expr:       NewFunctionCall(OperatorSubtract, []Expression{NewPath(p, Step("age"))}, partiplan.Dynamic),
			wantType:   partiplan.Int,
			wantString: "-p.age",
		},
		{
			name:       "unary minus on bool",
			expr:       NewFunctionCall(OperatorSubtract, []Expression{NewConstant(partiplan.NewBool(false))}, partiplan.Dynamic),
			wantType:   partiplan.Dynamic,
			wantString: "-false",
			wantErrors: []string{"unary operator - can't be applied to bool"},
		},
		{
			name: "concatenation of a number",
			expr: NewFunctionCall(OperatorConcat, []Expression{
				NewPath(p, Step("name")),
				NewPath(p, Step("age")),
			}, partiplan.Dynamic),
			wantType:   partiplan.String,
			wantString: "(p.name || p.age)",
			wantErrors: []string{"operator || can't be applied to int"},
		},
		{
			name:       "and of non-boolean",
			expr:       NewAnd(NewConstant(partiplan.NewBool(true)), NewPath(p, Step("name"))),
			wantType:   partiplan.Bool,
			wantString: "(true AND p.name)",
			wantErrors: []string{"and predicate must be bool, got string"},
		},
		{
			name:       "valid cast",
			expr:       NewCast(NewPath(p, Step("age")), partiplan.BigInt, false),
			wantType:   partiplan.BigInt,
			wantString: "CAST(p.age AS bigint)",
		},
		{
			name:       "invalid cast",
			expr:       NewCast(NewPath(p, Step("age")), partiplan.Date, false),
			wantType:   partiplan.Date,
			wantString: "CAST(p.age AS date)",
			wantErrors: []string{"can't cast int to date"},
		},
		{
			name:       "cast of an unknown field",
			expr:       NewCast(NewPath(NewVariable("d", partiplan.Dynamic), Step("x")), partiplan.Int, false),
			wantType:   partiplan.Int,
			wantString: "CAST(d.x AS int)",
		},
		{
			name:       "cast of null",
			expr:       NewCast(NewConstant(partiplan.NewNull()), partiplan.Int, false),
			wantType:   partiplan.Int,
			wantString: "CAST(NULL AS int)",
		},
		{
			name:       "unknown variable",
			expr:       NewVariable("q", partiplan.Dynamic),
			wantType:   partiplan.Dynamic,
			wantString: "q",
			wantErrors: []string{`unknown variable "q"`},
		},
		{
			name:       "unknown table",
			expr:       NewGlobal("", "nope", partiplan.Dynamic),
			wantType:   partiplan.Dynamic,
			wantErrors: []string{`unknown table "nope"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, collector := testEnvironment(t,
				Binding{Name: "p", Type: peopleRecord},
				Binding{Name: "d", Type: partiplan.NewAnyStruct()},
			)

			got := TypecheckExpression(tt.expr, env)

			assert.True(t, tt.wantType.Equal(got.Type), "got type %s, want %s", got.Type, tt.wantType)
			if tt.wantString != "" {
				assert.Equal(t, tt.wantString, got.String())
			}
			assert.Equal(t, tt.wantErrors, kinds(collector))
		})
	}
}

func TestTypecheckExpressionDiagnosticContext(t *testing.T) {
	env, collector := testEnvironment(t, Binding{Name: "p", Type: peopleRecord})
	loc := diagnostics.Location{Line: 3, Column: 14}

	TypecheckExpression(NewFunctionCall(OperatorDivide, []Expression{
		NewPath(NewVariable("p", partiplan.Dynamic), Step("name")),
		NewConstant(partiplan.NewInt(2)),
	}, partiplan.Dynamic).WithLocation(loc), env)

	reported := collector.Diagnostics()
	require.Len(t, reported, 1)
	assert.Equal(t, loc, reported[0].Location)
	assert.Equal(t, diagnostics.SeverityError, reported[0].Severity)
	assert.Equal(t, OperatorDivide, reported[0].Operator)
	assert.Equal(t, []partiplan.Type{partiplan.String, partiplan.Int}, reported[0].Operands)
	assert.True(t, diagnostics.ErrIncompatibleArithmetic.Is(reported[0].Err))
}

func TestTypecheckPathOnUnion(t *testing.T) {
	withCode := partiplan.NewStruct([]partiplan.StructField{{Name: "code", Type: partiplan.Int}}, partiplan.Closed())
	withName := partiplan.NewStruct([]partiplan.StructField{{Name: "name", Type: partiplan.String}}, partiplan.Closed())
	env, collector := testEnvironment(t, Binding{Name: "v", Type: partiplan.NewUnion(withCode, withName)})

	got := TypecheckExpression(NewPath(NewVariable("v", partiplan.Dynamic), Step("code")), env)
	assert.True(t, partiplan.Int.Equal(got.Type), "got %s", got.Type)
	assert.Empty(t, collector.Diagnostics())

	got = TypecheckExpression(NewPath(NewVariable("v", partiplan.Dynamic), Step("missing")), env)
	assert.True(t, partiplan.Dynamic.Equal(got.Type))
	assert.Len(t, collector.Diagnostics(), 1)
}

func TestCheck(t *testing.T) {
	c, table := testCatalog(t)

	plan := NewLimit(
		NewFilter(
			NewScan(NewGlobal("", "People", partiplan.Dynamic), "p"),
			NewAnd(
				NewEq(NewPath(NewVariable("p", partiplan.Dynamic), Step("id")), NewConstant(partiplan.NewInt(1))),
				NewEq(NewPath(NewVariable("p", partiplan.Dynamic), Step("name")), NewConstant(partiplan.NewString("x"))),
			),
		),
		NewConstant(partiplan.NewInt(10)),
	)

	typed, collector := Check(plan, c)
	require.False(t, collector.HasErrors(), collector.String())

	scan := typed.Limit.Source.Filter.Source.Scan
	assert.Equal(t, table.ID, scan.Source.Global.TableID)
	assert.Equal(t, "people", scan.Source.Global.Name)
	assert.True(t, table.Type.Equal(scan.Source.Type))

	assert.Equal(t, `((p.id = CAST(1 AS bigint)) AND (p.name = "x"))`, typed.Limit.Source.Filter.Predicate.String())
}

func TestCheckCastOfDynamicField(t *testing.T) {
	c := catalog.New()
	_, err := c.Add(catalog.Table{
		ID:   "tbl_events",
		Name: "events",
		Type: partiplan.NewBag(partiplan.NewAnyStruct()),
	})
	require.NoError(t, err)

	plan := NewFilter(
		NewScan(NewGlobal("", "events", partiplan.Dynamic), "f"),
		NewEq(
			NewCast(NewPath(NewVariable("f", partiplan.Dynamic), Step("x")), partiplan.Int, false),
			NewConstant(partiplan.NewInt(1)),
		),
	)

	typed, collector := Check(plan, c)
	require.False(t, collector.HasErrors(), collector.String())
	assert.Equal(t, "(CAST(f.x AS int) = 1)", typed.Filter.Predicate.String())
	assert.True(t, typed.Filter.Predicate.FunctionCall.Arguments[0].Cast.Nullable)
}

func TestCheckReportsNodeErrors(t *testing.T) {
	c, table := testCatalog(t)
	p := NewVariable("p", partiplan.Dynamic)

	tests := []struct {
		name       string
		plan       Node
		wantErrors []string
	}{
		{
			name:       "non-boolean filter",
			plan:       NewFilter(NewScan(NewGlobal(table.ID, "people", partiplan.Dynamic), "p"), NewPath(p, Step("age"))),
			wantErrors: []string{"filter predicate must be bool, got int"},
		},
		{
			name:       "variable out of scope",
			plan:       NewFilter(NewScan(NewGlobal(table.ID, "people", partiplan.Dynamic), "p"), NewEq(NewVariable("x", partiplan.Dynamic), NewConstant(partiplan.NewInt(1)))),
			wantErrors: []string{`unknown variable "x"`},
		},
		{
			name: "scan variables aren't visible in limit",
			plan: NewLimit(
				NewScan(NewGlobal(table.ID, "people", partiplan.Dynamic), "p"),
				NewPath(p, Step("age")),
			),
			wantErrors: []string{`unknown variable "p"`},
		},
		{
			name: "non-numeric limit",
			plan: NewLimit(
				NewScan(NewGlobal(table.ID, "people", partiplan.Dynamic), "p"),
				NewConstant(partiplan.NewString("ten")),
			),
			wantErrors: []string{"operator limit can't be applied to string"},
		},
		{
			name: "join sees both sides",
			plan: NewJoin(JoinKindInner,
				NewScan(NewGlobal(table.ID, "people", partiplan.Dynamic), "a"),
				NewScan(NewGlobal(table.ID, "people", partiplan.Dynamic), "b"),
				NewEq(NewPath(NewVariable("a", partiplan.Dynamic), Step("id")), NewPath(NewVariable("b", partiplan.Dynamic), Step("id"))),
			),
		},
		{
			name: "set operation sides don't see each other",
			plan: NewSetOp(SetOpKindUnion, false,
				NewScan(NewGlobal(table.ID, "people", partiplan.Dynamic), "a"),
				NewFilter(
					NewScan(NewGlobal(table.ID, "people", partiplan.Dynamic), "b"),
					NewEq(NewPath(NewVariable("a", partiplan.Dynamic), Step("id")), NewPath(NewVariable("b", partiplan.Dynamic), Step("id"))),
				),
			),
			wantErrors: []string{`unknown variable "a"`},
		},
		{
			name:       "unknown key lookup table",
			plan:       NewKeyLookup("tbl_missing", "missing", "p", []Expression{NewConstant(partiplan.NewInt(1))}),
			wantErrors: []string{`unknown table "missing"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, collector := Check(tt.plan, c)
			assert.Equal(t, tt.wantErrors, kinds(collector))
		})
	}
}

func TestCheckBindsSlotsAndPositions(t *testing.T) {
	c, table := testCatalog(t)
	state := &State{}
	p := NewVariable("p", partiplan.Dynamic)

	scan := NewScan(NewGlobal(table.ID, "people", partiplan.Dynamic), "p")
	scan.Scan.At = "i"
	rank := state.NewWindowCall("rank")
	window := NewWindow(scan, WindowSpecification{
		PartitionBy: []Expression{NewPath(p, Step("age"))},
	}, rank)
	plan := NewProject(window,
		[]Expression{NewVariable(SlotVariable(rank.Slot), partiplan.Dynamic), NewVariable("i", partiplan.Dynamic)},
		[]string{"rank", "position"},
	)

	typed, collector := Check(plan, c)
	require.False(t, collector.HasErrors(), collector.String())
	assert.True(t, partiplan.Dynamic.Equal(typed.Project.Expressions[0].Type))
	assert.True(t, partiplan.BigInt.Equal(typed.Project.Expressions[1].Type))
	assert.True(t, partiplan.Int.Equal(typed.Project.Source.Window.Specification.PartitionBy[0].Type))
}

func TestCheckKeyLookupBindsRecord(t *testing.T) {
	c, table := testCatalog(t)

	plan := NewProject(
		NewKeyLookup(table.ID, table.Name, "p", []Expression{NewConstant(partiplan.NewInt(1))}),
		[]Expression{NewPath(NewVariable("p", partiplan.Dynamic), Step("name"))},
		[]string{"name"},
	)

	typed, collector := Check(plan, c)
	require.False(t, collector.HasErrors(), collector.String())
	assert.True(t, partiplan.String.Equal(typed.Project.Expressions[0].Type))
	assert.Equal(t, ImplementationGetByKey, typed.Project.Source.Metadata.Implementation)
}
