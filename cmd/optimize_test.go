package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/partiplan/catalog"
	"github.com/cube2222/partiplan/partiplan"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		text string
		want partiplan.Type
	}{
		{text: "42", want: partiplan.Int},
		{text: "5000000000", want: partiplan.BigInt},
		{text: "true", want: partiplan.Bool},
		{text: "12.50", want: partiplan.NewDecimal(4, 2)},
		{text: "shipped", want: partiplan.String},
		{text: "1.2.3", want: partiplan.String},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := parseValue(tt.text)
			assert.True(t, tt.want.Equal(got.Type), "got %s, want %s", got.Type, tt.want)
		})
	}
}

func TestDemonstrationPlan(t *testing.T) {
	table := catalog.Table{
		ID:   "tbl_orders",
		Name: "orders",
		Type: partiplan.NewBag(partiplan.NewStruct([]partiplan.StructField{
			{Name: "id", Type: partiplan.Int},
			{Name: "region", Type: partiplan.String},
		})),
		PrimaryKey: []string{"region", "id"},
	}

	plan, err := demonstrationPlan(table, nil)
	require.NoError(t, err)
	assert.Equal(t, `((t.region = "key") AND (t.id = 1))`, plan.Filter.Predicate.String())

	plan, err = demonstrationPlan(table, []string{"id=7"})
	require.NoError(t, err)
	assert.Equal(t, "(t.id = 7)", plan.Filter.Predicate.String())

	_, err = demonstrationPlan(table, []string{"=7"})
	assert.Error(t, err)
}

func TestPrintTables(t *testing.T) {
	var buf bytes.Buffer
	printTables(&buf, []catalog.Table{{
		ID:         "tbl_orders",
		Name:       "orders",
		Type:       partiplan.NewBag(partiplan.NewAnyStruct()),
		PrimaryKey: []string{"id"},
	}})
	out := buf.String()
	assert.Contains(t, out, "primary key")
	assert.Contains(t, out, "orders")
	assert.Contains(t, out, "tbl_orders")
	assert.Contains(t, out, "bag<struct>")
}
