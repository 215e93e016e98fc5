package catalog

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/partiplan/partiplan"
)

func TestCatalog(t *testing.T) {
	c := New()

	orders, err := c.Add(Table{
		Name:       "Orders",
		Type:       partiplan.MustParseType("bag<struct{id: int, customer: string}>"),
		PrimaryKey: []string{"id"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, orders.ID)

	_, err = c.Add(Table{
		ID:   "customers-id",
		Name: "customers",
		Type: partiplan.MustParseType("bag<struct{id: int}>"),
	})
	require.NoError(t, err)

	got, ok := c.Resolve("orders")
	require.True(t, ok)
	assert.Equal(t, orders, got)

	again, ok := c.Resolve("ORDERS")
	require.True(t, ok)
	assert.Equal(t, got, again)

	byID, ok := c.ResolveByID("customers-id")
	require.True(t, ok)
	assert.Equal(t, "customers", byID.Name)

	_, ok = c.Resolve("missing")
	assert.False(t, ok)
	_, err = c.Get("missing")
	assert.Equal(t, ErrNotFound, errors.Cause(err))

	tables := c.Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, "customers", tables[0].Name)
	assert.Equal(t, "Orders", tables[1].Name)
}

func TestCatalogAddErrors(t *testing.T) {
	c := New()
	_, err := c.Add(Table{Name: "t", Type: partiplan.MustParseType("bag<closed struct{a: int}>")})
	require.NoError(t, err)

	_, err = c.Add(Table{Name: "T", Type: partiplan.MustParseType("bag<struct{a: int}>")})
	assert.Error(t, err, "names are case-insensitive")

	_, err = c.Add(Table{Name: "u", Type: partiplan.MustParseType("bag<closed struct{a: int}>"), PrimaryKey: []string{"b"}})
	assert.Error(t, err)

	_, err = c.Add(Table{Name: "v", Type: partiplan.Dynamic, PrimaryKey: []string{"id"}})
	assert.Error(t, err, "only collections have primary keys")

	_, err = c.Add(Table{Name: "w", Type: partiplan.MustParseType("struct{id: int}"), PrimaryKey: []string{"id"}})
	assert.Error(t, err, "only collections have primary keys")

	_, err = c.Add(Table{Name: "x", Type: partiplan.Dynamic})
	assert.NoError(t, err)

	_, err = c.Add(Table{Name: ""})
	assert.Error(t, err)
}

func TestRecordType(t *testing.T) {
	table := Table{Type: partiplan.MustParseType("bag<struct{a: int}>")}
	assert.Equal(t, partiplan.MustParseType("struct{a: int}"), table.RecordType())
	assert.Equal(t, partiplan.Dynamic, Table{Type: partiplan.Dynamic}.RecordType())
}
