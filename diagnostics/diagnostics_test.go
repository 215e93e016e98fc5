package diagnostics

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/partiplan/partiplan"
)

func TestNew(t *testing.T) {
	d := New(
		Location{Line: 3, Column: 14},
		SeverityError,
		ErrIncompatibleArithmetic,
		"+",
		[]partiplan.Type{partiplan.Int, partiplan.String},
		"+", partiplan.Int, partiplan.String,
	)
	assert.True(t, ErrIncompatibleArithmetic.Is(d.Err))
	assert.Equal(t, "3:14: error: operator + can't be applied to int and string", d.String())
}

func TestCollector(t *testing.T) {
	c := &Collector{}
	assert.False(t, c.HasErrors())

	c.Report(New(Location{}, SeverityWarning, ErrUnknownTable, "", nil, "t"))
	assert.False(t, c.HasErrors())
	c.Report(New(Location{}, SeverityError, ErrUnknownVariable, "", nil, "x"))
	assert.True(t, c.HasErrors())

	require.Len(t, c.Diagnostics(), 2)
	assert.Equal(t, "?:?: warning: unknown table \"t\"\n?:?: error: unknown variable \"x\"", c.String())
}

func TestLoggingSink(t *testing.T) {
	logger, hook := test.NewNullLogger()
	next := &Collector{}
	sink := &LoggingSink{
		Log:  logrus.NewEntry(logger),
		Next: next,
	}

	sink.Report(New(Location{Line: 1, Column: 1}, SeverityError, ErrInvalidCast, "cast", []partiplan.Type{partiplan.Bool, partiplan.Date}, partiplan.Bool, partiplan.Date))

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "can't cast bool to date", hook.LastEntry().Message)
	assert.Equal(t, "bool, date", hook.LastEntry().Data["operands"])
	assert.Len(t, next.Diagnostics(), 1)
}
