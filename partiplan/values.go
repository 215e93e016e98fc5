package partiplan

import (
	"fmt"
	"math"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// Value is a constant appearing in a plan.
type Value struct {
	Type    Type
	Null    bool
	Boolean bool
	Int     int64
	Float   float64
	Decimal *apd.Decimal
	Str     string
}

// NewNull returns the null constant. Its static type is unknown.
func NewNull() Value {
	return Value{
		Type: Dynamic,
		Null: true,
	}
}

func NewBool(value bool) Value {
	return Value{
		Type:    Bool,
		Boolean: value,
	}
}

// NewInt returns an integer constant typed as int when it fits in 32 bits, bigint otherwise.
func NewInt(value int64) Value {
	t := BigInt
	if value >= math.MinInt32 && value <= math.MaxInt32 {
		t = Int
	}
	return Value{
		Type: t,
		Int:  value,
	}
}

func NewFloat(value float64) Value {
	return Value{
		Type:  DoublePrecision,
		Float: value,
	}
}

func NewDecimalValue(value *apd.Decimal) Value {
	return Value{
		Type:    TypeOfDecimal(value),
		Decimal: value,
	}
}

// ParseDecimal parses a decimal literal, like 12.50.
func ParseDecimal(text string) (Value, error) {
	d, _, err := apd.NewFromString(text)
	if err != nil {
		return Value{}, fmt.Errorf("couldn't parse decimal '%s': %w", text, err)
	}
	return NewDecimalValue(d), nil
}

func NewString(value string) Value {
	return Value{
		Type: String,
		Str:  value,
	}
}

func NewSymbol(value string) Value {
	return Value{
		Type: Symbol,
		Str:  value,
	}
}

// TypeOfDecimal returns the narrowest fixed decimal type able to hold the value exactly.
func TypeOfDecimal(d *apd.Decimal) Type {
	if d.Form != apd.Finite {
		return DecimalArbitrary
	}
	digits := int(d.NumDigits())
	scale := 0
	precision := digits
	if d.Exponent < 0 {
		scale = int(-d.Exponent)
	} else {
		precision += int(d.Exponent)
	}
	if precision < scale {
		precision = scale
	}
	if precision > MaxDecimalPrecision || scale > MaxDecimalPrecision {
		return DecimalArbitrary
	}
	return NewDecimal(precision, scale)
}

func (value Value) String() string {
	if value.Null {
		return "NULL"
	}
	switch value.Type.TypeID {
	case TypeIDBool:
		if value.Boolean {
			return "true"
		}
		return "false"
	case TypeIDInt, TypeIDBigInt:
		return strconv.FormatInt(value.Int, 10)
	case TypeIDDoublePrecision:
		return strconv.FormatFloat(value.Float, 'g', -1, 64)
	case TypeIDDecimal, TypeIDDecimalArbitrary:
		return value.Decimal.String()
	case TypeIDString:
		return strconv.Quote(value.Str)
	case TypeIDSymbol:
		return "`" + value.Str + "`"
	}
	return fmt.Sprintf("<%s>", value.Type)
}
