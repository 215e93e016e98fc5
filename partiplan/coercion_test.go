package partiplan

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var concreteTypes = []Type{
	Bool, TinyInt, SmallInt, Int, BigInt, IntArbitrary, Real, DoublePrecision, NewDecimal(10, 2),
	DecimalArbitrary, NewChar(1), NewVarchar(20), String, Clob, Symbol, Blob, Date,
	NewTime(false), NewTime(true), NewTimestamp(false), NewTimestamp(true),
	NewArray(Int), NewBag(String), NewSexp(NewArray(Bool)),
	NewRow(StructField{Name: "a", Type: Int}),
	NewStruct([]StructField{{Name: "a", Type: Int}, {Name: "b", Type: NewBag(Date)}}),
	NewStruct([]StructField{{Name: "a", Type: Int}}, Ordered(), Closed()),
	NewAnyStruct(),
	Dynamic,
}

func TestCoerceIsReflexive(t *testing.T) {
	for _, typ := range concreteTypes {
		t.Run(typ.String(), func(t *testing.T) {
			cast, ok := Coerce(typ, typ)
			assert.True(t, ok)
			assert.Equal(t, CastDescriptor{From: typ, To: typ, Nullable: true}, cast)
		})
	}
}

func TestCoerceToDynamicAlwaysSucceeds(t *testing.T) {
	for _, typ := range append(concreteTypes, NewUnion(Int, Date)) {
		t.Run(typ.String(), func(t *testing.T) {
			_, ok := Coerce(typ, Dynamic)
			assert.True(t, ok)
		})
	}
}

func TestCoerce(t *testing.T) {
	rowAB := NewRow(StructField{Name: "a", Type: Int}, StructField{Name: "b", Type: String})
	tests := []struct {
		input, target Type
		want          bool
	}{
		// Families.
		{TinyInt, DecimalArbitrary, true},
		{NewDecimal(38, 0), Real, true},
		{DoublePrecision, SmallInt, true},
		{NewChar(1), Clob, true},
		{Symbol, NewVarchar(3), true},
		{Bool, Int, false},
		{Int, Bool, false},
		{Int, String, false},
		{String, Int, false},
		{Blob, String, false},
		{Dynamic, Int, false},

		// Temporal.
		{Date, Date, true},
		{NewTime(false), NewTime(true), true},
		{NewTimestamp(true), NewTimestamp(false), true},
		{NewTime(false), NewTimestamp(false), false},
		{NewTimestamp(true), NewTime(true), false},
		{Date, NewTimestamp(false), false},

		// Collections.
		{NewArray(Int), NewArray(BigInt), true},
		{NewArray(Int), NewBag(Int), false},
		{NewBag(NewArray(String)), NewBag(NewArray(Symbol)), true},
		{NewSexp(Int), NewSexp(Date), false},
		{NewArray(Int), NewArray(Dynamic), true},

		// Rows and structs.
		{rowAB, NewRow(StructField{Name: "x", Type: BigInt}, StructField{Name: "y", Type: Clob}), true},
		{rowAB, NewRow(StructField{Name: "a", Type: Int}), false},
		{rowAB, NewRow(StructField{Name: "a", Type: String}, StructField{Name: "b", Type: Int}), false},
		{
			NewStruct([]StructField{{Name: "b", Type: String}, {Name: "a", Type: Int}}),
			NewStruct([]StructField{{Name: "a", Type: BigInt}, {Name: "b", Type: Symbol}}),
			true,
		},
		{
			NewStruct([]StructField{{Name: "a", Type: Int}}),
			NewStruct([]StructField{{Name: "c", Type: Int}}),
			false,
		},
		{
			NewStruct([]StructField{{Name: "b", Type: String}, {Name: "a", Type: Int}}, Ordered()),
			NewStruct([]StructField{{Name: "a", Type: Int}, {Name: "b", Type: String}}, Ordered()),
			false,
		},
		{NewAnyStruct(), NewStruct([]StructField{{Name: "a", Type: Int}}), true},
		{NewStruct([]StructField{{Name: "b", Type: String}, {Name: "a", Type: Int}}), rowAB, true},
		{rowAB, NewStruct([]StructField{{Name: "a", Type: Int}}), false},
		{rowAB, NewAnyStruct(), true},
		{rowAB, NewArray(Int), false},

		// Unions.
		{NewUnion(Int, BigInt), NewDecimal(5, 2), true},
		{NewUnion(Int, String), Int, true},
		{NewUnion(Bool, String), Int, false},
		{Int, NewUnion(Bool, DoublePrecision), true},
		{Date, NewUnion(Bool, Int), false},
		{NewUnion(), Int, false},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, got := Coerce(tt.input, tt.target)
			assert.Equal(t, tt.want, got, "Coerce(%s, %s)", tt.input, tt.target)
		})
	}
}

func TestAssignableToRelation(t *testing.T) {
	tests := []struct {
		input, target Type
		want          TypeRelation
	}{
		{Int, BigInt, TypeRelationIs},
		{NewUnion(Int, BigInt), Int, TypeRelationIs},
		{NewUnion(Int, String), Int, TypeRelationMaybe},
		{NewAnyStruct(), NewRow(), TypeRelationMaybe},
		{NewArray(NewUnion(Int, Date)), NewArray(Int), TypeRelationMaybe},
		{Bool, Date, TypeRelationIsnt},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.input.AssignableTo(tt.target), "%s assignable to %s", tt.input, tt.target)
		})
	}
}
