package partiplan

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type TypeID int

const (
	TypeIDBool TypeID = iota
	TypeIDTinyInt
	TypeIDSmallInt
	TypeIDInt
	TypeIDBigInt
	TypeIDIntArbitrary
	TypeIDReal
	TypeIDDoublePrecision
	TypeIDDecimal
	TypeIDDecimalArbitrary
	TypeIDChar
	TypeIDVarchar
	TypeIDString
	TypeIDClob
	TypeIDSymbol
	TypeIDBlob
	TypeIDDate
	TypeIDTime
	TypeIDTimestamp
	TypeIDArray
	TypeIDBag
	TypeIDSexp
	TypeIDRow
	TypeIDStruct
	TypeIDDynamic
	TypeIDUnion
)

func (id TypeID) String() string {
	switch id {
	case TypeIDBool:
		return "bool"
	case TypeIDTinyInt:
		return "tinyint"
	case TypeIDSmallInt:
		return "smallint"
	case TypeIDInt:
		return "int"
	case TypeIDBigInt:
		return "bigint"
	case TypeIDIntArbitrary:
		return "int_arbitrary"
	case TypeIDReal:
		return "real"
	case TypeIDDoublePrecision:
		return "double"
	case TypeIDDecimal:
		return "decimal"
	case TypeIDDecimalArbitrary:
		return "decimal_arbitrary"
	case TypeIDChar:
		return "char"
	case TypeIDVarchar:
		return "varchar"
	case TypeIDString:
		return "string"
	case TypeIDClob:
		return "clob"
	case TypeIDSymbol:
		return "symbol"
	case TypeIDBlob:
		return "blob"
	case TypeIDDate:
		return "date"
	case TypeIDTime:
		return "time"
	case TypeIDTimestamp:
		return "timestamp"
	case TypeIDArray:
		return "array"
	case TypeIDBag:
		return "bag"
	case TypeIDSexp:
		return "sexp"
	case TypeIDRow:
		return "row"
	case TypeIDStruct:
		return "struct"
	case TypeIDDynamic:
		return "dynamic"
	case TypeIDUnion:
		return "union"
	}
	return "unknown"
}

// Type is a static type descriptor. Only the payload matching TypeID is meaningful.
// Nullability is not part of the descriptor, it's carried next to it by whoever needs it.
type Type struct {
	TypeID  TypeID
	Decimal struct {
		Precision, Scale int
	}
	Char struct {
		Length int
	}
	Varchar struct {
		Length int
	}
	Time struct {
		WithTimeZone bool
	}
	Timestamp struct {
		WithTimeZone bool
	}
	Array struct {
		Element *Type
	}
	Bag struct {
		Element *Type
	}
	Sexp struct {
		Element *Type
	}
	Row struct {
		Fields []StructField
	}
	Struct struct {
		Fields []StructField
		// FieldsKnown is false when the struct didn't declare its fields at all.
		FieldsKnown bool
		Ordered     bool
		Closed      bool
	}
	Union struct {
		Alternatives []Type
	}
}

type StructField struct {
	Name string
	Type Type
}

var (
	Bool             = Type{TypeID: TypeIDBool}
	TinyInt          = Type{TypeID: TypeIDTinyInt}
	SmallInt         = Type{TypeID: TypeIDSmallInt}
	Int              = Type{TypeID: TypeIDInt}
	BigInt           = Type{TypeID: TypeIDBigInt}
	IntArbitrary     = Type{TypeID: TypeIDIntArbitrary}
	Real             = Type{TypeID: TypeIDReal}
	DoublePrecision  = Type{TypeID: TypeIDDoublePrecision}
	DecimalArbitrary = Type{TypeID: TypeIDDecimalArbitrary}
	String           = Type{TypeID: TypeIDString}
	Clob             = Type{TypeID: TypeIDClob}
	Symbol           = Type{TypeID: TypeIDSymbol}
	Blob             = Type{TypeID: TypeIDBlob}
	Date             = Type{TypeID: TypeIDDate}
	Dynamic          = Type{TypeID: TypeIDDynamic}
)

func NewDecimal(precision, scale int) Type {
	out := Type{TypeID: TypeIDDecimal}
	out.Decimal.Precision = precision
	out.Decimal.Scale = scale
	return out
}

func NewChar(length int) Type {
	out := Type{TypeID: TypeIDChar}
	out.Char.Length = length
	return out
}

func NewVarchar(length int) Type {
	out := Type{TypeID: TypeIDVarchar}
	out.Varchar.Length = length
	return out
}

func NewTime(withTimeZone bool) Type {
	out := Type{TypeID: TypeIDTime}
	out.Time.WithTimeZone = withTimeZone
	return out
}

func NewTimestamp(withTimeZone bool) Type {
	out := Type{TypeID: TypeIDTimestamp}
	out.Timestamp.WithTimeZone = withTimeZone
	return out
}

func NewArray(element Type) Type {
	out := Type{TypeID: TypeIDArray}
	out.Array.Element = &element
	return out
}

func NewBag(element Type) Type {
	out := Type{TypeID: TypeIDBag}
	out.Bag.Element = &element
	return out
}

func NewSexp(element Type) Type {
	out := Type{TypeID: TypeIDSexp}
	out.Sexp.Element = &element
	return out
}

func NewRow(fields ...StructField) Type {
	out := Type{TypeID: TypeIDRow}
	out.Row.Fields = fields
	return out
}

type StructOption func(t *Type)

func Ordered() StructOption {
	return func(t *Type) {
		t.Struct.Ordered = true
	}
}

func Closed() StructOption {
	return func(t *Type) {
		t.Struct.Closed = true
	}
}

// NewStruct creates a struct type with a declared field list.
func NewStruct(fields []StructField, opts ...StructOption) Type {
	out := Type{TypeID: TypeIDStruct}
	out.Struct.Fields = fields
	out.Struct.FieldsKnown = true
	for _, opt := range opts {
		opt(&out)
	}
	return out
}

// NewAnyStruct creates a struct type whose fields are unknown.
func NewAnyStruct(opts ...StructOption) Type {
	out := Type{TypeID: TypeIDStruct}
	for _, opt := range opts {
		opt(&out)
	}
	return out
}

// NewUnion creates a union without normalizing it, use Flatten or TypeSum for that.
func NewUnion(alternatives ...Type) Type {
	out := Type{TypeID: TypeIDUnion}
	out.Union.Alternatives = alternatives
	return out
}

// Element returns the element type of a collection type.
func (t Type) Element() (Type, bool) {
	switch t.TypeID {
	case TypeIDArray:
		return *t.Array.Element, true
	case TypeIDBag:
		return *t.Bag.Element, true
	case TypeIDSexp:
		return *t.Sexp.Element, true
	}
	return Type{}, false
}

// Fields returns the declared fields of a row or struct type.
func (t Type) Fields() ([]StructField, bool) {
	switch t.TypeID {
	case TypeIDRow:
		return t.Row.Fields, true
	case TypeIDStruct:
		return t.Struct.Fields, t.Struct.FieldsKnown
	}
	return nil, false
}

// FieldType looks up a field of a row or struct type. Struct lookups with unknown fields,
// and lookups on dynamic types, yield Dynamic.
func (t Type) FieldType(name string, caseSensitive bool) (Type, bool) {
	if t.TypeID == TypeIDDynamic {
		return Dynamic, true
	}
	if t.TypeID == TypeIDStruct && !t.Struct.FieldsKnown {
		return Dynamic, true
	}
	fields, ok := t.Fields()
	if !ok {
		return Type{}, false
	}
	for i := range fields {
		if fields[i].Name == name || (!caseSensitive && strings.EqualFold(fields[i].Name, name)) {
			return fields[i].Type, true
		}
	}
	if t.TypeID == TypeIDStruct && !t.Struct.Closed {
		return Dynamic, true
	}
	return Type{}, false
}

func (t Type) IsNumeric() bool {
	switch t.TypeID {
	case TypeIDTinyInt, TypeIDSmallInt, TypeIDInt, TypeIDBigInt, TypeIDIntArbitrary,
		TypeIDReal, TypeIDDoublePrecision, TypeIDDecimal, TypeIDDecimalArbitrary:
		return true
	}
	return false
}

func (t Type) IsText() bool {
	switch t.TypeID {
	case TypeIDChar, TypeIDVarchar, TypeIDString, TypeIDClob, TypeIDSymbol:
		return true
	}
	return false
}

func (t Type) IsCollection() bool {
	switch t.TypeID {
	case TypeIDArray, TypeIDBag, TypeIDSexp:
		return true
	}
	return false
}

// Flatten normalizes a union: nested unions are expanded into a single set of alternatives,
// duplicates are removed and a single remaining alternative is returned as is.
// Alternatives are kept in a canonical order, so the result doesn't depend on construction order.
func Flatten(t Type) Type {
	if t.TypeID != TypeIDUnion {
		return t
	}
	var alternatives []Type
	var collect func(t Type)
	collect = func(t Type) {
		if t.TypeID == TypeIDUnion {
			for _, alternative := range t.Union.Alternatives {
				collect(alternative)
			}
			return
		}
		for i := range alternatives {
			if alternatives[i].Equal(t) {
				return
			}
		}
		alternatives = append(alternatives, t)
	}
	collect(t)

	if len(alternatives) == 1 {
		return alternatives[0]
	}
	sort.SliceStable(alternatives, func(i, j int) bool {
		pi, pj := Precedence(alternatives[i]), Precedence(alternatives[j])
		if pi != pj {
			return pi < pj
		}
		return alternatives[i].String() < alternatives[j].String()
	})
	return NewUnion(alternatives...)
}

// TypeSum returns the flattened union of both types.
func TypeSum(t1, t2 Type) Type {
	return Flatten(NewUnion(t1, t2))
}

// Equal is structural equality. Unions compare as sets of alternatives,
// unordered structs compare their fields irrespective of declaration order.
func (t Type) Equal(other Type) bool {
	if t.TypeID == TypeIDUnion || other.TypeID == TypeIDUnion {
		t, other = Flatten(t), Flatten(other)
		if t.TypeID != TypeIDUnion || other.TypeID != TypeIDUnion {
			return t.TypeID != TypeIDUnion && other.TypeID != TypeIDUnion && t.Equal(other)
		}
		if len(t.Union.Alternatives) != len(other.Union.Alternatives) {
			return false
		}
		for i := range t.Union.Alternatives {
			if !t.Union.Alternatives[i].Equal(other.Union.Alternatives[i]) {
				return false
			}
		}
		return true
	}
	if t.TypeID != other.TypeID {
		return false
	}

	switch t.TypeID {
	case TypeIDDecimal:
		return t.Decimal == other.Decimal
	case TypeIDChar:
		return t.Char == other.Char
	case TypeIDVarchar:
		return t.Varchar == other.Varchar
	case TypeIDTime:
		return t.Time == other.Time
	case TypeIDTimestamp:
		return t.Timestamp == other.Timestamp
	case TypeIDArray, TypeIDBag, TypeIDSexp:
		element, _ := t.Element()
		otherElement, _ := other.Element()
		return element.Equal(otherElement)
	case TypeIDRow:
		return fieldsEqual(t.Row.Fields, other.Row.Fields)
	case TypeIDStruct:
		if t.Struct.FieldsKnown != other.Struct.FieldsKnown ||
			t.Struct.Ordered != other.Struct.Ordered ||
			t.Struct.Closed != other.Struct.Closed {
			return false
		}
		if t.Struct.Ordered {
			return fieldsEqual(t.Struct.Fields, other.Struct.Fields)
		}
		return fieldsEqual(sortedFields(t.Struct.Fields), sortedFields(other.Struct.Fields))
	}
	return true
}

func fieldsEqual(left, right []StructField) bool {
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if left[i].Name != right[i].Name || !left[i].Type.Equal(right[i].Type) {
			return false
		}
	}
	return true
}

func sortedFields(fields []StructField) []StructField {
	out := make([]StructField, len(fields))
	copy(out, fields)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

func (t Type) String() string {
	switch t.TypeID {
	case TypeIDDecimal:
		return fmt.Sprintf("decimal(%d,%d)", t.Decimal.Precision, t.Decimal.Scale)
	case TypeIDChar:
		return fmt.Sprintf("char(%d)", t.Char.Length)
	case TypeIDVarchar:
		return fmt.Sprintf("varchar(%d)", t.Varchar.Length)
	case TypeIDTime:
		if t.Time.WithTimeZone {
			return "time_tz"
		}
		return "time"
	case TypeIDTimestamp:
		if t.Timestamp.WithTimeZone {
			return "timestamp_tz"
		}
		return "timestamp"
	case TypeIDArray, TypeIDBag, TypeIDSexp:
		element, _ := t.Element()
		return fmt.Sprintf("%s<%s>", t.TypeID, element)
	case TypeIDRow:
		fieldStrings := make([]string, len(t.Row.Fields))
		for i, field := range t.Row.Fields {
			fieldStrings[i] = fmt.Sprintf("%s %s", formatFieldName(field.Name), field.Type)
		}
		return fmt.Sprintf("row(%s)", strings.Join(fieldStrings, ", "))
	case TypeIDStruct:
		var sb strings.Builder
		if t.Struct.Ordered {
			sb.WriteString("ordered ")
		}
		if t.Struct.Closed {
			sb.WriteString("closed ")
		}
		sb.WriteString("struct")
		if !t.Struct.FieldsKnown {
			return sb.String()
		}
		fieldStrings := make([]string, len(t.Struct.Fields))
		for i, field := range t.Struct.Fields {
			fieldStrings[i] = fmt.Sprintf("%s: %s", formatFieldName(field.Name), field.Type)
		}
		sb.WriteString("{")
		sb.WriteString(strings.Join(fieldStrings, ", "))
		sb.WriteString("}")
		return sb.String()
	case TypeIDUnion:
		typeStrings := make([]string, len(t.Union.Alternatives))
		for i, alternative := range t.Union.Alternatives {
			typeStrings[i] = alternative.String()
		}
		return fmt.Sprintf("union(%s)", strings.Join(typeStrings, ", "))
	}
	return t.TypeID.String()
}

func formatFieldName(name string) string {
	if name == "" {
		return strconv.Quote(name)
	}
	for i, r := range name {
		isLetter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isLetter && !(isDigit && i > 0) {
			return strconv.Quote(name)
		}
	}
	if _, isKeyword := typeKeywords[strings.ToLower(name)]; isKeyword {
		return strconv.Quote(name)
	}
	return name
}
