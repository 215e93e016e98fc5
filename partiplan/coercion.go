package partiplan

import "fmt"

type TypeRelation int

const (
	TypeRelationIsnt TypeRelation = iota
	TypeRelationMaybe
	TypeRelationIs
)

func (rel TypeRelation) String() string {
	switch rel {
	case TypeRelationIsnt:
		return "isnt"
	case TypeRelationMaybe:
		return "maybe"
	case TypeRelationIs:
		return "is"
	}
	return "unknown"
}

// CastDescriptor describes the conversion needed to use a value of type From where To is expected.
type CastDescriptor struct {
	From, To Type
	// Nullable is set when the conversion may produce null instead of failing.
	Nullable bool
}

func (c CastDescriptor) String() string {
	return fmt.Sprintf("cast(%s -> %s)", c.From, c.To)
}

// Coerce decides whether a value of the input type may be used where the target type is expected.
// Both definite and possible assignability succeed, the cast is then conservatively nullable.
func Coerce(input, target Type) (CastDescriptor, bool) {
	if input.AssignableTo(target) == TypeRelationIsnt {
		return CastDescriptor{}, false
	}
	return CastDescriptor{
		From:     input,
		To:       target,
		Nullable: true,
	}, true
}

// AssignableTo returns whether values of this type can be used where the other type is expected.
// TypeRelationMaybe is returned when that depends on information unavailable statically,
// like undeclared struct fields or the alternative a union value takes at runtime.
func (t Type) AssignableTo(other Type) TypeRelation {
	t, other = Flatten(t), Flatten(other)

	if other.TypeID == TypeIDDynamic {
		return TypeRelationIs
	}
	if t.TypeID == TypeIDUnion {
		if len(t.Union.Alternatives) == 0 {
			return TypeRelationIsnt
		}
		anyFits := false
		allFit := true
		for _, alternative := range t.Union.Alternatives {
			rel := alternative.AssignableTo(other)
			if rel == TypeRelationIs {
				anyFits = true
			} else if rel == TypeRelationMaybe {
				anyFits = true
				allFit = false
			} else {
				allFit = false
			}
		}
		if allFit {
			return TypeRelationIs
		} else if anyFits {
			return TypeRelationMaybe
		}
		return TypeRelationIsnt
	}
	if other.TypeID == TypeIDUnion {
		out := TypeRelationIsnt
		for _, alternative := range other.Union.Alternatives {
			if rel := t.AssignableTo(alternative); rel > out {
				out = rel
			}
		}
		return out
	}

	if t.IsNumeric() && other.IsNumeric() {
		return TypeRelationIs
	}
	if t.IsText() && other.IsText() {
		return TypeRelationIs
	}

	switch {
	case t.TypeID == TypeIDStruct && other.TypeID == TypeIDRow,
		t.TypeID == TypeIDRow && other.TypeID == TypeIDStruct:
		return structuralByName(t, other)
	case t.TypeID != other.TypeID:
		return TypeRelationIsnt
	}

	switch t.TypeID {
	case TypeIDBool, TypeIDBlob, TypeIDDate, TypeIDTime, TypeIDTimestamp:
		return TypeRelationIs
	case TypeIDArray, TypeIDBag, TypeIDSexp:
		element, _ := t.Element()
		otherElement, _ := other.Element()
		return element.AssignableTo(otherElement)
	case TypeIDRow:
		if len(t.Row.Fields) != len(other.Row.Fields) {
			return TypeRelationIsnt
		}
		out := TypeRelationIs
		for i := range t.Row.Fields {
			if rel := t.Row.Fields[i].Type.AssignableTo(other.Row.Fields[i].Type); rel < out {
				out = rel
			}
		}
		return out
	case TypeIDStruct:
		if t.Struct.Ordered && other.Struct.Ordered {
			if !t.Struct.FieldsKnown || !other.Struct.FieldsKnown {
				return TypeRelationMaybe
			}
			return fieldsAssignable(t.Struct.Fields, other.Struct.Fields)
		}
		return structuralByName(t, other)
	}

	// Dynamic values are only assignable to dynamic, which was handled above.
	return TypeRelationIsnt
}

// structuralByName matches fields of rows and structs by name, irrespective of declaration order.
func structuralByName(t, other Type) TypeRelation {
	fields, ok := t.Fields()
	otherFields, otherOk := other.Fields()
	if !ok || !otherOk {
		return TypeRelationMaybe
	}
	return fieldsAssignable(sortedFields(fields), sortedFields(otherFields))
}

func fieldsAssignable(fields, otherFields []StructField) TypeRelation {
	if len(fields) != len(otherFields) {
		return TypeRelationIsnt
	}
	out := TypeRelationIs
	for i := range fields {
		if fields[i].Name != otherFields[i].Name {
			return TypeRelationIsnt
		}
		if rel := fields[i].Type.AssignableTo(otherFields[i].Type); rel < out {
			out = rel
		}
	}
	return out
}
