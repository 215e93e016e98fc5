package partiplan

import (
	"fmt"
	"strings"
)

// MaxDecimalPrecision is the largest precision and scale a fixed decimal may have.
// Derived decimals exceeding it become DecimalArbitrary.
const MaxDecimalPrecision = 38

// Precedence returns the position of the type in the promotion order:
//   bool < tinyint < smallint < int < bigint < int_arbitrary < decimal < real < double <
//   decimal_arbitrary < char < varchar < symbol < string < clob < blob < date < time <
//   time_tz < timestamp < timestamp_tz < array < sexp < bag < row < struct < dynamic
// Unions are ranked above everything else.
func Precedence(t Type) int {
	switch t.TypeID {
	case TypeIDBool:
		return 0
	case TypeIDTinyInt:
		return 1
	case TypeIDSmallInt:
		return 2
	case TypeIDInt:
		return 3
	case TypeIDBigInt:
		return 4
	case TypeIDIntArbitrary:
		return 5
	case TypeIDDecimal:
		return 6
	case TypeIDReal:
		return 7
	case TypeIDDoublePrecision:
		return 8
	case TypeIDDecimalArbitrary:
		return 9
	case TypeIDChar:
		return 10
	case TypeIDVarchar:
		return 11
	case TypeIDSymbol:
		return 12
	case TypeIDString:
		return 13
	case TypeIDClob:
		return 14
	case TypeIDBlob:
		return 15
	case TypeIDDate:
		return 16
	case TypeIDTime:
		if t.Time.WithTimeZone {
			return 18
		}
		return 17
	case TypeIDTimestamp:
		if t.Timestamp.WithTimeZone {
			return 20
		}
		return 19
	case TypeIDArray:
		return 21
	case TypeIDSexp:
		return 22
	case TypeIDBag:
		return 23
	case TypeIDRow:
		return 24
	case TypeIDStruct:
		return 25
	case TypeIDDynamic:
		return 26
	case TypeIDUnion:
		return 27
	}
	panic("unexhaustive type id match")
}

// HigherPrecedence returns whichever type ranks higher in the promotion order, preferring t1 on ties.
func HigherPrecedence(t1, t2 Type) Type {
	if Precedence(t2) > Precedence(t1) {
		return t2
	}
	return t1
}

type ArithmeticOperator int

const (
	Add ArithmeticOperator = iota
	Subtract
	Multiply
	Divide
	Modulo
)

func (op ArithmeticOperator) String() string {
	switch op {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	}
	return "unknown"
}

// ParseArithmeticOperator accepts both symbolic and named forms, like "+" or "add".
func ParseArithmeticOperator(text string) (ArithmeticOperator, error) {
	switch strings.ToLower(text) {
	case "+", "add", "plus":
		return Add, nil
	case "-", "subtract", "minus":
		return Subtract, nil
	case "*", "multiply", "times":
		return Multiply, nil
	case "/", "divide":
		return Divide, nil
	case "%", "modulo", "mod":
		return Modulo, nil
	}
	return 0, fmt.Errorf("unknown arithmetic operator '%s'", text)
}

type UnaryOperator int

const (
	Negate UnaryOperator = iota
	Pos
)

func (op UnaryOperator) String() string {
	switch op {
	case Negate:
		return "-"
	case Pos:
		return "+"
	}
	return "unknown"
}

// Derive returns the result type of a binary arithmetic operator. It returns false if the
// operands can't take part in arithmetic.
func Derive(op ArithmeticOperator, lhs, rhs Type) (Type, bool) {
	lhs, rhs = Flatten(lhs), Flatten(rhs)
	if !isArithmeticOperand(lhs) || !isArithmeticOperand(rhs) {
		return Type{}, false
	}
	if lhs.TypeID == TypeIDDynamic || rhs.TypeID == TypeIDDynamic {
		return Dynamic, true
	}
	if lhs.TypeID == TypeIDDecimal && rhs.TypeID == TypeIDDecimal {
		return deriveDecimal(op, lhs, rhs), true
	}

	return HigherPrecedence(lhs, rhs), true
}

// DeriveUnary returns the result type of a unary arithmetic operator.
func DeriveUnary(op UnaryOperator, operand Type) (Type, bool) {
	operand = Flatten(operand)
	if !isArithmeticOperand(operand) {
		return Type{}, false
	}
	return operand, true
}

func isArithmeticOperand(t Type) bool {
	return t.IsNumeric() || t.TypeID == TypeIDDynamic
}

func deriveDecimal(op ArithmeticOperator, lhs, rhs Type) Type {
	p1, s1 := lhs.Decimal.Precision, lhs.Decimal.Scale
	p2, s2 := rhs.Decimal.Precision, rhs.Decimal.Scale

	var precision, scale int
	switch op {
	case Add, Subtract:
		scale = max(s1, s2)
		precision = max(s1, s2) + max(p1-s1, p2-s2) + 1
	case Multiply:
		precision = p1 + p2 + 1
		scale = s1 + s2
	case Divide:
		scale = max(6, s1+p2+1)
		precision = p1 - s2 + s1 + scale
	case Modulo:
		scale = max(s1, s2)
		precision = min(p1-s1, p2-s2) + max(s1, s2)
	default:
		panic("unexhaustive arithmetic operator match")
	}

	if precision > MaxDecimalPrecision || scale > MaxDecimalPrecision {
		return DecimalArbitrary
	}
	return NewDecimal(precision, scale)
}
