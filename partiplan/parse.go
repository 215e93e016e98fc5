package partiplan

import (
	"fmt"
	"strconv"
	"strings"
	"text/scanner"
)

var typeKeywords = map[string]struct{}{
	"bool": {}, "boolean": {}, "tinyint": {}, "smallint": {}, "int": {}, "integer": {}, "bigint": {},
	"int_arbitrary": {}, "real": {}, "double": {}, "decimal": {}, "decimal_arbitrary": {},
	"char": {}, "varchar": {}, "string": {}, "clob": {}, "symbol": {}, "blob": {}, "date": {},
	"time": {}, "time_tz": {}, "timestamp": {}, "timestamp_tz": {}, "array": {}, "bag": {},
	"sexp": {}, "row": {}, "struct": {}, "ordered": {}, "closed": {}, "dynamic": {}, "any": {},
	"union": {},
}

// ParseType parses the textual form of a type, as produced by Type.String.
func ParseType(text string) (Type, error) {
	p := &typeParser{}
	p.s.Init(strings.NewReader(text))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanStrings
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.err = fmt.Errorf("%s at %s", msg, s.Position)
	}
	p.next()

	out, err := p.parseType()
	if err != nil {
		return Type{}, fmt.Errorf("couldn't parse type '%s': %w", text, err)
	}
	if p.tok != scanner.EOF {
		return Type{}, fmt.Errorf("couldn't parse type '%s': unexpected trailing '%s'", text, p.text)
	}
	return out, nil
}

// MustParseType is like ParseType but panics on error. Meant for tests and static tables.
func MustParseType(text string) Type {
	out, err := ParseType(text)
	if err != nil {
		panic(err)
	}
	return out
}

type typeParser struct {
	s    scanner.Scanner
	tok  rune
	text string
	err  error
}

func (p *typeParser) next() {
	p.tok = p.s.Scan()
	p.text = p.s.TokenText()
}

func (p *typeParser) expect(tok rune) error {
	if p.err != nil {
		return p.err
	}
	if p.tok != tok {
		return fmt.Errorf("expected '%s', got '%s' at %s", scanner.TokenString(tok), p.text, p.s.Position)
	}
	p.next()
	return nil
}

func (p *typeParser) parseInt() (int, error) {
	if p.tok != scanner.Int {
		return 0, fmt.Errorf("expected integer, got '%s' at %s", p.text, p.s.Position)
	}
	out, err := strconv.Atoi(p.text)
	if err != nil {
		return 0, err
	}
	p.next()
	return out, nil
}

func (p *typeParser) parseName() (string, error) {
	switch p.tok {
	case scanner.Ident:
		out := p.text
		p.next()
		return out, nil
	case scanner.String:
		out, err := strconv.Unquote(p.text)
		if err != nil {
			return "", err
		}
		p.next()
		return out, nil
	}
	return "", fmt.Errorf("expected field name, got '%s' at %s", p.text, p.s.Position)
}

func (p *typeParser) parseType() (Type, error) {
	if p.err != nil {
		return Type{}, p.err
	}
	if p.tok != scanner.Ident {
		return Type{}, fmt.Errorf("expected type name, got '%s' at %s", p.text, p.s.Position)
	}
	name := strings.ToLower(p.text)
	p.next()

	switch name {
	case "bool", "boolean":
		return Bool, nil
	case "tinyint":
		return TinyInt, nil
	case "smallint":
		return SmallInt, nil
	case "int", "integer":
		return Int, nil
	case "bigint":
		return BigInt, nil
	case "int_arbitrary":
		return IntArbitrary, nil
	case "real":
		return Real, nil
	case "double":
		return DoublePrecision, nil
	case "decimal_arbitrary":
		return DecimalArbitrary, nil
	case "string":
		return String, nil
	case "clob":
		return Clob, nil
	case "symbol":
		return Symbol, nil
	case "blob":
		return Blob, nil
	case "date":
		return Date, nil
	case "time":
		return NewTime(false), nil
	case "time_tz":
		return NewTime(true), nil
	case "timestamp":
		return NewTimestamp(false), nil
	case "timestamp_tz":
		return NewTimestamp(true), nil
	case "dynamic", "any":
		return Dynamic, nil

	case "decimal":
		if p.tok != '(' {
			return DecimalArbitrary, nil
		}
		p.next()
		precision, err := p.parseInt()
		if err != nil {
			return Type{}, err
		}
		scale := 0
		if p.tok == ',' {
			p.next()
			if scale, err = p.parseInt(); err != nil {
				return Type{}, err
			}
		}
		if err := p.expect(')'); err != nil {
			return Type{}, err
		}
		return NewDecimal(precision, scale), nil

	case "char", "varchar":
		length := 1
		if p.tok == '(' {
			p.next()
			var err error
			if length, err = p.parseInt(); err != nil {
				return Type{}, err
			}
			if err := p.expect(')'); err != nil {
				return Type{}, err
			}
		}
		if name == "char" {
			return NewChar(length), nil
		}
		return NewVarchar(length), nil

	case "array", "bag", "sexp":
		if err := p.expect('<'); err != nil {
			return Type{}, err
		}
		element, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		if err := p.expect('>'); err != nil {
			return Type{}, err
		}
		switch name {
		case "array":
			return NewArray(element), nil
		case "bag":
			return NewBag(element), nil
		default:
			return NewSexp(element), nil
		}

	case "row":
		if err := p.expect('('); err != nil {
			return Type{}, err
		}
		var fields []StructField
		for p.tok != ')' {
			if len(fields) > 0 {
				if err := p.expect(','); err != nil {
					return Type{}, err
				}
			}
			fieldName, err := p.parseName()
			if err != nil {
				return Type{}, err
			}
			fieldType, err := p.parseType()
			if err != nil {
				return Type{}, err
			}
			fields = append(fields, StructField{Name: fieldName, Type: fieldType})
		}
		p.next()
		return NewRow(fields...), nil

	case "ordered", "closed", "struct":
		var opts []StructOption
		for {
			switch name {
			case "ordered":
				opts = append(opts, Ordered())
			case "closed":
				opts = append(opts, Closed())
			}
			if name == "struct" {
				break
			}
			if p.tok != scanner.Ident {
				return Type{}, fmt.Errorf("expected struct, got '%s' at %s", p.text, p.s.Position)
			}
			name = strings.ToLower(p.text)
			if name != "ordered" && name != "closed" && name != "struct" {
				return Type{}, fmt.Errorf("expected struct, got '%s' at %s", p.text, p.s.Position)
			}
			p.next()
		}
		if p.tok != '{' {
			return NewAnyStruct(opts...), nil
		}
		p.next()
		fields := []StructField{}
		for p.tok != '}' {
			if len(fields) > 0 {
				if err := p.expect(','); err != nil {
					return Type{}, err
				}
			}
			fieldName, err := p.parseName()
			if err != nil {
				return Type{}, err
			}
			if err := p.expect(':'); err != nil {
				return Type{}, err
			}
			fieldType, err := p.parseType()
			if err != nil {
				return Type{}, err
			}
			fields = append(fields, StructField{Name: fieldName, Type: fieldType})
		}
		p.next()
		return NewStruct(fields, opts...), nil

	case "union":
		if err := p.expect('('); err != nil {
			return Type{}, err
		}
		var alternatives []Type
		for p.tok != ')' {
			if len(alternatives) > 0 {
				if err := p.expect(','); err != nil {
					return Type{}, err
				}
			}
			alternative, err := p.parseType()
			if err != nil {
				return Type{}, err
			}
			alternatives = append(alternatives, alternative)
		}
		p.next()
		return NewUnion(alternatives...), nil
	}

	return Type{}, fmt.Errorf("unknown type '%s'", name)
}
