package manifest

import (
	"fmt"
	"strconv"
	"strings"
)

// ScalarKind enumerates the built-in leaf types of the DataType DSL.
type ScalarKind string

const (
	Bool   ScalarKind = "bool"
	I8     ScalarKind = "i8"
	I16    ScalarKind = "i16"
	I32    ScalarKind = "i32"
	I64    ScalarKind = "i64"
	I128   ScalarKind = "i128"
	U8     ScalarKind = "u8"
	U16    ScalarKind = "u16"
	U32    ScalarKind = "u32"
	U64    ScalarKind = "u64"
	U128   ScalarKind = "u128"
	F32    ScalarKind = "f32"
	F64    ScalarKind = "f64"
	Char   ScalarKind = "char"
	String ScalarKind = "string"
	Bytes  ScalarKind = "bytes"
	Null   ScalarKind = "null"
)

var scalarKinds = map[ScalarKind]bool{
	Bool: true, I8: true, I16: true, I32: true, I64: true, I128: true,
	U8: true, U16: true, U32: true, U64: true, U128: true,
	F32: true, F64: true, Char: true, String: true, Bytes: true, Null: true,
}

// Composite enumerates the shapes a DataType can take beyond a bare scalar
// or object reference.
type Composite string

const (
	CompositeNone     Composite = ""
	CompositeArray    Composite = "array"
	CompositeSequence Composite = "sequence"
	CompositeMap      Composite = "map"
	CompositeOption   Composite = "option"
	CompositePair     Composite = "pair"
	CompositeObject   Composite = "object"
)

// DataType is a closed sum type over the manifest's type DSL:
//
//	bool|i32|u128|f64|char|string|bytes|null
//	array<T;N> | seq<T> | map<K,V> | option<T> | pair<L,R> | <ObjectName>
type DataType struct {
	Composite Composite
	Scalar    ScalarKind // valid when Composite == CompositeNone
	ObjectRef string     // valid when Composite == CompositeObject

	Elem *DataType // array, sequence, option
	Len  int       // array only

	Key   *DataType // map
	Value *DataType // map

	Left  *DataType // pair
	Right *DataType // pair
}

// String renders the DataType back into DSL form, used by codegen to emit
// type names literally (codegen performs no type reasoning of its own).
func (d *DataType) String() string {
	if d == nil {
		return ""
	}
	switch d.Composite {
	case CompositeNone:
		return string(d.Scalar)
	case CompositeObject:
		return d.ObjectRef
	case CompositeArray:
		return fmt.Sprintf("array<%s;%d>", d.Elem.String(), d.Len)
	case CompositeSequence:
		return fmt.Sprintf("seq<%s>", d.Elem.String())
	case CompositeMap:
		return fmt.Sprintf("map<%s,%s>", d.Key.String(), d.Value.String())
	case CompositeOption:
		return fmt.Sprintf("option<%s>", d.Elem.String())
	case CompositePair:
		return fmt.Sprintf("pair<%s,%s>", d.Left.String(), d.Right.String())
	default:
		return "?"
	}
}

// Equal reports structural type equality, used by the validator to check
// producer-output / consumer-input agreement.
func (d *DataType) Equal(other *DataType) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.Composite != other.Composite {
		return false
	}
	switch d.Composite {
	case CompositeNone:
		return d.Scalar == other.Scalar
	case CompositeObject:
		return d.ObjectRef == other.ObjectRef
	case CompositeArray:
		return d.Len == other.Len && d.Elem.Equal(other.Elem)
	case CompositeSequence, CompositeOption:
		return d.Elem.Equal(other.Elem)
	case CompositeMap:
		return d.Key.Equal(other.Key) && d.Value.Equal(other.Value)
	case CompositePair:
		return d.Left.Equal(other.Left) && d.Right.Equal(other.Right)
	default:
		return false
	}
}

// ParseDataType parses the manifest's data type DSL with a hand-rolled
// recursive-descent parser over a token cursor; the grammar has five fixed
// productions and needs no backtracking.
func ParseDataType(s string) (*DataType, error) {
	p := &typeParser{input: s}
	dt, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("unexpected trailing input %q in data type %q", p.input[p.pos:], s)
	}
	return dt, nil
}

type typeParser struct {
	input string
	pos   int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *typeParser) expect(b byte) error {
	p.skipSpace()
	if p.peek() != b {
		return fmt.Errorf("expected %q at position %d in %q", b, p.pos, p.input)
	}
	p.pos++
	return nil
}

func (p *typeParser) identifier() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		isIdent := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
		if !isIdent {
			break
		}
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *typeParser) parseType() (*DataType, error) {
	p.skipSpace()
	name := p.identifier()
	if name == "" {
		return nil, fmt.Errorf("expected type name at position %d in %q", p.pos, p.input)
	}

	switch name {
	case "array":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(';'); err != nil {
			return nil, err
		}
		p.skipSpace()
		start := p.pos
		for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
			p.pos++
		}
		n, err := strconv.Atoi(p.input[start:p.pos])
		if err != nil {
			return nil, fmt.Errorf("invalid array length in %q: %w", p.input, err)
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return &DataType{Composite: CompositeArray, Elem: elem, Len: n}, nil
	case "seq":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return &DataType{Composite: CompositeSequence, Elem: elem}, nil
	case "option":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return &DataType{Composite: CompositeOption, Elem: elem}, nil
	case "map":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		key, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		value, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return &DataType{Composite: CompositeMap, Key: key, Value: value}, nil
	case "pair":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		left, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		right, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return &DataType{Composite: CompositePair, Left: left, Right: right}, nil
	default:
		if scalarKinds[ScalarKind(strings.ToLower(name))] {
			return &DataType{Composite: CompositeNone, Scalar: ScalarKind(strings.ToLower(name))}, nil
		}
		// Not a recognized scalar or composite keyword: treat as a
		// user-defined object reference, resolved later against the
		// manifest's object table.
		return &DataType{Composite: CompositeObject, ObjectRef: name}, nil
	}
}
