package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

var numberRe = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Value is a single cell of a record. Numbers keep the literal they were
// read with so that encoding and comparisons reproduce it exactly.
type Value struct {
	kind Kind
	text string // number literal or string contents
	b    bool
}

// Null returns the null Value.
func Null() Value { return Value{} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a number Value for a JSON number literal.
func Number(lit string) (Value, error) {
	lit = strings.TrimSpace(lit)
	if !numberRe.MatchString(lit) {
		return Value{}, fmt.Errorf("%w: %q is not a number literal", ErrUnsupportedValue, lit)
	}
	return Value{kind: KindNumber, text: lit}, nil
}

// Int returns a number Value for an integer.
func Int(n int) Value { return Value{kind: KindNumber, text: cast.ToString(n)} }

// FromAny converts a plain Go value into a Value. Integers and floats become
// numbers, nil becomes Null. Slices, maps and other composite types are rejected.
// Floats always carry a fraction or an exponent, so 5.0 stays "5.0".
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t.String())
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Number(cast.ToString(t))
	case float32:
		return floatValue(float64(t), 32)
	case float64:
		return floatValue(t, 64)
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// floatValue prints the shortest literal that round-trips. Exponents below -4
// or from 16 up use e-notation; otherwise integral values get a ".0".
func floatValue(f float64, bits int) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("%w: %v has no number literal", ErrUnsupportedValue, f)
	}
	sci := strconv.FormatFloat(f, 'e', -1, bits)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil {
		return Value{}, err
	}
	if exp < -4 || exp >= 16 {
		return Number(sci)
	}
	lit := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.Contains(lit, ".") {
		lit += ".0"
	}
	return Number(lit)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the string contents or number literal; empty for other kinds.
func (v Value) Text() string {
	if v.kind == KindString || v.kind == KindNumber {
		return v.text
	}
	return ""
}

// Stringify renders the value the way comparisons see it: Null is "None",
// booleans are "True"/"False", numbers are their literal. Distinct literals of
// the same number ("5" and "5.0") stay distinct.
func (v Value) Stringify() string {
	switch v.kind {
	case KindNumber, KindString:
		return v.text
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	default:
		return "None"
	}
}

// Matches reports whether both values stringify to the same text, ignoring case.
func (v Value) Matches(other Value) bool {
	return MatchText(v, other.Stringify())
}

// MatchText compares the stringified value with s, ignoring case.
func MatchText(v Value, s string) bool {
	return strings.ToLower(v.Stringify()) == strings.ToLower(s)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return []byte(v.text), nil
	case KindString:
		return json.Marshal(v.text)
	case KindBool:
		if v.b {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty value", ErrUnsupportedValue)
	}
	switch data[0] {
	case 'n':
		*v = Null()
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case '{', '[':
		return fmt.Errorf("%w: nested objects and arrays are not supported", ErrUnsupportedValue)
	default:
		n, err := Number(string(data))
		if err != nil {
			return err
		}
		*v = n
		return nil
	}
}

// cellValue classifies a raw CSV cell.
func cellValue(cell string) Value {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return Null()
	}
	if numberRe.MatchString(trimmed) {
		return Value{kind: KindNumber, text: trimmed}
	}
	return String(cell)
}
