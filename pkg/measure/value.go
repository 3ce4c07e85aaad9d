// Package measure holds typed measure values and the write-once store that
// sensors and measure computers publish into during one analysis run.
package measure

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies the type carried by a Value.
type Kind uint8

// Value kinds. The zero Kind marks an empty Value.
const (
	KindInt Kind = iota + 1
	KindFloat
	KindBool
)

// Sentinel errors for value parsing and decoding.
var (
	// ErrEmptyValue indicates an attribute value with no text.
	ErrEmptyValue = errors.New("empty value")
	// ErrInvalidValue indicates text that is neither a number nor a boolean.
	ErrInvalidValue = errors.New("invalid value")
)

const (
	textTrue        = "true"
	textFalse       = "false"
	percentSuffix   = "%"
	thousandsSep    = ","
	floatFormatByte = 'f'
	gobHeaderSize   = 1
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "none"
	}
}

// Value is a numeric or boolean measure value. Integer and floating point
// values keep their kind so aggregations can preserve the input type.
type Value struct {
	i    int64
	f    float64
	b    bool
	kind Kind
}

// Int returns an integer Value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a floating point Value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether the value is empty.
func (v Value) IsZero() bool { return v.kind == 0 }

// IsNumeric reports whether the value is an Int or a Float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// Float64 returns the numeric value as float64.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Int64 returns the numeric value as int64, truncating floats.
func (v Value) Int64() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		return int64(v.f), true
	default:
		return 0, false
	}
}

// BoolValue returns the boolean value.
func (v Value) BoolValue() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}

	return v.b, true
}

// Interface returns the value as int64, float64 or bool, nil when empty.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// Equal reports whether both values have the same kind and content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f || (math.IsNaN(v.f) && math.IsNaN(other.f))
	case KindBool:
		return v.b == other.b
	default:
		return true
	}
}

// String formats the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// formatFloat always keeps a decimal point so a round trip through text
// preserves the Float kind.
func formatFloat(f float64) string {
	text := strconv.FormatFloat(f, floatFormatByte, -1, 64)
	if !strings.ContainsAny(text, ".eEIN") {
		text += ".0"
	}

	return text
}

// Parse converts report attribute text into a Value. Thousands separators
// and a trailing percent sign are ignored.
func Parse(text string) (Value, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Value{}, ErrEmptyValue
	}

	switch strings.ToLower(trimmed) {
	case textTrue:
		return Bool(true), nil
	case textFalse:
		return Bool(false), nil
	}

	cleaned := strings.TrimSuffix(trimmed, percentSuffix)
	cleaned = strings.ReplaceAll(cleaned, thousandsSep, "")

	if strings.ContainsAny(cleaned, ".eE") {
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q", ErrInvalidValue, text)
		}

		return Float(f), nil
	}

	i, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %q", ErrInvalidValue, text)
	}

	return Int(i), nil
}

// MarshalJSON encodes the value as a JSON number or boolean.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == 0 {
		return []byte("null"), nil
	}

	if v.kind == KindFloat && (math.IsNaN(v.f) || math.IsInf(v.f, 0)) {
		return nil, fmt.Errorf("%w: %v is not representable in JSON", ErrInvalidValue, v.f)
	}

	return []byte(v.String()), nil
}

// UnmarshalJSON decodes a JSON number or boolean. Numbers with a fraction or
// exponent become Float values, all others Int values.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*v = Value{}

		return nil
	}

	var raw any

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	decodeErr := decoder.Decode(&raw)
	if decodeErr != nil {
		return fmt.Errorf("decode value: %w", decodeErr)
	}

	switch typed := raw.(type) {
	case bool:
		*v = Bool(typed)
	case json.Number:
		parsed, err := Parse(typed.String())
		if err != nil {
			return err
		}

		*v = parsed
	default:
		return fmt.Errorf("%w: %s", ErrInvalidValue, trimmed)
	}

	return nil
}

// MarshalYAML encodes the value as a YAML scalar.
func (v Value) MarshalYAML() (any, error) {
	if v.kind == KindFloat {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: v.String()}, nil
	}

	return v.Interface(), nil
}

// UnmarshalYAML decodes a YAML scalar with the same rules as Parse.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		*v = Value{}

		return nil
	}

	parsed, err := Parse(node.Value)
	if err != nil {
		return err
	}

	*v = parsed

	return nil
}

// GobEncode encodes the kind as a header byte followed by the text form.
func (v Value) GobEncode() ([]byte, error) {
	buf := make([]byte, 0, gobHeaderSize+len(v.String()))
	buf = append(buf, byte(v.kind))
	buf = append(buf, v.String()...)

	return buf, nil
}

// GobDecode restores a value written by GobEncode.
func (v *Value) GobDecode(data []byte) error {
	if len(data) < gobHeaderSize {
		return fmt.Errorf("%w: short gob payload", ErrInvalidValue)
	}

	kind := Kind(data[0])
	text := string(data[gobHeaderSize:])

	switch kind {
	case 0:
		*v = Value{}
	case KindBool:
		*v = Bool(text == textTrue)
	case KindInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidValue, text)
		}

		*v = Int(i)
	case KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidValue, text)
		}

		*v = Float(f)
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidValue, kind)
	}

	return nil
}
