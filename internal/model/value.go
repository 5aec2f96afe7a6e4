package model

import (
	"fmt"
	"strconv"
)

// Value is a sealed interface for the values a value constraint may admit.
// Only StringValue and IntValue implement it; both are comparable, so values
// can be used directly as map keys.
type Value interface {
	value()
	fmt.Stringer
}

// StringValue is a textual domain value.
type StringValue string

func (StringValue) value() {}

func (v StringValue) String() string { return string(v) }

// IntValue is an integer domain value.
type IntValue int64

func (IntValue) value() {}

func (v IntValue) String() string { return strconv.FormatInt(int64(v), 10) }

// ValueOf converts a decoded scalar into a Value. Whole-number floats (as
// produced by some decoders) become IntValue.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case string:
		return StringValue(val), nil
	case int:
		return IntValue(val), nil
	case int64:
		return IntValue(val), nil
	case float64:
		if val != float64(int64(val)) {
			return nil, fmt.Errorf("non-integer numeric values are not supported: %v", val)
		}
		return IntValue(int64(val)), nil
	case bool:
		return StringValue(strconv.FormatBool(val)), nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// canonicalValue returns the representation used in canonical snapshots.
func canonicalValue(v Value) any {
	switch val := v.(type) {
	case IntValue:
		return int64(val)
	default:
		return v.String()
	}
}
