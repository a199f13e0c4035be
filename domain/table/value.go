package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind classifies a cell value
type Kind uint8

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "empty"
	}
}

// Value is a single cell: empty, text or number.
type Value struct {
	kind Kind
	text string
	num  float64
}

// Empty returns the missing-value marker
func Empty() Value {
	return Value{}
}

// Text wraps a string. The empty string is treated as a missing value.
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: KindText, text: s}
}

// Number wraps a float. NaN and infinities are treated as missing values.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Kind returns the value classification
func (v Value) Kind() Kind {
	return v.kind
}

// IsEmpty reports whether the value is missing
func (v Value) IsEmpty() bool {
	return v.kind == KindEmpty
}

// IsBlank reports whether the value is missing or whitespace-only text
func (v Value) IsBlank() bool {
	return strings.TrimSpace(v.String()) == ""
}

// String returns the display form; numbers use the shortest decimal notation.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Trimmed returns String() without surrounding whitespace
func (v Value) Trimmed() string {
	return strings.TrimSpace(v.String())
}

// Float returns the numeric content of the value. Text is parsed leniently,
// accepting a decimal comma.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		s := strings.TrimSpace(v.text)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
			if f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// Equal compares kind and content
func (v Value) Equal(other Value) bool {
	return v.kind == other.kind && v.text == other.text && v.num == other.num
}

// MarshalJSON encodes empty as null, text as string and numbers as numbers
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindNumber:
		return []byte(strconv.FormatFloat(v.num, 'g', -1, 64)), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, strings, numbers and booleans
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Empty()
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Text(strconv.FormatBool(b))
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid cell value %s: %w", string(data), err)
	}
	*v = Number(f)
	return nil
}
