// Package record models the flat, uniform-shape rows the diagnostics core
// reshapes: typed cell values, records, and structured group keys.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags the dynamic type held by a Value.
type Kind uint8

// Value kinds.
const (
	KindString Kind = iota
	KindNumber
)

// Value is a single cell: either a string or a float64.
type Value struct {
	kind Kind
	s    string
	f    float64
}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, f: f} }

// Kind reports the Value kind.
func (v Value) Kind() Kind { return v.kind }

// IsNumber reports whether the Value holds a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// String renders the Value. Numbers use the shortest decimal form.
func (v Value) String() string {
	if v.kind == KindNumber {
		return FormatFloat(v.f)
	}
	return v.s
}

// IsEmpty reports whether the Value is an empty (or blank) string.
func (v Value) IsEmpty() bool {
	return v.kind == KindString && strings.TrimSpace(v.s) == ""
}

// Equal reports value equality, including the kind.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindNumber {
		return v.f == o.f
	}
	return v.s == o.s
}

// MarshalJSON encodes strings as JSON strings and numbers as JSON numbers.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber {
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, fmt.Errorf("record: cannot encode non-finite number %v", v.f)
		}
		return []byte(strconv.FormatFloat(v.f, 'g', -1, 64)), nil
	}
	return json.Marshal(v.s)
}

// UnmarshalJSON accepts a JSON string, number, or null (decoded as "").
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*v = String("")
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = String(s)
	case bytes.Equal(b, []byte("true")), bytes.Equal(b, []byte("false")):
		*v = String(string(b))
	default:
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return fmt.Errorf("record: decode value %s: %w", b, err)
		}
		*v = Number(f)
	}
	return nil
}

// FormatFloat renders f in its shortest exact decimal form ("0.5", "1", "0.025").
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Record maps field names to values.
type Record map[string]Value

// Get returns the value of field or a *MissingFieldError.
func (r Record) Get(field string) (Value, error) {
	v, ok := r[field]
	if !ok {
		return Value{}, &MissingFieldError{Field: field}
	}
	return v, nil
}

// Float parses field as a finite float64. Empty, unparseable, NaN and
// infinite values yield an *InvalidNumericValueError.
func (r Record) Float(field string) (float64, error) {
	v, err := r.Get(field)
	if err != nil {
		return 0, err
	}
	if v.kind == KindNumber {
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return 0, &InvalidNumericValueError{Field: field, Value: v.String()}
		}
		return v.f, nil
	}
	s := strings.TrimSpace(v.s)
	if s == "" {
		return 0, &InvalidNumericValueError{Field: field}
	}
	f, perr := strconv.ParseFloat(s, 64)
	if perr != nil {
		return 0, &InvalidNumericValueError{Field: field, Value: v.s, Err: perr}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &InvalidNumericValueError{Field: field, Value: v.s}
	}
	return f, nil
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// With returns a copy of r with field set to v. r is left untouched.
func (r Record) With(field string, v Value) Record {
	out := r.Clone()
	out[field] = v
	return out
}

// Predicate selects records.
type Predicate func(Record) bool

// Filter returns the records matching every predicate, preserving order.
func Filter(records []Record, preds ...Predicate) []Record {
	out := make([]Record, 0, len(records))
next:
	for _, r := range records {
		for _, p := range preds {
			if !p(r) {
				continue next
			}
		}
		out = append(out, r)
	}
	return out
}

// FieldEquals matches records whose field renders as value.
func FieldEquals(field, value string) Predicate {
	return func(r Record) bool {
		v, ok := r[field]
		return ok && v.String() == value
	}
}

// DropEmpty removes records whose field is an empty string. A record that
// does not carry the field at all is an error, not an empty value.
func DropEmpty(records []Record, field string) ([]Record, error) {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		v, err := r.Get(field)
		if err != nil {
			return nil, err
		}
		if v.IsEmpty() {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
