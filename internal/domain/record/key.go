package record

import (
	"strconv"
	"strings"
)

// GroupKey is an ordered tuple of (field, value) pairs identifying a
// partition. Two keys are equal when their fields and values are equal;
// there is no delimiter that a field value could collide with.
type GroupKey struct {
	fields []string
	values []Value
	id     string
}

// KeyOf builds the GroupKey of r over fields, in order.
func KeyOf(r Record, fields []string) (GroupKey, error) {
	values := make([]Value, len(fields))
	for i, f := range fields {
		v, err := r.Get(f)
		if err != nil {
			return GroupKey{}, err
		}
		values[i] = v
	}
	return NewGroupKey(fields, values), nil
}

// NewGroupKey pairs fields with values. Both slices are copied; they must
// have the same length.
func NewGroupKey(fields []string, values []Value) GroupKey {
	if len(fields) != len(values) {
		panic("record: group key fields and values differ in length")
	}
	k := GroupKey{
		fields: append([]string(nil), fields...),
		values: append([]Value(nil), values...),
	}
	k.id = k.encode()
	return k
}

// encode produces a length-prefixed identity, e.g. `s3:abc|n1:2|`.
func (k GroupKey) encode() string {
	var b strings.Builder
	for _, v := range k.values {
		s := v.String()
		if v.kind == KindNumber {
			b.WriteByte('n')
		} else {
			b.WriteByte('s')
		}
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
		b.WriteByte('|')
	}
	return b.String()
}

// ID returns a collision-free identity usable as a map key.
func (k GroupKey) ID() string { return k.id }

// Len returns the number of fields in the key.
func (k GroupKey) Len() int { return len(k.fields) }

// Fields returns a copy of the key's field names.
func (k GroupKey) Fields() []string { return append([]string(nil), k.fields...) }

// Values returns a copy of the key's values, aligned with Fields.
func (k GroupKey) Values() []Value { return append([]Value(nil), k.values...) }

// Value returns the key's value for field.
func (k GroupKey) Value(field string) (Value, bool) {
	for i, f := range k.fields {
		if f == field {
			return k.values[i], true
		}
	}
	return Value{}, false
}

// Equal reports whether k and o name the same partition.
func (k GroupKey) Equal(o GroupKey) bool {
	if len(k.fields) != len(o.fields) {
		return false
	}
	for i := range k.fields {
		if k.fields[i] != o.fields[i] || !k.values[i].Equal(o.values[i]) {
			return false
		}
	}
	return true
}

// Record reconstructs the key as a Record holding only the key fields.
func (k GroupKey) Record() Record {
	r := make(Record, len(k.fields))
	for i, f := range k.fields {
		r[f] = k.values[i]
	}
	return r
}

// String renders the key as `(target=A, chain=1)`.
func (k GroupKey) String() string {
	parts := make([]string, len(k.fields))
	for i, f := range k.fields {
		parts[i] = f + "=" + k.values[i].String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Group is one partition: its key and its members in input order.
type Group struct {
	Key     GroupKey
	Members []Record
}

// GroupBy partitions records by the given fields. Groups come back in the
// order their keys were first seen.
func GroupBy(records []Record, fields []string) ([]Group, error) {
	index := make(map[string]int)
	var groups []Group
	for _, r := range records {
		key, err := KeyOf(r, fields)
		if err != nil {
			return nil, err
		}
		i, ok := index[key.ID()]
		if !ok {
			i = len(groups)
			index[key.ID()] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Members = append(groups[i].Members, r)
	}
	return groups, nil
}
