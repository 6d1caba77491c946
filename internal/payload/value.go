// Package payload provides a tagged value type for decoded HTTP response bodies.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Kind is the structural type of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Member is one key/value pair of an object. Objects keep source order.
type Member struct {
	Key   string
	Value Value
}

// Value is a decoded response body: null, bool, number, string, array, or object.
// The zero Value is null.
type Value struct {
	kind    Kind
	b       bool
	n       float64
	s       string
	elems   []Value
	members []Member
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a number.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array builds an array value.
func Array(elems ...Value) Value { return Value{kind: KindArray, elems: elems} }

// Object builds an object value. Later duplicate keys shadow earlier ones on lookup.
func Object(members ...Member) Value { return Value{kind: KindObject, members: members} }

// Kind returns the structural type.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean and whether v is a bool.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Number returns the number and whether v is a number.
func (v Value) Number() (float64, bool) { return v.n, v.kind == KindNumber }

// Str returns the string and whether v is a string.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Elems returns array elements, or nil for non-arrays.
func (v Value) Elems() []Value { return v.elems }

// Members returns object members in source order, or nil for non-objects.
func (v Value) Members() []Member { return v.members }

// Get looks up an object member by key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for i := len(v.members) - 1; i >= 0; i-- {
		if v.members[i].Key == key {
			return v.members[i].Value, true
		}
	}
	return Value{}, false
}

// ErrTrailingData is returned when a body holds more than one JSON value.
var ErrTrailingData = errors.New("trailing data after JSON value")

// Parse decodes a JSON document into a Value, preserving object key order.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, ErrTrailingData
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("parse number %q: %w", t, err)
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			elems := []Value{}
			for dec.More() {
				elem, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				elems = append(elems, elem)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(elems...), nil
		case '{':
			members := []Member{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("unexpected object key %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Object(members...), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

// MarshalJSON encodes the value, keeping object member order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		b, err := json.Marshal(v.n)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("encode: unknown kind %s", v.kind)
	}
	return nil
}
