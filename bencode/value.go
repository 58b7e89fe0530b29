// Package bencode implements the bencode serialization format with a dynamic value model.
//
// Byte strings and dictionary keys are kept as raw bytes. Dictionary keys are Go strings
// only because they must be usable as map keys; they are never assumed to be valid text.
package bencode

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
)

// Value is one of Int, Bytes, List, Dict or Raw.
type Value interface {
	isValue()
}

// Int is a bencoded integer.
type Int int64

// Bytes is a bencoded byte string.
type Bytes []byte

// List is an ordered sequence of values.
type List []Value

// Dict is a dictionary keyed by raw byte strings.
// Keys are written in ascending byte order by the encoder.
type Dict map[string]Value

// Raw is a value that is already encoded. The encoder copies it to the output as is.
// It is used to retain the exact bytes of a decoded sub-dictionary.
type Raw []byte

func (Int) isValue()   {}
func (Bytes) isValue() {}
func (List) isValue()  {}
func (Dict) isValue()  {}
func (Raw) isValue()   {}

// Keys returns the keys of d sorted by raw byte value.
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Int returns the integer value at key.
func (d Dict) Int(key string) (int64, bool) {
	v, ok := d[key].(Int)
	return int64(v), ok
}

// Bytes returns the byte string value at key.
func (d Dict) Bytes(key string) ([]byte, bool) {
	v, ok := d[key].(Bytes)
	return []byte(v), ok
}

// String returns the byte string value at key converted to a Go string.
func (d Dict) String(key string) (string, bool) {
	v, ok := d[key].(Bytes)
	return string(v), ok
}

// List returns the list value at key.
func (d Dict) List(key string) (List, bool) {
	v, ok := d[key].(List)
	return v, ok
}

// Dict returns the dictionary value at key.
// A Raw value holding a dictionary is decoded on the fly.
func (d Dict) Dict(key string) (Dict, bool) {
	switch v := d[key].(type) {
	case Dict:
		return v, true
	case Raw:
		dv, err := Decode(v)
		if err != nil {
			return nil, false
		}
		dd, ok := dv.(Dict)
		return dd, ok
	}
	return nil, false
}

// Equal reports whether a and b hold the same data.
// Raw values are compared by their decoded form when compared against other kinds.
func Equal(a, b Value) bool {
	if ra, ok := a.(Raw); ok {
		if rb, ok2 := b.(Raw); ok2 {
			return bytes.Equal(ra, rb)
		}
		da, err := Decode(ra)
		if err != nil {
			return false
		}
		return Equal(da, b)
	}
	if _, ok := b.(Raw); ok {
		return Equal(b, a)
	}
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Bytes:
		bv, ok := b.(Bytes)
		return ok && bytes.Equal(av, bv)
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Dict:
		bv, ok := b.(Dict)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			v2, ok := bv[k]
			if !ok || !Equal(v, v2) {
				return false
			}
		}
		return true
	}
	return false
}

// From converts a Go value into a Value.
// Supported inputs are integer kinds, string, []byte, slices, maps with string keys and Value itself.
func From(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x, nil
	case string:
		return Bytes(x), nil
	case []byte:
		return Bytes(x), nil
	case bool:
		if x {
			return Int(1), nil
		}
		return Int(0), nil
	case nil:
		return nil, fmt.Errorf("bencode: cannot convert nil")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(int64(rv.Uint())), nil
	case reflect.Slice, reflect.Array:
		l := make(List, rv.Len())
		for i := range l {
			e, err := From(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			l[i] = e
		}
		return l, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("bencode: map key must be string, got %s", rv.Type().Key())
		}
		d := make(Dict, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			e, err := From(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			d[iter.Key().String()] = e
		}
		return d, nil
	}
	return nil, fmt.Errorf("bencode: unsupported type %T", v)
}

// Interface converts v into plain Go values: int64, string, []any and map[string]any.
// Byte strings become Go strings without any text validation.
func Interface(v Value) any {
	switch x := v.(type) {
	case Int:
		return int64(x)
	case Bytes:
		return string(x)
	case List:
		l := make([]any, len(x))
		for i := range x {
			l[i] = Interface(x[i])
		}
		return l
	case Dict:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = Interface(e)
		}
		return m
	case Raw:
		dv, err := Decode(x)
		if err != nil {
			return []byte(x)
		}
		return Interface(dv)
	}
	return nil
}
