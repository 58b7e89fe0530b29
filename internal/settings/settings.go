// Package settings contains the schema of session settings and the containers that hold their values.
package settings

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Falcosc/libtorrent/bencode"
)

// Version is reported in the default user agent.
const Version = "2.0.0"

var (
	// ErrUnknownKey is the kind of error returned for names that are not in the schema.
	ErrUnknownKey = errors.New("unknown setting key")
	// ErrInvalidValue is returned when a value has the wrong type or is rejected by the validator.
	ErrInvalidValue = errors.New("invalid setting value")
)

// UnknownKeyError lists every unknown name of a rejected update.
type UnknownKeyError struct {
	Keys []string
}

func (e *UnknownKeyError) Error() string {
	return "unknown setting key: " + strings.Join(e.Keys, ", ")
}

// Unwrap returns ErrUnknownKey.
func (e *UnknownKeyError) Unwrap() error {
	return ErrUnknownKey
}

// convert returns v as the Go type used for t: string, int64 or bool.
func convert(t Type, v any) (any, bool) {
	switch t {
	case String:
		switch x := v.(type) {
		case string:
			return x, true
		case []byte:
			return string(x), true
		}
	case Int:
		switch x := v.(type) {
		case int:
			return int64(x), true
		case int8:
			return int64(x), true
		case int16:
			return int64(x), true
		case int32:
			return int64(x), true
		case int64:
			return x, true
		case uint:
			return int64(x), uint64(x) <= math.MaxInt64
		case uint8:
			return int64(x), true
		case uint16:
			return int64(x), true
		case uint32:
			return int64(x), true
		case uint64:
			return int64(x), uint64(x) <= math.MaxInt64
		case float64:
			// numbers decoded from JSON or YAML
			return int64(x), x == math.Trunc(x) && math.Abs(x) < math.MaxInt64
		}
	case Bool:
		switch x := v.(type) {
		case bool:
			return x, true
		case int:
			return x != 0, x == 0 || x == 1
		case int64:
			return x != 0, x == 0 || x == 1
		}
	}
	return nil, false
}

func check(index int, v any) (any, error) {
	s := schema[index]
	cv, ok := convert(s.Type, v)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be %s, got %T", ErrInvalidValue, s.Name, s.Type, v)
	}
	if s.Validate != nil {
		if err := s.Validate(cv); err != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrInvalidValue, s.Name, err)
		}
	}
	return cv, nil
}

// Pack is a sparse set of setting values. The zero value is not usable, call NewPack.
type Pack struct {
	values map[int]any
}

// NewPack returns an empty pack.
func NewPack() *Pack {
	return &Pack{values: make(map[int]any)}
}

// FromMap validates every entry of m and returns them as a pack.
// All unknown names are reported together. Nothing is returned on error.
func FromMap(m map[string]any) (*Pack, error) {
	var unknown []string
	for name := range m {
		if _, ok := byName[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UnknownKeyError{Keys: unknown}
	}
	p := NewPack()
	for name, v := range m {
		if err := p.Set(name, v); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// LoadPack reads settings from a dictionary produced by Settings.Dict.
// Unknown keys and values of the wrong type are skipped.
func LoadPack(d bencode.Dict) *Pack {
	p := NewPack()
	for name, v := range d {
		i, ok := byName[name]
		if !ok {
			continue
		}
		var raw any
		switch x := v.(type) {
		case bencode.Int:
			raw = int64(x)
		case bencode.Bytes:
			raw = string(x)
		default:
			continue
		}
		if cv, err := check(i, raw); err == nil {
			p.values[i] = cv
		}
	}
	return p
}

// Set stores v for name. A later Set of the same name wins.
func (p *Pack) Set(name string, v any) error {
	i, ok := byName[name]
	if !ok {
		return &UnknownKeyError{Keys: []string{name}}
	}
	return p.SetIndex(i, v)
}

// SetIndex is like Set with a setting index.
func (p *Pack) SetIndex(index int, v any) error {
	if index < 0 || index >= len(schema) {
		return fmt.Errorf("%w: index %d", ErrUnknownKey, index)
	}
	cv, err := check(index, v)
	if err != nil {
		return err
	}
	p.values[index] = cv
	return nil
}

// Has reports whether the pack contains a value for name.
func (p *Pack) Has(name string) bool {
	i, ok := byName[name]
	if !ok {
		return false
	}
	_, ok = p.values[i]
	return ok
}

// Get returns the value for name if the pack contains it.
func (p *Pack) Get(name string) (any, bool) {
	i, ok := byName[name]
	if !ok {
		return nil, false
	}
	v, ok := p.values[i]
	return v, ok
}

// ClearKey removes the value for name.
func (p *Pack) ClearKey(name string) {
	if i, ok := byName[name]; ok {
		delete(p.values, i)
	}
}

// Clear removes all values.
func (p *Pack) Clear() {
	p.values = make(map[int]any)
}

// Len returns the number of values in the pack.
func (p *Pack) Len() int {
	return len(p.values)
}

// Settings is a complete set of values, one per schema entry.
// It is not safe for concurrent use.
type Settings struct {
	values []any
}

// New returns settings with default values.
func New() *Settings {
	s := &Settings{values: make([]any, len(schema))}
	for i, e := range schema {
		s.values[i] = e.Default
	}
	return s
}

// Apply copies every value of p into s.
func (s *Settings) Apply(p *Pack) {
	for i, v := range p.values {
		s.values[i] = v
	}
}

// Copy returns settings that do not share memory with s.
func (s *Settings) Copy() *Settings {
	return &Settings{values: append([]any(nil), s.values...)}
}

// Get returns the value of name. Unknown names return nil.
func (s *Settings) Get(name string) any {
	i, ok := byName[name]
	if !ok {
		return nil
	}
	return s.values[i]
}

// Int returns the value of an integer setting.
func (s *Settings) Int(name string) int64 {
	v, _ := s.Get(name).(int64)
	return v
}

// Bool returns the value of a boolean setting.
func (s *Settings) Bool(name string) bool {
	v, _ := s.Get(name).(bool)
	return v
}

// String returns the value of a string setting.
func (s *Settings) String(name string) string {
	v, _ := s.Get(name).(string)
	return v
}

// Map returns every setting keyed by name.
func (s *Settings) Map() map[string]any {
	m := make(map[string]any, len(s.values))
	for i, v := range s.values {
		m[schema[i].Name] = v
	}
	return m
}

// Dict returns the settings that differ from their defaults.
func (s *Settings) Dict() bencode.Dict {
	d := bencode.Dict{}
	for i, v := range s.values {
		if v == schema[i].Default {
			continue
		}
		switch x := v.(type) {
		case string:
			d[schema[i].Name] = bencode.Bytes(x)
		case int64:
			d[schema[i].Name] = bencode.Int(x)
		case bool:
			var n bencode.Int
			if x {
				n = 1
			}
			d[schema[i].Name] = n
		}
	}
	return d
}
