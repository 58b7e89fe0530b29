package bencode

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// MaxDepth is the default limit of nested lists and dictionaries accepted by the decoder.
const MaxDepth = 256

// ErrMalformed is the kind of every error returned for structurally invalid input.
var ErrMalformed = errors.New("malformed bencode")

// SyntaxError describes where the input stopped being valid bencode.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("bencode: %s at offset %d", e.Msg, e.Offset)
}

// Unwrap returns ErrMalformed so callers can match with errors.Is.
func (e *SyntaxError) Unwrap() error {
	return ErrMalformed
}

// Decode parses a single value from b. The whole input must be consumed.
func Decode(b []byte) (Value, error) {
	return DecodeDepth(b, MaxDepth)
}

// DecodeDepth is like Decode with a custom nesting limit.
func DecodeDepth(b []byte, maxDepth int) (Value, error) {
	d := decoder{data: b, maxDepth: maxDepth}
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, d.errorf("trailing data after value")
	}
	return v, nil
}

// DecodeReader reads r until EOF and decodes a single value.
// At most limit bytes are read; a larger input is rejected.
func DecodeReader(r io.Reader, limit int64) (Value, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, &SyntaxError{Offset: int(limit), Msg: "input too large"}
	}
	return Decode(b)
}

type decoder struct {
	data     []byte
	pos      int
	depth    int
	maxDepth int
}

func (d *decoder) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: d.pos, Msg: fmt.Sprintf(format, args...)}
}

func (d *decoder) value() (Value, error) {
	if d.pos >= len(d.data) {
		return nil, d.errorf("unexpected end of input")
	}
	switch c := d.data[d.pos]; {
	case c == 'i':
		d.pos++
		n, err := d.integer('e')
		if err != nil {
			return nil, err
		}
		return Int(n), nil
	case c == 'l':
		return d.list()
	case c == 'd':
		return d.dict()
	case c >= '0' && c <= '9':
		s, err := d.bytes()
		if err != nil {
			return nil, err
		}
		return Bytes(s), nil
	case c == '-':
		return nil, d.errorf("negative string length")
	default:
		return nil, d.errorf("invalid value type %q", c)
	}
}

// integer reads digits until the terminator and consumes it.
func (d *decoder) integer(term byte) (int64, error) {
	start := d.pos
	for d.pos < len(d.data) && d.data[d.pos] != term {
		d.pos++
	}
	if d.pos >= len(d.data) {
		d.pos = start
		return 0, d.errorf("unterminated integer")
	}
	s := d.data[start:d.pos]
	if err := checkInteger(s); err != "" {
		d.pos = start
		return 0, d.errorf("%s", err)
	}
	n, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		d.pos = start
		return 0, d.errorf("integer out of range")
	}
	d.pos++ // terminator
	return n, nil
}

func checkInteger(s []byte) string {
	if len(s) == 0 {
		return "empty integer"
	}
	digits := s
	if s[0] == '-' {
		digits = s[1:]
		if len(digits) == 0 {
			return "empty integer"
		}
		if digits[0] == '0' {
			return "negative zero or leading zero"
		}
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return "non-numeric character in integer"
		}
	}
	if len(digits) > 1 && digits[0] == '0' {
		return "leading zero in integer"
	}
	return ""
}

func (d *decoder) bytes() ([]byte, error) {
	start := d.pos
	n, err := d.integer(':')
	if err != nil {
		return nil, err
	}
	if n < 0 {
		d.pos = start
		return nil, d.errorf("negative string length")
	}
	if n > int64(len(d.data)-d.pos) {
		d.pos = start
		return nil, d.errorf("string length %d exceeds input", n)
	}
	s := make([]byte, n)
	copy(s, d.data[d.pos:])
	d.pos += int(n)
	return s, nil
}

func (d *decoder) enter() error {
	d.depth++
	if d.depth > d.maxDepth {
		return d.errorf("nesting deeper than %d", d.maxDepth)
	}
	return nil
}

func (d *decoder) list() (Value, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	d.pos++ // 'l'
	l := List{}
	for {
		if d.pos >= len(d.data) {
			return nil, d.errorf("unterminated list")
		}
		if d.data[d.pos] == 'e' {
			d.pos++
			d.depth--
			return l, nil
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		l = append(l, v)
	}
}

func (d *decoder) dict() (Value, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	d.pos++ // 'd'
	m := Dict{}
	for {
		if d.pos >= len(d.data) {
			return nil, d.errorf("unterminated dictionary")
		}
		c := d.data[d.pos]
		if c == 'e' {
			d.pos++
			d.depth--
			return m, nil
		}
		if c < '0' || c > '9' {
			return nil, d.errorf("dictionary key must be a byte string")
		}
		keyPos := d.pos
		k, err := d.bytes()
		if err != nil {
			return nil, err
		}
		key := string(k)
		if _, ok := m[key]; ok {
			d.pos = keyPos
			return nil, d.errorf("duplicate dictionary key %q", key)
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		m[key] = v
	}
}
