package bencode

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

var errEmptyRaw = errors.New("bencode: empty raw value")

// Encode returns the canonical encoding of v.
func Encode(v Value) ([]byte, error) {
	return AppendEncode(nil, v)
}

// AppendEncode appends the canonical encoding of v to dst.
func AppendEncode(dst []byte, v Value) ([]byte, error) {
	switch x := v.(type) {
	case Int:
		dst = append(dst, 'i')
		dst = strconv.AppendInt(dst, int64(x), 10)
		return append(dst, 'e'), nil
	case Bytes:
		return appendString(dst, x), nil
	case List:
		dst = append(dst, 'l')
		var err error
		for _, e := range x {
			dst, err = AppendEncode(dst, e)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, 'e'), nil
	case Dict:
		dst = append(dst, 'd')
		var err error
		for _, k := range x.Keys() {
			dst = appendString(dst, []byte(k))
			dst, err = AppendEncode(dst, x[k])
			if err != nil {
				return nil, fmt.Errorf("%w (key %q)", err, k)
			}
		}
		return append(dst, 'e'), nil
	case Raw:
		if len(x) == 0 {
			return nil, errEmptyRaw
		}
		return append(dst, x...), nil
	case nil:
		return nil, errors.New("bencode: cannot encode nil value")
	}
	return nil, fmt.Errorf("bencode: unsupported value type %T", v)
}

func appendString(dst, s []byte) []byte {
	dst = strconv.AppendInt(dst, int64(len(s)), 10)
	dst = append(dst, ':')
	return append(dst, s...)
}

// Encoder writes bencoded values to an output stream.
type Encoder struct {
	w   io.Writer
	buf []byte
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the canonical encoding of v to the stream.
func (e *Encoder) Encode(v Value) error {
	var err error
	e.buf, err = AppendEncode(e.buf[:0], v)
	if err != nil {
		return err
	}
	_, err = e.w.Write(e.buf)
	return err
}
