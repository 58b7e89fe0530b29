package bencode

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	v, err := From(map[string]any{"a": 1, "b": []int{1, 2, 3}, "c": "foo"})
	require.NoError(t, err)
	b, err := Encode(v)
	require.NoError(t, err)
	assert.Equal(t, "d1:ai1e1:bli1ei2ei3ee1:c3:fooe", string(b))
}

func TestDecode(t *testing.T) {
	v, err := Decode([]byte("d1:ai1e1:bli1ei2ei3ee1:c3:fooe"))
	require.NoError(t, err)
	expected := Dict{
		"a": Int(1),
		"b": List{Int(1), Int(2), Int(3)},
		"c": Bytes("foo"),
	}
	assert.Equal(t, expected, v)
}

func TestEncodeSortsKeys(t *testing.T) {
	d := Dict{"zz": Int(0), "b": Bytes("x"), "a\xff": Int(1), "a": Int(-5)}
	b, err := Encode(d)
	require.NoError(t, err)
	assert.Equal(t, "d1:ai-5e2:a\xffi1e1:b1:x2:zzi0ee", string(b))
}

func TestDecodeKeepsBinaryKeys(t *testing.T) {
	v, err := Decode([]byte("d2:\x00\xffi7ee"))
	require.NoError(t, err)
	n, ok := v.(Dict).Int("\x00\xff")
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)
}

func TestRoundTrip(t *testing.T) {
	values := []Value{
		Int(0),
		Int(-42),
		Int(9223372036854775807),
		Bytes(""),
		Bytes("\x00\x01binary"),
		List{},
		Dict{},
		List{List{Dict{"x": List{Int(1)}}}, Bytes("y")},
		Dict{"info": Dict{"length": Int(1234), "name": Bytes("n")}, "announce": Bytes("http://t/a")},
	}
	for _, v := range values {
		b, err := Encode(v)
		require.NoError(t, err)
		v2, err := Decode(b)
		require.NoError(t, err, string(b))
		assert.True(t, Equal(v, v2), string(b))
		b2, err := Encode(v2)
		require.NoError(t, err)
		assert.Equal(t, b, b2)
	}
}

func TestDecodeUnsortedKeysReencodeSorted(t *testing.T) {
	v, err := Decode([]byte("d1:bi2e1:ai1ee"))
	require.NoError(t, err)
	b, err := Encode(v)
	require.NoError(t, err)
	assert.Equal(t, "d1:ai1e1:bi2ee", string(b))
}

func TestRawIsCopiedVerbatim(t *testing.T) {
	d := Dict{"info": Raw("d1:bi2e1:ai1ee"), "a": Int(1)}
	b, err := Encode(d)
	require.NoError(t, err)
	assert.Equal(t, "d1:ai1e4:infod1:bi2e1:ai1eee", string(b))
	assert.True(t, Equal(d["info"], Dict{"a": Int(1), "b": Int(2)}))
	_, err = Encode(Raw(nil))
	assert.Error(t, err)
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":                 "",
		"leading zero":          "i03e",
		"negative zero":         "i-0e",
		"empty integer":         "ie",
		"lone minus":            "i-e",
		"non numeric integer":   "i1x2e",
		"unterminated integer":  "i12",
		"negative length":       "-1:a",
		"non numeric length":    "1x:a",
		"leading zero length":   "01:a",
		"truncated string":      "5:ab",
		"unterminated list":     "li1e",
		"unterminated dict":     "d1:a",
		"dict missing value":    "d1:ae",
		"integer key":           "di1ei2ee",
		"duplicate key":         "d1:ai1e1:ai2ee",
		"trailing data":         "i1ei2e",
		"unknown type":          "x",
		"integer out of range":  "i99999999999999999999e",
		"truncated nested list": "lli1ee",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), err.Error())
			var serr *SyntaxError
			assert.True(t, errors.As(err, &serr))
		})
	}
}

func TestDecodeDepthLimit(t *testing.T) {
	deep := strings.Repeat("l", MaxDepth+1) + strings.Repeat("e", MaxDepth+1)
	_, err := Decode([]byte(deep))
	assert.ErrorIs(t, err, ErrMalformed)

	ok := strings.Repeat("l", MaxDepth) + strings.Repeat("e", MaxDepth)
	_, err = Decode([]byte(ok))
	assert.NoError(t, err)

	_, err = DecodeDepth([]byte("lllee"), 2)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeReaderLimit(t *testing.T) {
	_, err := DecodeReader(bytes.NewReader([]byte("4:spam")), 3)
	assert.ErrorIs(t, err, ErrMalformed)
	v, err := DecodeReader(bytes.NewReader([]byte("4:spam")), 6)
	require.NoError(t, err)
	assert.Equal(t, Bytes("spam"), v)
}

func TestEncoderStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Encode(Int(1)))
	require.NoError(t, enc.Encode(Bytes("ab")))
	assert.Equal(t, "i1e2:ab", buf.String())
	assert.Error(t, enc.Encode(List{nil}))
}

func TestFromUnsupported(t *testing.T) {
	_, err := From(3.14)
	assert.Error(t, err)
	_, err = From(map[int]int{1: 1})
	assert.Error(t, err)
	_, err = From(nil)
	assert.Error(t, err)
}

func TestInterface(t *testing.T) {
	v := Dict{"a": List{Int(1), Bytes("x")}, "r": Raw("i5e")}
	assert.Equal(t, map[string]any{"a": []any{int64(1), "x"}, "r": int64(5)}, Interface(v))
}

func TestDictGetters(t *testing.T) {
	d := Dict{"i": Int(3), "s": Bytes("str"), "l": List{}, "d": Dict{}, "r": Raw("d1:xi1ee")}
	_, ok := d.Int("s")
	assert.False(t, ok)
	s, ok := d.String("s")
	assert.True(t, ok)
	assert.Equal(t, "str", s)
	_, ok = d.List("l")
	assert.True(t, ok)
	_, ok = d.Dict("d")
	assert.True(t, ok)
	rd, ok := d.Dict("r")
	assert.True(t, ok)
	assert.Equal(t, Dict{"x": Int(1)}, rd)
	assert.Equal(t, []string{"d", "i", "l", "r", "s"}, d.Keys())
}
