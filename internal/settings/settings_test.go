package settings

import (
	"errors"
	"testing"

	"github.com/Falcosc/libtorrent/bencode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, d bencode.Dict) string {
	b, err := bencode.Encode(d)
	require.NoError(t, err)
	return string(b)
}

func TestDefaultSettingsSaveEmpty(t *testing.T) {
	s := New()
	assert.Equal(t, "de", encode(t, s.Dict()))
}

func TestApplyPack(t *testing.T) {
	p := NewPack()
	require.NoError(t, p.Set("max_out_request_queue", 1337))

	s := New()
	assert.NotEqual(t, int64(1337), s.Int("max_out_request_queue"))
	s.Apply(p)
	assert.Equal(t, int64(1337), s.Int("max_out_request_queue"))
	assert.Equal(t, "d21:max_out_request_queuei1337ee", encode(t, s.Dict()))
}

func TestSparsePack(t *testing.T) {
	p := NewPack()
	assert.False(t, p.Has("send_redundant_have"))
	require.NoError(t, p.Set("send_redundant_have", false))
	assert.True(t, p.Has("send_redundant_have"))
	assert.False(t, p.Has("user_agent"))
	v, ok := p.Get("send_redundant_have")
	assert.True(t, ok)
	assert.Equal(t, false, v)
}

func TestClear(t *testing.T) {
	p := NewPack()
	require.NoError(t, p.Set("num_want", 10))
	require.NoError(t, p.Set("user_agent", "test"))
	p.ClearKey("num_want")
	assert.False(t, p.Has("num_want"))
	assert.True(t, p.Has("user_agent"))
	p.Clear()
	assert.Equal(t, 0, p.Len())
}

func TestDuplicatesLastWins(t *testing.T) {
	p := NewPack()
	require.NoError(t, p.Set("peer_fingerprint", "abc"))
	require.NoError(t, p.Set("peer_fingerprint", "cde"))
	require.NoError(t, p.Set("peer_fingerprint", "efg"))
	v, _ := p.Get("peer_fingerprint")
	assert.Equal(t, "efg", v)
	assert.Equal(t, 1, p.Len())
}

func TestNameIndex(t *testing.T) {
	for _, name := range []string{"user_agent", "num_want", "enable_dht", "alert_mask", "choking_algorithm"} {
		i, ok := Index(name)
		require.True(t, ok, name)
		assert.Equal(t, name, Name(i))
	}
	_, ok := Index("no_such_setting")
	assert.False(t, ok)
	assert.Equal(t, "", Name(-1))
	assert.Equal(t, "", Name(len(Schema())))
}

func TestLoadPackFromDict(t *testing.T) {
	d := bencode.Dict{
		"cache_size_volatile":       bencode.Int(1),
		"predictive_piece_announce": bencode.Int(2),
		"proxy_tracker_connections": bencode.Int(0),
		"user_agent":                bencode.Bytes("test"),
		"not_a_setting":             bencode.Int(1),
		"num_want":                  bencode.Bytes("wrong type"),
	}
	p := LoadPack(d)
	assert.Equal(t, 4, p.Len())

	s := New()
	s.Apply(p)
	assert.Equal(t, int64(1), s.Int("cache_size_volatile"))
	assert.Equal(t, int64(2), s.Int("predictive_piece_announce"))
	assert.False(t, s.Bool("proxy_tracker_connections"))
	assert.Equal(t, "test", s.String("user_agent"))
	assert.Equal(t, int64(200), s.Int("num_want"))

	// saving again yields the same dictionary without the rejected entries
	delete(d, "not_a_setting")
	delete(d, "num_want")
	assert.Equal(t, encode(t, d), encode(t, s.Dict()))
}

func TestFromMapUnknownKeys(t *testing.T) {
	_, err := FromMap(map[string]any{"num_want": 5, "b_unknown": 1, "a_unknown": true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownKey))
	var uerr *UnknownKeyError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, []string{"a_unknown", "b_unknown"}, uerr.Keys)
}

func TestFromMapInvalidValue(t *testing.T) {
	cases := []map[string]any{
		{"num_want": "ten"},
		{"num_want": -1},
		{"num_want": 1.5},
		{"enable_dht": "yes"},
		{"enable_dht": 2},
		{"user_agent": 7},
		{"choking_algorithm": 4},
	}
	for _, m := range cases {
		_, err := FromMap(m)
		assert.ErrorIs(t, err, ErrInvalidValue, "%v", m)
	}
}

func TestFromMapConverts(t *testing.T) {
	p, err := FromMap(map[string]any{"num_want": float64(50), "enable_dht": 0, "user_agent": []byte("ua")})
	require.NoError(t, err)
	s := New()
	s.Apply(p)
	assert.Equal(t, int64(50), s.Int("num_want"))
	assert.False(t, s.Bool("enable_dht"))
	assert.Equal(t, "ua", s.String("user_agent"))
}

func TestMap(t *testing.T) {
	m := New().Map()
	assert.Len(t, m, len(Schema()))
	assert.Equal(t, true, m["enable_dht"])
	assert.Equal(t, int64(1000), m["alert_queue_size"])
}
