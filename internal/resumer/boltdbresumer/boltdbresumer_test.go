package boltdbresumer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func openDB(t *testing.T) *bolt.DB {
	db, err := bolt.Open(filepath.Join(t.TempDir(), "resume.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestWriteRead(t *testing.T) {
	r, err := New(openDB(t), []byte("torrents"))
	require.NoError(t, err)

	ih := [20]byte{1, 2, 3}
	require.NoError(t, r.Write("b", ih, []byte("d1:ai1ee")))
	require.NoError(t, r.Write("a", [20]byte{4}, []byte("de")))

	e, err := r.Read("b")
	require.NoError(t, err)
	assert.Equal(t, "b", e.ID)
	assert.Equal(t, ih, e.InfoHash)
	assert.Equal(t, []byte("d1:ai1ee"), e.Blob)

	// overwrite
	require.NoError(t, r.Write("b", ih, []byte("d1:bi2ee")))
	e, err = r.Read("b")
	require.NoError(t, err)
	assert.Equal(t, []byte("d1:bi2ee"), e.Blob)

	ids, err := r.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, r.Delete("b"))
	require.NoError(t, r.Delete("b"))
	_, err = r.Read("b")
	assert.Error(t, err)
	ids, err = r.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.db")
	db, err := bolt.Open(path, 0600, nil)
	require.NoError(t, err)
	r, err := New(db, []byte("torrents"))
	require.NoError(t, err)
	require.NoError(t, r.Write("id", [20]byte{9}, []byte("de")))
	require.NoError(t, db.Close())

	db, err = bolt.Open(path, 0600, nil)
	require.NoError(t, err)
	defer db.Close()
	r, err = New(db, []byte("torrents"))
	require.NoError(t, err)
	e, err := r.Read("id")
	require.NoError(t, err)
	assert.Equal(t, [20]byte{9}, e.InfoHash)
}
