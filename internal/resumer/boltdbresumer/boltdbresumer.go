// Package boltdbresumer provides a Resumer implementation that uses a Bolt database file as storage.
package boltdbresumer

import (
	"fmt"
	"sort"
	"time"

	"github.com/Falcosc/libtorrent/internal/resumer"
	bolt "go.etcd.io/bbolt"
)

// Keys for the persisten storage.
var Keys = struct {
	InfoHash   []byte
	ResumeData []byte
	SavedAt    []byte
}{
	InfoHash:   []byte("info_hash"),
	ResumeData: []byte("resume_data"),
	SavedAt:    []byte("saved_at"),
}

// Resumer contains methods for saving/loading resume information of a torrent to a BoltDB database.
type Resumer struct {
	db     *bolt.DB
	bucket []byte
}

var _ resumer.Resumer = (*Resumer)(nil)

// New returns a new Resumer.
func New(db *bolt.DB, bucket []byte) (*Resumer, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err2 := tx.CreateBucketIfNotExists(bucket)
		return err2
	})
	if err != nil {
		return nil, err
	}
	return &Resumer{
		db:     db,
		bucket: bucket,
	}, nil
}

// Write the resume blob for torrent with `torrentID`.
func (r *Resumer) Write(torrentID string, infoHash [20]byte, blob []byte) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(r.bucket).CreateBucketIfNotExists([]byte(torrentID))
		if err != nil {
			return err
		}
		_ = b.Put(Keys.InfoHash, infoHash[:])
		_ = b.Put(Keys.ResumeData, blob)
		return b.Put(Keys.SavedAt, []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

// Read the resume blob of torrent with `torrentID`.
func (r *Resumer) Read(torrentID string) (*resumer.Entry, error) {
	var e *resumer.Entry
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(r.bucket).Bucket([]byte(torrentID))
		if b == nil {
			return fmt.Errorf("bucket not found: %q", torrentID)
		}

		value := b.Get(Keys.InfoHash)
		if len(value) != 20 {
			return fmt.Errorf("key not found: %q", string(Keys.InfoHash))
		}
		e = &resumer.Entry{ID: torrentID}
		copy(e.InfoHash[:], value)

		value = b.Get(Keys.ResumeData)
		if value == nil {
			return fmt.Errorf("key not found: %q", string(Keys.ResumeData))
		}
		// values are only valid during the transaction
		e.Blob = make([]byte, len(value))
		copy(e.Blob, value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes all data of the torrent.
func (r *Resumer) Delete(torrentID string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		err := tx.Bucket(r.bucket).DeleteBucket([]byte(torrentID))
		if err == bolt.ErrBucketNotFound {
			return nil
		}
		return err
	})
}

// List returns the IDs of the torrents in the database sorted.
func (r *Resumer) List() ([]string, error) {
	var ids []string
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(r.bucket).ForEach(func(k, v []byte) error {
			// nested buckets have nil values
			if v == nil {
				ids = append(ids, string(k))
			}
			return nil
		})
	})
	sort.Strings(ids)
	return ids, err
}
