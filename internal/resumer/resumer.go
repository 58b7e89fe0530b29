// Package resumer contains an interface that is used by torrent package for persisting resume data.
package resumer

// Resumer provides operations to save and load resume data of torrents.
type Resumer interface {
	// Write stores the resume blob of a torrent, replacing the previous one.
	Write(torrentID string, infoHash [20]byte, blob []byte) error
	// Read returns the stored blob of a torrent.
	Read(torrentID string) (*Entry, error)
	// Delete removes the torrent. Deleting a missing torrent is not an error.
	Delete(torrentID string) error
	// List returns the IDs of all stored torrents.
	List() ([]string, error)
}

// Entry is a stored resume blob.
type Entry struct {
	ID       string
	InfoHash [20]byte
	Blob     []byte
}
