package torrent

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// InfoHash is the SHA-1 of the bencoded info dictionary.
type InfoHash [20]byte

// String encodes info hash in hex as 40 characters.
func (h InfoHash) String() string {
	return hex.EncodeToString(h[:])
}

// Less orders info hashes byte by byte.
func (h InfoHash) Less(o InfoHash) bool {
	return bytes.Compare(h[:], o[:]) < 0
}

// IsZero reports whether h is all zeros.
func (h InfoHash) IsZero() bool {
	return h == InfoHash{}
}

// ParseInfoHash decodes a 40 character hex string.
func ParseInfoHash(s string) (InfoHash, error) {
	var h InfoHash
	if len(s) != 2*len(h) {
		return h, fmt.Errorf("%w: info hash must be 40 hex characters", ErrInvalidField)
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, fmt.Errorf("%w: %s", ErrInvalidField, err)
	}
	return h, nil
}
