package metainfo

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is returned when a required key is absent.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidField is returned when a key has the wrong type or an unacceptable value.
	ErrInvalidField = errors.New("invalid field")
	// ErrIndexOutOfRange is returned when a piece or file index is not in the torrent.
	ErrIndexOutOfRange = errors.New("index out of range")
)

func missingField(key string) error {
	return fmt.Errorf("%w: %q", ErrMissingField, key)
}

func invalidField(key, reason string) error {
	return fmt.Errorf("%w: %q: %s", ErrInvalidField, key, reason)
}
