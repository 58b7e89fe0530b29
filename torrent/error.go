package torrent

import (
	"errors"

	"github.com/Falcosc/libtorrent/bencode"
	"github.com/Falcosc/libtorrent/internal/settings"
	"github.com/Falcosc/libtorrent/metainfo"
)

var (
	// ErrMalformed is returned when bencoded input does not follow the grammar.
	ErrMalformed = bencode.ErrMalformed
	// ErrMissingField is returned when a required key of a torrent file or resume blob is absent.
	ErrMissingField = metainfo.ErrMissingField
	// ErrInvalidField is returned when a key has the wrong type or an out of range value.
	ErrInvalidField = metainfo.ErrInvalidField
	// ErrIndexOutOfRange is returned for file or piece indexes past the end.
	ErrIndexOutOfRange = metainfo.ErrIndexOutOfRange
	// ErrUnknownSettingKey is matched by *UnknownSettingKeyError.
	ErrUnknownSettingKey = settings.ErrUnknownKey
	// ErrInvalidSettingValue is returned when a setting value has the wrong type or fails validation.
	ErrInvalidSettingValue = settings.ErrInvalidValue

	// ErrHashMismatch is returned when the info hash of the metadata differs from the expected one.
	ErrHashMismatch = errors.New("info hash mismatch")
	// ErrInvalidPriority is returned for priorities outside of [0, 7].
	ErrInvalidPriority = errors.New("invalid priority")
	// ErrDuplicateTorrent is returned when a torrent with the same info hash is already in the session.
	ErrDuplicateTorrent = errors.New("torrent already exists")
	// ErrNoMetadata is returned for operations that need the info dictionary before it is known.
	ErrNoMetadata = errors.New("torrent metadata is not available")
	// ErrPeerBanned is returned when connecting to a banned peer.
	ErrPeerBanned = errors.New("peer is banned")
	// ErrPeerBlocked is returned when connecting to a peer in a blocked IP range.
	ErrPeerBlocked = errors.New("peer is blocked by ip filter")
	// ErrTorrentRemoved is returned from operations on a removed torrent.
	ErrTorrentRemoved = errors.New("torrent is removed")
	// ErrSessionClosed is returned from operations on a closed session.
	ErrSessionClosed = errors.New("session is closed")
)

// UnknownSettingKeyError lists every unknown key of a settings map.
type UnknownSettingKeyError = settings.UnknownKeyError

// InputError is returned from Session.AddTorrent when there is problem with the input.
type InputError struct {
	err error
}

func newInputError(err error) *InputError {
	return &InputError{
		err: err,
	}
}

// Error implements error interface.
func (e *InputError) Error() string {
	return "input error: " + e.err.Error()
}

// Unwrap returns the underlying error.
func (e *InputError) Unwrap() error {
	return e.err
}
