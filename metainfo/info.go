package metainfo

import (
	"crypto/sha1" // nolint: gosec
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Falcosc/libtorrent/bencode"
)

// MaxFiles is the largest number of files in a torrent.
// File indexes given before the metadata is known are checked against it.
const MaxFiles = 1 << 20

// Info contains information about torrent.
// It is immutable after NewInfo returns.
type Info struct {
	PieceLength uint32
	NumPieces   uint32
	Name        string
	Private     bool
	Files       []File
	TotalLength int64

	// Calculated fileds
	Hash  [20]byte
	Bytes []byte

	pieces    []byte
	multiFile bool
}

// File is an entry in the concatenated storage space of the torrent.
type File struct {
	// Path segments as they appear in the info dictionary, without the torrent name.
	Path   []string
	Length int64
	// Offset of the file in the concatenated storage space.
	Offset int64
	// Padding files are inserted by some creators to align files to pieces.
	Padding bool
}

// NewInfo returns info from bencoded bytes in b.
// The info hash is the SHA-1 of b exactly.
func NewInfo(b []byte) (*Info, error) {
	v, err := bencode.Decode(b)
	if err != nil {
		return nil, err
	}
	d, ok := v.(bencode.Dict)
	if !ok {
		return nil, invalidField("info", "not a dictionary")
	}
	var i Info

	pl, ok := d["piece length"]
	if !ok {
		return nil, missingField("piece length")
	}
	plv, ok := pl.(bencode.Int)
	if !ok || plv <= 0 || plv > math.MaxUint32 {
		return nil, invalidField("piece length", "must be a positive integer")
	}
	i.PieceLength = uint32(plv)

	p, ok := d["pieces"]
	if !ok {
		return nil, missingField("pieces")
	}
	pieces, ok := p.(bencode.Bytes)
	if !ok {
		return nil, invalidField("pieces", "not a byte string")
	}
	if len(pieces)%sha1.Size != 0 {
		return nil, invalidField("pieces", "length is not a multiple of 20")
	}
	i.pieces = pieces
	i.NumPieces = uint32(len(pieces) / sha1.Size)

	if n, ok := d["name"]; ok {
		name, ok2 := n.(bencode.Bytes)
		if !ok2 {
			return nil, invalidField("name", "not a byte string")
		}
		i.Name = string(name)
	}
	if pv, ok := d.Int("private"); ok {
		i.Private = pv == 1
	}

	_, hasLength := d["length"]
	_, hasFiles := d["files"]
	switch {
	case hasLength && hasFiles:
		return nil, invalidField("files", "both length and files are present")
	case hasLength:
		length, ok := d.Int("length")
		if !ok || length < 0 {
			return nil, invalidField("length", "must be a non-negative integer")
		}
		i.Files = []File{{Path: []string{i.Name}, Length: length}}
	case hasFiles:
		i.multiFile = true
		i.Files, err = parseFiles(d["files"])
		if err != nil {
			return nil, err
		}
	default:
		return nil, missingField("length")
	}

	for j := range i.Files {
		i.Files[j].Offset = i.TotalLength
		i.TotalLength += i.Files[j].Length
	}
	totalPieceDataLength := int64(i.PieceLength) * int64(i.NumPieces)
	delta := totalPieceDataLength - i.TotalLength
	if delta >= int64(i.PieceLength) || delta < 0 {
		return nil, invalidField("pieces", "piece count does not match total length")
	}

	i.Bytes = append([]byte(nil), b...)
	i.Hash = sha1.Sum(b) // nolint: gosec
	return &i, nil
}

func parseFiles(v bencode.Value) ([]File, error) {
	l, ok := v.(bencode.List)
	if !ok {
		return nil, invalidField("files", "not a list")
	}
	if len(l) == 0 {
		return nil, invalidField("files", "empty list")
	}
	if len(l) > MaxFiles {
		return nil, invalidField("files", fmt.Sprintf("more than %d files", MaxFiles))
	}
	files := make([]File, len(l))
	for n, e := range l {
		fd, ok := e.(bencode.Dict)
		if !ok {
			return nil, invalidField("files", fmt.Sprintf("entry %d is not a dictionary", n))
		}
		length, ok := fd.Int("length")
		if !ok || length < 0 {
			return nil, invalidField("length", fmt.Sprintf("file %d: must be a non-negative integer", n))
		}
		pl, ok := fd.List("path")
		if !ok || len(pl) == 0 {
			return nil, invalidField("path", fmt.Sprintf("file %d: must be a non-empty list", n))
		}
		path := make([]string, len(pl))
		for k, seg := range pl {
			s, ok := seg.(bencode.Bytes)
			if !ok {
				return nil, invalidField("path", fmt.Sprintf("file %d: segment is not a byte string", n))
			}
			// ".." is not allowed in file names
			if strings.TrimSpace(string(s)) == ".." {
				return nil, invalidField("path", fmt.Sprintf("invalid file name: %q", filepath.Join(path[:k]...)))
			}
			path[k] = string(s)
		}
		attr, _ := fd.String("attr")
		files[n] = File{
			Path:    path,
			Length:  length,
			Padding: strings.ContainsRune(attr, 'p'),
		}
	}
	return files, nil
}

// MultiFile reports whether the info dictionary uses the "files" form.
func (i *Info) MultiFile() bool {
	return i.multiFile
}

// HashForPiece returns the expected SHA-1 of the piece at index.
func (i *Info) HashForPiece(index uint32) ([20]byte, error) {
	var h [20]byte
	if index >= i.NumPieces {
		return h, fmt.Errorf("%w: piece %d of %d", ErrIndexOutOfRange, index, i.NumPieces)
	}
	begin := index * sha1.Size
	copy(h[:], i.pieces[begin:begin+sha1.Size])
	return h, nil
}

// PieceSize returns the length of the piece at index. The last piece may be shorter.
func (i *Info) PieceSize(index uint32) uint32 {
	if index == i.NumPieces-1 {
		if mod := uint32(i.TotalLength % int64(i.PieceLength)); mod != 0 {
			return mod
		}
	}
	return i.PieceLength
}

// FilePath returns the relative path of the file at index including the torrent name for multi-file torrents.
func (i *Info) FilePath(index int) string {
	f := i.Files[index]
	if !i.multiFile {
		return i.Name
	}
	return filepath.Join(append([]string{i.Name}, f.Path...)...)
}

// FilePieceRange returns the range of pieces [begin, end) that contain bytes of the file at index.
// Empty files do not overlap any piece.
func (i *Info) FilePieceRange(index int) (begin, end uint32) {
	f := i.Files[index]
	if f.Length == 0 {
		return 0, 0
	}
	pl := int64(i.PieceLength)
	begin = uint32(f.Offset / pl)
	end = uint32((f.Offset + f.Length + pl - 1) / pl)
	return
}
