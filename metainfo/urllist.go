package metainfo

import (
	"strings"

	"github.com/zeebo/bencode"
)

// URLList is a list of web seed URLs. In torrent files it may be a single string or a list.
type URLList []string

var _ bencode.Unmarshaler = (*URLList)(nil)

// UnmarshalBencode keeps only http and https URLs in their original order.
func (u *URLList) UnmarshalBencode(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	var l []string
	var err error
	if b[0] == 'l' {
		err = bencode.DecodeBytes(b, &l)
	} else {
		var s string
		err = bencode.DecodeBytes(b, &s)
		l = append(l, s)
	}
	if err != nil {
		return err
	}
	ret := l[:0]
	for _, s := range l {
		if isWebseedSupported(s) {
			ret = append(ret, s)
		}
	}
	*u = ret
	return nil
}

func isWebseedSupported(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
