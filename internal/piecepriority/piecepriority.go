// Package piecepriority computes piece priorities from file priorities.
package piecepriority

import "github.com/Falcosc/libtorrent/metainfo"

// Priority values. Any integer in [Skip, Top] is valid.
const (
	Skip    = 0
	Low     = 1
	Default = 4
	Top     = 7
)

// Valid reports whether p is in the accepted range.
func Valid(p int) bool {
	return p >= Skip && p <= Top
}

// Fill returns a table of n entries set to p.
func Fill(n int, p int) []int {
	t := make([]int, n)
	for i := range t {
		t[i] = p
	}
	return t
}

// Cascade returns piece priorities for the given file priorities.
// A piece gets the highest priority of the files it overlaps.
// Empty and padding files do not affect any piece.
func Cascade(info *metainfo.Info, files []int) []int {
	pieces := make([]int, info.NumPieces)
	for i, f := range info.Files {
		if f.Padding || i >= len(files) {
			continue
		}
		begin, end := info.FilePieceRange(i)
		for p := begin; p < end; p++ {
			if files[i] > pieces[p] {
				pieces[p] = files[i]
			}
		}
	}
	return pieces
}
