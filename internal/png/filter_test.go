package png

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// paethRef is the predictor exactly as the specification prose states it,
// used to cross-check the branch-reduced production version.
func paethRef(a, b, c uint8) uint8 {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func TestPaethMatchesReference(t *testing.T) {
	for a := 0; a < 256; a += 5 {
		for b := 0; b < 256; b += 5 {
			for c := 0; c < 256; c += 5 {
				want := paethRef(uint8(a), uint8(b), uint8(c))
				got := paeth(uint8(a), uint8(b), uint8(c))
				require.Equal(t, want, got, "paeth(%d, %d, %d)", a, b, c)
			}
		}
	}
}

func TestPaethTieBreak(t *testing.T) {
	// All three distances equal: the left neighbor wins.
	require.Equal(t, uint8(5), paeth(5, 5, 5))
	// b == c makes pa zero, so the left neighbor wins regardless of value.
	require.Equal(t, uint8(3), paeth(3, 9, 9))
	// a == c ties pa with pc; above wins because pb is smaller.
	require.Equal(t, uint8(3), paeth(9, 3, 9))
	// The predictor lands exactly on c.
	require.Equal(t, uint8(10), paeth(0, 20, 10))
}

// applyFilter is the encoder side of one scanline, used to verify that
// defilterRow inverts it for every filter type.
func applyFilter(ft byte, cur, prev []byte, bpp int) []byte {
	out := make([]byte, len(cur))
	left := func(i int) uint8 {
		if i < bpp {
			return 0
		}
		return cur[i-bpp]
	}
	up := func(i int) uint8 {
		if prev == nil {
			return 0
		}
		return prev[i]
	}
	upLeft := func(i int) uint8 {
		if prev == nil || i < bpp {
			return 0
		}
		return prev[i-bpp]
	}
	for i := range cur {
		switch ft {
		case filterNone:
			out[i] = cur[i]
		case filterSub:
			out[i] = cur[i] - left(i)
		case filterUp:
			out[i] = cur[i] - up(i)
		case filterAverage:
			out[i] = cur[i] - uint8((int(left(i))+int(up(i)))/2)
		case filterPaeth:
			out[i] = cur[i] - paeth(left(i), up(i), upLeft(i))
		}
	}
	return out
}

func TestDefilterRowInvertsAllFilters(t *testing.T) {
	row := make([]byte, 64)
	prev := make([]byte, 64)
	for i := range row {
		row[i] = byte(i*37 + 11)
		prev[i] = byte(i*53 + 200)
	}

	for ft := byte(filterNone); ft <= filterPaeth; ft++ {
		for _, bpp := range []int{1, 3, 4, 8} {
			for _, above := range [][]byte{nil, prev} {
				filtered := applyFilter(ft, row, above, bpp)
				got := bytes.Clone(filtered)
				require.NoError(t, defilterRow(ft, got, above, bpp))
				require.Equal(t, row, got, "filter %d bpp %d prev=%v", ft, bpp, above != nil)
			}
		}
	}
}

func TestDefilterRowUnknownType(t *testing.T) {
	err := defilterRow(5, make([]byte, 4), nil, 1)
	require.ErrorIs(t, err, ErrInvalidFilterType)
}
