// Copyright (c) 2025 The pngler authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package png

import "fmt"

// Per-scanline filter types of the only defined filter method.
const (
	filterNone    = 0
	filterSub     = 1
	filterUp      = 2
	filterAverage = 3
	filterPaeth   = 4
)

// defilterRow reverses the filter applied to cur in place. prev is the
// reconstructed scanline above, or nil for the first row of a pass; bpp is
// the filter unit in bytes, at least 1 even for sub-byte pixels.
func defilterRow(ft byte, cur, prev []byte, bpp int) error {
	switch ft {
	case filterNone:
	case filterSub:
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case filterUp:
		if prev != nil {
			for i, b := range prev {
				cur[i] += b
			}
		}
	case filterAverage:
		if prev == nil {
			for i := bpp; i < len(cur); i++ {
				cur[i] += cur[i-bpp] / 2
			}
		} else {
			for i := 0; i < bpp; i++ {
				cur[i] += prev[i] / 2
			}
			for i := bpp; i < len(cur); i++ {
				cur[i] += uint8((int(cur[i-bpp]) + int(prev[i])) / 2)
			}
		}
	case filterPaeth:
		if prev == nil {
			// With the row above all zero the predictor degenerates to Sub.
			for i := bpp; i < len(cur); i++ {
				cur[i] += cur[i-bpp]
			}
		} else {
			for i := 0; i < bpp; i++ {
				cur[i] += prev[i]
			}
			for i := bpp; i < len(cur); i++ {
				cur[i] += paeth(cur[i-bpp], prev[i], prev[i-bpp])
			}
		}
	default:
		return fmt.Errorf("%w: %d", ErrInvalidFilterType, ft)
	}
	return nil
}

// paeth returns whichever of a (left), b (above), c (upper left) is closest
// to the linear predictor a+b-c, breaking ties in the order a, b, c.
func paeth(a, b, c uint8) uint8 {
	pc := int(c)
	pa := int(b) - pc
	pb := int(a) - pc
	pc = abs(pa + pb)
	pa = abs(pa)
	pb = abs(pb)
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
