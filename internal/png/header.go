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

import (
	"encoding/binary"
	"fmt"
)

// ColorType describes the pixel interpretation of the image data.
type ColorType uint8

const (
	// ColorGrayscale: each pixel is a grayscale sample.
	ColorGrayscale ColorType = 0
	// ColorTrueColor: each pixel is an RGB triplet.
	ColorTrueColor ColorType = 2
	// ColorIndexed: each pixel is a palette index; a PLTE chunk must appear.
	ColorIndexed ColorType = 3
	// ColorGrayAlpha: each pixel is a grayscale sample followed by alpha.
	ColorGrayAlpha ColorType = 4
	// ColorTrueColorAlpha: each pixel is an RGB triplet followed by alpha.
	ColorTrueColorAlpha ColorType = 6
)

func (ct ColorType) String() string {
	switch ct {
	case ColorGrayscale:
		return "grayscale"
	case ColorTrueColor:
		return "truecolor"
	case ColorIndexed:
		return "indexed"
	case ColorGrayAlpha:
		return "grayscale+alpha"
	case ColorTrueColorAlpha:
		return "truecolor+alpha"
	}
	return fmt.Sprintf("unknown(%d)", uint8(ct))
}

// Channels returns the number of samples per pixel for the color type.
func (ct ColorType) Channels() int {
	switch ct {
	case ColorTrueColor:
		return 3
	case ColorGrayAlpha:
		return 2
	case ColorTrueColorAlpha:
		return 4
	}
	return 1
}

// InterlaceMethod describes the transmission order of the image data.
type InterlaceMethod uint8

const (
	InterlaceNone  InterlaceMethod = 0
	InterlaceAdam7 InterlaceMethod = 1
)

func (im InterlaceMethod) String() string {
	if im == InterlaceAdam7 {
		return "adam7"
	}
	return "none"
}

// Header holds the validated fields of the IHDR chunk. The compression and
// filter methods have a single legal value and are not stored.
type Header struct {
	Width     uint32
	Height    uint32
	BitDepth  uint8
	ColorType ColorType
	Interlace InterlaceMethod
}

// Channels returns the number of samples per pixel.
func (h *Header) Channels() int {
	return h.ColorType.Channels()
}

const headerLength = 13

// parseHeader decodes and cross-validates the 13-byte IHDR payload.
func parseHeader(payload []byte) (*Header, error) {
	if len(payload) != headerLength {
		return nil, chunkErr(ErrInvalidChunkLength, "IHDR")
	}

	hdr := &Header{
		Width:    binary.BigEndian.Uint32(payload[0:4]),
		Height:   binary.BigEndian.Uint32(payload[4:8]),
		BitDepth: payload[8],
	}
	if hdr.Width == 0 || hdr.Height == 0 {
		return nil, ErrInvalidDimensions
	}
	if hdr.Width > 1<<31-1 || hdr.Height > 1<<31-1 {
		return nil, ErrInvalidDimensions
	}

	switch ct := ColorType(payload[9]); ct {
	case ColorGrayscale, ColorTrueColor, ColorIndexed, ColorGrayAlpha, ColorTrueColorAlpha:
		hdr.ColorType = ct
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidColorType, payload[9])
	}
	if payload[10] != 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCompression, payload[10])
	}
	if payload[11] != 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFilterMethod, payload[11])
	}
	switch payload[12] {
	case 0:
		hdr.Interlace = InterlaceNone
	case 1:
		hdr.Interlace = InterlaceAdam7
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedInterlaceMethod, payload[12])
	}

	if !validBitDepth(hdr.ColorType, hdr.BitDepth) {
		return nil, fmt.Errorf("%w: depth %d, %s", ErrInvalidBitDepth, hdr.BitDepth, hdr.ColorType)
	}
	return hdr, nil
}

// validBitDepth implements the bit-depth/color-type compatibility table of
// the PNG specification.
func validBitDepth(ct ColorType, depth uint8) bool {
	switch ct {
	case ColorGrayscale:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8 || depth == 16
	case ColorIndexed:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8
	case ColorTrueColor, ColorGrayAlpha, ColorTrueColorAlpha:
		return depth == 8 || depth == 16
	}
	return false
}
