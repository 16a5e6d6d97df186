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

// Package png decodes PNG images from in-memory buffers with strict
// validation: every structural rule of the container is enforced and any
// violation fails the whole decode with a categorized error.
package png

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"
)

// Info is the result of parsing a stream without decompressing the image
// data.
type Info struct {
	Header     Header
	Palette    []RGB
	Meta       Metadata
	DataSize   int // compressed IDAT bytes, all chunks concatenated
	DataChunks int
}

// Image is a fully decoded image. Pix holds raw samples in row-major order,
// Channels per pixel, widened to uint16 but NOT rescaled: a 4-bit sample
// still ranges over 0..15. For indexed images samples are palette indices.
type Image struct {
	Width     int
	Height    int
	BitDepth  uint8
	ColorType ColorType
	Channels  int
	Interlace InterlaceMethod
	Pix       []uint16
	Palette   []RGB
	Meta      Metadata
}

// Parse validates the chunk structure of data and returns the stream
// information without inflating the image data. Chunk checksums are still
// verified.
func Parse(data []byte) (*Info, error) {
	res, err := parseStream(data)
	if err != nil {
		return nil, err
	}
	return &Info{
		Header:     *res.header,
		Palette:    res.palette,
		Meta:       res.meta,
		DataSize:   len(res.idat),
		DataChunks: res.idatChunks,
	}, nil
}

// Decode runs the full pipeline on data: chunk validation, decompression,
// defiltering and sample assembly.
func Decode(data []byte) (*Image, error) {
	res, err := parseStream(data)
	if err != nil {
		return nil, err
	}
	hdr := res.header

	raw, err := inflate(res.idat, expectedDataSize(hdr))
	if err != nil {
		return nil, err
	}

	// The header alone dictates the raster size; bound it by the data actually
	// present before allocating, so that absurd declared dimensions fail the
	// same way any short stream does.
	if need := expectedDataSize(hdr); int64(len(raw)) < need {
		return nil, fmt.Errorf("%w: %d of %d data bytes", ErrIncompleteImageData, len(raw), need)
	}

	img := &Image{
		Width:     int(hdr.Width),
		Height:    int(hdr.Height),
		BitDepth:  hdr.BitDepth,
		ColorType: hdr.ColorType,
		Channels:  hdr.Channels(),
		Interlace: hdr.Interlace,
		Palette:   res.palette,
		Meta:      res.meta,
	}
	img.Pix = make([]uint16, img.Width*img.Height*img.Channels)

	passes := []interlacePass{{0, 0, 1, 1}}
	if hdr.Interlace == InterlaceAdam7 {
		passes = adam7Passes[:]
	}
	for _, pass := range passes {
		n, err := img.decodePass(raw, pass)
		if err != nil {
			return nil, err
		}
		raw = raw[n:]
	}

	if img.ColorType == ColorIndexed {
		limit := uint16(len(img.Palette))
		for _, s := range img.Pix {
			if s >= limit {
				return nil, fmt.Errorf("%w: palette index %d out of range", ErrInvalidFieldValue, s)
			}
		}
	}
	return img, nil
}

// expectedDataSize returns the exact decompressed size of the image data,
// saturating at MaxInt64 when the declared dimensions push the product past
// 64 bits.
func expectedDataSize(hdr *Header) int64 {
	bpl := func(w int) int64 {
		return 1 + (int64(w)*int64(hdr.Channels())*int64(hdr.BitDepth)+7)/8
	}
	var total int64
	add := func(w, h int) {
		rb := bpl(w)
		if rb > (math.MaxInt64-total)/int64(h) {
			total = math.MaxInt64
			return
		}
		total += rb * int64(h)
	}
	if hdr.Interlace != InterlaceAdam7 {
		add(int(hdr.Width), int(hdr.Height))
		return total
	}
	for _, pass := range adam7Passes {
		pw, ph := pass.size(int(hdr.Width), int(hdr.Height))
		if pw == 0 || ph == 0 {
			continue
		}
		add(pw, ph)
		if total == math.MaxInt64 {
			break
		}
	}
	return total
}

// decodePass defilters the scanlines of one pass from raw and scatters the
// samples onto the image lattice. It returns the number of bytes consumed.
func (img *Image) decodePass(raw []byte, pass interlacePass) (int, error) {
	pw, ph := pass.size(img.Width, img.Height)
	if pw == 0 || ph == 0 {
		return 0, nil
	}
	rowBytes := (pw*img.Channels*int(img.BitDepth) + 7) / 8
	bpp := img.Channels * int(img.BitDepth) / 8
	if bpp == 0 {
		bpp = 1
	}
	need := (1 + rowBytes) * ph
	if len(raw) < need {
		return 0, fmt.Errorf("%w: %d of %d pass bytes", ErrIncompleteImageData, len(raw), need)
	}

	var prev []byte
	for y := 0; y < ph; y++ {
		line := raw[y*(1+rowBytes) : (y+1)*(1+rowBytes)]
		cur := line[1:]
		if err := defilterRow(line[0], cur, prev, bpp); err != nil {
			return 0, err
		}
		img.scatterRow(cur, pass, pw, y)
		prev = cur
	}
	return need, nil
}

// scatterRow copies the samples of a reconstructed scanline into Pix at the
// lattice positions of the pass.
func (img *Image) scatterRow(row []byte, pass interlacePass, pw, py int) {
	y := pass.yOffset + py*pass.yStride
	for x := 0; x < pw; x++ {
		dst := (y*img.Width + pass.xOffset + x*pass.xStride) * img.Channels
		src := x * img.Channels
		for c := 0; c < img.Channels; c++ {
			img.Pix[dst+c] = rowSample(row, src+c, img.BitDepth)
		}
	}
}

// rowSample extracts the i-th sample of a scanline. Sub-byte samples are
// packed MSB first, 16-bit samples are big endian.
func rowSample(row []byte, i int, depth uint8) uint16 {
	switch depth {
	case 8:
		return uint16(row[i])
	case 16:
		return binary.BigEndian.Uint16(row[2*i:])
	}
	perByte := 8 / int(depth)
	b := row[i/perByte]
	shift := 8 - depth - uint8(i%perByte)*depth
	return uint16(b>>shift) & (1<<depth - 1)
}

// SampleAt returns the raw value of channel c of the pixel at (x, y).
func (img *Image) SampleAt(x, y, c int) uint16 {
	return img.Pix[(y*img.Width+x)*img.Channels+c]
}

// PaletteAt resolves the palette entry of the indexed pixel at (x, y).
func (img *Image) PaletteAt(x, y int) RGB {
	return img.Palette[img.SampleAt(x, y, 0)]
}

// NRGBA renders the image as 8-bit non-premultiplied RGBA. Samples of
// shallower depths are rescaled to the full 8-bit range, 16-bit samples keep
// their high byte. The tRNS chunk contributes alpha where present.
func (img *Image) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	maxVal := uint32(1)<<img.BitDepth - 1
	scale := func(v uint16) uint8 {
		return uint8(uint32(v) * 255 / maxVal)
	}
	trns := img.Meta.Transparency

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			var c color.NRGBA
			switch img.ColorType {
			case ColorGrayscale:
				v := img.SampleAt(x, y, 0)
				g := scale(v)
				c = color.NRGBA{g, g, g, 255}
				if trns != nil && v == trns.Gray {
					c.A = 0
				}
			case ColorGrayAlpha:
				g := scale(img.SampleAt(x, y, 0))
				c = color.NRGBA{g, g, g, scale(img.SampleAt(x, y, 1))}
			case ColorTrueColor:
				r, g, b := img.SampleAt(x, y, 0), img.SampleAt(x, y, 1), img.SampleAt(x, y, 2)
				c = color.NRGBA{scale(r), scale(g), scale(b), 255}
				if trns != nil && r == trns.R && g == trns.G && b == trns.B {
					c.A = 0
				}
			case ColorTrueColorAlpha:
				c = color.NRGBA{
					scale(img.SampleAt(x, y, 0)),
					scale(img.SampleAt(x, y, 1)),
					scale(img.SampleAt(x, y, 2)),
					scale(img.SampleAt(x, y, 3)),
				}
			case ColorIndexed:
				idx := img.SampleAt(x, y, 0)
				e := img.Palette[idx]
				c = color.NRGBA{e.R, e.G, e.B, 255}
				if trns != nil && int(idx) < len(trns.Alpha) {
					c.A = trns.Alpha[idx]
				}
			}
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}
