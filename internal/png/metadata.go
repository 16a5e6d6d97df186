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
	"bytes"
	"encoding/binary"
	"fmt"
)

// RGB is one palette entry.
type RGB struct {
	R, G, B uint8
}

// Transparency holds the tRNS chunk. Exactly one of the fields is meaningful,
// selected by the image color type: Gray for grayscale, R/G/B for truecolor,
// Alpha (one entry per palette index) for indexed images.
type Transparency struct {
	Gray    uint16
	R, G, B uint16
	Alpha   []uint8
}

// Chromaticity holds the cHRM chunk, each coordinate scaled down by 100000.
type Chromaticity struct {
	WhiteX, WhiteY float64
	RedX, RedY     float64
	GreenX, GreenY float64
	BlueX, BlueY   float64
}

// RenderingIntent is the sRGB chunk payload.
type RenderingIntent uint8

const (
	IntentPerceptual RenderingIntent = iota
	IntentRelativeColorimetric
	IntentSaturation
	IntentAbsoluteColorimetric
)

func (ri RenderingIntent) String() string {
	switch ri {
	case IntentPerceptual:
		return "perceptual"
	case IntentRelativeColorimetric:
		return "relative colorimetric"
	case IntentSaturation:
		return "saturation"
	case IntentAbsoluteColorimetric:
		return "absolute colorimetric"
	}
	return fmt.Sprintf("unknown(%d)", uint8(ri))
}

// ICCProfile holds the iCCP chunk. The profile body stays compressed; callers
// that need it can run it through the same zlib path as the image data.
type ICCProfile struct {
	Name       string
	Compressed []byte
}

// TextEntry is one tEXt chunk.
type TextEntry struct {
	Keyword string
	Text    string
}

// CompressedTextEntry is one zTXt chunk, text body left compressed.
type CompressedTextEntry struct {
	Keyword    string
	Compressed []byte
}

// InternationalTextEntry is one iTXt chunk. Text is compressed when
// Compressed is set.
type InternationalTextEntry struct {
	Keyword           string
	Compressed        bool
	LanguageTag       string
	TranslatedKeyword string
	Text              []byte
}

// Background holds the bKGD chunk. The meaningful fields follow the color
// type the same way Transparency does, with Index for indexed images.
type Background struct {
	Gray    uint16
	R, G, B uint16
	Index   uint8
}

// PhysicalDims holds the pHYs chunk.
type PhysicalDims struct {
	PerUnitX uint32
	PerUnitY uint32
	Meters   bool
}

// SuggestedPaletteEntry samples are widened to 16 bits regardless of the
// palette sample depth.
type SuggestedPaletteEntry struct {
	R, G, B, A uint16
	Frequency  uint16
}

// SuggestedPalette is one sPLT chunk.
type SuggestedPalette struct {
	Name        string
	SampleDepth uint8
	Entries     []SuggestedPaletteEntry
}

// ModTime is the tIME chunk, kept as raw fields since the values are not
// required to form a valid date.
type ModTime struct {
	Year                 uint16
	Month, Day           uint8
	Hour, Minute, Second uint8
}

// UnknownChunk is an unrecognized ancillary chunk, kept verbatim.
type UnknownChunk struct {
	Type string
	Data []byte
}

// Metadata aggregates every ancillary chunk of a stream.
type Metadata struct {
	Transparency *Transparency
	Gamma        *float64
	Chromaticity *Chromaticity
	Intent       *RenderingIntent
	ICCProfile   *ICCProfile
	Text         []TextEntry
	CompText     []CompressedTextEntry
	IntlText     []InternationalTextEntry
	Background   *Background
	Physical     *PhysicalDims
	SignifBits   []uint8
	SuggPalettes []SuggestedPalette
	Histogram    []uint16
	ModTime      *ModTime
	Unknown      []UnknownChunk
}

// nullTerminated splits payload at its first NUL byte, returning the prefix
// and the bytes after the terminator.
func nullTerminated(payload []byte, tag string) (string, []byte, error) {
	i := bytes.IndexByte(payload, 0)
	if i < 0 {
		return "", nil, chunkErr(ErrMissingNullTerminator, tag)
	}
	return string(payload[:i]), payload[i+1:], nil
}

// validateKeyword enforces the 1..79 byte limit on chunk keywords and names.
func validateKeyword(kw, tag string) error {
	if len(kw) == 0 || len(kw) > 79 {
		return chunkErr(ErrInvalidStringLength, tag)
	}
	return nil
}

func (p *streamParser) parseTransparency(payload []byte) error {
	m := &p.res.meta
	if m.Transparency != nil {
		return chunkErr(ErrDuplicateChunk, "tRNS")
	}
	constraint := beforeIDAT
	if p.res.header.ColorType == ColorIndexed {
		constraint |= afterPLTE
	}
	if err := p.checkOrder("tRNS", constraint); err != nil {
		return err
	}

	t := &Transparency{}
	switch p.res.header.ColorType {
	case ColorGrayscale:
		if len(payload) != 2 {
			return chunkErr(ErrInvalidChunkLength, "tRNS")
		}
		t.Gray = binary.BigEndian.Uint16(payload)
	case ColorTrueColor:
		if len(payload) != 6 {
			return chunkErr(ErrInvalidChunkLength, "tRNS")
		}
		t.R = binary.BigEndian.Uint16(payload[0:2])
		t.G = binary.BigEndian.Uint16(payload[2:4])
		t.B = binary.BigEndian.Uint16(payload[4:6])
	case ColorIndexed:
		if len(payload) > len(p.res.palette) {
			return chunkErr(ErrInvalidChunkLength, "tRNS")
		}
		t.Alpha = bytes.Clone(payload)
	default:
		// Alpha color types carry per-pixel transparency already.
		return fmt.Errorf("%w: tRNS with %s", ErrInvalidFieldValue, p.res.header.ColorType)
	}
	m.Transparency = t
	return nil
}

func (p *streamParser) parseGamma(payload []byte) error {
	m := &p.res.meta
	if m.Gamma != nil {
		return chunkErr(ErrDuplicateChunk, "gAMA")
	}
	if err := p.checkOrder("gAMA", beforePLTE|beforeIDAT); err != nil {
		return err
	}
	if len(payload) != 4 {
		return chunkErr(ErrInvalidChunkLength, "gAMA")
	}
	g := float64(binary.BigEndian.Uint32(payload)) / 100000
	m.Gamma = &g
	return nil
}

func (p *streamParser) parseChromaticity(payload []byte) error {
	m := &p.res.meta
	if m.Chromaticity != nil {
		return chunkErr(ErrDuplicateChunk, "cHRM")
	}
	if err := p.checkOrder("cHRM", beforePLTE|beforeIDAT); err != nil {
		return err
	}
	if len(payload) != 32 {
		return chunkErr(ErrInvalidChunkLength, "cHRM")
	}
	coord := func(off int) float64 {
		return float64(binary.BigEndian.Uint32(payload[off:off+4])) / 100000
	}
	m.Chromaticity = &Chromaticity{
		WhiteX: coord(0), WhiteY: coord(4),
		RedX: coord(8), RedY: coord(12),
		GreenX: coord(16), GreenY: coord(20),
		BlueX: coord(24), BlueY: coord(28),
	}
	return nil
}

func (p *streamParser) parseStandardRGB(payload []byte) error {
	m := &p.res.meta
	if m.Intent != nil {
		return chunkErr(ErrDuplicateChunk, "sRGB")
	}
	if err := p.checkOrder("sRGB", beforePLTE|beforeIDAT); err != nil {
		return err
	}
	if len(payload) != 1 {
		return chunkErr(ErrInvalidChunkLength, "sRGB")
	}
	if payload[0] > uint8(IntentAbsoluteColorimetric) {
		return fmt.Errorf("%w: rendering intent %d", ErrInvalidFieldValue, payload[0])
	}
	ri := RenderingIntent(payload[0])
	m.Intent = &ri
	return nil
}

func (p *streamParser) parseICCProfile(payload []byte) error {
	m := &p.res.meta
	if m.ICCProfile != nil {
		return chunkErr(ErrDuplicateChunk, "iCCP")
	}
	if err := p.checkOrder("iCCP", beforePLTE|beforeIDAT); err != nil {
		return err
	}
	if len(payload) < 4 {
		return chunkErr(ErrInvalidChunkLength, "iCCP")
	}
	name, rest, err := nullTerminated(payload, "iCCP")
	if err != nil {
		return err
	}
	if err := validateKeyword(name, "iCCP"); err != nil {
		return err
	}
	if len(rest) < 1 {
		return chunkErr(ErrInvalidChunkLength, "iCCP")
	}
	if rest[0] != 0 {
		return fmt.Errorf("%w: compression method %d", ErrInvalidFieldValue, rest[0])
	}
	m.ICCProfile = &ICCProfile{Name: name, Compressed: bytes.Clone(rest[1:])}
	return nil
}

func (p *streamParser) parseText(payload []byte) error {
	if len(payload) < 2 {
		return chunkErr(ErrInvalidChunkLength, "tEXt")
	}
	kw, rest, err := nullTerminated(payload, "tEXt")
	if err != nil {
		return err
	}
	if err := validateKeyword(kw, "tEXt"); err != nil {
		return err
	}
	p.res.meta.Text = append(p.res.meta.Text, TextEntry{Keyword: kw, Text: string(rest)})
	return nil
}

func (p *streamParser) parseCompressedText(payload []byte) error {
	if len(payload) < 3 {
		return chunkErr(ErrInvalidChunkLength, "zTXt")
	}
	kw, rest, err := nullTerminated(payload, "zTXt")
	if err != nil {
		return err
	}
	if err := validateKeyword(kw, "zTXt"); err != nil {
		return err
	}
	if len(rest) < 1 {
		return chunkErr(ErrInvalidChunkLength, "zTXt")
	}
	if rest[0] != 0 {
		return fmt.Errorf("%w: compression method %d", ErrInvalidFieldValue, rest[0])
	}
	p.res.meta.CompText = append(p.res.meta.CompText, CompressedTextEntry{
		Keyword:    kw,
		Compressed: bytes.Clone(rest[1:]),
	})
	return nil
}

func (p *streamParser) parseInternationalText(payload []byte) error {
	if len(payload) < 6 {
		return chunkErr(ErrInvalidChunkLength, "iTXt")
	}
	kw, rest, err := nullTerminated(payload, "iTXt")
	if err != nil {
		return err
	}
	if err := validateKeyword(kw, "iTXt"); err != nil {
		return err
	}
	if len(rest) < 2 {
		return chunkErr(ErrInvalidChunkLength, "iTXt")
	}
	compressed := rest[0] == 1
	if rest[1] != 0 {
		return fmt.Errorf("%w: compression method %d", ErrInvalidFieldValue, rest[1])
	}
	lang, rest, err := nullTerminated(rest[2:], "iTXt")
	if err != nil {
		return err
	}
	translated, rest, err := nullTerminated(rest, "iTXt")
	if err != nil {
		return err
	}
	p.res.meta.IntlText = append(p.res.meta.IntlText, InternationalTextEntry{
		Keyword:           kw,
		Compressed:        compressed,
		LanguageTag:       lang,
		TranslatedKeyword: translated,
		Text:              bytes.Clone(rest),
	})
	return nil
}

func (p *streamParser) parseBackground(payload []byte) error {
	m := &p.res.meta
	if m.Background != nil {
		return chunkErr(ErrDuplicateChunk, "bKGD")
	}
	constraint := beforeIDAT
	if p.res.header.ColorType == ColorIndexed {
		constraint |= afterPLTE
	}
	if err := p.checkOrder("bKGD", constraint); err != nil {
		return err
	}

	bg := &Background{}
	switch p.res.header.ColorType {
	case ColorGrayscale, ColorGrayAlpha:
		if len(payload) != 2 {
			return chunkErr(ErrInvalidChunkLength, "bKGD")
		}
		bg.Gray = binary.BigEndian.Uint16(payload)
	case ColorTrueColor, ColorTrueColorAlpha:
		if len(payload) != 6 {
			return chunkErr(ErrInvalidChunkLength, "bKGD")
		}
		bg.R = binary.BigEndian.Uint16(payload[0:2])
		bg.G = binary.BigEndian.Uint16(payload[2:4])
		bg.B = binary.BigEndian.Uint16(payload[4:6])
	case ColorIndexed:
		if len(payload) != 1 {
			return chunkErr(ErrInvalidChunkLength, "bKGD")
		}
		if int(payload[0]) >= len(p.res.palette) {
			return fmt.Errorf("%w: background index %d", ErrInvalidFieldValue, payload[0])
		}
		bg.Index = payload[0]
	}
	m.Background = bg
	return nil
}

func (p *streamParser) parsePhysicalDims(payload []byte) error {
	m := &p.res.meta
	if m.Physical != nil {
		return chunkErr(ErrDuplicateChunk, "pHYs")
	}
	if err := p.checkOrder("pHYs", beforeIDAT); err != nil {
		return err
	}
	if len(payload) != 9 {
		return chunkErr(ErrInvalidChunkLength, "pHYs")
	}
	if payload[8] > 1 {
		return fmt.Errorf("%w: unit specifier %d", ErrInvalidFieldValue, payload[8])
	}
	m.Physical = &PhysicalDims{
		PerUnitX: binary.BigEndian.Uint32(payload[0:4]),
		PerUnitY: binary.BigEndian.Uint32(payload[4:8]),
		Meters:   payload[8] == 1,
	}
	return nil
}

func (p *streamParser) parseSignificantBits(payload []byte) error {
	m := &p.res.meta
	if m.SignifBits != nil {
		return chunkErr(ErrDuplicateChunk, "sBIT")
	}
	if err := p.checkOrder("sBIT", beforePLTE|beforeIDAT); err != nil {
		return err
	}

	var want int
	switch p.res.header.ColorType {
	case ColorGrayscale:
		want = 1
	case ColorGrayAlpha:
		want = 2
	case ColorTrueColor, ColorIndexed:
		want = 3
	case ColorTrueColorAlpha:
		want = 4
	}
	if len(payload) != want {
		return chunkErr(ErrInvalidChunkLength, "sBIT")
	}
	m.SignifBits = bytes.Clone(payload)
	return nil
}

func (p *streamParser) parseSuggestedPalette(payload []byte) error {
	if err := p.checkOrder("sPLT", beforeIDAT); err != nil {
		return err
	}
	if len(payload) < 4 {
		return chunkErr(ErrInvalidChunkLength, "sPLT")
	}
	name, rest, err := nullTerminated(payload, "sPLT")
	if err != nil {
		return err
	}
	if err := validateKeyword(name, "sPLT"); err != nil {
		return err
	}
	if len(rest) < 1 {
		return chunkErr(ErrInvalidChunkLength, "sPLT")
	}
	depth := rest[0]
	rest = rest[1:]

	sp := SuggestedPalette{Name: name, SampleDepth: depth}
	switch depth {
	case 8:
		if len(rest)%6 != 0 {
			return chunkErr(ErrInvalidChunkLength, "sPLT")
		}
		for i := 0; i < len(rest); i += 6 {
			sp.Entries = append(sp.Entries, SuggestedPaletteEntry{
				R: uint16(rest[i]), G: uint16(rest[i+1]),
				B: uint16(rest[i+2]), A: uint16(rest[i+3]),
				Frequency: binary.BigEndian.Uint16(rest[i+4 : i+6]),
			})
		}
	case 16:
		if len(rest)%10 != 0 {
			return chunkErr(ErrInvalidChunkLength, "sPLT")
		}
		for i := 0; i < len(rest); i += 10 {
			sp.Entries = append(sp.Entries, SuggestedPaletteEntry{
				R:         binary.BigEndian.Uint16(rest[i : i+2]),
				G:         binary.BigEndian.Uint16(rest[i+2 : i+4]),
				B:         binary.BigEndian.Uint16(rest[i+4 : i+6]),
				A:         binary.BigEndian.Uint16(rest[i+6 : i+8]),
				Frequency: binary.BigEndian.Uint16(rest[i+8 : i+10]),
			})
		}
	default:
		return fmt.Errorf("%w: sample depth %d", ErrInvalidFieldValue, depth)
	}
	p.res.meta.SuggPalettes = append(p.res.meta.SuggPalettes, sp)
	return nil
}

func (p *streamParser) parseHistogram(payload []byte) error {
	m := &p.res.meta
	if m.Histogram != nil {
		return chunkErr(ErrDuplicateChunk, "hIST")
	}
	if err := p.checkOrder("hIST", afterPLTE|beforeIDAT); err != nil {
		return err
	}
	if len(payload) != 2*len(p.res.palette) {
		return chunkErr(ErrInvalidChunkLength, "hIST")
	}
	m.Histogram = make([]uint16, len(payload)/2)
	for i := range m.Histogram {
		m.Histogram[i] = binary.BigEndian.Uint16(payload[2*i:])
	}
	return nil
}

func (p *streamParser) parseModTime(payload []byte) error {
	m := &p.res.meta
	if m.ModTime != nil {
		return chunkErr(ErrDuplicateChunk, "tIME")
	}
	if len(payload) != 7 {
		return chunkErr(ErrInvalidChunkLength, "tIME")
	}
	m.ModTime = &ModTime{
		Year:   binary.BigEndian.Uint16(payload[0:2]),
		Month:  payload[2],
		Day:    payload[3],
		Hour:   payload[4],
		Minute: payload[5],
		Second: payload[6],
	}
	return nil
}
