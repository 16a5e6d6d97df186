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
	"fmt"
)

// Signature is the 8-byte magic every stream must start with.
var Signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Ordering constraints for ancillary chunks, relative to the PLTE and IDAT
// chunks.
const (
	beforePLTE = 1 << iota
	afterPLTE
	beforeIDAT
)

// parseResult is everything the chunk stream yields before decompression.
type parseResult struct {
	header     *Header
	palette    []RGB
	meta       Metadata
	idat       []byte
	idatChunks int
}

// streamParser walks the chunk sequence after the signature, enforcing the
// ordering state machine: IHDR first, optional pre-data chunks, one run of
// IDAT chunks (possibly interleaved with ancillary chunks), optional
// post-data chunks, exactly one trailing IEND.
type streamParser struct {
	c   *cursor
	res parseResult

	seenIDAT   bool
	idatClosed bool // a non-IDAT chunk followed the IDAT run
	seenEnd    bool
}

func parseStream(buf []byte) (*parseResult, error) {
	c := newCursor(buf)
	sig, err := c.readBytes(len(Signature))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, Signature) {
		return nil, ErrInvalidSignature
	}

	p := &streamParser{c: c}
	if err := p.run(); err != nil {
		return nil, err
	}
	return &p.res, nil
}

func (p *streamParser) run() error {
	for first := true; ; first = false {
		if p.c.remaining() == 0 {
			return ErrMissingEnd
		}
		length, err := p.c.readUint32()
		if err != nil {
			return err
		}
		tagBytes, err := p.c.readBytes(4)
		if err != nil {
			return err
		}
		tag := string(tagBytes)
		if length > 1<<31-1 {
			return chunkErr(ErrInvalidChunkLength, tag)
		}
		if p.c.remaining() < int(length)+4 {
			return chunkErr(ErrTruncatedChunk, tag)
		}
		payload, _ := p.c.readBytes(int(length))
		sum, _ := p.c.readUint32()
		if crc32Sum(tagBytes, payload) != sum {
			return chunkErr(ErrChunkChecksum, tag)
		}

		if first && tag != "IHDR" {
			return ErrMissingHeader
		}
		if err := p.dispatch(tag, payload); err != nil {
			return err
		}
		if p.seenEnd {
			if p.c.remaining() > 0 {
				return ErrDataAfterEnd
			}
			break
		}
	}

	if p.res.header.ColorType == ColorIndexed && p.res.palette == nil {
		return ErrMissingPalette
	}
	if !p.seenIDAT {
		return fmt.Errorf("%w: no IDAT chunks", ErrIncompleteImageData)
	}
	return nil
}

func (p *streamParser) dispatch(tag string, payload []byte) error {
	if tag != "IDAT" && p.seenIDAT {
		p.idatClosed = true
	}

	switch tag {
	case "IHDR":
		if p.res.header != nil {
			return chunkErr(ErrDuplicateChunk, tag)
		}
		hdr, err := parseHeader(payload)
		if err != nil {
			return err
		}
		p.res.header = hdr
		return nil
	case "PLTE":
		return p.parsePalette(payload)
	case "IDAT":
		if p.idatClosed {
			return ErrOutOfOrderImageData
		}
		if len(payload) == 0 {
			return chunkErr(ErrInvalidChunkLength, tag)
		}
		p.seenIDAT = true
		p.res.idat = append(p.res.idat, payload...)
		p.res.idatChunks++
		return nil
	case "IEND":
		if len(payload) != 0 {
			return chunkErr(ErrInvalidChunkLength, tag)
		}
		p.seenEnd = true
		return nil
	case "tRNS":
		return p.parseTransparency(payload)
	case "gAMA":
		return p.parseGamma(payload)
	case "cHRM":
		return p.parseChromaticity(payload)
	case "sRGB":
		return p.parseStandardRGB(payload)
	case "iCCP":
		return p.parseICCProfile(payload)
	case "tEXt":
		return p.parseText(payload)
	case "zTXt":
		return p.parseCompressedText(payload)
	case "iTXt":
		return p.parseInternationalText(payload)
	case "bKGD":
		return p.parseBackground(payload)
	case "pHYs":
		return p.parsePhysicalDims(payload)
	case "sBIT":
		return p.parseSignificantBits(payload)
	case "sPLT":
		return p.parseSuggestedPalette(payload)
	case "hIST":
		return p.parseHistogram(payload)
	case "tIME":
		return p.parseModTime(payload)
	}

	// Unknown chunk type: the case of the first tag byte distinguishes
	// ancillary (lowercase, safe to skip) from critical chunks.
	if tag[0]&0x20 == 0 {
		return chunkErr(ErrUnsupportedCriticalChunk, tag)
	}
	p.res.meta.Unknown = append(p.res.meta.Unknown, UnknownChunk{
		Type: tag,
		Data: bytes.Clone(payload),
	})
	return nil
}

func (p *streamParser) parsePalette(payload []byte) error {
	if p.res.palette != nil {
		return chunkErr(ErrDuplicateChunk, "PLTE")
	}
	if err := p.checkOrder("PLTE", beforeIDAT); err != nil {
		return err
	}
	ct := p.res.header.ColorType
	if ct == ColorGrayscale || ct == ColorGrayAlpha {
		return fmt.Errorf("%w: %s", ErrUnexpectedPalette, ct)
	}
	if len(payload) == 0 || len(payload)%3 != 0 {
		return chunkErr(ErrInvalidChunkLength, "PLTE")
	}
	entries := len(payload) / 3
	maxEntries := 256
	if ct == ColorIndexed {
		maxEntries = 1 << p.res.header.BitDepth
	}
	if entries > maxEntries {
		return chunkErr(ErrInvalidChunkLength, "PLTE")
	}

	p.res.palette = make([]RGB, entries)
	for i := range p.res.palette {
		p.res.palette[i] = RGB{payload[3*i], payload[3*i+1], payload[3*i+2]}
	}
	return nil
}

// checkOrder verifies the position of an ancillary chunk against the PLTE
// and IDAT chunks seen so far.
func (p *streamParser) checkOrder(tag string, constraint int) error {
	if constraint&beforePLTE != 0 && p.res.palette != nil {
		return chunkErr(ErrOutOfOrderChunk, tag)
	}
	if constraint&afterPLTE != 0 && p.res.palette == nil {
		return chunkErr(ErrOutOfOrderChunk, tag)
	}
	if constraint&beforeIDAT != 0 && p.seenIDAT {
		return chunkErr(ErrOutOfOrderChunk, tag)
	}
	return nil
}
