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

// inflator decompresses a whole deflate stream (RFC 1951) held in memory.
// Bits are consumed LSB-first from src through the b/nb accumulator; output
// grows in out, which doubles as the LZ77 window since the full result is
// kept.
type inflator struct {
	src []byte
	pos int

	b  uint32 // input bits, LSB first
	nb uint

	out []byte
}

func errDeflate(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidDeflateStream, msg)
}

// inflate decompresses a zlib stream (RFC 1950): a 2-byte header, deflate
// blocks, and a 4-byte Adler-32 trailer over the decompressed output.
// sizeHint is used to presize the output buffer only.
func inflate(data []byte, sizeHint int64) ([]byte, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: stream too short", ErrInvalidCompressedHeader)
	}
	cmf, flg := data[0], data[1]
	if cmf&0x0f != 8 {
		return nil, fmt.Errorf("%w: compression method %d", ErrInvalidCompressedHeader, cmf&0x0f)
	}
	if cmf>>4 > 7 {
		return nil, fmt.Errorf("%w: window size %d", ErrInvalidCompressedHeader, cmf>>4)
	}
	if (uint32(cmf)<<8|uint32(flg))%31 != 0 {
		return nil, fmt.Errorf("%w: header check failed", ErrInvalidCompressedHeader)
	}
	if flg&0x20 != 0 {
		return nil, fmt.Errorf("%w: preset dictionary", ErrInvalidCompressedHeader)
	}

	f := &inflator{src: data[2:]}
	// Deflate cannot expand input by more than a factor of about 1032, so a
	// hint beyond that bound cannot be met and is ignored rather than
	// allocated for.
	if sizeHint > 0 && sizeHint == int64(int(sizeHint)) && sizeHint <= int64(len(data))*1032 {
		f.out = make([]byte, 0, sizeHint)
	}

	for {
		hdr, err := f.readBits(3)
		if err != nil {
			return nil, err
		}
		final := hdr&1 == 1
		switch hdr >> 1 {
		case 0:
			err = f.storedBlock()
		case 1:
			hl, hd := fixedTables()
			err = f.huffmanBlock(hl, hd)
		case 2:
			var h1, h2 huffmanTable
			if err = f.readDynamicTables(&h1, &h2); err == nil {
				err = f.huffmanBlock(&h1, &h2)
			}
		default:
			err = errDeflate("reserved block type")
		}
		if err != nil {
			return nil, err
		}
		if final {
			break
		}
	}

	// The trailer starts at the next byte boundary; whole bytes still in the
	// bit accumulator belong to it.
	f.pos -= int(f.nb / 8)
	if f.pos+4 > len(f.src) {
		return nil, fmt.Errorf("%w in compressed data", ErrUnexpectedEOF)
	}
	if adler32Sum(f.out) != binary.BigEndian.Uint32(f.src[f.pos:]) {
		return nil, ErrDecompressionChecksum
	}
	return f.out, nil
}

func (f *inflator) moreBits() error {
	if f.pos >= len(f.src) {
		return fmt.Errorf("%w in compressed data", ErrUnexpectedEOF)
	}
	f.b |= uint32(f.src[f.pos]) << f.nb
	f.pos++
	f.nb += 8
	return nil
}

func (f *inflator) readBits(n uint) (uint32, error) {
	for f.nb < n {
		if err := f.moreBits(); err != nil {
			return 0, err
		}
	}
	v := f.b & (1<<n - 1)
	f.b >>= n
	f.nb -= n
	return v, nil
}

// huffSym reads the next Huffman-coded symbol according to h. The table may
// be probed with fewer bits than the final code length; since shorter codes
// sort first, the looked-up length is a lower bound and the probe repeats
// once enough bits are buffered.
func (f *inflator) huffSym(h *huffmanTable) (int, error) {
	n := uint(h.min)
	for {
		for f.nb < n {
			if err := f.moreBits(); err != nil {
				return 0, err
			}
		}
		chunk := h.chunks[f.b&(huffNumChunks-1)]
		n = uint(chunk & huffCountMask)
		if n > huffChunkBits {
			chunk = h.links[chunk>>huffValueShift][(f.b>>huffChunkBits)&h.linkMask]
			n = uint(chunk & huffCountMask)
		}
		if n <= f.nb {
			if n == 0 {
				return 0, errDeflate("invalid huffman code")
			}
			f.b >>= n
			f.nb -= n
			return int(chunk >> huffValueShift), nil
		}
	}
}

// alignToByte discards the partial byte in the bit accumulator and rewinds
// any whole buffered bytes so that pos indexes the next byte boundary.
func (f *inflator) alignToByte() {
	f.pos -= int(f.nb / 8)
	f.b = 0
	f.nb = 0
}

func (f *inflator) storedBlock() error {
	f.alignToByte()
	if f.pos+4 > len(f.src) {
		return fmt.Errorf("%w in compressed data", ErrUnexpectedEOF)
	}
	n := int(f.src[f.pos]) | int(f.src[f.pos+1])<<8
	inv := int(f.src[f.pos+2]) | int(f.src[f.pos+3])<<8
	f.pos += 4
	if uint16(inv) != ^uint16(n) {
		return errDeflate("stored block length mismatch")
	}
	if f.pos+n > len(f.src) {
		return fmt.Errorf("%w in compressed data", ErrUnexpectedEOF)
	}
	f.out = append(f.out, f.src[f.pos:f.pos+n]...)
	f.pos += n
	return nil
}

// RFC 1951 section 3.2.7: the order in which code lengths of the code-length
// meta-code are transmitted.
var clcOrder = [...]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// readDynamicTables reconstructs the literal/length and distance tables of a
// dynamic Huffman block from the embedded code-length description.
func (f *inflator) readDynamicTables(h1, h2 *huffmanTable) error {
	v, err := f.readBits(5)
	if err != nil {
		return err
	}
	nlit := int(v) + 257
	if nlit > maxNumLit {
		return errDeflate("too many literal/length codes")
	}
	if v, err = f.readBits(5); err != nil {
		return err
	}
	ndist := int(v) + 1
	if ndist > maxNumDist {
		return errDeflate("too many distance codes")
	}
	if v, err = f.readBits(4); err != nil {
		return err
	}
	nclen := int(v) + 4

	var clcLengths [numCLCodes]int
	for i := 0; i < nclen; i++ {
		if v, err = f.readBits(3); err != nil {
			return err
		}
		clcLengths[clcOrder[i]] = int(v)
	}
	if !h1.build(clcLengths[:]) {
		return errDeflate("malformed code length code")
	}

	// nlit + ndist code lengths, coded with the meta-code; 16/17/18 repeat
	// the previous length or zeros.
	var lengths [maxNumLit + maxNumDist]int
	for i, n := 0, nlit+ndist; i < n; {
		x, err := f.huffSym(h1)
		if err != nil {
			return err
		}
		if x < 16 {
			lengths[i] = x
			i++
			continue
		}
		var rep int
		var nb uint
		var b int
		switch x {
		case 16:
			if i == 0 {
				return errDeflate("repeat with no previous length")
			}
			rep, nb, b = 3, 2, lengths[i-1]
		case 17:
			rep, nb, b = 3, 3, 0
		case 18:
			rep, nb, b = 11, 7, 0
		default:
			return errDeflate("invalid code length symbol")
		}
		if v, err = f.readBits(nb); err != nil {
			return err
		}
		rep += int(v)
		if i+rep > n {
			return errDeflate("code length repeat overflow")
		}
		for j := 0; j < rep; j++ {
			lengths[i] = b
			i++
		}
	}

	if !h1.build(lengths[:nlit]) || !h2.build(lengths[nlit:nlit+ndist]) {
		return errDeflate("oversubscribed or incomplete huffman code")
	}
	return nil
}

// huffmanBlock decodes one compressed block: literals are copied to the
// output, length/distance pairs copy from the already-produced output.
func (f *inflator) huffmanBlock(hl, hd *huffmanTable) error {
	for {
		v, err := f.huffSym(hl)
		if err != nil {
			return err
		}
		var n uint // number of extra bits
		var length int
		switch {
		case v < 256:
			f.out = append(f.out, byte(v))
			continue
		case v == 256:
			return nil // end of block
		case v < 265:
			length = v - (257 - 3)
		case v < 269:
			length = v*2 - (265*2 - 11)
			n = 1
		case v < 273:
			length = v*4 - (269*4 - 19)
			n = 2
		case v < 277:
			length = v*8 - (273*8 - 35)
			n = 3
		case v < 281:
			length = v*16 - (277*16 - 67)
			n = 4
		case v < 285:
			length = v*32 - (281*32 - 131)
			n = 5
		case v < maxNumLit:
			length = 258
		default:
			return errDeflate("invalid literal/length symbol")
		}
		if n > 0 {
			extra, err := f.readBits(n)
			if err != nil {
				return err
			}
			length += int(extra)
		}

		dist, err := f.huffSym(hd)
		if err != nil {
			return err
		}
		switch {
		case dist < 4:
			dist++
		case dist < maxNumDist:
			nb := uint(dist-2) >> 1
			extra := (dist & 1) << nb
			v, err := f.readBits(nb)
			if err != nil {
				return err
			}
			extra |= int(v)
			dist = 1<<(nb+1) + 1 + extra
		default:
			return errDeflate("invalid distance symbol")
		}
		if dist > maxWindowSize || dist > len(f.out) {
			return errDeflate("back-reference beyond produced output")
		}
		for ; length > 0; length-- {
			f.out = append(f.out, f.out[len(f.out)-dist])
		}
	}
}
