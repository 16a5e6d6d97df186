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
	"math/bits"
	"sync"
)

const (
	maxCodeLen = 16 // max length of a deflate Huffman code

	// RFC 1951 section 3.2.7, with the proviso in 3.2.5 that distance
	// codes 30 and 31 never occur in compressed data.
	maxNumLit  = 286
	maxNumDist = 30
	numCLCodes = 19 // symbols of the code-length meta-code

	maxWindowSize = 1 << 15 // largest back-reference distance
)

// Canonical Huffman decode table: a primary lookup table of huffChunkBits
// bits, with overflow link tables for longer codes. A chunk packs the symbol
// value (upper bits) and the code length (lower 4 bits), so one indexed load
// resolves most symbols.
const (
	huffChunkBits  = 9
	huffNumChunks  = 1 << huffChunkBits
	huffCountMask  = 15
	huffValueShift = 4
)

type huffmanTable struct {
	min      int // the minimum code length
	chunks   [huffNumChunks]uint32
	links    [][]uint32
	linkMask uint32
}

// build constructs the decode table from the per-symbol code lengths. It
// reports false when the lengths describe an over- or under-subscribed code
// set. An empty set builds an empty table that fails on first use; the
// degenerate single-code set of length 1 is accepted for zlib compatibility.
func (h *huffmanTable) build(lengths []int) bool {
	if h.min != 0 {
		*h = huffmanTable{}
	}

	var count [maxCodeLen]int
	var min, max int
	for _, n := range lengths {
		if n == 0 {
			continue
		}
		if min == 0 || n < min {
			min = n
		}
		if n > max {
			max = n
		}
		count[n]++
	}
	if max == 0 {
		return true
	}

	code := 0
	var nextcode [maxCodeLen]int
	for i := min; i <= max; i++ {
		code <<= 1
		nextcode[i] = code
		code += count[i]
	}
	if code != 1<<uint(max) && !(code == 1 && max == 1) {
		return false
	}

	h.min = min
	if max > huffChunkBits {
		numLinks := 1 << (uint(max) - huffChunkBits)
		h.linkMask = uint32(numLinks - 1)

		link := nextcode[huffChunkBits+1] >> 1
		h.links = make([][]uint32, huffNumChunks-link)
		for j := uint(link); j < huffNumChunks; j++ {
			reverse := int(bits.Reverse16(uint16(j))) >> (16 - huffChunkBits)
			off := j - uint(link)
			h.chunks[reverse] = uint32(off<<huffValueShift | (huffChunkBits + 1))
			h.links[off] = make([]uint32, numLinks)
		}
	}

	for i, n := range lengths {
		if n == 0 {
			continue
		}
		code := nextcode[n]
		nextcode[n]++
		chunk := uint32(i<<huffValueShift | n)
		reverse := int(bits.Reverse16(uint16(code))) >> (16 - n)
		if n <= huffChunkBits {
			for off := reverse; off < len(h.chunks); off += 1 << uint(n) {
				h.chunks[off] = chunk
			}
		} else {
			value := h.chunks[reverse&(huffNumChunks-1)] >> huffValueShift
			linktab := h.links[value]
			reverse >>= huffChunkBits
			for off := reverse; off < len(linktab); off += 1 << uint(n-huffChunkBits) {
				linktab[off] = chunk
			}
		}
	}
	return true
}

var (
	fixedOnce sync.Once
	fixedLit  huffmanTable
	fixedDist huffmanTable
)

// fixedTables returns the predefined literal/length and distance tables of
// RFC 1951 section 3.2.6. The distance table carries all 32 five-bit codes;
// symbols 30 and 31 are rejected at decode time.
func fixedTables() (*huffmanTable, *huffmanTable) {
	fixedOnce.Do(func() {
		var lit [288]int
		for i := 0; i < 144; i++ {
			lit[i] = 8
		}
		for i := 144; i < 256; i++ {
			lit[i] = 9
		}
		for i := 256; i < 280; i++ {
			lit[i] = 7
		}
		for i := 280; i < 288; i++ {
			lit[i] = 8
		}
		fixedLit.build(lit[:])

		var dist [32]int
		for i := range dist {
			dist[i] = 5
		}
		fixedDist.build(dist[:])
	})
	return &fixedLit, &fixedDist
}
