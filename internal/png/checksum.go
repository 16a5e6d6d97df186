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

// The decoder carries its own checksum implementations so that validated
// ingestion has no external dependencies: CRC-32 (reflected IEEE polynomial)
// guards each chunk, Adler-32 guards the decompressed image data.

var crcTable = makeCRCTable()

func makeCRCTable() [256]uint32 {
	var t [256]uint32
	for i := range t {
		crc := uint32(i)
		for k := 0; k < 8; k++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0xedb88320
			} else {
				crc >>= 1
			}
		}
		t[i] = crc
	}
	return t
}

// crc32Sum computes the CRC-32 over the concatenation of the given slices.
func crc32Sum(parts ...[]byte) uint32 {
	crc := ^uint32(0)
	for _, p := range parts {
		for _, b := range p {
			crc = crcTable[byte(crc)^b] ^ crc>>8
		}
	}
	return ^crc
}

const (
	adlerMod = 65521
	// Largest n such that 255*n*(n+1)/2 + (n+1)*(adlerMod-1) fits in 32 bits,
	// allowing the modulo to be deferred across a run of bytes.
	adlerRun = 5552
)

func adler32Sum(p []byte) uint32 {
	a, b := uint32(1), uint32(0)
	for i, n := 0, len(p); i < n; {
		m := i + adlerRun
		if m > n {
			m = n
		}
		for ; i < m; i++ {
			a += uint32(p[i])
			b += a
		}
		a %= adlerMod
		b %= adlerMod
	}
	return b<<16 | a
}
