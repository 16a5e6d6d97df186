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
	"errors"
	"fmt"
)

// Every way a decode can fail is a distinct sentinel, so that callers can
// match with errors.Is. Errors are wrapped with the offending chunk type or
// byte offset where that adds information.
var (
	ErrInvalidSignature           = errors.New("png: invalid signature")
	ErrUnexpectedEOF              = errors.New("png: unexpected end of data")
	ErrChunkChecksum              = errors.New("png: chunk checksum mismatch")
	ErrTruncatedChunk             = errors.New("png: chunk length exceeds remaining data")
	ErrMissingHeader              = errors.New("png: first chunk is not IHDR")
	ErrInvalidDimensions          = errors.New("png: invalid image dimensions")
	ErrUnsupportedCompression     = errors.New("png: unsupported compression method")
	ErrUnsupportedFilterMethod    = errors.New("png: unsupported filter method")
	ErrUnsupportedInterlaceMethod = errors.New("png: unsupported interlace method")
	ErrInvalidColorType           = errors.New("png: invalid color type")
	ErrInvalidBitDepth            = errors.New("png: invalid bit depth for color type")
	ErrUnexpectedPalette          = errors.New("png: palette not allowed for color type")
	ErrMissingPalette             = errors.New("png: indexed image has no palette")
	ErrOutOfOrderImageData        = errors.New("png: non-consecutive image data chunks")
	ErrUnsupportedCriticalChunk   = errors.New("png: unknown critical chunk")
	ErrMissingEnd                 = errors.New("png: missing IEND chunk")
	ErrDataAfterEnd               = errors.New("png: data after IEND chunk")
	ErrInvalidCompressedHeader    = errors.New("png: invalid zlib header")
	ErrInvalidDeflateStream       = errors.New("png: invalid deflate stream")
	ErrDecompressionChecksum      = errors.New("png: decompressed data checksum mismatch")
	ErrIncompleteImageData        = errors.New("png: not enough image data")
	ErrInvalidFilterType          = errors.New("png: invalid scanline filter type")

	ErrDuplicateChunk        = errors.New("png: duplicate chunk")
	ErrOutOfOrderChunk       = errors.New("png: chunk out of order")
	ErrInvalidChunkLength    = errors.New("png: invalid chunk length")
	ErrMissingNullTerminator = errors.New("png: missing null terminator")
	ErrInvalidStringLength   = errors.New("png: keyword length out of range")
	ErrInvalidFieldValue     = errors.New("png: field value out of range")
)

func chunkErr(err error, tag string) error {
	return fmt.Errorf("%w (%s)", err, tag)
}

func eofErr(off int) error {
	return fmt.Errorf("%w at offset %d", ErrUnexpectedEOF, off)
}
