package png

import "encoding/binary"

// cursor is a bounded forward-only reader over the input buffer. Reads are
// all-or-nothing: on underrun the position is left untouched.
type cursor struct {
	buf []byte
	off int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

func (c *cursor) offset() int {
	return c.off
}

func (c *cursor) readByte() (byte, error) {
	if c.remaining() < 1 {
		return 0, eofErr(c.off)
	}
	b := c.buf[c.off]
	c.off++
	return b, nil
}

func (c *cursor) readUint16() (uint16, error) {
	if c.remaining() < 2 {
		return 0, eofErr(c.off)
	}
	v := binary.BigEndian.Uint16(c.buf[c.off:])
	c.off += 2
	return v, nil
}

func (c *cursor) readUint32() (uint32, error) {
	if c.remaining() < 4 {
		return 0, eofErr(c.off)
	}
	v := binary.BigEndian.Uint32(c.buf[c.off:])
	c.off += 4
	return v, nil
}

// readBytes returns a subslice of the underlying buffer; it does not copy.
func (c *cursor) readBytes(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, eofErr(c.off)
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) skip(n int) error {
	if n < 0 || c.remaining() < n {
		return eofErr(c.off)
	}
	c.off += n
	return nil
}
