package png

import (
	"hash/adler32"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRC32CheckValue(t *testing.T) {
	require.Equal(t, uint32(0xcbf43926), crc32Sum([]byte("123456789")))
}

func TestCRC32MatchesStdlib(t *testing.T) {
	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i * 7)
	}
	require.Equal(t, crc32.ChecksumIEEE(data), crc32Sum(data))
}

func TestCRC32MultiPart(t *testing.T) {
	whole := []byte("IHDR with some payload bytes")
	require.Equal(t, crc32Sum(whole), crc32Sum(whole[:4], whole[4:]))
	require.Equal(t, uint32(0), crc32Sum()^crc32Sum(nil))
}

func TestAdler32(t *testing.T) {
	require.Equal(t, uint32(1), adler32Sum(nil))
	require.Equal(t, uint32(0x11E60398), adler32Sum([]byte("Wikipedia")))

	// Exercise the deferred-modulo path with more than one run.
	data := make([]byte, 3*adlerRun+17)
	for i := range data {
		data[i] = 0xff
	}
	var a, b uint32 = 1, 0
	for _, c := range data {
		a = (a + uint32(c)) % adlerMod
		b = (b + a) % adlerMod
	}
	require.Equal(t, b<<16|a, adler32Sum(data))
	require.Equal(t, adler32.Checksum(data), adler32Sum(data))
}
