package modem

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestToNibblesPadding(t *testing.T) {
	tests := []struct {
		dataLen int
		padLen  int
	}{
		{0, 0},
		{1, 2},
		{2, 1},
		{3, 0},
		{4, 2},
		{5, 1},
		{6, 0},
		{7, 2},
	}
	for _, tt := range tests {
		nibbles, padLen := ToNibbles(make([]byte, tt.dataLen))
		assert.Equalf(t, tt.padLen, padLen, "data length %d", tt.dataLen)
		assert.Equalf(t, 2*(tt.dataLen+tt.padLen), len(nibbles), "data length %d", tt.dataLen)
		assert.Zero(t, (len(nibbles)/2)%BytesPerSymbol)
	}
}

func TestToNibblesHighNibbleFirst(t *testing.T) {
	nibbles, padLen := ToNibbles([]byte{0xAB, 0xCD, 0xEF})
	assert.Equal(t, 0, padLen)
	assert.Equal(t, []byte{0xA, 0xB, 0xC, 0xD, 0xE, 0xF}, nibbles)
}

func TestFrameRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 128).Draw(t, "data")

		nibbles, padLen := ToNibbles(data)
		out, err := FromNibbles(nibbles, padLen, len(data))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, out), "want %x, got %x", data, out)
	})
}

func TestFromNibblesRejectsBadShapes(t *testing.T) {
	// Six nibbles is one whole symbol; use it as the good baseline.
	good := []byte{1, 2, 3, 4, 5, 6}

	_, err := FromNibbles(good[:5], 0, 3)
	assert.ErrorIs(t, err, ErrFrameLength, "odd nibble count")

	_, err = FromNibbles(good[:4], 0, 2)
	assert.ErrorIs(t, err, ErrFrameLength, "partial symbol")

	_, err = FromNibbles(good, 3, 0)
	assert.ErrorIs(t, err, ErrFrameLength, "pad length out of range")

	_, err = FromNibbles(good, -1, 4)
	assert.ErrorIs(t, err, ErrFrameLength, "negative pad length")

	_, err = FromNibbles(good, 0, 2)
	assert.ErrorIs(t, err, ErrFrameLength, "encoded length mismatch")

	_, err = FromNibbles(good, 1, -3)
	assert.ErrorIs(t, err, ErrFrameLength, "negative encoded length")

	out, err := FromNibbles(good, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34}, out)
}
