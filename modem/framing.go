package modem

import (
	"errors"
	"fmt"
)

// ErrFrameLength reports a nibble stream whose shape cannot come from a
// well-formed frame: odd nibble count, a byte count that is not whole
// symbols, or fewer bytes than the stated encoded length. It indicates a
// framing bug or corrupted metadata, not channel noise.
var ErrFrameLength = errors.New("frame length mismatch")

// ToNibbles pads data with zero bytes up to a whole number of symbols and
// splits every byte into two nibbles, high nibble first. It returns the
// nibble stream and the number of padding bytes added (always 0, 1 or 2).
// The input slice is not modified.
func ToNibbles(data []byte) (nibbles []byte, padLen int) {
	padLen = (BytesPerSymbol - len(data)%BytesPerSymbol) % BytesPerSymbol

	nibbles = make([]byte, 0, 2*(len(data)+padLen))
	for _, b := range data {
		nibbles = append(nibbles, b>>4, b&0x0F)
	}
	for i := 0; i < 2*padLen; i++ {
		nibbles = append(nibbles, 0)
	}
	return nibbles, padLen
}

// FromNibbles is the inverse of ToNibbles: it pairs nibbles back into bytes
// and truncates to encodedLen, discarding the padding region. padLen is the
// value ToNibbles reported on the encoding side; encodedLen is the byte
// length before padding.
func FromNibbles(nibbles []byte, padLen, encodedLen int) ([]byte, error) {
	if len(nibbles)%2 != 0 {
		return nil, fmt.Errorf("%w: odd nibble count %d", ErrFrameLength, len(nibbles))
	}
	if padLen < 0 || padLen >= BytesPerSymbol {
		return nil, fmt.Errorf("%w: pad length %d", ErrFrameLength, padLen)
	}
	if encodedLen < 0 {
		return nil, fmt.Errorf("%w: encoded length %d", ErrFrameLength, encodedLen)
	}

	total := len(nibbles) / 2
	if total%BytesPerSymbol != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not whole symbols", ErrFrameLength, total)
	}
	if total != encodedLen+padLen {
		return nil, fmt.Errorf("%w: %d bytes recovered, expected %d+%d", ErrFrameLength, total, encodedLen, padLen)
	}

	data := make([]byte, 0, encodedLen)
	for i := 0; i < 2*encodedLen; i += 2 {
		data = append(data, (nibbles[i]&0x0F)<<4|(nibbles[i+1]&0x0F))
	}
	return data, nil
}
