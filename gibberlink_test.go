package gibberlink

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cwsl/gibberlink/modem"
	"github.com/cwsl/gibberlink/rs"
)

func TestEncodeTextHi(t *testing.T) {
	p := modem.NewParams(modem.ModeAudible)

	signal, meta, err := EncodeText("Hi", p)
	require.NoError(t, err)

	// 2 bytes + 4 parity = 6 encoded bytes, exactly two symbols, no padding.
	assert.Equal(t, 6, meta.EncodedLen)
	assert.Equal(t, 0, meta.PadLen)
	assert.Equal(t, 2*p.SymbolDuration, len(signal))

	got, err := DecodeSignal(signal, meta, p)
	require.NoError(t, err)
	assert.Equal(t, "Hi", got)
}

func TestEncodeTextPadsPartialSymbol(t *testing.T) {
	p := modem.NewParams(modem.ModeAudible)

	// 3 bytes + 4 parity = 7 encoded bytes, two filler bytes to reach three
	// whole symbols.
	signal, meta, err := EncodeText("abc", p)
	require.NoError(t, err)
	assert.Equal(t, 7, meta.EncodedLen)
	assert.Equal(t, 2, meta.PadLen)
	assert.Equal(t, 3*p.SymbolDuration, len(signal))

	got, err := DecodeSignal(signal, meta, p)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestRoundTripBothModes(t *testing.T) {
	texts := []string{
		"",
		"x",
		"Hello over the air!",
		"héllo wörld ✓ ультразвук 音響",
		"a rather longer message that spans a good number of symbols, to make the framing and chunking work for their keep",
	}
	for _, mode := range []modem.Mode{modem.ModeAudible, modem.ModeUltrasonic} {
		t.Run(string(mode), func(t *testing.T) {
			p := modem.NewParams(mode)
			for _, text := range texts {
				signal, meta, err := EncodeText(text, p)
				require.NoError(t, err)
				got, err := DecodeSignal(signal, meta, p)
				require.NoError(t, err)
				assert.Equal(t, text, got)
			}
		})
	}
}

func TestRoundTripProperty(t *testing.T) {
	p := modem.NewParams(modem.ModeAudible)
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		signal, meta, err := EncodeText(text, p)
		require.NoError(t, err)
		got, err := DecodeSignal(signal, meta, p)
		require.NoError(t, err)
		assert.Equal(t, text, got)
	})
}

func TestRoundTripSurvivesNoise(t *testing.T) {
	p := modem.NewParams(modem.ModeAudible)
	text := "still legible through the hiss"

	signal, meta, err := EncodeText(text, p)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	for i := range signal {
		signal[i] += rng.NormFloat64() * 0.05
	}

	got, err := DecodeSignal(signal, meta, p)
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

// Corrupting both bytes of one symbol stays within the default parity's
// two-error correction bound, so the decode must still be exact.
func TestDecodeCorrectsByteErrors(t *testing.T) {
	p := modem.NewParams(modem.ModeAudible)
	text := "correct me"

	codec, err := rs.NewCodec(p.ECCBytes)
	require.NoError(t, err)
	encoded := codec.Encode([]byte(text))
	nibbles, padLen := modem.ToNibbles(encoded)

	// Flip all four nibbles of the first two bytes: exactly two byte errors.
	bad := append([]byte(nil), nibbles...)
	for i := 0; i < 4; i++ {
		bad[i] ^= 0x5
	}

	signal, err := modem.Modulate(bad, p)
	require.NoError(t, err)

	got, err := DecodeSignal(signal, Metadata{PadLen: padLen, EncodedLen: len(encoded)}, p)
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

// Wiping most of the signal exceeds any reasonable correction bound; the
// decoder must fail loudly instead of handing back corrupted text.
func TestDecodeFailsBeyondCorrectionBound(t *testing.T) {
	p := modem.NewParams(modem.ModeAudible)
	p.ECCBytes = 16

	signal, meta, err := EncodeText("thirty characters of payload!!", p)
	require.NoError(t, err)

	for i := 0; i < 10*p.SymbolDuration; i++ {
		signal[i] = 0
	}

	_, err = DecodeSignal(signal, meta, p)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "fec", decErr.Stage)
	assert.ErrorIs(t, err, rs.ErrUncorrectable)
}

func TestDecodeFailsOnHeavyNoise(t *testing.T) {
	p := modem.NewParams(modem.ModeAudible)
	p.ECCBytes = 16

	signal, meta, err := EncodeText("drowned in the noise floor", p)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(5))
	for i := range signal {
		signal[i] += rng.NormFloat64() * 2.0
	}

	_, err = DecodeSignal(signal, meta, p)
	var decErr *DecodeError
	assert.ErrorAs(t, err, &decErr)
}

func TestDecodeErrorStages(t *testing.T) {
	p := modem.NewParams(modem.ModeAudible)
	signal, meta, err := EncodeText("Hi", p)
	require.NoError(t, err)

	var decErr *DecodeError

	// Truncated recording.
	_, err = DecodeSignal(signal[:len(signal)-1], meta, p)
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "demodulate", decErr.Stage)
	assert.ErrorIs(t, err, modem.ErrIncompleteSymbol)

	// Metadata that cannot match the signal.
	badMeta := meta
	badMeta.EncodedLen++
	_, err = DecodeSignal(signal, badMeta, p)
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "framing", decErr.Stage)
	assert.ErrorIs(t, err, modem.ErrFrameLength)

	// Broken parameter set.
	badParams := p
	badParams.FreqStep = 50
	_, err = DecodeSignal(signal, meta, badParams)
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "config", decErr.Stage)

	_, _, err = EncodeText("Hi", badParams)
	assert.Error(t, err)
}
