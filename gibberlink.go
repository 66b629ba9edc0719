// Package gibberlink encodes text into a multi-tone FSK audio waveform and
// recovers it from a possibly noisy recording. The pipeline is strictly
// linear: text bytes gain Reed-Solomon parity, are framed into nibbles, and
// are modulated into symbols of six simultaneous tones; decoding runs the
// same stages in reverse.
//
// Two values produced on encode, the padding byte count and the RS-encoded
// length, are not embedded in the signal. They must travel out-of-band (the
// CLI stores them in a YAML sidecar) and be handed back verbatim on decode.
package gibberlink

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/cwsl/gibberlink/modem"
	"github.com/cwsl/gibberlink/rs"
)

// ErrInvalidText reports that the bytes recovered after error correction are
// not valid UTF-8. Either corruption slipped past the FEC check capability
// or the decode parameters do not match the encode parameters.
var ErrInvalidText = errors.New("recovered bytes are not valid UTF-8")

// Metadata is the out-of-band side channel a decoder needs alongside the
// waveform.
type Metadata struct {
	// PadLen is the number of filler bytes appended after the RS-encoded
	// bytes to reach a whole number of symbols. Always 0, 1 or 2.
	PadLen int `yaml:"pad_len"`

	// EncodedLen is the RS-encoded byte length (message plus parity),
	// before padding.
	EncodedLen int `yaml:"rs_encoded_length"`
}

// DecodeError tags a decode failure with the stage that produced it, so a
// framing bug is distinguishable from a transmission failure. Retrying with
// the same inputs is pointless; the transform is deterministic.
type DecodeError struct {
	Stage string // "config", "demodulate", "framing", "fec" or "text"
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: %s: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeText turns text into a waveform using the given protocol parameters.
// The returned Metadata must accompany the waveform to the decoder.
func EncodeText(text string, p modem.Params) ([]float64, Metadata, error) {
	if err := p.Validate(); err != nil {
		return nil, Metadata{}, fmt.Errorf("encode: config: %w", err)
	}

	codec, err := rs.NewCodec(p.ECCBytes)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("encode: config: %w", err)
	}

	encoded := codec.Encode([]byte(text))
	nibbles, padLen := modem.ToNibbles(encoded)

	signal, err := modem.Modulate(nibbles, p)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("encode: modulate: %w", err)
	}

	return signal, Metadata{PadLen: padLen, EncodedLen: len(encoded)}, nil
}

// DecodeSignal recovers the original text from a waveform. The parameters
// and metadata must match the values used and produced by EncodeText
// exactly; errors identify the stage that failed.
func DecodeSignal(signal []float64, meta Metadata, p modem.Params) (string, error) {
	demod, err := modem.NewDemodulator(p)
	if err != nil {
		return "", &DecodeError{Stage: "config", Err: err}
	}

	codec, err := rs.NewCodec(p.ECCBytes)
	if err != nil {
		return "", &DecodeError{Stage: "config", Err: err}
	}

	nibbles, err := demod.Demodulate(signal)
	if err != nil {
		return "", &DecodeError{Stage: "demodulate", Err: err}
	}

	encoded, err := modem.FromNibbles(nibbles, meta.PadLen, meta.EncodedLen)
	if err != nil {
		return "", &DecodeError{Stage: "framing", Err: err}
	}

	msg, err := codec.Decode(encoded)
	if err != nil {
		return "", &DecodeError{Stage: "fec", Err: err}
	}

	if !utf8.Valid(msg) {
		return "", &DecodeError{Stage: "text", Err: ErrInvalidText}
	}
	return string(msg), nil
}
