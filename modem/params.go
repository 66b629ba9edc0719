// Package modem implements the signal-level core of the gibberlink acoustic
// codec: the frequency plan, symbol framing, the multi-tone FSK modulator and
// the FFT peak-detection demodulator.
//
// Each symbol carries one 4-bit nibble on each of six simultaneous frequency
// channels, 24 bits (3 bytes) per symbol. The modulator and demodulator stay
// exactly symmetric because both derive tone placement from the same Params
// and because the tone spacing equals the FFT bin width, so demodulation is
// an exact bin lookup rather than an estimate.
package modem

import (
	"fmt"
	"math"
)

// Fixed protocol dimensions. These are part of the wire format and cannot be
// changed without breaking compatibility with existing recordings.
const (
	// TonesPerNibble is the number of candidate tones per channel, one for
	// each 4-bit value.
	TonesPerNibble = 16

	// ChannelCount is the number of simultaneous tone channels per symbol.
	ChannelCount = 6

	// BytesPerSymbol is the payload carried by one symbol:
	// ChannelCount nibbles = 24 bits.
	BytesPerSymbol = 3

	// NibblesPerSymbol equals ChannelCount; kept as its own name where code
	// is talking about framing rather than channels.
	NibblesPerSymbol = 2 * BytesPerSymbol
)

// Defaults matching the reference protocol.
const (
	DefaultSampleRate     = 48000
	DefaultSymbolDuration = 1024
	DefaultECCBytes       = 4

	baseFrequencyAudible    = 1875.0
	baseFrequencyUltrasonic = 15000.0
)

// freqStepTolerance is how far FreqStep may drift from the FFT bin width
// before the parameter set is rejected. The equality is what guarantees that
// every tone lands exactly on a bin center.
const freqStepTolerance = 1e-9

// Mode selects the frequency band the signal occupies.
type Mode string

const (
	// ModeAudible places channel 0 at 1875 Hz, well inside loudspeaker and
	// microphone response.
	ModeAudible Mode = "audible"

	// ModeUltrasonic places channel 0 at 15 kHz, near the top of hearing.
	ModeUltrasonic Mode = "ultrasonic"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAudible, ModeUltrasonic:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeAudible, ModeUltrasonic)
}

// Params is the immutable protocol configuration. Encode and decode must use
// identical Params or demodulation is not guaranteed correct.
type Params struct {
	Mode           Mode    `yaml:"mode"`
	SampleRate     int     `yaml:"sample_rate"`      // samples per second
	SymbolDuration int     `yaml:"symbol_duration"`  // samples per symbol
	BaseFrequency  float64 `yaml:"base_frequency"`   // Hz of channel 0, nibble 0
	FreqStep       float64 `yaml:"freq_step"`        // Hz between adjacent tones
	ECCBytes       int     `yaml:"rs_ecc_bytes"`     // Reed-Solomon parity bytes
}

// NewParams returns the preset parameter set for the given mode.
func NewParams(mode Mode) Params {
	base := baseFrequencyAudible
	if mode == ModeUltrasonic {
		base = baseFrequencyUltrasonic
	}
	return Params{
		Mode:           mode,
		SampleRate:     DefaultSampleRate,
		SymbolDuration: DefaultSymbolDuration,
		BaseFrequency:  base,
		FreqStep:       float64(DefaultSampleRate) / float64(DefaultSymbolDuration),
		ECCBytes:       DefaultECCBytes,
	}
}

// BinWidth is the frequency resolution of a SymbolDuration-point FFT at
// SampleRate, in Hz.
func (p Params) BinWidth() float64 {
	return float64(p.SampleRate) / float64(p.SymbolDuration)
}

// Validate checks the parameter set eagerly, before any signal work starts.
// A failure here is a configuration error and is never silently corrected.
func (p Params) Validate() error {
	if p.Mode != ModeAudible && p.Mode != ModeUltrasonic {
		return fmt.Errorf("invalid mode %q", p.Mode)
	}
	if p.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", p.SampleRate)
	}
	if p.SymbolDuration <= 0 {
		return fmt.Errorf("symbol duration must be positive, got %d", p.SymbolDuration)
	}
	if p.BaseFrequency <= 0 {
		return fmt.Errorf("base frequency must be positive, got %g", p.BaseFrequency)
	}
	if math.Abs(p.FreqStep-p.BinWidth()) > freqStepTolerance {
		return fmt.Errorf("freq step %g Hz does not match FFT bin width %g Hz (sample_rate/symbol_duration)",
			p.FreqStep, p.BinWidth())
	}
	if p.ECCBytes <= 0 || p.ECCBytes >= 255 {
		return fmt.Errorf("ecc bytes must be in 1..254, got %d", p.ECCBytes)
	}

	// The whole frequency plan has to sit below Nyquist or the top channels
	// would alias and the demodulator could never see them.
	top := p.BaseFrequency + float64(ChannelCount*TonesPerNibble-1)*p.FreqStep
	if top >= float64(p.SampleRate)/2 {
		return fmt.Errorf("frequency plan reaches %.1f Hz, beyond Nyquist %.1f Hz", top, float64(p.SampleRate)/2)
	}
	return nil
}
