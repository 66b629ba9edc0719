package modem

import (
	"errors"
	"fmt"
	"math"
)

// Frequency plan errors.
var (
	ErrInvalidChannel = errors.New("channel index out of range")
	ErrInvalidNibble  = errors.New("nibble value out of range")
)

// FrequencyFor returns the tone frequency in Hz used to represent the given
// nibble value on the given channel. It is a pure function of Params:
//
//	freq = base + (channel*16 + nibble) * step
//
// Channel bands are disjoint by construction because nibble never exceeds 15.
func (p Params) FrequencyFor(channel, nibble int) (float64, error) {
	if channel < 0 || channel >= ChannelCount {
		return 0, fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	if nibble < 0 || nibble >= TonesPerNibble {
		return 0, fmt.Errorf("%w: %d", ErrInvalidNibble, nibble)
	}
	return p.BaseFrequency + float64(channel*TonesPerNibble+nibble)*p.FreqStep, nil
}

// ChannelBand returns the frequency span [low, high] covered by a channel's
// sixteen tones. The demodulator restricts its peak search to this span so
// neighbouring channels never compete for the same peak.
func (p Params) ChannelBand(channel int) (low, high float64, err error) {
	low, err = p.FrequencyFor(channel, 0)
	if err != nil {
		return 0, 0, err
	}
	high, err = p.FrequencyFor(channel, TonesPerNibble-1)
	if err != nil {
		return 0, 0, err
	}
	return low, high, nil
}

// freqTable precomputes every tone frequency. Params must be valid.
func (p Params) freqTable() [ChannelCount][TonesPerNibble]float64 {
	var table [ChannelCount][TonesPerNibble]float64
	for channel := 0; channel < ChannelCount; channel++ {
		for nibble := 0; nibble < TonesPerNibble; nibble++ {
			table[channel][nibble] = p.BaseFrequency + float64(channel*TonesPerNibble+nibble)*p.FreqStep
		}
	}
	return table
}

// binFor maps a frequency to its FFT bin index for a SymbolDuration-point
// transform. Because FreqStep equals the bin width, plan frequencies land on
// integer bins and the rounding never has to break a tie.
func (p Params) binFor(freq float64) int {
	return int(math.Round(freq * float64(p.SymbolDuration) / float64(p.SampleRate)))
}
