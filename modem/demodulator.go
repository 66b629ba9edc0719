package modem

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrIncompleteSymbol reports a sample count that is not a whole number of
// symbols. Rejecting the trailing partial symbol keeps data loss explicit;
// callers that recorded extra audio should trim it before demodulating.
var ErrIncompleteSymbol = errors.New("sample count is not a whole number of symbols")

// Demodulator recovers nibble streams from waveforms. The FFT plan, window
// and channel/nibble bin table are built once and reused across calls. A
// Demodulator is not safe for concurrent use: it owns scratch buffers for
// the transform.
type Demodulator struct {
	params   Params
	fft      *fourier.FFT
	window   []float64
	binTable [ChannelCount][TonesPerNibble]int

	timeData []float64
	coeffs   []complex128
	power    []float64
}

// NewDemodulator validates the parameter set and precomputes the spectral
// machinery for it.
func NewDemodulator(p Params) (*Demodulator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n := p.SymbolDuration
	d := &Demodulator{
		params:   p,
		fft:      fourier.NewFFT(n),
		window:   make([]float64, n),
		timeData: make([]float64, n),
		coeffs:   make([]complex128, n/2+1),
		power:    make([]float64, n/2+1),
	}

	// Periodic Hamming window, to tame leakage from the block edges. Tones
	// sit exactly on bin centers, so a two-term periodic window smears each
	// peak into its immediate neighbours only. Hamming rather than Hann:
	// with Hann the two edge tones of adjacent channels can leak into the
	// bin between them with combined magnitude equal to a true peak, while
	// Hamming keeps every true peak strictly above any leakage sum.
	for i := 0; i < n; i++ {
		d.window[i] = 0.54 - 0.46*math.Cos(2.0*math.Pi*float64(i)/float64(n))
	}

	table := p.freqTable()
	for channel := 0; channel < ChannelCount; channel++ {
		for nibble := 0; nibble < TonesPerNibble; nibble++ {
			d.binTable[channel][nibble] = p.binFor(table[channel][nibble])
		}
	}
	return d, nil
}

// Demodulate recovers one nibble per channel per symbol. Each symbol window
// is Hamming-weighted, transformed, and each channel's sixteen candidate bins
// are scanned for the strongest power. Ties break toward the lowest nibble,
// so the pick is deterministic even on silence; unreliable picks on noisy
// input are the FEC layer's problem, never rejected here.
//
// The output length is exactly (len(samples)/SymbolDuration) * 6 nibbles.
func (d *Demodulator) Demodulate(samples []float64) ([]byte, error) {
	n := d.params.SymbolDuration
	if len(samples)%n != 0 {
		return nil, fmt.Errorf("%w: %d samples with symbol duration %d", ErrIncompleteSymbol, len(samples), n)
	}

	numSymbols := len(samples) / n
	nibbles := make([]byte, 0, numSymbols*NibblesPerSymbol)

	for sym := 0; sym < numSymbols; sym++ {
		window := samples[sym*n : (sym+1)*n]
		for i := 0; i < n; i++ {
			d.timeData[i] = window[i] * d.window[i]
		}

		d.fft.Coefficients(d.coeffs, d.timeData)
		for i, c := range d.coeffs {
			re, im := real(c), imag(c)
			d.power[i] = re*re + im*im
		}

		for channel := 0; channel < ChannelCount; channel++ {
			best := 0
			bestPower := d.power[d.binTable[channel][0]]
			for nibble := 1; nibble < TonesPerNibble; nibble++ {
				if pw := d.power[d.binTable[channel][nibble]]; pw > bestPower {
					best = nibble
					bestPower = pw
				}
			}
			nibbles = append(nibbles, byte(best))
		}
	}
	return nibbles, nil
}
