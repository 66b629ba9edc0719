package modem

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
)

// ErrMisalignedNibbles reports a nibble stream that does not divide into
// whole symbols. ToNibbles always produces aligned streams, so hitting this
// means the caller bypassed framing.
var ErrMisalignedNibbles = errors.New("nibble count is not a multiple of the symbol size")

// toneAmplitude scales each channel so the six summed sinusoids can never
// leave [-1, 1].
const toneAmplitude = 1.0 / ChannelCount

// Modulate synthesizes the waveform for a nibble stream. Each group of six
// nibbles becomes one symbol of SymbolDuration samples: six sinusoids, one
// per channel at the frequency the plan assigns to that channel's nibble,
// summed sample-wise. Phase restarts at zero for every symbol, so symbols
// are fully independent and are synthesized in parallel.
//
// The output length is exactly (len(nibbles)/6) * SymbolDuration samples.
func Modulate(nibbles []byte, p Params) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(nibbles)%NibblesPerSymbol != 0 {
		return nil, fmt.Errorf("%w: got %d nibbles", ErrMisalignedNibbles, len(nibbles))
	}
	for i, n := range nibbles {
		if n >= TonesPerNibble {
			return nil, fmt.Errorf("%w: value %d at index %d", ErrInvalidNibble, n, i)
		}
	}

	table := p.freqTable()
	numSymbols := len(nibbles) / NibblesPerSymbol
	samples := make([]float64, numSymbols*p.SymbolDuration)

	// Symbols share no state, so split them across workers. Each worker owns
	// a disjoint slice of the output; symbol order is preserved by index.
	workers := runtime.GOMAXPROCS(0)
	if workers > numSymbols {
		workers = numSymbols
	}
	if workers <= 1 {
		modulateRange(nibbles, samples, 0, numSymbols, &table, p)
		return samples, nil
	}

	var wg sync.WaitGroup
	per := (numSymbols + workers - 1) / workers
	for start := 0; start < numSymbols; start += per {
		end := start + per
		if end > numSymbols {
			end = numSymbols
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			modulateRange(nibbles, samples, start, end, &table, p)
		}(start, end)
	}
	wg.Wait()
	return samples, nil
}

// modulateRange synthesizes symbols [first, last) into their slots of out.
func modulateRange(nibbles []byte, out []float64, first, last int, table *[ChannelCount][TonesPerNibble]float64, p Params) {
	for sym := first; sym < last; sym++ {
		block := out[sym*p.SymbolDuration : (sym+1)*p.SymbolDuration]
		for channel := 0; channel < ChannelCount; channel++ {
			nibble := nibbles[sym*NibblesPerSymbol+channel]
			step := 2 * math.Pi * table[channel][nibble] / float64(p.SampleRate)
			for n := range block {
				block[n] += toneAmplitude * math.Sin(step*float64(n))
			}
		}
	}
}
