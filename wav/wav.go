// Package wav persists sample sequences as 16-bit mono PCM WAV files and
// loads them back as float64 samples in [-1, 1]. Normalization between the
// codec's floating-point samples and the storage format lives here; the
// codec core never sees int16.
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

const bitsPerSample = 16

// header is the canonical 44-byte PCM WAV header.
type header struct {
	// RIFF chunk
	ChunkID   [4]byte // "RIFF"
	ChunkSize uint32  // file size - 8
	Format    [4]byte // "WAVE"

	// fmt sub-chunk
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample/8
	BlockAlign    uint16 // NumChannels * BitsPerSample/8
	BitsPerSample uint16

	// data sub-chunk
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

func newHeader(sampleRate int, dataSize uint32) header {
	return header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     dataSize + 36, // 36 = header size - 8
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * bitsPerSample / 8),
		BlockAlign:    bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
}

// Write stores samples as a mono 16-bit PCM WAV file. Samples are clipped to
// [-1, 1] before conversion.
func Write(path string, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create WAV file: %w", err)
	}

	dataSize := uint32(len(samples) * bitsPerSample / 8)
	if err := binary.Write(f, binary.LittleEndian, newHeader(sampleRate, dataSize)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write WAV header: %w", err)
	}

	pcm := make([]int16, len(samples))
	for i, s := range samples {
		pcm[i] = toPCM(s)
	}
	if err := binary.Write(f, binary.LittleEndian, pcm); err != nil {
		f.Close()
		return fmt.Errorf("failed to write samples: %w", err)
	}

	return f.Close()
}

// Read loads a mono 16-bit PCM WAV file, returning its samples scaled to
// [-1, 1) and its sample rate. Files from other tools may carry extra
// chunks before the data chunk; those are skipped.
func Read(path string) (samples []float64, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open WAV file: %w", err)
	}
	defer f.Close()

	var riff struct {
		ChunkID   [4]byte
		ChunkSize uint32
		Format    [4]byte
	}
	if err := binary.Read(f, binary.LittleEndian, &riff); err != nil {
		return nil, 0, fmt.Errorf("failed to read RIFF header: %w", err)
	}
	if string(riff.ChunkID[:]) != "RIFF" || string(riff.Format[:]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a WAV file")
	}

	var (
		fmtSeen  bool
		channels int
		bits     int
	)
	for {
		var chunk struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(f, binary.LittleEndian, &chunk); err != nil {
			if err == io.EOF {
				return nil, 0, fmt.Errorf("no data chunk found")
			}
			return nil, 0, fmt.Errorf("failed to read chunk header: %w", err)
		}

		switch string(chunk.ID[:]) {
		case "fmt ":
			var f16 struct {
				AudioFormat   uint16
				NumChannels   uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(f, binary.LittleEndian, &f16); err != nil {
				return nil, 0, fmt.Errorf("failed to read fmt chunk: %w", err)
			}
			if f16.AudioFormat != 1 {
				return nil, 0, fmt.Errorf("unsupported audio format %d (want PCM)", f16.AudioFormat)
			}
			fmtSeen = true
			channels = int(f16.NumChannels)
			bits = int(f16.BitsPerSample)
			sampleRate = int(f16.SampleRate)
			// Skip any fmt extension bytes.
			if chunk.Size > 16 {
				if _, err := f.Seek(int64(chunk.Size-16), io.SeekCurrent); err != nil {
					return nil, 0, fmt.Errorf("failed to skip fmt extension: %w", err)
				}
			}

		case "data":
			if !fmtSeen {
				return nil, 0, fmt.Errorf("data chunk before fmt chunk")
			}
			if channels != 1 {
				return nil, 0, fmt.Errorf("requires mono audio (got %d channels)", channels)
			}
			if bits != bitsPerSample {
				return nil, 0, fmt.Errorf("requires 16-bit audio (got %d bits)", bits)
			}
			pcm := make([]int16, chunk.Size/2)
			if err := binary.Read(f, binary.LittleEndian, pcm); err != nil {
				return nil, 0, fmt.Errorf("failed to read samples: %w", err)
			}
			samples = make([]float64, len(pcm))
			for i, s := range pcm {
				samples[i] = float64(s) / 32768.0
			}
			return samples, sampleRate, nil

		default:
			if _, err := f.Seek(int64(chunk.Size), io.SeekCurrent); err != nil {
				return nil, 0, fmt.Errorf("failed to skip %q chunk: %w", chunk.ID[:], err)
			}
		}
	}
}

// toPCM converts a float64 sample to int16 with clipping.
func toPCM(s float64) int16 {
	v := math.Round(s * 32767.0)
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(v)
}
