package wav

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")

	samples := make([]float64, 4800)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/48000)
	}
	require.NoError(t, Write(path, samples, 48000))

	got, rate, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 48000, rate)
	require.Equal(t, len(samples), len(got))
	for i := range samples {
		// 16-bit quantization allows at most one PCM step of error.
		require.InDeltaf(t, samples[i], got[i], 1.0/32768.0, "sample %d", i)
	}
}

func TestWriteClipsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")

	require.NoError(t, Write(path, []float64{2.0, -2.0, 0.0}, 44100))

	got, rate, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 44100, rate)
	require.Len(t, got, 3)
	assert.InDelta(t, 1.0, got[0], 1.0/32768.0)
	assert.InDelta(t, -1.0, got[1], 1.0/32768.0)
	assert.Zero(t, got[2])
}

func TestWriteEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")

	require.NoError(t, Write(path, nil, 48000))

	got, rate, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 48000, rate)
	assert.Empty(t, got)
}

func TestReadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.wav")
	require.NoError(t, os.WriteFile(path, []byte("this is not a wav file at all"), 0o644))

	_, _, err := Read(path)
	assert.Error(t, err)
}

func TestReadMissingFile(t *testing.T) {
	_, _, err := Read(filepath.Join(t.TempDir(), "absent.wav"))
	assert.Error(t, err)
}
