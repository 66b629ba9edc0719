package main

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// playSamples plays a sample sequence on the default output device,
// blocking until the last buffer has been handed to PortAudio.
func playSamples(samples []float64, sampleRate int) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	defer portaudio.Terminate()

	buf := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), len(buf), &buf)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	defer stream.Stop()

	for off := 0; off < len(samples); off += framesPerBuffer {
		n := copy(buf, toFloat32(samples[off:])) // zero-pads the final buffer
		for i := n; i < framesPerBuffer; i++ {
			buf[i] = 0
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("failed to write audio: %w", err)
		}
	}
	return nil
}

// recordSamples captures a fixed duration from the default input device.
func recordSamples(seconds float64, sampleRate int) ([]float64, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	defer portaudio.Terminate()

	buf := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), len(buf), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}
	defer stream.Stop()

	total := int(seconds * float64(sampleRate))
	samples := make([]float64, 0, total)
	for len(samples) < total {
		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("failed to read audio: %w", err)
		}
		for _, s := range buf {
			samples = append(samples, float64(s))
		}
	}
	return samples[:total], nil
}

func toFloat32(samples []float64) []float32 {
	n := len(samples)
	if n > framesPerBuffer {
		n = framesPerBuffer
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(samples[i])
	}
	return out
}
