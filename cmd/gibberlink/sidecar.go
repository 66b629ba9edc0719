package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwsl/gibberlink"
	"github.com/cwsl/gibberlink/modem"
)

// sidecar is the YAML document stored next to each encoded WAV file. It
// carries the two out-of-band values the decoder cannot recover from the
// signal, plus the full parameter set so a decode with mismatched protocol
// parameters is caught before demodulation.
type sidecar struct {
	Params   modem.Params        `yaml:"params"`
	Metadata gibberlink.Metadata `yaml:"metadata"`
}

// sidecarPath returns the explicit override if given, otherwise the default
// location next to the WAV file.
func sidecarPath(wavPath, override string) string {
	if override != "" {
		return override
	}
	return wavPath + ".meta.yaml"
}

func writeSidecar(path string, params modem.Params, meta gibberlink.Metadata) error {
	data, err := yaml.Marshal(sidecar{Params: params, Metadata: meta})
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata sidecar: %w", err)
	}
	return nil
}

func readSidecar(path string) (modem.Params, gibberlink.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return modem.Params{}, gibberlink.Metadata{}, fmt.Errorf("failed to read metadata sidecar: %w", err)
	}
	var sc sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return modem.Params{}, gibberlink.Metadata{}, fmt.Errorf("failed to parse metadata sidecar: %w", err)
	}
	if err := sc.Params.Validate(); err != nil {
		return modem.Params{}, gibberlink.Metadata{}, fmt.Errorf("sidecar parameters: %w", err)
	}
	return sc.Params, sc.Metadata, nil
}

// resolveParams builds the protocol parameters for encoding: mode preset
// first, then the optional YAML config file, then explicit flags.
func resolveParams(configPath string, ultrasonic bool, sampleRate, symbolDur, eccBytes int) (modem.Params, error) {
	mode := modem.ModeAudible
	if ultrasonic {
		mode = modem.ModeUltrasonic
	}
	params := modem.NewParams(mode)

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return modem.Params{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &params); err != nil {
			return modem.Params{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if sampleRate != modem.DefaultSampleRate || symbolDur != modem.DefaultSymbolDuration {
		params.SampleRate = sampleRate
		params.SymbolDuration = symbolDur
		params.FreqStep = float64(sampleRate) / float64(symbolDur)
	}
	if eccBytes != modem.DefaultECCBytes {
		params.ECCBytes = eccBytes
	}

	if err := params.Validate(); err != nil {
		return modem.Params{}, err
	}
	return params, nil
}
