// Command gibberlink encodes text into multi-tone FSK audio and decodes it
// back. Encoded signals are written as 16-bit mono PCM WAV files with a YAML
// metadata sidecar carrying the out-of-band framing values; decode reads
// both. The play and record subcommands move audio through the default
// PortAudio device.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/cwsl/gibberlink"
	"github.com/cwsl/gibberlink/modem"
	"github.com/cwsl/gibberlink/wav"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
	Prefix:          "gibberlink",
})

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  gibberlink encode [flags] [text]     encode text (or stdin) to a WAV file
  gibberlink decode [flags]            decode a WAV file back to text
  gibberlink play   -i signal.wav      play a WAV file on the default output
  gibberlink record -o capture.wav     record from the default input

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	var (
		inPath     = flag.StringP("in", "i", "", "input WAV file")
		outPath    = flag.StringP("out", "o", "signal.wav", "output WAV file")
		metaPath   = flag.String("meta", "", "metadata sidecar path (default <wav>.meta.yaml)")
		configPath = flag.String("config", "", "YAML file with protocol parameters")
		ultrasonic = flag.Bool("ultrasonic", false, "use the near-ultrasonic band (15 kHz base)")
		sampleRate = flag.Int("sample-rate", modem.DefaultSampleRate, "samples per second")
		symbolDur  = flag.Int("symbol-duration", modem.DefaultSymbolDuration, "samples per symbol")
		eccBytes   = flag.Int("ecc-bytes", modem.DefaultECCBytes, "Reed-Solomon parity bytes")
		play       = flag.Bool("play", false, "also play the encoded signal")
		seconds    = flag.Float64("seconds", 5, "recording duration for the record subcommand")
		verbose    = flag.BoolP("verbose", "v", false, "debug logging")
	)
	flag.Usage = usage
	flag.Parse()

	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "encode":
		params, perr := resolveParams(*configPath, *ultrasonic, *sampleRate, *symbolDur, *eccBytes)
		if perr != nil {
			logger.Fatal("invalid parameters", "err", perr)
		}
		err = runEncode(args[1:], params, *outPath, *metaPath, *play)
	case "decode":
		err = runDecode(*inPath, *metaPath)
	case "play":
		err = runPlay(*inPath)
	case "record":
		err = runRecord(*outPath, *sampleRate, *seconds)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal(args[0]+" failed", "err", err)
	}
}

func runEncode(args []string, params modem.Params, outPath, metaPath string, play bool) error {
	text := strings.Join(args, " ")
	if text == "" {
		in, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = strings.TrimRight(string(in), "\n")
	}

	signal, meta, err := gibberlink.EncodeText(text, params)
	if err != nil {
		return err
	}
	logger.Debug("encoded",
		"bytes", len(text),
		"rs_encoded_length", meta.EncodedLen,
		"pad_len", meta.PadLen,
		"symbols", len(signal)/params.SymbolDuration,
		"duration_s", float64(len(signal))/float64(params.SampleRate))

	if err := wav.Write(outPath, signal, params.SampleRate); err != nil {
		return err
	}
	if err := writeSidecar(sidecarPath(outPath, metaPath), params, meta); err != nil {
		return err
	}
	logger.Info("wrote signal", "wav", outPath, "meta", sidecarPath(outPath, metaPath))

	if play {
		logger.Info("playing", "samples", len(signal))
		return playSamples(signal, params.SampleRate)
	}
	return nil
}

func runDecode(inPath, metaPath string) error {
	if inPath == "" {
		return fmt.Errorf("decode requires --in")
	}

	params, meta, err := readSidecar(sidecarPath(inPath, metaPath))
	if err != nil {
		return err
	}

	signal, sampleRate, err := wav.Read(inPath)
	if err != nil {
		return err
	}
	if sampleRate != params.SampleRate {
		return fmt.Errorf("WAV sample rate %d does not match sidecar sample rate %d", sampleRate, params.SampleRate)
	}
	logger.Debug("loaded signal", "samples", len(signal), "sample_rate", sampleRate)

	text, err := gibberlink.DecodeSignal(signal, meta, params)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func runPlay(inPath string) error {
	if inPath == "" {
		return fmt.Errorf("play requires --in")
	}
	signal, sampleRate, err := wav.Read(inPath)
	if err != nil {
		return err
	}
	logger.Info("playing", "wav", inPath, "duration_s", float64(len(signal))/float64(sampleRate))
	return playSamples(signal, sampleRate)
}

func runRecord(outPath string, sampleRate int, seconds float64) error {
	if seconds <= 0 {
		return fmt.Errorf("recording duration must be positive, got %g", seconds)
	}
	logger.Info("recording", "seconds", seconds, "sample_rate", sampleRate)
	samples, err := recordSamples(seconds, sampleRate)
	if err != nil {
		return err
	}
	if err := wav.Write(outPath, samples, sampleRate); err != nil {
		return err
	}
	logger.Info("wrote recording", "wav", outPath, "samples", len(samples))
	return nil
}
