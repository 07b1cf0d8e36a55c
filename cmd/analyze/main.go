// Command analyze runs the full detection pipeline against a single audio
// file and prints the resulting verdict as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/veridianvoice/deepfake-core/internal/calibration"
	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/pipeline"
)

// version is set at build time by GoReleaser via -ldflags.
var version = "dev"

type cli struct {
	Input       string `arg:"" help:"Path to a little-endian float32 PCM audio file." type:"existingfile"`
	ConfigPath  string `help:"Path to the calibrated configuration document." default:"" env:"VOXFUSION_CONFIG_PATH"`
	SampleRate  int    `help:"Sample rate of the input file, in Hz." default:"16000"`
	Channels    int    `help:"Number of interleaved channels in the input file." default:"1"`
	Timeout     time.Duration `help:"Soft per-analysis deadline." default:"10s"`
	Version     kong.VersionFlag `help:"Print the analyze version and exit."`
}

func main() {
	var c cli
	parser := kong.Parse(&c,
		kong.Name("analyze"),
		kong.Description("Analyze a recording for voice-deepfake indicators."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	logger := newLogger(os.Getenv("VOXFUSION_LOG_LEVEL"))

	loadResult, err := config.Loader{}.Load(c.ConfigPath)
	var cfg config.Config
	if err != nil {
		logger.Warn().Err(err).Msg("no calibrated configuration found, falling back to defaults")
		cfg = config.Default()
	} else {
		cfg = loadResult.Config
		for _, warn := range loadResult.Warnings {
			logger.Warn().Msg(warn)
		}
	}

	samples, err := calibration.ReadPCMFile(c.Input)
	if err != nil {
		logger.Error().Err(err).Str("path", c.Input).Msg("failed to read input")
		parser.FatalIfErrorf(err)
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to construct pipeline")
		parser.FatalIfErrorf(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	start := time.Now()
	result, err := p.Analyze(ctx, samples, c.SampleRate, c.Channels)
	if err != nil {
		logger.Error().Err(err).Msg("analysis failed")
		parser.FatalIfErrorf(err)
	}
	logger.Info().
		Str("verdict", string(result.Verdict)).
		Float64("score", result.Score).
		Dur("elapsed", time.Since(start)).
		Msg("analysis complete")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

func parseLevel(value string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
