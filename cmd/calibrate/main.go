// Command calibrate derives per-sensor thresholds, per-profile weights, and
// veto thresholds from a labeled corpus and writes a configuration document.
package main

import (
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/veridianvoice/deepfake-core/internal/calibration"
)

// version is set at build time by GoReleaser via -ldflags.
var version = "dev"

type cli struct {
	CorpusDir string `arg:"" help:"Directory containing organic/ and synthetic/ subdirectories of PCM recordings." type:"existingdir"`
	Output    string `help:"Path to write the resulting configuration document." default:"voxfusion.yaml"`
	Version   kong.VersionFlag `help:"Print the calibrate version and exit."`
}

func main() {
	var c cli
	parser := kong.Parse(&c,
		kong.Name("calibrate"),
		kong.Description("Derive sensor thresholds and fusion weights from a labeled corpus."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	logger := newLogger(os.Getenv("VOXFUSION_LOG_LEVEL"))
	logger.Info().Str("corpus", c.CorpusDir).Msg("starting calibration")

	start := time.Now()
	report, err := calibration.Run(c.CorpusDir)
	if err != nil {
		logger.Error().Err(err).Msg("calibration failed")
		parser.FatalIfErrorf(err)
	}

	logger.Info().
		Int("files_processed", report.FilesProcessed).
		Int("files_skipped", report.FilesSkipped).
		Dur("elapsed", time.Since(start)).
		Msg("calibration complete")

	for name, acc := range report.PerSensorAccuracy {
		logger.Info().Str("sensor", name).Float64("balanced_accuracy", acc).Msg("sensor calibrated")
	}

	if err := calibration.Persist(report.Config, c.Output); err != nil {
		logger.Error().Err(err).Str("path", c.Output).Msg("failed to persist configuration")
		parser.FatalIfErrorf(err)
	}
	logger.Info().Str("path", c.Output).Msg("configuration written")
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
