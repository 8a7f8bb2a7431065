// Command mot-replay feeds a recorded detection stream (JSON lines) through the multi-object
// tracker and writes confirmed tracks of every frame as JSON lines.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/LdDl/bytetrack-go/config"
	"github.com/LdDl/bytetrack-go/logger"
	"github.com/LdDl/bytetrack-go/mot"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	configPath       = flag.String("config", "", "Path to YAML configuration. Defaults to $MOT_CONFIG, then mot.yml and config/mot.yml")
	presetName       = flag.String("preset", "", "Overrides preset of the configuration file (bytetrack, botsort, highway, intersection)")
	inputPath        = flag.String("in", "-", "Detections file (JSON lines). '-' reads stdin")
	outputPath       = flag.String("out", "-", "Tracks file (JSON lines). '-' writes stdout")
	framesDir        = flag.String("frames", "", "Directory with <frame>.png images used by appearance matching")
	trajectoriesPath = flag.String("trajectories", "", "Optional CSV file for per-track center histories")
	logLevel         = flag.String("log", "", "Log level. Defaults to $LOG_LEVEL, then configuration file")
)

func main() {
	// .env is optional
	_ = godotenv.Load()
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "mot-replay: %+v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	path := *configPath
	if path == "" {
		path = os.Getenv("MOT_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if *presetName != "" {
		tracker, err := config.Preset(*presetName)
		if err != nil {
			return errors.Wrap(err, "Can't apply preset")
		}
		cfg.Preset = *presetName
		cfg.Tracker = tracker
	}
	level := *logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level != "" {
		cfg.Log.Level = level
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		MaxBackups: cfg.Log.MaxBackups,
		NoColors:   cfg.Log.NoColors,
	})
	if err != nil {
		return err
	}

	tracker, err := mot.NewTracker(cfg.Tracker, mot.WithLogger(log))
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"tracker": tracker.ID().String(),
		"preset":  cfg.Preset,
		"variant": cfg.Tracker.Variant,
		"motion":  cfg.Tracker.Motion,
	}).Info("Replay started")

	in, closeIn, err := openInput(*inputPath)
	if err != nil {
		return err
	}
	defer closeIn()
	out, closeOut, err := openOutput(*outputPath)
	if err != nil {
		return err
	}

	r := newReplayer(tracker, log, *framesDir)
	processed, err := r.run(ctx, in, out)
	closeErr := closeOut()
	if err != nil {
		return errors.Wrapf(err, "Replay stopped after %d frames", processed)
	}
	if closeErr != nil {
		return closeErr
	}

	if *trajectoriesPath != "" {
		if err := saveTrajectories(r, *trajectoriesPath); err != nil {
			return err
		}
	}

	metrics := tracker.Metrics()
	log.WithFields(logrus.Fields{
		"frames":         processed,
		"tracks_created": metrics.TracksCreated,
		"tracks_removed": metrics.TracksRemoved,
		"stage1_matches": metrics.Stage1Matches,
		"stage2_matches": metrics.Stage2Matches,
		"rejected":       metrics.RejectedDetections,
	}).Info("Replay finished")
	return nil
}

func saveTrajectories(r *replayer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Can't create trajectories file '%s'", path)
	}
	if err := r.writeTrajectories(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "Can't close trajectories file '%s'", path)
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" || path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Can't open detections file '%s'", path)
	}
	// Close error of a read-only file is ignored
	return f, func() { f.Close() }, nil
}

// openOutput returns the tracks writer and its closer. Closer reports errors of the last write-back
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "-" || path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Can't create tracks file '%s'", path)
	}
	return f, func() error {
		return errors.Wrapf(f.Close(), "Can't close tracks file '%s'", path)
	}, nil
}
