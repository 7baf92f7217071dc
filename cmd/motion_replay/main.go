package main

import (
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/2beens/gymcoach/internal/config"
	"github.com/2beens/gymcoach/internal/logging"
	"github.com/2beens/gymcoach/internal/motion"

	log "github.com/sirupsen/logrus"
)

// motion_replay feeds a recorded accelerometer CSV through the rep detector,
// useful for tuning thresholds offline.
func main() {
	file := flag.String("file", "", "recorded samples csv (t_ms,x,y,z)")
	configPath := flag.String("config", "", "optional TOML config file to read the motion defaults from")
	env := flag.String("env", "development", "config environment")
	targetReps := flag.Int("target", 10, "target reps")
	threshold := flag.Float64("threshold", 0, "detection threshold in g (0 keeps the configured one)")
	minInterval := flag.Duration("min-interval", 0, "minimum time between reps (0 keeps the configured one)")
	countdown := flag.Duration("countdown", 0, "calibration countdown (0 keeps the configured one)")
	delay := flag.Duration("delay", 0, "detection delay after reaching the target (0 keeps the configured one)")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logging.Setup(logging.LoggerSetupParams{
		LogLevel: *logLevel,
		// stdout carries the result
		Output: os.Stderr,
	})

	if *file == "" {
		log.Fatalln("samples file not specified, use -file")
	}

	cfg := motion.Config{TargetReps: *targetReps}
	if *configPath != "" {
		appCfg, err := config.Load(*env, *configPath)
		if err != nil {
			log.Fatalf("load config: %s", err)
		}
		cfg.Threshold = appCfg.Motion.Threshold
		cfg.MinRepInterval = appCfg.Motion.MinRepInterval.Duration
		cfg.CalibrationCountdown = appCfg.Motion.CalibrationCountdown.Duration
		cfg.DetectionDelay = appCfg.Motion.DetectionDelay.Duration
	}
	if *threshold > 0 {
		cfg.Threshold = *threshold
	}
	if *minInterval > 0 {
		cfg.MinRepInterval = *minInterval
	}
	if *countdown > 0 {
		cfg.CalibrationCountdown = *countdown
	}
	if *delay > 0 {
		cfg.DetectionDelay = *delay
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open samples file: %s", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warnf("close samples file: %s", err)
		}
	}()

	samples, err := readSamples(f, time.Unix(0, 0).UTC())
	if err != nil {
		log.Fatalf("read samples: %s", err)
	}
	log.Infof("replaying %d samples from [%s]", len(samples), *file)

	result, err := replay(samples, cfg)
	if err != nil {
		log.Fatalf("replay: %s", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("write result: %s", err)
	}
}
