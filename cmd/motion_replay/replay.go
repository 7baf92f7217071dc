package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/2beens/gymcoach/internal/motion"
	"github.com/2beens/gymcoach/internal/workout"

	"go.uber.org/multierr"
)

// replayClock follows the timestamps of the recording instead of the wall
// clock. Scheduled funcs run synchronously from advanceTo, in due order.
type replayClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*replayTimer
}

type replayTimer struct {
	at      time.Time
	seq     int
	f       func()
	stopped bool
}

func newReplayClock(start time.Time) *replayClock {
	return &replayClock{now: start}
}

func (c *replayClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *replayClock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &replayTimer{at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		wasPending := !t.stopped
		t.stopped = true
		return wasPending
	}
}

func (c *replayClock) advanceTo(target time.Time) {
	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			if target.After(c.now) {
				c.now = target
			}
			c.mu.Unlock()
			return
		}
		next.stopped = true
		c.now = next.at
		c.mu.Unlock()

		next.f()
	}
}

func (c *replayClock) nextDueLocked(target time.Time) *replayTimer {
	pending := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped {
			pending = append(pending, t)
		}
	}
	c.timers = pending
	sort.Slice(c.timers, func(i, j int) bool {
		if c.timers[i].at.Equal(c.timers[j].at) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].at.Before(c.timers[j].at)
	})
	if len(c.timers) == 0 || c.timers[0].at.After(target) {
		return nil
	}
	return c.timers[0]
}

// readSamples parses a recording with one "t_ms,x,y,z" row per sample, where
// t_ms is the offset from the start of the recording in milliseconds.
// A leading header row is skipped. Every malformed row is reported.
func readSamples(r io.Reader, start time.Time) ([]motion.Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var (
		samples []motion.Sample
		errs    error
	)
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "t_ms") {
			continue
		}

		values := make([]float64, len(record))
		var rowErr error
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				rowErr = multierr.Append(rowErr, fmt.Errorf("line %d, column %d: %w", line, i+1, err))
				continue
			}
			values[i] = v
		}
		if rowErr != nil {
			errs = multierr.Append(errs, rowErr)
			continue
		}

		samples = append(samples, motion.Sample{
			X:         values[1],
			Y:         values[2],
			Z:         values[3],
			Timestamp: start.Add(time.Duration(values[0] * float64(time.Millisecond))),
		})
	}
	if errs != nil {
		return nil, errs
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
	return samples, nil
}

type replayResult struct {
	Samples    int             `json:"samples"`
	Detections []int           `json:"detections"`
	Errors     []string        `json:"errors,omitempty"`
	Final      motion.Snapshot `json:"final"`
}

// replay runs a calibration and detection session over samples. Calibration
// starts at the first sample; after the last one the clock runs on long enough
// for pending timers to fire.
func replay(samples []motion.Sample, cfg motion.Config, opts ...motion.Option) (replayResult, error) {
	result := replayResult{Samples: len(samples)}
	if len(samples) == 0 {
		return result, workout.NewError(workout.CodeMotionDetectionFailed, "Recording has no samples", nil)
	}

	var mu sync.Mutex
	cfg.OnDetection = func(reps int) {
		mu.Lock()
		defer mu.Unlock()
		result.Detections = append(result.Detections, reps)
	}
	cfg.OnError = func(err error) {
		mu.Lock()
		defer mu.Unlock()
		result.Errors = append(result.Errors, err.Error())
	}

	clock := newReplayClock(samples[0].Timestamp)
	source := motion.NewFeedSource()
	detector, err := motion.NewDetector(source, cfg, append(opts, motion.WithClock(clock))...)
	if err != nil {
		return result, err
	}
	defer func() {
		_ = detector.Close()
	}()

	if err := detector.StartCalibration(); err != nil {
		return result, err
	}
	for _, s := range samples {
		clock.advanceTo(s.Timestamp)
		source.Push(s)
	}

	tail := max(cfg.CalibrationCountdown, cfg.DetectionDelay, motion.DefaultCalibrationCountdown, motion.DefaultDetectionDelay)
	clock.advanceTo(clock.Now().Add(tail))

	result.Final = detector.State()
	return result, nil
}
