package motion

import (
	"errors"
	"sync"
	"time"

	"github.com/2beens/gymcoach/internal/telemetry/metrics"
	"github.com/2beens/gymcoach/internal/workout"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultCalibrationCountdown = 3 * time.Second
	DefaultCalibrationSamples   = 30
	DefaultBufferSize           = 100
	DefaultMinRepInterval       = 500 * time.Millisecond
	DefaultDetectionDelay       = 500 * time.Millisecond
	DefaultThreshold            = 1.5

	MinThreshold    = 0.5
	MaxThreshold    = 3.0
	SensitivityStep = 0.2
)

var ErrNilSource = errors.New("motion: nil sample source")

type State int

const (
	StateIdle State = iota
	StateCalibrating
	StateDetecting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCalibrating:
		return "calibrating"
	case StateDetecting:
		return "detecting"
	default:
		return "unknown"
	}
}

type Config struct {
	TargetReps  int
	OnDetection func(reps int)
	OnError     func(err error)

	CalibrationCountdown time.Duration
	CalibrationSamples   int
	BufferSize           int
	MinRepInterval       time.Duration
	DetectionDelay       time.Duration
	Threshold            float64
}

func (c Config) withDefaults() Config {
	if c.CalibrationCountdown <= 0 {
		c.CalibrationCountdown = DefaultCalibrationCountdown
	}
	if c.CalibrationSamples <= 0 {
		c.CalibrationSamples = DefaultCalibrationSamples
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.MinRepInterval <= 0 {
		c.MinRepInterval = DefaultMinRepInterval
	}
	if c.DetectionDelay <= 0 {
		c.DetectionDelay = DefaultDetectionDelay
	}
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	c.Threshold = clampThreshold(c.Threshold)
	return c
}

type Option func(d *Detector)

func WithClock(clock Clock) Option {
	return func(d *Detector) {
		d.clock = clock
	}
}

func WithMetrics(metricsManager *metrics.Manager) Option {
	return func(d *Detector) {
		d.metrics = metricsManager
	}
}

// Snapshot is the read-only view of a detector.
type Snapshot struct {
	State              State   `json:"-"`
	IsDetecting        bool    `json:"isDetecting"`
	IsCalibrating      bool    `json:"isCalibrating"`
	DetectedReps       int     `json:"detectedReps"`
	DetectionThreshold float64 `json:"detectionThreshold"`
	TargetReps         int     `json:"targetReps"`
}

// Detector counts reps from an accelerometer sample stream.
//
// A detection session goes idle -> calibrating -> detecting. While calibrating
// the samples are only buffered, and once the countdown expires the mean of the
// most recent samples becomes the baseline. While detecting, a sample whose
// distance from the baseline exceeds the threshold counts as a rep, unless the
// previous rep was counted less than MinRepInterval ago. Once the target is
// reached, the count is reported after DetectionDelay and the session ends.
//
// At most one listener is subscribed to the source at any time, and it is
// always detached before the detector leaves the state it was attached for.
// Every session gets a new generation number; listeners and timers of an old
// generation are ignored, so nothing fires after a stop.
type Detector struct {
	mu      sync.Mutex
	source  Source
	clock   Clock
	metrics *metrics.Manager
	cfg     Config

	state         State
	closed        bool
	generation    uint64
	threshold     float64
	buffer        *RingBuffer
	baseline      Sample
	detectedReps  int
	lastRepAt     time.Time
	hasLastRep    bool
	targetReached bool

	unsubscribe   func()
	stopCountdown func() bool
	stopEmission  func() bool
}

func NewDetector(source Source, cfg Config, opts ...Option) (*Detector, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if cfg.TargetReps <= 0 {
		return nil, workout.NewError(
			workout.CodeInvalidExerciseData,
			"Target reps must be at least 1",
			map[string]any{"targetReps": cfg.TargetReps},
		)
	}

	cfg = cfg.withDefaults()
	d := &Detector{
		source:    source,
		clock:     SystemClock(),
		cfg:       cfg,
		state:     StateIdle,
		threshold: cfg.Threshold,
		buffer:    NewRingBuffer(cfg.BufferSize),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// StartCalibration starts buffering samples and schedules the end of the
// calibration countdown.
func (d *Detector) StartCalibration() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return workout.NewError(workout.CodeInvalidWorkoutState, "Motion detector is closed", nil)
	}
	if d.state != StateIdle {
		return workout.NewError(
			workout.CodeInvalidWorkoutState,
			"Motion detection is already running",
			map[string]any{"state": d.state.String()},
		)
	}

	d.generation++
	gen := d.generation
	d.resetCountersLocked()
	d.buffer.Clear()
	d.state = StateCalibrating
	d.attachLocked(d.calibrationListener(gen))
	d.stopCountdown = d.clock.AfterFunc(d.cfg.CalibrationCountdown, func() {
		d.finishCalibration(gen)
	})

	log.WithFields(log.Fields{
		"target_reps": d.cfg.TargetReps,
		"countdown":   d.cfg.CalibrationCountdown,
	}).Debug("motion: calibration started")

	return nil
}

// StopDetection detaches the listener, cancels all pending timers and
// resets the counters. Safe to call in any state.
func (d *Detector) StopDetection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// ResetDetection stops detection and also drops all buffered samples.
func (d *Detector) ResetDetection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.buffer.Clear()
}

// Close stops detection for good. Later StartCalibration calls fail.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.closed = true
	return nil
}

// AdjustSensitivity moves the threshold by delta, clamped to
// [MinThreshold, MaxThreshold], and returns the new threshold.
func (d *Detector) AdjustSensitivity(delta float64) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.threshold = clampThreshold(d.threshold + delta)
	return d.threshold
}

// CompleteManually ends the detection session right away, reporting at
// least the target rep count. Only valid while detecting.
func (d *Detector) CompleteManually() error {
	d.mu.Lock()
	if d.state != StateDetecting {
		state := d.state
		d.mu.Unlock()
		return workout.NewError(
			workout.CodeInvalidWorkoutState,
			"Manual completion requires an active detection",
			map[string]any{"state": state.String()},
		)
	}

	reps := max(d.detectedReps, d.cfg.TargetReps)
	onDetection := d.cfg.OnDetection
	d.stopLocked()
	d.mu.Unlock()

	log.Debugf("motion: manual completion with %d reps", reps)
	if onDetection != nil {
		onDetection(reps)
	}
	return nil
}

func (d *Detector) State() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		State:              d.state,
		IsDetecting:        d.state == StateDetecting,
		IsCalibrating:      d.state == StateCalibrating,
		DetectedReps:       d.detectedReps,
		DetectionThreshold: d.threshold,
		TargetReps:         d.cfg.TargetReps,
	}
}

func (d *Detector) calibrationListener(gen uint64) func(Sample) {
	return func(s Sample) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.generation != gen || d.state != StateCalibrating {
			return
		}
		d.buffer.Push(s)
	}
}

func (d *Detector) detectionListener(gen uint64) func(Sample) {
	return func(s Sample) {
		d.handleSample(gen, s)
	}
}

func (d *Detector) finishCalibration(gen uint64) {
	d.mu.Lock()
	if d.generation != gen || d.state != StateCalibrating {
		d.mu.Unlock()
		return
	}
	d.stopCountdown = nil

	baseline, ok := Mean(d.buffer.Last(d.cfg.CalibrationSamples))
	if !ok {
		d.detachLocked()
		d.state = StateIdle
		onError := d.cfg.OnError
		d.mu.Unlock()

		log.Warn("motion: calibration failed, no samples received")
		if d.metrics != nil {
			d.metrics.CounterCalibrationFailures.Inc()
		}
		if onError != nil {
			onError(workout.NewError(
				workout.CodeMotionDetectionFailed,
				"Insufficient data for calibration",
				map[string]any{"bufferedSamples": 0},
			))
		}
		return
	}

	d.baseline = baseline
	d.detachLocked()
	d.state = StateDetecting
	d.attachLocked(d.detectionListener(gen))
	d.mu.Unlock()

	log.WithFields(log.Fields{
		"baseline_x": baseline.X,
		"baseline_y": baseline.Y,
		"baseline_z": baseline.Z,
	}).Debug("motion: calibrated, detecting")
}

func (d *Detector) handleSample(gen uint64, s Sample) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.generation != gen || d.state != StateDetecting {
		return
	}
	d.buffer.Push(s)

	if s.Sub(d.baseline).Magnitude() <= d.threshold {
		return
	}
	now := d.clock.Now()
	if d.hasLastRep && now.Sub(d.lastRepAt) < d.cfg.MinRepInterval {
		return
	}

	d.lastRepAt = now
	d.hasLastRep = true
	d.detectedReps++
	if d.metrics != nil {
		d.metrics.CounterRepsDetected.Inc()
	}

	if d.detectedReps >= d.cfg.TargetReps && !d.targetReached {
		d.targetReached = true
		d.stopEmission = d.clock.AfterFunc(d.cfg.DetectionDelay, func() {
			d.emitDetection(gen)
		})
	}
}

// emitDetection reports the rep count at fire time, not at schedule time,
// and ends the session. DetectedReps keeps the reported count until the next
// calibration.
func (d *Detector) emitDetection(gen uint64) {
	d.mu.Lock()
	if d.generation != gen || d.state != StateDetecting {
		d.mu.Unlock()
		return
	}
	d.stopEmission = nil
	reps := d.detectedReps
	onDetection := d.cfg.OnDetection
	d.haltLocked()
	d.mu.Unlock()

	log.Debugf("motion: target reached, %d reps", reps)
	if onDetection != nil {
		onDetection(reps)
	}
}

func (d *Detector) attachLocked(listener func(Sample)) {
	d.detachLocked()
	d.unsubscribe = d.source.Subscribe(listener)
}

func (d *Detector) detachLocked() {
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
}

func (d *Detector) stopLocked() {
	d.haltLocked()
	d.resetCountersLocked()
}

// haltLocked goes idle without touching the counters.
func (d *Detector) haltLocked() {
	if d.state != StateIdle {
		log.Debugf("motion: stopping from %s", d.state)
	}

	d.generation++
	d.detachLocked()
	if d.stopCountdown != nil {
		d.stopCountdown()
		d.stopCountdown = nil
	}
	if d.stopEmission != nil {
		d.stopEmission()
		d.stopEmission = nil
	}
	d.state = StateIdle
}

func (d *Detector) resetCountersLocked() {
	d.detectedReps = 0
	d.lastRepAt = time.Time{}
	d.hasLastRep = false
	d.targetReached = false
}

func clampThreshold(t float64) float64 {
	return min(MaxThreshold, max(MinThreshold, t))
}
