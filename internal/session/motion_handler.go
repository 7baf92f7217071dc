package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/2beens/gymcoach/internal/motion"
	"github.com/2beens/gymcoach/internal/telemetry/tracing"
	"github.com/2beens/gymcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type StartMotionRequest struct {
	// TargetReps falls back to the exercise's planned reps when zero.
	TargetReps int      `json:"targetReps"`
	Weight     *float64 `json:"weight,omitempty"`
}

type SensitivityRequest struct {
	Delta float64 `json:"delta"`
}

type MotionStateResponse struct {
	ExerciseID string `json:"exerciseId,omitempty"`
	State      string `json:"state"`
	motion.Snapshot
}

// MotionHandler lets a device stream accelerometer samples to the server.
// One detector runs at a time, bound to one exercise of the active workout;
// every rep count it reports becomes a completed set of that exercise.
type MotionHandler struct {
	manager  *Manager
	source   *motion.FeedSource
	defaults motion.Config
	opts     []motion.Option
	now      func() time.Time

	mu         sync.Mutex
	detector   *motion.Detector
	exerciseID string
}

// NewMotionHandler creates a handler whose detectors start from defaults
// (thresholds, intervals) and get opts applied.
func NewMotionHandler(manager *Manager, defaults motion.Config, opts ...motion.Option) *MotionHandler {
	return &MotionHandler{
		manager:  manager,
		source:   motion.NewFeedSource(),
		defaults: defaults,
		opts:     opts,
		now:      time.Now,
	}
}

func (handler *MotionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.motion.start")
	defer span.End()

	exerciseID := mux.Vars(r)["id"]
	if exerciseID == "" {
		http.Error(w, "error, exercise id empty", http.StatusBadRequest)
		return
	}

	var req StartMotionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	current, ok := handler.manager.CurrentWorkout()
	if !ok {
		http.Error(w, ErrNoActiveWorkout.Message, http.StatusConflict)
		return
	}
	i := current.FindExercise(exerciseID)
	if i < 0 {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}
	ex := current.Exercises[i]

	cfg := handler.defaults
	cfg.TargetReps = req.TargetReps
	if cfg.TargetReps == 0 {
		cfg.TargetReps = ex.Reps
	}
	weight := req.Weight
	if weight == nil {
		weight = ex.Weight
	}
	cfg.OnDetection = handler.manager.CompleteDetectedSet(exerciseID, weight)
	cfg.OnError = func(err error) {
		handler.manager.report(err, map[string]any{
			"operation":  "motionDetection",
			"exerciseId": exerciseID,
		})
	}

	detector, err := motion.NewDetector(handler.source, cfg, handler.opts...)
	if err != nil {
		writeError(w, err)
		return
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()

	if handler.detector != nil {
		if err := handler.detector.Close(); err != nil {
			log.Warnf("motion: close previous detector: %s", err)
		}
	}
	if err := detector.StartCalibration(); err != nil {
		handler.detector = nil
		handler.exerciseID = ""
		writeError(w, err)
		return
	}
	handler.detector = detector
	handler.exerciseID = exerciseID

	span.SetAttributes(
		attribute.String("exercise.id", exerciseID),
		attribute.Int("motion.target_reps", cfg.TargetReps),
	)
	log.Debugf("motion detection started for exercise [%s], target %d reps", exerciseID, cfg.TargetReps)
	pkg.WriteJSON(w, handler.stateLocked(), http.StatusAccepted)
}

// HandleSamples pushes a batch of samples, in order, to the running detector.
// Samples without a timestamp are stamped with the arrival time.
func (handler *MotionHandler) HandleSamples(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.motion.samples")
	defer span.End()

	var samples []motion.Sample
	if !decodeJSONBody(w, r, &samples) {
		return
	}

	handler.mu.Lock()
	running := handler.detector != nil
	handler.mu.Unlock()
	if !running {
		http.Error(w, "motion detection not started", http.StatusConflict)
		return
	}

	now := handler.now()
	for _, s := range samples {
		if s.Timestamp.IsZero() {
			s.Timestamp = now
		}
		handler.source.Push(s)
	}

	span.SetAttributes(attribute.Int("motion.samples", len(samples)))
	handler.mu.Lock()
	defer handler.mu.Unlock()
	pkg.WriteJSON(w, handler.stateLocked(), http.StatusOK)
}

func (handler *MotionHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.motion.state")
	defer span.End()

	handler.mu.Lock()
	defer handler.mu.Unlock()
	pkg.WriteJSON(w, handler.stateLocked(), http.StatusOK)
}

func (handler *MotionHandler) HandleSensitivity(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.motion.sensitivity")
	defer span.End()

	var req SensitivityRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if handler.detector == nil {
		http.Error(w, "motion detection not started", http.StatusConflict)
		return
	}
	handler.detector.AdjustSensitivity(req.Delta)
	pkg.WriteJSON(w, handler.stateLocked(), http.StatusOK)
}

func (handler *MotionHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.motion.complete")
	defer span.End()

	handler.mu.Lock()
	detector := handler.detector
	handler.mu.Unlock()
	if detector == nil {
		http.Error(w, "motion detection not started", http.StatusConflict)
		return
	}

	// the detection callback takes the session lock, keep ours released
	if err := detector.CompleteManually(); err != nil {
		writeError(w, err)
		return
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	pkg.WriteJSON(w, handler.stateLocked(), http.StatusOK)
}

func (handler *MotionHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.motion.stop")
	defer span.End()

	handler.Close()
	pkg.WriteJSON(w, MotionStateResponse{State: motion.StateIdle.String()}, http.StatusOK)
}

// Close stops the running detector, if any.
func (handler *MotionHandler) Close() {
	handler.mu.Lock()
	defer handler.mu.Unlock()
	if handler.detector == nil {
		return
	}
	if err := handler.detector.Close(); err != nil {
		log.Warnf("motion: close detector: %s", err)
	}
	handler.detector = nil
	handler.exerciseID = ""
}

func (handler *MotionHandler) stateLocked() MotionStateResponse {
	if handler.detector == nil {
		return MotionStateResponse{State: motion.StateIdle.String()}
	}
	snapshot := handler.detector.State()
	return MotionStateResponse{
		ExerciseID: handler.exerciseID,
		State:      snapshot.State.String(),
		Snapshot:   snapshot,
	}
}
