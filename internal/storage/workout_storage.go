package storage

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/gymcoach/internal/telemetry/metrics"
	"github.com/2beens/gymcoach/internal/telemetry/tracing"
	"github.com/2beens/gymcoach/internal/workout"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultKey = "workout_data"

// Data is everything persisted about a user's training: finished workouts
// (most recent first) and saved templates.
type Data struct {
	WorkoutHistory   []workout.Workout
	WorkoutTemplates []workout.WorkoutTemplate
	// LastSaved is zero when nothing was saved yet.
	LastSaved time.Time
}

// WorkoutStorage saves and loads the workout data bundle under a single key.
// It does no locking of its own; concurrent saves race and the last one wins.
type WorkoutStorage struct {
	kv             KV
	key            string
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewWorkoutStorage(kv KV, key string, metricsManager *metrics.Manager) *WorkoutStorage {
	if key == "" {
		key = DefaultKey
	}
	return &WorkoutStorage{
		kv:             kv,
		key:            key,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

func (s *WorkoutStorage) Key() string {
	return s.key
}

func (s *WorkoutStorage) Save(ctx context.Context, history []workout.Workout, templates []workout.WorkoutTemplate) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.save")
	defer func(start time.Time) {
		s.observe(OpWrite, start, err)
		tracing.EndSpanWithErrCheck(span, err)
	}(time.Now())

	span.SetAttributes(
		attribute.Int("history.count", len(history)),
		attribute.Int("templates.count", len(templates)),
	)

	raw, err := encodeBundle(Data{
		WorkoutHistory:   history,
		WorkoutTemplates: templates,
		LastSaved:        s.now(),
	})
	if err != nil {
		return s.wrap(OpWrite, err)
	}

	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		return s.wrap(OpWrite, err)
	}

	log.Tracef("storage: saved %d workouts, %d templates (%d bytes)", len(history), len(templates), len(raw))
	return nil
}

// Load returns the saved data. A missing key yields empty data, not an error.
func (s *WorkoutStorage) Load(ctx context.Context) (data Data, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.load")
	defer func(start time.Time) {
		s.observe(OpRead, start, err)
		tracing.EndSpanWithErrCheck(span, err)
	}(time.Now())

	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrKeyNotFound) {
		log.Tracef("storage: key %s not found, starting empty", s.key)
		return Data{
			WorkoutHistory:   []workout.Workout{},
			WorkoutTemplates: []workout.WorkoutTemplate{},
		}, nil
	}
	if err != nil {
		return Data{}, s.wrap(OpRead, err)
	}

	data, err = decodeBundle(raw)
	if err != nil {
		return Data{}, s.wrap(OpDeserialize, err)
	}

	span.SetAttributes(
		attribute.Int("history.count", len(data.WorkoutHistory)),
		attribute.Int("templates.count", len(data.WorkoutTemplates)),
	)
	return data, nil
}

func (s *WorkoutStorage) Clear(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.clear")
	defer func(start time.Time) {
		s.observe(OpClear, start, err)
		tracing.EndSpanWithErrCheck(span, err)
	}(time.Now())

	if err := s.kv.Del(ctx, s.key); err != nil {
		return s.wrap(OpClear, err)
	}
	return nil
}

func (s *WorkoutStorage) wrap(op Op, err error) error {
	return &StorageError{
		Op:  op,
		Key: s.key,
		Err: err,
	}
}

func (s *WorkoutStorage) observe(op Op, start time.Time, err error) {
	if s.metricsManager == nil {
		return
	}
	s.metricsManager.HistStorageOpDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
	if err != nil {
		var storageErr *StorageError
		label := string(op)
		if errors.As(err, &storageErr) {
			label = string(storageErr.Op)
		}
		s.metricsManager.CounterStorageErrors.WithLabelValues(label).Inc()
	}
}
