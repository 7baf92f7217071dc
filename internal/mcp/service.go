package mcp

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/2beens/gymcoach/internal/analytics"
	"github.com/2beens/gymcoach/internal/workout"
)

// SessionReader is the read side of the workout session (for dependency injection and testing).
type SessionReader interface {
	CurrentWorkout() (workout.Workout, bool)
	History() []workout.Workout
	Templates() []workout.WorkoutTemplate
	Analytics(now time.Time) analytics.Snapshot
}

// HistoryParams filters the workout history. Nil bounds are open.
type HistoryParams struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// ExerciseHistoryEntry sums up one exercise within one finished workout.
type ExerciseHistoryEntry struct {
	WorkoutID   string    `json:"workoutId"`
	Date        time.Time `json:"date"`
	Sets        int       `json:"sets"`
	TotalReps   int       `json:"totalReps"`
	AvgReps     float64   `json:"avgReps"`
	MaxWeight   float64   `json:"maxWeight"`
	Volume      float64   `json:"volume"`
	IsCompleted bool      `json:"isCompleted"`
}

// contextService provides workout context data (current workout, history, templates, analytics).
// Used by Handler for testability.
type contextService interface {
	GetCurrentWorkout(ctx context.Context) (*workout.Workout, error)
	ListWorkouts(ctx context.Context, params HistoryParams) ([]workout.Workout, error)
	GetTemplates(ctx context.Context) ([]workout.WorkoutTemplate, error)
	GetAnalytics(ctx context.Context) (analytics.Snapshot, error)
	GetExerciseHistory(ctx context.Context, exerciseName string, params HistoryParams) ([]ExerciseHistoryEntry, error)
}

// ContextService answers context queries from the live session state.
type ContextService struct {
	session SessionReader
	now     func() time.Time
}

func NewContextService(session SessionReader) *ContextService {
	return &ContextService{
		session: session,
		now:     time.Now,
	}
}

// GetCurrentWorkout returns the active workout, or nil when none is active.
func (s *ContextService) GetCurrentWorkout(ctx context.Context) (*workout.Workout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	current, ok := s.session.CurrentWorkout()
	if !ok {
		return nil, nil
	}
	return &current, nil
}

// ListWorkouts returns finished workouts, newest first, within the given dates.
func (s *ContextService) ListWorkouts(ctx context.Context, params HistoryParams) ([]workout.Workout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list := make([]workout.Workout, 0)
	for _, w := range s.session.History() {
		if !inRange(w.Date, params) {
			continue
		}
		list = append(list, w)
		if params.Limit > 0 && len(list) == params.Limit {
			break
		}
	}
	return list, nil
}

func (s *ContextService) GetTemplates(ctx context.Context) ([]workout.WorkoutTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.session.Templates(), nil
}

func (s *ContextService) GetAnalytics(ctx context.Context) (analytics.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return analytics.Snapshot{}, err
	}
	return s.session.Analytics(s.now()), nil
}

// GetExerciseHistory returns per-workout stats for the exercise with the given
// name (case-insensitive), oldest first.
func (s *ContextService) GetExerciseHistory(ctx context.Context, exerciseName string, params HistoryParams) ([]ExerciseHistoryEntry, error) {
	workouts, err := s.ListWorkouts(ctx, HistoryParams{From: params.From, To: params.To})
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(exerciseName)
	entries := make([]ExerciseHistoryEntry, 0)
	for _, w := range workouts {
		for _, ex := range w.Exercises {
			if !strings.EqualFold(strings.TrimSpace(ex.Name), name) {
				continue
			}
			entries = append(entries, exerciseEntry(w, ex))
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	if params.Limit > 0 && len(entries) > params.Limit {
		entries = entries[len(entries)-params.Limit:]
	}
	return entries, nil
}

func exerciseEntry(w workout.Workout, ex workout.Exercise) ExerciseHistoryEntry {
	entry := ExerciseHistoryEntry{
		WorkoutID:   w.ID,
		Date:        w.Date,
		Sets:        len(ex.CompletedSets),
		Volume:      ex.Volume(),
		IsCompleted: ex.IsCompleted,
	}
	for _, set := range ex.CompletedSets {
		entry.TotalReps += set.Reps
		if set.Weight != nil && *set.Weight > entry.MaxWeight {
			entry.MaxWeight = *set.Weight
		}
	}
	if entry.Sets > 0 {
		entry.AvgReps = float64(entry.TotalReps) / float64(entry.Sets)
	}
	return entry
}

func inRange(t time.Time, params HistoryParams) bool {
	if params.From != nil && t.Before(*params.From) {
		return false
	}
	if params.To != nil && t.After(*params.To) {
		return false
	}
	return true
}
