// Package session owns the single active workout session: a pure reducer
// over State plus the Manager that validates commands, notifies observers
// and keeps history and templates persisted.
package session

import (
	"time"

	"github.com/2beens/gymcoach/internal/workout"
)

type State struct {
	CurrentWorkout   *workout.Workout          `json:"currentWorkout"`
	WorkoutHistory   []workout.Workout         `json:"workoutHistory"` // most recent first
	WorkoutTemplates []workout.WorkoutTemplate `json:"workoutTemplates"`
	IsWorkoutActive  bool                      `json:"isWorkoutActive"`
}

func InitialState() State {
	return State{
		WorkoutHistory:   []workout.Workout{},
		WorkoutTemplates: []workout.WorkoutTemplate{},
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := State{
		IsWorkoutActive:  s.IsWorkoutActive,
		WorkoutHistory:   make([]workout.Workout, len(s.WorkoutHistory)),
		WorkoutTemplates: make([]workout.WorkoutTemplate, len(s.WorkoutTemplates)),
	}
	if s.CurrentWorkout != nil {
		current := s.CurrentWorkout.Clone()
		c.CurrentWorkout = &current
	}
	for i, w := range s.WorkoutHistory {
		c.WorkoutHistory[i] = w.Clone()
	}
	for i, t := range s.WorkoutTemplates {
		t.Exercises = append([]workout.TemplateExercise(nil), t.Exercises...)
		c.WorkoutTemplates[i] = t
	}
	return c
}

// Action is a state transition request. The set of actions is closed.
type Action interface {
	actionType() string
}

type StartWorkout struct {
	Workout workout.Workout
}

type EndWorkout struct {
	At time.Time
}

type UpdateExercise struct {
	ExerciseID string
	Update     workout.ExerciseUpdate
}

type CompleteSet struct {
	ExerciseID string
	Set        workout.ExerciseSet
}

type AddWorkoutToHistory struct {
	Workout workout.Workout
}

type LoadWorkoutData struct {
	History   []workout.Workout
	Templates []workout.WorkoutTemplate
}

type AddTemplate struct {
	Template workout.WorkoutTemplate
}

type UpdateWorkoutNotes struct {
	Notes string
}

type ClearCurrentWorkout struct{}

func (StartWorkout) actionType() string        { return "START_WORKOUT" }
func (EndWorkout) actionType() string          { return "END_WORKOUT" }
func (UpdateExercise) actionType() string      { return "UPDATE_EXERCISE" }
func (CompleteSet) actionType() string         { return "COMPLETE_SET" }
func (AddWorkoutToHistory) actionType() string { return "ADD_WORKOUT_TO_HISTORY" }
func (LoadWorkoutData) actionType() string     { return "LOAD_WORKOUT_DATA" }
func (AddTemplate) actionType() string         { return "ADD_TEMPLATE" }
func (UpdateWorkoutNotes) actionType() string  { return "UPDATE_WORKOUT_NOTES" }
func (ClearCurrentWorkout) actionType() string { return "CLEAR_CURRENT_WORKOUT" }

// ActionType is the name of the action, e.g. "COMPLETE_SET".
func ActionType(a Action) string {
	if a == nil {
		return ""
	}
	return a.actionType()
}

// changesPersistedData tells whether the action touches history or templates.
func changesPersistedData(a Action) bool {
	switch a.(type) {
	case EndWorkout, AddWorkoutToHistory, AddTemplate:
		return true
	}
	return false
}

// Reduce computes the next state. It never mutates s and never rejects an
// action: anything that does not apply (no active workout, unknown exercise)
// returns s unchanged.
func Reduce(s State, action Action) State {
	switch a := action.(type) {
	case StartWorkout:
		current := a.Workout.Clone()
		s.CurrentWorkout = &current
		s.IsWorkoutActive = true
		return s

	case EndWorkout:
		if s.CurrentWorkout == nil {
			return s
		}
		finished := s.CurrentWorkout.Clone()
		finished.IsCompleted = true
		at := a.At
		finished.EndTime = &at
		s.WorkoutHistory = prepend(s.WorkoutHistory, finished)
		s.CurrentWorkout = nil
		s.IsWorkoutActive = false
		return s

	case UpdateExercise:
		return updateCurrentExercise(s, a.ExerciseID, func(ex workout.Exercise) workout.Exercise {
			return a.Update.Apply(ex)
		})

	case CompleteSet:
		return updateCurrentExercise(s, a.ExerciseID, func(ex workout.Exercise) workout.Exercise {
			ex.CompletedSets = append(ex.CompletedSets, a.Set)
			ex.IsCompleted = ex.IsCompleted || len(ex.CompletedSets) >= ex.Sets
			return ex
		})

	case AddWorkoutToHistory:
		s.WorkoutHistory = prepend(s.WorkoutHistory, a.Workout.Clone())
		return s

	case LoadWorkoutData:
		s.WorkoutHistory = append([]workout.Workout{}, a.History...)
		s.WorkoutTemplates = append([]workout.WorkoutTemplate{}, a.Templates...)
		return s

	case AddTemplate:
		s.WorkoutTemplates = prepend(s.WorkoutTemplates, a.Template)
		return s

	case UpdateWorkoutNotes:
		if s.CurrentWorkout == nil {
			return s
		}
		current := s.CurrentWorkout.Clone()
		current.Notes = a.Notes
		s.CurrentWorkout = &current
		return s

	case ClearCurrentWorkout:
		s.CurrentWorkout = nil
		s.IsWorkoutActive = false
		return s
	}

	return s
}

func updateCurrentExercise(s State, exerciseID string, update func(workout.Exercise) workout.Exercise) State {
	if s.CurrentWorkout == nil {
		return s
	}
	i := s.CurrentWorkout.FindExercise(exerciseID)
	if i < 0 {
		return s
	}

	current := s.CurrentWorkout.Clone()
	current.Exercises[i] = update(current.Exercises[i])
	s.CurrentWorkout = &current
	return s
}

func prepend[T any](list []T, item T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, item)
	return append(out, list...)
}
