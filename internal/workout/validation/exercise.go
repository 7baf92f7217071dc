package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/2beens/gymcoach/internal/workout"

	"go.uber.org/multierr"
)

const (
	NameMinLength = 1
	NameMaxLength = 100

	SetsMin = 1
	SetsMax = 20

	RepsMin = 1
	RepsMax = 999

	WeightMin = 0
	WeightMax = 9999

	DurationMinSeconds = 0
	DurationMaxSeconds = 3600

	RestTimeMinSeconds = 0
	RestTimeMaxSeconds = 600
)

func ValidateExerciseName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= NameMinLength && n <= NameMaxLength
}

func ValidateExerciseSets(sets int) bool {
	return sets >= SetsMin && sets <= SetsMax
}

func ValidateExerciseReps(reps int) bool {
	return reps >= RepsMin && reps <= RepsMax
}

func ValidateExerciseWeight(weight float64) bool {
	return weight >= WeightMin && weight <= WeightMax
}

func ValidateExerciseDuration(seconds int) bool {
	return seconds >= DurationMinSeconds && seconds <= DurationMaxSeconds
}

func ValidateRestTime(seconds int) bool {
	return seconds >= RestTimeMinSeconds && seconds <= RestTimeMaxSeconds
}

// ExerciseInput is a partially filled exercise, e.g. straight from a form.
// Name, Sets and Reps are required; the rest are optional.
type ExerciseInput struct {
	Name     *string
	Sets     *int
	Reps     *int
	Weight   *float64
	Duration *int
	RestTime *int
}

// InputFromExercise treats every required field of ex as filled in.
func InputFromExercise(ex workout.Exercise) ExerciseInput {
	return ExerciseInput{
		Name:     &ex.Name,
		Sets:     &ex.Sets,
		Reps:     &ex.Reps,
		Weight:   ex.Weight,
		Duration: ex.Duration,
		RestTime: ex.RestTime,
	}
}

// ValidateCompleteExercise checks every field and collects all violations,
// in the order name, sets, reps, weight, duration, rest time.
func ValidateCompleteExercise(in ExerciseInput) Result {
	var errs []string

	if in.Name == nil || !ValidateExerciseName(*in.Name) {
		errs = append(errs, fmt.Sprintf("Exercise name is required and must be between %d and %d characters", NameMinLength, NameMaxLength))
	}
	if in.Sets == nil || !ValidateExerciseSets(*in.Sets) {
		errs = append(errs, fmt.Sprintf("Sets must be between %d and %d", SetsMin, SetsMax))
	}
	if in.Reps == nil || !ValidateExerciseReps(*in.Reps) {
		errs = append(errs, fmt.Sprintf("Reps must be between %d and %d", RepsMin, RepsMax))
	}
	if in.Weight != nil && !ValidateExerciseWeight(*in.Weight) {
		errs = append(errs, fmt.Sprintf("Weight must be between %d and %d lbs", WeightMin, WeightMax))
	}
	if in.Duration != nil && !ValidateExerciseDuration(*in.Duration) {
		errs = append(errs, fmt.Sprintf("Duration must be between %d and %d seconds", DurationMinSeconds, DurationMaxSeconds))
	}
	if in.RestTime != nil && !ValidateRestTime(*in.RestTime) {
		errs = append(errs, fmt.Sprintf("Rest time must be between %d and %d seconds", RestTimeMinSeconds, RestTimeMaxSeconds))
	}

	return NewResult(errs...)
}

type Result struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

func NewResult(errs ...string) Result {
	if errs == nil {
		errs = []string{}
	}
	return Result{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

func (r Result) FirstError() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}

func (r Result) ErrorCount() int {
	return len(r.Errors)
}

func (r Result) HasError(msg string) bool {
	for _, e := range r.Errors {
		if e == msg {
			return true
		}
	}
	return false
}

func (r Result) Merge(errs ...string) Result {
	merged := append(append([]string{}, r.Errors...), errs...)
	return NewResult(merged...)
}

func (r Result) String(sep string) string {
	return strings.Join(r.Errors, sep)
}

// Err combines all violations into a single INVALID_EXERCISE_DATA error,
// or returns nil for a valid result.
func (r Result) Err() error {
	if r.IsValid {
		return nil
	}

	var combined error
	for _, e := range r.Errors {
		combined = multierr.Append(combined, errors.New(e))
	}
	return workout.WrapError(workout.CodeInvalidExerciseData, r.String("; "), combined)
}
