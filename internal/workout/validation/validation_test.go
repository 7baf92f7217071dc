package validation_test

import (
	"testing"

	"github.com/2beens/gymcoach/internal/workout"
	"github.com/2beens/gymcoach/internal/workout/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func ptr[T any](v T) *T {
	return &v
}

func TestFieldPredicates(t *testing.T) {
	assert.True(t, validation.ValidateExerciseName("Bench press"))
	assert.False(t, validation.ValidateExerciseName("   "))
	assert.False(t, validation.ValidateExerciseName(string(make([]byte, 101))))

	assert.True(t, validation.ValidateExerciseSets(1))
	assert.True(t, validation.ValidateExerciseSets(20))
	assert.False(t, validation.ValidateExerciseSets(0))
	assert.False(t, validation.ValidateExerciseSets(21))

	assert.True(t, validation.ValidateExerciseReps(999))
	assert.False(t, validation.ValidateExerciseReps(1000))

	assert.True(t, validation.ValidateExerciseWeight(0))
	assert.True(t, validation.ValidateExerciseWeight(9999))
	assert.False(t, validation.ValidateExerciseWeight(-0.5))

	assert.True(t, validation.ValidateExerciseDuration(3600))
	assert.False(t, validation.ValidateExerciseDuration(3601))

	assert.True(t, validation.ValidateRestTime(600))
	assert.False(t, validation.ValidateRestTime(-1))
}

func TestValidateCompleteExercise_Valid(t *testing.T) {
	res := validation.ValidateCompleteExercise(validation.InputFromExercise(workout.Exercise{
		Name:     "Squat",
		Sets:     5,
		Reps:     5,
		Weight:   ptr(225.0),
		RestTime: ptr(180),
	}))
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.NoError(t, res.Err())
	assert.Equal(t, "", res.FirstError())
}

func TestValidateCompleteExercise_AllErrorsInOrder(t *testing.T) {
	res := validation.ValidateCompleteExercise(validation.ExerciseInput{
		Reps:     ptr(0),
		Weight:   ptr(10000.0),
		Duration: ptr(-1),
		RestTime: ptr(601),
	})
	require.False(t, res.IsValid)
	require.Equal(t, 6, res.ErrorCount())
	assert.Equal(t, []string{
		"Exercise name is required and must be between 1 and 100 characters",
		"Sets must be between 1 and 20",
		"Reps must be between 1 and 999",
		"Weight must be between 0 and 9999 lbs",
		"Duration must be between 0 and 3600 seconds",
		"Rest time must be between 0 and 600 seconds",
	}, res.Errors)
	assert.True(t, res.HasError("Sets must be between 1 and 20"))

	err := res.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, workout.ErrInvalidExerciseData)
	var coded *workout.Error
	require.ErrorAs(t, err, &coded)
	assert.Len(t, multierr.Errors(coded.Err), 6)
	assert.Equal(t, res.String("; "), coded.Message)
}

func TestValidateCompleteExercise_OptionalFieldsSkipped(t *testing.T) {
	res := validation.ValidateCompleteExercise(validation.ExerciseInput{
		Name: ptr("Plank"),
		Sets: ptr(3),
		Reps: ptr(1),
	})
	assert.True(t, res.IsValid)
}

func TestResult_Merge(t *testing.T) {
	res := validation.NewResult()
	assert.True(t, res.IsValid)

	merged := res.Merge("a", "b")
	assert.False(t, merged.IsValid)
	assert.Equal(t, "a\nb", merged.String("\n"))
	assert.True(t, res.IsValid)
}

func TestValidateWorkoutCanStart(t *testing.T) {
	err := validation.ValidateWorkoutCanStart(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, workout.ErrWorkoutStartFailed)

	assert.NoError(t, validation.ValidateWorkoutCanStart([]workout.Exercise{{ID: "e1"}}))
}

func TestValidateSetCompletion(t *testing.T) {
	err := validation.ValidateSetCompletion(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, workout.ErrInvalidExerciseData)
	assert.Equal(t, workout.CodeInvalidExerciseData, workout.CodeOf(err))

	assert.NoError(t, validation.ValidateSetCompletion(1))
}

func TestValidateUserSetup(t *testing.T) {
	assert.NoError(t, validation.ValidateUserSetup(validation.UserSetup{
		Username:    "ana",
		UserType:    validation.UserTypeTrainee,
		PartnerIDs:  []string{"partner_1"},
		WorkoutDays: []string{"monday"},
	}))

	err := validation.ValidateUserSetup(validation.UserSetup{
		Username: " ",
		UserType: "admin",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, workout.ErrInvalidUserData)
	assert.Contains(t, err.Error(), "Username is required")
	assert.Contains(t, err.Error(), "Select at least one workout day")
}
