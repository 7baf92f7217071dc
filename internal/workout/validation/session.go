package validation

import (
	"strings"

	"github.com/2beens/gymcoach/internal/workout"
)

// ValidateWorkoutCanStart fails with WORKOUT_START_FAILED for an empty exercise list.
func ValidateWorkoutCanStart(exercises []workout.Exercise) error {
	if len(exercises) == 0 {
		return workout.NewError(
			workout.CodeWorkoutStartFailed,
			"Cannot start workout without exercises",
			map[string]any{"exerciseCount": len(exercises)},
		)
	}
	return nil
}

// ValidateSetCompletion fails with INVALID_EXERCISE_DATA when reps < 1.
func ValidateSetCompletion(reps int) error {
	if reps < RepsMin {
		return workout.NewError(
			workout.CodeInvalidExerciseData,
			"Set must have at least one rep",
			map[string]any{"reps": reps},
		)
	}
	return nil
}

type UserType string

const (
	UserTypeCoach   UserType = "coach"
	UserTypeTrainee UserType = "trainee"
)

func ValidateUsername(username string) bool {
	return len(strings.TrimSpace(username)) >= 1
}

func ValidateUserType(userType UserType) bool {
	return userType == UserTypeCoach || userType == UserTypeTrainee
}

func ValidateSelections[T any](selections []T) bool {
	return len(selections) > 0
}

// UserSetup is what a user fills in during onboarding: who they are,
// which partners they train with and on which days.
type UserSetup struct {
	Username    string   `json:"username"`
	UserType    UserType `json:"userType"`
	PartnerIDs  []string `json:"partnerIds"`
	WorkoutDays []string `json:"workoutDays"`
}

// ValidateUserSetup fails with INVALID_USER_DATA listing every problem.
func ValidateUserSetup(setup UserSetup) error {
	var errs []string
	if !ValidateUsername(setup.Username) {
		errs = append(errs, "Username is required")
	}
	if !ValidateUserType(setup.UserType) {
		errs = append(errs, "User type must be coach or trainee")
	}
	if !ValidateSelections(setup.PartnerIDs) {
		errs = append(errs, "Select at least one partner")
	}
	if !ValidateSelections(setup.WorkoutDays) {
		errs = append(errs, "Select at least one workout day")
	}

	if len(errs) == 0 {
		return nil
	}
	return workout.NewError(
		workout.CodeInvalidUserData,
		strings.Join(errs, "; "),
		map[string]any{"username": setup.Username},
	)
}
