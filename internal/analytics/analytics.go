// Package analytics derives training statistics from the workout history.
// Everything here is a pure function of its input.
package analytics

import (
	"time"

	"github.com/2beens/gymcoach/internal/workout"
)

const (
	TopExercisesCount = 5
	WeeksToAnalyze    = 8
)

type ExerciseCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type WeekProgress struct {
	Week      string    `json:"week"` // M/D of the week start
	WeekStart time.Time `json:"weekStart"`
	Workouts  int       `json:"workouts"`
	Volume    float64   `json:"volume"`
}

type Snapshot struct {
	TotalWorkouts          int             `json:"totalWorkouts"`
	TotalExercises         int             `json:"totalExercises"`
	TotalVolume            float64         `json:"totalVolume"`
	AverageWorkoutDuration time.Duration   `json:"averageWorkoutDuration"`
	MostCommonExercises    []ExerciseCount `json:"mostCommonExercises"`
	WeeklyProgress         []WeekProgress  `json:"weeklyProgress"`
}

// Calculate builds the snapshot over the completed workouts of history.
// Week boundaries are taken in now's location.
func Calculate(history []workout.Workout, now time.Time) Snapshot {
	completed := CompletedWorkouts(history)

	return Snapshot{
		TotalWorkouts:          len(completed),
		TotalExercises:         CountExercises(completed),
		TotalVolume:            TotalVolume(completed),
		AverageWorkoutDuration: AverageDuration(completed),
		MostCommonExercises:    MostCommonExercises(completed, TopExercisesCount),
		WeeklyProgress:         WeeklyProgress(completed, now, WeeksToAnalyze),
	}
}

func CompletedWorkouts(history []workout.Workout) []workout.Workout {
	completed := make([]workout.Workout, 0, len(history))
	for _, w := range history {
		if w.IsCompleted {
			completed = append(completed, w)
		}
	}
	return completed
}
