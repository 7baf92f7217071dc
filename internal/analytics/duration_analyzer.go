package analytics

import (
	"time"

	"github.com/2beens/gymcoach/internal/workout"
)

// AverageDuration is the mean of end - start over the workouts that have both,
// or 0 when none do.
func AverageDuration(workouts []workout.Workout) time.Duration {
	var (
		total time.Duration
		count int
	)
	for _, w := range workouts {
		if !workout.HasTimingData(w) {
			continue
		}
		total += workout.Duration(w)
		count++
	}

	if count == 0 {
		return 0
	}
	return total / time.Duration(count)
}
