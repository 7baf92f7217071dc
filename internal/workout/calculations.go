package workout

import (
	"math"
	"time"
)

// Progress returns the share of completed exercises as a rounded percentage.
func Progress(w Workout) int {
	if len(w.Exercises) == 0 {
		return 0
	}

	completed := 0
	for _, ex := range w.Exercises {
		if ex.IsCompleted {
			completed++
		}
	}

	return int(math.Round(float64(completed) / float64(len(w.Exercises)) * 100))
}

// TotalVolume sums reps x weight over all completed sets of the exercises.
func TotalVolume(exercises []Exercise) float64 {
	var volume float64
	for _, ex := range exercises {
		volume += ex.Volume()
	}
	return volume
}

// Duration is EndTime - StartTime, or 0 when either is missing.
func Duration(w Workout) time.Duration {
	if !HasTimingData(w) {
		return 0
	}
	return w.EndTime.Sub(*w.StartTime)
}

func HasTimingData(w Workout) bool {
	return w.StartTime != nil && w.EndTime != nil
}
