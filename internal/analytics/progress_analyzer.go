package analytics

import (
	"fmt"
	"time"

	"github.com/2beens/gymcoach/internal/workout"
)

// WeeklyProgress returns exactly weeks entries, oldest first. Entry offset k
// (counted back from the newest) covers the days [today - 7k, today - 7k + 6],
// from local midnight up to, not including, the next week's midnight.
func WeeklyProgress(workouts []workout.Workout, now time.Time, weeks int) []WeekProgress {
	if weeks < 0 {
		weeks = 0
	}

	progress := make([]WeekProgress, weeks)
	for offset := 0; offset < weeks; offset++ {
		start, next := weekBounds(now, offset)

		wp := WeekProgress{
			Week:      weekLabel(start),
			WeekStart: start,
		}
		for _, w := range workouts {
			if w.Date.Before(start) || !w.Date.Before(next) {
				continue
			}
			wp.Workouts++
			wp.Volume += workout.TotalVolume(w.Exercises)
		}

		progress[weeks-1-offset] = wp
	}

	return progress
}

func weekBounds(now time.Time, offset int) (time.Time, time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	start := time.Date(y, m, d-7*offset, 0, 0, 0, 0, loc)
	next := time.Date(y, m, d-7*offset+7, 0, 0, 0, 0, loc)
	return start, next
}

func weekLabel(start time.Time) string {
	return fmt.Sprintf("%d/%d", int(start.Month()), start.Day())
}
