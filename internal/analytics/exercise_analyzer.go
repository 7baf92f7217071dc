package analytics

import (
	"sort"

	"github.com/2beens/gymcoach/internal/workout"
)

func CountExercises(workouts []workout.Workout) int {
	count := 0
	for _, w := range workouts {
		count += len(w.Exercises)
	}
	return count
}

// TotalVolume sums reps x weight over every completed set.
func TotalVolume(workouts []workout.Workout) float64 {
	var volume float64
	for _, w := range workouts {
		volume += workout.TotalVolume(w.Exercises)
	}
	return volume
}

// MostCommonExercises counts exercises by name and returns the top limit,
// most frequent first. Ties keep the order in which names were first seen.
func MostCommonExercises(workouts []workout.Workout, limit int) []ExerciseCount {
	counts := make([]ExerciseCount, 0)
	index := make(map[string]int)
	for _, w := range workouts {
		for _, ex := range w.Exercises {
			i, ok := index[ex.Name]
			if !ok {
				i = len(counts)
				index[ex.Name] = i
				counts = append(counts, ExerciseCount{Name: ex.Name})
			}
			counts[i].Count++
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if limit >= 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}
