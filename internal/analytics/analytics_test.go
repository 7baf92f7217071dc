package analytics_test

import (
	"testing"
	"time"

	"github.com/2beens/gymcoach/internal/analytics"
	"github.com/2beens/gymcoach/internal/workout"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func completed(date time.Time, names ...string) workout.Workout {
	w := workout.Workout{ID: workout.NewWorkoutID(), Date: date, IsCompleted: true}
	for _, n := range names {
		w.Exercises = append(w.Exercises, workout.Exercise{ID: workout.NewExerciseID(), Name: n})
	}
	return w
}

func TestCalculate_Volume(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	w := completed(now.Add(-time.Hour), "Bench")
	w.Exercises[0].CompletedSets = []workout.ExerciseSet{
		{Reps: 10, Weight: ptr(100.0)},
		{Reps: 5, Weight: ptr(0.0)},
	}

	s := analytics.Calculate([]workout.Workout{w}, now)
	assert.Equal(t, 1000.0, s.TotalVolume)
	assert.Equal(t, 1, s.TotalWorkouts)
	assert.Equal(t, 1, s.TotalExercises)
	assert.Equal(t, 1000.0, s.WeeklyProgress[analytics.WeeksToAnalyze-1].Volume)
}

func TestCalculate_OnlyCompleted(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	inProgress := completed(now, "Squat", "Lunge")
	inProgress.IsCompleted = false

	s := analytics.Calculate([]workout.Workout{inProgress, completed(now, "Row")}, now)
	assert.Equal(t, 1, s.TotalWorkouts)
	assert.Equal(t, 1, s.TotalExercises)
	require.Len(t, s.MostCommonExercises, 1)
	assert.Equal(t, "Row", s.MostCommonExercises[0].Name)
}

func TestMostCommonExercises(t *testing.T) {
	now := time.Now()
	history := []workout.Workout{
		completed(now, "A", "A", "B"),
		completed(now, "A"),
	}

	got := analytics.Calculate(history, now).MostCommonExercises
	assert.Equal(t, []analytics.ExerciseCount{{Name: "A", Count: 3}, {Name: "B", Count: 1}}, got)
}

func TestMostCommonExercises_StableTiesAndLimit(t *testing.T) {
	now := time.Now()
	history := []workout.Workout{
		completed(now, "F", "E", "D", "C", "B", "A", "G"),
		completed(now, "G"),
	}

	got := analytics.MostCommonExercises(history, analytics.TopExercisesCount)
	require.Len(t, got, 5)
	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"G", "F", "E", "D", "C"}, names)
}

func TestAverageDuration(t *testing.T) {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	a := completed(start)
	a.StartTime, a.EndTime = ptr(start), ptr(start.Add(30*time.Minute))
	b := completed(start)
	b.StartTime, b.EndTime = ptr(start), ptr(start.Add(60*time.Minute))
	noTiming := completed(start)
	noTiming.StartTime = ptr(start)

	assert.Equal(t, 45*time.Minute, analytics.AverageDuration([]workout.Workout{a, b, noTiming}))
	assert.Equal(t, time.Duration(0), analytics.AverageDuration([]workout.Workout{noTiming}))
	assert.Equal(t, time.Duration(0), analytics.Calculate(nil, start).AverageWorkoutDuration)
}

func TestWeeklyProgress_EmptyHistory(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	weeks := analytics.Calculate(nil, now).WeeklyProgress

	require.Len(t, weeks, 8)
	for _, w := range weeks {
		assert.Equal(t, 0, w.Workouts)
		assert.Equal(t, 0.0, w.Volume)
	}
	assert.Equal(t, "1/25", weeks[0].Week)
	assert.Equal(t, "3/7", weeks[6].Week)
	assert.Equal(t, "3/14", weeks[7].Week)
}

func TestWeeklyProgress_Boundaries(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, 3, 14, 15, 0, 0, 0, loc)

	history := []workout.Workout{
		completed(time.Date(2024, 3, 14, 0, 0, 0, 0, loc)),                            // newest week, first instant
		completed(time.Date(2024, 3, 13, 23, 59, 59, 0, loc)),                         // previous week, last day
		completed(time.Date(2024, 3, 7, 0, 0, 0, 0, loc)),                             // previous week, first day
		completed(time.Date(2024, 3, 20, 23, 59, 59, int(999*time.Millisecond), loc)), // newest week, last instant
		completed(time.Date(2024, 3, 21, 0, 0, 0, 0, loc)),                            // after the newest week
		completed(time.Date(2023, 12, 1, 0, 0, 0, 0, loc)),                            // too old
		completed(time.Date(2024, 3, 13, 23, 59, 59, 999_500_000, loc)),               // previous week, sub-millisecond before midnight
		completed(time.Date(2024, 3, 20, 23, 59, 59, 999_999_999, loc)),               // newest week, last nanosecond
	}

	weeks := analytics.WeeklyProgress(history, now, analytics.WeeksToAnalyze)
	require.Len(t, weeks, 8)
	assert.Equal(t, 3, weeks[7].Workouts)
	assert.Equal(t, 3, weeks[6].Workouts)

	total := 0
	for _, w := range weeks {
		total += w.Workouts
	}
	assert.Equal(t, 6, total)
	assert.True(t, weeks[7].WeekStart.Equal(time.Date(2024, 3, 14, 0, 0, 0, 0, loc)))
}

func TestCalculate_GeneratedHistory(t *testing.T) {
	faker := gofakeit.New(42)
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

	var history []workout.Workout
	wantVolume := 0.0
	wantExercises := 0
	for i := 0; i < 20; i++ {
		w := completed(now.Add(-time.Duration(i)*24*time.Hour), faker.RandomString([]string{"Squat", "Bench", "Row", "Deadlift"}))
		reps := faker.IntRange(1, 12)
		weight := float64(faker.IntRange(20, 200))
		w.Exercises[0].CompletedSets = []workout.ExerciseSet{{Reps: reps, Weight: ptr(weight)}}
		wantVolume += float64(reps) * weight
		wantExercises++
		history = append(history, w)
	}

	s := analytics.Calculate(history, now)
	assert.Equal(t, 20, s.TotalWorkouts)
	assert.Equal(t, wantExercises, s.TotalExercises)
	assert.InDelta(t, wantVolume, s.TotalVolume, 1e-6)
	assert.LessOrEqual(t, len(s.MostCommonExercises), 4)
	assert.Len(t, s.WeeklyProgress, 8)
}
