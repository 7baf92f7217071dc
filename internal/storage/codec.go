package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/gymcoach/internal/workout"
)

// BundleVersion is written into every saved bundle. Bundles without a
// version predate versioning and are read as the current one.
const BundleVersion = "1.0.0"

// The v1 wire types hold every date as an ISO-8601 string, so decoding
// walks the structure and parses them back field by field.

type bundleV1 struct {
	Version          string       `json:"version"`
	WorkoutHistory   []workoutV1  `json:"workoutHistory"`
	WorkoutTemplates []templateV1 `json:"workoutTemplates"`
	LastSaved        string       `json:"lastSaved"`
}

type workoutV1 struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Date        string       `json:"date"`
	Exercises   []exerciseV1 `json:"exercises"`
	IsCompleted bool         `json:"isCompleted"`
	StartTime   *string      `json:"startTime,omitempty"`
	EndTime     *string      `json:"endTime,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	PartnerID   string       `json:"partnerId,omitempty"`
}

type exerciseV1 struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Sets          int      `json:"sets"`
	Reps          int      `json:"reps"`
	Weight        *float64 `json:"weight,omitempty"`
	Duration      *int     `json:"duration,omitempty"`
	RestTime      *int     `json:"restTime,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	ImageURI      string   `json:"imageUri,omitempty"`
	VideoURI      string   `json:"videoUri,omitempty"`
	IsCompleted   bool     `json:"isCompleted"`
	CompletedSets []setV1  `json:"completedSets"`
}

type setV1 struct {
	ID        string   `json:"id"`
	Reps      int      `json:"reps"`
	Weight    *float64 `json:"weight,omitempty"`
	Duration  *int     `json:"duration,omitempty"`
	Completed bool     `json:"completed"`
	Timestamp string   `json:"timestamp"`
}

type templateV1 struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Exercises   []workout.TemplateExercise `json:"exercises"`
	CreatedBy   string                     `json:"createdBy"`
	CreatedAt   string                     `json:"createdAt"`
}

func encodeBundle(data Data) ([]byte, error) {
	b := bundleV1{
		Version:          BundleVersion,
		WorkoutHistory:   make([]workoutV1, 0, len(data.WorkoutHistory)),
		WorkoutTemplates: make([]templateV1, 0, len(data.WorkoutTemplates)),
		LastSaved:        formatTime(data.LastSaved),
	}
	for _, w := range data.WorkoutHistory {
		b.WorkoutHistory = append(b.WorkoutHistory, encodeWorkout(w))
	}
	for _, t := range data.WorkoutTemplates {
		b.WorkoutTemplates = append(b.WorkoutTemplates, templateV1{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Exercises:   t.Exercises,
			CreatedBy:   t.CreatedBy,
			CreatedAt:   formatTime(t.CreatedAt),
		})
	}
	return json.Marshal(b)
}

func encodeWorkout(w workout.Workout) workoutV1 {
	wv := workoutV1{
		ID:          w.ID,
		Name:        w.Name,
		Date:        formatTime(w.Date),
		Exercises:   make([]exerciseV1, 0, len(w.Exercises)),
		IsCompleted: w.IsCompleted,
		StartTime:   formatTimePtr(w.StartTime),
		EndTime:     formatTimePtr(w.EndTime),
		Notes:       w.Notes,
		PartnerID:   w.PartnerID,
	}
	for _, ex := range w.Exercises {
		ev := exerciseV1{
			ID:            ex.ID,
			Name:          ex.Name,
			Description:   ex.Description,
			Sets:          ex.Sets,
			Reps:          ex.Reps,
			Weight:        ex.Weight,
			Duration:      ex.Duration,
			RestTime:      ex.RestTime,
			Notes:         ex.Notes,
			ImageURI:      ex.ImageURI,
			VideoURI:      ex.VideoURI,
			IsCompleted:   ex.IsCompleted,
			CompletedSets: make([]setV1, 0, len(ex.CompletedSets)),
		}
		for _, s := range ex.CompletedSets {
			ev.CompletedSets = append(ev.CompletedSets, setV1{
				ID:        s.ID,
				Reps:      s.Reps,
				Weight:    s.Weight,
				Duration:  s.Duration,
				Completed: s.Completed,
				Timestamp: formatTime(s.Timestamp),
			})
		}
		wv.Exercises = append(wv.Exercises, ev)
	}
	return wv
}

func decodeBundle(raw []byte) (Data, error) {
	var b bundleV1
	if err := json.Unmarshal(raw, &b); err != nil {
		return Data{}, fmt.Errorf("unmarshal bundle: %w", err)
	}
	if b.Version != "" && b.Version != BundleVersion {
		return Data{}, fmt.Errorf("unsupported bundle version %q", b.Version)
	}

	data := Data{
		WorkoutHistory:   make([]workout.Workout, 0, len(b.WorkoutHistory)),
		WorkoutTemplates: make([]workout.WorkoutTemplate, 0, len(b.WorkoutTemplates)),
	}

	var err error
	if b.LastSaved != "" {
		if data.LastSaved, err = parseTime("lastSaved", b.LastSaved); err != nil {
			return Data{}, err
		}
	}

	for i, wv := range b.WorkoutHistory {
		w, err := decodeWorkout(wv)
		if err != nil {
			return Data{}, fmt.Errorf("workoutHistory[%d]: %w", i, err)
		}
		data.WorkoutHistory = append(data.WorkoutHistory, w)
	}

	for i, tv := range b.WorkoutTemplates {
		createdAt, err := parseTime("createdAt", tv.CreatedAt)
		if err != nil {
			return Data{}, fmt.Errorf("workoutTemplates[%d]: %w", i, err)
		}
		exercises := tv.Exercises
		if exercises == nil {
			exercises = []workout.TemplateExercise{}
		}
		data.WorkoutTemplates = append(data.WorkoutTemplates, workout.WorkoutTemplate{
			ID:          tv.ID,
			Name:        tv.Name,
			Description: tv.Description,
			Exercises:   exercises,
			CreatedBy:   tv.CreatedBy,
			CreatedAt:   createdAt,
		})
	}

	return data, nil
}

func decodeWorkout(wv workoutV1) (workout.Workout, error) {
	date, err := parseTime("date", wv.Date)
	if err != nil {
		return workout.Workout{}, err
	}
	startTime, err := parseTimePtr("startTime", wv.StartTime)
	if err != nil {
		return workout.Workout{}, err
	}
	endTime, err := parseTimePtr("endTime", wv.EndTime)
	if err != nil {
		return workout.Workout{}, err
	}

	w := workout.Workout{
		ID:          wv.ID,
		Name:        wv.Name,
		Date:        date,
		Exercises:   make([]workout.Exercise, 0, len(wv.Exercises)),
		IsCompleted: wv.IsCompleted,
		StartTime:   startTime,
		EndTime:     endTime,
		Notes:       wv.Notes,
		PartnerID:   wv.PartnerID,
	}

	for _, ev := range wv.Exercises {
		ex := workout.Exercise{
			ID:            ev.ID,
			Name:          ev.Name,
			Description:   ev.Description,
			Sets:          ev.Sets,
			Reps:          ev.Reps,
			Weight:        ev.Weight,
			Duration:      ev.Duration,
			RestTime:      ev.RestTime,
			Notes:         ev.Notes,
			ImageURI:      ev.ImageURI,
			VideoURI:      ev.VideoURI,
			IsCompleted:   ev.IsCompleted,
			CompletedSets: make([]workout.ExerciseSet, 0, len(ev.CompletedSets)),
		}
		for _, sv := range ev.CompletedSets {
			ts, err := parseTime("timestamp", sv.Timestamp)
			if err != nil {
				return workout.Workout{}, fmt.Errorf("exercise %s: %w", ev.ID, err)
			}
			ex.CompletedSets = append(ex.CompletedSets, workout.ExerciseSet{
				ID:        sv.ID,
				Reps:      sv.Reps,
				Weight:    sv.Weight,
				Duration:  sv.Duration,
				Completed: sv.Completed,
				Timestamp: ts,
			})
		}
		w.Exercises = append(w.Exercises, ex)
	}

	return w, nil
}

// formatTime keeps the UTC offset of t, so a workout logged at 23:30 local
// time still falls on its local day after a reload.
func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// parseTime accepts RFC 3339 with or without fractional seconds.
func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return t, nil
}

func parseTimePtr(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := parseTime(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
