package workout

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	workoutIDPrefix  = "workout"
	exerciseIDPrefix = "exercise"
	setIDPrefix      = "set"
	templateIDPrefix = "template"
	userIDPrefix     = "user"
	partnerIDPrefix  = "partner"
	sessionIDPrefix  = "session"
)

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func NewWorkoutID() string  { return newID(workoutIDPrefix) }
func NewExerciseID() string { return newID(exerciseIDPrefix) }
func NewSetID() string      { return newID(setIDPrefix) }
func NewTemplateID() string { return newID(templateIDPrefix) }
func NewUserID() string     { return newID(userIDPrefix) }
func NewPartnerID() string  { return newID(partnerIDPrefix) }
func NewSessionID() string  { return newID(sessionIDPrefix) }

type NewWorkoutParams struct {
	Name      string
	PartnerID string
	Notes     string
}

func NewWorkout(params NewWorkoutParams, now time.Time) Workout {
	return Workout{
		ID:        NewWorkoutID(),
		Name:      strings.TrimSpace(params.Name),
		Date:      now,
		Exercises: []Exercise{},
		PartnerID: params.PartnerID,
		Notes:     strings.TrimSpace(params.Notes),
	}
}

type NewExerciseParams struct {
	Name        string
	Description string
	Sets        int
	Reps        int
	Weight      *float64
	Duration    *int
	RestTime    *int
	Notes       string
}

func NewExercise(params NewExerciseParams) Exercise {
	return Exercise{
		ID:            NewExerciseID(),
		Name:          strings.TrimSpace(params.Name),
		Description:   strings.TrimSpace(params.Description),
		Sets:          params.Sets,
		Reps:          params.Reps,
		Weight:        cloneFloat(params.Weight),
		Duration:      cloneInt(params.Duration),
		RestTime:      cloneInt(params.RestTime),
		Notes:         strings.TrimSpace(params.Notes),
		CompletedSets: []ExerciseSet{},
	}
}

type NewSetParams struct {
	Reps     int      `json:"reps"`
	Weight   *float64 `json:"weight,omitempty"`
	Duration *int     `json:"duration,omitempty"`
}

// NewCompletedSet creates a set already marked as completed at now.
func NewCompletedSet(params NewSetParams, now time.Time) ExerciseSet {
	return ExerciseSet{
		ID:        NewSetID(),
		Reps:      params.Reps,
		Weight:    cloneFloat(params.Weight),
		Duration:  cloneInt(params.Duration),
		Completed: true,
		Timestamp: now,
	}
}

type NewTemplateParams struct {
	Name        string
	Description string
	CreatedBy   string
	Exercises   []TemplateExercise
}

func NewTemplate(params NewTemplateParams, now time.Time) WorkoutTemplate {
	exercises := make([]TemplateExercise, 0, len(params.Exercises))
	for _, te := range params.Exercises {
		if te.ID == "" {
			te.ID = NewExerciseID()
		}
		te.Name = strings.TrimSpace(te.Name)
		exercises = append(exercises, te)
	}
	return WorkoutTemplate{
		ID:          NewTemplateID(),
		Name:        strings.TrimSpace(params.Name),
		Description: strings.TrimSpace(params.Description),
		Exercises:   exercises,
		CreatedBy:   params.CreatedBy,
		CreatedAt:   now,
	}
}
