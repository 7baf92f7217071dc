package workout

import "time"

// ExerciseSet is a single completed set. Sets are appended to an exercise
// and never edited afterwards.
type ExerciseSet struct {
	ID        string    `json:"id"`
	Reps      int       `json:"reps"`
	Weight    *float64  `json:"weight,omitempty"`
	Duration  *int      `json:"duration,omitempty"` // seconds
	Completed bool      `json:"completed"`
	Timestamp time.Time `json:"timestamp"`
}

// Volume returns reps x weight, counting a missing weight as zero.
func (s ExerciseSet) Volume() float64 {
	if s.Weight == nil {
		return 0
	}
	return float64(s.Reps) * *s.Weight
}

type Exercise struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Sets          int           `json:"sets"`
	Reps          int           `json:"reps"`
	Weight        *float64      `json:"weight,omitempty"`
	Duration      *int          `json:"duration,omitempty"` // seconds
	RestTime      *int          `json:"restTime,omitempty"` // seconds
	Notes         string        `json:"notes,omitempty"`
	ImageURI      string        `json:"imageUri,omitempty"`
	VideoURI      string        `json:"videoUri,omitempty"`
	IsCompleted   bool          `json:"isCompleted"`
	CompletedSets []ExerciseSet `json:"completedSets"`
}

// Volume is the sum of reps x weight over the completed sets.
func (e Exercise) Volume() float64 {
	var volume float64
	for _, s := range e.CompletedSets {
		volume += s.Volume()
	}
	return volume
}

func (e Exercise) clone() Exercise {
	c := e
	c.Weight = cloneFloat(e.Weight)
	c.Duration = cloneInt(e.Duration)
	c.RestTime = cloneInt(e.RestTime)
	if e.CompletedSets != nil {
		c.CompletedSets = make([]ExerciseSet, len(e.CompletedSets))
		for i, s := range e.CompletedSets {
			s.Weight = cloneFloat(s.Weight)
			s.Duration = cloneInt(s.Duration)
			c.CompletedSets[i] = s
		}
	}
	return c
}

// Workout is one training session. Once it lands in history it is
// completed, has EndTime set and is never mutated again.
type Workout struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Date        time.Time  `json:"date"`
	Exercises   []Exercise `json:"exercises"`
	IsCompleted bool       `json:"isCompleted"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	PartnerID   string     `json:"partnerId,omitempty"`
}

// Clone returns a deep copy, so the copy shares no slices or pointers
// with the receiver.
func (w Workout) Clone() Workout {
	c := w
	c.StartTime = cloneTime(w.StartTime)
	c.EndTime = cloneTime(w.EndTime)
	if w.Exercises != nil {
		c.Exercises = make([]Exercise, len(w.Exercises))
		for i, ex := range w.Exercises {
			c.Exercises[i] = ex.clone()
		}
	}
	return c
}

// FindExercise returns the index of the exercise with the given id, or -1.
func (w Workout) FindExercise(exerciseID string) int {
	for i, ex := range w.Exercises {
		if ex.ID == exerciseID {
			return i
		}
	}
	return -1
}

// TemplateExercise is an exercise blueprint, without any completion state.
type TemplateExercise struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Sets        int      `json:"sets"`
	Reps        int      `json:"reps"`
	Weight      *float64 `json:"weight,omitempty"`
	Duration    *int     `json:"duration,omitempty"`
	RestTime    *int     `json:"restTime,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	ImageURI    string   `json:"imageUri,omitempty"`
	VideoURI    string   `json:"videoUri,omitempty"`
}

// ToExercise creates a fresh, not yet started exercise from the blueprint.
func (te TemplateExercise) ToExercise() Exercise {
	return Exercise{
		ID:            NewExerciseID(),
		Name:          te.Name,
		Description:   te.Description,
		Sets:          te.Sets,
		Reps:          te.Reps,
		Weight:        cloneFloat(te.Weight),
		Duration:      cloneInt(te.Duration),
		RestTime:      cloneInt(te.RestTime),
		Notes:         te.Notes,
		ImageURI:      te.ImageURI,
		VideoURI:      te.VideoURI,
		CompletedSets: []ExerciseSet{},
	}
}

type WorkoutTemplate struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Exercises   []TemplateExercise `json:"exercises"`
	CreatedBy   string             `json:"createdBy"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// NewWorkout pre-populates a new session from the template.
func (t WorkoutTemplate) NewWorkout(name string, now time.Time) Workout {
	if name == "" {
		name = t.Name
	}
	w := NewWorkout(NewWorkoutParams{Name: name}, now)
	for _, te := range t.Exercises {
		w.Exercises = append(w.Exercises, te.ToExercise())
	}
	return w
}

// ExerciseUpdate is a partial exercise update. Nil fields are left untouched.
// Completion state is not part of it: completed sets only grow through
// CompleteSet and a completed exercise stays completed.
type ExerciseUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Sets        *int     `json:"sets,omitempty"`
	Reps        *int     `json:"reps,omitempty"`
	Weight      *float64 `json:"weight,omitempty"`
	Duration    *int     `json:"duration,omitempty"`
	RestTime    *int     `json:"restTime,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
	ImageURI    *string  `json:"imageUri,omitempty"`
	VideoURI    *string  `json:"videoUri,omitempty"`
}

// Apply shallow merges the update into a copy of ex.
func (u ExerciseUpdate) Apply(ex Exercise) Exercise {
	if u.Name != nil {
		ex.Name = *u.Name
	}
	if u.Description != nil {
		ex.Description = *u.Description
	}
	if u.Sets != nil {
		ex.Sets = *u.Sets
	}
	if u.Reps != nil {
		ex.Reps = *u.Reps
	}
	if u.Weight != nil {
		ex.Weight = cloneFloat(u.Weight)
	}
	if u.Duration != nil {
		ex.Duration = cloneInt(u.Duration)
	}
	if u.RestTime != nil {
		ex.RestTime = cloneInt(u.RestTime)
	}
	if u.Notes != nil {
		ex.Notes = *u.Notes
	}
	if u.ImageURI != nil {
		ex.ImageURI = *u.ImageURI
	}
	if u.VideoURI != nil {
		ex.VideoURI = *u.VideoURI
	}
	// lowering Sets may complete the exercise, raising it never un-completes it
	if u.Sets != nil {
		ex.IsCompleted = ex.IsCompleted || len(ex.CompletedSets) >= ex.Sets
	}
	return ex
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
