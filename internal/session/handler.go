package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/gymcoach/internal/telemetry/tracing"
	"github.com/2beens/gymcoach/internal/workout"
	"github.com/2beens/gymcoach/internal/workout/validation"
	"github.com/2beens/gymcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type StartWorkoutRequest struct {
	Name       string                     `json:"name"`
	TemplateID string                     `json:"templateId,omitempty"`
	PartnerID  string                     `json:"partnerId,omitempty"`
	Notes      string                     `json:"notes,omitempty"`
	Exercises  []workout.TemplateExercise `json:"exercises"`
}

type NewTemplateRequest struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	CreatedBy   string                     `json:"createdBy"`
	Exercises   []workout.TemplateExercise `json:"exercises"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

type CurrentWorkoutResponse struct {
	IsWorkoutActive bool             `json:"isWorkoutActive"`
	Workout         *workout.Workout `json:"workout,omitempty"`
}

type ProgressResponse struct {
	Progress           int      `json:"progress"`
	CompletedExercises int      `json:"completedExercises"`
	TotalExercises     int      `json:"totalExercises"`
	Formatted          string   `json:"formatted"`
	Volume             string   `json:"volume"`
	Elapsed            string   `json:"elapsed,omitempty"`
	Exercises          []string `json:"exercises"`
}

type ClearResponse struct {
	Cleared bool `json:"cleared"`
}

type Handler struct {
	manager *Manager
	now     func() time.Time
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{
		manager: manager,
		now:     time.Now,
	}
}

func (handler *Handler) HandleGetCurrent(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.current")
	defer span.End()

	resp := CurrentWorkoutResponse{}
	if current, ok := handler.manager.CurrentWorkout(); ok {
		resp.IsWorkoutActive = true
		resp.Workout = &current
	}
	pkg.WriteJSON(w, resp, http.StatusOK)
}

func (handler *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.start")
	defer span.End()

	var req StartWorkoutRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	now := handler.now()
	var newWorkout workout.Workout
	if req.TemplateID != "" {
		tmpl, found := handler.findTemplate(req.TemplateID)
		if !found {
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}
		newWorkout = tmpl.NewWorkout(strings.TrimSpace(req.Name), now)
		newWorkout.PartnerID = req.PartnerID
		newWorkout.Notes = strings.TrimSpace(req.Notes)
	} else {
		if err := validateTemplateExercises(req.Exercises); err != nil {
			writeError(w, err)
			return
		}
		newWorkout = workout.NewWorkout(workout.NewWorkoutParams{
			Name:      req.Name,
			PartnerID: req.PartnerID,
			Notes:     req.Notes,
		}, now)
		for _, te := range req.Exercises {
			newWorkout.Exercises = append(newWorkout.Exercises, te.ToExercise())
		}
	}

	if err := handler.manager.Start(newWorkout); err != nil {
		log.Debugf("start workout [%s]: %s", newWorkout.Name, err)
		writeError(w, err)
		return
	}

	span.SetAttributes(attribute.String("workout.id", newWorkout.ID))
	started, _ := handler.manager.CurrentWorkout()
	pkg.WriteJSON(w, started, http.StatusCreated)
}

func (handler *Handler) HandleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.exercise.update")
	defer span.End()

	exerciseID := mux.Vars(r)["id"]
	if exerciseID == "" {
		http.Error(w, "error, exercise id empty", http.StatusBadRequest)
		return
	}

	var update workout.ExerciseUpdate
	if !decodeJSONBody(w, r, &update) {
		return
	}

	ex, status := handler.currentExercise(exerciseID)
	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}

	if err := validation.ValidateCompleteExercise(validation.InputFromExercise(update.Apply(ex))).Err(); err != nil {
		writeError(w, err)
		return
	}

	if !handler.manager.UpdateExercise(exerciseID, update) {
		http.Error(w, "exercise not in active workout", http.StatusConflict)
		return
	}

	updated, _ := handler.currentExercise(exerciseID)
	pkg.WriteJSON(w, updated, http.StatusOK)
}

func (handler *Handler) HandleCompleteSet(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.exercise.set")
	defer span.End()

	exerciseID := mux.Vars(r)["id"]
	if exerciseID == "" {
		http.Error(w, "error, exercise id empty", http.StatusBadRequest)
		return
	}

	var params workout.NewSetParams
	if !decodeJSONBody(w, r, &params) {
		return
	}

	if _, status := handler.currentExercise(exerciseID); status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}

	set := workout.NewCompletedSet(params, handler.now())
	applied, err := handler.manager.CompleteSet(exerciseID, set)
	if err != nil {
		writeError(w, err)
		return
	}
	if !applied {
		http.Error(w, "exercise not in active workout", http.StatusConflict)
		return
	}

	ex, _ := handler.currentExercise(exerciseID)
	pkg.WriteJSON(w, ex, http.StatusCreated)
}

func (handler *Handler) HandleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.notes")
	defer span.End()

	var req UpdateNotesRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if !handler.manager.UpdateNotes(req.Notes) {
		writeError(w, ErrNoActiveWorkout)
		return
	}

	current, _ := handler.manager.CurrentWorkout()
	pkg.WriteJSON(w, current, http.StatusOK)
}

func (handler *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.end")
	defer span.End()

	finished, ok := handler.manager.End()
	if !ok {
		writeError(w, ErrNoActiveWorkout)
		return
	}

	span.SetAttributes(attribute.String("workout.id", finished.ID))
	pkg.WriteJSON(w, finished, http.StatusOK)
}

func (handler *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.clear")
	defer span.End()

	pkg.WriteJSON(w, ClearResponse{Cleared: handler.manager.ClearCurrent()}, http.StatusOK)
}

func (handler *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.progress")
	defer span.End()

	current, ok := handler.manager.CurrentWorkout()
	if !ok {
		writeError(w, ErrNoActiveWorkout)
		return
	}

	completed := 0
	summaries := make([]string, 0, len(current.Exercises))
	for _, ex := range current.Exercises {
		if ex.IsCompleted {
			completed++
		}
		summaries = append(summaries, ex.Name+": "+workout.FormatExerciseSummary(ex))
	}

	resp := ProgressResponse{
		Progress:           workout.Progress(current),
		CompletedExercises: completed,
		TotalExercises:     len(current.Exercises),
		Formatted:          workout.FormatProgress(completed, len(current.Exercises)),
		Volume:             workout.FormatVolume(workout.TotalVolume(current.Exercises)),
		Exercises:          summaries,
	}
	if current.StartTime != nil {
		resp.Elapsed = workout.FormatDuration(handler.now().Sub(*current.StartTime))
	}
	pkg.WriteJSON(w, resp, http.StatusOK)
}

func (handler *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.history")
	defer span.End()

	history := handler.manager.History()
	span.SetAttributes(attribute.Int("history.count", len(history)))
	pkg.WriteJSON(w, history, http.StatusOK)
}

// HandleImportHistory records a workout finished elsewhere, e.g. on another
// device while offline.
func (handler *Handler) HandleImportHistory(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.history.import")
	defer span.End()

	var imported workout.Workout
	if !decodeJSONBody(w, r, &imported) {
		return
	}

	if err := validation.ValidateWorkoutCanStart(imported.Exercises); err != nil {
		writeError(w, err)
		return
	}
	for _, ex := range imported.Exercises {
		if err := validation.ValidateCompleteExercise(validation.InputFromExercise(ex)).Err(); err != nil {
			writeError(w, err)
			return
		}
		for _, set := range ex.CompletedSets {
			if err := validation.ValidateSetCompletion(set.Reps); err != nil {
				writeError(w, err)
				return
			}
		}
	}
	if imported.EndTime == nil {
		http.Error(w, "Imported workout must have an end time", http.StatusBadRequest)
		return
	}

	if imported.ID == "" {
		imported.ID = workout.NewWorkoutID()
	}
	for _, existing := range handler.manager.History() {
		if existing.ID == imported.ID {
			http.Error(w, "workout already in history", http.StatusConflict)
			return
		}
	}
	imported.IsCompleted = true
	handler.manager.AddToHistory(imported)

	span.SetAttributes(attribute.String("workout.id", imported.ID))
	pkg.WriteJSON(w, imported, http.StatusCreated)
}

// HandleValidateUserSetup checks the onboarding form before the client
// moves on to partner pairing.
func (handler *Handler) HandleValidateUserSetup(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.user.setup.validate")
	defer span.End()

	var setup validation.UserSetup
	if !decodeJSONBody(w, r, &setup) {
		return
	}
	if err := validation.ValidateUserSetup(setup); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.templates.list")
	defer span.End()

	pkg.WriteJSON(w, handler.manager.Templates(), http.StatusOK)
}

func (handler *Handler) HandleAddTemplate(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.templates.add")
	defer span.End()

	var req NewTemplateRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "Template name is required", http.StatusBadRequest)
		return
	}
	if err := validateTemplateExercises(req.Exercises); err != nil {
		writeError(w, err)
		return
	}

	tmpl := workout.NewTemplate(workout.NewTemplateParams{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
		Exercises:   req.Exercises,
	}, handler.now())
	handler.manager.AddTemplate(tmpl)

	log.Debugf("new workout template added: [%s] %s", tmpl.ID, tmpl.Name)
	pkg.WriteJSON(w, tmpl, http.StatusCreated)
}

func (handler *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.analytics")
	defer span.End()

	pkg.WriteJSON(w, handler.manager.Analytics(handler.now()), http.StatusOK)
}

func (handler *Handler) findTemplate(id string) (workout.WorkoutTemplate, bool) {
	for _, t := range handler.manager.Templates() {
		if t.ID == id {
			return t, true
		}
	}
	return workout.WorkoutTemplate{}, false
}

// currentExercise looks the exercise up in the active workout and returns the
// status to answer with when it cannot be found.
func (handler *Handler) currentExercise(exerciseID string) (workout.Exercise, int) {
	current, ok := handler.manager.CurrentWorkout()
	if !ok {
		return workout.Exercise{}, http.StatusConflict
	}
	i := current.FindExercise(exerciseID)
	if i < 0 {
		return workout.Exercise{}, http.StatusNotFound
	}
	return current.Exercises[i], http.StatusOK
}

func validateTemplateExercises(exercises []workout.TemplateExercise) error {
	for _, te := range exercises {
		if err := validation.ValidateCompleteExercise(validation.InputFromExercise(te.ToExercise())).Err(); err != nil {
			return err
		}
	}
	return nil
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Debugf("unmarshal json body: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps domain errors to status codes: validation problems are the
// caller's fault, state conflicts are 409.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch workout.CodeOf(err) {
	case workout.CodeInvalidExerciseData, workout.CodeInvalidUserData, workout.CodeWorkoutStartFailed:
		status = http.StatusBadRequest
	case workout.CodeInvalidWorkoutState:
		status = http.StatusConflict
	}

	msg := err.Error()
	var coded *workout.Error
	if errors.As(err, &coded) && coded.Message != "" {
		msg = coded.Message
	}
	http.Error(w, msg, status)
}
