package session

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2beens/gymcoach/internal/analytics"
	"github.com/2beens/gymcoach/internal/storage"
	"github.com/2beens/gymcoach/internal/telemetry/metrics"
	"github.com/2beens/gymcoach/internal/workout"
	"github.com/2beens/gymcoach/internal/workout/validation"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=manager_mocks_test.go -package=session_test

var (
	ErrWorkoutAlreadyActive = workout.NewError(
		workout.CodeInvalidWorkoutState,
		"A workout is already active",
		nil,
	)
	ErrNoActiveWorkout = workout.NewError(
		workout.CodeInvalidWorkoutState,
		"No active workout",
		nil,
	)
	ErrStoredDataNotLoaded = workout.NewError(
		workout.CodeDataSaveFailed,
		"Stored workout data could not be loaded, not overwriting it",
		nil,
	)
)

const autoSaveTimeout = 10 * time.Second

type workoutStore interface {
	Save(ctx context.Context, history []workout.Workout, templates []workout.WorkoutTemplate) error
	Load(ctx context.Context) (storage.Data, error)
}

// Reporter receives failures that have no synchronous caller to return to,
// e.g. a failed background save.
type Reporter interface {
	Report(err error, fields map[string]any)
}

var _ workoutStore = (*storage.WorkoutStorage)(nil)

type NewManagerParams struct {
	Store          workoutStore
	Reporter       Reporter
	MetricsManager *metrics.Manager
	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager is the single owner of the session state. Commands are validated
// here and then applied through Reduce; history and template changes are
// persisted by a background saver, one save at a time.
type Manager struct {
	mu    sync.RWMutex
	state State

	store          workoutStore
	reporter       Reporter
	metricsManager *metrics.Manager
	now            func() time.Time

	observersMu    sync.Mutex
	observers      map[int]func(State)
	nextObserverID int

	// set while the stored bundle failed to load; saves are refused so the
	// unread data is not replaced by the partial in-memory state
	loadFailed atomic.Bool

	// saveMu serializes store writes
	saveMu    sync.Mutex
	dirty     chan struct{}
	stop      chan struct{}
	saverDone chan struct{}
	closeOnce sync.Once
}

func NewManager(params NewManagerParams) *Manager {
	now := params.Now
	if now == nil {
		now = time.Now
	}

	m := &Manager{
		state:          InitialState(),
		store:          params.Store,
		reporter:       params.Reporter,
		metricsManager: params.MetricsManager,
		now:            now,
		observers:      make(map[int]func(State)),
		dirty:          make(chan struct{}, 1),
		stop:           make(chan struct{}),
		saverDone:      make(chan struct{}),
	}

	go m.saver()

	return m
}

// Start begins w as the active workout. It fails when w has no exercises or
// when another workout is already active. A missing StartTime is set to now.
func (m *Manager) Start(w workout.Workout) error {
	if err := validation.ValidateWorkoutCanStart(w.Exercises); err != nil {
		return err
	}

	if w.StartTime == nil {
		startTime := m.now()
		w.StartTime = &startTime
	}

	if _, err := m.dispatch(func(s State) (Action, error) {
		if s.IsWorkoutActive {
			return nil, ErrWorkoutAlreadyActive
		}
		return StartWorkout{Workout: w}, nil
	}); err != nil {
		return err
	}

	log.Debugf("session: workout [%s] started with %d exercises", w.ID, len(w.Exercises))
	if m.metricsManager != nil {
		m.metricsManager.CounterWorkoutsStarted.Inc()
		m.metricsManager.GaugeActiveWorkout.Set(1)
	}

	return nil
}

// UpdateExercise merges update into the exercise of the active workout.
// It reports false when there is no active workout or no such exercise.
func (m *Manager) UpdateExercise(exerciseID string, update workout.ExerciseUpdate) bool {
	applied, _ := m.dispatch(func(s State) (Action, error) {
		if !hasExercise(s, exerciseID) {
			return nil, nil
		}
		return UpdateExercise{ExerciseID: exerciseID, Update: update}, nil
	})
	return applied
}

// CompleteSet appends set to the exercise of the active workout. A set with
// less than one rep is rejected; missing id and timestamp are filled in.
func (m *Manager) CompleteSet(exerciseID string, set workout.ExerciseSet) (bool, error) {
	return m.completeSet(exerciseID, set, false)
}

// completeSet with openOnly set leaves exercises that already have all their
// sets untouched.
func (m *Manager) completeSet(exerciseID string, set workout.ExerciseSet, openOnly bool) (bool, error) {
	if err := validation.ValidateSetCompletion(set.Reps); err != nil {
		return false, err
	}

	if set.ID == "" {
		set.ID = workout.NewSetID()
	}
	if set.Timestamp.IsZero() {
		set.Timestamp = m.now()
	}
	set.Completed = true

	applied, err := m.dispatch(func(s State) (Action, error) {
		if !hasExercise(s, exerciseID) {
			return nil, nil
		}
		if openOnly && exerciseDone(s, exerciseID) {
			return nil, nil
		}
		return CompleteSet{ExerciseID: exerciseID, Set: set}, nil
	})
	if err != nil {
		return false, err
	}

	if applied && m.metricsManager != nil {
		m.metricsManager.CounterSetsCompleted.Inc()
	}
	return applied, nil
}

// CompleteDetectedSet adapts rep counts coming from the motion detector into
// completed sets of the given exercise. Counts arriving after the exercise
// has all of its sets are dropped.
func (m *Manager) CompleteDetectedSet(exerciseID string, weight *float64) func(reps int) {
	return func(reps int) {
		set := workout.NewCompletedSet(workout.NewSetParams{Reps: reps, Weight: weight}, m.now())
		applied, err := m.completeSet(exerciseID, set, true)
		if err != nil {
			m.report(err, map[string]any{
				"operation":  "completeDetectedSet",
				"exerciseId": exerciseID,
				"reps":       reps,
			})
			return
		}
		if !applied {
			log.Warnf("session: detected set of %d reps dropped, exercise [%s] not in active workout or already completed", reps, exerciseID)
		}
	}
}

// End finishes the active workout and moves it to the front of the history.
// It reports false and changes nothing when no workout is active.
func (m *Manager) End() (workout.Workout, bool) {
	endTime := m.now()

	var finished workout.Workout
	applied, _ := m.dispatch(func(s State) (Action, error) {
		if s.CurrentWorkout == nil {
			return nil, nil
		}
		return EndWorkout{At: endTime}, nil
	}, func(s State) {
		finished = s.WorkoutHistory[0].Clone()
	})
	if !applied {
		return workout.Workout{}, false
	}

	log.Debugf("session: workout [%s] ended", finished.ID)
	if m.metricsManager != nil {
		m.metricsManager.CounterWorkoutsEnded.Inc()
		m.metricsManager.GaugeActiveWorkout.Set(0)
		if workout.HasTimingData(finished) {
			m.metricsManager.HistWorkoutDuration.Observe(workout.Duration(finished).Seconds())
		}
	}

	return finished, true
}

// ClearCurrent discards the active workout without recording it.
func (m *Manager) ClearCurrent() bool {
	applied, _ := m.dispatch(func(s State) (Action, error) {
		if s.CurrentWorkout == nil && !s.IsWorkoutActive {
			return nil, nil
		}
		return ClearCurrentWorkout{}, nil
	})
	if applied && m.metricsManager != nil {
		m.metricsManager.GaugeActiveWorkout.Set(0)
	}
	return applied
}

func (m *Manager) AddTemplate(t workout.WorkoutTemplate) {
	_, _ = m.dispatch(func(State) (Action, error) {
		return AddTemplate{Template: t}, nil
	})
}

// AddToHistory records an already finished workout, e.g. one imported from
// another device.
func (m *Manager) AddToHistory(w workout.Workout) {
	_, _ = m.dispatch(func(State) (Action, error) {
		return AddWorkoutToHistory{Workout: w}, nil
	})
}

func (m *Manager) UpdateNotes(notes string) bool {
	applied, _ := m.dispatch(func(s State) (Action, error) {
		if s.CurrentWorkout == nil {
			return nil, nil
		}
		return UpdateWorkoutNotes{Notes: notes}, nil
	})
	return applied
}

// State returns a deep copy of the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

func (m *Manager) CurrentWorkout() (workout.Workout, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.CurrentWorkout == nil {
		return workout.Workout{}, false
	}
	return m.state.CurrentWorkout.Clone(), true
}

func (m *Manager) History() []workout.Workout {
	return m.State().WorkoutHistory
}

func (m *Manager) Templates() []workout.WorkoutTemplate {
	return m.State().WorkoutTemplates
}

func (m *Manager) IsWorkoutActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.IsWorkoutActive
}

// Progress is the completion percentage of the active workout, 0 without one.
func (m *Manager) Progress() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.CurrentWorkout == nil {
		return 0
	}
	return workout.Progress(*m.state.CurrentWorkout)
}

func (m *Manager) Analytics(now time.Time) analytics.Snapshot {
	m.mu.RLock()
	history := m.state.WorkoutHistory
	m.mu.RUnlock()
	// history entries are never mutated in place, sharing them is safe
	return analytics.Calculate(history, now)
}

// Subscribe registers an observer called with a copy of the state after each
// applied transition. Observers run on the goroutine that issued the command
// and must not block.
func (m *Manager) Subscribe(observer func(State)) (unsubscribe func()) {
	m.observersMu.Lock()
	id := m.nextObserverID
	m.nextObserverID++
	m.observers[id] = observer
	m.observersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.observersMu.Lock()
			delete(m.observers, id)
			m.observersMu.Unlock()
		})
	}
}

// Load replaces history and templates with the persisted ones. A missing
// bundle is an empty one. After a failed load nothing is saved until a later
// Load succeeds.
func (m *Manager) Load(ctx context.Context) error {
	data, err := m.store.Load(ctx)
	if err != nil {
		m.loadFailed.Store(true)
		m.report(err, map[string]any{"operation": "load"})
		return err
	}
	m.loadFailed.Store(false)

	_, _ = m.dispatch(func(State) (Action, error) {
		return LoadWorkoutData{History: data.WorkoutHistory, Templates: data.WorkoutTemplates}, nil
	})

	log.Debugf("session: loaded %d workouts, %d templates", len(data.WorkoutHistory), len(data.WorkoutTemplates))
	return nil
}

// Save persists the current history and templates right away.
func (m *Manager) Save(ctx context.Context) error {
	return m.save(ctx)
}

// Close stops the background saver after flushing pending changes.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.stop)
		<-m.saverDone
	})
}

// dispatch reduces the action built from the current state. A nil action
// means there is nothing to apply. after runs with the new state while the
// state lock is still held.
func (m *Manager) dispatch(build func(State) (Action, error), after ...func(State)) (bool, error) {
	m.mu.Lock()
	action, err := build(m.state)
	if err != nil || action == nil {
		m.mu.Unlock()
		return false, err
	}

	m.state = Reduce(m.state, action)
	for _, f := range after {
		f(m.state)
	}
	snapshot := m.state.Clone()
	m.mu.Unlock()

	log.Tracef("session: applied %s", ActionType(action))

	if changesPersistedData(action) {
		m.markDirty()
	}
	m.notify(snapshot)

	return true, nil
}

func (m *Manager) notify(s State) {
	m.observersMu.Lock()
	observers := make([]func(State), 0, len(m.observers))
	for _, id := range slices.Sorted(maps.Keys(m.observers)) {
		observers = append(observers, m.observers[id])
	}
	m.observersMu.Unlock()

	for _, observer := range observers {
		observer(s)
	}
}

func (m *Manager) markDirty() {
	select {
	case m.dirty <- struct{}{}:
	default:
		// a save is already pending and will pick up the latest state
	}
}

func (m *Manager) saver() {
	defer close(m.saverDone)
	for {
		select {
		case <-m.dirty:
			m.autoSave()
		case <-m.stop:
			select {
			case <-m.dirty:
				m.autoSave()
			default:
			}
			return
		}
	}
}

func (m *Manager) autoSave() {
	if m.loadFailed.Load() {
		log.Warn("session: auto save skipped, stored data was never loaded")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), autoSaveTimeout)
	defer cancel()
	if err := m.save(ctx); err != nil {
		log.Warnf("session: auto save failed, data may be stale: %s", err)
	}
}

func (m *Manager) save(ctx context.Context) error {
	if m.loadFailed.Load() {
		return ErrStoredDataNotLoaded
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.RLock()
	history := m.state.WorkoutHistory
	templates := m.state.WorkoutTemplates
	m.mu.RUnlock()

	if err := m.store.Save(ctx, history, templates); err != nil {
		m.report(err, map[string]any{
			"operation":    "save",
			"historyCount": len(history),
		})
		return err
	}
	return nil
}

func (m *Manager) report(err error, fields map[string]any) {
	if m.reporter == nil {
		log.Errorf("session: %s", err)
		return
	}
	m.reporter.Report(err, fields)
}

func hasExercise(s State, exerciseID string) bool {
	return s.CurrentWorkout != nil && s.CurrentWorkout.FindExercise(exerciseID) >= 0
}

func exerciseDone(s State, exerciseID string) bool {
	ex := s.CurrentWorkout.Exercises[s.CurrentWorkout.FindExercise(exerciseID)]
	return ex.IsCompleted || len(ex.CompletedSets) >= ex.Sets
}
