package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/2beens/gymcoach/internal/analytics"
	"github.com/2beens/gymcoach/internal/session"
	"github.com/2beens/gymcoach/internal/workout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) doRequest(ctx context.Context, method, url string, body any) (int, []byte) {
	t := s.T()

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) TestWorkoutLifecycle_PersistedInPostgres() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	weight := 60.0

	status, body := s.doRequest(ctx, "POST", serverEndpoint+"/workout/templates", session.NewTemplateRequest{
		Name:      "Pull day",
		CreatedBy: "coach_1",
		Exercises: []workout.TemplateExercise{{Name: "Row", Sets: 1, Reps: 10, Weight: &weight}},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var tmpl workout.WorkoutTemplate
	require.NoError(t, json.Unmarshal(body, &tmpl))

	status, body = s.doRequest(ctx, "POST", serverEndpoint+"/workout/start", session.StartWorkoutRequest{
		Name:       "Pull day",
		TemplateID: tmpl.ID,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var started workout.Workout
	require.NoError(t, json.Unmarshal(body, &started))
	require.Len(t, started.Exercises, 1)

	status, body = s.doRequest(ctx, "POST", serverEndpoint+"/workout/exercise/"+started.Exercises[0].ID+"/set",
		workout.NewSetParams{Reps: 10, Weight: &weight},
	)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = s.doRequest(ctx, "POST", serverEndpoint+"/workout/end", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = s.doRequest(ctx, "GET", serverEndpoint+"/workout/analytics", nil)
	require.Equal(t, http.StatusOK, status)
	var snapshot analytics.Snapshot
	require.NoError(t, json.Unmarshal(body, &snapshot))
	assert.Equal(t, 1, snapshot.TotalWorkouts)
	assert.Equal(t, 600.0, snapshot.TotalVolume)

	// the auto-save runs in the background
	assert.Eventually(t, func() bool {
		var raw []byte
		err := s.DB.QueryRowContext(ctx, `SELECT value FROM gymcoach_kv WHERE key = $1`, "workout_data").Scan(&raw)
		if err != nil {
			return false
		}
		var stored struct {
			WorkoutHistory   []json.RawMessage `json:"workoutHistory"`
			WorkoutTemplates []json.RawMessage `json:"workoutTemplates"`
		}
		if err := json.Unmarshal(raw, &stored); err != nil {
			return false
		}
		return len(stored.WorkoutHistory) == 1 && len(stored.WorkoutTemplates) == 1
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *IntegrationTestSuite) TestRateLimitedServer() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()

	limited := 0
	for range limitedServerRPM + 2 {
		status, _ := s.doRequest(ctx, "GET", limitedServerEndpoint+"/workout", nil)
		if status == http.StatusTooManyRequests {
			limited++
			continue
		}
		assert.Equal(t, http.StatusOK, status)
	}
	assert.GreaterOrEqual(t, limited, 2)
}
