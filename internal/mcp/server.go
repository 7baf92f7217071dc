package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server with workout context tools: current workout,
// history, templates, analytics and per-exercise history.
// The main backend mounts it at /mcp (see NewHTTPHandler).
func NewServer(session SessionReader) *mcp.Server {
	h := NewHandler(NewContextService(session))
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "gymcoach-context",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_current_workout",
		Description: "Returns the workout in progress with its exercises and the sets completed so far, or a note that no workout is active.",
	}, h.GetCurrentWorkoutTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workout_history",
		Description: "Returns finished workouts, newest first. Optional: from_date, to_date (YYYY-MM-DD), limit. Use when you need to see what was trained in a period.",
	}, h.GetWorkoutHistoryTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workout_templates",
		Description: "Returns the saved workout templates (name, description, planned exercises).",
	}, h.GetTemplatesTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workout_analytics",
		Description: "Returns totals (workouts, exercises, volume), average workout duration, the most common exercises and the weekly progress of the last 8 weeks.",
	}, h.GetAnalyticsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_exercise_history",
		Description: "Returns per-workout stats (sets, reps, max weight, volume) for one exercise, oldest first. Args: exercise_name; optional: from_date, to_date (YYYY-MM-DD), limit. Use when you need progression over time.",
	}, h.GetExerciseHistoryTool())

	return s
}

// NewHTTPHandler serves server over the streamable HTTP transport.
func NewHTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}
