package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const dateLayout = "2006-01-02"

// NoInput is the input of the tools without arguments.
type NoInput struct{}

// Handler handles MCP tool requests and responses: parses input, calls the service, formats MCP result.
type Handler struct {
	service contextService
}

func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
	}
}

// GetCurrentWorkoutTool returns the MCP tool handler for get_current_workout.
func (h *Handler) GetCurrentWorkoutTool() func(context.Context, *mcp.CallToolRequest, NoInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
		current, err := h.service.GetCurrentWorkout(ctx)
		if err != nil {
			return errorResult("Error fetching current workout: " + err.Error()), nil, nil
		}
		if current == nil {
			return textResult("No workout in progress."), nil, nil
		}
		return jsonResult(current), nil, nil
	}
}

// HistoryInput is the input for get_workout_history.
type HistoryInput struct {
	FromDate string `json:"from_date,omitempty" jsonschema:"Start date (YYYY-MM-DD)"`
	ToDate   string `json:"to_date,omitempty" jsonschema:"End date (YYYY-MM-DD), inclusive"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Max number of workouts, newest first"`
}

// GetWorkoutHistoryTool returns the MCP tool handler for get_workout_history.
func (h *Handler) GetWorkoutHistoryTool() func(context.Context, *mcp.CallToolRequest, HistoryInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in HistoryInput) (*mcp.CallToolResult, any, error) {
		params, errRes := historyParams(in.FromDate, in.ToDate, in.Limit)
		if errRes != nil {
			return errRes, nil, nil
		}
		list, err := h.service.ListWorkouts(ctx, params)
		if err != nil {
			return errorResult("Error listing workouts: " + err.Error()), nil, nil
		}
		return jsonResult(list), nil, nil
	}
}

// GetTemplatesTool returns the MCP tool handler for get_workout_templates.
func (h *Handler) GetTemplatesTool() func(context.Context, *mcp.CallToolRequest, NoInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
		templates, err := h.service.GetTemplates(ctx)
		if err != nil {
			return errorResult("Error fetching templates: " + err.Error()), nil, nil
		}
		return jsonResult(templates), nil, nil
	}
}

// GetAnalyticsTool returns the MCP tool handler for get_workout_analytics.
func (h *Handler) GetAnalyticsTool() func(context.Context, *mcp.CallToolRequest, NoInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
		snapshot, err := h.service.GetAnalytics(ctx)
		if err != nil {
			return errorResult("Error calculating analytics: " + err.Error()), nil, nil
		}
		return jsonResult(snapshot), nil, nil
	}
}

// ExerciseHistoryInput is the input for get_exercise_history.
type ExerciseHistoryInput struct {
	ExerciseName string `json:"exercise_name" jsonschema:"Exercise name as logged (e.g. Bench press), case-insensitive"`
	FromDate     string `json:"from_date,omitempty" jsonschema:"Start date (YYYY-MM-DD)"`
	ToDate       string `json:"to_date,omitempty" jsonschema:"End date (YYYY-MM-DD), inclusive"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Max number of entries, most recent kept"`
}

// GetExerciseHistoryTool returns the MCP tool handler for get_exercise_history.
func (h *Handler) GetExerciseHistoryTool() func(context.Context, *mcp.CallToolRequest, ExerciseHistoryInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ExerciseHistoryInput) (*mcp.CallToolResult, any, error) {
		if in.ExerciseName == "" {
			return errorResult("exercise_name is required"), nil, nil
		}
		params, errRes := historyParams(in.FromDate, in.ToDate, in.Limit)
		if errRes != nil {
			return errRes, nil, nil
		}
		entries, err := h.service.GetExerciseHistory(ctx, in.ExerciseName, params)
		if err != nil {
			return errorResult("Error fetching exercise history: " + err.Error()), nil, nil
		}
		return jsonResult(entries), nil, nil
	}
}

func historyParams(fromDate, toDate string, limit int) (HistoryParams, *mcp.CallToolResult) {
	params := HistoryParams{Limit: limit}
	if fromDate != "" {
		from, err := time.Parse(dateLayout, fromDate)
		if err != nil {
			return params, errorResult("Invalid from_date: use YYYY-MM-DD")
		}
		params.From = &from
	}
	if toDate != "" {
		to, err := time.Parse(dateLayout, toDate)
		if err != nil {
			return params, errorResult("Invalid to_date: use YYYY-MM-DD")
		}
		to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999999999, to.Location())
		params.To = &to
	}
	return params, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return textResult(string(raw))
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
