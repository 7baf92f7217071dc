package workout

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// FormatDuration renders d as "1h 5m" or "42m".
func FormatDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	hours := minutes / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

func FormatWeight(weight float64) string {
	if weight == 0 {
		return "0lbs"
	}
	if weight == math.Trunc(weight) {
		return strconv.FormatFloat(weight, 'f', 0, 64) + "lbs"
	}
	return strconv.FormatFloat(weight, 'f', 1, 64) + "lbs"
}

// FormatProgress renders "completed/total (pct%)".
func FormatProgress(completed, total int) string {
	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(completed) / float64(total) * 100))
	}
	return fmt.Sprintf("%d/%d (%d%%)", completed, total, percentage)
}

func FormatSet(s ExerciseSet) string {
	result := fmt.Sprintf("%d %s", s.Reps, plural(s.Reps, "rep"))
	if s.Weight != nil && *s.Weight > 0 {
		result += " × " + FormatWeight(*s.Weight)
	}
	if s.Duration != nil && *s.Duration > 0 {
		result += " (" + FormatDuration(time.Duration(*s.Duration)*time.Second) + ")"
	}
	return result
}

func FormatExerciseSummary(ex Exercise) string {
	result := fmt.Sprintf("%d %s × %d %s", ex.Sets, plural(ex.Sets, "set"), ex.Reps, plural(ex.Reps, "rep"))
	if ex.Weight != nil && *ex.Weight > 0 {
		result += " @ " + FormatWeight(*ex.Weight)
	}
	return result
}

func FormatRestTime(seconds int) string {
	if seconds == 0 {
		return "No rest"
	}

	minutes := seconds / 60
	rest := seconds % 60
	switch {
	case minutes == 0:
		return fmt.Sprintf("%ds", seconds)
	case rest == 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%dm %ds", minutes, rest)
	}
}

func FormatVolume(volume float64) string {
	if volume == 0 {
		return "0 lbs"
	}
	if volume >= 1000 {
		return strconv.FormatFloat(volume/1000, 'f', 1, 64) + "K lbs"
	}
	return strconv.FormatFloat(volume, 'f', -1, 64) + " lbs"
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
