package utils

import (
	"fmt"
	"strings"

	"testons-go/server/internal/metrics"
	"testons-go/server/internal/models"
)

// Scale bounds of every numeric rating.
const (
	MinScale = 1
	MaxScale = 10
)

// IsValidScale accepts an unanswered scale or a value within bounds.
func IsValidScale(v *int) bool {
	return v == nil || (*v >= MinScale && *v <= MaxScale)
}

// IsKnownValue reports whether value belongs to the categorical metric's set.
// Empty values and metrics without a fixed set are accepted.
func IsKnownValue(metric, value string) bool {
	if value == "" {
		return true
	}
	known, ok := metrics.KnownValues[metric]
	if !ok {
		return true
	}
	for _, k := range known {
		if k == value {
			return true
		}
	}
	return false
}

// ValidateSession checks a submitted session and returns every problem found.
func ValidateSession(s models.TestSession) []string {
	var problems []string
	if strings.TrimSpace(s.Participant.Name) == "" {
		problems = append(problems, "participant.name is required")
	}
	if !IsValidScale(s.Participant.AIToolsEase) {
		problems = append(problems, scaleProblem("participant.aiToolsEase"))
	}

	seen := make(map[int]bool, len(s.Tasks))
	for i, r := range s.Tasks {
		at := fmt.Sprintf("tasks[%d]", i)
		if r.TaskID <= 0 {
			problems = append(problems, at+".taskId must be positive")
		} else if seen[r.TaskID] {
			problems = append(problems, fmt.Sprintf("%s.taskId %d is duplicated", at, r.TaskID))
		}
		seen[r.TaskID] = true

		scales := []struct {
			key string
			v   *int
		}{
			{"ease", r.Ease},
			{"valuePropositionClarity", r.ValuePropositionClarity},
			{"firstImpression", r.FirstImpression},
			{"postTestAdoption", r.PostTestAdoption},
			{"adoptionScore", r.AdoptionScore},
		}
		for _, sc := range scales {
			if !IsValidScale(sc.v) {
				problems = append(problems, scaleProblem(at+"."+sc.key))
			}
		}

		choices := []struct {
			key string
			v   string
		}{
			{"duration", r.Duration},
			{"autonomy", r.Autonomy},
			{"pathFluidity", r.PathFluidity},
			{"emotionalReaction", r.EmotionalReaction},
		}
		for _, ch := range choices {
			if !IsKnownValue(ch.key, ch.v) {
				problems = append(problems, fmt.Sprintf("%s.%s has unknown value %q", at, ch.key, ch.v))
			}
		}
	}
	return problems
}

func scaleProblem(field string) string {
	return fmt.Sprintf("%s must be between %d and %d", field, MinScale, MaxScale)
}
