package metrics

import (
	"strings"

	"testons-go/server/internal/models"
)

// Fixed identities of the protocol's special tasks.
const (
	DiscoveryTaskID = 1
	SearchTaskID    = 3
	PostTestTaskID  = 9

	discoveryKeyword = "découverte"
	postTestKeyword  = "post-test"
	searchKeyword    = "bon assistant"
	bonusKeyword     = "bonus"
)

// Numeric scale metrics, in report order.
var NumericMetrics = []string{
	"ease",
	"valuePropositionClarity",
	"firstImpression",
	"postTestAdoption",
}

// Categorical metrics, in report order.
var CategoricalMetrics = []string{
	"duration",
	"autonomy",
	"pathFluidity",
	"emotionalReaction",
	"searchMethod",
}

// TaskRef identifies a task the way results and definitions both can.
type TaskRef struct {
	ID    int
	Title string
}

// TaskCategory tells discovery, post-test and standard tasks apart.
func TaskCategory(task TaskRef) models.Category {
	title := strings.ToLower(task.Title)
	if task.ID == DiscoveryTaskID || strings.Contains(title, discoveryKeyword) {
		return models.Discovery
	}
	if task.ID == PostTestTaskID || strings.Contains(title, postTestKeyword) {
		return models.PostTest
	}
	return models.Standard
}

// IsSearchTask reports whether the task is the "find the right assistant" scenario.
func IsSearchTask(task TaskRef) bool {
	return task.ID == SearchTaskID || strings.Contains(strings.ToLower(task.Title), searchKeyword)
}

// IsMetricApplicable reports whether a metric is collected for tasks of the
// given category. searchMethod additionally requires IsSearchTask.
func IsMetricApplicable(metricKey string, category models.Category, optionalBonus bool) bool {
	switch metricKey {
	case "ease":
		return category == models.Standard && !optionalBonus
	case "valuePropositionClarity", "firstImpression":
		return category == models.Discovery
	case "postTestAdoption":
		return category == models.PostTest
	case "duration", "autonomy", "pathFluidity", "searchMethod":
		return category == models.Standard
	case "emotionalReaction":
		return category != models.Discovery
	default:
		return false
	}
}

// Resolved is a result located in the protocol.
type Resolved struct {
	Ref      TaskRef
	Category models.Category
	Optional bool
	Known    bool
}

// Resolve locates a result's task in the protocol. The canonical title is used
// when the id is known; otherwise the title recorded on the result.
func Resolve(result models.TaskResult, protocol []models.TaskDefinition) Resolved {
	ref := TaskRef{ID: result.TaskID, Title: result.TaskTitle}
	def, known := models.FindTask(protocol, result.TaskID)
	if known && def.Title != "" {
		ref.Title = def.Title
	}
	optional := def.Optional || strings.Contains(strings.ToLower(ref.Title), bonusKeyword)
	return Resolved{
		Ref:      ref,
		Category: TaskCategory(ref),
		Optional: optional,
		Known:    known,
	}
}

// Classify turns a stored result into the variant of its category, dropping
// every field the category does not collect.
func Classify(result models.TaskResult, protocol []models.TaskDefinition) models.Outcome {
	res := Resolve(result, protocol)
	core := models.ResultCore{
		TaskID:            result.TaskID,
		Title:             res.Ref.Title,
		Optional:          res.Optional,
		Success:           result.Success,
		NotAttempted:      result.NotAttempted,
		Notes:             result.Notes,
		VerbatimsPositive: result.TaskVerbatimsPositive,
		VerbatimsNegative: result.TaskVerbatimsNegative,
	}

	switch res.Category {
	case models.Discovery:
		return models.DiscoveryOutcome{
			ResultCore:              core,
			ValuePropositionClarity: result.ValuePropositionClarity,
			FirstImpression:         result.FirstImpression,
		}
	case models.PostTest:
		return models.PostTestOutcome{
			ResultCore:        core,
			PostTestAdoption:  result.PostTestAdoption,
			EmotionalReaction: result.EmotionalReaction,
			Frustrations:      result.PostTestFrustrations,
			DataStorage:       result.PostTestDataStorage,
			PracticalUse:      result.PostTestPracticalUse,
		}
	}

	out := models.StandardOutcome{
		ResultCore:        core,
		Duration:          result.Duration,
		Autonomy:          result.Autonomy,
		PathFluidity:      result.PathFluidity,
		EmotionalReaction: result.EmotionalReaction,
	}
	if IsMetricApplicable("ease", models.Standard, res.Optional) {
		out.Ease = result.Ease
	}
	if IsSearchTask(res.Ref) && len(result.SearchMethod) > 0 {
		out.SearchMethod = append([]string(nil), result.SearchMethod...)
	}
	return out
}
