package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testons-go/server/internal/models"
)

func scenarioSession(id string, ease []int, failedTask int, adoption int) models.TestSession {
	tasks := models.TaskList{{
		TaskID:                  1,
		ValuePropositionClarity: models.IntPtr(8),
		FirstImpression:         models.IntPtr(7),
		Success:                 true,
	}}
	for i, taskID := range []int{2, 3, 4, 5, 6, 7, 8} {
		tasks = append(tasks, models.TaskResult{
			TaskID:   taskID,
			Success:  taskID != failedTask,
			Ease:     models.IntPtr(ease[i]),
			Autonomy: "autonomous",
		})
	}
	tasks = append(tasks, models.TaskResult{TaskID: 9, PostTestAdoption: models.IntPtr(adoption)})
	return models.TestSession{ID: id, Participant: models.Participant{Name: id, Role: "juriste"}, Tasks: tasks}
}

func TestComputeStatisticsEndToEnd(t *testing.T) {
	sessions := []models.TestSession{
		scenarioSession("a", []int{7, 8, 7, 8, 7, 8, 7}, 5, 6),
		scenarioSession("b", []int{8, 7, 8, 7, 8, 7, 8}, 7, 8),
	}

	report := ComputeStatistics(sessions, testProtocol())

	assert.InDelta(t, 85.714, report.SuccessRate, 0.01)
	assert.Equal(t, 14, report.NumericalMetrics["ease"].Count)
	assert.InDelta(t, 7.5, report.NumericalMetrics["ease"].Average().Value, 1e-9)
	assert.Equal(t, 2, report.NumericalMetrics["valuePropositionClarity"].Count)
	assert.Equal(t, 2, report.NumericalMetrics["firstImpression"].Count)
	require.NotNil(t, report.AdoptionScore)
	assert.InDelta(t, 7.0, *report.AdoptionScore, 1e-9)
	require.NotNil(t, report.AutonomyRate)
	assert.InDelta(t, 100.0, *report.AutonomyRate, 1e-9)
	assert.Equal(t, 2, report.SessionCount)
	assert.Equal(t, 2, report.ParticipantStats["role"]["juriste"])

	require.Len(t, report.TaskStats, 9)
	discovery := report.TaskStats[0]
	assert.Equal(t, models.Discovery, discovery.Category)
	assert.Nil(t, discovery.SuccessRate)
	assert.Equal(t, 2, discovery.NumericalMetrics["valuePropositionClarity"].Count)

	task5 := report.TaskStats[4]
	require.NotNil(t, task5.SuccessRate)
	assert.InDelta(t, 50.0, *task5.SuccessRate, 1e-9)
	assert.Equal(t, 2, task5.NumericalMetrics["ease"].Count)
	assert.InDelta(t, 7.5, task5.Medians["ease"], 1e-9)

	postTest := report.TaskStats[8]
	assert.Equal(t, models.PostTest, postTest.Category)
	assert.Nil(t, postTest.SuccessRate)
	assert.Equal(t, 2, postTest.NumericalMetrics["postTestAdoption"].Count)
}

func TestComputeStatisticsEmpty(t *testing.T) {
	report := ComputeStatistics(nil, nil)

	assert.Equal(t, 0.0, report.SuccessRate)
	assert.Nil(t, report.AutonomyRate)
	assert.Nil(t, report.AdoptionScore)
	assert.Empty(t, report.NumericalMetrics)
	assert.Empty(t, report.CategoricalStats)
	assert.Empty(t, report.TaskStats)
	assert.Empty(t, report.Insights.Strengths)
	assert.Empty(t, report.Insights.Improvements)
}

func TestSkippedResultsContributeNothing(t *testing.T) {
	protocol := append(testProtocol(), models.TaskDefinition{ID: 10, Title: "Bonus : exporter", Optional: true})
	bonus := models.TaskResult{
		TaskID:            10,
		Success:           true,
		Autonomy:          "blocked",
		EmotionalReaction: "frustrated",
		Duration:          "more-than-5min",
		Ease:              models.IntPtr(2),
	}
	base := scenarioSession("a", []int{7, 8, 7, 8, 7, 8, 7}, 5, 6)

	withSkipped := base.Clone()
	skipped := bonus
	skipped.Skipped = true
	withSkipped.Tasks = append(withSkipped.Tasks, skipped)

	without := ComputeStatistics([]models.TestSession{base}, protocol)
	with := ComputeStatistics([]models.TestSession{withSkipped}, protocol)

	assert.Equal(t, without.SuccessRate, with.SuccessRate)
	assert.Equal(t, without.AutonomyRate, with.AutonomyRate)
	assert.Equal(t, without.NumericalMetrics, with.NumericalMetrics)
	assert.Equal(t, without.CategoricalStats, with.CategoricalStats)
	assert.Equal(t, 1, with.TaskStats[9].Skipped)
	assert.Equal(t, 0, with.TaskStats[9].Results)

	counted := base.Clone()
	counted.Tasks = append(counted.Tasks, bonus)
	report := ComputeStatistics([]models.TestSession{counted}, protocol)
	assert.Equal(t, 1, report.CategoricalStats["autonomy"]["blocked"])
	assert.Equal(t, 7, report.NumericalMetrics["ease"].Count, "bonus ease is never counted")
}

func TestSearchMethodFansOut(t *testing.T) {
	session := models.TestSession{ID: "s", Tasks: models.TaskList{{
		TaskID:       3,
		Success:      true,
		SearchMethod: models.StringList{"search-bar", "visual-catalog"},
	}}}

	report := ComputeStatistics([]models.TestSession{session}, testProtocol())

	dist := report.CategoricalStats["searchMethod"]
	assert.Equal(t, 1, dist["search-bar"])
	assert.Equal(t, 1, dist["visual-catalog"])
	assert.Len(t, dist, 2)
}

func TestAutonomyRateIgnoresUnanswered(t *testing.T) {
	session := models.TestSession{ID: "s", Tasks: models.TaskList{
		{TaskID: 2, Success: true, Autonomy: "autonomous"},
		{TaskID: 3, Success: true, Autonomy: "guided"},
		{TaskID: 4, Success: false},
		{TaskID: 1, Autonomy: "autonomous"},
	}}

	report := ComputeStatistics([]models.TestSession{session}, testProtocol())

	require.NotNil(t, report.AutonomyRate)
	assert.InDelta(t, 50.0, *report.AutonomyRate, 1e-9)
	assert.InDelta(t, 66.666, report.SuccessRate, 0.01)
}

func TestOrphanResultsAreNotGrouped(t *testing.T) {
	session := models.TestSession{ID: "s", Tasks: models.TaskList{
		{TaskID: 77, TaskTitle: "Ancienne tâche", Success: true},
	}}

	report := ComputeStatistics([]models.TestSession{session}, testProtocol())

	assert.Equal(t, 100.0, report.SuccessRate)
	for _, st := range report.TaskStats {
		assert.Zero(t, st.Results)
	}
}
