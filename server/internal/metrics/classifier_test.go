package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"testons-go/server/internal/models"
)

func testProtocol() []models.TaskDefinition {
	return []models.TaskDefinition{
		{ID: 1, Title: "Découverte de la plateforme"},
		{ID: 2, Title: "Se connecter et explorer le tableau de bord"},
		{ID: 3, Title: "Trouver le bon assistant"},
		{ID: 4, Title: "Poser une question à un assistant"},
		{ID: 5, Title: "Importer un document"},
		{ID: 6, Title: "Partager une conversation"},
		{ID: 7, Title: "Personnaliser un assistant"},
		{ID: 8, Title: "Consulter l'historique"},
		{ID: 9, Title: "Questions post-test"},
	}
}

func TestTaskCategory(t *testing.T) {
	tests := []struct {
		name string
		ref  TaskRef
		want models.Category
	}{
		{"discovery by id", TaskRef{ID: 1, Title: "Anything"}, models.Discovery},
		{"discovery by title", TaskRef{ID: 42, Title: "Phase de DÉCOUVERTE libre"}, models.Discovery},
		{"post-test by id", TaskRef{ID: 9}, models.PostTest},
		{"post-test by title", TaskRef{ID: 12, Title: "Questionnaire Post-Test"}, models.PostTest},
		{"standard", TaskRef{ID: 4, Title: "Poser une question"}, models.Standard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TaskCategory(tt.ref))
		})
	}
}

func TestIsMetricApplicable(t *testing.T) {
	tests := []struct {
		key      string
		category models.Category
		bonus    bool
		want     bool
	}{
		{"ease", models.Standard, false, true},
		{"ease", models.Standard, true, false},
		{"ease", models.Discovery, false, false},
		{"ease", models.PostTest, false, false},
		{"valuePropositionClarity", models.Discovery, false, true},
		{"valuePropositionClarity", models.Standard, false, false},
		{"firstImpression", models.PostTest, false, false},
		{"postTestAdoption", models.PostTest, false, true},
		{"postTestAdoption", models.Standard, false, false},
		{"autonomy", models.Discovery, false, false},
		{"autonomy", models.Standard, true, true},
		{"duration", models.PostTest, false, false},
		{"pathFluidity", models.Standard, false, true},
		{"emotionalReaction", models.Discovery, false, false},
		{"emotionalReaction", models.PostTest, false, true},
		{"searchMethod", models.Standard, false, true},
		{"unknownMetric", models.Standard, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.category.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, IsMetricApplicable(tt.key, tt.category, tt.bonus))
		})
	}
}

func TestLabelDefaultsToKey(t *testing.T) {
	assert.Equal(t, "Autonome", Label("autonomous"))
	assert.Equal(t, "Facilité d'utilisation", Label("ease"))
	assert.Equal(t, "some-new-key", Label("some-new-key"))
	assert.Equal(t, "", Label(""))
}

func TestClassifyKeepsOnlyApplicableFields(t *testing.T) {
	protocol := testProtocol()
	protocol = append(protocol, models.TaskDefinition{ID: 11, Title: "Tâche bonus", Optional: true})

	t.Run("discovery drops ease and usage", func(t *testing.T) {
		out := Classify(models.TaskResult{
			TaskID:                  1,
			Ease:                    models.IntPtr(5),
			Autonomy:                "guided",
			ValuePropositionClarity: models.IntPtr(8),
		}, protocol)
		d, ok := out.(models.DiscoveryOutcome)
		assert.True(t, ok)
		assert.Equal(t, map[string]int{"valuePropositionClarity": 8}, d.Scales())
		assert.Empty(t, d.Choices())
	})

	t.Run("bonus task has no ease", func(t *testing.T) {
		out := Classify(models.TaskResult{TaskID: 11, Ease: models.IntPtr(9), Autonomy: "autonomous"}, protocol)
		s, ok := out.(models.StandardOutcome)
		assert.True(t, ok)
		assert.Nil(t, s.Ease)
		assert.True(t, s.Optional)
		assert.Equal(t, []string{"autonomous"}, s.Choices()["autonomy"])
	})

	t.Run("search method only on the search task", func(t *testing.T) {
		onSearch := Classify(models.TaskResult{TaskID: 3, SearchMethod: models.StringList{"search-bar"}}, protocol)
		elsewhere := Classify(models.TaskResult{TaskID: 4, SearchMethod: models.StringList{"search-bar"}}, protocol)
		assert.Equal(t, []string{"search-bar"}, onSearch.Choices()["searchMethod"])
		assert.NotContains(t, elsewhere.Choices(), "searchMethod")
	})

	t.Run("post-test keeps adoption", func(t *testing.T) {
		out := Classify(models.TaskResult{TaskID: 9, PostTestAdoption: models.IntPtr(7), Ease: models.IntPtr(3)}, protocol)
		assert.Equal(t, models.PostTest, out.Category())
		assert.Equal(t, map[string]int{"postTestAdoption": 7}, out.Scales())
	})
}
