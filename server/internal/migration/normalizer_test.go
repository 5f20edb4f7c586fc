package migration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testons-go/server/internal/metrics"
	"testons-go/server/internal/models"
)

func protocol() []models.TaskDefinition {
	return []models.TaskDefinition{
		{ID: 1, Title: "Découverte de la plateforme"},
		{ID: 2, Title: "Se connecter"},
		{ID: 3, Title: "Trouver le bon assistant"},
		{ID: 4, Title: "Importer un document"},
		{ID: 8, Title: "Bonus : historique", Optional: true},
		{ID: 9, Title: "Questions post-test"},
	}
}

func fullSession(id string) models.TestSession {
	return models.TestSession{
		ID:          id,
		Participant: models.Participant{Name: "Camille", Role: "juriste"},
		Tasks: models.TaskList{
			{TaskID: 1, TaskTitle: "Découverte de la plateforme", ValuePropositionClarity: models.IntPtr(8)},
			{TaskID: 2, TaskTitle: "Se connecter", Success: true, Ease: models.IntPtr(7)},
			{TaskID: 3, TaskTitle: "Trouver le bon assistant", Success: true, SearchMethod: models.StringList{"search-bar"}},
			{TaskID: 4, TaskTitle: "Importer un document", Success: false},
			{TaskID: 8, TaskTitle: "Bonus : historique", Skipped: true},
			{TaskID: 9, TaskTitle: "Questions post-test", PostTestAdoption: models.IntPtr(7)},
		},
	}
}

func TestNormalizeCleanSessionIsUnchanged(t *testing.T) {
	in := []models.TestSession{fullSession("s1")}

	res := Normalize(in, protocol())

	assert.False(t, res.Changed)
	assert.Empty(t, res.Repaired)
	assert.Equal(t, in, res.Sessions)
}

func TestNormalizeFoldsRetiredBonusIntoPostTest(t *testing.T) {
	s := fullSession("s1")
	s.Tasks = s.Tasks[:5]
	s.Tasks = append(s.Tasks, models.TaskResult{
		TaskID:           10,
		TaskTitle:        "Bonus : Créer un assistant",
		Success:          true,
		PostTestAdoption: models.IntPtr(9),
	})

	res := Normalize([]models.TestSession{s}, protocol())

	require.True(t, res.Changed)
	assert.Equal(t, []string{"s1"}, res.Repaired)
	tasks := res.Sessions[0].Tasks
	var postTest *models.TaskResult
	for i := range tasks {
		assert.NotEqual(t, 10, tasks[i].TaskID)
		if metrics.TaskCategory(metrics.TaskRef{ID: tasks[i].TaskID, Title: tasks[i].TaskTitle}) == models.PostTest {
			postTest = &tasks[i]
		}
	}
	require.NotNil(t, postTest)
	require.NotNil(t, postTest.PostTestAdoption)
	assert.Equal(t, 9, *postTest.PostTestAdoption)
	assert.Len(t, tasks, 6)
}

func TestNormalizeNeverOverwritesMergedValue(t *testing.T) {
	s := fullSession("s1")
	s.Tasks = append(s.Tasks, models.TaskResult{TaskID: 10, AdoptionScore: models.IntPtr(2)})

	res := Normalize([]models.TestSession{s}, protocol())

	require.True(t, res.Changed)
	post := res.Sessions[0].Tasks[5]
	assert.Equal(t, 9, post.TaskID)
	assert.Equal(t, 7, *post.PostTestAdoption)
	assert.Len(t, res.Sessions[0].Tasks, 6)
}

func TestNormalizeRepairsIdentityByTitle(t *testing.T) {
	s := fullSession("s1")
	s.Tasks[3].TaskID = 40
	s.Tasks[3].TaskTitle = "importer un document PDF"

	res := Normalize([]models.TestSession{s}, protocol())

	require.True(t, res.Changed)
	assert.Equal(t, 4, res.Sessions[0].Tasks[3].TaskID)
}

func TestNormalizeLeavesUnmatchedIdentity(t *testing.T) {
	s := fullSession("s1")
	s.Tasks = append(s.Tasks, models.TaskResult{TaskID: 55, TaskTitle: "Tâche supprimée", Success: true})

	res := Normalize([]models.TestSession{s}, protocol())

	assert.False(t, res.Changed)
	assert.Equal(t, 55, res.Sessions[0].Tasks[6].TaskID)
}

func TestNormalizePrunesFieldsByCategory(t *testing.T) {
	s := fullSession("s1")
	s.Tasks[0].Ease = models.IntPtr(4)
	s.Tasks[0].Autonomy = "guided"
	s.Tasks[1].FirstImpression = models.IntPtr(6)
	s.Tasks[1].SearchMethod = models.StringList{"visual-catalog"}
	s.Tasks[4].Ease = models.IntPtr(9)
	s.Tasks[5].Ease = models.IntPtr(3)
	s.Tasks[5].Duration = "1-3min"
	s.Tasks[2].Skipped = true

	res := Normalize([]models.TestSession{s}, protocol())

	require.True(t, res.Changed)
	tasks := res.Sessions[0].Tasks
	assert.Nil(t, tasks[0].Ease)
	assert.Empty(t, tasks[0].Autonomy)
	assert.NotNil(t, tasks[0].ValuePropositionClarity)
	assert.Nil(t, tasks[1].FirstImpression)
	assert.Nil(t, tasks[1].SearchMethod)
	assert.NotNil(t, tasks[1].Ease)
	assert.Nil(t, tasks[4].Ease)
	assert.True(t, tasks[4].Skipped, "optional tasks keep their skipped marker")
	assert.False(t, tasks[2].Skipped)
	assert.Nil(t, tasks[5].Ease)
	assert.Empty(t, tasks[5].Duration)
	assert.Equal(t, 7, *tasks[5].PostTestAdoption)
}

func TestNormalizeMovesLegacyAdoptionScore(t *testing.T) {
	s := fullSession("s1")
	s.Tasks[5].PostTestAdoption = nil
	s.Tasks[5].AdoptionScore = models.IntPtr(6)

	res := Normalize([]models.TestSession{s}, protocol())

	require.True(t, res.Changed)
	post := res.Sessions[0].Tasks[5]
	assert.Nil(t, post.AdoptionScore)
	assert.Equal(t, 6, *post.PostTestAdoption)
}

func TestNormalizeFillsMissingRequiredTask(t *testing.T) {
	s := fullSession("s1")
	s.Tasks = append(s.Tasks[:3:3], s.Tasks[4:]...)

	res := Normalize([]models.TestSession{s}, protocol())

	require.True(t, res.Changed)
	tasks := res.Sessions[0].Tasks
	require.Len(t, tasks, 6)
	placeholder := tasks[4]
	assert.Equal(t, 4, placeholder.TaskID)
	assert.False(t, placeholder.Success)
	assert.True(t, placeholder.NotAttempted)
	assert.Nil(t, placeholder.Ease)
	assert.Equal(t, 9, tasks[5].TaskID)
}

func TestNormalizeAppendsWhenNoPostTest(t *testing.T) {
	s := fullSession("s1")
	s.Tasks = s.Tasks[:2]

	res := Normalize([]models.TestSession{s}, protocol())

	tasks := res.Sessions[0].Tasks
	require.Len(t, tasks, 5)
	assert.Equal(t, []int{1, 2, 3, 4, 9}, taskIDs(tasks))
}

func TestNormalizeSkipsSessionsWithoutTasks(t *testing.T) {
	var s models.TestSession
	require.NoError(t, json.Unmarshal([]byte(`{"id":"broken","tasks":"oops"}`), &s))

	res := Normalize([]models.TestSession{s, {ID: "nil-tasks"}}, protocol())

	assert.False(t, res.Changed)
	assert.Empty(t, res.Sessions[0].Tasks)
	assert.Empty(t, res.Sessions[1].Tasks)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	messy := fullSession("s1")
	messy.Tasks[0].Ease = models.IntPtr(3)
	messy.Tasks[3].TaskID = 99
	messy.Tasks[3].TaskTitle = "Importer un document"
	messy.Tasks = append(messy.Tasks[:2:2], messy.Tasks[3:]...)
	messy.Tasks = append(messy.Tasks, models.TaskResult{TaskID: 10, TaskTitle: "Bonus : créer un assistant", PostTestAdoption: models.IntPtr(4)})

	legacyOnly := models.TestSession{ID: "s2", Tasks: models.TaskList{
		{TaskID: 2, Success: true},
		{TaskID: 10, AdoptionScore: models.IntPtr(9)},
	}}

	inputs := []models.TestSession{messy, legacyOnly, fullSession("s3")}
	first := Normalize(inputs, protocol())
	second := Normalize(first.Sessions, protocol())

	assert.True(t, first.Changed)
	assert.ElementsMatch(t, []string{"s1", "s2"}, first.Repaired)
	assert.False(t, second.Changed)
	assert.Equal(t, first.Sessions, second.Sessions)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	s := fullSession("s1")
	s.Tasks[0].Ease = models.IntPtr(3)

	_ = Normalize([]models.TestSession{s}, protocol())

	require.NotNil(t, s.Tasks[0].Ease)
	assert.Equal(t, 3, *s.Tasks[0].Ease)
}

func TestNormalizedResultsRespectApplicability(t *testing.T) {
	s := fullSession("s1")
	for i := range s.Tasks {
		s.Tasks[i].Ease = models.IntPtr(5)
		s.Tasks[i].FirstImpression = models.IntPtr(5)
		s.Tasks[i].ValuePropositionClarity = models.IntPtr(5)
		s.Tasks[i].PostTestAdoption = models.IntPtr(5)
	}

	res := Normalize([]models.TestSession{s}, protocol())

	for _, r := range res.Sessions[0].Tasks {
		resolved := metrics.Resolve(r, protocol())
		if r.Ease != nil {
			assert.Equal(t, models.Standard, resolved.Category)
			assert.False(t, resolved.Optional)
		}
		if r.FirstImpression != nil || r.ValuePropositionClarity != nil {
			assert.Equal(t, models.Discovery, resolved.Category)
		}
		if r.PostTestAdoption != nil {
			assert.Equal(t, models.PostTest, resolved.Category)
		}
	}
}

func taskIDs(tasks models.TaskList) []int {
	ids := make([]int, len(tasks))
	for i, r := range tasks {
		ids[i] = r.TaskID
	}
	return ids
}
