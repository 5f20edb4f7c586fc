package metrics

import (
	"github.com/montanaflynn/stats"

	"testons-go/server/internal/models"
)

// MetricResult is a derived value together with the number of samples behind it.
type MetricResult struct {
	Value      float64 `json:"value"`
	Calculated bool    `json:"calculated"`
	SampleSize int     `json:"sampleSize,omitempty"`
}

// MetricTotal keeps a numeric metric undivided so the sample count stays visible.
type MetricTotal struct {
	TotalScore float64 `json:"totalScore"`
	Count      int     `json:"count"`
}

// Average divides lazily; an empty total is reported as not calculated.
func (t MetricTotal) Average() MetricResult {
	if t.Count == 0 {
		return MetricResult{}
	}
	return MetricResult{Value: t.TotalScore / float64(t.Count), Calculated: true, SampleSize: t.Count}
}

// TaskStat is the breakdown of one protocol task.
type TaskStat struct {
	TaskID           int                       `json:"taskId"`
	Title            string                    `json:"title"`
	Category         models.Category           `json:"category"`
	Optional         bool                      `json:"optional"`
	Results          int                       `json:"results"`
	Skipped          int                       `json:"skipped"`
	Successes        int                       `json:"successes"`
	SuccessRate      *float64                  `json:"successRate"`
	NumericalMetrics map[string]MetricTotal    `json:"numericalMetrics"`
	Medians          map[string]float64        `json:"medians"`
	CategoricalStats map[string]map[string]int `json:"categoricalStats"`
}

// Insights are the threshold-driven observations of a report.
type Insights struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// Report is the aggregate view over every session of a protocol. It is derived
// on each call and never stored.
type Report struct {
	SessionCount     int                       `json:"sessionCount"`
	SuccessRate      float64                   `json:"successRate"`
	AutonomyRate     *float64                  `json:"autonomyRate"`
	AdoptionScore    *float64                  `json:"adoptionScore"`
	NumericalMetrics map[string]MetricTotal    `json:"numericalMetrics"`
	CategoricalStats map[string]map[string]int `json:"categoricalStats"`
	ParticipantStats map[string]map[string]int `json:"participantStats"`
	TaskStats        []TaskStat                `json:"taskStats"`
	Insights         Insights                  `json:"insights"`
}

// ComputeStatistics aggregates the sessions against the protocol. Skipped
// results are ignored everywhere; every other field only counts where its
// category collects it.
func ComputeStatistics(sessions []models.TestSession, protocol []models.TaskDefinition) Report {
	report := Report{
		SessionCount:     len(sessions),
		NumericalMetrics: map[string]MetricTotal{},
		CategoricalStats: map[string]map[string]int{},
		ParticipantStats: map[string]map[string]int{},
		TaskStats:        []TaskStat{},
		Insights:         Insights{Strengths: []string{}, Improvements: []string{}},
	}

	var outcomes []models.Outcome
	skipped := make(map[int]int)
	for _, s := range sessions {
		countParticipant(report.ParticipantStats, s.Participant)
		for _, r := range s.Tasks {
			if r.Skipped {
				skipped[r.TaskID]++
				continue
			}
			outcomes = append(outcomes, Classify(r, protocol))
		}
	}

	attempts, successes := successCounts(outcomes)
	report.SuccessRate = percent(successes, attempts)
	report.AutonomyRate = autonomyRate(outcomes)
	report.NumericalMetrics = sumScales(outcomes)
	report.CategoricalStats = countChoices(outcomes)
	report.AdoptionScore = adoptionScore(outcomes)

	byTask := make(map[int][]models.Outcome)
	for _, o := range outcomes {
		id := o.Core().TaskID
		byTask[id] = append(byTask[id], o)
	}
	for _, def := range protocol {
		report.TaskStats = append(report.TaskStats, taskStat(def, byTask[def.ID], skipped[def.ID]))
	}

	report.Insights = GenerateInsights(report, attempts > 0)
	return report
}

func taskStat(def models.TaskDefinition, outcomes []models.Outcome, skipped int) TaskStat {
	res := Resolve(models.TaskResult{TaskID: def.ID, TaskTitle: def.Title}, []models.TaskDefinition{def})
	st := TaskStat{
		TaskID:           def.ID,
		Title:            def.Title,
		Category:         res.Category,
		Optional:         res.Optional,
		Results:          len(outcomes),
		Skipped:          skipped,
		NumericalMetrics: sumScales(outcomes),
		Medians:          medians(outcomes),
		CategoricalStats: countChoices(outcomes),
	}
	attempts, successes := successCounts(outcomes)
	st.Successes = successes
	if res.Category == models.Standard {
		rate := percent(successes, attempts)
		st.SuccessRate = &rate
	}
	return st
}

func successCounts(outcomes []models.Outcome) (attempts, successes int) {
	for _, o := range outcomes {
		if o.Category() != models.Standard {
			continue
		}
		attempts++
		if o.Core().Success {
			successes++
		}
	}
	return attempts, successes
}

func autonomyRate(outcomes []models.Outcome) *float64 {
	var answered, autonomous int
	for _, o := range outcomes {
		values := o.Choices()["autonomy"]
		if len(values) == 0 {
			continue
		}
		answered++
		if values[0] == "autonomous" {
			autonomous++
		}
	}
	if answered == 0 {
		return nil
	}
	rate := percent(autonomous, answered)
	return &rate
}

func adoptionScore(outcomes []models.Outcome) *float64 {
	var values []float64
	for _, o := range outcomes {
		if o.Category() != models.PostTest {
			continue
		}
		if v, ok := o.Scales()["postTestAdoption"]; ok {
			values = append(values, float64(v))
		}
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return nil
	}
	return &mean
}

func sumScales(outcomes []models.Outcome) map[string]MetricTotal {
	totals := make(map[string]MetricTotal)
	for _, o := range outcomes {
		for key, v := range o.Scales() {
			t := totals[key]
			t.TotalScore += float64(v)
			t.Count++
			totals[key] = t
		}
	}
	return totals
}

func medians(outcomes []models.Outcome) map[string]float64 {
	samples := make(map[string][]float64)
	for _, o := range outcomes {
		for key, v := range o.Scales() {
			samples[key] = append(samples[key], float64(v))
		}
	}
	out := make(map[string]float64, len(samples))
	for key, data := range samples {
		if m, err := stats.Median(data); err == nil {
			out[key] = m
		}
	}
	return out
}

// countChoices builds frequency maps; multi-valued answers count once per value.
func countChoices(outcomes []models.Outcome) map[string]map[string]int {
	dist := make(map[string]map[string]int)
	for _, o := range outcomes {
		for key, values := range o.Choices() {
			for _, v := range values {
				if v == "" {
					continue
				}
				if dist[key] == nil {
					dist[key] = make(map[string]int)
				}
				dist[key][v]++
			}
		}
	}
	return dist
}

func countParticipant(dist map[string]map[string]int, p models.Participant) {
	add := func(key, value string) {
		if value == "" {
			return
		}
		if dist[key] == nil {
			dist[key] = make(map[string]int)
		}
		dist[key][value]++
	}
	add("role", p.Role)
	add("aiToolsFrequency", p.AIToolsFrequency)
	add("aliviaFrequency", p.AliviaFrequency)
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
