package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func TestGenerateInsightsThresholds(t *testing.T) {
	tests := []struct {
		name             string
		report           Report
		hasSamples       bool
		wantStrengths    int
		wantImprovements int
	}{
		{
			name:          "high success",
			report:        Report{SuccessRate: 80},
			hasSamples:    true,
			wantStrengths: 1,
		},
		{
			name:       "middle success",
			report:     Report{SuccessRate: 75},
			hasSamples: true,
		},
		{
			name:             "low success",
			report:           Report{SuccessRate: 69.9},
			hasSamples:       true,
			wantImprovements: 1,
		},
		{
			name:   "success without samples is not judged",
			report: Report{SuccessRate: 0},
		},
		{
			name: "numeric averages",
			report: Report{NumericalMetrics: map[string]MetricTotal{
				"ease":                    {TotalScore: 16, Count: 2},
				"firstImpression":         {TotalScore: 11, Count: 2},
				"valuePropositionClarity": {TotalScore: 14, Count: 2},
			}},
			wantStrengths:    1,
			wantImprovements: 1,
		},
		{
			name:          "autonomy strong",
			report:        Report{AutonomyRate: floatPtr(70)},
			wantStrengths: 1,
		},
		{
			name:             "autonomy weak",
			report:           Report{AutonomyRate: floatPtr(49)},
			wantImprovements: 1,
		},
		{
			name: "mostly non positive reactions",
			report: Report{CategoricalStats: map[string]map[string]int{
				"emotionalReaction": {"positive": 1, "neutral": 1, "frustrated": 1},
			}},
			wantImprovements: 1,
		},
		{
			name: "half positive reactions",
			report: Report{CategoricalStats: map[string]map[string]int{
				"emotionalReaction": {"positive": 2, "frustrated": 2},
			}},
		},
		{
			name:          "excellent adoption",
			report:        Report{AdoptionScore: floatPtr(8)},
			wantStrengths: 1,
		},
		{
			name:          "good adoption potential",
			report:        Report{AdoptionScore: floatPtr(7.99)},
			wantStrengths: 1,
		},
		{
			name:   "adoption between five and six",
			report: Report{AdoptionScore: floatPtr(5.5)},
		},
		{
			name:             "weak adoption",
			report:           Report{AdoptionScore: floatPtr(4.9)},
			wantImprovements: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateInsights(tt.report, tt.hasSamples)
			assert.Len(t, got.Strengths, tt.wantStrengths)
			assert.Len(t, got.Improvements, tt.wantImprovements)
		})
	}
}

func TestAdoptionInsightWording(t *testing.T) {
	excellent := GenerateInsights(Report{AdoptionScore: floatPtr(9)}, false)
	good := GenerateInsights(Report{AdoptionScore: floatPtr(6)}, false)

	assert.Contains(t, excellent.Strengths[0], "Excellente")
	assert.Contains(t, good.Strengths[0], "Bon potentiel")
}
