package metrics

import "fmt"

// Insight thresholds. Rates are percentages, scores are on the 1-10 scale.
const (
	successStrength  = 80.0
	successWeak      = 70.0
	scoreStrength    = 8.0
	scoreWeak        = 6.0
	autonomyStrength = 70.0
	autonomyWeak     = 50.0
	positiveWeak     = 50.0
	adoptionGood     = 6.0
	adoptionWeak     = 5.0
)

// GenerateInsights applies the fixed threshold rules to a report. The success
// rule is only evaluated when at least one result could succeed.
func GenerateInsights(r Report, hasSuccessSamples bool) Insights {
	in := Insights{Strengths: []string{}, Improvements: []string{}}

	if hasSuccessSamples {
		switch {
		case r.SuccessRate >= successStrength:
			in.Strengths = append(in.Strengths, fmt.Sprintf("Taux de succès élevé : %.0f%% des tâches réussies", r.SuccessRate))
		case r.SuccessRate < successWeak:
			in.Improvements = append(in.Improvements, fmt.Sprintf("Taux de succès à améliorer : %.0f%% des tâches réussies", r.SuccessRate))
		}
	}

	// The adoption scale has its own rule below.
	for _, key := range NumericMetrics {
		if key == "postTestAdoption" {
			continue
		}
		avg := r.NumericalMetrics[key].Average()
		if !avg.Calculated {
			continue
		}
		switch {
		case avg.Value >= scoreStrength:
			in.Strengths = append(in.Strengths, fmt.Sprintf("%s bien évaluée (%.1f/10)", Label(key), avg.Value))
		case avg.Value < scoreWeak:
			in.Improvements = append(in.Improvements, fmt.Sprintf("%s à améliorer (%.1f/10)", Label(key), avg.Value))
		}
	}

	if r.AutonomyRate != nil {
		switch {
		case *r.AutonomyRate >= autonomyStrength:
			in.Strengths = append(in.Strengths, fmt.Sprintf("Bonne autonomie des participants (%.0f%%)", *r.AutonomyRate))
		case *r.AutonomyRate < autonomyWeak:
			in.Improvements = append(in.Improvements, fmt.Sprintf("Autonomie insuffisante (%.0f%%)", *r.AutonomyRate))
		}
	}

	if reactions := r.CategoricalStats["emotionalReaction"]; len(reactions) > 0 {
		total := 0
		for _, n := range reactions {
			total += n
		}
		share := percent(reactions["positive"], total)
		if share < positiveWeak {
			in.Improvements = append(in.Improvements, fmt.Sprintf("Réactions émotionnelles majoritairement non positives (%.0f%% positives)", share))
		}
	}

	if r.AdoptionScore != nil {
		score := *r.AdoptionScore
		switch {
		case score >= scoreStrength:
			in.Strengths = append(in.Strengths, fmt.Sprintf("Excellente intention d'adoption (%.1f/10)", score))
		case score >= adoptionGood:
			in.Strengths = append(in.Strengths, fmt.Sprintf("Bon potentiel d'adoption (%.1f/10)", score))
		case score < adoptionWeak:
			in.Improvements = append(in.Improvements, fmt.Sprintf("Intention d'adoption faible (%.1f/10)", score))
		}
	}

	return in
}
