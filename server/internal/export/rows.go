// Package export flattens sessions and reports into tabular files.
package export

import (
	"strconv"
	"strings"

	"testons-go/server/internal/metrics"
	"testons-go/server/internal/models"
	"testons-go/server/internal/sentiment"
)

// sessionColumns are the per-result columns, in file order.
var sessionColumns = []string{
	"sessionId", "date", "participant", "role", "aiToolsFrequency", "aliviaFrequency",
	"taskId", "taskTitle", "category", "success", "skipped", "notAttempted",
	"duration", "autonomy", "pathFluidity", "emotionalReaction", "searchMethod",
	"ease", "valuePropositionClarity", "firstImpression", "postTestAdoption",
}

// SessionHeader returns the display header of the session table.
func SessionHeader() []string {
	out := make([]string, len(sessionColumns))
	for i, c := range sessionColumns {
		out[i] = metrics.Label(c)
	}
	return out
}

// SessionRows returns one row per task result. Numeric scales stay numbers and
// absent values are nil so spreadsheet cells are left blank.
func SessionRows(sessions []models.TestSession, protocol []models.TaskDefinition) [][]any {
	var rows [][]any
	for _, s := range sessions {
		for _, r := range s.Tasks {
			res := metrics.Resolve(r, protocol)
			rows = append(rows, []any{
				s.ID,
				s.Date.Format("2006-01-02"),
				s.Participant.Name,
				s.Participant.Role,
				labelOrNil(s.Participant.AIToolsFrequency),
				labelOrNil(s.Participant.AliviaFrequency),
				r.TaskID,
				res.Ref.Title,
				res.Category.String(),
				r.Success,
				r.Skipped,
				r.NotAttempted,
				labelOrNil(r.Duration),
				labelOrNil(r.Autonomy),
				labelOrNil(r.PathFluidity),
				labelOrNil(r.EmotionalReaction),
				joinLabels(r.SearchMethod),
				intOrNil(r.Ease),
				intOrNil(r.ValuePropositionClarity),
				intOrNil(r.FirstImpression),
				intOrNil(r.PostTestAdoption),
			})
		}
	}
	return rows
}

// TaskHeader is the header of the per-task summary table.
func TaskHeader() []string {
	return []string{"ID", "Tâche", "Catégorie", "Résultats", "Ignorées", "Réussites", "Taux de réussite (%)",
		metrics.Label("ease"), metrics.Label("valuePropositionClarity"), metrics.Label("firstImpression"), metrics.Label("postTestAdoption")}
}

// TaskRows summarizes each task of the report.
func TaskRows(r metrics.Report) [][]any {
	rows := make([][]any, 0, len(r.TaskStats))
	for _, ts := range r.TaskStats {
		row := []any{ts.TaskID, ts.Title, ts.Category.String(), ts.Results, ts.Skipped, ts.Successes, floatOrNil(ts.SuccessRate)}
		for _, key := range []string{"ease", "valuePropositionClarity", "firstImpression", "postTestAdoption"} {
			avg := ts.NumericalMetrics[key].Average()
			if avg.Calculated {
				row = append(row, round2(avg.Value))
			} else {
				row = append(row, nil)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// SummaryRows lists the headline figures as label/value pairs.
func SummaryRows(r metrics.Report) [][]any {
	rows := [][]any{
		{"Sessions", r.SessionCount},
		{"Taux de réussite (%)", round2(r.SuccessRate)},
		{"Taux d'autonomie (%)", floatOrNil(r.AutonomyRate)},
		{"Score d'adoption", floatOrNil(r.AdoptionScore)},
	}
	for _, key := range metrics.NumericMetrics {
		avg := r.NumericalMetrics[key].Average()
		if !avg.Calculated {
			continue
		}
		rows = append(rows, []any{metrics.Label(key), round2(avg.Value)})
	}
	return rows
}

// VerbatimHeader is the header of the quotes table.
func VerbatimHeader() []string {
	return []string{"Session", "Participant", "Tâche", "Champ", "Sentiment", "Verbatim"}
}

// VerbatimRows lists every quote, positive then negative then neutral.
func VerbatimRows(v sentiment.Verbatims) [][]any {
	all := v.All()
	rows := make([][]any, 0, len(all))
	for _, q := range all {
		rows = append(rows, []any{q.SessionID, q.Participant, q.TaskTitle, q.Field, string(q.Sentiment), q.Text})
	}
	return rows
}

func labelOrNil(v string) any {
	if v == "" {
		return nil
	}
	return metrics.Label(v)
}

func joinLabels(values models.StringList) any {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = metrics.Label(v)
	}
	return strings.Join(out, ", ")
}

func intOrNil(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatOrNil(p *float64) any {
	if p == nil {
		return nil
	}
	return round2(*p)
}

func round2(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return f
}

// formatCell renders a cell for text formats.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "oui"
		}
		return "non"
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}
