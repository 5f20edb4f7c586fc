package sentiment

import (
	"strings"

	"testons-go/server/internal/metrics"
	"testons-go/server/internal/models"
)

// Verbatim is one free-text quote attributed to a participant.
type Verbatim struct {
	SessionID   string    `json:"sessionId"`
	Participant string    `json:"participant"`
	TaskID      int       `json:"taskId,omitempty"`
	TaskTitle   string    `json:"taskTitle,omitempty"`
	Field       string    `json:"field"`
	Text        string    `json:"text"`
	Sentiment   Sentiment `json:"sentiment"`
}

// Verbatims groups quotes by sentiment, in session order.
type Verbatims struct {
	Positive []Verbatim `json:"positive"`
	Negative []Verbatim `json:"negative"`
	Neutral  []Verbatim `json:"neutral"`
}

// All returns every verbatim regardless of bucket.
func (v Verbatims) All() []Verbatim {
	out := make([]Verbatim, 0, len(v.Positive)+len(v.Negative)+len(v.Neutral))
	out = append(out, v.Positive...)
	out = append(out, v.Negative...)
	return append(out, v.Neutral...)
}

// textField is a free-text field of a task result. A fixed sentiment means the
// collection context already says it; otherwise the heuristic runs.
type textField struct {
	name   string
	get    func(models.TaskResult) string
	forced Sentiment
}

var taskTextFields = []textField{
	{name: "taskVerbatimsPositive", get: func(r models.TaskResult) string { return r.TaskVerbatimsPositive }, forced: Positive},
	{name: "taskVerbatimsNegative", get: func(r models.TaskResult) string { return r.TaskVerbatimsNegative }, forced: Negative},
	{name: "postTestFrustrations", get: func(r models.TaskResult) string { return r.PostTestFrustrations }, forced: Negative},
	{name: "notes", get: func(r models.TaskResult) string { return r.Notes }},
	{name: "postTestPracticalUse", get: func(r models.TaskResult) string { return r.PostTestPracticalUse }},
	{name: "postTestDataStorage", get: func(r models.TaskResult) string { return r.PostTestDataStorage }},
}

// CollectVerbatims extracts and buckets every non-empty free-text field of the
// sessions. Skipped results are left out.
func CollectVerbatims(sessions []models.TestSession, protocol []models.TaskDefinition) Verbatims {
	out := Verbatims{Positive: []Verbatim{}, Negative: []Verbatim{}, Neutral: []Verbatim{}}
	add := func(v Verbatim) {
		switch v.Sentiment {
		case Positive:
			out.Positive = append(out.Positive, v)
		case Negative:
			out.Negative = append(out.Negative, v)
		default:
			out.Neutral = append(out.Neutral, v)
		}
	}

	for _, s := range sessions {
		for _, r := range s.Tasks {
			if r.Skipped {
				continue
			}
			title := metrics.Resolve(r, protocol).Ref.Title
			for _, f := range taskTextFields {
				text := strings.TrimSpace(f.get(r))
				if text == "" {
					continue
				}
				sentiment := f.forced
				if sentiment == "" {
					sentiment = Classify(text)
				}
				add(Verbatim{
					SessionID:   s.ID,
					Participant: s.Participant.Name,
					TaskID:      r.TaskID,
					TaskTitle:   title,
					Field:       f.name,
					Text:        text,
					Sentiment:   sentiment,
				})
			}
		}

		if text := strings.TrimSpace(s.GeneralObservations); text != "" {
			add(Verbatim{
				SessionID:   s.ID,
				Participant: s.Participant.Name,
				Field:       "generalObservations",
				Text:        text,
				Sentiment:   Classify(text),
			})
		}
	}
	return out
}
