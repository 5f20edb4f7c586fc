package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Participant is the profile of the person running a session.
type Participant struct {
	Name             string `json:"name"`
	Role             string `json:"role"`
	AIToolsFrequency string `json:"aiToolsFrequency,omitempty"`
	AIToolsEase      *int   `json:"aiToolsEase,omitempty"`
	AliviaFrequency  string `json:"aliviaFrequency,omitempty"`
}

func (p *Participant) UnmarshalJSON(data []byte) error {
	type plain Participant
	aux := struct {
		*plain
		AIToolsEase json.RawMessage `json:"aiToolsEase"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.AIToolsEase = decodeScale(aux.AIToolsEase)
	return nil
}

// TaskResult is one participant's recorded outcome for one task, as stored.
// Numeric scales are pointers so an unanswered field is distinguishable from 0.
type TaskResult struct {
	TaskID       int    `json:"taskId"`
	TaskTitle    string `json:"taskTitle,omitempty"`
	Success      bool   `json:"success"`
	Skipped      bool   `json:"skipped,omitempty"`
	NotAttempted bool   `json:"notAttempted,omitempty"`

	Duration          string     `json:"duration,omitempty"`
	Autonomy          string     `json:"autonomy,omitempty"`
	PathFluidity      string     `json:"pathFluidity,omitempty"`
	EmotionalReaction string     `json:"emotionalReaction,omitempty"`
	SearchMethod      StringList `json:"searchMethod,omitempty"`

	Ease                    *int `json:"ease,omitempty"`
	ValuePropositionClarity *int `json:"valuePropositionClarity,omitempty"`
	FirstImpression         *int `json:"firstImpression,omitempty"`
	PostTestAdoption        *int `json:"postTestAdoption,omitempty"`

	// AdoptionScore is the pre-merge name of the adoption scale on the retired bonus task.
	AdoptionScore *int `json:"adoptionScore,omitempty"`

	Notes                 string `json:"notes,omitempty"`
	TaskVerbatimsPositive string `json:"taskVerbatimsPositive,omitempty"`
	TaskVerbatimsNegative string `json:"taskVerbatimsNegative,omitempty"`
	PostTestFrustrations  string `json:"postTestFrustrations,omitempty"`
	PostTestDataStorage   string `json:"postTestDataStorage,omitempty"`
	PostTestPracticalUse  string `json:"postTestPracticalUse,omitempty"`
}

// UnmarshalJSON accepts scales written as numbers or numeric strings.
// A scale that is neither reads as unanswered.
func (r *TaskResult) UnmarshalJSON(data []byte) error {
	type plain TaskResult
	aux := struct {
		*plain
		Ease                    json.RawMessage `json:"ease"`
		ValuePropositionClarity json.RawMessage `json:"valuePropositionClarity"`
		FirstImpression         json.RawMessage `json:"firstImpression"`
		PostTestAdoption        json.RawMessage `json:"postTestAdoption"`
		AdoptionScore           json.RawMessage `json:"adoptionScore"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Ease = decodeScale(aux.Ease)
	r.ValuePropositionClarity = decodeScale(aux.ValuePropositionClarity)
	r.FirstImpression = decodeScale(aux.FirstImpression)
	r.PostTestAdoption = decodeScale(aux.PostTestAdoption)
	r.AdoptionScore = decodeScale(aux.AdoptionScore)
	return nil
}

// Clone returns a deep copy of the result.
func (r TaskResult) Clone() TaskResult {
	c := r
	c.SearchMethod = append(StringList(nil), r.SearchMethod...)
	c.Ease = cloneInt(r.Ease)
	c.ValuePropositionClarity = cloneInt(r.ValuePropositionClarity)
	c.FirstImpression = cloneInt(r.FirstImpression)
	c.PostTestAdoption = cloneInt(r.PostTestAdoption)
	c.AdoptionScore = cloneInt(r.AdoptionScore)
	return c
}

// TestSession is one moderated run of the protocol with a participant.
type TestSession struct {
	ID                  string      `json:"id"`
	Date                time.Time   `json:"date"`
	Participant         Participant `json:"participant"`
	Tasks               TaskList    `json:"tasks"`
	GeneralObservations string      `json:"generalObservations,omitempty"`
	RecordingURL        string      `json:"recordingUrl,omitempty"`

	// DroppedTasks counts stored task entries that could not be decoded.
	// A session with dropped entries must not be written back as is.
	DroppedTasks int `json:"-"`
}

// UnmarshalJSON reads the legacy date shapes and keeps the decodable tasks
// when some entries are malformed.
func (s *TestSession) UnmarshalJSON(data []byte) error {
	type plain TestSession
	aux := struct {
		*plain
		Date  json.RawMessage `json:"date"`
		Tasks json.RawMessage `json:"tasks"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Date = decodeDate(aux.Date)
	s.Tasks, s.DroppedTasks = decodeTasks(aux.Tasks)
	return nil
}

// Clone returns a deep copy of the session.
func (s TestSession) Clone() TestSession {
	c := s
	c.Participant.AIToolsEase = cloneInt(s.Participant.AIToolsEase)
	if s.Tasks != nil {
		c.Tasks = make(TaskList, len(s.Tasks))
		for i, t := range s.Tasks {
			c.Tasks[i] = t.Clone()
		}
	}
	return c
}

// RecordingRef points at an uploaded session recording.
type RecordingRef struct {
	SessionID   string    `json:"sessionId"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// TaskList decodes leniently: anything that is not a JSON array becomes an
// empty list and malformed entries are skipped.
type TaskList []TaskResult

func (l *TaskList) UnmarshalJSON(data []byte) error {
	*l, _ = decodeTasks(data)
	return nil
}

func decodeTasks(data []byte) (TaskList, int) {
	var items []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &items); err != nil {
		return TaskList{}, 0
	}
	tasks := make(TaskList, 0, len(items))
	dropped := 0
	for _, item := range items {
		var t TaskResult
		if err := json.Unmarshal(item, &t); err != nil {
			dropped++
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, dropped
}

// legacyDateLayouts are the date shapes written by earlier clients.
var legacyDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// decodeDate accepts RFC 3339, the legacy layouts and Unix milliseconds.
// An unreadable date decodes as the zero time.
func decodeDate(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}
	if raw[0] != '"' {
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return time.Time{}
		}
		return time.UnixMilli(ms).UTC()
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return time.Time{}
	}
	text = strings.TrimSpace(text)
	for _, layout := range legacyDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t
		}
	}
	return time.Time{}
}

// decodeScale reads a scale stored as a number or a numeric string.
func decodeScale(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil
		}
		text = strings.TrimSpace(text)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) {
		return nil
	}
	v := int(f)
	return &v
}

// StringList accepts both a JSON array and the legacy single-string shape.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if trimmed[0] == '"' {
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		if single == "" {
			*l = nil
		} else {
			*l = StringList{single}
		}
		return nil
	}
	var items []string
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// IntPtr is a helper for building optional scale values.
func IntPtr(v int) *int {
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
