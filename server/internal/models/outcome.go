package models

// Category discriminates the three kinds of task in a protocol.
type Category int

const (
	Standard Category = iota
	Discovery
	PostTest
)

func (c Category) String() string {
	switch c {
	case Discovery:
		return "discovery"
	case PostTest:
		return "post-test"
	default:
		return "standard"
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ResultCore holds what every kind of task result carries.
type ResultCore struct {
	TaskID            int
	Title             string
	Optional          bool
	Success           bool
	NotAttempted      bool
	Notes             string
	VerbatimsPositive string
	VerbatimsNegative string
}

// Outcome is a task result reduced to the fields its category collects.
type Outcome interface {
	Core() ResultCore
	Category() Category
	// Scales returns the numeric answers present on the result, keyed by metric.
	Scales() map[string]int
	// Choices returns the categorical answers present on the result, keyed by metric.
	Choices() map[string][]string
}

// DiscoveryOutcome is the open exploration task: first impressions only.
type DiscoveryOutcome struct {
	ResultCore
	ValuePropositionClarity *int
	FirstImpression         *int
}

func (o DiscoveryOutcome) Core() ResultCore   { return o.ResultCore }
func (o DiscoveryOutcome) Category() Category { return Discovery }

func (o DiscoveryOutcome) Scales() map[string]int {
	m := make(map[string]int, 2)
	putScale(m, "valuePropositionClarity", o.ValuePropositionClarity)
	putScale(m, "firstImpression", o.FirstImpression)
	return m
}

func (o DiscoveryOutcome) Choices() map[string][]string { return map[string][]string{} }

// StandardOutcome is a usage task. Ease is nil on bonus tasks and SearchMethod is
// only kept on the assistant search task.
type StandardOutcome struct {
	ResultCore
	Ease              *int
	Duration          string
	Autonomy          string
	PathFluidity      string
	EmotionalReaction string
	SearchMethod      []string
}

func (o StandardOutcome) Core() ResultCore   { return o.ResultCore }
func (o StandardOutcome) Category() Category { return Standard }

func (o StandardOutcome) Scales() map[string]int {
	m := make(map[string]int, 1)
	putScale(m, "ease", o.Ease)
	return m
}

func (o StandardOutcome) Choices() map[string][]string {
	m := make(map[string][]string, 5)
	putChoice(m, "duration", o.Duration)
	putChoice(m, "autonomy", o.Autonomy)
	putChoice(m, "pathFluidity", o.PathFluidity)
	putChoice(m, "emotionalReaction", o.EmotionalReaction)
	if len(o.SearchMethod) > 0 {
		m["searchMethod"] = append([]string(nil), o.SearchMethod...)
	}
	return m
}

// PostTestOutcome is the closing debrief.
type PostTestOutcome struct {
	ResultCore
	PostTestAdoption  *int
	EmotionalReaction string
	Frustrations      string
	DataStorage       string
	PracticalUse      string
}

func (o PostTestOutcome) Core() ResultCore   { return o.ResultCore }
func (o PostTestOutcome) Category() Category { return PostTest }

func (o PostTestOutcome) Scales() map[string]int {
	m := make(map[string]int, 1)
	putScale(m, "postTestAdoption", o.PostTestAdoption)
	return m
}

func (o PostTestOutcome) Choices() map[string][]string {
	m := make(map[string][]string, 1)
	putChoice(m, "emotionalReaction", o.EmotionalReaction)
	return m
}

func putScale(m map[string]int, key string, v *int) {
	if v != nil {
		m[key] = *v
	}
}

func putChoice(m map[string][]string, key, v string) {
	if v != "" {
		m[key] = []string{v}
	}
}
