// Package migration repairs stored sessions against protocol drift before
// they are aggregated. It never writes: callers persist the repaired copies.
package migration

import (
	"strings"

	"testons-go/server/internal/metrics"
	"testons-go/server/internal/models"
)

// retiredTask is a task removed from the protocol and folded into another one.
type retiredTask struct {
	ID           int
	TitleKeyword string
	MergedInto   int
	MergedTitle  string
}

var retiredTasks = []retiredTask{
	{ID: 10, TitleKeyword: "créer un assistant", MergedInto: metrics.PostTestTaskID, MergedTitle: "Questions post-test"},
}

// Result is the outcome of a normalization pass.
type Result struct {
	Sessions []models.TestSession
	Changed  bool
	// Repaired lists the ids of the sessions that differ from their input.
	Repaired []string
}

// Normalize returns repaired copies of the sessions. Running it on its own
// output reports no change.
func Normalize(sessions []models.TestSession, protocol []models.TaskDefinition) Result {
	res := Result{Sessions: make([]models.TestSession, 0, len(sessions)), Repaired: []string{}}
	for _, s := range sessions {
		out, changed := normalizeSession(s, protocol)
		res.Sessions = append(res.Sessions, out)
		if changed {
			res.Changed = true
			res.Repaired = append(res.Repaired, out.ID)
		}
	}
	return res
}

func normalizeSession(s models.TestSession, protocol []models.TaskDefinition) (models.TestSession, bool) {
	out := s.Clone()
	if len(out.Tasks) == 0 {
		return out, false
	}

	tasks, removed := foldRetired(out.Tasks, protocol)
	repaired := repairIdentities(tasks, protocol)
	pruned := pruneFields(tasks, protocol)
	tasks, filled := fillGaps(tasks, protocol)

	out.Tasks = tasks
	return out, removed || repaired || pruned || filled
}

// foldRetired drops results of retired tasks after copying their designated
// value onto the task they were merged into, without overwriting it.
func foldRetired(tasks models.TaskList, protocol []models.TaskDefinition) (models.TaskList, bool) {
	type pending struct {
		at     int
		result models.TaskResult
		task   retiredTask
	}

	known := knownIDs(protocol)
	kept := make(models.TaskList, 0, len(tasks))
	var legacy []pending
	for _, r := range tasks {
		if rt, ok := retiredTaskOf(r, known); ok {
			legacy = append(legacy, pending{at: len(kept), result: r, task: rt})
			continue
		}
		kept = append(kept, r)
	}
	if len(legacy) == 0 {
		return tasks, false
	}

	inserted := 0
	for _, p := range legacy {
		target := mergeTarget(p.task, protocol)
		idx := findTarget(kept, target, protocol)
		if idx < 0 {
			idx = p.at + inserted
			kept = insertAt(kept, idx, models.TaskResult{TaskID: target.ID, TaskTitle: target.Title})
			inserted++
		}
		value := p.result.PostTestAdoption
		if value == nil {
			value = p.result.AdoptionScore
		}
		if value != nil && kept[idx].PostTestAdoption == nil {
			v := *value
			kept[idx].PostTestAdoption = &v
		}
	}
	return kept, true
}

func retiredTaskOf(r models.TaskResult, known map[int]bool) (retiredTask, bool) {
	title := strings.ToLower(r.TaskTitle)
	for _, rt := range retiredTasks {
		if known[rt.ID] {
			continue
		}
		if r.TaskID == rt.ID {
			return rt, true
		}
		if !known[r.TaskID] && strings.Contains(title, "bonus") && strings.Contains(title, rt.TitleKeyword) {
			return rt, true
		}
	}
	return retiredTask{}, false
}

func mergeTarget(rt retiredTask, protocol []models.TaskDefinition) metrics.TaskRef {
	if def, ok := models.FindTask(protocol, rt.MergedInto); ok {
		return metrics.TaskRef{ID: def.ID, Title: def.Title}
	}
	return metrics.TaskRef{ID: rt.MergedInto, Title: rt.MergedTitle}
}

func findTarget(tasks models.TaskList, target metrics.TaskRef, protocol []models.TaskDefinition) int {
	category := metrics.TaskCategory(target)
	for i, r := range tasks {
		if r.TaskID == target.ID {
			return i
		}
	}
	if category == models.Standard {
		return -1
	}
	for i, r := range tasks {
		if metrics.Resolve(r, protocol).Category == category {
			return i
		}
	}
	return -1
}

// repairIdentities rewrites unknown ids whose title matches a protocol task
// that the session does not already hold. Unmatched results keep their id.
func repairIdentities(tasks models.TaskList, protocol []models.TaskDefinition) bool {
	known := knownIDs(protocol)
	present := make(map[int]bool, len(tasks))
	for _, r := range tasks {
		present[r.TaskID] = true
	}

	changed := false
	for i := range tasks {
		if known[tasks[i].TaskID] {
			continue
		}
		def, ok := matchTitle(tasks[i].TaskTitle, protocol)
		if !ok || present[def.ID] {
			continue
		}
		tasks[i].TaskID = def.ID
		present[def.ID] = true
		changed = true
	}
	return changed
}

// matchTitle finds the first protocol task whose title contains, or is
// contained in, the given title (case-insensitive).
func matchTitle(title string, protocol []models.TaskDefinition) (models.TaskDefinition, bool) {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return models.TaskDefinition{}, false
	}
	for _, def := range protocol {
		d := strings.ToLower(strings.TrimSpace(def.Title))
		if d == "" {
			continue
		}
		if strings.Contains(t, d) || strings.Contains(d, t) {
			return def, true
		}
	}
	return models.TaskDefinition{}, false
}

// pruneFields removes values the task's category does not collect. It only
// deletes, except for moving the legacy adoption score onto its current field.
func pruneFields(tasks models.TaskList, protocol []models.TaskDefinition) bool {
	changed := false
	for i := range tasks {
		r := &tasks[i]
		res := metrics.Resolve(*r, protocol)
		applicable := func(key string) bool {
			return metrics.IsMetricApplicable(key, res.Category, res.Optional)
		}

		if r.AdoptionScore != nil {
			if applicable("postTestAdoption") && r.PostTestAdoption == nil {
				v := *r.AdoptionScore
				r.PostTestAdoption = &v
			}
			r.AdoptionScore = nil
			changed = true
		}

		changed = clearScale(&r.Ease, !applicable("ease")) || changed
		changed = clearScale(&r.ValuePropositionClarity, !applicable("valuePropositionClarity")) || changed
		changed = clearScale(&r.FirstImpression, !applicable("firstImpression")) || changed
		changed = clearScale(&r.PostTestAdoption, !applicable("postTestAdoption")) || changed

		changed = clearChoice(&r.Duration, !applicable("duration")) || changed
		changed = clearChoice(&r.Autonomy, !applicable("autonomy")) || changed
		changed = clearChoice(&r.PathFluidity, !applicable("pathFluidity")) || changed
		changed = clearChoice(&r.EmotionalReaction, !applicable("emotionalReaction")) || changed

		if r.SearchMethod != nil && (!applicable("searchMethod") || !metrics.IsSearchTask(res.Ref)) {
			r.SearchMethod = nil
			changed = true
		}

		if r.Skipped && res.Known && !res.Optional {
			r.Skipped = false
			changed = true
		}
	}
	return changed
}

func clearScale(field **int, strip bool) bool {
	if !strip || *field == nil {
		return false
	}
	*field = nil
	return true
}

func clearChoice(field *string, strip bool) bool {
	if !strip || *field == "" {
		return false
	}
	*field = ""
	return true
}

// fillGaps adds a not-attempted placeholder for every mandatory protocol task
// the session has no result for, just before the post-test result.
func fillGaps(tasks models.TaskList, protocol []models.TaskDefinition) (models.TaskList, bool) {
	changed := false
	for _, def := range protocol {
		res := metrics.Resolve(models.TaskResult{TaskID: def.ID, TaskTitle: def.Title}, protocol)
		if res.Optional || hasTask(tasks, def) {
			continue
		}
		placeholder := models.TaskResult{
			TaskID:       def.ID,
			TaskTitle:    def.Title,
			Success:      false,
			NotAttempted: true,
		}
		at := len(tasks)
		for i, r := range tasks {
			if metrics.Resolve(r, protocol).Category == models.PostTest {
				at = i
				break
			}
		}
		tasks = insertAt(tasks, at, placeholder)
		changed = true
	}
	return tasks, changed
}

func hasTask(tasks models.TaskList, def models.TaskDefinition) bool {
	for _, r := range tasks {
		if r.TaskID == def.ID {
			return true
		}
	}
	t := strings.ToLower(strings.TrimSpace(def.Title))
	if t == "" {
		return false
	}
	for _, r := range tasks {
		rt := strings.ToLower(strings.TrimSpace(r.TaskTitle))
		if rt != "" && (strings.Contains(rt, t) || strings.Contains(t, rt)) {
			return true
		}
	}
	return false
}

func insertAt(tasks models.TaskList, at int, r models.TaskResult) models.TaskList {
	tasks = append(tasks, models.TaskResult{})
	copy(tasks[at+1:], tasks[at:])
	tasks[at] = r
	return tasks
}

func knownIDs(protocol []models.TaskDefinition) map[int]bool {
	known := make(map[int]bool, len(protocol))
	for _, def := range protocol {
		known[def.ID] = true
	}
	return known
}
