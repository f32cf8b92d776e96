package session

import (
	"github.com/solatis/parkwatch/internal/condition"
	"github.com/solatis/parkwatch/internal/types"
)

// entry pairs a working-copy record with its session-local key. Persisted
// records are keyed by id; new records get a synthetic key when they enter
// the session, so the dirty check never depends on slice position.
type entry struct {
	key  string
	cond types.EventCondition
}

func persistedKey(id types.ConditionID) string {
	return "id:" + string(id)
}

func cloneEntries(in []entry) []entry {
	out := make([]entry, len(in))
	for i, e := range in {
		out[i] = entry{key: e.key, cond: e.cond.Clone()}
	}
	return out
}

func conditionsOf(in []entry) []types.EventCondition {
	out := make([]types.EventCondition, len(in))
	for i, e := range in {
		out[i] = e.cond.Clone()
	}
	return out
}

// sortEntries applies the display order to entries, keys travelling with
// their records.
func sortEntries(in []entry) []entry {
	list := make([]types.EventCondition, len(in))
	for i, e := range in {
		list[i] = e.cond
	}
	out := make([]entry, len(in))
	for i, idx := range condition.Order(list) {
		out[i] = in[idx]
	}
	return out
}

// changed reports whether editing differs from original. Length mismatch is
// dirty; otherwise records are matched by key and compared on content.
func changed(original, editing []entry) bool {
	if len(original) != len(editing) {
		return true
	}

	byKey := make(map[string]types.EventCondition, len(original))
	for _, e := range original {
		byKey[e.key] = e.cond
	}

	seen := make(map[string]struct{}, len(editing))
	for _, e := range editing {
		if _, dup := seen[e.key]; dup {
			return true
		}
		seen[e.key] = struct{}{}

		o, ok := byKey[e.key]
		if !ok || !condition.SameContent(o, e.cond) {
			return true
		}
	}
	return false
}
