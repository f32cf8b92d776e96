package condition

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/solatis/parkwatch/internal/types"
)

// severityRank orders levels most severe first. Unknown levels sort last.
var severityRank = map[types.Level]int{
	types.LevelDanger:       1,
	types.LevelWarning:      2,
	types.LevelCaution:      3,
	types.LevelNormal:       4,
	types.LevelDisconnected: 5,
}

const unknownSeverity = 6

// Severity returns the display rank of l; lower is more severe.
func Severity(l types.Level) int {
	if r, ok := severityRank[l]; ok {
		return r
	}
	return unknownSeverity
}

// Sort returns the display order of list. The input slice is not reordered.
//
// New records come first in their current relative order, so a freshly added
// record stays pinned at the top while it is being edited. Persisted records
// follow, ordered by fieldKey (locale-aware) then by severity.
func Sort(list []types.EventCondition) []types.EventCondition {
	order := Order(list)
	out := make([]types.EventCondition, len(order))
	for i, idx := range order {
		out[i] = list[idx]
	}
	return out
}

// Order returns the permutation Sort applies: out[i] is the index in list of
// the record displayed at position i.
func Order(list []types.EventCondition) []int {
	fresh := make([]int, 0, len(list))
	saved := make([]int, 0, len(list))
	for i, c := range list {
		if c.IsNew() {
			fresh = append(fresh, i)
		} else {
			saved = append(saved, i)
		}
	}

	// collate.Collator is not safe for concurrent use.
	col := collate.New(language.Und)
	sort.SliceStable(saved, func(i, j int) bool {
		a, b := list[saved[i]], list[saved[j]]
		if cmp := col.CompareString(a.FieldKey, b.FieldKey); cmp != 0 {
			return cmp < 0
		}
		return Severity(a.Level) < Severity(b.Level)
	})

	return append(fresh, saved...)
}
