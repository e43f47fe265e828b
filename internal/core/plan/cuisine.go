package plan

import (
	"sort"
)

// RankCuisines orders the requested cuisines ascending by historical usage,
// ties broken by original order, so under-represented cuisines come first.
// The ranking is a snapshot taken once per run; it is not refreshed as tasks
// complete within the same run.
func RankCuisines(cuisines []string, usage map[string]int) []string {
	ranked := make([]string, len(cuisines))
	copy(ranked, cuisines)

	sort.SliceStable(ranked, func(i, j int) bool {
		return usage[ranked[i]] < usage[ranked[j]]
	})
	return ranked
}
