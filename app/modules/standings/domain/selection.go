package standingsdomain

import (
	"fmt"
	"sort"
)

// SelectionPolicy decides which results count toward a standing total.
type SelectionPolicy string

const (
	// SelectionFirstKChronological counts the K earliest-sequenced results
	// regardless of how many points they earned.
	SelectionFirstKChronological SelectionPolicy = "first_k_chronological"
	// SelectionTopKByPoints counts the K highest-scoring results, earlier
	// results winning ties.
	SelectionTopKByPoints SelectionPolicy = "top_k_by_points"

	DefaultSelectionPolicy = SelectionFirstKChronological
	DefaultBestK           = 6
)

// ParseSelectionPolicy maps a config value to a policy. Empty selects the default.
func ParseSelectionPolicy(s string) (SelectionPolicy, error) {
	switch SelectionPolicy(s) {
	case "":
		return DefaultSelectionPolicy, nil
	case SelectionFirstKChronological, SelectionTopKByPoints:
		return SelectionPolicy(s), nil
	}
	return "", fmt.Errorf("unknown selection policy %q", s)
}

// SelectCounted flags at most k rows as counting for standings. rows must
// already be in sequence order; the returned slice is parallel to rows.
func SelectCounted(rows []ResultRow, policy SelectionPolicy, k int) []bool {
	counted := make([]bool, len(rows))
	if k <= 0 {
		return counted
	}

	switch policy {
	case SelectionTopKByPoints:
		idx := make([]int, len(rows))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return rows[idx[a]].MatchPoints > rows[idx[b]].MatchPoints
		})
		for _, i := range idx[:min(k, len(idx))] {
			counted[i] = true
		}
	default:
		for i := 0; i < len(rows) && i < k; i++ {
			counted[i] = true
		}
	}
	return counted
}
