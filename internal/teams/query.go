package teams

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"hackathon-scoreboard/internal/scoring"
)

// SortKey selects the ordering used by SortedFiltered.
type SortKey string

const (
	SortByID       SortKey = "id"
	SortByName     SortKey = "name"
	SortByCategory SortKey = "category"
	SortByOverall  SortKey = "overall"
)

// ParseSortKey accepts the key names plus the labels "Team ID" and
// "Overall Score"; the empty string means SortByID.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "id", "team id", "teamid":
		return SortByID, nil
	case "name", "team name":
		return SortByName, nil
	case "category":
		return SortByCategory, nil
	case "overall", "overall score", "score":
		return SortByOverall, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Leaderboard lists the teams matching category ("All" for every team) by
// overall score, highest first. Equal scores keep registration order.
func (r *Registry) Leaderboard(category string) []Team {
	return r.SortedFiltered(SortByOverall, category)
}

// SortedFiltered filters by category unless filter is "All", then sorts
// ascending by id, name or category, or descending by overall score. The
// sort is stable.
func (r *Registry) SortedFiltered(key SortKey, filter string) []Team {
	all := r.Snapshot()
	out := all[:0]
	for _, t := range all {
		if scoring.MatchesFilter(t.Category, filter) {
			out = append(out, t)
		}
	}

	var compare func(a, b Team) int
	switch key {
	case SortByName:
		compare = func(a, b Team) int { return cmp.Compare(scoring.Normalize(a.Name), scoring.Normalize(b.Name)) }
	case SortByCategory:
		compare = func(a, b Team) int { return cmp.Compare(scoring.Normalize(a.Category), scoring.Normalize(b.Category)) }
	case SortByOverall:
		compare = func(a, b Team) int { return cmp.Compare(b.OverallScore(), a.OverallScore()) }
	default:
		compare = func(a, b Team) int { return cmp.Compare(a.ID, b.ID) }
	}
	slices.SortStableFunc(out, compare)
	return out
}
