package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// FilterAll is the category filter value that matches every team.
const FilterAll = "All"

// suggestThreshold is the minimum similarity for a "did you mean" hint.
const suggestThreshold = 0.6

// Category is catalog metadata for a competition track. Teams carry only
// the name; everything else is looked up here.
type Category struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Kind        Kind   `json:"-" yaml:"-"`
}

var known = []Category{
	{ID: 1, Name: "Cybersecurity", Description: "Security and defence challenges", Kind: KindWeightedTechnical},
	{ID: 2, Name: "Artificial Intelligence", Description: "Specialized AI/ML competition", Kind: KindTrimmedMean},
	{ID: 3, Name: "Web Development", Description: "Web applications and services", Kind: KindMean},
	{ID: 4, Name: "Data Science", Description: "Data analysis and visualisation", Kind: KindMean},
	{ID: 5, Name: "Cloud Computing", Description: "Cloud native infrastructure", Kind: KindMean},
	{ID: 6, Name: "Sustainability Tech", Description: "Technology for sustainability", Kind: KindMean},
}

var byName = func() map[string]Category {
	m := make(map[string]Category, len(known))
	for _, c := range known {
		m[Normalize(c.Name)] = c
	}
	return m
}()

// Categories returns the known categories in catalog order.
func Categories() []Category {
	out := make([]Category, len(known))
	copy(out, known)
	return out
}

// Lookup finds a known category by name, ignoring case and surrounding space.
func Lookup(name string) (Category, bool) {
	c, ok := byName[Normalize(name)]
	return c, ok
}

// Normalize folds case and trims space so names compare case-insensitively.
func Normalize(s string) string {
	// cases.Caser is stateful, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(s))
}

// SameName reports whether two names are equal after normalization.
func SameName(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// MatchesFilter reports whether category passes a filter; FilterAll and
// the empty string match everything.
func MatchesFilter(category, filter string) bool {
	if strings.TrimSpace(filter) == "" || SameName(filter, FilterAll) {
		return true
	}
	return SameName(category, filter)
}

// Suggest returns the known category closest to name when name is not a
// known category itself but looks like a misspelling of one.
func Suggest(name string) (string, bool) {
	n := Normalize(name)
	if n == "" {
		return "", false
	}
	if _, ok := byName[n]; ok {
		return "", false
	}
	best, bestSim := "", 0.0
	for _, c := range known {
		if sim := similarity(n, Normalize(c.Name)); sim > bestSim {
			best, bestSim = c.Name, sim
		}
	}
	if bestSim < suggestThreshold {
		return "", false
	}
	return best, true
}

func similarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}
