// Package report renders the final hackathon report and the exports built
// from a registry snapshot.
package report

import (
	"fmt"
	"os"
	"strings"

	"hackathon-scoreboard/internal/scoring"
	"hackathon-scoreboard/internal/teams"
)

const rule = "========================================="

// Source is anything that can hand out a consistent copy of the teams.
type Source interface {
	Snapshot() []teams.Team
}

// List adapts a plain slice of teams to Source. Reports treat it like a
// registry load: a repeated id replaces the earlier entry in place.
type List []teams.Team

func (l List) Snapshot() []teams.Team { return l }

// Summary is the statistics block of the report.
type Summary struct {
	Total     int                       `json:"total" yaml:"total"`
	Average   float64                   `json:"average" yaml:"average"`
	Min       float64                   `json:"min" yaml:"min"`
	Max       float64                   `json:"max" yaml:"max"`
	Highest   *teams.Team               `json:"highest,omitempty" yaml:"highest,omitempty"`
	Frequency [scoring.MaxScore + 1]int `json:"frequency" yaml:"frequency,flow"`
}

// Summarize computes every statistic from a single snapshot of src.
func Summarize(src Source) Summary {
	return summarize(frozen(src.Snapshot()))
}

func summarize(r *teams.Registry) Summary {
	s := Summary{
		Total:     r.Len(),
		Average:   r.AverageOverall(),
		Min:       r.MinOverall(),
		Max:       r.MaxOverall(),
		Frequency: r.ScoreFrequency(),
	}
	if top, ok := r.HighestScoring(); ok {
		s.Highest = &top
	}
	return s
}

// frozen rebuilds a private registry so a report never mixes two states
// of a registry that is being edited concurrently.
func frozen(ts []teams.Team) *teams.Registry {
	r := teams.NewRegistry()
	r.Replace(ts)
	return r
}

// Build renders the four report sections: every team in full, the top
// team, the summary statistics and the score frequency table.
func Build(src Source) string {
	reg := frozen(src.Snapshot())
	ts := reg.Snapshot()
	sum := summarize(reg)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n      Hackathon Final Report\n%s\n\n", rule, rule)

	b.WriteString("=== 1. Full Teams Detail Table ===\n\n")
	for _, t := range ts {
		b.WriteString(t.FullDetails())
		b.WriteString("\n\n")
	}

	b.WriteString("\n=== 2. Team with Highest Score ===\n")
	if sum.Highest != nil {
		b.WriteString(sum.Highest.FullDetails())
		b.WriteString("\n\n")
	} else {
		b.WriteString("No teams available.\n")
	}

	b.WriteString("\n=== 3. Summary Stats ===\n")
	fmt.Fprintf(&b, "Total Teams: %d\n", sum.Total)
	fmt.Fprintf(&b, "Average Overall Score: %.2f\n", sum.Average)
	fmt.Fprintf(&b, "Minimum Overall Score: %.2f\n", sum.Min)
	fmt.Fprintf(&b, "Maximum Overall Score: %.2f\n", sum.Max)

	b.WriteString("\n=== 4. Individual Score Frequency ===\n")
	for score, n := range sum.Frequency {
		fmt.Fprintf(&b, "Score %d: %d times awarded\n", score, n)
	}

	b.WriteString("\nReport Generation Complete.\n")
	return b.String()
}

// WriteFile renders the report and writes it to path.
func WriteFile(path string, src Source) error {
	if err := os.WriteFile(path, []byte(Build(src)), 0o644); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}
