package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"hackathon-scoreboard/internal/teams"
)

type exportTeam struct {
	teams.Team `yaml:",inline"`
	Overall    float64 `yaml:"overall"`
}

type exportDoc struct {
	Teams   []exportTeam `yaml:"teams"`
	Summary Summary      `yaml:"summary"`
}

// EncodeYAML writes the teams, each with its overall score, followed by
// the summary statistics.
func EncodeYAML(w io.Writer, ts []teams.Team) error {
	reg := frozen(ts)
	doc := exportDoc{
		Teams:   make([]exportTeam, 0, reg.Len()),
		Summary: summarize(reg),
	}
	for _, t := range reg.Snapshot() {
		doc.Teams = append(doc.Teams, exportTeam{Team: t, Overall: t.OverallScore()})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
