package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"hackathon-scoreboard/internal/teams"
)

type styles struct {
	header lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	err    lipgloss.Style
	dim    lipgloss.Style
	top    lipgloss.Style
}

func newStyles() styles {
	return styles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		err:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		top:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
	}
}

// printTeams writes an aligned table. With ranked set the first column is
// the position and the leader is highlighted.
func (s styles) printTeams(w io.Writer, ts []teams.Team, ranked bool) {
	if len(ts) == 0 {
		fmt.Fprintln(w, s.dim.Render("no teams"))
		return
	}
	nameW, catW := len("Name"), len("Category")
	for _, t := range ts {
		nameW = max(nameW, len(t.Name))
		catW = max(catW, len(t.Category))
	}

	first := "ID"
	if ranked {
		first = "#"
	}
	fmt.Fprintln(w, s.header.Render(fmt.Sprintf("%-4s %-*s %-*s %-12s %7s", first, nameW, "Name", catW, "Category", "Scores", "Overall")))
	for i, t := range ts {
		lead := fmt.Sprint(t.ID)
		if ranked {
			lead = fmt.Sprint(i + 1)
		}
		line := fmt.Sprintf("%-4s %-*s %-*s %-12s %7.2f", lead, nameW, t.Name, catW, t.Category, scoreList(t), t.OverallScore())
		if ranked && i == 0 {
			line = s.top.Render(line)
		}
		fmt.Fprintln(w, line)
	}
}

func scoreList(t teams.Team) string {
	parts := make([]string, len(t.Scores))
	for i, v := range t.Scores {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
