package db

import (
	"time"

	"hackathon-scoreboard/internal/teams"
)

// TeamRow mirrors one registry entry. Overall is stored for querying only;
// the registry recomputes it from the category.
type TeamRow struct {
	ID           int       `db:"id"`
	Name         string    `db:"name"`
	University   string    `db:"university"`
	Category     string    `db:"category"`
	Creativity   int       `db:"creativity"`
	Technical    int       `db:"technical"`
	Teamwork     int       `db:"teamwork"`
	Presentation int       `db:"presentation"`
	Overall      float64   `db:"overall"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type Report struct {
	ID          string    `db:"id" json:"id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	RequestedBy string    `db:"requested_by" json:"requested_by"`
	TeamCount   int       `db:"team_count" json:"team_count"`
	ObjectRef   string    `db:"object_ref" json:"object_ref,omitempty"`
	SnapshotRef string    `db:"snapshot_ref" json:"snapshot_ref,omitempty"`
	Status      string    `db:"status" json:"status"`
	Error       string    `db:"error" json:"error,omitempty"`
}

const (
	ReportPending = "pending"
	ReportDone    = "done"
	ReportFailed  = "failed"
)

func RowFromTeam(t teams.Team) TeamRow {
	return TeamRow{
		ID:           t.ID,
		Name:         t.Name,
		University:   t.University,
		Category:     t.Category,
		Creativity:   t.Scores[0],
		Technical:    t.Scores[1],
		Teamwork:     t.Scores[2],
		Presentation: t.Scores[3],
		Overall:      t.OverallScore(),
	}
}

func (r TeamRow) Team() teams.Team {
	return teams.NewTeam(r.ID, r.Name, r.University, r.Category,
		[]int{r.Creativity, r.Technical, r.Teamwork, r.Presentation})
}
