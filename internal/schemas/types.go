package schemas

import (
	"hackathon-scoreboard/internal/scoring"
	"hackathon-scoreboard/internal/teams"
)

type RegisterTeamRequest struct {
	ID         *int   `json:"id,omitempty" validate:"omitempty,gt=0"`
	Name       string `json:"name" validate:"required"`
	University string `json:"university" validate:"required"`
	Category   string `json:"category" validate:"required"`
	Scores     []int  `json:"scores,omitempty" validate:"omitempty,len=4,dive,min=0,max=5"`
}

// UpdateTeamRequest edits the fields that are present; scores have their
// own endpoint.
type UpdateTeamRequest struct {
	Name       *string `json:"name,omitempty"`
	University *string `json:"university,omitempty"`
	Category   *string `json:"category,omitempty"`
}

type ScoresRequest struct {
	Scores []int `json:"scores" validate:"required,len=4,dive,min=0,max=5"`
}

type TeamOut struct {
	teams.Team
	Overall float64 `json:"overall"`
	Summary string  `json:"summary"`
	Rank    int     `json:"rank,omitempty"`
	Warning string  `json:"warning,omitempty"`
}

func NewTeamOut(t teams.Team) TeamOut {
	return TeamOut{Team: t, Overall: t.OverallScore(), Summary: t.ShortDetails()}
}

type TeamDetailOut struct {
	TeamOut
	Details string `json:"details"`
}

type CategoryOut struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Policy      string `json:"policy"`
}

func NewCategoryOut(c scoring.Category) CategoryOut {
	return CategoryOut{ID: c.ID, Name: c.Name, Description: c.Description, Policy: c.Kind.String()}
}

type LoadResponse struct {
	Loaded int              `json:"loaded"`
	Errors []teams.RowError `json:"errors"`
}

type ReportResponse struct {
	ReportID string `json:"report_id"`
	Path     string `json:"path"`
	Queued   bool   `json:"queued"`
}
