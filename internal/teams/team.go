// Package teams holds the team entity and the in-memory registry that owns
// every registered team.
package teams

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"hackathon-scoreboard/internal/scoring"
)

var validate = validator.New()

// Team is one registered competing group. Scores are, in order,
// Creativity, Technical, Teamwork and Presentation. Formula is bound from
// the category by NewTeam and stays with the team if the category is
// edited later.
type Team struct {
	ID         int                     `json:"id" yaml:"id" validate:"gt=0"`
	Name       string                  `json:"name" yaml:"name" validate:"required"`
	University string                  `json:"university" yaml:"university" validate:"required"`
	Category   string                  `json:"category" yaml:"category" validate:"required"`
	Scores     [scoring.ScoreCount]int `json:"scores" yaml:"scores,flow" validate:"dive,min=0,max=5"`
	Formula    scoring.Kind            `json:"formula" yaml:"formula"`
}

// NewTeam builds a team. A score vector that is not exactly four long is
// replaced by all zeros.
func NewTeam(id int, name, university, category string, scores []int) Team {
	t := Team{
		ID:         id,
		Name:       strings.TrimSpace(name),
		University: strings.TrimSpace(university),
		Category:   strings.TrimSpace(category),
		Formula:    scoring.PolicyFor(category).Kind,
	}
	t.SetScores(scores)
	return t
}

// OverallScore applies the bound formula to the current scores. Nothing is
// cached.
func (t Team) OverallScore() float64 {
	return scoring.Policy{Kind: t.Formula}.Compute(t.Scores[:])
}

// ScoreSlice returns a copy of the scores as a slice.
func (t Team) ScoreSlice() []int {
	out := make([]int, scoring.ScoreCount)
	copy(out, t.Scores[:])
	return out
}

// SetScores replaces the score vector. Vectors of the wrong length are
// ignored and false is returned; range is not checked here.
func (t *Team) SetScores(scores []int) bool {
	if len(scores) != scoring.ScoreCount {
		return false
	}
	copy(t.Scores[:], scores)
	return true
}

func (t *Team) SetName(name string) { t.Name = strings.TrimSpace(name) }
func (t *Team) SetUniversity(university string) { t.University = strings.TrimSpace(university) }

// SetCategory renames the category only; Formula is left as bound.
func (t *Team) SetCategory(category string) { t.Category = strings.TrimSpace(category) }

// Validate checks identity fields and score ranges.
func (t Team) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTeam, err)
	}
	return nil
}

// FullDetails is a two-line human readable summary.
func (t Team) FullDetails() string {
	return fmt.Sprintf("Team ID %d, name %s (%s)\n%s is competing in the %s category, and received scores %s, resulting in an overall score of %.2f",
		t.ID, t.Name, t.University, t.Name, t.Category, formatScores(t.Scores), t.OverallScore())
}

// ShortDetails gives the id, the name initials and the overall score.
func (t Team) ShortDetails() string {
	return fmt.Sprintf("TID %d (%s) has an overall score of %.2f", t.ID, Initials(t.Name), t.OverallScore())
}

// Initials concatenates the first character of each whitespace separated
// word of name.
func Initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(r)
	}
	return b.String()
}

func formatScores(s [scoring.ScoreCount]int) string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
