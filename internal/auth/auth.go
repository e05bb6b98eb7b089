// Package auth maps hackathon roles to the actions they may perform and
// checks the shared API token.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrForbidden = errors.New("forbidden")

type Role string

const (
	Admin      Role = "Admin"
	Judge      Role = "Judge"
	Organizer  Role = "Organizer"
	Clerk      Role = "Registration Clerk"
	Competitor Role = "Competitor"
	Public     Role = "Public"
)

// Roles lists every role in display order.
var Roles = []Role{Admin, Judge, Organizer, Clerk, Competitor, Public}

type Action string

const (
	ViewTeams    Action = "view_teams"
	RegisterTeam Action = "register_team"
	EditTeam     Action = "edit_team"
	ScoreTeam    Action = "score_team"
	RemoveTeam   Action = "remove_team"
	ViewReport   Action = "view_report"
	SaveReport   Action = "save_report"
	ListReports  Action = "list_reports"
	SaveRecords  Action = "save_records"
	LoadRecords  Action = "load_records"
)

var staff = []Role{Admin, Organizer, Clerk}

var permissions = map[Action][]Role{
	ViewTeams:    Roles,
	RegisterTeam: {Admin, Organizer, Clerk, Competitor},
	EditTeam:     staff,
	ScoreTeam:    {Admin, Organizer, Clerk, Judge},
	RemoveTeam:   staff,
	ViewReport:   {Admin, Organizer, Clerk, Competitor},
	SaveReport:   {Admin, Organizer, Clerk, Competitor},
	ListReports:  staff,
	SaveRecords:  staff,
	LoadRecords:  {Admin, Organizer},
}

// ParseRole matches a role name case-insensitively. "Clerk" is accepted
// for Registration Clerk and an empty name means Public.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Public, nil
	}
	if strings.EqualFold(s, "clerk") {
		return Clerk, nil
	}
	for _, r := range Roles {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Allowed reports whether role may perform action.
func (r Role) Allowed(a Action) bool {
	return slices.Contains(permissions[a], r)
}

// Check is Allowed as an error wrapping ErrForbidden.
func (r Role) Check(a Action) error {
	if r.Allowed(a) {
		return nil
	}
	return fmt.Errorf("%w: %s may not %s", ErrForbidden, r, strings.ReplaceAll(string(a), "_", " "))
}

func HashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

// TokenMatches compares a presented token with the expected one without
// leaking timing on the content.
func TokenMatches(got, want string) bool {
	a, b := HashToken(got), HashToken(want)
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
