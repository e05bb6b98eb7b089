package teams

import "errors"

var (
	ErrNotFound      = errors.New("team not found")
	ErrDuplicate     = errors.New("duplicate team")
	ErrInvalidScores = errors.New("scores must be exactly 4 values between 0 and 5")
	ErrInvalidTeam   = errors.New("invalid team")
)
