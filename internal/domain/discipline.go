package domain

import "time"

// WarningLevel is the disciplinary escalation ladder.
type WarningLevel string

const (
	WarningLevelNone              WarningLevel = "NONE"
	WarningLevelVerbal            WarningLevel = "VERBAL"
	WarningLevelWritten           WarningLevel = "WRITTEN"
	WarningLevelFinal             WarningLevel = "FINAL"
	WarningLevelTerminationReview WarningLevel = "TERMINATION_REVIEW"
)

var warningLadder = []WarningLevel{
	WarningLevelNone,
	WarningLevelVerbal,
	WarningLevelWritten,
	WarningLevelFinal,
	WarningLevelTerminationReview,
}

// Rank returns the position of l on the ladder, or -1 when unknown.
func (l WarningLevel) Rank() int {
	for i, lvl := range warningLadder {
		if lvl == l {
			return i
		}
	}
	return -1
}

// Valid reports whether l is a known level.
func (l WarningLevel) Valid() bool {
	return l.Rank() >= 0
}

// Next returns the following level and false when l is already at the top.
func (l WarningLevel) Next() (WarningLevel, bool) {
	r := l.Rank()
	if r < 0 {
		return WarningLevelVerbal, true
	}
	if r+1 >= len(warningLadder) {
		return l, false
	}
	return warningLadder[r+1], true
}

// Warning is a disciplinary action recorded against a staff member.
type Warning struct {
	ID             string
	StaffID        string
	IssuedBy       *string
	Level          WarningLevel
	Reason         string
	Automatic      bool
	IssuedAt       time.Time
	ExpiresAt      *time.Time
	AcknowledgedAt *time.Time
	RevokedAt      *time.Time
	RevokedBy      *string
}

// ActiveAt reports whether the warning counts toward the effective level at now.
func (w *Warning) ActiveAt(now time.Time) bool {
	if w.RevokedAt != nil {
		return false
	}
	return w.ExpiresAt == nil || now.Before(*w.ExpiresAt)
}
