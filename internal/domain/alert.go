package domain

import "time"

// AlertType categorizes alerts by origin.
type AlertType string

const (
	AlertTypeInfo         AlertType = "INFO"
	AlertTypeTask         AlertType = "TASK"
	AlertTypeShift        AlertType = "SHIFT"
	AlertTypeWarning      AlertType = "WARNING"
	AlertTypeVerification AlertType = "VERIFICATION"
	AlertTypePerformance  AlertType = "PERFORMANCE"
	AlertTypeSystem       AlertType = "SYSTEM"
)

// Valid reports whether t is a known alert type.
func (t AlertType) Valid() bool {
	switch t {
	case AlertTypeInfo, AlertTypeTask, AlertTypeShift, AlertTypeWarning,
		AlertTypeVerification, AlertTypePerformance, AlertTypeSystem:
		return true
	}
	return false
}

// AlertSeverity orders alerts by urgency.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "INFO"
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// Rank returns a comparable weight; unknown severities rank lowest.
func (s AlertSeverity) Rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	}
	return 0
}

// Valid reports whether s is a known severity.
func (s AlertSeverity) Valid() bool {
	return s == SeverityInfo || s == SeverityWarning || s == SeverityCritical
}

// Alert is a notification addressed to a single staff member.
type Alert struct {
	ID          string
	RecipientID string
	Type        AlertType
	Severity    AlertSeverity
	Title       string
	Message     string
	ReferenceID *string
	ReadAt      *time.Time
	CreatedAt   time.Time
}
