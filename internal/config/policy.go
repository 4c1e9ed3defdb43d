package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy holds the tunable business rules for scoring, scheduling and discipline.
type Policy struct {
	Scoring    ScoringPolicy    `yaml:"scoring"`
	Schedule   SchedulePolicy   `yaml:"schedule"`
	Discipline DisciplinePolicy `yaml:"discipline"`
}

// ScoringPolicy configures performance aggregation.
type ScoringPolicy struct {
	Weights       ScoreWeights    `yaml:"weights"`
	Grades        GradeThresholds `yaml:"grades"`
	AlertGrade    string          `yaml:"alert_grade"`
	WarningGrade  string          `yaml:"warning_grade"`
	SummaryWindow int             `yaml:"summary_window"`
}

// ScoreWeights are the relative weights of each score component.
type ScoreWeights struct {
	Tasks       float64 `yaml:"tasks"`
	Punctuality float64 `yaml:"punctuality"`
	Quality     float64 `yaml:"quality"`
	Rating      float64 `yaml:"rating"`
}

// GradeThresholds are the minimum overall scores for each passing grade.
type GradeThresholds struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
	C float64 `yaml:"c"`
	D float64 `yaml:"d"`
}

// SchedulePolicy constrains shifts and check-ins.
type SchedulePolicy struct {
	MaxShiftHours       int `yaml:"max_shift_hours"`
	GraceMinutes        int `yaml:"grace_minutes"`
	EarlyCheckInMinutes int `yaml:"early_checkin_minutes"`
}

// DisciplinePolicy configures warning lifetime.
type DisciplinePolicy struct {
	WarningExpiryDays int `yaml:"warning_expiry_days"`
}

// DefaultPolicy returns the built-in rules.
func DefaultPolicy() Policy {
	return Policy{
		Scoring: ScoringPolicy{
			Weights:       ScoreWeights{Tasks: 0.40, Punctuality: 0.20, Quality: 0.25, Rating: 0.15},
			Grades:        GradeThresholds{A: 90, B: 80, C: 70, D: 60},
			AlertGrade:    "D",
			WarningGrade:  "F",
			SummaryWindow: 6,
		},
		Schedule: SchedulePolicy{
			MaxShiftHours:       16,
			GraceMinutes:        10,
			EarlyCheckInMinutes: 30,
		},
		Discipline: DisciplinePolicy{
			WarningExpiryDays: 180,
		},
	}
}

// LoadPolicy reads a YAML policy file over the defaults. An empty path yields DefaultPolicy.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy: %w", err)
	}
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return Policy{}, fmt.Errorf("parse policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// Validate checks weights, thresholds and limits for consistency.
func (p Policy) Validate() error {
	w := p.Scoring.Weights
	for name, v := range map[string]float64{"tasks": w.Tasks, "punctuality": w.Punctuality, "quality": w.Quality, "rating": w.Rating} {
		if v < 0 {
			return fmt.Errorf("policy: weight %s must not be negative", name)
		}
	}
	if w.Tasks+w.Punctuality+w.Quality+w.Rating <= 0 {
		return fmt.Errorf("policy: at least one weight must be positive")
	}
	g := p.Scoring.Grades
	if !(g.A <= 100 && g.A > g.B && g.B > g.C && g.C > g.D && g.D > 0) {
		return fmt.Errorf("policy: grade thresholds must satisfy 100 >= a > b > c > d > 0")
	}
	if !validGrade(p.Scoring.AlertGrade) || !validGrade(p.Scoring.WarningGrade) {
		return fmt.Errorf("policy: alert_grade and warning_grade must be one of A-F")
	}
	if p.Schedule.MaxShiftHours <= 0 || p.Schedule.MaxShiftHours > 24 {
		return fmt.Errorf("policy: max_shift_hours must be within 1..24")
	}
	if p.Schedule.GraceMinutes < 0 || p.Schedule.EarlyCheckInMinutes < 0 {
		return fmt.Errorf("policy: check-in windows must not be negative")
	}
	if p.Discipline.WarningExpiryDays < 0 {
		return fmt.Errorf("policy: warning_expiry_days must not be negative")
	}
	if p.Scoring.SummaryWindow <= 0 {
		return fmt.Errorf("policy: summary_window must be positive")
	}
	return nil
}

// MaxShift returns the longest allowed shift.
func (s SchedulePolicy) MaxShift() time.Duration {
	return time.Duration(s.MaxShiftHours) * time.Hour
}

// Grace returns the lateness tolerance after shift start.
func (s SchedulePolicy) Grace() time.Duration {
	return time.Duration(s.GraceMinutes) * time.Minute
}

// EarlyCheckIn returns how long before shift start a check-in is accepted.
func (s SchedulePolicy) EarlyCheckIn() time.Duration {
	return time.Duration(s.EarlyCheckInMinutes) * time.Minute
}

// WarningTTL returns the lifetime of a warning; zero means warnings never expire.
func (d DisciplinePolicy) WarningTTL() time.Duration {
	return time.Duration(d.WarningExpiryDays) * 24 * time.Hour
}

func validGrade(g string) bool {
	switch g {
	case "A", "B", "C", "D", "F":
		return true
	}
	return false
}
