package dto

import "github.com/shiftdesk/staff-scheduler/internal/domain"

// AdminDashboardResponse is the supervisor overview.
type AdminDashboardResponse struct {
	ActiveStaff          int                       `json:"active_staff"`
	TasksByStatus        map[domain.TaskStatus]int `json:"tasks_by_status"`
	PendingVerifications int                       `json:"pending_verifications"`
	ShiftsToday          []ShiftResponse           `json:"shifts_today"`
	AtRiskStaff          []StaffResponse           `json:"at_risk_staff"`
	UnreadAlerts         int                       `json:"unread_alerts"`
}

// StaffDashboardResponse is the caller's personal overview.
type StaffDashboardResponse struct {
	OpenTasks         []TaskResponse       `json:"open_tasks"`
	UpcomingShifts    []ShiftResponse      `json:"upcoming_shifts"`
	UnreadAlerts      int                  `json:"unread_alerts"`
	LatestPerformance *PerformanceResponse `json:"latest_performance"`
	WarningLevel      domain.WarningLevel  `json:"warning_level"`
}
