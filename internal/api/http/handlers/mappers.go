package handlers

import (
	"github.com/shiftdesk/staff-scheduler/internal/api/dto"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

func staffResponse(s *domain.StaffMember) dto.StaffResponse {
	return dto.StaffResponse{
		ID:           s.ID,
		Name:         s.Name,
		Email:        s.Email,
		Role:         s.Role,
		DepartmentID: s.DepartmentID,
		Position:     s.Position,
		Phone:        s.Phone,
		HireDate:     s.HireDate,
		Active:       s.Active,
		WarningLevel: s.WarningLevel,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func departmentResponse(d *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func taskResponse(t *domain.Task) dto.TaskResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.TaskResponse{
		ID:                   t.ID,
		Title:                t.Title,
		Description:          t.Description,
		AssigneeID:           t.AssigneeID,
		CreatedBy:            t.CreatedBy,
		Priority:             t.Priority,
		Status:               t.Status,
		RequiresVerification: t.RequiresVerification,
		DueAt:                t.DueAt,
		ShiftID:              t.ShiftID,
		Tags:                 tags,
		CompletedAt:          t.CompletedAt,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

func historyResponses(entries []domain.TaskHistory) []dto.TaskHistoryResponse {
	resp := make([]dto.TaskHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TaskHistoryResponse{
			ID:         entry.ID,
			ChangedBy:  entry.ChangedBy,
			FromStatus: entry.FromStatus,
			ToStatus:   entry.ToStatus,
			Note:       entry.Note,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return resp
}

func shiftResponse(s *domain.Shift) dto.ShiftResponse {
	return dto.ShiftResponse{
		ID:           s.ID,
		StaffID:      s.StaffID,
		StartAt:      s.StartAt,
		EndAt:        s.EndAt,
		ShiftType:    s.ShiftType,
		Location:     s.Location,
		Notes:        s.Notes,
		Status:       s.Status,
		CheckedInAt:  s.CheckedInAt,
		CheckedOutAt: s.CheckedOutAt,
		Late:         s.Late,
		CreatedBy:    s.CreatedBy,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func performanceResponse(r *domain.PerformanceRecord) dto.PerformanceResponse {
	return dto.PerformanceResponse{
		ID:               r.ID,
		StaffID:          r.StaffID,
		EvaluatorID:      r.EvaluatorID,
		PeriodStart:      r.PeriodStart,
		PeriodEnd:        r.PeriodEnd,
		TaskScore:        r.TaskScore,
		PunctualityScore: r.PunctualityScore,
		QualityScore:     r.QualityScore,
		RatingScore:      r.RatingScore,
		OverallScore:     r.OverallScore,
		Grade:            r.Grade,
		TasksTotal:       r.TasksTotal,
		TasksCompleted:   r.TasksCompleted,
		ShiftsTotal:      r.ShiftsTotal,
		ShiftsOnTime:     r.ShiftsOnTime,
		Comments:         r.Comments,
		CreatedAt:        r.CreatedAt,
	}
}

func warningResponse(w *domain.Warning) dto.WarningResponse {
	return dto.WarningResponse{
		ID:             w.ID,
		StaffID:        w.StaffID,
		IssuedBy:       w.IssuedBy,
		Level:          w.Level,
		Reason:         w.Reason,
		Automatic:      w.Automatic,
		IssuedAt:       w.IssuedAt,
		ExpiresAt:      w.ExpiresAt,
		AcknowledgedAt: w.AcknowledgedAt,
		RevokedAt:      w.RevokedAt,
		RevokedBy:      w.RevokedBy,
	}
}

func alertResponse(a *domain.Alert) dto.AlertResponse {
	return dto.AlertResponse{
		ID:          a.ID,
		RecipientID: a.RecipientID,
		Type:        a.Type,
		Severity:    a.Severity,
		Title:       a.Title,
		Message:     a.Message,
		ReferenceID: a.ReferenceID,
		Read:        a.ReadAt != nil,
		ReadAt:      a.ReadAt,
		CreatedAt:   a.CreatedAt,
	}
}

func verificationResponse(v *domain.Verification) dto.VerificationResponse {
	evidence := v.EvidenceURLs
	if evidence == nil {
		evidence = []string{}
	}
	return dto.VerificationResponse{
		ID:            v.ID,
		TaskID:        v.TaskID,
		SubmittedBy:   v.SubmittedBy,
		Notes:         v.Notes,
		EvidenceURLs:  evidence,
		Status:        v.Status,
		ReviewerID:    v.ReviewerID,
		ReviewComment: v.ReviewComment,
		QualityRating: v.QualityRating,
		SubmittedAt:   v.SubmittedAt,
		ReviewedAt:    v.ReviewedAt,
	}
}

// mapSlice converts a slice of domain values with fn.
func mapSlice[T, R any](items []T, fn func(*T) R) []R {
	out := make([]R, 0, len(items))
	for i := range items {
		out = append(out, fn(&items[i]))
	}
	return out
}
