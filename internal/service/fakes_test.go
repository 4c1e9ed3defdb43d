package service

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/events"
	"github.com/shiftdesk/staff-scheduler/internal/repository"
)

// memDB backs every fake repository so cross-entity queries see one state.
type memDB struct {
	mu            sync.Mutex
	departments   map[string]domain.Department
	staff         map[string]domain.StaffMember
	tasks         map[string]domain.Task
	history       []domain.TaskHistory
	shifts        map[string]domain.Shift
	alerts        map[string]domain.Alert
	records       map[string]domain.PerformanceRecord
	warnings      map[string]domain.Warning
	verifications map[string]domain.Verification
	resets        map[string]domain.PasswordResetToken
	seq           int
}

func newMemDB() *memDB {
	return &memDB{
		departments:   map[string]domain.Department{},
		staff:         map[string]domain.StaffMember{},
		tasks:         map[string]domain.Task{},
		shifts:        map[string]domain.Shift{},
		alerts:        map[string]domain.Alert{},
		records:       map[string]domain.PerformanceRecord{},
		warnings:      map[string]domain.Warning{},
		verifications: map[string]domain.Verification{},
		resets:        map[string]domain.PasswordResetToken{},
	}
}

// tick returns a strictly increasing timestamp for ordering inserts.
func (db *memDB) tick() time.Time {
	db.seq++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(db.seq) * time.Second)
}

type memSnapshot struct {
	departments   map[string]domain.Department
	staff         map[string]domain.StaffMember
	tasks         map[string]domain.Task
	history       []domain.TaskHistory
	shifts        map[string]domain.Shift
	alerts        map[string]domain.Alert
	records       map[string]domain.PerformanceRecord
	warnings      map[string]domain.Warning
	verifications map[string]domain.Verification
	resets        map[string]domain.PasswordResetToken
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return memSnapshot{
		departments:   maps.Clone(db.departments),
		staff:         maps.Clone(db.staff),
		tasks:         maps.Clone(db.tasks),
		history:       slices.Clone(db.history),
		shifts:        maps.Clone(db.shifts),
		alerts:        maps.Clone(db.alerts),
		records:       maps.Clone(db.records),
		warnings:      maps.Clone(db.warnings),
		verifications: maps.Clone(db.verifications),
		resets:        maps.Clone(db.resets),
	}
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.departments = s.departments
	db.staff = s.staff
	db.tasks = s.tasks
	db.history = s.history
	db.shifts = s.shifts
	db.alerts = s.alerts
	db.records = s.records
	db.warnings = s.warnings
	db.verifications = s.verifications
	db.resets = s.resets
}

type memTxKey struct{}

// memTx rolls the store back to its state before fn when fn fails.
type memTx struct{ db *memDB }

func (t memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	snap := t.db.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type fakeDepartments struct{ db *memDB }

func (r fakeDepartments) Create(_ context.Context, d *domain.Department) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d.ID = uuid.NewString()
	d.CreatedAt = r.db.tick()
	d.UpdatedAt = d.CreatedAt
	r.db.departments[d.ID] = *d
	return nil
}

func (r fakeDepartments) Update(_ context.Context, d *domain.Department) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.departments[d.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.db.departments[d.ID] = *d
	return nil
}

func (r fakeDepartments) GetByID(_ context.Context, id string) (*domain.Department, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d, ok := r.db.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &d, nil
}

func (r fakeDepartments) GetByName(_ context.Context, name string) (*domain.Department, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, d := range r.db.departments {
		if strings.EqualFold(d.Name, name) {
			return &d, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r fakeDepartments) List(_ context.Context, includeInactive bool) ([]domain.Department, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.Department{}
	for _, d := range r.db.departments {
		if d.IsActive || includeInactive {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeStaff struct{ db *memDB }

func (r fakeStaff) Create(_ context.Context, s *domain.StaffMember) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = r.db.tick()
	s.UpdatedAt = s.CreatedAt
	r.db.staff[s.ID] = *s
	return nil
}

func (r fakeStaff) Update(_ context.Context, s *domain.StaffMember) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.staff[s.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.db.staff[s.ID] = *s
	return nil
}

func (r fakeStaff) UpdateWarningLevel(_ context.Context, id string, level domain.WarningLevel) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.staff[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.WarningLevel = level
	r.db.staff[id] = s
	return nil
}

func (r fakeStaff) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (r fakeStaff) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.staff {
		if s.Email == email {
			return &s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r fakeStaff) match(filter repository.StaffFilter) []domain.StaffMember {
	out := []domain.StaffMember{}
	for _, s := range r.db.staff {
		if filter.Role != nil && s.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && s.Active != *filter.Active {
			continue
		}
		if filter.DepartmentID != nil && (s.DepartmentID == nil || *s.DepartmentID != *filter.DepartmentID) {
			continue
		}
		if filter.MinWarningLevel != nil && s.WarningLevel.Rank() < filter.MinWarningLevel.Rank() {
			continue
		}
		if filter.Search != nil {
			term := strings.ToLower(*filter.Search)
			if !strings.Contains(strings.ToLower(s.Name), term) && !strings.Contains(s.Email, term) {
				continue
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r fakeStaff) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return page(r.match(filter), filter.Limit, filter.Offset), nil
}

func (r fakeStaff) Count(_ context.Context, filter repository.StaffFilter) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.match(filter)), nil
}

type fakeTasks struct{ db *memDB }

func (r fakeTasks) Create(_ context.Context, t *domain.Task) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = r.db.tick()
	t.UpdatedAt = t.CreatedAt
	r.db.tasks[t.ID] = *t
	return nil
}

func (r fakeTasks) Update(_ context.Context, t *domain.Task) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tasks[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	t.UpdatedAt = r.db.tick()
	r.db.tasks[t.ID] = *t
	return nil
}

func (r fakeTasks) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tasks[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.db.tasks, id)
	return nil
}

func (r fakeTasks) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r fakeTasks) match(filter repository.TaskFilter) []domain.Task {
	out := []domain.Task{}
	for _, t := range r.db.tasks {
		if filter.AssigneeID != nil && t.AssigneeID != *filter.AssigneeID {
			continue
		}
		if filter.CreatedBy != nil && t.CreatedBy != *filter.CreatedBy {
			continue
		}
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, t.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !contains(filter.Priorities, t.Priority) {
			continue
		}
		if filter.Search != nil && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(*filter.Search)) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r fakeTasks) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return page(r.match(filter), filter.Limit, filter.Offset), nil
}

func (r fakeTasks) Count(_ context.Context, filter repository.TaskFilter) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.match(filter)), nil
}

func (r fakeTasks) CountByStatus(_ context.Context, assigneeID *string) (map[domain.TaskStatus]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := map[domain.TaskStatus]int{}
	for _, t := range r.db.tasks {
		if assigneeID == nil || t.AssigneeID == *assigneeID {
			out[t.Status]++
		}
	}
	return out, nil
}

func (r fakeTasks) ListForPeriod(_ context.Context, staffID string, from, to time.Time) ([]domain.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.Task{}
	for _, t := range r.db.tasks {
		if t.AssigneeID == staffID && t.DueAt != nil && !t.DueAt.Before(from) && t.DueAt.Before(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r fakeTasks) ListOverdueCandidates(_ context.Context, now time.Time) ([]domain.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.Task{}
	for _, t := range r.db.tasks {
		if t.IsOverdueAt(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeHistory struct{ db *memDB }

func (r fakeHistory) Create(_ context.Context, h *domain.TaskHistory) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	h.ID = uuid.NewString()
	h.CreatedAt = r.db.tick()
	r.db.history = append(r.db.history, *h)
	return nil
}

func (r fakeHistory) ListByTask(_ context.Context, taskID string) ([]domain.TaskHistory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.TaskHistory{}
	for _, h := range r.db.history {
		if h.TaskID == taskID {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeShifts struct{ db *memDB }

func (r fakeShifts) Create(_ context.Context, s *domain.Shift) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s.ID = uuid.NewString()
	s.CreatedAt = r.db.tick()
	s.UpdatedAt = s.CreatedAt
	r.db.shifts[s.ID] = *s
	return nil
}

func (r fakeShifts) Update(_ context.Context, s *domain.Shift) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.shifts[s.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.db.shifts[s.ID] = *s
	return nil
}

func (r fakeShifts) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.shifts[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.db.shifts, id)
	return nil
}

func (r fakeShifts) GetByID(_ context.Context, id string) (*domain.Shift, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.shifts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (r fakeShifts) List(_ context.Context, filter repository.ShiftFilter) ([]domain.Shift, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.Shift{}
	for _, s := range r.db.shifts {
		if filter.StaffID != nil && s.StaffID != *filter.StaffID {
			continue
		}
		if filter.DepartmentID != nil {
			m := r.db.staff[s.StaffID]
			if m.DepartmentID == nil || *m.DepartmentID != *filter.DepartmentID {
				continue
			}
		}
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, s.Status) {
			continue
		}
		if filter.From != nil && !s.EndAt.After(*filter.From) {
			continue
		}
		if filter.To != nil && !s.StartAt.Before(*filter.To) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return page(out, filter.Limit, filter.Offset), nil
}

func (r fakeShifts) FindOverlapping(_ context.Context, staffID string, start, end time.Time, excludeID string) ([]domain.Shift, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.Shift{}
	for _, s := range r.db.shifts {
		if s.StaffID == staffID && s.ID != excludeID && s.Status != domain.ShiftStatusCancelled && s.Overlaps(start, end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r fakeShifts) ListEndedScheduled(_ context.Context, now time.Time) ([]domain.Shift, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.Shift{}
	for _, s := range r.db.shifts {
		if s.Status == domain.ShiftStatusScheduled && !s.EndAt.After(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeAlerts struct{ db *memDB }

func (r fakeAlerts) Create(_ context.Context, a *domain.Alert) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a.ID = uuid.NewString()
	a.CreatedAt = r.db.tick()
	r.db.alerts[a.ID] = *a
	return nil
}

func (r fakeAlerts) GetByID(_ context.Context, id string) (*domain.Alert, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.alerts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (r fakeAlerts) List(_ context.Context, filter repository.AlertFilter) ([]domain.Alert, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.Alert{}
	for _, a := range r.db.alerts {
		if a.RecipientID != filter.RecipientID || (filter.UnreadOnly && a.ReadAt != nil) {
			continue
		}
		if filter.Type != nil && a.Type != *filter.Type {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, filter.Limit, filter.Offset), nil
}

func (r fakeAlerts) CountUnread(_ context.Context, recipientID string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, a := range r.db.alerts {
		if a.RecipientID == recipientID && a.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func (r fakeAlerts) MarkRead(_ context.Context, id, recipientID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.alerts[id]
	if !ok || a.RecipientID != recipientID {
		return pgx.ErrNoRows
	}
	if a.ReadAt == nil {
		now := r.db.tick()
		a.ReadAt = &now
		r.db.alerts[id] = a
	}
	return nil
}

func (r fakeAlerts) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, a := range r.db.alerts {
		if a.RecipientID == recipientID && a.ReadAt == nil {
			now := r.db.tick()
			a.ReadAt = &now
			r.db.alerts[id] = a
			n++
		}
	}
	return n, nil
}

func (r fakeAlerts) Delete(_ context.Context, id, recipientID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.alerts[id]
	if !ok || a.RecipientID != recipientID {
		return pgx.ErrNoRows
	}
	delete(r.db.alerts, id)
	return nil
}

type fakePerformance struct{ db *memDB }

func (r fakePerformance) Create(_ context.Context, rec *domain.PerformanceRecord) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rec.ID = uuid.NewString()
	rec.CreatedAt = r.db.tick()
	r.db.records[rec.ID] = *rec
	return nil
}

func (r fakePerformance) GetByID(_ context.Context, id string) (*domain.PerformanceRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rec, ok := r.db.records[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &rec, nil
}

func (r fakePerformance) List(_ context.Context, filter repository.PerformanceFilter) ([]domain.PerformanceRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.PerformanceRecord{}
	for _, rec := range r.db.records {
		if filter.StaffID != nil && rec.StaffID != *filter.StaffID {
			continue
		}
		if filter.Grade != nil && rec.Grade != *filter.Grade {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, filter.Limit, filter.Offset), nil
}

func (r fakePerformance) ListRecentByStaff(ctx context.Context, staffID string, n int) ([]domain.PerformanceRecord, error) {
	return r.List(ctx, repository.PerformanceFilter{StaffID: &staffID, Limit: n})
}

type fakeWarnings struct{ db *memDB }

func (r fakeWarnings) Create(_ context.Context, w *domain.Warning) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w.ID = uuid.NewString()
	r.db.tick()
	r.db.warnings[w.ID] = *w
	return nil
}

func (r fakeWarnings) Update(_ context.Context, w *domain.Warning) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.warnings[w.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.db.warnings[w.ID] = *w
	return nil
}

func (r fakeWarnings) GetByID(_ context.Context, id string) (*domain.Warning, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w, ok := r.db.warnings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &w, nil
}

func (r fakeWarnings) List(_ context.Context, filter repository.WarningFilter) ([]domain.Warning, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.Warning{}
	for _, w := range r.db.warnings {
		if filter.StaffID != nil && w.StaffID != *filter.StaffID {
			continue
		}
		if filter.ActiveOnly && !w.ActiveAt(filter.Now) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return page(out, filter.Limit, filter.Offset), nil
}

func (r fakeWarnings) ListByStaff(ctx context.Context, staffID string) ([]domain.Warning, error) {
	return r.List(ctx, repository.WarningFilter{StaffID: &staffID})
}

func (r fakeWarnings) StaffWithLapsedLevels(_ context.Context, now time.Time) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []string{}
	for id, s := range r.db.staff {
		if s.WarningLevel == domain.WarningLevelNone || s.WarningLevel == "" {
			continue
		}
		backed := false
		for _, w := range r.db.warnings {
			if w.StaffID == id && w.Level == s.WarningLevel && w.ActiveAt(now) {
				backed = true
			}
		}
		if !backed {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

type fakeVerifications struct{ db *memDB }

func (r fakeVerifications) Create(_ context.Context, v *domain.Verification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	v.ID = uuid.NewString()
	r.db.tick()
	if v.EvidenceURLs == nil {
		v.EvidenceURLs = []string{}
	}
	r.db.verifications[v.ID] = *v
	return nil
}

func (r fakeVerifications) Update(_ context.Context, v *domain.Verification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.verifications[v.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.db.verifications[v.ID] = *v
	return nil
}

func (r fakeVerifications) GetByID(_ context.Context, id string) (*domain.Verification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	v, ok := r.db.verifications[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &v, nil
}

func (r fakeVerifications) List(_ context.Context, filter repository.VerificationFilter) ([]domain.Verification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.Verification{}
	for _, v := range r.db.verifications {
		if filter.TaskID != nil && v.TaskID != *filter.TaskID {
			continue
		}
		if filter.SubmittedBy != nil && v.SubmittedBy != *filter.SubmittedBy {
			continue
		}
		if filter.Status != nil && v.Status != *filter.Status {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return page(out, filter.Limit, filter.Offset), nil
}

func (r fakeVerifications) HasPending(_ context.Context, taskID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, v := range r.db.verifications {
		if v.TaskID == taskID && v.Status == domain.VerificationPending {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeVerifications) CountByStatus(_ context.Context, status domain.VerificationStatus) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, v := range r.db.verifications {
		if v.Status == status {
			n++
		}
	}
	return n, nil
}

func (r fakeVerifications) ListReviewedForStaff(_ context.Context, staffID string, from, to time.Time) ([]domain.Verification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.Verification{}
	for _, v := range r.db.verifications {
		if v.SubmittedBy == staffID && v.ReviewedAt != nil && !v.ReviewedAt.Before(from) && v.ReviewedAt.Before(to) {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeResets struct{ db *memDB }

func (r fakeResets) Create(_ context.Context, t *domain.PasswordResetToken) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = r.db.tick()
	r.db.resets[t.Token] = *t
	return nil
}

func (r fakeResets) GetByToken(_ context.Context, token string) (*domain.PasswordResetToken, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.resets[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r fakeResets) MarkUsed(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for k, t := range r.db.resets {
		if t.ID == id {
			if t.UsedAt != nil {
				return pgx.ErrNoRows
			}
			now := r.db.tick()
			t.UsedAt = &now
			r.db.resets[k] = t
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r fakeResets) InvalidateForStaff(_ context.Context, staffID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for k, t := range r.db.resets {
		if t.StaffID == staffID && t.UsedAt == nil {
			now := r.db.tick()
			t.UsedAt = &now
			r.db.resets[k] = t
			n++
		}
	}
	return n, nil
}

func contains[T comparable](items []T, v T) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

// recordingDispatcher delivers synchronously and keeps every published event.
type recordingDispatcher struct {
	events.Dispatcher
	mu        sync.Mutex
	published []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{Dispatcher: events.NewInMemoryDispatcher(nil)}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.published = append(d.published, event)
	d.mu.Unlock()
	return d.Dispatcher.Publish(ctx, event)
}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, len(d.published))
	for i, e := range d.published {
		out[i] = e.Type
	}
	return out
}
