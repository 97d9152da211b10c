package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/mailer"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

// memStore is an in-memory stand-in for the PostgreSQL schema, including the
// (student_id, date) uniqueness of attendance.
type memStore struct {
	mu         sync.Mutex
	groups     map[string]models.Group
	students   map[string]models.Student
	attendance map[string]models.Attendance
	upsertErr  error
}

func newMemStore() *memStore {
	return &memStore{
		groups:     map[string]models.Group{},
		students:   map[string]models.Student{},
		attendance: map[string]models.Attendance{},
	}
}

func (m *memStore) addGroup(t *testing.T, owner, name string) models.Group {
	t.Helper()
	g := models.Group{ID: uuid.NewString(), Name: name, UserID: owner, CreatedAt: time.Now().UTC()}
	m.mu.Lock()
	m.groups[g.ID] = g
	m.mu.Unlock()
	return g
}

func (m *memStore) addStudent(t *testing.T, group models.Group, roll, name string) models.Student {
	t.Helper()
	st := models.Student{
		ID:         uuid.NewString(),
		UserID:     group.UserID,
		GroupID:    group.ID,
		RollNumber: roll,
		Name:       name,
		Email:      roll + "@example.com",
		Phone:      "N/A",
		Course:     "N/A",
		Semester:   1,
	}
	m.mu.Lock()
	m.students[st.ID] = st
	m.mu.Unlock()
	return st
}

func (m *memStore) attendanceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attendance)
}

func (m *memStore) studentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.students)
}

type memGroups struct{ *memStore }

func (r memGroups) ListByOwner(_ context.Context, ownerID string) ([]models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Group, 0)
	for _, g := range r.groups {
		if g.UserID == ownerID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memGroups) CountStudents(_ context.Context, ids []string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	counts := map[string]int{}
	for _, st := range r.students {
		if wanted[st.GroupID] {
			counts[st.GroupID]++
		}
	}
	return counts, nil
}

func (r memGroups) FindByOwner(_ context.Context, ownerID, id string) (*models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok || g.UserID != ownerID {
		return nil, sql.ErrNoRows
	}
	return &g, nil
}

func (r memGroups) Create(_ context.Context, g *models.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	r.groups[g.ID] = *g
	return nil
}

func (r memGroups) DeleteCascade(_ context.Context, ownerID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok || g.UserID != ownerID {
		return false, nil
	}
	delete(r.groups, id)
	for sid, st := range r.students {
		if st.GroupID == id {
			delete(r.students, sid)
			for aid, a := range r.attendance {
				if a.StudentID == sid {
					delete(r.attendance, aid)
				}
			}
		}
	}
	return true, nil
}

type memStudents struct{ *memStore }

func (r memStudents) ListByOwner(_ context.Context, ownerID string, filter models.StudentFilter) ([]models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Student, 0)
	for _, st := range r.students {
		if st.UserID == ownerID && (filter.GroupID == "" || st.GroupID == filter.GroupID) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memStudents) ListByGroup(ctx context.Context, ownerID, groupID string) ([]models.Student, error) {
	return r.ListByOwner(ctx, ownerID, models.StudentFilter{GroupID: groupID})
}

func (r memStudents) FindByOwner(_ context.Context, ownerID, id string) (*models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.students[id]
	if !ok || st.UserID != ownerID {
		return nil, sql.ErrNoRows
	}
	return &st, nil
}

func (r memStudents) FindOwnedByIDs(_ context.Context, ownerID string, ids []string) ([]models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Student, 0)
	for _, id := range ids {
		if st, ok := r.students[id]; ok && st.UserID == ownerID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (r memStudents) ExistsByRollNumber(_ context.Context, ownerID, roll, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range r.students {
		if st.UserID == ownerID && st.RollNumber == roll && st.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r memStudents) Create(_ context.Context, st *models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	r.students[st.ID] = *st
	return nil
}

func (r memStudents) Update(_ context.Context, st *models.Student) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.students[st.ID]
	if !ok || current.UserID != st.UserID {
		return false, nil
	}
	r.students[st.ID] = *st
	return true, nil
}

func (r memStudents) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.students[id]; ok && st.UserID == ownerID {
		delete(r.students, id)
	}
	return nil
}

func (r memStudents) CountByOwner(_ context.Context, ownerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, st := range r.students {
		if st.UserID == ownerID {
			total++
		}
	}
	return total, nil
}

type memAttendance struct{ *memStore }

func (r memAttendance) UpsertBatch(_ context.Context, records []models.AttendanceUpsert) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return 0, r.upsertErr
	}
	now := time.Now().UTC()
	for _, rec := range records {
		existing := ""
		for id, a := range r.attendance {
			if a.StudentID == rec.StudentID && a.Date.Equal(rec.Date) {
				existing = id
				break
			}
		}
		if existing != "" {
			a := r.attendance[existing]
			a.Status, a.Notes, a.MarkedBy, a.UpdatedAt = rec.Status, rec.Notes, rec.MarkedBy, now
			r.attendance[existing] = a
			continue
		}
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		r.attendance[id] = models.Attendance{
			ID: id, StudentID: rec.StudentID, Date: rec.Date, Status: rec.Status,
			Notes: rec.Notes, MarkedBy: rec.MarkedBy, CreatedAt: now, UpdatedAt: now,
		}
	}
	return len(records), nil
}

func (r memAttendance) UpdateStatus(_ context.Context, ownerID, id string, status models.AttendanceStatus, notes *string) (*models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attendance[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	st, ok := r.students[a.StudentID]
	if !ok || st.UserID != ownerID {
		return nil, sql.ErrNoRows
	}
	a.Status = status
	if notes != nil {
		a.Notes = *notes
	}
	r.attendance[id] = a
	return &models.AttendanceRecord{Attendance: a, Student: st}, nil
}

func (r memAttendance) Delete(_ context.Context, ownerID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attendance[id]
	if !ok {
		return false, nil
	}
	if st, ok := r.students[a.StudentID]; !ok || st.UserID != ownerID {
		return false, nil
	}
	delete(r.attendance, id)
	return true, nil
}

func (r memAttendance) List(_ context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	permitted := map[string]bool{}
	for _, id := range filter.StudentIDs {
		permitted[id] = true
	}
	out := make([]models.AttendanceRecord, 0)
	for _, a := range r.attendance {
		if !permitted[a.StudentID] {
			continue
		}
		if filter.DateFrom != nil && a.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && a.Date.After(*filter.DateTo) {
			continue
		}
		out = append(out, models.AttendanceRecord{Attendance: a, Student: r.students[a.StudentID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r memAttendance) StatusCounts(_ context.Context, ownerID string, from, to time.Time) ([]models.AttendanceStatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[models.AttendanceStatus]int{}
	for _, a := range r.attendance {
		st, ok := r.students[a.StudentID]
		if !ok || st.UserID != ownerID || a.Date.Before(from) || !a.Date.Before(to) {
			continue
		}
		counts[a.Status]++
	}
	out := make([]models.AttendanceStatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, models.AttendanceStatusCount{Status: status, Count: n})
	}
	return out, nil
}

// recordingNotifier captures notices handed to the dispatcher.
type recordingNotifier struct {
	mu      sync.Mutex
	batches [][]mailer.AttendanceNotice
	single  []mailer.AttendanceNotice
	sendErr error
}

func (n *recordingNotifier) Send(_ context.Context, notice mailer.AttendanceNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.single = append(n.single, notice)
	if n.sendErr != nil {
		return appErrors.Wrap(n.sendErr, appErrors.ErrNotification.Code, appErrors.ErrNotification.Status, "failed")
	}
	return nil
}

func (n *recordingNotifier) SettleAll(_ context.Context, notices []mailer.AttendanceNotice) NotificationReport {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.batches = append(n.batches, notices)
	report := NotificationReport{Attempted: len(notices)}
	if n.sendErr != nil {
		report.Failed = len(notices)
		report.Errors = []error{n.sendErr}
	} else {
		report.Sent = len(notices)
	}
	return report
}

func (n *recordingNotifier) batchNotices() []mailer.AttendanceNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	var all []mailer.AttendanceNotice
	for _, b := range n.batches {
		all = append(all, b...)
	}
	return all
}

func (n *recordingNotifier) singleNotices() []mailer.AttendanceNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]mailer.AttendanceNotice(nil), n.single...)
}

func requireAppError(t *testing.T, err error, want *appErrors.Error) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, want), "expected %s, got %v", want.Code, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	return appErr
}
