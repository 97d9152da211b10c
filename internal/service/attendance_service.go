package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/mailer"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type attendanceRepository interface {
	UpsertBatch(ctx context.Context, records []models.AttendanceUpsert) (int, error)
	UpdateStatus(ctx context.Context, ownerID, id string, status models.AttendanceStatus, notes *string) (*models.AttendanceRecord, error)
	Delete(ctx context.Context, ownerID, id string) (bool, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
	StatusCounts(ctx context.Context, ownerID string, from, to time.Time) ([]models.AttendanceStatusCount, error)
}

type attendanceRoster interface {
	ListByGroup(ctx context.Context, ownerID, groupID string) ([]models.Student, error)
	FindOwnedByIDs(ctx context.Context, ownerID string, ids []string) ([]models.Student, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

type attendanceGroups interface {
	FindByOwner(ctx context.Context, ownerID, id string) (*models.Group, error)
}

type attendanceNotifier interface {
	Send(ctx context.Context, notice mailer.AttendanceNotice) error
	SettleAll(ctx context.Context, notices []mailer.AttendanceNotice) NotificationReport
}

var (
	errInvalidAttendance  = appErrors.Clone(appErrors.ErrInvalidInput, "Invalid attendance data")
	errAttendanceNotFound = appErrors.Clone(appErrors.ErrNotFound, "Attendance record not found")
)

// AttendanceService owns the attendance ledger: one record per student and
// day, reachable only through the caller's own students.
type AttendanceService struct {
	attendance attendanceRepository
	students   attendanceRoster
	groups     attendanceGroups
	notifier   attendanceNotifier
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
	location   *time.Location

	pending sync.WaitGroup
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(attendance attendanceRepository, students attendanceRoster, groups attendanceGroups, notifier attendanceNotifier, metrics *MetricsService, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		attendance: attendance,
		students:   students,
		groups:     groups,
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
		location:   time.UTC,
	}
}

// UseLocation sets the zone whose calendar decides today's date.
func (s *AttendanceService) UseLocation(loc *time.Location) {
	if loc != nil {
		s.location = loc
	}
}

func (s *AttendanceService) today() time.Time {
	return startOfDay(s.now().In(s.location))
}

// Wait blocks until background notification fan-outs have settled.
func (s *AttendanceService) Wait() {
	s.pending.Wait()
}

// MarkBatch upserts one record per student for the day. Repeated student ids
// collapse to their last entry. Students outside the caller's rosters are
// skipped and reported. Notifications are sent in the background once the
// writes are committed and do not affect the result.
func (s *AttendanceService) MarkBatch(ctx context.Context, ownerID string, req dto.MarkAttendanceRequest) (*dto.MarkAttendanceResult, error) {
	markedBy := strings.TrimSpace(req.MarkedBy)
	if strings.TrimSpace(req.Date) == "" || markedBy == "" || len(req.AttendanceData) == 0 {
		return nil, errInvalidAttendance
	}
	day, err := parseDay(req.Date)
	if err != nil {
		return nil, appErrors.WithDetails(errInvalidAttendance, "", []string{err.Error()})
	}

	order := make([]string, 0, len(req.AttendanceData))
	latest := make(map[string]dto.AttendanceEntry, len(req.AttendanceData))
	var problems []string
	for i, entry := range req.AttendanceData {
		entry.StudentID = strings.TrimSpace(entry.StudentID)
		entry.Status = strings.ToLower(strings.TrimSpace(entry.Status))
		entry.Notes = strings.TrimSpace(entry.Notes)
		if entry.StudentID == "" {
			problems = append(problems, fmt.Sprintf("record %d: studentId is required", i+1))
			continue
		}
		if !models.AttendanceStatus(entry.Status).Valid() {
			problems = append(problems, fmt.Sprintf("record %d: status %q must be present, absent or late", i+1, entry.Status))
			continue
		}
		if _, seen := latest[entry.StudentID]; !seen {
			order = append(order, entry.StudentID)
		}
		latest[entry.StudentID] = entry
	}
	if len(problems) > 0 {
		return nil, appErrors.WithDetails(errInvalidAttendance, "", problems)
	}

	candidates := make([]string, 0, len(order))
	for _, id := range order {
		if validID(id) {
			candidates = append(candidates, id)
		}
	}
	owned, err := s.students.FindOwnedByIDs(ctx, ownerID, candidates)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to mark attendance")
	}
	byID := make(map[string]models.Student, len(owned))
	for _, st := range owned {
		byID[st.ID] = st
	}

	upserts := make([]models.AttendanceUpsert, 0, len(byID))
	notices := make([]mailer.AttendanceNotice, 0, len(byID))
	var skipped []string
	for _, id := range order {
		student, ok := byID[id]
		if !ok {
			skipped = append(skipped, id)
			continue
		}
		entry := latest[id]
		upserts = append(upserts, models.AttendanceUpsert{
			StudentID: id,
			Date:      day,
			Status:    models.AttendanceStatus(entry.Status),
			Notes:     entry.Notes,
			MarkedBy:  markedBy,
		})
		notices = append(notices, mailer.AttendanceNotice{
			Email:       student.Email,
			StudentName: student.Name,
			Date:        day,
			Status:      entry.Status,
		})
	}
	if len(upserts) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "No students found for attendance")
	}

	written, err := s.attendance.UpsertBatch(ctx, upserts)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to mark attendance")
	}
	s.metrics.RecordAttendanceMarks("batch", written)
	if len(skipped) > 0 {
		s.logger.Warn("attendance batch skipped foreign students", zap.String("user_id", ownerID), zap.Strings("student_ids", skipped))
	}

	s.dispatch(ctx, notices)

	return &dto.MarkAttendanceResult{
		SuccessCount: written,
		Skipped:      skipped,
		Message:      "Attendance marked successfully",
	}, nil
}

func (s *AttendanceService) dispatch(ctx context.Context, notices []mailer.AttendanceNotice) {
	if s.notifier == nil || len(notices) == 0 {
		return
	}
	bg := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		report := s.notifier.SettleAll(bg, notices)
		if report.Failed > 0 {
			s.logger.Warn("attendance notifications failed",
				zap.Int("attempted", report.Attempted),
				zap.Int("failed", report.Failed),
				zap.Errors("errors", report.Errors),
			)
		}
	}()
}

// Update changes the status of one record, and its notes when provided, then
// sends an update notice before returning. A failed notice is logged, not
// returned.
func (s *AttendanceService) Update(ctx context.Context, ownerID, attendanceID string, req dto.UpdateAttendanceRequest) (*models.AttendanceRecord, error) {
	status := models.AttendanceStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if status == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "Status is required")
	}
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "Status must be present, absent or late")
	}
	if !validID(attendanceID) {
		return nil, errAttendanceNotFound
	}

	var notes *string
	if req.Notes != nil {
		trimmed := strings.TrimSpace(*req.Notes)
		notes = &trimmed
	}
	record, err := s.attendance.UpdateStatus(ctx, ownerID, attendanceID, status, notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errAttendanceNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to update attendance")
	}
	s.metrics.RecordAttendanceMarks("update", 1)

	if s.notifier != nil {
		notice := mailer.AttendanceNotice{
			Email:       record.Student.Email,
			StudentName: record.Student.Name,
			Date:        record.Date,
			Status:      string(record.Status),
			IsUpdate:    true,
		}
		if err := s.notifier.Send(ctx, notice); err != nil {
			s.logger.Warn("attendance update notice failed", zap.String("attendance_id", record.ID), zap.Error(err))
		}
	}
	return record, nil
}

// Delete removes one record reachable through the caller's students.
func (s *AttendanceService) Delete(ctx context.Context, ownerID, attendanceID string) error {
	if !validID(attendanceID) {
		return errAttendanceNotFound
	}
	deleted, err := s.attendance.Delete(ctx, ownerID, attendanceID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to delete attendance record")
	}
	if !deleted {
		return errAttendanceNotFound
	}
	return nil
}

// List returns a group's attendance, newest first. A student filter outside
// the group's roster yields an empty listing rather than an error.
func (s *AttendanceService) List(ctx context.Context, ownerID string, query dto.AttendanceQuery) (*dto.AttendanceListing, error) {
	group, err := s.ownedGroup(ctx, ownerID, strings.TrimSpace(query.GroupID))
	if err != nil {
		return nil, err
	}
	roster, err := s.students.ListByGroup(ctx, ownerID, group.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to retrieve attendance records")
	}

	filter := models.AttendanceFilter{StudentIDs: make([]string, 0, len(roster))}
	studentID := strings.TrimSpace(query.StudentID)
	for _, st := range roster {
		if studentID == "" || st.ID == studentID {
			filter.StudentIDs = append(filter.StudentIDs, st.ID)
		}
	}

	selectedDate := strings.TrimSpace(query.Date)
	if selectedDate != "" {
		day, err := parseDay(selectedDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidInput, err.Error())
		}
		from, to := dayBounds(day)
		filter.DateFrom, filter.DateTo = &from, &to
	}

	records, err := s.attendance.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to retrieve attendance records")
	}
	return &dto.AttendanceListing{
		Group:           *group,
		Attendance:      records,
		Students:        roster,
		SelectedDate:    selectedDate,
		SelectedStudent: studentID,
	}, nil
}

// MarkingPage returns a group's roster and today's date for the marking screen.
func (s *AttendanceService) MarkingPage(ctx context.Context, ownerID, groupID string) (*dto.MarkingPage, error) {
	group, err := s.ownedGroup(ctx, ownerID, strings.TrimSpace(groupID))
	if err != nil {
		return nil, err
	}
	roster, err := s.students.ListByGroup(ctx, ownerID, group.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to retrieve students")
	}
	return &dto.MarkingPage{
		Group:    *group,
		Students: roster,
		Date:     s.today().Format(dayLayout),
	}, nil
}

// Stats counts the caller's records per status for one day, today by default.
func (s *AttendanceService) Stats(ctx context.Context, ownerID, date string) (*models.AttendanceStats, error) {
	day := s.today()
	if strings.TrimSpace(date) != "" {
		parsed, err := parseDay(date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidInput, err.Error())
		}
		day = parsed
	}

	total, err := s.students.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to retrieve attendance statistics")
	}
	counts, err := s.attendance.StatusCounts(ctx, ownerID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to retrieve attendance statistics")
	}

	stats := &models.AttendanceStats{Date: day.Format(dayLayout), TotalStudents: total}
	for _, c := range counts {
		switch c.Status {
		case models.AttendanceStatusPresent:
			stats.Present = c.Count
		case models.AttendanceStatusAbsent:
			stats.Absent = c.Count
		case models.AttendanceStatusLate:
			stats.Late = c.Count
		}
	}
	return stats, nil
}

func (s *AttendanceService) ownedGroup(ctx context.Context, ownerID, groupID string) (*models.Group, error) {
	if groupID == "" || !validID(groupID) {
		return nil, errGroupNotFound
	}
	group, err := s.groups.FindByOwner(ctx, ownerID, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errGroupNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return group, nil
}
