package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type attendanceServiceMock struct {
	markCalled bool
	lastMark   dto.MarkAttendanceRequest
	lastQuery  dto.AttendanceQuery
	lastDate   string
	lastOwner  string
	lastUpdate dto.UpdateAttendanceRequest
	listErr    error
}

func (m *attendanceServiceMock) MarkBatch(_ context.Context, ownerID string, req dto.MarkAttendanceRequest) (*dto.MarkAttendanceResult, error) {
	m.markCalled = true
	m.lastOwner = ownerID
	m.lastMark = req
	return &dto.MarkAttendanceResult{SuccessCount: len(req.AttendanceData), Message: "Attendance marked successfully"}, nil
}

func (m *attendanceServiceMock) Update(_ context.Context, _, id string, req dto.UpdateAttendanceRequest) (*models.AttendanceRecord, error) {
	m.lastUpdate = req
	if req.Status == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "Status is required")
	}
	return &models.AttendanceRecord{Attendance: models.Attendance{ID: id, Status: models.AttendanceStatus(req.Status)}}, nil
}

func (m *attendanceServiceMock) Delete(_ context.Context, _, _ string) error {
	return appErrors.Clone(appErrors.ErrNotFound, "Attendance record not found")
}

func (m *attendanceServiceMock) List(_ context.Context, _ string, query dto.AttendanceQuery) (*dto.AttendanceListing, error) {
	m.lastQuery = query
	if m.listErr != nil {
		return nil, m.listErr
	}
	return &dto.AttendanceListing{Attendance: []models.AttendanceRecord{}}, nil
}

func (m *attendanceServiceMock) MarkingPage(_ context.Context, _, groupID string) (*dto.MarkingPage, error) {
	return &dto.MarkingPage{Group: models.Group{ID: groupID}, Date: "2024-01-10"}, nil
}

func (m *attendanceServiceMock) Stats(_ context.Context, _, date string) (*models.AttendanceStats, error) {
	m.lastDate = date
	return &models.AttendanceStats{Date: "2024-01-10", TotalStudents: 2, Present: 1, Absent: 1}, nil
}

type exporterMock struct{}

func (exporterMock) ExportAttendance(_ context.Context, _ string, query dto.AttendanceQuery) (*service.ExportFile, error) {
	if query.Format == "xlsx" {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "unsupported export format")
	}
	return &service.ExportFile{Filename: "attendance-g1.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("Date\n")}, nil
}

func newAttendanceRouter(mockSvc *attendanceServiceMock) http.Handler {
	h := NewAttendanceHandler(mockSvc, exporterMock{})
	r := newTestRouter()
	r.GET("/attendance/mark", h.MarkingPage)
	r.POST("/attendance/mark", h.Mark)
	r.GET("/attendance/view", h.View)
	r.GET("/attendance/export", h.Export)
	r.POST("/attendance/update/:id", h.Update)
	r.POST("/attendance/delete/:id", h.Delete)
	r.GET("/attendance/stats", h.Stats)
	return r
}

func TestAttendanceHandlerMarkAcceptsEncodedPayload(t *testing.T) {
	mockSvc := &attendanceServiceMock{}
	r := newAttendanceRouter(mockSvc)

	body := `{"date":"2024-01-10","markedBy":"Ms. Rao","attendanceData":"[{\"studentId\":\"s1\",\"status\":\"present\"}]"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/attendance/mark", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testOwner, mockSvc.lastOwner)
	require.Len(t, mockSvc.lastMark.AttendanceData, 1)
	assert.Equal(t, "s1", mockSvc.lastMark.AttendanceData[0].StudentID)
}

func TestAttendanceHandlerMarkRejectsMalformedBody(t *testing.T) {
	mockSvc := &attendanceServiceMock{}
	r := newAttendanceRouter(mockSvc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/attendance/mark", bytes.NewBufferString(`{"attendanceData": 42}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.markCalled)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "Invalid attendance data", env.Error.Message)
}

func TestAttendanceHandlerViewBindsFilters(t *testing.T) {
	mockSvc := &attendanceServiceMock{}
	r := newAttendanceRouter(mockSvc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attendance/view?groupId=g1&date=2024-01-10&studentId=s1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.AttendanceQuery{GroupID: "g1", Date: "2024-01-10", StudentID: "s1"}, mockSvc.lastQuery)

	mockSvc.listErr = appErrors.Clone(appErrors.ErrNotFound, "Class not found")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attendance/view", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttendanceHandlerExport(t *testing.T) {
	r := newAttendanceRouter(&attendanceServiceMock{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attendance/export?groupId=g1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="attendance-g1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Date\n", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attendance/export?groupId=g1&format=xlsx", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerUpdateDeleteAndStats(t *testing.T) {
	mockSvc := &attendanceServiceMock{}
	r := newAttendanceRouter(mockSvc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/attendance/update/a1", bytes.NewBufferString(`{"status":"late"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, mockSvc.lastUpdate.Notes)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/attendance/update/a1", bytes.NewBufferString(`{"status":"late","notes":""}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastUpdate.Notes)
	assert.Equal(t, "", *mockSvc.lastUpdate.Notes)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/attendance/update/a1", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Status is required", decodeEnvelope(t, w).Error.Message)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/attendance/delete/a1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attendance/stats?date=2024-01-10", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-01-10", mockSvc.lastDate)
	assert.JSONEq(t, `{"date":"2024-01-10","totalStudents":2,"present":1,"absent":1,"late":0}`, string(decodeEnvelope(t, w).Data))
}
