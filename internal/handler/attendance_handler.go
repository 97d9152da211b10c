package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type attendanceService interface {
	MarkBatch(ctx context.Context, ownerID string, req dto.MarkAttendanceRequest) (*dto.MarkAttendanceResult, error)
	Update(ctx context.Context, ownerID, attendanceID string, req dto.UpdateAttendanceRequest) (*models.AttendanceRecord, error)
	Delete(ctx context.Context, ownerID, attendanceID string) error
	List(ctx context.Context, ownerID string, query dto.AttendanceQuery) (*dto.AttendanceListing, error)
	MarkingPage(ctx context.Context, ownerID, groupID string) (*dto.MarkingPage, error)
	Stats(ctx context.Context, ownerID, date string) (*models.AttendanceStats, error)
}

type attendanceExporter interface {
	ExportAttendance(ctx context.Context, ownerID string, query dto.AttendanceQuery) (*service.ExportFile, error)
}

// AttendanceHandler exposes attendance marking, listing and export endpoints.
type AttendanceHandler struct {
	service  attendanceService
	exporter attendanceExporter
}

// NewAttendanceHandler builds a new handler.
func NewAttendanceHandler(svc attendanceService, exporter attendanceExporter) *AttendanceHandler {
	return &AttendanceHandler{service: svc, exporter: exporter}
}

// MarkingPage godoc
// @Summary Marking screen data
// @Tags Attendance
// @Produce json
// @Param groupId query string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/mark [get]
func (h *AttendanceHandler) MarkingPage(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	page, err := h.service.MarkingPage(c.Request.Context(), identity.OwnerID(), firstQuery(c, "groupId", "group"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page)
}

// Mark godoc
// @Summary Mark attendance
// @Description Upserts one record per student for the day and notifies students by email
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.MarkAttendanceRequest true "Batch of marks"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "Invalid attendance data"))
		return
	}
	res, err := h.service.MarkBatch(c.Request.Context(), identity.OwnerID(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// View godoc
// @Summary List attendance
// @Tags Attendance
// @Produce json
// @Param groupId query string true "Class ID"
// @Param date query string false "Day (YYYY-MM-DD)"
// @Param studentId query string false "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/view [get]
func (h *AttendanceHandler) View(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var query dto.AttendanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid attendance filter"))
		return
	}
	listing, err := h.service.List(c.Request.Context(), identity.OwnerID(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listing)
}

// Export godoc
// @Summary Export attendance
// @Tags Attendance
// @Produce text/csv
// @Produce application/pdf
// @Param groupId query string true "Class ID"
// @Param date query string false "Day (YYYY-MM-DD)"
// @Param studentId query string false "Student ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var query dto.AttendanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid attendance filter"))
		return
	}
	file, err := h.exporter.ExportAttendance(c.Request.Context(), identity.OwnerID(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

// Update godoc
// @Summary Update attendance record
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Attendance ID"
// @Param payload body dto.UpdateAttendanceRequest true "New status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/update/{id} [post]
func (h *AttendanceHandler) Update(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req dto.UpdateAttendanceRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid attendance update"))
		return
	}
	record, err := h.service.Update(c.Request.Context(), identity.OwnerID(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, map[string]interface{}{"message": "Attendance updated successfully"})
}

// Delete godoc
// @Summary Delete attendance record
// @Tags Attendance
// @Produce json
// @Param id path string true "Attendance ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/delete/{id} [post]
func (h *AttendanceHandler) Delete(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), identity.OwnerID(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Attendance deleted successfully"})
}

// Stats godoc
// @Summary Attendance statistics for a day
// @Tags Attendance
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/stats [get]
func (h *AttendanceHandler) Stats(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), identity.OwnerID(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}
