package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/pkg/export"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

var exportHeaders = []string{"Date", "Roll Number", "Name", "Status", "Notes", "Marked By"}

var unsafeFileChars = regexp.MustCompile(`[^a-z0-9]+`)

type attendanceLister interface {
	List(ctx context.Context, ownerID string, query dto.AttendanceQuery) (*dto.AttendanceListing, error)
}

type renderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportFile is a rendered document ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ReportService renders attendance listings as downloadable files.
type ReportService struct {
	attendance attendanceLister
	renderers  map[string]renderer
	logger     *zap.Logger
}

// NewReportService constructs a ReportService. Nil renderers fall back to the defaults.
func NewReportService(attendance attendanceLister, csv, pdf renderer, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ReportService{
		attendance: attendance,
		renderers:  map[string]renderer{FormatCSV: csv, FormatPDF: pdf},
		logger:     logger,
	}
}

// ExportAttendance renders the same scoped listing the attendance view shows.
func (s *ReportService) ExportAttendance(ctx context.Context, ownerID string, query dto.AttendanceQuery) (*ExportFile, error) {
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" {
		format = FormatCSV
	}
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("unsupported export format %q", query.Format))
	}

	listing, err := s.attendance.List(ctx, ownerID, query)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(listing.Attendance))}
	for _, rec := range listing.Attendance {
		data.Rows = append(data.Rows, map[string]string{
			"Date":        rec.Date.UTC().Format(dayLayout),
			"Roll Number": rec.Student.RollNumber,
			"Name":        rec.Student.Name,
			"Status":      string(rec.Status),
			"Notes":       rec.Notes,
			"Marked By":   rec.MarkedBy,
		})
	}

	title := "Attendance - " + listing.Group.Name
	if listing.SelectedDate != "" {
		title += " - " + listing.SelectedDate
	}
	body, err := r.Render(data, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Debug("attendance exported", zap.String("group_id", listing.Group.ID), zap.String("format", format), zap.Int("rows", len(data.Rows)))

	return &ExportFile{
		Filename:    exportFilename(listing.Group.Name, listing.SelectedDate, r.Extension()),
		ContentType: r.ContentType(),
		Body:        body,
	}, nil
}

func exportFilename(groupName, date, ext string) string {
	slug := strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(groupName), "-"), "-")
	if slug == "" {
		slug = "class"
	}
	name := "attendance-" + slug
	if date != "" {
		name += "-" + date
	}
	return name + "." + ext
}
