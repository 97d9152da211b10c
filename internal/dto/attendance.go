package dto

import "github.com/noah-isme/attendance-tracker-api/internal/models"

// AttendanceEntry is one student's mark inside a batch.
type AttendanceEntry struct {
	StudentID string `json:"studentId"`
	Status    string `json:"status"`
	Notes     string `json:"notes"`
}

// MarkAttendanceRequest submits a batch of marks for one day.
type MarkAttendanceRequest struct {
	Date           string         `json:"date"`
	MarkedBy       string         `json:"markedBy"`
	AttendanceData AttendanceData `json:"attendanceData"`
}

// MarkAttendanceResult reports a batch write. Skipped lists student ids that
// were not written because they are not on the caller's rosters.
type MarkAttendanceResult struct {
	SuccessCount int      `json:"successCount"`
	Skipped      []string `json:"skipped,omitempty"`
	Message      string   `json:"message"`
}

// UpdateAttendanceRequest edits one record. A nil Notes keeps the stored notes.
type UpdateAttendanceRequest struct {
	Status string  `json:"status" form:"status"`
	Notes  *string `json:"notes" form:"notes"`
}

// AttendanceQuery filters the attendance listing and export.
type AttendanceQuery struct {
	GroupID   string `form:"groupId"`
	Date      string `form:"date"`
	StudentID string `form:"studentId"`
	Format    string `form:"format"`
}

// AttendanceListing is a filtered view of one group's attendance, with the
// roster and the active filters for the filter widgets.
type AttendanceListing struct {
	Group           models.Group              `json:"group"`
	Attendance      []models.AttendanceRecord `json:"attendance"`
	Students        []models.Student          `json:"students"`
	SelectedDate    string                    `json:"selectedDate"`
	SelectedStudent string                    `json:"selectedStudent"`
}

// MarkingPage is the data behind the marking screen.
type MarkingPage struct {
	Group    models.Group     `json:"group"`
	Students []models.Student `json:"students"`
	Date     string           `json:"date"`
}
