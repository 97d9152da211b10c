package models

import "time"

// AttendanceStatus is the outcome recorded for a student on a day.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate:
		return true
	default:
		return false
	}
}

// Attendance is the single record kept per (student, day).
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"studentId"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Notes     string           `db:"notes" json:"notes"`
	MarkedBy  string           `db:"marked_by" json:"markedBy"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time        `db:"updated_at" json:"updatedAt"`
}

// AttendanceRecord is an attendance row joined with its student.
type AttendanceRecord struct {
	Attendance
	Student Student `db:"student" json:"student"`
}

// AttendanceFilter scopes a listing. StudentIDs is the permitted roster;
// an empty set never widens the scope.
type AttendanceFilter struct {
	StudentIDs []string
	DateFrom   *time.Time
	DateTo     *time.Time
}

// AttendanceUpsert is one write of a batch mark.
type AttendanceUpsert struct {
	ID        string
	StudentID string
	Date      time.Time
	Status    AttendanceStatus
	Notes     string
	MarkedBy  string
}

// AttendanceStatusCount is one row of the per-status aggregate.
type AttendanceStatusCount struct {
	Status AttendanceStatus `db:"status"`
	Count  int              `db:"count"`
}

// AttendanceStats summarises a day for one owner.
type AttendanceStats struct {
	Date          string `json:"date"`
	TotalStudents int    `json:"totalStudents"`
	Present       int    `json:"present"`
	Absent        int    `json:"absent"`
	Late          int    `json:"late"`
}
