package models

import "time"

// InstituteType classifies the organisation a user teaches at.
type InstituteType string

const (
	InstituteSchool     InstituteType = "School"
	InstituteCollege    InstituteType = "College"
	InstituteUniversity InstituteType = "University"
	InstituteCoaching   InstituteType = "Coaching"
)

// Valid reports whether t is a supported institute type.
func (t InstituteType) Valid() bool {
	switch t {
	case InstituteSchool, InstituteCollege, InstituteUniversity, InstituteCoaching:
		return true
	default:
		return false
	}
}

// User is an account that owns groups, students and attendance.
type User struct {
	ID            string        `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	Email         string        `db:"email" json:"email"`
	PasswordHash  string        `db:"password_hash" json:"-"`
	InstituteType InstituteType `db:"institute_type" json:"instituteType"`
	GroupOrClass  string        `db:"group_or_class" json:"groupOrClass"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
}
