package models

import "time"

// Student is a roster entry belonging to exactly one group and one user.
type Student struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"userId"`
	GroupID    string    `db:"group_id" json:"groupId"`
	RollNumber string    `db:"roll_number" json:"rollNumber"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	Phone      string    `db:"phone" json:"phone"`
	Course     string    `db:"course" json:"course"`
	Semester   int       `db:"semester" json:"semester"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// StudentFilter narrows a roster listing.
type StudentFilter struct {
	GroupID string
}
