package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Weekday tags accepted in a group schedule.
var Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// NormalizeWeekday maps a short or full day name in any case to its tag.
func NormalizeWeekday(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := d.String()
		if strings.EqualFold(raw, full) || strings.EqualFold(raw, full[:3]) {
			return full[:3], true
		}
	}
	return raw, false
}

// Group is a class or cohort owned by one user.
type Group struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	UserID      string         `db:"user_id" json:"userId"`
	Schedule    pq.StringArray `db:"schedule" json:"schedule"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// GroupWithCount annotates a group with the size of its roster.
type GroupWithCount struct {
	Group
	StudentCount int `json:"studentCount"`
}

// GroupStudentCount is one row of the roster-size aggregate.
type GroupStudentCount struct {
	GroupID string `db:"group_id"`
	Count   int    `db:"count"`
}
