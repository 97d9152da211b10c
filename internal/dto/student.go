package dto

import "github.com/noah-isme/attendance-tracker-api/internal/models"

// StudentRequest carries the editable student fields. The group arrives as
// "groupId" in JSON and "group" in forms.
type StudentRequest struct {
	RollNumber string     `json:"rollNumber" form:"rollNumber"`
	Name       string     `json:"name" form:"name"`
	Email      string     `json:"email" form:"email"`
	Phone      string     `json:"phone" form:"phone"`
	Course     string     `json:"course" form:"course"`
	Semester   FlexString `json:"semester" form:"semester"`
	GroupID    string     `json:"groupId" form:"group"`
}

// StudentForm is the data behind the add and edit student screens.
type StudentForm struct {
	Student         *models.Student `json:"student"`
	Groups          []models.Group  `json:"groups"`
	SelectedGroupID string          `json:"selectedGroupId,omitempty"`
}

// StudentResult is returned after a successful create or update.
type StudentResult struct {
	Student  models.Student `json:"student"`
	Redirect string         `json:"redirect"`
}

// ImportForm is the data behind the import screen.
type ImportForm struct {
	Groups          []models.Group `json:"groups"`
	SelectedGroupID string         `json:"selectedGroupId,omitempty"`
}

// ImportResult reports a bulk import. Errors holds at most the first five
// messages; TotalErrors counts all of them.
type ImportResult struct {
	SuccessCount int      `json:"successCount"`
	Errors       []string `json:"errors"`
	TotalErrors  int      `json:"totalErrors"`
	Success      string   `json:"success"`
	Error        string   `json:"error,omitempty"`
}
