package dto

import "github.com/noah-isme/attendance-tracker-api/internal/models"

// CreateGroupRequest creates a group. Schedule is also bound from repeated
// form values.
type CreateGroupRequest struct {
	Name        string       `json:"name" form:"name" validate:"required"`
	Description string       `json:"description" form:"description"`
	Schedule    ScheduleTags `json:"schedule" form:"schedule" validate:"dive,weekday"`
}

// GroupDashboard is a group with its roster sorted by name.
type GroupDashboard struct {
	Group    models.Group     `json:"group"`
	Students []models.Student `json:"students"`
}
