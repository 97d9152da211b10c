package dto

import (
	"time"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

// RegisterRequest creates an account.
type RegisterRequest struct {
	Name          string `json:"name" form:"name" validate:"required"`
	Email         string `json:"email" form:"email" validate:"required,email"`
	Password      string `json:"password" form:"password" validate:"required,min=6"`
	InstituteType string `json:"instituteType" form:"instituteType" validate:"required,institute_type"`
	GroupOrClass  string `json:"groupOrClass" form:"groupOrClass"`
}

// LoginRequest exchanges credentials for a session.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// SessionResponse describes an issued session. Token is the same value the
// session cookie carries, for clients that send it as a bearer token.
type SessionResponse struct {
	IsLoggedIn bool               `json:"isLoggedIn"`
	User       models.SessionUser `json:"user"`
	Token      string             `json:"token"`
	ExpiresAt  time.Time          `json:"expiresAt"`
}
