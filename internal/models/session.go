package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionUser is the identity carried by a session.
type SessionUser struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	InstituteType InstituteType `json:"instituteType"`
}

// SessionClaims is the signed payload of the session cookie.
type SessionClaims struct {
	IsLoggedIn bool        `json:"isLoggedIn"`
	User       SessionUser `json:"user"`
	jwt.RegisteredClaims
}

// Session is the server-side record that keeps a cookie valid until logout.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Identity is the authenticated caller every scoped operation filters by.
type Identity struct {
	SessionID string
	User      SessionUser
}

// OwnerID returns the id all tenant data is filtered by.
func (i Identity) OwnerID() string {
	return i.User.ID
}
