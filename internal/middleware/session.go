package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/logger"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

// ContextUserKey is the gin context key storing the caller's identity.
const ContextUserKey = "currentUser"

// Authenticator resolves a session token into an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Identity, error)
}

// Session protects routes by requiring a live session, read from the session
// cookie or a bearer Authorization header.
func Session(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cookieName)
		if token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required"))
			c.Abort()
			return
		}

		identity, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, identity)
		c.Set(logger.UserIDKey, identity.OwnerID())
		c.Next()
	}
}

// OptionalSession attaches the identity when a valid session is present but does not block.
func OptionalSession(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cookieName)
		if token == "" {
			c.Next()
			return
		}
		identity, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}
		c.Set(ContextUserKey, identity)
		c.Set(logger.UserIDKey, identity.OwnerID())
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Session, if any.
func IdentityFrom(c *gin.Context) (*models.Identity, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*models.Identity)
	return identity, ok && identity != nil
}

func sessionToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}
