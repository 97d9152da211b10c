package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/middleware"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

// currentIdentity returns the caller's identity or writes a 401 and reports false.
func currentIdentity(c *gin.Context) (*models.Identity, bool) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		c.Abort()
		return nil, false
	}
	return identity, true
}

// inputMeta echoes the submitted payload so clients can re-populate a form.
func inputMeta(input interface{}) map[string]interface{} {
	return map[string]interface{}{"input": input}
}
