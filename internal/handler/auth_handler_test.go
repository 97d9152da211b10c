package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type authServiceMock struct {
	loginResp   *dto.SessionResponse
	loginErr    error
	registerErr error
	lastLogin   dto.LoginRequest
	loggedOut   []string
}

func (m *authServiceMock) Register(_ context.Context, req dto.RegisterRequest) (*models.User, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return &models.User{ID: "u1", Name: req.Name, Email: req.Email}, nil
}

func (m *authServiceMock) Login(_ context.Context, req dto.LoginRequest) (*dto.SessionResponse, error) {
	m.lastLogin = req
	return m.loginResp, m.loginErr
}

func (m *authServiceMock) Logout(_ context.Context, identity models.Identity) error {
	m.loggedOut = append(m.loggedOut, identity.SessionID)
	return nil
}

func (m *authServiceMock) TTL() time.Duration { return time.Hour }

func TestAuthHandlerLoginSetsCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &authServiceMock{loginResp: &dto.SessionResponse{IsLoggedIn: true, Token: "signed-token"}}
	h := NewAuthHandler(mockSvc, CookieConfig{Name: "sid"})
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("email=priya%40example.com&password=secret1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "priya@example.com", mockSvc.lastLogin.Email)
	cookie := w.Result().Cookies()
	require.Len(t, cookie, 1)
	assert.Equal(t, "sid", cookie[0].Name)
	assert.Equal(t, "signed-token", cookie[0].Value)
	assert.True(t, cookie[0].HttpOnly)
	assert.Equal(t, 3600, cookie[0].MaxAge)
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&authServiceMock{loginErr: appErrors.ErrInvalidCredentials}, CookieConfig{})
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"a@b.co","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, decodeEnvelope(t, w).Error.Code)
}

func TestAuthHandlerRegisterEchoesInputWithoutPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&authServiceMock{registerErr: appErrors.Clone(appErrors.ErrDuplicateKey, "Email already exists")}, CookieConfig{})
	r := gin.New()
	r.POST("/auth/register", h.Register)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(`{"name":"P","email":"p@x.io","password":"secret1","instituteType":"School"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	input := env.Meta["input"].(map[string]interface{})
	assert.Equal(t, "p@x.io", input["email"])
	assert.Equal(t, "", input["password"])
}

func TestAuthHandlerLogoutClearsCookie(t *testing.T) {
	mockSvc := &authServiceMock{}
	h := NewAuthHandler(mockSvc, CookieConfig{Name: "sid"})
	r := newTestRouter()
	r.POST("/auth/logout", h.Logout)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"session-1"}, mockSvc.loggedOut)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}
