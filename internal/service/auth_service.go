package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/database"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type sessionStore interface {
	Save(ctx context.Context, session *models.Session, ttl time.Duration) error
	Find(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret     string
	TTL        time.Duration
	Issuer     string
	BcryptCost int
}

// AuthService registers accounts and issues revocable signed sessions.
type AuthService struct {
	users     userRepository
	sessions  sessionStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users userRepository, sessions sessionStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TTL <= 0 {
		config.TTL = 24 * time.Hour
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = 12
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		validator: registerValidations(validate),
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Register creates an account. Emails are unique regardless of case.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.GroupOrClass = strings.TrimSpace(req.GroupOrClass)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid registration payload")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "Email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  string(hash),
		InstituteType: models.InstituteType(req.InstituteType),
		GroupOrClass:  req.GroupOrClass,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "Email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login verifies credentials and issues a session. Unknown email and wrong
// password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.SessionResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	issuedAt := s.now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: issuedAt,
		ExpiresAt: issuedAt.Add(s.config.TTL),
	}
	if err := s.sessions.Save(ctx, session, s.config.TTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	identity := models.SessionUser{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		InstituteType: user.InstituteType,
	}
	token, err := s.signSession(session, identity)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session")
	}

	return &dto.SessionResponse{
		IsLoggedIn: true,
		User:       identity,
		Token:      token,
		ExpiresAt:  session.ExpiresAt,
	}, nil
}

// Authenticate resolves a session token into the caller's identity. Tokens
// that are malformed, expired or revoked are all Unauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing session")
	}
	claims, err := s.parseSession(token)
	if err != nil {
		return nil, err
	}
	if !claims.IsLoggedIn || claims.ID == "" || claims.User.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session")
	}

	session, err := s.sessions.Find(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, appErrors.ErrSessionNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired or revoked")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.UserID != claims.User.ID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session")
	}

	return &models.Identity{SessionID: session.ID, User: claims.User}, nil
}

// Logout revokes the caller's session.
func (s *AuthService) Logout(ctx context.Context, identity models.Identity) error {
	if err := s.sessions.Delete(ctx, identity.SessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke session")
	}
	return nil
}

// TTL is the lifetime of issued sessions.
func (s *AuthService) TTL() time.Duration {
	return s.config.TTL
}

func (s *AuthService) signSession(session *models.Session, user models.SessionUser) (string, error) {
	claims := &models.SessionClaims{
		IsLoggedIn: true,
		User:       user,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			NotBefore: jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func (s *AuthService) parseSession(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session")
	}
	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}
	return claims, nil
}
