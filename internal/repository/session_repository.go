package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

const sessionKeyPrefix = "session:"

// SessionRepository keeps server-side session records in Redis so that a
// signed cookie can be revoked before it expires.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Save stores the session until ttl elapses.
func (r *SessionRepository) Save(ctx context.Context, session *models.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ID, err)
	}
	if err := r.client.Set(ctx, sessionKey(session.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", session.ID, err)
	}
	return nil
}

// Find loads a live session; a missing or expired key yields ErrSessionNotFound.
func (r *SessionRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get session %s: %w", id, err)
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &session, nil
}

// Delete revokes a session. Deleting an unknown session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session %s: %w", id, err)
	}
	return nil
}
