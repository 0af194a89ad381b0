// Package session resolves the identity behind a session cookie.
// Sessions are issued by the identity provider and stored in Redis with a TTL.
// photofeed never creates them; it reads them and removes ones found past ExpiresAt.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when a session has expired
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidSession is returned when session data is invalid
	ErrInvalidSession = errors.New("invalid session")
)

// Manager looks sessions up by id.
type Manager interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
}

type manager struct {
	store Store
	now   func() time.Time
}

// NewManager creates a new session manager
func NewManager(store Store) Manager {
	return &manager{store: store, now: time.Now}
}

func key(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Get returns the session, deleting it when it has outlived ExpiresAt.
func (m *manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	data, err := m.store.Get(ctx, key(sessionID))
	if errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil || s.UserID == "" {
		return nil, ErrInvalidSession
	}

	if m.now().After(s.ExpiresAt) {
		_ = m.store.Delete(ctx, key(sessionID))
		return nil, ErrSessionExpired
	}
	return &s, nil
}

// Session is the record the identity provider writes under session:<id>.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
