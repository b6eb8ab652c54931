// Package session holds the client's persisted credentials: the access
// token, the refresh token and the signed-in user record.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/aidtrace/internal/domain"
)

// Persisted keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// Store is the process-wide session object handed to the API client.
type Store struct {
	mu      sync.RWMutex
	backend Backend
}

// NewStore wraps backend. A nil backend gets an in-memory one.
func NewStore(backend Backend) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	return &Store{backend: backend}
}

// AccessToken returns the persisted access token or "" when none exists.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyAccessToken)
}

// RefreshToken returns the persisted refresh token or "" when none exists.
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyRefreshToken)
}

// User returns the persisted user record, or nil when nobody is signed in.
func (s *Store) User(ctx context.Context) (*domain.User, error) {
	raw, err := s.get(ctx, KeyUser)
	if err != nil || raw == "" {
		return nil, err
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode persisted user: %w", err)
	}
	return &u, nil
}

// SaveLogin persists all three session keys.
func (s *Store) SaveLogin(ctx context.Context, access, refresh string, user domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Set(ctx, KeyAccessToken, access); err != nil {
		return err
	}
	if err := s.backend.Set(ctx, KeyRefreshToken, refresh); err != nil {
		return err
	}
	return s.backend.Set(ctx, KeyUser, string(raw))
}

// SetAccessToken overwrites the access token after a refresh.
func (s *Store) SetAccessToken(ctx context.Context, access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Set(ctx, KeyAccessToken, access)
}

// ClearTokens removes both tokens but keeps the user record.
func (s *Store) ClearTokens(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Delete(ctx, KeyAccessToken, KeyRefreshToken)
}

// Clear removes every session key.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyUser)
}

// AccessExpiry reads the exp claim of the access token without verifying
// its signature. The zero time is returned when there is no token or no
// exp claim.
func (s *Store) AccessExpiry(ctx context.Context) (time.Time, error) {
	token, err := s.AccessToken(ctx)
	if err != nil || token == "" {
		return time.Time{}, err
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("parse access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
