package auth

import (
	"sync"
	"time"
)

// CredentialStore holds the bearer token used for every API request.
// It replaces ambient "current user" state: whoever needs the token gets the
// store explicitly, and an authentication failure clears it through Invalidate.
type CredentialStore struct {
	mu        sync.RWMutex
	token     string
	listeners []func()
}

// NewCredentialStore creates a store seeded with token (which may be empty)
func NewCredentialStore(token string) *CredentialStore {
	return &CredentialStore{token: token}
}

// Token returns the current bearer token, or "" when signed out
func (s *CredentialStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is present
func (s *CredentialStore) Authenticated() bool {
	return s.Token() != ""
}

// Set replaces the stored token
func (s *CredentialStore) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// OnInvalidate registers fn to run each time a present token is invalidated
func (s *CredentialStore) OnInvalidate(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Invalidate drops the token and notifies listeners. Calling it while already
// signed out does nothing, so a burst of 401s fires listeners once.
func (s *CredentialStore) Invalidate() {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.token = ""
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Claims decodes the stored token for display purposes
func (s *CredentialStore) Claims() (*JWTClaims, error) {
	token := s.Token()
	if token == "" {
		return nil, ErrInvalidToken
	}
	return ParseUnverified(token)
}

// ExpiresIn returns the time left before the stored token expires.
// ok is false when the token carries no expiry or cannot be decoded.
func (s *CredentialStore) ExpiresIn(now time.Time) (time.Duration, bool) {
	claims, err := s.Claims()
	if err != nil || claims.ExpiresAt == nil {
		return 0, false
	}
	return claims.ExpiresAt.Time.Sub(now), true
}
