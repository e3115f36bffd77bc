// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// SessionManager creates and validates client sessions on top of the TTL
// cache. Expiry is sliding: each validated activity extends the session,
// creation alone does not keep it alive past the TTL.
type SessionManager struct {
	cache *Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionManager creates a manager with the given sliding TTL.
func NewSessionManager(c *Cache, cfg types.SessionConfig) *SessionManager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{cache: c, ttl: ttl, now: time.Now}
}

func sessionKey(id string) string { return "session:" + id }

// Create registers a new session and returns it.
func (m *SessionManager) Create() types.Session {
	now := m.now()
	s := types.Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.ttl),
		LastActivity: now,
	}
	m.cache.Put(sessionKey(s.ID), s, m.ttl)
	return s
}

// Validate reports whether the session exists and is unexpired. A valid
// session has its expiry extended and last-activity stamp refreshed.
func (m *SessionManager) Validate(id string) bool {
	if id == "" {
		return false
	}
	key := sessionKey(id)

	v, ok := m.cache.Get(key)
	if !ok {
		return false
	}
	s, ok := v.(types.Session)
	if !ok {
		return false
	}

	now := m.now()
	// The cache TTL and the session's own expiry normally agree; the
	// record is authoritative when they drift.
	if s.Expired(now) {
		m.cache.Delete(key)
		return false
	}

	s.LastActivity = now
	s.ExpiresAt = now.Add(m.ttl)
	m.cache.Put(key, s, m.ttl)
	return true
}
