// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache() (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
	c := New()
	c.now = clock.now
	return c, clock
}

func TestCachePutGet(t *testing.T) {
	c, _ := newTestCache()
	c.Put("k", "v", time.Minute)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestCacheExpiresLazily(t *testing.T) {
	c, clock := newTestCache()
	c.Put("k", "v", time.Minute)

	clock.advance(61 * time.Second)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry should be removed on access")
}

func TestCacheZeroTTLStoresNothing(t *testing.T) {
	c, _ := newTestCache()
	c.Put("k", "v", 0)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCacheTouchExtends(t *testing.T) {
	c, clock := newTestCache()
	c.Put("k", "v", time.Minute)

	clock.advance(50 * time.Second)
	require.True(t, c.Touch("k", time.Minute))

	clock.advance(50 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok, "touched entry should survive past its original TTL")
}

func TestCacheTouchExpired(t *testing.T) {
	c, clock := newTestCache()
	c.Put("k", "v", time.Minute)
	clock.advance(2 * time.Minute)
	assert.False(t, c.Touch("k", time.Minute))
}

func TestCacheSweep(t *testing.T) {
	c, clock := newTestCache()
	c.Put("a", 1, time.Minute)
	c.Put("b", 2, time.Hour)

	clock.advance(30 * time.Minute)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("b")
	assert.True(t, ok)
}

func TestSessionCreateValidate(t *testing.T) {
	c, _ := newTestCache()
	m := NewSessionManager(c, types.SessionConfig{TTL: time.Hour})
	m.now = c.now

	s := m.Create()
	assert.NotEmpty(t, s.ID)
	assert.True(t, m.Validate(s.ID))
	assert.False(t, m.Validate("unknown-session"))
	assert.False(t, m.Validate(""))
}

func TestSessionSlidingExpiry(t *testing.T) {
	c, clock := newTestCache()
	m := NewSessionManager(c, types.SessionConfig{TTL: time.Hour})
	m.now = clock.now

	s := m.Create()

	// Activity at 50 minutes keeps the session alive past the original
	// one-hour window.
	clock.advance(50 * time.Minute)
	require.True(t, m.Validate(s.ID))

	clock.advance(50 * time.Minute)
	assert.True(t, m.Validate(s.ID))
}

func TestSessionRecordExpiryAuthoritative(t *testing.T) {
	c, cacheClock := newTestCache()
	m := NewSessionManager(c, types.SessionConfig{TTL: time.Hour})

	// Manager clock runs ahead of the cache clock, so the cache entry is
	// still live when the session record itself has expired.
	managerClock := &fakeClock{t: cacheClock.now()}
	m.now = managerClock.now

	s := m.Create()
	managerClock.advance(2 * time.Hour)

	assert.False(t, m.Validate(s.ID))
	_, ok := c.Get(sessionKey(s.ID))
	assert.False(t, ok, "expired session record should be evicted")
}

func TestSessionExpiresWithoutActivity(t *testing.T) {
	c, clock := newTestCache()
	m := NewSessionManager(c, types.SessionConfig{TTL: time.Hour})
	m.now = clock.now

	s := m.Create()
	clock.advance(2 * time.Hour)
	assert.False(t, m.Validate(s.ID))
}
