// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Session is an authenticated-client lifetime record. Sessions are
// independent of research requests; one session may span zero or many
// requests.
type Session struct {
	ID           string    `json:"id" yaml:"id"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	ExpiresAt    time.Time `json:"expires_at" yaml:"expires_at"`
	LastActivity time.Time `json:"last_activity" yaml:"last_activity"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
