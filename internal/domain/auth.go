package domain

import "time"

// Session ties a bearer token to an actor and their sealed DMS credential.
type Session struct {
	ID               string    `json:"id"`
	Actor            Actor     `json:"actor"`
	SealedCredential string    `json:"sealed_credential"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}
