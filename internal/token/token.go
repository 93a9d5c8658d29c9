// Package token owns the client-side session: the bearer and refresh tokens,
// the derived expiry, and the authenticated principal. Sessions are persisted
// as a single JSON blob in the user config dir and restored on startup.
package token

import (
	"time"
)

// Principal is the authenticated identity and its role set.
// Read-only after creation; replaced wholesale on a new login.
type Principal struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	AgencyID    string   `json:"agencyId,omitempty"`
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Session is the authenticated session state. If AccessToken is set, ExpiresAt
// is always derivable from it; sessions with underivable expiry are rejected
// before they are ever stored.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Principal    Principal
}

// Expired reports whether the session is expired at the given instant.
// A zero expiry counts as expired (fail-closed).
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return true
	}
	return !s.ExpiresAt.After(now)
}

// persistedSession is the on-disk schema. Field names are the storage
// contract shared with the web console and must not change.
type persistedSession struct {
	User            Principal `json:"user"`
	Token           string    `json:"token"`
	RefreshToken    string    `json:"refreshToken"`
	TokenExpiryTime int64     `json:"tokenExpiryTime"`
}

func toPersisted(s *Session) persistedSession {
	return persistedSession{
		User:            s.Principal,
		Token:           s.AccessToken,
		RefreshToken:    s.RefreshToken,
		TokenExpiryTime: s.ExpiresAt.UnixMilli(),
	}
}

func fromPersisted(p persistedSession) *Session {
	return &Session{
		AccessToken:  p.Token,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    time.UnixMilli(p.TokenExpiryTime),
		Principal:    p.User,
	}
}
