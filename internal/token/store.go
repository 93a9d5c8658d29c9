package token

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/paylinehq/adminctl/internal/errors"
)

const sessionFileName = "session.json"

// DefaultPath returns the default session file location under the user
// config dir.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeTokenStorage, "resolve user config dir", err)
	}
	return filepath.Join(base, "adminctl", sessionFileName), nil
}

// Store persists and restores the session. It keeps an in-memory copy so the
// hot path (attaching the bearer token to every request) never touches disk.
// Single writer, many readers.
type Store struct {
	mu      sync.RWMutex
	path    string
	session *Session
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load restores the persisted session. Corrupted entries, entries whose
// token is structurally invalid and expired entries are purged and reported
// as no session; a broken session file must never wedge the client.
func (s *Store) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.session = nil
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodeTokenStorage, "read session file", err)
	}

	var p persistedSession
	if err := json.Unmarshal(data, &p); err != nil {
		s.removeLocked()
		s.session = nil
		return nil, nil
	}
	if p.Token == "" || p.TokenExpiryTime <= 0 {
		s.removeLocked()
		s.session = nil
		return nil, nil
	}
	if _, err := ExpiryFromToken(p.Token); err != nil {
		s.removeLocked()
		s.session = nil
		return nil, nil
	}

	sess := fromPersisted(p)
	if sess.Expired(time.Now()) {
		s.removeLocked()
		s.session = nil
		return nil, nil
	}

	s.session = sess
	return s.copyLocked(), nil
}

// Save validates and persists the session with a single atomic write.
// Sessions with missing tokens or underivable expiry are rejected, never
// half-written.
func (s *Store) Save(sess *Session) error {
	if sess == nil {
		return errors.New(errors.ErrCodeTokenStorage, "cannot save nil session")
	}
	if sess.AccessToken == "" {
		return errors.New(errors.ErrCodeTokenStorage, "cannot save session without access token")
	}
	if sess.ExpiresAt.IsZero() {
		return errors.New(errors.ErrCodeTokenStorage, "cannot save session without expiry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeTokenStorage, "create session dir", err)
	}

	data, err := json.Marshal(toPersisted(sess))
	if err != nil {
		return errors.Wrap(errors.ErrCodeTokenStorage, "encode session", err)
	}

	tmp := fmt.Sprintf("%s.tmp", s.path)
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeTokenStorage, "write session file", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeTokenStorage, "replace session file", err)
	}

	copied := *sess
	s.session = &copied
	return nil
}

// Clear removes the persisted session and the in-memory copy. Idempotent.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	return s.removeLocked()
}

// Current returns a copy of the in-memory session, or nil when logged out.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Token returns the current access token, or empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.AccessToken
}

// IsExpired reports whether the current session is expired at the given
// instant. No session, or a session without expiry, counts as expired.
func (s *Store) IsExpired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Expired(now)
}

func (s *Store) copyLocked() *Session {
	if s.session == nil {
		return nil
	}
	copied := *s.session
	return &copied
}

func (s *Store) removeLocked() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeTokenStorage, "remove session file", err)
	}
	return nil
}
