// Package auth owns the session lifecycle: login against one of the two
// backend realms, proactive token refresh ahead of expiry, 401 recovery, and
// logout. The lifecycle is a small state machine
//
//	anonymous → authenticating → authenticated
//	authenticated → refresh_pending → authenticated
//	authenticated → logged_out → anonymous
//
// with at most one refresh task armed at any time. The task is held as an
// explicit handle on an injected clock so tests can inspect and drive it.
package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/paylinehq/adminctl/internal/api"
	"github.com/paylinehq/adminctl/internal/errors"
	"github.com/paylinehq/adminctl/internal/httpclient"
	"github.com/paylinehq/adminctl/internal/log"
	"github.com/paylinehq/adminctl/internal/token"
)

// Realm identifies one of the two backend authentication domains.
type Realm string

const (
	// RealmUser is the client-facing UserService realm.
	RealmUser Realm = "user"
	// RealmAgence is the admin-facing AgenceService realm.
	RealmAgence Realm = "agence"
)

// Credentials are transient login inputs. They are never persisted.
type Credentials struct {
	Identifier string
	Secret     string
}

// Endpoints are the authentication URLs of one realm. Logout may be empty
// for realms without a server-side logout.
type Endpoints struct {
	Login   string
	Refresh string
	Logout  string
}

// RealmEndpoints derives the per-realm authentication endpoints from the two
// configured service base URLs.
func RealmEndpoints(userBase, agenceBase string) map[Realm]Endpoints {
	return map[Realm]Endpoints{
		RealmUser: {
			Login:   userBase + "/login",
			Refresh: userBase + "/refresh",
		},
		RealmAgence: {
			Login:   agenceBase + "/auth/login",
			Refresh: agenceBase + "/auth/refresh",
			Logout:  agenceBase + "/auth/logout",
		},
	}
}

// DefaultRefreshLead is how long before expiry the proactive refresh fires.
const DefaultRefreshLead = 5 * time.Minute

// loginResult is the wire shape both realms answer login and refresh with.
type loginResult struct {
	User         token.Principal `json:"user"`
	Token        string          `json:"token"`
	RefreshToken string          `json:"refreshToken"`
}

// Config wires a Coordinator.
type Config struct {
	Endpoints   map[Realm]Endpoints
	RefreshLead time.Duration
}

// Coordinator drives the session lifecycle and is the only writer of the
// token store. The mutex guards state, realm and the timer handle; it is
// never held across an HTTP call.
type Coordinator struct {
	store  *token.Store
	client *httpclient.Client
	clock  Clock
	logger *log.Logger
	events *broadcaster

	endpoints   map[Realm]Endpoints
	refreshLead time.Duration

	mu    sync.Mutex
	state State
	realm Realm
	timer Timer
}

// Option customises coordinator construction.
type Option func(*Coordinator)

// WithClock injects a clock. Tests use a fake to drive the refresh schedule.
func WithClock(c Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *log.Logger) Option {
	return func(co *Coordinator) { co.logger = l }
}

// New creates a Coordinator. Call Attach afterwards to register it as the
// client's 401 recovery handler.
func New(store *token.Store, client *httpclient.Client, cfg Config, opts ...Option) *Coordinator {
	if cfg.RefreshLead <= 0 {
		cfg.RefreshLead = DefaultRefreshLead
	}
	c := &Coordinator{
		store:       store,
		client:      client,
		clock:       NewClock(),
		logger:      log.DefaultLogger(),
		events:      newBroadcaster(),
		endpoints:   cfg.Endpoints,
		refreshLead: cfg.RefreshLead,
		state:       StateAnonymous,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Attach registers this coordinator as the client's 401 recovery handler.
func (c *Coordinator) Attach() {
	c.client.SetUnauthorizedHandler(c)
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Realm returns the realm of the current session.
func (c *Coordinator) Realm() Realm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.realm
}

// Subscribe registers a lifecycle event listener. The cancel func releases
// the subscription.
func (c *Coordinator) Subscribe() (<-chan Event, func()) {
	return c.events.subscribe()
}

// RefreshTimer returns the currently armed refresh task handle, or nil.
func (c *Coordinator) RefreshTimer() Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer
}

// Restore loads a persisted session. An expired session is cleared; a live
// one transitions straight to authenticated and arms the refresh. Returns
// nil, nil when no usable session exists.
func (c *Coordinator) Restore(realm Realm) (*token.Principal, error) {
	sess, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if sess.Expired(c.clock.Now()) {
		if err := c.store.Clear(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	c.setState(StateAuthenticated, realm, "session restored")
	c.scheduleRefresh(sess.ExpiresAt)
	principal := sess.Principal
	return &principal, nil
}

// Login authenticates against the given realm. On any failure the client
// stays anonymous and no partial session is stored.
func (c *Coordinator) Login(ctx context.Context, creds Credentials, realm Realm) (*token.Principal, error) {
	endpoints, ok := c.endpoints[realm]
	if !ok {
		return nil, errors.New(errors.ErrCodeAuthRealmUnknown, "unknown realm: "+string(realm))
	}

	c.setState(StateAuthenticating, realm, "login requested")

	resp, err := c.client.Do(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    endpoints.Login,
		Body: map[string]string{
			"identifier": creds.Identifier,
			"password":   creds.Secret,
		},
		SkipAuth: true,
	})
	if err != nil {
		c.setState(StateAnonymous, "", "login failed")
		return nil, errors.Wrap(errors.ErrCodeAuthLoginFailed, "login failed", err).WithKind(errors.KindOf(err))
	}

	env, err := api.Normalize[loginResult](resp.Body)
	if err != nil {
		c.setState(StateAnonymous, "", "login failed")
		return nil, err
	}
	if !env.Success {
		c.setState(StateAnonymous, "", "login rejected")
		return nil, errors.New(errors.ErrCodeAuthLoginFailed, env.Error).WithKind(errors.KindUnauthorized)
	}

	sess, err := c.buildSession(env.Data)
	if err != nil {
		c.setState(StateAnonymous, "", "login rejected")
		return nil, err
	}
	if err := c.store.Save(sess); err != nil {
		c.setState(StateAnonymous, "", "session store failed")
		return nil, err
	}

	c.setState(StateAuthenticated, realm, "login succeeded")
	c.scheduleRefresh(sess.ExpiresAt)

	c.logger.Info("logged in",
		"realm", string(realm),
		"principal", sess.Principal.ID,
		"expires_at", sess.ExpiresAt,
	)

	principal := sess.Principal
	return &principal, nil
}

// buildSession validates the returned token and derives the expiry.
// Malformed tokens are rejected here, before anything is stored.
func (c *Coordinator) buildSession(res loginResult) (*token.Session, error) {
	expiresAt, err := token.ExpiryFromToken(res.Token)
	if err != nil {
		return nil, err
	}
	return &token.Session{
		AccessToken:  res.Token,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    expiresAt,
		Principal:    res.User,
	}, nil
}

// scheduleRefresh arms the one-shot refresh task. Re-arming cancels any
// pending task first, so at most one task is armed. A session already within
// the refresh lead of expiry is treated as expired.
func (c *Coordinator) scheduleRefresh(expiresAt time.Time) {
	refreshIn := expiresAt.Sub(c.clock.Now()) - c.refreshLead

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if refreshIn <= 0 {
		c.mu.Unlock()
		c.forceLogout("session effectively expired")
		return
	}
	c.timer = c.clock.AfterFunc(refreshIn, c.refreshTask)
	c.mu.Unlock()

	c.logger.Debug("refresh scheduled", "in", refreshIn)
}

// refreshTask is the body of the armed refresh. On success Refresh arms the
// next task; on failure the session ends.
func (c *Coordinator) refreshTask() {
	c.mu.Lock()
	realm := c.realm
	c.timer = nil
	c.mu.Unlock()

	c.setState(StateRefreshPending, realm, "proactive refresh")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Refresh(ctx); err != nil {
		c.logger.WithError(err).Warn("proactive refresh failed")
		c.forceLogout("refresh failed")
	}
}

// Refresh exchanges the refresh token for a new session. On success the new
// session is stored, the state returns to authenticated, and the next
// proactive refresh is armed.
func (c *Coordinator) Refresh(ctx context.Context) error {
	sess := c.store.Current()
	if sess == nil {
		return errors.New(errors.ErrCodeAuthNotLoggedIn, "no session to refresh")
	}
	if sess.RefreshToken == "" {
		return errors.New(errors.ErrCodeAuthRefreshFailed, "session has no refresh token")
	}

	c.mu.Lock()
	realm := c.realm
	c.mu.Unlock()
	endpoints, ok := c.endpoints[realm]
	if !ok {
		return errors.New(errors.ErrCodeAuthRealmUnknown, "unknown realm: "+string(realm))
	}

	resp, err := c.client.Do(ctx, &httpclient.Request{
		Method:   http.MethodPost,
		URL:      endpoints.Refresh,
		Body:     map[string]string{"refreshToken": sess.RefreshToken},
		SkipAuth: true,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeAuthRefreshFailed, "refresh failed", err).WithKind(errors.KindOf(err))
	}

	env, err := api.Normalize[loginResult](resp.Body)
	if err != nil {
		return err
	}
	if !env.Success {
		return errors.New(errors.ErrCodeAuthRefreshFailed, env.Error)
	}

	res := env.Data
	// Refresh responses may omit the principal and the rotated refresh token;
	// carry the previous values forward.
	if res.User.ID == "" {
		res.User = sess.Principal
	}
	if res.RefreshToken == "" {
		res.RefreshToken = sess.RefreshToken
	}

	next, err := c.buildSession(res)
	if err != nil {
		return err
	}
	if err := c.store.Save(next); err != nil {
		return err
	}

	c.setState(StateAuthenticated, realm, "session refreshed")
	c.scheduleRefresh(next.ExpiresAt)
	return nil
}

// HandleUnauthorized implements httpclient.UnauthorizedHandler: one refresh
// attempt; if it fails, force logout and report the failure so the original
// 401 surfaces to the caller.
func (c *Coordinator) HandleUnauthorized(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		c.forceLogout("unauthorized and refresh failed")
		return err
	}
	return nil
}

// Logout clears the local session first, so callers see the logged-out state
// immediately, then notifies the backend best-effort. Idempotent; a failed
// notification never re-asserts the session.
func (c *Coordinator) Logout(ctx context.Context) error {
	c.mu.Lock()
	realm := c.realm
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	tok := c.store.Token()

	if err := c.store.Clear(); err != nil {
		return err
	}

	c.setState(StateLoggedOut, realm, "logout")
	c.setState(StateAnonymous, "", "logout complete")

	if endpoints, ok := c.endpoints[realm]; ok && endpoints.Logout != "" && tok != "" {
		go c.notifyLogout(endpoints.Logout, tok)
	}

	return nil
}

// notifyLogout tells the backend the session ended. Detached from the caller
// so a slow backend cannot block the local logout.
func (c *Coordinator) notifyLogout(url, tok string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := c.client.Do(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    url,
		// The store is already cleared; send the retired token explicitly.
		Headers:    map[string]string{"Authorization": "Bearer " + tok},
		SkipAuth:   true,
		MaxRetries: 1,
	})
	if err != nil {
		c.logger.WithError(err).Debug("logout notification failed")
	}
}

// forceLogout ends the session from inside the coordinator, after expiry or
// a failed refresh.
func (c *Coordinator) forceLogout(reason string) {
	c.mu.Lock()
	realm := c.realm
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		c.logger.WithError(err).Warn("session clear failed during forced logout")
	}

	c.setState(StateLoggedOut, realm, reason)
	c.setState(StateAnonymous, "", reason)
}

// Close releases the refresh task and all event subscriptions.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.events.close()
}

func (c *Coordinator) setState(s State, realm Realm, reason string) {
	c.mu.Lock()
	c.state = s
	c.realm = realm
	c.mu.Unlock()
	c.events.publish(Event{State: s, Realm: realm, Reason: reason})
}
