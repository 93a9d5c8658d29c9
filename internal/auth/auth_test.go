package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paylinehq/adminctl/internal/errors"
	"github.com/paylinehq/adminctl/internal/httpclient"
	"github.com/paylinehq/adminctl/internal/token"
)

// fakeClock drives the refresh schedule deterministically.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	when  time.Time
	f     func()
	done  bool
}

func newFakeClock() *fakeClock {
	// Truncate so JWT exp claims, which carry second precision, round-trip
	// without skewing delay assertions.
	return &fakeClock{now: time.Now().Truncate(time.Second)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, when: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	pending := !t.done
	t.done = true
	return pending
}

// Armed reports how many timers are pending.
func (c *fakeClock) Armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// NextDelay returns how far in the future the single pending timer fires.
func (c *fakeClock) NextDelay(t *testing.T) time.Duration {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tm := range c.timers {
		if !tm.done {
			return tm.when.Sub(c.now)
		}
	}
	t.Fatal("no pending timer")
	return 0
}

// Advance moves the clock and fires due timers synchronously.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.done && !t.when.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

func accessToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-1",
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func loginBody(tok, refresh string) []byte {
	b, _ := json.Marshal(map[string]any{
		"user":         map[string]any{"id": "u-1", "displayName": "Ada"},
		"token":        tok,
		"refreshToken": refresh,
	})
	return b
}

type coordinatorEnv struct {
	coord *Coordinator
	store *token.Store
	clock *fakeClock
}

func newCoordinator(t *testing.T, base string) coordinatorEnv {
	t.Helper()
	store := token.NewStore(filepath.Join(t.TempDir(), "session.json"))
	client := httpclient.New(httpclient.Config{MaxRetries: 1, Timeout: 5 * time.Second},
		httpclient.WithTokenSource(store))
	clock := newFakeClock()
	coord := New(store, client, Config{
		Endpoints: RealmEndpoints(base, base),
	}, WithClock(clock))
	t.Cleanup(coord.Close)
	return coordinatorEnv{coord: coord, store: store, clock: clock}
}

func TestLoginStoresSessionAndArmsRefresh(t *testing.T) {
	var env coordinatorEnv
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/login", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"), "login must not send a bearer token")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ada", body["identifier"])
		require.Equal(t, "pw", body["password"])

		w.Write(loginBody(accessToken(t, env.clock.Now().Add(time.Hour)), "r-1"))
	}))
	defer server.Close()
	env = newCoordinator(t, server.URL)

	principal, err := env.coord.Login(context.Background(), Credentials{Identifier: "ada", Secret: "pw"}, RealmUser)
	require.NoError(t, err)
	require.NotNil(t, principal)
	assert.Equal(t, "u-1", principal.ID)

	assert.Equal(t, StateAuthenticated, env.coord.State())
	assert.Equal(t, RealmUser, env.coord.Realm())

	sess := env.store.Current()
	require.NotNil(t, sess)
	assert.Equal(t, "r-1", sess.RefreshToken)

	require.Equal(t, 1, env.clock.Armed())
	assert.Equal(t, time.Hour-DefaultRefreshLead, env.clock.NextDelay(t))
}

func TestLoginAcceptsWrappedEnvelope(t *testing.T) {
	var env coordinatorEnv
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"success":true,"data":%s}`,
			loginBody(accessToken(t, env.clock.Now().Add(time.Hour)), "r-1"))
	}))
	defer server.Close()
	env = newCoordinator(t, server.URL)

	principal, err := env.coord.Login(context.Background(), Credentials{Identifier: "ada", Secret: "pw"}, RealmUser)
	require.NoError(t, err)
	assert.Equal(t, "u-1", principal.ID)
}

func TestLoginFailureLeavesClientAnonymous(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad credentials"}`, http.StatusUnauthorized)
	}))
	defer server.Close()
	env := newCoordinator(t, server.URL)

	_, err := env.coord.Login(context.Background(), Credentials{Identifier: "ada", Secret: "nope"}, RealmUser)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAuthLoginFailed, errors.CodeOf(err))

	assert.Equal(t, StateAnonymous, env.coord.State())
	assert.Nil(t, env.store.Current())
	assert.Zero(t, env.clock.Armed())
}

func TestLoginRejectsMalformedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(loginBody("not-a-jwt", "r-1"))
	}))
	defer server.Close()
	env := newCoordinator(t, server.URL)

	_, err := env.coord.Login(context.Background(), Credentials{Identifier: "ada", Secret: "pw"}, RealmUser)
	require.Error(t, err)
	assert.Equal(t, errors.KindTokenInvalid, errors.KindOf(err))
	assert.Nil(t, env.store.Current(), "no partial session may be stored")
	assert.Equal(t, StateAnonymous, env.coord.State())
}

func TestLoginUnknownRealm(t *testing.T) {
	env := newCoordinator(t, "http://127.0.0.1:0")

	_, err := env.coord.Login(context.Background(), Credentials{}, Realm("billing"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAuthRealmUnknown, errors.CodeOf(err))
}

func TestProactiveRefreshReschedulesSingleTimer(t *testing.T) {
	var env coordinatorEnv
	var refreshes atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			w.Write(loginBody(accessToken(t, env.clock.Now().Add(time.Hour)), "r-1"))
		case "/refresh":
			refreshes.Add(1)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "r-1", body["refreshToken"])
			w.Write(loginBody(accessToken(t, env.clock.Now().Add(time.Hour)), "r-2"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()
	env = newCoordinator(t, server.URL)

	_, err := env.coord.Login(context.Background(), Credentials{Identifier: "ada", Secret: "pw"}, RealmUser)
	require.NoError(t, err)

	env.clock.Advance(time.Hour - DefaultRefreshLead)

	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, StateAuthenticated, env.coord.State())
	assert.Equal(t, "r-2", env.store.Current().RefreshToken, "rotated refresh token stored")
	assert.Equal(t, 1, env.clock.Armed(), "exactly one refresh timer armed after rescheduling")
}

func TestRefreshFailureForcesLogout(t *testing.T) {
	var env coordinatorEnv
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			w.Write(loginBody(accessToken(t, env.clock.Now().Add(time.Hour)), "r-1"))
			return
		}
		http.Error(w, `{"error":"refresh token revoked"}`, http.StatusUnauthorized)
	}))
	defer server.Close()
	env = newCoordinator(t, server.URL)

	_, err := env.coord.Login(context.Background(), Credentials{Identifier: "ada", Secret: "pw"}, RealmUser)
	require.NoError(t, err)

	env.clock.Advance(time.Hour - DefaultRefreshLead)

	assert.Equal(t, StateAnonymous, env.coord.State())
	assert.Nil(t, env.store.Current(), "session cleared after failed refresh")
	assert.Zero(t, env.clock.Armed())
}

func TestHandleUnauthorizedRefreshesOnce(t *testing.T) {
	var env coordinatorEnv
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			w.Write(loginBody(accessToken(t, env.clock.Now().Add(time.Hour)), "r-1"))
		case "/refresh":
			w.Write(loginBody(accessToken(t, env.clock.Now().Add(2*time.Hour)), "r-2"))
		}
	}))
	defer server.Close()
	env = newCoordinator(t, server.URL)

	_, err := env.coord.Login(context.Background(), Credentials{Identifier: "ada", Secret: "pw"}, RealmUser)
	require.NoError(t, err)
	before := env.store.Token()

	require.NoError(t, env.coord.HandleUnauthorized(context.Background()))

	assert.NotEqual(t, before, env.store.Token(), "a fresh access token is in place for the retry")
	assert.Equal(t, StateAuthenticated, env.coord.State())
}

func TestHandleUnauthorizedWithoutSession(t *testing.T) {
	env := newCoordinator(t, "http://127.0.0.1:0")

	err := env.coord.HandleUnauthorized(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAuthNotLoggedIn, errors.CodeOf(err))
	assert.Equal(t, StateAnonymous, env.coord.State())
}

func TestLogoutIsIdempotent(t *testing.T) {
	var env coordinatorEnv
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(loginBody(accessToken(t, env.clock.Now().Add(time.Hour)), "r-1"))
	}))
	defer server.Close()
	env = newCoordinator(t, server.URL)

	_, err := env.coord.Login(context.Background(), Credentials{Identifier: "ada", Secret: "pw"}, RealmUser)
	require.NoError(t, err)
	require.Equal(t, 1, env.clock.Armed())

	require.NoError(t, env.coord.Logout(context.Background()))
	assert.Equal(t, StateAnonymous, env.coord.State())
	assert.Nil(t, env.store.Current())
	assert.Zero(t, env.clock.Armed())

	// Repeating logout, including with no session at all, stays a no-op.
	require.NoError(t, env.coord.Logout(context.Background()))
	require.NoError(t, env.coord.Logout(context.Background()))
	assert.Equal(t, StateAnonymous, env.coord.State())
}

func TestLogoutNotifiesAgenceBackend(t *testing.T) {
	var env coordinatorEnv
	notified := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			w.Write(loginBody(accessToken(t, env.clock.Now().Add(time.Hour)), "r-1"))
		case "/auth/logout":
			notified <- r.Header.Get("Authorization")
		}
	}))
	defer server.Close()
	env = newCoordinator(t, server.URL)

	_, err := env.coord.Login(context.Background(), Credentials{Identifier: "root", Secret: "pw"}, RealmAgence)
	require.NoError(t, err)
	tok := env.store.Token()

	require.NoError(t, env.coord.Logout(context.Background()))
	assert.Nil(t, env.store.Current(), "local session cleared before the server hears about it")

	select {
	case auth := <-notified:
		assert.Equal(t, "Bearer "+tok, auth)
	case <-time.After(2 * time.Second):
		t.Fatal("backend never notified of logout")
	}
}

func TestRestoreLiveSession(t *testing.T) {
	env := newCoordinator(t, "http://127.0.0.1:0")

	sess := &token.Session{
		AccessToken:  accessToken(t, env.clock.Now().Add(time.Hour)),
		RefreshToken: "r-1",
		ExpiresAt:    env.clock.Now().Add(time.Hour),
		Principal:    token.Principal{ID: "u-1"},
	}
	require.NoError(t, env.store.Save(sess))

	principal, err := env.coord.Restore(RealmUser)
	require.NoError(t, err)
	require.NotNil(t, principal)
	assert.Equal(t, "u-1", principal.ID)
	assert.Equal(t, StateAuthenticated, env.coord.State())
	assert.Equal(t, 1, env.clock.Armed())
}

func TestRestoreExpiredSessionClears(t *testing.T) {
	env := newCoordinator(t, "http://127.0.0.1:0")

	sess := &token.Session{
		AccessToken:  accessToken(t, env.clock.Now().Add(-time.Hour)),
		RefreshToken: "r-1",
		ExpiresAt:    env.clock.Now().Add(-time.Hour),
		Principal:    token.Principal{ID: "u-1"},
	}
	require.NoError(t, env.store.Save(sess))

	principal, err := env.coord.Restore(RealmUser)
	require.NoError(t, err)
	assert.Nil(t, principal)
	assert.Equal(t, StateAnonymous, env.coord.State())
	assert.Nil(t, env.store.Current())
}

func TestRestoreEmptyStore(t *testing.T) {
	env := newCoordinator(t, "http://127.0.0.1:0")

	principal, err := env.coord.Restore(RealmUser)
	require.NoError(t, err)
	assert.Nil(t, principal)
}

func TestLifecycleEvents(t *testing.T) {
	var env coordinatorEnv
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(loginBody(accessToken(t, env.clock.Now().Add(time.Hour)), "r-1"))
	}))
	defer server.Close()
	env = newCoordinator(t, server.URL)

	events, cancel := env.coord.Subscribe()
	defer cancel()

	_, err := env.coord.Login(context.Background(), Credentials{Identifier: "ada", Secret: "pw"}, RealmUser)
	require.NoError(t, err)
	require.NoError(t, env.coord.Logout(context.Background()))

	var states []State
	for len(events) > 0 {
		states = append(states, (<-events).State)
	}
	assert.Equal(t, []State{
		StateAuthenticating,
		StateAuthenticated,
		StateLoggedOut,
		StateAnonymous,
	}, states)
}

func TestSubscribeCancelIsIdempotent(t *testing.T) {
	env := newCoordinator(t, "http://127.0.0.1:0")

	_, cancel := env.coord.Subscribe()
	cancel()
	cancel()
}
