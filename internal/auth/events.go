package auth

import "sync"

// State is the session lifecycle state.
type State string

const (
	// StateAnonymous means no session exists.
	StateAnonymous State = "anonymous"
	// StateAuthenticating means a login is in flight.
	StateAuthenticating State = "authenticating"
	// StateAuthenticated means a valid session exists and a refresh is armed.
	StateAuthenticated State = "authenticated"
	// StateRefreshPending means the proactive refresh is in flight.
	StateRefreshPending State = "refresh_pending"
	// StateLoggedOut is the transient state emitted when a session ends;
	// the coordinator settles back to anonymous immediately after.
	StateLoggedOut State = "logged_out"
)

// Event is one session lifecycle transition.
type Event struct {
	State  State
	Realm  Realm
	Reason string
}

// broadcaster fans events out to subscribers. Sends never block: a subscriber
// that stops draining loses events rather than wedging the coordinator or the
// other subscribers.
type broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan Event)}
}

// subscribe registers a listener. The returned cancel func is idempotent and
// closes the channel.
func (b *broadcaster) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// publish delivers an event to every subscriber without blocking.
func (b *broadcaster) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// close drops all subscribers.
func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
