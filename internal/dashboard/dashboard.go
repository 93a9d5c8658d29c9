// Package dashboard orchestrates the admin overview: a fixed set of
// independent data sources fetched in parallel, each tracked in its own slot
// with loading and error state. One slow or failing source degrades its slot
// only; the others resolve on their own, and the merged statistics view is
// always computable from whatever did arrive.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/paylinehq/adminctl/internal/agence"
	"github.com/paylinehq/adminctl/internal/api"
	"github.com/paylinehq/adminctl/internal/errors"
	"github.com/paylinehq/adminctl/internal/log"
	"github.com/paylinehq/adminctl/internal/userservice"
)

// Kind names one independent data source.
type Kind string

const (
	KindStatistics       Kind = "statistics"
	KindDashboard        Kind = "dashboard"
	KindHealth           Kind = "health"
	KindPendingDocuments Kind = "pendingDocuments"
	KindRecentActivity   Kind = "recentActivity"
	KindUsers            Kind = "users"
)

// Kinds lists every data source in fetch order.
func Kinds() []Kind {
	return []Kind{
		KindStatistics,
		KindDashboard,
		KindHealth,
		KindPendingDocuments,
		KindRecentActivity,
		KindUsers,
	}
}

// Slot tracks one data source: its latest value (or fallback), whether a
// fetch is in flight, and the message of the last failure.
type Slot[T any] struct {
	Value     T
	Loading   bool
	Error     string
	UpdatedAt time.Time
}

// Snapshot is a point-in-time copy of every slot. Reads never observe a
// half-written slot; the orchestrator hands out copies only.
type Snapshot struct {
	Statistics       Slot[userservice.Statistics]
	Dashboard        Slot[agence.DashboardSummary]
	Health           Slot[agence.SystemHealth]
	PendingDocuments Slot[api.Page[agence.Document]]
	RecentActivity   Slot[[]agence.Activity]
	Users            Slot[agence.UserStatistics]
}

// CombinedStatistics is the merged headline view. Fields missing from failed
// sources default to zero counts and an UNKNOWN status; deriving it never
// panics on partial data.
type CombinedStatistics struct {
	TotalClients     int64
	ActiveClients    int64
	TotalBalance     float64
	SystemUsers      int64
	ActiveUsers      int64
	PendingDocuments int64
	SystemStatus     string
}

// FallbackPolicy decides what a failed source's slot holds.
type FallbackPolicy string

const (
	// FallbackZeros leaves failed slots at their zero-valued fallbacks. The
	// error message stays visible either way.
	FallbackZeros FallbackPolicy = "zeros"
	// FallbackDemo substitutes plausible demo numbers, for showcase
	// environments without live backends.
	FallbackDemo FallbackPolicy = "demo"
)

const recentActivityLimit = 10

// Config tunes the orchestrator.
type Config struct {
	Policy FallbackPolicy
}

// Orchestrator owns the snapshot and the fetch fan-out.
type Orchestrator struct {
	clients *userservice.Service
	admin   *agence.Service
	policy  FallbackPolicy
	logger  *log.Logger

	mu   sync.RWMutex
	snap Snapshot

	subMu sync.Mutex
	next  int
	subs  map[int]chan Kind
}

// Option customises orchestrator construction.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an Orchestrator over the two facades.
func New(clients *userservice.Service, admin *agence.Service, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		clients: clients,
		admin:   admin,
		policy:  cfg.Policy,
		logger:  log.DefaultLogger(),
		subs:    make(map[int]chan Kind),
	}
	if o.policy == "" {
		o.policy = FallbackZeros
	}
	for _, opt := range opts {
		opt(o)
	}
	// Health reads as UNKNOWN until the first probe resolves.
	o.snap.Health.Value.Status = agence.HealthUnknown
	o.snap.PendingDocuments.Value = api.EmptyPage[agence.Document]()
	o.snap.RecentActivity.Value = []agence.Activity{}
	return o
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snap
}

// Subscribe registers a listener notified with the kind of every slot
// change. Notifications never block; a listener that stops draining misses
// updates instead of wedging the fetches.
func (o *Orchestrator) Subscribe() (<-chan Kind, func()) {
	o.subMu.Lock()
	defer o.subMu.Unlock()

	id := o.next
	o.next++
	ch := make(chan Kind, 32)
	o.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			o.subMu.Lock()
			defer o.subMu.Unlock()
			if c, ok := o.subs[id]; ok {
				delete(o.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

func (o *Orchestrator) notify(kind Kind) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	for _, ch := range o.subs {
		select {
		case ch <- kind:
		default:
		}
	}
}

// Initialize fans out every fetch and joins when all have settled. A failing
// source writes its fallback and error message; it never cancels or blocks
// the others.
func (o *Orchestrator) Initialize(ctx context.Context) {
	kinds := Kinds()

	var wg sync.WaitGroup
	wg.Add(len(kinds))
	for _, kind := range kinds {
		go func(k Kind) {
			defer wg.Done()
			o.fetch(ctx, k)
		}(kind)
	}
	wg.Wait()
}

// Refresh re-runs exactly one named fetch without touching the others.
func (o *Orchestrator) Refresh(ctx context.Context, kind Kind) error {
	switch kind {
	case KindStatistics, KindDashboard, KindHealth, KindPendingDocuments, KindRecentActivity, KindUsers:
		o.fetch(ctx, kind)
		return nil
	default:
		return errors.New(errors.ErrCodeDashboardUnknown, "unknown data source: "+string(kind))
	}
}

func (o *Orchestrator) fetch(ctx context.Context, kind Kind) {
	o.setLoading(kind)

	switch kind {
	case KindStatistics:
		env := o.clients.Statistics(ctx)
		if !env.Success && o.policy == FallbackDemo {
			env.Data = demoClientStatistics()
		}
		writeSlot(o, kind, &o.snap.Statistics, env)
	case KindDashboard:
		env := o.admin.Dashboard(ctx)
		if !env.Success && o.policy == FallbackDemo {
			env.Data = demoDashboardSummary()
		}
		writeSlot(o, kind, &o.snap.Dashboard, env)
	case KindHealth:
		env := o.admin.Health(ctx)
		writeSlot(o, kind, &o.snap.Health, env)
	case KindPendingDocuments:
		env := o.admin.PendingDocuments(ctx, api.PageQuery{})
		writeSlot(o, kind, &o.snap.PendingDocuments, env)
	case KindRecentActivity:
		env := o.admin.RecentActivity(ctx, recentActivityLimit)
		writeSlot(o, kind, &o.snap.RecentActivity, env)
	case KindUsers:
		env := o.admin.UserStatistics(ctx)
		if !env.Success && o.policy == FallbackDemo {
			env.Data = demoUserStatistics()
		}
		writeSlot(o, kind, &o.snap.Users, env)
	}

	o.notify(kind)
}

func (o *Orchestrator) setLoading(kind Kind) {
	o.mu.Lock()
	switch kind {
	case KindStatistics:
		o.snap.Statistics.Loading = true
	case KindDashboard:
		o.snap.Dashboard.Loading = true
	case KindHealth:
		o.snap.Health.Loading = true
	case KindPendingDocuments:
		o.snap.PendingDocuments.Loading = true
	case KindRecentActivity:
		o.snap.RecentActivity.Loading = true
	case KindUsers:
		o.snap.Users.Loading = true
	}
	o.mu.Unlock()
	o.notify(kind)
}

// writeSlot resolves one slot under the orchestrator lock. Concurrent
// fetches target different slots, so a whole-snapshot lock suffices to
// sequence same-slot writes; the later write wins intact.
func writeSlot[T any](o *Orchestrator, kind Kind, slot *Slot[T], env api.Envelope[T]) {
	o.mu.Lock()
	defer o.mu.Unlock()

	slot.Value = env.Data
	slot.Loading = false
	slot.Error = env.Error
	slot.UpdatedAt = time.Now()

	if !env.Success {
		o.logger.Warn("data source degraded", "source", string(kind), "error", env.Error)
	}
}

// CombinedStatistics merges the headline numbers from whichever slots have
// data. The pending-document count prefers the documents slot's own total
// and falls back to the server-side dashboard summary.
func (o *Orchestrator) CombinedStatistics() CombinedStatistics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	combined := CombinedStatistics{
		TotalClients:  o.snap.Statistics.Value.TotalClients,
		ActiveClients: o.snap.Statistics.Value.ActiveClients,
		TotalBalance:  o.snap.Statistics.Value.TotalBalance,
		SystemUsers:   o.snap.Users.Value.TotalUsers,
		ActiveUsers:   o.snap.Users.Value.ActiveUsers,
		SystemStatus:  o.snap.Health.Value.Status,
	}
	if combined.SystemStatus == "" {
		combined.SystemStatus = agence.HealthUnknown
	}

	if o.snap.PendingDocuments.Error == "" && o.snap.PendingDocuments.UpdatedAt != (time.Time{}) {
		combined.PendingDocuments = o.snap.PendingDocuments.Value.TotalElements
	} else {
		combined.PendingDocuments = o.snap.Dashboard.Value.PendingDocuments
	}
	return combined
}
