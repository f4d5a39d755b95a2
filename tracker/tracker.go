// Package tracker is the event-logging facade of the local runtime state
// core: logging an event invalidates the cached facts it staled and
// reinstalls the matching reminder, and every read goes through the cache
// before touching the backend.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bdombry/puppytrack/cache"
	"github.com/bdombry/puppytrack/logger"
	"github.com/bdombry/puppytrack/schedule"
	"github.com/bdombry/puppytrack/settings"
)

var ErrInvalidEvent = errors.New("invalid event")

// Event is one logged house-training event.
type Event struct {
	ID         uuid.UUID          `json:"id" msgpack:"id"`
	PuppyID    string             `json:"puppy_id" msgpack:"puppy_id"`
	PuppyName  string             `json:"puppy_name,omitempty" msgpack:"puppy_name,omitempty"`
	Type       schedule.EventType `json:"type" msgpack:"type"`
	OccurredAt time.Time          `json:"occurred_at" msgpack:"occurred_at"`
}

// Stats are the aggregated counters for a puppy over a period.
type Stats struct {
	Outings     int     `json:"outings" msgpack:"outings"`
	Incidents   int     `json:"incidents" msgpack:"incidents"`
	Meals       int     `json:"meals" msgpack:"meals"`
	SuccessRate float64 `json:"success_rate" msgpack:"success_rate"`
}

// Backend is the hosted data layer the tracker fronts. The found bool
// follows the cache.Invoker convention: false means "no data", which is
// returned to the caller without being cached.
type Backend interface {
	Stats(ctx context.Context, puppyID, period string) (Stats, bool, error)
	History(ctx context.Context, puppyID string, page, pageSize int) ([]Event, bool, error)
	LastEvent(ctx context.Context, puppyID string, t schedule.EventType) (Event, bool, error)
}

// SettingsSource supplies a fresh notification settings snapshot for each
// scheduling call, so configuration changes apply from the next event on.
type SettingsSource func() settings.Settings

// Tracker wires the cache, the scheduler, and the backend together.
type Tracker struct {
	store    cache.Store
	sched    *schedule.Scheduler
	backend  Backend
	settings SettingsSource
	log      logger.Logger

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

func WithLogger(log logger.Logger) TrackerOption {
	return func(t *Tracker) { t.log = log }
}

// New returns a Tracker. The store, scheduler, and backend are owned by the
// caller; the tracker never closes them.
func New(store cache.Store, sched *schedule.Scheduler, backend Backend, src SettingsSource, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:    store,
		sched:    sched,
		backend:  backend,
		settings: src,
		log:      logger.NewConsoleLogger(),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func validEventType(t schedule.EventType) bool {
	switch t {
	case schedule.EventOuting, schedule.EventIncident, schedule.EventEat, schedule.EventDrink:
		return true
	}
	return false
}

func (t *Tracker) sibling(ev Event) time.Time {
	var other schedule.EventType
	switch ev.Type {
	case schedule.EventEat:
		other = schedule.EventDrink
	case schedule.EventDrink:
		other = schedule.EventEat
	default:
		return time.Time{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSeen[lastEventKey(ev.PuppyID, other)]
}

func (t *Tracker) recordSeen(ev Event) {
	t.mu.Lock()
	t.lastSeen[lastEventKey(ev.PuppyID, ev.Type)] = ev.OccurredAt
	t.mu.Unlock()
}

// LogEvent records that an event happened: the cached facts it staled are
// invalidated and the reminder for its type is recomputed against a fresh
// settings snapshot. A non-nil error means only that no reminder was
// installed (unknown preset, quiet hours excluding the whole day); the
// event itself has been processed and reads will refresh.
func (t *Tracker) LogEvent(ctx context.Context, ev Event) (schedule.Result, error) {
	if ev.PuppyID == "" || !validEventType(ev.Type) {
		return schedule.Result{}, errors.Wrapf(ErrInvalidEvent, "puppy %q type %q", ev.PuppyID, ev.Type)
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}

	sibling := t.sibling(ev)
	t.recordSeen(ev)

	for _, ns := range staleNamespaces(ev.Type) {
		removed := t.store.InvalidateMatching(namespacePattern(ns, ev.PuppyID))
		t.log.Trace("invalidated %d cached %s entries for %s", removed, ns, ev.PuppyID)
	}

	res, err := t.sched.Schedule(ctx, schedule.Request{
		EventType:     ev.Type,
		PuppyID:       ev.PuppyID,
		PuppyName:     ev.PuppyName,
		OccurredAt:    ev.OccurredAt,
		SiblingLastAt: sibling,
		Settings:      t.settings(),
	})
	if err != nil {
		t.log.Warn("reminder for %s skipped: %s", ev.Type, err)
		return res, err
	}
	if res.Installed {
		t.log.Debug("reminder %s installed for %s", res.Identifier, res.FireAt.Format(time.RFC3339))
	}
	return res, nil
}

// InvalidatePuppy drops every cached fact for one puppy, leaving other
// puppies' entries untouched.
func (t *Tracker) InvalidatePuppy(puppyID string) int {
	return t.store.InvalidateMatching(puppyPattern(puppyID))
}

// Stats returns the aggregated counters for a puppy over a period, cached
// for a few minutes.
func (t *Tracker) Stats(ctx context.Context, puppyID, period string) (Stats, bool, error) {
	ok, v, err := cache.Exec(ctx, cache.ExecConfig{Key: statsKey(puppyID, period), TTL: statsTTL}, t.store,
		func(ctx context.Context) (Stats, bool, error) {
			return t.backend.Stats(ctx, puppyID, period)
		})
	return v, ok, err
}

// History returns one page of the puppy's event history.
func (t *Tracker) History(ctx context.Context, puppyID string, page, pageSize int) ([]Event, bool, error) {
	ok, v, err := cache.Exec(ctx, cache.ExecConfig{Key: historyKey(puppyID, page, pageSize), TTL: historyTTL}, t.store,
		func(ctx context.Context) ([]Event, bool, error) {
			return t.backend.History(ctx, puppyID, page, pageSize)
		})
	return v, ok, err
}

// LastEvent returns the most recent event of a type. The short TTL keeps
// the UI's elapsed-time counter honest.
func (t *Tracker) LastEvent(ctx context.Context, puppyID string, typ schedule.EventType) (Event, bool, error) {
	ok, v, err := cache.Exec(ctx, cache.ExecConfig{Key: lastEventKey(puppyID, typ), TTL: lastEventTTL}, t.store,
		func(ctx context.Context) (Event, bool, error) {
			return t.backend.LastEvent(ctx, puppyID, typ)
		})
	return v, ok, err
}

// Warm prefetches the facts the home screen renders first.
func (t *Tracker) Warm(ctx context.Context, puppyID string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, _, err := t.Stats(ctx, puppyID, "week")
		return err
	})
	g.Go(func() error {
		_, _, err := t.LastEvent(ctx, puppyID, schedule.EventOuting)
		return err
	})
	return g.Wait()
}
