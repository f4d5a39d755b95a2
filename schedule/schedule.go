package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/bdombry/puppytrack/logger"
	"github.com/bdombry/puppytrack/quiethours"
	"github.com/bdombry/puppytrack/settings"
)

var (
	// ErrNoEligibleMinute is reported when the quiet-hours configuration
	// excludes every minute of a full day, so no fire time exists.
	ErrNoEligibleMinute = errors.New("no eligible minute within 24 hours of the target")
	// ErrUnknownEventType is reported for an event type the scheduler has no
	// interval rule for.
	ErrUnknownEventType = errors.New("unknown event type")
)

// EventType identifies what kind of event was logged.
type EventType string

const (
	EventOuting   EventType = "outing"
	EventIncident EventType = "incident"
	EventEat      EventType = "eat"
	EventDrink    EventType = "drink"
)

// probeLimit bounds the forward minute-by-minute search for a fire time
// outside quiet hours. A misconfiguration that excludes all 1440 minutes of
// a day is reported instead of looping forever.
const probeLimit = 24 * 60

// Reminder is a computed pending reminder. Generation ties an installed
// reminder to its slot so a callback from a superseded install can be
// rejected (see Scheduler.Confirm).
type Reminder struct {
	Identifier string
	Generation uint64
	FireAt     time.Time
	Title      string
	Body       string
}

// Request carries one logged event into the scheduler, together with a
// fresh snapshot of the active settings. SiblingLastAt is the most recent
// timestamp of the complementary meal event (drink when scheduling eat and
// vice versa); the zero time means none is known.
type Request struct {
	EventType     EventType
	PuppyID       string
	PuppyName     string
	OccurredAt    time.Time
	SiblingLastAt time.Time
	Settings      settings.Settings
}

// Result reports what Schedule did. Installed is false when the reminder
// was skipped (moot fire time, probe exhausted, or platform refusal); none
// of those block the caller's event flow.
type Result struct {
	Installed  bool
	Merged     bool
	Identifier string
	FireAt     time.Time
}

type slot struct {
	gen      uint64
	reminder Reminder
}

// Scheduler computes reminder fire times and maintains the at-most-one
// pending reminder per identifier invariant. It owns the identifier to
// pending-reminder map exclusively; callers interact only through its
// methods.
type Scheduler struct {
	mutex    sync.Mutex
	pending  map[string]*slot
	gen      uint64
	notifier Notifier
	log      logger.Logger
	now      func() time.Time
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLogger sets the logger used for platform-failure reporting.
func WithLogger(log logger.Logger) SchedulerOption {
	return func(s *Scheduler) { s.log = log }
}

// WithClock overrides the wall-clock source. Intended for tests.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// New returns a Scheduler that installs reminders through notifier.
func New(notifier Notifier, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		pending:  make(map[string]*slot),
		notifier: notifier,
		log:      logger.NewConsoleLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Identifier returns the reminder slot identifier for an event type and
// puppy. Outings and incidents share a slot: both restart the hold clock.
func Identifier(t EventType, puppyID string) string {
	if t == EventIncident {
		t = EventOuting
	}
	return string(t) + ":" + puppyID
}

// MergedIdentifier is the shared slot for a combined food and water
// reminder.
func MergedIdentifier(puppyID string) string {
	return "meal:" + puppyID
}

// Schedule turns a logged event into at most one installed reminder for its
// identifier: naive target = event time (truncated to the minute) plus the
// configured interval, advanced minute by minute past quiet hours. Closely
// timed eat and drink events collapse into one merged reminder on the
// shared meal slot.
//
// Configuration problems (unknown preset, probe exhausted) are returned as
// errors the caller should log and move on from; logging the event must
// never fail because a reminder could not be computed.
func (s *Scheduler) Schedule(ctx context.Context, req Request) (Result, error) {
	interval, err := s.intervalFor(req)
	if err != nil {
		return Result{}, err
	}

	base := req.OccurredAt.Truncate(time.Minute)
	identifier := Identifier(req.EventType, req.PuppyID)
	var merged bool
	var alsoCancel []string

	if mergeable(req.EventType) && !req.SiblingLastAt.IsZero() {
		if within(req.OccurredAt, req.SiblingLastAt, req.Settings.Grouping()) {
			merged = true
			interval = req.Settings.MergedMealInterval()
			// anchored on the earlier of the pair; with the longer of the two
			// intervals it never fires before the stricter individual
			// reminder would have
			sibling := req.SiblingLastAt.Truncate(time.Minute)
			if sibling.Before(base) {
				base = sibling
			}
			alsoCancel = []string{
				Identifier(EventEat, req.PuppyID),
				Identifier(EventDrink, req.PuppyID),
			}
			identifier = MergedIdentifier(req.PuppyID)
		}
	}

	fireAt, ok := nextAllowed(base.Add(interval), req.Settings.QuietHours)
	if !ok {
		return Result{Identifier: identifier, Merged: merged},
			errors.Wrapf(ErrNoEligibleMinute, "event %s at %s", req.EventType, base.Format(time.RFC3339))
	}
	if !fireAt.After(s.now()) {
		// moot: no retroactive notification
		return Result{Identifier: identifier, Merged: merged}, nil
	}

	title, body := payloadFor(req, merged)
	installed := s.install(ctx, identifier, fireAt, title, body, alsoCancel)
	return Result{
		Installed:  installed,
		Merged:     merged,
		Identifier: identifier,
		FireAt:     fireAt,
	}, nil
}

// install atomically replaces the pending reminder for identifier. The
// mutex is held across the cancel and the schedule so no caller observes
// zero or two reminders for the slot.
func (s *Scheduler) install(ctx context.Context, identifier string, fireAt time.Time, title, body string, alsoCancel []string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, id := range alsoCancel {
		if id == identifier {
			continue
		}
		delete(s.pending, id)
		s.notifier.Cancel(id)
	}
	s.gen++
	reminder := Reminder{
		Identifier: identifier,
		Generation: s.gen,
		FireAt:     fireAt,
		Title:      title,
		Body:       body,
	}
	s.notifier.Cancel(identifier)
	if err := s.notifier.Schedule(ctx, reminder); err != nil {
		// platform refusal is cosmetic, never data-destructive
		delete(s.pending, identifier)
		s.log.Warn("reminder %s not installed: %s", identifier, err)
		return false
	}
	s.pending[identifier] = &slot{gen: reminder.Generation, reminder: reminder}
	return true
}

// Confirm is called by the notification facility when a reminder fires. It
// reports whether the given generation is still the live install for the
// identifier; a superseded or canceled generation must not be displayed.
// Cancellation therefore always wins over an in-flight callback.
func (s *Scheduler) Confirm(identifier string, generation uint64) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	sl, ok := s.pending[identifier]
	if !ok || sl.gen != generation {
		return false
	}
	delete(s.pending, identifier)
	return true
}

// Cancel removes the pending reminder for identifier, if any, and tells the
// notifier to drop it either way.
func (s *Scheduler) Cancel(identifier string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.pending, identifier)
	s.notifier.Cancel(identifier)
}

// CancelAll removes every pending reminder.
func (s *Scheduler) CancelAll() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for id := range s.pending {
		delete(s.pending, id)
		s.notifier.Cancel(id)
	}
}

// Pending returns the live reminder for identifier, if one is installed.
func (s *Scheduler) Pending(identifier string) (Reminder, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	sl, ok := s.pending[identifier]
	if !ok {
		return Reminder{}, false
	}
	return sl.reminder, true
}

// PendingCount returns the number of installed reminders.
func (s *Scheduler) PendingCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.pending)
}

func (s *Scheduler) intervalFor(req Request) (time.Duration, error) {
	switch req.EventType {
	case EventOuting, EventIncident:
		return req.Settings.OutingInterval()
	case EventEat, EventDrink:
		return req.Settings.MealInterval(string(req.EventType)), nil
	default:
		return 0, errors.Wrapf(ErrUnknownEventType, "%q", req.EventType)
	}
}

func mergeable(t EventType) bool {
	return t == EventEat || t == EventDrink
}

func within(a, b time.Time, window time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= window
}

// nextAllowed advances from naive, truncated to the minute, until a minute
// outside every quiet-hours range is found. It gives up after a full day of
// probing.
func nextAllowed(naive time.Time, ranges []quiethours.Range) (time.Time, bool) {
	t := naive.Truncate(time.Minute)
	for i := 0; i < probeLimit; i++ {
		if !quiethours.Excluded(t, ranges) {
			return t, true
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}, false
}

func payloadFor(req Request, merged bool) (string, string) {
	name := req.PuppyName
	if name == "" {
		name = "your puppy"
	}
	if merged {
		return "Food & water", fmt.Sprintf("Time to refresh %s's food and water", name)
	}
	switch req.EventType {
	case EventEat:
		return "Food", fmt.Sprintf("%s's next meal is due", name)
	case EventDrink:
		return "Water", fmt.Sprintf("Refresh %s's water bowl", name)
	default:
		return "Potty break", fmt.Sprintf("Time to take %s outside", name)
	}
}
