package schedule

import (
	"context"
	"sync"
	"time"
)

// Notifier is the outbound contract with the platform notification
// facility. The scheduler only issues these two verbs; delivery guarantees
// belong to the platform.
type Notifier interface {
	// Schedule registers a reminder to fire at r.FireAt. An error means the
	// reminder was not installed (permission denied, registration failure);
	// the scheduler logs it and carries on.
	Schedule(ctx context.Context, r Reminder) error
	// Cancel drops any registered reminder with the given identifier. A
	// no-op when none exists.
	Cancel(identifier string)
}

// Confirmer validates that a firing reminder is still the live install for
// its identifier. Implemented by Scheduler.
type Confirmer interface {
	Confirm(identifier string, generation uint64) bool
}

// TimerNotifier is an in-process Notifier backed by one time.Timer per
// identifier. It checks each firing against the Confirmer before delivering,
// so a timer that races with a cancel or a re-install is dropped. The mobile
// shells replace it with a platform notification backend.
type TimerNotifier struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	confirm Confirmer
	deliver func(Reminder)
}

var _ Notifier = (*TimerNotifier)(nil)

// NewTimerNotifier returns a TimerNotifier that forwards still-valid
// reminders to deliver. Call Attach with the Scheduler before scheduling.
func NewTimerNotifier(deliver func(Reminder)) *TimerNotifier {
	return &TimerNotifier{
		timers:  make(map[string]*time.Timer),
		deliver: deliver,
	}
}

// Attach wires the Confirmer consulted on every firing.
func (n *TimerNotifier) Attach(c Confirmer) {
	n.mu.Lock()
	n.confirm = c
	n.mu.Unlock()
}

func (n *TimerNotifier) Schedule(_ context.Context, r Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if t, ok := n.timers[r.Identifier]; ok {
		t.Stop()
		delete(n.timers, r.Identifier)
	}
	var t *time.Timer
	t = time.AfterFunc(time.Until(r.FireAt), func() {
		n.mu.Lock()
		if cur, ok := n.timers[r.Identifier]; ok && cur == t {
			delete(n.timers, r.Identifier)
		}
		confirm := n.confirm
		deliver := n.deliver
		// the scheduler's mutex is taken inside Confirm; ours must not be
		// held across that call
		n.mu.Unlock()
		if confirm != nil && !confirm.Confirm(r.Identifier, r.Generation) {
			return
		}
		if deliver != nil {
			deliver(r)
		}
	})
	n.timers[r.Identifier] = t
	return nil
}

func (n *TimerNotifier) Cancel(identifier string) {
	n.mu.Lock()
	if t, ok := n.timers[identifier]; ok {
		t.Stop()
		delete(n.timers, identifier)
	}
	n.mu.Unlock()
}

// Close stops every outstanding timer.
func (n *TimerNotifier) Close() {
	n.mu.Lock()
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.mu.Unlock()
}
