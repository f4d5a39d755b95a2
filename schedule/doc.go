// Package schedule computes when to remind the user about the next outing,
// meal, or water refill, and keeps at most one pending reminder per logical
// slot.
//
// # Algorithm
//
// A logged event becomes a naive target time: the event timestamp truncated
// to the minute plus the interval configured for its type (outing intervals
// come from the age preset, meal intervals from their own settings). The
// target is then advanced minute by minute until it clears every configured
// quiet-hours range, bounded at a full day of probing. A fire time that has
// already passed is moot and nothing is installed.
//
// # Grouping
//
// Eat and drink are a sibling pair. When one is logged within the grouping
// window of the other's most recent occurrence, the two individual slots
// are canceled and a single merged reminder is installed on the shared meal
// slot, anchored on the earlier event and using the longer of the two
// intervals.
//
// # Slots and generations
//
// Installing a reminder on a slot that already has one is a destructive
// replace under one mutex hold. Every install carries a generation; the
// platform reports a firing back through [Scheduler.Confirm], which rejects
// any generation that is no longer the live install. A callback racing a
// cancellation can therefore never be displayed after the cancel returned.
//
// [TimerNotifier] is the in-process [Notifier] used by tests and the CLI;
// mobile shells substitute a platform notification backend.
package schedule
