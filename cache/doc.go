// Package cache provides the in-process keyed TTL store used to avoid
// re-querying the backend on every screen visit, plus type-safe generic
// helpers over it.
//
// # Store
//
// The [Store] interface is a flat map from string key to opaque value, each
// entry carrying its own expiration deadline fixed at insertion (no sliding
// expiration). [Store.Set] on an existing key fully replaces the entry and
// resets its timer. Expired entries are removed by a background sweep at a
// configurable interval and, independently, lazily whenever [Store.Get] or
// [Store.Has] finds them stale — a read can never observe an expired value
// even when the sweep is disabled.
//
// A stored nil is a valid cached result: Has reports true for it, and Get
// returns (nil, true). This distinguishes "the backend said there is
// nothing" from "we have not asked yet".
//
// Bulk invalidation is by regular expression over every live key
// ([Store.InvalidatePattern]). The scan is O(n) in the number of entries,
// which is acceptable at the scale of a single household's puppies; callers
// own pattern precision and should build patterns through their key
// namespace helpers so that one entity's invalidation never touches
// another's.
//
// No Store operation performs I/O or can fail at runtime. The single
// returnable error — a malformed pattern — indicates a defect in the
// calling code, not a condition to recover from.
//
// # Generic Helpers
//
// [GetTyped] wraps [Store.Get] with type safety:
//
//	stats, found, err := cache.GetTyped[Stats](store, "stats:p1:week")
//
// [Exec] is a cache-aside helper that combines lookup and population:
//
//	found, stats, err := cache.Exec(ctx, cache.ExecConfig{Key: key, TTL: ttl}, store,
//	    func(ctx context.Context) (Stats, bool, error) {
//	        return backend.Stats(ctx, puppyID, period)
//	    },
//	)
//
// The [Invoker] bool distinguishes "not found" from "found a zero value" so
// absent records are never cached.
package cache
