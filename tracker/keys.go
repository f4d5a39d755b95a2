package tracker

import (
	"fmt"
	"regexp"
	"time"

	"github.com/bdombry/puppytrack/schedule"
)

// Cache TTLs per key namespace. Stats tolerate a little staleness; the
// last-event lookup backs a live elapsed-time counter and must stay fresh;
// analytics are expensive to recompute and change slowly.
const (
	statsTTL     = 5 * time.Minute
	lastEventTTL = 30 * time.Second
	historyTTL   = 10 * time.Minute
	analyticsTTL = time.Hour
)

// Key builders. Every key is "<namespace>:<puppyID>:<discriminator>"; the
// colon delimiters keep one puppy's id from matching inside another's
// (p1 never matches p10) and make the invalidation patterns below exact.

func statsKey(puppyID, period string) string {
	return "stats:" + puppyID + ":" + period
}

func lastEventKey(puppyID string, t schedule.EventType) string {
	return "lastevent:" + puppyID + ":" + string(t)
}

func historyKey(puppyID string, page, pageSize int) string {
	return fmt.Sprintf("history:%s:%d:%d", puppyID, page, pageSize)
}

func analyticsKey(puppyID, metric string) string {
	return "analytics:" + puppyID + ":" + metric
}

// puppyPattern matches every cache key belonging to exactly this puppy,
// regardless of namespace.
func puppyPattern(puppyID string) *regexp.Regexp {
	return regexp.MustCompile(`^[a-z]+:` + regexp.QuoteMeta(puppyID) + `:`)
}

// namespacePattern matches one namespace of one puppy.
func namespacePattern(namespace, puppyID string) *regexp.Regexp {
	return regexp.MustCompile(`^` + namespace + `:` + regexp.QuoteMeta(puppyID) + `:`)
}

// staleNamespaces lists the key namespaces whose cached values a new event
// of the given type renders stale. Analytics are derived from the potty
// history only, so meals leave them untouched.
func staleNamespaces(t schedule.EventType) []string {
	switch t {
	case schedule.EventOuting, schedule.EventIncident:
		return []string{"stats", "lastevent", "history", "analytics"}
	default:
		return []string{"stats", "lastevent", "history"}
	}
}
