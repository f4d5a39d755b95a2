// Package quiethours decides whether a clock time falls inside a configured
// exclusion window, including windows that wrap past midnight. Everything
// here is pure; the reminder scheduler calls it repeatedly while probing
// forward in time.
package quiethours

import (
	"fmt"
	"time"
)

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int `yaml:"hour" json:"hour"`
	Minute int `yaml:"minute" json:"minute"`
}

// Minutes returns the clock time as minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Valid reports whether the clock time is a real time of day.
func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

// ParseClock parses a "HH:MM" string into a Clock.
func ParseClock(s string) (Clock, error) {
	var c Clock
	if _, err := fmt.Sscanf(s, "%d:%d", &c.Hour, &c.Minute); err != nil {
		return Clock{}, fmt.Errorf("quiethours: invalid clock time %q: %w", s, err)
	}
	if !c.Valid() {
		return Clock{}, fmt.Errorf("quiethours: clock time %q out of range", s)
	}
	return c, nil
}

// Range is an exclusion window between two times of day. Start >= End
// denotes a window that wraps past midnight, e.g. 22:00-08:00.
type Range struct {
	Start Clock `yaml:"start" json:"start"`
	End   Clock `yaml:"end" json:"end"`
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// Contains reports whether the instant m, expressed as minutes since
// midnight, falls inside the window. A non-wrapping range excludes
// start <= m < end; a wrapping range excludes m >= start || m < end.
// Degenerate ranges (start == end) are not special-cased: they wrap, and
// the general rule makes them exclude the whole day.
func (r Range) Contains(m int) bool {
	start := r.Start.Minutes()
	end := r.End.Minutes()
	if start < end {
		return m >= start && m < end
	}
	return m >= start || m < end
}

// Excluded reports whether t falls inside any of the given ranges. Only the
// hour and minute of t are considered. No ranges means nothing is excluded.
func Excluded(t time.Time, ranges []Range) bool {
	m := t.Hour()*60 + t.Minute()
	for _, r := range ranges {
		if r.Contains(m) {
			return true
		}
	}
	return false
}
