// Package settings holds the notification configuration supplied to the
// reminder scheduler: the interval preset, per-meal intervals, the grouping
// window, and the quiet-hours ranges. A Settings value is a read-only
// snapshot loaded from persistent configuration before each scheduling
// call, so configuration changes take effect on the next logged event.
package settings

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/bdombry/puppytrack/quiethours"
)

var (
	ErrUnknownPreset = errors.New("unknown notification preset")
)

// Preset selects the outing interval from the puppy's age bracket — the
// time a puppy of that age can reasonably hold it.
type Preset string

const (
	PresetTwoMonths   Preset = "two-months"
	PresetThreeMonths Preset = "three-months"
	PresetFourMonths  Preset = "four-months"
	PresetFiveMonths  Preset = "five-months"
	PresetSixMonths   Preset = "six-months"
	PresetAdult       Preset = "adult"
	// PresetCustom takes the interval from Settings.CustomInterval.
	PresetCustom Preset = "custom"
)

var presetIntervals = map[Preset]time.Duration{
	PresetTwoMonths:   2 * time.Hour,
	PresetThreeMonths: 3 * time.Hour,
	PresetFourMonths:  4 * time.Hour,
	PresetFiveMonths:  5 * time.Hour,
	PresetSixMonths:   6 * time.Hour,
	PresetAdult:       8 * time.Hour,
}

// Default intervals and grouping window applied when the configuration
// leaves them unset.
const (
	DefaultEatInterval    = 4 * time.Hour
	DefaultDrinkInterval  = 2 * time.Hour
	DefaultGroupingWindow = 5 * time.Minute
)

// Settings is the active notification configuration.
type Settings struct {
	// Preset determines the outing reminder interval.
	Preset Preset
	// CustomInterval is the outing interval when Preset is PresetCustom.
	CustomInterval time.Duration
	// EatInterval is the delay before the next-meal reminder.
	EatInterval time.Duration
	// DrinkInterval is the delay before the next-water reminder.
	DrinkInterval time.Duration
	// GroupingWindow is how close in time an eat and a drink event must be
	// to share one merged reminder.
	GroupingWindow time.Duration
	// QuietHours are the windows during which no reminder may fire.
	QuietHours []quiethours.Range
}

// Default returns the settings used before the user has configured anything:
// a three month old puppy, default meal intervals, no quiet hours.
func Default() Settings {
	return Settings{
		Preset:         PresetThreeMonths,
		EatInterval:    DefaultEatInterval,
		DrinkInterval:  DefaultDrinkInterval,
		GroupingWindow: DefaultGroupingWindow,
	}
}

// OutingInterval resolves the outing reminder interval from the preset.
func (s Settings) OutingInterval() (time.Duration, error) {
	if s.Preset == PresetCustom {
		if s.CustomInterval <= 0 {
			return 0, errors.Wrap(ErrUnknownPreset, "custom preset without a custom interval")
		}
		return s.CustomInterval, nil
	}
	interval, ok := presetIntervals[s.Preset]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownPreset, "%q", s.Preset)
	}
	return interval, nil
}

func (s Settings) eatInterval() time.Duration {
	if s.EatInterval > 0 {
		return s.EatInterval
	}
	return DefaultEatInterval
}

func (s Settings) drinkInterval() time.Duration {
	if s.DrinkInterval > 0 {
		return s.DrinkInterval
	}
	return DefaultDrinkInterval
}

// MealInterval returns the interval for the given meal kind: "eat" or
// "drink". Anything else resolves through OutingInterval's preset table.
func (s Settings) MealInterval(kind string) time.Duration {
	if kind == "drink" {
		return s.drinkInterval()
	}
	return s.eatInterval()
}

// MergedMealInterval is the interval used for a combined food and water
// reminder: the longer of the two, so the merged reminder never fires
// earlier than the stricter individual one would have.
func (s Settings) MergedMealInterval() time.Duration {
	eat, drink := s.eatInterval(), s.drinkInterval()
	if eat >= drink {
		return eat
	}
	return drink
}

// Grouping returns the effective grouping window.
func (s Settings) Grouping() time.Duration {
	if s.GroupingWindow > 0 {
		return s.GroupingWindow
	}
	return DefaultGroupingWindow
}
