package settings

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdombry/puppytrack/quiethours"
)

func TestOutingIntervalPresets(t *testing.T) {
	for preset, want := range map[Preset]time.Duration{
		PresetTwoMonths:   2 * time.Hour,
		PresetThreeMonths: 3 * time.Hour,
		PresetFourMonths:  4 * time.Hour,
		PresetFiveMonths:  5 * time.Hour,
		PresetSixMonths:   6 * time.Hour,
		PresetAdult:       8 * time.Hour,
	} {
		got, err := Settings{Preset: preset}.OutingInterval()
		require.NoError(t, err)
		assert.Equal(t, want, got, string(preset))
	}
}

func TestOutingIntervalCustom(t *testing.T) {
	got, err := Settings{Preset: PresetCustom, CustomInterval: 90 * time.Minute}.OutingInterval()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, got)

	_, err = Settings{Preset: PresetCustom}.OutingInterval()
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestOutingIntervalUnknownPreset(t *testing.T) {
	_, err := Settings{Preset: "puppy"}.OutingInterval()
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestMealIntervals(t *testing.T) {
	s := Default()
	assert.Equal(t, DefaultEatInterval, s.MealInterval("eat"))
	assert.Equal(t, DefaultDrinkInterval, s.MealInterval("drink"))
	assert.Equal(t, DefaultEatInterval, s.MergedMealInterval())

	s.DrinkInterval = 6 * time.Hour
	assert.Equal(t, 6*time.Hour, s.MergedMealInterval())
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(`
preset: custom
custom_interval: 2h30m
eat_interval: 5h
grouping_window: 10m
quiet_hours:
  - start: "22:00"
    end: "08:00"
`))
	require.NoError(t, err)
	assert.Equal(t, PresetCustom, s.Preset)
	assert.Equal(t, 2*time.Hour+30*time.Minute, s.CustomInterval)
	assert.Equal(t, 5*time.Hour, s.EatInterval)
	assert.Equal(t, 10*time.Minute, s.Grouping())
	require.Len(t, s.QuietHours, 1)
	assert.Equal(t, quiethours.Clock{Hour: 22}, s.QuietHours[0].Start)
	assert.Equal(t, quiethours.Clock{Hour: 8}, s.QuietHours[0].End)
}

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte(``))
	require.NoError(t, err)
	assert.Equal(t, PresetThreeMonths, s.Preset)
	assert.Empty(t, s.QuietHours)
	assert.Equal(t, DefaultGroupingWindow, s.Grouping())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("preset: bogus"))
	assert.ErrorIs(t, err, ErrUnknownPreset)

	_, err = Parse([]byte("eat_interval: soon"))
	assert.Error(t, err)

	_, err = Parse([]byte("quiet_hours:\n  - start: \"25:00\"\n    end: \"08:00\""))
	assert.Error(t, err)

	_, err = Parse([]byte("preset: ["))
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.yaml")
	in := Settings{
		Preset:         PresetFourMonths,
		EatInterval:    3 * time.Hour,
		DrinkInterval:  time.Hour,
		GroupingWindow: 5 * time.Minute,
		QuietHours: []quiethours.Range{
			{Start: quiethours.Clock{Hour: 22}, End: quiethours.Clock{Hour: 8}},
		},
	}
	require.NoError(t, Save(path, in))
	out, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, errors.Is(err, ErrSettingsNotFound))
}
