package quiethours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 1, 1, hour, minute, 0, 0, time.UTC)
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("22:00")
	require.NoError(t, err)
	assert.Equal(t, Clock{Hour: 22}, c)
	assert.Equal(t, "22:00", c.String())
	assert.Equal(t, 1320, c.Minutes())

	c, err = ParseClock("07:05")
	require.NoError(t, err)
	assert.Equal(t, Clock{Hour: 7, Minute: 5}, c)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
	_, err = ParseClock("12:61")
	assert.Error(t, err)
	_, err = ParseClock("noon")
	assert.Error(t, err)
}

func TestNonWrappingRange(t *testing.T) {
	r := Range{Start: Clock{Hour: 13}, End: Clock{Hour: 15}}
	assert.False(t, Excluded(at(12, 59), []Range{r}))
	assert.True(t, Excluded(at(13, 0), []Range{r}), "start is inclusive")
	assert.True(t, Excluded(at(14, 30), []Range{r}))
	assert.False(t, Excluded(at(15, 0), []Range{r}), "end is exclusive")
}

func TestWraparoundRange(t *testing.T) {
	r := Range{Start: Clock{Hour: 22}, End: Clock{Hour: 8}}
	for _, tc := range []struct {
		hour, minute int
		excluded     bool
	}{
		{23, 0, true},
		{0, 30, true},
		{7, 59, true},
		{22, 0, true},
		{8, 0, false},
		{12, 0, false},
		{21, 59, false},
	} {
		assert.Equal(t, tc.excluded, Excluded(at(tc.hour, tc.minute), []Range{r}),
			"%02d:%02d", tc.hour, tc.minute)
	}
}

func TestDegenerateRangeExcludesWholeDay(t *testing.T) {
	r := Range{Start: Clock{Hour: 9}, End: Clock{Hour: 9}}
	for m := 0; m < 24*60; m++ {
		require.True(t, r.Contains(m), "minute %d", m)
	}
}

func TestNoRanges(t *testing.T) {
	assert.False(t, Excluded(at(3, 0), nil))
	assert.False(t, Excluded(at(3, 0), []Range{}))
}

func TestMultipleRanges(t *testing.T) {
	ranges := []Range{
		{Start: Clock{Hour: 12}, End: Clock{Hour: 13}},
		{Start: Clock{Hour: 22}, End: Clock{Hour: 6}},
	}
	assert.True(t, Excluded(at(12, 30), ranges))
	assert.True(t, Excluded(at(2, 0), ranges))
	assert.False(t, Excluded(at(9, 0), ranges))
}

func TestExcludedIgnoresSeconds(t *testing.T) {
	r := Range{Start: Clock{Hour: 10}, End: Clock{Hour: 11}}
	withSeconds := time.Date(2025, 1, 1, 9, 59, 59, 999999999, time.UTC)
	assert.False(t, Excluded(withSeconds, []Range{r}))
}
