package settings

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	str2duration "github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"

	"github.com/bdombry/puppytrack/quiethours"
)

var ErrSettingsNotFound = errors.New("settings file not found")

// fileSettings is the on-disk YAML shape. Durations are strings like "3h30m"
// and quiet-hour boundaries are "HH:MM" strings.
type fileSettings struct {
	Preset         string      `yaml:"preset"`
	CustomInterval string      `yaml:"custom_interval,omitempty"`
	EatInterval    string      `yaml:"eat_interval,omitempty"`
	DrinkInterval  string      `yaml:"drink_interval,omitempty"`
	GroupingWindow string      `yaml:"grouping_window,omitempty"`
	QuietHours     []fileRange `yaml:"quiet_hours,omitempty"`
}

type fileRange struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

func parseDuration(field, val string) (time.Duration, error) {
	if val == "" {
		return 0, nil
	}
	d, err := str2duration.ParseDuration(val)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s %q", field, val)
	}
	return d, nil
}

// Parse decodes a YAML settings buffer, validating every field. Unset
// fields fall back to the Default values when the Settings are used.
func Parse(buf []byte) (Settings, error) {
	var fs fileSettings
	if err := yaml.Unmarshal(buf, &fs); err != nil {
		return Settings{}, errors.Wrap(err, "failed to parse settings")
	}
	s := Settings{Preset: Preset(fs.Preset)}
	if fs.Preset == "" {
		s.Preset = PresetThreeMonths
	}
	var err error
	if s.CustomInterval, err = parseDuration("custom_interval", fs.CustomInterval); err != nil {
		return Settings{}, err
	}
	if s.EatInterval, err = parseDuration("eat_interval", fs.EatInterval); err != nil {
		return Settings{}, err
	}
	if s.DrinkInterval, err = parseDuration("drink_interval", fs.DrinkInterval); err != nil {
		return Settings{}, err
	}
	if s.GroupingWindow, err = parseDuration("grouping_window", fs.GroupingWindow); err != nil {
		return Settings{}, err
	}
	for _, r := range fs.QuietHours {
		start, err := quiethours.ParseClock(r.Start)
		if err != nil {
			return Settings{}, errors.Wrap(err, "invalid quiet_hours start")
		}
		end, err := quiethours.ParseClock(r.End)
		if err != nil {
			return Settings{}, errors.Wrap(err, "invalid quiet_hours end")
		}
		s.QuietHours = append(s.QuietHours, quiethours.Range{Start: start, End: end})
	}
	if _, err := s.OutingInterval(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadFile reads and parses a YAML settings file. A missing file returns
// ErrSettingsNotFound so callers can fall back to Default.
func LoadFile(filename string) (Settings, error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, errors.Wrapf(ErrSettingsNotFound, "%s", filename)
		}
		return Settings{}, errors.Wrapf(err, "failed to read %s", filename)
	}
	return Parse(buf)
}

// Save writes the settings to filename as YAML.
func Save(filename string, s Settings) error {
	fs := fileSettings{Preset: string(s.Preset)}
	if s.CustomInterval > 0 {
		fs.CustomInterval = str2duration.String(s.CustomInterval)
	}
	if s.EatInterval > 0 {
		fs.EatInterval = str2duration.String(s.EatInterval)
	}
	if s.DrinkInterval > 0 {
		fs.DrinkInterval = str2duration.String(s.DrinkInterval)
	}
	if s.GroupingWindow > 0 {
		fs.GroupingWindow = str2duration.String(s.GroupingWindow)
	}
	for _, r := range s.QuietHours {
		fs.QuietHours = append(fs.QuietHours, fileRange{Start: r.Start.String(), End: r.End.String()})
	}
	buf, err := yaml.Marshal(fs)
	if err != nil {
		return errors.Wrap(err, "failed to encode settings")
	}
	if err := os.WriteFile(filename, buf, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", filename)
	}
	return nil
}
