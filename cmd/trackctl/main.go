// trackctl exercises the runtime state core from the command line: log an
// event and see the reminder it would install, check a clock time against
// the configured quiet hours, or write a starter settings file.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bdombry/puppytrack/cache"
	"github.com/bdombry/puppytrack/logger"
	"github.com/bdombry/puppytrack/quiethours"
	"github.com/bdombry/puppytrack/schedule"
	"github.com/bdombry/puppytrack/settings"
	"github.com/bdombry/puppytrack/tracker"
)

var (
	settingsFile string
	puppyID      string
	puppyName    string
	occurredAt   string
)

func loadSettings(log logger.Logger) settings.Settings {
	s, err := settings.LoadFile(settingsFile)
	if err != nil {
		log.Debug("using default settings: %s", err)
		return settings.Default()
	}
	return s
}

// nullBackend satisfies tracker.Backend for a process with no hosted
// backend attached; every read is a miss.
type nullBackend struct{}

func (nullBackend) Stats(context.Context, string, string) (tracker.Stats, bool, error) {
	return tracker.Stats{}, false, nil
}

func (nullBackend) History(context.Context, string, int, int) ([]tracker.Event, bool, error) {
	return nil, false, nil
}

func (nullBackend) LastEvent(context.Context, string, schedule.EventType) (tracker.Event, bool, error) {
	return tracker.Event{}, false, nil
}

var rootCmd = &cobra.Command{
	Use:   "trackctl",
	Short: "Inspect puppytrack reminder scheduling and quiet hours",
}

var logCmd = &cobra.Command{
	Use:   "log [outing|incident|eat|drink]",
	Short: "Log an event and print the reminder it installs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.NewConsoleLogger()
		when := time.Now()
		if occurredAt != "" {
			parsed, err := time.ParseInLocation("2006-01-02 15:04", occurredAt, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --at value %q: %w", occurredAt, err)
			}
			when = parsed
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		store := cache.NewInMemory(ctx, cache.WithSweepInterval(0))
		defer store.Close()
		notifier := schedule.NewTimerNotifier(nil)
		defer notifier.Close()
		sched := schedule.New(notifier, schedule.WithLogger(log))
		notifier.Attach(sched)
		tr := tracker.New(store, sched, nullBackend{}, func() settings.Settings { return loadSettings(log) },
			tracker.WithLogger(log))

		res, err := tr.LogEvent(ctx, tracker.Event{
			PuppyID:    puppyID,
			PuppyName:  puppyName,
			Type:       schedule.EventType(args[0]),
			OccurredAt: when,
		})
		if err != nil {
			return err
		}
		if !res.Installed {
			fmt.Println("no reminder installed (fire time already passed)")
			return nil
		}
		kind := "reminder"
		if res.Merged {
			kind = "merged reminder"
		}
		fmt.Printf("%s %s fires at %s\n", kind, res.Identifier, res.FireAt.Format("2006-01-02 15:04"))
		return nil
	},
}

var quietCmd = &cobra.Command{
	Use:   "quiet [HH:MM]",
	Short: "Check whether a clock time falls inside the configured quiet hours",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clock, err := quiethours.ParseClock(args[0])
		if err != nil {
			return err
		}
		cfg := loadSettings(logger.NewConsoleLogger())
		probe := time.Date(2000, 1, 1, clock.Hour, clock.Minute, 0, 0, time.UTC)
		if quiethours.Excluded(probe, cfg.QuietHours) {
			fmt.Printf("%s is inside quiet hours — reminders are held\n", clock)
		} else {
			fmt.Printf("%s is outside quiet hours\n", clock)
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter settings file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := settings.Default()
		cfg.QuietHours = []quiethours.Range{
			{Start: quiethours.Clock{Hour: 22}, End: quiethours.Clock{Hour: 8}},
		}
		if err := settings.Save(settingsFile, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", settingsFile)
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "notifications.yaml", "settings file")
	rootCmd.PersistentFlags().StringVar(&puppyID, "puppy", "default", "puppy id")
	rootCmd.PersistentFlags().StringVar(&puppyName, "name", "", "puppy display name")
	logCmd.Flags().StringVar(&occurredAt, "at", "", "event time as '2006-01-02 15:04' (default: now)")
	rootCmd.AddCommand(logCmd, quietCmd, initCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
