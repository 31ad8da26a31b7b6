package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	httpapi "github.com/i474232898/calendar-reminders/internal/api/http"
	"github.com/i474232898/calendar-reminders/internal/config"
	"github.com/i474232898/calendar-reminders/internal/editor"
	"github.com/i474232898/calendar-reminders/internal/reminder"
	"github.com/i474232898/calendar-reminders/internal/scheduler"
	"github.com/i474232898/calendar-reminders/internal/storage"
	"github.com/i474232898/calendar-reminders/internal/weather"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "calendar-reminders",
		Usage: "Keep short reminders on calendar days, annotated with the forecast.",
		Commands: []*cli.Command{
			serveCommand(),
			addCommand(),
			listCommand(),
			deleteCommand(),
			clearDayCommand(),
			weatherCommand(),
		},
	}
}

// setup loads configuration and wires the application. Commands that write
// reminders pass exclusive: the store is then locked until release is
// called, so a running server and a CLI write can never overwrite each
// other's documents.
func setup(exclusive bool) (cfg *config.AppConfig, comps *components, release func(), err error) {
	cfg, err = config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	release = func() {}
	if exclusive && cfg.StorageDriver != storage.DriverMemory {
		lock, err := storage.LockDir(cfg.StoragePath)
		if errors.Is(err, storage.ErrLocked) {
			return nil, nil, nil, fmt.Errorf("%w: stop the running server or use its HTTP API", err)
		}
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to lock store: %w", err)
		}
		release = func() {
			if err := lock.Unlock(); err != nil {
				log.Printf("ERROR: releasing store lock: %v", err)
			}
		}
	}

	comps, err = build(cfg)
	if err != nil {
		release()
		return nil, nil, nil, fmt.Errorf("failed to initialise: %w", err)
	}
	return cfg, comps, release, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Action: func(c *cli.Context) error {
			cfg, comps, release, err := setup(true)
			if err != nil {
				return err
			}
			defer release()

			// Expired geocodes are swept in the background.
			sched := scheduler.New(cfg.CacheSweepInterval, comps.geocodes)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			defer sched.Stop()

			app := httpapi.NewApp(httpapi.Deps{
				Repo:    comps.repo,
				Editor:  comps.editor,
				Weather: comps.weather,
			}, comps.metrics, cfg.LookupTimeout+cfg.HTTPTimeout)

			go func() {
				log.Printf("INFO: listening on :%s", cfg.Port)
				if err := app.Listen(":" + cfg.Port); err != nil {
					log.Printf("fiber server stopped: %v", err)
				}
			}()

			// Wait for termination signal
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				log.Printf("error during shutdown: %v", err)
			}
			return nil
		},
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a reminder.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Required: true, Usage: "Reminder text, at most 30 characters."},
			&cli.StringFlag{Name: "city", Required: true, Usage: "City used for the forecast."},
			&cli.StringFlag{Name: "date", Usage: "Day as YYYY-MM-DD. Defaults to today."},
			&cli.StringFlag{Name: "time", Value: editor.DefaultTime, Usage: "Time of day as HH:MM."},
			&cli.StringFlag{Name: "color", Value: editor.DefaultColor, Usage: "Display color."},
		},
		Action: func(c *cli.Context) error {
			_, comps, release, err := setup(true)
			if err != nil {
				return err
			}
			defer release()

			r, err := comps.editor.Create(c.Context, editor.Input{
				Text:  c.String("text"),
				Color: c.String("color"),
				City:  c.String("city"),
				Date:  c.String("date"),
				Time:  c.String("time"),
			})
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, r)
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List reminders, for one day or for every day that has any.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "day", Usage: "Only this day, as YYYY-MM-DD."},
		},
		Action: func(c *cli.Context) error {
			_, comps, release, err := setup(false)
			if err != nil {
				return err
			}
			defer release()

			days := comps.repo.Days()
			if day := c.String("day"); day != "" {
				t, err := time.Parse(reminder.DayLayout, day)
				if err != nil {
					return fmt.Errorf("invalid --day: %w", err)
				}
				days = []string{reminder.DayKey(t)}
			}

			for _, day := range days {
				for _, r := range comps.repo.Day(day) {
					fmt.Fprintln(c.App.Writer, formatReminder(r))
				}
			}
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a reminder by id.",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return fmt.Errorf("a reminder id is required")
			}
			_, comps, release, err := setup(true)
			if err != nil {
				return err
			}
			defer release()
			if !comps.repo.Delete(id) {
				return fmt.Errorf("%w: %s", editor.ErrNotFound, id)
			}
			return nil
		},
	}
}

func clearDayCommand() *cli.Command {
	return &cli.Command{
		Name:      "clear-day",
		Usage:     "Delete every reminder of a day.",
		ArgsUsage: "<YYYY-MM-DD>",
		Action: func(c *cli.Context) error {
			day, err := time.Parse(reminder.DayLayout, c.Args().First())
			if err != nil {
				return fmt.Errorf("invalid day: %w", err)
			}
			_, comps, release, err := setup(true)
			if err != nil {
				return err
			}
			defer release()
			comps.repo.ClearDay(day)
			return nil
		},
	}
}

func weatherCommand() *cli.Command {
	return &cli.Command{
		Name:  "weather",
		Usage: "Look up the forecast category for a city at a local date and time.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "city", Required: true},
			&cli.StringFlag{Name: "date", Required: true, Usage: "Day as YYYY-MM-DD."},
			&cli.StringFlag{Name: "time", Value: editor.DefaultTime, Usage: "Time of day as HH:MM."},
		},
		Action: func(c *cli.Context) error {
			date, err := reminder.ParseDate(c.String("date"))
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
			_, comps, release, err := setup(false)
			if err != nil {
				return err
			}
			defer release()

			cat, ok := comps.weather.Summarize(c.Context, c.String("city"), date, c.String("time"))
			fmt.Fprintln(c.App.Writer, formatWeather(cat, ok))
			return nil
		},
	}
}

func formatWeather(cat weather.Category, ok bool) string {
	if !ok {
		return weather.CategoryUnknown.Icon() + " no data"
	}
	return cat.Icon() + " " + string(cat)
}

func formatReminder(r reminder.Reminder) string {
	var cat weather.Category
	if r.Weather != nil {
		cat = weather.Category(*r.Weather)
	}
	fields := []string{r.DayKey(), r.Time, r.ID, fmt.Sprintf("%q", r.Text), r.City, formatWeather(cat, r.Weather != nil)}
	return strings.Join(fields, "  ")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
