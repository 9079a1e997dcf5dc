package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"upnext/internal/agenda"
	"upnext/internal/config"
	"upnext/internal/i18n"
	appLog "upnext/internal/log"
	"upnext/internal/source"
	"upnext/internal/source/ics"
	"upnext/internal/source/vcf"
	"upnext/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
}

func main() {
	appLog.Info("upnext starting", "version", "0.1.0-dev")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("invalid timezone", err, "timezone", conf.Timezone)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"lookahead_hours", conf.LookaheadHours,
		"max_items", conf.MaxItems,
		"show_all_day", conf.ShowAllDay,
		"show_anniversaries", conf.ShowAnniversaries,
		"ics_count", len(conf.ICS),
		"contacts", conf.Contacts != nil,
		"once", flags.once,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	runner := buildRunner(conf, loc)

	if flags.once {
		store := runner.RefreshNow(ctx)
		for i, it := range store.Items() {
			fmt.Printf("%2d  %s  %s\n", i+1, it.Title, it.Detail)
		}
		return
	}

	// Periodic feed re-poll; remote sources have no change signal, so
	// staleness is bounded by this schedule.
	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, runner.Trigger); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	// Local contact files do have one: watch and coalesce writes.
	if conf.Contacts != nil && conf.Contacts.Mode == config.ContactsLocal {
		watcher, werr := source.NewFileWatcher(func(path string) {
			appLog.Info("source file changed", "path", path)
			runner.Trigger()
		})
		if werr != nil {
			appLog.Error("file watcher unavailable", werr)
		} else {
			defer watcher.Close()
			if err := watcher.Add(conf.Contacts.Path); err != nil {
				appLog.Warn("cannot watch contacts file", "err", err, "path", conf.Contacts.Path)
			}
		}
	}

	go runner.Run(ctx)
	runner.Trigger()

	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(conf, runner, nil).Handler(),
	}
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP shutdown failed", err)
	}
	appLog.Info("upnext exiting")
}

func buildRunner(conf *config.Config, loc *time.Location) *agenda.Runner {
	labels := i18n.New(conf.Language)

	feeds := make([]ics.Feed, 0, len(conf.ICS))
	for _, src := range conf.ICS {
		feeds = append(feeds, ics.Feed{ID: src.ID, URL: src.URL})
	}

	agg := &agenda.Aggregator{
		Events: ics.NewSource(ics.NewFetcher(cacheDir()), feeds),
		Label:  labels.AnniversaryType,
	}
	if conf.Contacts != nil {
		agg.Anniversaries = &vcf.Source{
			Mode:     conf.Contacts.Mode,
			Path:     conf.Contacts.Path,
			URL:      conf.Contacts.URL,
			Username: conf.Contacts.Username,
			Password: conf.Contacts.Password,
		}
	}

	opts := agenda.Options{
		LookAhead:         conf.Lookahead(),
		MaxItems:          conf.MaxItems,
		RemindersOnly:     conf.ShowRemindersOnly,
		ShowAllDay:        conf.ShowAllDay,
		ShowAnniversaries: conf.ShowAnniversaries,
		LocationMode:      detailMode(conf.LocationMode),
		DescriptionMode:   detailMode(conf.DescriptionMode),
		HighlightUpcoming: conf.HighlightUpcoming,
		UpcomingFromHour:  conf.UpcomingFromHour,
		Calendars:         conf.Calendars,
		Location:          loc,
	}

	var runner *agenda.Runner
	wake := &agenda.TimerWake{Fire: func() { runner.Trigger() }}
	runner = agenda.NewRunner(agg, opts, agenda.RealClock{}, wake, logNotifier{})
	return runner
}

func detailMode(mode string) agenda.DetailMode {
	switch mode {
	case config.ShowFirstLine:
		return agenda.ShowFirstLine
	case config.ShowAlways:
		return agenda.ShowAlways
	default:
		return agenda.ShowNever
	}
}

// logNotifier is the process-level visibility collaborator: it only logs.
// Embedding UIs read the "visible" flag from /api/items instead.
type logNotifier struct{}

func (logNotifier) PanelVisible(visible bool) {
	if !visible {
		appLog.Info("no items to display, panel hidden")
	}
}

func cacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + "/upnext/ics-cache"
	}
	return "./var/ics-cache"
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/upnext/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one refresh cycle, print items and exit")

	flag.Parse()

	return cfg
}
