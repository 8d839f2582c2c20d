// Package app wires config, logging, storage, transport, notifier, and
// the cron trigger into the running bot.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"rotabot/internal/config"
	"rotabot/internal/notifier"
	"rotabot/internal/schedule"
	"rotabot/internal/storage"
	telegram "rotabot/internal/transport/telegram"
	logx "rotabot/pkg/logx"
)

// Options are the command-line knobs; environment overrides are layered
// in during New.
type Options struct {
	ConfigPath string
	DryRun     bool
	// ForceWeek pins the resolved week ("2025-W33" or a bare number for
	// the current year). Empty means the current week.
	ForceWeek string
}

type App struct {
	cfg *config.Config
	env *config.Env

	log  logx.Logger
	logs *logx.Service

	loc    *time.Location
	source *schedule.Source
	store  storage.Store
	notif  *notifier.Service

	forceWeek   string
	testMessage string
}

func New(opts Options) (*App, error) {
	cfg, env, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("schedule.timezone %q: %w", cfg.Schedule.Timezone, err)
	}

	dryRun := opts.DryRun || env.DryRun

	// Storage (optional)
	var store storage.Store
	if cfg.Storage != nil {
		busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
		if err != nil {
			_ = logSvc.Close()
			return nil, err
		}
		st, err := storage.Open(storage.Config{
			Driver:      cfg.Storage.Driver,
			Path:        cfg.Storage.Path,
			BusyTimeout: busy,
		}, log.With(logx.String("comp", "storage")))
		if err != nil {
			_ = logSvc.Close()
			return nil, err
		}
		if st != nil {
			store = st
			log.Info("storage enabled", logx.String("driver", cfg.Storage.Driver))
		}
	}

	// Transport: only built for real sends, so dry runs need no token.
	var sender notifier.Sender
	if !dryRun {
		if strings.TrimSpace(cfg.Telegram.Token) == "" {
			closeAll(logSvc, store)
			return nil, fmt.Errorf("telegram.token is required (or set TELEGRAM_BOT_TOKEN)")
		}
		if cfg.Telegram.ChatID == 0 {
			closeAll(logSvc, store)
			return nil, fmt.Errorf("telegram.chat_id is required (or set TELEGRAM_CHAT_ID)")
		}
		ad, err := telegram.New(telegram.Config{Token: cfg.Telegram.Token},
			log.With(logx.String("comp", "telegram")))
		if err != nil {
			closeAll(logSvc, store)
			return nil, err
		}
		sender = ad
	}

	ncfg, err := mapNotifierConfig(cfg, dryRun)
	if err != nil {
		closeAll(logSvc, store)
		return nil, err
	}

	return &App{
		cfg:         cfg,
		env:         env,
		log:         log,
		logs:        logSvc,
		loc:         loc,
		source:      schedule.NewSource(cfg.Schedule.Path, log.With(logx.String("comp", "schedule"))),
		store:       store,
		notif:       notifier.New(ncfg, sender, log.With(logx.String("comp", "notifier")), store),
		forceWeek:   firstNonEmpty(opts.ForceWeek, env.ForceWeek),
		testMessage: env.TestMessage,
	}, nil
}

func mapNotifierConfig(cfg *config.Config, dryRun bool) (notifier.Config, error) {
	n := cfg.Notifier
	if n == nil {
		n = &config.NotifierConfig{}
	}
	retryBase, err := config.ParseDurationOrDefault("notifier.retry_base", n.RetryBase, 500*time.Millisecond)
	if err != nil {
		return notifier.Config{}, err
	}
	retryMaxDelay, err := config.ParseDurationOrDefault("notifier.retry_max_delay", n.RetryMaxDelay, 10*time.Second)
	if err != nil {
		return notifier.Config{}, err
	}
	// Default: one send per week, so suppress repeats for most of one.
	// An explicit "0s" disables dedup.
	dedup := 6 * 24 * time.Hour
	if strings.TrimSpace(n.DedupWindow) != "" {
		dedup, err = config.ParseDurationField("notifier.dedup_window", n.DedupWindow)
		if err != nil {
			return notifier.Config{}, err
		}
	}
	return notifier.Config{
		RatePerSec:    n.RatePerSec,
		RetryMax:      n.RetryMax,
		RetryBase:     retryBase,
		RetryMaxDelay: retryMaxDelay,
		DedupWindow:   dedup,
		DryRun:        dryRun,
	}, nil
}

// RunOnce resolves and delivers a single reminder, the invocation style
// used under an external scheduler (systemd timer, CI cron).
func (a *App) RunOnce(ctx context.Context) error {
	return a.runReminder(ctx)
}

// Run starts scheduled mode: the cron trigger fires the reminder in the
// configured timezone, and the schedule file is watched for broken edits
// between runs. Blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(a.loc))
	_, err := c.AddFunc(a.cfg.Schedule.Cron, func() {
		jctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		if err := a.runReminder(jctx); err != nil {
			a.log.Error("scheduled reminder failed", logx.Err(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule.cron %q: %w", a.cfg.Schedule.Cron, err)
	}

	// Fail fast on an unloadable schedule instead of waiting for the
	// first trigger.
	if _, err := a.source.Load(); err != nil {
		return err
	}

	go func() {
		if err := a.source.Watch(ctx); err != nil {
			a.log.Warn("schedule watcher exited", logx.Err(err))
		}
	}()

	c.Start()
	a.log.Info("scheduler started",
		logx.String("cron", a.cfg.Schedule.Cron),
		logx.String("tz", a.cfg.Schedule.Timezone),
		logx.Bool("dry_run", a.notif.DryRun()))

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify failed", logx.Err(err))
	} else if sent {
		a.log.Debug("sd_notify: ready")
	}

	<-ctx.Done()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(10 * time.Second):
		a.log.Warn("cron jobs still running at shutdown deadline")
	}
	return nil
}

func (a *App) Close() error {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("storage close failed", logx.Err(err))
		}
	}
	return a.logs.Close()
}

func closeAll(logs *logx.Service, store storage.Store) {
	if store != nil {
		_ = store.Close()
	}
	_ = logs.Close()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
