package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/five82/steady/internal/config"
	"github.com/five82/steady/internal/coordinator"
	"github.com/five82/steady/internal/prefs"
	"github.com/five82/steady/internal/state"
	"github.com/five82/steady/internal/transport"
	"github.com/five82/steady/internal/ui"
)

// Options configure the steady console.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/steady/prefs.toml
	Debug      bool   // forces debug logging regardless of config
}

// Run boots the coordinator and the console until the context is cancelled
// or the operator quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Debug {
		cfg.Debug = true
	}

	logger, closer, err := SetupLogger(cfg.LogFile, cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		logger.Warn("using default console preferences", "path", prefsPath, "error", err)
	}

	client, err := transport.NewClient(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("init transport: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink := ui.NewSink()
	store := &state.Store{}
	coord := coordinator.New(cfg, client, sink,
		coordinator.WithLogger(logger),
		coordinator.WithStore(store),
	)
	coord.Start(ctx)
	defer coord.Stop()

	watchResume(ctx, coord.Signal)

	logger.Info("steady started",
		"base_url", client.BaseURL(),
		"request_timeout", cfg.RequestTimeout,
		"duplicate_window", cfg.DuplicateWindow,
		"debug", cfg.Debug)

	err = ui.Run(ui.Options{
		Context:   ctx,
		Store:     store,
		Sink:      sink,
		Actions:   newDemoActions(coord, logger),
		PollTick:  250 * time.Millisecond,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		LogFile:   cfg.LogFile,
	})
	logPending(logger, coord)
	return err
}

// logPending records anything still in flight or queued at exit, since the
// offline queue is not persisted.
func logPending(logger *slog.Logger, coord *coordinator.Coordinator) {
	status := coord.Status()
	if status.PendingCount == 0 && status.QueuedCount == 0 {
		return
	}
	for _, op := range coord.Queued() {
		logger.Warn("dropping queued operation at exit",
			"id", op.ID,
			"method", op.Request.NormalizedMethod(),
			"target", op.Request.Target,
			"attempts", op.Attempts)
	}
	logger.Warn("exiting with unfinished operations", "pending", status.PendingCount, "queued", status.QueuedCount)
}
