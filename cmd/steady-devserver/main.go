package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/five82/steady/internal/devserver"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", "127.0.0.1:8040", "listen address")
	latency := flag.Duration("latency", 0, "delay added to every response")
	failEvery := flag.Int("fail-every", 0, "fail every Nth request (0 disables)")
	failStatus := flag.Int("fail-status", 503, "status code for injected failures")
	debug := flag.Bool("debug", false, "log every request")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := devserver.New(logger)
	srv.SetFaults(devserver.Faults{
		Latency:   *latency,
		FailEvery: *failEvery,
		Status:    *failStatus,
	})
	if *latency > 0 || *failEvery > 0 {
		logger.Info("fault injection enabled",
			"latency", latency.Round(time.Millisecond),
			"fail_every", *failEvery,
			"status", *failStatus)
	}

	if err := srv.Run(ctx, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "steady-devserver: %v\n", err)
		return 1
	}
	return 0
}
