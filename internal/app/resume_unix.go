//go:build unix

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/steady/internal/signals"
)

// watchResume delivers a Visible signal whenever the process is continued
// after a stop, which is the terminal's equivalent of returning to a tab.
func watchResume(ctx context.Context, deliver func(signals.Kind) bool) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGCONT)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				deliver(signals.Visible)
			}
		}
	}()
}
