//go:build !unix

package app

import (
	"context"

	"github.com/five82/steady/internal/signals"
)

func watchResume(context.Context, func(signals.Kind) bool) {}
