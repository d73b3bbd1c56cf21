package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/five82/steady/internal/coordinator"
	"github.com/five82/steady/internal/offline"
	"github.com/five82/steady/internal/signals"
	"github.com/five82/steady/internal/transport"
)

const orderFormRef = "order-form"

// demoActions drives the coordinator from console keys against the order
// backend.
type demoActions struct {
	coord  *coordinator.Coordinator
	logger *slog.Logger

	mu     sync.Mutex
	hidden bool
	seq    int
}

func newDemoActions(coord *coordinator.Coordinator, logger *slog.Logger) *demoActions {
	return &demoActions{coord: coord, logger: logger}
}

func (a *demoActions) ToggleOnline() string {
	online := !a.coord.Online()
	a.coord.SetOnline(online)
	if online {
		return "signalled online"
	}
	return "signalled offline"
}

func (a *demoActions) ToggleHidden() string {
	a.mu.Lock()
	a.hidden = !a.hidden
	hidden := a.hidden
	a.mu.Unlock()

	if hidden {
		a.coord.Signal(signals.Hidden)
		return "page hidden"
	}
	a.coord.Signal(signals.Visible)
	return "page visible"
}

func (a *demoActions) Focus() string {
	a.coord.Signal(signals.Focus)
	return "focus signalled"
}

type orderSummary struct {
	ID       string `json:"id"`
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

func (a *demoActions) Fetch(ctx context.Context) string {
	resp, err := a.coord.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Target: "/orders/",
		Label:  "Loading orders",
	})
	if err != nil {
		return "fetch failed: " + err.Error()
	}
	if !resp.OK() {
		return fmt.Sprintf("fetch returned %d", resp.StatusCode)
	}
	var orders []orderSummary
	if err := resp.DecodeJSON(&orders); err != nil {
		a.logger.Warn("decode orders failed", "error", err)
		return "fetch returned unreadable body"
	}
	return fmt.Sprintf("%d order(s) on server", len(orders))
}

func (a *demoActions) nextForm() coordinator.Form {
	a.mu.Lock()
	a.seq++
	n := a.seq
	a.mu.Unlock()

	return coordinator.Form{
		Ref:    orderFormRef,
		Method: http.MethodPost,
		Action: "/orders/",
		Label:  "Saving order",
		Fields: url.Values{
			"item":       {"widget-" + strconv.Itoa(n)},
			"qty":        {"1"},
			"csrf_token": {uuid.NewString()},
		},
	}
}

func (a *demoActions) Submit(ctx context.Context) string {
	sub, err := a.coord.Submit(ctx, a.nextForm())
	return describeSubmission(sub, err)
}

// DoubleSubmit sends the same form twice at once, as a double click would.
// The second copy differs only in its anti-forgery token.
func (a *demoActions) DoubleSubmit(ctx context.Context) string {
	form := a.nextForm()
	twin := form
	twin.Fields = url.Values{}
	for k, vs := range form.Fields {
		twin.Fields[k] = append([]string(nil), vs...)
	}
	twin.Fields.Set("csrf_token", uuid.NewString())

	var results [2]string
	var g errgroup.Group
	for i, f := range []coordinator.Form{form, twin} {
		g.Go(func() error {
			sub, err := a.coord.Submit(ctx, f)
			results[i] = describeSubmission(sub, err)
			return nil
		})
	}
	_ = g.Wait()
	return fmt.Sprintf("first: %s; second: %s", results[0], results[1])
}

func (a *demoActions) ForceClear() string {
	res := a.coord.ForceClearStuckState()
	return fmt.Sprintf("cleared %d operation(s), %d element(s)", res.Ended, res.ElementsCleared)
}

func describeSubmission(sub coordinator.Submission, err error) string {
	switch {
	case sub.Duplicate:
		return "rejected as duplicate"
	case err != nil:
		var exhausted *offline.ExhaustedError
		if errors.As(err, &exhausted) {
			return fmt.Sprintf("queued submission gave up after %d attempts", exhausted.Attempts)
		}
		if errors.Is(err, offline.ErrExpired) {
			return "queued submission expired"
		}
		if errors.Is(err, coordinator.ErrCleared) {
			return "submission cleared as stuck"
		}
		return "submit failed: " + err.Error()
	case sub.Response == nil:
		return "submitted"
	case sub.Response.Redirect != "":
		prefix := "created"
		if sub.Queued {
			prefix = "replayed, created"
		}
		return fmt.Sprintf("%s %s", prefix, sub.Response.Redirect)
	default:
		return fmt.Sprintf("submitted, status %d", sub.Response.StatusCode)
	}
}
