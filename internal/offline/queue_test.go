package offline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/steady/internal/tracker"
	"github.com/five82/steady/internal/transport"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func req(target string) transport.Request {
	return transport.Request{Method: "POST", Target: target}
}

func okReplay(calls *[]string) ReplayFunc {
	return func(_ context.Context, op Operation) (*transport.Response, error) {
		*calls = append(*calls, op.Request.Target)
		return &transport.Response{StatusCode: 200}, nil
	}
}

func TestDrain_ReplaysInFIFOOrder(t *testing.T) {
	q := New(3, WithLogger(setupTestLogger()))
	a := q.Enqueue(tracker.FormSubmit, req("A"))
	b := q.Enqueue(tracker.FormSubmit, req("B"))
	c := q.Enqueue(tracker.NetworkFetch, req("C"))
	require.Equal(t, 3, q.Len())

	var calls []string
	res := q.Drain(context.Background(), okReplay(&calls))

	assert.Equal(t, []string{"A", "B", "C"}, calls)
	assert.Equal(t, 3, res.Succeeded)
	assert.Equal(t, 0, res.Remaining)
	for _, p := range []*Pending{a, b, c} {
		resp, err := p.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	}
}

func TestDrain_ExhaustsAfterMaxRetries(t *testing.T) {
	q := New(3)
	p := q.Enqueue(tracker.FormSubmit, req("A"))
	boom := errors.New("boom")

	attempts := 0
	replay := func(context.Context, Operation) (*transport.Response, error) {
		attempts++
		return nil, boom
	}

	for pass := 1; pass <= 2; pass++ {
		res := q.Drain(context.Background(), replay)
		assert.Equal(t, 1, res.Retrying, "pass %d", pass)
		assert.Equal(t, 1, q.Len(), "pass %d", pass)
		select {
		case <-p.Done():
			t.Fatalf("pending settled after pass %d", pass)
		default:
		}
	}

	res := q.Drain(context.Background(), replay)
	assert.Equal(t, 1, res.Exhausted)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 3, attempts)

	_, err := p.Wait(context.Background())
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, boom)
}

func TestDrain_FailureDoesNotAbortPass(t *testing.T) {
	q := New(3)
	q.Enqueue(tracker.FormSubmit, req("A"))
	pb := q.Enqueue(tracker.FormSubmit, req("B"))
	pc := q.Enqueue(tracker.FormSubmit, req("C"))

	var calls []string
	replay := func(_ context.Context, op Operation) (*transport.Response, error) {
		calls = append(calls, op.Request.Target)
		if op.Request.Target == "A" {
			panic("replay blew up")
		}
		return &transport.Response{StatusCode: 201}, nil
	}

	res := q.Drain(context.Background(), replay)
	assert.Equal(t, []string{"A", "B", "C"}, calls)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Retrying)
	assert.Equal(t, 1, q.Len())

	for _, p := range []*Pending{pb, pc} {
		_, err := p.Wait(context.Background())
		assert.NoError(t, err)
	}
	snap := q.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "A", snap[0].Request.Target)
	assert.Equal(t, 1, snap[0].Attempts)
}

func TestDrain_EntriesAddedMidPassWaitForNextPass(t *testing.T) {
	q := New(3)
	q.Enqueue(tracker.FormSubmit, req("A"))

	var calls []string
	replay := func(_ context.Context, op Operation) (*transport.Response, error) {
		calls = append(calls, op.Request.Target)
		if op.Request.Target == "A" {
			q.Enqueue(tracker.FormSubmit, req("late"))
		}
		return &transport.Response{StatusCode: 200}, nil
	}

	res := q.Drain(context.Background(), replay)
	assert.Equal(t, []string{"A"}, calls)
	assert.Equal(t, 1, res.Remaining)

	q.Drain(context.Background(), replay)
	assert.Equal(t, []string{"A", "late"}, calls)
	assert.Equal(t, 0, q.Len())
}

func TestDrain_ConcurrentCallIsSkipped(t *testing.T) {
	q := New(3)
	q.Enqueue(tracker.FormSubmit, req("A"))

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan DrainResult)
	go func() {
		done <- q.Drain(context.Background(), func(context.Context, Operation) (*transport.Response, error) {
			close(entered)
			<-release
			return &transport.Response{StatusCode: 200}, nil
		})
	}()

	<-entered
	res := q.Drain(context.Background(), func(context.Context, Operation) (*transport.Response, error) {
		t.Fatalf("second drain replayed an entry")
		return nil, nil
	})
	assert.True(t, res.Skipped)
	close(release)

	first := <-done
	assert.Equal(t, 1, first.Succeeded)
}

func TestDrain_StopsWhenContextCancelled(t *testing.T) {
	q := New(3)
	q.Enqueue(tracker.FormSubmit, req("A"))
	q.Enqueue(tracker.FormSubmit, req("B"))

	ctx, cancel := context.WithCancel(context.Background())
	var calls []string
	q.Drain(ctx, func(_ context.Context, op Operation) (*transport.Response, error) {
		calls = append(calls, op.Request.Target)
		cancel()
		return &transport.Response{StatusCode: 200}, nil
	})

	assert.Equal(t, []string{"A"}, calls)
	assert.Equal(t, 1, q.Len())
}

func TestPurgeOlderThan_SettlesExpired(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	q := New(3, WithClock(clock))

	old := q.Enqueue(tracker.FormSubmit, req("old"))
	now = now.Add(9 * time.Minute)
	fresh := q.Enqueue(tracker.FormSubmit, req("fresh"))
	now = now.Add(2 * time.Minute)

	removed := q.PurgeOlderThan(now, 10*time.Minute)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, q.Len())

	_, err := old.Wait(context.Background())
	assert.ErrorIs(t, err, ErrExpired)

	select {
	case <-fresh.Done():
		t.Fatalf("fresh entry settled by purge")
	default:
	}
	assert.False(t, q.Contains(old.ID()))
	assert.True(t, q.Contains(fresh.ID()))
}

func TestPending_WaitHonoursContext(t *testing.T) {
	q := New(3)
	p := q.Enqueue(tracker.NetworkFetch, req("A"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, q.Len(), "abandoned wait must leave the entry queued")
}

func TestEnqueue_IsolatesRequest(t *testing.T) {
	q := New(3)
	r := transport.Request{Method: "POST", Target: "/orders/", Body: []byte("x")}
	q.Enqueue(tracker.FormSubmit, r)
	r.Body[0] = 'y'

	snap := q.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "x", string(snap[0].Request.Body))
	assert.NotEmpty(t, snap[0].ID)
}
