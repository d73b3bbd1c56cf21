package guard

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestGuard_DuplicateWindow(t *testing.T) {
	g := New(2 * time.Second)
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if g.ShouldReject("sig", t0) {
		t.Fatalf("first submission rejected")
	}
	g.Record("sig", t0)

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"same instant", 0, true},
		{"within window", 1000 * time.Millisecond, true},
		{"just before edge", 1999 * time.Millisecond, true},
		{"at edge", 2000 * time.Millisecond, false},
		{"after window", 2100 * time.Millisecond, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.ShouldReject("sig", t0.Add(tt.offset)); got != tt.want {
				t.Fatalf("ShouldReject(+%v) = %v, want %v", tt.offset, got, tt.want)
			}
		})
	}
}

func TestGuard_RecordIsLastWriteWins(t *testing.T) {
	g := New(2 * time.Second)
	t0 := time.Unix(1000, 0)
	g.Record("sig", t0)
	g.Record("sig", t0.Add(1500*time.Millisecond))

	if !g.ShouldReject("sig", t0.Add(3*time.Second)) {
		t.Fatalf("later Record did not overwrite earlier timestamp")
	}
	if g.Len() != 1 {
		t.Fatalf("Len = %d, want 1", g.Len())
	}
}

func TestGuard_CheckAndRecord(t *testing.T) {
	g := New(2 * time.Second)
	t0 := time.Unix(1000, 0)

	if g.CheckAndRecord("sig", t0) {
		t.Fatalf("first CheckAndRecord rejected")
	}
	if !g.CheckAndRecord("sig", t0.Add(500*time.Millisecond)) {
		t.Fatalf("second CheckAndRecord within window accepted")
	}
	// A rejected duplicate does not extend the window.
	if g.CheckAndRecord("sig", t0.Add(2100*time.Millisecond)) {
		t.Fatalf("CheckAndRecord after window rejected")
	}
}

func TestGuard_PurgeUsesRetentionHorizon(t *testing.T) {
	g := New(2 * time.Second)
	t0 := time.Unix(1000, 0)
	g.Record("old", t0)
	g.Record("recent", t0.Add(4*time.Minute))

	removed := g.Purge(t0.Add(5*time.Minute+time.Second), 5*time.Minute)
	if removed != 1 {
		t.Fatalf("Purge removed %d, want 1", removed)
	}
	if g.Len() != 1 {
		t.Fatalf("Len = %d, want 1", g.Len())
	}
	if g.ShouldReject("old", t0.Add(5*time.Minute+time.Second)) {
		t.Fatalf("purged signature still rejected")
	}
}

func TestGuard_PurgeBoundsSize(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := New(2 * time.Second)
		horizon := 5 * time.Minute
		base := time.Unix(0, 0)
		offsets := rapid.SliceOf(rapid.Int64Range(0, int64(time.Hour))).Draw(t, "offsets")
		latest := base
		for i, off := range offsets {
			at := base.Add(time.Duration(off))
			if at.After(latest) {
				latest = at
			}
			g.Record(rapid.StringMatching(`[a-c]{1,2}`).Draw(t, "sig")+string(rune('a'+i%3)), at)
		}
		now := latest.Add(horizon + time.Nanosecond)
		g.Purge(now, horizon)
		if g.Len() != 0 {
			t.Fatalf("Len after purge past every entry = %d, want 0", g.Len())
		}
	})
}
