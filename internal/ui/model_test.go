package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/steady/internal/prefs"
	"github.com/five82/steady/internal/state"
	"github.com/five82/steady/internal/tracker"
	"github.com/five82/steady/internal/transport"
)

type fakeActions struct {
	calls []string
}

func (f *fakeActions) record(name string) string {
	f.calls = append(f.calls, name)
	return name + " done"
}

func (f *fakeActions) ToggleOnline() string                { return f.record("online") }
func (f *fakeActions) ToggleHidden() string                { return f.record("hidden") }
func (f *fakeActions) Focus() string                       { return f.record("focus") }
func (f *fakeActions) Fetch(context.Context) string        { return f.record("fetch") }
func (f *fakeActions) Submit(context.Context) string       { return f.record("submit") }
func (f *fakeActions) DoubleSubmit(context.Context) string { return f.record("double") }
func (f *fakeActions) ForceClear() string                  { return f.record("clear") }

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestSink_WakesOnceAndCopiesState(t *testing.T) {
	s := NewSink()
	s.SetGlobalBusy(true, "Saving...")
	s.SetElementBusy("order-form", true, "Saving...")
	s.Notify("Working offline", transport.SeverityWarning)

	select {
	case <-s.dirty:
	default:
		t.Fatal("sink did not signal a change")
	}
	select {
	case <-s.dirty:
		t.Fatal("sink should coalesce wake-ups")
	default:
	}

	v := s.view()
	assert.True(t, v.Busy)
	assert.Equal(t, "Saving...", v.Label)
	assert.Equal(t, []ElementBusy{{Ref: "order-form", Label: "Saving..."}}, v.Elements)
	require.Len(t, v.Notes, 1)
	assert.Equal(t, transport.SeverityWarning, v.Notes[0].Severity)

	s.SetElementBusy("order-form", false, "")
	assert.Empty(t, s.view().Elements)
}

func TestSink_BoundsHistory(t *testing.T) {
	s := NewSink()
	for i := 0; i < notificationHistory+10; i++ {
		s.Notify("n", transport.SeverityInfo)
	}
	assert.Len(t, s.view().Notes, notificationHistory)
}

func TestModel_KeysDispatchActions(t *testing.T) {
	actions := &fakeActions{}
	m := New(Options{Store: &state.Store{}, Actions: actions})

	for _, r := range []rune{'o', 'h', 'g', 'f', 's', 'd', 'c'} {
		_, cmd := m.Update(keyPress(r))
		require.NotNil(t, cmd, "key %q should produce a command", r)
		msg := cmd()
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	assert.Equal(t, []string{"online", "hidden", "focus", "fetch", "submit", "double", "clear"}, actions.calls)
	assert.Equal(t, "clear done", m.lastAction)
}

func TestModel_CycleThemePersistsPrefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	m := New(Options{Store: &state.Store{}, Prefs: prefs.Default(), PrefsPath: path})
	require.Equal(t, "Nightfox", m.theme.Name)

	updated, _ := m.Update(keyPress('T'))
	m = updated.(Model)
	assert.Equal(t, "Kanagawa", m.theme.Name)

	saved, err := prefs.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Kanagawa", saved.Theme)
}

func TestModel_ViewRendersSnapshotAndNotifications(t *testing.T) {
	store := &state.Store{}
	store.Update(state.Status{Online: false, PendingCount: 1, QueuedCount: 2}, []tracker.Record{
		{ID: "a", Kind: tracker.FormSubmit, Label: "Saving order", StartedAt: time.Now()},
	})
	sink := NewSink()
	sink.Notify("Working offline", transport.SeverityWarning)

	m := New(Options{Store: store, Sink: sink})
	updated, _ := m.Update(snapshotMsg(store.Snapshot()))
	updated, _ = updated.Update(sinkMsg{})
	view := updated.(Model).View()

	assert.True(t, strings.Contains(view, "OFFLINE"))
	assert.True(t, strings.Contains(view, "queued 2"))
	assert.True(t, strings.Contains(view, "Saving order"))
	assert.True(t, strings.Contains(view, "Working offline"))
}

func TestModel_HelpClosesOnAnyKey(t *testing.T) {
	m := New(Options{Store: &state.Store{}})
	updated, _ := m.Update(keyPress('?'))
	m = updated.(Model)
	require.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Force-clear stuck state")

	updated, _ = m.Update(keyPress('x'))
	assert.False(t, updated.(Model).showHelp)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
