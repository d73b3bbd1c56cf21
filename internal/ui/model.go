package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/steady/internal/health"
	"github.com/five82/steady/internal/prefs"
	"github.com/five82/steady/internal/state"
)

// Actions are the operator commands the console can issue. Each returns a
// one-line summary of what happened. They run off the UI goroutine.
type Actions interface {
	ToggleOnline() string
	ToggleHidden() string
	Focus() string
	Fetch(ctx context.Context) string
	Submit(ctx context.Context) string
	DoubleSubmit(ctx context.Context) string
	ForceClear() string
}

// Options configures the console.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Sink      *Sink
	Actions   Actions
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
	LogFile   string
}

// Model is the root console state for Bubble Tea.
type Model struct {
	ctx       context.Context
	store     *state.Store
	sink      *Sink
	actions   Actions
	pollTick  time.Duration
	prefs     prefs.Prefs
	prefsPath string
	logFile   string

	theme   Theme
	keys    keyMap
	spinner spinner.Model
	width   int

	showHelp   bool
	snapshot   state.Snapshot
	view       sinkView
	lastAction string
}

type tickMsg time.Time

type snapshotMsg state.Snapshot

type actionMsg string

// New creates the console model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = 500 * time.Millisecond
	}
	sink := opts.Sink
	if sink == nil {
		sink = NewSink()
	}
	p := opts.Prefs
	if p.Theme == "" {
		p = prefs.Default()
	}

	theme := GetTheme(p.Theme)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent))

	return Model{
		ctx:       ctx,
		store:     opts.Store,
		sink:      sink,
		actions:   opts.Actions,
		pollTick:  pollTick,
		prefs:     p,
		prefsPath: opts.PrefsPath,
		logFile:   opts.LogFile,
		theme:     theme,
		keys:      DefaultKeyMap(),
		spinner:   sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		tickCmd(m.pollTick),
		waitForSink(m.sink),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg { return snapshotMsg(store.Snapshot()) }
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(m.pollTick)}
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		return m, nil

	case sinkMsg:
		m.view = m.sink.view()
		return m, waitForSink(m.sink)

	case actionMsg:
		m.lastAction = string(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.TogglePanel):
		m.prefs.ShowPending = !m.prefs.ShowPending
		m.savePrefs()
		return m, nil
	}

	if m.actions == nil {
		return m, nil
	}
	a, ctx := m.actions, m.ctx
	switch {
	case key.Matches(msg, m.keys.ToggleOnline):
		return m, runAction(a.ToggleOnline)
	case key.Matches(msg, m.keys.ToggleHidden):
		return m, runAction(a.ToggleHidden)
	case key.Matches(msg, m.keys.Focus):
		return m, runAction(a.Focus)
	case key.Matches(msg, m.keys.Fetch):
		return m, runAction(func() string { return a.Fetch(ctx) })
	case key.Matches(msg, m.keys.Submit):
		return m, runAction(func() string { return a.Submit(ctx) })
	case key.Matches(msg, m.keys.DoubleSubmit):
		return m, runAction(func() string { return a.DoubleSubmit(ctx) })
	case key.Matches(msg, m.keys.ForceClear):
		return m, runAction(a.ForceClear)
	}
	return m, nil
}

func runAction(fn func() string) tea.Cmd {
	return func() tea.Msg { return actionMsg(fn()) }
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, m.prefs)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.showHelp {
		return m.renderHelp()
	}
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(m.renderHeader(styles))
	b.WriteString("\n")

	if m.prefs.ShowPending {
		b.WriteString(styles.Section.Render("IN FLIGHT"))
		b.WriteString("\n")
		if len(m.snapshot.Pending) == 0 {
			b.WriteString(styles.MutedText.Render("  nothing pending"))
			b.WriteString("\n")
		}
		now := time.Now()
		for _, rec := range m.snapshot.Pending {
			line := fmt.Sprintf("  %-5s %-24s %s", rec.Kind, truncate(rec.Label, 24), formatAge(rec.Age(now)))
			b.WriteString(styles.Text.Render(line))
			b.WriteString("\n")
		}
		for _, el := range m.view.Elements {
			b.WriteString(styles.AccentText.Render(fmt.Sprintf("  [%s] %s", el.Ref, el.Label)))
			b.WriteString("\n")
		}
	}

	b.WriteString(styles.Section.Render("NOTIFICATIONS"))
	b.WriteString("\n")
	notes := m.view.Notes
	if n := m.prefs.Notifications; n > 0 && len(notes) > n {
		notes = notes[len(notes)-n:]
	}
	if len(notes) == 0 {
		b.WriteString(styles.MutedText.Render("  none"))
		b.WriteString("\n")
	}
	for i := len(notes) - 1; i >= 0; i-- {
		note := notes[i]
		b.WriteString(styles.MutedText.Render("  " + note.At.Format("15:04:05") + " "))
		b.WriteString(styles.Severity(note.Severity).Render(note.Message))
		b.WriteString("\n")
	}

	if m.lastAction != "" {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("> " + m.lastAction))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("o online  h hide  g focus  f fetch  s submit  d double  c clear  ? help  q quit"))
	return b.String()
}

func (m Model) renderHeader(styles Styles) string {
	snap := m.snapshot
	parts := []string{styles.Logo.Render("steady")}

	if snap.Online {
		parts = append(parts, styles.ChipStyle(m.theme.Success).Render("ONLINE"))
	} else {
		parts = append(parts, styles.ChipStyle(m.theme.Warning).Render("OFFLINE"))
	}

	switch snap.Health.Status {
	case health.Healthy:
		parts = append(parts, styles.SuccessText.Render("healthy "+formatAge(snap.Health.Latency)))
	case health.Slow:
		parts = append(parts, styles.WarningText.Render("slow "+formatAge(snap.Health.Latency)))
	case health.Degraded:
		label := "degraded"
		if snap.IsDegraded() {
			label = fmt.Sprintf("degraded x%d", snap.ConsecutiveFailures)
		}
		parts = append(parts, styles.DangerText.Render(label))
	default:
		parts = append(parts, styles.MutedText.Render("health unknown"))
	}

	if m.view.Busy {
		label := m.view.Label
		if label == "" {
			label = "Working..."
		}
		parts = append(parts, m.spinner.View()+" "+styles.AccentText.Render(label))
	}
	parts = append(parts,
		styles.Text.Render(fmt.Sprintf("pending %d", snap.PendingCount)),
		styles.Text.Render(fmt.Sprintf("queued %d", snap.QueuedCount)),
	)
	if snap.Debug {
		parts = append(parts, styles.InfoText.Render("debug"))
	}

	header := styles.Header
	if m.width > 0 {
		header = header.Width(m.width)
	}
	return header.Render(strings.Join(parts, "  "))
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Logo.Render("steady console"))
	b.WriteString("\n\n")
	for _, binding := range m.keys.bindings() {
		h := binding.Help()
		b.WriteString(fmt.Sprintf("  %s  %s\n", styles.AccentText.Render(fmt.Sprintf("%-3s", h.Key)), styles.Text.Render(h.Desc)))
	}
	if m.logFile != "" {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("log: " + m.logFile))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("press any key to close"))
	return b.String()
}

func formatAge(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(100 * time.Millisecond).String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
