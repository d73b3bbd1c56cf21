package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the console bindings.
type keyMap struct {
	Quit         key.Binding
	Help         key.Binding
	CycleTheme   key.Binding
	ToggleOnline key.Binding
	ToggleHidden key.Binding
	Focus        key.Binding
	Fetch        key.Binding
	Submit       key.Binding
	DoubleSubmit key.Binding
	ForceClear   key.Binding
	TogglePanel  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		ToggleOnline: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Go offline / online"),
		),
		ToggleHidden: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "Hide / show (visibility signal)"),
		),
		Focus: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "Send focus signal"),
		),
		Fetch: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Fetch orders"),
		),
		Submit: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Submit order form"),
		),
		DoubleSubmit: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Double-submit order form"),
		),
		ForceClear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Force-clear stuck state"),
		),
		TogglePanel: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Toggle pending panel"),
		),
	}
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{
		k.ToggleOnline, k.ToggleHidden, k.Focus, k.Fetch, k.Submit,
		k.DoubleSubmit, k.ForceClear, k.TogglePanel, k.CycleTheme, k.Help, k.Quit,
	}
}
