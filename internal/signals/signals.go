// Package signals routes environment edge events (connectivity, visibility,
// focus, lifecycle) to exactly one handler per logical transition.
package signals

import (
	"fmt"
	"strings"
	"sync"
)

// Kind is a logical transition.
type Kind int

const (
	Online Kind = iota
	Offline
	Visible
	Hidden
	Focus
	Blur
	PageShow
	PageHide
	AppSwitch
)

var kindNames = map[Kind]string{
	Online:    "online",
	Offline:   "offline",
	Visible:   "visible",
	Hidden:    "hidden",
	Focus:     "focus",
	Blur:      "blur",
	PageShow:  "pageshow",
	PageHide:  "pagehide",
	AppSwitch: "app-switch",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Parse maps a transition name back to its Kind.
func Parse(name string) (Kind, error) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == trimmed {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown signal %q", name)
}

// Handler reacts to one transition.
type Handler func()

// Table holds one handler per Kind.
type Table struct {
	mu       sync.RWMutex
	handlers map[Kind]Handler
}

// NewTable builds an empty Table.
func NewTable() *Table {
	return &Table{handlers: make(map[Kind]Handler)}
}

// Handle installs h for k, replacing any previous handler.
func (t *Table) Handle(k Kind, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h == nil {
		delete(t.handlers, k)
		return
	}
	t.handlers[k] = h
}

// Dispatch runs the handler for k, if any, and reports whether one ran.
func (t *Table) Dispatch(k Kind) bool {
	t.mu.RLock()
	h, ok := t.handlers[k]
	t.mu.RUnlock()
	if !ok {
		return false
	}
	h()
	return true
}
