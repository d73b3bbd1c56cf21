package ui

import (
	"sort"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/steady/internal/transport"
)

const notificationHistory = 50

// Notification is one message shown by the console.
type Notification struct {
	Message  string
	Severity transport.Severity
	At       time.Time
}

// ElementBusy is a decorated element.
type ElementBusy struct {
	Ref   string
	Label string
}

// Sink collects presentation updates from the coordinator. Writers never
// block: state lives behind a mutex and a one-slot channel wakes the console.
type Sink struct {
	mu       sync.Mutex
	busy     bool
	label    string
	elements map[string]string
	notes    []Notification
	dirty    chan struct{}
	now      func() time.Time
}

// NewSink builds an empty Sink.
func NewSink() *Sink {
	return &Sink{
		elements: make(map[string]string),
		dirty:    make(chan struct{}, 1),
		now:      time.Now,
	}
}

// SetGlobalBusy records the global indicator state.
func (s *Sink) SetGlobalBusy(busy bool, label string) {
	s.mu.Lock()
	s.busy = busy
	s.label = label
	s.mu.Unlock()
	s.wake()
}

// SetElementBusy records the decoration of one element.
func (s *Sink) SetElementBusy(ref string, busy bool, label string) {
	s.mu.Lock()
	if busy {
		s.elements[ref] = label
	} else {
		delete(s.elements, ref)
	}
	s.mu.Unlock()
	s.wake()
}

// Notify appends a notification, keeping a bounded history.
func (s *Sink) Notify(message string, severity transport.Severity) {
	s.mu.Lock()
	s.notes = append(s.notes, Notification{Message: message, Severity: severity, At: s.now()})
	if over := len(s.notes) - notificationHistory; over > 0 {
		s.notes = append([]Notification(nil), s.notes[over:]...)
	}
	s.mu.Unlock()
	s.wake()
}

func (s *Sink) wake() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// sinkView is a copy of the sink state for rendering.
type sinkView struct {
	Busy     bool
	Label    string
	Elements []ElementBusy
	Notes    []Notification
}

func (s *Sink) view() sinkView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := sinkView{
		Busy:  s.busy,
		Label: s.label,
		Notes: append([]Notification(nil), s.notes...),
	}
	for ref, label := range s.elements {
		v.Elements = append(v.Elements, ElementBusy{Ref: ref, Label: label})
	}
	sort.Slice(v.Elements, func(i, j int) bool { return v.Elements[i].Ref < v.Elements[j].Ref })
	return v
}

type sinkMsg struct{}

// waitForSink blocks until the sink changes.
func waitForSink(s *Sink) tea.Cmd {
	return func() tea.Msg {
		<-s.dirty
		return sinkMsg{}
	}
}
