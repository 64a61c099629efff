// Package progress carries run progress from the evaluation runners to
// whoever renders it.
package progress

import "sync"

// Listener receives progress updates.
type Listener func(event Event)

// EventType represents the type of progress event
type EventType string

const (
	EventRunStart     EventType = "run_start"
	EventRunComplete  EventType = "run_complete"
	EventCaseStart    EventType = "case_start"
	EventCaseComplete EventType = "case_complete"
	EventCaseFailed   EventType = "case_failed"
)

// Event is one progress update. Num is 1-based.
type Event struct {
	Type    EventType
	Run     string
	CaseID  string
	Num     int
	Total   int
	Details map[string]any
}

// Notifier fans events out to registered listeners. The zero value is
// ready to use.
type Notifier struct {
	mu        sync.Mutex
	listeners []Listener
}

// OnProgress registers a progress listener
func (n *Notifier) OnProgress(listener Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, listener)
}

// Notify delivers event to every listener. Listeners are called outside the
// lock so they may register further listeners.
func (n *Notifier) Notify(event Event) {
	n.mu.Lock()
	listeners := make([]Listener, len(n.listeners))
	copy(listeners, n.listeners)
	n.mu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}
