package scan

import "sync"

// EventType distinguishes progress event kinds.
type EventType string

const (
	EventStatus EventType = "status"
	EventFile   EventType = "file"
)

// Event is one progress update emitted while a scan runs.
type Event struct {
	ScanID  string    `json:"scan_id"`
	Type    EventType `json:"type"`
	Status  Status    `json:"status,omitempty"`
	Path    string    `json:"path,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Notifier fans scan progress events out to subscribers. Slow subscribers
// drop events rather than stall the pipeline.
type Notifier struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]bool
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[chan Event]bool)}
}

// Subscribe returns a channel of events for one scan plus a cancel
// function the caller must invoke when done.
func (n *Notifier) Subscribe(scanID string) (<-chan Event, func()) {
	ch := make(chan Event, 64)

	n.mu.Lock()
	if n.subs[scanID] == nil {
		n.subs[scanID] = make(map[chan Event]bool)
	}
	n.subs[scanID][ch] = true
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		if set := n.subs[scanID]; set != nil {
			delete(set, ch)
			if len(set) == 0 {
				delete(n.subs, scanID)
			}
		}
		n.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of its scan.
func (n *Notifier) Publish(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs[ev.ScanID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
