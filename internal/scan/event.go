package scan

import "fmt"

type EventKind string

const (
	EventProgress  EventKind = "progress"
	EventDuplicate EventKind = "duplicate"
	EventRejected  EventKind = "rejected"
	EventComplete  EventKind = "complete"
	EventCancelled EventKind = "cancelled"
)

// Event describes the effect of one decoded value, or the end of a session.
type Event struct {
	Kind  EventKind
	Value string
	// Slot is the 1-based slot of Value: newly assigned for progress and
	// complete, previously assigned for duplicate.
	Slot  int
	Count int
	Slots [SlotCount]string
}

// Message is the short user-facing notice for the event.
func (e Event) Message() string {
	switch e.Kind {
	case EventProgress, EventComplete:
		return fmt.Sprintf("QR%d Captured!", e.Count)
	case EventDuplicate:
		return "QR code already scanned"
	case EventRejected:
		return "Empty barcode ignored"
	case EventCancelled:
		return "Capture cancelled"
	default:
		return ""
	}
}

// Observer receives session events in the order they happen.
type Observer interface {
	Observe(sessionID string, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(sessionID string, ev Event)

func (f ObserverFunc) Observe(sessionID string, ev Event) { f(sessionID, ev) }
