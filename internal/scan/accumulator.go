package scan

import (
	"qrquad/internal/utils"
)

// SlotCount is the number of distinct codes a capture needs.
const SlotCount = 4

var (
	// ErrClosed is returned for values offered after completion or cancellation.
	ErrClosed = utils.New(utils.KindClosed, "capture session is closed")
	// ErrEmptyValue is returned for an empty decoded value.
	ErrEmptyValue = utils.New(utils.KindInvalid, "empty barcode value")
)

// Accumulator assigns the first SlotCount distinct values to slots 1..SlotCount
// in arrival order. It is not safe for concurrent use; Session serializes access.
type Accumulator struct {
	slots [SlotCount]string
	seen  map[string]int
	count int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{seen: make(map[string]int, SlotCount)}
}

// Offer records value and reports what happened.
func (a *Accumulator) Offer(value string) (Event, error) {
	if a.Complete() {
		return Event{}, ErrClosed
	}
	if value == "" {
		return Event{Kind: EventRejected, Count: a.count}, ErrEmptyValue
	}
	if slot, ok := a.seen[value]; ok {
		return Event{Kind: EventDuplicate, Value: value, Slot: slot, Count: a.count}, nil
	}

	a.slots[a.count] = value
	a.count++
	a.seen[value] = a.count

	ev := Event{Kind: EventProgress, Value: value, Slot: a.count, Count: a.count}
	if a.Complete() {
		ev.Kind = EventComplete
		ev.Slots = a.slots
	}
	return ev, nil
}

// Count is the number of filled slots.
func (a *Accumulator) Count() int { return a.count }

// Complete reports whether every slot is filled.
func (a *Accumulator) Complete() bool { return a.count == SlotCount }

// Slots returns a copy of the slots; unfilled slots are empty.
func (a *Accumulator) Slots() [SlotCount]string { return a.slots }
