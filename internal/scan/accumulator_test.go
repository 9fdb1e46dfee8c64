package scan

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

// TestAccumulatorExampleSequence checks ["A","B","A","C","D"].
func TestAccumulatorExampleSequence(t *testing.T) {
	acc := NewAccumulator()
	want := []EventKind{EventProgress, EventProgress, EventDuplicate, EventProgress, EventComplete}
	var last Event
	for i, v := range []string{"A", "B", "A", "C", "D"} {
		ev, err := acc.Offer(v)
		if err != nil {
			t.Fatalf("Offer(%q): %v", v, err)
		}
		if ev.Kind != want[i] {
			t.Fatalf("Offer(%q) kind = %s, want %s", v, ev.Kind, want[i])
		}
		last = ev
	}
	if got := last.Slots; got != [SlotCount]string{"A", "B", "C", "D"} {
		t.Fatalf("slots = %v", got)
	}
	if last.Count != 4 || last.Slot != 4 {
		t.Fatalf("complete event count=%d slot=%d", last.Count, last.Slot)
	}
}

func TestAccumulatorDuplicateDoesNotAdvance(t *testing.T) {
	acc := NewAccumulator()
	if _, err := acc.Offer("X"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		ev, err := acc.Offer("X")
		if err != nil {
			t.Fatal(err)
		}
		if ev.Kind != EventDuplicate || ev.Slot != 1 || ev.Count != 1 {
			t.Fatalf("unexpected duplicate event %+v", ev)
		}
	}
	if acc.Count() != 1 {
		t.Fatalf("count = %d, want 1", acc.Count())
	}
}

func TestAccumulatorClosedAfterComplete(t *testing.T) {
	acc := NewAccumulator()
	for _, v := range []string{"1", "2", "3", "4"} {
		if _, err := acc.Offer(v); err != nil {
			t.Fatal(err)
		}
	}
	if !acc.Complete() {
		t.Fatal("expected complete")
	}
	if _, err := acc.Offer("5"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := acc.Offer("1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed for repeat after completion, got %v", err)
	}
}

func TestAccumulatorRejectsEmpty(t *testing.T) {
	acc := NewAccumulator()
	ev, err := acc.Offer("")
	if !errors.Is(err, ErrEmptyValue) {
		t.Fatalf("expected ErrEmptyValue, got %v", err)
	}
	if ev.Kind != EventRejected || acc.Count() != 0 {
		t.Fatalf("empty value advanced the accumulator: %+v", ev)
	}
}

// TestAccumulatorFirstSeenOrder interleaves random duplicates between four distinct values.
func TestAccumulatorFirstSeenOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		distinct := make([]string, SlotCount)
		for i := range distinct {
			distinct[i] = fmt.Sprintf("code-%d-%d", trial, rng.Intn(1_000_000)*SlotCount+i)
		}

		acc := NewAccumulator()
		duplicates, completes := 0, 0
		for i, v := range distinct {
			for j := rng.Intn(4); j > 0 && i > 0; j-- {
				ev, err := acc.Offer(distinct[rng.Intn(i)])
				if err != nil {
					t.Fatal(err)
				}
				if ev.Kind != EventDuplicate {
					t.Fatalf("trial %d: expected duplicate, got %s", trial, ev.Kind)
				}
				duplicates++
			}
			ev, err := acc.Offer(v)
			if err != nil {
				t.Fatal(err)
			}
			if ev.Slot != i+1 {
				t.Fatalf("trial %d: %q got slot %d, want %d", trial, v, ev.Slot, i+1)
			}
			if ev.Kind == EventComplete {
				completes++
			}
		}
		if completes != 1 {
			t.Fatalf("trial %d: %d completions", trial, completes)
		}
		if got := acc.Slots(); got != [SlotCount]string(distinct) {
			t.Fatalf("trial %d: slots %v, want %v", trial, got, distinct)
		}
		if acc.Count() != SlotCount {
			t.Fatalf("trial %d: duplicates (%d) advanced the count to %d", trial, duplicates, acc.Count())
		}
	}
}
