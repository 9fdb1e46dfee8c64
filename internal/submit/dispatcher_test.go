package submit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubSubmitter struct {
	release chan struct{}
	err     error
	mu      sync.Mutex
	got     []Submission
}

func (s *stubSubmitter) Submit(ctx context.Context, sub Submission) error {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	s.got = append(s.got, sub)
	s.mu.Unlock()
	return s.err
}

func TestDispatchDoesNotBlock(t *testing.T) {
	stub := &stubSubmitter{release: make(chan struct{})}
	d := NewDispatcher(stub, time.Minute, nil)

	returned := make(chan struct{})
	go func() {
		d.Dispatch(sample("https://collect.example.com"))
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch blocked on the submission")
	}

	close(stub.release)
	d.Wait()
	if len(stub.got) != 1 {
		t.Fatalf("submitted %d times", len(stub.got))
	}
}

func TestDispatchRecordsOutcome(t *testing.T) {
	boom := errors.New("boom")
	stub := &stubSubmitter{err: boom}

	var (
		mu      sync.Mutex
		outcome []error
	)
	rec := RecorderFunc(func(sub Submission, err error) {
		mu.Lock()
		defer mu.Unlock()
		outcome = append(outcome, err)
	})
	d := NewDispatcher(stub, time.Minute, nil, rec)
	d.Dispatch(sample("https://collect.example.com"))
	d.Wait()

	if len(outcome) != 1 || !errors.Is(outcome[0], boom) {
		t.Fatalf("recorded %v", outcome)
	}
}

func TestDispatchTimeoutBoundsSubmission(t *testing.T) {
	stub := &stubSubmitter{release: make(chan struct{})}
	var got error
	d := NewDispatcher(stub, 50*time.Millisecond, nil, RecorderFunc(func(_ Submission, err error) { got = err }))
	d.Dispatch(sample("https://collect.example.com"))
	d.Wait()
	if !errors.Is(got, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", got)
	}
}
