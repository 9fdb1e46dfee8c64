package scan

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"qrquad/internal/config"
	"qrquad/internal/submit"
	"qrquad/internal/utils"
)

var (
	// ErrNotConfigured means the URL or code name is still at its factory default.
	ErrNotConfigured = utils.New(utils.KindNotConfigured, "capture settings are still at factory defaults")
	// ErrPermissionDenied means the input source refused access.
	ErrPermissionDenied = &utils.CustomError{Kind: utils.KindPermissionDenied}
)

// Dispatcher takes ownership of a completed capture. Dispatch must not block.
type Dispatcher interface {
	Dispatch(sub submit.Submission)
}

type sessionOptions struct {
	permission func() error
	observers  []Observer
}

// Option configures a Session.
type Option func(*sessionOptions)

// WithPermission installs a check run before the session starts. A non-nil
// error aborts the start with ErrPermissionDenied.
func WithPermission(check func() error) Option {
	return func(o *sessionOptions) { o.permission = check }
}

// WithObserver adds an observer for session events. Observers run outside the
// session lock, in event order, and may call back into the session.
func WithObserver(obs Observer) Option {
	return func(o *sessionOptions) { o.observers = append(o.observers, obs) }
}

// Session is one capture: it collects four distinct codes and submits them once.
type Session struct {
	id         string
	settings   config.Settings
	dispatcher Dispatcher
	observers  []Observer

	mu         sync.Mutex
	acc        *Accumulator
	closed     bool
	done       chan struct{}
	pending    []Event
	delivering bool
}

// NewSession starts a capture session. It fails before accepting any scan when
// settings are at their defaults or the permission check refuses.
func NewSession(settings config.Settings, d Dispatcher, opts ...Option) (*Session, error) {
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	if settings.IsDefault() {
		return nil, ErrNotConfigured
	}
	if o.permission != nil {
		if err := o.permission(); err != nil {
			return nil, utils.Wrap(utils.KindPermissionDenied, "input source unavailable", err)
		}
	}
	return &Session{
		id:         uuid.NewString(),
		settings:   settings,
		dispatcher: d,
		observers:  o.observers,
		acc:        NewAccumulator(),
		done:       make(chan struct{}),
	}, nil
}

func (s *Session) ID() string { return s.id }

// Done is closed once the session has completed or been cancelled.
func (s *Session) Done() <-chan struct{} { return s.done }

// Count returns the number of filled slots.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc.Count()
}

// Offer processes one decoded value. Calls are serialized; on the value that
// fills the last slot the capture is dispatched exactly once and the session closes.
func (s *Session) Offer(value string) (Event, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Event{}, ErrClosed
	}

	ev, err := s.acc.Offer(value)
	if err != nil && ev.Kind == "" {
		s.mu.Unlock()
		return ev, err
	}
	if ev.Kind == EventComplete {
		s.dispatcher.Dispatch(submit.Submission{
			URL:   s.settings.DomainName,
			Team:  s.settings.CodeName,
			Codes: ev.Slots,
		})
		s.closeLocked()
	}
	s.pending = append(s.pending, ev)
	s.mu.Unlock()

	s.flush()
	return ev, err
}

// Consume feeds values to Offer one at a time until the session completes,
// values is closed (which cancels the session) or ctx is done.
func (s *Session) Consume(ctx context.Context, values <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			s.Cancel()
			return ctx.Err()
		case <-s.done:
			return nil
		case v, ok := <-values:
			if !ok {
				s.Cancel()
				return nil
			}
			if _, err := s.Offer(v); err != nil && utils.KindOf(err) == utils.KindClosed {
				return nil
			}
		}
	}
}

// Cancel ends the session without submitting. It reports whether this call closed it.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.closeLocked()
	s.pending = append(s.pending, Event{Kind: EventCancelled, Count: s.acc.Count(), Slots: s.acc.Slots()})
	s.mu.Unlock()

	s.flush()
	return true
}

func (s *Session) closeLocked() {
	s.closed = true
	close(s.done)
}

// flush delivers queued events to observers without holding s.mu. Only one
// goroutine delivers at a time; events queued meanwhile, including ones raised
// by an observer, are picked up by that goroutine so order is kept.
func (s *Session) flush() {
	s.mu.Lock()
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	for len(s.pending) > 0 {
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()
		for _, ev := range batch {
			for _, o := range s.observers {
				o.Observe(s.id, ev)
			}
		}
		s.mu.Lock()
	}
	s.delivering = false
	s.mu.Unlock()
}
