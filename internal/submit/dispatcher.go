package submit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"qrquad/internal/utils"
)

// Recorder is told about every finished submission. err is nil on success.
type Recorder interface {
	Record(sub Submission, err error)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(sub Submission, err error)

func (f RecorderFunc) Record(sub Submission, err error) { f(sub, err) }

// Dispatcher runs submissions in the background. The outcome never flows back
// to the caller; it is logged and handed to the recorders.
type Dispatcher struct {
	submitter Submitter
	timeout   time.Duration
	logger    *slog.Logger
	recorders []Recorder
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. timeout bounds each submission end to end.
func NewDispatcher(s Submitter, timeout time.Duration, logger *slog.Logger, recorders ...Recorder) *Dispatcher {
	if logger == nil {
		logger = utils.Discard()
	}
	if timeout <= 0 {
		timeout = 2 * DefaultTimeout
	}
	return &Dispatcher{submitter: s, timeout: timeout, logger: logger, recorders: recorders}
}

// Dispatch starts sub on its own goroutine and returns immediately.
func (d *Dispatcher) Dispatch(sub Submission) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		start := time.Now()
		err := d.submitter.Submit(ctx, sub)
		if err != nil {
			d.logger.Error("submission failed", "team", sub.Team, "err", err, "elapsed", time.Since(start))
		} else {
			d.logger.Info("submission sent", "team", sub.Team, "elapsed", time.Since(start))
		}
		for _, r := range d.recorders {
			r.Record(sub, err)
		}
	}()
}

// Wait blocks until every dispatched submission has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
