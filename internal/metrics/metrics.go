package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qrquad/internal/scan"
	"qrquad/internal/submit"
	"qrquad/internal/utils"
)

// Metrics holds the capture and submission instruments.
type Metrics struct {
	gatherer prometheus.Gatherer

	Scans              *prometheus.CounterVec
	Sessions           *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	SubmissionDuration prometheus.Histogram
}

// New registers the instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		Scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qrquad_scans_total",
			Help: "Decoded values offered to capture sessions, by result.",
		}, []string{"result"}),
		Sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qrquad_sessions_total",
			Help: "Capture session lifecycle outcomes.",
		}, []string{"result"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qrquad_submissions_total",
			Help: "Submission attempts, by outcome.",
		}, []string{"outcome"}),
		SubmissionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "qrquad_submission_duration_seconds",
			Help:    "Time spent posting a capture.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}),
	}
	reg.MustRegister(m.Scans, m.Sessions, m.Submissions, m.SubmissionDuration)
	return m
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Observe implements scan.Observer.
func (m *Metrics) Observe(_ string, ev scan.Event) {
	switch ev.Kind {
	case scan.EventProgress:
		m.Scans.WithLabelValues("accepted").Inc()
	case scan.EventComplete:
		m.Scans.WithLabelValues("accepted").Inc()
		m.Sessions.WithLabelValues("completed").Inc()
	case scan.EventDuplicate:
		m.Scans.WithLabelValues("duplicate").Inc()
	case scan.EventRejected:
		m.Scans.WithLabelValues("rejected").Inc()
	case scan.EventCancelled:
		m.Sessions.WithLabelValues("cancelled").Inc()
	}
}

// SessionStart counts the result of a session start attempt.
func (m *Metrics) SessionStart(err error) {
	switch {
	case err == nil:
		m.Sessions.WithLabelValues("started").Inc()
	case errors.Is(err, scan.ErrNotConfigured):
		m.Sessions.WithLabelValues("not_configured").Inc()
	case utils.KindOf(err) == utils.KindPermissionDenied:
		m.Sessions.WithLabelValues("permission_denied").Inc()
	}
}

// InstrumentSubmitter times s and counts its outcomes.
func (m *Metrics) InstrumentSubmitter(s submit.Submitter) submit.Submitter {
	return instrumented{next: s, m: m}
}

type instrumented struct {
	next submit.Submitter
	m    *Metrics
}

func (i instrumented) Submit(ctx context.Context, sub submit.Submission) error {
	start := time.Now()
	err := i.next.Submit(ctx, sub)
	i.m.SubmissionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		i.m.Submissions.WithLabelValues("failure").Inc()
	} else {
		i.m.Submissions.WithLabelValues("success").Inc()
	}
	return err
}
