package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"qrquad/internal/config"
	"qrquad/internal/files"
	"qrquad/internal/metrics"
	"qrquad/internal/scan"
	"qrquad/internal/utils"
)

// TokenHeader carries the intake token when one is configured.
const TokenHeader = "X-Intake-Token"

// DefaultIdleTimeout cancels sessions that receive no scan for this long.
const DefaultIdleTimeout = 10 * time.Minute

// Server holds the live capture sessions fed by scanner devices.
type Server struct {
	settings    *config.Store
	dispatcher  scan.Dispatcher
	journal     *files.CaptureStore
	metrics     *metrics.Metrics
	logger      *slog.Logger
	intakeToken string
	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*liveSession
}

type liveSession struct {
	sess  *scan.Session
	touch chan struct{}
}

type Deps struct {
	Settings    *config.Store
	Dispatcher  scan.Dispatcher
	Journal     *files.CaptureStore
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	IntakeToken string
	IdleTimeout time.Duration
}

func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = utils.Discard()
	}
	if d.IdleTimeout <= 0 {
		d.IdleTimeout = DefaultIdleTimeout
	}
	return &Server{
		settings:    d.Settings,
		dispatcher:  d.Dispatcher,
		journal:     d.Journal,
		metrics:     d.Metrics,
		logger:      d.Logger,
		intakeToken: d.IntakeToken,
		idleTimeout: d.IdleTimeout,
		sessions:    make(map[string]*liveSession),
	}
}

// ActiveSessions returns the number of open sessions.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CancelAll cancels every open session. Used on shutdown.
func (s *Server) CancelAll() {
	s.mu.Lock()
	open := make([]*scan.Session, 0, len(s.sessions))
	for _, ls := range s.sessions {
		open = append(open, ls.sess)
	}
	s.mu.Unlock()
	for _, sess := range open {
		sess.Cancel()
	}
}

type settingsResponse struct {
	DomainName string `json:"domain_name"`
	CodeName   string `json:"code_name"`
	Configured bool   `json:"configured"`
}

func newSettingsResponse(st config.Settings) settingsResponse {
	return settingsResponse{DomainName: st.DomainName, CodeName: st.CodeName, Configured: !st.IsDefault()}
}

// GetSettingsHandler returns the current routing settings
func (s *Server) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := s.settings.Load()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettingsResponse(st))
}

// UpdateSettingHandler validates and stores one setting
func (s *Server) UpdateSettingHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, utils.Wrap(utils.KindInvalid, "invalid request body", err))
		return
	}
	st, err := s.settings.Set(mux.Vars(r)["key"], req.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettingsResponse(st))
}

// ResetSettingHandler restores one setting to its factory default
func (s *Server) ResetSettingHandler(w http.ResponseWriter, r *http.Request) {
	st, err := s.settings.Reset(mux.Vars(r)["key"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettingsResponse(st))
}

// StartSessionHandler opens a capture session for a scanner device
func (s *Server) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	st, err := s.settings.Load()
	if err != nil {
		s.writeError(w, err)
		return
	}
	token := r.Header.Get(TokenHeader)
	opts := []scan.Option{
		scan.WithPermission(func() error { return s.checkToken(token) }),
		scan.WithObserver(scan.ObserverFunc(s.observe)),
	}
	if s.metrics != nil {
		opts = append(opts, scan.WithObserver(s.metrics))
	}
	sess, err := scan.NewSession(st, s.dispatcher, opts...)
	if s.metrics != nil {
		s.metrics.SessionStart(err)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	ls := &liveSession{sess: sess, touch: make(chan struct{}, 1)}
	s.mu.Lock()
	s.sessions[sess.ID()] = ls
	s.mu.Unlock()
	go s.reap(ls)

	s.logger.Info("capture session started", "session", sess.ID(), "team", st.CodeName)
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": sess.ID()})
}

type scanResponse struct {
	Event   scan.EventKind `json:"event"`
	Count   int            `json:"count"`
	Slot    int            `json:"slot,omitempty"`
	Message string         `json:"message"`
}

// ScanHandler feeds one decoded value into a session
func (s *Server) ScanHandler(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(mux.Vars(r)["id"])
	if !ok {
		s.writeError(w, utils.New(utils.KindNotFound, "unknown session"))
		return
	}
	select {
	case ls.touch <- struct{}{}:
	default:
	}
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, utils.Wrap(utils.KindInvalid, "invalid request body", err))
		return
	}
	ev, err := ls.sess.Offer(req.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scanResponse{Event: ev.Kind, Count: ev.Count, Slot: ev.Slot, Message: ev.Message()})
}

// CancelSessionHandler ends a session without submitting
func (s *Server) CancelSessionHandler(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(mux.Vars(r)["id"])
	if !ok {
		s.writeError(w, utils.New(utils.KindNotFound, "unknown session"))
		return
	}
	ls.sess.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// ListCapturesHandler returns the capture journal
func (s *Server) ListCapturesHandler(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeJSON(w, http.StatusOK, []files.Capture{})
		return
	}
	captures, err := s.journal.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if captures == nil {
		captures = []files.Capture{}
	}
	writeJSON(w, http.StatusOK, captures)
}

func (s *Server) checkToken(got string) error {
	if s.intakeToken == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.intakeToken)) != 1 {
		return errors.New("intake token rejected")
	}
	return nil
}

func (s *Server) observe(id string, ev scan.Event) {
	s.logger.Debug("scan event", "session", id, "event", ev.Kind, "count", ev.Count)
}

func (s *Server) lookup(id string) (*liveSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.sessions[id]
	return ls, ok
}

// reap forgets a session once it is done, cancelling it first if no scan
// arrives within the idle timeout.
func (s *Server) reap(ls *liveSession) {
	timer := time.NewTimer(s.idleTimeout)
	defer timer.Stop()
wait:
	for {
		select {
		case <-ls.sess.Done():
			break wait
		case <-ls.touch:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.idleTimeout)
		case <-timer.C:
			if ls.sess.Cancel() {
				s.logger.Info("capture session idle, cancelled", "session", ls.sess.ID(), "idle", s.idleTimeout)
			}
			break wait
		}
	}
	s.mu.Lock()
	delete(s.sessions, ls.sess.ID())
	s.mu.Unlock()
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := utils.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case utils.KindInvalid:
		status = http.StatusBadRequest
	case utils.KindNotConfigured:
		status = http.StatusPreconditionFailed
	case utils.KindPermissionDenied:
		status = http.StatusForbidden
	case utils.KindNotFound:
		status = http.StatusNotFound
	case utils.KindClosed:
		status = http.StatusConflict
	default:
		kind = "internal"
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": string(kind), "message": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
