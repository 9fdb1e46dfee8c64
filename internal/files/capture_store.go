package files

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"qrquad/internal/submit"
	"qrquad/internal/utils"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Capture is one journaled submission.
type Capture struct {
	ID        string    `json:"id"`
	Team      string    `json:"team"`
	Codes     [4]string `json:"codes"`
	URL       string    `json:"url"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Sealer encrypts the journal at rest.
type Sealer interface {
	Seal(plain []byte) ([]byte, error)
	Open(blob []byte) ([]byte, error)
}

// CaptureStore is an append-only journal of captures kept in a single file.
type CaptureStore struct {
	filePath string
	sealer   Sealer
	logger   *slog.Logger
	mu       sync.RWMutex
	now      func() time.Time
}

// NewCaptureStore creates a journal at filePath. sealer may be nil for a plain JSON file.
func NewCaptureStore(filePath string, sealer Sealer, logger *slog.Logger) *CaptureStore {
	if logger == nil {
		logger = utils.Discard()
	}
	return &CaptureStore{filePath: filePath, sealer: sealer, logger: logger, now: time.Now}
}

// Record implements submit.Recorder. Journal write errors are logged, not returned.
func (s *CaptureStore) Record(sub submit.Submission, err error) {
	c := &Capture{Team: sub.Team, Codes: sub.Codes, URL: sub.URL, Outcome: OutcomeSuccess}
	if err != nil {
		c.Outcome = OutcomeFailure
		c.Error = err.Error()
	}
	if saveErr := s.Save(c); saveErr != nil {
		s.logger.Error("journal write failed", "path", s.filePath, "err", saveErr)
	}
}

// Save appends a capture, assigning its ID and timestamp.
func (s *CaptureStore) Save(c *Capture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	captures, err := s.read()
	if err != nil {
		return err
	}
	c.ID = uuid.NewString()
	c.CreatedAt = s.now().UTC()
	captures = append(captures, *c)
	return s.write(captures)
}

// List returns every capture, oldest first. A missing journal is empty.
func (s *CaptureStore) List() ([]Capture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read()
}

// Clear removes the journal file.
func (s *CaptureStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *CaptureStore) read() ([]Capture, error) {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.sealer != nil {
		if data, err = s.sealer.Open(data); err != nil {
			return nil, fmt.Errorf("decrypt journal: %w", err)
		}
	}
	var captures []Capture
	if err := json.Unmarshal(data, &captures); err != nil {
		return nil, fmt.Errorf("decode journal: %w", err)
	}
	return captures, nil
}

func (s *CaptureStore) write(captures []Capture) error {
	data, err := json.MarshalIndent(captures, "", "  ")
	if err != nil {
		return err
	}
	if s.sealer != nil {
		if data, err = s.sealer.Seal(data); err != nil {
			return fmt.Errorf("encrypt journal: %w", err)
		}
	}
	if err := utils.EnsureDir(s.filePath); err != nil {
		return err
	}
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}
