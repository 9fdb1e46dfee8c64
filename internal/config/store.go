package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"qrquad/internal/utils"
)

// Store persists Settings in a JSON file, or YAML when the path ends in .yaml/.yml.
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore creates a Store backed by path. The file is created on first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load returns the persisted settings. Missing files and missing keys fall back to defaults.
func (s *Store) Load() (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load()
}

// SetDomainName validates and persists the destination URL.
func (s *Store) SetDomainName(v string) (Settings, error) {
	if err := ValidateDomainName(v); err != nil {
		return Settings{}, err
	}
	return s.update(func(st *Settings) { st.DomainName = v })
}

// SetCodeName validates and persists the code name.
func (s *Store) SetCodeName(v string) (Settings, error) {
	if err := ValidateCodeName(v); err != nil {
		return Settings{}, err
	}
	return s.update(func(st *Settings) { st.CodeName = v })
}

// ResetDomainName restores the factory URL.
func (s *Store) ResetDomainName() (Settings, error) {
	return s.update(func(st *Settings) { st.DomainName = DefaultDomainName })
}

// ResetCodeName restores the factory code name.
func (s *Store) ResetCodeName() (Settings, error) {
	return s.update(func(st *Settings) { st.CodeName = DefaultCodeName })
}

// Set updates a single key by name.
func (s *Store) Set(key, value string) (Settings, error) {
	switch key {
	case KeyDomainName:
		return s.SetDomainName(value)
	case KeyCodeName:
		return s.SetCodeName(value)
	default:
		return Settings{}, utils.New(utils.KindNotFound, "unknown setting "+key)
	}
}

// Reset restores a single key by name.
func (s *Store) Reset(key string) (Settings, error) {
	switch key {
	case KeyDomainName:
		return s.ResetDomainName()
	case KeyCodeName:
		return s.ResetCodeName()
	default:
		return Settings{}, utils.New(utils.KindNotFound, "unknown setting "+key)
	}
}

func (s *Store) update(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return Settings{}, err
	}
	fn(&st)
	if err := s.save(st); err != nil {
		return Settings{}, err
	}
	return st, nil
}

func (s *Store) load() (Settings, error) {
	st := Defaults()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("read settings: %w", err)
	}
	// Decode into a sparse copy so absent keys keep their defaults.
	var raw Settings
	if s.isYAML() {
		err = yaml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return st, fmt.Errorf("decode settings %s: %w", s.path, err)
	}
	if raw.DomainName != "" {
		st.DomainName = raw.DomainName
	}
	if raw.CodeName != "" {
		st.CodeName = raw.CodeName
	}
	return st, nil
}

func (s *Store) save(st Settings) error {
	var (
		data []byte
		err  error
	)
	if s.isYAML() {
		data, err = yaml.Marshal(st)
	} else {
		data, err = json.MarshalIndent(st, "", "  ")
	}
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(s.path); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.path))
	return ext == ".yaml" || ext == ".yml"
}
