package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"qrquad/internal/utils"
)

// Env is the process configuration read from the environment.
type Env struct {
	SettingsPath      string        `env:"QRQUAD_SETTINGS_PATH"`
	JournalPath       string        `env:"QRQUAD_JOURNAL_PATH"`
	JournalEncryption bool          `env:"QRQUAD_JOURNAL_ENCRYPTION" envDefault:"false"`
	MasterKeyHex      string        `env:"QRQUAD_MASTER_KEY_HEX"`
	MasterKeyFile     string        `env:"QRQUAD_MASTER_KEY_FILE" envDefault:"master.key"`
	CADir             string        `env:"QRQUAD_CA_DIR"`
	HTTPAddr          string        `env:"QRQUAD_HTTP_ADDR" envDefault:":8080"`
	IntakeToken       string        `env:"QRQUAD_INTAKE_TOKEN"`
	SubmitTimeout     time.Duration `env:"QRQUAD_SUBMIT_TIMEOUT" envDefault:"15s"`
	SessionIdle       time.Duration `env:"QRQUAD_SESSION_IDLE_TIMEOUT" envDefault:"10m"`
	LogPath           string        `env:"QRQUAD_LOG_PATH"`
	LogLevel          string        `env:"QRQUAD_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads Env from environment variables and fills empty paths under the data directory.
func ParseEnv() (Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SubmitTimeout <= 0 {
		return Env{}, fmt.Errorf("parse env: QRQUAD_SUBMIT_TIMEOUT must be positive")
	}
	if cfg.SessionIdle <= 0 {
		return Env{}, fmt.Errorf("parse env: QRQUAD_SESSION_IDLE_TIMEOUT must be positive")
	}
	dir := utils.GetDataDir()
	if cfg.SettingsPath == "" {
		cfg.SettingsPath = filepath.Join(dir, "settings.json")
	}
	if cfg.JournalPath == "" {
		cfg.JournalPath = filepath.Join(dir, "captures.json")
	}
	return cfg, nil
}
