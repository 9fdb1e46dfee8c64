package app

import (
	"fmt"
	"log/slog"

	"qrquad/internal/certs"
	"qrquad/internal/config"
	"qrquad/internal/crypto"
	"qrquad/internal/files"
	"qrquad/internal/metrics"
	"qrquad/internal/submit"
)

// Runtime is the set of long-lived components both binaries share.
type Runtime struct {
	Env        config.Env
	Settings   *config.Store
	Journal    *files.CaptureStore
	Metrics    *metrics.Metrics
	Dispatcher *submit.Dispatcher
}

// New wires settings, journal, submission client and dispatcher from env.
func New(env config.Env, logger *slog.Logger) (*Runtime, error) {
	var sealer files.Sealer
	if env.JournalEncryption {
		master, err := crypto.ReadMasterKey(env.MasterKeyHex, env.MasterKeyFile)
		if err != nil {
			return nil, fmt.Errorf("journal encryption: %w", err)
		}
		s, err := crypto.NewJournalSealer(master)
		if err != nil {
			return nil, fmt.Errorf("journal encryption: %w", err)
		}
		sealer = s
	}

	clientOpts := []submit.Option{
		submit.WithTimeout(env.SubmitTimeout),
		submit.WithLogger(logger),
	}
	if env.CADir != "" {
		pool, err := certs.NewCertManager(env.CADir, logger).CertPool()
		if err != nil {
			return nil, fmt.Errorf("load certificates from %s: %w", env.CADir, err)
		}
		clientOpts = append(clientOpts, submit.WithRootCAs(pool))
	}

	m := metrics.New()
	journal := files.NewCaptureStore(env.JournalPath, sealer, logger)
	client := submit.NewClient(clientOpts...)
	dispatcher := submit.NewDispatcher(m.InstrumentSubmitter(client), 2*env.SubmitTimeout, logger, journal)

	return &Runtime{
		Env:        env,
		Settings:   config.NewStore(env.SettingsPath),
		Journal:    journal,
		Metrics:    m,
		Dispatcher: dispatcher,
	}, nil
}
