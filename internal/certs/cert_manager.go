package certs

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"qrquad/internal/utils"
)

// CertManager loads extra trust roots for the submission client from a directory.
type CertManager struct {
	certDir string
	logger  *slog.Logger
	now     func() time.Time
}

// NewCertManager creates a new CertManager for the given directory.
func NewCertManager(certDir string, logger *slog.Logger) *CertManager {
	if logger == nil {
		logger = utils.Discard()
	}
	return &CertManager{certDir: certDir, logger: logger, now: time.Now}
}

// LoadCertificates loads every certificate from .crt and .pem files in the cert directory.
// A file may hold several PEM blocks; non-certificate blocks are ignored.
func (cm *CertManager) LoadCertificates() ([]*x509.Certificate, error) {
	var certs []*x509.Certificate

	err := filepath.WalkDir(cm.certDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if !strings.HasSuffix(name, ".crt") && !strings.HasSuffix(name, ".pem") {
			return nil
		}
		loaded, err := cm.loadFile(path)
		if err != nil {
			return err
		}
		certs = append(certs, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return certs, nil
}

func (cm *CertManager) loadFile(path string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		out = append(out, cert)
	}
	if len(out) == 0 {
		return nil, errors.New("failed to parse certificate PEM: " + path)
	}
	return out, nil
}

// IsExpired checks if a certificate is expired.
func (cm *CertManager) IsExpired(cert *x509.Certificate) bool {
	return cert.NotAfter.Before(cm.now())
}

// CertPool returns the system roots plus every unexpired certificate in the directory.
func (cm *CertManager) CertPool() (*x509.CertPool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	certs, err := cm.LoadCertificates()
	if err != nil {
		return nil, err
	}
	for _, c := range certs {
		if cm.IsExpired(c) {
			cm.logger.Warn("skipping expired certificate", "subject", c.Subject.String(), "not_after", c.NotAfter)
			continue
		}
		pool.AddCert(c)
	}
	return pool, nil
}
