package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"qrquad/internal/utils"
)

func writeCert(t *testing.T, path, cn string, notAfter time.Time) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             notAfter.Add(-48 * time.Hour),
		NotAfter:              notAfter,
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadCertificates(t *testing.T) {
	dir := t.TempDir()
	writeCert(t, filepath.Join(dir, "intake.pem"), "intake-ca", time.Now().Add(24*time.Hour))
	writeCert(t, filepath.Join(dir, "old.crt"), "old-ca", time.Now().Add(-time.Hour))
	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("not a cert"), 0600); err != nil {
		t.Fatal(err)
	}

	cm := NewCertManager(dir, utils.Discard())
	certs, err := cm.LoadCertificates()
	if err != nil {
		t.Fatal(err)
	}
	if len(certs) != 2 {
		t.Fatalf("loaded %d certificates", len(certs))
	}
	expired := 0
	for _, c := range certs {
		if cm.IsExpired(c) {
			expired++
			if c.Subject.CommonName != "old-ca" {
				t.Fatalf("wrong certificate flagged expired: %s", c.Subject.CommonName)
			}
		}
	}
	if expired != 1 {
		t.Fatalf("expired = %d", expired)
	}
	if _, err := cm.CertPool(); err != nil {
		t.Fatalf("CertPool: %v", err)
	}
}

func TestLoadCertificatesBadPEM(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.pem"), []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewCertManager(dir, utils.Discard()).LoadCertificates(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCertPoolNilLoggerSkipsExpired(t *testing.T) {
	dir := t.TempDir()
	writeCert(t, filepath.Join(dir, "old.crt"), "old-ca", time.Now().Add(-time.Hour))

	pool, err := NewCertManager(dir, nil).CertPool()
	if err != nil {
		t.Fatalf("CertPool: %v", err)
	}
	if pool == nil {
		t.Fatal("expected a pool")
	}
}
