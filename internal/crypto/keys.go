package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// MasterKeySize is the length of the raw master key in bytes.
const MasterKeySize = 32

// InfoJournal is the HKDF info string for the capture journal key.
const InfoJournal = "qrquad-capture-journal"

// ErrInvalidKeyLength is returned when the provided key length is invalid.
var ErrInvalidKeyLength = errors.New("invalid key length")

// ReadMasterKey decodes a hex master key from hexKey, falling back to the contents of keyFile.
func ReadMasterKey(hexKey, keyFile string) ([]byte, error) {
	h := hexKey
	if h == "" {
		if keyFile == "" {
			return nil, fmt.Errorf("master key not set and no key file configured")
		}
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("master key not set and %s not readable: %w", keyFile, err)
		}
		h = string(data)
	}
	b, err := hex.DecodeString(strings.TrimSpace(h))
	if err != nil {
		return nil, fmt.Errorf("master key hex decode error: %w", err)
	}
	if len(b) != MasterKeySize {
		return nil, fmt.Errorf("master key must be %d bytes: %w", MasterKeySize, ErrInvalidKeyLength)
	}
	return b, nil
}

// GenerateMasterKey returns a fresh random master key, hex encoded.
func GenerateMasterKey() (string, error) {
	key := make([]byte, MasterKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// DeriveKey derives a 32-byte subkey from master using HKDF-SHA256.
func DeriveKey(master []byte, info string) ([]byte, error) {
	if len(master) != MasterKeySize {
		return nil, ErrInvalidKeyLength
	}
	h := hkdf.New(sha256.New, master, nil, []byte(info))
	out := make([]byte, 32)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, err
	}
	return out, nil
}
