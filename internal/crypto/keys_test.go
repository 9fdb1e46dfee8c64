package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReadMasterKeyFromHexAndFile(t *testing.T) {
	hexKey, err := GenerateMasterKey()
	if err != nil {
		t.Fatal(err)
	}
	want, _ := hex.DecodeString(hexKey)

	got, err := ReadMasterKey(hexKey, "")
	if err != nil || !bytes.Equal(got, want) {
		t.Fatalf("from hex: %x, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "master.key")
	if err := os.WriteFile(path, []byte(hexKey+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err = ReadMasterKey("", path)
	if err != nil || !bytes.Equal(got, want) {
		t.Fatalf("from file: %x, %v", got, err)
	}
}

func TestReadMasterKeyErrors(t *testing.T) {
	if _, err := ReadMasterKey("abcd", ""); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("short key: %v", err)
	}
	if _, err := ReadMasterKey("zz", ""); err == nil {
		t.Fatal("expected hex error")
	}
	if _, err := ReadMasterKey("", filepath.Join(t.TempDir(), "missing.key")); err == nil {
		t.Fatal("expected missing file error")
	}
}

func TestDeriveKeySeparatesContexts(t *testing.T) {
	master := bytes.Repeat([]byte{7}, MasterKeySize)
	a, err := DeriveKey(master, InfoJournal)
	if err != nil {
		t.Fatal(err)
	}
	b, err := DeriveKey(master, "other")
	if err != nil {
		t.Fatal(err)
	}
	again, _ := DeriveKey(master, InfoJournal)
	if bytes.Equal(a, b) || !bytes.Equal(a, again) {
		t.Fatal("derivation must be deterministic per info and differ across infos")
	}
	if _, err := DeriveKey(master[:5], InfoJournal); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}
}

func TestSealerRejectsTampering(t *testing.T) {
	s, err := NewJournalSealer(bytes.Repeat([]byte{1}, MasterKeySize))
	if err != nil {
		t.Fatal(err)
	}
	blob, err := s.Seal([]byte(`[{"team":"FALCON"}]`))
	if err != nil {
		t.Fatal(err)
	}
	plain, err := s.Open(blob)
	if err != nil || string(plain) != `[{"team":"FALCON"}]` {
		t.Fatalf("open: %q %v", plain, err)
	}
	blob[len(blob)-1] ^= 0xff
	if _, err := s.Open(blob); err == nil {
		t.Fatal("tampered blob opened")
	}
	if _, err := s.Open(blob[:4]); !errors.Is(err, ErrCiphertextTooShort) {
		t.Fatalf("expected ErrCiphertextTooShort, got %v", err)
	}
}
