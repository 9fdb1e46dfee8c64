package utils

import (
	"os"
	"path/filepath"
)

const dataDirName = ".qrquad"

// GetDataDir returns the per-user directory holding settings, the capture journal and logs.
func GetDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), dataDirName)
	}
	return filepath.Join(home, dataDirName)
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0700)
}
