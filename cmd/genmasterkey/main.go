package main

import (
	"flag"
	"fmt"
	"os"

	"qrquad/internal/crypto"
)

// Writes the master key used to encrypt the capture journal (QRQUAD_JOURNAL_ENCRYPTION=true).
func main() {
	keyFile := flag.String("out", "master.key", "Path of the key file to create")
	flag.Parse()

	if _, err := os.Stat(*keyFile); err == nil {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Refusing to overwrite.\n", *keyFile)
		os.Exit(1)
	}
	hexKey, err := crypto.GenerateMasterKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating random key: %v\n", err)
		os.Exit(1)
	}
	f, err := os.OpenFile(*keyFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *keyFile, err)
		os.Exit(1)
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, hexKey); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *keyFile, err)
		os.Exit(1)
	}
	fmt.Printf("Master key written to %s\n", *keyFile)
}
