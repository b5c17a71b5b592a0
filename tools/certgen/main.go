// Package main generates a development CA and a server certificate for
// running the catalog server over HTTPS, writing them under -dir.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/atinyakov/travelsite/internal/certgen"
)

const caValidity = 10 * 365 * 24 * time.Hour

func main() {
	var (
		dir   string
		hosts string
	)
	flag.StringVar(&dir, "dir", "certs", "output directory")
	flag.StringVar(&hosts, "hosts", "localhost,127.0.0.1", "comma separated server names and IPs")
	flag.Parse()

	if err := run(dir, certgen.SplitHosts(hosts)); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Certificates generated into %s\n", dir)
	fmt.Printf("Server: TLS_CERT=%s TLS_KEY=%s\n", filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"))
	fmt.Printf("Client: -ca %s\n", filepath.Join(dir, "ca.crt"))
}

// run writes ca.crt/ca.key (kept if already present) and a fresh
// server.crt/server.key signed by that CA.
func run(dir string, hosts []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	caCertPath := filepath.Join(dir, "ca.crt")
	caKeyPath := filepath.Join(dir, "ca.key")

	caCert, caKey, err := certgen.LoadCACredentials(caCertPath, caKeyPath)
	if errors.Is(err, fs.ErrNotExist) {
		certPEM, keyPEM, genErr := certgen.GenerateCA("Travel Catalog Dev CA", caValidity)
		if genErr != nil {
			return genErr
		}
		if err := writePair(caCertPath, caKeyPath, certPEM, keyPEM); err != nil {
			return err
		}
		caCert, caKey, err = certgen.ParseCACredentials(certPEM, keyPEM)
	}
	if err != nil {
		return err
	}

	certPEM, keyPEM, err := certgen.GenerateServerCertificate(hosts, caCert, caKey)
	if err != nil {
		return err
	}
	return writePair(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"), certPEM, keyPEM)
}

func writePair(certPath, keyPath string, certPEM, keyPEM []byte) error {
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", certPath, err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", keyPath, err)
	}
	return nil
}
