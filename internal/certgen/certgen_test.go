package certgen

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// writeCA generates a CA and writes it to a temp dir, returning the file paths.
func writeCA(t *testing.T) (certPath, keyPath string, certPEM, keyPEM []byte) {
	t.Helper()
	certPEM, keyPEM, err := GenerateCA("Test CA", time.Hour)
	if err != nil {
		t.Fatalf("GenerateCA error: %v", err)
	}
	dir := t.TempDir()
	certPath = filepath.Join(dir, "ca.crt")
	keyPath = filepath.Join(dir, "ca.key")
	if err := os.WriteFile(certPath, certPEM, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		t.Fatal(err)
	}
	return certPath, keyPath, certPEM, keyPEM
}

func TestGenerateCA(t *testing.T) {
	certPath, keyPath, _, _ := writeCA(t)

	caCert, caKey, err := LoadCACredentials(certPath, keyPath)
	if err != nil {
		t.Fatalf("LoadCACredentials error: %v", err)
	}
	if !caCert.IsCA || !caCert.BasicConstraintsValid {
		t.Error("CA certificate must have IsCA and BasicConstraintsValid")
	}
	if caCert.KeyUsage&x509.KeyUsageCertSign == 0 {
		t.Errorf("KeyUsage = %v; want CertSign", caCert.KeyUsage)
	}
	if caCert.Subject.CommonName != "Test CA" {
		t.Errorf("CommonName = %q; want %q", caCert.Subject.CommonName, "Test CA")
	}
	if _, ok := caKey.(*ecdsa.PrivateKey); !ok {
		t.Errorf("key type = %T; want *ecdsa.PrivateKey", caKey)
	}
}

func TestLoadCACredentials_Errors(t *testing.T) {
	certPath, keyPath, _, _ := writeCA(t)
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not a pem"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		certPath string
		keyPath  string
		want     string
	}{
		{"missing cert", filepath.Join(dir, "none.crt"), keyPath, "read ca cert"},
		{"missing key", certPath, filepath.Join(dir, "none.key"), "read ca key"},
		{"bad cert", garbage, keyPath, "invalid CA cert PEM"},
		{"bad key", certPath, garbage, "invalid CA key PEM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadCACredentials(tt.certPath, tt.keyPath)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v; want error containing %q", err, tt.want)
			}
		})
	}
}

func TestParseCACredentials_RejectsLeaf(t *testing.T) {
	_, _, caPEM, caKeyPEM := writeCA(t)
	caCert, caKey, err := ParseCACredentials(caPEM, caKeyPEM)
	if err != nil {
		t.Fatal(err)
	}
	leafPEM, leafKeyPEM, err := GenerateServerCertificate([]string{"localhost"}, caCert, caKey)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := ParseCACredentials(leafPEM, leafKeyPEM); err == nil || !strings.Contains(err.Error(), "not a CA") {
		t.Errorf("got %v; want not a CA error", err)
	}
}

func TestGenerateServerCertificate(t *testing.T) {
	_, _, caPEM, caKeyPEM := writeCA(t)
	caCert, caKey, err := ParseCACredentials(caPEM, caKeyPEM)
	if err != nil {
		t.Fatal(err)
	}

	certPEM, keyPEM, err := GenerateServerCertificate([]string{"localhost", "127.0.0.1"}, caCert, caKey)
	if err != nil {
		t.Fatalf("GenerateServerCertificate error: %v", err)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatal("cert PEM invalid")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse server cert: %v", err)
	}
	if cert.Subject.CommonName != "localhost" {
		t.Errorf("CommonName = %q; want localhost", cert.Subject.CommonName)
	}
	if !reflect.DeepEqual(cert.DNSNames, []string{"localhost"}) {
		t.Errorf("DNSNames = %v; want [localhost]", cert.DNSNames)
	}
	if len(cert.IPAddresses) != 1 || cert.IPAddresses[0].String() != "127.0.0.1" {
		t.Errorf("IPAddresses = %v; want [127.0.0.1]", cert.IPAddresses)
	}

	roots := x509.NewCertPool()
	roots.AddCert(caCert)
	for _, host := range []string{"localhost", "127.0.0.1"} {
		if _, err := cert.Verify(x509.VerifyOptions{DNSName: host, Roots: roots}); err != nil {
			t.Errorf("verify for %s: %v", host, err)
		}
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil || keyBlock.Type != "EC PRIVATE KEY" {
		t.Fatal("key PEM invalid")
	}
	if _, err := x509.ParseECPrivateKey(keyBlock.Bytes); err != nil {
		t.Errorf("parse private key failed: %v", err)
	}
}

func TestGenerateServerCertificate_NoHosts(t *testing.T) {
	if _, _, err := GenerateServerCertificate(nil, nil, nil); err == nil {
		t.Error("expected error for empty host list")
	}
}

func TestSplitHosts(t *testing.T) {
	got := SplitHosts(" localhost, ,127.0.0.1,")
	want := []string{"localhost", "127.0.0.1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitHosts = %v; want %v", got, want)
	}
}
