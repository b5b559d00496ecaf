package tls

import (
	"path/filepath"
	"testing"
	"time"
)

func writePair(t *testing.T, dir, name string, opts SelfSignedOptions) (certFile, keyFile string) {
	t.Helper()

	certPEM, keyPEM, err := GenerateSelfSigned(opts)
	if err != nil {
		t.Fatalf("GenerateSelfSigned: %v", err)
	}
	certFile = filepath.Join(dir, name+".crt")
	keyFile = filepath.Join(dir, name+".key")
	if err := WriteKeyPair(certFile, keyFile, certPEM, keyPEM, true); err != nil {
		t.Fatalf("WriteKeyPair: %v", err)
	}
	return certFile, keyFile
}

func validPair(t *testing.T, dir string) (string, string) {
	t.Helper()
	return writePair(t, dir, "server", SelfSignedOptions{ValidFor: 24 * time.Hour})
}
