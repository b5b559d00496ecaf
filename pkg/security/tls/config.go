package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"
)

// CertificateSource supplies the serving certificate for each handshake.
// *Reloader implements it.
type CertificateSource interface {
	GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error)
}

// ServerConfig builds the listener TLS configuration. The certificate is
// resolved per handshake through source so that reloads apply to new
// connections without a restart.
func ServerConfig(cfg *config.TLSConfig, source CertificateSource) (*tls.Config, error) {
	if cfg == nil {
		return nil, errors.New("tls config is nil")
	}
	if source == nil {
		return nil, errors.New("certificate source is nil")
	}

	minVersion, err := ParseMinVersion(cfg.MinVersion)
	if err != nil {
		return nil, err
	}
	suites, err := ParseCipherSuites(cfg.CipherSuites)
	if err != nil {
		return nil, err
	}

	// #nosec G402 - MinVersion is validated to 1.2 or 1.3
	tlsConfig := &tls.Config{
		GetCertificate: source.GetCertificate,
		MinVersion:     minVersion,
		CipherSuites:   suites,
		NextProtos:     []string{"http/1.1"},
	}

	if cfg.MTLS.Enabled {
		if err := configureClientAuth(tlsConfig, &cfg.MTLS); err != nil {
			return nil, fmt.Errorf("configure mTLS: %w", err)
		}
	}

	return tlsConfig, nil
}

// ParseMinVersion maps "1.2" and "1.3" to their tls constants. Empty means
// TLS 1.2.
func ParseMinVersion(v string) (uint16, error) {
	switch v {
	case "1.2", "":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q", v)
	}
}

// ParseCipherSuites maps suite names to their IDs. Nil means Go's defaults.
func ParseCipherSuites(names []string) ([]uint16, error) {
	if len(names) == 0 {
		return nil, nil
	}

	suites := make([]uint16, 0, len(names))
	for _, name := range names {
		id, ok := cipherSuites[name]
		if !ok {
			return nil, fmt.Errorf("unsupported cipher suite %q", name)
		}
		suites = append(suites, id)
	}
	return suites, nil
}

// Only AEAD suites with forward secrecy. TLS 1.3 suites are not configurable
// in crypto/tls and are accepted here for compatibility with existing configs.
var cipherSuites = map[string]uint16{
	"TLS_AES_128_GCM_SHA256":       tls.TLS_AES_128_GCM_SHA256,
	"TLS_AES_256_GCM_SHA384":       tls.TLS_AES_256_GCM_SHA384,
	"TLS_CHACHA20_POLY1305_SHA256": tls.TLS_CHACHA20_POLY1305_SHA256,

	"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256":   tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384":   tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256": tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	"TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384": tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	"TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305":    tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	"TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305":  tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
}

func configureClientAuth(tlsConfig *tls.Config, cfg *config.MTLSConfig) error {
	if cfg.ClientCAFile == "" {
		return errors.New("client_ca_file is required when mTLS is enabled")
	}

	pemData, err := os.ReadFile(cfg.ClientCAFile)
	if err != nil {
		return fmt.Errorf("read client CA: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemData) {
		return fmt.Errorf("no certificates found in %s", cfg.ClientCAFile)
	}

	authType, err := ParseClientAuthType(cfg.ClientAuthType)
	if err != nil {
		return err
	}
	tlsConfig.ClientCAs = pool
	tlsConfig.ClientAuth = authType
	return nil
}

// ParseClientAuthType maps "require", "request" and "verify_if_given".
// Empty means require.
func ParseClientAuthType(v string) (tls.ClientAuthType, error) {
	switch v {
	case "require", "":
		return tls.RequireAndVerifyClientCert, nil
	case "request":
		return tls.RequestClientCert, nil
	case "verify_if_given":
		return tls.VerifyClientCertIfGiven, nil
	default:
		return 0, fmt.Errorf("unsupported client auth type %q", v)
	}
}
