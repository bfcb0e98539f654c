package acme

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrNoCertificate is returned during a TLS handshake for a domain that has no
// issued certificate on disk.
var ErrNoCertificate = errors.New("no certificate for domain")

// CertStore serves issued certificates from the issuer's artifact directory
// for TLS handshakes on custom domains. Certificates are cached per domain and
// reloaded when the file on disk changes, so a renewal is picked up without a
// restart.
type CertStore struct {
	dir      string
	fallback *tls.Certificate

	mu    sync.RWMutex
	cache map[string]cachedCert
}

type cachedCert struct {
	cert    *tls.Certificate
	modTime time.Time
}

// CertStoreOption configures a CertStore.
type CertStoreOption func(*CertStore) error

// WithFallbackCertificate loads a certificate served for handshakes that carry
// no SNI or name a domain without an issued certificate, typically the
// platform's own wildcard certificate.
func WithFallbackCertificate(certFile, keyFile string) CertStoreOption {
	return func(s *CertStore) error {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return fmt.Errorf("load fallback certificate: %w", err)
		}
		s.fallback = &cert
		return nil
	}
}

// NewCertStore creates a store reading certificates from dir, the same
// directory a LegoIssuer writes to.
func NewCertStore(dir string, opts ...CertStoreOption) (*CertStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("certificate directory is required")
	}

	s := &CertStore{
		dir:   dir,
		cache: make(map[string]cachedCert),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// GetCertificate implements tls.Config.GetCertificate. It never triggers
// issuance; domains without an artifact fall back to the platform certificate
// or fail the handshake.
func (s *CertStore) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	domain := strings.ToLower(strings.TrimSuffix(hello.ServerName, "."))
	if domain == "" {
		if s.fallback != nil {
			return s.fallback, nil
		}
		return nil, errors.New("no server name provided")
	}

	cert, err := s.load(domain)
	if err != nil {
		if s.fallback != nil {
			return s.fallback, nil
		}
		return nil, err
	}
	return cert, nil
}

func (s *CertStore) load(domain string) (*tls.Certificate, error) {
	base := safeFileSegment(domain)
	certPath := filepath.Join(s.dir, base+".crt")
	keyPath := filepath.Join(s.dir, base+".key")

	info, err := os.Stat(certPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCertificate, domain)
	}

	s.mu.RLock()
	cached, ok := s.cache[domain]
	s.mu.RUnlock()
	if ok && cached.modTime.Equal(info.ModTime()) {
		return cached.cert, nil
	}

	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("load certificate for %s: %w", domain, err)
	}

	s.mu.Lock()
	s.cache[domain] = cachedCert{cert: &cert, modTime: info.ModTime()}
	s.mu.Unlock()

	return &cert, nil
}

// Invalidate drops the cached certificate for a domain, forcing a reload on
// the next handshake. Called when a domain is removed.
func (s *CertStore) Invalidate(domain string) {
	s.mu.Lock()
	delete(s.cache, strings.ToLower(domain))
	s.mu.Unlock()
}

// TLSConfig returns a server TLS configuration backed by the store, with
// TLS 1.2+ and forward-secret cipher suites only.
func (s *CertStore) TLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: s.GetCertificate,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		},
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
		},
	}
}
