package acme_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrinehq/vitrine/integration/acme"
)

func writeSelfSigned(t *testing.T, dir, domain string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: domain},
		DNSNames:     []string{domain},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	require.NoError(t, os.WriteFile(filepath.Join(dir, domain+".crt"), certPEM, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain+".key"), keyPEM, 0o600))
}

func TestCertStoreServesIssuedCertificate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSelfSigned(t, dir, "shop.example.com")

	store, err := acme.NewCertStore(dir)
	require.NoError(t, err)

	cert, err := store.GetCertificate(&tls.ClientHelloInfo{ServerName: "shop.example.com"})
	require.NoError(t, err)
	require.NotNil(t, cert)

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	assert.Contains(t, leaf.DNSNames, "shop.example.com")

	// Second handshake hits the cache and returns the same certificate.
	again, err := store.GetCertificate(&tls.ClientHelloInfo{ServerName: "shop.example.com"})
	require.NoError(t, err)
	assert.Equal(t, cert, again)
}

func TestCertStoreUnknownDomain(t *testing.T) {
	t.Parallel()

	store, err := acme.NewCertStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.GetCertificate(&tls.ClientHelloInfo{ServerName: "unknown.example.com"})
	assert.ErrorIs(t, err, acme.ErrNoCertificate)
}

func TestCertStoreFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSelfSigned(t, dir, "vitrine.app")

	store, err := acme.NewCertStore(dir, acme.WithFallbackCertificate(
		filepath.Join(dir, "vitrine.app.crt"), filepath.Join(dir, "vitrine.app.key")))
	require.NoError(t, err)

	t.Run("missing sni", func(t *testing.T) {
		t.Parallel()
		cert, err := store.GetCertificate(&tls.ClientHelloInfo{})
		require.NoError(t, err)
		assert.NotNil(t, cert)
	})

	t.Run("unknown domain", func(t *testing.T) {
		t.Parallel()
		cert, err := store.GetCertificate(&tls.ClientHelloInfo{ServerName: "unknown.example.com"})
		require.NoError(t, err)
		assert.NotNil(t, cert)
	})
}

func TestCertStoreInvalidateForcesReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSelfSigned(t, dir, "shop.example.com")

	store, err := acme.NewCertStore(dir)
	require.NoError(t, err)

	_, err = store.GetCertificate(&tls.ClientHelloInfo{ServerName: "shop.example.com"})
	require.NoError(t, err)

	store.Invalidate("shop.example.com")
	require.NoError(t, os.Remove(filepath.Join(dir, "shop.example.com.crt")))

	_, err = store.GetCertificate(&tls.ClientHelloInfo{ServerName: "shop.example.com"})
	assert.ErrorIs(t, err, acme.ErrNoCertificate)
}
