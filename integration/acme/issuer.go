package acme

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-acme/lego/v4/certcrypto"
	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/challenge/http01"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"
)

// Issuer obtains a certificate for a single domain. The production
// implementation talks to an ACME CA; tests inject a fake.
type Issuer interface {
	Issue(ctx context.Context, domain string) (*Certificate, error)
}

// Certificate holds the on-disk artifact paths of an issued certificate.
type Certificate struct {
	CertificatePath string
	PrivateKeyPath  string
}

// LegoIssuer issues certificates through an ACME CA using the HTTP-01
// challenge and writes the artifacts to CertDir.
type LegoIssuer struct {
	email      string
	certDir    string
	caDirURL   string
	http01Host string
	http01Port string
	keyType    certcrypto.KeyType
}

// IssuerOption configures a LegoIssuer.
type IssuerOption func(*LegoIssuer)

// WithCADirectoryURL overrides the ACME directory URL. Defaults to the
// Let's Encrypt production endpoint; point it at staging in non-production
// environments to stay clear of rate limits.
func WithCADirectoryURL(url string) IssuerOption {
	return func(i *LegoIssuer) {
		if u := strings.TrimSpace(url); u != "" {
			i.caDirURL = u
		}
	}
}

// WithHTTP01Address sets the bind address for the HTTP-01 challenge server.
func WithHTTP01Address(host, port string) IssuerOption {
	return func(i *LegoIssuer) {
		i.http01Host = host
		if port != "" {
			i.http01Port = port
		}
	}
}

// WithKeyType overrides the certificate key type.
func WithKeyType(kt certcrypto.KeyType) IssuerOption {
	return func(i *LegoIssuer) {
		if kt != "" {
			i.keyType = kt
		}
	}
}

// NewLegoIssuer creates an issuer registering ACME accounts under email and
// storing issued artifacts in certDir.
func NewLegoIssuer(email, certDir string, opts ...IssuerOption) (*LegoIssuer, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("acme account email is required")
	}
	certDir = strings.TrimSpace(certDir)
	if certDir == "" {
		return nil, errors.New("certificate directory is required")
	}

	issuer := &LegoIssuer{
		email:      email,
		certDir:    certDir,
		caDirURL:   lego.LEDirectoryProduction,
		http01Port: "80",
		keyType:    certcrypto.RSA2048,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer, nil
}

// Issue registers a fresh ACME account, completes the HTTP-01 challenge for
// the domain, and writes the certificate and key to disk. Blocking; the
// caller polls through the provisioner rather than waiting on this directly.
func (i *LegoIssuer) Issue(ctx context.Context, domain string) (*Certificate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	accountKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate account key: %w", err)
	}

	user := &accountUser{email: i.email, key: accountKey}

	cfg := lego.NewConfig(user)
	cfg.CADirURL = i.caDirURL
	cfg.Certificate.KeyType = i.keyType

	client, err := lego.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create acme client: %w", err)
	}

	provider := http01.NewProviderServer(i.http01Host, i.http01Port)
	if err := client.Challenge.SetHTTP01Provider(provider); err != nil {
		return nil, fmt.Errorf("configure http-01 provider: %w", err)
	}

	reg, err := client.Registration.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
	if err != nil {
		return nil, fmt.Errorf("register account: %w", err)
	}
	user.registration = reg

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := client.Certificate.Obtain(certificate.ObtainRequest{
		Domains: []string{domain},
		Bundle:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("obtain certificate: %w", err)
	}

	return i.writeArtifacts(domain, res)
}

func (i *LegoIssuer) writeArtifacts(domain string, res *certificate.Resource) (*Certificate, error) {
	if res == nil || len(res.Certificate) == 0 || len(res.PrivateKey) == 0 {
		return nil, errors.New("empty certificate payload received from ACME server")
	}

	if err := os.MkdirAll(i.certDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure certificate directory: %w", err)
	}

	base := safeFileSegment(domain)
	certPath := filepath.Join(i.certDir, base+".crt")
	keyPath := filepath.Join(i.certDir, base+".key")

	if err := os.WriteFile(keyPath, res.PrivateKey, 0o600); err != nil {
		return nil, fmt.Errorf("write private key: %w", err)
	}
	if err := os.WriteFile(certPath, res.Certificate, 0o644); err != nil {
		return nil, fmt.Errorf("write certificate: %w", err)
	}

	return &Certificate{CertificatePath: certPath, PrivateKeyPath: keyPath}, nil
}

func safeFileSegment(domain string) string {
	domain = strings.TrimSpace(strings.ToLower(domain))

	var b strings.Builder
	b.Grow(len(domain))
	for _, r := range domain {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	sanitized := strings.Trim(b.String(), "._-")
	if sanitized == "" {
		return "certificate"
	}
	return sanitized
}

type accountUser struct {
	email        string
	registration *registration.Resource
	key          crypto.PrivateKey
}

func (u *accountUser) GetEmail() string                        { return u.email }
func (u *accountUser) GetRegistration() *registration.Resource { return u.registration }
func (u *accountUser) GetPrivateKey() crypto.PrivateKey        { return u.key }
