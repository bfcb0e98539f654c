package dns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strings"

	"github.com/vitrinehq/vitrine/core/logger"
	"github.com/vitrinehq/vitrine/core/onboarding"
)

// Config holds DNS verifier settings.
type Config struct {
	// IngressIP is the public address custom domains must point at.
	IngressIP string `env:"DNS_INGRESS_IP,required"`
}

// LookupResolver is the subset of net.Resolver the verifier depends on.
// Injected in tests.
type LookupResolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Verifier checks that a custom domain's A/AAAA records resolve to the
// platform ingress address. It implements onboarding.DomainVerifier.
type Verifier struct {
	ingress  netip.Addr
	resolver LookupResolver
	log      *slog.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithResolver overrides the DNS resolver. Used in tests.
func WithResolver(r LookupResolver) Option {
	return func(v *Verifier) {
		if r != nil {
			v.resolver = r
		}
	}
}

// WithLogger sets the verifier's logger.
func WithLogger(log *slog.Logger) Option {
	return func(v *Verifier) {
		if log != nil {
			v.log = log
		}
	}
}

// NewVerifier creates a Verifier expecting domains to resolve to ingressIP.
func NewVerifier(ingressIP string, opts ...Option) (*Verifier, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ingressIP))
	if err != nil {
		return nil, fmt.Errorf("parse ingress ip %q: %w", ingressIP, err)
	}

	v := &Verifier{
		ingress:  addr.Unmap(),
		resolver: net.DefaultResolver,
		log:      logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Check resolves the domain and compares each returned address against the
// ingress IP. A missing zone is a definitive error; resolver transport
// failures return a non-nil error so the caller can retry.
func (v *Verifier) Check(ctx context.Context, domain string) (onboarding.CheckResult, error) {
	addrs, err := v.resolver.LookupNetIP(ctx, "ip", domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			v.log.DebugContext(ctx, "domain does not resolve", logger.Domain(domain))
			return onboarding.CheckResult{
				Status: onboarding.CheckError,
				Detail: "domain does not resolve",
			}, nil
		}
		return onboarding.CheckResult{}, fmt.Errorf("lookup %s: %w", domain, err)
	}

	for _, addr := range addrs {
		if addr.Unmap() == v.ingress {
			return onboarding.CheckResult{Status: onboarding.CheckOK}, nil
		}
	}

	v.log.DebugContext(ctx, "domain points elsewhere",
		logger.Domain(domain),
		slog.String("expected", v.ingress.String()),
		slog.String("got", joinAddrs(addrs)))

	return onboarding.CheckResult{
		Status: onboarding.CheckMismatch,
		Detail: fmt.Sprintf("domain resolves to %s, expected %s", joinAddrs(addrs), v.ingress),
	}, nil
}

func joinAddrs(addrs []netip.Addr) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.Unmap().String()
	}
	return strings.Join(parts, ", ")
}
