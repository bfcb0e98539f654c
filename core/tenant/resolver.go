package tenant

import (
	"context"
	"net"
	"strings"
)

// Source indicates which rule matched during resolution.
type Source string

const (
	// SourcePlatform means the tenant was selected by path slug on the
	// platform's own shared domain.
	SourcePlatform Source = "platform"

	// SourceCustomDomain means the tenant was selected by exact host match
	// on a tenant-owned domain.
	SourceCustomDomain Source = "custom_domain"
)

// Match is the result of a successful resolution.
type Match struct {
	Tenant *Tenant
	Source Source
}

// Resolver maps an inbound request's host (and, for platform-hosted requests,
// a path segment) to the tenant whose storefront should be rendered.
// Resolution is pure and side-effect free: it only consults the Directory.
type Resolver struct {
	dir            Directory
	platformApex   string
	extraHosts     map[string]struct{}
	reservedPrefix string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithExtraPlatformHosts registers additional hosts treated as
// platform-hosted, e.g. "localhost" or a staging alias.
func WithExtraPlatformHosts(hosts ...string) ResolverOption {
	return func(r *Resolver) {
		for _, h := range hosts {
			h = strings.ToLower(strings.TrimSpace(h))
			if h != "" {
				r.extraHosts[h] = struct{}{}
			}
		}
	}
}

// WithReservedPrefix overrides the path prefix that precedes the tenant slug
// on platform-hosted requests (default "e").
func WithReservedPrefix(prefix string) ResolverOption {
	return func(r *Resolver) {
		prefix = strings.Trim(prefix, "/")
		if prefix != "" {
			r.reservedPrefix = prefix
		}
	}
}

// NewResolver creates a resolver for the given platform apex domain.
// Requests on the apex or any of its subdomains are platform-hosted; all
// other hosts are treated as custom domains.
func NewResolver(dir Directory, platformApex string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		dir:            dir,
		platformApex:   strings.ToLower(strings.TrimSpace(platformApex)),
		extraHosts:     map[string]struct{}{"localhost": {}, "127.0.0.1": {}},
		reservedPrefix: "e",
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the tenant for the request, or (nil, nil) for the
// platform's own public surface (sign-in, marketing) when no slug is present.
// A miss in either branch returns ErrTenantNotFound; resolution never depends
// on the tenant's DomainStatus, so pre-Active domains resolve for preview.
func (r *Resolver) Resolve(ctx context.Context, host, path string) (*Match, error) {
	host = NormalizeHost(host)

	if r.isPlatformHost(host) {
		slug, ok := r.slugFromPath(path)
		if !ok {
			return nil, nil
		}

		t, err := r.dir.BySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		return &Match{Tenant: t, Source: SourcePlatform}, nil
	}

	t, err := r.dir.ByCustomDomain(ctx, host)
	if err != nil {
		return nil, err
	}
	return &Match{Tenant: t, Source: SourceCustomDomain}, nil
}

// NormalizeHost lowercases the host and strips any port suffix.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}

func (r *Resolver) isPlatformHost(host string) bool {
	if _, ok := r.extraHosts[host]; ok {
		return true
	}
	if r.platformApex == "" {
		return false
	}
	return host == r.platformApex || strings.HasSuffix(host, "."+r.platformApex)
}

// slugFromPath extracts the tenant slug from paths of the form
// /<reservedPrefix>/<slug>/... on platform-hosted requests.
func (r *Resolver) slugFromPath(path string) (string, bool) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", false
	}

	parts := strings.Split(path, "/")
	if parts[0] != r.reservedPrefix || len(parts) < 2 || parts[1] == "" {
		return "", false
	}

	return strings.ToLower(parts[1]), true
}
