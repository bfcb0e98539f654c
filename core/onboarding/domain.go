package onboarding

import (
	"fmt"
	"regexp"
	"strings"
)

// labelRe matches a single DNS label: alphanumerics with inner hyphens.
var labelRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// NormalizeDomain lowercases and trims a user-supplied domain name.
func NormalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimSuffix(domain, ".")
}

// ValidateDomain checks that domain is a plausible fully-qualified domain
// name. Validation happens before any collaborator call so malformed input is
// rejected with a field-level message.
func ValidateDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("%w: empty", ErrInvalidDomain)
	}
	if len(domain) > 253 {
		return fmt.Errorf("%w: exceeds 253 characters", ErrInvalidDomain)
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return fmt.Errorf("%w: missing top-level domain", ErrInvalidDomain)
	}

	for _, label := range labels {
		if !labelRe.MatchString(label) {
			return fmt.Errorf("%w: bad label %q", ErrInvalidDomain, label)
		}
	}

	// TLD must not be numeric-only (rejects bare IPv4 addresses).
	tld := labels[len(labels)-1]
	if strings.IndexFunc(tld, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
		return fmt.Errorf("%w: numeric top-level domain", ErrInvalidDomain)
	}

	return nil
}
