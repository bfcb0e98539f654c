package slug

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const defaultSeparator = "-"

// suffixAlphabet excludes visually ambiguous characters (0/o, 1/l).
const suffixAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"

var validSlugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type config struct {
	separator string
	maxLength int
	suffixLen int
}

// Option configures slug generation.
type Option func(*config)

// Separator overrides the separator character (default "-").
func Separator(sep string) Option {
	return func(c *config) {
		if sep != "" {
			c.separator = sep
		}
	}
}

// MaxLength limits the slug length in runes. The suffix, when present,
// is preserved within the limit.
func MaxLength(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxLength = n
		}
	}
}

// WithSuffix appends a random suffix of n characters for collision avoidance.
func WithSuffix(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.suffixLen = n
		}
	}
}

// Make converts an arbitrary string into a URL-safe slug.
// Diacritics are normalized (é → e), everything outside [a-z0-9] collapses
// into the separator, and leading/trailing separators are trimmed.
func Make(s string, opts ...Option) string {
	cfg := config{separator: defaultSeparator}
	for _, opt := range opts {
		opt(&cfg)
	}

	s = stripDiacritics(s)
	s = strings.ToLower(s)

	var b strings.Builder
	lastSep := true // suppress leading separator
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSep = false
		default:
			if !lastSep {
				b.WriteString(cfg.separator)
				lastSep = true
			}
		}
	}

	out := strings.TrimSuffix(b.String(), cfg.separator)

	if cfg.suffixLen > 0 {
		suffix := randomSuffix(cfg.suffixLen)
		if cfg.maxLength > 0 {
			budget := cfg.maxLength - len(suffix) - len(cfg.separator)
			if budget < 0 {
				budget = 0
			}
			out = truncate(out, budget, cfg.separator)
		}
		if out == "" {
			return suffix
		}
		return out + cfg.separator + suffix
	}

	if cfg.maxLength > 0 {
		out = truncate(out, cfg.maxLength, cfg.separator)
	}

	return out
}

// IsValid reports whether s is a well-formed platform slug: lowercase
// alphanumerics separated by single hyphens.
func IsValid(s string) bool {
	return validSlugRe.MatchString(s)
}

func truncate(s string, maxRunes int, sep string) string {
	if len([]rune(s)) <= maxRunes {
		return s
	}
	runes := []rune(s)
	s = string(runes[:maxRunes])
	return strings.TrimSuffix(s, sep)
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func randomSuffix(n int) string {
	var b strings.Builder
	max := big.NewInt(int64(len(suffixAlphabet)))
	for range n {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failure is unrecoverable for our purposes;
			// fall back to a fixed character rather than panicking.
			b.WriteByte('x')
			continue
		}
		b.WriteByte(suffixAlphabet[idx.Int64()])
	}
	return b.String()
}
