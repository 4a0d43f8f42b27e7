// Package stream provides stream source validation.
package stream

import (
	"net"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalidSource is returned when a stream URL is rejected before any
// playback or tracking interaction takes place.
var ErrInvalidSource = errors.New("invalid stream source")

// DefaultMaxURLLength caps accepted stream URLs.
const DefaultMaxURLLength = 2048

// Validator checks stream URLs before they reach the playback layer.
type Validator struct {
	allowedSchemes  map[string]struct{}
	maxLength       int
	blockPrivateIPs bool
}

// ValidatorConfig represents validator configuration.
type ValidatorConfig struct {
	AllowedSchemes  []string
	MaxLength       int
	BlockPrivateIPs bool
}

// NewValidator creates a new source validator.
func NewValidator(cfg ValidatorConfig) *Validator {
	schemes := cfg.AllowedSchemes
	if len(schemes) == 0 {
		schemes = []string{"http", "https"}
	}
	allowed := make(map[string]struct{}, len(schemes))
	for _, s := range schemes {
		allowed[strings.ToLower(s)] = struct{}{}
	}

	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxURLLength
	}

	return &Validator{
		allowedSchemes:  allowed,
		maxLength:       maxLength,
		blockPrivateIPs: cfg.BlockPrivateIPs,
	}
}

// Validate checks the given stream URL. It returns an error wrapping
// ErrInvalidSource when the URL must be rejected.
func (v *Validator) Validate(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.Wrap(ErrInvalidSource, "empty URL")
	}

	if len(raw) > v.maxLength {
		return errors.Wrapf(ErrInvalidSource, "URL exceeds %d characters", v.maxLength)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrapf(ErrInvalidSource, "malformed URL: %v", err)
	}

	if _, ok := v.allowedSchemes[strings.ToLower(u.Scheme)]; !ok {
		return errors.Wrapf(ErrInvalidSource, "scheme %q is not allowed", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return errors.Wrap(ErrInvalidSource, "missing host")
	}

	if v.blockPrivateIPs {
		if ip := net.ParseIP(host); ip != nil && isPrivate(ip) {
			return errors.Wrapf(ErrInvalidSource, "private address %s is not allowed", host)
		}
	}

	return nil
}

// isPrivate reports whether the address points inside a private or
// local network.
func isPrivate(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}
