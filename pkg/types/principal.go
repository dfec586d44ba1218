package types

import (
	"fmt"
	"strings"
)

const principalShortLen = 8

// Principal is an opaque identity reference. The backend treats it as text and
// so does this service.
type Principal string

// String implements fmt.Stringer.
func (p Principal) String() string {
	return string(p)
}

// IsZero reports whether the principal is empty.
func (p Principal) IsZero() bool {
	return strings.TrimSpace(string(p)) == ""
}

// Short returns the first eight characters followed by an ellipsis, or the
// full value when it is already short.
func (p Principal) Short() string {
	runes := []rune(string(p))
	if len(runes) <= principalShortLen {
		return string(p)
	}
	return string(runes[:principalShortLen]) + "..."
}

// ParsePrincipal trims and validates a textual principal. Only lowercase
// alphanumerics and hyphens are accepted.
func ParsePrincipal(value string) (Principal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("principal is required")
	}
	for _, r := range trimmed {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return "", fmt.Errorf("invalid principal %q", value)
		}
	}
	return Principal(trimmed), nil
}
