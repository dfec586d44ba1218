package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
)

// HashLength is the length of a hex-encoded SHA-256 digest.
const HashLength = sha256.Size * 2

// Hash returns the hex SHA-256 digest of everything read from r. A read
// failure is reported as CodeHashingFailed and no digest is returned.
func Hash(r io.Reader) (string, error) {
	if r == nil {
		return "", pkgerrors.New(pkgerrors.CodeHashingFailed, "evidence content is unreadable")
	}
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeHashingFailed, err, "hash evidence content")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsHash reports whether value looks like a lowercase hex SHA-256 digest.
func IsHash(value string) bool {
	if len(value) != HashLength {
		return false
	}
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
