package enums

import "fmt"

// EscrowStatus tracks the funds held against a dispute.
type EscrowStatus string

const (
	EscrowStatusPending  EscrowStatus = "Pending"
	EscrowStatusFunded   EscrowStatus = "Funded"
	EscrowStatusReleased EscrowStatus = "Released"
	EscrowStatusRefunded EscrowStatus = "Refunded"
	EscrowStatusDisputed EscrowStatus = "Disputed"
)

var validEscrowStatuses = []EscrowStatus{
	EscrowStatusPending,
	EscrowStatusFunded,
	EscrowStatusReleased,
	EscrowStatusRefunded,
	EscrowStatusDisputed,
}

// String implements fmt.Stringer.
func (s EscrowStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EscrowStatus.
func (s EscrowStatus) IsValid() bool {
	for _, candidate := range validEscrowStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsSettled reports whether the escrow no longer holds funds.
func (s EscrowStatus) IsSettled() bool {
	return s == EscrowStatusReleased || s == EscrowStatusRefunded
}

// ParseEscrowStatus converts raw input into an EscrowStatus.
func ParseEscrowStatus(value string) (EscrowStatus, error) {
	for _, candidate := range validEscrowStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid escrow status %q", value)
}
