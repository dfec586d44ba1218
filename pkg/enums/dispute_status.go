package enums

import "fmt"

// DisputeStatus is the canonical lifecycle status of a dispute.
type DisputeStatus string

const (
	DisputeStatusDraft              DisputeStatus = "Draft"
	DisputeStatusActive             DisputeStatus = "Active"
	DisputeStatusEvidenceSubmission DisputeStatus = "EvidenceSubmission"
	DisputeStatusAIAnalysis         DisputeStatus = "AIAnalysis"
	DisputeStatusArbitratorReview   DisputeStatus = "ArbitratorReview"
	DisputeStatusDecided            DisputeStatus = "Decided"
	DisputeStatusSettled            DisputeStatus = "Settled"
	DisputeStatusAppealed           DisputeStatus = "Appealed"
	DisputeStatusClosed             DisputeStatus = "Closed"
)

// Ordered along the lifecycle; Rank relies on this order.
var validDisputeStatuses = []DisputeStatus{
	DisputeStatusDraft,
	DisputeStatusActive,
	DisputeStatusEvidenceSubmission,
	DisputeStatusAIAnalysis,
	DisputeStatusArbitratorReview,
	DisputeStatusDecided,
	DisputeStatusSettled,
	DisputeStatusAppealed,
	DisputeStatusClosed,
}

// DisputeStatuses returns the canonical statuses in lifecycle order.
func DisputeStatuses() []DisputeStatus {
	out := make([]DisputeStatus, len(validDisputeStatuses))
	copy(out, validDisputeStatuses)
	return out
}

// String implements fmt.Stringer.
func (s DisputeStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a canonical DisputeStatus.
func (s DisputeStatus) IsValid() bool {
	return s.Rank() >= 0
}

// Rank returns the lifecycle position of the status, or -1 when unknown.
// Appealed ranks after Decided/Settled even though it loops back to review.
func (s DisputeStatus) Rank() int {
	for i, candidate := range validDisputeStatuses {
		if candidate == s {
			return i
		}
	}
	return -1
}

// AtLeast reports whether s has reached other on the lifecycle.
func (s DisputeStatus) AtLeast(other DisputeStatus) bool {
	return s.IsValid() && other.IsValid() && s.Rank() >= other.Rank()
}

// IsTerminal reports whether no further transitions exist.
func (s DisputeStatus) IsTerminal() bool {
	return s == DisputeStatusClosed
}

// ParseDisputeStatus converts an exact canonical value into a DisputeStatus.
// Wire aliases and loose spellings are handled by the disputes normalizer.
func ParseDisputeStatus(value string) (DisputeStatus, error) {
	for _, candidate := range validDisputeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispute status %q", value)
}
