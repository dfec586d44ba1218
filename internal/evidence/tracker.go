// Package evidence tracks, hashes and gates the evidence attached to a
// dispute.
package evidence

import (
	"strings"

	"github.com/angelmondragon/arbitra-backend/internal/disputes"
	"github.com/angelmondragon/arbitra-backend/internal/lifecycle"
	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
)

// Tracker holds the evidence of one dispute in submission order. Items are
// only ever appended.
type Tracker struct {
	items  []disputes.Evidence
	ids    map[string]struct{}
	hashes map[string]struct{}
}

// NewTracker seeds a tracker with existing evidence. Duplicates in the seed
// are skipped so the first occurrence keeps its position.
func NewTracker(items []disputes.Evidence) *Tracker {
	t := &Tracker{
		items:  make([]disputes.Evidence, 0, len(items)),
		ids:    make(map[string]struct{}, len(items)),
		hashes: make(map[string]struct{}, len(items)),
	}
	for _, item := range items {
		_ = t.Append(item)
	}
	return t
}

// Items returns a copy of the evidence in submission order.
func (t *Tracker) Items() []disputes.Evidence {
	out := make([]disputes.Evidence, len(t.items))
	copy(out, t.items)
	return out
}

// Len returns the number of tracked items.
func (t *Tracker) Len() int {
	return len(t.items)
}

// ContainsHash reports whether content with this digest is already attached.
func (t *Tracker) ContainsHash(hash string) bool {
	key := normalizeHash(hash)
	if key == "" {
		return false
	}
	_, ok := t.hashes[key]
	return ok
}

// Append adds item at the end. An item reusing an id or a content hash is
// rejected.
func (t *Tracker) Append(item disputes.Evidence) error {
	if item.ID != "" {
		if _, dup := t.ids[item.ID]; dup {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "evidence "+item.ID+" is already attached")
		}
	}
	if t.ContainsHash(item.ContentHash) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "evidence with identical content is already attached")
	}

	t.items = append(t.items, item)
	if item.ID != "" {
		t.ids[item.ID] = struct{}{}
	}
	if key := normalizeHash(item.ContentHash); key != "" {
		t.hashes[key] = struct{}{}
	}
	return nil
}

// CanSubmitEvidence reports whether d accepts evidence: always during
// evidence submission, and while Active as long as no final ruling exists.
func CanSubmitEvidence(d disputes.Dispute) bool {
	switch d.Status {
	case enums.DisputeStatusEvidenceSubmission:
		return true
	case enums.DisputeStatusActive:
		return d.Ruling.IsNone()
	default:
		return false
	}
}

// CanTriggerAnalysis reports whether analysis may start: the status must
// allow it and at least one evidence item must exist.
func CanTriggerAnalysis(d disputes.Dispute) bool {
	if len(d.Evidence) == 0 {
		return false
	}
	_, ok := lifecycle.Target(d.Status, enums.LifecycleActionTriggerAnalysis)
	return ok
}

func normalizeHash(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}
