package disputes

import (
	"fmt"
	"sort"
	"time"

	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	"github.com/angelmondragon/arbitra-backend/pkg/types"
)

// TimelineEventType classifies a timeline entry.
type TimelineEventType string

const (
	TimelineCreated  TimelineEventType = "created"
	TimelineEvidence TimelineEventType = "evidence"
	TimelineAnalysis TimelineEventType = "analysis"
	TimelineDecision TimelineEventType = "decision"
	TimelineSettled  TimelineEventType = "settled"
	TimelineAppealed TimelineEventType = "appealed"
)

// TimelineEvent is one entry in a dispute's history.
type TimelineEvent struct {
	ID          string                          `json:"id"`
	Type        TimelineEventType               `json:"type"`
	Title       string                          `json:"title"`
	Description string                          `json:"description"`
	Timestamp   Timestamp                       `json:"timestamp"`
	Relative    string                          `json:"relative"`
	Actor       types.Optional[types.Principal] `json:"actor"`
}

// Clock returns the current time.
type Clock func() time.Time

// Timeline derives the dispute history from its status and attached records.
// Events are ordered by time; ties keep derivation order.
func Timeline(d Dispute, now Clock) []TimelineEvent {
	if now == nil {
		now = time.Now
	}
	events := []TimelineEvent{{
		ID:          "created",
		Type:        TimelineCreated,
		Title:       "Dispute Created",
		Description: "Dispute was initiated and submitted for arbitration",
		Timestamp:   d.CreatedAt,
		Actor:       actor(d.Claimant.Principal),
	}}

	if d.Status.AtLeast(enums.DisputeStatusEvidenceSubmission) {
		events = append(events, TimelineEvent{
			ID:          "evidence-phase",
			Type:        TimelineEvidence,
			Title:       "Evidence Submission Started",
			Description: "Evidence collection phase began",
			Timestamp:   earliestEvidence(d, d.UpdatedAt),
		})
	}

	for _, item := range d.Evidence {
		events = append(events, TimelineEvent{
			ID:          "evidence-" + item.ID,
			Type:        TimelineEvidence,
			Title:       "Evidence Submitted",
			Description: item.FileName,
			Timestamp:   item.UploadedAt,
			Actor:       actor(item.UploadedBy),
		})
	}

	rec, hasRec := d.Recommendation.Get()
	if hasRec || d.Status.AtLeast(enums.DisputeStatusArbitratorReview) {
		at := d.UpdatedAt
		if hasRec && !rec.GeneratedAt.IsZero() {
			at = rec.GeneratedAt
		}
		events = append(events, TimelineEvent{
			ID:          "analysis",
			Type:        TimelineAnalysis,
			Title:       "AI Analysis Complete",
			Description: "AI-powered analysis has been completed",
			Timestamp:   at,
		})
	}

	ruling, hasRuling := d.Ruling.Get()
	if hasRuling || isDecidedStatus(d.Status) {
		description := "Arbitrator has rendered a decision"
		at := d.UpdatedAt
		actorRef := d.Arbitrator
		if hasRuling {
			if ruling.Decision != "" {
				description = ruling.Decision
			}
			if !ruling.IssuedAt.IsZero() {
				at = ruling.IssuedAt
			}
			actorRef = actor(ruling.Arbitrator)
		}
		events = append(events, TimelineEvent{
			ID:          "decision",
			Type:        TimelineDecision,
			Title:       "Decision Rendered",
			Description: description,
			Timestamp:   at,
			Actor:       actorRef,
		})
	}

	switch d.Status {
	case enums.DisputeStatusSettled, enums.DisputeStatusClosed:
		events = append(events, TimelineEvent{
			ID:          "settled",
			Type:        TimelineSettled,
			Title:       "Dispute Settled",
			Description: settledDescription(d.Status),
			Timestamp:   d.UpdatedAt,
		})
	case enums.DisputeStatusAppealed:
		events = append(events, TimelineEvent{
			ID:          "appealed",
			Type:        TimelineAppealed,
			Title:       "Decision Appealed",
			Description: "The decision has been appealed",
			Timestamp:   d.UpdatedAt,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.At.Before(events[j].Timestamp.At)
	})

	current := now()
	for i := range events {
		if !events[i].Timestamp.IsZero() {
			events[i].Relative = RelativeTime(events[i].Timestamp.At, current)
		}
	}
	return events
}

// RelativeTime renders t relative to now ("3 hours ago"). Anything a week or
// older falls back to the absolute display format.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff/time.Minute), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff/time.Hour), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff/(24*time.Hour)), "day")
	default:
		return t.UTC().Format(DisplayTimeLayout)
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func isDecidedStatus(status enums.DisputeStatus) bool {
	switch status {
	case enums.DisputeStatusDecided,
		enums.DisputeStatusSettled,
		enums.DisputeStatusAppealed,
		enums.DisputeStatusClosed:
		return true
	}
	return false
}

func settledDescription(status enums.DisputeStatus) string {
	if status == enums.DisputeStatusClosed {
		return "Dispute has been resolved and closed"
	}
	return "Settlement has been reached"
}

func earliestEvidence(d Dispute, fallback Timestamp) Timestamp {
	for _, item := range d.Evidence {
		if !item.UploadedAt.IsZero() {
			return item.UploadedAt
		}
	}
	return fallback
}

func actor(p types.Principal) types.Optional[types.Principal] {
	if p.IsZero() {
		return types.None[types.Principal]()
	}
	return types.Some(p)
}
