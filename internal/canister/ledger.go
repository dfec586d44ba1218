package canister

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/angelmondragon/arbitra-backend/pkg/config"
	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	"github.com/angelmondragon/arbitra-backend/pkg/types"
	"github.com/angelmondragon/arbitra-backend/pkg/wire"
)

// DisputeLedger is the system of record for disputes.
type DisputeLedger interface {
	CreateDispute(ctx context.Context, params CreateDisputeParams) (string, error)
	GetDispute(ctx context.Context, disputeID string) (*RawDispute, bool, error)
	GetDisputesByUser(ctx context.Context, principal types.Principal) ([]RawDispute, error)
	UpdateStatus(ctx context.Context, disputeID string, status enums.DisputeStatus) error
	AssignArbitrator(ctx context.Context, disputeID string, arbitrator types.Principal) error
	SubmitDecision(ctx context.Context, disputeID, decision string) error
	LinkEscrow(ctx context.Context, disputeID, escrowID string) error
}

// HealthChecker reports the health string of a canister.
type HealthChecker interface {
	Health(ctx context.Context, canister string) (string, error)
}

func (c *Client) CreateDispute(ctx context.Context, params CreateDisputeParams) (string, error) {
	id, err := callResult[wire.ID](ctx, c, c.names.DisputeLedger, "createDisputeFull",
		params.Title,
		params.Description,
		params.Respondent,
		params.Amount,
		params.Currency,
		params.GoverningLaw,
		params.ArbitrationClause,
	)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (c *Client) GetDispute(ctx context.Context, disputeID string) (*RawDispute, bool, error) {
	raw, found, err := callOpt[RawDispute](ctx, c, c.names.DisputeLedger, "getDispute", disputeID)
	if err != nil || !found {
		return raw, found, err
	}
	c.readStatus(raw)
	return raw, true, nil
}

func (c *Client) GetDisputesByUser(ctx context.Context, principal types.Principal) ([]RawDispute, error) {
	raws, err := callList[RawDispute](ctx, c, c.names.DisputeLedger, "getDisputesByUser", principal)
	if err != nil {
		return nil, err
	}
	for i := range raws {
		c.readStatus(&raws[i])
	}
	return raws, nil
}

// UpdateStatus sends the status as a variant in the configured dialect.
func (c *Client) UpdateStatus(ctx context.Context, disputeID string, status enums.DisputeStatus) error {
	return callUnit(ctx, c, c.names.DisputeLedger, "updateDisputeStatus", disputeID, wire.NewVariant(c.statusTag(status)))
}

func (c *Client) AssignArbitrator(ctx context.Context, disputeID string, arbitrator types.Principal) error {
	return callUnit(ctx, c, c.names.DisputeLedger, "assignArbitrator", disputeID, arbitrator)
}

func (c *Client) SubmitDecision(ctx context.Context, disputeID, decision string) error {
	return callUnit(ctx, c, c.names.DisputeLedger, "submitDecision", disputeID, decision)
}

func (c *Client) LinkEscrow(ctx context.Context, disputeID, escrowID string) error {
	return callUnit(ctx, c, c.names.DisputeLedger, "linkEscrow", disputeID, escrowID)
}

// Health calls the health query every canister exposes.
func (c *Client) Health(ctx context.Context, canister string) (string, error) {
	var out string
	if err := c.call(ctx, canister, "health", nil, &out); err != nil {
		return "", err
	}
	return out, nil
}

// legacyStatusTags maps canonical statuses onto the six-state ledger.
var legacyStatusTags = map[enums.DisputeStatus]string{
	enums.DisputeStatusDraft:              "Pending",
	enums.DisputeStatusActive:             "Pending",
	enums.DisputeStatusEvidenceSubmission: "EvidenceSubmission",
	enums.DisputeStatusAIAnalysis:         "UnderReview",
	enums.DisputeStatusArbitratorReview:   "UnderReview",
	enums.DisputeStatusDecided:            "Decided",
	enums.DisputeStatusSettled:            "Decided",
	enums.DisputeStatusAppealed:           "Appealed",
	enums.DisputeStatusClosed:             "Closed",
}

// arbitratorReviewStatus replaces the legacy review tag once the dispute has
// passed analysis.
var arbitratorReviewStatus = json.RawMessage(`{"ArbitratorReview":null}`)

// readStatus resolves the legacy UnderReview tag, which the six-state ledger
// uses for both analysis and arbitrator review. A record that already carries
// an advisory recommendation has left analysis.
func (c *Client) readStatus(raw *RawDispute) {
	if c.dialect != config.StatusDialectLegacy || raw == nil {
		return
	}
	variant, ok := wire.ParseVariant(raw.Status)
	if !ok {
		return
	}
	tag, single := variant.Single()
	if !single || !strings.EqualFold(tag, "UnderReview") {
		return
	}
	if raw.Recommendation.Valid || raw.Ruling.Valid {
		raw.Status = arbitratorReviewStatus
	}
}

func (c *Client) statusTag(status enums.DisputeStatus) string {
	if c.dialect == config.StatusDialectLegacy {
		if tag, ok := legacyStatusTags[status]; ok {
			return tag
		}
	}
	return status.String()
}
