package disputes

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/angelmondragon/arbitra-backend/internal/canister"
	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	"github.com/angelmondragon/arbitra-backend/pkg/types"
	"github.com/angelmondragon/arbitra-backend/pkg/wire"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	claimantID   = types.Principal("claimant-aaaa-bbbb")
	respondentID = types.Principal("respondent-cccc-dddd")
	arbitratorID = types.Principal("arbitrator-eeee-ffff")
)

func decodeRaw(t *testing.T, payload string) canister.RawDispute {
	t.Helper()
	var raw canister.RawDispute
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	return raw
}

func TestProjectFormatsAmount(t *testing.T) {
	raw := decodeRaw(t, `{
		"id": "7",
		"claimant": "claimant-aaaa-bbbb",
		"respondent": "respondent-cccc-dddd",
		"arbitrator": [],
		"amount": 125000,
		"currency": "USD",
		"status": {"Pending": null},
		"createdAt": 1709560200000000000,
		"updatedAt": 1709560200000000000,
		"decision": [],
		"escrowId": []
	}`)

	d := Project(raw)
	assert.Equal(t, "$1,250.00", d.Amount.Display)
	assert.Equal(t, "125000", d.Amount.Minor)
	assert.Equal(t, "1250", d.Amount.Major.String())
	assert.Equal(t, int32(2), d.Amount.Decimals)
	assert.Equal(t, enums.DisputeStatusActive, d.Status)
	assert.True(t, d.Arbitrator.IsNone())
	assert.True(t, d.Ruling.IsNone())
	assert.True(t, d.Recommendation.IsNone())
	assert.True(t, d.EscrowID.IsNone())
	assert.NotNil(t, d.Evidence)
	assert.Empty(t, d.Evidence)
}

func TestProjectLedgerRecordWithAdvisoryRuling(t *testing.T) {
	raw := decodeRaw(t, `{
		"id": 12,
		"title": "Late delivery",
		"plaintiff": "claimant-aaaa-bbbb",
		"defendant": "respondent-cccc-dddd",
		"amountInDispute": "150000000",
		"currency": "ICP",
		"governingLaw": "England and Wales",
		"arbitrationClause": "Any dispute shall be settled by arbitration.",
		"status": {"AIAnalysis": null},
		"createdAt": 1700000000000000000,
		"updatedAt": 1700000500000000000,
		"evidence": [
			{"id": "e1", "hash": "ABCDEF", "fileName": "contract.pdf", "uploadedAt": 1700000100000000000, "uploadedBy": "claimant-aaaa-bbbb"},
			{"id": "e2", "hash": "123456", "fileName": "photo.png", "uploadedAt": 1700000200000000000, "uploadedBy": "respondent-cccc-dddd"}
		],
		"ruling": [{
			"keyFactors": ["delivery date", "penalty clause"],
			"decision": "Partial refund",
			"reasoning": "Goods arrived three weeks late.",
			"confidenceScore": 1.7,
			"issuedAt": 1700000400000000000,
			"issuedBy": "ai"
		}]
	}`)

	d := Project(raw)
	assert.Equal(t, "12", d.ID)
	assert.Equal(t, claimantID, d.Claimant.Principal)
	assert.Equal(t, "claimant...", d.Claimant.Short)
	assert.Equal(t, respondentID, d.Respondent.Principal)
	assert.Equal(t, "1.50000000 ICP", d.Amount.Display)

	require.Len(t, d.Evidence, 2)
	assert.Equal(t, "e1", d.Evidence[0].ID)
	assert.Equal(t, "e2", d.Evidence[1].ID)
	assert.Equal(t, "12", d.Evidence[0].DisputeID)
	assert.Equal(t, "abcdef", d.Evidence[0].ContentHash)
	assert.Equal(t, enums.EvidenceTypeDocument, d.Evidence[0].EvidenceType)

	rec, ok := d.Recommendation.Get()
	require.True(t, ok)
	assert.Equal(t, 1.0, rec.Confidence)
	assert.False(t, rec.IsBinding)
	assert.Equal(t, []string{"delivery date", "penalty clause"}, rec.KeyFactors)
	assert.Equal(t, "Partial refund", rec.Decision)
	assert.True(t, d.Ruling.IsNone(), "advisory output must not become a final ruling")
}

func TestProjectDecisionBecomesFinalRuling(t *testing.T) {
	raw := decodeRaw(t, `{
		"id": "d-1",
		"claimant": "claimant-aaaa-bbbb",
		"respondent": "respondent-cccc-dddd",
		"arbitrator": ["arbitrator-eeee-ffff"],
		"amount": 500,
		"status": {"Decided": null},
		"createdAt": 1700000000000000000,
		"updatedAt": 1700000900000000000,
		"decision": ["Respondent pays in full"],
		"escrowId": ["esc-9"]
	}`)

	d := Project(raw)
	ruling, ok := d.Ruling.Get()
	require.True(t, ok)
	assert.Equal(t, arbitratorID, ruling.Arbitrator)
	assert.Equal(t, "Respondent pays in full", ruling.Decision)
	assert.Equal(t, d.UpdatedAt, ruling.IssuedAt)

	escrow, ok := d.EscrowID.Get()
	require.True(t, ok)
	assert.Equal(t, "esc-9", escrow)
	assert.True(t, d.IsArbitrator(arbitratorID))
}

func TestProjectDropsRulingBeforeReview(t *testing.T) {
	raw := decodeRaw(t, `{"id":"x","status":"EvidenceSubmission","decision":["early"]}`)
	d := Project(raw)
	assert.True(t, d.Ruling.IsNone())
}

func TestProjectDropsRulingWithoutArbitrator(t *testing.T) {
	decisionOnly := decodeRaw(t, `{"id":"d-2","status":{"Decided":null},"arbitrator":[],"decision":["Claimant prevails"]}`)
	d := Project(decisionOnly)
	assert.Equal(t, enums.DisputeStatusDecided, d.Status)
	assert.True(t, d.Ruling.IsNone())

	anonymous := decodeRaw(t, `{"id":"d-3","status":{"Decided":null},"finalRuling":[{"decision":"Split costs"}]}`)
	assert.True(t, Project(anonymous).Ruling.IsNone())

	signed := decodeRaw(t, `{"id":"d-4","status":{"Decided":null},"finalRuling":[{"arbitrator":"arbitrator-eeee-ffff","decision":"Split costs"}]}`)
	ruling, ok := Project(signed).Ruling.Get()
	require.True(t, ok)
	assert.Equal(t, arbitratorID, ruling.Arbitrator)
}

func TestProjectTimestamp(t *testing.T) {
	ts := ProjectTimestamp(wire.NewNat(time.Date(2025, 3, 4, 14, 30, 0, 0, time.UTC).UnixNano()))
	assert.Equal(t, "March 4, 2025 at 02:30 PM", ts.Display)
	assert.Equal(t, time.UTC, ts.At.Location())

	zero := ProjectTimestamp(wire.NewNat(0))
	assert.True(t, zero.IsZero())
	assert.Empty(t, zero.Display)

	negative := ProjectTimestamp(wire.NewNat(-5))
	assert.True(t, negative.IsZero())
}

func TestProjectAbsentFieldsMarshalAsNull(t *testing.T) {
	d := Project(canister.RawDispute{})
	payload, err := json.Marshal(d)
	require.NoError(t, err)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &out))
	for _, field := range []string{"arbitrator", "recommendation", "ruling", "escrowId"} {
		assert.Equal(t, "null", string(out[field]), field)
	}
	assert.Equal(t, `"Draft"`, string(out["status"]))
	assert.Equal(t, `"USD"`, string(mustField(t, out["amount"], "currency")))
}

func TestProjectEvidenceInfersType(t *testing.T) {
	ev := ProjectEvidence("d", canister.RawEvidence{
		ID:           "1",
		MimeType:     "image/png",
		SubmittedBy:  claimantID,
		Timestamp:    wire.NewNat(1),
		EvidenceType: json.RawMessage(`{"Video":null}`),
	})
	assert.Equal(t, enums.EvidenceTypeVideo, ev.EvidenceType)
	assert.Equal(t, claimantID, ev.UploadedBy)
	assert.False(t, ev.UploadedAt.IsZero())

	inferred := ProjectEvidence("d", canister.RawEvidence{ID: "2", FileType: "audio/mpeg"})
	assert.Equal(t, enums.EvidenceTypeAudio, inferred.EvidenceType)
	assert.Equal(t, "audio/mpeg", inferred.MimeType)
}

func TestProjectNeverPanics(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("arbitrary status and amounts project", prop.ForAll(
		func(status string, amount int64, currency string, created int64) bool {
			raw := canister.RawDispute{
				ID:        wire.ID(status),
				Status:    json.RawMessage(status),
				Amount:    wire.SomeOpt(wire.NewNat(amount)),
				Currency:  currency,
				CreatedAt: wire.NewNat(created),
			}
			d := Project(raw)
			return d.Status.IsValid() && d.Arbitrator.IsNone() && d.Ruling.IsNone() && d.Amount.Display != ""
		},
		gen.AlphaString(),
		gen.Int64(),
		gen.AlphaString(),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func mustField(t *testing.T, payload json.RawMessage, field string) json.RawMessage {
	t.Helper()
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &out))
	return out[field]
}
