package disputes

import (
	"time"

	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	"github.com/angelmondragon/arbitra-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Dispute is the display model served to clients.
type Dispute struct {
	ID                string                           `json:"id"`
	Title             string                           `json:"title"`
	Description       string                           `json:"description"`
	Claimant          Party                            `json:"claimant"`
	Respondent        Party                            `json:"respondent"`
	Arbitrator        types.Optional[types.Principal]  `json:"arbitrator"`
	Amount            Amount                           `json:"amount"`
	GoverningLaw      string                           `json:"governingLaw"`
	ArbitrationClause string                           `json:"arbitrationClause"`
	Jurisdiction      string                           `json:"jurisdiction"`
	Status            enums.DisputeStatus              `json:"status"`
	CreatedAt         Timestamp                        `json:"createdAt"`
	UpdatedAt         Timestamp                        `json:"updatedAt"`
	Evidence          []Evidence                       `json:"evidence"`
	Recommendation    types.Optional[AIRecommendation] `json:"recommendation"`
	Ruling            types.Optional[FinalRuling]      `json:"ruling"`
	EscrowID          types.Optional[string]           `json:"escrowId"`
}

// IsArbitrator reports whether p is the assigned arbitrator.
func (d Dispute) IsArbitrator(p types.Principal) bool {
	assigned, ok := d.Arbitrator.Get()
	return ok && !p.IsZero() && assigned == p
}

// IsParty reports whether p is the claimant or respondent.
func (d Dispute) IsParty(p types.Principal) bool {
	if p.IsZero() {
		return false
	}
	return d.Claimant.Principal == p || d.Respondent.Principal == p
}

// Party is a disputing party with its abbreviated principal.
type Party struct {
	Principal types.Principal `json:"principal"`
	Short     string          `json:"short"`
}

// Amount carries the disputed sum in minor units alongside its display forms.
// Minor is a decimal string so large values survive JSON clients.
type Amount struct {
	Minor    string          `json:"minor"`
	Major    decimal.Decimal `json:"major"`
	Currency string          `json:"currency"`
	Decimals int32           `json:"decimals"`
	Display  string          `json:"display"`
}

// Timestamp is a UTC instant with its display string.
type Timestamp struct {
	At      time.Time `json:"at,omitzero"`
	Display string    `json:"display"`
}

// IsZero reports whether the source timestamp was missing.
func (t Timestamp) IsZero() bool {
	return t.At.IsZero()
}

// Evidence is one submitted evidence item.
type Evidence struct {
	ID           string             `json:"id"`
	DisputeID    string             `json:"disputeId"`
	ContentHash  string             `json:"contentHash"`
	FileName     string             `json:"fileName"`
	MimeType     string             `json:"mimeType"`
	Size         int64              `json:"size"`
	Description  string             `json:"description"`
	EvidenceType enums.EvidenceType `json:"evidenceType"`
	UploadedBy   types.Principal    `json:"uploadedBy"`
	UploadedAt   Timestamp          `json:"uploadedAt"`
	Verified     bool               `json:"verified"`
}

// AIRecommendation is advisory output from the analysis engine.
type AIRecommendation struct {
	Confidence  float64   `json:"confidence"`
	Reasoning   string    `json:"reasoning"`
	KeyFactors  []string  `json:"keyFactors"`
	Decision    string    `json:"decision"`
	IsBinding   bool      `json:"isBinding"`
	GeneratedAt Timestamp `json:"generatedAt"`
}

// FinalRuling is the binding ruling of the human arbitrator.
type FinalRuling struct {
	Arbitrator   types.Principal `json:"arbitrator"`
	Decision     string          `json:"decision"`
	Reasoning    string          `json:"reasoning"`
	GoverningLaw string          `json:"governingLaw"`
	Jurisdiction string          `json:"jurisdiction"`
	AwardID      string          `json:"awardId"`
	IssuedAt     Timestamp       `json:"issuedAt"`
}
