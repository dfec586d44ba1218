package disputes

import (
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/angelmondragon/arbitra-backend/internal/canister"
	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	"github.com/angelmondragon/arbitra-backend/pkg/money"
	"github.com/angelmondragon/arbitra-backend/pkg/types"
	"github.com/angelmondragon/arbitra-backend/pkg/wire"
)

// DisplayTimeLayout renders timestamps as "March 4, 2025 at 02:30 PM".
const DisplayTimeLayout = "January 2, 2006 at 03:04 PM"

// Project converts a ledger record into the display model. It never fails:
// missing optional data projects to an absent Optional and unknown status
// shapes project to Draft.
func Project(raw canister.RawDispute) Dispute {
	id := raw.ID.String()
	claimant := firstPrincipal(raw.Claimant, raw.Plaintiff)
	respondent := firstPrincipal(raw.Respondent, raw.Defendant)
	arbitrator := projectPrincipal(raw.Arbitrator)
	status := NormalizeStatus(raw.Status)
	updatedAt := ProjectTimestamp(raw.UpdatedAt)

	out := Dispute{
		ID:                id,
		Title:             raw.Title,
		Description:       raw.Description,
		Claimant:          projectParty(claimant),
		Respondent:        projectParty(respondent),
		Arbitrator:        arbitrator,
		Amount:            projectAmount(raw),
		GoverningLaw:      raw.GoverningLaw,
		ArbitrationClause: raw.ArbitrationClause,
		Jurisdiction:      raw.Jurisdiction,
		Status:            status,
		CreatedAt:         ProjectTimestamp(raw.CreatedAt),
		UpdatedAt:         updatedAt,
		Evidence:          make([]Evidence, 0, len(raw.Evidence)),
		Recommendation:    types.None[AIRecommendation](),
		Ruling:            types.None[FinalRuling](),
		EscrowID:          types.None[string](),
	}

	for _, item := range raw.Evidence {
		out.Evidence = append(out.Evidence, ProjectEvidence(id, item))
	}

	if rec, ok := firstRecommendation(raw.Recommendation, raw.Ruling); ok {
		out.Recommendation = types.Some(ProjectRecommendation(rec))
	}

	if ruling, ok := projectRuling(raw, arbitrator, updatedAt); ok && status.AtLeast(enums.DisputeStatusArbitratorReview) {
		out.Ruling = types.Some(ruling)
	}

	if raw.EscrowID.Valid && strings.TrimSpace(raw.EscrowID.Value) != "" {
		out.EscrowID = types.Some(raw.EscrowID.Value)
	}
	return out
}

// ProjectAll projects every record, keeping source order.
func ProjectAll(raws []canister.RawDispute) []Dispute {
	out := make([]Dispute, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Project(raw))
	}
	return out
}

// ProjectTimestamp converts nanoseconds since epoch to UTC. Zero and negative
// input produce the zero time and an empty display string.
func ProjectTimestamp(ns wire.Nat) Timestamp {
	n := ns.Int64()
	if n <= 0 {
		return Timestamp{}
	}
	at := time.Unix(0, n).UTC()
	return Timestamp{
		At:      at,
		Display: at.Format(DisplayTimeLayout),
	}
}

// ProjectEvidence converts one evidence record. disputeID fills in records
// embedded in a dispute that omit their parent id.
func ProjectEvidence(disputeID string, raw canister.RawEvidence) Evidence {
	mimeType := firstString(raw.MimeType, raw.FileType)
	parent := raw.DisputeID.String()
	if parent == "" {
		parent = disputeID
	}

	var size int64
	if raw.Size.Valid {
		size = raw.Size.Value.Int64()
	}

	uploadedAt := raw.UploadedAt
	for _, candidate := range []wire.Nat{raw.SubmittedAt, raw.Timestamp} {
		if uploadedAt.Int64() > 0 {
			break
		}
		uploadedAt = candidate
	}

	return Evidence{
		ID:           raw.ID.String(),
		DisputeID:    parent,
		ContentHash:  strings.ToLower(firstString(raw.Hash, raw.ContentHash)),
		FileName:     raw.FileName,
		MimeType:     mimeType,
		Size:         size,
		Description:  raw.Description,
		EvidenceType: projectEvidenceType(raw.EvidenceType, mimeType),
		UploadedBy:   firstPrincipal(raw.UploadedBy, raw.SubmittedBy),
		UploadedAt:   ProjectTimestamp(uploadedAt),
		Verified:     raw.Verified,
	}
}

// ProjectRecommendation converts an advisory record. Confidence is clamped to
// [0,1] and the result is never binding.
func ProjectRecommendation(raw canister.RawRecommendation) AIRecommendation {
	confidence := 0.0
	switch {
	case raw.Confidence != nil:
		confidence = *raw.Confidence
	case raw.ConfidenceScore != nil:
		confidence = *raw.ConfidenceScore
	}

	factors := raw.KeyFactors
	if len(factors) == 0 {
		factors = raw.KeyPoints
	}
	keyFactors := make([]string, len(factors))
	copy(keyFactors, factors)

	generated := raw.Timestamp
	if generated.Int64() <= 0 {
		generated = raw.IssuedAt
	}

	return AIRecommendation{
		Confidence:  clampConfidence(confidence),
		Reasoning:   firstString(raw.Reasoning, raw.Summary),
		KeyFactors:  keyFactors,
		Decision:    firstString(raw.Decision, raw.Recommendation),
		IsBinding:   false,
		GeneratedAt: ProjectTimestamp(generated),
	}
}

// projectRuling builds the binding ruling. A ruling whose issuing arbitrator
// cannot be resolved is not projected.
func projectRuling(raw canister.RawDispute, arbitrator types.Optional[types.Principal], updatedAt Timestamp) (FinalRuling, bool) {
	if raw.FinalRuling.Valid {
		r := raw.FinalRuling.Value
		issuer := r.Arbitrator
		if issuer.IsZero() {
			issuer = arbitrator.OrElse("")
		}
		if issuer.IsZero() {
			return FinalRuling{}, false
		}
		return FinalRuling{
			Arbitrator:   issuer,
			Decision:     r.Decision,
			Reasoning:    firstString(r.Reasoning, r.Decision),
			GoverningLaw: firstString(r.GoverningLaw, raw.GoverningLaw),
			Jurisdiction: firstString(r.Jurisdiction, raw.Jurisdiction),
			AwardID:      r.AwardID.String(),
			IssuedAt:     ProjectTimestamp(r.IssuedAt),
		}, true
	}

	issuer, assigned := arbitrator.Get()
	if raw.Decision.Valid && strings.TrimSpace(raw.Decision.Value) != "" && assigned && !issuer.IsZero() {
		return FinalRuling{
			Arbitrator:   issuer,
			Decision:     raw.Decision.Value,
			Reasoning:    raw.Decision.Value,
			GoverningLaw: raw.GoverningLaw,
			Jurisdiction: raw.Jurisdiction,
			IssuedAt:     updatedAt,
		}, true
	}
	return FinalRuling{}, false
}

func projectAmount(raw canister.RawDispute) Amount {
	minor := big.NewInt(0)
	switch {
	case raw.Amount.Valid:
		minor = raw.Amount.Value.Big()
	case raw.AmountInDispute.Valid:
		minor = raw.AmountInDispute.Value.Big()
	}

	code := currencyCode(raw.Currency)
	info := code.Info()
	return Amount{
		Minor:    minor.String(),
		Major:    money.ToMajorUnits(minor, info.Decimals),
		Currency: code.String(),
		Decimals: info.Decimals,
		Display:  money.Format(minor, code.String()),
	}
}

// currencyCode resolves a ledger currency string. Records without a currency
// are denominated in USD.
func currencyCode(raw string) enums.Currency {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return enums.CurrencyUSD
	}
	if parsed, err := enums.ParseCurrency(trimmed); err == nil {
		return parsed
	}
	return enums.Currency(trimmed)
}

func projectEvidenceType(raw []byte, mimeType string) enums.EvidenceType {
	if variant, ok := wire.ParseVariant(raw); ok {
		for _, tag := range variant.Tags() {
			if parsed, err := enums.ParseEvidenceType(tag); err == nil {
				return parsed
			}
		}
	}
	return enums.EvidenceTypeForMime(mimeType)
}

func projectPrincipal(opt wire.Opt[types.Principal]) types.Optional[types.Principal] {
	if !opt.Valid || opt.Value.IsZero() {
		return types.None[types.Principal]()
	}
	return types.Some(opt.Value)
}

func projectParty(p types.Principal) Party {
	return Party{Principal: p, Short: p.Short()}
}

func firstRecommendation(opts ...wire.Opt[canister.RawRecommendation]) (canister.RawRecommendation, bool) {
	for _, opt := range opts {
		if opt.Valid {
			return opt.Value, true
		}
	}
	return canister.RawRecommendation{}, false
}

func firstPrincipal(values ...types.Principal) types.Principal {
	for _, v := range values {
		if !v.IsZero() {
			return v
		}
	}
	return ""
}

func firstString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func clampConfidence(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// MinorUnits parses the minor-unit amount back into an integer.
func (a Amount) MinorUnits() *big.Int {
	out, ok := new(big.Int).SetString(a.Minor, 10)
	if !ok {
		return big.NewInt(0)
	}
	return out
}
