package disputes

import (
	"encoding/json"
	"strings"

	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	"github.com/angelmondragon/arbitra-backend/pkg/wire"
)

// statusTag is one wire spelling the ledgers have used for a status.
type statusTag struct {
	key       string
	canonical enums.DisputeStatus
}

// statusPriority lists every known tag in lifecycle order. When a malformed
// variant carries several tags the earliest entry wins.
var statusPriority = []statusTag{
	{key: "draft", canonical: enums.DisputeStatusDraft},
	{key: "pending", canonical: enums.DisputeStatusActive},
	{key: "active", canonical: enums.DisputeStatusActive},
	{key: "evidencesubmission", canonical: enums.DisputeStatusEvidenceSubmission},
	{key: "underreview", canonical: enums.DisputeStatusAIAnalysis},
	{key: "aianalysis", canonical: enums.DisputeStatusAIAnalysis},
	{key: "arbitratorreview", canonical: enums.DisputeStatusArbitratorReview},
	{key: "decided", canonical: enums.DisputeStatusDecided},
	{key: "settled", canonical: enums.DisputeStatusSettled},
	{key: "appealed", canonical: enums.DisputeStatusAppealed},
	{key: "closed", canonical: enums.DisputeStatusClosed},
}

var statusRank = func() map[string]int {
	out := make(map[string]int, len(statusPriority))
	for i, tag := range statusPriority {
		out[tag.key] = i
	}
	return out
}()

// NormalizeStatus maps any status representation a ledger may return onto the
// canonical status set. Unknown or malformed input yields Draft.
func NormalizeStatus(raw any) enums.DisputeStatus {
	switch v := raw.(type) {
	case nil:
		return enums.DisputeStatusDraft
	case enums.DisputeStatus:
		if v.IsValid() {
			return v
		}
		return resolveTags([]string{string(v)})
	case string:
		return resolveTags([]string{v})
	case *string:
		if v == nil {
			return enums.DisputeStatusDraft
		}
		return resolveTags([]string{*v})
	case json.RawMessage:
		return normalizeJSON(v)
	case []byte:
		return normalizeJSON(v)
	case wire.Variant:
		return resolveTags(v.Tags())
	case map[string]json.RawMessage:
		return resolveTags(keysOf(v))
	case map[string]any:
		return resolveTags(keysOf(v))
	case map[string]struct{}:
		return resolveTags(keysOf(v))
	default:
		return enums.DisputeStatusDraft
	}
}

func normalizeJSON(data []byte) enums.DisputeStatus {
	variant, ok := wire.ParseVariant(data)
	if !ok {
		return enums.DisputeStatusDraft
	}
	return resolveTags(variant.Tags())
}

// resolveTags picks the highest priority known tag. Map iteration order never
// matters since every candidate is ranked.
func resolveTags(tags []string) enums.DisputeStatus {
	best := -1
	for _, tag := range tags {
		rank, ok := statusRank[statusKey(tag)]
		if !ok {
			continue
		}
		if best < 0 || rank < best {
			best = rank
		}
	}
	if best < 0 {
		return enums.DisputeStatusDraft
	}
	return statusPriority[best].canonical
}

func statusKey(tag string) string {
	var b strings.Builder
	b.Grow(len(tag))
	for _, r := range strings.ToLower(strings.TrimSpace(tag)) {
		switch r {
		case '_', '-', ' ':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func keysOf[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
