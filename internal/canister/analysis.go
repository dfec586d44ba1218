package canister

import "context"

// AnalysisEngine produces advisory recommendations.
type AnalysisEngine interface {
	TriggerAnalysis(ctx context.Context, disputeID string) error
	GetAnalysis(ctx context.Context, disputeID string) (*RawRecommendation, bool, error)
}

func (c *Client) TriggerAnalysis(ctx context.Context, disputeID string) error {
	return callUnit(ctx, c, c.names.AnalysisEngine, "analyzeDispute", disputeID)
}

func (c *Client) GetAnalysis(ctx context.Context, disputeID string) (*RawRecommendation, bool, error) {
	return callOpt[RawRecommendation](ctx, c, c.names.AnalysisEngine, "getAnalysis", disputeID)
}
