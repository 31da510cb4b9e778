package dto

// RuleDispatchResult is the per-rule outcome returned in the webhook response
type RuleDispatchResult struct {
	RuleID       uint    `json:"ruleId"`
	CampaignID   *uint   `json:"campaignId,omitempty"`
	Success      bool    `json:"success"`
	DelaySeconds int     `json:"delaySeconds,omitempty"`
	Error        *string `json:"error,omitempty"`
}

// WebhookResponse is the body answered to a provider webhook delivery.
// Duplicate deliveries are a successful no-op distinguished only by the
// deduplicated marker.
type WebhookResponse struct {
	Success      bool                 `json:"success"`
	Message      string               `json:"message"`
	EventID      *string              `json:"event_id,omitempty"`
	Deduplicated bool                 `json:"deduplicated,omitempty"`
	Results      []RuleDispatchResult `json:"results,omitempty"`
}
