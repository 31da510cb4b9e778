// Package businessflow contains the core business logic and use cases for rule-driven campaign dispatch
package businessflow

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
)

// DispatchFlow fans one processed event out to the campaigns of its matching
// automation rules
type DispatchFlow interface {
	DispatchEvent(ctx context.Context, event *models.WebhookEvent) ([]dto.RuleDispatchResult, error)
}

// DispatchFlowImpl implements the dispatch business flow
type DispatchFlowImpl struct {
	ruleRepo    repository.AutomationRuleRepository
	contactRepo repository.CampaignContactRepository
	eventRepo   repository.WebhookEventRepository
}

// NewDispatchFlow creates a new dispatch flow instance
func NewDispatchFlow(
	ruleRepo repository.AutomationRuleRepository,
	contactRepo repository.CampaignContactRepository,
	eventRepo repository.WebhookEventRepository,
) DispatchFlow {
	return &DispatchFlowImpl{
		ruleRepo:    ruleRepo,
		contactRepo: contactRepo,
		eventRepo:   eventRepo,
	}
}

// DispatchEvent looks up the active rules for the event's (instance,
// integration, event type) and upserts one campaign contact per rule. A
// misconfigured or failing rule is reported in its result entry and never
// blocks sibling rules. The event is always marked processed afterwards,
// carrying the first campaign that succeeded or an aggregate error.
func (s *DispatchFlowImpl) DispatchEvent(ctx context.Context, event *models.WebhookEvent) ([]dto.RuleDispatchResult, error) {
	rules, err := s.ruleRepo.ListActive(ctx, event.InstanceID, event.IntegrationID, event.EventType)
	if err != nil {
		return nil, NewBusinessError("RULE_LOOKUP_FAILED", "Failed to load automation rules", err)
	}

	if len(rules) == 0 {
		if err := s.eventRepo.MarkProcessed(ctx, event.ID, nil, utils.ToPtr(ErrNoActiveRules.Error())); err != nil {
			return nil, NewBusinessError("EVENT_UPDATE_FAILED", "Failed to mark event processed", err)
		}
		return []dto.RuleDispatchResult{}, nil
	}

	results := make([]dto.RuleDispatchResult, 0, len(rules))
	var firstCampaignID *uint
	var failures []string

	for _, rule := range rules {
		result := s.dispatchRule(ctx, event, rule)
		results = append(results, result)
		if result.Success {
			if firstCampaignID == nil {
				firstCampaignID = result.CampaignID
			}
		} else if result.Error != nil {
			failures = append(failures, fmt.Sprintf("rule %d: %s", rule.ID, *result.Error))
		}
	}

	var aggregateErr *string
	if firstCampaignID == nil && len(failures) > 0 {
		aggregateErr = utils.ToPtr(strings.Join(failures, "; "))
	}
	if err := s.eventRepo.MarkProcessed(ctx, event.ID, firstCampaignID, aggregateErr); err != nil {
		return nil, NewBusinessError("EVENT_UPDATE_FAILED", "Failed to mark event processed", err)
	}

	return results, nil
}

func (s *DispatchFlowImpl) dispatchRule(ctx context.Context, event *models.WebhookEvent, rule *models.AutomationRule) dto.RuleDispatchResult {
	if !rule.HasCampaign() {
		return dto.RuleDispatchResult{
			RuleID: rule.ID,
			Error:  utils.ToPtr(ErrRuleWithoutCampaign.Error()),
		}
	}

	delay := computeDelay(rule)
	contact := &models.CampaignContact{
		CampaignID: *rule.CampaignID,
		Phone:      *event.Normalized.CustomerPhone,
		Name:       event.Normalized.CustomerName,
		Status:     models.ContactStatusPending,
		Metadata: models.ContactMetadata{
			Source:       utils.WebhookSource,
			EventType:    event.EventType.String(),
			EventID:      event.ExternalID,
			OrderValue:   event.Normalized.OrderValue,
			ProductName:  event.Normalized.ProductName,
			OfferName:    event.Normalized.OfferName,
			DelaySeconds: delay,
		},
	}

	if err := s.contactRepo.Upsert(ctx, contact); err != nil {
		return dto.RuleDispatchResult{
			RuleID:     rule.ID,
			CampaignID: rule.CampaignID,
			Error:      utils.ToPtr(err.Error()),
		}
	}

	return dto.RuleDispatchResult{
		RuleID:       rule.ID,
		CampaignID:   rule.CampaignID,
		Success:      true,
		DelaySeconds: delay,
	}
}

// computeDelay draws a uniform delay in [DelaySeconds, MaxDelaySeconds) when
// the rule defines a window, otherwise uses the base delay exactly. The delay
// is handed to the downstream campaign sender as contact metadata; the
// gateway never sleeps on it.
func computeDelay(rule *models.AutomationRule) int {
	if rule.MaxDelaySeconds > rule.DelaySeconds {
		return rule.DelaySeconds + rand.Intn(rule.MaxDelaySeconds-rule.DelaySeconds)
	}
	return rule.DelaySeconds
}
