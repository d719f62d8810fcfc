package rules

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/perkforge/loyalty-engine/internal/domain"
	"github.com/perkforge/loyalty-engine/internal/repository"
)

// DefaultCacheTTL bounds how stale a cached campaign set may be.
const DefaultCacheTTL = 60 * time.Second

// Match is one rule that matched an event, carrying the effects to execute.
// Priority is the rule's advisory priority; matches are returned in
// repository order, never re-sorted.
type Match struct {
	RuleID     uuid.UUID
	CampaignID uuid.UUID
	Effects    []domain.Effect
	Priority   int
}

// Engine evaluates events against the active campaigns of their project.
// Campaign fetches go through a bounded-staleness TTL cache; writers that
// need immediate consistency call ClearCache after mutating campaign data.
type Engine struct {
	campaigns repository.CampaignRepository
	cache     *gocache.Cache
	log       *zap.Logger
}

// NewEngine creates an engine with the given cache TTL. A zero ttl falls
// back to DefaultCacheTTL.
func NewEngine(campaigns repository.CampaignRepository, ttl time.Duration, log *zap.Logger) *Engine {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Engine{
		campaigns: campaigns,
		cache:     gocache.New(ttl, 2*ttl),
		log:       log,
	}
}

// Evaluate returns the matches for an event in campaign/rule repository
// order. Evaluation is read-only apart from cache population.
func (e *Engine) Evaluate(ctx context.Context, event *domain.Event) ([]Match, error) {
	campaigns, err := e.activeCampaigns(ctx, event.ProjectID)
	if err != nil {
		return nil, err
	}

	flat := Flatten(eventPayload(event))
	now := time.Now()

	var matches []Match
	for i := range campaigns {
		campaign := &campaigns[i]
		if !IsLive(campaign, now) {
			continue
		}

		for _, rule := range campaign.Rules {
			if !rule.Active {
				continue
			}
			if len(rule.EventTypes) > 0 && !containsString(rule.EventTypes, event.EventType) {
				continue
			}
			if !EvaluateGroup(rule.Conditions, flat, e.log) {
				continue
			}

			matches = append(matches, Match{
				RuleID:     rule.ID,
				CampaignID: campaign.ID,
				Effects:    rule.Effects,
				Priority:   rule.Priority,
			})
		}
	}

	return matches, nil
}

// ClearCache drops the cached campaigns for one project.
func (e *Engine) ClearCache(projectID string) {
	e.cache.Delete(projectID)
}

// ClearAllCaches drops every cached campaign set.
func (e *Engine) ClearAllCaches() {
	e.cache.Flush()
}

func (e *Engine) activeCampaigns(ctx context.Context, projectID string) ([]domain.Campaign, error) {
	if cached, found := e.cache.Get(projectID); found {
		return cached.([]domain.Campaign), nil
	}

	campaigns, err := e.campaigns.FindActiveCampaigns(ctx, projectID)
	if err != nil {
		return nil, err
	}

	e.cache.SetDefault(projectID, campaigns)
	e.log.Debug("Campaign cache populated",
		zap.String("project_id", projectID),
		zap.Int("campaign_count", len(campaigns)))

	return campaigns, nil
}

// eventPayload builds the map handed to Flatten. Event metadata sits at the
// top level and the business payload under "properties", so condition paths
// look like "properties.total" or "event".
func eventPayload(event *domain.Event) map[string]any {
	payload := map[string]any{
		"event":     event.EventType,
		"projectId": event.ProjectID,
		"timestamp": event.Timestamp.Unix(),
	}
	if event.UserID != "" {
		payload["userId"] = event.UserID
	}
	if len(event.Properties) > 0 {
		payload["properties"] = map[string]any(event.Properties)
	}
	return payload
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
