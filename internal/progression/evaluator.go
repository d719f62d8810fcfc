package progression

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/perkforge/loyalty-engine/internal/domain"
	"github.com/perkforge/loyalty-engine/internal/queue"
	"github.com/perkforge/loyalty-engine/internal/repository"
)

// qualifyingEvents is the fixed allow-list the evaluator reacts to.
// Purchase/checkout events deliberately stay out; those belong to the rule
// engine path and routing them here would double-process users.
var qualifyingEvents = map[string]bool{
	domain.EventUserSignup:        true,
	domain.EventReferralConverted: true,
	domain.EventCommissionCreated: true,
}

// Evaluator upgrades a user's commission plan once a progression rule's
// threshold metric is met. The read-compute-write sequence has no
// transactional guard; it is safe because one partition (project) is
// processed by a single consumer at a time.
type Evaluator struct {
	users     repository.EndUserRepository
	rules     repository.ProgressionRuleRepository
	referrals repository.ReferralRepository
	ledger    repository.CommissionRepository
	publisher queue.Publisher
	log       *zap.Logger
}

// NewEvaluator creates a progression evaluator.
func NewEvaluator(
	users repository.EndUserRepository,
	rules repository.ProgressionRuleRepository,
	referrals repository.ReferralRepository,
	ledger repository.CommissionRepository,
	publisher queue.Publisher,
	log *zap.Logger,
) *Evaluator {
	return &Evaluator{
		users:     users,
		rules:     rules,
		referrals: referrals,
		ledger:    ledger,
		publisher: publisher,
		log:       log,
	}
}

// Qualifies reports whether the evaluator should see this event type.
func (e *Evaluator) Qualifies(eventType string) bool {
	return qualifyingEvents[eventType]
}

// HandleEvent evaluates the progression rules for the event's user. Events
// without a user, unknown users and projects without rules are all no-ops.
func (e *Evaluator) HandleEvent(ctx context.Context, event *domain.Event) error {
	if !e.Qualifies(event.EventType) || event.UserID == "" {
		return nil
	}

	user, err := e.users.FindByExternalID(ctx, event.ProjectID, event.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to resolve user: %w", err)
	}

	rules, err := e.rules.FindActive(ctx, event.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to load progression rules: %w", err)
	}
	if len(rules) == 0 {
		return nil
	}

	metrics, err := e.metricSnapshot(ctx, user)
	if err != nil {
		return err
	}

	// Of the rules whose threshold is met, the highest threshold wins.
	// Priority is advisory and does not participate in selection.
	var target *domain.ProgressionRule
	for i := range rules {
		rule := &rules[i]
		value, known := metrics[rule.TriggerMetric]
		if !known || value < rule.Threshold {
			continue
		}
		if target == nil || rule.Threshold > target.Threshold {
			target = rule
		}
	}
	if target == nil {
		return nil
	}

	// Idempotency guard: re-running with the same metrics is a no-op.
	if user.CommissionPlanID != nil && *user.CommissionPlanID == target.TargetPlanID {
		return nil
	}

	planID := target.TargetPlanID
	if err := e.users.Update(ctx, user.ID, domain.EndUserUpdate{CommissionPlanID: &planID}); err != nil {
		return fmt.Errorf("failed to upgrade user plan: %w", err)
	}

	e.log.Info("User leveled up",
		zap.String("project_id", event.ProjectID),
		zap.String("user_id", event.UserID),
		zap.String("plan_id", planID.String()),
		zap.String("trigger_metric", target.TriggerMetric))

	msg := &domain.RawEventMessage{
		ProjectID: event.ProjectID,
		UserID:    event.UserID,
		Event:     domain.EventUserLeveledUp,
		Properties: map[string]any{
			"planId":        planID.String(),
			"triggerMetric": target.TriggerMetric,
			"threshold":     target.Threshold,
		},
		Timestamp:  time.Now().Unix(),
		ReceivedAt: time.Now().Unix(),
	}
	if err := e.publisher.PublishEvent(ctx, msg, user.ID.String()+":"+planID.String()); err != nil {
		// The plan change is durable; the announcement is best effort.
		e.log.Warn("Failed to publish user.leveled_up",
			zap.String("user_id", event.UserID),
			zap.Error(err))
	}

	return nil
}

// metricSnapshot merges the referral count and the commission ledger
// summary into one lookup keyed by trigger metric name.
func (e *Evaluator) metricSnapshot(ctx context.Context, user *domain.EndUser) (map[string]int64, error) {
	referralCount, err := e.referrals.CountConverted(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}

	summary, err := e.ledger.SummaryForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize commissions: %w", err)
	}

	return map[string]int64{
		domain.MetricReferralCount:           referralCount,
		domain.MetricCommissionCount:         summary.Count,
		domain.MetricLifetimeCommissionCents: summary.TotalCents,
	}, nil
}
