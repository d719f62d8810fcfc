package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/perkforge/loyalty-engine/internal/domain"
	"github.com/perkforge/loyalty-engine/internal/repository"
)

// TrackingHandler writes each event to the analytics store.
type TrackingHandler struct {
	analytics repository.AnalyticsRepository
	log       *zap.Logger
}

func NewTrackingHandler(analytics repository.AnalyticsRepository, log *zap.Logger) *TrackingHandler {
	return &TrackingHandler{analytics: analytics, log: log}
}

func (h *TrackingHandler) Name() string { return "tracking" }

func (h *TrackingHandler) Handle(ctx context.Context, event *domain.Event) error {
	properties := "{}"
	if len(event.Properties) > 0 {
		if encoded, err := json.Marshal(event.Properties); err == nil {
			properties = string(encoded)
		}
	}

	row := &domain.TrackedEvent{
		EventID:     event.ID.String(),
		ProjectID:   event.ProjectID,
		UserID:      event.UserID,
		EventType:   event.EventType,
		Timestamp:   event.Timestamp.Unix(),
		Properties:  properties,
		Status:      domain.EventStatusProcessed,
		ProcessedAt: time.Now(),
	}

	if _, err := h.analytics.InsertBatch(ctx, []*domain.TrackedEvent{row}); err != nil {
		return fmt.Errorf("failed to track event: %w", err)
	}
	return nil
}

// QuestHandler advances quest progress for the event's user and grants the
// reward exactly once on completion.
type QuestHandler struct {
	quests repository.QuestRepository
	users  repository.EndUserRepository
	log    *zap.Logger
}

func NewQuestHandler(quests repository.QuestRepository, users repository.EndUserRepository, log *zap.Logger) *QuestHandler {
	return &QuestHandler{quests: quests, users: users, log: log}
}

func (h *QuestHandler) Name() string { return "quest" }

func (h *QuestHandler) Handle(ctx context.Context, event *domain.Event) error {
	if event.UserID == "" {
		return nil
	}

	user, err := h.users.FindByExternalID(ctx, event.ProjectID, event.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	quests, err := h.quests.FindActiveByEventType(ctx, event.ProjectID, event.EventType)
	if err != nil {
		return err
	}

	for _, quest := range quests {
		progress, err := h.quests.GetProgress(ctx, quest.ID, user.ID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			progress = &domain.QuestProgress{QuestID: quest.ID, UserID: user.ID}
		}

		// Completed quests stop counting.
		if progress.CompletedAt != nil {
			continue
		}

		progress.Count++
		if progress.Count >= quest.Target {
			now := time.Now()
			progress.CompletedAt = &now
		}

		if err := h.quests.SaveProgress(ctx, progress); err != nil {
			return err
		}

		if progress.CompletedAt != nil && quest.RewardPoints > 0 {
			reward := quest.RewardPoints
			if err := h.users.Update(ctx, user.ID, domain.EndUserUpdate{LoyaltyPointsDelta: &reward}); err != nil {
				return err
			}
			h.log.Info("Quest completed",
				zap.String("quest_id", quest.ID.String()),
				zap.String("user_id", event.UserID),
				zap.Int64("reward_points", reward))
		}
	}

	return nil
}

// StreakHandler maintains the user's consecutive-day activity streak.
type StreakHandler struct {
	streaks repository.StreakRepository
	users   repository.EndUserRepository
	log     *zap.Logger
}

func NewStreakHandler(streaks repository.StreakRepository, users repository.EndUserRepository, log *zap.Logger) *StreakHandler {
	return &StreakHandler{streaks: streaks, users: users, log: log}
}

func (h *StreakHandler) Name() string { return "streak" }

func (h *StreakHandler) Handle(ctx context.Context, event *domain.Event) error {
	if event.UserID == "" {
		return nil
	}

	user, err := h.users.FindByExternalID(ctx, event.ProjectID, event.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	streak, err := h.streaks.Get(ctx, event.ProjectID, user.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		streak = &domain.Streak{ProjectID: event.ProjectID, UserID: user.ID}
	}

	today := truncateToDay(event.Timestamp)
	lastDay := truncateToDay(streak.LastDay)

	switch {
	case streak.Current == 0:
		streak.Current = 1
	case today.Equal(lastDay):
		// Second event on the same day leaves the streak unchanged.
		return nil
	case lastDay.AddDate(0, 0, 1).Equal(today):
		// Calendar-day step, so DST-shortened or -lengthened days still
		// count as consecutive.
		streak.Current++
	default:
		streak.Current = 1
	}

	if streak.Current > streak.Longest {
		streak.Longest = streak.Current
	}
	streak.LastDay = today

	return h.streaks.Save(ctx, streak)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// BadgeHandler awards badges whose metric threshold the user has reached.
type BadgeHandler struct {
	badges  repository.BadgeRepository
	streaks repository.StreakRepository
	users   repository.EndUserRepository
	log     *zap.Logger
}

func NewBadgeHandler(badges repository.BadgeRepository, streaks repository.StreakRepository, users repository.EndUserRepository, log *zap.Logger) *BadgeHandler {
	return &BadgeHandler{badges: badges, streaks: streaks, users: users, log: log}
}

func (h *BadgeHandler) Name() string { return "badge" }

func (h *BadgeHandler) Handle(ctx context.Context, event *domain.Event) error {
	if event.UserID == "" {
		return nil
	}

	user, err := h.users.FindByExternalID(ctx, event.ProjectID, event.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	badges, err := h.badges.FindActive(ctx, event.ProjectID)
	if err != nil {
		return err
	}
	if len(badges) == 0 {
		return nil
	}

	snapshot := map[string]int64{
		domain.BadgeMetricLoyaltyPoints: user.LoyaltyPoints,
	}
	if streak, err := h.streaks.Get(ctx, event.ProjectID, user.ID); err == nil {
		snapshot[domain.BadgeMetricStreakLongest] = int64(streak.Longest)
	}

	for _, badge := range badges {
		value, known := snapshot[badge.Metric]
		if !known || value < badge.Threshold {
			continue
		}

		awarded, err := h.badges.HasBadge(ctx, badge.ID, user.ID)
		if err != nil {
			return err
		}
		if awarded {
			continue
		}

		if err := h.badges.Award(ctx, badge.ID, user.ID); err != nil {
			return err
		}
		h.log.Info("Badge awarded",
			zap.String("badge_id", badge.ID.String()),
			zap.String("user_id", event.UserID),
			zap.String("metric", badge.Metric))
	}

	return nil
}
