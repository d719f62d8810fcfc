package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/perkforge/loyalty-engine/internal/domain"
	"github.com/perkforge/loyalty-engine/internal/repository"
)

type MockEndUserRepository struct {
	mock.Mock
}

func (m *MockEndUserRepository) FindByExternalID(ctx context.Context, projectID, externalID string) (*domain.EndUser, error) {
	args := m.Called(ctx, projectID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EndUser), args.Error(1)
}

func (m *MockEndUserRepository) Update(ctx context.Context, id uuid.UUID, update domain.EndUserUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

type MockQuestRepository struct {
	mock.Mock
}

func (m *MockQuestRepository) FindActiveByEventType(ctx context.Context, projectID, eventType string) ([]domain.Quest, error) {
	args := m.Called(ctx, projectID, eventType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Quest), args.Error(1)
}

func (m *MockQuestRepository) GetProgress(ctx context.Context, questID, userID uuid.UUID) (*domain.QuestProgress, error) {
	args := m.Called(ctx, questID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuestProgress), args.Error(1)
}

func (m *MockQuestRepository) SaveProgress(ctx context.Context, progress *domain.QuestProgress) error {
	args := m.Called(ctx, progress)
	return args.Error(0)
}

type MockStreakRepository struct {
	mock.Mock
}

func (m *MockStreakRepository) Get(ctx context.Context, projectID string, userID uuid.UUID) (*domain.Streak, error) {
	args := m.Called(ctx, projectID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Streak), args.Error(1)
}

func (m *MockStreakRepository) Save(ctx context.Context, streak *domain.Streak) error {
	args := m.Called(ctx, streak)
	return args.Error(0)
}

type MockBadgeRepository struct {
	mock.Mock
}

func (m *MockBadgeRepository) FindActive(ctx context.Context, projectID string) ([]domain.Badge, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Badge), args.Error(1)
}

func (m *MockBadgeRepository) HasBadge(ctx context.Context, badgeID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, badgeID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBadgeRepository) Award(ctx context.Context, badgeID, userID uuid.UUID) error {
	args := m.Called(ctx, badgeID, userID)
	return args.Error(0)
}

func handlerEvent(eventType string, timestamp time.Time) *domain.Event {
	return &domain.Event{
		ID:        uuid.New(),
		ProjectID: "proj-1",
		UserID:    "ext-user-1",
		EventType: eventType,
		Timestamp: timestamp,
		Status:    domain.EventStatusPending,
	}
}

func testUser() *domain.EndUser {
	return &domain.EndUser{ID: uuid.New(), ProjectID: "proj-1", ExternalID: "ext-user-1"}
}

func TestQuestHandler_Handle_IncrementsProgress(t *testing.T) {
	quests := new(MockQuestRepository)
	users := new(MockEndUserRepository)
	user := testUser()
	quest := domain.Quest{ID: uuid.New(), ProjectID: "proj-1", Target: 5, RewardPoints: 100}

	users.On("FindByExternalID", mock.Anything, "proj-1", "ext-user-1").Return(user, nil)
	quests.On("FindActiveByEventType", mock.Anything, "proj-1", domain.EventOrderCompleted).
		Return([]domain.Quest{quest}, nil)
	quests.On("GetProgress", mock.Anything, quest.ID, user.ID).
		Return(&domain.QuestProgress{QuestID: quest.ID, UserID: user.ID, Count: 2}, nil)
	quests.On("SaveProgress", mock.Anything, mock.MatchedBy(func(p *domain.QuestProgress) bool {
		return p.Count == 3 && p.CompletedAt == nil
	})).Return(nil)

	handler := NewQuestHandler(quests, users, zap.NewNop())
	err := handler.Handle(context.Background(), handlerEvent(domain.EventOrderCompleted, time.Now()))

	assert.NoError(t, err)
	quests.AssertExpectations(t)
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuestHandler_Handle_CompletionGrantsReward(t *testing.T) {
	quests := new(MockQuestRepository)
	users := new(MockEndUserRepository)
	user := testUser()
	quest := domain.Quest{ID: uuid.New(), ProjectID: "proj-1", Target: 3, RewardPoints: 100}

	users.On("FindByExternalID", mock.Anything, "proj-1", "ext-user-1").Return(user, nil)
	quests.On("FindActiveByEventType", mock.Anything, "proj-1", domain.EventOrderCompleted).
		Return([]domain.Quest{quest}, nil)
	quests.On("GetProgress", mock.Anything, quest.ID, user.ID).
		Return(&domain.QuestProgress{QuestID: quest.ID, UserID: user.ID, Count: 2}, nil)
	quests.On("SaveProgress", mock.Anything, mock.MatchedBy(func(p *domain.QuestProgress) bool {
		return p.Count == 3 && p.CompletedAt != nil
	})).Return(nil)
	users.On("Update", mock.Anything, user.ID, mock.MatchedBy(func(u domain.EndUserUpdate) bool {
		return u.LoyaltyPointsDelta != nil && *u.LoyaltyPointsDelta == 100
	})).Return(nil)

	handler := NewQuestHandler(quests, users, zap.NewNop())
	err := handler.Handle(context.Background(), handlerEvent(domain.EventOrderCompleted, time.Now()))

	assert.NoError(t, err)
	users.AssertExpectations(t)
}

func TestQuestHandler_Handle_CompletedQuestStopsCounting(t *testing.T) {
	quests := new(MockQuestRepository)
	users := new(MockEndUserRepository)
	user := testUser()
	quest := domain.Quest{ID: uuid.New(), ProjectID: "proj-1", Target: 3, RewardPoints: 100}
	completed := time.Now().Add(-time.Hour)

	users.On("FindByExternalID", mock.Anything, "proj-1", "ext-user-1").Return(user, nil)
	quests.On("FindActiveByEventType", mock.Anything, "proj-1", domain.EventOrderCompleted).
		Return([]domain.Quest{quest}, nil)
	quests.On("GetProgress", mock.Anything, quest.ID, user.ID).
		Return(&domain.QuestProgress{QuestID: quest.ID, UserID: user.ID, Count: 3, CompletedAt: &completed}, nil)

	handler := NewQuestHandler(quests, users, zap.NewNop())
	err := handler.Handle(context.Background(), handlerEvent(domain.EventOrderCompleted, time.Now()))

	assert.NoError(t, err)
	quests.AssertNotCalled(t, "SaveProgress", mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuestHandler_Handle_UnknownUserIsNoOp(t *testing.T) {
	quests := new(MockQuestRepository)
	users := new(MockEndUserRepository)
	users.On("FindByExternalID", mock.Anything, "proj-1", "ext-user-1").
		Return(nil, repository.ErrNotFound)

	handler := NewQuestHandler(quests, users, zap.NewNop())
	err := handler.Handle(context.Background(), handlerEvent(domain.EventOrderCompleted, time.Now()))

	assert.NoError(t, err)
	quests.AssertNotCalled(t, "FindActiveByEventType", mock.Anything, mock.Anything, mock.Anything)
}

func TestStreakHandler_Handle_FirstEventStartsStreak(t *testing.T) {
	streaks := new(MockStreakRepository)
	users := new(MockEndUserRepository)
	user := testUser()

	users.On("FindByExternalID", mock.Anything, "proj-1", "ext-user-1").Return(user, nil)
	streaks.On("Get", mock.Anything, "proj-1", user.ID).Return(nil, repository.ErrNotFound)
	streaks.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Streak) bool {
		return s.Current == 1 && s.Longest == 1
	})).Return(nil)

	handler := NewStreakHandler(streaks, users, zap.NewNop())
	err := handler.Handle(context.Background(), handlerEvent(domain.EventOrderCompleted, time.Now()))

	assert.NoError(t, err)
	streaks.AssertExpectations(t)
}

func TestStreakHandler_Handle_SameDayIsNoOp(t *testing.T) {
	streaks := new(MockStreakRepository)
	users := new(MockEndUserRepository)
	user := testUser()
	day := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	users.On("FindByExternalID", mock.Anything, "proj-1", "ext-user-1").Return(user, nil)
	streaks.On("Get", mock.Anything, "proj-1", user.ID).
		Return(&domain.Streak{ProjectID: "proj-1", UserID: user.ID, Current: 3, Longest: 5, LastDay: day}, nil)

	handler := NewStreakHandler(streaks, users, zap.NewNop())
	err := handler.Handle(context.Background(), handlerEvent(domain.EventOrderCompleted, day.Add(8*time.Hour)))

	assert.NoError(t, err)
	streaks.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestStreakHandler_Handle_ConsecutiveDayExtends(t *testing.T) {
	streaks := new(MockStreakRepository)
	users := new(MockEndUserRepository)
	user := testUser()
	yesterday := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	users.On("FindByExternalID", mock.Anything, "proj-1", "ext-user-1").Return(user, nil)
	streaks.On("Get", mock.Anything, "proj-1", user.ID).
		Return(&domain.Streak{ProjectID: "proj-1", UserID: user.ID, Current: 5, Longest: 5, LastDay: yesterday}, nil)
	streaks.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Streak) bool {
		return s.Current == 6 && s.Longest == 6
	})).Return(nil)

	handler := NewStreakHandler(streaks, users, zap.NewNop())
	err := handler.Handle(context.Background(), handlerEvent(domain.EventOrderCompleted, time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)))

	assert.NoError(t, err)
	streaks.AssertExpectations(t)
}

func TestStreakHandler_Handle_ExtendsAcrossShortDSTDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	streaks := new(MockStreakRepository)
	users := new(MockEndUserRepository)
	user := testUser()

	// Spring forward on 2026-03-08 makes the following midnight-to-midnight
	// span 23 hours; the days are still consecutive.
	lastDay := time.Date(2026, 3, 8, 0, 0, 0, 0, loc)
	nextEvent := time.Date(2026, 3, 9, 10, 0, 0, 0, loc)

	users.On("FindByExternalID", mock.Anything, "proj-1", "ext-user-1").Return(user, nil)
	streaks.On("Get", mock.Anything, "proj-1", user.ID).
		Return(&domain.Streak{ProjectID: "proj-1", UserID: user.ID, Current: 4, Longest: 4, LastDay: lastDay}, nil)
	streaks.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Streak) bool {
		return s.Current == 5 && s.Longest == 5
	})).Return(nil)

	handler := NewStreakHandler(streaks, users, zap.NewNop())
	err = handler.Handle(context.Background(), handlerEvent(domain.EventOrderCompleted, nextEvent))

	assert.NoError(t, err)
	streaks.AssertExpectations(t)
}

func TestStreakHandler_Handle_ExtendsAcrossLongDSTDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	streaks := new(MockStreakRepository)
	users := new(MockEndUserRepository)
	user := testUser()

	// Fall back on 2026-11-01 makes that day 25 hours long.
	lastDay := time.Date(2026, 11, 1, 0, 0, 0, 0, loc)
	nextEvent := time.Date(2026, 11, 2, 8, 0, 0, 0, loc)

	users.On("FindByExternalID", mock.Anything, "proj-1", "ext-user-1").Return(user, nil)
	streaks.On("Get", mock.Anything, "proj-1", user.ID).
		Return(&domain.Streak{ProjectID: "proj-1", UserID: user.ID, Current: 2, Longest: 6, LastDay: lastDay}, nil)
	streaks.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Streak) bool {
		return s.Current == 3 && s.Longest == 6
	})).Return(nil)

	handler := NewStreakHandler(streaks, users, zap.NewNop())
	err = handler.Handle(context.Background(), handlerEvent(domain.EventOrderCompleted, nextEvent))

	assert.NoError(t, err)
	streaks.AssertExpectations(t)
}

func TestStreakHandler_Handle_GapResetsStreak(t *testing.T) {
	streaks := new(MockStreakRepository)
	users := new(MockEndUserRepository)
	user := testUser()
	lastWeek := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	users.On("FindByExternalID", mock.Anything, "proj-1", "ext-user-1").Return(user, nil)
	streaks.On("Get", mock.Anything, "proj-1", user.ID).
		Return(&domain.Streak{ProjectID: "proj-1", UserID: user.ID, Current: 9, Longest: 9, LastDay: lastWeek}, nil)
	streaks.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Streak) bool {
		return s.Current == 1 && s.Longest == 9
	})).Return(nil)

	handler := NewStreakHandler(streaks, users, zap.NewNop())
	err := handler.Handle(context.Background(), handlerEvent(domain.EventOrderCompleted, time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)))

	assert.NoError(t, err)
	streaks.AssertExpectations(t)
}

func TestBadgeHandler_Handle_AwardsOnThreshold(t *testing.T) {
	badges := new(MockBadgeRepository)
	streaks := new(MockStreakRepository)
	users := new(MockEndUserRepository)
	user := testUser()
	user.LoyaltyPoints = 1200
	badge := domain.Badge{
		ID:        uuid.New(),
		ProjectID: "proj-1",
		Metric:    domain.BadgeMetricLoyaltyPoints,
		Threshold: 1000,
	}

	users.On("FindByExternalID", mock.Anything, "proj-1", "ext-user-1").Return(user, nil)
	badges.On("FindActive", mock.Anything, "proj-1").Return([]domain.Badge{badge}, nil)
	streaks.On("Get", mock.Anything, "proj-1", user.ID).Return(nil, repository.ErrNotFound)
	badges.On("HasBadge", mock.Anything, badge.ID, user.ID).Return(false, nil)
	badges.On("Award", mock.Anything, badge.ID, user.ID).Return(nil)

	handler := NewBadgeHandler(badges, streaks, users, zap.NewNop())
	err := handler.Handle(context.Background(), handlerEvent(domain.EventOrderCompleted, time.Now()))

	assert.NoError(t, err)
	badges.AssertExpectations(t)
}

func TestBadgeHandler_Handle_NeverAwardsTwice(t *testing.T) {
	badges := new(MockBadgeRepository)
	streaks := new(MockStreakRepository)
	users := new(MockEndUserRepository)
	user := testUser()
	user.LoyaltyPoints = 1200
	badge := domain.Badge{ID: uuid.New(), ProjectID: "proj-1", Metric: domain.BadgeMetricLoyaltyPoints, Threshold: 1000}

	users.On("FindByExternalID", mock.Anything, "proj-1", "ext-user-1").Return(user, nil)
	badges.On("FindActive", mock.Anything, "proj-1").Return([]domain.Badge{badge}, nil)
	streaks.On("Get", mock.Anything, "proj-1", user.ID).Return(nil, repository.ErrNotFound)
	badges.On("HasBadge", mock.Anything, badge.ID, user.ID).Return(true, nil)

	handler := NewBadgeHandler(badges, streaks, users, zap.NewNop())
	err := handler.Handle(context.Background(), handlerEvent(domain.EventOrderCompleted, time.Now()))

	assert.NoError(t, err)
	badges.AssertNotCalled(t, "Award", mock.Anything, mock.Anything, mock.Anything)
}

func TestBadgeHandler_Handle_StreakMetricUsesLongest(t *testing.T) {
	badges := new(MockBadgeRepository)
	streaks := new(MockStreakRepository)
	users := new(MockEndUserRepository)
	user := testUser()
	badge := domain.Badge{ID: uuid.New(), ProjectID: "proj-1", Metric: domain.BadgeMetricStreakLongest, Threshold: 7}

	users.On("FindByExternalID", mock.Anything, "proj-1", "ext-user-1").Return(user, nil)
	badges.On("FindActive", mock.Anything, "proj-1").Return([]domain.Badge{badge}, nil)
	streaks.On("Get", mock.Anything, "proj-1", user.ID).
		Return(&domain.Streak{ProjectID: "proj-1", UserID: user.ID, Current: 2, Longest: 8}, nil)
	badges.On("HasBadge", mock.Anything, badge.ID, user.ID).Return(false, nil)
	badges.On("Award", mock.Anything, badge.ID, user.ID).Return(nil)

	handler := NewBadgeHandler(badges, streaks, users, zap.NewNop())
	err := handler.Handle(context.Background(), handlerEvent(domain.EventOrderCompleted, time.Now()))

	assert.NoError(t, err)
	badges.AssertExpectations(t)
}

func TestBadgeHandler_Handle_BelowThresholdNoAward(t *testing.T) {
	badges := new(MockBadgeRepository)
	streaks := new(MockStreakRepository)
	users := new(MockEndUserRepository)
	user := testUser()
	user.LoyaltyPoints = 500
	badge := domain.Badge{ID: uuid.New(), ProjectID: "proj-1", Metric: domain.BadgeMetricLoyaltyPoints, Threshold: 1000}

	users.On("FindByExternalID", mock.Anything, "proj-1", "ext-user-1").Return(user, nil)
	badges.On("FindActive", mock.Anything, "proj-1").Return([]domain.Badge{badge}, nil)
	streaks.On("Get", mock.Anything, "proj-1", user.ID).Return(nil, repository.ErrNotFound)

	handler := NewBadgeHandler(badges, streaks, users, zap.NewNop())
	err := handler.Handle(context.Background(), handlerEvent(domain.EventOrderCompleted, time.Now()))

	assert.NoError(t, err)
	badges.AssertNotCalled(t, "HasBadge", mock.Anything, mock.Anything, mock.Anything)
}
