package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"justbot/events"
	"justbot/models"
)

func TestModerationService_Warn_AutoKickAtExactThreshold(t *testing.T) {
	ctx := context.Background()

	config := models.NewGuildConfig(789, "guild")
	config.AutoKickWarnCount = 3

	cases := []struct {
		name      string
		count     int
		autoKick  bool
	}{
		{"below threshold", 2, false},
		{"at threshold", 3, true},
		{"past threshold", 4, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockUoW := new(MockUnitOfWork)
			mockFactory := new(MockUnitOfWorkFactory)
			mockWarningRepo := new(MockWarningRepository)
			mockConfigRepo := new(MockGuildConfigRepository)
			mockPublisher := new(MockEventPublisher)

			mockUoW.SetRepositories(MockRepositories{
				Warning:     mockWarningRepo,
				GuildConfig: mockConfigRepo,
				EventBus:    mockPublisher,
			})

			service := NewModerationService(mockFactory)

			mockFactory.On("Create").Return(mockUoW)
			mockUoW.On("Begin", ctx).Return(nil)
			mockUoW.On("Commit").Return(nil)
			mockUoW.On("Rollback").Return(nil)

			mockConfigRepo.On("Get", ctx, int64(789)).Return(config, nil)
			mockWarningRepo.On("Create", ctx, mock.Anything).Return(nil)
			mockWarningRepo.On("CountByUser", ctx, int64(789), int64(123456)).Return(tc.count, nil)
			mockPublisher.On("Publish", mock.AnythingOfType("events.WarningIssuedEvent")).Return()

			result, err := service.Warn(ctx, &models.Warning{
				GuildID:   789,
				DiscordID: 123456,
				Reason:    "spamming",
			})

			assert.NoError(t, err)
			assert.Equal(t, tc.count, result.TotalCount)
			assert.Equal(t, 3, result.Threshold)
			assert.Equal(t, tc.autoKick, result.AutoKickTriggered)
		})
	}
}

func TestModerationService_Warn_DefaultThresholdWithoutConfig(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockWarningRepo := new(MockWarningRepository)
	mockConfigRepo := new(MockGuildConfigRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(MockRepositories{
		Warning:     mockWarningRepo,
		GuildConfig: mockConfigRepo,
		EventBus:    mockPublisher,
	})

	service := NewModerationService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockConfigRepo.On("Get", ctx, int64(789)).Return(nil, nil)
	mockWarningRepo.On("Create", ctx, mock.Anything).Return(nil)
	mockWarningRepo.On("CountByUser", ctx, int64(789), int64(123456)).Return(1, nil)
	mockPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		issued, ok := e.(events.WarningIssuedEvent)
		return ok && issued.Threshold == models.DefaultAutoKickWarnCount
	})).Return()

	result, err := service.Warn(ctx, &models.Warning{GuildID: 789, DiscordID: 123456})

	assert.NoError(t, err)
	assert.Equal(t, models.DefaultAutoKickWarnCount, result.Threshold)
	mockPublisher.AssertExpectations(t)
}

func TestModerationService_RemoveWarningByOrdinal(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockWarningRepo := new(MockWarningRepository)

	mockUoW.SetRepositories(MockRepositories{Warning: mockWarningRepo})

	service := NewModerationService(mockFactory)

	// Oldest first, so ordinal 2 is the middle warning
	warnings := []*models.Warning{
		{ID: 10, GuildID: 789, DiscordID: 123456, Reason: "first"},
		{ID: 20, GuildID: 789, DiscordID: 123456, Reason: "second"},
		{ID: 30, GuildID: 789, DiscordID: 123456, Reason: "third"},
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockWarningRepo.On("GetByUser", ctx, int64(789), int64(123456)).Return(warnings, nil)
	mockWarningRepo.On("Delete", ctx, int64(20)).Return(nil)

	removed, err := service.RemoveWarningByOrdinal(ctx, 789, 123456, 2)

	assert.NoError(t, err)
	assert.Equal(t, "second", removed.Reason)
	mockWarningRepo.AssertExpectations(t)
}

func TestModerationService_RemoveWarningByOrdinal_OutOfRange(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockWarningRepo := new(MockWarningRepository)

	mockUoW.SetRepositories(MockRepositories{Warning: mockWarningRepo})

	service := NewModerationService(mockFactory)

	warnings := []*models.Warning{
		{ID: 10, GuildID: 789, DiscordID: 123456},
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockWarningRepo.On("GetByUser", ctx, int64(789), int64(123456)).Return(warnings, nil)

	_, err := service.RemoveWarningByOrdinal(ctx, 789, 123456, 2)
	assert.ErrorIs(t, err, ErrWarningNotFound)

	_, err = service.RemoveWarningByOrdinal(ctx, 789, 123456, 0)
	assert.ErrorIs(t, err, ErrWarningNotFound)

	mockWarningRepo.AssertNotCalled(t, "Delete")
}

func TestModerationService_SecurityReport(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockWarningRepo := new(MockWarningRepository)
	mockTicketRepo := new(MockTicketRepository)
	mockBlacklistRepo := new(MockBlacklistRepository)
	mockVehicleRepo := new(MockVehicleRepository)

	mockUoW.SetRepositories(MockRepositories{
		Warning:   mockWarningRepo,
		Ticket:    mockTicketRepo,
		Blacklist: mockBlacklistRepo,
		Vehicle:   mockVehicleRepo,
	})

	service := NewModerationService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockWarningRepo.On("CountByGuild", ctx, int64(789)).Return(int64(12), nil)
	mockTicketRepo.On("CountOpenByGuild", ctx, int64(789)).Return(int64(3), nil)
	mockBlacklistRepo.On("GetAll", ctx).Return([]*models.BlacklistedUser{
		{DiscordID: 1}, {DiscordID: 2},
	}, nil)
	mockVehicleRepo.On("CountPendingByGuild", ctx, int64(789)).Return(int64(4), nil)

	report, err := service.SecurityReport(ctx, 789)

	assert.NoError(t, err)
	assert.Equal(t, int64(12), report.WarningCount)
	assert.Equal(t, int64(3), report.OpenTicketCount)
	assert.Equal(t, int64(2), report.BlacklistCount)
	assert.Equal(t, 4, report.PendingRegistrations)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestModerationService_Unblacklist(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockBlacklistRepo := new(MockBlacklistRepository)

	mockUoW.SetRepositories(MockRepositories{Blacklist: mockBlacklistRepo})

	service := NewModerationService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockBlacklistRepo.On("Remove", ctx, int64(123456)).Return(true, nil)

	removed, err := service.Unblacklist(ctx, 123456)

	assert.NoError(t, err)
	assert.True(t, removed)
}
