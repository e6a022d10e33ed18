package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"justbot/models"
)

func TestGuildConfigService_GetConfig_FallsBackToDefaults(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockConfigRepo := new(MockGuildConfigRepository)

	mockUoW.SetRepositories(MockRepositories{GuildConfig: mockConfigRepo})

	service := NewGuildConfigService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockConfigRepo.On("Get", ctx, int64(789)).Return(nil, nil)

	config, err := service.GetConfig(ctx, 789)

	assert.NoError(t, err)
	assert.Equal(t, int64(789), config.GuildID)
	assert.Equal(t, int64(models.DefaultVehicleRegistrationFee), config.VehicleRegistrationFee)
	assert.Equal(t, models.DefaultLoanInterestRate, config.LoanInterestRate)
	assert.True(t, config.LoanEnabled)
	assert.False(t, config.VehicleWorkflowConfigured())
}

func TestGuildConfigService_IsCommandEnabled_DefaultsToEnabled(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockCommandRepo := new(MockCommandStateRepository)

	mockUoW.SetRepositories(MockRepositories{CommandState: mockCommandRepo})

	service := NewGuildConfigService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockCommandRepo.On("IsEnabled", ctx, int64(789), "dice").Return(true, nil)
	mockCommandRepo.On("IsEnabled", ctx, int64(789), "loan").Return(false, nil)

	enabled, err := service.IsCommandEnabled(ctx, 789, "dice")
	assert.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = service.IsCommandEnabled(ctx, 789, "loan")
	assert.NoError(t, err)
	assert.False(t, enabled)
}

func TestStatusService_IsOnline(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name   string
		status *models.BotStatus
		online bool
	}{
		{"fresh heartbeat", &models.BotStatus{LastHeartbeat: time.Now().Add(-30 * time.Second)}, true},
		{"stale heartbeat", &models.BotStatus{LastHeartbeat: time.Now().Add(-10 * time.Minute)}, false},
		{"never seen", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockUoW := new(MockUnitOfWork)
			mockFactory := new(MockUnitOfWorkFactory)
			mockStatusRepo := new(MockBotStatusRepository)

			mockUoW.SetRepositories(MockRepositories{BotStatus: mockStatusRepo})

			service := NewStatusService(mockFactory, "justbot")

			mockFactory.On("Create").Return(mockUoW)
			mockUoW.On("Begin", ctx).Return(nil)
			mockUoW.On("Commit").Return(nil)
			mockUoW.On("Rollback").Return(nil)
			mockStatusRepo.On("GetStatus", ctx, "justbot").Return(tc.status, nil)

			online, _, err := service.IsOnline(ctx)

			assert.NoError(t, err)
			assert.Equal(t, tc.online, online)
		})
	}
}
