package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"justbot/events"
	"justbot/models"
)

func configuredVehicleGuild(guildID int64) *models.GuildConfig {
	config := models.NewGuildConfig(guildID, "guild")
	registrationChannel := int64(1001)
	adminChannel := int64(1002)
	adminRole := int64(1003)
	approvedChannel := int64(1004)
	config.RegistrationChannelID = &registrationChannel
	config.VehicleAdminChannelID = &adminChannel
	config.VehicleAdminRoleID = &adminRole
	config.ApprovedVehicleChannelID = &approvedChannel
	return config
}

func TestVehicleService_Submit_DebitsFeeAndCreatesPending(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockVehicleRepo := new(MockVehicleRepository)
	mockLedgerRepo := new(MockLedgerEntryRepository)
	mockConfigRepo := new(MockGuildConfigRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(MockRepositories{
		Account:     mockAccountRepo,
		Vehicle:     mockVehicleRepo,
		Ledger:      mockLedgerRepo,
		GuildConfig: mockConfigRepo,
		EventBus:    mockPublisher,
	})

	service := NewVehicleService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockConfigRepo.On("Get", ctx, int64(789)).Return(configuredVehicleGuild(789), nil)
	mockAccountRepo.On("GetByDiscordID", ctx, int64(123456)).Return(&models.Account{
		DiscordID: 123456, Balance: 100_000,
	}, nil)
	mockAccountRepo.On("DeductBalance", ctx, int64(123456), int64(models.DefaultVehicleRegistrationFee)).Return(nil)

	before := time.Now()
	mockVehicleRepo.On("Create", ctx, mock.MatchedBy(func(r *models.VehicleRegistration) bool {
		return r.Status == models.VehicleStatusPending &&
			r.VehicleName == "bicycle" &&
			r.Fee == models.DefaultVehicleRegistrationFee &&
			r.ReviewBy.After(before.Add(4*time.Minute)) &&
			r.ReviewBy.Before(before.Add(6*time.Minute))
	})).Return(nil)
	mockLedgerRepo.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.EntryType == models.EntryTypeVehicleFee &&
			e.ChangeAmount == -models.DefaultVehicleRegistrationFee
	})).Return(nil)
	mockPublisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()

	reg, err := service.Submit(ctx, 789, 123456, "tester", "bicycle")

	assert.NoError(t, err)
	assert.Equal(t, models.VehicleStatusPending, reg.Status)

	mockVehicleRepo.AssertExpectations(t)
	mockAccountRepo.AssertExpectations(t)
}

func TestVehicleService_Submit_ForbiddenVehicleCostsNothing(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockVehicleRepo := new(MockVehicleRepository)
	mockLedgerRepo := new(MockLedgerEntryRepository)
	mockConfigRepo := new(MockGuildConfigRepository)

	mockUoW.SetRepositories(MockRepositories{
		Account:     mockAccountRepo,
		Vehicle:     mockVehicleRepo,
		Ledger:      mockLedgerRepo,
		GuildConfig: mockConfigRepo,
	})

	service := NewVehicleService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockConfigRepo.On("Get", ctx, int64(789)).Return(configuredVehicleGuild(789), nil)

	reg, err := service.Submit(ctx, 789, 123456, "tester", "Tank")

	assert.ErrorIs(t, err, ErrForbiddenVehicle)
	assert.Nil(t, reg)

	// The forbidden check runs before the fee debit
	mockAccountRepo.AssertNotCalled(t, "DeductBalance")
	mockVehicleRepo.AssertNotCalled(t, "Create")
	mockLedgerRepo.AssertNotCalled(t, "Record")
}

func TestVehicleService_Submit_WorkflowUnconfigured(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockConfigRepo := new(MockGuildConfigRepository)

	mockUoW.SetRepositories(MockRepositories{
		Account:     mockAccountRepo,
		GuildConfig: mockConfigRepo,
	})

	service := NewVehicleService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockConfigRepo.On("Get", ctx, int64(789)).Return(models.NewGuildConfig(789, "guild"), nil)

	_, err := service.Submit(ctx, 789, 123456, "tester", "bicycle")

	assert.ErrorIs(t, err, ErrWorkflowUnconfigured)
	mockAccountRepo.AssertNotCalled(t, "DeductBalance")
}

func TestVehicleService_Approve(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockVehicleRepo := new(MockVehicleRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(MockRepositories{
		Vehicle:  mockVehicleRepo,
		EventBus: mockPublisher,
	})

	service := NewVehicleService(mockFactory)

	reviewerID := int64(999)
	approved := &models.VehicleRegistration{
		ID: 42, GuildID: 789, DiscordID: 123456,
		VehicleName: "bicycle",
		Status:      models.VehicleStatusApproved,
		ReviewerID:  &reviewerID,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockVehicleRepo.On("Transition", ctx, int64(42), models.VehicleStatusApproved,
		mock.MatchedBy(func(id *int64) bool { return id != nil && *id == 999 }),
		(*string)(nil)).Return(true, nil)
	mockVehicleRepo.On("GetByID", ctx, int64(42)).Return(approved, nil)
	mockPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		decided, ok := e.(events.VehicleDecidedEvent)
		return ok && decided.RegistrationID == 42 && decided.Status == models.VehicleStatusApproved
	})).Return()

	reg, err := service.Approve(ctx, 42, 999)

	assert.NoError(t, err)
	assert.Equal(t, models.VehicleStatusApproved, reg.Status)
	mockVehicleRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestVehicleService_Approve_NotPending(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockVehicleRepo := new(MockVehicleRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(MockRepositories{
		Vehicle:  mockVehicleRepo,
		EventBus: mockPublisher,
	})

	service := NewVehicleService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// Already decided; the guarded transition matches no rows
	mockVehicleRepo.On("Transition", ctx, int64(42), models.VehicleStatusApproved,
		mock.Anything, mock.Anything).Return(false, nil)

	reg, err := service.Approve(ctx, 42, 999)

	assert.ErrorIs(t, err, ErrNotPending)
	assert.Nil(t, reg)
	mockPublisher.AssertNotCalled(t, "Publish", mock.Anything)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestVehicleService_Reject_PassesReason(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockVehicleRepo := new(MockVehicleRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(MockRepositories{
		Vehicle:  mockVehicleRepo,
		EventBus: mockPublisher,
	})

	service := NewVehicleService(mockFactory)

	rejected := &models.VehicleRegistration{
		ID: 42, Status: models.VehicleStatusRejected,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockVehicleRepo.On("Transition", ctx, int64(42), models.VehicleStatusRejected,
		mock.Anything,
		mock.MatchedBy(func(reason *string) bool { return reason != nil && *reason == "no papers" }),
	).Return(true, nil)
	mockVehicleRepo.On("GetByID", ctx, int64(42)).Return(rejected, nil)
	mockPublisher.On("Publish", mock.AnythingOfType("events.VehicleDecidedEvent")).Return()

	reg, err := service.Reject(ctx, 42, 999, "no papers")

	assert.NoError(t, err)
	assert.Equal(t, models.VehicleStatusRejected, reg.Status)
	mockVehicleRepo.AssertExpectations(t)
}

func TestVehicleService_ExpireOverdue_SkipsRacedDecisions(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	mockVehicleRepo := new(MockVehicleRepository)
	mockPublisher := new(MockEventPublisher)

	// Each transition runs in its own unit of work; a single shared mock
	// covers them all.
	mockUoW := new(MockUnitOfWork)
	mockUoW.SetRepositories(MockRepositories{
		Vehicle:  mockVehicleRepo,
		EventBus: mockPublisher,
	})

	service := NewVehicleService(mockFactory)

	now := time.Now()
	expired := []*models.VehicleRegistration{
		{ID: 1, GuildID: 789, DiscordID: 111, VehicleName: "scooter", Status: models.VehicleStatusPending},
		{ID: 2, GuildID: 789, DiscordID: 222, VehicleName: "bus", Status: models.VehicleStatusPending},
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockVehicleRepo.On("GetExpiredPending", ctx, now).Return(expired, nil)
	mockVehicleRepo.On("Transition", ctx, int64(1), models.VehicleStatusTimedOut,
		(*int64)(nil), (*string)(nil)).Return(true, nil)
	// Registration 2 was approved between the sweep query and the transition
	mockVehicleRepo.On("Transition", ctx, int64(2), models.VehicleStatusTimedOut,
		(*int64)(nil), (*string)(nil)).Return(false, nil)
	mockPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		decided, ok := e.(events.VehicleDecidedEvent)
		return ok && decided.RegistrationID == 1 && decided.Status == models.VehicleStatusTimedOut
	})).Return()

	timedOut, err := service.ExpireOverdue(ctx, now)

	assert.NoError(t, err)
	assert.Len(t, timedOut, 1)
	assert.Equal(t, int64(1), timedOut[0].ID)
	assert.Equal(t, models.VehicleStatusTimedOut, timedOut[0].Status)
	mockPublisher.AssertExpectations(t)
}
