package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"justbot/models"
)

func TestDashboardService_AuthenticateLocal(t *testing.T) {
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	assert.NoError(t, err)
	hashStr := string(hash)

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockDashboardRepo := new(MockDashboardUserRepository)

	mockUoW.SetRepositories(MockRepositories{Dashboard: mockDashboardRepo})

	service := NewDashboardService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockDashboardRepo.On("GetByUsername", ctx, "admin").Return(&models.DashboardUser{
		Username:     "admin",
		PasswordHash: &hashStr,
	}, nil)

	user, err := service.AuthenticateLocal(ctx, "admin", "correct horse")
	assert.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	_, err = service.AuthenticateLocal(ctx, "admin", "wrong password")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestDashboardService_AuthenticateLocal_UnknownUser(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockDashboardRepo := new(MockDashboardUserRepository)

	mockUoW.SetRepositories(MockRepositories{Dashboard: mockDashboardRepo})

	service := NewDashboardService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockDashboardRepo.On("GetByUsername", ctx, "ghost").Return(nil, nil)

	_, err := service.AuthenticateLocal(ctx, "ghost", "anything")

	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestDashboardService_AuthenticateLocal_DiscordOnlyUser(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockDashboardRepo := new(MockDashboardUserRepository)

	mockUoW.SetRepositories(MockRepositories{Dashboard: mockDashboardRepo})

	service := NewDashboardService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// OAuth-only users have no password hash and cannot log in locally
	mockDashboardRepo.On("GetByUsername", ctx, "oauthonly").Return(&models.DashboardUser{
		Username: "oauthonly",
	}, nil)

	_, err := service.AuthenticateLocal(ctx, "oauthonly", "anything")

	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestDashboardService_EnsureLocalAdmin_EmptyPassword(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	service := NewDashboardService(mockFactory)

	err := service.EnsureLocalAdmin(ctx, "admin", "")

	assert.Error(t, err)
	mockFactory.AssertNotCalled(t, "Create")
}
