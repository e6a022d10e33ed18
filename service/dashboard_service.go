package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"justbot/models"
)

// ErrBadCredentials is returned on any local login failure. The caller gets
// no hint whether the username or the password was wrong.
var ErrBadCredentials = errors.New("invalid username or password")

type dashboardService struct {
	uowFactory UnitOfWorkFactory
}

// NewDashboardService creates a new dashboard user service
func NewDashboardService(uowFactory UnitOfWorkFactory) DashboardService {
	return &dashboardService{
		uowFactory: uowFactory,
	}
}

// EnsureLocalAdmin creates or updates the local admin login from configured
// credentials. Called once at dashboard startup.
func (s *dashboardService) EnsureLocalAdmin(ctx context.Context, username, password string) error {
	if password == "" {
		return fmt.Errorf("admin password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := uow.DashboardUserRepository().UpsertLocal(ctx, username, string(hash)); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// AuthenticateLocal verifies a username/password login
func (s *dashboardService) AuthenticateLocal(ctx context.Context, username, password string) (*models.DashboardUser, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.DashboardUserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if user == nil || user.PasswordHash == nil {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}

	return user, nil
}

// UpsertDiscordUser records an OAuth login and the guilds the user may manage
func (s *dashboardService) UpsertDiscordUser(ctx context.Context, username string, discordUserID int64, managedGuildIDs []int64) (*models.DashboardUser, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.DashboardUserRepository().UpsertDiscord(ctx, username, discordUserID, managedGuildIDs)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// GetByUsername retrieves a dashboard user by username
func (s *dashboardService) GetByUsername(ctx context.Context, username string) (*models.DashboardUser, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.DashboardUserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}
