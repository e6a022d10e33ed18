package service

import (
	"context"
	"fmt"

	"justbot/models"
)

type guildConfigService struct {
	uowFactory UnitOfWorkFactory
}

// NewGuildConfigService creates a new guild config service
func NewGuildConfigService(uowFactory UnitOfWorkFactory) GuildConfigService {
	return &guildConfigService{
		uowFactory: uowFactory,
	}
}

// GetConfig returns a guild's configuration, falling back to defaults when
// no row is stored
func (s *guildConfigService) GetConfig(ctx context.Context, guildID int64) (*models.GuildConfig, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	config, err := uow.GuildConfigRepository().Get(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if config == nil {
		config = models.NewGuildConfig(guildID, "")
	}
	return config, nil
}

// EnsureConfig inserts a default config row for a guild if it has none
func (s *guildConfigService) EnsureConfig(ctx context.Context, guildID int64, guildName string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.GuildConfigRepository().EnsureExists(ctx, guildID, guildName); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateConfig writes the full configuration row for a guild
func (s *guildConfigService) UpdateConfig(ctx context.Context, config *models.GuildConfig) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.GuildConfigRepository().Upsert(ctx, config); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// IsCommandEnabled reports whether a command is enabled in a guild
func (s *guildConfigService) IsCommandEnabled(ctx context.Context, guildID int64, commandName string) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	enabled, err := uow.CommandStateRepository().IsEnabled(ctx, guildID, commandName)
	if err != nil {
		return false, err
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return enabled, nil
}

// SetCommandEnabled stores a command's enable flag for a guild
func (s *guildConfigService) SetCommandEnabled(ctx context.Context, guildID int64, commandName string, enabled bool) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.CommandStateRepository().SetEnabled(ctx, guildID, commandName, enabled); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListCommandStates returns all stored command states for a guild
func (s *guildConfigService) ListCommandStates(ctx context.Context, guildID int64) ([]*models.CommandState, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	states, err := uow.CommandStateRepository().GetByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return states, nil
}
