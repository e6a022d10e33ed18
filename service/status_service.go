package service

import (
	"context"
	"fmt"
	"time"

	"justbot/models"
)

type statusService struct {
	uowFactory UnitOfWorkFactory
	botName    string
}

// NewStatusService creates a new presence and heartbeat service
func NewStatusService(uowFactory UnitOfWorkFactory, botName string) StatusService {
	return &statusService{
		uowFactory: uowFactory,
		botName:    botName,
	}
}

// Heartbeat records a liveness beat for the bot process
func (s *statusService) Heartbeat(ctx context.Context, status, message string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.BotStatusRepository().Heartbeat(ctx, s.botName, status, message); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// IsOnline reports whether the bot's last heartbeat is fresh. A bot with no
// heartbeat row, or a heartbeat older than the staleness cutoff, is offline.
func (s *statusService) IsOnline(ctx context.Context) (bool, *models.BotStatus, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	status, err := uow.BotStatusRepository().GetStatus(ctx, s.botName)
	if err != nil {
		return false, nil, err
	}

	if err := uow.Commit(); err != nil {
		return false, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if status == nil {
		return false, nil, nil
	}

	online := time.Since(status.LastHeartbeat) < models.HeartbeatStaleAfter
	return online, status, nil
}

// GetPresence returns the configured presence settings
func (s *statusService) GetPresence(ctx context.Context) (*models.PresenceSettings, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := uow.BotStatusRepository().GetPresence(ctx)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return settings, nil
}

// SetPresence replaces the configured presence settings
func (s *statusService) SetPresence(ctx context.Context, settings *models.PresenceSettings) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.BotStatusRepository().SetPresence(ctx, settings); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
