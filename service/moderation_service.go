package service

import (
	"context"
	"fmt"
	"time"

	"justbot/events"
	"justbot/models"
)

type moderationService struct {
	uowFactory UnitOfWorkFactory
}

// NewModerationService creates a new moderation service
func NewModerationService(uowFactory UnitOfWorkFactory) ModerationService {
	return &moderationService{
		uowFactory: uowFactory,
	}
}

// Warn records a warning and reports whether the auto-kick threshold was
// reached by exactly this warning. Warnings past the threshold do not
// trigger further kicks.
func (s *moderationService) Warn(ctx context.Context, warning *models.Warning) (*models.WarnResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	config, err := uow.GuildConfigRepository().Get(ctx, warning.GuildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config: %w", err)
	}
	threshold := models.DefaultAutoKickWarnCount
	if config != nil {
		threshold = config.AutoKickWarnCount
	}

	if err := uow.WarningRepository().Create(ctx, warning); err != nil {
		return nil, err
	}

	count, err := uow.WarningRepository().CountByUser(ctx, warning.GuildID, warning.DiscordID)
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.WarningIssuedEvent{
		WarningID:  warning.ID,
		GuildID:    warning.GuildID,
		DiscordID:  warning.DiscordID,
		TotalCount: count,
		Threshold:  threshold,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.WarnResult{
		Warning:           warning,
		TotalCount:        count,
		Threshold:         threshold,
		AutoKickTriggered: count == threshold,
	}, nil
}

// ListWarnings returns a user's warnings in a guild, oldest first
func (s *moderationService) ListWarnings(ctx context.Context, guildID, discordID int64) ([]*models.Warning, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	warnings, err := uow.WarningRepository().GetByUser(ctx, guildID, discordID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return warnings, nil
}

// RemoveWarningByOrdinal deletes the Nth warning, 1-based, counting from the
// oldest. Note the ordinal of remaining warnings shifts after a removal.
func (s *moderationService) RemoveWarningByOrdinal(ctx context.Context, guildID, discordID int64, ordinal int) (*models.Warning, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	warnings, err := uow.WarningRepository().GetByUser(ctx, guildID, discordID)
	if err != nil {
		return nil, err
	}
	if ordinal < 1 || ordinal > len(warnings) {
		return nil, fmt.Errorf("%w: ordinal %d of %d", ErrWarningNotFound, ordinal, len(warnings))
	}

	target := warnings[ordinal-1]
	if err := uow.WarningRepository().Delete(ctx, target.ID); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return target, nil
}

// ClearWarnings deletes all of a user's warnings in a guild
func (s *moderationService) ClearWarnings(ctx context.Context, guildID, discordID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	removed, err := uow.WarningRepository().DeleteAllByUser(ctx, guildID, discordID)
	if err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return removed, nil
}

// Blacklist puts a user on the global blacklist
func (s *moderationService) Blacklist(ctx context.Context, discordID int64, reason string, addedBy int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user := &models.BlacklistedUser{
		DiscordID: discordID,
		Reason:    reason,
		AddedBy:   addedBy,
	}
	if err := uow.BlacklistRepository().Add(ctx, user); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Unblacklist removes a user from the blacklist
func (s *moderationService) Unblacklist(ctx context.Context, discordID int64) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	removed, err := uow.BlacklistRepository().Remove(ctx, discordID)
	if err != nil {
		return false, err
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return removed, nil
}

// IsBlacklisted reports whether a user is on the blacklist
func (s *moderationService) IsBlacklisted(ctx context.Context, discordID int64) (*models.BlacklistedUser, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.BlacklistRepository().Get(ctx, discordID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// SecurityReport summarizes a guild's moderation state
func (s *moderationService) SecurityReport(ctx context.Context, guildID int64) (*models.SecurityReport, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	warningCount, err := uow.WarningRepository().CountByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	openTickets, err := uow.TicketRepository().CountOpenByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	blacklist, err := uow.BlacklistRepository().GetAll(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := uow.VehicleRepository().CountPendingByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.SecurityReport{
		GuildID:              guildID,
		WarningCount:         warningCount,
		OpenTicketCount:      openTickets,
		BlacklistCount:       int64(len(blacklist)),
		PendingRegistrations: int(pending),
		GeneratedAt:          time.Now(),
	}, nil
}
