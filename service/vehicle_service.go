package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"justbot/events"
	"justbot/models"
)

// reviewWindow is how long a pending registration waits for a human decision
// before it times out.
const reviewWindow = 5 * time.Minute

type vehicleService struct {
	uowFactory UnitOfWorkFactory
}

// NewVehicleService creates a new vehicle registration service
func NewVehicleService(uowFactory UnitOfWorkFactory) VehicleService {
	return &vehicleService{
		uowFactory: uowFactory,
	}
}

// Submit debits the registration fee and creates a pending registration.
// The forbidden-list check runs before the debit, so a forbidden vehicle
// never costs the requester anything. The fee for a non-forbidden vehicle is
// final: it is not refunded on rejection or timeout.
func (s *vehicleService) Submit(ctx context.Context, guildID, discordID int64, username, vehicleName string) (*models.VehicleRegistration, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	config, err := uow.GuildConfigRepository().Get(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config: %w", err)
	}
	if config == nil {
		config = models.NewGuildConfig(guildID, "")
	}

	if !config.VehicleWorkflowConfigured() {
		return nil, ErrWorkflowUnconfigured
	}
	if config.IsVehicleForbidden(vehicleName) {
		return nil, ErrForbiddenVehicle
	}

	account, err := uow.AccountRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, ErrNoAccount
	}

	fee := config.VehicleRegistrationFee
	if account.Balance < fee {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, account.Balance, fee)
	}

	if err := uow.AccountRepository().DeductBalance(ctx, discordID, fee); err != nil {
		return nil, fmt.Errorf("failed to debit registration fee: %w", err)
	}

	reg := &models.VehicleRegistration{
		GuildID:     guildID,
		DiscordID:   discordID,
		Username:    username,
		VehicleName: vehicleName,
		Fee:         fee,
		Status:      models.VehicleStatusPending,
		ReviewBy:    time.Now().Add(reviewWindow),
	}
	if err := uow.VehicleRepository().Create(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	entry := &models.LedgerEntry{
		DiscordID:     discordID,
		GuildID:       guildID,
		BalanceBefore: account.Balance,
		BalanceAfter:  account.Balance - fee,
		ChangeAmount:  -fee,
		EntryType:     models.EntryTypeVehicleFee,
		RelatedID:     &reg.ID,
		RelatedType:   relatedTypePtr(models.RelatedTypeVehicle),
		Metadata: map[string]any{
			"vehicle_name": vehicleName,
		},
	}
	if err := RecordLedgerEntry(ctx, uow, entry); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return reg, nil
}

// AttachMessage stores the review-channel message for a registration
func (s *vehicleService) AttachMessage(ctx context.Context, registrationID, messageID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.VehicleRepository().SetMessageID(ctx, registrationID, messageID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Approve moves a pending registration to approved
func (s *vehicleService) Approve(ctx context.Context, registrationID, reviewerID int64) (*models.VehicleRegistration, error) {
	return s.decide(ctx, registrationID, models.VehicleStatusApproved, reviewerID, nil)
}

// Reject moves a pending registration to rejected; the fee is not refunded
func (s *vehicleService) Reject(ctx context.Context, registrationID, reviewerID int64, reason string) (*models.VehicleRegistration, error) {
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	return s.decide(ctx, registrationID, models.VehicleStatusRejected, reviewerID, reasonPtr)
}

func (s *vehicleService) decide(ctx context.Context, registrationID int64, status models.VehicleStatus, reviewerID int64, reason *string) (*models.VehicleRegistration, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ok, err := uow.VehicleRepository().Transition(ctx, registrationID, status, &reviewerID, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotPending
	}

	reg, err := uow.VehicleRepository().GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, fmt.Errorf("registration %d not found after transition", registrationID)
	}

	uow.EventBus().Publish(events.VehicleDecidedEvent{
		RegistrationID: reg.ID,
		GuildID:        reg.GuildID,
		DiscordID:      reg.DiscordID,
		VehicleName:    reg.VehicleName,
		Status:         reg.Status,
		ReviewerID:     reg.ReviewerID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return reg, nil
}

// ExpireOverdue times out pending registrations past their review deadline.
// Each registration is transitioned in its own transaction so one failure
// does not block the rest of the sweep.
func (s *vehicleService) ExpireOverdue(ctx context.Context, now time.Time) ([]*models.VehicleRegistration, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	expired, err := uow.VehicleRepository().GetExpiredPending(ctx, now)
	if err != nil {
		uow.Rollback()
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	var timedOut []*models.VehicleRegistration
	for _, reg := range expired {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return timedOut, fmt.Errorf("failed to begin transaction: %w", err)
		}

		ok, err := uow.VehicleRepository().Transition(ctx, reg.ID, models.VehicleStatusTimedOut, nil, nil)
		if err != nil {
			uow.Rollback()
			log.WithError(err).WithField("registrationID", reg.ID).Error("Failed to time out registration")
			continue
		}
		if !ok {
			// Decided between the sweep query and this transition
			uow.Rollback()
			continue
		}

		uow.EventBus().Publish(events.VehicleDecidedEvent{
			RegistrationID: reg.ID,
			GuildID:        reg.GuildID,
			DiscordID:      reg.DiscordID,
			VehicleName:    reg.VehicleName,
			Status:         models.VehicleStatusTimedOut,
		})

		if err := uow.Commit(); err != nil {
			log.WithError(err).WithField("registrationID", reg.ID).Error("Failed to commit timeout")
			continue
		}

		reg.Status = models.VehicleStatusTimedOut
		timedOut = append(timedOut, reg)
	}

	return timedOut, nil
}

// GetRegistration retrieves a registration by ID
func (s *vehicleService) GetRegistration(ctx context.Context, registrationID int64) (*models.VehicleRegistration, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	reg, err := uow.VehicleRepository().GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return reg, nil
}

// ListApproved returns a user's approved registrations in a guild
func (s *vehicleService) ListApproved(ctx context.Context, guildID, discordID int64) ([]*models.VehicleRegistration, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	regs, err := uow.VehicleRepository().GetApprovedByUser(ctx, guildID, discordID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return regs, nil
}
