package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"justbot/database"
	"justbot/events"
	"justbot/service"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	accountRepo      service.AccountRepository
	ledgerRepo       service.LedgerEntryRepository
	loanRepo         service.LoanRepository
	vehicleRepo      service.VehicleRepository
	warningRepo      service.WarningRepository
	ticketRepo       service.TicketRepository
	gameRepo         service.GameRepository
	guildConfigRepo  service.GuildConfigRepository
	commandStateRepo service.CommandStateRepository
	blacklistRepo    service.BlacklistRepository
	dashboardRepo    service.DashboardUserRepository
	botStatusRepo    service.BotStatusRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.ledgerRepo = newLedgerEntryRepositoryWithTx(tx)
	u.loanRepo = newLoanRepositoryWithTx(tx)
	u.vehicleRepo = newVehicleRepositoryWithTx(tx)
	u.warningRepo = newWarningRepositoryWithTx(tx)
	u.ticketRepo = newTicketRepositoryWithTx(tx)
	u.gameRepo = newGameRepositoryWithTx(tx)
	u.guildConfigRepo = newGuildConfigRepositoryWithTx(tx)
	u.commandStateRepo = newCommandStateRepositoryWithTx(tx)
	u.blacklistRepo = newBlacklistRepositoryWithTx(tx)
	u.dashboardRepo = newDashboardUserRepositoryWithTx(tx)
	u.botStatusRepo = newBotStatusRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() service.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

// LedgerEntryRepository returns the ledger entry repository for this unit of work
func (u *unitOfWork) LedgerEntryRepository() service.LedgerEntryRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

// LoanRepository returns the loan repository for this unit of work
func (u *unitOfWork) LoanRepository() service.LoanRepository {
	if u.loanRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.loanRepo
}

// VehicleRepository returns the vehicle registration repository for this unit of work
func (u *unitOfWork) VehicleRepository() service.VehicleRepository {
	if u.vehicleRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.vehicleRepo
}

// WarningRepository returns the warning repository for this unit of work
func (u *unitOfWork) WarningRepository() service.WarningRepository {
	if u.warningRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.warningRepo
}

// TicketRepository returns the ticket repository for this unit of work
func (u *unitOfWork) TicketRepository() service.TicketRepository {
	if u.ticketRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ticketRepo
}

// GameRepository returns the game record repository for this unit of work
func (u *unitOfWork) GameRepository() service.GameRepository {
	if u.gameRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.gameRepo
}

// GuildConfigRepository returns the guild config repository for this unit of work
func (u *unitOfWork) GuildConfigRepository() service.GuildConfigRepository {
	if u.guildConfigRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.guildConfigRepo
}

// CommandStateRepository returns the command state repository for this unit of work
func (u *unitOfWork) CommandStateRepository() service.CommandStateRepository {
	if u.commandStateRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.commandStateRepo
}

// BlacklistRepository returns the blacklist repository for this unit of work
func (u *unitOfWork) BlacklistRepository() service.BlacklistRepository {
	if u.blacklistRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.blacklistRepo
}

// DashboardUserRepository returns the dashboard user repository for this unit of work
func (u *unitOfWork) DashboardUserRepository() service.DashboardUserRepository {
	if u.dashboardRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.dashboardRepo
}

// BotStatusRepository returns the bot status repository for this unit of work
func (u *unitOfWork) BotStatusRepository() service.BotStatusRepository {
	if u.botStatusRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.botStatusRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
