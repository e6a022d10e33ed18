package service

import (
	"context"
	"time"

	"justbot/events"
	"justbot/models"
)

// AccountRepository defines the interface for bank account data access
type AccountRepository interface {
	// GetByDiscordID retrieves an account by its owner's Discord ID
	GetByDiscordID(ctx context.Context, discordID int64) (*models.Account, error)

	// Create creates a new account with a zero balance
	Create(ctx context.Context, discordID int64, username string) (*models.Account, error)

	// UpdateUsername keeps the stored username in sync with Discord
	UpdateUsername(ctx context.Context, discordID int64, username string) error

	// AddBalance adds to an account's balance atomically
	AddBalance(ctx context.Context, discordID int64, amount int64) error

	// DeductBalance deducts from an account's balance atomically, failing if
	// the balance would go negative
	DeductBalance(ctx context.Context, discordID int64, amount int64) error

	// GetAll returns all accounts ordered by balance
	GetAll(ctx context.Context) ([]*models.Account, error)

	// CountAndTotal returns the number of accounts and the sum of all balances
	CountAndTotal(ctx context.Context) (int64, int64, error)
}

// LedgerEntryRepository defines the interface for the append-only ledger
type LedgerEntryRepository interface {
	// Record creates a new ledger entry
	Record(ctx context.Context, entry *models.LedgerEntry) error

	// GetByUser returns the most recent ledger entries for a user
	GetByUser(ctx context.Context, discordID int64, limit int) ([]*models.LedgerEntry, error)

	// GetByGuild returns the most recent ledger entries for a guild
	GetByGuild(ctx context.Context, guildID int64, limit int) ([]*models.LedgerEntry, error)
}

// LoanRepository defines the interface for loan data access
type LoanRepository interface {
	// Create inserts a new loan
	Create(ctx context.Context, loan *models.Loan) error

	// GetByID retrieves a loan by its ID
	GetByID(ctx context.Context, id int64) (*models.Loan, error)

	// GetActiveByUser returns the user's active loan, or nil if they have none
	GetActiveByUser(ctx context.Context, discordID int64) (*models.Loan, error)

	// ApplyPayment increases amount_paid and returns the updated loan
	ApplyPayment(ctx context.Context, loanID int64, amount int64) (*models.Loan, error)

	// RecordPayment inserts a row in the payment log
	RecordPayment(ctx context.Context, payment *models.LoanPayment) error

	// GetPayments returns all payments against a loan, oldest first
	GetPayments(ctx context.Context, loanID int64) ([]*models.LoanPayment, error)

	// CountActiveByGuild returns the number of active loans and total outstanding debt
	CountActiveByGuild(ctx context.Context, guildID int64) (int64, int64, error)
}

// VehicleRepository defines the interface for vehicle registration data access
type VehicleRepository interface {
	// Create inserts a new pending registration
	Create(ctx context.Context, reg *models.VehicleRegistration) error

	// GetByID retrieves a registration by its ID
	GetByID(ctx context.Context, id int64) (*models.VehicleRegistration, error)

	// SetMessageID stores the review-channel message posted for a registration
	SetMessageID(ctx context.Context, id int64, messageID int64) error

	// Transition moves a registration out of the pending state; ok=false if
	// the registration was not pending
	Transition(ctx context.Context, id int64, status models.VehicleStatus, reviewerID *int64, rejectReason *string) (bool, error)

	// GetExpiredPending returns pending registrations whose review deadline has passed
	GetExpiredPending(ctx context.Context, now time.Time) ([]*models.VehicleRegistration, error)

	// CountPendingByGuild returns the number of pending registrations in a guild
	CountPendingByGuild(ctx context.Context, guildID int64) (int64, error)

	// GetByGuild returns the most recent registrations for a guild
	GetByGuild(ctx context.Context, guildID int64, limit int) ([]*models.VehicleRegistration, error)

	// GetApprovedByUser returns a user's approved registrations in a guild
	GetApprovedByUser(ctx context.Context, guildID, discordID int64) ([]*models.VehicleRegistration, error)
}

// WarningRepository defines the interface for warning data access
type WarningRepository interface {
	// Create inserts a new warning
	Create(ctx context.Context, warning *models.Warning) error

	// GetByUser returns a user's warnings in a guild, oldest first
	GetByUser(ctx context.Context, guildID, discordID int64) ([]*models.Warning, error)

	// CountByUser returns how many warnings a user holds in a guild
	CountByUser(ctx context.Context, guildID, discordID int64) (int, error)

	// Delete removes a single warning by ID
	Delete(ctx context.Context, id int64) error

	// DeleteAllByUser removes all of a user's warnings in a guild
	DeleteAllByUser(ctx context.Context, guildID, discordID int64) (int64, error)

	// CountByGuild returns the total warning count for a guild
	CountByGuild(ctx context.Context, guildID int64) (int64, error)

	// GetRecentByGuild returns the newest warnings in a guild
	GetRecentByGuild(ctx context.Context, guildID int64, limit int) ([]*models.Warning, error)
}

// TicketRepository defines the interface for support ticket data access
type TicketRepository interface {
	// Create inserts a new open ticket
	Create(ctx context.Context, ticket *models.Ticket) error

	// GetOpenByOpener returns a user's open ticket in a guild, or nil
	GetOpenByOpener(ctx context.Context, guildID, openerID int64) (*models.Ticket, error)

	// GetOpenByChannel returns the open ticket bound to a channel, or nil
	GetOpenByChannel(ctx context.Context, channelID int64) (*models.Ticket, error)

	// Close marks a ticket closed; ok=false if it was not open
	Close(ctx context.Context, ticketID, closedBy int64) (bool, error)

	// CountOpenByGuild returns the number of open tickets in a guild
	CountOpenByGuild(ctx context.Context, guildID int64) (int64, error)
}

// GameRepository defines the interface for game record data access
type GameRepository interface {
	// Record inserts a played-game row
	Record(ctx context.Context, record *models.GameRecord) error

	// GetRecentByGuild returns the newest game records for a guild
	GetRecentByGuild(ctx context.Context, guildID int64, limit int) ([]*models.GameRecord, error)

	// CountByGuild returns per-game-type play counts for a guild
	CountByGuild(ctx context.Context, guildID int64) (map[models.GameType]int64, error)
}

// GuildConfigRepository defines the interface for guild configuration data access
type GuildConfigRepository interface {
	// Get retrieves a guild's configuration, or nil if none is stored
	Get(ctx context.Context, guildID int64) (*models.GuildConfig, error)

	// EnsureExists inserts a default config row for a guild if it has none
	EnsureExists(ctx context.Context, guildID int64, guildName string) error

	// Upsert writes the full configuration row for a guild
	Upsert(ctx context.Context, config *models.GuildConfig) error

	// GetAll returns every guild's configuration
	GetAll(ctx context.Context) ([]*models.GuildConfig, error)
}

// CommandStateRepository defines the interface for per-guild command flags
type CommandStateRepository interface {
	// IsEnabled reports whether a command is enabled in a guild; a missing
	// row means enabled
	IsEnabled(ctx context.Context, guildID int64, commandName string) (bool, error)

	// SetEnabled stores a command's enable flag for a guild
	SetEnabled(ctx context.Context, guildID int64, commandName string, enabled bool) error

	// GetByGuild returns all stored command states for a guild
	GetByGuild(ctx context.Context, guildID int64) ([]*models.CommandState, error)
}

// BlacklistRepository defines the interface for the global blacklist
type BlacklistRepository interface {
	// Add puts a user on the blacklist
	Add(ctx context.Context, user *models.BlacklistedUser) error

	// Remove takes a user off the blacklist and reports whether they were on it
	Remove(ctx context.Context, discordID int64) (bool, error)

	// Get returns a blacklist row for a user, or nil
	Get(ctx context.Context, discordID int64) (*models.BlacklistedUser, error)

	// GetAll returns the full blacklist
	GetAll(ctx context.Context) ([]*models.BlacklistedUser, error)
}

// DashboardUserRepository defines the interface for dashboard login data access
type DashboardUserRepository interface {
	// GetByUsername retrieves a dashboard user by username
	GetByUsername(ctx context.Context, username string) (*models.DashboardUser, error)

	// GetByDiscordUserID retrieves a dashboard user by their linked Discord account
	GetByDiscordUserID(ctx context.Context, discordUserID int64) (*models.DashboardUser, error)

	// UpsertLocal creates or updates a password-authenticated dashboard user
	UpsertLocal(ctx context.Context, username, passwordHash string) (*models.DashboardUser, error)

	// UpsertDiscord creates or updates an OAuth-authenticated dashboard user
	UpsertDiscord(ctx context.Context, username string, discordUserID int64, managedGuildIDs []int64) (*models.DashboardUser, error)
}

// BotStatusRepository defines the interface for presence and heartbeat data access
type BotStatusRepository interface {
	// Heartbeat records a liveness beat for a named bot process
	Heartbeat(ctx context.Context, name, status, message string) error

	// GetStatus returns the last recorded status for a named bot process, or nil
	GetStatus(ctx context.Context, name string) (*models.BotStatus, error)

	// GetPresence returns the singleton presence settings row, or defaults
	GetPresence(ctx context.Context) (*models.PresenceSettings, error)

	// SetPresence replaces the singleton presence settings row
	SetPresence(ctx context.Context, settings *models.PresenceSettings) error
}

// AccountService defines the interface for bank account operations
type AccountService interface {
	// OpenAccount creates an account, failing if the user already has one
	OpenAccount(ctx context.Context, discordID int64, username string) (*models.Account, error)

	// GetAccount retrieves an account, or nil if the user has none
	GetAccount(ctx context.Context, discordID int64) (*models.Account, error)

	// Deposit credits an account and records a ledger entry
	Deposit(ctx context.Context, guildID, discordID int64, amount int64) (*models.Account, error)

	// Withdraw debits an account, failing on insufficient balance
	Withdraw(ctx context.Context, guildID, discordID int64, amount int64) (*models.Account, error)

	// Transfer atomically moves amount between two accounts
	Transfer(ctx context.Context, guildID, fromID, toID int64, amount int64, toUsername string) error

	// GetHistory returns the most recent ledger entries for a user
	GetHistory(ctx context.Context, discordID int64, limit int) ([]*models.LedgerEntry, error)
}

// LoanService defines the interface for loan operations
type LoanService interface {
	// TakeLoan issues a loan and credits the borrower's account
	TakeLoan(ctx context.Context, guildID, discordID int64, amount int64) (*models.Loan, error)

	// RepayLoan debits the borrower and applies the payment to their active loan
	RepayLoan(ctx context.Context, guildID, discordID int64, amount int64) (*models.Loan, error)

	// GetActiveLoan returns the user's active loan, or nil
	GetActiveLoan(ctx context.Context, discordID int64) (*models.Loan, error)
}

// VehicleService defines the interface for the vehicle registration workflow
type VehicleService interface {
	// Submit debits the registration fee and creates a pending registration
	Submit(ctx context.Context, guildID, discordID int64, username, vehicleName string) (*models.VehicleRegistration, error)

	// AttachMessage stores the review-channel message for a registration
	AttachMessage(ctx context.Context, registrationID, messageID int64) error

	// Approve moves a pending registration to approved
	Approve(ctx context.Context, registrationID, reviewerID int64) (*models.VehicleRegistration, error)

	// Reject moves a pending registration to rejected; the fee is not refunded
	Reject(ctx context.Context, registrationID, reviewerID int64, reason string) (*models.VehicleRegistration, error)

	// ExpireOverdue times out pending registrations past their review deadline
	// and returns the ones that were transitioned
	ExpireOverdue(ctx context.Context, now time.Time) ([]*models.VehicleRegistration, error)

	// GetRegistration retrieves a registration by ID
	GetRegistration(ctx context.Context, registrationID int64) (*models.VehicleRegistration, error)

	// ListApproved returns a user's approved registrations in a guild
	ListApproved(ctx context.Context, guildID, discordID int64) ([]*models.VehicleRegistration, error)
}

// ModerationService defines the interface for warning and blacklist operations
type ModerationService interface {
	// Warn records a warning and reports whether the auto-kick threshold was
	// reached by exactly this warning
	Warn(ctx context.Context, warning *models.Warning) (*models.WarnResult, error)

	// ListWarnings returns a user's warnings in a guild, oldest first
	ListWarnings(ctx context.Context, guildID, discordID int64) ([]*models.Warning, error)

	// RemoveWarningByOrdinal deletes the Nth warning (1-based, oldest first)
	RemoveWarningByOrdinal(ctx context.Context, guildID, discordID int64, ordinal int) (*models.Warning, error)

	// ClearWarnings deletes all of a user's warnings in a guild
	ClearWarnings(ctx context.Context, guildID, discordID int64) (int64, error)

	// Blacklist puts a user on the global blacklist
	Blacklist(ctx context.Context, discordID int64, reason string, addedBy int64) error

	// Unblacklist removes a user from the blacklist
	Unblacklist(ctx context.Context, discordID int64) (bool, error)

	// IsBlacklisted reports whether a user is on the blacklist
	IsBlacklisted(ctx context.Context, discordID int64) (*models.BlacklistedUser, error)

	// SecurityReport summarizes a guild's moderation state
	SecurityReport(ctx context.Context, guildID int64) (*models.SecurityReport, error)
}

// TicketService defines the interface for support ticket operations
type TicketService interface {
	// GetOpenTicket returns a user's open ticket in a guild, or nil
	GetOpenTicket(ctx context.Context, guildID, openerID int64) (*models.Ticket, error)

	// OpenTicket records a newly created ticket channel, enforcing one open
	// ticket per user per guild
	OpenTicket(ctx context.Context, guildID, openerID int64, username string, channelID int64, reason string) (*models.Ticket, error)

	// CloseTicket closes the ticket bound to a channel. Only the opener or a
	// staff member may close it.
	CloseTicket(ctx context.Context, channelID, closedBy int64, isStaff bool) (*models.Ticket, error)
}

// GameService defines the interface for the trivial games
type GameService interface {
	// RollDice rolls an n-sided die (n >= 2) and records the play
	RollDice(ctx context.Context, guildID, discordID int64, username string, sides int) (int, error)

	// PlayRPS plays one round of rock-paper-scissors against the bot
	PlayRPS(ctx context.Context, guildID, discordID int64, username string, choice models.RPSChoice) (*models.RPSResult, error)
}

// GuildConfigService defines the interface for guild configuration operations
type GuildConfigService interface {
	// GetConfig returns a guild's configuration, falling back to defaults
	// when no row is stored
	GetConfig(ctx context.Context, guildID int64) (*models.GuildConfig, error)

	// EnsureConfig inserts a default config row for a guild if it has none
	EnsureConfig(ctx context.Context, guildID int64, guildName string) error

	// UpdateConfig writes the full configuration row for a guild
	UpdateConfig(ctx context.Context, config *models.GuildConfig) error

	// IsCommandEnabled reports whether a command is enabled in a guild
	IsCommandEnabled(ctx context.Context, guildID int64, commandName string) (bool, error)

	// SetCommandEnabled stores a command's enable flag for a guild
	SetCommandEnabled(ctx context.Context, guildID int64, commandName string, enabled bool) error

	// ListCommandStates returns all stored command states for a guild
	ListCommandStates(ctx context.Context, guildID int64) ([]*models.CommandState, error)
}

// DashboardService defines the interface for dashboard login operations
type DashboardService interface {
	// EnsureLocalAdmin creates or updates the local admin login
	EnsureLocalAdmin(ctx context.Context, username, password string) error

	// AuthenticateLocal verifies a username/password login
	AuthenticateLocal(ctx context.Context, username, password string) (*models.DashboardUser, error)

	// UpsertDiscordUser records an OAuth login and the guilds the user may manage
	UpsertDiscordUser(ctx context.Context, username string, discordUserID int64, managedGuildIDs []int64) (*models.DashboardUser, error)

	// GetByUsername retrieves a dashboard user by username
	GetByUsername(ctx context.Context, username string) (*models.DashboardUser, error)
}

// StatusService defines the interface for presence and heartbeat operations
type StatusService interface {
	// Heartbeat records a liveness beat for the bot process
	Heartbeat(ctx context.Context, status, message string) error

	// IsOnline reports whether the bot's last heartbeat is fresh
	IsOnline(ctx context.Context) (bool, *models.BotStatus, error)

	// GetPresence returns the configured presence settings
	GetPresence(ctx context.Context) (*models.PresenceSettings, error)

	// SetPresence replaces the configured presence settings
	SetPresence(ctx context.Context, settings *models.PresenceSettings) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	LedgerEntryRepository() LedgerEntryRepository
	LoanRepository() LoanRepository
	VehicleRepository() VehicleRepository
	WarningRepository() WarningRepository
	TicketRepository() TicketRepository
	GameRepository() GameRepository
	GuildConfigRepository() GuildConfigRepository
	CommandStateRepository() CommandStateRepository
	BlacklistRepository() BlacklistRepository
	DashboardUserRepository() DashboardUserRepository
	BotStatusRepository() BotStatusRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
