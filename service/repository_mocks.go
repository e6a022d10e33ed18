package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"justbot/events"
	"justbot/models"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByDiscordID(ctx context.Context, discordID int64) (*models.Account, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, discordID int64, username string) (*models.Account, error) {
	args := m.Called(ctx, discordID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateUsername(ctx context.Context, discordID int64, username string) error {
	args := m.Called(ctx, discordID, username)
	return args.Error(0)
}

func (m *MockAccountRepository) AddBalance(ctx context.Context, discordID int64, amount int64) error {
	args := m.Called(ctx, discordID, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) DeductBalance(ctx context.Context, discordID int64, amount int64) error {
	args := m.Called(ctx, discordID, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockAccountRepository) CountAndTotal(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) GetByUser(ctx context.Context, discordID int64, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, discordID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) GetByGuild(ctx context.Context, guildID int64, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, guildID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

// MockLoanRepository is a mock implementation of LoanRepository
type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id int64) (*models.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Loan), args.Error(1)
}

func (m *MockLoanRepository) GetActiveByUser(ctx context.Context, discordID int64) (*models.Loan, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Loan), args.Error(1)
}

func (m *MockLoanRepository) ApplyPayment(ctx context.Context, loanID int64, amount int64) (*models.Loan, error) {
	args := m.Called(ctx, loanID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Loan), args.Error(1)
}

func (m *MockLoanRepository) RecordPayment(ctx context.Context, payment *models.LoanPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockLoanRepository) GetPayments(ctx context.Context, loanID int64) ([]*models.LoanPayment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LoanPayment), args.Error(1)
}

func (m *MockLoanRepository) CountActiveByGuild(ctx context.Context, guildID int64) (int64, int64, error) {
	args := m.Called(ctx, guildID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// MockVehicleRepository is a mock implementation of VehicleRepository
type MockVehicleRepository struct {
	mock.Mock
}

func (m *MockVehicleRepository) Create(ctx context.Context, reg *models.VehicleRegistration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id int64) (*models.VehicleRegistration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VehicleRegistration), args.Error(1)
}

func (m *MockVehicleRepository) SetMessageID(ctx context.Context, id int64, messageID int64) error {
	args := m.Called(ctx, id, messageID)
	return args.Error(0)
}

func (m *MockVehicleRepository) Transition(ctx context.Context, id int64, status models.VehicleStatus, reviewerID *int64, rejectReason *string) (bool, error) {
	args := m.Called(ctx, id, status, reviewerID, rejectReason)
	return args.Bool(0), args.Error(1)
}

func (m *MockVehicleRepository) GetExpiredPending(ctx context.Context, now time.Time) ([]*models.VehicleRegistration, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.VehicleRegistration), args.Error(1)
}

func (m *MockVehicleRepository) CountPendingByGuild(ctx context.Context, guildID int64) (int64, error) {
	args := m.Called(ctx, guildID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVehicleRepository) GetByGuild(ctx context.Context, guildID int64, limit int) ([]*models.VehicleRegistration, error) {
	args := m.Called(ctx, guildID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.VehicleRegistration), args.Error(1)
}

func (m *MockVehicleRepository) GetApprovedByUser(ctx context.Context, guildID, discordID int64) ([]*models.VehicleRegistration, error) {
	args := m.Called(ctx, guildID, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.VehicleRegistration), args.Error(1)
}

// MockWarningRepository is a mock implementation of WarningRepository
type MockWarningRepository struct {
	mock.Mock
}

func (m *MockWarningRepository) Create(ctx context.Context, warning *models.Warning) error {
	args := m.Called(ctx, warning)
	return args.Error(0)
}

func (m *MockWarningRepository) GetByUser(ctx context.Context, guildID, discordID int64) ([]*models.Warning, error) {
	args := m.Called(ctx, guildID, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Warning), args.Error(1)
}

func (m *MockWarningRepository) CountByUser(ctx context.Context, guildID, discordID int64) (int, error) {
	args := m.Called(ctx, guildID, discordID)
	return args.Int(0), args.Error(1)
}

func (m *MockWarningRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockWarningRepository) DeleteAllByUser(ctx context.Context, guildID, discordID int64) (int64, error) {
	args := m.Called(ctx, guildID, discordID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWarningRepository) CountByGuild(ctx context.Context, guildID int64) (int64, error) {
	args := m.Called(ctx, guildID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWarningRepository) GetRecentByGuild(ctx context.Context, guildID int64, limit int) ([]*models.Warning, error) {
	args := m.Called(ctx, guildID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Warning), args.Error(1)
}

// MockTicketRepository is a mock implementation of TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockTicketRepository) GetOpenByOpener(ctx context.Context, guildID, openerID int64) (*models.Ticket, error) {
	args := m.Called(ctx, guildID, openerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetOpenByChannel(ctx context.Context, channelID int64) (*models.Ticket, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Close(ctx context.Context, ticketID, closedBy int64) (bool, error) {
	args := m.Called(ctx, ticketID, closedBy)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketRepository) CountOpenByGuild(ctx context.Context, guildID int64) (int64, error) {
	args := m.Called(ctx, guildID)
	return args.Get(0).(int64), args.Error(1)
}

// MockGameRepository is a mock implementation of GameRepository
type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) Record(ctx context.Context, record *models.GameRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockGameRepository) GetRecentByGuild(ctx context.Context, guildID int64, limit int) ([]*models.GameRecord, error) {
	args := m.Called(ctx, guildID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GameRecord), args.Error(1)
}

func (m *MockGameRepository) CountByGuild(ctx context.Context, guildID int64) (map[models.GameType]int64, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.GameType]int64), args.Error(1)
}

// MockGuildConfigRepository is a mock implementation of GuildConfigRepository
type MockGuildConfigRepository struct {
	mock.Mock
}

func (m *MockGuildConfigRepository) Get(ctx context.Context, guildID int64) (*models.GuildConfig, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GuildConfig), args.Error(1)
}

func (m *MockGuildConfigRepository) EnsureExists(ctx context.Context, guildID int64, guildName string) error {
	args := m.Called(ctx, guildID, guildName)
	return args.Error(0)
}

func (m *MockGuildConfigRepository) Upsert(ctx context.Context, config *models.GuildConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func (m *MockGuildConfigRepository) GetAll(ctx context.Context) ([]*models.GuildConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GuildConfig), args.Error(1)
}

// MockCommandStateRepository is a mock implementation of CommandStateRepository
type MockCommandStateRepository struct {
	mock.Mock
}

func (m *MockCommandStateRepository) IsEnabled(ctx context.Context, guildID int64, commandName string) (bool, error) {
	args := m.Called(ctx, guildID, commandName)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommandStateRepository) SetEnabled(ctx context.Context, guildID int64, commandName string, enabled bool) error {
	args := m.Called(ctx, guildID, commandName, enabled)
	return args.Error(0)
}

func (m *MockCommandStateRepository) GetByGuild(ctx context.Context, guildID int64) ([]*models.CommandState, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CommandState), args.Error(1)
}

// MockBlacklistRepository is a mock implementation of BlacklistRepository
type MockBlacklistRepository struct {
	mock.Mock
}

func (m *MockBlacklistRepository) Add(ctx context.Context, user *models.BlacklistedUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockBlacklistRepository) Remove(ctx context.Context, discordID int64) (bool, error) {
	args := m.Called(ctx, discordID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlacklistRepository) Get(ctx context.Context, discordID int64) (*models.BlacklistedUser, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlacklistedUser), args.Error(1)
}

func (m *MockBlacklistRepository) GetAll(ctx context.Context) ([]*models.BlacklistedUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BlacklistedUser), args.Error(1)
}

// MockDashboardUserRepository is a mock implementation of DashboardUserRepository
type MockDashboardUserRepository struct {
	mock.Mock
}

func (m *MockDashboardUserRepository) GetByUsername(ctx context.Context, username string) (*models.DashboardUser, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardUser), args.Error(1)
}

func (m *MockDashboardUserRepository) GetByDiscordUserID(ctx context.Context, discordUserID int64) (*models.DashboardUser, error) {
	args := m.Called(ctx, discordUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardUser), args.Error(1)
}

func (m *MockDashboardUserRepository) UpsertLocal(ctx context.Context, username, passwordHash string) (*models.DashboardUser, error) {
	args := m.Called(ctx, username, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardUser), args.Error(1)
}

func (m *MockDashboardUserRepository) UpsertDiscord(ctx context.Context, username string, discordUserID int64, managedGuildIDs []int64) (*models.DashboardUser, error) {
	args := m.Called(ctx, username, discordUserID, managedGuildIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardUser), args.Error(1)
}

// MockBotStatusRepository is a mock implementation of BotStatusRepository
type MockBotStatusRepository struct {
	mock.Mock
}

func (m *MockBotStatusRepository) Heartbeat(ctx context.Context, name, status, message string) error {
	args := m.Called(ctx, name, status, message)
	return args.Error(0)
}

func (m *MockBotStatusRepository) GetStatus(ctx context.Context, name string) (*models.BotStatus, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BotStatus), args.Error(1)
}

func (m *MockBotStatusRepository) GetPresence(ctx context.Context) (*models.PresenceSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PresenceSettings), args.Error(1)
}

func (m *MockBotStatusRepository) SetPresence(ctx context.Context, settings *models.PresenceSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Tests populate the
// repository fields via SetRepositories and the getters return them without
// going through testify.
type MockUnitOfWork struct {
	mock.Mock
	accountRepo      AccountRepository
	ledgerRepo       LedgerEntryRepository
	loanRepo         LoanRepository
	vehicleRepo      VehicleRepository
	warningRepo      WarningRepository
	ticketRepo       TicketRepository
	gameRepo         GameRepository
	guildConfigRepo  GuildConfigRepository
	commandStateRepo CommandStateRepository
	blacklistRepo    BlacklistRepository
	dashboardRepo    DashboardUserRepository
	botStatusRepo    BotStatusRepository
	eventBus         EventPublisher
}

// MockRepositories bundles the repositories a test wires into a MockUnitOfWork.
// Leave fields nil when a test does not touch them.
type MockRepositories struct {
	Account      AccountRepository
	Ledger       LedgerEntryRepository
	Loan         LoanRepository
	Vehicle      VehicleRepository
	Warning      WarningRepository
	Ticket       TicketRepository
	Game         GameRepository
	GuildConfig  GuildConfigRepository
	CommandState CommandStateRepository
	Blacklist    BlacklistRepository
	Dashboard    DashboardUserRepository
	BotStatus    BotStatusRepository
	EventBus     EventPublisher
}

// SetRepositories wires mock repositories into the unit of work
func (m *MockUnitOfWork) SetRepositories(repos MockRepositories) {
	m.accountRepo = repos.Account
	m.ledgerRepo = repos.Ledger
	m.loanRepo = repos.Loan
	m.vehicleRepo = repos.Vehicle
	m.warningRepo = repos.Warning
	m.ticketRepo = repos.Ticket
	m.gameRepo = repos.Game
	m.guildConfigRepo = repos.GuildConfig
	m.commandStateRepo = repos.CommandState
	m.blacklistRepo = repos.Blacklist
	m.dashboardRepo = repos.Dashboard
	m.botStatusRepo = repos.BotStatus
	m.eventBus = repos.EventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository          { return m.accountRepo }
func (m *MockUnitOfWork) LedgerEntryRepository() LedgerEntryRepository { return m.ledgerRepo }
func (m *MockUnitOfWork) LoanRepository() LoanRepository               { return m.loanRepo }
func (m *MockUnitOfWork) VehicleRepository() VehicleRepository         { return m.vehicleRepo }
func (m *MockUnitOfWork) WarningRepository() WarningRepository         { return m.warningRepo }
func (m *MockUnitOfWork) TicketRepository() TicketRepository           { return m.ticketRepo }
func (m *MockUnitOfWork) GameRepository() GameRepository               { return m.gameRepo }
func (m *MockUnitOfWork) GuildConfigRepository() GuildConfigRepository { return m.guildConfigRepo }
func (m *MockUnitOfWork) CommandStateRepository() CommandStateRepository {
	return m.commandStateRepo
}
func (m *MockUnitOfWork) BlacklistRepository() BlacklistRepository { return m.blacklistRepo }
func (m *MockUnitOfWork) DashboardUserRepository() DashboardUserRepository {
	return m.dashboardRepo
}
func (m *MockUnitOfWork) BotStatusRepository() BotStatusRepository { return m.botStatusRepo }
func (m *MockUnitOfWork) EventBus() EventPublisher                 { return m.eventBus }

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
