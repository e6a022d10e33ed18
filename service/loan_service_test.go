package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"justbot/events"
	"justbot/models"
)

func TestLoanService_TakeLoan_InterestFlooredAtIssuance(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockLoanRepo := new(MockLoanRepository)
	mockLedgerRepo := new(MockLedgerEntryRepository)
	mockConfigRepo := new(MockGuildConfigRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(MockRepositories{
		Account:     mockAccountRepo,
		Loan:        mockLoanRepo,
		Ledger:      mockLedgerRepo,
		GuildConfig: mockConfigRepo,
		EventBus:    mockPublisher,
	})

	service := NewLoanService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockConfigRepo.On("Get", ctx, int64(789)).Return(models.NewGuildConfig(789, "guild"), nil)
	mockAccountRepo.On("GetByDiscordID", ctx, int64(123456)).Return(&models.Account{
		DiscordID: 123456, Balance: 0,
	}, nil)
	mockLoanRepo.On("GetActiveByUser", ctx, int64(123456)).Return(nil, nil)

	// 1,000,000 at the default 3.2% rate owes exactly 1,032,000
	mockLoanRepo.On("Create", ctx, mock.MatchedBy(func(l *models.Loan) bool {
		return l.Principal == 1_000_000 &&
			l.TotalOwed == 1_032_000 &&
			l.Status == models.LoanStatusActive
	})).Return(nil)
	mockAccountRepo.On("AddBalance", ctx, int64(123456), int64(1_000_000)).Return(nil)
	mockLedgerRepo.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.EntryType == models.EntryTypeLoanTaken && e.ChangeAmount == 1_000_000
	})).Return(nil)
	mockPublisher.On("Publish", mock.AnythingOfType("events.LoanIssuedEvent")).Return()
	mockPublisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()

	loan, err := service.TakeLoan(ctx, 789, 123456, 1_000_000)

	assert.NoError(t, err)
	assert.Equal(t, int64(1_032_000), loan.TotalOwed)
	assert.Equal(t, int64(1_032_000), loan.Remaining())

	mockLoanRepo.AssertExpectations(t)
	mockAccountRepo.AssertExpectations(t)
	mockLedgerRepo.AssertExpectations(t)
}

func TestLoanService_TakeLoan_SecondActiveLoanRejected(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockLoanRepo := new(MockLoanRepository)
	mockConfigRepo := new(MockGuildConfigRepository)

	mockUoW.SetRepositories(MockRepositories{
		Account:     mockAccountRepo,
		Loan:        mockLoanRepo,
		GuildConfig: mockConfigRepo,
	})

	service := NewLoanService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockConfigRepo.On("Get", ctx, int64(789)).Return(models.NewGuildConfig(789, "guild"), nil)
	mockAccountRepo.On("GetByDiscordID", ctx, int64(123456)).Return(&models.Account{DiscordID: 123456}, nil)
	mockLoanRepo.On("GetActiveByUser", ctx, int64(123456)).Return(&models.Loan{
		ID: 7, DiscordID: 123456, Status: models.LoanStatusActive,
	}, nil)

	loan, err := service.TakeLoan(ctx, 789, 123456, 100_000)

	assert.ErrorIs(t, err, ErrActiveLoan)
	assert.Nil(t, loan)
	mockLoanRepo.AssertNotCalled(t, "Create")
	mockAccountRepo.AssertNotCalled(t, "AddBalance")
}

func TestLoanService_TakeLoan_Disabled(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLoanRepo := new(MockLoanRepository)
	mockConfigRepo := new(MockGuildConfigRepository)

	mockUoW.SetRepositories(MockRepositories{
		Loan:        mockLoanRepo,
		GuildConfig: mockConfigRepo,
	})

	service := NewLoanService(mockFactory)

	config := models.NewGuildConfig(789, "guild")
	config.LoanEnabled = false

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockConfigRepo.On("Get", ctx, int64(789)).Return(config, nil)

	_, err := service.TakeLoan(ctx, 789, 123456, 100_000)

	assert.ErrorIs(t, err, ErrLoansDisabled)
	mockLoanRepo.AssertNotCalled(t, "Create")
}

func TestLoanService_TakeLoan_OverGuildLimit(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockConfigRepo := new(MockGuildConfigRepository)

	mockUoW.SetRepositories(MockRepositories{GuildConfig: mockConfigRepo})

	service := NewLoanService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockConfigRepo.On("Get", ctx, int64(789)).Return(models.NewGuildConfig(789, "guild"), nil)

	_, err := service.TakeLoan(ctx, 789, 123456, 2_000_000)

	assert.ErrorIs(t, err, ErrLoanTooLarge)
}

func TestLoanService_RepayLoan_FullRepaymentMarksPaid(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockLoanRepo := new(MockLoanRepository)
	mockLedgerRepo := new(MockLedgerEntryRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(MockRepositories{
		Account:  mockAccountRepo,
		Loan:     mockLoanRepo,
		Ledger:   mockLedgerRepo,
		EventBus: mockPublisher,
	})

	service := NewLoanService(mockFactory)

	active := &models.Loan{
		ID: 7, DiscordID: 123456, TotalOwed: 1_032_000, AmountPaid: 1_000_000,
		Status: models.LoanStatusActive,
	}
	paid := &models.Loan{
		ID: 7, DiscordID: 123456, TotalOwed: 1_032_000, AmountPaid: 1_032_000,
		Status: models.LoanStatusPaid,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockLoanRepo.On("GetActiveByUser", ctx, int64(123456)).Return(active, nil)
	mockAccountRepo.On("GetByDiscordID", ctx, int64(123456)).Return(&models.Account{
		DiscordID: 123456, Balance: 100_000,
	}, nil)
	mockAccountRepo.On("DeductBalance", ctx, int64(123456), int64(32_000)).Return(nil)
	mockLoanRepo.On("ApplyPayment", ctx, int64(7), int64(32_000)).Return(paid, nil)
	mockLoanRepo.On("RecordPayment", ctx, mock.MatchedBy(func(p *models.LoanPayment) bool {
		return p.LoanID == 7 && p.Amount == 32_000
	})).Return(nil)
	mockLedgerRepo.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.EntryType == models.EntryTypeLoanRepaid && e.ChangeAmount == -32_000
	})).Return(nil)
	mockPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		paidOff, ok := e.(events.LoanPaidOffEvent)
		return ok && paidOff.LoanID == 7
	})).Return()
	mockPublisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()

	loan, err := service.RepayLoan(ctx, 789, 123456, 32_000)

	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusPaid, loan.Status)
	assert.Equal(t, int64(0), loan.Remaining())

	mockLoanRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestLoanService_RepayLoan_PartialPaymentStaysActive(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockLoanRepo := new(MockLoanRepository)
	mockLedgerRepo := new(MockLedgerEntryRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(MockRepositories{
		Account:  mockAccountRepo,
		Loan:     mockLoanRepo,
		Ledger:   mockLedgerRepo,
		EventBus: mockPublisher,
	})

	service := NewLoanService(mockFactory)

	active := &models.Loan{
		ID: 7, DiscordID: 123456, TotalOwed: 1_032_000, AmountPaid: 0,
		Status: models.LoanStatusActive,
	}
	after := &models.Loan{
		ID: 7, DiscordID: 123456, TotalOwed: 1_032_000, AmountPaid: 500_000,
		Status: models.LoanStatusActive,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockLoanRepo.On("GetActiveByUser", ctx, int64(123456)).Return(active, nil)
	mockAccountRepo.On("GetByDiscordID", ctx, int64(123456)).Return(&models.Account{
		DiscordID: 123456, Balance: 600_000,
	}, nil)
	mockAccountRepo.On("DeductBalance", ctx, int64(123456), int64(500_000)).Return(nil)
	mockLoanRepo.On("ApplyPayment", ctx, int64(7), int64(500_000)).Return(after, nil)
	mockLoanRepo.On("RecordPayment", ctx, mock.Anything).Return(nil)
	mockLedgerRepo.On("Record", ctx, mock.Anything).Return(nil)
	mockPublisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()

	loan, err := service.RepayLoan(ctx, 789, 123456, 500_000)

	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusActive, loan.Status)
	assert.Equal(t, int64(532_000), loan.Remaining())

	mockPublisher.AssertNotCalled(t, "Publish", mock.AnythingOfType("events.LoanPaidOffEvent"))
}

func TestLoanService_RepayLoan_OverpaymentRejected(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockLoanRepo := new(MockLoanRepository)

	mockUoW.SetRepositories(MockRepositories{
		Account: mockAccountRepo,
		Loan:    mockLoanRepo,
	})

	service := NewLoanService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockLoanRepo.On("GetActiveByUser", ctx, int64(123456)).Return(&models.Loan{
		ID: 7, TotalOwed: 100_000, AmountPaid: 90_000, Status: models.LoanStatusActive,
	}, nil)

	_, err := service.RepayLoan(ctx, 789, 123456, 20_000)

	assert.ErrorIs(t, err, ErrOverpayment)
	mockAccountRepo.AssertNotCalled(t, "DeductBalance")
	mockLoanRepo.AssertNotCalled(t, "ApplyPayment")
}

func TestLoanService_RepayLoan_NoActiveLoan(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLoanRepo := new(MockLoanRepository)

	mockUoW.SetRepositories(MockRepositories{Loan: mockLoanRepo})

	service := NewLoanService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockLoanRepo.On("GetActiveByUser", ctx, int64(123456)).Return(nil, nil)

	_, err := service.RepayLoan(ctx, 789, 123456, 10_000)

	assert.ErrorIs(t, err, ErrNoActiveLoan)
}
