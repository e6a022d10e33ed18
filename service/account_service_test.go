package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"justbot/events"
	"justbot/models"
)

func TestAccountService_OpenAccount_New(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(MockRepositories{
		Account:  mockAccountRepo,
		EventBus: mockPublisher,
	})

	service := NewAccountService(mockFactory)

	created := &models.Account{
		DiscordID: 123456,
		Username:  "testuser",
		Balance:   0,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByDiscordID", ctx, int64(123456)).Return(nil, nil)
	mockAccountRepo.On("Create", ctx, int64(123456), "testuser").Return(created, nil)
	mockPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		opened, ok := e.(events.AccountOpenedEvent)
		return ok && opened.DiscordID == 123456
	})).Return()

	account, err := service.OpenAccount(ctx, 123456, "testuser")

	assert.NoError(t, err)
	assert.Equal(t, created, account)

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockAccountRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestAccountService_OpenAccount_AlreadyExists(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)

	mockUoW.SetRepositories(MockRepositories{Account: mockAccountRepo})

	service := NewAccountService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByDiscordID", ctx, int64(123456)).Return(&models.Account{DiscordID: 123456}, nil)

	account, err := service.OpenAccount(ctx, 123456, "testuser")

	assert.ErrorIs(t, err, ErrAccountExists)
	assert.Nil(t, account)
	mockAccountRepo.AssertNotCalled(t, "Create")
}

func TestAccountService_Withdraw_InsufficientBalance(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockLedgerRepo := new(MockLedgerEntryRepository)

	mockUoW.SetRepositories(MockRepositories{
		Account: mockAccountRepo,
		Ledger:  mockLedgerRepo,
	})

	service := NewAccountService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByDiscordID", ctx, int64(123456)).Return(&models.Account{
		DiscordID: 123456,
		Balance:   100_000,
	}, nil)

	account, err := service.Withdraw(ctx, 789, 123456, 150_000)

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Nil(t, account)

	// The account was never touched and nothing was recorded
	mockAccountRepo.AssertNotCalled(t, "DeductBalance")
	mockLedgerRepo.AssertNotCalled(t, "Record")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestAccountService_Deposit(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockLedgerRepo := new(MockLedgerEntryRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(MockRepositories{
		Account:  mockAccountRepo,
		Ledger:   mockLedgerRepo,
		EventBus: mockPublisher,
	})

	service := NewAccountService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByDiscordID", ctx, int64(123456)).Return(&models.Account{
		DiscordID: 123456,
		Balance:   10_000,
	}, nil)
	mockAccountRepo.On("AddBalance", ctx, int64(123456), int64(5_000)).Return(nil)
	mockLedgerRepo.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.DiscordID == 123456 &&
			e.BalanceBefore == 10_000 &&
			e.BalanceAfter == 15_000 &&
			e.ChangeAmount == 5_000 &&
			e.EntryType == models.EntryTypeDeposit
	})).Return(nil)
	mockPublisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()

	account, err := service.Deposit(ctx, 789, 123456, 5_000)

	assert.NoError(t, err)
	assert.Equal(t, int64(15_000), account.Balance)

	mockAccountRepo.AssertExpectations(t)
	mockLedgerRepo.AssertExpectations(t)
}

func TestAccountService_Deposit_NonPositiveAmount(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	service := NewAccountService(mockFactory)

	_, err := service.Deposit(ctx, 789, 123456, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = service.Deposit(ctx, 789, 123456, -50)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	mockFactory.AssertNotCalled(t, "Create")
}

func TestAccountService_Transfer_DebitAndCreditInOneTransaction(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockLedgerRepo := new(MockLedgerEntryRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(MockRepositories{
		Account:  mockAccountRepo,
		Ledger:   mockLedgerRepo,
		EventBus: mockPublisher,
	})

	service := NewAccountService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByDiscordID", ctx, int64(111)).Return(&models.Account{
		DiscordID: 111, Username: "sender", Balance: 50_000,
	}, nil)
	mockAccountRepo.On("GetByDiscordID", ctx, int64(222)).Return(&models.Account{
		DiscordID: 222, Username: "recipient", Balance: 1_000,
	}, nil)
	mockAccountRepo.On("DeductBalance", ctx, int64(111), int64(20_000)).Return(nil)
	mockAccountRepo.On("AddBalance", ctx, int64(222), int64(20_000)).Return(nil)

	mockLedgerRepo.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.DiscordID == 111 &&
			e.EntryType == models.EntryTypeTransferOut &&
			e.ChangeAmount == -20_000 &&
			e.CounterpartyID != nil && *e.CounterpartyID == 222
	})).Return(nil)
	mockLedgerRepo.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.DiscordID == 222 &&
			e.EntryType == models.EntryTypeTransferIn &&
			e.ChangeAmount == 20_000 &&
			e.CounterpartyID != nil && *e.CounterpartyID == 111
	})).Return(nil)
	mockPublisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return().Twice()

	err := service.Transfer(ctx, 789, 111, 222, 20_000, "recipient")

	assert.NoError(t, err)
	mockAccountRepo.AssertExpectations(t)
	mockLedgerRepo.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
}

func TestAccountService_Transfer_InsufficientBalanceLeavesBothUntouched(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockLedgerRepo := new(MockLedgerEntryRepository)

	mockUoW.SetRepositories(MockRepositories{
		Account: mockAccountRepo,
		Ledger:  mockLedgerRepo,
	})

	service := NewAccountService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByDiscordID", ctx, int64(111)).Return(&models.Account{
		DiscordID: 111, Balance: 5_000,
	}, nil)

	err := service.Transfer(ctx, 789, 111, 222, 20_000, "recipient")

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	mockAccountRepo.AssertNotCalled(t, "DeductBalance")
	mockAccountRepo.AssertNotCalled(t, "AddBalance")
	mockLedgerRepo.AssertNotCalled(t, "Record")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestAccountService_Transfer_ToSelf(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	service := NewAccountService(mockFactory)

	err := service.Transfer(ctx, 789, 111, 111, 1_000, "self")

	assert.Error(t, err)
	mockFactory.AssertNotCalled(t, "Create")
}

func TestAccountService_Transfer_CreatesRecipientAccount(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockLedgerRepo := new(MockLedgerEntryRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(MockRepositories{
		Account:  mockAccountRepo,
		Ledger:   mockLedgerRepo,
		EventBus: mockPublisher,
	})

	service := NewAccountService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByDiscordID", ctx, int64(111)).Return(&models.Account{
		DiscordID: 111, Username: "sender", Balance: 50_000,
	}, nil)
	mockAccountRepo.On("GetByDiscordID", ctx, int64(222)).Return(nil, nil)
	mockAccountRepo.On("Create", ctx, int64(222), "newbie").Return(&models.Account{
		DiscordID: 222, Username: "newbie", Balance: 0,
	}, nil)
	mockAccountRepo.On("DeductBalance", ctx, int64(111), int64(1_000)).Return(nil)
	mockAccountRepo.On("AddBalance", ctx, int64(222), int64(1_000)).Return(nil)
	mockLedgerRepo.On("Record", ctx, mock.Anything).Return(nil).Twice()
	mockPublisher.On("Publish", mock.Anything).Return().Twice()

	err := service.Transfer(ctx, 789, 111, 222, 1_000, "newbie")

	assert.NoError(t, err)
	mockAccountRepo.AssertExpectations(t)
}

func TestAccountService_GetHistory(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLedgerRepo := new(MockLedgerEntryRepository)

	mockUoW.SetRepositories(MockRepositories{Ledger: mockLedgerRepo})

	service := NewAccountService(mockFactory)

	entries := []*models.LedgerEntry{
		{ID: 2, DiscordID: 123456, EntryType: models.EntryTypeDeposit},
		{ID: 1, DiscordID: 123456, EntryType: models.EntryTypeWithdrawal},
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockLedgerRepo.On("GetByUser", ctx, int64(123456), 10).Return(entries, nil)

	got, err := service.GetHistory(ctx, 123456, 10)

	assert.NoError(t, err)
	assert.Equal(t, entries, got)
}
