package service

import (
	"context"
	"fmt"

	"justbot/events"
	"justbot/models"
)

type accountService struct {
	uowFactory UnitOfWorkFactory
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory) AccountService {
	return &accountService{
		uowFactory: uowFactory,
	}
}

// OpenAccount creates an account, failing if the user already has one
func (s *accountService) OpenAccount(ctx context.Context, discordID int64, username string) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.AccountRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, ErrAccountExists
	}

	account, err := uow.AccountRepository().Create(ctx, discordID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	uow.EventBus().Publish(events.AccountOpenedEvent{
		DiscordID: discordID,
		Username:  username,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return account, nil
}

// GetAccount retrieves an account, or nil if the user has none
func (s *accountService) GetAccount(ctx context.Context, discordID int64) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return account, nil
}

// Deposit credits an account and records a ledger entry
func (s *accountService) Deposit(ctx context.Context, guildID, discordID int64, amount int64) (*models.Account, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, ErrNoAccount
	}

	if err := uow.AccountRepository().AddBalance(ctx, discordID, amount); err != nil {
		return nil, fmt.Errorf("failed to credit account: %w", err)
	}

	entry := &models.LedgerEntry{
		DiscordID:     discordID,
		GuildID:       guildID,
		BalanceBefore: account.Balance,
		BalanceAfter:  account.Balance + amount,
		ChangeAmount:  amount,
		EntryType:     models.EntryTypeDeposit,
	}
	if err := RecordLedgerEntry(ctx, uow, entry); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	account.Balance += amount
	return account, nil
}

// Withdraw debits an account, failing on insufficient balance
func (s *accountService) Withdraw(ctx context.Context, guildID, discordID int64, amount int64) (*models.Account, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, ErrNoAccount
	}
	if account.Balance < amount {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, account.Balance, amount)
	}

	if err := uow.AccountRepository().DeductBalance(ctx, discordID, amount); err != nil {
		return nil, fmt.Errorf("failed to debit account: %w", err)
	}

	entry := &models.LedgerEntry{
		DiscordID:     discordID,
		GuildID:       guildID,
		BalanceBefore: account.Balance,
		BalanceAfter:  account.Balance - amount,
		ChangeAmount:  -amount,
		EntryType:     models.EntryTypeWithdrawal,
	}
	if err := RecordLedgerEntry(ctx, uow, entry); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	account.Balance -= amount
	return account, nil
}

// Transfer atomically moves amount between two accounts. Both the debit and
// the credit happen in one transaction, so a failure on either side leaves
// both balances untouched.
func (s *accountService) Transfer(ctx context.Context, guildID, fromID, toID int64, amount int64, toUsername string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if fromID == toID {
		return fmt.Errorf("cannot transfer to yourself")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	fromAccount, err := uow.AccountRepository().GetByDiscordID(ctx, fromID)
	if err != nil {
		return fmt.Errorf("failed to get sender account: %w", err)
	}
	if fromAccount == nil {
		return ErrNoAccount
	}
	if fromAccount.Balance < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, fromAccount.Balance, amount)
	}

	// The recipient gets an account on first receipt
	toAccount, err := uow.AccountRepository().GetByDiscordID(ctx, toID)
	if err != nil {
		return fmt.Errorf("failed to get recipient account: %w", err)
	}
	if toAccount == nil {
		toAccount, err = uow.AccountRepository().Create(ctx, toID, toUsername)
		if err != nil {
			return fmt.Errorf("failed to create recipient account: %w", err)
		}
	}

	if err := uow.AccountRepository().DeductBalance(ctx, fromID, amount); err != nil {
		return fmt.Errorf("failed to debit sender: %w", err)
	}
	if err := uow.AccountRepository().AddBalance(ctx, toID, amount); err != nil {
		return fmt.Errorf("failed to credit recipient: %w", err)
	}

	fromEntry := &models.LedgerEntry{
		DiscordID:      fromID,
		GuildID:        guildID,
		BalanceBefore:  fromAccount.Balance,
		BalanceAfter:   fromAccount.Balance - amount,
		ChangeAmount:   -amount,
		EntryType:      models.EntryTypeTransferOut,
		CounterpartyID: &toID,
		Metadata: map[string]any{
			"recipient_username": toAccount.Username,
		},
	}
	if err := RecordLedgerEntry(ctx, uow, fromEntry); err != nil {
		return err
	}

	toEntry := &models.LedgerEntry{
		DiscordID:      toID,
		GuildID:        guildID,
		BalanceBefore:  toAccount.Balance,
		BalanceAfter:   toAccount.Balance + amount,
		ChangeAmount:   amount,
		EntryType:      models.EntryTypeTransferIn,
		CounterpartyID: &fromID,
		Metadata: map[string]any{
			"sender_username": fromAccount.Username,
		},
	}
	if err := RecordLedgerEntry(ctx, uow, toEntry); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetHistory returns the most recent ledger entries for a user
func (s *accountService) GetHistory(ctx context.Context, discordID int64, limit int) ([]*models.LedgerEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.LedgerEntryRepository().GetByUser(ctx, discordID, limit)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return entries, nil
}
