package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"justbot/events"
	"justbot/models"
)

// loanTerm is how long the borrower has until the due date.
const loanTerm = 365 * 24 * time.Hour

type loanService struct {
	uowFactory UnitOfWorkFactory
}

// NewLoanService creates a new loan service
func NewLoanService(uowFactory UnitOfWorkFactory) LoanService {
	return &loanService{
		uowFactory: uowFactory,
	}
}

// TakeLoan issues a loan and credits the borrower's account. Interest is
// computed once at issuance: totalOwed = floor(amount * (1 + rate)).
func (s *loanService) TakeLoan(ctx context.Context, guildID, discordID int64, amount int64) (*models.Loan, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

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

	if !config.LoanEnabled {
		return nil, ErrLoansDisabled
	}
	if amount > config.MaxLoanAmount {
		return nil, fmt.Errorf("%w: requested %d, limit %d", ErrLoanTooLarge, amount, config.MaxLoanAmount)
	}

	account, err := uow.AccountRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, ErrNoAccount
	}

	active, err := uow.LoanRepository().GetActiveByUser(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active loan: %w", err)
	}
	if active != nil {
		return nil, ErrActiveLoan
	}

	totalOwed := int64(math.Floor(float64(amount) * (1 + config.LoanInterestRate)))

	loan := &models.Loan{
		DiscordID: discordID,
		GuildID:   guildID,
		Principal: amount,
		Rate:      config.LoanInterestRate,
		TotalOwed: totalOwed,
		Status:    models.LoanStatusActive,
		DueAt:     time.Now().Add(loanTerm),
	}
	if err := uow.LoanRepository().Create(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}

	if err := uow.AccountRepository().AddBalance(ctx, discordID, amount); err != nil {
		return nil, fmt.Errorf("failed to credit loan principal: %w", err)
	}

	entry := &models.LedgerEntry{
		DiscordID:     discordID,
		GuildID:       guildID,
		BalanceBefore: account.Balance,
		BalanceAfter:  account.Balance + amount,
		ChangeAmount:  amount,
		EntryType:     models.EntryTypeLoanTaken,
		RelatedID:     &loan.ID,
		RelatedType:   relatedTypePtr(models.RelatedTypeLoan),
		Metadata: map[string]any{
			"total_owed": totalOwed,
			"rate":       config.LoanInterestRate,
		},
	}
	if err := RecordLedgerEntry(ctx, uow, entry); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.LoanIssuedEvent{
		LoanID:    loan.ID,
		DiscordID: discordID,
		Principal: amount,
		TotalOwed: totalOwed,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return loan, nil
}

// RepayLoan debits the borrower and applies the payment to their active loan
func (s *loanService) RepayLoan(ctx context.Context, guildID, discordID int64, amount int64) (*models.Loan, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	loan, err := uow.LoanRepository().GetActiveByUser(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active loan: %w", err)
	}
	if loan == nil {
		return nil, ErrNoActiveLoan
	}
	if amount > loan.Remaining() {
		return nil, fmt.Errorf("%w: remaining %d, offered %d", ErrOverpayment, loan.Remaining(), amount)
	}

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
		return nil, fmt.Errorf("failed to debit repayment: %w", err)
	}

	updated, err := uow.LoanRepository().ApplyPayment(ctx, loan.ID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to apply payment: %w", err)
	}

	payment := &models.LoanPayment{
		LoanID:    loan.ID,
		DiscordID: discordID,
		Amount:    amount,
	}
	if err := uow.LoanRepository().RecordPayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	entry := &models.LedgerEntry{
		DiscordID:     discordID,
		GuildID:       guildID,
		BalanceBefore: account.Balance,
		BalanceAfter:  account.Balance - amount,
		ChangeAmount:  -amount,
		EntryType:     models.EntryTypeLoanRepaid,
		RelatedID:     &loan.ID,
		RelatedType:   relatedTypePtr(models.RelatedTypeLoan),
		Metadata: map[string]any{
			"remaining": updated.Remaining(),
		},
	}
	if err := RecordLedgerEntry(ctx, uow, entry); err != nil {
		return nil, err
	}

	if updated.Status == models.LoanStatusPaid {
		uow.EventBus().Publish(events.LoanPaidOffEvent{
			LoanID:    updated.ID,
			DiscordID: discordID,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return updated, nil
}

// GetActiveLoan returns the user's active loan, or nil
func (s *loanService) GetActiveLoan(ctx context.Context, discordID int64) (*models.Loan, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	loan, err := uow.LoanRepository().GetActiveByUser(ctx, discordID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return loan, nil
}

func relatedTypePtr(t models.RelatedType) *models.RelatedType {
	return &t
}
