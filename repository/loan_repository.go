package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"justbot/database"
	"justbot/models"
)

// LoanRepository implements the LoanRepository interface
type LoanRepository struct {
	q queryable
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *database.DB) *LoanRepository {
	return &LoanRepository{q: db.Pool}
}

// newLoanRepositoryWithTx creates a new loan repository with a transaction
func newLoanRepositoryWithTx(tx queryable) *LoanRepository {
	return &LoanRepository{q: tx}
}

// Create inserts a new loan
func (r *LoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	query := `
		INSERT INTO loans (discord_id, guild_id, principal, rate, total_owed, status, due_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, amount_paid, issued_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		loan.DiscordID,
		loan.GuildID,
		loan.Principal,
		loan.Rate,
		loan.TotalOwed,
		loan.Status,
		loan.DueAt,
	).Scan(&loan.ID, &loan.AmountPaid, &loan.IssuedAt, &loan.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create loan for user %d: %w", loan.DiscordID, err)
	}

	return nil
}

// GetByID retrieves a loan by its ID
func (r *LoanRepository) GetByID(ctx context.Context, id int64) (*models.Loan, error) {
	query := `
		SELECT id, discord_id, guild_id, principal, rate, total_owed, amount_paid, status, issued_at, due_at, updated_at
		FROM loans
		WHERE id = $1
	`

	var loan models.Loan
	err := r.q.QueryRow(ctx, query, id).Scan(
		&loan.ID,
		&loan.DiscordID,
		&loan.GuildID,
		&loan.Principal,
		&loan.Rate,
		&loan.TotalOwed,
		&loan.AmountPaid,
		&loan.Status,
		&loan.IssuedAt,
		&loan.DueAt,
		&loan.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan %d: %w", id, err)
	}

	return &loan, nil
}

// GetActiveByUser returns the user's active loan, or nil if they have none
func (r *LoanRepository) GetActiveByUser(ctx context.Context, discordID int64) (*models.Loan, error) {
	query := `
		SELECT id, discord_id, guild_id, principal, rate, total_owed, amount_paid, status, issued_at, due_at, updated_at
		FROM loans
		WHERE discord_id = $1 AND status = $2
	`

	var loan models.Loan
	err := r.q.QueryRow(ctx, query, discordID, models.LoanStatusActive).Scan(
		&loan.ID,
		&loan.DiscordID,
		&loan.GuildID,
		&loan.Principal,
		&loan.Rate,
		&loan.TotalOwed,
		&loan.AmountPaid,
		&loan.Status,
		&loan.IssuedAt,
		&loan.DueAt,
		&loan.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active loan for user %d: %w", discordID, err)
	}

	return &loan, nil
}

// ApplyPayment increases amount_paid and returns the updated loan. The WHERE
// clause caps the payment so amount_paid can never exceed total_owed.
func (r *LoanRepository) ApplyPayment(ctx context.Context, loanID int64, amount int64) (*models.Loan, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE loans
		SET amount_paid = amount_paid + $1,
		    status = CASE WHEN amount_paid + $1 >= total_owed THEN 'paid' ELSE status END,
		    updated_at = NOW()
		WHERE id = $2 AND status = 'active' AND amount_paid + $1 <= total_owed
		RETURNING id, discord_id, guild_id, principal, rate, total_owed, amount_paid, status, issued_at, due_at, updated_at
	`

	var loan models.Loan
	err := r.q.QueryRow(ctx, query, amount, loanID).Scan(
		&loan.ID,
		&loan.DiscordID,
		&loan.GuildID,
		&loan.Principal,
		&loan.Rate,
		&loan.TotalOwed,
		&loan.AmountPaid,
		&loan.Status,
		&loan.IssuedAt,
		&loan.DueAt,
		&loan.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("payment of %d rejected for loan %d: loan not active or amount exceeds remaining debt", amount, loanID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply payment to loan %d: %w", loanID, err)
	}

	return &loan, nil
}

// RecordPayment inserts a row in the payment log
func (r *LoanRepository) RecordPayment(ctx context.Context, payment *models.LoanPayment) error {
	query := `
		INSERT INTO loan_payments (loan_id, discord_id, amount)
		VALUES ($1, $2, $3)
		RETURNING id, paid_at
	`

	err := r.q.QueryRow(ctx, query,
		payment.LoanID,
		payment.DiscordID,
		payment.Amount,
	).Scan(&payment.ID, &payment.PaidAt)

	if err != nil {
		return fmt.Errorf("failed to record payment for loan %d: %w", payment.LoanID, err)
	}

	return nil
}

// GetPayments returns all payments against a loan, oldest first
func (r *LoanRepository) GetPayments(ctx context.Context, loanID int64) ([]*models.LoanPayment, error) {
	query := `
		SELECT id, loan_id, discord_id, amount, paid_at
		FROM loan_payments
		WHERE loan_id = $1
		ORDER BY paid_at ASC, id ASC
	`

	rows, err := r.q.Query(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments for loan %d: %w", loanID, err)
	}
	defer rows.Close()

	var payments []*models.LoanPayment
	for rows.Next() {
		var payment models.LoanPayment
		err := rows.Scan(
			&payment.ID,
			&payment.LoanID,
			&payment.DiscordID,
			&payment.Amount,
			&payment.PaidAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan payment: %w", err)
		}
		payments = append(payments, &payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loan payments: %w", err)
	}

	return payments, nil
}

// CountActiveByGuild returns the number of active loans and the total
// outstanding debt for a guild
func (r *LoanRepository) CountActiveByGuild(ctx context.Context, guildID int64) (int64, int64, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(total_owed - amount_paid), 0)
		FROM loans
		WHERE guild_id = $1 AND status = $2
	`

	var count, outstanding int64
	if err := r.q.QueryRow(ctx, query, guildID, models.LoanStatusActive).Scan(&count, &outstanding); err != nil {
		return 0, 0, fmt.Errorf("failed to count active loans for guild %d: %w", guildID, err)
	}

	return count, outstanding, nil
}
