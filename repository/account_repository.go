package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"justbot/database"
	"justbot/models"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByDiscordID retrieves an account by its owner's Discord ID
func (r *AccountRepository) GetByDiscordID(ctx context.Context, discordID int64) (*models.Account, error) {
	query := `
		SELECT discord_id, username, balance, created_at, updated_at
		FROM accounts
		WHERE discord_id = $1
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, discordID).Scan(
		&account.DiscordID,
		&account.Username,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by discord ID %d: %w", discordID, err)
	}

	return &account, nil
}

// Create creates a new account with a zero balance
func (r *AccountRepository) Create(ctx context.Context, discordID int64, username string) (*models.Account, error) {
	query := `
		INSERT INTO accounts (discord_id, username, balance)
		VALUES ($1, $2, 0)
		RETURNING discord_id, username, balance, created_at, updated_at
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, discordID, username).Scan(
		&account.DiscordID,
		&account.Username,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create account for discord ID %d: %w", discordID, err)
	}

	return &account, nil
}

// UpdateUsername keeps the stored username in sync with Discord
func (r *AccountRepository) UpdateUsername(ctx context.Context, discordID int64, username string) error {
	query := `
		UPDATE accounts
		SET username = $1, updated_at = NOW()
		WHERE discord_id = $2
	`

	_, err := r.q.Exec(ctx, query, username, discordID)
	if err != nil {
		return fmt.Errorf("failed to update username for account %d: %w", discordID, err)
	}

	return nil
}

// AddBalance adds to an account's balance atomically
func (r *AccountRepository) AddBalance(ctx context.Context, discordID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE discord_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, discordID)
	if err != nil {
		return fmt.Errorf("failed to add balance for account %d: %w", discordID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account with discord ID %d not found", discordID)
	}

	return nil
}

// DeductBalance deducts from an account's balance atomically, failing if
// the balance would go negative
func (r *AccountRepository) DeductBalance(ctx context.Context, discordID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	// Guard in the WHERE clause so a concurrent debit cannot overdraw
	query := `
		UPDATE accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE discord_id = $2 AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, discordID)
	if err != nil {
		return fmt.Errorf("failed to deduct balance for account %d: %w", discordID, err)
	}

	if result.RowsAffected() == 0 {
		// Check if the account exists or has insufficient balance
		account, err := r.GetByDiscordID(ctx, discordID)
		if err != nil {
			return fmt.Errorf("failed to check account: %w", err)
		}
		if account == nil {
			return fmt.Errorf("account with discord ID %d not found", discordID)
		}
		return fmt.Errorf("insufficient balance: have %d, need %d", account.Balance, amount)
	}

	return nil
}

// GetAll returns all accounts ordered by balance
func (r *AccountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	query := `
		SELECT discord_id, username, balance, created_at, updated_at
		FROM accounts
		ORDER BY balance DESC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var account models.Account
		err := rows.Scan(
			&account.DiscordID,
			&account.Username,
			&account.Balance,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// CountAndTotal returns the number of accounts and the sum of all balances
func (r *AccountRepository) CountAndTotal(ctx context.Context) (int64, int64, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(balance), 0)
		FROM accounts
	`

	var count, total int64
	if err := r.q.QueryRow(ctx, query).Scan(&count, &total); err != nil {
		return 0, 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	return count, total, nil
}
