package models

import "time"

// LoanStatus represents the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusActive LoanStatus = "active"
	LoanStatusPaid   LoanStatus = "paid"
)

// Loan tracks an issued loan. At most one active loan per owner.
// Interest is computed once at issuance; TotalOwed = floor(principal * (1 + rate)).
type Loan struct {
	ID         int64      `db:"id"`
	DiscordID  int64      `db:"discord_id"`
	GuildID    int64      `db:"guild_id"`
	Principal  int64      `db:"principal"`
	Rate       float64    `db:"rate"`
	TotalOwed  int64      `db:"total_owed"`
	AmountPaid int64      `db:"amount_paid"`
	Status     LoanStatus `db:"status"`
	IssuedAt   time.Time  `db:"issued_at"`
	DueAt      time.Time  `db:"due_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

// Remaining returns the amount still owed on the loan.
func (l *Loan) Remaining() int64 {
	return l.TotalOwed - l.AmountPaid
}

// LoanPayment records a single repayment against a loan.
type LoanPayment struct {
	ID        int64     `db:"id"`
	LoanID    int64     `db:"loan_id"`
	DiscordID int64     `db:"discord_id"`
	Amount    int64     `db:"amount"`
	PaidAt    time.Time `db:"paid_at"`
}
