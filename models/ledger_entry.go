package models

import (
	"time"
)

// EntryType represents the type of balance change
type EntryType string

const (
	EntryTypeDeposit     EntryType = "deposit"
	EntryTypeWithdrawal  EntryType = "withdrawal"
	EntryTypeTransferIn  EntryType = "transfer_in"
	EntryTypeTransferOut EntryType = "transfer_out"
	EntryTypeLoanTaken   EntryType = "loan_taken"
	EntryTypeLoanRepaid  EntryType = "loan_repaid"
	EntryTypeVehicleFee  EntryType = "vehicle_fee"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeLoan    RelatedType = "loan"
	RelatedTypeVehicle RelatedType = "vehicle_registration"
)

// LedgerEntry is an append-only record of one balance mutation.
type LedgerEntry struct {
	ID             int64          `db:"id"`
	DiscordID      int64          `db:"discord_id"`
	GuildID        int64          `db:"guild_id"`
	BalanceBefore  int64          `db:"balance_before"`
	BalanceAfter   int64          `db:"balance_after"`
	ChangeAmount   int64          `db:"change_amount"`
	EntryType      EntryType      `db:"entry_type"`
	CounterpartyID *int64         `db:"counterparty_id"`
	Metadata       map[string]any `db:"metadata"`
	RelatedID      *int64         `db:"related_id"`
	RelatedType    *RelatedType   `db:"related_type"`
	CreatedAt      time.Time      `db:"created_at"`
}
