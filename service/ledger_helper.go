package service

import (
	"context"
	"fmt"

	"justbot/events"
	"justbot/models"
)

// RecordLedgerEntry records a ledger entry and emits a balance change event.
// This is the single entry point for all balance changes in the system.
func RecordLedgerEntry(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry) error {
	if err := uow.LedgerEntryRepository().Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	// Emitted after the transaction commits
	event := events.BalanceChangeEvent{
		DiscordID:    entry.DiscordID,
		GuildID:      entry.GuildID,
		OldBalance:   entry.BalanceBefore,
		NewBalance:   entry.BalanceAfter,
		EntryType:    entry.EntryType,
		ChangeAmount: entry.ChangeAmount,
	}
	uow.EventBus().Publish(event)

	return nil
}
