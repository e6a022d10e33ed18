package testutil

import (
	"time"

	"justbot/models"
)

// CreateTestLedgerEntry creates a ledger entry with default values
func CreateTestLedgerEntry(discordID, guildID int64, entryType models.EntryType) *models.LedgerEntry {
	return &models.LedgerEntry{
		DiscordID:     discordID,
		GuildID:       guildID,
		BalanceBefore: 100000,
		BalanceAfter:  90000,
		ChangeAmount:  -10000,
		EntryType:     entryType,
		Metadata: map[string]any{
			"test": true,
		},
	}
}

// CreateTestLoan creates an active loan with default values
func CreateTestLoan(discordID, guildID int64, principal int64) *models.Loan {
	rate := models.DefaultLoanInterestRate
	return &models.Loan{
		DiscordID: discordID,
		GuildID:   guildID,
		Principal: principal,
		Rate:      rate,
		TotalOwed: int64(float64(principal) * (1 + rate)),
		Status:    models.LoanStatusActive,
		DueAt:     time.Now().Add(365 * 24 * time.Hour),
	}
}

// CreateTestRegistration creates a pending vehicle registration
func CreateTestRegistration(guildID, discordID int64, vehicleName string) *models.VehicleRegistration {
	return &models.VehicleRegistration{
		GuildID:     guildID,
		DiscordID:   discordID,
		Username:    "testuser",
		VehicleName: vehicleName,
		Fee:         models.DefaultVehicleRegistrationFee,
		Status:      models.VehicleStatusPending,
		ReviewBy:    time.Now().Add(5 * time.Minute),
	}
}

// CreateTestWarning creates a warning with default values
func CreateTestWarning(guildID, discordID int64, reason string) *models.Warning {
	return &models.Warning{
		GuildID:       guildID,
		DiscordID:     discordID,
		Username:      "testuser",
		ModeratorID:   999,
		ModeratorName: "testmod",
		Reason:        reason,
	}
}

// CreateTestTicket creates an open ticket bound to a channel
func CreateTestTicket(guildID, openerID, channelID int64) *models.Ticket {
	return &models.Ticket{
		GuildID:   guildID,
		OpenerID:  openerID,
		Username:  "testuser",
		ChannelID: channelID,
		Reason:    "test ticket",
		Status:    models.TicketStatusOpen,
	}
}
