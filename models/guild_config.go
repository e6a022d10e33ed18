package models

import (
	"strings"
	"time"
)

// Default values applied when a guild has no stored configuration,
// or when a nullable numeric field is NULL.
const (
	DefaultVehicleRegistrationFee = 50000
	DefaultLoanEnabled            = true
	DefaultMaxLoanAmount          = 1_000_000
	DefaultLoanInterestRate       = 0.032
	DefaultAutoKickWarnCount      = 5
	DefaultSpamThreshold          = 5
	DefaultSpamWindowSeconds      = 10
)

// DefaultForbiddenVehicles returns the forbidden vehicle name list applied
// when a guild has not configured its own.
func DefaultForbiddenVehicles() []string {
	return []string{"tank", "fighter jet", "nuclear submarine", "spaceship"}
}

// GuildConfig holds the per-guild configuration row. Channel and role
// bindings are nullable; a nil pointer means "not configured".
type GuildConfig struct {
	GuildID   int64  `db:"guild_id"`
	GuildName string `db:"guild_name"`

	WelcomeEnabled bool   `db:"welcome_enabled"`
	WelcomeText    string `db:"welcome_text"`
	LeaveEnabled   bool   `db:"leave_enabled"`
	LeaveText      string `db:"leave_text"`
	LogChannelID   *int64 `db:"log_channel_id"`

	VehicleRegistrationFee   int64    `db:"vehicle_registration_fee"`
	ForbiddenVehicles        []string `db:"forbidden_vehicles"`
	RegistrationChannelID    *int64   `db:"registration_channel_id"`
	VehicleAdminChannelID    *int64   `db:"vehicle_admin_channel_id"`
	VehicleAdminRoleID       *int64   `db:"vehicle_admin_role_id"`
	ApprovedVehicleChannelID *int64   `db:"approved_vehicle_channel_id"`

	BankChannelID    *int64  `db:"bank_channel_id"`
	LoanEnabled      bool    `db:"loan_enabled"`
	MaxLoanAmount    int64   `db:"max_loan_amount"`
	LoanInterestRate float64 `db:"loan_interest_rate"`

	AutoKickWarnCount int    `db:"auto_kick_warn_count"`
	MuteRoleID        *int64 `db:"mute_role_id"`

	InviteFilterEnabled bool `db:"invite_filter_enabled"`
	SpamFilterEnabled   bool `db:"spam_filter_enabled"`
	SpamThreshold       int  `db:"spam_threshold"`
	SpamWindowSeconds   int  `db:"spam_window_seconds"`

	TicketOpenChannelID *int64 `db:"ticket_open_channel_id"`
	TicketCategoryID    *int64 `db:"ticket_category_id"`
	TicketStaffRoleID   *int64 `db:"ticket_staff_role_id"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewGuildConfig returns a config row populated with defaults for a guild.
func NewGuildConfig(guildID int64, guildName string) *GuildConfig {
	return &GuildConfig{
		GuildID:                guildID,
		GuildName:              guildName,
		VehicleRegistrationFee: DefaultVehicleRegistrationFee,
		ForbiddenVehicles:      DefaultForbiddenVehicles(),
		LoanEnabled:            DefaultLoanEnabled,
		MaxLoanAmount:          DefaultMaxLoanAmount,
		LoanInterestRate:       DefaultLoanInterestRate,
		AutoKickWarnCount:      DefaultAutoKickWarnCount,
		SpamThreshold:          DefaultSpamThreshold,
		SpamWindowSeconds:      DefaultSpamWindowSeconds,
	}
}

// VehicleWorkflowConfigured reports whether all four bindings the vehicle
// registration workflow needs are present.
func (c *GuildConfig) VehicleWorkflowConfigured() bool {
	return c.RegistrationChannelID != nil &&
		c.VehicleAdminChannelID != nil &&
		c.VehicleAdminRoleID != nil &&
		c.ApprovedVehicleChannelID != nil
}

// TicketsConfigured reports whether the ticket subsystem bindings are present.
func (c *GuildConfig) TicketsConfigured() bool {
	return c.TicketOpenChannelID != nil &&
		c.TicketCategoryID != nil &&
		c.TicketStaffRoleID != nil
}

// IsVehicleForbidden matches the vehicle name against the forbidden list,
// case-insensitively.
func (c *GuildConfig) IsVehicleForbidden(name string) bool {
	for _, forbidden := range c.ForbiddenVehicles {
		if strings.EqualFold(strings.TrimSpace(name), forbidden) {
			return true
		}
	}
	return false
}

// CommandState is a per-guild enable flag for a single command. A missing
// row means the command is enabled.
type CommandState struct {
	GuildID     int64     `db:"guild_id"`
	CommandName string    `db:"command_name"`
	Enabled     bool      `db:"enabled"`
	UpdatedAt   time.Time `db:"updated_at"`
}
