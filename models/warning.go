package models

import "time"

// Warning is an append-only moderation record against a user. Individual
// warnings may be deleted by a moderator.
type Warning struct {
	ID            int64     `db:"id"`
	GuildID       int64     `db:"guild_id"`
	DiscordID     int64     `db:"discord_id"`
	Username      string    `db:"username"`
	ModeratorID   int64     `db:"moderator_id"`
	ModeratorName string    `db:"moderator_name"`
	Reason        string    `db:"reason"`
	CreatedAt     time.Time `db:"created_at"`
}

// WarnResult reports the outcome of issuing a warning. AutoKickTriggered is
// true only on the warning that reaches the guild's threshold, never on
// warnings past it.
type WarnResult struct {
	Warning           *Warning
	TotalCount        int
	Threshold         int
	AutoKickTriggered bool
}

// SecurityReport is a point-in-time summary of a guild's moderation state.
type SecurityReport struct {
	GuildID              int64
	WarningCount         int64
	OpenTicketCount      int64
	BlacklistCount       int64
	PendingRegistrations int
	GeneratedAt          time.Time
}

// BlacklistedUser is a global (cross-guild) known-bad user entry.
type BlacklistedUser struct {
	DiscordID int64     `db:"discord_id"`
	Reason    string    `db:"reason"`
	AddedBy   int64     `db:"added_by"`
	CreatedAt time.Time `db:"created_at"`
}
