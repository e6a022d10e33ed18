package models

import "time"

// PresenceSettings is the single-row bot presence configuration edited from
// the dashboard and applied by the bot on its next poll.
type PresenceSettings struct {
	Status       string    `db:"status"`        // online, idle, dnd, invisible
	ActivityType string    `db:"activity_type"` // playing, listening, watching
	ActivityName string    `db:"activity_name"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// DefaultPresenceSettings returns the presence applied when no row exists.
func DefaultPresenceSettings() *PresenceSettings {
	return &PresenceSettings{
		Status:       "online",
		ActivityType: "playing",
		ActivityName: "community service",
	}
}

// BotStatus is a heartbeat row. Readers treat a heartbeat older than two
// minutes as offline.
type BotStatus struct {
	Name          string    `db:"name"`
	Status        string    `db:"status"`
	Message       string    `db:"message"`
	LastHeartbeat time.Time `db:"last_heartbeat"`
}

// HeartbeatStaleAfter is how old a heartbeat may be before the bot is
// reported offline.
const HeartbeatStaleAfter = 2 * time.Minute
