package models

import "time"

// DashboardUser is an admin-panel login. Either a local credential user
// (PasswordHash set) or a Discord OAuth user (DiscordUserID set, managed
// guilds resolved at login time).
type DashboardUser struct {
	ID              int64     `db:"id"`
	Username        string    `db:"username"`
	PasswordHash    *string   `db:"password_hash"`
	IsDiscordUser   bool      `db:"is_discord_user"`
	DiscordUserID   *int64    `db:"discord_user_id"`
	ManagedGuildIDs []int64   `db:"managed_guild_ids"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// CanManage reports whether the user's managed set includes the guild.
func (u *DashboardUser) CanManage(guildID int64) bool {
	for _, id := range u.ManagedGuildIDs {
		if id == guildID {
			return true
		}
	}
	return false
}
