package models

import "time"

// Account is a virtual-currency bank account. One account per owner.
// Balance is kept in the smallest currency unit and is never negative.
type Account struct {
	DiscordID int64     `db:"discord_id"`
	Username  string    `db:"username"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
