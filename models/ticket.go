package models

import "time"

// TicketStatus represents the lifecycle state of a support ticket
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

// Ticket is a support ticket. One open ticket per opener per guild.
type Ticket struct {
	ID        int64        `db:"id"`
	GuildID   int64        `db:"guild_id"`
	OpenerID  int64        `db:"opener_id"`
	Username  string       `db:"username"`
	ChannelID int64        `db:"channel_id"`
	Reason    string       `db:"reason"`
	Status    TicketStatus `db:"status"`
	OpenedAt  time.Time    `db:"opened_at"`
	ClosedAt  *time.Time   `db:"closed_at"`
	ClosedBy  *int64       `db:"closed_by"`
}
