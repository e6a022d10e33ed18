package models

import "time"

// VehicleStatus represents the state of a registration request.
// Transitions are pending -> approved | rejected | timed_out only;
// the three non-pending states are terminal.
type VehicleStatus string

const (
	VehicleStatusPending  VehicleStatus = "pending"
	VehicleStatusApproved VehicleStatus = "approved"
	VehicleStatusRejected VehicleStatus = "rejected"
	VehicleStatusTimedOut VehicleStatus = "timed_out"
)

// VehicleRegistration is a vehicle registration request. The fee is debited
// at submission time and is not refunded on rejection or timeout.
type VehicleRegistration struct {
	ID           int64         `db:"id"`
	GuildID      int64         `db:"guild_id"`
	DiscordID    int64         `db:"discord_id"`
	Username     string        `db:"username"`
	VehicleName  string        `db:"vehicle_name"`
	Fee          int64         `db:"fee"`
	Status       VehicleStatus `db:"status"`
	ReviewerID   *int64        `db:"reviewer_id"`
	RejectReason *string       `db:"reject_reason"`
	MessageID    *int64        `db:"message_id"`
	RequestedAt  time.Time     `db:"requested_at"`
	ReviewBy     time.Time     `db:"review_by"`
	DecidedAt    *time.Time    `db:"decided_at"`
}

// IsPending reports whether the request can still be decided.
func (v *VehicleRegistration) IsPending() bool {
	return v.Status == VehicleStatusPending
}
