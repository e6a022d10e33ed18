package common

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
	ColorInfo    = 0x3498DB // Blue
)

// Moderation constants
const (
	MinPurgeCount     = 1
	MaxPurgeCount     = 100
	MaxBanDeleteDays  = 7
	TicketDeleteDelay = 5 // seconds before a closed ticket channel is removed
)

// UI constants
const (
	MaxButtonsPerRow = 5
	MaxActionRows    = 5
)
