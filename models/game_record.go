package models

import "time"

// GameType identifies which trivial game produced a record
type GameType string

const (
	GameTypeDice GameType = "dice"
	GameTypeRPS  GameType = "rps"
)

// GameRecord is an append-only, purely informational record of one game play.
type GameRecord struct {
	ID        int64          `db:"id"`
	GuildID   int64          `db:"guild_id"`
	DiscordID int64          `db:"discord_id"`
	Username  string         `db:"username"`
	GameType  GameType       `db:"game_type"`
	Params    map[string]any `db:"params"`
	Outcome   string         `db:"outcome"`
	CreatedAt time.Time      `db:"created_at"`
}

// RPSResult is the outcome of one rock-paper-scissors round against the bot.
type RPSResult struct {
	Player  RPSChoice
	Bot     RPSChoice
	Outcome string // win, lose, draw
}

// RPSChoice is a rock-paper-scissors move
type RPSChoice string

const (
	RPSRock     RPSChoice = "rock"
	RPSPaper    RPSChoice = "paper"
	RPSScissors RPSChoice = "scissors"
)

// ValidRPSChoice reports whether the choice is one of the three moves.
func ValidRPSChoice(c RPSChoice) bool {
	return c == RPSRock || c == RPSPaper || c == RPSScissors
}

// Beats reports whether choice a wins against choice b.
func (a RPSChoice) Beats(b RPSChoice) bool {
	switch a {
	case RPSRock:
		return b == RPSScissors
	case RPSPaper:
		return b == RPSRock
	case RPSScissors:
		return b == RPSPaper
	}
	return false
}
