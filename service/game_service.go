package service

import (
	"context"
	"fmt"
	"math/rand"

	"justbot/models"
)

type gameService struct {
	uowFactory UnitOfWorkFactory
}

// NewGameService creates a new game service
func NewGameService(uowFactory UnitOfWorkFactory) GameService {
	return &gameService{
		uowFactory: uowFactory,
	}
}

// RollDice rolls an n-sided die (n >= 2) and records the play
func (s *gameService) RollDice(ctx context.Context, guildID, discordID int64, username string, sides int) (int, error) {
	if sides < 2 {
		return 0, ErrInvalidDiceSides
	}

	roll := rand.Intn(sides) + 1

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	record := &models.GameRecord{
		GuildID:   guildID,
		DiscordID: discordID,
		Username:  username,
		GameType:  models.GameTypeDice,
		Params: map[string]any{
			"sides": sides,
		},
		Outcome: fmt.Sprintf("%d", roll),
	}
	if err := uow.GameRepository().Record(ctx, record); err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return roll, nil
}

// PlayRPS plays one round of rock-paper-scissors against the bot
func (s *gameService) PlayRPS(ctx context.Context, guildID, discordID int64, username string, choice models.RPSChoice) (*models.RPSResult, error) {
	if !models.ValidRPSChoice(choice) {
		return nil, ErrInvalidRPSChoice
	}

	moves := []models.RPSChoice{models.RPSRock, models.RPSPaper, models.RPSScissors}
	botChoice := moves[rand.Intn(len(moves))]

	outcome := "draw"
	switch {
	case choice.Beats(botChoice):
		outcome = "win"
	case botChoice.Beats(choice):
		outcome = "lose"
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	record := &models.GameRecord{
		GuildID:   guildID,
		DiscordID: discordID,
		Username:  username,
		GameType:  models.GameTypeRPS,
		Params: map[string]any{
			"player": string(choice),
			"bot":    string(botChoice),
		},
		Outcome: outcome,
	}
	if err := uow.GameRepository().Record(ctx, record); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.RPSResult{
		Player:  choice,
		Bot:     botChoice,
		Outcome: outcome,
	}, nil
}
