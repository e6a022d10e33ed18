package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"justbot/models"
)

func TestGameService_RollDice(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockGameRepo := new(MockGameRepository)

	mockUoW.SetRepositories(MockRepositories{Game: mockGameRepo})

	service := NewGameService(mockFactory)

	var recorded *models.GameRecord
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockGameRepo.On("Record", ctx, mock.MatchedBy(func(r *models.GameRecord) bool {
		recorded = r
		return r.GameType == models.GameTypeDice && r.Params["sides"] == 6
	})).Return(nil)

	roll, err := service.RollDice(ctx, 789, 123456, "tester", 6)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, roll, 1)
	assert.LessOrEqual(t, roll, 6)
	assert.Equal(t, fmt.Sprintf("%d", roll), recorded.Outcome)
}

func TestGameService_RollDice_TooFewSides(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	service := NewGameService(mockFactory)

	_, err := service.RollDice(ctx, 789, 123456, "tester", 1)
	assert.ErrorIs(t, err, ErrInvalidDiceSides)

	_, err = service.RollDice(ctx, 789, 123456, "tester", 0)
	assert.ErrorIs(t, err, ErrInvalidDiceSides)

	mockFactory.AssertNotCalled(t, "Create")
}

func TestGameService_PlayRPS(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockGameRepo := new(MockGameRepository)

	mockUoW.SetRepositories(MockRepositories{Game: mockGameRepo})

	service := NewGameService(mockFactory)

	var recorded *models.GameRecord
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockGameRepo.On("Record", ctx, mock.MatchedBy(func(r *models.GameRecord) bool {
		recorded = r
		return r.GameType == models.GameTypeRPS && r.Params["player"] == string(models.RPSRock)
	})).Return(nil)

	result, err := service.PlayRPS(ctx, 789, 123456, "tester", models.RPSRock)

	assert.NoError(t, err)
	assert.Equal(t, models.RPSRock, result.Player)
	assert.True(t, models.ValidRPSChoice(result.Bot))

	// The recorded outcome matches the relationship between the two moves
	switch {
	case result.Player.Beats(result.Bot):
		assert.Equal(t, "win", result.Outcome)
	case result.Bot.Beats(result.Player):
		assert.Equal(t, "lose", result.Outcome)
	default:
		assert.Equal(t, "draw", result.Outcome)
	}
	assert.Equal(t, result.Outcome, recorded.Outcome)
	assert.Equal(t, string(result.Bot), recorded.Params["bot"])
}

func TestGameService_PlayRPS_InvalidChoice(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	service := NewGameService(mockFactory)

	_, err := service.PlayRPS(ctx, 789, 123456, "tester", models.RPSChoice("lizard"))

	assert.ErrorIs(t, err, ErrInvalidRPSChoice)
	mockFactory.AssertNotCalled(t, "Create")
}
