package games

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"justbot/bot/common"
	"justbot/models"
	"justbot/service"
)

var rpsEmoji = map[models.RPSChoice]string{
	models.RPSRock:     "✊ 바위",
	models.RPSPaper:    "✋ 보",
	models.RPSScissors: "✌️ 가위",
}

var rpsChoiceByName = map[string]models.RPSChoice{
	"바위": models.RPSRock,
	"보":  models.RPSPaper,
	"가위": models.RPSScissors,
}

// Feature handles the trivial games: dice rolls and rock-paper-scissors.
type Feature struct {
	gameService service.GameService
}

func New(gameService service.GameService) *Feature {
	return &Feature{gameService: gameService}
}

// HandleCommand routes a game slash command to its handler
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "주사위":
		f.handleDice(s, i)
	case "가위바위보":
		f.handleRPS(s, i)
	}
}

func (f *Feature) handleDice(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return
	}
	userID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse user ID"), false)
		return
	}

	sides := 6
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "면수" {
			sides = int(opt.IntValue())
		}
	}

	roll, err := f.gameService.RollDice(ctx, guildID, userID, i.Member.User.Username, sides)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDiceSides) {
			common.RespondWithError(s, i, "주사위는 2면 이상이어야 합니다.")
			return
		}
		common.HandleError(s, i, common.NewSystemError(err, "failed to roll dice"), false)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎲 주사위",
		Description: fmt.Sprintf("%s님이 %d면 주사위를 굴려 **%d**이(가) 나왔습니다!", common.GetDisplayName(s, i.GuildID, i.Member.User.ID), sides, roll),
		Color:       common.ColorPrimary,
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.WithError(err).Error("Failed to respond to dice roll")
	}
}

func (f *Feature) handleRPS(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return
	}
	userID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse user ID"), false)
		return
	}

	var choiceName string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "선택" {
			choiceName = opt.StringValue()
		}
	}
	choice, ok := rpsChoiceByName[choiceName]
	if !ok {
		common.RespondWithError(s, i, "가위, 바위, 보 중에서 선택해주세요.")
		return
	}

	result, err := f.gameService.PlayRPS(ctx, guildID, userID, i.Member.User.Username, choice)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRPSChoice) {
			common.RespondWithError(s, i, "가위, 바위, 보 중에서 선택해주세요.")
			return
		}
		common.HandleError(s, i, common.NewSystemError(err, "failed to play rock-paper-scissors"), false)
		return
	}

	var verdict string
	var color int
	switch result.Outcome {
	case "win":
		verdict = "🎉 이겼습니다!"
		color = common.ColorSuccess
	case "lose":
		verdict = "😢 졌습니다..."
		color = common.ColorDanger
	default:
		verdict = "🤝 비겼습니다."
		color = common.ColorWarning
	}

	embed := &discordgo.MessageEmbed{
		Title:       "✂️ 가위바위보",
		Description: verdict,
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "당신", Value: rpsEmoji[result.Player], Inline: true},
			{Name: "봇", Value: rpsEmoji[result.Bot], Inline: true},
		},
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.WithError(err).Error("Failed to respond to rock-paper-scissors")
	}
}
