package admin

import (
	"github.com/bwmarrin/discordgo"

	"justbot/ai"
	"justbot/bot/common"
	"justbot/service"
)

// Feature handles guild configuration: channel and role bindings, the
// registration fee and forbidden-vehicle list, per-guild command toggles,
// bot status and presence, and the AI channel rename.
type Feature struct {
	configService service.GuildConfigService
	statusService service.StatusService
	suggester     ai.Suggester
	superAdminID  string
}

func New(configService service.GuildConfigService, statusService service.StatusService, suggester ai.Suggester, superAdminID string) *Feature {
	return &Feature{
		configService: configService,
		statusService: statusService,
		suggester:     suggester,
		superAdminID:  superAdminID,
	}
}

// HandleCommand routes the admin command groups to their handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	switch data.Name {
	case "봇상태":
		f.handleBotStatus(s, i)
		return
	case "채널명변경":
		f.handleRenameChannel(s, i)
		return
	}

	if !common.IsUserAdmin(s, i.GuildID, i.Member.User.ID) {
		common.RespondWithError(s, i, "관리자만 사용할 수 있는 명령어입니다.")
		return
	}

	switch data.Name {
	case "설정":
		f.handleConfig(s, i)
	case "명령어":
		f.handleCommandToggle(s, i)
	}
}

func (f *Feature) handleConfig(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if len(i.ApplicationCommandData().Options) == 0 {
		return
	}
	sub := i.ApplicationCommandData().Options[0]

	switch sub.Name {
	case "차량등록채널", "차량관리채널", "차량승인채널", "은행채널", "티켓개설채널", "티켓카테고리", "로그채널":
		f.handleChannelBinding(s, i, sub)
	case "차량관리역할", "티켓관리역할":
		f.handleRoleBinding(s, i, sub)
	case "등록세":
		f.handleRegistrationFee(s, i, sub)
	case "금지차량":
		f.handleForbiddenVehicles(s, i, sub)
	case "스팸필터", "초대필터":
		f.handleFilterToggle(s, i, sub)
	case "모든설정확인":
		f.handleShowConfig(s, i)
	case "봇상태설정":
		f.handleSetPresence(s, i, sub)
	}
}
