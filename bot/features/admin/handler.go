package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"justbot/bot/common"
	"justbot/models"
)

// loadConfig fetches the interaction's guild config, responding with an
// error when that fails.
func (f *Feature) loadConfig(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) (*models.GuildConfig, bool) {
	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return nil, false
	}
	config, err := f.configService.GetConfig(ctx, guildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to load guild config"), false)
		return nil, false
	}
	return config, true
}

func (f *Feature) saveConfig(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, config *models.GuildConfig, confirmation string) {
	if err := f.configService.UpdateConfig(ctx, config); err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to save guild config"), false)
		return
	}
	if err := common.RespondWithSuccess(s, i, confirmation, true); err != nil {
		log.WithError(err).Error("Failed to respond to config change")
	}
}

func (f *Feature) handleChannelBinding(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	if len(sub.Options) == 0 {
		common.RespondWithError(s, i, "채널을 지정해주세요.")
		return
	}
	channel := sub.Options[0].ChannelValue(s)
	if channel == nil {
		common.RespondWithError(s, i, "채널을 찾을 수 없습니다.")
		return
	}
	channelID, err := common.ParseUserID(channel.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse channel ID"), false)
		return
	}

	config, ok := f.loadConfig(ctx, s, i)
	if !ok {
		return
	}

	switch sub.Name {
	case "차량등록채널":
		config.RegistrationChannelID = &channelID
	case "차량관리채널":
		config.VehicleAdminChannelID = &channelID
	case "차량승인채널":
		config.ApprovedVehicleChannelID = &channelID
	case "은행채널":
		config.BankChannelID = &channelID
	case "티켓개설채널":
		config.TicketOpenChannelID = &channelID
	case "티켓카테고리":
		if channel.Type != discordgo.ChannelTypeGuildCategory {
			common.RespondWithError(s, i, "카테고리 채널을 지정해주세요.")
			return
		}
		config.TicketCategoryID = &channelID
	case "로그채널":
		config.LogChannelID = &channelID
	}

	f.saveConfig(ctx, s, i, config, fmt.Sprintf("**%s**을(를) <#%d>(으)로 설정했습니다.", sub.Name, channelID))
}

func (f *Feature) handleRoleBinding(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	if len(sub.Options) == 0 {
		common.RespondWithError(s, i, "역할을 지정해주세요.")
		return
	}
	role := sub.Options[0].RoleValue(s, i.GuildID)
	if role == nil {
		common.RespondWithError(s, i, "역할을 찾을 수 없습니다.")
		return
	}
	roleID, err := common.ParseUserID(role.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse role ID"), false)
		return
	}

	config, ok := f.loadConfig(ctx, s, i)
	if !ok {
		return
	}

	switch sub.Name {
	case "차량관리역할":
		config.VehicleAdminRoleID = &roleID
	case "티켓관리역할":
		config.TicketStaffRoleID = &roleID
	}

	f.saveConfig(ctx, s, i, config, fmt.Sprintf("**%s**을(를) **%s** 역할로 설정했습니다.", sub.Name, role.Name))
}

func (f *Feature) handleRegistrationFee(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	if len(sub.Options) == 0 {
		common.RespondWithError(s, i, "등록세 금액을 입력해주세요.")
		return
	}
	fee := sub.Options[0].IntValue()
	if fee < 0 {
		common.RespondWithError(s, i, "등록세는 0원 이상이어야 합니다.")
		return
	}

	config, ok := f.loadConfig(ctx, s, i)
	if !ok {
		return
	}
	config.VehicleRegistrationFee = fee

	f.saveConfig(ctx, s, i, config, fmt.Sprintf("차량 등록세를 %s(으)로 설정했습니다.", common.FormatBalance(fee)))
}

func (f *Feature) handleForbiddenVehicles(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	if len(sub.Options) == 0 {
		return
	}
	action := sub.Options[0]

	config, ok := f.loadConfig(ctx, s, i)
	if !ok {
		return
	}

	switch action.Name {
	case "추가":
		name := strings.TrimSpace(action.Options[0].StringValue())
		if name == "" {
			common.RespondWithError(s, i, "차량 이름을 입력해주세요.")
			return
		}
		if config.IsVehicleForbidden(name) {
			common.RespondWithError(s, i, fmt.Sprintf("**%s**은(는) 이미 금지 목록에 있습니다.", name))
			return
		}
		config.ForbiddenVehicles = append(config.ForbiddenVehicles, name)
		f.saveConfig(ctx, s, i, config, fmt.Sprintf("**%s**을(를) 금지 차량 목록에 추가했습니다.", name))

	case "삭제":
		name := strings.TrimSpace(action.Options[0].StringValue())
		kept := make([]string, 0, len(config.ForbiddenVehicles))
		removed := false
		for _, v := range config.ForbiddenVehicles {
			if strings.EqualFold(v, name) {
				removed = true
				continue
			}
			kept = append(kept, v)
		}
		if !removed {
			common.RespondWithError(s, i, fmt.Sprintf("**%s**은(는) 금지 목록에 없습니다.", name))
			return
		}
		config.ForbiddenVehicles = kept
		f.saveConfig(ctx, s, i, config, fmt.Sprintf("**%s**을(를) 금지 차량 목록에서 삭제했습니다.", name))

	case "목록":
		if len(config.ForbiddenVehicles) == 0 {
			if err := common.RespondWithSuccess(s, i, "금지된 차량이 없습니다.", true); err != nil {
				log.WithError(err).Error("Failed to respond to forbidden vehicle list")
			}
			return
		}
		embed := &discordgo.MessageEmbed{
			Title:       "🚫 금지 차량 목록",
			Description: "• " + strings.Join(config.ForbiddenVehicles, "\n• "),
			Color:       common.ColorDanger,
		}
		if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
			log.WithError(err).Error("Failed to respond to forbidden vehicle list")
		}
	}
}

func (f *Feature) handleFilterToggle(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	if len(sub.Options) == 0 {
		common.RespondWithError(s, i, "켜기 또는 끄기를 선택해주세요.")
		return
	}
	enabled := sub.Options[0].BoolValue()

	config, ok := f.loadConfig(ctx, s, i)
	if !ok {
		return
	}

	var label string
	switch sub.Name {
	case "스팸필터":
		config.SpamFilterEnabled = enabled
		label = "스팸 필터"
	case "초대필터":
		config.InviteFilterEnabled = enabled
		label = "초대링크 필터"
	}

	state := "껐습니다"
	if enabled {
		state = "켰습니다"
	}
	f.saveConfig(ctx, s, i, config, fmt.Sprintf("%s를 %s.", label, state))
}

func formatChannelBinding(id *int64) string {
	if id == nil {
		return "미설정"
	}
	return fmt.Sprintf("<#%d>", *id)
}

func formatRoleBinding(id *int64) string {
	if id == nil {
		return "미설정"
	}
	return fmt.Sprintf("<@&%d>", *id)
}

func (f *Feature) handleShowConfig(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	config, ok := f.loadConfig(ctx, s, i)
	if !ok {
		return
	}

	onOff := func(enabled bool) string {
		if enabled {
			return "✅"
		}
		return "❌"
	}

	embed := &discordgo.MessageEmbed{
		Title: "⚙️ 서버 설정",
		Color: common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "차량 등록 채널", Value: formatChannelBinding(config.RegistrationChannelID), Inline: true},
			{Name: "차량 관리 채널", Value: formatChannelBinding(config.VehicleAdminChannelID), Inline: true},
			{Name: "차량 승인 채널", Value: formatChannelBinding(config.ApprovedVehicleChannelID), Inline: true},
			{Name: "차량 관리 역할", Value: formatRoleBinding(config.VehicleAdminRoleID), Inline: true},
			{Name: "차량 등록세", Value: common.FormatBalance(config.VehicleRegistrationFee), Inline: true},
			{Name: "금지 차량", Value: fmt.Sprintf("%d종", len(config.ForbiddenVehicles)), Inline: true},
			{Name: "은행 채널", Value: formatChannelBinding(config.BankChannelID), Inline: true},
			{Name: "대출", Value: onOff(config.LoanEnabled), Inline: true},
			{Name: "대출 한도", Value: common.FormatBalance(config.MaxLoanAmount), Inline: true},
			{Name: "티켓 개설 채널", Value: formatChannelBinding(config.TicketOpenChannelID), Inline: true},
			{Name: "티켓 카테고리", Value: formatChannelBinding(config.TicketCategoryID), Inline: true},
			{Name: "티켓 관리 역할", Value: formatRoleBinding(config.TicketStaffRoleID), Inline: true},
			{Name: "자동 추방 경고 횟수", Value: fmt.Sprintf("%d회", config.AutoKickWarnCount), Inline: true},
			{Name: "스팸 필터", Value: onOff(config.SpamFilterEnabled), Inline: true},
			{Name: "초대링크 필터", Value: onOff(config.InviteFilterEnabled), Inline: true},
		},
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.WithError(err).Error("Failed to respond to config overview")
	}
}

func (f *Feature) handleCommandToggle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return
	}

	switch sub.Name {
	case "켜기", "끄기":
		if len(sub.Options) == 0 {
			common.RespondWithError(s, i, "명령어 이름을 입력해주세요.")
			return
		}
		commandName := strings.TrimSpace(sub.Options[0].StringValue())
		enabled := sub.Name == "켜기"

		if err := f.configService.SetCommandEnabled(ctx, guildID, commandName, enabled); err != nil {
			common.HandleError(s, i, common.NewSystemError(err, "failed to toggle command"), false)
			return
		}

		state := "비활성화했습니다"
		if enabled {
			state = "활성화했습니다"
		}
		if err := common.RespondWithSuccess(s, i, fmt.Sprintf("`/%s` 명령어를 %s.", commandName, state), true); err != nil {
			log.WithError(err).Error("Failed to respond to command toggle")
		}

	case "목록":
		states, err := f.configService.ListCommandStates(ctx, guildID)
		if err != nil {
			common.HandleError(s, i, common.NewSystemError(err, "failed to list command states"), false)
			return
		}
		if len(states) == 0 {
			if err := common.RespondWithSuccess(s, i, "모든 명령어가 기본 상태(활성화)입니다.", true); err != nil {
				log.WithError(err).Error("Failed to respond to command state list")
			}
			return
		}

		var sb strings.Builder
		for _, state := range states {
			marker := "❌"
			if state.Enabled {
				marker = "✅"
			}
			sb.WriteString(fmt.Sprintf("%s `/%s`\n", marker, state.CommandName))
		}
		embed := &discordgo.MessageEmbed{
			Title:       "📋 명령어 상태",
			Description: sb.String(),
			Color:       common.ColorInfo,
			Footer:      &discordgo.MessageEmbedFooter{Text: "목록에 없는 명령어는 활성화 상태입니다."},
		}
		if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
			log.WithError(err).Error("Failed to respond to command state list")
		}
	}
}

func (f *Feature) handleBotStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	online, status, err := f.statusService.IsOnline(ctx)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to check bot status"), false)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "🤖 봇 상태",
		Color: common.ColorSuccess,
	}
	if online {
		embed.Description = "✅ 정상 작동 중입니다."
	} else {
		embed.Description = "⚠️ 하트비트가 오래되었습니다."
		embed.Color = common.ColorWarning
	}
	if status != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "마지막 하트비트",
			Value:  common.FormatDiscordTimestamp(status.LastHeartbeat, "R"),
			Inline: true,
		})
		if status.Message != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "메시지", Value: status.Message, Inline: true,
			})
		}
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.WithError(err).Error("Failed to respond to bot status")
	}
}

func (f *Feature) handleSetPresence(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	if f.superAdminID == "" || i.Member.User.ID != f.superAdminID {
		common.RespondWithError(s, i, "봇 소유자만 사용할 수 있는 명령어입니다.")
		return
	}

	settings, err := f.statusService.GetPresence(ctx)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to load presence settings"), false)
		return
	}

	for _, opt := range sub.Options {
		switch opt.Name {
		case "상태":
			settings.Status = opt.StringValue()
		case "활동유형":
			settings.ActivityType = opt.StringValue()
		case "활동내용":
			settings.ActivityName = opt.StringValue()
		}
	}

	if err := f.statusService.SetPresence(ctx, settings); err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to save presence settings"), false)
		return
	}

	ApplyPresence(s, settings)

	if err := common.RespondWithSuccess(s, i, "봇 상태를 변경했습니다.", true); err != nil {
		log.WithError(err).Error("Failed to respond to presence change")
	}
}

// ApplyPresence pushes presence settings to the gateway.
func ApplyPresence(s *discordgo.Session, settings *models.PresenceSettings) {
	activityType := discordgo.ActivityTypeGame
	switch settings.ActivityType {
	case "listening":
		activityType = discordgo.ActivityTypeListening
	case "watching":
		activityType = discordgo.ActivityTypeWatching
	}

	err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: settings.Status,
		Activities: []*discordgo.Activity{
			{Name: settings.ActivityName, Type: activityType},
		},
	})
	if err != nil {
		log.WithError(err).Warn("Failed to update presence")
	}
}

func (f *Feature) handleRenameChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !common.IsUserAdmin(s, i.GuildID, i.Member.User.ID) {
		common.RespondWithError(s, i, "관리자만 채널 이름을 변경할 수 있습니다.")
		return
	}
	if f.suggester == nil || !f.suggester.Enabled() {
		common.RespondWithError(s, i, "AI 채널명 추천이 설정되지 않았습니다.")
		return
	}

	var topic string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "주제" {
			topic = opt.StringValue()
		}
	}
	if topic == "" {
		common.RespondWithError(s, i, "채널 주제를 입력해주세요.")
		return
	}

	// the API call can take a while
	if err := common.DeferResponse(s, i, false); err != nil {
		log.WithError(err).Error("Failed to defer rename response")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		name, err := f.suggester.SuggestChannelName(ctx, topic)
		if err != nil {
			log.WithError(err).WithField("topic", topic).Warn("Channel name suggestion failed")
			common.FollowUpWithError(s, i, "채널 이름을 추천받지 못했습니다. 잠시 후 다시 시도해주세요.")
			return
		}

		oldName := i.ChannelID
		if channel, chErr := s.Channel(i.ChannelID); chErr == nil {
			oldName = channel.Name
		}

		if _, err := s.ChannelEdit(i.ChannelID, &discordgo.ChannelEdit{Name: name}); err != nil {
			common.FollowUpWithError(s, i, "채널 이름 변경에 실패했습니다.")
			return
		}

		common.FollowUpWithSuccess(s, i, fmt.Sprintf("채널 이름을 **%s** → **%s**(으)로 변경했습니다.", oldName, name), false)
	}()
}
