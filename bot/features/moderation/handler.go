package moderation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"justbot/bot/common"
	"justbot/models"
	"justbot/service"
)

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

// hasPermission checks the interaction member's resolved permission bits.
func hasPermission(i *discordgo.InteractionCreate, permission int64) bool {
	return i.Member.Permissions&(permission|discordgo.PermissionAdministrator) != 0
}

// checkTarget validates that the target is moderatable by the caller: not a
// bot, not the caller themselves, and below both the caller (unless the
// caller is an administrator) and the bot in the role hierarchy.
func (f *Feature) checkTarget(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.User) (string, bool) {
	if target == nil {
		return "대상을 찾을 수 없습니다.", false
	}
	if target.Bot {
		return "봇은 대상으로 지정할 수 없습니다.", false
	}
	if target.ID == i.Member.User.ID {
		return "자기 자신은 대상으로 지정할 수 없습니다.", false
	}

	targetMember, err := s.GuildMember(i.GuildID, target.ID)
	if err != nil {
		return "대상이 이 서버의 멤버가 아닙니다.", false
	}
	targetPos := common.HighestRolePosition(s, i.GuildID, targetMember)

	isAdmin := i.Member.Permissions&discordgo.PermissionAdministrator != 0
	if !isAdmin && targetPos >= common.HighestRolePosition(s, i.GuildID, i.Member) {
		return "자신보다 높거나 같은 역할을 가진 멤버는 대상으로 지정할 수 없습니다.", false
	}

	botMember, err := s.GuildMember(i.GuildID, s.State.User.ID)
	if err == nil && targetPos >= common.HighestRolePosition(s, i.GuildID, botMember) {
		return "봇보다 높거나 같은 역할을 가진 멤버는 대상으로 지정할 수 없습니다.", false
	}
	return "", true
}

func (f *Feature) handleKick(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !hasPermission(i, discordgo.PermissionKickMembers) {
		common.RespondWithError(s, i, "멤버를 추방할 권한이 없습니다.")
		return
	}

	opts := optionMap(i)
	targetOpt, ok := opts["대상"]
	if !ok {
		common.RespondWithError(s, i, "대상을 지정해주세요.")
		return
	}
	target := targetOpt.UserValue(s)
	if msg, ok := f.checkTarget(s, i, target); !ok {
		common.RespondWithError(s, i, msg)
		return
	}

	reason := "사유 없음"
	if opt, ok := opts["사유"]; ok {
		reason = opt.StringValue()
	}

	if err := s.GuildMemberDeleteWithReason(i.GuildID, target.ID, reason); err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to kick member"), false)
		return
	}

	if err := common.RespondWithSuccess(s, i, fmt.Sprintf("%s님을 추방했습니다. (사유: %s)", target.Username, reason), false); err != nil {
		log.WithError(err).Error("Failed to respond to kick")
	}
}

func (f *Feature) handleBan(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !hasPermission(i, discordgo.PermissionBanMembers) {
		common.RespondWithError(s, i, "멤버를 차단할 권한이 없습니다.")
		return
	}

	opts := optionMap(i)
	targetOpt, ok := opts["대상"]
	if !ok {
		common.RespondWithError(s, i, "대상을 지정해주세요.")
		return
	}
	target := targetOpt.UserValue(s)
	if msg, ok := f.checkTarget(s, i, target); !ok {
		common.RespondWithError(s, i, msg)
		return
	}

	reason := "사유 없음"
	if opt, ok := opts["사유"]; ok {
		reason = opt.StringValue()
	}
	deleteDays := 0
	if opt, ok := opts["메시지삭제일"]; ok {
		deleteDays = int(opt.IntValue())
	}
	if deleteDays < 0 || deleteDays > common.MaxBanDeleteDays {
		common.RespondWithError(s, i, fmt.Sprintf("메시지 삭제 기간은 0일에서 %d일 사이여야 합니다.", common.MaxBanDeleteDays))
		return
	}

	if err := s.GuildBanCreateWithReason(i.GuildID, target.ID, reason, deleteDays); err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to ban member"), false)
		return
	}

	if err := common.RespondWithSuccess(s, i, fmt.Sprintf("%s님을 차단했습니다. (사유: %s)", target.Username, reason), false); err != nil {
		log.WithError(err).Error("Failed to respond to ban")
	}
}

func (f *Feature) handlePurge(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !hasPermission(i, discordgo.PermissionManageMessages) {
		common.RespondWithError(s, i, "메시지를 관리할 권한이 없습니다.")
		return
	}

	opts := optionMap(i)
	countOpt, ok := opts["개수"]
	if !ok {
		common.RespondWithError(s, i, "삭제할 메시지 개수를 입력해주세요.")
		return
	}
	count := int(countOpt.IntValue())
	if count < common.MinPurgeCount || count > common.MaxPurgeCount {
		common.RespondWithError(s, i, fmt.Sprintf("한 번에 %d개에서 %d개까지 삭제할 수 있습니다.", common.MinPurgeCount, common.MaxPurgeCount))
		return
	}

	messages, err := s.ChannelMessages(i.ChannelID, count, "", "", "")
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to fetch messages for purge"), false)
		return
	}

	messageIDs := make([]string, 0, len(messages))
	for _, msg := range messages {
		messageIDs = append(messageIDs, msg.ID)
	}
	if err := s.ChannelMessagesBulkDelete(i.ChannelID, messageIDs); err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to bulk delete messages"), false)
		return
	}

	if err := common.RespondWithSuccess(s, i, fmt.Sprintf("메시지 %d개를 삭제했습니다.", len(messageIDs)), true); err != nil {
		log.WithError(err).Error("Failed to respond to purge")
	}
}

func (f *Feature) handleRoleGrant(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleRoleChange(s, i, true)
}

func (f *Feature) handleRoleRevoke(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleRoleChange(s, i, false)
}

func (f *Feature) handleRoleChange(s *discordgo.Session, i *discordgo.InteractionCreate, grant bool) {
	if !hasPermission(i, discordgo.PermissionManageRoles) {
		common.RespondWithError(s, i, "역할을 관리할 권한이 없습니다.")
		return
	}

	opts := optionMap(i)
	targetOpt, hasTarget := opts["대상"]
	roleOpt, hasRole := opts["역할"]
	if !hasTarget || !hasRole {
		common.RespondWithError(s, i, "대상과 역할을 지정해주세요.")
		return
	}
	target := targetOpt.UserValue(s)
	if msg, ok := f.checkTarget(s, i, target); !ok {
		common.RespondWithError(s, i, msg)
		return
	}
	role := roleOpt.RoleValue(s, i.GuildID)
	if role == nil {
		common.RespondWithError(s, i, "역할을 찾을 수 없습니다.")
		return
	}

	var err error
	var verb string
	if grant {
		err = s.GuildMemberRoleAdd(i.GuildID, target.ID, role.ID)
		verb = "부여"
	} else {
		err = s.GuildMemberRoleRemove(i.GuildID, target.ID, role.ID)
		verb = "삭제"
	}
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to change role"), false)
		return
	}

	if err := common.RespondWithSuccess(s, i, fmt.Sprintf("%s님의 **%s** 역할을 %s했습니다.", target.Username, role.Name, verb), false); err != nil {
		log.WithError(err).Error("Failed to respond to role change")
	}
}

func (f *Feature) handleWarn(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if !hasPermission(i, discordgo.PermissionKickMembers) {
		common.RespondWithError(s, i, "경고를 부여할 권한이 없습니다.")
		return
	}

	opts := optionMap(i)
	targetOpt, hasTarget := opts["대상"]
	reasonOpt, hasReason := opts["사유"]
	if !hasTarget || !hasReason {
		common.RespondWithError(s, i, "대상과 사유를 입력해주세요.")
		return
	}
	target := targetOpt.UserValue(s)
	if msg, ok := f.checkTarget(s, i, target); !ok {
		common.RespondWithError(s, i, msg)
		return
	}
	reason := reasonOpt.StringValue()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return
	}
	targetID, err := common.ParseUserID(target.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse target ID"), false)
		return
	}
	moderatorID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse moderator ID"), false)
		return
	}

	result, err := f.moderationService.Warn(ctx, &models.Warning{
		GuildID:       guildID,
		DiscordID:     targetID,
		Username:      target.Username,
		ModeratorID:   moderatorID,
		ModeratorName: i.Member.User.Username,
		Reason:        reason,
	})
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to record warning"), false)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "⚠️ 경고 부여",
		Color: common.ColorWarning,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "대상", Value: common.GetUserMention(targetID), Inline: true},
			{Name: "사유", Value: reason, Inline: true},
			{Name: "누적 경고", Value: fmt.Sprintf("%d / %d", result.TotalCount, result.Threshold), Inline: true},
		},
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.WithError(err).Error("Failed to respond to warn")
	}

	f.notifyWarned(s, target.ID, i.GuildID, reason, result)

	if result.AutoKickTriggered {
		if err := s.GuildMemberDeleteWithReason(i.GuildID, target.ID, fmt.Sprintf("경고 %d회 누적", result.TotalCount)); err != nil {
			log.WithError(err).WithField("user_id", targetID).Warn("Auto-kick failed")
			if _, sendErr := s.ChannelMessageSend(i.ChannelID, fmt.Sprintf("⚠️ %s님이 경고 %d회에 도달했지만 자동 추방에 실패했습니다.", target.Username, result.TotalCount)); sendErr != nil {
				log.WithError(sendErr).Error("Failed to post auto-kick failure notice")
			}
			return
		}
		if _, err := s.ChannelMessageSend(i.ChannelID, fmt.Sprintf("👢 %s님이 경고 %d회 누적으로 자동 추방되었습니다.", target.Username, result.TotalCount)); err != nil {
			log.WithError(err).Error("Failed to post auto-kick notice")
		}
	}
}

// notifyWarned DMs the warned user. Failures are ignored.
func (f *Feature) notifyWarned(s *discordgo.Session, targetID, guildID, reason string, result *models.WarnResult) {
	channel, err := s.UserChannelCreate(targetID)
	if err != nil {
		return
	}
	guildName := guildID
	if guild, err := s.State.Guild(guildID); err == nil {
		guildName = guild.Name
	}
	msg := fmt.Sprintf("⚠️ **%s** 서버에서 경고를 받았습니다.\n사유: %s\n누적 경고: %d / %d", guildName, reason, result.TotalCount, result.Threshold)
	if _, err := s.ChannelMessageSend(channel.ID, msg); err != nil {
		log.WithError(err).Debug("Failed to DM warning notice")
	}
}

func (f *Feature) handleListWarnings(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	opts := optionMap(i)
	targetOpt, ok := opts["대상"]
	if !ok {
		common.RespondWithError(s, i, "대상을 지정해주세요.")
		return
	}
	target := targetOpt.UserValue(s)
	if target == nil {
		common.RespondWithError(s, i, "대상을 찾을 수 없습니다.")
		return
	}

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return
	}
	targetID, err := common.ParseUserID(target.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse target ID"), false)
		return
	}

	warnings, err := f.moderationService.ListWarnings(ctx, guildID, targetID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to list warnings"), false)
		return
	}
	if len(warnings) == 0 {
		if err := common.RespondWithSuccess(s, i, fmt.Sprintf("%s님은 경고가 없습니다.", target.Username), true); err != nil {
			log.WithError(err).Error("Failed to respond to warning list")
		}
		return
	}

	var sb strings.Builder
	for idx, w := range warnings {
		sb.WriteString(fmt.Sprintf("**%d.** %s — %s (%s)\n", idx+1, w.Reason, w.ModeratorName, common.FormatDiscordTimestamp(w.CreatedAt, "d")))
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("⚠️ %s님의 경고 내역 (%d건)", target.Username, len(warnings)),
		Description: sb.String(),
		Color:       common.ColorWarning,
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.WithError(err).Error("Failed to respond to warning list")
	}
}

func (f *Feature) handleRemoveWarning(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if !hasPermission(i, discordgo.PermissionKickMembers) {
		common.RespondWithError(s, i, "경고를 삭제할 권한이 없습니다.")
		return
	}

	opts := optionMap(i)
	targetOpt, hasTarget := opts["대상"]
	numberOpt, hasNumber := opts["번호"]
	if !hasTarget || !hasNumber {
		common.RespondWithError(s, i, "대상과 삭제할 경고 번호(또는 `모두`)를 입력해주세요.")
		return
	}
	target := targetOpt.UserValue(s)
	if target == nil {
		common.RespondWithError(s, i, "대상을 찾을 수 없습니다.")
		return
	}

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return
	}
	targetID, err := common.ParseUserID(target.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse target ID"), false)
		return
	}

	selector := strings.TrimSpace(numberOpt.StringValue())
	if selector == "모두" || strings.EqualFold(selector, "all") {
		deleted, err := f.moderationService.ClearWarnings(ctx, guildID, targetID)
		if err != nil {
			common.HandleError(s, i, common.NewSystemError(err, "failed to clear warnings"), false)
			return
		}
		if err := common.RespondWithSuccess(s, i, fmt.Sprintf("%s님의 경고 %d건을 모두 삭제했습니다.", target.Username, deleted), false); err != nil {
			log.WithError(err).Error("Failed to respond to warning clear")
		}
		return
	}

	ordinal, err := strconv.Atoi(selector)
	if err != nil {
		common.RespondWithError(s, i, "경고 번호는 숫자 또는 `모두`여야 합니다.")
		return
	}

	removed, err := f.moderationService.RemoveWarningByOrdinal(ctx, guildID, targetID, ordinal)
	if err != nil {
		if errors.Is(err, service.ErrWarningNotFound) {
			common.RespondWithError(s, i, fmt.Sprintf("%d번 경고를 찾을 수 없습니다.", ordinal))
			return
		}
		common.HandleError(s, i, common.NewSystemError(err, "failed to remove warning"), false)
		return
	}

	if err := common.RespondWithSuccess(s, i, fmt.Sprintf("%s님의 %d번 경고를 삭제했습니다. (사유: %s)", target.Username, ordinal, removed.Reason), false); err != nil {
		log.WithError(err).Error("Failed to respond to warning removal")
	}
}

func (f *Feature) handleBlacklist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if !hasPermission(i, discordgo.PermissionBanMembers) {
		common.RespondWithError(s, i, "블랙리스트를 관리할 권한이 없습니다.")
		return
	}

	opts := optionMap(i)
	targetOpt, hasTarget := opts["대상"]
	if !hasTarget {
		common.RespondWithError(s, i, "대상을 지정해주세요.")
		return
	}
	target := targetOpt.UserValue(s)
	if target == nil {
		common.RespondWithError(s, i, "대상을 찾을 수 없습니다.")
		return
	}
	reason := "사유 없음"
	if opt, ok := opts["사유"]; ok {
		reason = opt.StringValue()
	}

	targetID, err := common.ParseUserID(target.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse target ID"), false)
		return
	}
	moderatorID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse moderator ID"), false)
		return
	}

	if err := f.moderationService.Blacklist(ctx, targetID, reason, moderatorID); err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to blacklist user"), false)
		return
	}

	if err := common.RespondWithSuccess(s, i, fmt.Sprintf("%s님을 블랙리스트에 등록했습니다. (사유: %s)", target.Username, reason), false); err != nil {
		log.WithError(err).Error("Failed to respond to blacklist")
	}
}

func (f *Feature) handleUnblacklist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if !hasPermission(i, discordgo.PermissionBanMembers) {
		common.RespondWithError(s, i, "블랙리스트를 관리할 권한이 없습니다.")
		return
	}

	opts := optionMap(i)
	targetOpt, ok := opts["대상"]
	if !ok {
		common.RespondWithError(s, i, "대상을 지정해주세요.")
		return
	}
	target := targetOpt.UserValue(s)
	if target == nil {
		common.RespondWithError(s, i, "대상을 찾을 수 없습니다.")
		return
	}

	targetID, err := common.ParseUserID(target.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse target ID"), false)
		return
	}

	removed, err := f.moderationService.Unblacklist(ctx, targetID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to unblacklist user"), false)
		return
	}
	if !removed {
		common.RespondWithError(s, i, fmt.Sprintf("%s님은 블랙리스트에 없습니다.", target.Username))
		return
	}

	if err := common.RespondWithSuccess(s, i, fmt.Sprintf("%s님을 블랙리스트에서 해제했습니다.", target.Username), false); err != nil {
		log.WithError(err).Error("Failed to respond to unblacklist")
	}
}

func (f *Feature) handleScanBlacklist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	opts := optionMap(i)
	targetOpt, ok := opts["대상"]
	if !ok {
		common.RespondWithError(s, i, "대상을 지정해주세요.")
		return
	}
	target := targetOpt.UserValue(s)
	if target == nil {
		common.RespondWithError(s, i, "대상을 찾을 수 없습니다.")
		return
	}

	targetID, err := common.ParseUserID(target.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse target ID"), false)
		return
	}

	entry, err := f.moderationService.IsBlacklisted(ctx, targetID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to scan blacklist"), false)
		return
	}

	var embed *discordgo.MessageEmbed
	if entry == nil {
		embed = &discordgo.MessageEmbed{
			Title:       "✅ 블랙리스트 스캔",
			Description: fmt.Sprintf("%s님은 블랙리스트에 없습니다.", target.Username),
			Color:       common.ColorSuccess,
		}
	} else {
		embed = &discordgo.MessageEmbed{
			Title:       "🚨 블랙리스트 스캔",
			Description: fmt.Sprintf("%s님은 블랙리스트에 등록되어 있습니다.", target.Username),
			Color:       common.ColorDanger,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "사유", Value: entry.Reason, Inline: true},
				{Name: "등록일", Value: common.FormatDiscordTimestamp(entry.CreatedAt, "D"), Inline: true},
			},
		}
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.WithError(err).Error("Failed to respond to blacklist scan")
	}
}

func (f *Feature) handleSecurityReport(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if !common.IsUserAdmin(s, i.GuildID, i.Member.User.ID) {
		common.RespondWithError(s, i, "관리자만 보안 리포트를 볼 수 있습니다.")
		return
	}

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return
	}

	report, err := f.moderationService.SecurityReport(ctx, guildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to build security report"), false)
		return
	}
	config, err := f.configService.GetConfig(ctx, guildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to load guild config"), false)
		return
	}

	onOff := func(enabled bool) string {
		if enabled {
			return "✅ 켜짐"
		}
		return "❌ 꺼짐"
	}

	embed := &discordgo.MessageEmbed{
		Title: "🛡️ 보안 리포트",
		Color: common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "누적 경고", Value: fmt.Sprintf("%d건", report.WarningCount), Inline: true},
			{Name: "열린 티켓", Value: fmt.Sprintf("%d건", report.OpenTicketCount), Inline: true},
			{Name: "블랙리스트", Value: fmt.Sprintf("%d명", report.BlacklistCount), Inline: true},
			{Name: "심사 대기 차량", Value: fmt.Sprintf("%d건", report.PendingRegistrations), Inline: true},
			{Name: "스팸 필터", Value: onOff(config.SpamFilterEnabled), Inline: true},
			{Name: "초대링크 필터", Value: onOff(config.InviteFilterEnabled), Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "생성 시각"},
		Timestamp: report.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.WithError(err).Error("Failed to respond to security report")
	}
}
