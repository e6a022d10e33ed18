package vehicle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"justbot/bot/common"
	"justbot/models"
	"justbot/service"
)

func (f *Feature) handleSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse user ID"), false)
		return
	}
	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return
	}

	config, err := f.configService.GetConfig(ctx, guildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to load guild config"), false)
		return
	}
	if !config.VehicleWorkflowConfigured() {
		common.RespondWithError(s, i, "차량 등록이 아직 설정되지 않았습니다. 관리자에게 문의해주세요.")
		return
	}
	if i.ChannelID != common.FormatUserID(*config.RegistrationChannelID) {
		common.RespondWithError(s, i, fmt.Sprintf("차량 등록은 <#%d> 채널에서만 할 수 있습니다.", *config.RegistrationChannelID))
		return
	}

	var vehicleName string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "차량이름" {
			vehicleName = opt.StringValue()
		}
	}
	if vehicleName == "" {
		common.RespondWithError(s, i, "차량 이름을 입력해주세요.")
		return
	}

	reg, err := f.vehicleService.Submit(ctx, guildID, userID, i.Member.User.Username, vehicleName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbiddenVehicle):
			common.RespondWithError(s, i, fmt.Sprintf("**%s**은(는) 등록이 금지된 차량입니다.", vehicleName))
		case errors.Is(err, service.ErrNoAccount):
			common.RespondWithError(s, i, "통장이 없습니다. `/통장개설`로 먼저 통장을 만들어주세요.")
		case errors.Is(err, service.ErrInsufficientBalance):
			common.RespondWithError(s, i, fmt.Sprintf("잔액이 부족합니다. 등록세는 %s입니다.", common.FormatBalance(config.VehicleRegistrationFee)))
		case errors.Is(err, service.ErrWorkflowUnconfigured):
			common.RespondWithError(s, i, "차량 등록이 아직 설정되지 않았습니다. 관리자에게 문의해주세요.")
		default:
			common.HandleError(s, i, common.NewSystemError(err, "failed to submit vehicle registration"), false)
		}
		return
	}

	receipt := &discordgo.MessageEmbed{
		Title: "🚗 차량 등록 신청 완료",
		Description: fmt.Sprintf("**%s** 등록 신청이 접수되었습니다.\n등록세 %s이 차감되었습니다.",
			reg.VehicleName, common.FormatBalance(reg.Fee)),
		Color: common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "심사 기한", Value: common.FormatDiscordTimestamp(reg.ReviewBy, "R"), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "심사 기한이 지나면 자동으로 취소되며, 등록세는 환불되지 않습니다."},
	}
	if err := common.RespondWithEmbed(s, i, receipt, nil, false); err != nil {
		log.WithError(err).Error("Failed to respond to vehicle submission")
	}

	f.postReviewMessage(ctx, s, config, reg)
}

// postReviewMessage posts the approve/reject prompt to the admin channel and
// attaches the message ID to the registration so the sweeper can find it.
func (f *Feature) postReviewMessage(ctx context.Context, s *discordgo.Session, config *models.GuildConfig, reg *models.VehicleRegistration) {
	embed := reviewEmbed(reg)
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "승인",
					Style:    discordgo.SuccessButton,
					CustomID: fmt.Sprintf("vehicle_approve_%d", reg.ID),
				},
				discordgo.Button{
					Label:    "거부",
					Style:    discordgo.DangerButton,
					CustomID: fmt.Sprintf("vehicle_reject_%d", reg.ID),
				},
			},
		},
	}

	msg, err := s.ChannelMessageSendComplex(common.FormatUserID(*config.VehicleAdminChannelID), &discordgo.MessageSend{
		Content:    fmt.Sprintf("<@&%d>", *config.VehicleAdminRoleID),
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		log.WithError(err).WithField("registration_id", reg.ID).Error("Failed to post vehicle review message")
		return
	}

	messageID, err := common.ParseUserID(msg.ID)
	if err != nil {
		log.WithError(err).WithField("registration_id", reg.ID).Error("Failed to parse review message ID")
		return
	}
	if err := f.vehicleService.AttachMessage(ctx, reg.ID, messageID); err != nil {
		log.WithError(err).WithField("registration_id", reg.ID).Error("Failed to attach review message to registration")
	}
}

func reviewEmbed(reg *models.VehicleRegistration) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "🚗 차량 등록 심사 요청",
		Color: common.ColorWarning,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "신청자", Value: common.GetUserMention(reg.DiscordID), Inline: true},
			{Name: "차량", Value: reg.VehicleName, Inline: true},
			{Name: "등록세", Value: common.FormatBalance(reg.Fee), Inline: true},
			{Name: "심사 기한", Value: common.FormatDiscordTimestamp(reg.ReviewBy, "R"), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("신청 번호 #%d", reg.ID)},
	}
}

func decidedEmbed(reg *models.VehicleRegistration, title string, color int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "신청자", Value: common.GetUserMention(reg.DiscordID), Inline: true},
			{Name: "차량", Value: reg.VehicleName, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("신청 번호 #%d", reg.ID)},
	}
	if reg.ReviewerID != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "심사자", Value: common.GetUserMention(*reg.ReviewerID), Inline: true,
		})
	}
	if reg.RejectReason != nil && *reg.RejectReason != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "거부 사유", Value: *reg.RejectReason,
		})
	}
	return embed
}

// canReview reports whether the interacting member holds the vehicle admin
// role or server admin permissions.
func (f *Feature) canReview(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) (bool, error) {
	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		return false, err
	}
	config, err := f.configService.GetConfig(ctx, guildID)
	if err != nil {
		return false, err
	}
	if config.VehicleAdminRoleID != nil && common.MemberHasRole(i.Member, common.FormatUserID(*config.VehicleAdminRoleID)) {
		return true, nil
	}
	return common.IsUserAdmin(s, i.GuildID, i.Member.User.ID), nil
}

func (f *Feature) handleApprove(s *discordgo.Session, i *discordgo.InteractionCreate, idStr string) {
	ctx := context.Background()

	ok, err := f.canReview(ctx, s, i)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to check reviewer permissions"), false)
		return
	}
	if !ok {
		common.RespondWithError(s, i, "차량 등록을 심사할 권한이 없습니다.")
		return
	}

	registrationID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse registration ID"), false)
		return
	}
	reviewerID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse reviewer ID"), false)
		return
	}

	reg, err := f.vehicleService.Approve(ctx, registrationID, reviewerID)
	if err != nil {
		if errors.Is(err, service.ErrNotPending) {
			common.RespondWithError(s, i, "이미 처리되었거나 기한이 지난 신청입니다.")
			return
		}
		common.HandleError(s, i, common.NewSystemError(err, "failed to approve registration"), false)
		return
	}

	embed := decidedEmbed(reg, "✅ 차량 등록 승인", common.ColorSuccess)
	if err := common.UpdateMessage(s, i, embed, common.DisableComponents(i.Message.Components)); err != nil {
		log.WithError(err).WithField("registration_id", reg.ID).Error("Failed to update review message after approval")
	}

	f.announceApproval(ctx, s, reg)
	f.notifyApplicant(s, reg, fmt.Sprintf("🎉 신청하신 차량 **%s**의 등록이 승인되었습니다!", reg.VehicleName))
}

// announceApproval posts the registration certificate to the approved-vehicle
// channel.
func (f *Feature) announceApproval(ctx context.Context, s *discordgo.Session, reg *models.VehicleRegistration) {
	config, err := f.configService.GetConfig(ctx, reg.GuildID)
	if err != nil || config.ApprovedVehicleChannelID == nil {
		return
	}

	certificate := &discordgo.MessageEmbed{
		Title: "📜 차량 등록증",
		Color: common.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "소유자", Value: common.GetUserMention(reg.DiscordID), Inline: true},
			{Name: "차량", Value: reg.VehicleName, Inline: true},
			{Name: "등록일", Value: common.FormatDiscordTimestamp(*reg.DecidedAt, "D"), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("등록 번호 #%d", reg.ID)},
	}
	if _, err := s.ChannelMessageSendEmbed(common.FormatUserID(*config.ApprovedVehicleChannelID), certificate); err != nil {
		log.WithError(err).WithField("registration_id", reg.ID).Error("Failed to post registration certificate")
	}
}

// notifyApplicant DMs the applicant about the decision. DM failures are
// logged and ignored since users can disable DMs.
func (f *Feature) notifyApplicant(s *discordgo.Session, reg *models.VehicleRegistration, message string) {
	channel, err := s.UserChannelCreate(common.FormatUserID(reg.DiscordID))
	if err != nil {
		log.WithError(err).WithField("user_id", reg.DiscordID).Debug("Failed to open DM channel for vehicle notification")
		return
	}
	if _, err := s.ChannelMessageSend(channel.ID, message); err != nil {
		log.WithError(err).WithField("user_id", reg.DiscordID).Debug("Failed to DM vehicle decision")
	}
}

func (f *Feature) handleRejectButton(s *discordgo.Session, i *discordgo.InteractionCreate, idStr string) {
	ctx := context.Background()

	ok, err := f.canReview(ctx, s, i)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to check reviewer permissions"), false)
		return
	}
	if !ok {
		common.RespondWithError(s, i, "차량 등록을 심사할 권한이 없습니다.")
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: "vehicle_reject_modal_" + idStr,
			Title:    "차량 등록 거부",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "reason",
							Label:       "거부 사유",
							Style:       discordgo.TextInputParagraph,
							Placeholder: "거부 사유를 입력해주세요",
							Required:    true,
							MaxLength:   500,
						},
					},
				},
			},
		},
	})
	if err != nil {
		log.WithError(err).Error("Failed to open reject-reason modal")
	}
}

func (f *Feature) handleRejectModal(s *discordgo.Session, i *discordgo.InteractionCreate, idStr string) {
	ctx := context.Background()

	registrationID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse registration ID"), false)
		return
	}
	reviewerID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse reviewer ID"), false)
		return
	}

	var reason string
	for _, row := range i.ModalSubmitData().Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range actionsRow.Components {
			if input, ok := comp.(*discordgo.TextInput); ok && input.CustomID == "reason" {
				reason = input.Value
			}
		}
	}

	reg, err := f.vehicleService.Reject(ctx, registrationID, reviewerID, reason)
	if err != nil {
		if errors.Is(err, service.ErrNotPending) {
			common.RespondWithError(s, i, "이미 처리되었거나 기한이 지난 신청입니다.")
			return
		}
		common.HandleError(s, i, common.NewSystemError(err, "failed to reject registration"), false)
		return
	}

	if err := common.RespondWithSuccess(s, i, fmt.Sprintf("신청 #%d을(를) 거부했습니다.", reg.ID), true); err != nil {
		log.WithError(err).Error("Failed to respond to rejection")
	}

	f.editReviewMessage(ctx, s, reg, decidedEmbed(reg, "⛔ 차량 등록 거부", common.ColorDanger))
	f.notifyApplicant(s, reg, fmt.Sprintf("😢 신청하신 차량 **%s**의 등록이 거부되었습니다.\n사유: %s\n등록세는 환불되지 않습니다.", reg.VehicleName, reason))
}

// editReviewMessage rewrites the stored review message with the decision
// embed and disables its buttons.
func (f *Feature) editReviewMessage(ctx context.Context, s *discordgo.Session, reg *models.VehicleRegistration, embed *discordgo.MessageEmbed) {
	if reg.MessageID == nil {
		return
	}
	config, err := f.configService.GetConfig(ctx, reg.GuildID)
	if err != nil || config.VehicleAdminChannelID == nil {
		return
	}

	channelID := common.FormatUserID(*config.VehicleAdminChannelID)
	messageID := common.FormatUserID(*reg.MessageID)
	emptyComponents := []discordgo.MessageComponent{}
	_, err = s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &emptyComponents,
	})
	if err != nil {
		log.WithError(err).WithField("registration_id", reg.ID).Error("Failed to edit review message")
	}
}

// SweepExpired times out pending registrations whose review deadline has
// passed, then cleans up their review messages and notifies the applicants.
// It is called periodically from the bot's background loop.
func (f *Feature) SweepExpired(ctx context.Context, s *discordgo.Session) {
	expired, err := f.vehicleService.ExpireOverdue(ctx, time.Now())
	if err != nil {
		log.WithError(err).Error("Failed to sweep expired vehicle registrations")
		return
	}

	for _, reg := range expired {
		log.WithFields(log.Fields{
			"registration_id": reg.ID,
			"guild_id":        reg.GuildID,
		}).Info("Vehicle registration timed out")

		f.editReviewMessage(ctx, s, reg, decidedEmbed(reg, "⏰ 차량 등록 기한 만료", common.ColorWarning))
		f.notifyApplicant(s, reg, fmt.Sprintf("⏰ 신청하신 차량 **%s**의 등록 심사 기한이 지나 자동으로 취소되었습니다.\n등록세는 환불되지 않습니다.", reg.VehicleName))
	}
}
