package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"justbot/bot/common"
	"justbot/models"
	"justbot/service"
)

func (f *Feature) handleOpen(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return
	}
	openerID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse user ID"), false)
		return
	}

	config, err := f.configService.GetConfig(ctx, guildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to load guild config"), false)
		return
	}
	if !config.TicketsConfigured() {
		common.RespondWithError(s, i, "티켓 기능이 아직 설정되지 않았습니다. 관리자에게 문의해주세요.")
		return
	}
	if i.ChannelID != common.FormatUserID(*config.TicketOpenChannelID) {
		common.RespondWithError(s, i, fmt.Sprintf("티켓은 <#%d> 채널에서만 열 수 있습니다.", *config.TicketOpenChannelID))
		return
	}

	existing, err := f.ticketService.GetOpenTicket(ctx, guildID, openerID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to check open ticket"), false)
		return
	}
	if existing != nil {
		common.RespondWithError(s, i, fmt.Sprintf("이미 열린 티켓이 있습니다: <#%d>", existing.ChannelID))
		return
	}

	reason := "사유 없음"
	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		if opt.Name == "사유" {
			reason = opt.StringValue()
		}
	}

	channel, err := f.createTicketChannel(s, i, config)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to create ticket channel"), false)
		return
	}

	channelID, err := common.ParseUserID(channel.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse ticket channel ID"), false)
		return
	}

	ticket, err := f.ticketService.OpenTicket(ctx, guildID, openerID, i.Member.User.Username, channelID, reason)
	if err != nil {
		// roll the channel back so an unrecorded ticket doesn't linger
		if _, delErr := s.ChannelDelete(channel.ID); delErr != nil {
			log.WithError(delErr).WithField("channel_id", channel.ID).Error("Failed to delete orphaned ticket channel")
		}
		if errors.Is(err, service.ErrTicketAlreadyOpen) {
			common.RespondWithError(s, i, "이미 열린 티켓이 있습니다.")
			return
		}
		common.HandleError(s, i, common.NewSystemError(err, "failed to record ticket"), false)
		return
	}

	f.postTicketGreeting(s, channel.ID, i.Member.User, config, ticket, reason)

	if err := common.RespondWithSuccess(s, i, fmt.Sprintf("티켓이 열렸습니다: %s", channel.Mention()), true); err != nil {
		log.WithError(err).Error("Failed to respond to ticket open")
	}
}

// createTicketChannel makes the private channel under the ticket category,
// visible only to the opener, the staff role and the bot.
func (f *Feature) createTicketChannel(s *discordgo.Session, i *discordgo.InteractionCreate, config *models.GuildConfig) (*discordgo.Channel, error) {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   i.GuildID, // @everyone
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    i.Member.User.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory,
		},
		{
			ID:    common.FormatUserID(*config.TicketStaffRoleID),
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory,
		},
		{
			ID:    s.State.User.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory,
		},
	}

	name := "티켓-" + strings.ToLower(i.Member.User.Username)
	return s.GuildChannelCreateComplex(i.GuildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             common.FormatUserID(*config.TicketCategoryID),
		PermissionOverwrites: overwrites,
	})
}

func (f *Feature) postTicketGreeting(s *discordgo.Session, channelID string, opener *discordgo.User, config *models.GuildConfig, ticket *models.Ticket, reason string) {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎫 티켓 #%d", ticket.ID),
		Description: fmt.Sprintf("%s님의 문의 티켓입니다.\n담당자가 곧 확인할 예정입니다.", opener.Mention()),
		Color:       common.ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "사유", Value: reason},
		},
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "티켓 닫기",
					Style:    discordgo.DangerButton,
					CustomID: "ticket_close",
				},
			},
		},
	}

	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    fmt.Sprintf("<@&%d>", *config.TicketStaffRoleID),
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		log.WithError(err).WithField("ticket_id", ticket.ID).Error("Failed to post ticket greeting")
	}
}

func (f *Feature) handleCloseCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleClose(s, i)
}

func (f *Feature) handleClose(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return
	}
	channelID, err := common.ParseUserID(i.ChannelID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse channel ID"), false)
		return
	}
	closerID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse user ID"), false)
		return
	}

	config, err := f.configService.GetConfig(ctx, guildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to load guild config"), false)
		return
	}

	isStaff := common.IsUserAdmin(s, i.GuildID, i.Member.User.ID)
	if !isStaff && config.TicketStaffRoleID != nil {
		isStaff = common.MemberHasRole(i.Member, common.FormatUserID(*config.TicketStaffRoleID))
	}

	ticket, err := f.ticketService.CloseTicket(ctx, channelID, closerID, isStaff)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotTicketChannel):
			common.RespondWithError(s, i, "이 채널은 열린 티켓이 아닙니다.")
		case errors.Is(err, service.ErrNotAuthorized):
			common.RespondWithError(s, i, "티켓은 개설자 또는 담당자만 닫을 수 있습니다.")
		default:
			common.HandleError(s, i, common.NewSystemError(err, "failed to close ticket"), false)
		}
		return
	}

	if err := common.RespondWithSuccess(s, i, fmt.Sprintf("티켓 #%d을(를) 닫았습니다. 이 채널은 %d초 후 삭제됩니다.", ticket.ID, common.TicketDeleteDelay), false); err != nil {
		log.WithError(err).Error("Failed to respond to ticket close")
	}

	// delete after a grace period so the notice is readable
	channelIDStr := i.ChannelID
	time.AfterFunc(common.TicketDeleteDelay*time.Second, func() {
		if _, err := s.ChannelDelete(channelIDStr); err != nil {
			log.WithError(err).WithField("channel_id", channelIDStr).Warn("Failed to delete closed ticket channel")
		}
	})
}
