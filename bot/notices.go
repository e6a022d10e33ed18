package bot

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"justbot/bot/common"
	"justbot/events"
	"justbot/models"
)

// subscribeLogNotices posts short audit notices to the guild's configured
// log channel when domain events flush. Guilds without a log channel get
// nothing.
func (b *Bot) subscribeLogNotices(bus *events.Bus) {
	bus.Subscribe(events.EventTypeVehicleDecided, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.VehicleDecidedEvent); ok {
			b.postLogNotice(ctx, e.GuildID, vehicleDecidedNotice(e))
		}
	})
	bus.Subscribe(events.EventTypeWarningIssued, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.WarningIssuedEvent); ok {
			b.postLogNotice(ctx, e.GuildID, warningIssuedNotice(e))
		}
	})
	bus.Subscribe(events.EventTypeTicketClosed, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.TicketClosedEvent); ok {
			b.postLogNotice(ctx, e.GuildID, ticketClosedNotice(e))
		}
	})
}

func (b *Bot) postLogNotice(ctx context.Context, guildID int64, text string) {
	if text == "" {
		return
	}
	config, err := b.services.GuildConfig.GetConfig(ctx, guildID)
	if err != nil {
		log.WithError(err).WithField("guild_id", guildID).Warn("Failed to load config for log notice")
		return
	}
	if config.LogChannelID == nil {
		return
	}
	if _, err := b.session.ChannelMessageSend(common.FormatUserID(*config.LogChannelID), text); err != nil {
		log.WithError(err).WithField("guild_id", guildID).Debug("Failed to post log notice")
	}
}

func vehicleDecidedNotice(e events.VehicleDecidedEvent) string {
	var verdict string
	switch e.Status {
	case models.VehicleStatusApproved:
		verdict = "승인"
	case models.VehicleStatusRejected:
		verdict = "거부"
	case models.VehicleStatusTimedOut:
		return fmt.Sprintf("🚗 차량 등록 #%d (`%s`) 기한 만료 — 신청자 <@%d>",
			e.RegistrationID, e.VehicleName, e.DiscordID)
	default:
		return ""
	}
	notice := fmt.Sprintf("🚗 차량 등록 #%d (`%s`) %s — 신청자 <@%d>",
		e.RegistrationID, e.VehicleName, verdict, e.DiscordID)
	if e.ReviewerID != nil {
		notice += fmt.Sprintf(", 담당자 <@%d>", *e.ReviewerID)
	}
	return notice
}

func warningIssuedNotice(e events.WarningIssuedEvent) string {
	return fmt.Sprintf("⚠️ <@%d>님에게 경고가 부여되었습니다. 누적 %d / %d",
		e.DiscordID, e.TotalCount, e.Threshold)
}

func ticketClosedNotice(e events.TicketClosedEvent) string {
	return fmt.Sprintf("🎫 티켓 #%d이(가) <@%d>님에 의해 닫혔습니다.", e.TicketID, e.ClosedBy)
}
