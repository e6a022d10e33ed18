package tickets

import (
	"github.com/bwmarrin/discordgo"

	"justbot/service"
)

// Feature handles support tickets: a private channel per ticket, one open
// ticket per user per guild, closed by the opener or staff.
type Feature struct {
	ticketService service.TicketService
	configService service.GuildConfigService
}

func New(ticketService service.TicketService, configService service.GuildConfigService) *Feature {
	return &Feature{
		ticketService: ticketService,
		configService: configService,
	}
}

// HandleCommand routes the 티켓 command group
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != "티켓" || len(data.Options) == 0 {
		return
	}
	switch data.Options[0].Name {
	case "오픈":
		f.handleOpen(s, i)
	case "닫기":
		f.handleCloseCommand(s, i)
	}
}

// CanHandleComponent reports whether the custom ID belongs to this feature
func (f *Feature) CanHandleComponent(customID string) bool {
	return customID == "ticket_close"
}

// HandleComponent handles the close button inside a ticket channel
func (f *Feature) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleClose(s, i)
}
