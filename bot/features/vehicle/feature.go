package vehicle

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"justbot/service"
)

// Feature handles the vehicle registration workflow: a paid registration
// request, review buttons in the admin channel, and a sweeper that times out
// requests left undecided past their deadline.
type Feature struct {
	vehicleService service.VehicleService
	configService  service.GuildConfigService
}

func New(vehicleService service.VehicleService, configService service.GuildConfigService) *Feature {
	return &Feature{
		vehicleService: vehicleService,
		configService:  configService,
	}
}

// HandleCommand routes a vehicle slash command to its handler
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "차량등록":
		f.handleSubmit(s, i)
	}
}

// CanHandleComponent reports whether the custom ID belongs to this feature
func (f *Feature) CanHandleComponent(customID string) bool {
	return strings.HasPrefix(customID, "vehicle_")
}

// HandleComponent routes approve/reject button presses
func (f *Feature) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	switch {
	case strings.HasPrefix(customID, "vehicle_approve_"):
		f.handleApprove(s, i, strings.TrimPrefix(customID, "vehicle_approve_"))
	case strings.HasPrefix(customID, "vehicle_reject_"):
		f.handleRejectButton(s, i, strings.TrimPrefix(customID, "vehicle_reject_"))
	}
}

// CanHandleModal reports whether the modal custom ID belongs to this feature
func (f *Feature) CanHandleModal(customID string) bool {
	return strings.HasPrefix(customID, "vehicle_reject_modal_")
}

// HandleModal routes the reject-reason modal submission
func (f *Feature) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.ModalSubmitData().CustomID
	f.handleRejectModal(s, i, strings.TrimPrefix(customID, "vehicle_reject_modal_"))
}
