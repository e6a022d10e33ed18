package moderation

import (
	"github.com/bwmarrin/discordgo"

	"justbot/service"
)

// Feature handles kick/ban/purge, role management, the warning system with
// its auto-kick threshold, the global blacklist, and the message filters.
type Feature struct {
	moderationService service.ModerationService
	configService     service.GuildConfigService
	spam              *spamTracker
}

func New(moderationService service.ModerationService, configService service.GuildConfigService) *Feature {
	return &Feature{
		moderationService: moderationService,
		configService:     configService,
		spam:              newSpamTracker(maxTrackedSpammers),
	}
}

// HandleCommand routes a moderation slash command to its handler
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "킥":
		f.handleKick(s, i)
	case "밴":
		f.handleBan(s, i)
	case "청소":
		f.handlePurge(s, i)
	case "역할부여":
		f.handleRoleGrant(s, i)
	case "역할삭제":
		f.handleRoleRevoke(s, i)
	case "경고":
		f.handleWarn(s, i)
	case "경고조회":
		f.handleListWarnings(s, i)
	case "경고삭제":
		f.handleRemoveWarning(s, i)
	case "블랙리스트":
		f.handleBlacklist(s, i)
	case "블랙리스트해제":
		f.handleUnblacklist(s, i)
	case "스캔블랙리스트":
		f.handleScanBlacklist(s, i)
	case "보안리포트":
		f.handleSecurityReport(s, i)
	}
}
