package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"justbot/ai"
	"justbot/bot/common"
	"justbot/bot/features/admin"
	"justbot/bot/features/audio"
	"justbot/bot/features/bank"
	"justbot/bot/features/games"
	"justbot/bot/features/moderation"
	"justbot/bot/features/tickets"
	"justbot/bot/features/vehicle"
	"justbot/events"
	"justbot/service"
)

const vehicleSweepInterval = 30 * time.Second

// Config holds the bot runtime settings.
type Config struct {
	Token             string
	CommandPrefix     string
	SuperAdminIDs     []int64
	HeartbeatInterval time.Duration
	PresencePoll      time.Duration
}

// Services bundles the domain services the bot features depend on.
type Services struct {
	Account     service.AccountService
	Loan        service.LoanService
	Vehicle     service.VehicleService
	Moderation  service.ModerationService
	Ticket      service.TicketService
	Game        service.GameService
	GuildConfig service.GuildConfigService
	Status      service.StatusService
}

type commandHandler interface {
	HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate)
}

// Bot wires the discordgo session to the feature handlers and runs the
// background loops (heartbeat, presence poll, vehicle timeout sweep).
type Bot struct {
	session  *discordgo.Session
	config   Config
	services Services

	bankFeature       *bank.Feature
	vehicleFeature    *vehicle.Feature
	moderationFeature *moderation.Feature
	ticketFeature     *tickets.Feature
	gamesFeature      *games.Feature
	audioFeature      *audio.Feature
	adminFeature      *admin.Feature

	commandRouter map[string]commandHandler

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates the bot, its features and the gateway session. The session is
// not opened until Start.
func New(cfg Config, services Services, suggester ai.Suggester, eventBus *events.Bus) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent

	superAdminID := ""
	if len(cfg.SuperAdminIDs) > 0 {
		superAdminID = common.FormatUserID(cfg.SuperAdminIDs[0])
	}

	b := &Bot{
		session:  session,
		config:   cfg,
		services: services,
		stop:     make(chan struct{}),

		bankFeature:       bank.New(services.Account, services.Loan, services.GuildConfig),
		vehicleFeature:    vehicle.New(services.Vehicle, services.GuildConfig),
		moderationFeature: moderation.New(services.Moderation, services.GuildConfig),
		ticketFeature:     tickets.New(services.Ticket, services.GuildConfig),
		gamesFeature:      games.New(services.Game),
		audioFeature:      audio.New(&audio.YTDLPExtractor{}),
	}
	b.adminFeature = admin.New(services.GuildConfig, services.Status, suggester, superAdminID)

	b.commandRouter = map[string]commandHandler{
		"통장개설": b.bankFeature, "잔액": b.bankFeature, "입금": b.bankFeature,
		"출금": b.bankFeature, "송금": b.bankFeature, "대출": b.bankFeature,
		"상환": b.bankFeature, "거래내역": b.bankFeature,

		"차량등록": b.vehicleFeature,

		"킥": b.moderationFeature, "밴": b.moderationFeature, "청소": b.moderationFeature,
		"역할부여": b.moderationFeature, "역할삭제": b.moderationFeature,
		"경고": b.moderationFeature, "경고조회": b.moderationFeature, "경고삭제": b.moderationFeature,
		"블랙리스트": b.moderationFeature, "블랙리스트해제": b.moderationFeature,
		"스캔블랙리스트": b.moderationFeature, "보안리포트": b.moderationFeature,

		"티켓": b.ticketFeature,

		"주사위": b.gamesFeature, "가위바위보": b.gamesFeature,

		"들어와": b.audioFeature, "나가": b.audioFeature,
		"재생": b.audioFeature, "정지": b.audioFeature,

		"설정": b.adminFeature, "명령어": b.adminFeature,
		"봇상태": b.adminFeature, "채널명변경": b.adminFeature,
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteractionCreate)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onGuildCreate)
	session.AddHandler(b.onGuildMemberAdd)
	session.AddHandler(b.onGuildMemberRemove)

	if eventBus != nil {
		b.subscribeLogNotices(eventBus)
	}

	return b, nil
}

// Start opens the gateway connection and launches the background loops.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	b.wg.Add(3)
	go b.heartbeatLoop(ctx)
	go b.presenceLoop(ctx)
	go b.vehicleSweepLoop(ctx)

	return nil
}

// Close stops the background loops and closes the session.
func (b *Bot) Close() error {
	close(b.stop)
	b.wg.Wait()
	b.audioFeature.StopAll()
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.WithFields(log.Fields{
		"username": r.User.Username,
		"guilds":   len(r.Guilds),
	}).Info("Bot connected")

	if err := b.registerCommands(); err != nil {
		log.WithError(err).Error("Failed to register commands")
	}

	if settings, err := b.services.Status.GetPresence(context.Background()); err == nil {
		admin.ApplyPresence(s, settings)
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// DMs carry no member; every command here is guild-scoped
	if i.Member == nil || i.Member.User == nil {
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.dispatchCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.dispatchComponent(s, i)
	case discordgo.InteractionModalSubmit:
		b.dispatchModal(s, i)
	}
}

func (b *Bot) dispatchCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name

	handler, ok := b.commandRouter[name]
	if !ok {
		log.WithField("command", name).Warn("No handler for command")
		return
	}

	ctx := context.Background()
	if userID, err := common.ParseUserID(i.Member.User.ID); err == nil {
		if b.moderationFeature.IsBlacklistedAuthor(ctx, userID) {
			common.RespondWithError(s, i, "봇 이용이 제한된 사용자입니다.")
			return
		}
	}

	// admin commands stay reachable so a disabled command can be re-enabled
	if name != "설정" && name != "명령어" {
		guildID, err := common.ParseUserID(i.GuildID)
		if err == nil {
			enabled, err := b.services.GuildConfig.IsCommandEnabled(ctx, guildID, name)
			if err != nil {
				log.WithError(err).WithField("command", name).Warn("Failed to check command state")
			} else if !enabled {
				common.RespondWithError(s, i, fmt.Sprintf("`/%s` 명령어는 이 서버에서 비활성화되어 있습니다.", name))
				return
			}
		}
	}

	handler.HandleCommand(s, i)
}

func (b *Bot) dispatchComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	switch {
	case b.vehicleFeature.CanHandleComponent(customID):
		b.vehicleFeature.HandleComponent(s, i)
	case b.ticketFeature.CanHandleComponent(customID):
		b.ticketFeature.HandleComponent(s, i)
	default:
		log.WithField("custom_id", customID).Warn("No handler for component")
	}
}

func (b *Bot) dispatchModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.ModalSubmitData().CustomID
	if b.vehicleFeature.CanHandleModal(customID) {
		b.vehicleFeature.HandleModal(s, i)
		return
	}
	log.WithField("custom_id", customID).Warn("No handler for modal")
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	ctx := context.Background()
	guildID, err := common.ParseUserID(m.GuildID)
	if err != nil {
		return
	}
	config, err := b.services.GuildConfig.GetConfig(ctx, guildID)
	if err != nil {
		log.WithError(err).WithField("guild_id", guildID).Warn("Failed to load config for message")
		return
	}

	if b.moderationFeature.FilterMessage(s, m, config) {
		return
	}

	b.handlePrefixCommand(s, m, config)
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	guildID, err := common.ParseUserID(g.ID)
	if err != nil {
		return
	}
	if err := b.services.GuildConfig.EnsureConfig(context.Background(), guildID, g.Name); err != nil {
		log.WithError(err).WithField("guild_id", guildID).Error("Failed to ensure guild config")
		return
	}
	log.WithFields(log.Fields{"guild_id": guildID, "guild_name": g.Name}).Info("Guild available")
}

func (b *Bot) onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	b.sendMembershipNotice(s, m.GuildID, m.User, true)
}

func (b *Bot) onGuildMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	b.sendMembershipNotice(s, m.GuildID, m.User, false)
}

// sendMembershipNotice posts the configured welcome or leave message to the
// guild's log channel.
func (b *Bot) sendMembershipNotice(s *discordgo.Session, guildIDStr string, user *discordgo.User, joined bool) {
	guildID, err := common.ParseUserID(guildIDStr)
	if err != nil {
		return
	}
	config, err := b.services.GuildConfig.GetConfig(context.Background(), guildID)
	if err != nil || config.LogChannelID == nil {
		return
	}

	var text string
	if joined {
		if !config.WelcomeEnabled {
			return
		}
		text = config.WelcomeText
		if text == "" {
			text = "👋 %s님, 어서오세요!"
		}
	} else {
		if !config.LeaveEnabled {
			return
		}
		text = config.LeaveText
		if text == "" {
			text = "👋 %s님이 서버를 떠났습니다."
		}
	}

	message := fmt.Sprintf(text, user.Username)
	if _, err := s.ChannelMessageSend(common.FormatUserID(*config.LogChannelID), message); err != nil {
		log.WithError(err).WithField("guild_id", guildID).Debug("Failed to post membership notice")
	}
}

func (b *Bot) heartbeatLoop(ctx context.Context) {
	defer b.wg.Done()

	interval := b.config.HeartbeatInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	beat := func() {
		if err := b.services.Status.Heartbeat(ctx, "online", ""); err != nil {
			log.WithError(err).Warn("Failed to record heartbeat")
		}
	}
	beat()

	for {
		select {
		case <-ticker.C:
			beat()
		case <-b.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bot) presenceLoop(ctx context.Context) {
	defer b.wg.Done()

	interval := b.config.PresencePoll
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastApplied time.Time
	for {
		select {
		case <-ticker.C:
			settings, err := b.services.Status.GetPresence(ctx)
			if err != nil {
				log.WithError(err).Warn("Failed to poll presence settings")
				continue
			}
			if settings.UpdatedAt.After(lastApplied) {
				admin.ApplyPresence(b.session, settings)
				lastApplied = settings.UpdatedAt
			}
		case <-b.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bot) vehicleSweepLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(vehicleSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.vehicleFeature.SweepExpired(ctx, b.session)
		case <-b.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
