package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"justbot/ai"
	"justbot/bot"
	"justbot/config"
	"justbot/database"
	"justbot/events"
	"justbot/repository"
	"justbot/service"
)

// Run starts the Discord bot process and blocks until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg := config.Get()
	log.WithField("environment", cfg.Environment).Info("Starting justbot")

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	services := bot.Services{
		Account:     service.NewAccountService(uowFactory),
		Loan:        service.NewLoanService(uowFactory),
		Vehicle:     service.NewVehicleService(uowFactory),
		Moderation:  service.NewModerationService(uowFactory),
		Ticket:      service.NewTicketService(uowFactory),
		Game:        service.NewGameService(uowFactory),
		GuildConfig: service.NewGuildConfigService(uowFactory),
		Status:      service.NewStatusService(uowFactory, cfg.HeartbeatName),
	}

	var suggester ai.Suggester
	if cfg.GeminiAPIKey != "" {
		suggester = ai.NewGeminiSuggester(cfg.GeminiAPIKey)
	}

	discordBot, err := bot.New(bot.Config{
		Token:             cfg.DiscordToken,
		CommandPrefix:     cfg.CommandPrefix,
		SuperAdminIDs:     cfg.AdminDiscordIDs,
		HeartbeatInterval: time.Duration(cfg.HeartbeatInterval) * time.Second,
		PresencePoll:      time.Duration(cfg.PresencePollSecs) * time.Second,
	}, services, suggester, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize discord bot: %w", err)
	}

	if err := discordBot.Start(ctx); err != nil {
		return fmt.Errorf("failed to start discord bot: %w", err)
	}
	log.Info("Bot is running")

	<-ctx.Done()

	log.Info("Shutting down bot")
	if err := discordBot.Close(); err != nil {
		log.WithError(err).Error("Error closing discord bot")
	}
	return nil
}
