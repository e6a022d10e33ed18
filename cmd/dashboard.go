package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"justbot/config"
	"justbot/database"
	"justbot/events"
	"justbot/repository"
	"justbot/service"
	"justbot/web"
)

// RunDashboard starts the admin dashboard API process and blocks until ctx
// is cancelled.
func RunDashboard(ctx context.Context) error {
	cfg := config.Get()
	log.WithField("environment", cfg.Environment).Info("Starting justbot dashboard")

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	dashboardService := service.NewDashboardService(uowFactory)
	if cfg.AdminPassword != "" {
		if err := dashboardService.EnsureLocalAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return fmt.Errorf("failed to ensure local admin: %w", err)
		}
	}

	services := web.Services{
		Dashboard:   dashboardService,
		GuildConfig: service.NewGuildConfigService(uowFactory),
		Status:      service.NewStatusService(uowFactory, cfg.HeartbeatName),
		UowFactory:  uowFactory,
	}

	return web.Run(ctx, cfg, services, rdb)
}
