package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"justbot/config"
	"justbot/service"
)

// Services bundles what the dashboard handlers depend on.
type Services struct {
	Dashboard   service.DashboardService
	GuildConfig service.GuildConfigService
	Status      service.StatusService
	UowFactory  service.UnitOfWorkFactory
}

// New builds the gin engine with all dashboard routes attached.
func New(cfg *config.Config, services Services, rdb *redis.Client) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	g.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	attachRoutes(g, cfg, services, rdb)
	return g
}

func attachRoutes(g *gin.Engine, cfg *config.Config, services Services, rdb *redis.Client) {
	auth := NewAuth(cfg, services.Dashboard, services.UowFactory, rdb)
	guilds := NewGuilds(services)
	settings := NewSettings(services)

	api := g.Group("/api")

	api.POST("/auth/login", auth.Login)
	api.GET("/auth/discord", auth.DiscordAuthorizeURL)
	api.GET("/auth/discord/callback", auth.DiscordCallback)

	authed := api.Group("", auth.Middleware())
	authed.GET("/guilds", guilds.List)

	guild := authed.Group("/guilds/:id", auth.GuildScope())
	guild.GET("/overview", guilds.Overview)
	guild.GET("/bank", guilds.Bank)
	guild.GET("/moderation", guilds.Moderation)
	guild.GET("/vehicles", guilds.Vehicles)
	guild.GET("/games", guilds.Games)
	guild.GET("/settings", settings.Get)
	guild.PUT("/settings", settings.Put)

	bot := authed.Group("/bot", auth.RequireSuperAdmin())
	bot.GET("/presence", settings.GetPresence)
	bot.PUT("/presence", settings.PutPresence)
}

// Run serves the dashboard until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, cfg *config.Config, services Services, rdb *redis.Client) error {
	engine := New(cfg, services, rdb)
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.HTTPPort).Info("Dashboard listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("dashboard server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard shutdown failed: %w", err)
	}
	return nil
}
