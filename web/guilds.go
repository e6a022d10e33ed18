package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"justbot/models"
	"justbot/service"
)

const recentListLimit = 20

// Guilds serves the read-only dashboard views over the bot's data.
type Guilds struct {
	services Services
}

func NewGuilds(services Services) *Guilds {
	return &Guilds{services: services}
}

// withReadTx runs fn inside a committed read transaction.
func (g *Guilds) withReadTx(ctx context.Context, fn func(uow service.UnitOfWork) error) error {
	uow := g.services.UowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() { _ = uow.Rollback() }()

	if err := fn(uow); err != nil {
		return err
	}
	return uow.Commit()
}

func internalError(c *gin.Context, err error, msg string) {
	log.WithError(err).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
}

// List returns the guilds the caller's token may manage.
func (g *Guilds) List(c *gin.Context) {
	claims := MustClaims(c)

	var configs []*models.GuildConfig
	err := g.withReadTx(c.Request.Context(), func(uow service.UnitOfWork) error {
		all, err := uow.GuildConfigRepository().GetAll(c.Request.Context())
		if err != nil {
			return err
		}
		configs = all
		return nil
	})
	if err != nil {
		internalError(c, err, "Failed to list guilds")
		return
	}

	guilds := make([]gin.H, 0, len(configs))
	for _, cfg := range configs {
		if !claims.CanManage(cfg.GuildID) {
			continue
		}
		guilds = append(guilds, gin.H{
			"guild_id":   cfg.GuildID,
			"guild_name": cfg.GuildName,
		})
	}
	c.JSON(http.StatusOK, gin.H{"guilds": guilds})
}

// Overview returns a guild summary plus bot liveness.
func (g *Guilds) Overview(c *gin.Context) {
	ctx := c.Request.Context()
	guildID := GuildID(c)

	config, err := g.services.GuildConfig.GetConfig(ctx, guildID)
	if err != nil {
		internalError(c, err, "Failed to load guild config")
		return
	}

	online, status, err := g.services.Status.IsOnline(ctx)
	if err != nil {
		internalError(c, err, "Failed to check bot status")
		return
	}

	bot := gin.H{"online": online}
	if status != nil {
		bot["last_heartbeat"] = status.LastHeartbeat
		bot["status"] = status.Status
	}

	c.JSON(http.StatusOK, gin.H{
		"guild_id":   config.GuildID,
		"guild_name": config.GuildName,
		"bot":        bot,
	})
}

// Bank returns the guild's economy summary and recent ledger activity.
func (g *Guilds) Bank(c *gin.Context) {
	ctx := c.Request.Context()
	guildID := GuildID(c)

	var (
		accountCount int64
		totalBalance int64
		activeLoans  int64
		totalDebt    int64
		recent       []*models.LedgerEntry
	)
	err := g.withReadTx(ctx, func(uow service.UnitOfWork) error {
		var err error
		accountCount, totalBalance, err = uow.AccountRepository().CountAndTotal(ctx)
		if err != nil {
			return err
		}
		activeLoans, totalDebt, err = uow.LoanRepository().CountActiveByGuild(ctx, guildID)
		if err != nil {
			return err
		}
		recent, err = uow.LedgerEntryRepository().GetByGuild(ctx, guildID, recentListLimit)
		return err
	})
	if err != nil {
		internalError(c, err, "Failed to load bank summary")
		return
	}

	entries := make([]gin.H, 0, len(recent))
	for _, e := range recent {
		entries = append(entries, gin.H{
			"discord_id":    e.DiscordID,
			"entry_type":    e.EntryType,
			"change_amount": e.ChangeAmount,
			"balance_after": e.BalanceAfter,
			"created_at":    e.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"account_count":      accountCount,
		"total_balance":      totalBalance,
		"active_loans":       activeLoans,
		"outstanding_debt":   totalDebt,
		"recent_transactions": entries,
	})
}

// Moderation returns the guild's moderation summary.
func (g *Guilds) Moderation(c *gin.Context) {
	ctx := c.Request.Context()
	guildID := GuildID(c)

	var (
		warningCount int64
		openTickets  int64
		recent       []*models.Warning
	)
	err := g.withReadTx(ctx, func(uow service.UnitOfWork) error {
		var err error
		warningCount, err = uow.WarningRepository().CountByGuild(ctx, guildID)
		if err != nil {
			return err
		}
		openTickets, err = uow.TicketRepository().CountOpenByGuild(ctx, guildID)
		if err != nil {
			return err
		}
		recent, err = uow.WarningRepository().GetRecentByGuild(ctx, guildID, recentListLimit)
		return err
	})
	if err != nil {
		internalError(c, err, "Failed to load moderation summary")
		return
	}

	warnings := make([]gin.H, 0, len(recent))
	for _, w := range recent {
		warnings = append(warnings, gin.H{
			"discord_id":     w.DiscordID,
			"username":       w.Username,
			"moderator_name": w.ModeratorName,
			"reason":         w.Reason,
			"created_at":     w.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"warning_count":   warningCount,
		"open_tickets":    openTickets,
		"recent_warnings": warnings,
	})
}

// Vehicles returns the guild's most recent vehicle registrations.
func (g *Guilds) Vehicles(c *gin.Context) {
	ctx := c.Request.Context()
	guildID := GuildID(c)

	var (
		pending int64
		recent  []*models.VehicleRegistration
	)
	err := g.withReadTx(ctx, func(uow service.UnitOfWork) error {
		var err error
		pending, err = uow.VehicleRepository().CountPendingByGuild(ctx, guildID)
		if err != nil {
			return err
		}
		recent, err = uow.VehicleRepository().GetByGuild(ctx, guildID, recentListLimit)
		return err
	})
	if err != nil {
		internalError(c, err, "Failed to load vehicle registrations")
		return
	}

	registrations := make([]gin.H, 0, len(recent))
	for _, r := range recent {
		entry := gin.H{
			"id":           r.ID,
			"discord_id":   r.DiscordID,
			"username":     r.Username,
			"vehicle_name": r.VehicleName,
			"fee":          r.Fee,
			"status":       r.Status,
			"requested_at": r.RequestedAt,
			"review_by":    r.ReviewBy,
		}
		if r.DecidedAt != nil {
			entry["decided_at"] = *r.DecidedAt
		}
		if r.RejectReason != nil {
			entry["reject_reason"] = *r.RejectReason
		}
		registrations = append(registrations, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"pending_count": pending,
		"registrations": registrations,
	})
}

// Games returns the guild's game play counts and recent records.
func (g *Guilds) Games(c *gin.Context) {
	ctx := c.Request.Context()
	guildID := GuildID(c)

	var (
		counts map[models.GameType]int64
		recent []*models.GameRecord
	)
	err := g.withReadTx(ctx, func(uow service.UnitOfWork) error {
		var err error
		counts, err = uow.GameRepository().CountByGuild(ctx, guildID)
		if err != nil {
			return err
		}
		recent, err = uow.GameRepository().GetRecentByGuild(ctx, guildID, recentListLimit)
		return err
	})
	if err != nil {
		internalError(c, err, "Failed to load game records")
		return
	}

	records := make([]gin.H, 0, len(recent))
	for _, r := range recent {
		records = append(records, gin.H{
			"username":   r.Username,
			"game_type":  r.GameType,
			"outcome":    r.Outcome,
			"created_at": r.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"play_counts":    counts,
		"recent_records": records,
		"generated_at":   time.Now(),
	})
}
