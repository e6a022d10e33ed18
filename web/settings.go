package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"justbot/models"
)

// ToggleableCommands are the commands whose per-guild enable flags the
// dashboard exposes. The names must match the registered slash commands;
// admin commands are always on and are not listed.
var ToggleableCommands = []string{
	"통장개설", "잔액", "입금", "출금", "송금", "대출", "상환", "거래내역",
	"차량등록",
	"킥", "밴", "청소", "역할부여", "역할삭제",
	"경고", "경고조회", "경고삭제",
	"블랙리스트", "블랙리스트해제", "스캔블랙리스트", "보안리포트",
	"티켓", "주사위", "가위바위보",
	"들어와", "나가", "재생", "정지",
	"채널명변경", "봇상태",
}

// Settings serves the read/write guild configuration endpoints and the
// super-admin presence endpoints.
type Settings struct {
	services Services
}

func NewSettings(services Services) *Settings {
	return &Settings{services: services}
}

// guildSettingsDTO is the JSON shape for reading and writing a guild's
// configuration. Nullable bindings use pointers: null clears the binding.
type guildSettingsDTO struct {
	GuildName string `json:"guild_name"`

	WelcomeEnabled bool   `json:"welcome_enabled"`
	WelcomeText    string `json:"welcome_text"`
	LeaveEnabled   bool   `json:"leave_enabled"`
	LeaveText      string `json:"leave_text"`
	LogChannelID   *int64 `json:"log_channel_id"`

	VehicleRegistrationFee   int64    `json:"vehicle_registration_fee"`
	ForbiddenVehicles        []string `json:"forbidden_vehicles"`
	RegistrationChannelID    *int64   `json:"registration_channel_id"`
	VehicleAdminChannelID    *int64   `json:"vehicle_admin_channel_id"`
	VehicleAdminRoleID       *int64   `json:"vehicle_admin_role_id"`
	ApprovedVehicleChannelID *int64   `json:"approved_vehicle_channel_id"`

	BankChannelID    *int64  `json:"bank_channel_id"`
	LoanEnabled      bool    `json:"loan_enabled"`
	MaxLoanAmount    int64   `json:"max_loan_amount"`
	LoanInterestRate float64 `json:"loan_interest_rate"`

	AutoKickWarnCount int    `json:"auto_kick_warn_count"`
	MuteRoleID        *int64 `json:"mute_role_id"`

	InviteFilterEnabled bool `json:"invite_filter_enabled"`
	SpamFilterEnabled   bool `json:"spam_filter_enabled"`
	SpamThreshold       int  `json:"spam_threshold"`
	SpamWindowSeconds   int  `json:"spam_window_seconds"`

	TicketOpenChannelID *int64 `json:"ticket_open_channel_id"`
	TicketCategoryID    *int64 `json:"ticket_category_id"`
	TicketStaffRoleID   *int64 `json:"ticket_staff_role_id"`

	Commands map[string]bool `json:"commands,omitempty"`
}

func settingsFromConfig(config *models.GuildConfig) *guildSettingsDTO {
	return &guildSettingsDTO{
		GuildName:                config.GuildName,
		WelcomeEnabled:           config.WelcomeEnabled,
		WelcomeText:              config.WelcomeText,
		LeaveEnabled:             config.LeaveEnabled,
		LeaveText:                config.LeaveText,
		LogChannelID:             config.LogChannelID,
		VehicleRegistrationFee:   config.VehicleRegistrationFee,
		ForbiddenVehicles:        config.ForbiddenVehicles,
		RegistrationChannelID:    config.RegistrationChannelID,
		VehicleAdminChannelID:    config.VehicleAdminChannelID,
		VehicleAdminRoleID:       config.VehicleAdminRoleID,
		ApprovedVehicleChannelID: config.ApprovedVehicleChannelID,
		BankChannelID:            config.BankChannelID,
		LoanEnabled:              config.LoanEnabled,
		MaxLoanAmount:            config.MaxLoanAmount,
		LoanInterestRate:         config.LoanInterestRate,
		AutoKickWarnCount:        config.AutoKickWarnCount,
		MuteRoleID:               config.MuteRoleID,
		InviteFilterEnabled:      config.InviteFilterEnabled,
		SpamFilterEnabled:        config.SpamFilterEnabled,
		SpamThreshold:            config.SpamThreshold,
		SpamWindowSeconds:        config.SpamWindowSeconds,
		TicketOpenChannelID:      config.TicketOpenChannelID,
		TicketCategoryID:         config.TicketCategoryID,
		TicketStaffRoleID:        config.TicketStaffRoleID,
	}
}

func (dto *guildSettingsDTO) applyTo(config *models.GuildConfig) {
	config.GuildName = dto.GuildName
	config.WelcomeEnabled = dto.WelcomeEnabled
	config.WelcomeText = dto.WelcomeText
	config.LeaveEnabled = dto.LeaveEnabled
	config.LeaveText = dto.LeaveText
	config.LogChannelID = dto.LogChannelID
	config.VehicleRegistrationFee = dto.VehicleRegistrationFee
	config.ForbiddenVehicles = dto.ForbiddenVehicles
	config.RegistrationChannelID = dto.RegistrationChannelID
	config.VehicleAdminChannelID = dto.VehicleAdminChannelID
	config.VehicleAdminRoleID = dto.VehicleAdminRoleID
	config.ApprovedVehicleChannelID = dto.ApprovedVehicleChannelID
	config.BankChannelID = dto.BankChannelID
	config.LoanEnabled = dto.LoanEnabled
	config.MaxLoanAmount = dto.MaxLoanAmount
	config.LoanInterestRate = dto.LoanInterestRate
	config.AutoKickWarnCount = dto.AutoKickWarnCount
	config.MuteRoleID = dto.MuteRoleID
	config.InviteFilterEnabled = dto.InviteFilterEnabled
	config.SpamFilterEnabled = dto.SpamFilterEnabled
	config.SpamThreshold = dto.SpamThreshold
	config.SpamWindowSeconds = dto.SpamWindowSeconds
	config.TicketOpenChannelID = dto.TicketOpenChannelID
	config.TicketCategoryID = dto.TicketCategoryID
	config.TicketStaffRoleID = dto.TicketStaffRoleID
}

// Get returns the guild's configuration and the effective enable flag of
// every toggleable command.
func (s *Settings) Get(c *gin.Context) {
	ctx := c.Request.Context()
	guildID := GuildID(c)

	config, err := s.services.GuildConfig.GetConfig(ctx, guildID)
	if err != nil {
		internalError(c, err, "Failed to load guild settings")
		return
	}

	stored, err := s.services.GuildConfig.ListCommandStates(ctx, guildID)
	if err != nil {
		internalError(c, err, "Failed to load command states")
		return
	}
	storedByName := make(map[string]bool, len(stored))
	for _, state := range stored {
		storedByName[state.CommandName] = state.Enabled
	}

	commands := make(map[string]bool, len(ToggleableCommands))
	for _, name := range ToggleableCommands {
		enabled, ok := storedByName[name]
		if !ok {
			enabled = true
		}
		commands[name] = enabled
	}

	dto := settingsFromConfig(config)
	dto.Commands = commands
	c.JSON(http.StatusOK, dto)
}

// Put replaces the guild's configuration and any command flags included in
// the request body.
func (s *Settings) Put(c *gin.Context) {
	ctx := c.Request.Context()
	guildID := GuildID(c)

	var dto guildSettingsDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if dto.VehicleRegistrationFee < 0 || dto.MaxLoanAmount < 0 || dto.AutoKickWarnCount < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid settings values"})
		return
	}

	config, err := s.services.GuildConfig.GetConfig(ctx, guildID)
	if err != nil {
		internalError(c, err, "Failed to load guild settings")
		return
	}

	dto.applyTo(config)
	if err := s.services.GuildConfig.UpdateConfig(ctx, config); err != nil {
		internalError(c, err, "Failed to save guild settings")
		return
	}

	for name, enabled := range dto.Commands {
		if err := s.services.GuildConfig.SetCommandEnabled(ctx, guildID, name, enabled); err != nil {
			internalError(c, err, "Failed to save command state")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetPresence returns the configured bot presence.
func (s *Settings) GetPresence(c *gin.Context) {
	settings, err := s.services.Status.GetPresence(c.Request.Context())
	if err != nil {
		internalError(c, err, "Failed to load presence settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        settings.Status,
		"activity_type": settings.ActivityType,
		"activity_name": settings.ActivityName,
		"updated_at":    settings.UpdatedAt,
	})
}

var (
	validPresenceStatus   = map[string]bool{"online": true, "idle": true, "dnd": true, "invisible": true}
	validPresenceActivity = map[string]bool{"playing": true, "listening": true, "watching": true}
)

// PutPresence replaces the configured bot presence. The bot picks the change
// up on its next poll.
func (s *Settings) PutPresence(c *gin.Context) {
	var req struct {
		Status       string `json:"status" binding:"required"`
		ActivityType string `json:"activity_type" binding:"required"`
		ActivityName string `json:"activity_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if !validPresenceStatus[req.Status] || !validPresenceActivity[req.ActivityType] {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid status or activity type"})
		return
	}

	settings := &models.PresenceSettings{
		Status:       req.Status,
		ActivityType: req.ActivityType,
		ActivityName: req.ActivityName,
		UpdatedAt:    time.Now(),
	}
	if err := s.services.Status.SetPresence(c.Request.Context(), settings); err != nil {
		internalError(c, err, "Failed to save presence settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
