package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"justbot/config"
	"justbot/service"
)

const (
	oauthStateTTL    = 10 * time.Minute
	tokenTTL         = 24 * time.Hour
	discordAPIBase   = "https://discord.com/api/v10"
	discordOAuthBase = "https://discord.com/oauth2/authorize"

	// guild permission bit for Administrator
	permissionAdministrator = 0x8

	claimsContextKey = "dashboard_claims"
)

// Claims is the dashboard JWT payload.
type Claims struct {
	Username        string  `json:"username"`
	DiscordUserID   *int64  `json:"discord_user_id,omitempty"`
	ManagedGuildIDs []int64 `json:"managed_guild_ids"`
	SuperAdmin      bool    `json:"super_admin"`
	jwt.RegisteredClaims
}

// CanManage reports whether the token may act on the guild.
func (c *Claims) CanManage(guildID int64) bool {
	if c.SuperAdmin {
		return true
	}
	for _, id := range c.ManagedGuildIDs {
		if id == guildID {
			return true
		}
	}
	return false
}

// Auth handles dashboard logins: local credentials and the Discord OAuth
// flow, both ending in a signed JWT.
type Auth struct {
	cfg              *config.Config
	dashboardService service.DashboardService
	uowFactory       service.UnitOfWorkFactory
	rdb              *redis.Client
	jwtSecret        []byte
	httpClient       *http.Client
	apiBase          string
}

func NewAuth(cfg *config.Config, dashboardService service.DashboardService, uowFactory service.UnitOfWorkFactory, rdb *redis.Client) *Auth {
	return &Auth{
		cfg:              cfg,
		dashboardService: dashboardService,
		uowFactory:       uowFactory,
		rdb:              rdb,
		jwtSecret:        []byte(cfg.JWTSecret),
		httpClient:       &http.Client{Timeout: 15 * time.Second},
		apiBase:          discordAPIBase,
	}
}

// IssueToken signs a JWT for a dashboard user.
func (a *Auth) IssueToken(username string, discordUserID *int64, managedGuildIDs []int64, superAdmin bool) (string, error) {
	now := time.Now()
	claims := Claims{
		Username:        username,
		DiscordUserID:   discordUserID,
		ManagedGuildIDs: managedGuildIDs,
		SuperAdmin:      superAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
}

// ParseToken validates a JWT and returns its claims.
func (a *Auth) ParseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func (a *Auth) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	user, err := a.dashboardService.AuthenticateLocal(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrBadCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"err": "invalid username or password"})
			return
		}
		log.WithError(err).Error("Local login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"err": "login failed"})
		return
	}

	superAdmin := a.cfg.AdminUsername != "" && user.Username == a.cfg.AdminUsername
	token, err := a.IssueToken(user.Username, user.DiscordUserID, user.ManagedGuildIDs, superAdmin)
	if err != nil {
		log.WithError(err).Error("Failed to issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"err": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (a *Auth) DiscordAuthorizeURL(c *gin.Context) {
	if a.cfg.DiscordClientID == "" || a.cfg.DiscordRedirectURI == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "discord login is not configured"})
		return
	}

	state := uuid.NewString()
	if err := a.rdb.Set(c.Request.Context(), oauthStateKey(state), "1", oauthStateTTL).Err(); err != nil {
		log.WithError(err).Error("Failed to store oauth state")
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to start login"})
		return
	}

	params := url.Values{}
	params.Set("client_id", a.cfg.DiscordClientID)
	params.Set("redirect_uri", a.cfg.DiscordRedirectURI)
	params.Set("response_type", "code")
	params.Set("scope", "identify guilds")
	params.Set("state", state)

	c.JSON(http.StatusOK, gin.H{"url": discordOAuthBase + "?" + params.Encode()})
}

func oauthStateKey(state string) string {
	return "oauth_state:" + state
}

type discordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type discordGuild struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Permissions string `json:"permissions"`
}

func (a *Auth) DiscordCallback(c *gin.Context) {
	ctx := c.Request.Context()

	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "missing code or state"})
		return
	}

	deleted, err := a.rdb.Del(ctx, oauthStateKey(state)).Result()
	if err != nil || deleted == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "unknown or expired state"})
		return
	}

	accessToken, err := a.exchangeCode(ctx, code)
	if err != nil {
		log.WithError(err).Warn("OAuth code exchange failed")
		c.JSON(http.StatusUnauthorized, gin.H{"err": "code exchange failed"})
		return
	}

	user, adminGuildIDs, err := a.fetchDiscordIdentity(ctx, accessToken)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch discord identity")
		c.JSON(http.StatusBadGateway, gin.H{"err": "failed to fetch discord profile"})
		return
	}

	discordUserID, err := strconv.ParseInt(user.ID, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"err": "bad discord user id"})
		return
	}

	managed, err := a.intersectKnownGuilds(ctx, adminGuildIDs)
	if err != nil {
		log.WithError(err).Error("Failed to resolve managed guilds")
		c.JSON(http.StatusInternalServerError, gin.H{"err": "login failed"})
		return
	}

	dashboardUser, err := a.dashboardService.UpsertDiscordUser(ctx, user.Username, discordUserID, managed)
	if err != nil {
		log.WithError(err).Error("Failed to upsert discord dashboard user")
		c.JSON(http.StatusInternalServerError, gin.H{"err": "login failed"})
		return
	}

	superAdmin := false
	for _, id := range a.cfg.AdminDiscordIDs {
		if id == discordUserID {
			superAdmin = true
			break
		}
	}

	token, err := a.IssueToken(dashboardUser.Username, dashboardUser.DiscordUserID, dashboardUser.ManagedGuildIDs, superAdmin)
	if err != nil {
		log.WithError(err).Error("Failed to issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"err": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// exchangeCode trades an OAuth authorization code for an access token.
func (a *Auth) exchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("client_id", a.cfg.DiscordClientID)
	form.Set("client_secret", a.cfg.DiscordClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", a.cfg.DiscordRedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiBase+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("empty access token")
	}
	return body.AccessToken, nil
}

// fetchDiscordIdentity returns the user and the IDs of guilds where they
// hold Administrator.
func (a *Auth) fetchDiscordIdentity(ctx context.Context, accessToken string) (*discordUser, []int64, error) {
	var user discordUser
	if err := a.getJSON(ctx, accessToken, "/users/@me", &user); err != nil {
		return nil, nil, err
	}

	var guilds []discordGuild
	if err := a.getJSON(ctx, accessToken, "/users/@me/guilds", &guilds); err != nil {
		return nil, nil, err
	}

	var adminGuildIDs []int64
	for _, g := range guilds {
		perms, err := strconv.ParseInt(g.Permissions, 10, 64)
		if err != nil {
			continue
		}
		if perms&permissionAdministrator == 0 {
			continue
		}
		id, err := strconv.ParseInt(g.ID, 10, 64)
		if err != nil {
			continue
		}
		adminGuildIDs = append(adminGuildIDs, id)
	}
	return &user, adminGuildIDs, nil
}

func (a *Auth) getJSON(ctx context.Context, accessToken, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// intersectKnownGuilds filters the user's admin guilds down to guilds the
// bot actually serves.
func (a *Auth) intersectKnownGuilds(ctx context.Context, adminGuildIDs []int64) ([]int64, error) {
	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = uow.Rollback() }()

	configs, err := uow.GuildConfigRepository().GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	known := make(map[int64]bool, len(configs))
	for _, cfg := range configs {
		known[cfg.GuildID] = true
	}

	var managed []int64
	for _, id := range adminGuildIDs {
		if known[id] {
			managed = append(managed, id)
		}
	}
	return managed, nil
}

// Middleware validates the Authorization bearer token and stores its claims
// on the request context.
func (a *Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "missing bearer token"})
			return
		}

		claims, err := a.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "invalid token"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// GuildScope rejects requests whose token may not manage the :id guild.
func (a *Auth) GuildScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := MustClaims(c)
		guildID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"err": "bad guild id"})
			return
		}
		if !claims.CanManage(guildID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"err": "guild not managed by this account"})
			return
		}
		c.Set("guild_id", guildID)
		c.Next()
	}
}

// RequireSuperAdmin rejects non-super-admin tokens.
func (a *Auth) RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !MustClaims(c).SuperAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"err": "super admin only"})
			return
		}
		c.Next()
	}
}

// MustClaims returns the claims stored by Middleware.
func MustClaims(c *gin.Context) *Claims {
	claims, _ := c.Get(claimsContextKey)
	return claims.(*Claims)
}

// GuildID returns the guild ID stored by GuildScope.
func GuildID(c *gin.Context) int64 {
	id, _ := c.Get("guild_id")
	return id.(int64)
}
