package http

import (
	"net/http"
	"strings"
	"time"

	"ourscreen/internal/core/services"
	"ourscreen/internal/infrastructure/monitoring"
	"ourscreen/pkg/config"
	"ourscreen/pkg/errors"
	"ourscreen/pkg/utils"

	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	tokenService services.TokenService
	cfg          *config.Config
	metrics      *monitoring.PrometheusCollector
}

func NewTokenHandler(tokenService services.TokenService, cfg *config.Config, metrics *monitoring.PrometheusCollector) *TokenHandler {
	return &TokenHandler{
		tokenService: tokenService,
		cfg:          cfg,
		metrics:      metrics,
	}
}

func (h *TokenHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/token")
	{
		api.POST("", h.Mint)
		api.GET("", h.Health)
		api.GET("/config-check", h.ConfigCheck)
	}
}

// TokenRequest accepts the historical alias pairs for both fields.
type TokenRequest struct {
	Room            string `json:"room"`
	RoomName        string `json:"roomName"`
	Username        string `json:"username"`
	ParticipantName string `json:"participantName"`
	Identity        string `json:"identity"`
	IsHost          bool   `json:"isHost"`
}

func (r *TokenRequest) room() string {
	if v := strings.TrimSpace(r.Room); v != "" {
		return v
	}
	return strings.TrimSpace(r.RoomName)
}

func (r *TokenRequest) username() string {
	if v := strings.TrimSpace(r.Username); v != "" {
		return v
	}
	return strings.TrimSpace(r.ParticipantName)
}

func (h *TokenHandler) Mint(c *gin.Context) {
	// Fail closed before the body is read for token purposes
	if !h.tokenService.HasConfig() {
		if h.metrics != nil {
			h.metrics.RecordTokenFailed()
		}
		c.Error(errors.NewConfigMissingError("media service credentials are not configured"))
		return
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	room := req.room()
	username := req.username()
	if room == "" || username == "" {
		c.Error(errors.NewInvalidInputError("room and username are required"))
		return
	}

	identity := strings.TrimSpace(req.Identity)
	if identity == "" {
		identity = username
	}

	// isHost is accepted for compatibility; the grant is identical for
	// every participant and the host role is tracked per room instead
	start := time.Now()
	token, err := h.tokenService.Mint(c.Request.Context(), room, identity, username)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordTokenFailed()
		}
		c.Error(errors.NewUpstreamError(err, "failed to generate token"))
		return
	}

	if h.metrics != nil {
		h.metrics.RecordTokenIssued(time.Since(start))
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"serviceUrl": h.tokenService.ServiceURL(),
	})
}

// Health reports endpoint liveness and configuration presence. It never
// mints a token and mutates no state.
func (h *TokenHandler) Health(c *gin.Context) {
	hasConfig := h.tokenService.HasConfig()

	message := "Token endpoint is ready"
	if !hasConfig {
		message = "Token endpoint is reachable but media service credentials are missing"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   message,
		"hasConfig": hasConfig,
	})
}

// ConfigCheck exposes redacted configuration diagnostics.
func (h *TokenHandler) ConfigCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"apiKey":    utils.RedactSecret(h.cfg.LiveKit.APIKey),
		"apiSecret": utils.RedactSecret(h.cfg.LiveKit.APISecret),
		"url":       utils.RedactSecret(h.cfg.LiveKit.URL),
		"hasConfig": h.cfg.HasLiveKitCredentials(),
	})
}
