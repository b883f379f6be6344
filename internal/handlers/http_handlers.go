package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"secretsanta/internal/services"
)

// WebhookSecretHeader carries the secret token Telegram echoes on every webhook call.
const WebhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateReceiver accepts Telegram updates delivered by webhook.
type UpdateReceiver interface {
	Receive(ctx context.Context, update tgbotapi.Update)
}

// HTTPHandler holds the dependencies for the HTTP handlers.
type HTTPHandler struct {
	rooms   *services.RoomService
	wishes  *services.WishService
	updates UpdateReceiver
	secret  string
}

// NewHTTPHandler creates a new HTTPHandler. updates may be nil when the bot polls;
// otherwise webhook calls must present secret in WebhookSecretHeader.
func NewHTTPHandler(rooms *services.RoomService, wishes *services.WishService, updates UpdateReceiver, secret string) *HTTPHandler {
	return &HTTPHandler{
		rooms:   rooms,
		wishes:  wishes,
		updates: updates,
		secret:  secret,
	}
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)
	router.GET("/stats", h.Stats)
	router.GET("/rooms/:code", h.GetRoom)
	if h.updates != nil {
		router.POST("/telegram/webhook", h.RequireWebhookSecret, h.Webhook)
	}
}

// RequireWebhookSecret rejects webhook calls that do not carry the configured secret.
// An empty secret rejects everything.
func (h *HTTPHandler) RequireWebhookSecret(c *gin.Context) {
	got := c.GetHeader(WebhookSecretHeader)
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
		logger.Warningf("Rejecting webhook call from %s: bad secret token", c.ClientIP())
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

// Health reports liveness.
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Stats reports the size of the in-memory tables.
func (h *HTTPHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"rooms":  h.rooms.RoomCount(),
		"wishes": h.wishes.Count(),
	})
}

// GetRoom returns public room metadata. The pairing is never exposed.
func (h *HTTPHandler) GetRoom(c *gin.Context) {
	room, err := h.rooms.GetRoom(c.Param("code"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":         room.Code,
		"name":         room.Name,
		"description":  room.Description,
		"budget":       room.Budget,
		"exchangeDate": room.ExchangeDate,
		"participants": len(room.Participants),
		"shuffled":     room.Shuffled,
		"createdAt":    room.CreatedAt,
	})
}

// Webhook decodes a Telegram update and hands it to the bot.
func (h *HTTPHandler) Webhook(c *gin.Context) {
	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		logger.Infof("Rejecting malformed webhook payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed update"})
		return
	}
	h.updates.Receive(c.Request.Context(), update)
	c.Status(http.StatusOK)
}

func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Errorf("Unhandled internal server error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred"})
	}
}
