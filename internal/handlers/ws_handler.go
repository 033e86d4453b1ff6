package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ArowuTest/prizedrop-backend/internal/models"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
	"github.com/ArowuTest/prizedrop-backend/internal/services"
	"github.com/ArowuTest/prizedrop-backend/pkg/hub"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActionClaim is the client action for a claim attempt
const ActionClaim = "claim"

// WSHandler connects users to the realtime hub and answers their actions
type WSHandler struct {
	hub          *hub.Hub
	userService  *services.UserService
	claimService *services.ClaimService
	log          *zap.Logger
	now          func() time.Time
}

// NewWSHandler creates a WSHandler with its own hub. checkOrigin may be nil.
func NewWSHandler(userService *services.UserService, claimService *services.ClaimService, log *zap.Logger, checkOrigin func(*http.Request) bool) *WSHandler {
	h := &WSHandler{
		userService:  userService,
		claimService: claimService,
		log:          log.Named("ws"),
		now:          time.Now,
	}
	h.hub = hub.New(log.Named("hub"), h.HandleMessage, checkOrigin)
	return h
}

// Hub returns the hub the handler registers connections with
func (h *WSHandler) Hub() *hub.Hub { return h.hub }

// Connect handles GET /ws?user_id=..&name=.. . The user is registered on
// first contact before the connection is upgraded.
func (h *WSHandler) Connect(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
		return
	}
	if _, err := h.userService.Seen(c.Request.Context(), userID, c.Query("name")); err != nil {
		respondError(c, err)
		return
	}
	if err := h.hub.Serve(c.Writer, c.Request, userID); err != nil {
		// the upgrader has already written the HTTP error
		h.log.Info("websocket upgrade failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// HandleMessage answers one client action
func (h *WSHandler) HandleMessage(ctx context.Context, userID int64, message []byte) []byte {
	var action models.ClientAction
	if err := json.Unmarshal(message, &action); err != nil {
		return h.reply(models.Notification{Type: models.NotificationError, Message: "invalid message"})
	}

	switch action.Action {
	case ActionClaim:
		if action.PrizeID <= 0 {
			return h.reply(models.Notification{Type: models.NotificationError, Message: "prize_id is required"})
		}
		result, err := h.claimService.Claim(ctx, userID, action.PrizeID)
		if err != nil {
			msg := "claim failed"
			if errors.Is(err, repositories.ErrNotFound) {
				msg = err.Error()
			}
			return h.reply(models.Notification{Type: models.NotificationError, PrizeID: action.PrizeID, Message: msg})
		}
		return h.reply(models.Notification{Type: models.NotificationClaim, PrizeID: action.PrizeID, Claim: result})
	default:
		return h.reply(models.Notification{Type: models.NotificationError, Message: "unknown action " + strconv.Quote(action.Action)})
	}
}

func (h *WSHandler) reply(n models.Notification) []byte {
	n.SentAt = h.now()
	b, err := json.Marshal(n)
	if err != nil {
		h.log.Error("failed to encode reply", zap.Error(err))
		return nil
	}
	return b
}
