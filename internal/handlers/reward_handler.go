package handlers

import (
	"net/http"

	"github.com/ArowuTest/prizedrop-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// RewardHandler serves the leaderboard
type RewardHandler struct {
	rewardService *services.RewardService
}

// NewRewardHandler creates a new RewardHandler
func NewRewardHandler(rewardService *services.RewardService) *RewardHandler {
	return &RewardHandler{rewardService: rewardService}
}

// Leaderboard handles GET /leaderboard. ?format=text returns the plain text
// table.
func (h *RewardHandler) Leaderboard(c *gin.Context) {
	entries, err := h.rewardService.Leaderboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if c.Query("format") == "text" {
		c.String(http.StatusOK, services.LeaderboardText(entries))
		return
	}
	c.JSON(http.StatusOK, entries)
}
