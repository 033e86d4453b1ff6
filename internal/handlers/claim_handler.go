package handlers

import (
	"net/http"

	"github.com/ArowuTest/prizedrop-backend/internal/models"
	"github.com/ArowuTest/prizedrop-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// ClaimHandler handles claim attempts over HTTP
type ClaimHandler struct {
	claimService *services.ClaimService
	prizeService *services.PrizeService
}

// NewClaimHandler creates a new ClaimHandler
func NewClaimHandler(claimService *services.ClaimService, prizeService *services.PrizeService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService, prizeService: prizeService}
}

type claimRequest struct {
	UserID int64 `json:"user_id" binding:"required,gt=0"`
}

// claimStatus maps an outcome to its HTTP status
func claimStatus(outcome models.ClaimOutcome) int {
	if outcome == models.ClaimAccepted {
		return http.StatusOK
	}
	return http.StatusConflict
}

// Claim handles POST /prizes/:id/claims
func (h *ClaimHandler) Claim(c *gin.Context) {
	prizeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.claimService.Claim(c.Request.Context(), req.UserID, prizeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(claimStatus(result.Outcome), result)
}

// GetPrize handles GET /prizes/:id and reports the prize's remaining slots
func (h *ClaimHandler) GetPrize(c *gin.Context) {
	prizeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	prize, err := h.prizeService.Get(c.Request.Context(), prizeID)
	if err != nil {
		respondError(c, err)
		return
	}
	winners, left, err := h.claimService.Slots(c.Request.Context(), prizeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"prize_id":   prize.ID,
		"used":       prize.Used,
		"winners":    winners,
		"slots_left": left,
		"image_url":  services.TeaserURL(prize.ID),
	})
}
