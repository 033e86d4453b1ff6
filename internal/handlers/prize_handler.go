package handlers

import (
	"net/http"

	"github.com/ArowuTest/prizedrop-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// PrizeHandler handles prize stock and broadcast requests
type PrizeHandler struct {
	prizeService     *services.PrizeService
	broadcastService *services.BroadcastService
	connected        func() int
}

// NewPrizeHandler creates a new PrizeHandler. connected reports the number of
// open realtime connections and may be nil.
func NewPrizeHandler(prizeService *services.PrizeService, broadcastService *services.BroadcastService, connected func() int) *PrizeHandler {
	return &PrizeHandler{
		prizeService:     prizeService,
		broadcastService: broadcastService,
		connected:        connected,
	}
}

// Next handles GET /prizes/next
func (h *PrizeHandler) Next(c *gin.Context) {
	prize, err := h.prizeService.Next(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"prize_id":  prize.ID,
		"image_url": services.TeaserURL(prize.ID),
	})
}

// Teaser handles GET /prizes/:id/teaser
func (h *PrizeHandler) Teaser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	data, _, err := h.prizeService.Teaser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

// List handles GET /admin/prizes
func (h *PrizeHandler) List(c *gin.Context) {
	prizes, err := h.prizeService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prizes)
}

// Status handles GET /admin/stock
func (h *PrizeHandler) Status(c *gin.Context) {
	status, err := h.prizeService.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if h.connected != nil {
		status.Connected = h.connected()
	}
	c.JSON(http.StatusOK, status)
}

// LoadStock handles POST /admin/stock/load
func (h *PrizeHandler) LoadStock(c *gin.Context) {
	created, err := h.prizeService.LoadStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": len(created), "prizes": created})
}

// Retire handles POST /admin/prizes/:id/retire
func (h *PrizeHandler) Retire(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.prizeService.Retire(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prize retired", "prize_id": id})
}

// Broadcast handles POST /admin/broadcast
func (h *PrizeHandler) Broadcast(c *gin.Context) {
	report, err := h.broadcastService.Broadcast(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
