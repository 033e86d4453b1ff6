package handlers

import (
	"net/http"
	"strconv"

	"github.com/ArowuTest/prizedrop-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService   *services.UserService
	rewardService *services.RewardService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *services.UserService, rewardService *services.RewardService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		rewardService: rewardService,
	}
}

type registerRequest struct {
	ID   int64  `json:"id" binding:"required,gt=0"`
	Name string `json:"name"`
}

// Register handles POST /users. It is idempotent: a known user is returned
// with 200, a new one with 201.
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.userService.Seen(c.Request.Context(), req.ID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.userService.GetUserByID(c.Request.Context(), req.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"user": user, "created": created})
}

// GetUserByID handles GET /users/:id
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.GetUserByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetAllUsers handles GET /admin/users
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.userService.GetAllUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetSummary handles GET /users/:id/summary and returns the PNG of every
// prize the user owns.
func (h *UserHandler) GetSummary(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	summary, err := h.rewardService.Summary(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("X-Prize-Count", strconv.Itoa(len(summary.Images)))
	c.Data(http.StatusOK, "image/png", summary.PNG)
}
