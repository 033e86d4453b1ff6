package routes

import (
	"net/http"

	"github.com/ArowuTest/prizedrop-backend/internal/handlers"
	"github.com/ArowuTest/prizedrop-backend/internal/middleware"
	"github.com/ArowuTest/prizedrop-backend/internal/services"
	"github.com/ArowuTest/prizedrop-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by SetupRouter
type Handlers struct {
	Auth   *handlers.AuthHandler
	Users  *handlers.UserHandler
	Claims *handlers.ClaimHandler
	Prizes *handlers.PrizeHandler
	Reward *handlers.RewardHandler
	WS     *handlers.WSHandler
}

// SetupRouter sets up the router
func SetupRouter(h *Handlers, tokens *jwt.TokenService, allowedOrigins []string, log *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(allowedOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log.Named("http")))

	// Public routes
	public := router.Group("/api/v1")
	{
		// Health check
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		public.POST("/auth/login", h.Auth.Login)

		users := public.Group("/users")
		{
			users.POST("", h.Users.Register)
			users.GET("/:id", h.Users.GetUserByID)
			users.GET("/:id/summary", h.Users.GetSummary)
		}

		prizes := public.Group("/prizes")
		{
			prizes.GET("/next", h.Prizes.Next)
			prizes.GET("/:id", h.Claims.GetPrize)
			prizes.GET("/:id/teaser", h.Prizes.Teaser)
			prizes.POST("/:id/claims", h.Claims.Claim)
		}

		public.GET("/leaderboard", h.Reward.Leaderboard)
		public.GET("/ws", h.WS.Connect)
	}

	// Protected routes
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(tokens, log.Named("auth")))
	admin.Use(middleware.RequireRole(services.RoleAdmin))
	{
		admin.GET("/users", h.Users.GetAllUsers)
		admin.GET("/prizes", h.Prizes.List)
		admin.POST("/prizes/:id/retire", h.Prizes.Retire)
		admin.GET("/stock", h.Prizes.Status)
		admin.POST("/stock/load", h.Prizes.LoadStock)
		admin.POST("/broadcast", h.Prizes.Broadcast)
	}

	return router
}
