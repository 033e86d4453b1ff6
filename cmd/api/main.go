package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArowuTest/prizedrop-backend/api/routes"
	"github.com/ArowuTest/prizedrop-backend/internal/config"
	"github.com/ArowuTest/prizedrop-backend/internal/handlers"
	"github.com/ArowuTest/prizedrop-backend/internal/logger"
	"github.com/ArowuTest/prizedrop-backend/internal/services"
	"github.com/ArowuTest/prizedrop-backend/internal/storage"
	"github.com/ArowuTest/prizedrop-backend/pkg/assets"
	"github.com/ArowuTest/prizedrop-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("Invalid server configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to open store", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			zlog.Error("Error closing store", zap.Error(err))
		}
	}()

	// Initialize Services
	assetStore := assets.NewStore(afero.NewOsFs(), cfg.Assets.VisibleDir, cfg.Assets.ObscuredDir)
	core := services.NewCore(store, assetStore, cfg.Claims, zlog)
	tokens := jwt.NewTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	authService := services.NewAuthService(cfg.Admin, tokens, zlog)

	// Initialize Handlers
	wsHandler := handlers.NewWSHandler(core.Users, core.Claims, zlog, nil)
	broadcastService := services.NewBroadcastService(core.Prizes, wsHandler.Hub(), cfg.Broadcast.Interval, zlog)

	router := routes.SetupRouter(&routes.Handlers{
		Auth:   handlers.NewAuthHandler(authService),
		Users:  handlers.NewUserHandler(core.Users, core.Rewards),
		Claims: handlers.NewClaimHandler(core.Claims, core.Prizes),
		Prizes: handlers.NewPrizeHandler(core.Prizes, broadcastService, wsHandler.Hub().Count),
		Reward: handlers.NewRewardHandler(core.Rewards),
		WS:     wsHandler,
	}, tokens, cfg.Server.AllowedOrigins, zlog)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info("Server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.Broadcast.Enabled {
		g.Go(func() error { return broadcastService.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("Shutting down server...")
		wsHandler.Hub().Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zlog.Error("Server stopped with error", zap.Error(err))
		return
	}
	zlog.Info("Server exiting")
}
