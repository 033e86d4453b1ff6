// Command stock adds every image in the visible asset directory that is not
// a prize yet and writes its obscured teaser.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/ArowuTest/prizedrop-backend/internal/config"
	"github.com/ArowuTest/prizedrop-backend/internal/logger"
	"github.com/ArowuTest/prizedrop-backend/internal/services"
	"github.com/ArowuTest/prizedrop-backend/internal/storage"
	"github.com/ArowuTest/prizedrop-backend/pkg/assets"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	zlog, err := logger.New(cfg.LogLevel, "console")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := storage.Open(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close(context.Background())

	fs := afero.NewOsFs()
	for _, dir := range []string{cfg.Assets.VisibleDir, cfg.Assets.ObscuredDir} {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			zlog.Fatal("Failed to create asset directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	prizes := services.NewPrizeService(store.Prizes, assets.NewStore(fs, cfg.Assets.VisibleDir, cfg.Assets.ObscuredDir), zlog)
	created, err := prizes.LoadStock(ctx)
	if err != nil {
		zlog.Fatal("Failed to load stock", zap.Error(err))
	}
	for _, p := range created {
		zlog.Info("prize added", zap.Int64("prize_id", p.ID), zap.String("image", p.Image))
	}
	zlog.Info("done", zap.Int("added", len(created)))
}
