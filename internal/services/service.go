package services

import (
	"github.com/ArowuTest/prizedrop-backend/internal/config"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
	"github.com/ArowuTest/prizedrop-backend/pkg/assets"
	"go.uber.org/zap"
)

// Core bundles the services the transports call into
type Core struct {
	Users   *UserService
	Claims  *ClaimService
	Prizes  *PrizeService
	Rewards *RewardService
}

// NewCore wires the core services over one store
func NewCore(store *repositories.Store, assetStore *assets.Store, claims config.ClaimsConfig, log *zap.Logger) *Core {
	return &Core{
		Users:   NewUserService(store.Users, log),
		Claims:  NewClaimService(store.Wins, store.Prizes, claims.MaxWinners, claims.AutoRetire, log),
		Prizes:  NewPrizeService(store.Prizes, assetStore, log),
		Rewards: NewRewardService(store.Wins, assetStore, log),
	}
}
