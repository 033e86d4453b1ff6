package services

import (
	"context"
	"errors"

	"github.com/ArowuTest/prizedrop-backend/internal/models"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
	"go.uber.org/zap"
)

// ClaimService arbitrates claim attempts: the first MaxWinners distinct users
// win a prize, later ones are closed out, repeats are duplicates.
type ClaimService struct {
	wins       repositories.WinRepository
	prizes     repositories.PrizeRepository
	maxWinners int
	autoRetire bool
	log        *zap.Logger
}

// NewClaimService creates a new ClaimService
func NewClaimService(wins repositories.WinRepository, prizes repositories.PrizeRepository, maxWinners int, autoRetire bool, log *zap.Logger) *ClaimService {
	return &ClaimService{
		wins:       wins,
		prizes:     prizes,
		maxWinners: maxWinners,
		autoRetire: autoRetire,
		log:        log.Named("claims"),
	}
}

// MaxWinners returns the per-prize winner cap
func (s *ClaimService) MaxWinners() int { return s.maxWinners }

// Claim decides a claim attempt by userID for prizeID in one atomic store
// step. Closed-out and duplicate claims are results, not errors. Unknown
// users or prizes return errors matching repositories.ErrNotFound.
func (s *ClaimService) Claim(ctx context.Context, userID, prizeID int64) (*models.ClaimResult, error) {
	log := s.log.With(zap.Int64("user_id", userID), zap.Int64("prize_id", prizeID))

	// The store checks ownership before the cap, so a past winner retrying a
	// full prize still gets a duplicate rather than closed out.
	outcome, prize, err := s.wins.Claim(ctx, userID, prizeID, s.maxWinners)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Info("claim rejected", zap.Error(err))
		} else {
			log.Error("failed to record claim", zap.Error(err))
		}
		return nil, err
	}

	result := &models.ClaimResult{Outcome: outcome, PrizeID: prizeID}
	if outcome != models.ClaimAccepted {
		log.Info("claim rejected", zap.String("outcome", string(outcome)))
		return result, nil
	}

	result.Image = prize.Image
	log.Info("claim accepted", zap.Int("winners", prize.WinnerCount))

	if s.autoRetire && prize.WinnerCount >= s.maxWinners {
		if err := s.prizes.MarkUsed(ctx, prizeID); err != nil {
			// the win is already recorded; the prize can be retired by hand
			log.Warn("failed to retire filled prize", zap.Error(err))
		} else {
			result.Retired = true
			log.Info("prize retired after last slot filled")
		}
	}
	return result, nil
}

// Slots reports how many winners a prize has and how many slots remain
func (s *ClaimService) Slots(ctx context.Context, prizeID int64) (winners int64, left int64, err error) {
	winners, err = s.wins.CountByPrize(ctx, prizeID)
	if err != nil {
		return 0, 0, err
	}
	left = int64(s.maxWinners) - winners
	if left < 0 {
		left = 0
	}
	return winners, left, nil
}
