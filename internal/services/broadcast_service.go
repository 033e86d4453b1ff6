package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ArowuTest/prizedrop-backend/internal/models"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	broadcastFanOut = 16
	sendTimeout     = 5 * time.Second
)

// Pusher delivers messages to connected users
type Pusher interface {
	Connected() []int64
	Send(ctx context.Context, userID int64, msg []byte) error
}

// BroadcastReport describes one broadcast round
type BroadcastReport struct {
	PrizeID   int64 `json:"prizeId"`
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
}

// BroadcastService offers a random unused prize to every connected user
type BroadcastService struct {
	prizes   *PrizeService
	pusher   Pusher
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time
}

// NewBroadcastService creates a new BroadcastService
func NewBroadcastService(prizes *PrizeService, pusher Pusher, interval time.Duration, log *zap.Logger) *BroadcastService {
	return &BroadcastService{
		prizes:   prizes,
		pusher:   pusher,
		interval: interval,
		log:      log.Named("broadcast"),
		now:      time.Now,
	}
}

// TeaserURL is the path clients fetch the obscured prize image from
func TeaserURL(prizeID int64) string {
	return fmt.Sprintf("/api/v1/prizes/%d/teaser", prizeID)
}

// Broadcast picks the next prize and pushes it to every connected user. It
// returns repositories.ErrNoPrizesLeft when there is nothing to offer.
func (s *BroadcastService) Broadcast(ctx context.Context) (*BroadcastReport, error) {
	prize, err := s.prizes.Next(ctx)
	if err != nil {
		return nil, err
	}

	msg, err := json.Marshal(models.Notification{
		Type:     models.NotificationPrize,
		PrizeID:  prize.ID,
		ImageURL: TeaserURL(prize.ID),
		SentAt:   s.now(),
	})
	if err != nil {
		return nil, err
	}

	report := &BroadcastReport{PrizeID: prize.ID}
	var delivered, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(broadcastFanOut)
	for _, userID := range s.pusher.Connected() {
		userID := userID
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			defer cancel()
			if err := s.pusher.Send(sendCtx, userID, msg); err != nil {
				s.log.Debug("push failed", zap.Int64("user_id", userID), zap.Error(err))
				failed.Add(1)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	g.Wait()

	report.Delivered = delivered.Load()
	report.Failed = failed.Load()
	s.log.Info("prize broadcast",
		zap.Int64("prize_id", prize.ID),
		zap.Int64("delivered", report.Delivered),
		zap.Int64("failed", report.Failed))
	return report, nil
}

// Run broadcasts once per interval until ctx is cancelled
func (s *BroadcastService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("broadcast scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("broadcast scheduler stopped")
			return nil
		case <-ticker.C:
			if _, err := s.Broadcast(ctx); err != nil {
				if errors.Is(err, repositories.ErrNoPrizesLeft) {
					s.log.Info("no prizes left, skipping broadcast")
					continue
				}
				s.log.Error("broadcast failed", zap.Error(err))
			}
		}
	}
}
