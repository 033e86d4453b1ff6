package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/ArowuTest/prizedrop-backend/internal/models"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
	"github.com/ArowuTest/prizedrop-backend/pkg/assets"
	"github.com/ArowuTest/prizedrop-backend/pkg/compositor"
	"go.uber.org/zap"
)

// LeaderboardSize is the number of rows returned by Leaderboard
const LeaderboardSize = 10

// Summary is a user's reward image
type Summary struct {
	UserID int64
	// Images are the refs that made it into the image, in win order
	Images []string
	// Skipped counts refs that could not be resolved or decoded
	Skipped int
	PNG     []byte
}

// RewardService builds per-user summaries and the leaderboard
type RewardService struct {
	wins   repositories.WinRepository
	assets *assets.Store
	log    *zap.Logger
}

// NewRewardService creates a new RewardService
func NewRewardService(wins repositories.WinRepository, assetStore *assets.Store, log *zap.Logger) *RewardService {
	return &RewardService{wins: wins, assets: assetStore, log: log.Named("rewards")}
}

// Summary stacks every prize image the user owns into one PNG. It returns
// compositor.ErrNoArtifact when the user has no image that can be shown.
func (s *RewardService) Summary(ctx context.Context, userID int64) (*Summary, error) {
	refs, err := s.wins.ImagesByUser(ctx, userID)
	if err != nil {
		s.log.Error("failed to list user images", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}

	summary := &Summary{UserID: userID, Images: []string{}}
	var images []image.Image
	for _, ref := range refs {
		img, err := s.load(ref)
		if err != nil {
			s.log.Warn("image unavailable", zap.String("image", ref), zap.Error(err))
			summary.Skipped++
			continue
		}
		images = append(images, img)
		summary.Images = append(summary.Images, ref)
	}

	canvas, err := compositor.Compose(images)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	summary.PNG = buf.Bytes()
	return summary, nil
}

// load decodes the first variant of ref that decodes, visible before obscured
func (s *RewardService) load(ref string) (image.Image, error) {
	paths, err := s.assets.Candidates(ref)
	if err != nil {
		return nil, err
	}
	decoded, skipped := compositor.DecodeAll(s.assets.Fs(), paths)
	if len(decoded) == 0 {
		return nil, errors.Join(skipped...)
	}
	return decoded[0], nil
}

// Leaderboard returns the top winners
func (s *RewardService) Leaderboard(ctx context.Context) ([]*models.LeaderboardEntry, error) {
	entries, err := s.wins.TopWinners(ctx, LeaderboardSize)
	if err != nil {
		s.log.Error("failed to load leaderboard", zap.Error(err))
		return nil, err
	}
	return entries, nil
}

// IsNoArtifact reports whether err means there was nothing to compose
func IsNoArtifact(err error) bool {
	return errors.Is(err, compositor.ErrNoArtifact)
}

// LeaderboardText renders entries as a fixed width text table
func LeaderboardText(entries []*models.LeaderboardEntry) string {
	rule := strings.Repeat("_", 26)
	var b strings.Builder
	fmt.Fprintf(&b, "|USER_NAME    |COUNT_PRIZE|\n%s\n", rule)
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "| @%-11s | %-11d|\n%s", e.UserName, e.Wins, rule)
	}
	return b.String()
}
