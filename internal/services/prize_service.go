package services

import (
	"context"
	"errors"
	"io"

	"github.com/ArowuTest/prizedrop-backend/internal/models"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
	"github.com/ArowuTest/prizedrop-backend/pkg/assets"
	"github.com/ArowuTest/prizedrop-backend/pkg/compositor"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// PrizeService allocates prizes for broadcast and manages the prize stock
type PrizeService struct {
	prizes repositories.PrizeRepository
	assets *assets.Store
	log    *zap.Logger
}

// NewPrizeService creates a new PrizeService
func NewPrizeService(prizes repositories.PrizeRepository, assetStore *assets.Store, log *zap.Logger) *PrizeService {
	return &PrizeService{prizes: prizes, assets: assetStore, log: log.Named("prizes")}
}

// Next picks a random unused prize. It returns repositories.ErrNoPrizesLeft
// when the stock is exhausted.
func (s *PrizeService) Next(ctx context.Context) (*models.Prize, error) {
	prize, err := s.prizes.RandomUnused(ctx)
	if err != nil {
		if !errors.Is(err, repositories.ErrNoPrizesLeft) {
			s.log.Error("failed to pick prize", zap.Error(err))
		}
		return nil, err
	}
	return prize, nil
}

// Retire marks a prize used so it is no longer broadcast
func (s *PrizeService) Retire(ctx context.Context, id int64) error {
	if err := s.prizes.MarkUsed(ctx, id); err != nil {
		return err
	}
	s.log.Info("prize retired", zap.Int64("prize_id", id))
	return nil
}

// Get returns a prize by id
func (s *PrizeService) Get(ctx context.Context, id int64) (*models.Prize, error) {
	return s.prizes.FindByID(ctx, id)
}

// Image returns the image reference of a prize
func (s *PrizeService) Image(ctx context.Context, id int64) (string, error) {
	prize, err := s.prizes.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return prize.Image, nil
}

// List returns every prize
func (s *PrizeService) List(ctx context.Context) ([]*models.Prize, error) {
	return s.prizes.FindAll(ctx)
}

// Status counts the prize pool
func (s *PrizeService) Status(ctx context.Context) (*models.StockStatus, error) {
	all, err := s.prizes.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	unused, err := s.prizes.CountUnused(ctx)
	if err != nil {
		return nil, err
	}
	return &models.StockStatus{Total: len(all), Unused: unused}, nil
}

// Teaser returns the obscured image bytes of a prize, falling back to the
// visible image when no teaser was generated.
func (s *PrizeService) Teaser(ctx context.Context, id int64) ([]byte, string, error) {
	ref, err := s.Image(ctx, id)
	if err != nil {
		return nil, "", err
	}
	path, err := s.assets.ResolveTeaser(ref)
	if err != nil {
		return nil, "", err
	}
	data, err := afero.ReadFile(s.assets.Fs(), path)
	if err != nil {
		return nil, "", err
	}
	return data, ref, nil
}

// LoadStock adds every visible image that is not a prize yet and writes its
// obscured teaser. Images that cannot be decoded are skipped.
func (s *PrizeService) LoadStock(ctx context.Context) ([]*models.Prize, error) {
	names, err := s.assets.ListVisible()
	if err != nil {
		return nil, err
	}
	existing, err := s.prizes.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	stocked := make(map[string]bool, len(existing))
	for _, p := range existing {
		stocked[p.Image] = true
	}

	var fresh []string
	skipped := 0
	for _, name := range names {
		if stocked[name] {
			continue
		}
		if err := s.writeTeaser(name); err != nil {
			s.log.Warn("skipping image", zap.String("image", name), zap.Error(err))
			skipped++
			continue
		}
		fresh = append(fresh, name)
	}
	if len(fresh) == 0 {
		return []*models.Prize{}, nil
	}

	created, err := s.prizes.CreateMany(ctx, fresh)
	if err != nil {
		s.log.Error("failed to stock prizes", zap.Error(err))
		return nil, err
	}
	s.log.Info("stock loaded", zap.Int("added", len(created)), zap.Int("skipped", skipped))
	return created, nil
}

func (s *PrizeService) writeTeaser(ref string) error {
	path, err := s.assets.VisiblePath(ref)
	if err != nil {
		return err
	}
	images, skipped := compositor.DecodeAll(s.assets.Fs(), []string{path})
	if len(images) == 0 {
		return skipped[0]
	}
	teaser := compositor.Obscure(images[0])
	return s.assets.WriteObscured(ref, func(w io.Writer) error {
		return compositor.Encode(w, teaser, ref)
	})
}
