package sqlstore

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/ArowuTest/prizedrop-backend/internal/models"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
	"gorm.io/gorm"
)

var _ repositories.PrizeRepository = (*PrizeRepository)(nil)

// PrizeRepository handles SQL operations for Prize
type PrizeRepository struct {
	db *gorm.DB
}

// NewPrizeRepository creates a new PrizeRepository
func NewPrizeRepository(db *gorm.DB) *PrizeRepository {
	return &PrizeRepository{db: db}
}

// CreateMany inserts one unused prize per image in a single batch
func (r *PrizeRepository) CreateMany(ctx context.Context, images []string) ([]*models.Prize, error) {
	prizes := make([]*models.Prize, 0, len(images))
	if len(images) == 0 {
		return prizes, nil
	}
	now := time.Now()
	for _, img := range images {
		prizes = append(prizes, &models.Prize{Image: img, CreatedAt: now})
	}
	if err := r.db.WithContext(ctx).Create(&prizes).Error; err != nil {
		return nil, repositories.Wrap("prizes.create_many", err)
	}
	return prizes, nil
}

// FindByID finds a prize by ID
func (r *PrizeRepository) FindByID(ctx context.Context, id int64) (*models.Prize, error) {
	var prize models.Prize
	err := r.db.WithContext(ctx).First(&prize, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repositories.ErrPrizeNotFound
	}
	if err != nil {
		return nil, repositories.Wrap("prizes.find", err)
	}
	return &prize, nil
}

// FindAll retrieves all prizes ordered by id
func (r *PrizeRepository) FindAll(ctx context.Context) ([]*models.Prize, error) {
	prizes := []*models.Prize{}
	if err := r.db.WithContext(ctx).Order("id").Find(&prizes).Error; err != nil {
		return nil, repositories.Wrap("prizes.find_all", err)
	}
	return prizes, nil
}

// MarkUsed sets used = true
func (r *PrizeRepository) MarkUsed(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&models.Prize{}).Where("id = ?", id).Update("used", true)
	if res.Error != nil {
		return repositories.Wrap("prizes.mark_used", res.Error)
	}
	if res.RowsAffected == 0 {
		// mysql reports changed rows only, so an already used prize lands here too
		_, err := r.FindByID(ctx, id)
		return err
	}
	return nil
}

// RandomUnused picks a random offset among unused prizes. Offsets keep the
// query portable between postgres RANDOM() and mysql RAND().
func (r *PrizeRepository) RandomUnused(ctx context.Context) (*models.Prize, error) {
	n, err := r.CountUnused(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, repositories.ErrNoPrizesLeft
	}

	var prize models.Prize
	err = r.db.WithContext(ctx).
		Where("used = ?", false).
		Order("id").
		Offset(int(rand.Int63n(n))).
		Limit(1).
		Take(&prize).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// retired between the count and the select
		return nil, repositories.ErrNoPrizesLeft
	}
	if err != nil {
		return nil, repositories.Wrap("prizes.random_unused", err)
	}
	return &prize, nil
}

// CountUnused counts prizes not yet retired
func (r *PrizeRepository) CountUnused(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Prize{}).Where("used = ?", false).Count(&n).Error
	return n, repositories.Wrap("prizes.count_unused", err)
}
