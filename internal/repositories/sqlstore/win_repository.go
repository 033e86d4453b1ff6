package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/prizedrop-backend/internal/models"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ repositories.WinRepository = (*WinRepository)(nil)

// WinRepository handles SQL operations for WinRecord
type WinRepository struct {
	db *gorm.DB
}

// NewWinRepository creates a new WinRepository
func NewWinRepository(db *gorm.DB) *WinRepository {
	return &WinRepository{db: db}
}

// CountByPrize counts the win records of a prize
func (r *WinRepository) CountByPrize(ctx context.Context, prizeID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.WinRecord{}).Where("prize_id = ?", prizeID).Count(&n).Error
	return n, repositories.Wrap("wins.count_by_prize", err)
}

// Record inserts a win unless the user already won the prize
func (r *WinRepository) Record(ctx context.Context, userID, prizeID int64) (models.RecordResult, error) {
	outcome, _, err := r.Claim(ctx, userID, prizeID, 0)
	if err != nil {
		return 0, err
	}
	if outcome == models.ClaimDuplicate {
		return models.WinAlreadyWon, nil
	}
	return models.WinAccepted, nil
}

// Claim runs the duplicate check, the winner count and the insert in one
// transaction holding a row lock on the prize, so claims for the same prize
// are serialised.
func (r *WinRepository) Claim(ctx context.Context, userID, prizeID int64, limit int) (models.ClaimOutcome, *models.Prize, error) {
	var (
		outcome models.ClaimOutcome
		prize   models.Prize
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repositories.ErrUserNotFound
			}
			return err
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&prize, prizeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repositories.ErrPrizeNotFound
			}
			return err
		}

		var owned int64
		if err := tx.Model(&models.WinRecord{}).Where("user_id = ? AND prize_id = ?", userID, prizeID).Count(&owned).Error; err != nil {
			return err
		}
		if owned > 0 {
			outcome = models.ClaimDuplicate
			return nil
		}

		var winners int64
		if err := tx.Model(&models.WinRecord{}).Where("prize_id = ?", prizeID).Count(&winners).Error; err != nil {
			return err
		}
		if limit > 0 && winners >= int64(limit) {
			outcome = models.ClaimClosedOut
			return nil
		}

		win := &models.WinRecord{UserID: userID, PrizeID: prizeID, WonAt: time.Now()}
		if err := tx.Create(win).Error; err != nil {
			return err
		}
		if err := tx.Model(&prize).Update("winner_count", gorm.Expr("winner_count + ?", 1)).Error; err != nil {
			return err
		}
		prize.WinnerCount = int(winners) + 1
		outcome = models.ClaimAccepted
		return nil
	})

	switch {
	case err == nil:
		return outcome, &prize, nil
	case errors.Is(err, repositories.ErrNotFound):
		return "", nil, err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		// unique (user_id, prize_id) index caught a concurrent duplicate
		return models.ClaimDuplicate, &prize, nil
	default:
		return "", nil, repositories.Wrap("wins.claim", err)
	}
}

// ImagesByUser returns the images of the user's prizes in win order
func (r *WinRepository) ImagesByUser(ctx context.Context, userID int64) ([]string, error) {
	images := []string{}
	err := r.db.WithContext(ctx).
		Table("wins").
		Joins("JOIN prizes ON prizes.id = wins.prize_id").
		Where("wins.user_id = ?", userID).
		Order("wins.id").
		Pluck("prizes.image", &images).Error
	if err != nil {
		return nil, repositories.Wrap("wins.images_by_user", err)
	}
	return images, nil
}

// TopWinners groups wins per user and joins the user name
func (r *WinRepository) TopWinners(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	var rows []struct {
		UserID   int64
		UserName string
		WinCount int64
	}
	q := r.db.WithContext(ctx).
		Table("wins").
		Select("wins.user_id AS user_id, users.name AS user_name, COUNT(*) AS win_count").
		Joins("JOIN users ON users.id = wins.user_id").
		Group("wins.user_id, users.name").
		Order("win_count DESC, MIN(wins.id) ASC, wins.user_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, repositories.Wrap("wins.top_winners", err)
	}

	entries := make([]*models.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &models.LeaderboardEntry{UserID: row.UserID, UserName: row.UserName, Wins: row.WinCount})
	}
	return entries, nil
}
