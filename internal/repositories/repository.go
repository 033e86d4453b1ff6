package repositories

import (
	"context"

	"github.com/ArowuTest/prizedrop-backend/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create inserts a new user and returns ErrUserExists if the id is taken
	Create(ctx context.Context, user *models.User) error
	// Ensure atomically creates the user unless it already exists
	Ensure(ctx context.Context, id int64, name string) (models.EnsureResult, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	// FindAll returns every user ordered by id
	FindAll(ctx context.Context) ([]*models.User, error)
}

// PrizeRepository defines the interface for prize data operations
type PrizeRepository interface {
	// CreateMany appends one unused prize per image reference
	CreateMany(ctx context.Context, images []string) ([]*models.Prize, error)
	FindByID(ctx context.Context, id int64) (*models.Prize, error)
	// FindAll returns every prize ordered by id
	FindAll(ctx context.Context) ([]*models.Prize, error)
	// MarkUsed retires a prize. Marking an already used prize is not an error.
	MarkUsed(ctx context.Context, id int64) error
	// RandomUnused returns a uniformly chosen unused prize or ErrNoPrizesLeft
	RandomUnused(ctx context.Context) (*models.Prize, error)
	CountUnused(ctx context.Context) (int64, error)
}

// WinRepository defines the interface for win record operations
type WinRepository interface {
	// CountByPrize returns the number of win records for a prize
	CountByPrize(ctx context.Context, prizeID int64) (int64, error)
	// Record inserts a win for (userID, prizeID) unless one already exists.
	// The check and the insert are a single atomic step.
	Record(ctx context.Context, userID, prizeID int64) (models.RecordResult, error)
	// Claim records a win only if the user has not won the prize yet and the
	// prize has fewer than limit winners, as one atomic step. The returned
	// prize reflects the state after the claim.
	Claim(ctx context.Context, userID, prizeID int64, limit int) (models.ClaimOutcome, *models.Prize, error)
	// ImagesByUser returns the image reference of every prize the user won
	ImagesByUser(ctx context.Context, userID int64) ([]string, error)
	// TopWinners returns users ordered by win count descending. Ties are
	// broken by the earliest first win, then by user id.
	TopWinners(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// Store groups the repositories of one backend
type Store struct {
	Users  UserRepository
	Prizes PrizeRepository
	Wins   WinRepository
	// Close releases the backend connection
	Close func(ctx context.Context) error
}
