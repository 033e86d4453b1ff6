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

var _ repositories.UserRepository = (*UserRepository)(nil)

// UserRepository handles SQL operations for User
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.CreatedAt = time.Now()
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repositories.ErrUserExists
	}
	return repositories.Wrap("users.create", err)
}

// Ensure inserts the user and ignores a conflict on the primary key
func (r *UserRepository) Ensure(ctx context.Context, id int64, name string) (models.EnsureResult, error) {
	user := &models.User{ID: id, Name: name, CreatedAt: time.Now()}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(user)
	if res.Error != nil {
		return 0, repositories.Wrap("users.ensure", res.Error)
	}
	if res.RowsAffected == 1 {
		return models.UserCreated, nil
	}
	return models.UserExisted, nil
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repositories.ErrUserNotFound
	}
	if err != nil {
		return nil, repositories.Wrap("users.find", err)
	}
	return &user, nil
}

// FindAll retrieves all users ordered by id
func (r *UserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	users := []*models.User{}
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, repositories.Wrap("users.find_all", err)
	}
	return users, nil
}
