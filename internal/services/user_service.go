package services

import (
	"context"

	"github.com/ArowuTest/prizedrop-backend/internal/models"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
	"go.uber.org/zap"
)

// UserService handles user-related business logic
type UserService struct {
	userRepo repositories.UserRepository
	log      *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo repositories.UserRepository, log *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		log:      log.Named("users"),
	}
}

// Seen registers a user on first contact. It reports whether the user was
// new. The name of a known user is left unchanged.
func (s *UserService) Seen(ctx context.Context, id int64, name string) (bool, error) {
	res, err := s.userRepo.Ensure(ctx, id, name)
	if err != nil {
		s.log.Error("failed to register user", zap.Int64("user_id", id), zap.Error(err))
		return false, err
	}
	if res == models.UserCreated {
		s.log.Info("user registered", zap.Int64("user_id", id), zap.String("name", name))
	}
	return res == models.UserCreated, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// GetAllUsers retrieves every registered user
func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.FindAll(ctx)
}
