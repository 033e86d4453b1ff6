package services

import (
	"context"
	"errors"
	"strings"

	"github.com/ArowuTest/prizedrop-backend/internal/config"
	"github.com/ArowuTest/prizedrop-backend/internal/models"
	"github.com/ArowuTest/prizedrop-backend/pkg/jwt"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RoleAdmin is the role carried by admin tokens
const RoleAdmin = "admin"

// ErrInvalidCredentials is returned for a failed login
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService authenticates the configured admin account
type AuthService struct {
	admin  config.AdminConfig
	tokens *jwt.TokenService
	log    *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(admin config.AdminConfig, tokens *jwt.TokenService, log *zap.Logger) *AuthService {
	return &AuthService{admin: admin, tokens: tokens, log: log.Named("auth")}
}

// Login checks the credentials against the admin account and issues a token
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	if s.admin.Email == "" || s.admin.PasswordHash == "" {
		s.log.Warn("login attempted but no admin account is configured")
		return nil, ErrInvalidCredentials
	}
	if !strings.EqualFold(req.Email, s.admin.Email) {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(req.Password)); err != nil {
		s.log.Info("admin login failed", zap.String("email", req.Email))
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(RoleAdmin, s.admin.Email, RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.log.Info("admin logged in", zap.String("email", s.admin.Email))
	return &models.TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}
