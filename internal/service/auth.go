package service

import (
	"context"
	"errors"
	"fmt"

	"shethrive-data/internal/auth"
	"shethrive-data/internal/domain"
	"shethrive-data/internal/repository"

	"go.uber.org/zap"
)

// AuthService registration and login.
type AuthService interface {
	Register(ctx context.Context, req repository.RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
}

type LoginRequest struct {
	Email    string
	Password string
}

// AuthResponse user without credential material plus a fresh token pair.
type AuthResponse struct {
	User         domain.UserProfile `json:"user"`
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
}

type authService struct {
	profiles repository.ProfileRepository
	issuer   *auth.Issuer
	logger   *zap.Logger
}

func NewAuthService(profiles repository.ProfileRepository, issuer *auth.Issuer, logger *zap.Logger) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{profiles: profiles, issuer: issuer, logger: logger}
}

func (s *authService) Register(ctx context.Context, req repository.RegisterRequest) (*AuthResponse, error) {
	user, err := s.profiles.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.respond(user)
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.profiles.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.logger.Info("Login rejected")
		}
		return nil, err
	}
	s.logger.Info("User logged in", zap.String("user_id", user.ID))
	return s.respond(user)
}

func (s *authService) respond(user *domain.UserProfile) (*AuthResponse, error) {
	pair, err := s.issuer.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &AuthResponse{User: user.Public(), AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}
