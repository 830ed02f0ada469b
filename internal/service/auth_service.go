package service

import (
	"context"
	"errors"
	"time"

	"github.com/teplocom/support-triage/internal/auth"
	"github.com/teplocom/support-triage/internal/config"
	"github.com/teplocom/support-triage/internal/domain"
	"github.com/teplocom/support-triage/internal/repository"
	apperrors "github.com/teplocom/support-triage/pkg/util/errorutil"
)

// AuthService coordinates operator login flows.
type AuthService struct {
	operators  repository.OperatorRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, operators repository.OperatorRepository) *AuthService {
	return &AuthService{
		operators:  operators,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login authenticates an operator.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Operator, string, time.Time, error) {
	operator, err := s.operators.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(operator.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(operator.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return operator, token, exp, nil
}

// ChangePassword rotates an operator's password after verifying the old one.
func (s *AuthService) ChangePassword(ctx context.Context, operatorID int64, oldPassword, newPassword string) error {
	operator, err := s.operators.GetByID(ctx, operatorID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(operator.PasswordHash, oldPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	if newPassword == "" {
		return errors.New("empty password")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.operators.UpdatePassword(ctx, operatorID, hash)
}
