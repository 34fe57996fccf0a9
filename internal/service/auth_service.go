package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/payroll-desk/internal/auth"
	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/store"
	apperrors "github.com/spec-kit/payroll-desk/pkg/util/errorutil"
)

// AuthService handles login and principal lookups.
type AuthService struct {
	store    *store.Store
	tokenMgr *auth.TokenManager
	logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(st *store.Store, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{store: st, tokenMgr: tokens, logger: logger}
}

// Login verifies credentials and issues an access token. Unknown emails and
// wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, string, time.Time, error) {
	var user domain.User
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		user, err = tx.UserByEmail(strings.TrimSpace(email))
		return err
	})
	if err != nil || user.PasswordHash == "" || auth.ComparePassword(user.PasswordHash, password) != nil {
		s.logger.Info("login rejected", zap.String("email", email))
		return domain.User{}, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return domain.User{}, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// CurrentUser returns the stored record of a user.
func (s *AuthService) CurrentUser(ctx context.Context, id string) (domain.User, error) {
	var user domain.User
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		user, err = tx.User(id)
		return err
	})
	return user, err
}
